package query

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chanhnguyen91/go-auth-boilerplate/pkg/apperr"
)

func TestBuildDefaults(t *testing.T) {
	opts, err := Build(Params{}, nil, nil)
	require.NoError(t, err)
	require.Equal(t, 0, opts.Offset)
	require.Equal(t, DefaultLimit, opts.Limit)
	require.Empty(t, opts.Keyword)
	require.Nil(t, opts.Filter)
	require.Nil(t, opts.Sort)
}

func TestBuildPagination(t *testing.T) {
	opts, err := Build(Params{Page: 2, Limit: 10}, nil, nil)
	require.NoError(t, err)
	require.Equal(t, 10, opts.Offset)
	require.Equal(t, 10, opts.Limit)

	// Out-of-range values fall back to defaults
	opts, err = Build(Params{Page: -3, Limit: 0}, nil, nil)
	require.NoError(t, err)
	require.Equal(t, 0, opts.Offset)
	require.Equal(t, DefaultLimit, opts.Limit)
}

func TestBuildSortClauses(t *testing.T) {
	allowed := []string{"name", "created_at"}
	opts, err := Build(Params{Sort: "name,-created_at"}, allowed, nil)
	require.NoError(t, err)
	require.Equal(t, []Order{
		{Field: "name", Descending: false},
		{Field: "created_at", Descending: true},
	}, opts.Sort)
}

func TestBuildRejectsDisallowedSortField(t *testing.T) {
	_, err := Build(Params{Sort: "password"}, []string{"name"}, nil)
	require.Error(t, err)
	require.True(t, apperr.IsKind(err, apperr.KindValidation))

	appErr := apperr.From(err)
	require.Equal(t, "errors.invalid_sort", appErr.MessageKey)
	require.Len(t, appErr.Details, 1)
	require.Equal(t, "sort", appErr.Details[0].Path)
}

func TestBuildRejectsMalformedFilter(t *testing.T) {
	_, err := Build(Params{Filter: "{not json"}, nil, nil)
	require.Error(t, err)
	require.True(t, apperr.IsKind(err, apperr.KindValidation))
	require.Equal(t, "errors.invalid_filter", apperr.From(err).MessageKey)
}

func TestBuildParsesFilterObject(t *testing.T) {
	opts, err := Build(Params{Filter: `{"is_verified":true,"name":"alice"}`}, nil, nil)
	require.NoError(t, err)
	require.Equal(t, map[string]any{"is_verified": true, "name": "alice"}, opts.Filter)
}

func TestBuildKeywordNeedsSearchableFields(t *testing.T) {
	opts, err := Build(Params{Keyword: "ali"}, nil, nil)
	require.NoError(t, err)
	require.Empty(t, opts.Keyword)

	opts, err = Build(Params{Keyword: "ali"}, nil, []string{"email", "name"})
	require.NoError(t, err)
	require.Equal(t, "ali", opts.Keyword)
	require.Equal(t, []string{"email", "name"}, opts.KeywordFields)
}
