// Package query translates raw pagination/sort/filter/keyword parameters into
// a bounded query description shared by every list endpoint. Build is pure;
// Apply maps the result onto a gorm statement.
package query

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/chanhnguyen91/go-auth-boilerplate/pkg/apperr"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
)

// Params holds the raw list parameters as they arrive from the client.
type Params struct {
	Page    int    `form:"page"`
	Limit   int    `form:"limit"`
	Keyword string `form:"keyword"`
	Sort    string `form:"sort"`
	Filter  string `form:"filter"`
}

// Parse extracts list parameters from the request query string.
func Parse(c *gin.Context) Params {
	page, _ := strconv.Atoi(c.DefaultQuery("page", strconv.Itoa(DefaultPage)))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(DefaultLimit)))
	return Params{
		Page:    page,
		Limit:   limit,
		Keyword: c.Query("keyword"),
		Sort:    c.Query("sort"),
		Filter:  c.Query("filter"),
	}
}

// Order is one sort clause; clauses apply in declaration order, first is the
// primary sort key.
type Order struct {
	Field      string
	Descending bool
}

// Options is the normalized query shape produced by Build.
type Options struct {
	Offset int
	Limit  int

	// KeywordFields pairs the keyword with the searchable columns it expands
	// over. Empty Keyword or empty fields means no keyword condition.
	Keyword       string
	KeywordFields []string

	// Filter is an ANDed equality condition parsed from the filter JSON.
	Filter map[string]any

	Sort []Order
}

// Build validates and normalizes params against the resource's allowed sort
// fields and searchable fields. It performs no I/O.
func Build(p Params, allowedSortFields, searchableFields []string) (*Options, error) {
	page := p.Page
	if page < 1 {
		page = DefaultPage
	}
	limit := p.Limit
	if limit < 1 {
		limit = DefaultLimit
	}

	opts := &Options{
		Offset: (page - 1) * limit,
		Limit:  limit,
	}

	if p.Keyword != "" && len(searchableFields) > 0 {
		opts.Keyword = p.Keyword
		opts.KeywordFields = searchableFields
	}

	if p.Filter != "" {
		var filter map[string]any
		if err := json.Unmarshal([]byte(p.Filter), &filter); err != nil {
			return nil, apperr.Validation("errors.invalid_filter", apperr.Detail{
				Path:    "filter",
				Message: "Invalid filter format. Expected JSON object.",
			}).WithCause(err)
		}
		opts.Filter = filter
	}

	if p.Sort != "" {
		for _, raw := range strings.Split(p.Sort, ",") {
			clause := strings.TrimSpace(raw)
			if clause == "" {
				continue
			}
			desc := strings.HasPrefix(clause, "-")
			field := strings.TrimPrefix(clause, "-")
			if len(allowedSortFields) > 0 && !contains(allowedSortFields, field) {
				return nil, apperr.Validation("errors.invalid_sort", apperr.Detail{
					Path:    "sort",
					Message: "Sort field '" + field + "' is not allowed.",
				})
			}
			opts.Sort = append(opts.Sort, Order{Field: field, Descending: desc})
		}
	}

	return opts, nil
}

// Apply maps the options onto a gorm statement. Keyword conditions OR together
// as case-insensitive contains matches; the filter ANDs on top.
func (o *Options) Apply(db *gorm.DB) *gorm.DB {
	if o.Keyword != "" && len(o.KeywordFields) > 0 {
		keyword := o.Keyword
		cond := db.Session(&gorm.Session{NewDB: true})
		for i, field := range o.KeywordFields {
			like := field + " ILIKE ?"
			if i == 0 {
				cond = cond.Where(like, "%"+keyword+"%")
			} else {
				cond = cond.Or(like, "%"+keyword+"%")
			}
		}
		db = db.Where(cond)
	}

	if len(o.Filter) > 0 {
		db = db.Where(o.Filter)
	}

	for _, order := range o.Sort {
		direction := "ASC"
		if order.Descending {
			direction = "DESC"
		}
		db = db.Order(order.Field + " " + direction)
	}

	return db.Offset(o.Offset).Limit(o.Limit)
}

func contains(fields []string, field string) bool {
	for _, f := range fields {
		if f == field {
			return true
		}
	}
	return false
}
