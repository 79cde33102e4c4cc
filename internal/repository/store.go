package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/chanhnguyen91/go-auth-boilerplate/pkg/query"
)

// CrudStore is the generic persistence capability every resource repository
// composes: create, list with pagination, find by id, save, remove. Entity
// repositories embed Store and add their own finders on top.
type CrudStore[T any] interface {
	Create(ctx context.Context, entity *T) error
	FindByID(ctx context.Context, id uint, relations ...string) (*T, error)
	List(ctx context.Context, opts *query.Options, relations ...string) ([]T, int64, error)
	Save(ctx context.Context, entity *T) error
	Delete(ctx context.Context, entity *T) error
}

// Store implements CrudStore over a gorm connection.
type Store[T any] struct {
	db *gorm.DB
}

func NewStore[T any](db *gorm.DB) *Store[T] {
	return &Store[T]{db: db}
}

func (s *Store[T]) Create(ctx context.Context, entity *T) error {
	return GetDB(ctx, s.db).Create(entity).Error
}

func (s *Store[T]) FindByID(ctx context.Context, id uint, relations ...string) (*T, error) {
	db := GetDB(ctx, s.db)
	for _, relation := range relations {
		db = db.Preload(relation)
	}
	var entity T
	if err := db.First(&entity, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &entity, nil
}

// List returns one page of entities plus the total count before paging.
func (s *Store[T]) List(ctx context.Context, opts *query.Options, relations ...string) ([]T, int64, error) {
	db := GetDB(ctx, s.db)

	var model T
	counted := db.Model(&model)
	if opts != nil {
		if opts.Keyword != "" || len(opts.Filter) > 0 {
			filtered := &query.Options{
				Keyword:       opts.Keyword,
				KeywordFields: opts.KeywordFields,
				Filter:        opts.Filter,
				Limit:         -1,
				Offset:        -1,
			}
			counted = filtered.Apply(counted)
		}
	}
	var total int64
	if err := counted.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	for _, relation := range relations {
		db = db.Preload(relation)
	}
	if opts != nil {
		db = opts.Apply(db)
	}

	var entities []T
	if err := db.Find(&entities).Error; err != nil {
		return nil, 0, err
	}
	return entities, total, nil
}

func (s *Store[T]) Save(ctx context.Context, entity *T) error {
	return GetDB(ctx, s.db).Save(entity).Error
}

func (s *Store[T]) Delete(ctx context.Context, entity *T) error {
	return GetDB(ctx, s.db).Delete(entity).Error
}
