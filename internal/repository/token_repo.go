package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/chanhnguyen91/go-auth-boilerplate/internal/model"
)

// RefreshTokenRepository persists refresh tokens for rotation.
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *model.RefreshToken) error
	FindByToken(ctx context.Context, token string) (*model.RefreshToken, error)
	// ConsumeByToken deletes the row matching the exact token string and
	// returns the number of rows removed. Rotation relies on this being a
	// single conditional statement: when two requests race on the same token,
	// exactly one sees 1 and the other sees 0.
	ConsumeByToken(ctx context.Context, token string) (int64, error)
}

type refreshTokenRepository struct {
	db *gorm.DB
}

func NewRefreshTokenRepository(db *gorm.DB) RefreshTokenRepository {
	return &refreshTokenRepository{db: db}
}

func (r *refreshTokenRepository) Create(ctx context.Context, token *model.RefreshToken) error {
	return GetDB(ctx, r.db).Create(token).Error
}

func (r *refreshTokenRepository) FindByToken(ctx context.Context, token string) (*model.RefreshToken, error) {
	var row model.RefreshToken
	if err := GetDB(ctx, r.db).Where("token = ?", token).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *refreshTokenRepository) ConsumeByToken(ctx context.Context, token string) (int64, error) {
	res := GetDB(ctx, r.db).Where("token = ?", token).Delete(&model.RefreshToken{})
	return res.RowsAffected, res.Error
}
