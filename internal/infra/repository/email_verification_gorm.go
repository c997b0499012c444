package repository

import (
	"context"
	"errors"
	"time"

	"freshleap/internal/domain/model"
	repo "freshleap/internal/repository"

	"gorm.io/gorm"
)

type EmailVerificationGormRepository struct {
	db *gorm.DB
}

func NewEmailVerificationRepository(db *gorm.DB) *EmailVerificationGormRepository {
	return &EmailVerificationGormRepository{db: db}
}

func (r *EmailVerificationGormRepository) Create(ctx context.Context, token *model.EmailVerificationToken) error {
	return r.db.WithContext(ctx).Create(token).Error
}

func (r *EmailVerificationGormRepository) FindByTokenHash(ctx context.Context, tokenHash string) (*model.EmailVerificationToken, error) {
	var t model.EmailVerificationToken
	err := r.db.WithContext(ctx).Where("token_hash = ?", tokenHash).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repo.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *EmailVerificationGormRepository) MarkUsed(ctx context.Context, tokenID string) error {
	now := time.Now()
	res := r.db.WithContext(ctx).
		Model(&model.EmailVerificationToken{}).
		Where("id = ? AND used_at IS NULL", tokenID).
		Update("used_at", now)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *EmailVerificationGormRepository) DeleteAllByUserID(ctx context.Context, userID int64) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&model.EmailVerificationToken{}).Error
}
