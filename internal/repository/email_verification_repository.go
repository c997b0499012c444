package repository

import (
	"context"

	"freshleap/internal/domain/model"
)

// メール認証トークンの保存・照合
type EmailVerificationRepository interface {
	Create(ctx context.Context, token *model.EmailVerificationToken) error
	FindByTokenHash(ctx context.Context, tokenHash string) (*model.EmailVerificationToken, error)
	MarkUsed(ctx context.Context, tokenID string) error
	DeleteAllByUserID(ctx context.Context, userID int64) error
}
