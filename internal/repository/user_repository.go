package repository

import (
	"context"

	"freshleap/internal/domain/model"
)

// 保存・取得を約束
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, userID int64) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	// アクティブかどうか・メール認証済み・最終ログインなどの更新
	Update(ctx context.Context, user *model.User) error
	IncrementTokenVersion(ctx context.Context, userID int64) error
}
