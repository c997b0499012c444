package model

import "time"

// メール認証トークン。DBには平文ではなくhashを保存する。
type EmailVerificationToken struct {
	ID        string     `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    int64      `gorm:"not null;index" json:"user_id"`
	TokenHash string     `gorm:"not null;uniqueIndex" json:"-"`
	ExpiresAt time.Time  `gorm:"not null;index" json:"expires_at"`
	UsedAt    *time.Time `gorm:"index" json:"used_at"`
	CreatedAt time.Time  `gorm:"not null;autoCreateTime" json:"created_at"`
}
