package validator

import (
	"context"
	"regexp"
	"strings"

	"freshleap/internal/repository"
	"freshleap/internal/usecase"
)

type authValidator struct {
	users repository.UserRepository
}

// Usecaseは interface を依存注入
func NewAuthValidator(users repository.UserRepository) usecase.AuthValidator {
	return &authValidator{users: users}
}

// サインアップの入力を検証
func (v *authValidator) ValidateRegister(ctx context.Context, email string, password string, role string) error {
	email = strings.TrimSpace(email)

	// 必須チェック
	if email == "" || password == "" {
		return usecase.ErrValidation
	}

	// email形式
	if !isEmailLike(email) {
		return usecase.ErrValidation
	}

	// パスワード最低文字数（MVP: 8）
	if len(password) < 8 {
		return usecase.ErrValidation
	}

	// roleはUSER/FARMERのみ。空はUSER扱い。
	switch role {
	case "", "USER", "FARMER":
	default:
		return usecase.ErrValidation
	}

	// email重複チェック（DBが必要）
	u, err := v.users.FindByEmail(ctx, email)
	if err == nil && u != nil {
		return usecase.ErrConflict
	}

	return nil
}

// ログインの入力を検証
func (v *authValidator) ValidateLogin(ctx context.Context, email string, password string) error {
	email = strings.TrimSpace(email)

	if email == "" || password == "" {
		return usecase.ErrValidation
	}

	if !isEmailLike(email) {
		return usecase.ErrValidation
	}

	return nil
}

// refresh 入力を検証
func (v *authValidator) ValidateRefresh(ctx context.Context, refreshToken string, userAgent string) error {
	if strings.TrimSpace(refreshToken) == "" {
		return usecase.ErrUnauthorized
	}

	return nil
}

// logout 入力を検証
func (v *authValidator) ValidateLogout(ctx context.Context) error {
	return nil
}

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// 簡易メール形式をチェック
func isEmailLike(s string) bool {
	return emailRe.MatchString(s)
}
