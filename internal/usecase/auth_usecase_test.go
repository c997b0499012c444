package usecase_test

import (
	"context"
	"testing"
	"time"

	"freshleap/internal/config"
	"freshleap/internal/domain/model"
	"freshleap/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"
)

type AuthUserRepoMock struct{ mock.Mock }

func (m *AuthUserRepoMock) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	if args.Error(0) == nil {
		user.ID = 1
	}
	return args.Error(0)
}

func (m *AuthUserRepoMock) FindByID(ctx context.Context, userID int64) (*model.User, error) {
	args := m.Called(ctx, userID)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *AuthUserRepoMock) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *AuthUserRepoMock) Update(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *AuthUserRepoMock) IncrementTokenVersion(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

type AuthRTRepoMock struct{ mock.Mock }

func (m *AuthRTRepoMock) Create(ctx context.Context, token *model.RefreshToken) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *AuthRTRepoMock) FindByTokenHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error) {
	args := m.Called(ctx, tokenHash)
	rt, _ := args.Get(0).(*model.RefreshToken)
	return rt, args.Error(1)
}

func (m *AuthRTRepoMock) MarkUsed(ctx context.Context, tokenID string) error {
	args := m.Called(ctx, tokenID)
	return args.Error(0)
}

func (m *AuthRTRepoMock) DeleteAllByUserID(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *AuthRTRepoMock) DeleteByID(ctx context.Context, tokenID string) error {
	args := m.Called(ctx, tokenID)
	return args.Error(0)
}

type AuthEVRepoMock struct{ mock.Mock }

func (m *AuthEVRepoMock) Create(ctx context.Context, token *model.EmailVerificationToken) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *AuthEVRepoMock) FindByTokenHash(ctx context.Context, tokenHash string) (*model.EmailVerificationToken, error) {
	args := m.Called(ctx, tokenHash)
	ev, _ := args.Get(0).(*model.EmailVerificationToken)
	return ev, args.Error(1)
}

func (m *AuthEVRepoMock) MarkUsed(ctx context.Context, tokenID string) error {
	args := m.Called(ctx, tokenID)
	return args.Error(0)
}

func (m *AuthEVRepoMock) DeleteAllByUserID(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

type AuthMailerMock struct{ mock.Mock }

func (m *AuthMailerMock) Send(ctx context.Context, to string, subject string, body string) error {
	args := m.Called(ctx, to, subject, body)
	return args.Error(0)
}

// 全部通すvalidator
type okValidator struct{}

func (okValidator) ValidateRegister(context.Context, string, string, string) error { return nil }
func (okValidator) ValidateLogin(context.Context, string, string) error            { return nil }
func (okValidator) ValidateRefresh(context.Context, string, string) error          { return nil }
func (okValidator) ValidateLogout(context.Context) error                           { return nil }

type authFixture struct {
	users  *AuthUserRepoMock
	rt     *AuthRTRepoMock
	ev     *AuthEVRepoMock
	mailer *AuthMailerMock
	uc     *usecase.AuthUsecase
}

func newAuthFixture() *authFixture {
	users := new(AuthUserRepoMock)
	rt := new(AuthRTRepoMock)
	ev := new(AuthEVRepoMock)
	mailer := new(AuthMailerMock)

	cfg := config.Config{
		JWTSecret: "test-secret",
		APIDomain: "http://localhost:8080",
	}

	uc := usecase.NewAuthUsecase(cfg, users, rt, ev, mailer, okValidator{}, discardLogger())
	return &authFixture{users: users, rt: rt, ev: ev, mailer: mailer, uc: uc}
}

func mustHash(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	assert.NoError(t, err)
	return string(h)
}

func TestAuthUsecase_Register_SendsVerificationMail(t *testing.T) {
	f := newAuthFixture()

	f.users.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.ev.On("Create", mock.Anything, mock.MatchedBy(func(ev *model.EmailVerificationToken) bool {
		return ev.UserID == 1 && ev.TokenHash != "" && ev.ExpiresAt.After(time.Now())
	})).Return(nil)
	f.mailer.On("Send", mock.Anything, "farmer@example.com", mock.Anything, mock.Anything).Return(nil)

	out, err := f.uc.Register(context.Background(), usecase.AuthRegisterRequest{
		Email:    "farmer@example.com",
		Password: "password123",
		Role:     "FARMER",
	})
	assert.NoError(t, err)
	assert.Equal(t, "FARMER", out.User.Role)
	assert.False(t, out.User.EmailVerified)

	f.ev.AssertExpectations(t)
	f.mailer.AssertExpectations(t)
}

// メール未認証はログイン不可。refreshも発行しない。
func TestAuthUsecase_Login_UnverifiedEmail_Forbidden(t *testing.T) {
	f := newAuthFixture()

	f.users.On("FindByEmail", mock.Anything, "a@example.com").Return(&model.User{
		ID:            1,
		Email:         "a@example.com",
		PasswordHash:  mustHash(t, "password123"),
		IsActive:      true,
		EmailVerified: false,
	}, nil)

	_, err := f.uc.Login(context.Background(), usecase.AuthLoginRequest{Email: "a@example.com", Password: "password123"}, "ua")
	assert.Equal(t, usecase.ErrForbidden, err)

	f.rt.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAuthUsecase_Login_WrongPassword_Unauthorized(t *testing.T) {
	f := newAuthFixture()

	f.users.On("FindByEmail", mock.Anything, "a@example.com").Return(&model.User{
		ID:            1,
		Email:         "a@example.com",
		PasswordHash:  mustHash(t, "password123"),
		IsActive:      true,
		EmailVerified: true,
	}, nil)

	_, err := f.uc.Login(context.Background(), usecase.AuthLoginRequest{Email: "a@example.com", Password: "wrong"}, "ua")
	assert.Equal(t, usecase.ErrUnauthorized, err)

	f.rt.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAuthUsecase_Login_Success_IssuesTokens(t *testing.T) {
	f := newAuthFixture()

	f.users.On("FindByEmail", mock.Anything, "a@example.com").Return(&model.User{
		ID:            1,
		Email:         "a@example.com",
		PasswordHash:  mustHash(t, "password123"),
		IsActive:      true,
		EmailVerified: true,
	}, nil)
	f.users.On("Update", mock.Anything, mock.Anything).Return(nil)
	f.rt.On("Create", mock.Anything, mock.MatchedBy(func(rt *model.RefreshToken) bool {
		return rt.UserID == 1 && rt.TokenHash != "" && rt.UserAgent == "ua"
	})).Return(nil)

	out, err := f.uc.Login(context.Background(), usecase.AuthLoginRequest{Email: "a@example.com", Password: "password123"}, "ua")
	assert.NoError(t, err)
	assert.NotEmpty(t, out.Body.Token.AccessToken)
	assert.NotEmpty(t, out.RefreshTokenPlain)
	assert.NotEmpty(t, out.CsrfTokenPlain)

	f.rt.AssertExpectations(t)
}

func TestAuthUsecase_VerifyEmail_Success(t *testing.T) {
	f := newAuthFixture()

	f.ev.On("FindByTokenHash", mock.Anything, mock.Anything).Return(&model.EmailVerificationToken{
		ID:        "ev-1",
		UserID:    1,
		ExpiresAt: time.Now().Add(time.Hour),
	}, nil)
	f.users.On("FindByID", mock.Anything, int64(1)).Return(&model.User{ID: 1, IsActive: true}, nil)
	f.users.On("Update", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
		return u.EmailVerified
	})).Return(nil)
	f.ev.On("MarkUsed", mock.Anything, "ev-1").Return(nil)

	out, err := f.uc.VerifyEmail(context.Background(), "some-plain-token")
	assert.NoError(t, err)
	assert.Equal(t, "email verified", out.Message)

	f.users.AssertExpectations(t)
	f.ev.AssertExpectations(t)
}

func TestAuthUsecase_VerifyEmail_Expired(t *testing.T) {
	f := newAuthFixture()

	f.ev.On("FindByTokenHash", mock.Anything, mock.Anything).Return(&model.EmailVerificationToken{
		ID:        "ev-1",
		UserID:    1,
		ExpiresAt: time.Now().Add(-time.Hour),
	}, nil)

	_, err := f.uc.VerifyEmail(context.Background(), "stale-token")
	assert.Equal(t, usecase.ErrUnauthorized, err)

	f.users.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

// used済みのrefreshが来たらreplay扱いで全refreshを落とす。
func TestAuthUsecase_Refresh_Replay_DeletesAllTokens(t *testing.T) {
	f := newAuthFixture()

	used := time.Now().Add(-time.Minute)
	f.rt.On("FindByTokenHash", mock.Anything, mock.Anything).Return(&model.RefreshToken{
		ID:        "rt-1",
		UserID:    1,
		ExpiresAt: time.Now().Add(time.Hour),
		UsedAt:    &used,
	}, nil)
	f.rt.On("DeleteAllByUserID", mock.Anything, int64(1)).Return(nil)

	_, err := f.uc.Refresh(context.Background(), "replayed-token", "ua")
	assert.Equal(t, usecase.ErrSecurityIncident, err)

	f.rt.AssertExpectations(t)
}

func TestAuthUsecase_Refresh_Success_Rotates(t *testing.T) {
	f := newAuthFixture()

	f.rt.On("FindByTokenHash", mock.Anything, mock.Anything).Return(&model.RefreshToken{
		ID:        "rt-1",
		UserID:    1,
		UserAgent: "ua",
		ExpiresAt: time.Now().Add(time.Hour),
	}, nil)
	f.users.On("FindByID", mock.Anything, int64(1)).Return(&model.User{ID: 1, IsActive: true, EmailVerified: true}, nil)
	f.rt.On("MarkUsed", mock.Anything, "rt-1").Return(nil)
	f.rt.On("Create", mock.Anything, mock.MatchedBy(func(rt *model.RefreshToken) bool {
		return rt.ID != "rt-1" && rt.UserID == 1
	})).Return(nil)

	out, err := f.uc.Refresh(context.Background(), "valid-token", "ua")
	assert.NoError(t, err)
	assert.NotEmpty(t, out.Body.AccessToken)
	assert.NotEmpty(t, out.RefreshTokenPlain)

	f.rt.AssertExpectations(t)
}

func TestAuthUsecase_Logout_DeletesRefresh(t *testing.T) {
	f := newAuthFixture()

	f.rt.On("FindByTokenHash", mock.Anything, mock.Anything).Return(&model.RefreshToken{ID: "rt-1", UserID: 1}, nil)
	f.rt.On("DeleteByID", mock.Anything, "rt-1").Return(nil)

	out, err := f.uc.Logout(context.Background(), "some-token")
	assert.NoError(t, err)
	assert.Equal(t, "logout success", out.Message)

	f.rt.AssertExpectations(t)
}
