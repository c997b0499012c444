package usecase

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"freshleap/internal/config"
	"freshleap/internal/domain/model"
	"freshleap/internal/mail"
	"freshleap/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	//400 入力不足
	ErrValidation = errors.New("validation error")
	//401 認証失敗
	ErrUnauthorized = errors.New("unauthorized")
	//403 権限・停止ユーザー・未認証メール
	ErrForbidden = errors.New("forbidden")
	//401 refresh再利用（replay）
	ErrSecurityIncident = errors.New("security incident")
	//409 email重複
	ErrConflict = errors.New("conflict")
	//500
	ErrInternal = errors.New("internal error")
)

// accesstokenの有効期限
const accessTokenTTL = 15 * time.Minute

// refreshtokenの有効期限
const refreshTokenTTL = 30 * 24 * time.Hour

// メール認証トークンの有効期限
const verificationTokenTTL = 24 * time.Hour

// usecaseがValidatorInterfaceに依存する約束
type AuthValidator interface {
	ValidateRegister(ctx context.Context, email string, password string, role string) error
	ValidateLogin(ctx context.Context, email string, password string) error
	ValidateRefresh(ctx context.Context, refreshToken string, userAgent string) error
	ValidateLogout(ctx context.Context) error
}

type UserDTO struct {
	ID            int64  `json:"id"`
	Email         string `json:"email"`
	Role          string `json:"role"`
	EmailVerified bool   `json:"email_verified"`
	TokenVersion  int    `json:"token_version"`
	IsActive      bool   `json:"is_active"`
}

type JwtAccessTokenDTO struct {
	AccessToken  string `json:"access_token"`
	ExpiresIn    int    `json:"expires_in"`
	TokenVersion int    `json:"token_version"`
}

type AuthRegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type AuthRegisterResponse struct {
	User    UserDTO `json:"user"`
	Message string  `json:"message"`
}

type AuthLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthLoginResponse struct {
	User  UserDTO           `json:"user"`
	Token JwtAccessTokenDTO `json:"token"`
}

type SuccessResponse struct {
	Message string `json:"message"`
}

type LoginResult struct {
	Body              AuthLoginResponse
	RefreshTokenPlain string
	CsrfTokenPlain    string
}

type RefreshResult struct {
	Body              JwtAccessTokenDTO
	RefreshTokenPlain string
	CsrfTokenPlain    string
}

type AuthUsecase struct {
	cfg       config.Config
	users     repository.UserRepository
	rtRepo    repository.RefreshTokenRepository
	evRepo    repository.EmailVerificationRepository
	mailer    mail.Mailer
	validator AuthValidator
	log       *slog.Logger
}

func NewAuthUsecase(
	cfg config.Config,
	users repository.UserRepository,
	rtRepo repository.RefreshTokenRepository,
	evRepo repository.EmailVerificationRepository,
	mailer mail.Mailer,
	validator AuthValidator,
	log *slog.Logger,
) *AuthUsecase {
	return &AuthUsecase{
		cfg:       cfg,
		users:     users,
		rtRepo:    rtRepo,
		evRepo:    evRepo,
		mailer:    mailer,
		validator: validator,
		log:       log,
	}
}

func (u *AuthUsecase) Register(ctx context.Context, req AuthRegisterRequest) (*AuthRegisterResponse, error) {
	//入力検証（validatorに寄せる）
	if err := u.validator.ValidateRegister(ctx, req.Email, req.Password, req.Role); err != nil {
		return nil, err
	}

	//パスワードは必ずハッシュ化して保存（平文保存しない）
	pwHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, ErrInternal
	}

	role := model.RoleUser
	if req.Role == string(model.RoleFarmer) {
		role = model.RoleFarmer
	}

	user := &model.User{
		Email:         req.Email,
		PasswordHash:  string(pwHash),
		Role:          role,
		EmailVerified: false,
		TokenVersion:  0,
		IsActive:      true,
	}

	//保存（email重複はvalidatorで先に弾いているが、race時はuniqueで落ちる）
	if err := u.users.Create(ctx, user); err != nil {
		return nil, ErrConflict
	}

	//メール認証トークン発行（DBにはhash保存）
	plain, hash, err := newRandomTokenAndHash()
	if err != nil {
		return nil, ErrInternal
	}

	ev := &model.EmailVerificationToken{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		TokenHash: hash,
		ExpiresAt: time.Now().Add(verificationTokenTTL),
	}
	if err := u.evRepo.Create(ctx, ev); err != nil {
		return nil, ErrInternal
	}

	//認証メール送信。失敗してもユーザー作成自体は成立。
	verifyURL := fmt.Sprintf("%s/auth/verify?token=%s", u.cfg.APIDomain, plain)
	body := fmt.Sprintf("Welcome to FreshLeap!\n\nPlease verify your email address:\n%s\n\nThis link expires in 24 hours.", verifyURL)
	if err := u.mailer.Send(ctx, user.Email, "Verify your FreshLeap account", body); err != nil {
		u.log.Warn("verification mail send failed",
			slog.Int64("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	return &AuthRegisterResponse{
		User:    toUserDTO(user),
		Message: "verification mail sent",
	}, nil
}

// VerifyEmail はメール内リンクのトークンを照合してemail_verifiedを立てる。
func (u *AuthUsecase) VerifyEmail(ctx context.Context, tokenPlain string) (*SuccessResponse, error) {
	if tokenPlain == "" {
		return nil, ErrValidation
	}

	ev, err := u.evRepo.FindByTokenHash(ctx, hashToken(tokenPlain))
	if err != nil || ev == nil {
		return nil, ErrUnauthorized
	}

	if ev.UsedAt != nil {
		return nil, ErrUnauthorized
	}
	if ev.ExpiresAt.Before(time.Now()) {
		return nil, ErrUnauthorized
	}

	user, err := u.users.FindByID(ctx, ev.UserID)
	if err != nil || user == nil {
		return nil, ErrUnauthorized
	}

	user.EmailVerified = true
	if err := u.users.Update(ctx, user); err != nil {
		return nil, ErrInternal
	}

	if err := u.evRepo.MarkUsed(ctx, ev.ID); err != nil {
		return nil, ErrInternal
	}

	return &SuccessResponse{Message: "email verified"}, nil
}

func (u *AuthUsecase) Login(ctx context.Context, req AuthLoginRequest, userAgent string) (*LoginResult, error) {
	if err := u.validator.ValidateLogin(ctx, req.Email, req.Password); err != nil {
		return nil, err
	}

	user, err := u.users.FindByEmail(ctx, req.Email)
	if err != nil || user == nil {
		return nil, ErrUnauthorized
	}

	//停止ユーザーはログイン不可
	if !user.IsActive {
		return nil, ErrForbidden
	}

	//メール未認証はログイン不可
	if !user.EmailVerified {
		return nil, ErrForbidden
	}

	//パスワード照合（bcrypt）
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrUnauthorized
	}

	//last_login更新
	now := time.Now()
	user.LastLoginAt = &now
	_ = u.users.Update(ctx, user)

	accessToken, expiresIn, err := u.issueAccessToken(user)
	if err != nil {
		return nil, ErrInternal
	}

	//refresh token発行（DBにはhash保存）
	refreshPlain, refreshHash, err := newRandomTokenAndHash()
	if err != nil {
		return nil, ErrInternal
	}

	rt := &model.RefreshToken{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		TokenHash: refreshHash,
		UserAgent: userAgent,
		ExpiresAt: time.Now().Add(refreshTokenTTL),
	}
	if err := u.rtRepo.Create(ctx, rt); err != nil {
		return nil, ErrInternal
	}

	csrfPlain, _, err := newRandomTokenAndHash()
	if err != nil {
		return nil, ErrInternal
	}

	return &LoginResult{
		Body: AuthLoginResponse{
			User: toUserDTO(user),
			Token: JwtAccessTokenDTO{
				AccessToken:  accessToken,
				ExpiresIn:    expiresIn,
				TokenVersion: user.TokenVersion,
			},
		},
		RefreshTokenPlain: refreshPlain,
		CsrfTokenPlain:    csrfPlain,
	}, nil
}

func (u *AuthUsecase) Me(ctx context.Context, userID int64) (*UserDTO, error) {
	if userID <= 0 {
		return nil, ErrUnauthorized
	}

	user, err := u.users.FindByID(ctx, userID)
	if err != nil || user == nil {
		return nil, ErrUnauthorized
	}
	if !user.IsActive {
		return nil, ErrForbidden
	}

	dto := toUserDTO(user)
	return &dto, nil
}

func (u *AuthUsecase) Refresh(ctx context.Context, refreshTokenPlain string, userAgent string) (*RefreshResult, error) {
	if err := u.validator.ValidateRefresh(ctx, refreshTokenPlain, userAgent); err != nil {
		return nil, err
	}

	rt, err := u.rtRepo.FindByTokenHash(ctx, hashToken(refreshTokenPlain))
	if err != nil || rt == nil {
		return nil, ErrUnauthorized
	}

	//期限切れ
	if rt.ExpiresAt.Before(time.Now()) {
		_ = u.rtRepo.DeleteByID(ctx, rt.ID)
		return nil, ErrUnauthorized
	}

	//revoked
	if rt.RevokedAt != nil {
		return nil, ErrUnauthorized
	}

	//used済みが来たら replay → 全削除
	if rt.UsedAt != nil {
		_ = u.rtRepo.DeleteAllByUserID(ctx, rt.UserID)
		return nil, ErrSecurityIncident
	}

	//user_agent違い（再認証扱い。全削除）
	if userAgent != "" && rt.UserAgent != "" && userAgent != rt.UserAgent {
		_ = u.rtRepo.DeleteAllByUserID(ctx, rt.UserID)
		return nil, ErrSecurityIncident
	}

	user, err := u.users.FindByID(ctx, rt.UserID)
	if err != nil || user == nil {
		return nil, ErrUnauthorized
	}
	if !user.IsActive {
		return nil, ErrForbidden
	}

	//旧tokenをusedにする
	if err := u.rtRepo.MarkUsed(ctx, rt.ID); err != nil {
		_ = u.rtRepo.DeleteAllByUserID(ctx, rt.UserID)
		return nil, ErrSecurityIncident
	}

	//新tokenを作って保存（rotation）
	newPlain, newHash, err := newRandomTokenAndHash()
	if err != nil {
		return nil, ErrInternal
	}

	newRT := &model.RefreshToken{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		TokenHash: newHash,
		UserAgent: userAgent,
		ExpiresAt: time.Now().Add(refreshTokenTTL),
	}
	if err := u.rtRepo.Create(ctx, newRT); err != nil {
		return nil, ErrInternal
	}

	accessToken, expiresIn, err := u.issueAccessToken(user)
	if err != nil {
		return nil, ErrInternal
	}

	//CSRFも更新
	csrfPlain, _, err := newRandomTokenAndHash()
	if err != nil {
		return nil, ErrInternal
	}

	return &RefreshResult{
		Body: JwtAccessTokenDTO{
			AccessToken:  accessToken,
			ExpiresIn:    expiresIn,
			TokenVersion: user.TokenVersion,
		},
		RefreshTokenPlain: newPlain,
		CsrfTokenPlain:    csrfPlain,
	}, nil
}

func (u *AuthUsecase) Logout(ctx context.Context, refreshTokenPlain string) (*SuccessResponse, error) {
	if err := u.validator.ValidateLogout(ctx); err != nil {
		return nil, err
	}

	if refreshTokenPlain == "" {
		return nil, ErrUnauthorized
	}

	rt, err := u.rtRepo.FindByTokenHash(ctx, hashToken(refreshTokenPlain))
	if err != nil || rt == nil {
		return nil, ErrUnauthorized
	}

	//refreshを削除（失効）
	if err := u.rtRepo.DeleteByID(ctx, rt.ID); err != nil {
		return nil, ErrInternal
	}

	return &SuccessResponse{Message: "logout success"}, nil
}

// jwt発行
func (u *AuthUsecase) issueAccessToken(user *model.User) (string, int, error) {
	now := time.Now()
	exp := now.Add(accessTokenTTL)

	claims := jwt.MapClaims{
		"sub":  user.ID,
		"role": string(user.Role),
		"tv":   user.TokenVersion,
		"iat":  now.Unix(),
		"exp":  exp.Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := t.SignedString([]byte(u.cfg.JWTSecret))
	if err != nil {
		return "", 0, err
	}

	return signed, int(accessTokenTTL.Seconds()), nil
}

func toUserDTO(u *model.User) UserDTO {
	return UserDTO{
		ID:            u.ID,
		Email:         u.Email,
		Role:          string(u.Role),
		EmailVerified: u.EmailVerified,
		TokenVersion:  u.TokenVersion,
		IsActive:      u.IsActive,
	}
}

// token生成（平文 + DB保存hash）
func newRandomTokenAndHash() (plain string, hash string, err error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", "", err
	}

	plain = base64.RawURLEncoding.EncodeToString(b)

	sum := sha256.Sum256([]byte(plain))
	hash = base64.RawURLEncoding.EncodeToString(sum[:])

	return plain, hash, nil
}

func hashToken(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
