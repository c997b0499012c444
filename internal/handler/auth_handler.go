package handler

import (
	"net/http"
	"time"

	"freshleap/internal/config"
	"freshleap/internal/middleware"
	"freshleap/internal/repository"
	"freshleap/internal/usecase"

	"github.com/labstack/echo/v4"
)

const (
	refreshCookieName = "refresh"
	csrfCookieName    = "csrf_token"
)

// /auth のHTTP
type AuthHandler struct {
	uc           *usecase.AuthUsecase
	cfg          config.Config
	refreshTTL   time.Duration // refresh/csrf cookie の有効期限
	cookieSecure bool
}

// DI
func NewAuthHandler(uc *usecase.AuthUsecase, cfg config.Config) *AuthHandler {
	return &AuthHandler{
		uc:         uc,
		cfg:        cfg,
		refreshTTL: 30 * 24 * time.Hour,
		//localだけSecureを外す（httpで動かすため）
		cookieSecure: cfg.GoEnv != "local",
	}
}

func (h *AuthHandler) RegisterRoutes(e *echo.Echo, userRepo repository.UserRepository) {
	e.POST("/auth/register", h.register)
	e.GET("/auth/verify", h.verify)
	e.POST("/auth/login", h.login)
	e.POST("/auth/refresh", h.refresh)
	e.POST("/auth/logout", h.logout)

	me := e.Group("/auth/me")
	me.Use(middleware.AuthJWT(h.cfg))
	me.Use(middleware.TokenVersionGuard(userRepo))
	me.GET("", h.me)
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// sentinelエラー→HTTPステータスの変換
func writeAuthError(c echo.Context, err error) error {
	switch err {
	case usecase.ErrValidation:
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "VALIDATION_ERROR"})
	case usecase.ErrUnauthorized, usecase.ErrSecurityIncident:
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "UNAUTHORIZED"})
	case usecase.ErrForbidden:
		return c.JSON(http.StatusForbidden, ErrorResponse{Error: "FORBIDDEN"})
	case usecase.ErrConflict:
		return c.JSON(http.StatusConflict, ErrorResponse{Error: "CONFLICT"})
	default:
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "INTERNAL"})
	}
}

func (h *AuthHandler) register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "VALIDATION_ERROR"})
	}

	out, err := h.uc.Register(c.Request().Context(), usecase.AuthRegisterRequest{
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		return writeAuthError(c, err)
	}

	return c.JSON(http.StatusCreated, out)
}

// GET /auth/verify?token=... （メール内リンク）
func (h *AuthHandler) verify(c echo.Context) error {
	out, err := h.uc.VerifyEmail(c.Request().Context(), c.QueryParam("token"))
	if err != nil {
		return writeAuthError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *AuthHandler) login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "VALIDATION_ERROR"})
	}

	// User-Agentを取得（refreshtokenに紐付ける）
	userAgent := c.Request().Header.Get("User-Agent")

	out, err := h.uc.Login(c.Request().Context(), usecase.AuthLoginRequest{
		Email:    req.Email,
		Password: req.Password,
	}, userAgent)
	if err != nil {
		return writeAuthError(c, err)
	}

	h.setRefreshCookie(c, out.RefreshTokenPlain)
	h.setCsrfCookie(c, out.CsrfTokenPlain)

	return c.JSON(http.StatusOK, out.Body)
}

func (h *AuthHandler) refresh(c echo.Context) error {
	cookie, err := c.Cookie(refreshCookieName)
	if err != nil || cookie.Value == "" {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "UNAUTHORIZED"})
	}

	userAgent := c.Request().Header.Get("User-Agent")

	out, err := h.uc.Refresh(c.Request().Context(), cookie.Value, userAgent)
	if err != nil {
		//replay検知時はcookieも消す
		if err == usecase.ErrSecurityIncident {
			h.clearAuthCookies(c)
		}
		return writeAuthError(c, err)
	}

	h.setRefreshCookie(c, out.RefreshTokenPlain)
	h.setCsrfCookie(c, out.CsrfTokenPlain)

	return c.JSON(http.StatusOK, out.Body)
}

func (h *AuthHandler) logout(c echo.Context) error {
	cookie, err := c.Cookie(refreshCookieName)
	if err != nil || cookie.Value == "" {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "UNAUTHORIZED"})
	}

	out, err := h.uc.Logout(c.Request().Context(), cookie.Value)
	if err != nil {
		return writeAuthError(c, err)
	}

	h.clearAuthCookies(c)

	return c.JSON(http.StatusOK, out)
}

func (h *AuthHandler) me(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "UNAUTHORIZED"})
	}

	out, err := h.uc.Me(c.Request().Context(), userID)
	if err != nil {
		return writeAuthError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

// refreshtoken をCookieにセット。
func (h *AuthHandler) setRefreshCookie(c echo.Context, plainRefresh string) {
	c.SetCookie(&http.Cookie{
		Name:     refreshCookieName,
		Value:    plainRefresh,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(h.refreshTTL),
	})
}

// csrftokenをCookieにセット（JSから読める）
func (h *AuthHandler) setCsrfCookie(c echo.Context, csrfToken string) {
	c.SetCookie(&http.Cookie{
		Name:     csrfCookieName,
		Value:    csrfToken,
		Path:     "/",
		HttpOnly: false,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(h.refreshTTL),
	})
}

func (h *AuthHandler) clearAuthCookies(c echo.Context) {
	for _, name := range []string{refreshCookieName, csrfCookieName} {
		c.SetCookie(&http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			HttpOnly: name == refreshCookieName,
			Secure:   h.cookieSecure,
			SameSite: http.SameSiteLaxMode,
			MaxAge:   -1,
		})
	}
}
