package handler

import (
	"net/http"

	"freshleap/internal/config"
	"freshleap/internal/middleware"
	"freshleap/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /checkout のHTTP。ログイン済みでもゲストでも使える。
type CheckoutHandler struct {
	uc *usecase.CheckoutUsecase
}

// DI
func NewCheckoutHandler(uc *usecase.CheckoutUsecase) *CheckoutHandler {
	return &CheckoutHandler{uc: uc}
}

func (h *CheckoutHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	g := e.Group("/checkout")
	g.Use(middleware.OptionalAuthJWT(cfg))

	g.POST("/session", h.createSession)
	g.GET("/confirm", h.confirm)
}

// POST /checkout/session
// 明細はサーバー側カートから組む。bodyは受け取らない。
func (h *CheckoutHandler) createSession(c echo.Context) error {
	userID, _ := getUserIDFromContext(c)
	guestToken := c.Request().Header.Get(guestTokenHeader)

	out, err := h.uc.CreateSession(c.Request().Context(), userID, guestToken)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

// GET /checkout/confirm?session_id=...
// 決済完了後にフロントからリダイレクトで呼ばれる。
// ゲストはヘッダのtokenを添えるとRedisカートも片付く。
func (h *CheckoutHandler) confirm(c echo.Context) error {
	guestToken := c.Request().Header.Get(guestTokenHeader)
	out, err := h.uc.ConfirmCheckout(c.Request().Context(), c.QueryParam("session_id"), guestToken)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}
