package handler

import (
	"net/http"
	"strconv"

	"freshleap/internal/usecase"

	"github.com/labstack/echo/v4"
)

// ゲストトークンを運ぶヘッダ
const guestTokenHeader = "X-Guest-Token"

// /guest/cart のHTTP。未ログインカートはRedis側に置く。
type GuestCartHandler struct {
	uc *usecase.GuestCartUsecase
}

// DI
func NewGuestCartHandler(uc *usecase.GuestCartUsecase) *GuestCartHandler {
	return &GuestCartHandler{uc: uc}
}

func (h *GuestCartHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/guest/cart")

	g.GET("", h.getCart)
	g.POST("", h.addToCart)
	g.PATCH("/:product_id", h.patchItem)
	g.DELETE("", h.clearCart)
}

func (h *GuestCartHandler) getCart(c echo.Context) error {
	token := c.Request().Header.Get(guestTokenHeader)

	out, err := h.uc.GetCart(c.Request().Context(), token)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *GuestCartHandler) addToCart(c echo.Context) error {
	token := c.Request().Header.Get(guestTokenHeader)

	var req AddCartRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.AddToCart(c.Request().Context(), token, usecase.AddCartInput{
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *GuestCartHandler) patchItem(c echo.Context) error {
	token := c.Request().Header.Get(guestTokenHeader)

	productID, err := strconv.ParseInt(c.Param("product_id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid product_id"})
	}

	var req UpdateCartItemRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.UpdateItem(c.Request().Context(), token, productID, req.Quantity)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *GuestCartHandler) clearCart(c echo.Context) error {
	token := c.Request().Header.Get(guestTokenHeader)

	out, err := h.uc.ClearCart(c.Request().Context(), token)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}
