package handler

import (
	"net/http"
	"strconv"
	"time"

	"freshleap/internal/config"
	"freshleap/internal/middleware"
	"freshleap/internal/repository"
	"freshleap/internal/usecase"

	"github.com/labstack/echo/v4"
)

type OrderStatusUpdateRequest struct {
	Status string `json:"status"`
}

// /farmer/orders のHTTP
type FarmerOrderHandler struct {
	uc *usecase.FarmerOrderUsecase
}

// DI
func NewFarmerOrderHandler(uc *usecase.FarmerOrderUsecase) *FarmerOrderHandler {
	return &FarmerOrderHandler{uc: uc}
}

func (h *FarmerOrderHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository) {
	g := e.Group("/farmer/orders")

	g.Use(middleware.AuthJWT(cfg))
	g.Use(middleware.TokenVersionGuard(userRepo))
	g.Use(middleware.FarmerRoleGuard())

	g.GET("", h.list)
	g.GET("/:id", h.detail)
	g.PATCH("/:id/status", h.updateStatus)
}

func (h *FarmerOrderHandler) list(c echo.Context) error {
	farmerID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	page := 1
	if v := c.QueryParam("page"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid page"})
		}
		page = p
	}

	limit := 20
	if v := c.QueryParam("limit"); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
		}
		limit = l
	}

	//from/toはRFC3339で受ける
	var from *time.Time
	if v := c.QueryParam("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid from"})
		}
		from = &t
	}

	var to *time.Time
	if v := c.QueryParam("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid to"})
		}
		to = &t
	}

	out, err := h.uc.ListOrders(c.Request().Context(), farmerID, usecase.FarmerOrderListInput{
		Page:   page,
		Limit:  limit,
		Status: c.QueryParam("status"),
		From:   from,
		To:     to,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *FarmerOrderHandler) detail(c echo.Context) error {
	farmerID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	out, err := h.uc.GetOrderDetail(c.Request().Context(), farmerID, orderID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *FarmerOrderHandler) updateStatus(c echo.Context) error {
	farmerID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	var req OrderStatusUpdateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.UpdateStatus(c.Request().Context(), farmerID, orderID, req.Status)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}
