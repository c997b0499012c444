package handler

import (
	"net/http"
	"strconv"

	"freshleap/internal/config"
	"freshleap/internal/middleware"
	"freshleap/internal/repository"
	"freshleap/internal/usecase"

	"github.com/labstack/echo/v4"
)

type SuccessResponse struct {
	Message string `json:"message"`
}

type FarmerProductRequest struct {
	Name        string `json:"name"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Price       int64  `json:"price"`
	Stock       int64  `json:"stock"`
	ImageURL    string `json:"image_url"`
	IsActive    bool   `json:"is_active"`
}

type InventoryUpdateRequest struct {
	Stock  int64  `json:"stock"`
	Reason string `json:"reason"`
}

// /farmer/products と /farmer/inventory をまとめる
type FarmerProductHandler struct {
	uc *usecase.FarmerProductUsecase
}

// DI
func NewFarmerProductHandler(uc *usecase.FarmerProductUsecase) *FarmerProductHandler {
	return &FarmerProductHandler{uc: uc}
}

func (h *FarmerProductHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository) {
	farmer := e.Group("/farmer")

	farmer.Use(middleware.AuthJWT(cfg))
	farmer.Use(middleware.TokenVersionGuard(userRepo))
	farmer.Use(middleware.FarmerRoleGuard())

	farmer.GET("/products", h.listProducts)
	farmer.POST("/products", h.createProduct)
	farmer.PUT("/products/:id", h.updateProduct)
	farmer.DELETE("/products/:id", h.deleteProduct)
	farmer.PUT("/inventory/:product_id", h.updateInventory)
}

func (h *FarmerProductHandler) listProducts(c echo.Context) error {
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

	out, err := h.uc.ListMyProducts(c.Request().Context(), farmerID, page, limit)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *FarmerProductHandler) createProduct(c echo.Context) error {
	farmerID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req FarmerProductRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	id, err := h.uc.CreateProduct(c.Request().Context(), farmerID, usecase.FarmerProductInput{
		Name:        req.Name,
		Category:    req.Category,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		ImageURL:    req.ImageURL,
		IsActive:    req.IsActive,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, map[string]int64{"id": id})
}

func (h *FarmerProductHandler) updateProduct(c echo.Context) error {
	farmerID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	var req FarmerProductRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	err = h.uc.UpdateProduct(c.Request().Context(), farmerID, id, usecase.FarmerProductInput{
		Name:        req.Name,
		Category:    req.Category,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		ImageURL:    req.ImageURL,
		IsActive:    req.IsActive,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, SuccessResponse{Message: "updated"})
}

func (h *FarmerProductHandler) deleteProduct(c echo.Context) error {
	farmerID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	if err := h.uc.DeleteProduct(c.Request().Context(), farmerID, id); err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, SuccessResponse{Message: "deleted"})
}

func (h *FarmerProductHandler) updateInventory(c echo.Context) error {
	farmerID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	productID, err := strconv.ParseInt(c.Param("product_id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid product_id"})
	}

	var req InventoryUpdateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	if err := h.uc.UpdateStock(c.Request().Context(), farmerID, productID, req.Stock, req.Reason); err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, SuccessResponse{Message: "stock updated"})
}

//middleware.AuthJWT が c.Set("user_id", int64) した値を取り出す

func getUserIDFromContext(c echo.Context) (int64, bool) {
	v := c.Get("user_id")
	if v == nil {
		return 0, false
	}

	id, ok := v.(int64)
	if !ok {
		return 0, false
	}

	return id, true
}
