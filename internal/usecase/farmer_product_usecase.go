package usecase

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"freshleap/internal/domain/model"
	repo "freshleap/internal/repository"
)

// FarmerProductUsecase は農家ダッシュボードの商品管理。
// 他の農家の商品は触れない（所有チェック）。
type FarmerProductUsecase struct {
	productRepo   repo.ProductRepository
	inventoryRepo repo.InventoryRepository
	auditRepo     repo.AuditLogRepository
}

// DI
func NewFarmerProductUsecase(
	productRepo repo.ProductRepository,
	inventoryRepo repo.InventoryRepository,
	auditRepo repo.AuditLogRepository,
) *FarmerProductUsecase {
	return &FarmerProductUsecase{
		productRepo:   productRepo,
		inventoryRepo: inventoryRepo,
		auditRepo:     auditRepo,
	}
}

type FarmerProductInput struct {
	Name        string
	Category    string
	Description string
	Price       int64
	Stock       int64
	ImageURL    string
	IsActive    bool
}

func (u *FarmerProductUsecase) validateInput(in FarmerProductInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return NewHTTPError(http.StatusBadRequest, "name required")
	}
	if !model.ValidCategory(model.ProductCategory(in.Category)) {
		return NewHTTPError(http.StatusBadRequest, "invalid category")
	}
	if in.Price < 0 {
		return NewHTTPError(http.StatusBadRequest, "price must be >= 0")
	}
	if in.Stock < 0 {
		return NewHTTPError(http.StatusBadRequest, "stock must be >= 0")
	}
	return nil
}

func (u *FarmerProductUsecase) ListMyProducts(ctx context.Context, farmerID int64, page int, limit int) (ProductListOutput, error) {
	if farmerID <= 0 {
		return ProductListOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	items, total, err := u.productRepo.ListByFarmerID(ctx, farmerID, page, limit)
	if err != nil {
		return ProductListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return ProductListOutput{Items: items, Total: total, Page: page, Limit: limit}, nil
}

func (u *FarmerProductUsecase) CreateProduct(ctx context.Context, farmerID int64, in FarmerProductInput) (int64, error) {
	if farmerID <= 0 {
		return 0, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if err := u.validateInput(in); err != nil {
		return 0, err
	}

	now := time.Now()
	p, err := u.productRepo.Create(ctx, model.Product{
		FarmerID:    farmerID,
		Name:        strings.TrimSpace(in.Name),
		Category:    model.ProductCategory(in.Category),
		Description: in.Description,
		Price:       in.Price,
		Stock:       in.Stock,
		ImageURL:    in.ImageURL,
		IsActive:    in.IsActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return 0, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return p.ID, nil
}

func (u *FarmerProductUsecase) UpdateProduct(ctx context.Context, farmerID int64, productID int64, in FarmerProductInput) error {
	if farmerID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid product id")
	}
	if err := u.validateInput(in); err != nil {
		return err
	}

	if err := u.ownershipCheck(ctx, farmerID, productID); err != nil {
		return err
	}

	err := u.productRepo.Update(ctx, model.Product{
		ID:          productID,
		Name:        strings.TrimSpace(in.Name),
		Category:    model.ProductCategory(in.Category),
		Description: in.Description,
		Price:       in.Price,
		ImageURL:    in.ImageURL,
		IsActive:    in.IsActive,
		UpdatedAt:   time.Now(),
	})
	if err == repo.ErrNotFound {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

func (u *FarmerProductUsecase) DeleteProduct(ctx context.Context, farmerID int64, productID int64) error {
	if farmerID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	if err := u.ownershipCheck(ctx, farmerID, productID); err != nil {
		return err
	}

	err := u.productRepo.SoftDelete(ctx, productID)
	if err == repo.ErrNotFound {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

// 在庫の現在値を更新して、調整履歴と監査ログを残す。
func (u *FarmerProductUsecase) UpdateStock(ctx context.Context, farmerID int64, productID int64, newStock int64, reason string) error {
	if farmerID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid product id")
	}
	if newStock < 0 {
		return NewHTTPError(http.StatusBadRequest, "stock must be >= 0")
	}
	if strings.TrimSpace(reason) == "" {
		return NewHTTPError(http.StatusBadRequest, "reason required")
	}

	//変更前の在庫（before）
	p, err := u.productRepo.FindByID(ctx, productID)
	if err == repo.ErrNotFound {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if p.FarmerID != farmerID {
		return NewHTTPError(http.StatusForbidden, "forbidden")
	}

	beforeJSON := fmt.Sprintf(`{"stock":%d}`, p.Stock)
	afterJSON := fmt.Sprintf(`{"stock":%d}`, newStock)

	if err := u.inventoryRepo.SetStock(ctx, productID, newStock); err != nil {
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	//履歴を作成（差分）
	adj := model.InventoryAdjustment{
		ProductID:    productID,
		FarmerUserID: farmerID,
		Delta:        newStock - p.Stock,
		Reason:       strings.TrimSpace(reason),
		CreatedAt:    time.Now(),
	}
	if err := u.inventoryRepo.CreateAdjustment(ctx, adj); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	//監査ログ（誰が・何を・どの対象に・どう変えたか）
	if err := u.auditRepo.Create(ctx, model.AuditLog{
		ActorUserID:  farmerID,
		Action:       model.AuditActionUpdateStock,
		ResourceType: model.AuditResourceProduct,
		ResourceID:   productID,
		BeforeJSON:   beforeJSON,
		AfterJSON:    afterJSON,
		CreatedAt:    time.Now(),
	}); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return nil
}

func (u *FarmerProductUsecase) ownershipCheck(ctx context.Context, farmerID int64, productID int64) error {
	p, err := u.productRepo.FindByID(ctx, productID)
	if err == repo.ErrNotFound {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if p.FarmerID != farmerID {
		return NewHTTPError(http.StatusForbidden, "forbidden")
	}
	return nil
}
