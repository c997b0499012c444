package usecase_test

import (
	"context"
	"testing"

	"freshleap/internal/domain/model"
	repo "freshleap/internal/repository"
	"freshleap/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type FPProductRepoMock struct{ mock.Mock }

func (m *FPProductRepoMock) ListPublic(ctx context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	panic("not used in FarmerProductUsecase tests")
}

func (m *FPProductRepoMock) ListByFarmerID(ctx context.Context, farmerID int64, page int, limit int) ([]model.Product, int64, error) {
	args := m.Called(ctx, farmerID, page, limit)
	items, _ := args.Get(0).([]model.Product)
	return items, args.Get(1).(int64), args.Error(2)
}

func (m *FPProductRepoMock) FindByID(ctx context.Context, id int64) (model.Product, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(model.Product)
	return p, args.Error(1)
}

func (m *FPProductRepoMock) Create(ctx context.Context, p model.Product) (model.Product, error) {
	args := m.Called(ctx, p)
	created, _ := args.Get(0).(model.Product)
	return created, args.Error(1)
}

func (m *FPProductRepoMock) Update(ctx context.Context, p model.Product) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *FPProductRepoMock) SoftDelete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type FPInventoryRepoMock struct{ mock.Mock }

func (m *FPInventoryRepoMock) SetStock(ctx context.Context, productID int64, newStock int64) error {
	args := m.Called(ctx, productID, newStock)
	return args.Error(0)
}

func (m *FPInventoryRepoMock) DecreaseStockIfEnough(ctx context.Context, productID int64, qty int64) (bool, error) {
	panic("not used in FarmerProductUsecase tests")
}

func (m *FPInventoryRepoMock) DecreaseStockFloorZero(ctx context.Context, productID int64, qty int64) error {
	panic("not used in FarmerProductUsecase tests")
}

func (m *FPInventoryRepoMock) IncreaseStock(ctx context.Context, productID int64, qty int64) error {
	panic("not used in FarmerProductUsecase tests")
}

func (m *FPInventoryRepoMock) CreateAdjustment(ctx context.Context, adjustment model.InventoryAdjustment) error {
	args := m.Called(ctx, adjustment)
	return args.Error(0)
}

func newFPUsecase() (*usecase.FarmerProductUsecase, *FPProductRepoMock, *FPInventoryRepoMock, *FOAuditRepoMock) {
	productRepo := new(FPProductRepoMock)
	inventoryRepo := new(FPInventoryRepoMock)
	auditRepo := new(FOAuditRepoMock)
	return usecase.NewFarmerProductUsecase(productRepo, inventoryRepo, auditRepo), productRepo, inventoryRepo, auditRepo
}

func TestFarmerProductUsecase_CreateProduct_Success(t *testing.T) {
	uc, productRepo, _, _ := newFPUsecase()

	productRepo.On("Create", mock.Anything, mock.MatchedBy(func(p model.Product) bool {
		return p.FarmerID == 1 && p.Name == "Kale" && p.Category == model.CategoryVegetables
	})).Return(model.Product{ID: 42}, nil)

	id, err := uc.CreateProduct(context.Background(), 1, usecase.FarmerProductInput{
		Name:     "  Kale  ",
		Category: "VEGETABLES",
		Price:    300,
		Stock:    10,
		IsActive: true,
	})
	assert.NoError(t, err)
	assert.Equal(t, int64(42), id)

	productRepo.AssertExpectations(t)
}

func TestFarmerProductUsecase_CreateProduct_InvalidCategory(t *testing.T) {
	uc, productRepo, _, _ := newFPUsecase()

	_, err := uc.CreateProduct(context.Background(), 1, usecase.FarmerProductInput{
		Name:     "Kale",
		Category: "SEAFOOD",
		Price:    300,
	})
	assertErrContains(t, err, "invalid category")

	productRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

// 他の農家の商品は更新できない。
func TestFarmerProductUsecase_UpdateProduct_NotOwner(t *testing.T) {
	uc, productRepo, _, _ := newFPUsecase()

	productRepo.On("FindByID", mock.Anything, int64(42)).Return(model.Product{ID: 42, FarmerID: 99}, nil)

	err := uc.UpdateProduct(context.Background(), 1, 42, usecase.FarmerProductInput{
		Name:     "Kale",
		Category: "VEGETABLES",
	})
	assertErrContains(t, err, "forbidden")

	productRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestFarmerProductUsecase_DeleteProduct_NotFound(t *testing.T) {
	uc, productRepo, _, _ := newFPUsecase()

	productRepo.On("FindByID", mock.Anything, int64(42)).Return(model.Product{}, repo.ErrNotFound)

	err := uc.DeleteProduct(context.Background(), 1, 42)
	assertErrContains(t, err, "not found")
}

// 在庫更新は調整履歴と監査ログの両方を残す。
func TestFarmerProductUsecase_UpdateStock_WritesAdjustmentAndAudit(t *testing.T) {
	uc, productRepo, inventoryRepo, auditRepo := newFPUsecase()

	productRepo.On("FindByID", mock.Anything, int64(42)).Return(model.Product{ID: 42, FarmerID: 1, Stock: 10}, nil)
	inventoryRepo.On("SetStock", mock.Anything, int64(42), int64(7)).Return(nil)
	inventoryRepo.On("CreateAdjustment", mock.Anything, mock.MatchedBy(func(a model.InventoryAdjustment) bool {
		return a.ProductID == 42 && a.FarmerUserID == 1 && a.Delta == -3 && a.Reason == "spoilage"
	})).Return(nil)
	auditRepo.On("Create", mock.Anything, mock.MatchedBy(func(l model.AuditLog) bool {
		return l.Action == model.AuditActionUpdateStock &&
			l.ResourceType == model.AuditResourceProduct &&
			l.ResourceID == 42 &&
			l.BeforeJSON == `{"stock":10}` &&
			l.AfterJSON == `{"stock":7}`
	})).Return(nil)

	err := uc.UpdateStock(context.Background(), 1, 42, 7, "spoilage")
	assert.NoError(t, err)

	inventoryRepo.AssertExpectations(t)
	auditRepo.AssertExpectations(t)
}

func TestFarmerProductUsecase_UpdateStock_ReasonRequired(t *testing.T) {
	uc, productRepo, inventoryRepo, _ := newFPUsecase()

	err := uc.UpdateStock(context.Background(), 1, 42, 7, "  ")
	assertErrContains(t, err, "reason required")

	productRepo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	inventoryRepo.AssertNotCalled(t, "SetStock", mock.Anything, mock.Anything, mock.Anything)
}
