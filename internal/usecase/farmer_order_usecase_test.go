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

type FOOrderRepoMock struct{ mock.Mock }

func (m *FOOrderRepoMock) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	args := m.Called(ctx, orderID)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

func (m *FOOrderRepoMock) ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error) {
	panic("not used in FarmerOrderUsecase tests")
}

func (m *FOOrderRepoMock) Create(ctx context.Context, order model.Order) (int64, error) {
	panic("not used in FarmerOrderUsecase tests")
}

func (m *FOOrderRepoMock) UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error {
	args := m.Called(ctx, orderID, status)
	return args.Error(0)
}

func (m *FOOrderRepoMock) FindByPaymentSessionID(ctx context.Context, sessionID string) (model.Order, bool, error) {
	panic("not used in FarmerOrderUsecase tests")
}

func (m *FOOrderRepoMock) ListContainingFarmer(ctx context.Context, farmerID int64, f repo.FarmerOrderListFilter) ([]model.Order, int64, error) {
	args := m.Called(ctx, farmerID, f)
	orders, _ := args.Get(0).([]model.Order)
	return orders, args.Get(1).(int64), args.Error(2)
}

type FOOrderItemRepoMock struct{ mock.Mock }

func (m *FOOrderItemRepoMock) CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error {
	panic("not used in FarmerOrderUsecase tests")
}

func (m *FOOrderItemRepoMock) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	args := m.Called(ctx, orderID)
	items, _ := args.Get(0).([]model.OrderItem)
	return items, args.Error(1)
}

type FOProductRepoMock struct{ mock.Mock }

func (m *FOProductRepoMock) ListPublic(ctx context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	panic("not used in FarmerOrderUsecase tests")
}

func (m *FOProductRepoMock) ListByFarmerID(ctx context.Context, farmerID int64, page int, limit int) ([]model.Product, int64, error) {
	panic("not used in FarmerOrderUsecase tests")
}

func (m *FOProductRepoMock) FindByID(ctx context.Context, id int64) (model.Product, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(model.Product)
	return p, args.Error(1)
}

func (m *FOProductRepoMock) Create(ctx context.Context, p model.Product) (model.Product, error) {
	panic("not used in FarmerOrderUsecase tests")
}

func (m *FOProductRepoMock) Update(ctx context.Context, p model.Product) error {
	panic("not used in FarmerOrderUsecase tests")
}

func (m *FOProductRepoMock) SoftDelete(ctx context.Context, id int64) error {
	panic("not used in FarmerOrderUsecase tests")
}

type FOInventoryRepoMock struct{ mock.Mock }

func (m *FOInventoryRepoMock) SetStock(ctx context.Context, productID int64, newStock int64) error {
	panic("not used in FarmerOrderUsecase tests")
}

func (m *FOInventoryRepoMock) DecreaseStockIfEnough(ctx context.Context, productID int64, qty int64) (bool, error) {
	panic("not used in FarmerOrderUsecase tests")
}

func (m *FOInventoryRepoMock) DecreaseStockFloorZero(ctx context.Context, productID int64, qty int64) error {
	panic("not used in FarmerOrderUsecase tests")
}

func (m *FOInventoryRepoMock) IncreaseStock(ctx context.Context, productID int64, qty int64) error {
	args := m.Called(ctx, productID, qty)
	return args.Error(0)
}

func (m *FOInventoryRepoMock) CreateAdjustment(ctx context.Context, adjustment model.InventoryAdjustment) error {
	panic("not used in FarmerOrderUsecase tests")
}

type FOAuditRepoMock struct{ mock.Mock }

func (m *FOAuditRepoMock) Create(ctx context.Context, log model.AuditLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *FOAuditRepoMock) List(ctx context.Context, filter repo.AuditLogFilter) ([]model.AuditLog, error) {
	panic("not used in FarmerOrderUsecase tests")
}

type FOTxRepos struct {
	orders    *FOOrderRepoMock
	inventory *FOInventoryRepoMock
}

func (r *FOTxRepos) Orders() repo.OrderRepository         { return r.orders }
func (r *FOTxRepos) OrderItems() repo.OrderItemRepository { return nil }
func (r *FOTxRepos) Carts() repo.CartRepository           { return nil }
func (r *FOTxRepos) CartItems() repo.CartItemRepository   { return nil }
func (r *FOTxRepos) Inventory() repo.InventoryRepository  { return r.inventory }
func (r *FOTxRepos) Products() repo.ProductRepository     { return nil }

type FOTxManagerMock struct {
	repos *FOTxRepos
}

func (m *FOTxManagerMock) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return fn(m.repos)
}

type foFixture struct {
	orders    *FOOrderRepoMock
	items     *FOOrderItemRepoMock
	products  *FOProductRepoMock
	inventory *FOInventoryRepoMock
	audit     *FOAuditRepoMock
	publisher *ChkPublisherMock
	uc        *usecase.FarmerOrderUsecase
}

func newFOFixture() *foFixture {
	orders := new(FOOrderRepoMock)
	items := new(FOOrderItemRepoMock)
	products := new(FOProductRepoMock)
	inventory := new(FOInventoryRepoMock)
	audit := new(FOAuditRepoMock)
	publisher := new(ChkPublisherMock)

	tx := &FOTxManagerMock{repos: &FOTxRepos{orders: orders, inventory: inventory}}

	uc := usecase.NewFarmerOrderUsecase(tx, orders, items, products, audit, publisher, discardLogger())
	return &foFixture{
		orders: orders, items: items, products: products,
		inventory: inventory, audit: audit, publisher: publisher, uc: uc,
	}
}

func TestFarmerOrderUsecase_ListOrders_InvalidStatus(t *testing.T) {
	f := newFOFixture()

	_, err := f.uc.ListOrders(context.Background(), 1, usecase.FarmerOrderListInput{Status: "BOGUS"})
	assertErrContains(t, err, "invalid status")
}

// 自分の商品を含まない注文は見えない。
func TestFarmerOrderUsecase_GetOrderDetail_NotVisible(t *testing.T) {
	f := newFOFixture()

	f.orders.On("FindByID", mock.Anything, int64(5)).Return(model.Order{ID: 5, Status: model.OrderStatusPending}, nil)
	f.items.On("ListByOrderID", mock.Anything, int64(5)).Return([]model.OrderItem{
		{OrderID: 5, ProductID: 100, Quantity: 1},
	}, nil)
	//product 100は別の農家のもの
	f.products.On("FindByID", mock.Anything, int64(100)).Return(model.Product{ID: 100, FarmerID: 99}, nil)

	_, err := f.uc.GetOrderDetail(context.Background(), 1, 5)
	assertErrContains(t, err, "not found")
}

func TestFarmerOrderUsecase_UpdateStatus_PendingToShipped(t *testing.T) {
	f := newFOFixture()

	order := model.Order{ID: 5, Status: model.OrderStatusPending}
	f.orders.On("FindByID", mock.Anything, int64(5)).Return(order, nil)
	f.items.On("ListByOrderID", mock.Anything, int64(5)).Return([]model.OrderItem{
		{OrderID: 5, ProductID: 100, Quantity: 2},
	}, nil)
	f.products.On("FindByID", mock.Anything, int64(100)).Return(model.Product{ID: 100, FarmerID: 1}, nil)
	f.orders.On("UpdateStatus", mock.Anything, int64(5), model.OrderStatusShipped).Return(nil)
	f.audit.On("Create", mock.Anything, mock.MatchedBy(func(l model.AuditLog) bool {
		return l.Action == model.AuditActionUpdateOrderStatus && l.ResourceID == 5
	})).Return(nil)
	f.publisher.On("Publish", "OrderStatusChanged", "order-5", mock.Anything).Return()

	out, err := f.uc.UpdateStatus(context.Background(), 1, 5, "SHIPPED")
	assert.NoError(t, err)
	assert.Equal(t, "SHIPPED", out.Status)

	f.orders.AssertExpectations(t)
	f.audit.AssertExpectations(t)
	f.publisher.AssertExpectations(t)
	f.inventory.AssertNotCalled(t, "IncreaseStock", mock.Anything, mock.Anything, mock.Anything)
}

// PENDINGからCOMPLETEDへは飛べない。
func TestFarmerOrderUsecase_UpdateStatus_IllegalTransition(t *testing.T) {
	f := newFOFixture()

	f.orders.On("FindByID", mock.Anything, int64(5)).Return(model.Order{ID: 5, Status: model.OrderStatusPending}, nil)
	f.items.On("ListByOrderID", mock.Anything, int64(5)).Return([]model.OrderItem{
		{OrderID: 5, ProductID: 100, Quantity: 1},
	}, nil)
	f.products.On("FindByID", mock.Anything, int64(100)).Return(model.Product{ID: 100, FarmerID: 1}, nil)

	_, err := f.uc.UpdateStatus(context.Background(), 1, 5, "COMPLETED")
	assertErrContains(t, err, "status transition not allowed")

	f.orders.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

// キャンセルは明細分の在庫を戻す。
func TestFarmerOrderUsecase_UpdateStatus_CancelRestoresStock(t *testing.T) {
	f := newFOFixture()

	f.orders.On("FindByID", mock.Anything, int64(5)).Return(model.Order{ID: 5, Status: model.OrderStatusPending}, nil)
	f.items.On("ListByOrderID", mock.Anything, int64(5)).Return([]model.OrderItem{
		{OrderID: 5, ProductID: 100, Quantity: 2},
		{OrderID: 5, ProductID: 101, Quantity: 1},
	}, nil)
	f.products.On("FindByID", mock.Anything, int64(100)).Return(model.Product{ID: 100, FarmerID: 1}, nil)
	f.orders.On("UpdateStatus", mock.Anything, int64(5), model.OrderStatusCancelled).Return(nil)
	f.inventory.On("IncreaseStock", mock.Anything, int64(100), int64(2)).Return(nil)
	f.inventory.On("IncreaseStock", mock.Anything, int64(101), int64(1)).Return(nil)
	f.audit.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.publisher.On("Publish", "OrderStatusChanged", "order-5", mock.Anything).Return()

	out, err := f.uc.UpdateStatus(context.Background(), 1, 5, "CANCELLED")
	assert.NoError(t, err)
	assert.Equal(t, "CANCELLED", out.Status)

	f.inventory.AssertExpectations(t)
}

// 完了済みの注文は動かせない。
func TestFarmerOrderUsecase_UpdateStatus_CompletedIsFinal(t *testing.T) {
	f := newFOFixture()

	f.orders.On("FindByID", mock.Anything, int64(5)).Return(model.Order{ID: 5, Status: model.OrderStatusCompleted}, nil)
	f.items.On("ListByOrderID", mock.Anything, int64(5)).Return([]model.OrderItem{
		{OrderID: 5, ProductID: 100, Quantity: 1},
	}, nil)
	f.products.On("FindByID", mock.Anything, int64(100)).Return(model.Product{ID: 100, FarmerID: 1}, nil)

	_, err := f.uc.UpdateStatus(context.Background(), 1, 5, "CANCELLED")
	assertErrContains(t, err, "status transition not allowed")
}
