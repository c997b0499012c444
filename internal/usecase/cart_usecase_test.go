package usecase_test

import (
	"context"
	"testing"

	"freshleap/internal/cartstore"
	"freshleap/internal/domain/model"
	repo "freshleap/internal/repository"
	"freshleap/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type CartRepoMock struct{ mock.Mock }

func (m *CartRepoMock) GetOrCreateActiveByUserID(ctx context.Context, userID int64) (model.Cart, error) {
	args := m.Called(ctx, userID)
	c, _ := args.Get(0).(model.Cart)
	return c, args.Error(1)
}

func (m *CartRepoMock) FindActiveByUserID(ctx context.Context, userID int64) (model.Cart, error) {
	panic("not used in CartUsecase tests")
}

func (m *CartRepoMock) UpdateStatus(ctx context.Context, cartID int64, status model.CartStatus) error {
	panic("not used in CartUsecase tests")
}

func (m *CartRepoMock) Clear(ctx context.Context, cartID int64) error {
	panic("not used in CartUsecase tests")
}

type CartItemRepoMock struct{ mock.Mock }

func (m *CartItemRepoMock) ListByCartID(ctx context.Context, cartID int64) ([]model.CartItem, error) {
	args := m.Called(ctx, cartID)
	items, _ := args.Get(0).([]model.CartItem)
	return items, args.Error(1)
}

func (m *CartItemRepoMock) UpsertByCartAndProduct(ctx context.Context, cartID int64, productID int64, addQty int64, unitPriceSnapshot int64) error {
	args := m.Called(ctx, cartID, productID, addQty, unitPriceSnapshot)
	return args.Error(0)
}

func (m *CartItemRepoMock) UpdateQuantity(ctx context.Context, cartItemID int64, qty int64) error {
	args := m.Called(ctx, cartItemID, qty)
	return args.Error(0)
}

func (m *CartItemRepoMock) DeleteByID(ctx context.Context, cartItemID int64) error {
	args := m.Called(ctx, cartItemID)
	return args.Error(0)
}

func (m *CartItemRepoMock) FindByID(ctx context.Context, cartItemID int64) (model.CartItem, error) {
	args := m.Called(ctx, cartItemID)
	it, _ := args.Get(0).(model.CartItem)
	return it, args.Error(1)
}

func (m *CartItemRepoMock) IsOwnedByUser(ctx context.Context, cartItemID int64, userID int64) (bool, error) {
	args := m.Called(ctx, cartItemID, userID)
	return args.Bool(0), args.Error(1)
}

type CartProductRepoMock struct{ mock.Mock }

func (m *CartProductRepoMock) ListPublic(ctx context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	panic("not used in CartUsecase tests")
}

func (m *CartProductRepoMock) ListByFarmerID(ctx context.Context, farmerID int64, page int, limit int) ([]model.Product, int64, error) {
	panic("not used in CartUsecase tests")
}

func (m *CartProductRepoMock) FindByID(ctx context.Context, id int64) (model.Product, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(model.Product)
	return p, args.Error(1)
}

func (m *CartProductRepoMock) Create(ctx context.Context, p model.Product) (model.Product, error) {
	panic("not used in CartUsecase tests")
}

func (m *CartProductRepoMock) Update(ctx context.Context, p model.Product) error {
	panic("not used in CartUsecase tests")
}

func (m *CartProductRepoMock) SoftDelete(ctx context.Context, id int64) error {
	panic("not used in CartUsecase tests")
}

func newCartUsecase() (*usecase.CartUsecase, *CartRepoMock, *CartItemRepoMock, *CartProductRepoMock) {
	cartRepo := new(CartRepoMock)
	itemRepo := new(CartItemRepoMock)
	productRepo := new(CartProductRepoMock)
	return usecase.NewCartUsecase(cartRepo, itemRepo, productRepo), cartRepo, itemRepo, productRepo
}

// 同一商品の追加は加算upsertになる。
func TestCartUsecase_AddToCart_SameProductAccumulates(t *testing.T) {
	uc, cartRepo, itemRepo, productRepo := newCartUsecase()
	ctx := context.Background()

	cartRepo.On("GetOrCreateActiveByUserID", mock.Anything, int64(1)).Return(model.Cart{ID: 3, UserID: 1}, nil)
	productRepo.On("FindByID", mock.Anything, int64(101)).Return(model.Product{ID: 101, Name: "Kale", Price: 300, Stock: 10, IsActive: true}, nil)

	//既に2個入っている
	itemRepo.On("ListByCartID", mock.Anything, int64(3)).Return([]model.CartItem{
		{ID: 9, CartID: 3, ProductID: 101, Quantity: 2, UnitPriceSnapshot: 300},
	}, nil).Once()
	itemRepo.On("UpsertByCartAndProduct", mock.Anything, int64(3), int64(101), int64(3), int64(300)).Return(nil)

	//レスポンス組み立て用（upsert後）
	itemRepo.On("ListByCartID", mock.Anything, int64(3)).Return([]model.CartItem{
		{ID: 9, CartID: 3, ProductID: 101, Quantity: 5, UnitPriceSnapshot: 300},
	}, nil)

	out, err := uc.AddToCart(ctx, 1, usecase.AddCartInput{ProductID: 101, Quantity: 3})
	assert.NoError(t, err)
	assert.Equal(t, int64(5), out.ItemCount)
	assert.Equal(t, int64(1500), out.Total)

	itemRepo.AssertExpectations(t)
}

// 在庫を超える追加は拒否。
func TestCartUsecase_AddToCart_StockExceeded(t *testing.T) {
	uc, cartRepo, itemRepo, productRepo := newCartUsecase()

	cartRepo.On("GetOrCreateActiveByUserID", mock.Anything, int64(1)).Return(model.Cart{ID: 3, UserID: 1}, nil)
	productRepo.On("FindByID", mock.Anything, int64(101)).Return(model.Product{ID: 101, Price: 300, Stock: 4, IsActive: true}, nil)
	itemRepo.On("ListByCartID", mock.Anything, int64(3)).Return([]model.CartItem{
		{ID: 9, CartID: 3, ProductID: 101, Quantity: 2},
	}, nil)

	_, err := uc.AddToCart(context.Background(), 1, usecase.AddCartInput{ProductID: 101, Quantity: 3})
	assertErrContains(t, err, "stock exceeded")

	itemRepo.AssertNotCalled(t, "UpsertByCartAndProduct", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// 非公開商品は追加できない。
func TestCartUsecase_AddToCart_InactiveProduct(t *testing.T) {
	uc, cartRepo, _, productRepo := newCartUsecase()

	cartRepo.On("GetOrCreateActiveByUserID", mock.Anything, int64(1)).Return(model.Cart{ID: 3, UserID: 1}, nil)
	productRepo.On("FindByID", mock.Anything, int64(101)).Return(model.Product{ID: 101, IsActive: false}, nil)

	_, err := uc.AddToCart(context.Background(), 1, usecase.AddCartInput{ProductID: 101, Quantity: 1})
	assertErrContains(t, err, "invalid product")
}

// 他人の明細は「存在しない扱い」。
func TestCartUsecase_UpdateCartItem_NotOwned(t *testing.T) {
	uc, _, itemRepo, _ := newCartUsecase()

	itemRepo.On("IsOwnedByUser", mock.Anything, int64(9), int64(1)).Return(false, nil)

	_, err := uc.UpdateCartItem(context.Background(), 1, 9, usecase.UpdateCartItemInput{Quantity: 2})
	assertErrContains(t, err, "not found")

	itemRepo.AssertNotCalled(t, "UpdateQuantity", mock.Anything, mock.Anything, mock.Anything)
}

func TestCartUsecase_DeleteCartItem_Success(t *testing.T) {
	uc, _, itemRepo, productRepo := newCartUsecase()

	itemRepo.On("IsOwnedByUser", mock.Anything, int64(9), int64(1)).Return(true, nil)
	itemRepo.On("FindByID", mock.Anything, int64(9)).Return(model.CartItem{ID: 9, CartID: 3, ProductID: 101}, nil)
	itemRepo.On("DeleteByID", mock.Anything, int64(9)).Return(nil)
	itemRepo.On("ListByCartID", mock.Anything, int64(3)).Return([]model.CartItem{}, nil)
	_ = productRepo

	out, err := uc.DeleteCartItem(context.Background(), 1, 9)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), out.ItemCount)
	assert.Equal(t, int64(0), out.Total)

	itemRepo.AssertExpectations(t)
}

// =====================
// GuestCartUsecase
// =====================

type GuestStoreMock struct{ mock.Mock }

func (m *GuestStoreMock) Get(ctx context.Context, token string) (cartstore.Cart, error) {
	args := m.Called(ctx, token)
	c, _ := args.Get(0).(cartstore.Cart)
	return c, args.Error(1)
}

func (m *GuestStoreMock) Save(ctx context.Context, token string, cart cartstore.Cart) error {
	args := m.Called(ctx, token, cart)
	return args.Error(0)
}

func (m *GuestStoreMock) Clear(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

// token無しのGetは新しいtokenを発行して空カートを返す。
func TestGuestCartUsecase_GetCart_MintsToken(t *testing.T) {
	store := new(GuestStoreMock)
	uc := usecase.NewGuestCartUsecase(store, new(CartProductRepoMock))

	out, err := uc.GetCart(context.Background(), "")
	assert.NoError(t, err)
	assert.NotEmpty(t, out.Token)
	assert.Equal(t, int64(0), out.ItemCount)
	assert.Equal(t, []cartstore.Entry{}, out.Items)

	store.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}

func TestGuestCartUsecase_AddToCart_SavesEntry(t *testing.T) {
	store := new(GuestStoreMock)
	productRepo := new(CartProductRepoMock)
	uc := usecase.NewGuestCartUsecase(store, productRepo)

	productRepo.On("FindByID", mock.Anything, int64(101)).Return(model.Product{ID: 101, Name: "Kale", Price: 300, Stock: 10, IsActive: true}, nil)
	store.On("Get", mock.Anything, "tok-1").Return(cartstore.Cart{}, nil)
	store.On("Save", mock.Anything, "tok-1", mock.MatchedBy(func(c cartstore.Cart) bool {
		return len(c.Entries) == 1 && c.Entries[0].ProductID == 101 && c.Entries[0].Quantity == 2
	})).Return(nil)

	out, err := uc.AddToCart(context.Background(), "tok-1", usecase.AddCartInput{ProductID: 101, Quantity: 2})
	assert.NoError(t, err)
	assert.Equal(t, "tok-1", out.Token)
	assert.Equal(t, int64(2), out.ItemCount)
	assert.Equal(t, int64(600), out.Total)

	store.AssertExpectations(t)
}

// 数量0以下は削除扱い。
func TestGuestCartUsecase_UpdateItem_ZeroRemoves(t *testing.T) {
	store := new(GuestStoreMock)
	uc := usecase.NewGuestCartUsecase(store, new(CartProductRepoMock))

	store.On("Get", mock.Anything, "tok-1").Return(cartstore.Cart{
		Entries: []cartstore.Entry{{ProductID: 101, UnitPrice: 300, Quantity: 2}},
	}, nil)
	store.On("Save", mock.Anything, "tok-1", mock.MatchedBy(func(c cartstore.Cart) bool {
		return len(c.Entries) == 0
	})).Return(nil)

	out, err := uc.UpdateItem(context.Background(), "tok-1", 101, 0)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), out.ItemCount)

	store.AssertExpectations(t)
}
