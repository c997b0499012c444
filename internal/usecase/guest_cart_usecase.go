package usecase

import (
	"context"
	"net/http"

	"freshleap/internal/cartstore"
	repo "freshleap/internal/repository"

	"github.com/google/uuid"
)

// GuestCartUsecase は未ログインカート（Redis保存）の業務ロジック。
// storeは注入する。グローバルなカートは持たない。
type GuestCartUsecase struct {
	store       cartstore.Store
	productRepo repo.ProductRepository
}

func NewGuestCartUsecase(store cartstore.Store, productRepo repo.ProductRepository) *GuestCartUsecase {
	return &GuestCartUsecase{store: store, productRepo: productRepo}
}

type GuestCartResponse struct {
	Token     string             `json:"token"`
	Items     []cartstore.Entry  `json:"items"`
	ItemCount int64              `json:"item_count"`
	Total     int64              `json:"total"`
}

// tokenが空なら新規発行する。
func (u *GuestCartUsecase) GetCart(ctx context.Context, token string) (GuestCartResponse, error) {
	token, cart, err := u.load(ctx, token)
	if err != nil {
		return GuestCartResponse{}, err
	}
	return toGuestCartResponse(token, cart), nil
}

func (u *GuestCartUsecase) AddToCart(ctx context.Context, token string, in AddCartInput) (GuestCartResponse, error) {
	if in.ProductID <= 0 {
		return GuestCartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid product_id")
	}
	if in.Quantity < 1 {
		return GuestCartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid quantity")
	}

	p, err := u.productRepo.FindByID(ctx, in.ProductID)
	if err == repo.ErrNotFound {
		return GuestCartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid product")
	}
	if err != nil {
		return GuestCartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !p.IsActive {
		return GuestCartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid product")
	}

	token, cart, err := u.load(ctx, token)
	if err != nil {
		return GuestCartResponse{}, err
	}

	var existingQty int64
	for _, e := range cart.Entries {
		if e.ProductID == in.ProductID {
			existingQty = e.Quantity
			break
		}
	}
	if existingQty+in.Quantity > p.Stock {
		return GuestCartResponse{}, NewHTTPError(http.StatusBadRequest, "stock exceeded")
	}

	cart.Add(cartstore.Entry{
		ProductID: p.ID,
		Name:      p.Name,
		UnitPrice: p.Price,
		Quantity:  in.Quantity,
	})

	if err := u.store.Save(ctx, token, cart); err != nil {
		return GuestCartResponse{}, NewHTTPError(http.StatusInternalServerError, "cart store error")
	}
	return toGuestCartResponse(token, cart), nil
}

// 数量変更。0以下は削除。
func (u *GuestCartUsecase) UpdateItem(ctx context.Context, token string, productID int64, qty int64) (GuestCartResponse, error) {
	if token == "" {
		return GuestCartResponse{}, NewHTTPError(http.StatusBadRequest, "missing guest token")
	}
	if productID <= 0 {
		return GuestCartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid product_id")
	}

	token, cart, err := u.load(ctx, token)
	if err != nil {
		return GuestCartResponse{}, err
	}

	if qty > 0 {
		p, err := u.productRepo.FindByID(ctx, productID)
		if err == repo.ErrNotFound {
			return GuestCartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid product")
		}
		if err != nil {
			return GuestCartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if qty > p.Stock {
			return GuestCartResponse{}, NewHTTPError(http.StatusBadRequest, "stock exceeded")
		}
	}

	cart.SetQuantity(productID, qty)

	if err := u.store.Save(ctx, token, cart); err != nil {
		return GuestCartResponse{}, NewHTTPError(http.StatusInternalServerError, "cart store error")
	}
	return toGuestCartResponse(token, cart), nil
}

func (u *GuestCartUsecase) ClearCart(ctx context.Context, token string) (GuestCartResponse, error) {
	if token == "" {
		return GuestCartResponse{}, NewHTTPError(http.StatusBadRequest, "missing guest token")
	}

	if err := u.store.Clear(ctx, token); err != nil {
		return GuestCartResponse{}, NewHTTPError(http.StatusInternalServerError, "cart store error")
	}
	return toGuestCartResponse(token, cartstore.Cart{}), nil
}

func (u *GuestCartUsecase) load(ctx context.Context, token string) (string, cartstore.Cart, error) {
	if token == "" {
		return uuid.NewString(), cartstore.Cart{}, nil
	}

	cart, err := u.store.Get(ctx, token)
	if err != nil {
		return "", cartstore.Cart{}, NewHTTPError(http.StatusInternalServerError, "cart store error")
	}
	return token, cart, nil
}

func toGuestCartResponse(token string, cart cartstore.Cart) GuestCartResponse {
	items := cart.Entries
	if items == nil {
		items = []cartstore.Entry{}
	}
	return GuestCartResponse{
		Token:     token,
		Items:     items,
		ItemCount: cart.ItemCount(),
		Total:     cart.TotalPrice(),
	}
}
