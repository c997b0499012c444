package usecase

import (
	"context"
	"net/http"
	"time"

	"freshleap/internal/domain/model"
	repo "freshleap/internal/repository"
)

// OrderUsecase は購入者向けの注文参照。
// 注文の作成はCheckoutUsecase（決済確定）だけが行う。
type OrderUsecase struct {
	orderRepo     repo.OrderRepository
	orderItemRepo repo.OrderItemRepository
}

func NewOrderUsecase(orderRepo repo.OrderRepository, orderItemRepo repo.OrderItemRepository) *OrderUsecase {
	return &OrderUsecase{orderRepo: orderRepo, orderItemRepo: orderItemRepo}
}

type OrderItemOutput struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Quantity  int64  `json:"quantity"`
}

type OrderOutput struct {
	ID              int64             `json:"id"`
	UserID          *int64            `json:"user_id,omitempty"`
	GuestID         string            `json:"guest_id,omitempty"`
	Status          string            `json:"status"`
	TotalPrice      int64             `json:"total_price"`
	ShippingAddress string            `json:"shipping_address"`
	CreatedAt       time.Time         `json:"created_at"`
	Items           []OrderItemOutput `json:"items"`
}

func (u *OrderUsecase) ListMyOrders(ctx context.Context, userID int64) ([]OrderOutput, error) {
	if userID <= 0 {
		return []OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	//ページングはまず固定で取る
	orders, _, err := u.orderRepo.ListByUserID(ctx, userID, 1, 50)
	if err != nil {
		return []OrderOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	outs := make([]OrderOutput, 0, len(orders))
	for _, o := range orders {
		items, err := u.orderItemRepo.ListByOrderID(ctx, o.ID)
		if err != nil {
			return []OrderOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		outs = append(outs, toOrderOutput(o, items))
	}
	return outs, nil
}

func (u *OrderUsecase) GetMyOrderDetail(ctx context.Context, userID int64, orderID int64) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	o, err := u.orderRepo.FindByID(ctx, orderID)
	if err == repo.ErrNotFound {
		return OrderOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return OrderOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	//他人の注文（ゲスト注文含む）は「存在しない扱い」にする
	if o.UserID == nil || *o.UserID != userID {
		return OrderOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}

	items, err := u.orderItemRepo.ListByOrderID(ctx, orderID)
	if err != nil {
		return OrderOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return toOrderOutput(o, items), nil
}

func toOrderOutput(o model.Order, items []model.OrderItem) OrderOutput {
	outItems := make([]OrderItemOutput, 0, len(items))
	for _, it := range items {
		outItems = append(outItems, OrderItemOutput{
			ProductID: it.ProductID,
			Name:      it.ProductNameSnapshot,
			Price:     it.UnitPriceSnapshot,
			Quantity:  it.Quantity,
		})
	}

	return OrderOutput{
		ID:              o.ID,
		UserID:          o.UserID,
		GuestID:         o.GuestID,
		Status:          string(o.Status),
		TotalPrice:      o.TotalPrice,
		ShippingAddress: o.ShippingAddress,
		CreatedAt:       o.CreatedAt,
		Items:           outItems,
	}
}
