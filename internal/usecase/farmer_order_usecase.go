package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"freshleap/internal/domain/model"
	"freshleap/internal/event"
	repo "freshleap/internal/repository"
)

// FarmerOrderUsecase は農家ダッシュボードの注文管理。
// 「自分の商品を含む注文」だけが見える。
type FarmerOrderUsecase struct {
	tx            repo.TransactionManager
	orderRepo     repo.OrderRepository
	orderItemRepo repo.OrderItemRepository
	productRepo   repo.ProductRepository
	auditRepo     repo.AuditLogRepository
	publisher     event.Publisher
	log           *slog.Logger
}

func NewFarmerOrderUsecase(
	tx repo.TransactionManager,
	orderRepo repo.OrderRepository,
	orderItemRepo repo.OrderItemRepository,
	productRepo repo.ProductRepository,
	auditRepo repo.AuditLogRepository,
	publisher event.Publisher,
	log *slog.Logger,
) *FarmerOrderUsecase {
	return &FarmerOrderUsecase{
		tx:            tx,
		orderRepo:     orderRepo,
		orderItemRepo: orderItemRepo,
		productRepo:   productRepo,
		auditRepo:     auditRepo,
		publisher:     publisher,
		log:           log,
	}
}

type FarmerOrderListInput struct {
	Page   int
	Limit  int
	Status string
	From   *time.Time
	To     *time.Time
}

type FarmerOrderListOutput struct {
	Items []OrderOutput `json:"items"`
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}

// 許可する遷移だけ列挙する。
// PENDING -> SHIPPED -> COMPLETED、PENDINGからのCANCELLEDのみ。
func allowedTransition(from model.OrderStatus, to model.OrderStatus) bool {
	switch from {
	case model.OrderStatusPending:
		return to == model.OrderStatusShipped || to == model.OrderStatusCancelled
	case model.OrderStatusShipped:
		return to == model.OrderStatusCompleted
	default:
		return false
	}
}

func (u *FarmerOrderUsecase) ListOrders(ctx context.Context, farmerID int64, in FarmerOrderListInput) (FarmerOrderListOutput, error) {
	if farmerID <= 0 {
		return FarmerOrderListOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if in.Page < 1 {
		in.Page = 1
	}
	if in.Limit < 1 || in.Limit > 100 {
		in.Limit = 20
	}
	if in.Status != "" {
		switch model.OrderStatus(in.Status) {
		case model.OrderStatusPending, model.OrderStatusShipped, model.OrderStatusCompleted, model.OrderStatusCancelled:
		default:
			return FarmerOrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid status")
		}
	}

	orders, total, err := u.orderRepo.ListContainingFarmer(ctx, farmerID, repo.FarmerOrderListFilter{
		Page:   in.Page,
		Limit:  in.Limit,
		Status: in.Status,
		From:   in.From,
		To:     in.To,
	})
	if err != nil {
		return FarmerOrderListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	outs := make([]OrderOutput, 0, len(orders))
	for _, o := range orders {
		items, err := u.orderItemRepo.ListByOrderID(ctx, o.ID)
		if err != nil {
			return FarmerOrderListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		outs = append(outs, toOrderOutput(o, items))
	}

	return FarmerOrderListOutput{Items: outs, Total: total, Page: in.Page, Limit: in.Limit}, nil
}

func (u *FarmerOrderUsecase) GetOrderDetail(ctx context.Context, farmerID int64, orderID int64) (OrderOutput, error) {
	if farmerID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	o, items, err := u.findVisibleOrder(ctx, farmerID, orderID)
	if err != nil {
		return OrderOutput{}, err
	}
	return toOrderOutput(o, items), nil
}

// UpdateStatus は注文のステータスを進める。
// CANCELLEDへの遷移では明細分の在庫を戻す（同一Tx）。
func (u *FarmerOrderUsecase) UpdateStatus(ctx context.Context, farmerID int64, orderID int64, newStatus string) (OrderOutput, error) {
	if farmerID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	to := model.OrderStatus(newStatus)
	switch to {
	case model.OrderStatusShipped, model.OrderStatusCompleted, model.OrderStatusCancelled:
	default:
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid status")
	}

	o, items, err := u.findVisibleOrder(ctx, farmerID, orderID)
	if err != nil {
		return OrderOutput{}, err
	}

	from := o.Status
	if !allowedTransition(from, to) {
		return OrderOutput{}, NewHTTPError(http.StatusConflict, "status transition not allowed")
	}

	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		//Tx内で読み直して遷移を確定する（並行更新対策）
		cur, err := r.Orders().FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		if !allowedTransition(cur.Status, to) {
			return NewHTTPError(http.StatusConflict, "status transition not allowed")
		}

		if err := r.Orders().UpdateStatus(ctx, orderID, to); err != nil {
			return err
		}

		if to == model.OrderStatusCancelled {
			//キャンセルは在庫を戻す
			for _, it := range items {
				if err := r.Inventory().IncreaseStock(ctx, it.ProductID, it.Quantity); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		if httpErr, ok := AsHTTPError(err); ok {
			return OrderOutput{}, httpErr
		}
		return OrderOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	//監査ログとイベントはcommit後。失敗しても遷移自体は成立している。
	if err := u.auditRepo.Create(ctx, model.AuditLog{
		ActorUserID:  farmerID,
		Action:       model.AuditActionUpdateOrderStatus,
		ResourceType: model.AuditResourceOrder,
		ResourceID:   orderID,
		BeforeJSON:   fmt.Sprintf(`{"status":%q}`, from),
		AfterJSON:    fmt.Sprintf(`{"status":%q}`, to),
		CreatedAt:    time.Now(),
	}); err != nil {
		u.log.Warn("audit log write failed",
			slog.Int64("order_id", orderID),
			slog.String("error", err.Error()),
		)
	}

	u.publisher.Publish(event.EventOrderStatusChanged, fmt.Sprintf("order-%d", orderID), event.OrderStatusChangedPayload{
		OrderID: orderID,
		From:    string(from),
		To:      string(to),
	})

	o.Status = to
	return toOrderOutput(o, items), nil
}

// 自分の商品を含まない注文は「存在しない扱い」にする。
func (u *FarmerOrderUsecase) findVisibleOrder(ctx context.Context, farmerID int64, orderID int64) (model.Order, []model.OrderItem, error) {
	o, err := u.orderRepo.FindByID(ctx, orderID)
	if err == repo.ErrNotFound {
		return model.Order{}, nil, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.Order{}, nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	items, err := u.orderItemRepo.ListByOrderID(ctx, orderID)
	if err != nil {
		return model.Order{}, nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	visible := false
	for _, it := range items {
		p, err := u.productRepo.FindByID(ctx, it.ProductID)
		if err == repo.ErrNotFound {
			continue
		}
		if err != nil {
			return model.Order{}, nil, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if p.FarmerID == farmerID {
			visible = true
			break
		}
	}
	if !visible {
		return model.Order{}, nil, NewHTTPError(http.StatusNotFound, "not found")
	}

	return o, items, nil
}
