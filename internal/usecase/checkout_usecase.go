package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"freshleap/internal/cartstore"
	"freshleap/internal/domain/model"
	"freshleap/internal/event"
	"freshleap/internal/mail"
	"freshleap/internal/payment"
	repo "freshleap/internal/repository"

	"github.com/google/uuid"
)

// 配送先が取れなかったときの文字列
const shippingAddressFallback = "address not provided"

// CheckoutUsecase は決済session作成と、決済完了後の注文突合（reconciliation）。
//
// 突合は1トランザクションで行い、payment_session_idのunique制約で
// 同じsessionの再confirmが二重注文にならないようにする。
type CheckoutUsecase struct {
	tx           repo.TransactionManager
	cartRepo     repo.CartRepository
	cartItemRepo repo.CartItemRepository
	productRepo  repo.ProductRepository
	guestCarts   cartstore.Store // nilならゲストcheckoutは無効
	gateway      payment.Gateway
	publisher    event.Publisher
	mailer       mail.Mailer
	log          *slog.Logger
	successURL   string
	cancelURL    string
}

func NewCheckoutUsecase(
	tx repo.TransactionManager,
	cartRepo repo.CartRepository,
	cartItemRepo repo.CartItemRepository,
	productRepo repo.ProductRepository,
	guestCarts cartstore.Store,
	gateway payment.Gateway,
	publisher event.Publisher,
	mailer mail.Mailer,
	log *slog.Logger,
	successURL string,
	cancelURL string,
) *CheckoutUsecase {
	return &CheckoutUsecase{
		tx:           tx,
		cartRepo:     cartRepo,
		cartItemRepo: cartItemRepo,
		productRepo:  productRepo,
		guestCarts:   guestCarts,
		gateway:      gateway,
		publisher:    publisher,
		mailer:       mailer,
		log:          log,
		successURL:   successURL,
		cancelURL:    cancelURL,
	}
}

type CheckoutConfirmOutput struct {
	Success     bool        `json:"success"`
	Order       OrderOutput `json:"order"`
	OrderNumber string      `json:"order_number"`
	Message     string      `json:"message"`
}

// CreateSession はサーバー側カートからプロバイダのcheckout sessionを作る。
// クライアントから明細は受け取らない（価格・在庫はここで確定する）。
func (u *CheckoutUsecase) CreateSession(ctx context.Context, userID int64, guestToken string) (payment.CreatedSession, error) {
	items, err := u.collectItems(ctx, userID, guestToken)
	if err != nil {
		return payment.CreatedSession{}, err
	}
	if len(items) == 0 {
		return payment.CreatedSession{}, NewHTTPError(http.StatusBadRequest, "cart empty")
	}

	in := payment.CreateSessionInput{
		Items:      items,
		SuccessURL: u.successURL,
		CancelURL:  u.cancelURL,
	}
	//ログイン済みならclient_reference_idでアカウントに紐づける
	if userID > 0 {
		in.ClientReferenceID = strconv.FormatInt(userID, 10)
	}

	created, err := u.gateway.CreateSession(ctx, in)
	if err != nil {
		u.log.Error("checkout session create failed", slog.String("error", err.Error()))
		return payment.CreatedSession{}, NewHTTPError(http.StatusInternalServerError, "payment provider error")
	}

	return created, nil
}

// カート（DBまたはRedis）から決済明細を組み立てる。
func (u *CheckoutUsecase) collectItems(ctx context.Context, userID int64, guestToken string) ([]payment.LineItem, error) {
	if userID > 0 {
		cart, err := u.cartRepo.FindActiveByUserID(ctx, userID)
		if err == repo.ErrNotFound {
			return nil, NewHTTPError(http.StatusBadRequest, "cart empty")
		}
		if err != nil {
			return nil, NewHTTPError(http.StatusInternalServerError, "db error")
		}

		cartItems, err := u.cartItemRepo.ListByCartID(ctx, cart.ID)
		if err != nil {
			return nil, NewHTTPError(http.StatusInternalServerError, "db error")
		}

		items := make([]payment.LineItem, 0, len(cartItems))
		for _, ci := range cartItems {
			li, err := u.toLineItem(ctx, ci.ProductID, ci.Quantity, ci.UnitPriceSnapshot)
			if err != nil {
				return nil, err
			}
			items = append(items, li)
		}
		return items, nil
	}

	if guestToken == "" || u.guestCarts == nil {
		return nil, NewHTTPError(http.StatusBadRequest, "cart empty")
	}

	cart, err := u.guestCarts.Get(ctx, guestToken)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "cart store error")
	}

	items := make([]payment.LineItem, 0, len(cart.Entries))
	for _, e := range cart.Entries {
		li, err := u.toLineItem(ctx, e.ProductID, e.Quantity, e.UnitPrice)
		if err != nil {
			return nil, err
		}
		items = append(items, li)
	}
	return items, nil
}

// session作成前の在庫・公開チェック
func (u *CheckoutUsecase) toLineItem(ctx context.Context, productID int64, qty int64, unitPrice int64) (payment.LineItem, error) {
	p, err := u.productRepo.FindByID(ctx, productID)
	if err == repo.ErrNotFound {
		return payment.LineItem{}, NewHTTPError(http.StatusBadRequest, "product no longer available")
	}
	if err != nil {
		return payment.LineItem{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !p.IsActive {
		return payment.LineItem{}, NewHTTPError(http.StatusBadRequest, "product no longer available")
	}
	if qty > p.Stock {
		return payment.LineItem{}, NewHTTPError(http.StatusBadRequest, "out of stock")
	}

	return payment.LineItem{
		ProductID:   p.ID,
		Name:        p.Name,
		Description: p.Description,
		UnitPrice:   unitPrice,
		Quantity:    qty,
	}, nil
}

// ConfirmCheckout は決済完了後の突合。
//   - payment_statusがpaid以外なら注文は作らない
//   - 同じsession_idで何度呼ばれても注文は1つ（再confirmは既存を返す）
//   - 明細・在庫・DBカート確定は注文と同じトランザクション
//   - ゲスト注文はcommit後にRedisカートを空にする（best-effort）
func (u *CheckoutUsecase) ConfirmCheckout(ctx context.Context, sessionID string, guestToken string) (CheckoutConfirmOutput, error) {
	if strings.TrimSpace(sessionID) == "" {
		return CheckoutConfirmOutput{}, NewHTTPError(http.StatusBadRequest, "missing session_id")
	}

	s, err := u.gateway.GetSession(ctx, sessionID)
	if err == payment.ErrSessionNotFound {
		return CheckoutConfirmOutput{}, NewHTTPError(http.StatusNotFound, "session not found")
	}
	if err != nil {
		u.log.Error("checkout session fetch failed",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()),
		)
		return CheckoutConfirmOutput{}, NewHTTPError(http.StatusInternalServerError, "payment provider error")
	}

	if !s.Paid {
		return CheckoutConfirmOutput{}, NewHTTPError(http.StatusBadRequest, "payment not completed")
	}

	//注文の持ち主。client_reference_idがアカウントIDとして読めればそのユーザー、
	//読めなければゲスト注文として新しいIDを振る。
	var userID *int64
	guestID := ""
	if id, parseErr := strconv.ParseInt(s.ClientReferenceID, 10, 64); parseErr == nil && id > 0 {
		userID = &id
	} else {
		guestID = newGuestID()
	}

	shipping := s.ShippingAddress
	if shipping == "" {
		shipping = shippingAddressFallback
	}

	var out OrderOutput
	created := false
	var createdItems []model.OrderItem

	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		//同じsessionなら既存の注文をそのまま返す
		existing, found, err := r.Orders().FindByPaymentSessionID(ctx, s.ID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if found {
			items, err := r.OrderItems().ListByOrderID(ctx, existing.ID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			out = toOrderOutput(existing, items)
			return nil
		}

		now := time.Now()
		order := model.Order{
			UserID:           userID,
			GuestID:          guestID,
			PaymentSessionID: s.ID,
			Status:           model.OrderStatusPending,
			//プロバイダの合計（最小通貨単位）をそのまま保存する
			TotalPrice:      s.AmountTotal,
			ShippingAddress: shipping,
			CreatedAt:       now,
			UpdatedAt:       now,
		}

		orderID, err := r.Orders().Create(ctx, order)
		if err != nil {
			//uniqueの競合（同時confirm）はもう一度引いて同じ結果を返す
			ex2, found2, err2 := r.Orders().FindByPaymentSessionID(ctx, s.ID)
			if err2 == nil && found2 {
				items2, err3 := r.OrderItems().ListByOrderID(ctx, ex2.ID)
				if err3 != nil {
					return NewHTTPError(http.StatusInternalServerError, "db error")
				}
				out = toOrderOutput(ex2, items2)
				return nil
			}
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		orderItems := make([]model.OrderItem, 0, len(s.Items))
		for _, li := range s.Items {
			if li.Quantity <= 0 {
				continue
			}
			if li.ProductID <= 0 {
				//metadataにproduct_idが無い明細は注文に載せられない。
				//支払いは済んでいるので注文自体は残す。
				u.log.Warn("line item without product id skipped",
					slog.String("session_id", s.ID),
					slog.Int64("order_id", orderID),
					slog.String("description", li.Description),
				)
				continue
			}

			p, err := r.Products().FindByID(ctx, li.ProductID)
			if err == repo.ErrNotFound {
				//checkout後に商品が消えたケース。残った明細だけで注文を残す。
				u.log.Warn("paid line item references missing product",
					slog.String("session_id", s.ID),
					slog.Int64("order_id", orderID),
					slog.Int64("product_id", li.ProductID),
				)
				continue
			}
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}

			orderItems = append(orderItems, model.OrderItem{
				OrderID:             orderID,
				ProductID:           p.ID,
				ProductNameSnapshot: p.Name,
				UnitPriceSnapshot:   li.UnitPrice,
				Quantity:            li.Quantity,
				CreatedAt:           now,
			})

			//支払済みなので拒否はできない。在庫は0で止める。
			if err := r.Inventory().DecreaseStockFloorZero(ctx, p.ID, li.Quantity); err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
		}

		if err := r.OrderItems().CreateBulk(ctx, orderID, orderItems); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//ログイン済みの注文はカートを確定して空にする
		if userID != nil {
			cart, err := r.Carts().FindActiveByUserID(ctx, *userID)
			if err == nil {
				if err := r.Carts().UpdateStatus(ctx, cart.ID, model.CartStatusCheckedOut); err != nil {
					return NewHTTPError(http.StatusInternalServerError, "db error")
				}
				if err := r.Carts().Clear(ctx, cart.ID); err != nil {
					return NewHTTPError(http.StatusInternalServerError, "db error")
				}
			} else if err != repo.ErrNotFound {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
		}

		created = true
		createdItems = orderItems
		out = toOrderOutput(model.Order{
			ID:               orderID,
			UserID:           userID,
			GuestID:          guestID,
			PaymentSessionID: s.ID,
			Status:           model.OrderStatusPending,
			TotalPrice:       s.AmountTotal,
			ShippingAddress:  shipping,
			CreatedAt:        now,
		}, orderItems)
		return nil
	})

	if err != nil {
		return CheckoutConfirmOutput{}, err
	}

	//イベント・確認メール・Redisカートの掃除はcommit後。失敗してもレスポンスは変えない。
	if created {
		if userID == nil && guestToken != "" && u.guestCarts != nil {
			if err := u.guestCarts.Clear(ctx, guestToken); err != nil {
				u.log.Warn("guest cart clear failed",
					slog.Int64("order_id", out.ID),
					slog.String("error", err.Error()),
				)
			}
		}
		u.publishOrderCreated(s, out, createdItems)
		u.sendConfirmationMail(ctx, s, out)
	}

	return CheckoutConfirmOutput{
		Success:     true,
		Order:       out,
		OrderNumber: fmt.Sprintf("FL-%06d", out.ID),
		Message:     "order confirmed",
	}, nil
}

func (u *CheckoutUsecase) publishOrderCreated(s payment.Session, out OrderOutput, items []model.OrderItem) {
	payloadItems := make([]event.ItemPayload, 0, len(items))
	for _, it := range items {
		payloadItems = append(payloadItems, event.ItemPayload{
			ProductID: it.ProductID,
			Qty:       it.Quantity,
			UnitPrice: it.UnitPriceSnapshot,
		})
	}

	u.publisher.Publish(event.EventOrderCreated, strconv.FormatInt(out.ID, 10), event.OrderCreatedPayload{
		OrderID:          out.ID,
		PaymentSessionID: s.ID,
		UserID:           out.UserID,
		GuestID:          out.GuestID,
		Items:            payloadItems,
		Total:            out.TotalPrice,
	})
}

func (u *CheckoutUsecase) sendConfirmationMail(ctx context.Context, s payment.Session, out OrderOutput) {
	if s.CustomerEmail == "" {
		return
	}

	body := fmt.Sprintf(
		"Thank you for your order FL-%06d.\n\nTotal: %d\nShipping to: %s\n",
		out.ID, out.TotalPrice, out.ShippingAddress,
	)
	if err := u.mailer.Send(ctx, s.CustomerEmail, "Your FreshLeap order", body); err != nil {
		u.log.Warn("order confirmation mail failed",
			slog.Int64("order_id", out.ID),
			slog.String("error", err.Error()),
		)
	}
}

func newGuestID() string {
	return uuid.NewString()
}
