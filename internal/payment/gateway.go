package payment

import (
	"context"
	"errors"
)

// 決済sessionが存在しない
var ErrSessionNotFound = errors.New("payment session not found")

// checkout sessionに載せる1行
type LineItem struct {
	ProductID   int64
	Name        string
	Description string
	UnitPrice   int64 // 最小通貨単位
	Quantity    int64
}

type CreateSessionInput struct {
	Items             []LineItem
	ClientReferenceID string // ログイン済みならuser ID
	SuccessURL        string
	CancelURL         string
}

type CreatedSession struct {
	ID  string `json:"session_id"`
	URL string `json:"url"`
}

// 決済完了後に取得できる1行。
// ProductIDはsession作成時にmetadataへ入れたものの往復（名前一致での照合はしない）。
type SessionItem struct {
	ProductID   int64
	Description string
	UnitPrice   int64
	Quantity    int64
	Subtotal    int64
}

// プロバイダ側sessionの正規化ビュー
type Session struct {
	ID                string
	Paid              bool
	AmountTotal       int64 // 最小通貨単位
	ClientReferenceID string
	CustomerEmail     string
	ShippingAddress   string // 連結済み。取れなければ空
	Items             []SessionItem
}

// 決済プロバイダの抽象。実装はStripe Checkout。
type Gateway interface {
	CreateSession(ctx context.Context, in CreateSessionInput) (CreatedSession, error)
	GetSession(ctx context.Context, sessionID string) (Session, error)
}
