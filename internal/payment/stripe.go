package payment

import (
	"context"
	"errors"
	"strconv"
	"strings"

	stripe "github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/checkout/session"
)

const metadataProductIDKey = "product_id"

type StripeGateway struct {
	currency string
}

// DI。keyはプロセス全体で1つ。
func NewStripeGateway(secretKey string, currency string) *StripeGateway {
	stripe.Key = secretKey
	return &StripeGateway{currency: currency}
}

func (g *StripeGateway) CreateSession(ctx context.Context, in CreateSessionInput) (CreatedSession, error) {
	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(in.Items))
	for _, it := range in.Items {
		productData := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripe.String(it.Name),
			Metadata: map[string]string{
				metadataProductIDKey: strconv.FormatInt(it.ProductID, 10),
			},
		}
		if it.Description != "" {
			productData.Description = stripe.String(it.Description)
		}

		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(g.currency),
				UnitAmount:  stripe.Int64(it.UnitPrice),
				ProductData: productData,
			},
			Quantity: stripe.Int64(it.Quantity),
		})
	}

	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems:          lineItems,
		//ブラウザはsession IDを持って戻ってくる
		SuccessURL: stripe.String(in.SuccessURL + "?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:  stripe.String(in.CancelURL),
		ShippingAddressCollection: &stripe.CheckoutSessionShippingAddressCollectionParams{
			AllowedCountries: stripe.StringSlice([]string{"US", "CA", "JP"}),
		},
		BillingAddressCollection: stripe.String("required"),
	}
	params.Context = ctx
	if in.ClientReferenceID != "" {
		params.ClientReferenceID = stripe.String(in.ClientReferenceID)
	}

	s, err := session.New(params)
	if err != nil {
		return CreatedSession{}, err
	}

	return CreatedSession{ID: s.ID, URL: s.URL}, nil
}

func (g *StripeGateway) GetSession(ctx context.Context, sessionID string) (Session, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	params.AddExpand("line_items")
	params.AddExpand("line_items.data.price.product")
	params.AddExpand("payment_intent")

	s, err := session.Get(sessionID, params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.HTTPStatusCode == 404 {
			return Session{}, ErrSessionNotFound
		}
		return Session{}, err
	}

	out := Session{
		ID:                s.ID,
		Paid:              s.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
		AmountTotal:       s.AmountTotal,
		ClientReferenceID: s.ClientReferenceID,
	}

	if s.CustomerDetails != nil {
		out.CustomerEmail = s.CustomerDetails.Email
	}

	//配送先：payment_intentのshipping→customer_detailsの住所の順で拾う
	if s.PaymentIntent != nil && s.PaymentIntent.Shipping != nil {
		out.ShippingAddress = joinAddress(s.PaymentIntent.Shipping.Address)
	}
	if out.ShippingAddress == "" && s.CustomerDetails != nil {
		out.ShippingAddress = joinAddress(s.CustomerDetails.Address)
	}

	if s.LineItems != nil {
		for _, li := range s.LineItems.Data {
			item := SessionItem{
				Description: li.Description,
				Quantity:    li.Quantity,
				Subtotal:    li.AmountSubtotal,
			}
			if li.Price != nil {
				item.UnitPrice = li.Price.UnitAmount
				if li.Price.Product != nil {
					if raw, ok := li.Price.Product.Metadata[metadataProductIDKey]; ok {
						id, parseErr := strconv.ParseInt(raw, 10, 64)
						if parseErr == nil {
							item.ProductID = id
						}
					}
				}
			}
			out.Items = append(out.Items, item)
		}
	}

	return out, nil
}

// 住所サブフィールドを1本の文字列に連結
func joinAddress(a *stripe.Address) string {
	if a == nil {
		return ""
	}

	parts := make([]string, 0, 6)
	for _, p := range []string{a.Line1, a.Line2, a.City, a.State, a.PostalCode, a.Country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}
