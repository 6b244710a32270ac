package gateway

import (
	"context"
	"errors"
	"strings"
	"time"

	razorpay "github.com/razorpay/razorpay-go"
	rzperrors "github.com/razorpay/razorpay-go/errors"
)

// RazorpayClient is the live gateway variant, wrapping the official SDK.
type RazorpayClient struct {
	api *razorpay.Client
}

// NewRazorpayClient builds the live client. timeout bounds each HTTP call.
func NewRazorpayClient(keyID, keySecret string, timeout time.Duration) *RazorpayClient {
	api := razorpay.NewClient(keyID, keySecret)
	api.SetTimeout(int16(timeout.Seconds()))
	return &RazorpayClient{api: api}
}

func (c *RazorpayClient) IsDemoMode() bool { return false }

func (c *RazorpayClient) CreateOrder(ctx context.Context, amount int64, currency, receipt string, autoCapture bool) (*Order, error) {
	capture := 0
	if autoCapture {
		capture = 1
	}
	data := map[string]interface{}{
		"amount":          amount,
		"currency":        currency,
		"receipt":         receipt,
		"payment_capture": capture,
	}

	body, err := c.api.Order.Create(data, nil)
	if err != nil {
		return nil, mapError("create order", err)
	}

	return &Order{
		ID:        asString(body, "id"),
		Amount:    asInt64(body, "amount"),
		Currency:  asString(body, "currency"),
		Receipt:   asString(body, "receipt"),
		Status:    asString(body, "status"),
		CreatedAt: time.Unix(asInt64(body, "created_at"), 0),
	}, nil
}

func (c *RazorpayClient) FetchOrder(ctx context.Context, orderID string) (*OrderSnapshot, error) {
	body, err := c.api.Order.Fetch(orderID, nil, nil)
	if err != nil {
		return nil, mapError("fetch order", err)
	}

	snap := &OrderSnapshot{
		ID:       asString(body, "id"),
		Status:   asString(body, "status"),
		Amount:   asInt64(body, "amount"),
		Currency: asString(body, "currency"),
		Receipt:  asString(body, "receipt"),
	}

	// A paid order carries no payment id in the order entity; resolve it so
	// the sweep worker can reconcile with a concrete payment.
	if snap.Status == "paid" {
		payments, err := c.api.Order.Payments(orderID, nil, nil)
		if err == nil {
			if items, ok := payments["items"].([]interface{}); ok && len(items) > 0 {
				if first, ok := items[0].(map[string]interface{}); ok {
					snap.PaymentID = asString(first, "id")
				}
			}
		}
	}

	return snap, nil
}

func (c *RazorpayClient) FetchPayment(ctx context.Context, paymentID string) (*PaymentSnapshot, error) {
	body, err := c.api.Payment.Fetch(paymentID, nil, nil)
	if err != nil {
		return nil, mapError("fetch payment", err)
	}

	snap := &PaymentSnapshot{
		ID:       asString(body, "id"),
		OrderID:  asString(body, "order_id"),
		Status:   asString(body, "status"),
		Amount:   asInt64(body, "amount"),
		Currency: asString(body, "currency"),
		Method:   asString(body, "method"),
		Email:    asString(body, "email"),
		Contact:  asString(body, "contact"),
	}
	if card, ok := body["card"].(map[string]interface{}); ok {
		snap.Last4 = asString(card, "last4")
		snap.Network = asString(card, "network")
	}
	return snap, nil
}

func (c *RazorpayClient) CreatePaymentLink(ctx context.Context, spec LinkSpec) (*PaymentLink, error) {
	data := map[string]interface{}{
		"amount":       spec.Amount,
		"currency":     spec.Currency,
		"description":  spec.Description,
		"reference_id": spec.ReferenceID,
		"customer": map[string]interface{}{
			"name":    spec.CustomerName,
			"email":   spec.CustomerEmail,
			"contact": spec.CustomerContact,
		},
	}
	if spec.CallbackURL != "" {
		data["callback_url"] = spec.CallbackURL
		data["callback_method"] = "get"
	}

	body, err := c.api.PaymentLink.Create(data, nil)
	if err != nil {
		return nil, mapError("create payment link", err)
	}
	return paymentLinkFromBody(body), nil
}

func (c *RazorpayClient) FetchPaymentLink(ctx context.Context, linkID string) (*PaymentLink, error) {
	body, err := c.api.PaymentLink.Fetch(linkID, nil, nil)
	if err != nil {
		return nil, mapError("fetch payment link", err)
	}
	return paymentLinkFromBody(body), nil
}

func paymentLinkFromBody(body map[string]interface{}) *PaymentLink {
	return &PaymentLink{
		ID:          asString(body, "id"),
		ShortURL:    asString(body, "short_url"),
		Status:      asString(body, "status"),
		Amount:      asInt64(body, "amount"),
		Currency:    asString(body, "currency"),
		ReferenceID: asString(body, "reference_id"),
	}
}

// mapError folds SDK and transport errors into the taxonomy. Server-side and
// transport failures are transient; 4xx responses are permanent.
func mapError(op string, err error) *Error {
	var srvErr *rzperrors.ServerError
	var gwErr *rzperrors.GatewayError
	var badReq *rzperrors.BadRequestError

	switch {
	case errors.As(err, &srvErr), errors.As(err, &gwErr):
		return &Error{Kind: KindNetwork, Op: op, Err: err}
	case errors.As(err, &badReq):
		msg := strings.ToLower(err.Error())
		switch {
		case strings.Contains(msg, "does not exist") || strings.Contains(msg, "not found"):
			return &Error{Kind: KindNotFound, Op: op, Err: err}
		case strings.Contains(msg, "authentication") || strings.Contains(msg, "api key"):
			return &Error{Kind: KindAuth, Op: op, Err: err}
		case strings.Contains(msg, "too many requests"):
			return &Error{Kind: KindRateLimited, Op: op, Err: err}
		default:
			return &Error{Kind: KindInvalidRequest, Op: op, Err: err}
		}
	default:
		// Connection refused, timeouts, DNS failures
		return &Error{Kind: KindNetwork, Op: op, Err: err}
	}
}

func asString(m map[string]interface{}, key string) string {
	s, _ := m[key].(string)
	return s
}

func asInt64(m map[string]interface{}, key string) int64 {
	switch v := m[key].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	default:
		return 0
	}
}
