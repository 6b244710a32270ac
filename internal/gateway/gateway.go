package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrorKind classifies gateway failures for the retry policy and callers.
type ErrorKind string

const (
	KindNetwork        ErrorKind = "network"
	KindAuth           ErrorKind = "auth"
	KindRateLimited    ErrorKind = "rate_limited"
	KindInvalidRequest ErrorKind = "invalid_request"
	KindNotFound       ErrorKind = "not_found"
)

// Error is the uniform error type returned by every Client method.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("gateway %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("gateway %s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Transient reports whether a retry could plausibly succeed.
func (e *Error) Transient() bool {
	return e.Kind == KindNetwork || e.Kind == KindRateLimited
}

// IsTransient reports whether err is a transient gateway error.
func IsTransient(err error) bool {
	var ge *Error
	return errors.As(err, &ge) && ge.Transient()
}

// Order is a gateway-side order created for an intended charge.
type Order struct {
	ID        string
	Amount    int64 // minor units
	Currency  string
	Receipt   string
	Status    string
	CreatedAt time.Time
}

// OrderSnapshot is the gateway's current view of an order.
type OrderSnapshot struct {
	ID       string
	Status   string // "created", "attempted", "paid"
	Amount   int64
	Currency string
	Receipt  string
	// PaymentID is set when the gateway reports the order as paid and the
	// capturing payment is known.
	PaymentID string
}

// PaymentSnapshot is the gateway's current view of a payment.
type PaymentSnapshot struct {
	ID       string
	OrderID  string
	Status   string
	Amount   int64
	Currency string
	Method   string
	Last4    string
	Network  string
	Email    string
	Contact  string
}

// LinkSpec describes a payment link to create.
type LinkSpec struct {
	Amount          int64
	Currency        string
	Description     string
	ReferenceID     string
	CustomerName    string
	CustomerEmail   string
	CustomerContact string
	CallbackURL     string
}

// PaymentLink is a hosted checkout link.
type PaymentLink struct {
	ID          string
	ShortURL    string
	Status      string
	Amount      int64
	Currency    string
	ReferenceID string
}

// Client is the sole boundary to the external payment provider. One instance
// is constructed at process start and passed down explicitly.
type Client interface {
	CreateOrder(ctx context.Context, amount int64, currency, receipt string, autoCapture bool) (*Order, error)
	FetchOrder(ctx context.Context, orderID string) (*OrderSnapshot, error)
	FetchPayment(ctx context.Context, paymentID string) (*PaymentSnapshot, error)
	CreatePaymentLink(ctx context.Context, spec LinkSpec) (*PaymentLink, error)
	FetchPaymentLink(ctx context.Context, linkID string) (*PaymentLink, error)
	IsDemoMode() bool
}
