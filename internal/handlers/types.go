package handlers

import (
	"time"

	"github.com/labstack/echo/v4"
)

// CheckoutRequest starts a payment for a booked service.
type CheckoutRequest struct {
	CustomerID        uint      `json:"customer_id"`
	ServiceOfferingID uint      `json:"service_offering_id"`
	ScheduledAt       time.Time `json:"scheduled_at"`
	Notes             string    `json:"notes"`
}

// CheckoutResponse carries what the browser checkout widget needs.
type CheckoutResponse struct {
	CaseID   uint   `json:"case_id"`
	OrderID  string `json:"order_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
}

// VerifyRequest is the confirmation the client submits after the gateway
// redirect. Field names follow the gateway's checkout callback.
type VerifyRequest struct {
	OrderID   string `json:"razorpay_order_id"`
	PaymentID string `json:"razorpay_payment_id"`
	Signature string `json:"razorpay_signature"`
}

// VerifyResponse reports the reconciled state of the payment.
type VerifyResponse struct {
	Verified bool   `json:"verified"`
	Status   string `json:"status"`
}

// PaymentLinkResponse carries a hosted checkout link.
type PaymentLinkResponse struct {
	OrderID  string `json:"order_id"`
	LinkID   string `json:"link_id"`
	LinkURL  string `json:"link_url"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

func getStringFromContext(c echo.Context, key string) string {
	if val := c.Get(key); val != nil {
		if s, ok := val.(string); ok {
			return s
		}
	}
	return ""
}
