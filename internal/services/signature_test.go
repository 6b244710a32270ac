package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"
)

func computeHMAC(secret, msg string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(msg))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyPayment(t *testing.T) {
	v := NewSignatureVerifier("key-secret", "webhook-secret")

	valid := computeHMAC("key-secret", "order_abc|pay_123")

	tests := []struct {
		name      string
		orderID   string
		paymentID string
		signature string
		expected  bool
	}{
		{
			name:      "valid signature",
			orderID:   "order_abc",
			paymentID: "pay_123",
			signature: valid,
			expected:  true,
		},
		{
			name:      "tampered order id",
			orderID:   "order_xyz",
			paymentID: "pay_123",
			signature: valid,
			expected:  false,
		},
		{
			name:      "tampered payment id",
			orderID:   "order_abc",
			paymentID: "pay_999",
			signature: valid,
			expected:  false,
		},
		{
			name:      "signature from wrong secret",
			orderID:   "order_abc",
			paymentID: "pay_123",
			signature: computeHMAC("webhook-secret", "order_abc|pay_123"),
			expected:  false,
		},
		{
			name:      "empty signature",
			orderID:   "order_abc",
			paymentID: "pay_123",
			signature: "",
			expected:  false,
		},
		{
			name:      "non-hex signature",
			orderID:   "order_abc",
			paymentID: "pay_123",
			signature: "not-hex-at-all",
			expected:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := v.VerifyPayment(tt.orderID, tt.paymentID, tt.signature)
			if result != tt.expected {
				t.Errorf("VerifyPayment(%q, %q, ...) = %v; want %v", tt.orderID, tt.paymentID, result, tt.expected)
			}
		})
	}
}

func TestVerifyWebhook(t *testing.T) {
	v := NewSignatureVerifier("key-secret", "webhook-secret")
	body := []byte(`{"event":"payment.captured"}`)

	if !v.VerifyWebhook(body, computeHMAC("webhook-secret", string(body))) {
		t.Error("expected valid webhook signature to verify")
	}
	if v.VerifyWebhook(body, computeHMAC("key-secret", string(body))) {
		t.Error("payment secret must not verify webhook bodies")
	}
	if v.VerifyWebhook([]byte(`{"event":"payment.failed"}`), computeHMAC("webhook-secret", string(body))) {
		t.Error("signature over a different body must not verify")
	}
}
