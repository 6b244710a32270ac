package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// SignatureVerifier checks that a payment confirmation was produced by the
// gateway. Two independent secrets: the key secret signs client-side
// confirmations, the webhook secret signs webhook bodies. Mismatches return
// false rather than erroring so the caller picks the failure path. Secrets
// and full signatures are never logged.
type SignatureVerifier struct {
	paymentSecret []byte
	webhookSecret []byte
}

func NewSignatureVerifier(paymentSecret, webhookSecret string) *SignatureVerifier {
	return &SignatureVerifier{
		paymentSecret: []byte(paymentSecret),
		webhookSecret: []byte(webhookSecret),
	}
}

// VerifyPayment checks the signature over "orderID|paymentID".
func (v *SignatureVerifier) VerifyPayment(orderID, paymentID, signature string) bool {
	return verifyHMAC(v.paymentSecret, []byte(orderID+"|"+paymentID), signature)
}

// VerifyWebhook checks the transport signature over the raw request body.
func (v *SignatureVerifier) VerifyWebhook(body []byte, signature string) bool {
	return verifyHMAC(v.webhookSecret, body, signature)
}

// verifyHMAC recomputes the HMAC-SHA256 over msg and compares it to the
// hex-encoded supplied signature in constant time.
func verifyHMAC(secret, msg []byte, signature string) bool {
	supplied, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, secret)
	mac.Write(msg)
	return hmac.Equal(mac.Sum(nil), supplied)
}
