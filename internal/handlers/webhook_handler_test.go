package handlers

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"pawcare_app/internal/models"
	"pawcare_app/internal/services"
)

const (
	testPaymentSecret = "key-secret"
	testWebhookSecret = "webhook-secret"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := services.AutoMigrate(db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

func seedPendingPayment(t *testing.T, db *gorm.DB, orderID string, amount int64) *models.PaymentRecord {
	t.Helper()

	customer := models.Customer{Name: "Asha Rao", Email: uuid.NewString() + "@example.com"}
	if err := db.Create(&customer).Error; err != nil {
		t.Fatalf("Failed to seed customer: %v", err)
	}
	serviceCase := models.ServiceCase{CustomerID: customer.ID, PaymentStatus: models.CasePaymentPending}
	if err := db.Create(&serviceCase).Error; err != nil {
		t.Fatalf("Failed to seed service case: %v", err)
	}
	record := models.PaymentRecord{
		ServiceCaseID:   serviceCase.ID,
		ExternalOrderID: orderID,
		Status:          models.PaymentPending,
		Amount:          amount,
		Currency:        "INR",
	}
	if err := db.Create(&record).Error; err != nil {
		t.Fatalf("Failed to seed payment record: %v", err)
	}
	return &record
}

func signBody(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func webhookBody(t *testing.T, event, orderID, paymentID string) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]interface{}{
		"event": event,
		"payload": map[string]interface{}{
			"payment": map[string]interface{}{
				"entity": map[string]interface{}{
					"id":       paymentID,
					"order_id": orderID,
					"method":   "card",
					"card":     map[string]string{"last4": "4242", "network": "Visa"},
				},
			},
		},
	})
	if err != nil {
		t.Fatalf("Failed to build webhook body: %v", err)
	}
	return body
}

func newWebhookHandler(db *gorm.DB) *WebhookHandler {
	verifier := services.NewSignatureVerifier(testPaymentSecret, testWebhookSecret)
	reconciler := services.NewPaymentReconciler(db, verifier)
	return NewWebhookHandler(verifier, reconciler, nil, models.PaymentGatewayRazorpay)
}

func postWebhook(h *WebhookHandler, body []byte, signature string) (*httptest.ResponseRecorder, error) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/payment", bytes.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if signature != "" {
		req.Header.Set("X-Razorpay-Signature", signature)
	}
	rec := httptest.NewRecorder()
	return rec, h.HandleNotification(e.NewContext(req, rec))
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	db := newTestDB(t)
	seedPendingPayment(t, db, "order_abc", 50000)
	h := newWebhookHandler(db)

	body := webhookBody(t, "payment.captured", "order_abc", "pay_123")

	tests := []struct {
		name      string
		signature string
	}{
		{name: "missing signature", signature: ""},
		{name: "wrong secret", signature: signBody(testPaymentSecret, body)},
		{name: "garbage", signature: "deadbeef"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := postWebhook(h, body, tt.signature)
			he, ok := err.(*echo.HTTPError)
			if !ok || he.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %v", err)
			}
		})
	}

	var rec models.PaymentRecord
	db.Where("external_order_id = ?", "order_abc").First(&rec)
	if rec.Status != models.PaymentPending {
		t.Errorf("unauthenticated webhook mutated record to %s", rec.Status)
	}
}

func TestWebhookCapturedCompletesPayment(t *testing.T) {
	db := newTestDB(t)
	seeded := seedPendingPayment(t, db, "order_abc", 50000)
	h := newWebhookHandler(db)

	body := webhookBody(t, "payment.captured", "order_abc", "pay_123")
	rec, err := postWebhook(h, body, signBody(testWebhookSecret, body))
	if err != nil {
		t.Fatalf("HandleNotification failed: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d; want 200", rec.Code)
	}

	var got models.PaymentRecord
	if err := db.First(&got, seeded.ID).Error; err != nil {
		t.Fatalf("Failed to reload record: %v", err)
	}
	if got.Status != models.PaymentCompleted {
		t.Errorf("record status = %s; want completed", got.Status)
	}
	if got.ExternalPaymentID != "pay_123" || got.InstrumentLast4 != "4242" {
		t.Errorf("payment metadata not recorded: id=%q last4=%q", got.ExternalPaymentID, got.InstrumentLast4)
	}
}

func TestWebhookReplayIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	seeded := seedPendingPayment(t, db, "order_abc", 50000)
	h := newWebhookHandler(db)

	body := webhookBody(t, "payment.captured", "order_abc", "pay_123")
	sig := signBody(testWebhookSecret, body)

	for i := 0; i < 3; i++ {
		rec, err := postWebhook(h, body, sig)
		if err != nil {
			t.Fatalf("delivery %d failed: %v", i+1, err)
		}
		if rec.Code != http.StatusOK {
			t.Fatalf("delivery %d status = %d; want 200", i+1, rec.Code)
		}
	}

	var count int64
	db.Model(&models.ServiceHistory{}).Where("service_case_id = ?", seeded.ServiceCaseID).Count(&count)
	if count != 1 {
		t.Errorf("history rows after replays = %d; want 1", count)
	}
}

func TestWebhookFailedEvent(t *testing.T) {
	db := newTestDB(t)
	seeded := seedPendingPayment(t, db, "order_fail", 50000)
	h := newWebhookHandler(db)

	body := webhookBody(t, "payment.failed", "order_fail", "pay_f1")
	if _, err := postWebhook(h, body, signBody(testWebhookSecret, body)); err != nil {
		t.Fatalf("HandleNotification failed: %v", err)
	}

	var got models.PaymentRecord
	db.First(&got, seeded.ID)
	if got.Status != models.PaymentFailed {
		t.Errorf("record status = %s; want failed", got.Status)
	}
}

func TestWebhookUnknownOrderReturns404(t *testing.T) {
	db := newTestDB(t)
	h := newWebhookHandler(db)

	body := webhookBody(t, "payment.captured", "order_ghost", "pay_1")
	_, err := postWebhook(h, body, signBody(testWebhookSecret, body))
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusNotFound {
		t.Fatalf("expected 404 so the gateway redelivers, got %v", err)
	}
}

func TestWebhookIgnoresUnknownEventTypes(t *testing.T) {
	db := newTestDB(t)
	seeded := seedPendingPayment(t, db, "order_abc", 50000)
	h := newWebhookHandler(db)

	body := webhookBody(t, "refund.processed", "order_abc", "pay_1")
	rec, err := postWebhook(h, body, signBody(testWebhookSecret, body))
	if err != nil {
		t.Fatalf("HandleNotification failed: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d; want 200 ack", rec.Code)
	}

	var got models.PaymentRecord
	db.First(&got, seeded.ID)
	if got.Status != models.PaymentPending {
		t.Errorf("ignored event mutated record to %s", got.Status)
	}
}
