package worker

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"pawcare_app/internal/gateway"
	"pawcare_app/internal/models"
	"pawcare_app/internal/services"
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

type sweepFixture struct {
	db      *gorm.DB
	gw      *gateway.DemoClient
	sweeper *Sweeper
}

func newSweepFixture(t *testing.T) *sweepFixture {
	t.Helper()

	db := newTestDB(t)
	gw := gateway.NewDemoClient("key-secret")
	verifier := services.NewSignatureVerifier("key-secret", "webhook-secret")
	reconciler := services.NewPaymentReconciler(db, verifier)
	return &sweepFixture{
		db:      db,
		gw:      gw,
		sweeper: NewSweeper(db, gw, reconciler, models.PaymentGatewayDemo),
	}
}

// stuckOrder creates a gateway order with a matching local record whose
// created_at is age in the past.
func (f *sweepFixture) stuckOrder(t *testing.T, receipt string, age time.Duration) *models.PaymentRecord {
	t.Helper()

	order, err := f.gw.CreateOrder(context.Background(), 50000, "INR", receipt, true)
	if err != nil {
		t.Fatalf("CreateOrder failed: %v", err)
	}
	record := models.PaymentRecord{
		ExternalOrderID: order.ID,
		Status:          models.PaymentPending,
		Amount:          50000,
		Currency:        "INR",
	}
	if err := f.db.Create(&record).Error; err != nil {
		t.Fatalf("Failed to seed record: %v", err)
	}
	backdated := time.Now().Add(-age)
	if err := f.db.Model(&record).Update("created_at", backdated).Error; err != nil {
		t.Fatalf("Failed to backdate record: %v", err)
	}
	return &record
}

func (f *sweepFixture) reload(t *testing.T, id uint) *models.PaymentRecord {
	t.Helper()
	var rec models.PaymentRecord
	if err := f.db.First(&rec, id).Error; err != nil {
		t.Fatalf("Failed to reload record: %v", err)
	}
	return &rec
}

func TestSweepRepairsPaidOrder(t *testing.T) {
	f := newSweepFixture(t)
	rec := f.stuckOrder(t, "r-paid", time.Hour)

	// The customer paid, but neither confirmation path reached us.
	paymentID, _, err := f.gw.CompletePayment(rec.ExternalOrderID)
	if err != nil {
		t.Fatalf("CompletePayment failed: %v", err)
	}

	if err := f.sweeper.Sweep(context.Background()); err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}

	got := f.reload(t, rec.ID)
	if got.Status != models.PaymentCompleted {
		t.Errorf("record status = %s; want completed", got.Status)
	}
	if got.ExternalPaymentID != paymentID {
		t.Errorf("payment id = %q; want %q", got.ExternalPaymentID, paymentID)
	}
}

func TestSweepAbandonsStaleUnpaidOrder(t *testing.T) {
	f := newSweepFixture(t)
	rec := f.stuckOrder(t, "r-stale", 48*time.Hour)

	if err := f.sweeper.Sweep(context.Background()); err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}

	got := f.reload(t, rec.ID)
	if got.Status != models.PaymentFailed {
		t.Errorf("record status = %s; want failed", got.Status)
	}
	if got.FailureReason != "checkout abandoned" {
		t.Errorf("failure reason = %q; want checkout abandoned", got.FailureReason)
	}
}

func TestSweepLeavesRecentUnpaidOrderAlone(t *testing.T) {
	f := newSweepFixture(t)
	// Past StuckAfter, well inside AbandonAfter: the customer may still pay.
	rec := f.stuckOrder(t, "r-recent", time.Hour)

	if err := f.sweeper.Sweep(context.Background()); err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}

	if got := f.reload(t, rec.ID); got.Status != models.PaymentPending {
		t.Errorf("record status = %s; want still pending", got.Status)
	}
}

func TestSweepSkipsInFlightAttempts(t *testing.T) {
	f := newSweepFixture(t)
	rec := f.stuckOrder(t, "r-attempt", 48*time.Hour)
	if err := f.gw.FailPayment(rec.ExternalOrderID); err != nil {
		t.Fatalf("FailPayment failed: %v", err)
	}

	if err := f.sweeper.Sweep(context.Background()); err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}

	if got := f.reload(t, rec.ID); got.Status != models.PaymentPending {
		t.Errorf("record status = %s; want still pending", got.Status)
	}
}

func TestSweepIgnoresFreshPending(t *testing.T) {
	f := newSweepFixture(t)
	rec := f.stuckOrder(t, "r-fresh", time.Minute)
	if _, _, err := f.gw.CompletePayment(rec.ExternalOrderID); err != nil {
		t.Fatalf("CompletePayment failed: %v", err)
	}

	if err := f.sweeper.Sweep(context.Background()); err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}

	// A minute old is not stuck yet; the webhook gets first go.
	if got := f.reload(t, rec.ID); got.Status != models.PaymentPending {
		t.Errorf("record status = %s; want still pending", got.Status)
	}
}
