package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"pawcare_app/internal/gateway"
	"pawcare_app/internal/models"
)

var supportedCurrencies = map[string]bool{
	"INR": true,
	"USD": true,
	"EUR": true,
	"GBP": true,
	"SGD": true,
	"AED": true,
}

var (
	ErrInvalidAmount       = fmt.Errorf("amount must be greater than zero")
	ErrUnsupportedCurrency = fmt.Errorf("unsupported currency")
)

// CreateOrderInput describes one checkout attempt.
type CreateOrderInput struct {
	Amount   int64 // minor units
	Currency string
	// ServiceCaseID links the payment to a booking; optional
	ServiceCaseID uint

	CustomerName    string
	CustomerEmail   string
	CustomerContact string
}

// OrderService is the entry point for "start checkout": it creates the
// gateway order and the corresponding pending PaymentRecord. Not idempotent
// by design; each call creates a new order. Callers wanting retry dedup pass
// a stable correlation through the service case.
type OrderService struct {
	db          *gorm.DB
	gw          gateway.Client
	currency    string
	autoCapture bool
	appURL      string
}

func NewOrderService(db *gorm.DB, gw gateway.Client, defaultCurrency string, autoCapture bool, appURL string) *OrderService {
	return &OrderService{db: db, gw: gw, currency: defaultCurrency, autoCapture: autoCapture, appURL: appURL}
}

// CreateOrder validates the request, creates the gateway order, then
// persists PaymentOrder and PaymentRecord(pending) together. On gateway
// failure nothing is persisted and the error is surfaced unchanged.
func (s *OrderService) CreateOrder(ctx context.Context, in CreateOrderInput) (*models.PaymentRecord, error) {
	if in.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	currency := in.Currency
	if currency == "" {
		currency = s.currency
	}
	if len(currency) != 3 || !supportedCurrencies[currency] {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedCurrency, currency)
	}

	receipt := s.receiptFor(in.ServiceCaseID)

	order, err := s.gw.CreateOrder(ctx, in.Amount, currency, receipt, s.autoCapture)
	if err != nil {
		return nil, err
	}

	record := models.PaymentRecord{
		ServiceCaseID:   in.ServiceCaseID,
		ExternalOrderID: order.ID,
		Status:          models.PaymentPending,
		Amount:          in.Amount,
		Currency:        currency,
		CustomerName:    in.CustomerName,
		CustomerEmail:   in.CustomerEmail,
		CustomerContact: in.CustomerContact,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		paymentOrder := models.PaymentOrder{
			ExternalOrderID: order.ID,
			Amount:          order.Amount,
			Currency:        order.Currency,
			Receipt:         receipt,
		}
		if err := tx.Create(&paymentOrder).Error; err != nil {
			return err
		}
		return tx.Create(&record).Error
	})
	if err != nil {
		return nil, fmt.Errorf("persist payment record for order %s: %w", order.ID, err)
	}

	return &record, nil
}

// CreatePaymentLink creates an order plus a hosted payment link for it, for
// pay-later checkout. The link's reference id is the gateway order id so the
// webhook confirmation reconciles against the same record.
func (s *OrderService) CreatePaymentLink(ctx context.Context, in CreateOrderInput, description string) (*models.PaymentRecord, error) {
	record, err := s.CreateOrder(ctx, in)
	if err != nil {
		return nil, err
	}

	link, err := s.gw.CreatePaymentLink(ctx, gateway.LinkSpec{
		Amount:          record.Amount,
		Currency:        record.Currency,
		Description:     description,
		ReferenceID:     record.ExternalOrderID,
		CustomerName:    in.CustomerName,
		CustomerEmail:   in.CustomerEmail,
		CustomerContact: in.CustomerContact,
		CallbackURL:     s.appURL + "/payments/return",
	})
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"payment_link_id":  link.ID,
		"payment_link_url": link.ShortURL,
	}
	if err := s.db.WithContext(ctx).Model(record).Updates(updates).Error; err != nil {
		return nil, err
	}
	return record, nil
}

// PaymentLinkStatus fetches the gateway's current view of a link.
func (s *OrderService) PaymentLinkStatus(ctx context.Context, linkID string) (*gateway.PaymentLink, error) {
	return s.gw.FetchPaymentLink(ctx, linkID)
}

// FindRecord loads the ledger entry for an order id.
func (s *OrderService) FindRecord(ctx context.Context, externalOrderID string) (*models.PaymentRecord, error) {
	var rec models.PaymentRecord
	if err := s.db.WithContext(ctx).Where("external_order_id = ?", externalOrderID).First(&rec).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *OrderService) receiptFor(caseID uint) string {
	if caseID != 0 {
		return fmt.Sprintf("case-%d-%d", caseID, time.Now().Unix())
	}
	return "chk-" + uuid.NewString()
}
