package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"pawcare_app/internal/models"
)

// DeclaredOutcome is what a payment event claims happened at the gateway.
type DeclaredOutcome string

const (
	DeclaredSuccess      DeclaredOutcome = "success"
	DeclaredFailure      DeclaredOutcome = "failure"
	DeclaredCancellation DeclaredOutcome = "cancelled"
)

func (o DeclaredOutcome) targetStatus() models.PaymentStatus {
	switch o {
	case DeclaredSuccess:
		return models.PaymentCompleted
	case DeclaredCancellation:
		return models.PaymentCancelled
	default:
		return models.PaymentFailed
	}
}

// EventSource identifies which confirmation path delivered an event.
type EventSource string

const (
	SourceCallback EventSource = "client-callback"
	SourceWebhook  EventSource = "webhook"
	SourceSweep    EventSource = "sweep"
)

// PaymentEvent is the transient input to the reconciler. Events from the
// webhook path had their transport signature validated already; events from
// the sweep path carry the gateway's own read of the order. Both skip the
// per-event signature check.
type PaymentEvent struct {
	OrderID   string
	PaymentID string
	Signature string
	Outcome   DeclaredOutcome
	Source    EventSource
	Gateway   models.PaymentGateway
	Raw       json.RawMessage

	// Instrument metadata, when the event carries it
	Method  string
	Last4   string
	Network string
	Reason  string
}

func (e PaymentEvent) preVerified() bool {
	return e.Source == SourceWebhook || e.Source == SourceSweep
}

// ReconcileOutcome is the result of applying one event.
type ReconcileOutcome string

const (
	OutcomeTransitioned   ReconcileOutcome = "transitioned"
	OutcomeAlreadyApplied ReconcileOutcome = "already_applied"
	OutcomeConflict       ReconcileOutcome = "conflict"
	OutcomeRejected       ReconcileOutcome = "rejected"
)

// ReconcileResult carries the outcome and the record as it stands after the
// event was applied (or refused).
type ReconcileResult struct {
	Outcome ReconcileOutcome
	Record  *models.PaymentRecord
}

// ErrUnknownOrder means no PaymentRecord exists for the event's order id.
// The reconciler never creates records; only the order service does.
var ErrUnknownOrder = errors.New("unknown order")

// errLostRace signals the conditional update matched no pending row because
// a concurrent confirmation path transitioned the record first.
var errLostRace = errors.New("payment record no longer pending")

// PaymentReconciler is the single writer of terminal payment state. It
// applies verified events against the PaymentRecord with a conditional
// status update, so racing confirmation paths resolve to exactly one winner
// across processes sharing the data store.
type PaymentReconciler struct {
	db       *gorm.DB
	verifier *SignatureVerifier
	mailer   *EmailService
}

func NewPaymentReconciler(db *gorm.DB, verifier *SignatureVerifier) *PaymentReconciler {
	return &PaymentReconciler{db: db, verifier: verifier}
}

// WithMailer enables best-effort receipt mail on completed payments.
func (r *PaymentReconciler) WithMailer(mailer *EmailService) *PaymentReconciler {
	r.mailer = mailer
	return r
}

// ApplyEvent drives the state machine for one event.
func (r *PaymentReconciler) ApplyEvent(ctx context.Context, ev PaymentEvent) (*ReconcileResult, error) {
	var rec models.PaymentRecord
	err := r.db.WithContext(ctx).Where("external_order_id = ?", ev.OrderID).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		r.logEvent(ctx, ev, "unknown_order")
		return nil, fmt.Errorf("%w: %s", ErrUnknownOrder, ev.OrderID)
	}
	if err != nil {
		return nil, err
	}

	if rec.Status.Terminal() {
		return r.settleAgainstTerminal(ctx, &rec, ev)
	}

	if !ev.preVerified() && !r.verifier.VerifyPayment(ev.OrderID, ev.PaymentID, ev.Signature) {
		failEv := ev
		failEv.Reason = "signature verification failed"
		failEv.Outcome = DeclaredFailure
		err := r.transition(ctx, &rec, failEv, models.PaymentFailed)
		if err != nil && !errors.Is(err, errLostRace) {
			return nil, err
		}
		r.logEvent(ctx, ev, OutcomeRejected)
		if err := r.db.WithContext(ctx).First(&rec, rec.ID).Error; err != nil {
			return nil, err
		}
		return &ReconcileResult{Outcome: OutcomeRejected, Record: &rec}, nil
	}

	target := ev.Outcome.targetStatus()
	err = r.transition(ctx, &rec, ev, target)
	if errors.Is(err, errLostRace) {
		// The other confirmation path won; classify against what it wrote.
		if err := r.db.WithContext(ctx).First(&rec, rec.ID).Error; err != nil {
			return nil, err
		}
		return r.settleAgainstTerminal(ctx, &rec, ev)
	}
	if err != nil {
		return nil, err
	}

	r.logEvent(ctx, ev, OutcomeTransitioned)
	if err := r.db.WithContext(ctx).First(&rec, rec.ID).Error; err != nil {
		return nil, err
	}
	if rec.Status == models.PaymentCompleted {
		r.sendReceipt(&rec)
	}
	return &ReconcileResult{Outcome: OutcomeTransitioned, Record: &rec}, nil
}

// settleAgainstTerminal resolves an event arriving after the record reached
// a terminal state: a duplicate of the recorded outcome is an idempotent
// no-op, anything else is a conflict needing manual review.
func (r *PaymentReconciler) settleAgainstTerminal(ctx context.Context, rec *models.PaymentRecord, ev PaymentEvent) (*ReconcileResult, error) {
	sameOutcome := ev.Outcome.targetStatus() == rec.Status
	samePayment := rec.ExternalPaymentID == "" || ev.PaymentID == "" || rec.ExternalPaymentID == ev.PaymentID

	if sameOutcome && samePayment {
		r.logEvent(ctx, ev, OutcomeAlreadyApplied)
		return &ReconcileResult{Outcome: OutcomeAlreadyApplied, Record: rec}, nil
	}

	log.Printf("ANOMALY: conflicting confirmation for order %s: recorded %s (payment %q), event declares %s (payment %q, source %s); manual review required",
		ev.OrderID, rec.Status, rec.ExternalPaymentID, ev.Outcome, ev.PaymentID, ev.Source)
	r.logEvent(ctx, ev, OutcomeConflict)
	return &ReconcileResult{Outcome: OutcomeConflict, Record: rec}, nil
}

// transition performs the pending-to-terminal conditional update and the
// case propagation in one transaction. Both apply or neither does: a
// confirmed payment must never be recorded as paid without the booking
// side-effect, and vice versa.
func (r *PaymentReconciler) transition(ctx context.Context, rec *models.PaymentRecord, ev PaymentEvent, target models.PaymentStatus) error {
	now := time.Now()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{"status": target}
		if ev.PaymentID != "" {
			updates["external_payment_id"] = ev.PaymentID
		}
		if ev.Method != "" {
			updates["method"] = ev.Method
		}
		if ev.Last4 != "" {
			updates["instrument_last4"] = ev.Last4
		}
		if ev.Network != "" {
			updates["instrument_network"] = ev.Network
		}
		switch target {
		case models.PaymentCompleted:
			updates["completed_at"] = now
		case models.PaymentFailed:
			reason := ev.Reason
			if reason == "" {
				reason = "payment failed"
			}
			updates["failure_reason"] = reason
		}

		res := tx.Model(&models.PaymentRecord{}).
			Where("id = ? AND status = ?", rec.ID, models.PaymentPending).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errLostRace
		}

		if rec.ServiceCaseID == 0 {
			return nil
		}

		var sc models.ServiceCase
		if err := tx.First(&sc, rec.ServiceCaseID).Error; err != nil {
			return err
		}

		caseStatus := caseStatusFor(target)
		if err := tx.Model(&models.ServiceCase{}).
			Where("id = ?", sc.ID).
			Update("payment_status", caseStatus).Error; err != nil {
			return err
		}

		history := models.ServiceHistory{
			ServiceCaseID:     sc.ID,
			CustomerID:        sc.CustomerID,
			PaymentStatus:     caseStatus,
			ExternalPaymentID: ev.PaymentID,
			Currency:          rec.Currency,
			Channel:           ev.Method,
		}
		if target == models.PaymentCompleted {
			history.AmountPaid = rec.Amount
		}
		return tx.Create(&history).Error
	})
}

func caseStatusFor(s models.PaymentStatus) string {
	switch s {
	case models.PaymentCompleted:
		return models.CasePaymentPaid
	case models.PaymentCancelled:
		return models.CasePaymentCancelled
	default:
		return models.CasePaymentFailed
	}
}

// logEvent appends the audit row. Best-effort: the transition already
// committed, a failed audit write must not fail the caller.
func (r *PaymentReconciler) logEvent(ctx context.Context, ev PaymentEvent, result ReconcileOutcome) {
	entry := models.PaymentEventLog{
		PaymentGateway:    ev.Gateway,
		ExternalOrderID:   ev.OrderID,
		ExternalPaymentID: ev.PaymentID,
		DeclaredOutcome:   string(ev.Outcome),
		Source:            string(ev.Source),
		Result:            string(result),
		RawPayload:        ev.Raw,
	}
	if err := r.db.WithContext(ctx).Create(&entry).Error; err != nil {
		log.Printf("Failed to write payment event log for order %s: %v", ev.OrderID, err)
	}
}

func (r *PaymentReconciler) sendReceipt(rec *models.PaymentRecord) {
	if r.mailer == nil || rec.CustomerEmail == "" {
		return
	}
	subject := fmt.Sprintf("Payment received for order %s", rec.ExternalOrderID)
	body := fmt.Sprintf("Hi %s,\n\nWe received your payment of %d %s.\nReference: %s\n\nThank you!",
		rec.CustomerName, rec.Amount, rec.Currency, rec.ExternalPaymentID)
	if err := r.mailer.SendEmail([]string{rec.CustomerEmail}, subject, body); err != nil {
		log.Printf("Failed to send receipt for order %s: %v", rec.ExternalOrderID, err)
	}
}
