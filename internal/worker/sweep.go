package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"pawcare_app/internal/gateway"
	"pawcare_app/internal/models"
	"pawcare_app/internal/services"
)

// Sweeper repairs payment records stuck in pending: a crash between a
// confirmed charge and the local transition, or a webhook that never
// arrived, leaves a pending row whose truth only the gateway knows.
type Sweeper struct {
	db         *gorm.DB
	gw         gateway.Client
	reconciler *services.PaymentReconciler
	gatewayTag models.PaymentGateway

	// StuckAfter is how long a record may stay pending before it is checked.
	StuckAfter time.Duration
	// AbandonAfter is how long an untouched gateway order may live before
	// the record is failed as abandoned.
	AbandonAfter time.Duration
	// BatchSize caps records examined per pass.
	BatchSize int
}

func NewSweeper(db *gorm.DB, gw gateway.Client, reconciler *services.PaymentReconciler, gatewayTag models.PaymentGateway) *Sweeper {
	return &Sweeper{
		db:           db,
		gw:           gw,
		reconciler:   reconciler,
		gatewayTag:   gatewayTag,
		StuckAfter:   10 * time.Minute,
		AbandonAfter: 24 * time.Hour,
		BatchSize:    100,
	}
}

// Run sweeps on every tick until the context is cancelled.
func (s *Sweeper) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Println("Reconciliation sweeper started")

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Sweep(ctx); err != nil {
				log.Printf("Sweep failed: %v", err)
			}
		}
	}
}

// Sweep examines one batch of stuck pending records.
func (s *Sweeper) Sweep(ctx context.Context) error {
	cutoff := time.Now().Add(-s.StuckAfter)

	var stuck []models.PaymentRecord
	err := s.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", models.PaymentPending, cutoff).
		Order("created_at").
		Limit(s.BatchSize).
		Find(&stuck).Error
	if err != nil {
		return err
	}

	if len(stuck) == 0 {
		return nil
	}
	log.Printf("Found %d stuck pending payments", len(stuck))

	for _, rec := range stuck {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := s.repair(ctx, rec); err != nil {
			log.Printf("Failed to repair order %s: %v", rec.ExternalOrderID, err)
		}
	}
	return nil
}

func (s *Sweeper) repair(ctx context.Context, rec models.PaymentRecord) error {
	snap, err := s.gw.FetchOrder(ctx, rec.ExternalOrderID)
	if err != nil {
		return err
	}

	var ev services.PaymentEvent
	switch snap.Status {
	case "paid":
		// The money moved; reflect it locally.
		ev = s.eventFor(rec, snap, services.DeclaredSuccess, "")
	case "created":
		if time.Since(rec.CreatedAt) < s.AbandonAfter {
			return nil // customer may still pay
		}
		ev = s.eventFor(rec, snap, services.DeclaredFailure, "checkout abandoned")
	default:
		// "attempted": a payment is in flight at the gateway, check again
		// on a later pass.
		return nil
	}

	result, err := s.reconciler.ApplyEvent(ctx, ev)
	if err != nil {
		if errors.Is(err, services.ErrUnknownOrder) {
			return fmt.Errorf("record exists but reconciler cannot see it: %w", err)
		}
		return err
	}

	if result.Outcome == services.OutcomeTransitioned {
		log.Printf("Repaired order %s: pending -> %s", rec.ExternalOrderID, result.Record.Status)
	}
	return nil
}

func (s *Sweeper) eventFor(rec models.PaymentRecord, snap *gateway.OrderSnapshot, outcome services.DeclaredOutcome, reason string) services.PaymentEvent {
	raw, _ := json.Marshal(map[string]interface{}{
		"order_id":   snap.ID,
		"status":     snap.Status,
		"payment_id": snap.PaymentID,
	})
	return services.PaymentEvent{
		OrderID:   rec.ExternalOrderID,
		PaymentID: snap.PaymentID,
		Outcome:   outcome,
		Source:    services.SourceSweep,
		Gateway:   s.gatewayTag,
		Raw:       raw,
		Reason:    reason,
	}
}
