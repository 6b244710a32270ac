package gateway

import (
	"context"
	"fmt"
	"testing"
	"time"
)

// scriptedClient returns the queued errors in order, then succeeds. Call
// counts are tracked per method.
type scriptedClient struct {
	fetchOrderErrs []error
	fetchOrderN    int
	createOrderErr error
	createOrderN   int
}

func (s *scriptedClient) IsDemoMode() bool { return true }

func (s *scriptedClient) CreateOrder(ctx context.Context, amount int64, currency, receipt string, autoCapture bool) (*Order, error) {
	s.createOrderN++
	if s.createOrderErr != nil {
		return nil, s.createOrderErr
	}
	return &Order{ID: "order_x", Amount: amount, Currency: currency, Receipt: receipt, Status: "created"}, nil
}

func (s *scriptedClient) FetchOrder(ctx context.Context, orderID string) (*OrderSnapshot, error) {
	s.fetchOrderN++
	if len(s.fetchOrderErrs) > 0 {
		err := s.fetchOrderErrs[0]
		s.fetchOrderErrs = s.fetchOrderErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	return &OrderSnapshot{ID: orderID, Status: "created"}, nil
}

func (s *scriptedClient) FetchPayment(ctx context.Context, paymentID string) (*PaymentSnapshot, error) {
	return &PaymentSnapshot{ID: paymentID}, nil
}

func (s *scriptedClient) CreatePaymentLink(ctx context.Context, spec LinkSpec) (*PaymentLink, error) {
	return &PaymentLink{ID: "plink_x"}, nil
}

func (s *scriptedClient) FetchPaymentLink(ctx context.Context, linkID string) (*PaymentLink, error) {
	return &PaymentLink{ID: linkID}, nil
}

func netErr() error {
	return &Error{Kind: KindNetwork, Op: "fetch order", Err: fmt.Errorf("timeout")}
}

func TestRetryRecoversFromTransientFailures(t *testing.T) {
	inner := &scriptedClient{fetchOrderErrs: []error{netErr(), netErr()}}
	c := WithRetry(inner, 3, time.Second)

	snap, err := c.FetchOrder(context.Background(), "order_1")
	if err != nil {
		t.Fatalf("FetchOrder failed after retries: %v", err)
	}
	if snap.ID != "order_1" {
		t.Errorf("snapshot id = %s; want order_1", snap.ID)
	}
	if inner.fetchOrderN != 3 {
		t.Errorf("inner calls = %d; want 3", inner.fetchOrderN)
	}
}

func TestRetryGivesUpAfterMaxAttempts(t *testing.T) {
	inner := &scriptedClient{fetchOrderErrs: []error{netErr(), netErr(), netErr(), netErr()}}
	c := WithRetry(inner, 3, time.Second)

	if _, err := c.FetchOrder(context.Background(), "order_1"); err == nil {
		t.Fatal("expected failure once attempts are exhausted")
	}
	if inner.fetchOrderN != 3 {
		t.Errorf("inner calls = %d; want exactly 3", inner.fetchOrderN)
	}
}

func TestRetrySkipsPermanentFailures(t *testing.T) {
	inner := &scriptedClient{fetchOrderErrs: []error{
		&Error{Kind: KindInvalidRequest, Op: "fetch order", Err: fmt.Errorf("bad id")},
	}}
	c := WithRetry(inner, 3, time.Second)

	if _, err := c.FetchOrder(context.Background(), "order_1"); err == nil {
		t.Fatal("expected invalid_request to surface")
	}
	if inner.fetchOrderN != 1 {
		t.Errorf("inner calls = %d; permanent failures must not be retried", inner.fetchOrderN)
	}
}

// Creates are never retried: a create that reached the gateway before the
// network failed would mint a second order on resend.
func TestRetryNeverResendsCreateOrder(t *testing.T) {
	inner := &scriptedClient{createOrderErr: netErr()}
	c := WithRetry(inner, 3, time.Second)

	if _, err := c.CreateOrder(context.Background(), 100, "INR", "r", true); err == nil {
		t.Fatal("expected create failure to surface")
	}
	if inner.createOrderN != 1 {
		t.Errorf("inner calls = %d; creates must be sent exactly once", inner.createOrderN)
	}
}
