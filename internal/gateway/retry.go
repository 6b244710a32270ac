package gateway

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// retryClient decorates a Client with a bounded retry policy. Only transient
// failures on idempotent reads are retried; CreateOrder and CreatePaymentLink
// are sent exactly once, because re-sending a create that already reached the
// gateway would mint a duplicate order.
type retryClient struct {
	inner       Client
	maxAttempts uint64
	perCall     time.Duration
}

// WithRetry wraps client with exponential backoff with jitter, capped at
// maxAttempts per read, and a perCall timeout on every call.
func WithRetry(client Client, maxAttempts int, perCall time.Duration) Client {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &retryClient{inner: client, maxAttempts: uint64(maxAttempts), perCall: perCall}
}

func (r *retryClient) IsDemoMode() bool { return r.inner.IsDemoMode() }

func (r *retryClient) CreateOrder(ctx context.Context, amount int64, currency, receipt string, autoCapture bool) (*Order, error) {
	cctx, cancel := context.WithTimeout(ctx, r.perCall)
	defer cancel()
	return r.inner.CreateOrder(cctx, amount, currency, receipt, autoCapture)
}

func (r *retryClient) CreatePaymentLink(ctx context.Context, spec LinkSpec) (*PaymentLink, error) {
	cctx, cancel := context.WithTimeout(ctx, r.perCall)
	defer cancel()
	return r.inner.CreatePaymentLink(cctx, spec)
}

func (r *retryClient) FetchOrder(ctx context.Context, orderID string) (*OrderSnapshot, error) {
	return retryRead(ctx, r, func(cctx context.Context) (*OrderSnapshot, error) {
		return r.inner.FetchOrder(cctx, orderID)
	})
}

func (r *retryClient) FetchPayment(ctx context.Context, paymentID string) (*PaymentSnapshot, error) {
	return retryRead(ctx, r, func(cctx context.Context) (*PaymentSnapshot, error) {
		return r.inner.FetchPayment(cctx, paymentID)
	})
}

func (r *retryClient) FetchPaymentLink(ctx context.Context, linkID string) (*PaymentLink, error) {
	return retryRead(ctx, r, func(cctx context.Context) (*PaymentLink, error) {
		return r.inner.FetchPaymentLink(cctx, linkID)
	})
}

func retryRead[T any](ctx context.Context, r *retryClient, fn func(context.Context) (T, error)) (T, error) {
	var result T

	op := func() error {
		cctx, cancel := context.WithTimeout(ctx, r.perCall)
		defer cancel()

		res, err := fn(cctx)
		if err != nil {
			if IsTransient(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		result = res
		return nil
	}

	bo := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), r.maxAttempts-1)
	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		return result, err
	}
	return result, nil
}
