package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"
)

// DemoClient is the no-network gateway variant. Identifiers are derived
// deterministically from the request so downstream logic is exercised without
// an external dependency. Synthetic confirmations are signed with the
// configured payment secret, so the verifier path runs end-to-end.
type DemoClient struct {
	secret string

	mu     sync.RWMutex
	orders map[string]*demoOrder
	links  map[string]*PaymentLink
}

type demoOrder struct {
	order     Order
	status    string
	paymentID string
}

func NewDemoClient(paymentSecret string) *DemoClient {
	return &DemoClient{
		secret: paymentSecret,
		orders: make(map[string]*demoOrder),
		links:  make(map[string]*PaymentLink),
	}
}

func (c *DemoClient) IsDemoMode() bool { return true }

func (c *DemoClient) CreateOrder(ctx context.Context, amount int64, currency, receipt string, autoCapture bool) (*Order, error) {
	id := "order_" + deriveID(fmt.Sprintf("%s:%d:%s", receipt, amount, currency))

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.orders[id]; ok {
		return &existing.order, nil
	}

	order := Order{
		ID:        id,
		Amount:    amount,
		Currency:  currency,
		Receipt:   receipt,
		Status:    "created",
		CreatedAt: time.Now(),
	}
	c.orders[id] = &demoOrder{order: order, status: "created"}
	return &order, nil
}

func (c *DemoClient) FetchOrder(ctx context.Context, orderID string) (*OrderSnapshot, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.orders[orderID]
	if !ok {
		return nil, &Error{Kind: KindNotFound, Op: "fetch order", Err: fmt.Errorf("order %s does not exist", orderID)}
	}
	return &OrderSnapshot{
		ID:        entry.order.ID,
		Status:    entry.status,
		Amount:    entry.order.Amount,
		Currency:  entry.order.Currency,
		Receipt:   entry.order.Receipt,
		PaymentID: entry.paymentID,
	}, nil
}

func (c *DemoClient) FetchPayment(ctx context.Context, paymentID string) (*PaymentSnapshot, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, entry := range c.orders {
		if entry.paymentID == paymentID {
			return &PaymentSnapshot{
				ID:       paymentID,
				OrderID:  entry.order.ID,
				Status:   "captured",
				Amount:   entry.order.Amount,
				Currency: entry.order.Currency,
				Method:   "card",
				Last4:    "4242",
				Network:  "Visa",
			}, nil
		}
	}
	return nil, &Error{Kind: KindNotFound, Op: "fetch payment", Err: fmt.Errorf("payment %s does not exist", paymentID)}
}

func (c *DemoClient) CreatePaymentLink(ctx context.Context, spec LinkSpec) (*PaymentLink, error) {
	id := "plink_" + deriveID(fmt.Sprintf("%s:%d", spec.ReferenceID, spec.Amount))

	link := &PaymentLink{
		ID:          id,
		ShortURL:    "https://demo.pay/l/" + id,
		Status:      "created",
		Amount:      spec.Amount,
		Currency:    spec.Currency,
		ReferenceID: spec.ReferenceID,
	}

	c.mu.Lock()
	c.links[id] = link
	c.mu.Unlock()
	return link, nil
}

func (c *DemoClient) FetchPaymentLink(ctx context.Context, linkID string) (*PaymentLink, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	link, ok := c.links[linkID]
	if !ok {
		return nil, &Error{Kind: KindNotFound, Op: "fetch payment link", Err: fmt.Errorf("payment link %s does not exist", linkID)}
	}
	cp := *link
	return &cp, nil
}

// CompletePayment simulates the customer paying an order. It returns the
// synthetic payment id and a signature the verifier will accept.
func (c *DemoClient) CompletePayment(orderID string) (paymentID, signature string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.orders[orderID]
	if !ok {
		return "", "", &Error{Kind: KindNotFound, Op: "complete payment", Err: fmt.Errorf("order %s does not exist", orderID)}
	}

	if entry.paymentID == "" {
		entry.paymentID = "pay_" + deriveID(orderID)
	}
	entry.status = "paid"

	mac := hmac.New(sha256.New, []byte(c.secret))
	mac.Write([]byte(orderID + "|" + entry.paymentID))
	return entry.paymentID, hex.EncodeToString(mac.Sum(nil)), nil
}

// FailPayment simulates a declined payment attempt on an order.
func (c *DemoClient) FailPayment(orderID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.orders[orderID]
	if !ok {
		return &Error{Kind: KindNotFound, Op: "fail payment", Err: fmt.Errorf("order %s does not exist", orderID)}
	}
	entry.status = "attempted"
	return nil
}

// deriveID produces a fixed-format 14 character identifier from the input,
// matching the shape of real gateway ids.
func deriveID(input string) string {
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])[:14]
}
