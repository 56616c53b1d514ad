// Package checkout coordinates the cart -> order -> gateway flow and the
// payment verification that closes it.
package checkout

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/countryside/storefront/internal/cart"
	"github.com/countryside/storefront/internal/order"
	"github.com/countryside/storefront/internal/payment"
)

type BillingInfo struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

func (b BillingInfo) validate() error {
	for _, f := range []struct{ field, value string }{
		{"name", b.Name},
		{"email", b.Email},
		{"phone", b.Phone},
		{"address", b.Address},
	} {
		if strings.TrimSpace(f.value) == "" {
			return &ValidationError{Field: f.field, Message: "is required"}
		}
	}
	if !strings.Contains(b.Email, "@") {
		return &ValidationError{Field: "email", Message: "is not a valid email address"}
	}
	return nil
}

type Orchestrator struct {
	Orders   order.Repository
	Gateway  payment.Gateway
	Currency string
	// RedirectURL is where the gateway sends the browser back, with tx_ref
	// and transaction_id in the query string.
	RedirectURL string
	// now is swappable for deterministic tx_refs in tests.
	now func() time.Time
}

func NewOrchestrator(orders order.Repository, gw payment.Gateway, currency, redirectURL string) *Orchestrator {
	return &Orchestrator{
		Orders:      orders,
		Gateway:     gw,
		Currency:    currency,
		RedirectURL: redirectURL,
		now:         time.Now,
	}
}

// txRef is unique without a central counter: wall-clock millis plus the order
// id, which also lets the verifier recover the order id from the reference.
func (s *Orchestrator) txRef(orderID string) string {
	return fmt.Sprintf("%d-%s", s.now().UnixMilli(), orderID)
}

// Submit runs the checkout sequence: validate, insert order, insert lines,
// register the payment, clear the cart. The steps are sequential remote calls
// with early exit; they are not atomic. Once order and lines both exist they
// are never deleted here — the compensating delete only fires while the order
// still has no lines.
func (s *Orchestrator) Submit(ctx context.Context, store *cart.Store, billing BillingInfo) (string, error) {
	if err := billing.validate(); err != nil {
		return "", err
	}
	items := store.Items()
	if len(items) == 0 {
		return "", &ValidationError{Field: "cart", Message: "is empty"}
	}

	total := store.Total()
	o := &order.Order{
		ID:              uuid.NewString(),
		CustomerName:    billing.Name,
		CustomerEmail:   billing.Email,
		CustomerPhone:   billing.Phone,
		ShippingAddress: billing.Address,
		Total:           total.String(),
		PaymentStatus:   order.PaymentPending,
		Status:          order.StatusProcessing,
	}
	if err := s.Orders.Create(ctx, o); err != nil {
		return "", fmt.Errorf("%w: create order: %v", ErrRemoteWrite, err)
	}

	lines := make([]order.Line, 0, len(items))
	for _, it := range items {
		lines = append(lines, order.Line{
			ID:        uuid.NewString(),
			OrderID:   o.ID,
			ProductID: it.ID,
			Name:      it.Name,
			Price:     it.Price.String(),
			Quantity:  it.Quantity,
		})
	}
	if err := s.Orders.CreateLines(ctx, lines); err != nil {
		// the order has no lines yet, so deleting it is safe
		if _, derr := s.Orders.Delete(ctx, o.ID); derr != nil {
			log.Printf("[checkout] compensating delete of order %s failed: %v", o.ID, derr)
		}
		return "", fmt.Errorf("%w: create order lines: %v", ErrRemoteWrite, err)
	}

	ref := s.txRef(o.ID)
	if err := s.Orders.SetTxRef(ctx, o.ID, ref); err != nil {
		log.Printf("[checkout] set tx_ref on order %s failed: %v", o.ID, err)
		// non-fatal: verification can still match via meta.order_id
	}

	link, err := s.Gateway.CreateCheckout(ctx, payment.CheckoutRequest{
		TxRef:       ref,
		Amount:      total.String(),
		Currency:    s.Currency,
		RedirectURL: s.RedirectURL,
		Customer: payment.Customer{
			Email:       billing.Email,
			PhoneNumber: billing.Phone,
			Name:        billing.Name,
		},
		Meta: payment.Meta{OrderID: o.ID},
	})
	if err != nil {
		// order stays pending; there is no rollback past this point
		return "", err
	}

	if err := store.Clear(ctx); err != nil {
		log.Printf("[checkout] clearing cart after redirect failed: %v", err)
	}
	return link, nil
}
