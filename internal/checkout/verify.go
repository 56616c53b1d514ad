package checkout

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/countryside/storefront/internal/order"
	"github.com/countryside/storefront/internal/payment"
)

// Verifier reconciles an order's payment state against the gateway's
// authoritative answer. Both callback surfaces (redirect-back and server
// notification) run through the same Verify.
type Verifier struct {
	Orders   order.Repository
	Gateway  payment.Gateway
	Currency string
}

func NewVerifier(orders order.Repository, gw payment.Gateway, currency string) *Verifier {
	return &Verifier{Orders: orders, Gateway: gw, Currency: currency}
}

// orderIDFromRef recovers the order id from a "<millis>-<order-id>" reference.
func orderIDFromRef(txRef string) string {
	if i := strings.Index(txRef, "-"); i > 0 && i < len(txRef)-1 {
		return txRef[i+1:]
	}
	return ""
}

// Verify confirms the transaction with the gateway and, only on a definitive
// "successful", marks the order paid. Any other outcome leaves the order
// untouched: an ambiguous signal must never downgrade state. Safe to call
// repeatedly with the same identifiers.
func (v *Verifier) Verify(ctx context.Context, txRef, transactionID string) error {
	if strings.TrimSpace(txRef) == "" || strings.TrimSpace(transactionID) == "" {
		return ErrInvalidReference
	}

	ver, err := v.Gateway.VerifyByID(ctx, transactionID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnconfirmed, err)
	}
	if ver.TxRef != txRef {
		return fmt.Errorf("%w: reference mismatch", ErrUnconfirmed)
	}
	if ver.Status != payment.StatusSuccessful {
		return fmt.Errorf("%w: gateway status %q", ErrUnconfirmed, ver.Status)
	}

	orderID := ver.Meta.OrderID
	if orderID == "" {
		orderID = orderIDFromRef(txRef)
	}
	if orderID == "" {
		return fmt.Errorf("%w: no order id in metadata or reference", ErrUnconfirmed)
	}

	o, err := v.Orders.GetByID(ctx, orderID)
	if err != nil {
		return fmt.Errorf("load order %s: %w", orderID, err)
	}

	// amount/currency must match what we charged for
	total, err := decimal.NewFromString(o.Total)
	if err != nil {
		return fmt.Errorf("order %s has malformed total %q: %w", o.ID, o.Total, err)
	}
	paid, err := decimal.NewFromString(ver.Amount.String())
	if err != nil || !paid.Equal(total) || ver.Currency != v.Currency {
		return fmt.Errorf("%w: amount/currency mismatch", ErrUnconfirmed)
	}

	if o.PaymentStatus == order.PaymentPaid {
		return nil // already reconciled
	}
	return v.Orders.MarkPaid(ctx, o.ID)
}
