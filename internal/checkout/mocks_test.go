package checkout

import (
	"context"
	"fmt"

	"github.com/countryside/storefront/internal/order"
	"github.com/countryside/storefront/internal/payment"
)

// mockOrders implements order.Repository in memory.
type mockOrders struct {
	orders map[string]*order.Order
	lines  map[string][]order.Line

	failCreate      error
	failCreateLines error
	deleted         []string
	markPaidCalls   int
}

func newMockOrders() *mockOrders {
	return &mockOrders{
		orders: map[string]*order.Order{},
		lines:  map[string][]order.Line{},
	}
}

func (m *mockOrders) Create(_ context.Context, o *order.Order) error {
	if m.failCreate != nil {
		return m.failCreate
	}
	cp := *o
	m.orders[o.ID] = &cp
	return nil
}

func (m *mockOrders) CreateLines(_ context.Context, lines []order.Line) error {
	if m.failCreateLines != nil {
		return m.failCreateLines
	}
	for _, ln := range lines {
		m.lines[ln.OrderID] = append(m.lines[ln.OrderID], ln)
	}
	return nil
}

func (m *mockOrders) Delete(_ context.Context, id string) (bool, error) {
	if _, ok := m.orders[id]; !ok {
		return false, nil
	}
	delete(m.orders, id)
	m.deleted = append(m.deleted, id)
	return true, nil
}

func (m *mockOrders) GetByID(_ context.Context, id string) (*order.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *mockOrders) GetLines(_ context.Context, orderID string) ([]order.Line, error) {
	return m.lines[orderID], nil
}

func (m *mockOrders) List(_ context.Context, limit, offset int) ([]order.Order, error) {
	out := []order.Order{}
	for _, o := range m.orders {
		out = append(out, *o)
	}
	return out, nil
}

func (m *mockOrders) ListByEmail(_ context.Context, email string, limit, offset int) ([]order.Order, error) {
	out := []order.Order{}
	for _, o := range m.orders {
		if o.CustomerEmail == email {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (m *mockOrders) MarkPaid(_ context.Context, id string) error {
	o, ok := m.orders[id]
	if !ok {
		return order.ErrNotFound
	}
	m.markPaidCalls++
	o.PaymentStatus = order.PaymentPaid
	return nil
}

func (m *mockOrders) SetTxRef(_ context.Context, id, txRef string) error {
	o, ok := m.orders[id]
	if !ok {
		return order.ErrNotFound
	}
	o.TxRef = txRef
	return nil
}

func (m *mockOrders) UpdateStatus(_ context.Context, id, status string) error {
	o, ok := m.orders[id]
	if !ok {
		return order.ErrNotFound
	}
	o.Status = status
	return nil
}

// mockGateway implements payment.Gateway.
type mockGateway struct {
	link         string
	createErr    error
	lastCheckout *payment.CheckoutRequest

	verification *payment.Verification
	verifyErr    error
	verifyCalls  int
}

func (g *mockGateway) CreateCheckout(_ context.Context, req payment.CheckoutRequest) (string, error) {
	cp := req
	g.lastCheckout = &cp
	if g.createErr != nil {
		return "", g.createErr
	}
	return g.link, nil
}

func (g *mockGateway) VerifyByID(_ context.Context, transactionID string) (*payment.Verification, error) {
	g.verifyCalls++
	if g.verifyErr != nil {
		return nil, g.verifyErr
	}
	if g.verification == nil {
		return nil, fmt.Errorf("%w: unknown transaction %s", payment.ErrGateway, transactionID)
	}
	cp := *g.verification
	return &cp, nil
}

func (g *mockGateway) VerifyByReference(ctx context.Context, txRef string) (*payment.Verification, error) {
	return g.VerifyByID(ctx, txRef)
}
