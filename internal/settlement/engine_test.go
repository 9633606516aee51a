package settlement

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bodega-pos/bodega/internal/cart"
	"github.com/bodega-pos/bodega/internal/catalog"
	"github.com/bodega-pos/bodega/internal/ledger"
)

type recordingHook struct {
	committed []*ledger.Transaction
}

func (h *recordingHook) SettlementCommitted(_ context.Context, tx *ledger.Transaction) {
	h.committed = append(h.committed, tx)
}

type fixture struct {
	catalog *catalog.Store
	ledger  *ledger.Store
	cart    *cart.Cart
	engine  *Engine
	hook    *recordingHook
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cat := catalog.NewStore()
	require.NoError(t, cat.Add(catalog.Product{ID: "p1", Name: "Arroz", Price: 2.5, Stock: 10}))
	require.NoError(t, cat.Add(catalog.Product{ID: "p2", Name: "Aceite", Price: 8.75, Stock: 3}))

	led := ledger.NewStore()
	require.NoError(t, led.AddClient(ledger.Client{ID: "c1", Name: "Maria", Balance: 50}))
	require.NoError(t, led.AddClient(ledger.Client{ID: "c2", Name: "Jose", Balance: 1}))
	require.NoError(t, led.AddPersonnel(ledger.Personnel{ID: "s1", Name: "Pedro"}))

	crt := cart.New(cat)
	hook := &recordingHook{}
	eng := NewEngine(cat, led, crt, nil, hook)
	eng.now = func() time.Time { return time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC) }
	ids := 0
	eng.newID = func() string {
		ids++
		return string(rune('a' + ids - 1))
	}
	return &fixture{catalog: cat, ledger: led, cart: crt, engine: eng, hook: hook}
}

func (f *fixture) fillCart(t *testing.T, productID string, qty int) {
	t.Helper()
	p, err := f.catalog.Get(productID)
	require.NoError(t, err)
	require.NoError(t, f.cart.Add(p, qty))
}

func TestSettleRequiresPayer(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t, "p1", 2)

	_, err := f.engine.Settle(context.Background())
	require.ErrorIs(t, err, ErrNoPayerSelected)

	// A selection pointing at a deleted payer counts as no payer.
	f.cart.Select(ledger.PayerRef{ID: "ghost", Type: ledger.PayerClient})
	_, err = f.engine.Settle(context.Background())
	require.ErrorIs(t, err, ErrNoPayerSelected)
}

func TestSettleRequiresLines(t *testing.T) {
	f := newFixture(t)
	f.cart.Select(ledger.PayerRef{ID: "c1", Type: ledger.PayerClient})

	_, err := f.engine.Settle(context.Background())
	require.ErrorIs(t, err, ErrEmptyCart)
}

func TestSettleClientHappyPath(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t, "p1", 4)
	f.fillCart(t, "p2", 1)
	f.cart.Select(ledger.PayerRef{ID: "c1", Type: ledger.PayerClient})

	receipt, err := f.engine.Settle(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Maria", receipt.PayerName)
	require.Equal(t, ledger.PayerClient, receipt.PayerType)
	require.Equal(t, 18.75, receipt.Transaction.Total)
	require.Equal(t, 31.25, receipt.Balance)
	require.Len(t, receipt.Transaction.Lines, 2)

	p1, _ := f.catalog.Get("p1")
	p2, _ := f.catalog.Get("p2")
	require.Equal(t, 6, p1.Stock)
	require.Equal(t, 2, p2.Stock)

	c, _ := f.ledger.GetClient("c1")
	require.Equal(t, 31.25, c.Balance)
	require.Len(t, c.History, 1)
	require.Len(t, f.ledger.Transactions(), 1)

	// The cart is ready for the next sale.
	require.Zero(t, f.cart.Len())
	_, selected := f.cart.Selection()
	require.False(t, selected)

	stats := f.ledger.Statistics()
	require.Len(t, stats, 1)
	require.Equal(t, ledger.StatPurchase, stats[0].Category)
	require.Equal(t, "Venta a Maria por $18.75", stats[0].Details)

	require.Len(t, f.hook.committed, 1)
	require.Equal(t, receipt.Transaction.ID, f.hook.committed[0].ID)
}

func TestSettlePersonnelAccruesDebt(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t, "p2", 2)
	f.cart.Select(ledger.PayerRef{ID: "s1", Type: ledger.PayerPersonnel})

	receipt, err := f.engine.Settle(context.Background())
	require.NoError(t, err)
	require.Equal(t, 17.5, receipt.Balance)

	p, _ := f.ledger.GetPersonnel("s1")
	require.Equal(t, 17.5, p.OwedBalance)

	stats := f.ledger.Statistics()
	require.Len(t, stats, 1)
	require.Equal(t, "Venta a personal Pedro por $17.50", stats[0].Details)
}

func TestSettleInsufficientFundsChangesNothing(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t, "p1", 2)
	f.cart.Select(ledger.PayerRef{ID: "c2", Type: ledger.PayerClient})

	for i := 0; i < 2; i++ {
		_, err := f.engine.Settle(context.Background())
		require.ErrorIs(t, err, ledger.ErrInsufficientFunds)
	}

	p1, _ := f.catalog.Get("p1")
	require.Equal(t, 10, p1.Stock)
	c, _ := f.ledger.GetClient("c2")
	require.Equal(t, 1.0, c.Balance)
	require.Empty(t, f.ledger.Transactions())
	require.Empty(t, f.ledger.Statistics())
	require.Empty(t, f.hook.committed)

	// The sale stays intact for the cashier to fix.
	require.Equal(t, 1, f.cart.Len())
	_, selected := f.cart.Selection()
	require.True(t, selected)
}

func TestSettleRechecksStock(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t, "p2", 3)
	f.cart.Select(ledger.PayerRef{ID: "c1", Type: ledger.PayerClient})

	// Stock changed between building the cart and checking out.
	require.NoError(t, f.catalog.Update(catalog.Product{ID: "p2", Name: "Aceite", Price: 8.75, Stock: 1}))

	_, err := f.engine.Settle(context.Background())
	require.ErrorIs(t, err, catalog.ErrStockExceeded)

	c, _ := f.ledger.GetClient("c1")
	require.Equal(t, 50.0, c.Balance)
	require.Empty(t, f.ledger.Transactions())
	require.Equal(t, 1, f.cart.Len())
}
