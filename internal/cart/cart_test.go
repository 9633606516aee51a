package cart

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bodega-pos/bodega/internal/catalog"
	"github.com/bodega-pos/bodega/internal/ledger"
)

func testCart(t *testing.T) (*catalog.Store, *Cart) {
	t.Helper()
	cat := catalog.NewStore()
	require.NoError(t, cat.Add(catalog.Product{ID: "p1", Name: "Arroz", Price: 2.5, Stock: 10}))
	require.NoError(t, cat.Add(catalog.Product{ID: "p2", Name: "Aceite", Price: 8.75, Stock: 3}))
	return cat, New(cat)
}

func TestAddAccumulatesQuantity(t *testing.T) {
	cat, c := testCart(t)
	p1, _ := cat.Get("p1")

	require.NoError(t, c.Add(p1, 2))
	require.NoError(t, c.Add(p1, 3))

	items := c.Items()
	require.Len(t, items, 1)
	require.Equal(t, 5, items[0].Quantity)

	require.ErrorIs(t, c.Add(p1, 0), ErrInvalidQuantity)
}

func TestTotalUsesCapturedPrices(t *testing.T) {
	cat, c := testCart(t)
	p1, _ := cat.Get("p1")
	require.NoError(t, c.Add(p1, 4))
	require.Equal(t, 10.0, c.Total())

	// A later catalog price change must not alter the sale in progress.
	require.NoError(t, cat.Update(catalog.Product{ID: "p1", Name: "Arroz", Price: 100, Stock: 10}))
	require.Equal(t, 10.0, c.Total())
}

func TestSetQuantityCapsAtLiveStock(t *testing.T) {
	cat, c := testCart(t)
	p2, _ := cat.Get("p2")
	require.NoError(t, c.Add(p2, 2))

	require.ErrorIs(t, c.SetQuantity("p2", 4), catalog.ErrStockExceeded)
	require.Equal(t, 2, c.Items()[0].Quantity)

	require.NoError(t, c.SetQuantity("p2", 3))
	require.Equal(t, 3, c.Items()[0].Quantity)

	// Stock dropped under the cart after the line was built.
	require.NoError(t, cat.Update(catalog.Product{ID: "p2", Name: "Aceite", Price: 8.75, Stock: 1}))
	require.ErrorIs(t, c.SetQuantity("p2", 2), catalog.ErrStockExceeded)
	require.Equal(t, 3, c.Items()[0].Quantity)
}

func TestSetQuantityZeroRemovesLine(t *testing.T) {
	cat, c := testCart(t)
	p1, _ := cat.Get("p1")
	require.NoError(t, c.Add(p1, 2))

	require.NoError(t, c.SetQuantity("p1", 0))
	require.Zero(t, c.Len())

	require.ErrorIs(t, c.SetQuantity("p1", 1), ErrNotInCart)
	require.ErrorIs(t, c.Remove("p1"), ErrNotInCart)
}

func TestClearKeepsSelectionResetDropsIt(t *testing.T) {
	cat, c := testCart(t)
	p1, _ := cat.Get("p1")
	require.NoError(t, c.Add(p1, 1))
	c.Select(ledger.PayerRef{ID: "c1", Type: ledger.PayerClient})

	c.Clear()
	require.Zero(t, c.Len())
	_, ok := c.Selection()
	require.True(t, ok)

	require.NoError(t, c.Add(p1, 1))
	c.Reset()
	require.Zero(t, c.Len())
	_, ok = c.Selection()
	require.False(t, ok)
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	cat, c := testCart(t)
	p1, _ := cat.Get("p1")
	p2, _ := cat.Get("p2")
	require.NoError(t, c.Add(p1, 2))
	require.NoError(t, c.Add(p2, 1))
	c.Select(ledger.PayerRef{ID: "s1", Type: ledger.PayerPersonnel})

	st := c.Snapshot()

	fresh := New(cat)
	fresh.Restore(st)

	require.Equal(t, c.Items(), fresh.Items())
	require.Equal(t, c.Total(), fresh.Total())
	sel, ok := fresh.Selection()
	require.True(t, ok)
	require.Equal(t, ledger.PayerRef{ID: "s1", Type: ledger.PayerPersonnel}, sel)
}
