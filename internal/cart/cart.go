package cart

import (
	"errors"
	"math"
	"sync"

	"github.com/bodega-pos/bodega/internal/catalog"
	"github.com/bodega-pos/bodega/internal/ledger"
)

var (
	// ErrInvalidQuantity indicates a non-positive quantity on Add.
	ErrInvalidQuantity = errors.New("cart: quantity must be positive")
	// ErrNotInCart indicates the product has no line in the cart.
	ErrNotInCart = errors.New("cart: product not in cart")
)

// Line is one prospective sale item. Price is captured from the product at
// add time so a catalog price change cannot alter a sale in progress.
type Line struct {
	Product  catalog.Product `json:"product"`
	Quantity int             `json:"quantity"`
}

// Cart accumulates lines and the payer selection for the sale in progress.
// Quantity updates are capped by the live catalog stock; the final check
// belongs to settlement.
type Cart struct {
	mu        sync.RWMutex
	catalog   *catalog.Store
	lines     []*Line
	index     map[string]*Line
	selection *ledger.PayerRef
}

// New returns an empty cart backed by the given catalog.
func New(cat *catalog.Store) *Cart {
	return &Cart{catalog: cat, index: make(map[string]*Line)}
}

// Add puts quantity units of the product in the cart. Quantities accumulate
// when the product already has a line.
func (c *Cart) Add(p catalog.Product, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if line, ok := c.index[p.ID]; ok {
		line.Quantity += quantity
		return nil
	}
	line := &Line{Product: p, Quantity: quantity}
	c.lines = append(c.lines, line)
	c.index[p.ID] = line
	return nil
}

// SetQuantity replaces a line quantity. A quantity of zero or less removes
// the line; a quantity above the current catalog stock is rejected and the
// line keeps its previous value.
func (c *Cart) SetQuantity(productID string, quantity int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	line, ok := c.index[productID]
	if !ok {
		return ErrNotInCart
	}
	if quantity <= 0 {
		c.removeLocked(productID)
		return nil
	}
	p, err := c.catalog.Get(productID)
	if err != nil {
		return err
	}
	if quantity > p.Stock {
		return catalog.ErrStockExceeded
	}
	line.Quantity = quantity
	return nil
}

// Remove deletes the line for the given product.
func (c *Cart) Remove(productID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.index[productID]; !ok {
		return ErrNotInCart
	}
	c.removeLocked(productID)
	return nil
}

func (c *Cart) removeLocked(productID string) {
	delete(c.index, productID)
	for i, line := range c.lines {
		if line.Product.ID == productID {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			break
		}
	}
}

// Clear drops every line but keeps the payer selection.
func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = nil
	c.index = make(map[string]*Line)
}

// Reset drops the lines and the payer selection, starting a new sale.
func (c *Cart) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = nil
	c.index = make(map[string]*Line)
	c.selection = nil
}

// Items returns a copy of the cart lines in insertion order.
func (c *Cart) Items() []Line {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Line, 0, len(c.lines))
	for _, line := range c.lines {
		out = append(out, *line)
	}
	return out
}

// Len reports the number of lines.
func (c *Cart) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.lines)
}

// Total recomputes the cart amount from the captured line prices.
func (c *Cart) Total() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var total float64
	for _, line := range c.lines {
		total += line.Product.Price * float64(line.Quantity)
	}
	return math.Round(total*100) / 100
}

// Select chooses the payer for the sale in progress.
func (c *Cart) Select(ref ledger.PayerRef) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := ref
	c.selection = &cp
}

// ClearSelection drops the payer selection.
func (c *Cart) ClearSelection() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selection = nil
}

// Selection returns the selected payer, if any.
func (c *Cart) Selection() (ledger.PayerRef, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.selection == nil {
		return ledger.PayerRef{}, false
	}
	return *c.selection, true
}

// State is the persistable view of the cart.
type State struct {
	Lines     []Line           `json:"lines"`
	Selection *ledger.PayerRef `json:"selection,omitempty"`
}

// Snapshot copies the cart lines and selection for persistence.
func (c *Cart) Snapshot() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	st := State{Lines: make([]Line, 0, len(c.lines))}
	for _, line := range c.lines {
		st.Lines = append(st.Lines, *line)
	}
	if c.selection != nil {
		cp := *c.selection
		st.Selection = &cp
	}
	return st
}

// Restore replaces the cart contents with the given state.
func (c *Cart) Restore(st State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = make([]*Line, 0, len(st.Lines))
	c.index = make(map[string]*Line, len(st.Lines))
	for _, line := range st.Lines {
		cp := line
		c.lines = append(c.lines, &cp)
		c.index[cp.Product.ID] = &cp
	}
	c.selection = nil
	if st.Selection != nil {
		cp := *st.Selection
		c.selection = &cp
	}
}
