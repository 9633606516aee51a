package settlement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bodega-pos/bodega/internal/cart"
	"github.com/bodega-pos/bodega/internal/catalog"
	"github.com/bodega-pos/bodega/internal/ledger"
)

var (
	// ErrNoPayerSelected indicates no (or no existing) payer is selected.
	ErrNoPayerSelected = errors.New("settlement: no payer selected")
	// ErrEmptyCart indicates the cart has no lines.
	ErrEmptyCart = errors.New("settlement: cart is empty")
)

// CommitHook runs after a settlement commits, outside the failure paths.
// Used for persistence and cache invalidation.
type CommitHook interface {
	SettlementCommitted(ctx context.Context, tx *ledger.Transaction)
}

// Receipt is returned on success so the caller can confirm the sale with the
// payer name and the resulting balance or debt.
type Receipt struct {
	Transaction *ledger.Transaction `json:"transaction"`
	PayerName   string              `json:"payer_name"`
	PayerType   ledger.PayerType    `json:"payer_type"`
	Balance     float64             `json:"balance"`
}

// Engine turns a cart plus a selected payer into a committed sale, or rejects
// it wholesale. A single mutex serializes settlements so two sales can never
// interleave their check and their effects.
type Engine struct {
	mu      sync.Mutex
	catalog *catalog.Store
	ledger  *ledger.Store
	cart    *cart.Cart
	hooks   []CommitHook
	logger  *slog.Logger
	now     func() time.Time
	newID   func() string
}

// NewEngine builds the settlement engine.
func NewEngine(cat *catalog.Store, led *ledger.Store, crt *cart.Cart, logger *slog.Logger, hooks ...CommitHook) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		catalog: cat,
		ledger:  led,
		cart:    crt,
		hooks:   hooks,
		logger:  logger,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// Settle validates and executes the sale in progress. Preconditions are
// checked in a fixed order (payer, cart, funds, stock) and any failure leaves
// every store untouched.
func (e *Engine) Settle(ctx context.Context) (*Receipt, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ref, ok := e.cart.Selection()
	if !ok {
		return nil, ErrNoPayerSelected
	}
	name, balance, err := e.ledger.PayerInfo(ref)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return nil, ErrNoPayerSelected
		}
		return nil, fmt.Errorf("settlement: resolve payer: %w", err)
	}

	items := e.cart.Items()
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}
	total := e.cart.Total()

	if ref.Type == ledger.PayerClient && balance < total {
		return nil, ledger.ErrInsufficientFunds
	}

	deductions := make([]catalog.Deduction, 0, len(items))
	lines := make([]ledger.TransactionLine, 0, len(items))
	for _, item := range items {
		deductions = append(deductions, catalog.Deduction{ProductID: item.Product.ID, Quantity: item.Quantity})
		lines = append(lines, ledger.TransactionLine{
			ProductID: item.Product.ID,
			Name:      item.Product.Name,
			UnitPrice: item.Product.Price,
			Quantity:  item.Quantity,
		})
	}

	// Final stock check and decrement in one step. A stale cart built before
	// a stock change fails here instead of driving stock negative.
	if err := e.catalog.Deduct(deductions); err != nil {
		return nil, err
	}

	tx := &ledger.Transaction{
		ID:        e.newID(),
		Date:      e.now(),
		PayerID:   ref.ID,
		PayerName: name,
		PayerType: ref.Type,
		Lines:     lines,
		Total:     total,
	}

	newBalance, err := e.ledger.ApplyCharge(ref, tx)
	if err != nil {
		e.catalog.Restock(deductions)
		return nil, fmt.Errorf("settlement: apply charge: %w", err)
	}

	details := fmt.Sprintf("Venta a %s por $%.2f", name, total)
	if ref.Type == ledger.PayerPersonnel {
		details = fmt.Sprintf("Venta a personal %s por $%.2f", name, total)
	}
	e.ledger.AppendStatistic(ledger.Statistic{
		ID:       e.newID(),
		Date:     tx.Date,
		Category: ledger.StatPurchase,
		Details:  details,
	})

	e.cart.Reset()

	e.logger.Info("sale settled",
		slog.String("transaction_id", tx.ID),
		slog.String("payer", name),
		slog.String("payer_type", string(ref.Type)),
		slog.Float64("total", total),
	)

	for _, hook := range e.hooks {
		hook.SettlementCommitted(ctx, tx)
	}
	return &Receipt{Transaction: tx, PayerName: name, PayerType: ref.Type, Balance: newBalance}, nil
}
