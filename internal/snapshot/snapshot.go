// Package snapshot persists the full application state after every
// transition and restores it at startup. The in-memory stores remain the
// source of truth for the running session; a failed write is surfaced as a
// warning, never rolled back into the stores.
package snapshot

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/bodega-pos/bodega/internal/cart"
	"github.com/bodega-pos/bodega/internal/catalog"
	"github.com/bodega-pos/bodega/internal/ledger"
)

// ErrNoSnapshot indicates no snapshot has been saved yet.
var ErrNoSnapshot = errors.New("snapshot: none stored")

// Snapshot aggregates every collection the stores own, plus the cart in
// progress and the admin secret hash. JSON encoding round-trips losslessly
// with list order preserved.
type Snapshot struct {
	Products        []catalog.Product    `json:"products"`
	Clients         []ledger.Client      `json:"clients"`
	Personnel       []ledger.Personnel   `json:"personnel"`
	Transactions    []ledger.Transaction `json:"transactions"`
	Statistics      []ledger.Statistic   `json:"statistics"`
	Cart            []cart.Line          `json:"cart"`
	Selection       *ledger.PayerRef     `json:"selection,omitempty"`
	AdminSecretHash string               `json:"admin_secret_hash,omitempty"`
}

// Persister stores and retrieves snapshots.
type Persister interface {
	Save(ctx context.Context, snap Snapshot) error
	Load(ctx context.Context) (Snapshot, error)
}

// SecretVault exposes the admin secret hash kept inside application state.
type SecretVault interface {
	Hash() string
	SetHash(hash string)
}

// Writer captures store state and pushes it through a Persister. It is the
// post-transition hook: services call Persist after each mutation and the
// settlement engine calls it through SettlementCommitted.
type Writer struct {
	persister Persister
	catalog   *catalog.Store
	ledger    *ledger.Store
	cart      *cart.Cart
	vault     SecretVault
	logger    *slog.Logger
}

// NewWriter builds a Writer over the given stores.
func NewWriter(p Persister, cat *catalog.Store, led *ledger.Store, crt *cart.Cart, vault SecretVault, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{persister: p, catalog: cat, ledger: led, cart: crt, vault: vault, logger: logger}
}

// Capture assembles a snapshot from the live stores.
func (w *Writer) Capture() Snapshot {
	st := w.ledger.Snapshot()
	cs := w.cart.Snapshot()
	snap := Snapshot{
		Products:     w.catalog.Snapshot(),
		Clients:      st.Clients,
		Personnel:    st.Personnel,
		Transactions: st.Transactions,
		Statistics:   st.Statistics,
		Cart:         cs.Lines,
		Selection:    cs.Selection,
	}
	if w.vault != nil {
		snap.AdminSecretHash = w.vault.Hash()
	}
	return snap
}

// Persist saves the current state. A write failure keeps the in-memory state
// authoritative and logs a warning; settlement effects already visible to the
// operator are never rolled back.
func (w *Writer) Persist(ctx context.Context) {
	if w.persister == nil {
		return
	}
	if err := w.persister.Save(ctx, w.Capture()); err != nil {
		w.logger.Warn("snapshot write failed, in-memory state stays authoritative", slog.Any("error", err))
	}
}

// SettlementCommitted implements the settlement commit hook.
func (w *Writer) SettlementCommitted(ctx context.Context, _ *ledger.Transaction) {
	w.Persist(ctx)
}

// RestoreLatest loads the newest snapshot into the stores. A missing
// snapshot is not an error: the stores start empty.
func (w *Writer) RestoreLatest(ctx context.Context) error {
	if w.persister == nil {
		return nil
	}
	snap, err := w.persister.Load(ctx)
	if err != nil {
		if errors.Is(err, ErrNoSnapshot) {
			return nil
		}
		return err
	}
	w.catalog.Restore(snap.Products)
	w.ledger.Restore(ledger.State{
		Clients:      snap.Clients,
		Personnel:    snap.Personnel,
		Transactions: snap.Transactions,
		Statistics:   snap.Statistics,
	})
	w.cart.Restore(cart.State{Lines: snap.Cart, Selection: snap.Selection})
	if w.vault != nil && snap.AdminSecretHash != "" {
		w.vault.SetHash(snap.AdminSecretHash)
	}
	return nil
}

// RunPeriodic saves on an interval as a backstop for transitions that have no
// explicit hook. Blocks until the context is cancelled.
func (w *Writer) RunPeriodic(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			// Final flush on the way out.
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			w.Persist(flushCtx)
			cancel()
			return ctx.Err()
		case <-ticker.C:
			w.Persist(ctx)
		}
	}
}
