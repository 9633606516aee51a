package stats

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/bodega-pos/bodega/internal/ledger"
)

// TypeFilter narrows a report to one payer type.
type TypeFilter string

const (
	FilterAll       TypeFilter = "all"
	FilterClient    TypeFilter = "client"
	FilterPersonnel TypeFilter = "personnel"
)

// TransactionSource supplies the transaction log to report over. The ledger
// store satisfies it; the warmup job feeds a snapshot-backed source instead.
type TransactionSource interface {
	Transactions() []ledger.Transaction
}

// Summary is the aggregation over a filtered window of the transaction log.
type Summary struct {
	From         time.Time            `json:"from"`
	To           time.Time            `json:"to"`
	Filter       TypeFilter           `json:"filter"`
	Transactions []ledger.Transaction `json:"transactions"`
	Count        int                  `json:"count"`
	Total        float64              `json:"total"`
}

// Service is the read side over the transaction log. It never mutates
// domain state; its only write is the report cache.
type Service struct {
	source TransactionSource
	cache  *Cache
	logger *slog.Logger
}

// NewService builds the reporting service.
func NewService(source TransactionSource, cache *Cache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{source: source, cache: cache, logger: logger}
}

// DayRange widens [from, to] to full days so both boundary days are included.
func DayRange(from, to time.Time) (time.Time, time.Time) {
	start := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, from.Location())
	end := time.Date(to.Year(), to.Month(), to.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), to.Location())
	return start, end
}

// SummaryKeyParts names the cache entry for one summary window.
func SummaryKeyParts(from, to time.Time, filter TypeFilter) []string {
	return []string{"stats", "summary", from.Format("2006-01-02"), to.Format("2006-01-02"), string(filter)}
}

// Compute filters the log by inclusive day range and payer type, sorts
// descending by date and sums the totals.
func Compute(txs []ledger.Transaction, from, to time.Time, filter TypeFilter) Summary {
	start, end := DayRange(from, to)
	filtered := make([]ledger.Transaction, 0, len(txs))
	var total float64
	for _, tx := range txs {
		if tx.Date.Before(start) || tx.Date.After(end) {
			continue
		}
		switch filter {
		case FilterClient:
			if tx.PayerType != ledger.PayerClient {
				continue
			}
		case FilterPersonnel:
			if tx.PayerType != ledger.PayerPersonnel {
				continue
			}
		}
		filtered = append(filtered, tx)
		total += tx.Total
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Date.After(filtered[j].Date)
	})
	return Summary{
		From:         start,
		To:           end,
		Filter:       filter,
		Transactions: filtered,
		Count:        len(filtered),
		Total:        math.Round(total*100) / 100,
	}
}

// Summary aggregates the transaction log over the given window, serving from
// the cache when a fresh entry exists.
func (s *Service) Summary(ctx context.Context, from, to time.Time, filter TypeFilter) (Summary, error) {
	if filter == "" {
		filter = FilterAll
	}
	key, err := s.cache.BuildKey(ctx, SummaryKeyParts(from, to, filter)...)
	if err != nil {
		// A broken cache must not take reporting down.
		s.logger.Warn("stats cache unavailable", slog.Any("error", err))
		return Compute(s.source.Transactions(), from, to, filter), nil
	}
	var out Summary
	err = s.cache.FetchJSON(ctx, key, &out, func(context.Context) (interface{}, error) {
		return Compute(s.source.Transactions(), from, to, filter), nil
	})
	if err != nil {
		return Summary{}, fmt.Errorf("stats: summary: %w", err)
	}
	return out, nil
}

// SettlementCommitted invalidates cached summaries after each sale.
func (s *Service) SettlementCommitted(ctx context.Context, _ *ledger.Transaction) {
	if err := s.cache.Bump(ctx); err != nil {
		s.logger.Warn("stats cache bump failed", slog.Any("error", err))
	}
}
