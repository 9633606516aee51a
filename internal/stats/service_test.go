package stats

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/bodega-pos/bodega/internal/ledger"
)

type stubSource struct {
	txs   []ledger.Transaction
	calls int
}

func (s *stubSource) Transactions() []ledger.Transaction {
	s.calls++
	return s.txs
}

func tx(id string, date time.Time, payerType ledger.PayerType, total float64) ledger.Transaction {
	return ledger.Transaction{ID: id, Date: date, PayerType: payerType, Total: total}
}

func sampleLog() []ledger.Transaction {
	return []ledger.Transaction{
		tx("t1", time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC), ledger.PayerClient, 10),
		tx("t2", time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC), ledger.PayerPersonnel, 20),
		tx("t3", time.Date(2026, 3, 10, 23, 59, 59, 0, time.UTC), ledger.PayerClient, 5.55),
		tx("t4", time.Date(2026, 4, 2, 8, 0, 0, 0, time.UTC), ledger.PayerClient, 100),
	}
}

func TestComputeFiltersInclusiveDays(t *testing.T) {
	from := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	// Both boundary days count in full, whatever the time of day given.
	sum := Compute(sampleLog(), from, to, FilterAll)
	require.Equal(t, 3, sum.Count)
	require.Equal(t, 35.55, sum.Total)
}

func TestComputeFiltersPayerType(t *testing.T) {
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)

	clients := Compute(sampleLog(), from, to, FilterClient)
	require.Equal(t, 2, clients.Count)
	require.Equal(t, 15.55, clients.Total)

	personnel := Compute(sampleLog(), from, to, FilterPersonnel)
	require.Equal(t, 1, personnel.Count)
	require.Equal(t, 20.0, personnel.Total)
}

func TestComputeSortsNewestFirst(t *testing.T) {
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC)

	sum := Compute(sampleLog(), from, to, FilterAll)
	require.Len(t, sum.Transactions, 4)
	require.Equal(t, "t4", sum.Transactions[0].ID)
	require.Equal(t, "t1", sum.Transactions[3].ID)
}

func newTestService(t *testing.T, source TransactionSource) *Service {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewService(source, NewCache(client, time.Minute), nil)
}

func TestSummaryCachesUntilBumped(t *testing.T) {
	source := &stubSource{txs: sampleLog()}
	svc := newTestService(t, source)
	ctx := context.Background()

	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)

	sum, err := svc.Summary(ctx, from, to, FilterAll)
	require.NoError(t, err)
	require.Equal(t, 3, sum.Count)
	require.Equal(t, 1, source.calls)

	// Second read hits the cache.
	_, err = svc.Summary(ctx, from, to, FilterAll)
	require.NoError(t, err)
	require.Equal(t, 1, source.calls)

	// A committed sale invalidates every cached window.
	source.txs = append(source.txs, tx("t5", time.Date(2026, 3, 20, 12, 0, 0, 0, time.UTC), ledger.PayerClient, 7))
	svc.SettlementCommitted(ctx, nil)

	sum, err = svc.Summary(ctx, from, to, FilterAll)
	require.NoError(t, err)
	require.Equal(t, 4, sum.Count)
	require.Equal(t, 2, source.calls)
}

func TestSummaryDegradesWithoutRedis(t *testing.T) {
	source := &stubSource{txs: sampleLog()}
	svc := NewService(source, NewCache(nil, time.Minute), nil)

	sum, err := svc.Summary(context.Background(),
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
		FilterAll)
	require.NoError(t, err)
	require.Equal(t, 3, sum.Count)
}
