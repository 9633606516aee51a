package admin

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bodega-pos/bodega/internal/catalog"
	"github.com/bodega-pos/bodega/internal/ledger"
)

func TestProductsCSVRoundTrip(t *testing.T) {
	products := []catalog.Product{
		{ID: "p1", Name: "Arroz", Price: 2.5, Stock: 10, ImageURL: "http://img/arroz.png"},
		{ID: "p2", Name: "Aceite, extra", Price: 8.75, Stock: 3},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteProductsCSV(&buf, products))

	inputs, skipped, err := ParseProductsCSV(&buf)
	require.NoError(t, err)
	require.Zero(t, skipped)
	require.Len(t, inputs, 2)
	require.Equal(t, ProductInput{Name: "Arroz", Price: 2.5, Stock: 10, ImageURL: "http://img/arroz.png"}, inputs[0])
	require.Equal(t, ProductInput{Name: "Aceite, extra", Price: 8.75, Stock: 3}, inputs[1])
}

func TestParseProductsCSVAcceptsStockHeaderVariants(t *testing.T) {
	in := strings.NewReader("NOMBRE DEL PRODUCTO,PRECIO,STOCK\nArroz,2.5,7\n")
	inputs, _, err := ParseProductsCSV(in)
	require.NoError(t, err)
	require.Len(t, inputs, 1)
	require.Equal(t, 7, inputs[0].Stock)
}

func TestParseClientsCSVDecimalCommaAndDefaults(t *testing.T) {
	in := strings.NewReader("NOMBRE DEL CLIENTE,SALDO DISPONIBLE\nMaria,\"12,50\"\nJose,\nAna,no-es-numero\n")
	inputs, skipped, err := ParseClientsCSV(in)
	require.NoError(t, err)
	require.Zero(t, skipped)
	require.Len(t, inputs, 3)
	require.Equal(t, 12.5, inputs[0].Balance)
	require.Equal(t, 0.0, inputs[1].Balance)
	require.Equal(t, 0.0, inputs[2].Balance)
}

func TestParsePersonnelCSVFallsBackToClientHeader(t *testing.T) {
	in := strings.NewReader("NOMBRE DEL CLIENTE,SALDO ADEUDADO\nPedro,3.25\n")
	inputs, _, err := ParsePersonnelCSV(in)
	require.NoError(t, err)
	require.Len(t, inputs, 1)
	require.Equal(t, PersonnelInput{Name: "Pedro", OwedBalance: 3.25}, inputs[0])
}

func TestParseClientsCSVSkipsMalformedRows(t *testing.T) {
	in := strings.NewReader("NOMBRE DEL CLIENTE,SALDO DISPONIBLE\nMaria,50\nJo\"se,10\nAna,5\n")
	inputs, skipped, err := ParseClientsCSV(in)
	require.NoError(t, err)
	require.Equal(t, 1, skipped)
	require.Equal(t, []ClientInput{
		{Name: "Maria", Balance: 50},
		{Name: "Ana", Balance: 5},
	}, inputs)
}

func TestParseRejectsEmptyFile(t *testing.T) {
	_, _, err := ParseProductsCSV(strings.NewReader(""))
	require.ErrorIs(t, err, ErrImportRow)
}

func TestWriteTransactionsCSV(t *testing.T) {
	txs := []ledger.Transaction{
		{
			ID:        "t1",
			Date:      time.Date(2026, 3, 14, 16, 45, 0, 0, time.UTC),
			PayerName: "Maria",
			PayerType: ledger.PayerClient,
			Lines: []ledger.TransactionLine{
				{Name: "Arroz", Quantity: 4},
				{Name: "Aceite", Quantity: 1},
			},
			Total: 18.75,
		},
		{
			ID:        "t2",
			Date:      time.Date(2026, 3, 15, 9, 5, 0, 0, time.UTC),
			PayerName: "Pedro",
			PayerType: ledger.PayerPersonnel,
			Lines:     []ledger.TransactionLine{{Name: "Arroz", Quantity: 1}},
			Total:     2.5,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteTransactionsCSV(&buf, txs))

	out := buf.String()
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	require.Equal(t, "FECHA,CLIENTE,TIPO,PRODUCTOS,TOTAL", lines[0])
	require.Contains(t, lines[1], "14/03/2026 16:45")
	require.Contains(t, lines[1], "Cliente")
	require.Contains(t, lines[1], "Arroz (4), Aceite (1)")
	require.Contains(t, lines[1], "18,75")
	require.Contains(t, lines[2], "Personal")
}

func TestClientsCSVRoundTrip(t *testing.T) {
	clients := []ledger.Client{
		{ID: "c1", Name: "Maria", Balance: 50},
		{ID: "c2", Name: "Jose", Balance: 12.34},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteClientsCSV(&buf, clients))

	inputs, _, err := ParseClientsCSV(&buf)
	require.NoError(t, err)
	require.Equal(t, []ClientInput{
		{Name: "Maria", Balance: 50},
		{Name: "Jose", Balance: 12.34},
	}, inputs)
}
