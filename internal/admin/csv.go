package admin

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/bodega-pos/bodega/internal/catalog"
	"github.com/bodega-pos/bodega/internal/ledger"
)

// ErrImportRow indicates a row that could not be read as a record. Imports
// are best-effort: bad rows are skipped and counted, never aborting the batch.
var ErrImportRow = errors.New("admin: invalid import row")

// Column headers mirror the sheets the back office exchanges.
const (
	colProductName = "NOMBRE DEL PRODUCTO"
	colPrice       = "PRECIO"
	colStock       = "STOCK"
	colUnits       = "UNIDADES DISPONIBLES"
	colImageURL    = "URL DE LA IMAGEN"
	colClientName  = "NOMBRE DEL CLIENTE"
	colBalance     = "SALDO DISPONIBLE"
	colStaffName   = "NOMBRE DEL PERSONAL"
	colOwed        = "SALDO ADEUDADO"
)

// esPrinter localises amounts on transaction exports.
var esPrinter = message.NewPrinter(language.Spanish)

type headerIndex map[string]int

// readTable reads the header and then one row at a time. Rows the csv reader
// cannot parse are counted as skipped, not fatal: a bad row must never lose
// the rest of the batch.
func readTable(r io.Reader) (headerIndex, [][]string, int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err != nil {
		return nil, nil, 0, fmt.Errorf("%w: empty file", ErrImportRow)
	}
	idx := make(headerIndex, len(header))
	for i, name := range header {
		idx[strings.ToUpper(strings.TrimSpace(name))] = i
	}
	var rows [][]string
	skipped := 0
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				skipped++
				continue
			}
			return nil, nil, 0, fmt.Errorf("%w: %v", ErrImportRow, err)
		}
		rows = append(rows, row)
	}
	return idx, rows, skipped, nil
}

func (h headerIndex) text(row []string, cols ...string) string {
	for _, col := range cols {
		if i, ok := h[col]; ok && i < len(row) {
			return strings.TrimSpace(row[i])
		}
	}
	return ""
}

// number coerces a cell to a float, defaulting to 0 on absent or malformed
// values. Decimal commas are accepted.
func (h headerIndex) number(row []string, cols ...string) float64 {
	raw := h.text(row, cols...)
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		v, err = strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64)
		if err != nil {
			return 0
		}
	}
	return v
}

// ParseProductsCSV reads product rows, defaulting absent numerics to 0 and
// absent strings to empty. Returns the records and the count of skipped rows.
func ParseProductsCSV(r io.Reader) ([]ProductInput, int, error) {
	idx, rows, skipped, err := readTable(r)
	if err != nil {
		return nil, 0, err
	}
	inputs := make([]ProductInput, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			skipped++
			continue
		}
		inputs = append(inputs, ProductInput{
			Name:     idx.text(row, colProductName),
			Price:    idx.number(row, colPrice),
			Stock:    int(idx.number(row, colStock, colUnits)),
			ImageURL: idx.text(row, colImageURL),
		})
	}
	return inputs, skipped, nil
}

// ParseClientsCSV reads client rows.
func ParseClientsCSV(r io.Reader) ([]ClientInput, int, error) {
	idx, rows, skipped, err := readTable(r)
	if err != nil {
		return nil, 0, err
	}
	inputs := make([]ClientInput, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			skipped++
			continue
		}
		inputs = append(inputs, ClientInput{
			Name:    idx.text(row, colClientName),
			Balance: idx.number(row, colBalance),
		})
	}
	return inputs, skipped, nil
}

// ParsePersonnelCSV reads personnel rows. The staff name column falls back to
// the client header because exchanged sheets use either.
func ParsePersonnelCSV(r io.Reader) ([]PersonnelInput, int, error) {
	idx, rows, skipped, err := readTable(r)
	if err != nil {
		return nil, 0, err
	}
	inputs := make([]PersonnelInput, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			skipped++
			continue
		}
		inputs = append(inputs, PersonnelInput{
			Name:        idx.text(row, colStaffName, colClientName),
			OwedBalance: idx.number(row, colOwed),
		})
	}
	return inputs, skipped, nil
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// WriteProductsCSV serialises the catalog with re-importable headers.
func WriteProductsCSV(w io.Writer, products []catalog.Product) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{colProductName, colPrice, colUnits, colImageURL}); err != nil {
		return err
	}
	for _, p := range products {
		if err := cw.Write([]string{p.Name, formatAmount(p.Price), strconv.Itoa(p.Stock), p.ImageURL}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteClientsCSV serialises the client ledger.
func WriteClientsCSV(w io.Writer, clients []ledger.Client) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{colClientName, colBalance}); err != nil {
		return err
	}
	for _, c := range clients {
		if err := cw.Write([]string{c.Name, formatAmount(c.Balance)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WritePersonnelCSV serialises the personnel ledger.
func WritePersonnelCSV(w io.Writer, personnel []ledger.Personnel) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{colStaffName, colOwed}); err != nil {
		return err
	}
	for _, p := range personnel {
		if err := cw.Write([]string{p.Name, formatAmount(p.OwedBalance)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteTransactionsCSV serialises the sales log for the back office. The
// product column lists "name (qty)" pairs; amounts use Spanish formatting.
func WriteTransactionsCSV(w io.Writer, txs []ledger.Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"FECHA", "CLIENTE", "TIPO", "PRODUCTOS", "TOTAL"}); err != nil {
		return err
	}
	for _, tx := range txs {
		kind := "Cliente"
		if tx.PayerType == ledger.PayerPersonnel {
			kind = "Personal"
		}
		parts := make([]string, 0, len(tx.Lines))
		for _, line := range tx.Lines {
			parts = append(parts, fmt.Sprintf("%s (%d)", line.Name, line.Quantity))
		}
		row := []string{
			tx.Date.Format("02/01/2006 15:04"),
			tx.PayerName,
			kind,
			strings.Join(parts, ", "),
			esPrinter.Sprintf("%.2f", tx.Total),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
