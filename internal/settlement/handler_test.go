package settlement

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/bodega-pos/bodega/internal/ledger"
)

func newTestServer(t *testing.T) (*fixture, *httptest.Server) {
	t.Helper()
	f := newFixture(t)
	h := NewHandler(nil, f.engine, f.catalog, f.ledger, f.cart, nil)
	r := chi.NewRouter()
	h.MountRoutes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return f, srv
}

func doJSON(t *testing.T, method, url, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestListProducts(t *testing.T) {
	_, srv := newTestServer(t)

	resp := doJSON(t, http.MethodGet, srv.URL+"/products", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var products []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&products))
	require.Len(t, products, 2)
	require.Equal(t, "Arroz", products[0]["name"])
}

func TestCartEndpoints(t *testing.T) {
	_, srv := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/cart/items", `{"product_id":"p1","quantity":2}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, http.MethodPost, srv.URL+"/cart/items", `{"product_id":"ghost","quantity":1}`)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = doJSON(t, http.MethodPost, srv.URL+"/cart/items", `{"product_id":"p1","quantity":0}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Quantity above stock conflicts with the live catalog.
	resp = doJSON(t, http.MethodPut, srv.URL+"/cart/items/p1", `{"quantity":99}`)
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = doJSON(t, http.MethodPut, srv.URL+"/cart/items/p1", `{"quantity":3}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var view struct {
		Lines []struct {
			Quantity int `json:"quantity"`
		} `json:"lines"`
		Total float64 `json:"total"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&view))
	require.Len(t, view.Lines, 1)
	require.Equal(t, 3, view.Lines[0].Quantity)
	require.Equal(t, 7.5, view.Total)

	resp = doJSON(t, http.MethodDelete, srv.URL+"/cart/items/p1", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, http.MethodDelete, srv.URL+"/cart/items/p1", "")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSelectPayer(t *testing.T) {
	f, srv := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/payer", `{"id":"c1","type":"client"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	sel, ok := f.cart.Selection()
	require.True(t, ok)
	require.Equal(t, ledger.PayerRef{ID: "c1", Type: ledger.PayerClient}, sel)

	resp = doJSON(t, http.MethodPost, srv.URL+"/payer", `{"id":"ghost","type":"client"}`)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = doJSON(t, http.MethodPost, srv.URL+"/payer", `{"id":"c1","type":"banana"}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, http.MethodDelete, srv.URL+"/payer", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_, ok = f.cart.Selection()
	require.False(t, ok)
}

func TestCheckoutStatusMapping(t *testing.T) {
	f, srv := newTestServer(t)

	// No payer selected.
	resp := doJSON(t, http.MethodPost, srv.URL+"/checkout", "")
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	// Empty cart.
	doJSON(t, http.MethodPost, srv.URL+"/payer", `{"id":"c1","type":"client"}`)
	resp = doJSON(t, http.MethodPost, srv.URL+"/checkout", "")
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	// Insufficient funds.
	doJSON(t, http.MethodPost, srv.URL+"/cart/items", `{"product_id":"p1","quantity":2}`)
	doJSON(t, http.MethodPost, srv.URL+"/payer", `{"id":"c2","type":"client"}`)
	resp = doJSON(t, http.MethodPost, srv.URL+"/checkout", "")
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	// Happy path settles and returns the receipt.
	doJSON(t, http.MethodPost, srv.URL+"/payer", `{"id":"c1","type":"client"}`)
	resp = doJSON(t, http.MethodPost, srv.URL+"/checkout", "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var receipt Receipt
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&receipt))
	require.Equal(t, "Maria", receipt.PayerName)
	require.Equal(t, 5.0, receipt.Transaction.Total)
	require.Equal(t, 45.0, receipt.Balance)
	require.Zero(t, f.cart.Len())

	p1, _ := f.catalog.Get("p1")
	require.Equal(t, 8, p1.Stock)
}

func TestClearCartKeepsSelection(t *testing.T) {
	f, srv := newTestServer(t)

	doJSON(t, http.MethodPost, srv.URL+"/cart/items", `{"product_id":"p1","quantity":1}`)
	doJSON(t, http.MethodPost, srv.URL+"/payer", `{"id":"c1","type":"client"}`)

	resp := doJSON(t, http.MethodDelete, srv.URL+"/cart/items", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Zero(t, f.cart.Len())
	sel, ok := f.cart.Selection()
	require.True(t, ok)
	require.Equal(t, ledger.PayerRef{ID: "c1", Type: ledger.PayerClient}, sel)
}

func TestNewSaleClearsCartAndSelection(t *testing.T) {
	f, srv := newTestServer(t)

	doJSON(t, http.MethodPost, srv.URL+"/cart/items", `{"product_id":"p1","quantity":1}`)
	doJSON(t, http.MethodPost, srv.URL+"/payer", `{"id":"c1","type":"client"}`)

	resp := doJSON(t, http.MethodDelete, srv.URL+"/cart", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Zero(t, f.cart.Len())
	_, ok := f.cart.Selection()
	require.False(t, ok)
}
