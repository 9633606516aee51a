package settlement

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/bodega-pos/bodega/internal/cart"
	"github.com/bodega-pos/bodega/internal/catalog"
	"github.com/bodega-pos/bodega/internal/ledger"
	"github.com/bodega-pos/bodega/internal/platform/httpx"
)

// Persister receives the post-transition persistence notification for cart
// and selection changes.
type Persister interface {
	Persist(ctx context.Context)
}

// Handler serves the storefront API: product grid, cart, payer selection and
// checkout.
type Handler struct {
	logger   *slog.Logger
	engine   *Engine
	catalog  *catalog.Store
	ledger   *ledger.Store
	cart     *cart.Cart
	persist  Persister
	validate *validator.Validate
}

// NewHandler builds the storefront handler.
func NewHandler(logger *slog.Logger, engine *Engine, cat *catalog.Store, led *ledger.Store, crt *cart.Cart, persist Persister) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:   logger,
		engine:   engine,
		catalog:  cat,
		ledger:   led,
		cart:     crt,
		persist:  persist,
		validate: validator.New(),
	}
}

func (h *Handler) persisted(ctx context.Context) {
	if h.persist != nil {
		h.persist.Persist(ctx)
	}
}

// MountRoutes registers storefront routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/products", h.listProducts)
	r.Get("/cart", h.showCart)
	r.Post("/cart/items", h.addToCart)
	r.Put("/cart/items/{productID}", h.setQuantity)
	r.Delete("/cart/items/{productID}", h.removeFromCart)
	r.Delete("/cart/items", h.clearCart)
	r.Delete("/cart", h.newSale)
	r.Post("/payer", h.selectPayer)
	r.Delete("/payer", h.clearPayer)
	r.Post("/checkout", h.checkout)
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, h.catalog.List())
}

type cartView struct {
	Lines     []cart.Line      `json:"lines"`
	Total     float64          `json:"total"`
	Selection *ledger.PayerRef `json:"selection,omitempty"`
}

func (h *Handler) cartView() cartView {
	view := cartView{Lines: h.cart.Items(), Total: h.cart.Total()}
	if ref, ok := h.cart.Selection(); ok {
		view.Selection = &ref
	}
	return view
}

func (h *Handler) showCart(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, h.cartView())
}

type addToCartRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

func (h *Handler) addToCart(w http.ResponseWriter, r *http.Request) {
	var req addToCartRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	product, err := h.catalog.Get(req.ProductID)
	if err != nil {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "unknown product")
		return
	}
	if err := h.cart.Add(product, req.Quantity); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	h.persisted(r.Context())
	httpx.JSON(w, http.StatusOK, h.cartView())
}

type setQuantityRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) setQuantity(w http.ResponseWriter, r *http.Request) {
	var req setQuantityRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	err := h.cart.SetQuantity(chi.URLParam(r, "productID"), req.Quantity)
	switch {
	case err == nil:
		h.persisted(r.Context())
		httpx.JSON(w, http.StatusOK, h.cartView())
	case errors.Is(err, catalog.ErrStockExceeded):
		httpx.Problem(w, http.StatusConflict, "Stock Exceeded", "requested quantity exceeds available stock")
	case errors.Is(err, cart.ErrNotInCart), errors.Is(err, catalog.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	default:
		httpx.RespondError(w, err)
	}
}

func (h *Handler) removeFromCart(w http.ResponseWriter, r *http.Request) {
	if err := h.cart.Remove(chi.URLParam(r, "productID")); err != nil {
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
		return
	}
	h.persisted(r.Context())
	httpx.JSON(w, http.StatusOK, h.cartView())
}

// clearCart empties the lines but keeps the payer selected, so the cashier
// can rebuild the order without picking the payer again.
func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	h.cart.Clear()
	h.persisted(r.Context())
	httpx.JSON(w, http.StatusOK, h.cartView())
}

func (h *Handler) newSale(w http.ResponseWriter, r *http.Request) {
	h.cart.Reset()
	h.persisted(r.Context())
	httpx.JSON(w, http.StatusOK, h.cartView())
}

type selectPayerRequest struct {
	ID   string `json:"id" validate:"required"`
	Type string `json:"type" validate:"required,oneof=client personnel"`
}

func (h *Handler) selectPayer(w http.ResponseWriter, r *http.Request) {
	var req selectPayerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	ref := ledger.PayerRef{ID: req.ID, Type: ledger.PayerType(req.Type)}
	if _, _, err := h.ledger.PayerInfo(ref); err != nil {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "unknown payer")
		return
	}
	h.cart.Select(ref)
	h.persisted(r.Context())
	httpx.JSON(w, http.StatusOK, h.cartView())
}

func (h *Handler) clearPayer(w http.ResponseWriter, r *http.Request) {
	h.cart.ClearSelection()
	h.persisted(r.Context())
	httpx.JSON(w, http.StatusOK, h.cartView())
}

func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	receipt, err := h.engine.Settle(r.Context())
	switch {
	case err == nil:
		httpx.JSON(w, http.StatusCreated, receipt)
	case errors.Is(err, ErrNoPayerSelected):
		httpx.Problem(w, http.StatusUnprocessableEntity, "No Payer Selected", "select a client or staff member before checkout")
	case errors.Is(err, ErrEmptyCart):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Empty Cart", "the cart has no items")
	case errors.Is(err, ledger.ErrInsufficientFunds):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Insufficient Funds", "the client balance does not cover the cart total")
	case errors.Is(err, catalog.ErrStockExceeded):
		httpx.Problem(w, http.StatusConflict, "Stock Exceeded", "a cart line exceeds the available stock")
	default:
		h.logger.Error("checkout failed", slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}
