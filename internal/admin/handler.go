package admin

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/bodega-pos/bodega/internal/auth"
	"github.com/bodega-pos/bodega/internal/catalog"
	"github.com/bodega-pos/bodega/internal/ledger"
	"github.com/bodega-pos/bodega/internal/platform/httpx"
	"github.com/bodega-pos/bodega/internal/stats"
)

// TransactionSource supplies the sales log for export. The ledger store
// satisfies it.
type TransactionSource interface {
	Transactions() []ledger.Transaction
}

// Handler serves the back-office API behind the admin gate.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	gate     *auth.Gate
	txs      TransactionSource
	stats    *stats.Handler
	persist  PersistHook
	validate *validator.Validate
}

// NewHandler builds the administration handler.
func NewHandler(logger *slog.Logger, service *Service, gate *auth.Gate, txs TransactionSource, reports *stats.Handler, persist PersistHook) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:   logger,
		service:  service,
		gate:     gate,
		txs:      txs,
		stats:    reports,
		persist:  persist,
		validate: validator.New(),
	}
}

// Login handles POST /login. It is the only admin route mounted outside the
// gate middleware.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Secret string `json:"secret" validate:"required"`
	}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.gate.Verify(req.Secret); err != nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "invalid admin secret")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// MountRoutes registers the gated routes on the given router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.listProducts)
		r.Post("/", h.createProduct)
		r.Put("/{id}", h.updateProduct)
		r.Delete("/{id}", h.deleteProduct)
		r.Post("/reset", h.resetProducts)
		r.Post("/import", h.importProducts)
		r.Get("/export", h.exportProducts)
	})
	r.Route("/clients", func(r chi.Router) {
		r.Get("/", h.listClients)
		r.Post("/", h.createClient)
		r.Put("/{id}", h.updateClient)
		r.Delete("/{id}", h.deleteClient)
		r.Post("/reset", h.resetClients)
		r.Post("/import", h.importClients)
		r.Get("/export", h.exportClients)
	})
	r.Route("/personnel", func(r chi.Router) {
		r.Get("/", h.listPersonnel)
		r.Post("/", h.createPersonnel)
		r.Put("/{id}", h.updatePersonnel)
		r.Delete("/{id}", h.deletePersonnel)
		r.Post("/reset", h.resetPersonnel)
		r.Post("/import", h.importPersonnel)
		r.Get("/export", h.exportPersonnel)
	})
	r.Get("/transactions/export", h.exportTransactions)
	r.Route("/statistics", func(r chi.Router) {
		h.stats.MountRoutes(r)
		r.Post("/reset", h.resetStatistics)
	})
	r.Put("/password", h.changePassword)
}

func (h *Handler) respondDomain(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, catalog.ErrNotFound) || errors.Is(err, ledger.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, catalog.ErrAlreadyExists) || errors.Is(err, ledger.ErrAlreadyExists):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, catalog.ErrInvalidPrice) || errors.Is(err, catalog.ErrInvalidStock) || errors.Is(err, ledger.ErrInvalidBalance):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error("admin request failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Server Error", "unexpected error")
	}
}

func (h *Handler) decodeValid(w http.ResponseWriter, r *http.Request, dest any) bool {
	if err := httpx.DecodeJSON(r, dest); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return false
	}
	if err := h.validate.Struct(dest); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return false
	}
	return true
}

func writeCSV(w http.ResponseWriter, filename string, render func(http.ResponseWriter) error) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	w.WriteHeader(http.StatusOK)
	_ = render(w)
}

type importResult struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// ============================================================================
// PRODUCTS
// ============================================================================

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, h.service.ListProducts(r.Context()))
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var in ProductInput
	if !h.decodeValid(w, r, &in) {
		return
	}
	p, err := h.service.CreateProduct(r.Context(), in)
	if err != nil {
		h.respondDomain(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, p)
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	var in ProductInput
	if !h.decodeValid(w, r, &in) {
		return
	}
	p, err := h.service.UpdateProduct(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		h.respondDomain(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteProduct(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.respondDomain(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) resetProducts(w http.ResponseWriter, r *http.Request) {
	h.service.ResetProducts(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) importProducts(w http.ResponseWriter, r *http.Request) {
	inputs, skipped, err := ParseProductsCSV(r.Body)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	added, err := h.service.ImportProducts(r.Context(), inputs)
	if err != nil {
		h.respondDomain(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, importResult{Imported: added, Skipped: skipped + len(inputs) - added})
}

func (h *Handler) exportProducts(w http.ResponseWriter, r *http.Request) {
	products := h.service.ListProducts(r.Context())
	writeCSV(w, "productos.csv", func(w http.ResponseWriter) error {
		return WriteProductsCSV(w, products)
	})
}

// ============================================================================
// CLIENTS
// ============================================================================

func (h *Handler) listClients(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, h.service.ListClients(r.Context()))
}

func (h *Handler) createClient(w http.ResponseWriter, r *http.Request) {
	var in ClientInput
	if !h.decodeValid(w, r, &in) {
		return
	}
	c, err := h.service.CreateClient(r.Context(), in)
	if err != nil {
		h.respondDomain(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, c)
}

func (h *Handler) updateClient(w http.ResponseWriter, r *http.Request) {
	var in ClientInput
	if !h.decodeValid(w, r, &in) {
		return
	}
	c, err := h.service.UpdateClient(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		h.respondDomain(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *Handler) deleteClient(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteClient(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.respondDomain(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) resetClients(w http.ResponseWriter, r *http.Request) {
	h.service.ResetClients(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) importClients(w http.ResponseWriter, r *http.Request) {
	inputs, skipped, err := ParseClientsCSV(r.Body)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	added, err := h.service.ImportClients(r.Context(), inputs)
	if err != nil {
		h.respondDomain(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, importResult{Imported: added, Skipped: skipped + len(inputs) - added})
}

func (h *Handler) exportClients(w http.ResponseWriter, r *http.Request) {
	clients := h.service.ListClients(r.Context())
	writeCSV(w, "clientes.csv", func(w http.ResponseWriter) error {
		return WriteClientsCSV(w, clients)
	})
}

// ============================================================================
// PERSONNEL
// ============================================================================

func (h *Handler) listPersonnel(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, h.service.ListPersonnel(r.Context()))
}

func (h *Handler) createPersonnel(w http.ResponseWriter, r *http.Request) {
	var in PersonnelInput
	if !h.decodeValid(w, r, &in) {
		return
	}
	p, err := h.service.CreatePersonnel(r.Context(), in)
	if err != nil {
		h.respondDomain(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, p)
}

func (h *Handler) updatePersonnel(w http.ResponseWriter, r *http.Request) {
	var in PersonnelInput
	if !h.decodeValid(w, r, &in) {
		return
	}
	p, err := h.service.UpdatePersonnel(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		h.respondDomain(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) deletePersonnel(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeletePersonnel(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.respondDomain(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) resetPersonnel(w http.ResponseWriter, r *http.Request) {
	h.service.ResetPersonnel(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) importPersonnel(w http.ResponseWriter, r *http.Request) {
	inputs, skipped, err := ParsePersonnelCSV(r.Body)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	added, err := h.service.ImportPersonnel(r.Context(), inputs)
	if err != nil {
		h.respondDomain(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, importResult{Imported: added, Skipped: skipped + len(inputs) - added})
}

func (h *Handler) exportPersonnel(w http.ResponseWriter, r *http.Request) {
	personnel := h.service.ListPersonnel(r.Context())
	writeCSV(w, "personal.csv", func(w http.ResponseWriter) error {
		return WritePersonnelCSV(w, personnel)
	})
}

// ============================================================================
// TRANSACTIONS / STATISTICS / SECRET
// ============================================================================

func (h *Handler) exportTransactions(w http.ResponseWriter, r *http.Request) {
	txs := h.txs.Transactions()
	writeCSV(w, "transacciones.csv", func(w http.ResponseWriter) error {
		return WriteTransactionsCSV(w, txs)
	})
}

func (h *Handler) resetStatistics(w http.ResponseWriter, r *http.Request) {
	h.service.ResetStatistics(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) changePassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Current string `json:"current" validate:"required"`
		Next    string `json:"next" validate:"required"`
	}
	if !h.decodeValid(w, r, &req) {
		return
	}
	switch err := h.gate.Change(req.Current, req.Next); {
	case err == nil:
	case errors.Is(err, auth.ErrInvalidSecret):
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "current secret does not match")
		return
	case errors.Is(err, auth.ErrSecretTooShort):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	default:
		h.logger.Error("secret change failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Server Error", "unexpected error")
		return
	}
	if h.persist != nil {
		h.persist.Persist(r.Context())
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
