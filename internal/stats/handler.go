package stats

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bodega-pos/bodega/internal/ledger"
	"github.com/bodega-pos/bodega/internal/platform/httpx"
)

const dateLayout = "2006-01-02"

// AuditSource supplies the statistic trail. The ledger store satisfies it.
type AuditSource interface {
	Statistics() []ledger.Statistic
}

// Handler serves the reporting endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	audit   AuditSource
	now     func() time.Time
}

// NewHandler builds the reporting handler. Report days are UTC so the cache
// keys line up with the warmup job regardless of the server timezone.
func NewHandler(logger *slog.Logger, service *Service, audit AuditSource) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, audit: audit, now: func() time.Time {
		return time.Now().UTC()
	}}
}

// WithNow overrides the handler clock for testing.
func (h *Handler) WithNow(fn func() time.Time) {
	if fn != nil {
		h.now = fn
	}
}

// MountRoutes registers the reporting routes on the given router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.summary)
	r.Get("/audit", h.auditTrail)
}

// summary handles GET /?from=YYYY-MM-DD&to=YYYY-MM-DD&type=all|client|personnel.
// The window defaults to the last month ending today.
func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	to := h.now()
	from := to.AddDate(0, -1, 0)

	if raw := r.URL.Query().Get("from"); raw != "" {
		parsed, err := time.ParseInLocation(dateLayout, raw, to.Location())
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "from must be YYYY-MM-DD")
			return
		}
		from = parsed
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		parsed, err := time.ParseInLocation(dateLayout, raw, to.Location())
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "to must be YYYY-MM-DD")
			return
		}
		to = parsed
	}
	if from.After(to) {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "from must not be after to")
		return
	}

	filter := TypeFilter(r.URL.Query().Get("type"))
	switch filter {
	case "", FilterAll, FilterClient, FilterPersonnel:
	default:
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "type must be all, client or personnel")
		return
	}

	out, err := h.service.Summary(r.Context(), from, to, filter)
	if err != nil {
		h.logger.Error("stats summary failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Server Error", "could not build report")
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

// auditTrail handles GET /audit and returns the raw statistic entries.
func (h *Handler) auditTrail(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, h.audit.Statistics())
}
