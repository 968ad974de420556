package reports

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/qayd-app/qayd/internal/platform/httpx"
	"github.com/qayd-app/qayd/internal/shared"
)

// Handler serves financial report endpoints.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

// NewHandler constructs the reports handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) TrialBalance(w http.ResponseWriter, r *http.Request) {
	id, _ := shared.IdentityFromContext(r.Context())
	asOf, ok := asOfParam(w, r)
	if !ok {
		return
	}
	tb, err := h.service.TrialBalance(r.Context(), id.TenantID)
	if err != nil {
		h.logger.Error("trial balance", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	tb.AsOf = asOf
	httpx.JSON(w, http.StatusOK, tb)
}

// asOfParam parses an optional as_of date, defaulting to today. Balances are
// always current; the date is carried for presentation only.
func asOfParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	raw := r.URL.Query().Get("as_of")
	if raw == "" {
		return time.Now().Format("2006-01-02"), true
	}
	if _, err := time.Parse("2006-01-02", raw); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "as_of must be YYYY-MM-DD")
		return "", false
	}
	return raw, true
}

func (h *Handler) IncomeStatement(w http.ResponseWriter, r *http.Request) {
	id, _ := shared.IdentityFromContext(r.Context())
	start, err := time.Parse("2006-01-02", r.URL.Query().Get("start"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "start must be YYYY-MM-DD")
		return
	}
	end, err := time.Parse("2006-01-02", r.URL.Query().Get("end"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "end must be YYYY-MM-DD")
		return
	}
	if end.Before(start) {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "end precedes start")
		return
	}
	var branchID *int64
	if raw := r.URL.Query().Get("branch_id"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "branch_id must be an integer")
			return
		}
		branchID = &v
	}
	is, err := h.service.IncomeStatement(r.Context(), id.TenantID, start, end, branchID)
	if err != nil {
		h.logger.Error("income statement", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, is)
}

func (h *Handler) BalanceSheet(w http.ResponseWriter, r *http.Request) {
	id, _ := shared.IdentityFromContext(r.Context())
	asOf, ok := asOfParam(w, r)
	if !ok {
		return
	}
	bs, err := h.service.BalanceSheet(r.Context(), id.TenantID)
	if err != nil {
		h.logger.Error("balance sheet", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	bs.AsOf = asOf
	httpx.JSON(w, http.StatusOK, bs)
}
