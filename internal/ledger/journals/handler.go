package journals

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/qayd-app/qayd/internal/platform/httpx"
	"github.com/qayd-app/qayd/internal/shared"
)

// Handler serves journal entry endpoints.
type Handler struct {
	service  *Service
	logger   *slog.Logger
	validate *validator.Validate
}

// NewHandler constructs the journals handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{service: service, logger: logger, validate: validator.New()}
}

type lineRequest struct {
	AccountID  int64   `json:"account_id" validate:"required"`
	Debit      float64 `json:"debit" validate:"gte=0"`
	Credit     float64 `json:"credit" validate:"gte=0"`
	BranchID   *int64  `json:"branch_id"`
	CostCenter *string `json:"cost_center"`
	Memo       string  `json:"memo"`
}

type createEntryRequest struct {
	Date          string        `json:"date" validate:"required"`
	Memo          string        `json:"memo"`
	ReferenceKind string        `json:"reference_kind" validate:"required,oneof=ORDER INVOICE EXPENSE MANUAL"`
	ReferenceID   string        `json:"reference_id"`
	AutoPost      bool          `json:"auto_post"`
	Lines         []lineRequest `json:"lines" validate:"required,min=2,dive"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	id, _ := shared.IdentityFromContext(r.Context())
	var req createEntryRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "date must be YYYY-MM-DD")
		return
	}
	ref := Reference{Kind: ReferenceKind(req.ReferenceKind)}
	if req.ReferenceID != "" {
		ref.ID, err = uuid.Parse(req.ReferenceID)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "reference_id must be a UUID")
			return
		}
	}
	lines := make([]LineInput, 0, len(req.Lines))
	for _, l := range req.Lines {
		lines = append(lines, LineInput{
			AccountID:  l.AccountID,
			Debit:      l.Debit,
			Credit:     l.Credit,
			BranchID:   l.BranchID,
			CostCenter: l.CostCenter,
			Memo:       l.Memo,
		})
	}
	entry, err := h.service.Create(r.Context(), id.TenantID, CreateInput{
		Date:      date,
		Memo:      req.Memo,
		Reference: ref,
		CreatedBy: id.UserID,
		AutoPost:  req.AutoPost,
		Lines:     lines,
	})
	if err != nil {
		h.respondCreateError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, entry)
}

func (h *Handler) respondCreateError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrUnbalanced),
		errors.Is(err, ErrTooFewLines),
		errors.Is(err, ErrUnknownReference),
		errors.Is(err, ErrAccountUnknown),
		errors.Is(err, ErrAccountInactive):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrPeriodLocked):
		httpx.Problem(w, http.StatusConflict, "Period Locked", err.Error())
	default:
		h.logger.Error("create journal entry", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

func (h *Handler) Post(w http.ResponseWriter, r *http.Request) {
	id, _ := shared.IdentityFromContext(r.Context())
	entryID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid entry id")
		return
	}
	entry, err := h.service.Post(r.Context(), id.TenantID, entryID, id.UserID)
	if err != nil {
		switch {
		case errors.Is(err, ErrEntryNotFound):
			httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
		case errors.Is(err, ErrNotDraft):
			httpx.Problem(w, http.StatusConflict, "Already Posted", err.Error())
		case errors.Is(err, ErrPeriodLocked):
			httpx.Problem(w, http.StatusConflict, "Period Locked", err.Error())
		default:
			h.logger.Error("post journal entry", slog.Any("error", err))
			httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		}
		return
	}
	httpx.JSON(w, http.StatusOK, entry)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	id, _ := shared.IdentityFromContext(r.Context())
	list, err := h.service.List(r.Context(), id.TenantID)
	if err != nil {
		h.logger.Error("list journal entries", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"entries": list})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, _ := shared.IdentityFromContext(r.Context())
	entryID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid entry id")
		return
	}
	entry, err := h.service.Get(r.Context(), id.TenantID, entryID)
	if err != nil {
		if errors.Is(err, ErrEntryNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
			return
		}
		h.logger.Error("get journal entry", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, entry)
}
