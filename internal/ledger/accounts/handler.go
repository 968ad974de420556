package accounts

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/qayd-app/qayd/internal/platform/httpx"
	"github.com/qayd-app/qayd/internal/shared"
)

// Handler serves chart of accounts endpoints.
type Handler struct {
	service  *Service
	logger   *slog.Logger
	validate *validator.Validate
}

// NewHandler constructs the accounts handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{service: service, logger: logger, validate: validator.New()}
}

type createAccountRequest struct {
	Number         string  `json:"number" validate:"required"`
	Name           string  `json:"name" validate:"required"`
	NameAr         string  `json:"name_ar"`
	Type           string  `json:"type" validate:"required,oneof=ASSET LIABILITY EQUITY REVENUE EXPENSE"`
	ParentNumber   string  `json:"parent_number"`
	OpeningBalance float64 `json:"opening_balance"`
	IsBankAccount  bool    `json:"is_bank_account"`
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	id, _ := shared.IdentityFromContext(r.Context())
	list, err := h.service.List(r.Context(), id.TenantID)
	if err != nil {
		h.logger.Error("list accounts", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"accounts": list})
}

func (h *Handler) Tree(w http.ResponseWriter, r *http.Request) {
	id, _ := shared.IdentityFromContext(r.Context())
	tree, err := h.service.Tree(r.Context(), id.TenantID)
	if err != nil {
		h.logger.Error("account tree", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"tree": tree})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	id, _ := shared.IdentityFromContext(r.Context())
	var req createAccountRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	account, err := h.service.Create(r.Context(), id.TenantID, CreateInput{
		Number:         req.Number,
		Name:           req.Name,
		NameAr:         req.NameAr,
		Type:           AccountType(req.Type),
		ParentNumber:   req.ParentNumber,
		OpeningBalance: req.OpeningBalance,
		IsBankAccount:  req.IsBankAccount,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrDuplicateNumber):
			httpx.Problem(w, http.StatusConflict, "Duplicate", err.Error())
		case errors.Is(err, ErrParentNotFound):
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		default:
			h.logger.Error("create account", slog.Any("error", err))
			httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		}
		return
	}
	httpx.JSON(w, http.StatusCreated, account)
}

func (h *Handler) InitializeChart(w http.ResponseWriter, r *http.Request) {
	id, _ := shared.IdentityFromContext(r.Context())
	list, err := h.service.InitializeChart(r.Context(), id.TenantID)
	if err != nil {
		h.logger.Error("initialise chart", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"accounts": list})
}

func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
	id, _ := shared.IdentityFromContext(r.Context())
	accountID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid account id")
		return
	}
	if err := h.service.Deactivate(r.Context(), id.TenantID, accountID); err != nil {
		switch {
		case errors.Is(err, ErrAccountNotFound):
			httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
		case errors.Is(err, ErrSystemAccount):
			httpx.Problem(w, http.StatusForbidden, "Forbidden", err.Error())
		default:
			h.logger.Error("deactivate account", slog.Any("error", err))
			httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
