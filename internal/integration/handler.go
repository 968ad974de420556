package integration

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/qayd-app/qayd/internal/ledger/journals"
	"github.com/qayd-app/qayd/internal/platform/httpx"
	"github.com/qayd-app/qayd/internal/shared"
)

// Handler receives completed orders from the order platform and runs them
// through the ledger and invoice pipeline.
type Handler struct {
	adapter  *Adapter
	logger   *slog.Logger
	validate *validator.Validate
}

// NewHandler constructs the integration handler.
func NewHandler(logger *slog.Logger, adapter *Adapter) *Handler {
	return &Handler{adapter: adapter, logger: logger, validate: validator.New()}
}

type orderItemRequest struct {
	Description     string  `json:"description" validate:"required"`
	Quantity        float64 `json:"quantity" validate:"gt=0"`
	UnitPrice       float64 `json:"unit_price" validate:"gte=0"`
	DiscountPercent float64 `json:"discount_percent" validate:"gte=0,lte=100"`
}

type processOrderRequest struct {
	OrderID       string             `json:"order_id" validate:"required"`
	TotalAmount   float64            `json:"total_amount" validate:"gt=0"`
	CostOfGoods   float64            `json:"cost_of_goods" validate:"gte=0"`
	PaymentMethod string             `json:"payment_method" validate:"required"`
	CustomerName  string             `json:"customer_name"`
	CreatedAt     time.Time          `json:"created_at"`
	Items         []orderItemRequest `json:"items" validate:"required,min=1,dive"`
}

func (h *Handler) ProcessOrder(w http.ResponseWriter, r *http.Request) {
	id, _ := shared.IdentityFromContext(r.Context())
	var req processOrderRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	orderID, err := uuid.Parse(req.OrderID)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "order_id must be a UUID")
		return
	}
	createdAt := req.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	order := Order{
		ID:            orderID,
		TenantID:      id.TenantID,
		BranchID:      id.BranchID,
		TotalAmount:   req.TotalAmount,
		CostOfGoods:   req.CostOfGoods,
		PaymentMethod: req.PaymentMethod,
		CustomerName:  req.CustomerName,
		CreatedAt:     createdAt,
	}
	for _, item := range req.Items {
		order.Items = append(order.Items, OrderItem{
			Description:     item.Description,
			Quantity:        item.Quantity,
			UnitPrice:       item.UnitPrice,
			DiscountPercent: item.DiscountPercent,
		})
	}

	result, inv, err := h.adapter.ProcessOrder(r.Context(), order, id.UserID)
	if err != nil {
		if errors.Is(err, journals.ErrPeriodLocked) {
			httpx.Problem(w, http.StatusConflict, "Period Locked", err.Error())
			return
		}
		h.logger.Error("process order", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"posting": result,
		"invoice": inv,
	})
}

// MountRoutes attaches integration routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/process", h.ProcessOrder)
}
