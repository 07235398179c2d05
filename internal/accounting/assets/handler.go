package assets

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-erp/meridian-erp/internal/accounting/money"
	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
)

// RunEnqueuer queues a depreciation run for out-of-schedule execution.
type RunEnqueuer interface {
	EnqueueDepreciation(ctx context.Context, monthKey string) (string, error)
}

type Handler struct {
	service  *Service
	enqueuer RunEnqueuer
	logger   *slog.Logger
	validate *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service, enqueuer RunEnqueuer) *Handler {
	return &Handler{service: service, enqueuer: enqueuer, logger: logger, validate: validator.New()}
}

type registerAssetRequest struct {
	Name                 string `json:"name" validate:"required"`
	ExpenseAccountID     int64  `json:"expense_account_id" validate:"required"`
	AccumulatedAccountID int64  `json:"accumulated_account_id" validate:"required"`
	Cost                 string `json:"cost" validate:"required"`
	Salvage              string `json:"salvage"`
	UsefulYears          int    `json:"useful_years" validate:"required,min=1"`
	AcquiredAt           string `json:"acquired_at" validate:"required"`
}

type assetResponse struct {
	ID                   int64  `json:"id"`
	Name                 string `json:"name"`
	ExpenseAccountID     int64  `json:"expense_account_id"`
	AccumulatedAccountID int64  `json:"accumulated_account_id"`
	Cost                 string `json:"cost"`
	Salvage              string `json:"salvage"`
	BookValue            string `json:"book_value"`
	UsefulYears          int    `json:"useful_years"`
	AcquiredAt           string `json:"acquired_at"`
	IsActive             bool   `json:"is_active"`
}

func toAssetResponse(a FixedAsset) assetResponse {
	return assetResponse{
		ID:                   a.ID,
		Name:                 a.Name,
		ExpenseAccountID:     a.ExpenseAccountID,
		AccumulatedAccountID: a.AccumulatedAccountID,
		Cost:                 a.Cost.Amount().StringFixed(2),
		Salvage:              a.Salvage.Amount().StringFixed(2),
		BookValue:            a.BookValue.Amount().StringFixed(2),
		UsefulYears:          a.UsefulYears,
		AcquiredAt:           a.AcquiredAt.Format("2006-01-02"),
		IsActive:             a.IsActive,
	}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list assets", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	out := make([]assetResponse, 0, len(list))
	for _, a := range list {
		out = append(out, toAssetResponse(a))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid asset id")
		return
	}
	asset, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toAssetResponse(asset))
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerAssetRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	asset, err := h.toAsset(req)
	if err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
		return
	}
	created, err := h.service.Register(r.Context(), asset)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toAssetResponse(created))
}

func (h *Handler) toAsset(req registerAssetRequest) (FixedAsset, error) {
	currency := h.service.Currency()
	cost, err := money.FromString(req.Cost, currency)
	if err != nil {
		return FixedAsset{}, err
	}
	salvage := money.Zero(currency)
	if req.Salvage != "" {
		if salvage, err = money.FromString(req.Salvage, currency); err != nil {
			return FixedAsset{}, err
		}
	}
	acquired, err := time.Parse("2006-01-02", req.AcquiredAt)
	if err != nil {
		return FixedAsset{}, errors.New("ledger: acquired_at must be YYYY-MM-DD")
	}
	return FixedAsset{
		Name:                 req.Name,
		ExpenseAccountID:     req.ExpenseAccountID,
		AccumulatedAccountID: req.AccumulatedAccountID,
		Cost:                 cost,
		Salvage:              salvage,
		UsefulYears:          req.UsefulYears,
		AcquiredAt:           acquired,
	}, nil
}

type enqueueRunRequest struct {
	Month string `json:"month" validate:"omitempty,len=6,numeric"`
}

// EnqueueRun queues a depreciation run ahead of the monthly schedule,
// for the current month or the YYYYMM named in the body.
func (h *Handler) EnqueueRun(w http.ResponseWriter, r *http.Request) {
	if h.enqueuer == nil {
		httpx.Problem(w, http.StatusServiceUnavailable, "Unavailable", "job queue not configured")
		return
	}
	var req enqueueRunRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	taskID, err := h.enqueuer.EnqueueDepreciation(r.Context(), req.Month)
	if err != nil {
		h.logger.Error("enqueue depreciation run", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusAccepted, map[string]string{"task_id": taskID, "month": req.Month})
}

func (h *Handler) respondErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrAssetNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrNoUsefulLife), errors.Is(err, ErrSalvageExceedsCost):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
	default:
		h.logger.Error("asset command", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
