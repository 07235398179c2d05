package opening

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-erp/meridian-erp/internal/accounting/journals"
	"github.com/meridian-erp/meridian-erp/internal/accounting/money"
	"github.com/meridian-erp/meridian-erp/internal/accounting/shared"
	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
)

type Handler struct {
	service  *Service
	logger   *slog.Logger
	validate *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{service: service, logger: logger, validate: validator.New()}
}

type balanceRequest struct {
	AccountID int64  `json:"account_id" validate:"required"`
	Side      string `json:"side" validate:"required,oneof=DEBIT CREDIT"`
	Amount    string `json:"amount" validate:"required"`
}

type openingRequest struct {
	Year     int              `json:"year" validate:"required,min=1900"`
	Date     string           `json:"date"`
	Currency string           `json:"currency" validate:"required,len=3"`
	Balances []balanceRequest `json:"balances" validate:"required,dive"`
}

func (h *Handler) Post(w http.ResponseWriter, r *http.Request) {
	var req openingRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	cmd := Command{Year: req.Year, Currency: req.Currency}
	cmd.ActorID, _ = strconv.ParseInt(r.Header.Get("X-Actor-ID"), 10, 64)
	if req.Date != "" {
		date, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid date")
			return
		}
		cmd.Date = date
	}
	for _, balance := range req.Balances {
		amount, err := money.FromString(balance.Amount, req.Currency)
		if err != nil {
			httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
			return
		}
		cmd.Balances = append(cmd.Balances, Balance{
			AccountID: balance.AccountID,
			Side:      shared.Side(balance.Side),
			Amount:    amount,
		})
	}

	entry, err := h.service.Post(r.Context(), cmd)
	if err != nil {
		var unbalanced *journals.UnbalancedError
		if errors.As(err, &unbalanced) {
			httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
			return
		}
		h.logger.Error("post opening balances", slog.Int("year", req.Year), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"entry_id":  entry.ID,
		"reference": entry.Reference,
	})
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.Post)
}
