package reports

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
)

type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{service: service, logger: logger}
}

type balanceResponse struct {
	AccountID int64  `json:"account_id"`
	Code      string `json:"code"`
	Name      string `json:"name"`
	Side      string `json:"side"`
	Amount    string `json:"amount"`
	Negative  bool   `json:"negative"`
	From      string `json:"from,omitempty"`
	AsOf      string `json:"as_of"`
}

func (h *Handler) AccountBalance(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid account id")
		return
	}
	period := Range{To: time.Now()}
	if raw := r.URL.Query().Get("as_of"); raw != "" {
		period.To, err = time.Parse("2006-01-02", raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid as_of date")
			return
		}
	}
	if raw := r.URL.Query().Get("from"); raw != "" {
		period.From, err = time.Parse("2006-01-02", raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid from date")
			return
		}
		if period.From.After(period.To) {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "from must not be after as_of")
			return
		}
	}
	balance, err := h.service.GetAccountBalance(r.Context(), id, period)
	if err != nil {
		h.logger.Error("account balance", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	resp := balanceResponse{
		AccountID: balance.AccountID,
		Code:      balance.Code,
		Name:      balance.Name,
		Side:      string(balance.Side),
		Amount:    balance.Amount.Format(),
		Negative:  balance.Negative,
		AsOf:      balance.AsOf.Format("2006-01-02"),
	}
	if !balance.From.IsZero() {
		resp.From = balance.From.Format("2006-01-02")
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/accounts/{id}/balance", h.AccountBalance)
}
