package automation

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

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

type eventRequest struct {
	Type        string         `json:"type" validate:"required"`
	Reference   string         `json:"reference" validate:"required"`
	Description string         `json:"description"`
	Date        string         `json:"date"`
	Currency    string         `json:"currency" validate:"omitempty,len=3"`
	Payload     map[string]any `json:"payload"`
}

type eventResponse struct {
	Posted    bool   `json:"posted"`
	EntryID   int64  `json:"entry_id,omitempty"`
	Reference string `json:"reference,omitempty"`
}

// Submit accepts one business event. The response distinguishes a
// posted entry from a deliberate no-op so callers can tell silence from
// success.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	event := Event{
		Type:        req.Type,
		Reference:   req.Reference,
		Description: req.Description,
		Currency:    req.Currency,
		Payload:     req.Payload,
	}
	if req.Date != "" {
		date, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid date")
			return
		}
		event.Date = date
	}

	entry, posted, err := h.service.Handle(r.Context(), event)
	if err != nil {
		h.logger.Error("handle event", slog.String("event_type", req.Type), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	resp := eventResponse{Posted: posted}
	if posted {
		resp.EntryID = entry.ID
		resp.Reference = entry.Reference
	}
	status := http.StatusOK
	if posted {
		status = http.StatusCreated
	}
	httpx.JSON(w, status, resp)
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.Submit)
}
