package rules

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-erp/meridian-erp/internal/accounting/shared"
	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
)

type Handler struct {
	repo     Repository
	logger   *slog.Logger
	validate *validator.Validate
}

func NewHandler(logger *slog.Logger, repo Repository) *Handler {
	return &Handler{repo: repo, logger: logger, validate: validator.New()}
}

type ruleLineRequest struct {
	AccountID           int64  `json:"account_id" validate:"required"`
	Side                string `json:"side" validate:"required,oneof=DEBIT CREDIT"`
	AmountKey           string `json:"amount_key" validate:"required"`
	DescriptionTemplate string `json:"description_template"`
}

type createRuleRequest struct {
	EventType   string            `json:"event_type" validate:"required"`
	Description string            `json:"description"`
	Module      string            `json:"module"`
	IsActive    bool              `json:"is_active"`
	Lines       []ruleLineRequest `json:"lines" validate:"required,dive"`
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.repo.List(r.Context())
	if err != nil {
		h.logger.Error("list posting rules", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.ruleID(w, r)
	if !ok {
		return
	}
	rule, err := h.repo.Get(r.Context(), id)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rule)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRuleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	rule := PostingRule{
		EventType:   req.EventType,
		Description: req.Description,
		Module:      req.Module,
		IsActive:    req.IsActive,
	}
	for _, line := range req.Lines {
		rule.Lines = append(rule.Lines, PostingRuleLine{
			AccountID:           line.AccountID,
			Side:                shared.Side(line.Side),
			AmountKey:           line.AmountKey,
			DescriptionTemplate: line.DescriptionTemplate,
		})
	}
	created, err := h.repo.Create(r.Context(), rule)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) Activate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, true)
}

func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, false)
}

func (h *Handler) setActive(w http.ResponseWriter, r *http.Request, active bool) {
	id, ok := h.ruleID(w, r)
	if !ok {
		return
	}
	if err := h.repo.SetActive(r.Context(), id, active); err != nil {
		h.respondErr(w, err)
		return
	}
	rule, err := h.repo.Get(r.Context(), id)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rule)
}

func (h *Handler) ruleID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid rule id")
		return 0, false
	}
	return id, true
}

func (h *Handler) respondErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNoEventType), errors.Is(err, ErrNoLines),
		errors.Is(err, ErrBadSide), errors.Is(err, ErrNoAmountKey):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
	default:
		h.logger.Error("posting rule command", slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}
