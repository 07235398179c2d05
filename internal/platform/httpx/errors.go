package httpx

import (
	"errors"
	"net/http"

	"github.com/meridian-erp/meridian-erp/internal/accounting/shared"
)

// RespondError maps the ledger's sentinel errors to problem responses.
// Handlers with richer local errors layer their own switch before
// falling back to this one.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrJournalNotFound),
		errors.Is(err, shared.ErrAccountNotFound),
		errors.Is(err, shared.ErrRuleNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrNoOpenPeriod),
		errors.Is(err, shared.ErrPeriodLocked),
		errors.Is(err, shared.ErrPeriodArchived),
		errors.Is(err, shared.ErrDateOutOfRange),
		errors.Is(err, shared.ErrInvalidTransition),
		errors.Is(err, shared.ErrEntryNotDraft),
		errors.Is(err, shared.ErrEntryPosted),
		errors.Is(err, shared.ErrTooFewLines),
		errors.Is(err, shared.ErrUnbalanced):
		Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
	case errors.Is(err, shared.ErrSourceAlreadyLinked),
		errors.Is(err, shared.ErrNumberConflict):
		Problem(w, http.StatusConflict, "Conflict", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
