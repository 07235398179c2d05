package journals

import (
	"fmt"
	"time"

	"github.com/meridian-erp/meridian-erp/internal/accounting/money"
	"github.com/meridian-erp/meridian-erp/internal/accounting/shared"
)

const dateLayout = "2006-01-02"

type postLineRequest struct {
	AccountID   int64  `json:"account_id" validate:"required"`
	Side        string `json:"side" validate:"required,oneof=DEBIT CREDIT"`
	Amount      string `json:"amount" validate:"required"`
	Description string `json:"description"`
}

type postEntryRequest struct {
	Date        string            `json:"date" validate:"required"`
	Description string            `json:"description" validate:"required"`
	Currency    string            `json:"currency" validate:"required,len=3"`
	Prefix      string            `json:"prefix" validate:"omitempty,oneof=GL JE DEF DEPR"`
	Lines       []postLineRequest `json:"lines" validate:"required,dive"`
}

// toCommand converts the wire shape to the service command, parsing
// dates and amounts eagerly so handlers reject malformed input before
// the service runs.
func (r postEntryRequest) toCommand() (PostingCommand, error) {
	date, err := time.Parse(dateLayout, r.Date)
	if err != nil {
		return PostingCommand{}, fmt.Errorf("ledger: invalid date %q", r.Date)
	}
	cmd := PostingCommand{
		Date:        date,
		Description: r.Description,
		Currency:    r.Currency,
		Prefix:      r.Prefix,
	}
	for _, line := range r.Lines {
		amount, err := money.FromString(line.Amount, r.Currency)
		if err != nil {
			return PostingCommand{}, err
		}
		cmd.Lines = append(cmd.Lines, LineCommand{
			AccountID:   line.AccountID,
			Side:        shared.Side(line.Side),
			Amount:      amount,
			Description: line.Description,
		})
	}
	return cmd, nil
}

type lineResponse struct {
	ID          int64  `json:"id"`
	AccountID   int64  `json:"account_id"`
	Debit       string `json:"debit"`
	Credit      string `json:"credit"`
	Description string `json:"description,omitempty"`
}

type entryResponse struct {
	ID           int64          `json:"id"`
	Reference    string         `json:"reference,omitempty"`
	Date         string         `json:"date"`
	Description  string         `json:"description"`
	Currency     string         `json:"currency"`
	Status       string         `json:"status"`
	PeriodID     int64          `json:"period_id,omitempty"`
	SourceModule string         `json:"source_module,omitempty"`
	TotalDebit   string         `json:"total_debit"`
	TotalCredit  string         `json:"total_credit"`
	Lines        []lineResponse `json:"lines,omitempty"`
}

func toEntryResponse(entry JournalEntry) entryResponse {
	resp := entryResponse{
		ID:           entry.ID,
		Reference:    entry.Reference,
		Date:         entry.Date.Format(dateLayout),
		Description:  entry.Description,
		Currency:     entry.Currency,
		Status:       string(entry.Status),
		PeriodID:     entry.PeriodID,
		SourceModule: entry.SourceModule,
	}
	debit, err := entry.TotalDebit()
	if err == nil {
		resp.TotalDebit = debit.Amount().StringFixed(2)
	}
	credit, err := entry.TotalCredit()
	if err == nil {
		resp.TotalCredit = credit.Amount().StringFixed(2)
	}
	for _, line := range entry.Lines {
		resp.Lines = append(resp.Lines, lineResponse{
			ID:          line.ID,
			AccountID:   line.AccountID,
			Debit:       line.Debit.Amount().StringFixed(2),
			Credit:      line.Credit.Amount().StringFixed(2),
			Description: line.Description,
		})
	}
	return resp
}

func toEntryResponses(entries []JournalEntry) []entryResponse {
	out := make([]entryResponse, 0, len(entries))
	for _, entry := range entries {
		out = append(out, toEntryResponse(entry))
	}
	return out
}
