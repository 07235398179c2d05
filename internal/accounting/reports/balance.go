package reports

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/meridian-erp/meridian-erp/internal/accounting/accounts"
	"github.com/meridian-erp/meridian-erp/internal/accounting/money"
	"github.com/meridian-erp/meridian-erp/internal/accounting/shared"
)

// AccountBalance is a signed balance presented in the account's natural
// terms: positive means the account carries its normal balance side.
type AccountBalance struct {
	AccountID int64
	Code      string
	Name      string
	Side      shared.Side
	Amount    money.Money
	Negative  bool
	From      time.Time
	AsOf      time.Time
}

type AccountPort interface {
	Get(ctx context.Context, id int64) (accounts.Account, error)
}

type Service struct {
	repo     Repository
	accounts AccountPort
	currency string
	group    singleflight.Group
}

func NewService(repo Repository, accountPort AccountPort, currency string) *Service {
	return &Service{repo: repo, accounts: accountPort, currency: currency}
}

// GetAccountBalance computes the balance of one account over a date
// range (an open From yields the balance as of To). The debit/credit
// difference is normalized against the account's normal balance so an
// asset and a liability both read positive in the ordinary case.
// Concurrent identical requests share one query.
func (s *Service) GetAccountBalance(ctx context.Context, accountID int64, period Range) (AccountBalance, error) {
	key := fmt.Sprintf("%d|%s|%s", accountID, period.From.Format("2006-01-02"), period.To.Format("2006-01-02"))
	result, err, _ := s.group.Do(key, func() (any, error) {
		return s.computeBalance(ctx, accountID, period)
	})
	if err != nil {
		return AccountBalance{}, err
	}
	return result.(AccountBalance), nil
}

func (s *Service) computeBalance(ctx context.Context, accountID int64, period Range) (AccountBalance, error) {
	account, err := s.accounts.Get(ctx, accountID)
	if err != nil {
		return AccountBalance{}, err
	}
	debitRaw, creditRaw, err := s.repo.SumPostedLines(ctx, accountID, period)
	if err != nil {
		return AccountBalance{}, err
	}
	debit, err := money.FromString(debitRaw, s.currency)
	if err != nil {
		return AccountBalance{}, err
	}
	credit, err := money.FromString(creditRaw, s.currency)
	if err != nil {
		return AccountBalance{}, err
	}

	side := account.Type.NormalBalance()
	var signed money.Money
	if side == shared.SideDebit {
		signed, err = debit.Subtract(credit)
	} else {
		signed, err = credit.Subtract(debit)
	}
	if err != nil {
		return AccountBalance{}, err
	}

	return AccountBalance{
		AccountID: account.ID,
		Code:      string(account.Code),
		Name:      account.Name,
		Side:      side,
		Amount:    signed.Abs(),
		Negative:  signed.IsNegative(),
		From:      period.From,
		AsOf:      period.To,
	}, nil
}
