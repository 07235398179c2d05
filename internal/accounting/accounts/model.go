package accounts

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/meridian-erp/meridian-erp/internal/accounting/shared"
)

// AccountType enumerates CoA categories.
type AccountType string

const (
	AccountTypeAsset     AccountType = "ASSET"
	AccountTypeLiability AccountType = "LIABILITY"
	AccountTypeEquity    AccountType = "EQUITY"
	AccountTypeRevenue   AccountType = "REVENUE"
	AccountTypeExpense   AccountType = "EXPENSE"
)

// NormalBalance returns the side on which this account type naturally
// carries its balance. Asset and expense accounts grow on the debit side,
// the rest on the credit side.
func (t AccountType) NormalBalance() shared.Side {
	switch t {
	case AccountTypeAsset, AccountTypeExpense:
		return shared.SideDebit
	default:
		return shared.SideCredit
	}
}

// codePattern: four digits, optionally suffixed with a 3 or 4 digit
// sub-account segment, e.g. "1200" or "1200-001".
var codePattern = regexp.MustCompile(`^\d{4}(-\d{3,4})?$`)

var (
	// ErrInvalidCode indicates a malformed account code.
	ErrInvalidCode = errors.New("ledger: invalid account code")
	// ErrEmptyName rejects blank account names.
	ErrEmptyName = errors.New("ledger: account name required")
	// ErrAlreadyActive guards a redundant activation.
	ErrAlreadyActive = errors.New("ledger: account already active")
	// ErrAlreadyInactive guards a redundant deactivation.
	ErrAlreadyInactive = errors.New("ledger: account already inactive")
	// ErrCyclicParent rejects a parent assignment that would make an
	// account its own ancestor.
	ErrCyclicParent = errors.New("ledger: account cannot be its own ancestor")
	// ErrTypeDrift surfaces a stored type that disagrees with the
	// code-derived classification.
	ErrTypeDrift = errors.New("ledger: stored account type disagrees with its code")
)

// AccountCode is a validated chart-of-accounts identifier. The leading
// digit is authoritative for the account classification.
type AccountCode string

// ParseCode validates the code format and its leading digit.
func ParseCode(raw string) (AccountCode, error) {
	code := strings.TrimSpace(raw)
	if !codePattern.MatchString(code) {
		return "", fmt.Errorf("%w: %q", ErrInvalidCode, raw)
	}
	if code[0] == '0' {
		return "", fmt.Errorf("%w: %q has no classification digit", ErrInvalidCode, raw)
	}
	return AccountCode(code), nil
}

// DeriveType maps the leading digit to the account classification.
func (c AccountCode) DeriveType() (AccountType, error) {
	if len(c) == 0 {
		return "", ErrInvalidCode
	}
	switch c[0] {
	case '1':
		return AccountTypeAsset, nil
	case '2':
		return AccountTypeLiability, nil
	case '3':
		return AccountTypeEquity, nil
	case '4':
		return AccountTypeRevenue, nil
	case '5', '6', '7', '8', '9':
		return AccountTypeExpense, nil
	default:
		return "", fmt.Errorf("%w: %q has no classification digit", ErrInvalidCode, string(c))
	}
}

func (c AccountCode) String() string { return string(c) }

func (c AccountCode) is(t AccountType) bool {
	derived, err := c.DeriveType()
	return err == nil && derived == t
}

func (c AccountCode) IsAsset() bool     { return c.is(AccountTypeAsset) }
func (c AccountCode) IsLiability() bool { return c.is(AccountTypeLiability) }
func (c AccountCode) IsEquity() bool    { return c.is(AccountTypeEquity) }
func (c AccountCode) IsRevenue() bool   { return c.is(AccountTypeRevenue) }
func (c AccountCode) IsExpense() bool   { return c.is(AccountTypeExpense) }

// Account models a chart of accounts node. Type is derived from Code; the
// stored column is a denormalized cache rewritten on every save.
type Account struct {
	ID            int64
	Code          AccountCode
	Name          string
	Type          AccountType
	ParentID      *int64
	IsActive      bool
	IsCashAccount bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewAccount constructs an active account, deriving its type from code.
func NewAccount(rawCode, name string, parentID *int64, isCash bool) (Account, error) {
	code, err := ParseCode(rawCode)
	if err != nil {
		return Account{}, err
	}
	if strings.TrimSpace(name) == "" {
		return Account{}, ErrEmptyName
	}
	accType, err := code.DeriveType()
	if err != nil {
		return Account{}, err
	}
	return Account{
		Code:          code,
		Name:          name,
		Type:          accType,
		ParentID:      parentID,
		IsActive:      true,
		IsCashAccount: isCash,
	}, nil
}

// VerifyType checks the cached Type against the code-derived
// classification. The code is authoritative; a mismatch means the row
// was edited outside this service.
func (a Account) VerifyType() error {
	derived, err := a.Code.DeriveType()
	if err != nil {
		return err
	}
	if derived != a.Type {
		return fmt.Errorf("%w: %s stored as %s, derives %s", ErrTypeDrift, a.Code, a.Type, derived)
	}
	return nil
}

// Rename replaces the display name; blank names are rejected.
func (a *Account) Rename(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyName
	}
	a.Name = name
	return nil
}

// Activate re-enables a deactivated account.
func (a *Account) Activate() error {
	if a.IsActive {
		return ErrAlreadyActive
	}
	a.IsActive = true
	return nil
}

// Deactivate disables the account for new postings.
func (a *Account) Deactivate() error {
	if !a.IsActive {
		return ErrAlreadyInactive
	}
	a.IsActive = false
	return nil
}
