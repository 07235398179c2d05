package accounts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/accounting/shared"
)

func TestParseCode(t *testing.T) {
	cases := []struct {
		raw  string
		ok   bool
		kind AccountType
	}{
		{"1200", true, AccountTypeAsset},
		{"2110", true, AccountTypeLiability},
		{"3000", true, AccountTypeEquity},
		{"4100", true, AccountTypeRevenue},
		{"5100", true, AccountTypeExpense},
		{"9999", true, AccountTypeExpense},
		{"1200-001", true, AccountTypeAsset},
		{"1200-0001", true, AccountTypeAsset},
		{"0123", false, ""},
		{"120", false, ""},
		{"12000", false, ""},
		{"1200-01", false, ""},
		{"abcd", false, ""},
		{"1200-00011", false, ""},
	}
	for _, tc := range cases {
		code, err := ParseCode(tc.raw)
		if !tc.ok {
			assert.ErrorIs(t, err, ErrInvalidCode, tc.raw)
			continue
		}
		require.NoError(t, err, tc.raw)
		derived, err := code.DeriveType()
		require.NoError(t, err)
		assert.Equal(t, tc.kind, derived, tc.raw)
	}
}

func TestTypeQueries(t *testing.T) {
	code, err := ParseCode("2110")
	require.NoError(t, err)
	assert.True(t, code.IsLiability())
	assert.False(t, code.IsAsset())
	assert.False(t, code.IsRevenue())
}

func TestNormalBalance(t *testing.T) {
	assert.Equal(t, shared.SideDebit, AccountTypeAsset.NormalBalance())
	assert.Equal(t, shared.SideDebit, AccountTypeExpense.NormalBalance())
	assert.Equal(t, shared.SideCredit, AccountTypeLiability.NormalBalance())
	assert.Equal(t, shared.SideCredit, AccountTypeEquity.NormalBalance())
	assert.Equal(t, shared.SideCredit, AccountTypeRevenue.NormalBalance())
}

func TestNewAccountDerivesType(t *testing.T) {
	account, err := NewAccount("1200", "Inventory", nil, false)
	require.NoError(t, err)
	assert.Equal(t, AccountTypeAsset, account.Type)
	assert.True(t, account.IsActive)

	_, err = NewAccount("1200", "  ", nil, false)
	assert.ErrorIs(t, err, ErrEmptyName)
}

func TestVerifyType(t *testing.T) {
	account, err := NewAccount("1200", "Inventory", nil, false)
	require.NoError(t, err)
	assert.NoError(t, account.VerifyType())

	// a row rewritten outside the service can drift from its code
	account.Type = AccountTypeLiability
	assert.ErrorIs(t, account.VerifyType(), ErrTypeDrift)
}

func TestRename(t *testing.T) {
	account, _ := NewAccount("1200", "Inventory", nil, false)
	require.NoError(t, account.Rename("Merchandise Inventory"))
	assert.Equal(t, "Merchandise Inventory", account.Name)
	assert.ErrorIs(t, account.Rename(""), ErrEmptyName)
}

func TestActivationGuards(t *testing.T) {
	account, _ := NewAccount("1200", "Inventory", nil, false)

	assert.ErrorIs(t, account.Activate(), ErrAlreadyActive)

	require.NoError(t, account.Deactivate())
	assert.ErrorIs(t, account.Deactivate(), ErrAlreadyInactive)

	require.NoError(t, account.Activate())
	assert.True(t, account.IsActive)
}
