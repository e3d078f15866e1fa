package model

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tally-dev/tally/internal/money"
)

func TestLegType(t *testing.T) {
	debit := Leg{Amount: mustMoney(t, "10.00")}
	typ, err := debit.Type()
	require.NoError(t, err)
	assert.Equal(t, Debit, typ)
	assert.True(t, debit.IsDebit())
	assert.False(t, debit.IsCredit())

	credit := Leg{Amount: mustMoney(t, "-10.00")}
	typ, err = credit.Type()
	require.NoError(t, err)
	assert.Equal(t, Credit, typ)
	assert.True(t, credit.IsCredit())
}

func TestLegType_Zero(t *testing.T) {
	zero := Leg{Amount: money.Zero("USD")}
	_, err := zero.Type()
	assert.ErrorIs(t, err, ErrZeroAmountLeg)
	assert.False(t, zero.IsDebit())
	assert.False(t, zero.IsCredit())
}

func TestAccountIsRoot(t *testing.T) {
	assert.True(t, Account{}.IsRoot())
	assert.False(t, Account{ParentID: uuid.New()}.IsRoot())
}

func TestAccountTypeSign(t *testing.T) {
	assert.Equal(t, int64(-1), AccountTypeAsset.Sign())
	assert.Equal(t, int64(-1), AccountTypeExpense.Sign())
	assert.Equal(t, int64(1), AccountTypeLiability.Sign())
	assert.Equal(t, int64(1), AccountTypeIncome.Sign())
	assert.Equal(t, int64(1), AccountTypeEquity.Sign())
}

func TestAccountTypeValid(t *testing.T) {
	assert.True(t, AccountTypeEquity.Valid())
	assert.False(t, AccountType("revenue").Valid())
	assert.False(t, AccountType("").Valid())
}

func mustMoney(t *testing.T, s string) money.Money {
	t.Helper()
	m, err := money.FromString(s, "USD")
	require.NoError(t, err)
	return m
}
