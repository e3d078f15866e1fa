package ledger

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tally-dev/tally/internal/accounttree"
	"github.com/tally-dev/tally/internal/model"
	"github.com/tally-dev/tally/internal/store"
)

type fixture struct {
	tree  *accounttree.Tree
	store *store.Memory
	svc   *Service

	bank     model.Account
	sales    model.Account
	expenses model.Account
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	tree := accounttree.New()
	st := store.NewMemory()

	f := &fixture{
		tree:     tree,
		store:    st,
		svc:      NewService(tree, st),
		bank:     model.Account{ID: uuid.New(), Name: "Bank", Code: "1", Type: model.AccountTypeAsset, HasStatements: true},
		sales:    model.Account{ID: uuid.New(), Name: "Sales", Code: "4", Type: model.AccountTypeIncome},
		expenses: model.Account{ID: uuid.New(), Name: "Expenses", Code: "5", Type: model.AccountTypeExpense},
	}
	for _, a := range []model.Account{f.bank, f.sales, f.expenses} {
		require.NoError(t, tree.Register(a))
		require.NoError(t, st.Atomically(func(uow store.UnitOfWork) error {
			return uow.SaveAccount(a)
		}))
	}
	return f
}

func (f *fixture) rawBalance(t *testing.T, accountID uuid.UUID) string {
	t.Helper()
	sum, err := f.store.SumLegAmounts(accountID, store.LegSumOptions{})
	require.NoError(t, err)
	return sum.StringFixed(2)
}

func TestCreateTransaction(t *testing.T) {
	f := newFixture(t)

	tx, legs, err := f.svc.CreateTransaction(CreateParams{
		Date:        date(2024, 3, 1),
		Description: "march invoice",
		Legs: []LegInput{
			{AccountID: f.bank.ID, Amount: usd("-250.00")},
			{AccountID: f.sales.ID, Amount: usd("250.00")},
		},
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, tx.ID)
	require.Len(t, legs, 2)

	stored, err := f.store.Transaction(tx.ID)
	require.NoError(t, err)
	assert.Equal(t, "march invoice", stored.Description)
	assert.True(t, stored.Date.Equal(date(2024, 3, 1)))

	assert.Equal(t, "-250.00", f.rawBalance(t, f.bank.ID))
	assert.Equal(t, "250.00", f.rawBalance(t, f.sales.ID))
}

func TestCreateTransaction_DateDefaultsToNow(t *testing.T) {
	f := newFixture(t)

	tx, _, err := f.svc.CreateTransaction(CreateParams{
		Legs: []LegInput{
			{AccountID: f.bank.ID, Amount: usd("-1.00")},
			{AccountID: f.sales.ID, Amount: usd("1.00")},
		},
	})
	require.NoError(t, err)
	assert.False(t, tx.Date.IsZero())
	y, m, d := tx.Timestamp.Date()
	assert.Equal(t, time.Date(y, m, d, 0, 0, 0, 0, time.UTC), tx.Date)
}

func TestCreateTransaction_DateDropsTimeOfDay(t *testing.T) {
	f := newFixture(t)

	tx, _, err := f.svc.CreateTransaction(CreateParams{
		Date: time.Date(2024, 3, 5, 15, 30, 0, 0, time.UTC),
		Legs: []LegInput{
			{AccountID: f.bank.ID, Amount: usd("-1.00")},
			{AccountID: f.sales.ID, Amount: usd("1.00")},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, date(2024, 3, 5), tx.Date)
}

func TestCreateTransaction_UnbalancedPersistsNothing(t *testing.T) {
	f := newFixture(t)

	_, _, err := f.svc.CreateTransaction(CreateParams{
		Legs: []LegInput{
			{AccountID: f.bank.ID, Amount: usd("10.00")},
			{AccountID: f.sales.ID, Amount: usd("-9.00")},
		},
	})
	var unbalanced UnbalancedTransactionError
	require.ErrorAs(t, err, &unbalanced)

	assert.Equal(t, "0.00", f.rawBalance(t, f.bank.ID))
	assert.Equal(t, "0.00", f.rawBalance(t, f.sales.ID))
}

func TestCreateTransaction_ZeroLegPersistsNothing(t *testing.T) {
	f := newFixture(t)

	_, _, err := f.svc.CreateTransaction(CreateParams{
		Legs: []LegInput{
			{AccountID: f.bank.ID, Amount: usd("0.00")},
			{AccountID: f.sales.ID, Amount: usd("0.00")},
		},
	})
	var zero ZeroAmountLegError
	require.ErrorAs(t, err, &zero)
	assert.Equal(t, "0.00", f.rawBalance(t, f.bank.ID))
}

func TestCreateTransaction_UnknownAccount(t *testing.T) {
	f := newFixture(t)

	_, _, err := f.svc.CreateTransaction(CreateParams{
		Legs: []LegInput{
			{AccountID: uuid.New(), Amount: usd("10.00")},
			{AccountID: f.sales.ID, Amount: usd("-10.00")},
		},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not registered")
}

func TestTransfer_ToPositiveSignAccount(t *testing.T) {
	f := newFixture(t)

	// Sales is income, sign +1: the polarity inverts so the transfer
	// reduces the bank account and increases sales.
	_, legs, err := f.svc.Transfer(f.bank.ID, f.sales.ID, usd("100.00"), date(2024, 1, 2), "")
	require.NoError(t, err)
	require.Len(t, legs, 2)

	assert.Equal(t, "-100.00", f.rawBalance(t, f.bank.ID))
	assert.Equal(t, "100.00", f.rawBalance(t, f.sales.ID))
}

func TestTransfer_ToNegativeSignAccount(t *testing.T) {
	f := newFixture(t)

	// Expenses has sign -1: legs keep their literal polarity.
	_, _, err := f.svc.Transfer(f.bank.ID, f.expenses.ID, usd("40.00"), date(2024, 1, 2), "rent")
	require.NoError(t, err)

	assert.Equal(t, "40.00", f.rawBalance(t, f.bank.ID))
	assert.Equal(t, "-40.00", f.rawBalance(t, f.expenses.ID))
}

func TestTransactionBalance_AlwaysZero(t *testing.T) {
	f := newFixture(t)

	tx, _, err := f.svc.Transfer(f.bank.ID, f.sales.ID, usd("55.55"), date(2024, 2, 2), "")
	require.NoError(t, err)

	sum, err := f.svc.TransactionBalance(tx.ID)
	require.NoError(t, err)
	assert.True(t, sum.IsZero())
}
