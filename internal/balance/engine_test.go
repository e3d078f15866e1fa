package balance

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tally-dev/tally/internal/accounttree"
	"github.com/tally-dev/tally/internal/ledger"
	"github.com/tally-dev/tally/internal/model"
	"github.com/tally-dev/tally/internal/money"
	"github.com/tally-dev/tally/internal/store"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func usd(s string) money.Money {
	return money.New(dec(s), "USD")
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type fixture struct {
	tree   *accounttree.Tree
	engine *Engine
	ledger *ledger.Service

	assets   model.Account
	bank     model.Account
	checking model.Account
	savings  model.Account
	sales    model.Account
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	tree := accounttree.New()
	st := store.NewMemory()

	f := &fixture{
		tree:   tree,
		engine: NewEngine(tree, st, "USD"),
		ledger: ledger.NewService(tree, st),
		assets: model.Account{ID: uuid.New(), Name: "Assets", Code: "1", Type: model.AccountTypeAsset},
		sales:  model.Account{ID: uuid.New(), Name: "Sales", Code: "4", Type: model.AccountTypeIncome},
	}
	f.bank = model.Account{ID: uuid.New(), Name: "Bank", Code: "1", ParentID: f.assets.ID}
	f.checking = model.Account{ID: uuid.New(), Name: "Checking", Code: "1", ParentID: f.bank.ID}
	f.savings = model.Account{ID: uuid.New(), Name: "Savings", Code: "2", ParentID: f.bank.ID}

	for _, a := range []model.Account{f.assets, f.sales, f.bank, f.checking, f.savings} {
		require.NoError(t, tree.Register(a))
		require.NoError(t, st.Atomically(func(uow store.UnitOfWork) error {
			return uow.SaveAccount(a)
		}))
	}
	return f
}

// sell posts amount from an asset account into sales on the given date.
func (f *fixture) sell(t *testing.T, assetID uuid.UUID, amount string, on time.Time) {
	t.Helper()
	_, _, err := f.ledger.CreateTransaction(ledger.CreateParams{
		Date: on,
		Legs: []ledger.LegInput{
			{AccountID: assetID, Amount: usd(amount).Neg()},
			{AccountID: f.sales.ID, Amount: usd(amount)},
		},
	})
	require.NoError(t, err)
}

func TestSimpleBalance_ExcludesDescendants(t *testing.T) {
	f := newFixture(t)
	f.sell(t, f.checking.ID, "100.00", date(2024, 1, 10))
	f.sell(t, f.bank.ID, "10.00", date(2024, 1, 11))

	b, err := f.engine.SimpleBalance(f.bank.ID, Query{Raw: true})
	require.NoError(t, err)
	assert.True(t, b.Equal(usd("-10.00")), b.String())

	b, err = f.engine.SimpleBalance(f.assets.ID, Query{Raw: true})
	require.NoError(t, err)
	assert.True(t, b.IsZero(), "no legs posted directly")
}

func TestBalance_AggregatesSubtree(t *testing.T) {
	f := newFixture(t)
	f.sell(t, f.checking.ID, "100.00", date(2024, 1, 10))
	f.sell(t, f.savings.ID, "50.00", date(2024, 1, 11))
	f.sell(t, f.bank.ID, "10.00", date(2024, 1, 12))

	b, err := f.engine.Balance(f.assets.ID, Query{Raw: true})
	require.NoError(t, err)
	assert.True(t, b.Equal(usd("-160.00")), b.String())

	b, err = f.engine.Balance(f.bank.ID, Query{Raw: true})
	require.NoError(t, err)
	assert.True(t, b.Equal(usd("-160.00")), b.String())

	b, err = f.engine.Balance(f.savings.ID, Query{Raw: true})
	require.NoError(t, err)
	assert.True(t, b.Equal(usd("-50.00")), b.String())
}

func TestBalance_DisplaySign(t *testing.T) {
	f := newFixture(t)
	f.sell(t, f.checking.ID, "100.00", date(2024, 1, 10))

	// Assets have sign -1: raw -100 displays as +100.
	b, err := f.engine.Balance(f.assets.ID, Query{})
	require.NoError(t, err)
	assert.True(t, b.Equal(usd("100.00")), b.String())

	// Income has sign +1: raw and displayed agree.
	b, err = f.engine.Balance(f.sales.ID, Query{})
	require.NoError(t, err)
	assert.True(t, b.Equal(usd("100.00")), b.String())
}

func TestBalance_AsOf(t *testing.T) {
	f := newFixture(t)
	f.sell(t, f.checking.ID, "100.00", date(2024, 1, 10))
	f.sell(t, f.savings.ID, "50.00", date(2024, 2, 10))

	asOf := date(2024, 1, 31)
	b, err := f.engine.Balance(f.assets.ID, Query{AsOf: &asOf, Raw: true})
	require.NoError(t, err)
	assert.True(t, b.Equal(usd("-100.00")), b.String())

	// A date before any transaction yields zero, not an error.
	early := date(2020, 1, 1)
	b, err = f.engine.Balance(f.assets.ID, Query{AsOf: &early, Raw: true})
	require.NoError(t, err)
	assert.True(t, b.IsZero())
}

// Balance with a restriction must equal the sum of restricted
// SimpleBalances over the subtree: filtering and aggregation commute.
func TestBalance_FilterAggregationCommute(t *testing.T) {
	f := newFixture(t)
	f.sell(t, f.checking.ID, "100.00", date(2024, 1, 10))
	f.sell(t, f.savings.ID, "50.00", date(2024, 2, 10))
	f.sell(t, f.bank.ID, "7.77", date(2024, 3, 10))

	for _, asOf := range []*time.Time{nil, ptr(date(2024, 1, 31)), ptr(date(2024, 2, 28)), ptr(date(2020, 1, 1))} {
		q := Query{AsOf: asOf, Raw: true}
		aggregated, err := f.engine.Balance(f.assets.ID, q)
		require.NoError(t, err)

		manual := money.Zero("USD")
		accounts, err := f.tree.Descendants(f.assets.ID, true)
		require.NoError(t, err)
		for _, a := range accounts {
			b, err := f.engine.SimpleBalance(a.ID, q)
			require.NoError(t, err)
			manual, err = manual.Add(b)
			require.NoError(t, err)
		}
		assert.True(t, aggregated.Equal(manual), "as_of=%v: %s != %s", asOf, aggregated, manual)
	}
}

func TestSimpleBalance_DescriptionFilter(t *testing.T) {
	f := newFixture(t)
	_, _, err := f.ledger.CreateTransaction(ledger.CreateParams{
		Date: date(2024, 1, 10),
		Legs: []ledger.LegInput{
			{AccountID: f.checking.ID, Amount: usd("-30.00"), Description: "rent"},
			{AccountID: f.sales.ID, Amount: usd("30.00"), Description: "rent"},
		},
	})
	require.NoError(t, err)
	f.sell(t, f.checking.ID, "100.00", date(2024, 1, 11))

	b, err := f.engine.SimpleBalance(f.checking.ID, Query{Description: "rent", Raw: true})
	require.NoError(t, err)
	assert.True(t, b.Equal(usd("-30.00")), b.String())
}

func TestNetBalance(t *testing.T) {
	f := newFixture(t)
	f.sell(t, f.checking.ID, "100.00", date(2024, 1, 10))

	net, err := f.engine.NetBalance([]uuid.UUID{f.assets.ID, f.sales.ID}, Query{Raw: true})
	require.NoError(t, err)
	assert.True(t, net.IsZero(), net.String())
}

func TestCheckEquation(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.engine.CheckEquation(), "empty ledger balances")

	f.sell(t, f.checking.ID, "100.00", date(2024, 1, 10))
	f.sell(t, f.savings.ID, "2.50", date(2024, 1, 12))
	require.NoError(t, f.engine.CheckEquation())
}

func TestCheckEquation_DetectsCorruption(t *testing.T) {
	f := newFixture(t)

	// Write an unbalanced transaction straight into the store,
	// bypassing the ledger's invariant enforcement.
	st := store.NewMemory()
	engine := NewEngine(f.tree, st, "USD")
	tx := model.Transaction{ID: uuid.New(), Timestamp: time.Now(), Date: date(2024, 1, 1)}
	require.NoError(t, st.Atomically(func(uow store.UnitOfWork) error {
		return uow.CreateTransaction(tx, []model.Leg{
			{ID: uuid.New(), TransactionID: tx.ID, AccountID: f.checking.ID, Amount: usd("-100.00")},
			{ID: uuid.New(), TransactionID: tx.ID, AccountID: f.sales.ID, Amount: usd("99.00")},
		})
	}))

	err := engine.CheckEquation()
	var violation EquationViolationError
	require.ErrorAs(t, err, &violation)
	assert.True(t, violation.Sum.Equal(usd("-1.00")), violation.Sum.String())
}

func ptr(t time.Time) *time.Time { return &t }
