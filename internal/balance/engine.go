// Package balance computes account balances from the tree and the
// stored legs, and checks the global accounting equation.
package balance

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tally-dev/tally/internal/accounttree"
	"github.com/tally-dev/tally/internal/money"
	"github.com/tally-dev/tally/internal/store"
)

// Query restricts and shapes a balance computation.
type Query struct {
	// AsOf includes only transactions dated on or before this date.
	AsOf *time.Time
	// Description, when non-empty, restricts to legs with exactly
	// this description.
	Description string
	// Raw skips the display-sign adjustment.
	Raw bool
}

// Engine answers balance queries. It is a pure read layer: every
// query goes back to the store, so a balance always reflects exactly
// the committed legs under the query's own restrictions.
type Engine struct {
	tree     *accounttree.Tree
	store    store.Store
	currency string
}

// NewEngine creates an Engine reporting in the ledger currency.
func NewEngine(tree *accounttree.Tree, st store.Store, currency string) *Engine {
	return &Engine{tree: tree, store: st, currency: currency}
}

// SimpleBalance sums the legs posted directly to the account,
// excluding descendants. An account with no legs balances to zero.
func (e *Engine) SimpleBalance(accountID uuid.UUID, q Query) (money.Money, error) {
	sum, err := e.store.SumLegAmounts(accountID, store.LegSumOptions{
		AsOf:        q.AsOf,
		Description: q.Description,
	})
	if err != nil {
		return money.Money{}, err
	}
	if !q.Raw {
		sign, err := e.tree.Sign(accountID)
		if err != nil {
			return money.Money{}, err
		}
		sum = sum.Mul(decimal.NewFromInt(sign))
	}
	return money.New(sum, e.currency), nil
}

// Balance sums SimpleBalance over the account and all of its
// descendants. Addition commutes, so the traversal order only fixes
// reproducibility, not the result.
func (e *Engine) Balance(accountID uuid.UUID, q Query) (money.Money, error) {
	accounts, err := e.tree.Descendants(accountID, true)
	if err != nil {
		return money.Money{}, err
	}

	// Sign adjustment distributes over the subtree: every descendant
	// inherits the root's type, so the sum is adjusted once.
	total := money.Zero(e.currency)
	rawQuery := Query{AsOf: q.AsOf, Description: q.Description, Raw: true}
	for _, a := range accounts {
		b, err := e.SimpleBalance(a.ID, rawQuery)
		if err != nil {
			return money.Money{}, err
		}
		if total, err = total.Add(b); err != nil {
			return money.Money{}, err
		}
	}
	if !q.Raw {
		sign, err := e.tree.Sign(accountID)
		if err != nil {
			return money.Money{}, err
		}
		total = total.MulInt(sign)
	}
	return total, nil
}

// NetBalance sums Balance over several accounts, e.g. all accounts of
// one type for reporting.
func (e *Engine) NetBalance(accountIDs []uuid.UUID, q Query) (money.Money, error) {
	total := money.Zero(e.currency)
	for _, id := range accountIDs {
		b, err := e.Balance(id, q)
		if err != nil {
			return money.Money{}, err
		}
		if total, err = total.Add(b); err != nil {
			return money.Money{}, err
		}
	}
	return total, nil
}
