package balance

import (
	"fmt"

	"github.com/tally-dev/tally/internal/money"
)

// EquationViolationError reports that the raw balances of all root
// accounts do not sum to zero. It signals corruption upstream of the
// ledger's write-time checks; repair is an audit task, never
// automatic.
type EquationViolationError struct {
	Sum money.Money
}

func (e EquationViolationError) Error() string {
	return fmt.Sprintf("account balances do not sum to zero, they sum to %s", e.Sum)
}

// CheckEquation verifies the accounting equation: the raw balances of
// every root account must sum to exactly zero. It is a pure
// consistency check and mutates nothing.
func (e *Engine) CheckEquation() error {
	total := money.Zero(e.currency)
	for _, root := range e.tree.Roots() {
		b, err := e.Balance(root.ID, Query{Raw: true})
		if err != nil {
			return err
		}
		if total, err = total.Add(b); err != nil {
			return err
		}
	}
	if !total.IsZero() {
		return EquationViolationError{Sum: total}
	}
	return nil
}
