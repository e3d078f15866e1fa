package ledger

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/tally-dev/tally/internal/money"
)

// InsufficientLegsError reports a transaction with fewer than two legs.
type InsufficientLegsError struct {
	Count int
}

func (e InsufficientLegsError) Error() string {
	return fmt.Sprintf("transaction needs at least 2 legs, got %d", e.Count)
}

// ZeroAmountLegError reports a leg with a zero amount.
type ZeroAmountLegError struct {
	AccountID uuid.UUID
}

func (e ZeroAmountLegError) Error() string {
	return fmt.Sprintf("leg for account %s has zero amount", e.AccountID)
}

// CurrencyMismatchError reports legs in more than one currency.
type CurrencyMismatchError struct {
	Want, Got string
}

func (e CurrencyMismatchError) Error() string {
	return fmt.Sprintf("legs mix currencies %s and %s", e.Want, e.Got)
}

// UnbalancedTransactionError reports legs that do not sum to zero.
type UnbalancedTransactionError struct {
	Sum money.Money
}

func (e UnbalancedTransactionError) Error() string {
	return fmt.Sprintf("transaction legs sum to %s, not zero", e.Sum)
}

// LegInput describes one leg of a transaction to be created.
type LegInput struct {
	AccountID   uuid.UUID
	Amount      money.Money
	Description string
}

// ValidateLegs enforces the write-time transaction invariants: at
// least two legs, no zero amounts, one currency, and an exact zero
// sum. The first violation is returned; nothing is mutated.
func ValidateLegs(legs []LegInput) error {
	if len(legs) < 2 {
		return InsufficientLegsError{Count: len(legs)}
	}

	currency := ""
	for _, leg := range legs {
		if leg.Amount.IsZero() {
			return ZeroAmountLegError{AccountID: leg.AccountID}
		}
		c := leg.Amount.Currency()
		if currency == "" {
			currency = c
		} else if c != "" && c != currency {
			return CurrencyMismatchError{Want: currency, Got: c}
		}
	}

	sum := money.Zero(currency)
	for _, leg := range legs {
		var err error
		if sum, err = sum.Add(leg.Amount); err != nil {
			return err
		}
	}
	if !sum.IsZero() {
		return UnbalancedTransactionError{Sum: sum}
	}
	return nil
}
