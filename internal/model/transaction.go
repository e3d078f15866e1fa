package model

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/tally-dev/tally/internal/money"
)

// Transaction is a balanced movement of funds between accounts. Every
// transaction owns two or more legs which sum to exactly zero.
type Transaction struct {
	ID          uuid.UUID
	Timestamp   time.Time // when the record was created
	Date        time.Time // when the transaction occurred
	Description string
}

// LegType distinguishes the two sides of an entry.
type LegType string

const (
	Debit  LegType = "debit"
	Credit LegType = "credit"
)

// ErrZeroAmountLeg reports a leg whose amount is zero. Legs are
// checked at creation time, so deriving a type from a zero amount
// means the write-time check was bypassed.
var ErrZeroAmountLeg = errors.New("leg amount is zero")

// Leg is one signed, single-currency entry in a transaction, posted to
// one account. Positive amounts are debits, negative amounts credits.
type Leg struct {
	ID            uuid.UUID
	TransactionID uuid.UUID
	AccountID     uuid.UUID
	Amount        money.Money
	Description   string
}

// Type returns Debit for a positive amount and Credit for a negative
// one. A zero amount is an error.
func (l Leg) Type() (LegType, error) {
	switch {
	case l.Amount.IsPositive():
		return Debit, nil
	case l.Amount.IsNegative():
		return Credit, nil
	default:
		return "", ErrZeroAmountLeg
	}
}

// IsDebit reports whether the leg is a debit.
func (l Leg) IsDebit() bool {
	t, err := l.Type()
	return err == nil && t == Debit
}

// IsCredit reports whether the leg is a credit.
func (l Leg) IsCredit() bool {
	t, err := l.Type()
	return err == nil && t == Credit
}
