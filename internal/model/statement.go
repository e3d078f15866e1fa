package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StatementImport records one import of a bank statement against a
// bank account.
type StatementImport struct {
	ID            uuid.UUID
	Timestamp     time.Time
	BankAccountID uuid.UUID
}

// StatementLine is a single imported bank statement row. Lines have no
// effect on balances; they exist to drive reconciliation, which
// attaches a newly created balanced transaction to the line.
//
// Amount carries the bank's sign convention (positive = money in) and
// no currency; lines are kept forever as an audit trail.
type StatementLine struct {
	ID            uuid.UUID
	Timestamp     time.Time
	Date          time.Time
	ImportID      uuid.UUID
	Amount        decimal.Decimal
	Description   string
	TransactionID uuid.UUID // uuid.Nil until reconciled
}

// IsReconciled reports whether a transaction has been attached.
func (l StatementLine) IsReconciled() bool {
	return l.TransactionID != uuid.Nil
}
