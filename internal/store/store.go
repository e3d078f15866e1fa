// Package store defines the persistence boundary for the ledger and
// provides SQLite and in-memory implementations.
package store

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tally-dev/tally/internal/model"
)

// LegSumOptions restricts which legs a sum covers.
type LegSumOptions struct {
	// AsOf includes only legs whose transaction date is on or before
	// this date.
	AsOf *time.Time
	// Description, when non-empty, matches legs with exactly this
	// description.
	Description string
}

// UnitOfWork collects writes that commit atomically or not at all.
// Any error returned from the scope discards every write in it.
type UnitOfWork interface {
	SaveAccount(a model.Account) error
	UpdateAccount(a model.Account) error
	DeleteAccount(id uuid.UUID) error

	// CreateTransaction persists a transaction together with all of
	// its legs.
	CreateTransaction(tx model.Transaction, legs []model.Leg) error

	CreateStatementImport(imp model.StatementImport) error
	CreateStatementLines(lines []model.StatementLine) error

	// AttachTransaction marks a statement line as reconciled against
	// a transaction.
	AttachTransaction(lineID, transactionID uuid.UUID) error
}

// Store is the ledger's backing store.
type Store interface {
	Accounts() ([]model.Account, error)

	Transaction(id uuid.UUID) (model.Transaction, error)
	Legs(transactionID uuid.UUID) ([]model.Leg, error)

	// SumLegAmounts sums the amounts of legs posted directly to the
	// account, subject to opts. No legs sums to zero.
	SumLegAmounts(accountID uuid.UUID, opts LegSumOptions) (decimal.Decimal, error)

	// AccountHasLegs reports whether any leg references the account.
	AccountHasLegs(accountID uuid.UUID) (bool, error)

	StatementImport(id uuid.UUID) (model.StatementImport, error)
	StatementLine(id uuid.UUID) (model.StatementLine, error)
	UnreconciledLines() ([]model.StatementLine, error)

	// Atomically runs fn inside one unit of work. If fn returns an
	// error the whole unit rolls back and the error is returned.
	// Reads needed by the scope must happen before entering it; fn
	// must not call back into the Store.
	Atomically(fn func(UnitOfWork) error) error

	Close() error
}
