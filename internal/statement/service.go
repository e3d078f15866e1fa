// Package statement manages bank statement imports and reconciles
// their lines into ledger transactions.
package statement

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tally-dev/tally/internal/accounttree"
	"github.com/tally-dev/tally/internal/id"
	"github.com/tally-dev/tally/internal/ledger"
	"github.com/tally-dev/tally/internal/model"
	"github.com/tally-dev/tally/internal/money"
	"github.com/tally-dev/tally/internal/store"
)

// AlreadyReconciledError reports a second reconciliation attempt on a
// line that already has a transaction attached.
type AlreadyReconciledError struct {
	LineID        uuid.UUID
	TransactionID uuid.UUID
}

func (e AlreadyReconciledError) Error() string {
	return fmt.Sprintf("statement line %s is already reconciled to transaction %s",
		e.LineID, e.TransactionID)
}

// LineInput is one parsed statement row to import. Amount carries the
// bank's sign convention: positive for money in.
type LineInput struct {
	Date        time.Time
	Amount      decimal.Decimal
	Description string
}

// Service imports statements and reconciles their lines.
type Service struct {
	tree     *accounttree.Tree
	store    store.Store
	currency string
}

// NewService creates a statement Service.
func NewService(tree *accounttree.Tree, st store.Store, currency string) *Service {
	return &Service{tree: tree, store: st, currency: currency}
}

// CreateImport records a new statement import for a bank account. The
// account must be flagged as having statements.
func (s *Service) CreateImport(bankAccountID uuid.UUID, lines []LineInput) (model.StatementImport, []model.StatementLine, error) {
	bank, ok := s.tree.Get(bankAccountID)
	if !ok {
		return model.StatementImport{}, nil, fmt.Errorf("account %s not registered", bankAccountID)
	}
	if !bank.HasStatements {
		return model.StatementImport{}, nil, fmt.Errorf("account %q does not take statements", bank.Name)
	}

	now := time.Now().UTC()
	imp := model.StatementImport{
		ID:            id.New(),
		Timestamp:     now,
		BankAccountID: bankAccountID,
	}
	records := make([]model.StatementLine, len(lines))
	for i, in := range lines {
		records[i] = model.StatementLine{
			ID:          id.New(),
			Timestamp:   now,
			Date:        in.Date,
			ImportID:    imp.ID,
			Amount:      in.Amount,
			Description: in.Description,
		}
	}

	err := s.store.Atomically(func(uow store.UnitOfWork) error {
		if err := uow.CreateStatementImport(imp); err != nil {
			return err
		}
		return uow.CreateStatementLines(records)
	})
	if err != nil {
		return model.StatementImport{}, nil, fmt.Errorf("committing statement import: %w", err)
	}
	return imp, records, nil
}

// Unreconciled returns all statement lines awaiting reconciliation.
func (s *Service) Unreconciled() ([]model.StatementLine, error) {
	return s.store.UnreconciledLines()
}

// Reconcile creates the balanced transaction for a statement line and
// attaches it to the line, all in one unit of work. The bank account
// leg carries the negation of the statement amount, flipping the
// bank's sign convention into ledger debit polarity; the target
// account leg carries the statement amount as-is. The transaction
// takes the line's date.
//
// A line reconciles at most once; nothing is written on failure.
func (s *Service) Reconcile(lineID, toAccountID uuid.UUID) (model.Transaction, error) {
	line, err := s.store.StatementLine(lineID)
	if err != nil {
		return model.Transaction{}, err
	}
	if line.IsReconciled() {
		return model.Transaction{}, AlreadyReconciledError{
			LineID:        line.ID,
			TransactionID: line.TransactionID,
		}
	}
	imp, err := s.store.StatementImport(line.ImportID)
	if err != nil {
		return model.Transaction{}, err
	}
	if !s.tree.Has(toAccountID) {
		return model.Transaction{}, fmt.Errorf("account %s not registered", toAccountID)
	}

	bankAmount := money.New(line.Amount.Neg(), s.currency)
	legs := []ledger.LegInput{
		{AccountID: imp.BankAccountID, Amount: bankAmount, Description: line.Description},
		{AccountID: toAccountID, Amount: bankAmount.Neg(), Description: line.Description},
	}
	if err := ledger.ValidateLegs(legs); err != nil {
		return model.Transaction{}, err
	}

	now := time.Now().UTC()
	tx := model.Transaction{
		ID:          id.New(),
		Timestamp:   now,
		Date:        line.Date,
		Description: line.Description,
	}
	records := make([]model.Leg, len(legs))
	for i, in := range legs {
		records[i] = model.Leg{
			ID:            id.New(),
			TransactionID: tx.ID,
			AccountID:     in.AccountID,
			Amount:        in.Amount,
			Description:   in.Description,
		}
	}

	err = s.store.Atomically(func(uow store.UnitOfWork) error {
		if err := uow.CreateTransaction(tx, records); err != nil {
			return err
		}
		return uow.AttachTransaction(line.ID, tx.ID)
	})
	if err != nil {
		return model.Transaction{}, fmt.Errorf("committing reconciliation: %w", err)
	}
	return tx, nil
}
