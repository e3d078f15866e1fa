// Package ledger creates balanced transactions against the account
// tree and backing store.
package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tally-dev/tally/internal/accounttree"
	"github.com/tally-dev/tally/internal/id"
	"github.com/tally-dev/tally/internal/model"
	"github.com/tally-dev/tally/internal/money"
	"github.com/tally-dev/tally/internal/store"
)

// Service provides transaction creation. All multi-row writes go
// through one store unit of work, so a failed validation or write
// persists nothing.
type Service struct {
	tree  *accounttree.Tree
	store store.Store
}

// NewService creates a ledger Service over a tree and store.
func NewService(tree *accounttree.Tree, st store.Store) *Service {
	return &Service{tree: tree, store: st}
}

// CreateParams holds parameters for creating a transaction.
type CreateParams struct {
	Date        time.Time // defaults to now
	Description string
	Legs        []LegInput
}

// CreateTransaction validates the legs and commits the transaction
// and all of its legs atomically. On any validation error nothing is
// persisted.
func (s *Service) CreateTransaction(p CreateParams) (model.Transaction, []model.Leg, error) {
	if err := ValidateLegs(p.Legs); err != nil {
		return model.Transaction{}, nil, err
	}
	for _, leg := range p.Legs {
		if !s.tree.Has(leg.AccountID) {
			return model.Transaction{}, nil, fmt.Errorf("account %s not registered", leg.AccountID)
		}
	}

	now := time.Now().UTC()
	txDate := p.Date
	if txDate.IsZero() {
		txDate = now
	}
	// Transaction dates have day granularity; a time of day would make
	// same-day as-of queries store-dependent.
	txDate = time.Date(txDate.Year(), txDate.Month(), txDate.Day(), 0, 0, 0, 0, time.UTC)
	tx := model.Transaction{
		ID:          id.New(),
		Timestamp:   now,
		Date:        txDate,
		Description: p.Description,
	}
	legs := make([]model.Leg, len(p.Legs))
	for i, in := range p.Legs {
		legs[i] = model.Leg{
			ID:            id.New(),
			TransactionID: tx.ID,
			AccountID:     in.AccountID,
			Amount:        in.Amount,
			Description:   in.Description,
		}
	}

	err := s.store.Atomically(func(uow store.UnitOfWork) error {
		return uow.CreateTransaction(tx, legs)
	})
	if err != nil {
		return model.Transaction{}, nil, fmt.Errorf("committing transaction: %w", err)
	}
	return tx, legs, nil
}

// Transfer records a movement of amount from one account to another
// as a 2-leg transaction.
//
// When the destination's sign is +1 the legs are (from, -amount) and
// (to, +amount), so "transfer 10 to an asset account" reads as an
// increase in that account's displayed balance; for a -1 destination
// the polarity flips. The original behavior of this rule is kept
// as-is, including where it surprises.
func (s *Service) Transfer(fromID, toID uuid.UUID, amount money.Money, date time.Time, description string) (model.Transaction, []model.Leg, error) {
	toSign, err := s.tree.Sign(toID)
	if err != nil {
		return model.Transaction{}, nil, err
	}
	direction := int64(1)
	if toSign == 1 {
		direction = -1
	}

	return s.CreateTransaction(CreateParams{
		Date:        date,
		Description: description,
		Legs: []LegInput{
			{AccountID: fromID, Amount: amount.MulInt(direction)},
			{AccountID: toID, Amount: amount.MulInt(-direction)},
		},
	})
}

// TransactionBalance sums the legs of a stored transaction. A
// committed transaction always balances to zero; anything else means
// the write-time check was bypassed.
func (s *Service) TransactionBalance(transactionID uuid.UUID) (money.Money, error) {
	legs, err := s.store.Legs(transactionID)
	if err != nil {
		return money.Money{}, err
	}
	sum := money.Money{}
	for _, l := range legs {
		if sum, err = sum.Add(l.Amount); err != nil {
			return money.Money{}, err
		}
	}
	return sum, nil
}
