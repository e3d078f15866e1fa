package store

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tally-dev/tally/internal/model"
)

// Memory is an in-memory Store. It backs tests and keeps the same
// all-or-nothing unit-of-work semantics as the SQLite store by
// snapshotting state before each scope and restoring it on failure.
type Memory struct {
	mu           sync.Mutex
	accounts     map[uuid.UUID]model.Account
	transactions map[uuid.UUID]model.Transaction
	legs         map[uuid.UUID]model.Leg
	imports      map[uuid.UUID]model.StatementImport
	lines        map[uuid.UUID]model.StatementLine
}

var _ Store = (*Memory)(nil)

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		accounts:     make(map[uuid.UUID]model.Account),
		transactions: make(map[uuid.UUID]model.Transaction),
		legs:         make(map[uuid.UUID]model.Leg),
		imports:      make(map[uuid.UUID]model.StatementImport),
		lines:        make(map[uuid.UUID]model.StatementLine),
	}
}

// Atomically runs fn against a snapshot-guarded view; on error every
// write in the scope is discarded.
func (m *Memory) Atomically(fn func(UnitOfWork) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.clone()
	if err := fn(&memoryUoW{store: m}); err != nil {
		m.restore(snapshot)
		return err
	}
	return nil
}

// Accounts returns all stored accounts.
func (m *Memory) Accounts() ([]model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Account, 0, len(m.accounts))
	for _, a := range m.accounts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

// Transaction returns one transaction by id.
func (m *Memory) Transaction(id uuid.UUID) (model.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.transactions[id]
	if !ok {
		return model.Transaction{}, fmt.Errorf("transaction %s: %w", id, ErrNotFound)
	}
	return tx, nil
}

// Legs returns the legs of a transaction.
func (m *Memory) Legs(transactionID uuid.UUID) ([]model.Leg, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Leg
	for _, l := range m.legs {
		if l.TransactionID == transactionID {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

// SumLegAmounts sums leg amounts posted directly to the account.
func (m *Memory) SumLegAmounts(accountID uuid.UUID, opts LegSumOptions) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sum := decimal.Zero
	for _, l := range m.legs {
		if l.AccountID != accountID {
			continue
		}
		if opts.AsOf != nil {
			tx := m.transactions[l.TransactionID]
			if dayOf(tx.Date).After(dayOf(*opts.AsOf)) {
				continue
			}
		}
		if opts.Description != "" && l.Description != opts.Description {
			continue
		}
		sum = sum.Add(l.Amount.Amount())
	}
	return sum, nil
}

// dayOf truncates a time to its calendar day, matching the YYYY-MM-DD
// granularity the SQLite store persists.
func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// AccountHasLegs reports whether any leg references the account.
func (m *Memory) AccountHasLegs(accountID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.legs {
		if l.AccountID == accountID {
			return true, nil
		}
	}
	return false, nil
}

// StatementImport returns one statement import by id.
func (m *Memory) StatementImport(id uuid.UUID) (model.StatementImport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	imp, ok := m.imports[id]
	if !ok {
		return model.StatementImport{}, fmt.Errorf("statement import %s: %w", id, ErrNotFound)
	}
	return imp, nil
}

// StatementLine returns one statement line by id.
func (m *Memory) StatementLine(id uuid.UUID) (model.StatementLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	line, ok := m.lines[id]
	if !ok {
		return model.StatementLine{}, fmt.Errorf("statement line %s: %w", id, ErrNotFound)
	}
	return line, nil
}

// UnreconciledLines returns all lines with no transaction attached,
// oldest date first.
func (m *Memory) UnreconciledLines() ([]model.StatementLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.StatementLine
	for _, line := range m.lines {
		if !line.IsReconciled() {
			out = append(out, line)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out, nil
}

// Close is a no-op for the in-memory store.
func (m *Memory) Close() error { return nil }

type memorySnapshot struct {
	accounts     map[uuid.UUID]model.Account
	transactions map[uuid.UUID]model.Transaction
	legs         map[uuid.UUID]model.Leg
	imports      map[uuid.UUID]model.StatementImport
	lines        map[uuid.UUID]model.StatementLine
}

func (m *Memory) clone() memorySnapshot {
	return memorySnapshot{
		accounts:     copyMap(m.accounts),
		transactions: copyMap(m.transactions),
		legs:         copyMap(m.legs),
		imports:      copyMap(m.imports),
		lines:        copyMap(m.lines),
	}
}

func (m *Memory) restore(s memorySnapshot) {
	m.accounts = s.accounts
	m.transactions = s.transactions
	m.legs = s.legs
	m.imports = s.imports
	m.lines = s.lines
}

func copyMap[K comparable, V any](src map[K]V) map[K]V {
	dst := make(map[K]V, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// memoryUoW applies writes directly; Atomically handles rollback.
type memoryUoW struct {
	store *Memory
}

func (u *memoryUoW) SaveAccount(a model.Account) error {
	if _, ok := u.store.accounts[a.ID]; ok {
		return fmt.Errorf("account %s already exists", a.ID)
	}
	for _, other := range u.store.accounts {
		if other.ParentID == a.ParentID && other.Code == a.Code {
			return fmt.Errorf("account code %q already in use under the same parent", a.Code)
		}
	}
	u.store.accounts[a.ID] = a
	return nil
}

func (u *memoryUoW) UpdateAccount(a model.Account) error {
	if _, ok := u.store.accounts[a.ID]; !ok {
		return fmt.Errorf("account %s: %w", a.ID, ErrNotFound)
	}
	u.store.accounts[a.ID] = a
	return nil
}

func (u *memoryUoW) DeleteAccount(id uuid.UUID) error {
	if _, ok := u.store.accounts[id]; !ok {
		return fmt.Errorf("account %s: %w", id, ErrNotFound)
	}
	for _, l := range u.store.legs {
		if l.AccountID == id {
			return fmt.Errorf("account %s still has legs", id)
		}
	}
	delete(u.store.accounts, id)
	return nil
}

func (u *memoryUoW) CreateTransaction(tx model.Transaction, legs []model.Leg) error {
	if _, ok := u.store.transactions[tx.ID]; ok {
		return fmt.Errorf("transaction %s already exists", tx.ID)
	}
	u.store.transactions[tx.ID] = tx
	for _, l := range legs {
		u.store.legs[l.ID] = l
	}
	return nil
}

func (u *memoryUoW) CreateStatementImport(imp model.StatementImport) error {
	u.store.imports[imp.ID] = imp
	return nil
}

func (u *memoryUoW) CreateStatementLines(lines []model.StatementLine) error {
	for _, line := range lines {
		u.store.lines[line.ID] = line
	}
	return nil
}

func (u *memoryUoW) AttachTransaction(lineID, transactionID uuid.UUID) error {
	line, ok := u.store.lines[lineID]
	if !ok {
		return fmt.Errorf("statement line %s: %w", lineID, ErrNotFound)
	}
	line.TransactionID = transactionID
	u.store.lines[lineID] = line
	return nil
}
