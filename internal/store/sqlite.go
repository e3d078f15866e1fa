package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"github.com/shopspring/decimal"

	"github.com/tally-dev/tally/internal/model"
	"github.com/tally-dev/tally/internal/money"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

const (
	dateFormat = "2006-01-02"
	timeFormat = time.RFC3339
)

// SQLite is a Store backed by a local SQLite database. WAL mode and
// foreign key enforcement are enabled on open.
type SQLite struct {
	db     *sql.DB
	dbPath string
}

var _ Store = (*SQLite)(nil)

// Open opens (and if needed creates) the database at dbPath and
// initializes the schema.
func Open(dbPath string) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	connStr := fmt.Sprintf("file:%s?_foreign_keys=on&_journal_mode=WAL", dbPath)
	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return &SQLite{db: db, dbPath: dbPath}, nil
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *SQLite) Path() string {
	return s.dbPath
}

// Atomically runs fn inside a database transaction. The transaction is
// rolled back if fn returns an error or panics.
func (s *SQLite) Atomically(fn func(UnitOfWork) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(&sqliteUoW{tx: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("unit of work failed: %v, rollback failed: %w", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing: %w", err)
	}
	return nil
}

// Accounts returns all stored accounts.
func (s *SQLite) Accounts() ([]model.Account, error) {
	rows, err := s.db.Query(
		`SELECT id, name, parent_id, code, account_type, has_statements FROM accounts`)
	if err != nil {
		return nil, fmt.Errorf("querying accounts: %w", err)
	}
	defer rows.Close()

	var accounts []model.Account
	for rows.Next() {
		var a model.Account
		var id string
		var parent sql.NullString
		var hasStatements int
		if err := rows.Scan(&id, &a.Name, &parent, &a.Code, &a.Type, &hasStatements); err != nil {
			return nil, fmt.Errorf("scanning account: %w", err)
		}
		if a.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parsing account id %q: %w", id, err)
		}
		if a.ParentID, err = parseNullableID(parent); err != nil {
			return nil, fmt.Errorf("parsing parent id: %w", err)
		}
		a.HasStatements = hasStatements != 0
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// Transaction returns one transaction by id.
func (s *SQLite) Transaction(id uuid.UUID) (model.Transaction, error) {
	row := s.db.QueryRow(
		`SELECT id, created_at, date, description FROM transactions WHERE id = ?`,
		id.String())
	return scanTransaction(row)
}

// Legs returns the legs of a transaction.
func (s *SQLite) Legs(transactionID uuid.UUID) ([]model.Leg, error) {
	rows, err := s.db.Query(
		`SELECT id, transaction_id, account_id, amount, currency, description
		 FROM legs WHERE transaction_id = ?`,
		transactionID.String())
	if err != nil {
		return nil, fmt.Errorf("querying legs: %w", err)
	}
	defer rows.Close()

	var legs []model.Leg
	for rows.Next() {
		var l model.Leg
		var legID, txID, acctID, amount, currency string
		if err := rows.Scan(&legID, &txID, &acctID, &amount, &currency, &l.Description); err != nil {
			return nil, fmt.Errorf("scanning leg: %w", err)
		}
		if l.ID, err = uuid.Parse(legID); err != nil {
			return nil, fmt.Errorf("parsing leg id %q: %w", legID, err)
		}
		if l.TransactionID, err = uuid.Parse(txID); err != nil {
			return nil, fmt.Errorf("parsing transaction id %q: %w", txID, err)
		}
		if l.AccountID, err = uuid.Parse(acctID); err != nil {
			return nil, fmt.Errorf("parsing account id %q: %w", acctID, err)
		}
		if l.Amount, err = money.FromString(amount, currency); err != nil {
			return nil, err
		}
		legs = append(legs, l)
	}
	return legs, rows.Err()
}

// SumLegAmounts sums leg amounts for one account. The rows are summed
// in Go with decimal arithmetic; SQL SUM would go through floats.
func (s *SQLite) SumLegAmounts(accountID uuid.UUID, opts LegSumOptions) (decimal.Decimal, error) {
	query := `SELECT l.amount FROM legs l
		JOIN transactions t ON t.id = l.transaction_id
		WHERE l.account_id = ?`
	args := []any{accountID.String()}
	if opts.AsOf != nil {
		query += ` AND t.date <= ?`
		args = append(args, opts.AsOf.Format(dateFormat))
	}
	if opts.Description != "" {
		query += ` AND l.description = ?`
		args = append(args, opts.Description)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return decimal.Zero, fmt.Errorf("querying leg amounts: %w", err)
	}
	defer rows.Close()

	sum := decimal.Zero
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return decimal.Zero, fmt.Errorf("scanning amount: %w", err)
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return decimal.Zero, fmt.Errorf("parsing amount %q: %w", raw, err)
		}
		sum = sum.Add(d)
	}
	return sum, rows.Err()
}

// AccountHasLegs reports whether any leg references the account.
func (s *SQLite) AccountHasLegs(accountID uuid.UUID) (bool, error) {
	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(1) FROM legs WHERE account_id = ?`, accountID.String()).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("counting legs: %w", err)
	}
	return n > 0, nil
}

// StatementImport returns one statement import by id.
func (s *SQLite) StatementImport(id uuid.UUID) (model.StatementImport, error) {
	var imp model.StatementImport
	var impID, createdAt, bankID string
	err := s.db.QueryRow(
		`SELECT id, created_at, bank_account_id FROM statement_imports WHERE id = ?`,
		id.String()).Scan(&impID, &createdAt, &bankID)
	if errors.Is(err, sql.ErrNoRows) {
		return imp, fmt.Errorf("statement import %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return imp, fmt.Errorf("querying statement import: %w", err)
	}
	if imp.ID, err = uuid.Parse(impID); err != nil {
		return imp, fmt.Errorf("parsing import id %q: %w", impID, err)
	}
	if imp.Timestamp, err = time.Parse(timeFormat, createdAt); err != nil {
		return imp, fmt.Errorf("parsing import timestamp %q: %w", createdAt, err)
	}
	if imp.BankAccountID, err = uuid.Parse(bankID); err != nil {
		return imp, fmt.Errorf("parsing bank account id %q: %w", bankID, err)
	}
	return imp, nil
}

// StatementLine returns one statement line by id.
func (s *SQLite) StatementLine(id uuid.UUID) (model.StatementLine, error) {
	row := s.db.QueryRow(
		`SELECT id, created_at, date, import_id, amount, description, transaction_id
		 FROM statement_lines WHERE id = ?`,
		id.String())
	line, err := scanStatementLine(row)
	if errors.Is(err, sql.ErrNoRows) {
		return line, fmt.Errorf("statement line %s: %w", id, ErrNotFound)
	}
	return line, err
}

// UnreconciledLines returns all statement lines with no transaction
// attached, oldest date first.
func (s *SQLite) UnreconciledLines() ([]model.StatementLine, error) {
	rows, err := s.db.Query(
		`SELECT id, created_at, date, import_id, amount, description, transaction_id
		 FROM statement_lines WHERE transaction_id IS NULL ORDER BY date, created_at`)
	if err != nil {
		return nil, fmt.Errorf("querying statement lines: %w", err)
	}
	defer rows.Close()

	var lines []model.StatementLine
	for rows.Next() {
		line, err := scanStatementLine(rows)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

// sqliteUoW applies writes on one *sql.Tx.
type sqliteUoW struct {
	tx *sql.Tx
}

func (u *sqliteUoW) SaveAccount(a model.Account) error {
	_, err := u.tx.Exec(
		`INSERT INTO accounts (id, name, parent_id, code, account_type, has_statements)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID.String(), a.Name, nullableID(a.ParentID), a.Code, string(a.Type),
		boolToInt(a.HasStatements))
	if err != nil {
		return fmt.Errorf("inserting account %q: %w", a.Name, err)
	}
	return nil
}

func (u *sqliteUoW) UpdateAccount(a model.Account) error {
	res, err := u.tx.Exec(
		`UPDATE accounts SET name = ?, parent_id = ?, code = ?, account_type = ?,
		 has_statements = ? WHERE id = ?`,
		a.Name, nullableID(a.ParentID), a.Code, string(a.Type),
		boolToInt(a.HasStatements), a.ID.String())
	if err != nil {
		return fmt.Errorf("updating account %s: %w", a.ID, err)
	}
	return requireRow(res, "account", a.ID)
}

func (u *sqliteUoW) DeleteAccount(id uuid.UUID) error {
	res, err := u.tx.Exec(`DELETE FROM accounts WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("deleting account %s: %w", id, err)
	}
	return requireRow(res, "account", id)
}

func (u *sqliteUoW) CreateTransaction(tx model.Transaction, legs []model.Leg) error {
	_, err := u.tx.Exec(
		`INSERT INTO transactions (id, created_at, date, description) VALUES (?, ?, ?, ?)`,
		tx.ID.String(), tx.Timestamp.Format(timeFormat), tx.Date.Format(dateFormat),
		tx.Description)
	if err != nil {
		return fmt.Errorf("inserting transaction: %w", err)
	}
	for _, l := range legs {
		_, err := u.tx.Exec(
			`INSERT INTO legs (id, transaction_id, account_id, amount, currency, description)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			l.ID.String(), l.TransactionID.String(), l.AccountID.String(),
			l.Amount.Amount().String(), l.Amount.Currency(), l.Description)
		if err != nil {
			return fmt.Errorf("inserting leg: %w", err)
		}
	}
	return nil
}

func (u *sqliteUoW) CreateStatementImport(imp model.StatementImport) error {
	_, err := u.tx.Exec(
		`INSERT INTO statement_imports (id, created_at, bank_account_id) VALUES (?, ?, ?)`,
		imp.ID.String(), imp.Timestamp.Format(timeFormat), imp.BankAccountID.String())
	if err != nil {
		return fmt.Errorf("inserting statement import: %w", err)
	}
	return nil
}

func (u *sqliteUoW) CreateStatementLines(lines []model.StatementLine) error {
	for _, line := range lines {
		_, err := u.tx.Exec(
			`INSERT INTO statement_lines (id, created_at, date, import_id, amount, description, transaction_id)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			line.ID.String(), line.Timestamp.Format(timeFormat),
			line.Date.Format(dateFormat), line.ImportID.String(),
			line.Amount.String(), line.Description, nullableID(line.TransactionID))
		if err != nil {
			return fmt.Errorf("inserting statement line: %w", err)
		}
	}
	return nil
}

func (u *sqliteUoW) AttachTransaction(lineID, transactionID uuid.UUID) error {
	res, err := u.tx.Exec(
		`UPDATE statement_lines SET transaction_id = ? WHERE id = ?`,
		transactionID.String(), lineID.String())
	if err != nil {
		return fmt.Errorf("attaching transaction to line %s: %w", lineID, err)
	}
	return requireRow(res, "statement line", lineID)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (model.Transaction, error) {
	var tx model.Transaction
	var txID, createdAt, date string
	err := row.Scan(&txID, &createdAt, &date, &tx.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return tx, fmt.Errorf("transaction: %w", ErrNotFound)
	}
	if err != nil {
		return tx, fmt.Errorf("scanning transaction: %w", err)
	}
	if tx.ID, err = uuid.Parse(txID); err != nil {
		return tx, fmt.Errorf("parsing transaction id %q: %w", txID, err)
	}
	if tx.Timestamp, err = time.Parse(timeFormat, createdAt); err != nil {
		return tx, fmt.Errorf("parsing timestamp %q: %w", createdAt, err)
	}
	if tx.Date, err = time.Parse(dateFormat, date); err != nil {
		return tx, fmt.Errorf("parsing date %q: %w", date, err)
	}
	return tx, nil
}

func scanStatementLine(row rowScanner) (model.StatementLine, error) {
	var line model.StatementLine
	var lineID, createdAt, date, impID, amount string
	var txID sql.NullString
	err := row.Scan(&lineID, &createdAt, &date, &impID, &amount, &line.Description, &txID)
	if err != nil {
		return line, err
	}
	if line.ID, err = uuid.Parse(lineID); err != nil {
		return line, fmt.Errorf("parsing line id %q: %w", lineID, err)
	}
	if line.Timestamp, err = time.Parse(timeFormat, createdAt); err != nil {
		return line, fmt.Errorf("parsing line timestamp %q: %w", createdAt, err)
	}
	if line.Date, err = time.Parse(dateFormat, date); err != nil {
		return line, fmt.Errorf("parsing line date %q: %w", date, err)
	}
	if line.ImportID, err = uuid.Parse(impID); err != nil {
		return line, fmt.Errorf("parsing import id %q: %w", impID, err)
	}
	if line.Amount, err = decimal.NewFromString(amount); err != nil {
		return line, fmt.Errorf("parsing line amount %q: %w", amount, err)
	}
	if line.TransactionID, err = parseNullableID(txID); err != nil {
		return line, fmt.Errorf("parsing line transaction id: %w", err)
	}
	return line, nil
}

func nullableID(id uuid.UUID) any {
	if id == uuid.Nil {
		return nil
	}
	return id.String()
}

func parseNullableID(s sql.NullString) (uuid.UUID, error) {
	if !s.Valid {
		return uuid.Nil, nil
	}
	return uuid.Parse(s.String)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func requireRow(res sql.Result, kind string, id uuid.UUID) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
	}
	return nil
}
