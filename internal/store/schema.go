package store

// Schema defines the SQL statements to create the ledger tables.
//
// Amounts are stored as decimal strings and summed in Go so balance
// math stays exact. Dates are stored as YYYY-MM-DD, which compares
// correctly as text.
const Schema = `
CREATE TABLE IF NOT EXISTS accounts (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    parent_id TEXT REFERENCES accounts(id),
    code TEXT NOT NULL,
    account_type TEXT NOT NULL DEFAULT '',
    has_statements INTEGER NOT NULL DEFAULT 0,
    UNIQUE(parent_id, code)
);

-- UNIQUE(parent_id, code) does not cover roots: NULL parent_ids
-- compare distinct.
CREATE UNIQUE INDEX IF NOT EXISTS idx_accounts_root_code
    ON accounts(code) WHERE parent_id IS NULL;

CREATE TABLE IF NOT EXISTS transactions (
    id TEXT PRIMARY KEY,
    created_at TEXT NOT NULL,
    date TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS legs (
    id TEXT PRIMARY KEY,
    transaction_id TEXT NOT NULL REFERENCES transactions(id) ON DELETE CASCADE,
    account_id TEXT NOT NULL REFERENCES accounts(id),
    amount TEXT NOT NULL,
    currency TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_legs_account
    ON legs(account_id);

CREATE INDEX IF NOT EXISTS idx_legs_transaction
    ON legs(transaction_id);

CREATE TABLE IF NOT EXISTS statement_imports (
    id TEXT PRIMARY KEY,
    created_at TEXT NOT NULL,
    bank_account_id TEXT NOT NULL REFERENCES accounts(id)
);

CREATE TABLE IF NOT EXISTS statement_lines (
    id TEXT PRIMARY KEY,
    created_at TEXT NOT NULL,
    date TEXT NOT NULL,
    import_id TEXT NOT NULL REFERENCES statement_imports(id),
    amount TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    transaction_id TEXT REFERENCES transactions(id)
);

CREATE INDEX IF NOT EXISTS idx_statement_lines_import
    ON statement_lines(import_id);
`
