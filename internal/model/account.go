package model

import "github.com/google/uuid"

// AccountType classifies root accounts in the chart of accounts.
// Non-root accounts inherit the type of their root ancestor.
type AccountType string

const (
	AccountTypeAsset     AccountType = "asset"
	AccountTypeLiability AccountType = "liability"
	AccountTypeIncome    AccountType = "income"
	AccountTypeExpense   AccountType = "expense"
	AccountTypeEquity    AccountType = "equity"
)

// Valid reports whether t is a known account type.
func (t AccountType) Valid() bool {
	switch t {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeIncome,
		AccountTypeExpense, AccountTypeEquity:
		return true
	}
	return false
}

// Sign returns -1 for asset and expense accounts, +1 otherwise.
//
// The signs follow from the expanded accounting equation
//
//	Assets = Liabilities + Equity + (Income - Expenses)
//
// rearranged as
//
//	0 = Liabilities + Equity + Income - Expenses - Assets
func (t AccountType) Sign() int64 {
	if t == AccountTypeAsset || t == AccountTypeExpense {
		return -1
	}
	return 1
}

// Account is one node in the chart of accounts.
//
// Type is stored only for root accounts; the effective type of any
// account is resolved through the tree. Code must be unique among
// siblings sharing the same parent.
type Account struct {
	ID            uuid.UUID
	Name          string
	ParentID      uuid.UUID // uuid.Nil = root account
	Code          string
	Type          AccountType // set on roots only
	HasStatements bool        // eligible for bank statement import
}

// IsRoot reports whether the account has no parent.
func (a Account) IsRoot() bool {
	return a.ParentID == uuid.Nil
}
