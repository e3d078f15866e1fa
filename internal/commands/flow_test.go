package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tally-dev/tally/internal/balance"
	"github.com/tally-dev/tally/internal/ledger"
	"github.com/tally-dev/tally/internal/money"
)

const chaseStatement = "Details,Posting Date,Description,Amount,Type,Balance,Check or Slip #\n" +
	"DEBIT,01/03/2025,GITHUB *PRO SUBSCRIPTION,-4.00,ACH_DEBIT,996.00,\n" +
	"CREDIT,01/15/2025,ACME CONSULTING INVOICE 1042,3500.00,ACH_CREDIT,4496.00,\n"

// displayed reads one account's displayed balance fresh from disk.
func displayed(t *testing.T, dir, fullCode string) string {
	t.Helper()
	p, err := openProject(dir)
	require.NoError(t, err)
	defer p.close()

	a, err := p.resolveAccount(fullCode)
	require.NoError(t, err)
	bal, err := p.engine().Balance(a.ID, balance.Query{})
	require.NoError(t, err)
	return bal.String()
}

func TestFlow_TransferAndSpend(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, runInit(dir, "Test Biz", "USD"))

	// Sales -> Checking, then pay for office supplies from Checking.
	require.NoError(t, runTally(t, dir, "transfer", "41", "111", "100", "--desc", "invoice 1"))
	require.NoError(t, runTally(t, dir, "tx", "add",
		"--leg", "111=25", "--leg", "51=-25", "--desc", "supplies"))

	assert.Equal(t, "75.00 USD", displayed(t, dir, "111"))
	assert.Equal(t, "100.00 USD", displayed(t, dir, "41"))
	assert.Equal(t, "25.00 USD", displayed(t, dir, "51"))

	require.NoError(t, runTally(t, dir, "check"))
}

func TestFlow_TxAddRejectsUnbalancedLegs(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, runInit(dir, "Test Biz", "USD"))

	err := runTally(t, dir, "tx", "add", "--leg", "111=25", "--leg", "51=-20")
	require.Error(t, err)

	assert.Equal(t, "0.00 USD", displayed(t, dir, "111"))
}

func TestFlow_TxShow(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, runInit(dir, "Test Biz", "USD"))

	p, err := openProject(dir)
	require.NoError(t, err)
	checking, err := p.resolveAccount("111")
	require.NoError(t, err)
	office, err := p.resolveAccount("51")
	require.NoError(t, err)
	tx, _, err := p.ledger().CreateTransaction(ledger.CreateParams{
		Description: "supplies",
		Legs: []ledger.LegInput{
			{AccountID: checking.ID, Amount: money.New(decimal.NewFromInt(25), "USD")},
			{AccountID: office.ID, Amount: money.New(decimal.NewFromInt(-25), "USD")},
		},
	})
	p.close()
	require.NoError(t, err)

	require.NoError(t, runTally(t, dir, "tx", "show", tx.ID.String()))

	require.Error(t, runTally(t, dir, "tx", "show", "not-an-id"))
}

func TestFlow_ImportAndReconcile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, runInit(dir, "Test Biz", "USD"))

	statementPath := filepath.Join(dir, "import", "checking_1234.csv")
	require.NoError(t, os.WriteFile(statementPath, []byte(chaseStatement), 0o644))

	require.NoError(t, runTally(t, dir, "import", statementPath, "--account", "111"))

	p, err := openProject(dir)
	require.NoError(t, err)
	lines, err := p.statements().Unreconciled()
	p.close()
	require.NoError(t, err)
	require.Len(t, lines, 2)
	// Oldest first: the GitHub charge precedes the invoice.
	assert.Equal(t, "GITHUB *PRO SUBSCRIPTION", lines[0].Description)

	// Money out of the bank posts to an expense account.
	require.NoError(t, runTally(t, dir, "reconcile", lines[0].ID.String(), "52"))
	assert.Equal(t, "-4.00 USD", displayed(t, dir, "111"))
	assert.Equal(t, "4.00 USD", displayed(t, dir, "52"))

	// Money in posts to income.
	require.NoError(t, runTally(t, dir, "reconcile", lines[1].ID.String(), "41"))
	assert.Equal(t, "3496.00 USD", displayed(t, dir, "111"))
	assert.Equal(t, "3500.00 USD", displayed(t, dir, "41"))

	// A line reconciles at most once.
	err = runTally(t, dir, "reconcile", lines[0].ID.String(), "51")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already reconciled")

	require.NoError(t, runTally(t, dir, "check"))
}

func TestFlow_ImportRequiresStatementAccount(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, runInit(dir, "Test Biz", "USD"))

	statementPath := filepath.Join(dir, "import", "checking_1234.csv")
	require.NoError(t, os.WriteFile(statementPath, []byte(chaseStatement), 0o644))

	// Sales does not take statements.
	err := runTally(t, dir, "import", statementPath, "--account", "41")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not take statements")
}

func TestFlow_AccountAddMoveRemove(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, runInit(dir, "Test Biz", "USD"))

	require.NoError(t, runTally(t, dir, "account", "add",
		"--name", "Travel", "--code", "3", "--parent", "5"))

	p, err := openProject(dir)
	require.NoError(t, err)
	travel, ok := p.tree.ByFullCode("53")
	p.close()
	require.True(t, ok)
	assert.Equal(t, "Travel", travel.Name)

	// Moving under Office changes the full code.
	require.NoError(t, runTally(t, dir, "account", "mv", "53", "51"))
	p, err = openProject(dir)
	require.NoError(t, err)
	_, under51 := p.tree.ByFullCode("513")
	p.close()
	assert.True(t, under51)

	require.NoError(t, runTally(t, dir, "account", "rm", "513"))
	p, err = openProject(dir)
	require.NoError(t, err)
	_, stillThere := p.tree.ByFullCode("513")
	p.close()
	assert.False(t, stillThere)
}

func TestFlow_RemoveAccountWithLegsFails(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, runInit(dir, "Test Biz", "USD"))
	require.NoError(t, runTally(t, dir, "transfer", "41", "111", "100"))

	err := runTally(t, dir, "account", "rm", "111")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot be removed")
}

func TestFlow_AuditLogRecordsMutations(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, runInit(dir, "Test Biz", "USD"))
	require.NoError(t, runTally(t, dir, "transfer", "41", "111", "100"))

	data, err := os.ReadFile(filepath.Join(dir, "logs", "audit-log.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "transfer")
}
