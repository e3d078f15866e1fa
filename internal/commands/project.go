package commands

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/tally-dev/tally/internal/accounttree"
	"github.com/tally-dev/tally/internal/auditlog"
	"github.com/tally-dev/tally/internal/balance"
	"github.com/tally-dev/tally/internal/config"
	"github.com/tally-dev/tally/internal/ledger"
	"github.com/tally-dev/tally/internal/model"
	"github.com/tally-dev/tally/internal/statement"
	"github.com/tally-dev/tally/internal/store"
)

// project bundles the open collaborators for one tally project
// directory.
type project struct {
	root  string
	cfg   *config.Config
	store *store.SQLite
	tree  *accounttree.Tree
}

func openProject(dir string) (*project, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}

	cfg, err := config.Load(filepath.Join(root, config.FileName))
	if err != nil {
		return nil, fmt.Errorf("not a tally project (run tally init?): %w", err)
	}

	st, err := store.Open(filepath.Join(root, cfg.Ledger.Database))
	if err != nil {
		return nil, err
	}

	accounts, err := st.Accounts()
	if err != nil {
		st.Close()
		return nil, err
	}
	tree, err := accounttree.Load(accounts)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("loading account tree: %w", err)
	}

	return &project{root: root, cfg: cfg, store: st, tree: tree}, nil
}

func (p *project) close() {
	p.store.Close()
}

func (p *project) ledger() *ledger.Service {
	return ledger.NewService(p.tree, p.store)
}

func (p *project) engine() *balance.Engine {
	return balance.NewEngine(p.tree, p.store, p.cfg.Ledger.Currency)
}

func (p *project) statements() *statement.Service {
	return statement.NewService(p.tree, p.store, p.cfg.Ledger.Currency)
}

// resolveAccount looks an account up by its full code.
func (p *project) resolveAccount(fullCode string) (model.Account, error) {
	a, ok := p.tree.ByFullCode(fullCode)
	if !ok {
		return model.Account{}, fmt.Errorf("no account with code %q", fullCode)
	}
	return a, nil
}

// audit appends one audit log entry; failures are reported, not fatal.
func (p *project) audit(action, entityID, details string) {
	err := auditlog.Append(p.root, []auditlog.Entry{{
		Timestamp: time.Now().UTC(),
		Action:    action,
		EntityID:  entityID,
		Details:   details,
	}})
	if err != nil {
		fmt.Printf("warning: audit log: %v\n", err)
	}
}
