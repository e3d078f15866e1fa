package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tally-dev/tally/internal/accounttree"
	"github.com/tally-dev/tally/internal/config"
	"github.com/tally-dev/tally/internal/id"
	"github.com/tally-dev/tally/internal/model"
	"github.com/tally-dev/tally/internal/store"
)

func newInitCommand() *cobra.Command {
	var name string
	var currency string

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new tally project",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := projectDir(cmd)
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			return runInit(absDir, name, currency)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "business name (required)")
	_ = cmd.MarkFlagRequired("name")
	cmd.Flags().StringVar(&currency, "currency", "USD", "ledger currency code")

	return cmd
}

func runInit(dir, name, currency string) error {
	// Create directory structure.
	dirs := []string{
		"logs",
		"import",
		filepath.Join("import", "processed"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	// Write tally.yaml.
	cfg := config.Default(name, currency)
	if err := config.Save(filepath.Join(dir, config.FileName), cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	// Create the ledger database and seed the default chart.
	st, err := store.Open(filepath.Join(dir, cfg.Ledger.Database))
	if err != nil {
		return err
	}
	defer st.Close()

	chart := defaultChart()
	tree := accounttree.New()
	for _, a := range chart {
		if err := tree.Register(a); err != nil {
			return fmt.Errorf("building default chart: %w", err)
		}
	}
	err = st.Atomically(func(uow store.UnitOfWork) error {
		for _, a := range chart {
			if err := uow.SaveAccount(a); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("seeding chart of accounts: %w", err)
	}

	fmt.Printf("Initialized tally project at %s (%d accounts)\n", dir, len(chart))
	return nil
}

// defaultChart returns the starting chart of accounts: one root per
// account type, with a few common children. Parents come before
// children.
func defaultChart() []model.Account {
	assets := model.Account{ID: id.New(), Name: "Assets", Code: "1", Type: model.AccountTypeAsset}
	bank := model.Account{ID: id.New(), Name: "Bank", Code: "1", ParentID: assets.ID}
	checking := model.Account{ID: id.New(), Name: "Checking", Code: "1", ParentID: bank.ID, HasStatements: true}
	savings := model.Account{ID: id.New(), Name: "Savings", Code: "2", ParentID: bank.ID, HasStatements: true}

	liabilities := model.Account{ID: id.New(), Name: "Liabilities", Code: "2", Type: model.AccountTypeLiability}
	card := model.Account{ID: id.New(), Name: "Credit Card", Code: "1", ParentID: liabilities.ID, HasStatements: true}

	equity := model.Account{ID: id.New(), Name: "Equity", Code: "3", Type: model.AccountTypeEquity}
	capital := model.Account{ID: id.New(), Name: "Capital", Code: "1", ParentID: equity.ID}

	income := model.Account{ID: id.New(), Name: "Income", Code: "4", Type: model.AccountTypeIncome}
	sales := model.Account{ID: id.New(), Name: "Sales", Code: "1", ParentID: income.ID}

	expenses := model.Account{ID: id.New(), Name: "Expenses", Code: "5", Type: model.AccountTypeExpense}
	office := model.Account{ID: id.New(), Name: "Office", Code: "1", ParentID: expenses.ID}
	software := model.Account{ID: id.New(), Name: "Software", Code: "2", ParentID: expenses.ID}

	return []model.Account{
		assets, bank, checking, savings,
		liabilities, card,
		equity, capital,
		income, sales,
		expenses, office, software,
	}
}
