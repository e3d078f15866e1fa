package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tally-dev/tally/internal/config"
	"github.com/tally-dev/tally/internal/importer"
	"github.com/tally-dev/tally/internal/statement"
)

func newImportCommand() *cobra.Command {
	var format string
	var accountCode string

	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Import bank statement files",
		Long: `Import one statement file, or scan the project's import/ directory
for new files. Scanned files are matched to the bank accounts in
tally.yaml by the account's last four digits appearing in the file
name; matched files move to import/processed/ after importing.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openProject(projectDir(cmd))
			if err != nil {
				return err
			}
			defer p.close()

			registry := importer.DefaultRegistry()

			if len(args) == 1 {
				if accountCode == "" {
					return fmt.Errorf("--account is required when importing a single file")
				}
				n, err := importFile(p, registry, args[0], format, accountCode)
				if err != nil {
					return err
				}
				fmt.Printf("Imported %d statement lines from %s\n", n, args[0])
				return nil
			}

			files, err := importer.Scan(p.root)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				fmt.Println("No statement files in import/")
				return nil
			}

			for _, f := range files {
				bank, ok := matchBankAccount(p.cfg.BankAccounts, f.Name)
				if !ok {
					fmt.Printf("Skipping %s: no bank account in %s matches\n", f.Name, config.FileName)
					continue
				}
				n, err := importFile(p, registry, f.Path, bank.Format, bank.AccountCode)
				if err != nil {
					return fmt.Errorf("importing %s: %w", f.Name, err)
				}
				if err := importer.MarkProcessed(p.root, f.Name); err != nil {
					return err
				}
				fmt.Printf("Imported %d statement lines from %s into %s\n", n, f.Name, bank.AccountCode)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "chase", "statement file format")
	cmd.Flags().StringVar(&accountCode, "account", "", "full code of the bank account")

	return cmd
}

// importFile parses one statement file and records the import.
func importFile(p *project, registry *importer.Registry, path, format, accountCode string) (int, error) {
	parser := registry.Get(format)
	if parser == nil {
		return 0, fmt.Errorf("unknown statement format %q (have: %s)",
			format, strings.Join(registry.Formats(), ", "))
	}
	account, err := p.resolveAccount(accountCode)
	if err != nil {
		return 0, err
	}

	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	parsed, err := parser.Parse(f)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", path, err)
	}

	lines := make([]statement.LineInput, len(parsed))
	for i, l := range parsed {
		lines[i] = statement.LineInput{
			Date:        l.Date,
			Amount:      l.Amount,
			Description: l.Description,
		}
	}
	imp, _, err := p.statements().CreateImport(account.ID, lines)
	if err != nil {
		return 0, err
	}

	p.audit("statement.import", imp.ID.String(),
		fmt.Sprintf("%d lines into %s", len(lines), accountCode))
	return len(lines), nil
}

// matchBankAccount pairs a statement file with a configured bank
// account by its last-four digits appearing in the file name.
func matchBankAccount(accounts []config.BankAccount, fileName string) (config.BankAccount, bool) {
	for _, a := range accounts {
		if a.LastFour != "" && strings.Contains(fileName, a.LastFour) {
			return a, true
		}
	}
	return config.BankAccount{}, false
}
