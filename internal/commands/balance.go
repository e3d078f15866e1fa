package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tally-dev/tally/internal/balance"
)

func newBalanceCommand() *cobra.Command {
	var raw bool
	var asOf string
	var description string

	cmd := &cobra.Command{
		Use:   "balance [code]",
		Short: "Show account balances",
		Long: `Show the balance of one account including its descendants, or of
every root account when no code is given. Balances are shown in
display polarity unless --raw asks for ledger polarity.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openProject(projectDir(cmd))
			if err != nil {
				return err
			}
			defer p.close()

			q := balance.Query{Raw: raw, Description: description}
			if asOf != "" {
				d, err := time.Parse(dateFormat, asOf)
				if err != nil {
					return fmt.Errorf("invalid date %q, want YYYY-MM-DD", asOf)
				}
				q.AsOf = &d
			}
			engine := p.engine()

			if len(args) == 1 {
				a, err := p.resolveAccount(args[0])
				if err != nil {
					return err
				}
				bal, err := engine.Balance(a.ID, q)
				if err != nil {
					return err
				}
				fmt.Printf("%-30s %s\n", a.Name, bal)
				return nil
			}

			for _, root := range p.tree.Roots() {
				bal, err := engine.Balance(root.ID, q)
				if err != nil {
					return err
				}
				fmt.Printf("%-30s %s\n", root.Name, bal)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "show ledger polarity without the display-sign adjustment")
	cmd.Flags().StringVar(&asOf, "as-of", "", "include only transactions dated on or before this date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&description, "desc", "", "restrict to legs with exactly this description")

	return cmd
}
