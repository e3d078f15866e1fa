package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tally-dev/tally/internal/id"
	"github.com/tally-dev/tally/internal/money"
)

func newTransferCommand() *cobra.Command {
	var date string
	var description string

	cmd := &cobra.Command{
		Use:   "transfer <from-code> <to-code> <amount>",
		Short: "Move money between two accounts",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openProject(projectDir(cmd))
			if err != nil {
				return err
			}
			defer p.close()

			from, err := p.resolveAccount(args[0])
			if err != nil {
				return err
			}
			to, err := p.resolveAccount(args[1])
			if err != nil {
				return err
			}
			amount, err := money.FromString(args[2], p.cfg.Ledger.Currency)
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", args[2], err)
			}
			txDate, err := parseDateFlag(date)
			if err != nil {
				return err
			}

			tx, _, err := p.ledger().Transfer(from.ID, to.ID, amount, txDate, description)
			if err != nil {
				return err
			}

			p.audit("transfer", tx.ID.String(),
				fmt.Sprintf("%s %s -> %s", amount, args[0], args[1]))
			fmt.Printf("Transferred %s from %s to %s (%s)\n",
				amount, from.Name, to.Name, id.Short(tx.ID))
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "transaction date (YYYY-MM-DD, defaults to today)")
	cmd.Flags().StringVar(&description, "desc", "", "transaction description")

	return cmd
}
