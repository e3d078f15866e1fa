package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tally-dev/tally/internal/id"
	"github.com/tally-dev/tally/internal/ledger"
	"github.com/tally-dev/tally/internal/money"
)

const dateFormat = "2006-01-02"

func newTxCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tx",
		Short: "Work with ledger transactions",
	}

	cmd.AddCommand(newTxAddCommand())
	cmd.AddCommand(newTxShowCommand())

	return cmd
}

func newTxAddCommand() *cobra.Command {
	var date string
	var description string
	var legSpecs []string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a balanced transaction",
		Long: `Record a transaction from two or more legs. Each --leg takes the
form CODE=AMOUNT where CODE is an account's full code and AMOUNT is a
signed decimal (positive debits, negative credits). The legs must sum
to exactly zero.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openProject(projectDir(cmd))
			if err != nil {
				return err
			}
			defer p.close()

			txDate, err := parseDateFlag(date)
			if err != nil {
				return err
			}
			legs, err := parseLegs(p, legSpecs)
			if err != nil {
				return err
			}

			tx, _, err := p.ledger().CreateTransaction(ledger.CreateParams{
				Date:        txDate,
				Description: description,
				Legs:        legs,
			})
			if err != nil {
				return err
			}

			p.audit("tx.add", tx.ID.String(), description)
			fmt.Printf("Recorded transaction %s\n", id.Short(tx.ID))
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "transaction date (YYYY-MM-DD, defaults to today)")
	cmd.Flags().StringVar(&description, "desc", "", "transaction description")
	cmd.Flags().StringArrayVar(&legSpecs, "leg", nil, "leg as CODE=AMOUNT (repeat at least twice)")

	return cmd
}

func newTxShowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <transaction-id>",
		Short: "Show a transaction and its legs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openProject(projectDir(cmd))
			if err != nil {
				return err
			}
			defer p.close()

			txID, err := id.Parse(args[0])
			if err != nil {
				return err
			}
			tx, err := p.store.Transaction(txID)
			if err != nil {
				return err
			}
			legs, err := p.store.Legs(txID)
			if err != nil {
				return err
			}

			fmt.Printf("%s  %s  %s\n", id.Short(tx.ID), tx.Date.Format(dateFormat), tx.Description)
			for _, leg := range legs {
				fullCode, err := p.tree.FullCode(leg.AccountID)
				if err != nil {
					return err
				}
				account, _ := p.tree.Get(leg.AccountID)
				typ, err := leg.Type()
				if err != nil {
					return err
				}
				fmt.Printf("  %-8s %-30s %10s  %s\n", fullCode, account.Name, leg.Amount, typ)
			}
			return nil
		},
	}
	return cmd
}

// parseLegs turns CODE=AMOUNT specs into validated leg inputs in the
// project currency.
func parseLegs(p *project, specs []string) ([]ledger.LegInput, error) {
	legs := make([]ledger.LegInput, 0, len(specs))
	for _, spec := range specs {
		code, amount, ok := strings.Cut(spec, "=")
		if !ok {
			return nil, fmt.Errorf("invalid leg %q, want CODE=AMOUNT", spec)
		}
		account, err := p.resolveAccount(code)
		if err != nil {
			return nil, err
		}
		m, err := money.FromString(amount, p.cfg.Ledger.Currency)
		if err != nil {
			return nil, fmt.Errorf("invalid leg amount %q: %w", amount, err)
		}
		legs = append(legs, ledger.LegInput{AccountID: account.ID, Amount: m})
	}
	return legs, nil
}

func parseDateFlag(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	d, err := time.Parse(dateFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return d, nil
}
