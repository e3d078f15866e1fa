package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tally-dev/tally/internal/id"
)

func newStatementsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "statements",
		Short: "List statement lines awaiting reconciliation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openProject(projectDir(cmd))
			if err != nil {
				return err
			}
			defer p.close()

			lines, err := p.statements().Unreconciled()
			if err != nil {
				return err
			}
			if len(lines) == 0 {
				fmt.Println("No unreconciled statement lines.")
				return nil
			}

			for _, line := range lines {
				fmt.Printf("%s  %s  %10s  %s\n",
					id.Short(line.ID), line.Date.Format(dateFormat), line.Amount, line.Description)
			}
			return nil
		},
	}
	return cmd
}
