package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCheckCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify the accounting equation over the whole ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openProject(projectDir(cmd))
			if err != nil {
				return err
			}
			defer p.close()

			if err := p.engine().CheckEquation(); err != nil {
				return err
			}
			fmt.Println("Accounting equation holds.")
			return nil
		},
	}
	return cmd
}
