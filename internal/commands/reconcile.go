package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/google/uuid"

	"github.com/tally-dev/tally/internal/id"
)

func newReconcileCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconcile <line-id> <code>",
		Short: "Reconcile a statement line into a transaction",
		Long: `Reconcile one unreconciled statement line against a target account.
The line id may be the short prefix printed by "tally statements". The
bank side of the transaction comes from the line's import; the other
leg posts to the target account.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openProject(projectDir(cmd))
			if err != nil {
				return err
			}
			defer p.close()

			lineID, err := resolveLineID(p, args[0])
			if err != nil {
				return err
			}
			target, err := p.resolveAccount(args[1])
			if err != nil {
				return err
			}

			tx, err := p.statements().Reconcile(lineID, target.ID)
			if err != nil {
				return err
			}

			p.audit("reconcile", tx.ID.String(),
				fmt.Sprintf("line %s into %s", id.Short(lineID), args[1]))
			fmt.Printf("Reconciled line %s into %s (%s)\n",
				id.Short(lineID), target.Name, id.Short(tx.ID))
			return nil
		},
	}
	return cmd
}

// resolveLineID accepts a full line id or a unique prefix of an
// unreconciled line's id.
func resolveLineID(p *project, s string) (uuid.UUID, error) {
	if lineID, err := id.Parse(s); err == nil {
		return lineID, nil
	}

	lines, err := p.statements().Unreconciled()
	if err != nil {
		return uuid.Nil, err
	}
	var matches []uuid.UUID
	for _, line := range lines {
		if strings.HasPrefix(line.ID.String(), strings.ToLower(s)) {
			matches = append(matches, line.ID)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return uuid.Nil, fmt.Errorf("no unreconciled line matches %q", s)
	default:
		return uuid.Nil, fmt.Errorf("%d unreconciled lines match %q", len(matches), s)
	}
}
