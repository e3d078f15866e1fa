package commands

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/tally-dev/tally/internal/balance"
	"github.com/tally-dev/tally/internal/id"
	"github.com/tally-dev/tally/internal/model"
	"github.com/tally-dev/tally/internal/store"
)

func newAccountCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage the chart of accounts",
	}

	cmd.AddCommand(newAccountAddCommand())
	cmd.AddCommand(newAccountListCommand())
	cmd.AddCommand(newAccountTreeCommand())
	cmd.AddCommand(newAccountMvCommand())
	cmd.AddCommand(newAccountRmCommand())
	cmd.AddCommand(newAccountSetTypeCommand())

	return cmd
}

func newAccountAddCommand() *cobra.Command {
	var name string
	var code string
	var parent string
	var accountType string
	var hasStatements bool

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an account to the chart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openProject(projectDir(cmd))
			if err != nil {
				return err
			}
			defer p.close()

			a := model.Account{
				ID:            id.New(),
				Name:          name,
				Code:          code,
				HasStatements: hasStatements,
			}
			if parent != "" {
				parentAccount, err := p.resolveAccount(parent)
				if err != nil {
					return err
				}
				a.ParentID = parentAccount.ID
			} else {
				// Root accounts carry the type; children inherit it.
				typ := model.AccountType(accountType)
				if !typ.Valid() {
					return fmt.Errorf("root account needs a valid --type, got %q", accountType)
				}
				a.Type = typ
			}

			if err := p.tree.Register(a); err != nil {
				return err
			}
			err = p.store.Atomically(func(uow store.UnitOfWork) error {
				return uow.SaveAccount(a)
			})
			if err != nil {
				return err
			}

			fullCode, err := p.tree.FullCode(a.ID)
			if err != nil {
				return err
			}
			p.audit("account.add", a.ID.String(), fmt.Sprintf("%s %s", fullCode, a.Name))
			fmt.Printf("Added account %s %s\n", fullCode, a.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "account name (required)")
	_ = cmd.MarkFlagRequired("name")
	cmd.Flags().StringVar(&code, "code", "", "account code within its parent (required)")
	_ = cmd.MarkFlagRequired("code")
	cmd.Flags().StringVar(&parent, "parent", "", "full code of the parent account")
	cmd.Flags().StringVar(&accountType, "type", "", "account type for root accounts (asset, liability, income, expense, equity)")
	cmd.Flags().BoolVar(&hasStatements, "has-statements", false, "account receives bank statements")

	return cmd
}

func newAccountListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the chart of accounts with balances",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openProject(projectDir(cmd))
			if err != nil {
				return err
			}
			defer p.close()

			engine := p.engine()
			for _, root := range p.tree.Roots() {
				accounts, err := p.tree.Descendants(root.ID, true)
				if err != nil {
					return err
				}
				for _, a := range accounts {
					fullCode, err := p.tree.FullCode(a.ID)
					if err != nil {
						return err
					}
					typ, err := p.tree.EffectiveType(a.ID)
					if err != nil {
						return err
					}
					bal, err := engine.Balance(a.ID, balance.Query{})
					if err != nil {
						return err
					}
					fmt.Printf("%-8s %-10s %-30s %s\n", fullCode, typ, a.Name, bal)
				}
			}
			return nil
		},
	}
	return cmd
}

func newAccountTreeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Show the chart of accounts as a tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openProject(projectDir(cmd))
			if err != nil {
				return err
			}
			defer p.close()

			for _, root := range p.tree.Roots() {
				accounts, err := p.tree.Descendants(root.ID, true)
				if err != nil {
					return err
				}
				for _, a := range accounts {
					ancestors, err := p.tree.Ancestors(a.ID, false)
					if err != nil {
						return err
					}
					fullCode, err := p.tree.FullCode(a.ID)
					if err != nil {
						return err
					}
					indent := strings.Repeat("  ", len(ancestors))
					fmt.Printf("%s%s %s\n", indent, fullCode, a.Name)
				}
			}
			return nil
		},
	}
	return cmd
}

func newAccountMvCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mv <code> <new-parent-code>",
		Short: "Move an account under a new parent, or to \"root\"",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openProject(projectDir(cmd))
			if err != nil {
				return err
			}
			defer p.close()

			a, err := p.resolveAccount(args[0])
			if err != nil {
				return err
			}
			parentID := uuid.Nil
			if args[1] != "root" {
				parent, err := p.resolveAccount(args[1])
				if err != nil {
					return err
				}
				parentID = parent.ID
			}

			if err := p.tree.Reparent(a.ID, parentID); err != nil {
				return err
			}
			// Reparenting may promote or demote, changing the stored
			// type alongside the parent.
			moved, _ := p.tree.Get(a.ID)
			err = p.store.Atomically(func(uow store.UnitOfWork) error {
				return uow.UpdateAccount(moved)
			})
			if err != nil {
				return err
			}

			fullCode, err := p.tree.FullCode(a.ID)
			if err != nil {
				return err
			}
			p.audit("account.mv", a.ID.String(), fmt.Sprintf("%s -> %s", args[0], fullCode))
			fmt.Printf("Moved %s to %s\n", a.Name, fullCode)
			return nil
		},
	}
	return cmd
}

func newAccountRmCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rm <code>",
		Short: "Remove an account with no children and no legs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openProject(projectDir(cmd))
			if err != nil {
				return err
			}
			defer p.close()

			a, err := p.resolveAccount(args[0])
			if err != nil {
				return err
			}
			hasLegs, err := p.store.AccountHasLegs(a.ID)
			if err != nil {
				return err
			}
			if hasLegs {
				return fmt.Errorf("account %q has transaction legs and cannot be removed", a.Name)
			}

			if err := p.tree.Remove(a.ID); err != nil {
				return err
			}
			err = p.store.Atomically(func(uow store.UnitOfWork) error {
				return uow.DeleteAccount(a.ID)
			})
			if err != nil {
				return err
			}

			p.audit("account.rm", a.ID.String(), a.Name)
			fmt.Printf("Removed account %s\n", a.Name)
			return nil
		},
	}
	return cmd
}

func newAccountSetTypeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set-type <code> <type>",
		Short: "Change the type of a root account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openProject(projectDir(cmd))
			if err != nil {
				return err
			}
			defer p.close()

			a, err := p.resolveAccount(args[0])
			if err != nil {
				return err
			}
			typ := model.AccountType(args[1])
			if err := p.tree.SetType(a.ID, typ); err != nil {
				return err
			}
			updated, _ := p.tree.Get(a.ID)
			err = p.store.Atomically(func(uow store.UnitOfWork) error {
				return uow.UpdateAccount(updated)
			})
			if err != nil {
				return err
			}

			p.audit("account.set-type", a.ID.String(), string(typ))
			fmt.Printf("Set %s to %s\n", a.Name, typ)
			return nil
		},
	}
	return cmd
}
