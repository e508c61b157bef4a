package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/warp/landbook/registry"
)

type debtFlags struct {
	parcelID int64
	amount   string
	due      string
	status   string
}

func (f *debtFlags) bind(cmd *cobra.Command) {
	cmd.Flags().Int64Var(&f.parcelID, "parcel", 0, "parcel id (required)")
	cmd.Flags().StringVar(&f.amount, "amount", "", "amount owed, greater than zero (required)")
	cmd.Flags().StringVar(&f.due, "due", "", "due date, YYYY-MM-DD or RFC 3339 (default now)")
	cmd.Flags().StringVar(&f.status, "status", "", "status (default \"Pending\")")
}

func (f *debtFlags) debt(id registry.ID) (registry.Debt, error) {
	d := registry.Debt{ID: id, ParcelID: registry.ID(f.parcelID), Status: f.status}
	if f.amount != "" {
		amount, err := decimal.NewFromString(f.amount)
		if err != nil {
			return registry.Debt{}, fmt.Errorf("invalid --amount %q: %w", f.amount, err)
		}
		d.Amount = amount
	}
	if f.due != "" {
		due, err := registry.ParseDate(f.due)
		if err != nil {
			return registry.Debt{}, fmt.Errorf("invalid --due: %w", err)
		}
		d.DueDate = due
	}
	return d, nil
}

func newDebtCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "debt",
		Aliases: []string{"debts"},
		Short:   "Manage debts on parcels",
	}
	cmd.AddCommand(
		newDebtAddCommand(opts),
		newDebtListCommand(opts),
		newDebtSummaryCommand(opts),
		newDebtUpdateCommand(opts),
		newDebtRemoveCommand(opts),
	)
	return cmd
}

func newDebtAddCommand(opts *RootOptions) *cobra.Command {
	var f debtFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a debt on an existing parcel",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := f.debt(0)
			if err != nil {
				return err
			}
			return opts.session(cmd, func(ctx context.Context, reg *registry.Registry) error {
				d, err := reg.AddDebt(ctx, d)
				if err != nil {
					return err
				}
				return opts.printer(cmd).value(d, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "created debt %d: %s\n", d.ID, reg.DebtSummary(d))
					return err
				})
			})
		},
	}
	f.bind(cmd)
	return cmd
}

func newDebtListCommand(opts *RootOptions) *cobra.Command {
	var parcelID int64
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List debts, latest due date first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.session(cmd, func(_ context.Context, reg *registry.Registry) error {
				debts := reg.ListDebts()
				if parcelID != 0 {
					debts = reg.DebtsForParcel(registry.ID(parcelID))
				}
				return opts.printer(cmd).value(debts, func(w io.Writer) error {
					return table(w, "ID\tPARCEL\tAMOUNT\tDUE\tSTATUS", debtRows(reg, debts))
				})
			})
		},
	}
	cmd.Flags().Int64Var(&parcelID, "parcel", 0, "only debts of this parcel")
	return cmd
}

func newDebtSummaryCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "summary [ID]",
		Short: "Print one-line summaries of debts",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var only registry.ID
			if len(args) == 1 {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				only = id
			}
			return opts.session(cmd, func(_ context.Context, reg *registry.Registry) error {
				debts := reg.ListDebts()
				if only != 0 {
					d, err := reg.GetDebt(only)
					if err != nil {
						return err
					}
					debts = []registry.Debt{d}
				}
				lines := make([]string, len(debts))
				for i, d := range debts {
					lines[i] = fmt.Sprintf("#%d %s", d.ID, reg.DebtSummary(d))
				}
				return opts.printer(cmd).value(lines, func(w io.Writer) error {
					for _, l := range lines {
						if _, err := fmt.Fprintln(w, l); err != nil {
							return err
						}
					}
					return nil
				})
			})
		},
	}
}

func newDebtUpdateCommand(opts *RootOptions) *cobra.Command {
	var f debtFlags
	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Replace a debt's fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			d, err := f.debt(id)
			if err != nil {
				return err
			}
			return opts.session(cmd, func(ctx context.Context, reg *registry.Registry) error {
				d, err := reg.UpdateDebt(ctx, d)
				if err != nil {
					return err
				}
				return opts.printer(cmd).value(d, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "updated debt %d\n", d.ID)
					return err
				})
			})
		},
	}
	f.bind(cmd)
	return cmd
}

func newDebtRemoveCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "remove ID",
		Aliases: []string{"rm"},
		Short:   "Remove a debt",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return opts.session(cmd, func(ctx context.Context, reg *registry.Registry) error {
				if err := reg.RemoveDebt(ctx, id); err != nil {
					return err
				}
				return opts.printer(cmd).line(fmt.Sprintf("removed debt %d", id))
			})
		},
	}
}
