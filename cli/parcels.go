package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/warp/landbook/registry"
)

type parcelFlags struct {
	clientID int64
	address  string
	area     string
	price    string
}

func (f *parcelFlags) bind(cmd *cobra.Command) {
	cmd.Flags().Int64Var(&f.clientID, "client", 0, "owning client id (required)")
	cmd.Flags().StringVar(&f.address, "address", "", "parcel address (required)")
	cmd.Flags().StringVar(&f.area, "area", "0", "parcel area")
	cmd.Flags().StringVar(&f.price, "price", "0", "parcel price")
}

func (f *parcelFlags) parcel(id registry.ID) (registry.Parcel, error) {
	area, err := decimal.NewFromString(f.area)
	if err != nil {
		return registry.Parcel{}, fmt.Errorf("invalid --area %q: %w", f.area, err)
	}
	price, err := decimal.NewFromString(f.price)
	if err != nil {
		return registry.Parcel{}, fmt.Errorf("invalid --price %q: %w", f.price, err)
	}
	return registry.Parcel{
		ID:       id,
		ClientID: registry.ID(f.clientID),
		Address:  f.address,
		Area:     area,
		Price:    price,
	}, nil
}

func newParcelCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "parcel",
		Aliases: []string{"parcels"},
		Short:   "Manage land parcels",
	}
	cmd.AddCommand(
		newParcelAddCommand(opts),
		newParcelListCommand(opts),
		newParcelUpdateCommand(opts),
		newParcelRemoveCommand(opts),
	)
	return cmd
}

func newParcelAddCommand(opts *RootOptions) *cobra.Command {
	var f parcelFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a parcel for an existing client",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := f.parcel(0)
			if err != nil {
				return err
			}
			return opts.session(cmd, func(ctx context.Context, reg *registry.Registry) error {
				p, err := reg.AddParcel(ctx, p)
				if err != nil {
					return err
				}
				return opts.printer(cmd).value(p, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "created parcel %d: %s\n", p.ID, p.Address)
					return err
				})
			})
		},
	}
	f.bind(cmd)
	return cmd
}

func newParcelListCommand(opts *RootOptions) *cobra.Command {
	var clientID int64
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List parcels by address",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.session(cmd, func(_ context.Context, reg *registry.Registry) error {
				parcels := reg.ListParcels()
				if clientID != 0 {
					parcels = reg.ParcelsForClient(registry.ID(clientID))
				}
				return opts.printer(cmd).value(parcels, func(w io.Writer) error {
					return table(w, "ID\tADDRESS\tAREA\tPRICE\tCLIENT", parcelRows(reg, parcels))
				})
			})
		},
	}
	cmd.Flags().Int64Var(&clientID, "client", 0, "only parcels of this client")
	return cmd
}

func newParcelUpdateCommand(opts *RootOptions) *cobra.Command {
	var f parcelFlags
	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Replace a parcel's fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			p, err := f.parcel(id)
			if err != nil {
				return err
			}
			return opts.session(cmd, func(ctx context.Context, reg *registry.Registry) error {
				p, err := reg.UpdateParcel(ctx, p)
				if err != nil {
					return err
				}
				return opts.printer(cmd).value(p, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "updated parcel %d\n", p.ID)
					return err
				})
			})
		},
	}
	f.bind(cmd)
	return cmd
}

func newParcelRemoveCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "remove ID",
		Aliases: []string{"rm"},
		Short:   "Remove a parcel without debts",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return opts.session(cmd, func(ctx context.Context, reg *registry.Registry) error {
				if err := reg.RemoveParcel(ctx, id); err != nil {
					return err
				}
				return opts.printer(cmd).line(fmt.Sprintf("removed parcel %d", id))
			})
		},
	}
}
