package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/warp/landbook/registry"
)

type clientFlags struct {
	name    string
	phone   string
	address string
}

func (f *clientFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "client name (required)")
	cmd.Flags().StringVar(&f.phone, "phone", "", "client phone (required)")
	cmd.Flags().StringVar(&f.address, "address", "", "client address")
}

func (f *clientFlags) client(id registry.ID) registry.Client {
	return registry.Client{ID: id, Name: f.name, Phone: f.phone, Address: f.address}
}

func newClientCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "client",
		Aliases: []string{"clients"},
		Short:   "Manage clients",
	}
	cmd.AddCommand(
		newClientAddCommand(opts),
		newClientListCommand(opts),
		newClientShowCommand(opts),
		newClientUpdateCommand(opts),
		newClientRemoveCommand(opts),
	)
	return cmd
}

func newClientAddCommand(opts *RootOptions) *cobra.Command {
	var f clientFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a client",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.session(cmd, func(ctx context.Context, reg *registry.Registry) error {
				c, err := reg.AddClient(ctx, f.client(0))
				if err != nil {
					return err
				}
				return opts.printer(cmd).value(c, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "created client %d: %s\n", c.ID, reg.ClientDisplayName(c.ID))
					return err
				})
			})
		},
	}
	f.bind(cmd)
	return cmd
}

func newClientListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List clients by name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.session(cmd, func(_ context.Context, reg *registry.Registry) error {
				clients := reg.ListClients()
				return opts.printer(cmd).value(clients, func(w io.Writer) error {
					return table(w, "ID\tNAME\tPHONE\tADDRESS", clientRows(clients))
				})
			})
		},
	}
}

// clientDetail is the JSON shape of "client show".
type clientDetail struct {
	Client  registry.Client   `json:"client"`
	Display string            `json:"display"`
	Parcels []registry.Parcel `json:"parcels"`
	Balance registry.Balance  `json:"balance"`
}

func newClientShowCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show a client with parcels and debt totals",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return opts.session(cmd, func(_ context.Context, reg *registry.Registry) error {
				c, err := reg.GetClient(id)
				if err != nil {
					return err
				}
				balance, err := reg.ClientBalance(id)
				if err != nil {
					return err
				}
				detail := clientDetail{
					Client:  c,
					Display: reg.ClientDisplayName(id),
					Parcels: reg.ParcelsForClient(id),
					Balance: balance,
				}
				return opts.printer(cmd).value(detail, func(w io.Writer) error {
					fmt.Fprintf(w, "%s\n", detail.Display)
					if c.Address != "" {
						fmt.Fprintf(w, "address: %s\n", c.Address)
					}
					fmt.Fprintf(w, "parcels: %d\n", len(detail.Parcels))
					_, err := fmt.Fprintf(w, "owed: %s across %d debts\n", balance.Total, balance.Debts)
					return err
				})
			})
		},
	}
}

func newClientUpdateCommand(opts *RootOptions) *cobra.Command {
	var f clientFlags
	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Replace a client's fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return opts.session(cmd, func(ctx context.Context, reg *registry.Registry) error {
				c, err := reg.UpdateClient(ctx, f.client(id))
				if err != nil {
					return err
				}
				return opts.printer(cmd).value(c, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "updated client %d\n", c.ID)
					return err
				})
			})
		},
	}
	f.bind(cmd)
	return cmd
}

func newClientRemoveCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "remove ID",
		Aliases: []string{"rm"},
		Short:   "Remove a client without parcels",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return opts.session(cmd, func(ctx context.Context, reg *registry.Registry) error {
				if err := reg.RemoveClient(ctx, id); err != nil {
					return err
				}
				return opts.printer(cmd).line(fmt.Sprintf("removed client %d", id))
			})
		},
	}
}
