package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/warp/landbook/registry"
)

// line prints s; in JSON mode it is wrapped as {"result": s}.
func (p *printer) line(s string) error {
	if p.json {
		return p.encode(map[string]string{"result": s})
	}
	_, err := fmt.Fprintln(p.w, s)
	return err
}

// value prints v as JSON, or calls text in text mode.
func (p *printer) value(v any, text func(w io.Writer) error) error {
	if p.json {
		return p.encode(v)
	}
	return text(p.w)
}

func (p *printer) encode(v any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// table writes aligned columns, header first.
func table(w io.Writer, header string, rows []string) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, header)
	for _, row := range rows {
		fmt.Fprintln(tw, row)
	}
	return tw.Flush()
}

func clientRows(clients []registry.Client) []string {
	rows := make([]string, len(clients))
	for i, c := range clients {
		rows[i] = fmt.Sprintf("%d\t%s\t%s\t%s", c.ID, c.Name, c.Phone, c.Address)
	}
	return rows
}

func parcelRows(reg *registry.Registry, parcels []registry.Parcel) []string {
	rows := make([]string, len(parcels))
	for i, p := range parcels {
		rows[i] = fmt.Sprintf("%d\t%s\t%s\t%s\t%s", p.ID, p.Address, p.Area, p.Price, reg.ClientDisplayName(p.ClientID))
	}
	return rows
}

func debtRows(reg *registry.Registry, debts []registry.Debt) []string {
	rows := make([]string, len(debts))
	for i, d := range debts {
		ps, _ := reg.ParcelSummary(d.ParcelID)
		rows[i] = fmt.Sprintf("%d\t%s\t%s\t%s\t%s", d.ID, ps.Address, d.Amount, registry.FormatTime(reg.Locale(), d.DueDate), d.Status)
	}
	return rows
}
