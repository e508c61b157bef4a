/*
Package registry provides the record-store core for clients, land parcels and debts.

PURPOSE:
  Holds three related collections (clients, parcels, debts) in a durable
  Store, guards the references between them, and serves every read from a
  sorted in-memory projection that is rebuilt after each mutation.

KEY CONCEPTS IN THIS FILE (types.go):
  - ID: auto-assigned numeric key, unique within one collection
  - Collection: a namespace of records of one entity type
  - Record: what a Store persists (Client, Parcel, Debt)

REFERENCES:
  Parcel.ClientID -> Client.ID
  Debt.ParcelID   -> Parcel.ID

  A client cannot be removed while a parcel points at it, and a parcel
  cannot be removed while a debt points at it. Debts are always removable.

USAGE:
  reg := registry.New(memstore.NewMemory())
  if err := reg.Initialize(ctx); err != nil { ... }
  client, err := reg.AddClient(ctx, registry.Client{Name: "Ana", Phone: "555-0100"})

SEE ALSO:
  - store.go: Store interface
  - guard.go: Reference checks
  - projection.go: Sorted read cache
  - registry.go: Façade used by the API and CLI
*/
package registry

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

// ID is the numeric key of a record within its collection. Zero means "not yet assigned".
type ID int64

// Collection names one of the three record namespaces.
type Collection string

const (
	Clients Collection = "clients"
	Parcels Collection = "parcels"
	Debts   Collection = "debts"
)

// AllCollections lists the collections in dependency order (referenced first).
var AllCollections = []Collection{Clients, Parcels, Debts}

func (c Collection) Valid() bool {
	switch c {
	case Clients, Parcels, Debts:
		return true
	}
	return false
}

// =============================================================================
// RECORDS
// =============================================================================

// Record is anything a Store can persist.
type Record interface {
	// Collection reports which namespace the record belongs to.
	Collection() Collection
	// RecordID returns the record's key (zero before creation).
	RecordID() ID
	// WithID returns a copy of the record carrying id.
	WithID(id ID) Record
}

// StatusPending is the status a debt gets when none is supplied.
const StatusPending = "Pending"

// Client is a person or company owning parcels.
type Client struct {
	ID      ID     `json:"id"`
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

func (c Client) Collection() Collection { return Clients }
func (c Client) RecordID() ID           { return c.ID }
func (c Client) WithID(id ID) Record    { c.ID = id; return c }

// Parcel is a piece of land owned by a client.
type Parcel struct {
	ID       ID              `json:"id"`
	ClientID ID              `json:"client_id"`
	Address  string          `json:"address"`
	Area     decimal.Decimal `json:"area"`
	Price    decimal.Decimal `json:"price"`
}

func (p Parcel) Collection() Collection { return Parcels }
func (p Parcel) RecordID() ID           { return p.ID }
func (p Parcel) WithID(id ID) Record    { p.ID = id; return p }

// Debt is an amount owed on a parcel.
type Debt struct {
	ID       ID              `json:"id"`
	ParcelID ID              `json:"parcel_id"`
	Amount   decimal.Decimal `json:"amount"`
	DueDate  time.Time       `json:"due_date"`
	Status   string          `json:"status"`
}

func (d Debt) Collection() Collection { return Debts }
func (d Debt) RecordID() ID           { return d.ID }
func (d Debt) WithID(id ID) Record    { d.ID = id; return d }

// =============================================================================
// NORMALIZATION
// =============================================================================

// Normalize trims text fields and converts them to Unicode NFC so that
// equal-looking names compare and sort equal.
func Normalize(rec Record) Record {
	switch r := rec.(type) {
	case Client:
		r.Name = normText(r.Name)
		r.Phone = normText(r.Phone)
		r.Address = normText(r.Address)
		return r
	case Parcel:
		r.Address = normText(r.Address)
		return r
	case Debt:
		r.Status = normText(r.Status)
		return r
	}
	return rec
}

// withDefaults fills the fields a new debt may omit.
func (d Debt) withDefaults(now time.Time) Debt {
	if d.DueDate.IsZero() {
		d.DueDate = now
	}
	if d.Status == "" {
		d.Status = StatusPending
	}
	return d
}

func normText(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}
