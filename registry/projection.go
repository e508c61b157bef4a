/*
projection.go - Sorted in-memory mirror of the store

PURPOSE:
  Serves every read without touching the Store. After each successful
  mutation (and once at startup) Refresh re-reads all three collections and
  replaces the mirror in one step.

ORDERING:
  clients: Name ascending (byte order of the NFC form), then ID
  parcels: Address ascending, then ID
  debts:   DueDate descending, then ID

CONSISTENCY:
  Refresh builds a complete new snapshot before publishing it. If any
  GetAll fails the previous snapshot stays in place, so readers never see a
  half-refreshed mirror.

  Snapshots are immutable once published; readers load them through an
  atomic pointer and need no lock.
*/
package registry

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"
)

// Projection is the read cache of the registry.
type Projection struct {
	current atomic.Pointer[snapshot]
}

type snapshot struct {
	clients []Client
	parcels []Parcel
	debts   []Debt

	clientIdx map[ID]int
	parcelIdx map[ID]int
	debtIdx   map[ID]int
}

var emptySnapshot = &snapshot{
	clientIdx: map[ID]int{},
	parcelIdx: map[ID]int{},
	debtIdx:   map[ID]int{},
}

func NewProjection() *Projection {
	p := &Projection{}
	p.current.Store(emptySnapshot)
	return p
}

func (p *Projection) load() *snapshot {
	if s := p.current.Load(); s != nil {
		return s
	}
	return emptySnapshot
}

// Refresh rebuilds the mirror from store.
func (p *Projection) Refresh(ctx context.Context, store Store) error {
	next := &snapshot{}

	clients, err := store.GetAll(ctx, Clients)
	if err != nil {
		return fmt.Errorf("refresh clients: %w", err)
	}
	parcels, err := store.GetAll(ctx, Parcels)
	if err != nil {
		return fmt.Errorf("refresh parcels: %w", err)
	}
	debts, err := store.GetAll(ctx, Debts)
	if err != nil {
		return fmt.Errorf("refresh debts: %w", err)
	}

	for _, rec := range clients {
		c, ok := rec.(Client)
		if !ok {
			return fmt.Errorf("refresh clients: unexpected record %T", rec)
		}
		next.clients = append(next.clients, c)
	}
	for _, rec := range parcels {
		pc, ok := rec.(Parcel)
		if !ok {
			return fmt.Errorf("refresh parcels: unexpected record %T", rec)
		}
		next.parcels = append(next.parcels, pc)
	}
	for _, rec := range debts {
		d, ok := rec.(Debt)
		if !ok {
			return fmt.Errorf("refresh debts: unexpected record %T", rec)
		}
		next.debts = append(next.debts, d)
	}

	sort.Slice(next.clients, func(i, j int) bool {
		a, b := next.clients[i], next.clients[j]
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.ID < b.ID
	})
	sort.Slice(next.parcels, func(i, j int) bool {
		a, b := next.parcels[i], next.parcels[j]
		if a.Address != b.Address {
			return a.Address < b.Address
		}
		return a.ID < b.ID
	})
	sort.Slice(next.debts, func(i, j int) bool {
		a, b := next.debts[i], next.debts[j]
		if !a.DueDate.Equal(b.DueDate) {
			return a.DueDate.After(b.DueDate)
		}
		return a.ID < b.ID
	})

	next.clientIdx = make(map[ID]int, len(next.clients))
	for i, c := range next.clients {
		next.clientIdx[c.ID] = i
	}
	next.parcelIdx = make(map[ID]int, len(next.parcels))
	for i, pc := range next.parcels {
		next.parcelIdx[pc.ID] = i
	}
	next.debtIdx = make(map[ID]int, len(next.debts))
	for i, d := range next.debts {
		next.debtIdx[d.ID] = i
	}

	p.current.Store(next)
	return nil
}

// =============================================================================
// ACCESSORS - read the snapshot only
// =============================================================================

func (p *Projection) Clients() []Client {
	return append([]Client{}, p.load().clients...)
}

func (p *Projection) Parcels() []Parcel {
	return append([]Parcel{}, p.load().parcels...)
}

func (p *Projection) Debts() []Debt {
	return append([]Debt{}, p.load().debts...)
}

func (p *Projection) Client(id ID) (Client, bool) {
	s := p.load()
	i, ok := s.clientIdx[id]
	if !ok {
		return Client{}, false
	}
	return s.clients[i], true
}

func (p *Projection) Parcel(id ID) (Parcel, bool) {
	s := p.load()
	i, ok := s.parcelIdx[id]
	if !ok {
		return Parcel{}, false
	}
	return s.parcels[i], true
}

func (p *Projection) Debt(id ID) (Debt, bool) {
	s := p.load()
	i, ok := s.debtIdx[id]
	if !ok {
		return Debt{}, false
	}
	return s.debts[i], true
}

// ParcelsForClient returns the parcels whose ClientID is clientID, in address order.
func (p *Projection) ParcelsForClient(clientID ID) []Parcel {
	result := []Parcel{}
	for _, pc := range p.load().parcels {
		if pc.ClientID == clientID {
			result = append(result, pc)
		}
	}
	return result
}

// DebtsForParcel returns the debts whose ParcelID is parcelID, latest due date first.
func (p *Projection) DebtsForParcel(parcelID ID) []Debt {
	result := []Debt{}
	for _, d := range p.load().debts {
		if d.ParcelID == parcelID {
			result = append(result, d)
		}
	}
	return result
}

// Counts returns the number of cached records per collection.
func (p *Projection) Counts() map[Collection]int {
	s := p.load()
	return map[Collection]int{
		Clients: len(s.clients),
		Parcels: len(s.parcels),
		Debts:   len(s.debts),
	}
}
