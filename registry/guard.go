package registry

// Guard enforces the references between collections. It reads the
// Projection, not the Store, so its answers are as fresh as the last Refresh.
// The Registry refreshes after every mutation and serializes writers, which
// keeps that window closed.
type Guard struct {
	cache *Projection
}

func NewGuard(cache *Projection) *Guard {
	return &Guard{cache: cache}
}

// CheckCreate verifies the foreign key of a record about to be written.
// Clients have no references and always pass.
func (g *Guard) CheckCreate(rec Record) error {
	switch r := rec.(type) {
	case Parcel:
		if _, ok := g.cache.Client(r.ClientID); !ok {
			return &ReferenceError{Collection: Parcels, Field: "client_id", Target: r.ClientID, Message: MsgClientNotFound}
		}
	case Debt:
		if _, ok := g.cache.Parcel(r.ParcelID); !ok {
			return &ReferenceError{Collection: Debts, Field: "parcel_id", Target: r.ParcelID, Message: MsgParcelNotFound}
		}
	}
	return nil
}

// CheckUpdate fails with NotFoundError when the target record is unknown,
// before any reference is looked at. A foreign key is re-checked only when
// the update changes it, so editing other fields never fails on references.
func (g *Guard) CheckUpdate(rec Record) error {
	notFound := &NotFoundError{Collection: rec.Collection(), ID: rec.RecordID()}
	switch r := rec.(type) {
	case Client:
		if _, ok := g.cache.Client(r.ID); !ok {
			return notFound
		}
		return nil
	case Parcel:
		old, ok := g.cache.Parcel(r.ID)
		if !ok {
			return notFound
		}
		if old.ClientID == r.ClientID {
			return nil
		}
	case Debt:
		old, ok := g.cache.Debt(r.ID)
		if !ok {
			return notFound
		}
		if old.ParcelID == r.ParcelID {
			return nil
		}
	}
	return g.CheckCreate(rec)
}

// CheckDelete scans for dependents of the record about to be removed.
func (g *Guard) CheckDelete(c Collection, id ID) error {
	switch c {
	case Clients:
		if n := len(g.cache.ParcelsForClient(id)); n > 0 {
			return &ConstraintError{Collection: Clients, ID: id, Message: MsgClientHasParcels, Dependents: n}
		}
	case Parcels:
		if n := len(g.cache.DebtsForParcel(id)); n > 0 {
			return &ConstraintError{Collection: Parcels, ID: id, Message: MsgParcelHasDebts, Dependents: n}
		}
	}
	return nil
}
