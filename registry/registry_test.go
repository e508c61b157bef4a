package registry_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/warp/landbook/metrics"
	"github.com/warp/landbook/registry"
	memstore "github.com/warp/landbook/registry/store"
	"github.com/warp/landbook/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

var oct18 = time.Date(2026, time.October, 18, 0, 0, 0, 0, time.UTC)

type backend struct {
	name string
	open func(t *testing.T) registry.Store
}

var backends = []backend{
	{"memory", func(t *testing.T) registry.Store {
		return memstore.NewMemory()
	}},
	{"sqlite", func(t *testing.T) registry.Store {
		s, err := sqlite.New(":memory:")
		require.NoError(t, err)
		t.Cleanup(func() { s.Close() })
		return s
	}},
}

// forEachBackend runs fn once per Store implementation.
func forEachBackend(t *testing.T, fn func(t *testing.T, reg *registry.Registry)) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			reg := registry.New(b.open(t), registry.WithClock(func() time.Time { return oct18 }))
			require.NoError(t, reg.Initialize(context.Background()))
			fn(t, reg)
		})
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func mustLocale(t *testing.T, s string) language.Tag {
	tag, err := registry.ParseLocale(s)
	require.NoError(t, err)
	return tag
}

// seed creates Ana with parcel "Lot 9".
func seed(t *testing.T, reg *registry.Registry) (registry.Client, registry.Parcel) {
	ctx := context.Background()
	c, err := reg.AddClient(ctx, registry.Client{Name: "Ana", Phone: "555-0100"})
	require.NoError(t, err)
	p, err := reg.AddParcel(ctx, registry.Parcel{ClientID: c.ID, Address: "Lot 9", Area: dec("1200"), Price: dec("50000")})
	require.NoError(t, err)
	return c, p
}

// =============================================================================
// LIFECYCLE
// =============================================================================

func TestRegistry_NotInitialized(t *testing.T) {
	// GIVEN: A registry whose Initialize was never called
	reg := registry.New(memstore.NewMemory())
	ctx := context.Background()

	// WHEN/THEN: Every mutation fails with ErrNotInitialized
	_, err := reg.AddClient(ctx, registry.Client{Name: "Ana", Phone: "1"})
	assert.ErrorIs(t, err, registry.ErrNotInitialized)

	_, err = reg.UpdateClient(ctx, registry.Client{ID: 1, Name: "Ana", Phone: "1"})
	assert.ErrorIs(t, err, registry.ErrNotInitialized)

	assert.ErrorIs(t, reg.RemoveDebt(ctx, 1), registry.ErrNotInitialized)

	// Reads answer from the empty cache
	assert.Empty(t, reg.ListClients())
}

func TestRegistry_InitializeTwice_KeepsData(t *testing.T) {
	forEachBackend(t, func(t *testing.T, reg *registry.Registry) {
		// GIVEN: One client, one parcel
		c, p := seed(t, reg)

		// WHEN: Initialize runs again
		require.NoError(t, reg.Initialize(context.Background()))

		// THEN: Nothing was lost or duplicated
		assert.Equal(t, []registry.Client{c}, reg.ListClients())
		got := reg.ListParcels()
		require.Len(t, got, 1)
		assert.Equal(t, p.ID, got[0].ID)
	})
}

// =============================================================================
// CREATE AND REFERENCES
// =============================================================================

func TestRegistry_AddClient_AssignsIDAndNormalizes(t *testing.T) {
	forEachBackend(t, func(t *testing.T, reg *registry.Registry) {
		ctx := context.Background()

		// GIVEN: Name typed with surrounding spaces and a decomposed accent
		c, err := reg.AddClient(ctx, registry.Client{Name: "  Jose\u0301 ", Phone: " 555 "})

		// THEN: Stored trimmed and composed
		require.NoError(t, err)
		assert.Equal(t, registry.ID(1), c.ID)
		assert.Equal(t, "Jos\u00e9", c.Name)
		assert.Equal(t, "555", c.Phone)

		got, err := reg.GetClient(c.ID)
		require.NoError(t, err)
		assert.Equal(t, c, got)
	})
}

func TestRegistry_AddClient_MissingFields(t *testing.T) {
	forEachBackend(t, func(t *testing.T, reg *registry.Registry) {
		ctx := context.Background()

		_, err := reg.AddClient(ctx, registry.Client{Phone: "555"})
		var vErr *registry.ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "name", vErr.Field)

		_, err = reg.AddClient(ctx, registry.Client{Name: "Ana", Phone: "   "})
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "phone", vErr.Field)

		assert.Empty(t, reg.ListClients())
	})
}

func TestRegistry_AddParcel_UnknownClient_Rejected(t *testing.T) {
	forEachBackend(t, func(t *testing.T, reg *registry.Registry) {
		// GIVEN: No clients
		// WHEN: Adding a parcel for client 42
		_, err := reg.AddParcel(context.Background(), registry.Parcel{ClientID: 42, Address: "Lot 1"})

		// THEN: Reference error, nothing stored
		var refErr *registry.ReferenceError
		require.ErrorAs(t, err, &refErr)
		assert.Equal(t, registry.MsgClientNotFound, refErr.Message)
		assert.Equal(t, registry.ID(42), refErr.Target)
		assert.ErrorIs(t, err, registry.ErrReference)
		assert.Empty(t, reg.ListParcels())
	})
}

func TestRegistry_AddDebt_UnknownParcel_Rejected(t *testing.T) {
	forEachBackend(t, func(t *testing.T, reg *registry.Registry) {
		seed(t, reg)

		_, err := reg.AddDebt(context.Background(), registry.Debt{ParcelID: 99, Amount: dec("10")})

		var refErr *registry.ReferenceError
		require.ErrorAs(t, err, &refErr)
		assert.Equal(t, registry.MsgParcelNotFound, refErr.Message)
		assert.Empty(t, reg.ListDebts())
	})
}

func TestRegistry_AddDebt_Defaults(t *testing.T) {
	forEachBackend(t, func(t *testing.T, reg *registry.Registry) {
		_, p := seed(t, reg)

		// WHEN: A debt without due date or status
		d, err := reg.AddDebt(context.Background(), registry.Debt{ParcelID: p.ID, Amount: dec("200")})
		require.NoError(t, err)

		// THEN: Due now, Pending
		assert.Equal(t, registry.StatusPending, d.Status)
		assert.True(t, d.DueDate.Equal(oct18))

		got, err := reg.GetDebt(d.ID)
		require.NoError(t, err)
		assert.Equal(t, registry.StatusPending, got.Status)
		assert.True(t, got.DueDate.Equal(oct18))
	})
}

func TestRegistry_AddDebt_NonPositiveAmount(t *testing.T) {
	forEachBackend(t, func(t *testing.T, reg *registry.Registry) {
		_, p := seed(t, reg)

		for _, amount := range []string{"0", "-5"} {
			_, err := reg.AddDebt(context.Background(), registry.Debt{ParcelID: p.ID, Amount: dec(amount)})
			assert.ErrorIs(t, err, registry.ErrValidation, amount)
		}
		assert.Empty(t, reg.ListDebts())
	})
}

func TestRegistry_IDsNeverReused(t *testing.T) {
	forEachBackend(t, func(t *testing.T, reg *registry.Registry) {
		ctx := context.Background()

		a, err := reg.AddClient(ctx, registry.Client{Name: "A", Phone: "1"})
		require.NoError(t, err)
		b, err := reg.AddClient(ctx, registry.Client{Name: "B", Phone: "2"})
		require.NoError(t, err)
		require.NoError(t, reg.RemoveClient(ctx, b.ID))

		c, err := reg.AddClient(ctx, registry.Client{Name: "C", Phone: "3"})
		require.NoError(t, err)

		assert.Equal(t, registry.ID(1), a.ID)
		assert.Equal(t, registry.ID(2), b.ID)
		assert.Equal(t, registry.ID(3), c.ID)
	})
}

// =============================================================================
// REMOVE
// =============================================================================

func TestRegistry_RemoveClient_WithParcels_Blocked(t *testing.T) {
	forEachBackend(t, func(t *testing.T, reg *registry.Registry) {
		c, _ := seed(t, reg)

		err := reg.RemoveClient(context.Background(), c.ID)

		var conErr *registry.ConstraintError
		require.ErrorAs(t, err, &conErr)
		assert.Equal(t, registry.MsgClientHasParcels, conErr.Message)
		assert.Equal(t, 1, conErr.Dependents)
		_, err = reg.GetClient(c.ID)
		assert.NoError(t, err, "client must survive a blocked delete")
	})
}

func TestRegistry_RemoveParcel_WithDebts_Blocked(t *testing.T) {
	forEachBackend(t, func(t *testing.T, reg *registry.Registry) {
		ctx := context.Background()
		_, p := seed(t, reg)
		_, err := reg.AddDebt(ctx, registry.Debt{ParcelID: p.ID, Amount: dec("1")})
		require.NoError(t, err)

		err = reg.RemoveParcel(ctx, p.ID)

		assert.ErrorIs(t, err, registry.ErrConstraint)
		assert.ErrorContains(t, err, registry.MsgParcelHasDebts)
		assert.Len(t, reg.ListParcels(), 1)
	})
}

func TestRegistry_RemoveUnknown_NotFound(t *testing.T) {
	forEachBackend(t, func(t *testing.T, reg *registry.Registry) {
		ctx := context.Background()
		assert.ErrorIs(t, reg.RemoveClient(ctx, 7), registry.ErrNotFound)
		assert.ErrorIs(t, reg.RemoveParcel(ctx, 7), registry.ErrNotFound)
		assert.ErrorIs(t, reg.RemoveDebt(ctx, 7), registry.ErrNotFound)
	})
}

func TestRegistry_RemoveInDependencyOrder(t *testing.T) {
	forEachBackend(t, func(t *testing.T, reg *registry.Registry) {
		// GIVEN: client -> parcel -> debt
		ctx := context.Background()
		c, p := seed(t, reg)
		d, err := reg.AddDebt(ctx, registry.Debt{ParcelID: p.ID, Amount: dec("200"), DueDate: oct18})
		require.NoError(t, err)

		// WHEN: Removing leaf first
		require.NoError(t, reg.RemoveDebt(ctx, d.ID))
		require.NoError(t, reg.RemoveParcel(ctx, p.ID))
		require.NoError(t, reg.RemoveClient(ctx, c.ID))

		// THEN: Everything is gone
		assert.Empty(t, reg.ListClients())
		assert.Empty(t, reg.ListParcels())
		assert.Empty(t, reg.ListDebts())
	})
}

// =============================================================================
// UPDATE
// =============================================================================

func TestRegistry_UpdateClient(t *testing.T) {
	forEachBackend(t, func(t *testing.T, reg *registry.Registry) {
		ctx := context.Background()
		c, _ := seed(t, reg)

		c.Phone = "555-0199"
		updated, err := reg.UpdateClient(ctx, c)
		require.NoError(t, err)
		assert.Equal(t, "555-0199", updated.Phone)
		assert.Equal(t, "Ana (555-0199)", reg.ClientDisplayName(c.ID))
	})
}

func TestRegistry_UpdateUnknown_NotFound(t *testing.T) {
	forEachBackend(t, func(t *testing.T, reg *registry.Registry) {
		ctx := context.Background()

		_, err := reg.UpdateClient(ctx, registry.Client{ID: 5, Name: "X", Phone: "1"})
		assert.ErrorIs(t, err, registry.ErrNotFound)

		_, err = reg.UpdateClient(ctx, registry.Client{Name: "X", Phone: "1"})
		assert.ErrorIs(t, err, registry.ErrNotFound, "zero id is never an existing record")

		// Unknown parcel and debt ids win over their dangling references
		_, err = reg.UpdateParcel(ctx, registry.Parcel{ID: 42, ClientID: 7, Address: "Lot 1"})
		assert.ErrorIs(t, err, registry.ErrNotFound)
		assert.NotErrorIs(t, err, registry.ErrReference)

		_, err = reg.UpdateDebt(ctx, registry.Debt{ID: 42, ParcelID: 99, Amount: dec("1")})
		assert.ErrorIs(t, err, registry.ErrNotFound)
		assert.NotErrorIs(t, err, registry.ErrReference)

		// AND: Nothing was written
		assert.Empty(t, reg.ListParcels())
		assert.Empty(t, reg.ListDebts())
	})
}

func TestRegistry_UpdateUnknown_NotFoundWithValidReferences(t *testing.T) {
	forEachBackend(t, func(t *testing.T, reg *registry.Registry) {
		ctx := context.Background()

		// GIVEN: A client with one parcel
		client, parcel := seed(t, reg)

		// WHEN: Updating ids that were never created but point at real records
		_, err := reg.UpdateParcel(ctx, registry.Parcel{ID: parcel.ID + 10, ClientID: client.ID, Address: "Lot 1"})

		// THEN: The update fails as not found and creates nothing
		var nfErr *registry.NotFoundError
		require.ErrorAs(t, err, &nfErr)
		assert.Equal(t, registry.Parcels, nfErr.Collection)
		assert.Equal(t, parcel.ID+10, nfErr.ID)
		assert.Len(t, reg.ListParcels(), 1)

		_, err = reg.UpdateDebt(ctx, registry.Debt{ID: 42, ParcelID: parcel.ID, Amount: dec("1")})
		assert.ErrorIs(t, err, registry.ErrNotFound)
		assert.Empty(t, reg.ListDebts())
	})
}

func TestRegistry_UpdateParcel_ReferenceRecheckedOnlyWhenChanged(t *testing.T) {
	forEachBackend(t, func(t *testing.T, reg *registry.Registry) {
		ctx := context.Background()
		c, p := seed(t, reg)

		// WHEN: Editing the address only
		p.Address = "Lot 9B"
		_, err := reg.UpdateParcel(ctx, p)
		require.NoError(t, err)

		// WHEN: Moving the parcel to an unknown client
		p.ClientID = 77
		_, err = reg.UpdateParcel(ctx, p)
		assert.ErrorIs(t, err, registry.ErrReference)

		// THEN: The stored parcel still belongs to the original client
		got, err := reg.GetParcel(p.ID)
		require.NoError(t, err)
		assert.Equal(t, c.ID, got.ClientID)
		assert.Equal(t, "Lot 9B", got.Address)
	})
}

func TestRegistry_UpdateDebt_Status(t *testing.T) {
	forEachBackend(t, func(t *testing.T, reg *registry.Registry) {
		ctx := context.Background()
		_, p := seed(t, reg)
		d, err := reg.AddDebt(ctx, registry.Debt{ParcelID: p.ID, Amount: dec("200"), DueDate: oct18})
		require.NoError(t, err)

		d.Status = "Paid"
		_, err = reg.UpdateDebt(ctx, d)
		require.NoError(t, err)

		got, err := reg.GetDebt(d.ID)
		require.NoError(t, err)
		assert.Equal(t, "Paid", got.Status)
		assert.True(t, dec("200").Equal(got.Amount))
	})
}

// =============================================================================
// ORDERING AND CACHE
// =============================================================================

func TestRegistry_ListOrdering(t *testing.T) {
	forEachBackend(t, func(t *testing.T, reg *registry.Registry) {
		ctx := context.Background()

		bea, err := reg.AddClient(ctx, registry.Client{Name: "Bea", Phone: "2"})
		require.NoError(t, err)
		ana, err := reg.AddClient(ctx, registry.Client{Name: "Ana", Phone: "1"})
		require.NoError(t, err)
		ana2, err := reg.AddClient(ctx, registry.Client{Name: "Ana", Phone: "3"})
		require.NoError(t, err)

		names := []registry.ID{}
		for _, c := range reg.ListClients() {
			names = append(names, c.ID)
		}
		assert.Equal(t, []registry.ID{ana.ID, ana2.ID, bea.ID}, names, "name, then id")

		pB, err := reg.AddParcel(ctx, registry.Parcel{ClientID: ana.ID, Address: "B street"})
		require.NoError(t, err)
		pA, err := reg.AddParcel(ctx, registry.Parcel{ClientID: bea.ID, Address: "A street"})
		require.NoError(t, err)
		parcels := reg.ListParcels()
		require.Len(t, parcels, 2)
		assert.Equal(t, pA.ID, parcels[0].ID)
		assert.Equal(t, pB.ID, parcels[1].ID)

		early, err := reg.AddDebt(ctx, registry.Debt{ParcelID: pA.ID, Amount: dec("1"), DueDate: oct18})
		require.NoError(t, err)
		late, err := reg.AddDebt(ctx, registry.Debt{ParcelID: pA.ID, Amount: dec("1"), DueDate: oct18.AddDate(0, 1, 0)})
		require.NoError(t, err)
		debts := reg.ListDebts()
		require.Len(t, debts, 2)
		assert.Equal(t, late.ID, debts[0].ID, "latest due date first")
		assert.Equal(t, early.ID, debts[1].ID)
	})
}

func TestRegistry_ListReturnsCopies(t *testing.T) {
	forEachBackend(t, func(t *testing.T, reg *registry.Registry) {
		c, _ := seed(t, reg)

		list := reg.ListClients()
		list[0].Name = "Mallory"

		got, err := reg.GetClient(c.ID)
		require.NoError(t, err)
		assert.Equal(t, "Ana", got.Name)
	})
}

func TestRegistry_FilteredViews(t *testing.T) {
	forEachBackend(t, func(t *testing.T, reg *registry.Registry) {
		ctx := context.Background()
		c, p := seed(t, reg)
		other, err := reg.AddClient(ctx, registry.Client{Name: "Bea", Phone: "2"})
		require.NoError(t, err)
		_, err = reg.AddDebt(ctx, registry.Debt{ParcelID: p.ID, Amount: dec("1")})
		require.NoError(t, err)

		assert.Len(t, reg.ParcelsForClient(c.ID), 1)
		assert.NotNil(t, reg.ParcelsForClient(other.ID))
		assert.Empty(t, reg.ParcelsForClient(other.ID))
		assert.Len(t, reg.DebtsForParcel(p.ID), 1)
		assert.Empty(t, reg.DebtsForParcel(404))
	})
}

// =============================================================================
// DISPLAY HELPERS
// =============================================================================

func TestRegistry_DebtSummary(t *testing.T) {
	forEachBackend(t, func(t *testing.T, reg *registry.Registry) {
		ctx := context.Background()
		_, p := seed(t, reg)
		d, err := reg.AddDebt(ctx, registry.Debt{ParcelID: p.ID, Amount: dec("200"), DueDate: oct18})
		require.NoError(t, err)

		assert.Equal(t, "Ana (555-0100) | Lot 9 | 200 | due 10/18/2026 | Pending", reg.DebtSummary(d))

		orphan := registry.Debt{ParcelID: 404, Amount: dec("5"), DueDate: oct18, Status: "Paid"}
		assert.Equal(t, "client not found | parcel not found | 5 | due 10/18/2026 | Paid", reg.DebtSummary(orphan))
	})
}

func TestRegistry_ParcelSummary(t *testing.T) {
	forEachBackend(t, func(t *testing.T, reg *registry.Registry) {
		c, p := seed(t, reg)

		ps, ok := reg.ParcelSummary(p.ID)
		assert.True(t, ok)
		assert.Equal(t, registry.ParcelSummary{ClientID: c.ID, Address: "Lot 9", ClientDisplay: "Ana (555-0100)"}, ps)

		ps, ok = reg.ParcelSummary(404)
		assert.False(t, ok)
		assert.Equal(t, registry.MsgParcelNotFound, ps.Address)
		assert.Equal(t, registry.MsgClientNotFound, ps.ClientDisplay)
	})
}

func TestRegistry_ClientBalance(t *testing.T) {
	forEachBackend(t, func(t *testing.T, reg *registry.Registry) {
		ctx := context.Background()
		c, p := seed(t, reg)
		p2, err := reg.AddParcel(ctx, registry.Parcel{ClientID: c.ID, Address: "Lot 10"})
		require.NoError(t, err)
		_, err = reg.AddDebt(ctx, registry.Debt{ParcelID: p.ID, Amount: dec("200.50")})
		require.NoError(t, err)
		_, err = reg.AddDebt(ctx, registry.Debt{ParcelID: p2.ID, Amount: dec("100"), Status: "Paid"})
		require.NoError(t, err)

		b, err := reg.ClientBalance(c.ID)
		require.NoError(t, err)
		assert.True(t, dec("300.50").Equal(b.Total), b.Total.String())
		assert.Equal(t, 2, b.Debts)
		assert.True(t, dec("200.50").Equal(b.ByStatus[registry.StatusPending]))
		assert.True(t, dec("100").Equal(b.ByStatus["Paid"]))

		_, err = reg.ClientBalance(404)
		assert.ErrorIs(t, err, registry.ErrNotFound)
	})
}

func TestRegistry_WithLocale(t *testing.T) {
	reg := registry.New(memstore.NewMemory(), registry.WithLocale(mustLocale(t, "es-AR")))
	require.NoError(t, reg.Initialize(context.Background()))

	assert.Equal(t, "18/10/2026", reg.FormatDate("2026-10-18"))
	assert.Equal(t, registry.NoDate, reg.FormatDate(""))
}

// =============================================================================
// STORE FAILURES
// =============================================================================

// failingStore wraps a Store and fails GetAll once armed.
type failingStore struct {
	registry.Store
	failGetAll bool
}

var errDisk = errors.New("disk on fire")

func (f *failingStore) GetAll(ctx context.Context, c registry.Collection) ([]registry.Record, error) {
	if f.failGetAll {
		return nil, errDisk
	}
	return f.Store.GetAll(ctx, c)
}

func TestRegistry_RefreshFailure_KeepsPreviousSnapshot(t *testing.T) {
	// GIVEN: A registry with one client whose store starts failing reads
	store := &failingStore{Store: memstore.NewMemory()}
	reg := registry.New(store)
	ctx := context.Background()
	require.NoError(t, reg.Initialize(ctx))
	c, err := reg.AddClient(ctx, registry.Client{Name: "Ana", Phone: "1"})
	require.NoError(t, err)

	store.failGetAll = true

	// WHEN: A write succeeds but the refresh after it fails
	_, err = reg.AddClient(ctx, registry.Client{Name: "Bea", Phone: "2"})

	// THEN: The store error surfaces and readers still see the old snapshot
	assert.ErrorIs(t, err, errDisk)
	assert.Equal(t, []registry.Client{c}, reg.ListClients())

	// AND: The next successful refresh catches up
	store.failGetAll = false
	require.NoError(t, reg.Initialize(ctx))
	assert.Len(t, reg.ListClients(), 2)
}

// =============================================================================
// CONCURRENCY
// =============================================================================

func TestRegistry_ConcurrentWriters(t *testing.T) {
	forEachBackend(t, func(t *testing.T, reg *registry.Registry) {
		ctx := context.Background()
		_, p := seed(t, reg)

		const n = 20
		var wg sync.WaitGroup
		errs := make(chan error, n)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := reg.AddDebt(ctx, registry.Debt{ParcelID: p.ID, Amount: dec("1")})
				errs <- err
				_ = reg.ListDebts()
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			assert.NoError(t, err)
		}

		debts := reg.ListDebts()
		require.Len(t, debts, n)
		seen := map[registry.ID]bool{}
		for _, d := range debts {
			assert.False(t, seen[d.ID], "id %d issued twice", d.ID)
			seen[d.ID] = true
		}
	})
}

// =============================================================================
// METRICS
// =============================================================================

func TestRegistry_Metrics(t *testing.T) {
	// GIVEN: A registry reporting into a private registry
	promReg := prometheus.NewRegistry()
	m := metrics.New(promReg)
	reg := registry.New(memstore.NewMemory(), registry.WithMetrics(m))
	ctx := context.Background()
	require.NoError(t, reg.Initialize(ctx))

	// WHEN: One success, one dangling reference, one blocked delete
	c, err := reg.AddClient(ctx, registry.Client{Name: "Ana", Phone: "1"})
	require.NoError(t, err)
	_, err = reg.AddParcel(ctx, registry.Parcel{ClientID: 9, Address: "x"})
	require.Error(t, err)
	_, err = reg.AddParcel(ctx, registry.Parcel{ClientID: c.ID, Address: "Lot 9"})
	require.NoError(t, err)
	require.Error(t, reg.RemoveClient(ctx, c.ID))

	// THEN: Counters reflect each outcome
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Mutations.WithLabelValues("clients", "create", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Mutations.WithLabelValues("parcels", "create", "reference")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Mutations.WithLabelValues("clients", "remove", "constraint")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GuardRejections.WithLabelValues("parcels", registry.MsgClientNotFound)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GuardRejections.WithLabelValues("clients", registry.MsgClientHasParcels)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Records.WithLabelValues("parcels")))
}

// =============================================================================
// END-TO-END SCENARIOS
// =============================================================================

func TestScenario_AnaLot9(t *testing.T) {
	forEachBackend(t, func(t *testing.T, reg *registry.Registry) {
		ctx := context.Background()

		c, err := reg.AddClient(ctx, registry.Client{Name: "Ana", Phone: "555-0100"})
		require.NoError(t, err)
		assert.Equal(t, registry.ID(1), c.ID)

		p, err := reg.AddParcel(ctx, registry.Parcel{ClientID: 1, Address: "Lot 9"})
		require.NoError(t, err)
		assert.Equal(t, registry.ID(1), p.ID)

		assert.ErrorIs(t, reg.RemoveClient(ctx, 1), registry.ErrConstraint)

		d, err := reg.AddDebt(ctx, registry.Debt{ParcelID: 1, Amount: dec("200")})
		require.NoError(t, err)
		assert.Equal(t, registry.ID(1), d.ID)
		assert.Equal(t, "Pending", d.Status)

		summary := reg.DebtSummary(d)
		for _, want := range []string{"Ana", "Lot 9", "200", "Pending"} {
			assert.Contains(t, summary, want)
		}
	})
}

func TestScenario_DebtOnMissingParcel(t *testing.T) {
	forEachBackend(t, func(t *testing.T, reg *registry.Registry) {
		ctx := context.Background()
		_, p := seed(t, reg)
		_, err := reg.AddDebt(ctx, registry.Debt{ParcelID: p.ID, Amount: dec("10"), DueDate: oct18})
		require.NoError(t, err)
		before := reg.ListDebts()

		_, err = reg.AddDebt(ctx, registry.Debt{ParcelID: 99, Amount: dec("50")})

		assert.ErrorIs(t, err, registry.ErrReference)
		assert.Equal(t, before, reg.ListDebts())
	})
}
