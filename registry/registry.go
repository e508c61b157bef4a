/*
registry.go - Façade over store, guard and cache

PURPOSE:
  The single entry point presentation code calls. Every mutation runs

    normalize -> validate -> guard (against cache) -> store -> refresh cache

  and every read is answered from the cache.

WRITERS:
  Mutations hold the registry's write lock from the guard check until the
  cache refresh has finished. A second writer therefore always sees the
  effect of the first, which is what the guard's cache-based checks rely on.
  Reads take no lock.

FAILURES:
  A failed store call leaves the cache untouched. A failed refresh after a
  successful write is returned to the caller; the cache keeps its previous
  snapshot and the next successful refresh catches up.

SEE ALSO:
  - guard.go: Reference and dependent checks
  - projection.go: Read cache
  - display.go: Derived display strings
*/
package registry

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/warp/landbook/metrics"
	"golang.org/x/text/language"
)

// Registry tracks clients, their parcels and the debts on those parcels.
type Registry struct {
	store Store
	cache *Projection
	guard *Guard

	mu          sync.Mutex // serializes writers
	initialized bool

	logger  *slog.Logger
	metrics *metrics.Metrics
	locale  language.Tag
	now     func() time.Time
}

type Option func(r *Registry)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Registry) {
		r.metrics = m
	}
}

// WithLocale sets the locale used by FormatDate and DebtSummary.
func WithLocale(tag language.Tag) Option {
	return func(r *Registry) {
		r.locale = tag
	}
}

// WithClock replaces time.Now, used for default due dates.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		r.now = now
	}
}

// New constructs a Registry over store. Call Initialize before use.
func New(store Store, opts ...Option) *Registry {
	cache := NewProjection()
	r := &Registry{
		store:  store,
		cache:  cache,
		guard:  NewGuard(cache),
		logger: slog.New(discardHandler{}),
		locale: language.AmericanEnglish,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Initialize opens or creates the collections and loads the cache.
// Calling it again re-reads the store and changes nothing else.
func (r *Registry) Initialize(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.store.Initialize(ctx); err != nil {
		r.logger.Error("store initialization failed", "error", err)
		return err
	}
	if err := r.refresh(ctx); err != nil {
		return err
	}
	r.initialized = true
	counts := r.cache.Counts()
	r.logger.Info("registry initialized",
		"clients", counts[Clients], "parcels", counts[Parcels], "debts", counts[Debts])
	return nil
}

// Locale returns the locale used for dates.
func (r *Registry) Locale() language.Tag {
	return r.locale
}

// =============================================================================
// CLIENTS
// =============================================================================

func (r *Registry) AddClient(ctx context.Context, c Client) (Client, error) {
	rec, err := r.create(ctx, c)
	if err != nil {
		return Client{}, err
	}
	return rec.(Client), nil
}

func (r *Registry) ListClients() []Client {
	return r.cache.Clients()
}

func (r *Registry) GetClient(id ID) (Client, error) {
	c, ok := r.cache.Client(id)
	if !ok {
		return Client{}, &NotFoundError{Collection: Clients, ID: id}
	}
	return c, nil
}

// UpdateClient replaces a client. Parcels are not re-checked.
func (r *Registry) UpdateClient(ctx context.Context, c Client) (Client, error) {
	rec, err := r.update(ctx, c)
	if err != nil {
		return Client{}, err
	}
	return rec.(Client), nil
}

func (r *Registry) RemoveClient(ctx context.Context, id ID) error {
	return r.remove(ctx, Clients, id)
}

// =============================================================================
// PARCELS
// =============================================================================

func (r *Registry) AddParcel(ctx context.Context, p Parcel) (Parcel, error) {
	rec, err := r.create(ctx, p)
	if err != nil {
		return Parcel{}, err
	}
	return rec.(Parcel), nil
}

func (r *Registry) ListParcels() []Parcel {
	return r.cache.Parcels()
}

func (r *Registry) GetParcel(id ID) (Parcel, error) {
	p, ok := r.cache.Parcel(id)
	if !ok {
		return Parcel{}, &NotFoundError{Collection: Parcels, ID: id}
	}
	return p, nil
}

func (r *Registry) ParcelsForClient(clientID ID) []Parcel {
	return r.cache.ParcelsForClient(clientID)
}

func (r *Registry) UpdateParcel(ctx context.Context, p Parcel) (Parcel, error) {
	rec, err := r.update(ctx, p)
	if err != nil {
		return Parcel{}, err
	}
	return rec.(Parcel), nil
}

func (r *Registry) RemoveParcel(ctx context.Context, id ID) error {
	return r.remove(ctx, Parcels, id)
}

// =============================================================================
// DEBTS
// =============================================================================

// AddDebt creates a debt. A zero DueDate becomes now, an empty Status "Pending".
func (r *Registry) AddDebt(ctx context.Context, d Debt) (Debt, error) {
	rec, err := r.create(ctx, d.withDefaults(r.now()))
	if err != nil {
		return Debt{}, err
	}
	return rec.(Debt), nil
}

func (r *Registry) ListDebts() []Debt {
	return r.cache.Debts()
}

func (r *Registry) GetDebt(id ID) (Debt, error) {
	d, ok := r.cache.Debt(id)
	if !ok {
		return Debt{}, &NotFoundError{Collection: Debts, ID: id}
	}
	return d, nil
}

func (r *Registry) DebtsForParcel(parcelID ID) []Debt {
	return r.cache.DebtsForParcel(parcelID)
}

func (r *Registry) UpdateDebt(ctx context.Context, d Debt) (Debt, error) {
	rec, err := r.update(ctx, d.withDefaults(r.now()))
	if err != nil {
		return Debt{}, err
	}
	return rec.(Debt), nil
}

func (r *Registry) RemoveDebt(ctx context.Context, id ID) error {
	return r.remove(ctx, Debts, id)
}

// =============================================================================
// MUTATION PIPELINE
// =============================================================================

func (r *Registry) create(ctx context.Context, rec Record) (Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := rec.Collection()
	rec, err := r.prepare(rec, r.guard.CheckCreate)
	if err != nil {
		r.observe(c, "create", err)
		return nil, err
	}

	id, err := r.store.Create(ctx, rec)
	if err != nil {
		r.observe(c, "create", err)
		return nil, err
	}
	rec = rec.WithID(id)

	err = r.refresh(ctx)
	r.observe(c, "create", err)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("record created", "collection", c, "id", id)
	return rec, nil
}

func (r *Registry) update(ctx context.Context, rec Record) (Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := rec.Collection()
	if rec.RecordID() <= 0 {
		err := &NotFoundError{Collection: c, ID: rec.RecordID()}
		r.observe(c, "update", err)
		return nil, err
	}
	rec, err := r.prepare(rec, r.guard.CheckUpdate)
	if err != nil {
		r.observe(c, "update", err)
		return nil, err
	}

	if err := r.store.Put(ctx, rec); err != nil {
		r.observe(c, "update", err)
		return nil, err
	}

	err = r.refresh(ctx)
	r.observe(c, "update", err)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("record updated", "collection", c, "id", rec.RecordID())
	return rec, nil
}

func (r *Registry) remove(ctx context.Context, c Collection, id ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.ready(); err != nil {
		return err
	}
	if err := r.guard.CheckDelete(c, id); err != nil {
		r.reject(c, err)
		r.observe(c, "remove", err)
		return err
	}
	if err := r.store.Delete(ctx, c, id); err != nil {
		r.observe(c, "remove", err)
		return err
	}

	err := r.refresh(ctx)
	r.observe(c, "remove", err)
	if err != nil {
		return err
	}
	r.logger.Debug("record removed", "collection", c, "id", id)
	return nil
}

// prepare normalizes and validates rec, then runs the guard check.
func (r *Registry) prepare(rec Record, check func(Record) error) (Record, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	rec = Normalize(rec)
	if err := Validate(rec); err != nil {
		return nil, err
	}
	if err := check(rec); err != nil {
		if IsClientError(err) {
			r.reject(rec.Collection(), err)
		}
		return nil, err
	}
	return rec, nil
}

func (r *Registry) ready() error {
	if !r.initialized {
		return ErrNotInitialized
	}
	return nil
}

// refresh reloads the cache. Callers hold r.mu.
func (r *Registry) refresh(ctx context.Context) error {
	start := time.Now()
	if err := r.cache.Refresh(ctx, r.store); err != nil {
		r.logger.Error("cache refresh failed", "error", err)
		return err
	}
	r.metrics.ObserveRefresh(start)
	for c, n := range r.cache.Counts() {
		r.metrics.SetRecords(string(c), n)
	}
	return nil
}

func (r *Registry) reject(c Collection, err error) {
	var refErr *ReferenceError
	var conErr *ConstraintError
	reason := "other"
	switch {
	case errors.As(err, &refErr):
		reason = refErr.Message
	case errors.As(err, &conErr):
		reason = conErr.Message
	}
	r.metrics.IncGuardRejection(string(c), reason)
	r.logger.Info("mutation rejected", "collection", c, "reason", reason)
}

func (r *Registry) observe(c Collection, op string, err error) {
	r.metrics.ObserveMutation(string(c), op, outcome(err))
	if err != nil && !IsClientError(err) && !IsNotFound(err) && !errors.Is(err, ErrNotInitialized) {
		r.logger.Error("mutation failed", "collection", c, "op", op, "error", err)
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrReference):
		return "reference"
	case errors.Is(err, ErrConstraint):
		return "constraint"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	}
	return "error"
}

// discardHandler drops every record; it is the default logger's handler.
type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (h discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return h }
func (h discardHandler) WithGroup(string) slog.Handler           { return h }
