/*
Package sqlite provides a SQLite-backed implementation of registry.Store.

PURPOSE:
  Durable local storage for the three collections. One table per
  collection, one row per record.

KEY TABLES:
  clients:  id, name, phone, address
  parcels:  id, client_id, address, area, price
  debts:    id, parcel_id, amount, due_date, status

INDEXES:
  - idx_clients_name:   clients by name
  - idx_parcels_client: parcels by owning client
  - idx_debts_parcel:   debts by parcel

IDENTITY:
  Ids are INTEGER PRIMARY KEY AUTOINCREMENT. SQLite then never hands out an
  id that was used before, even after the row holding it is deleted.

NO FOREIGN KEYS:
  References between tables are checked by registry.Guard before writes
  reach the store, so the schema carries no REFERENCES clauses.

NUMBERS AND DATES:
  Decimals are stored as TEXT (decimal.Decimal.String) so no precision is
  lost. Due dates are RFC 3339 TEXT with their original offset.

DURABILITY:
  WAL journal with synchronous=FULL: a write is on disk once the call
  returns. A single connection is kept open, which also makes ":memory:"
  databases behave as one database.

USAGE:
  store, err := sqlite.New("./data/landbook.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  reg := registry.New(store)
  err = reg.Initialize(ctx)

MIGRATION:
  Schema is created on Initialize with CREATE ... IF NOT EXISTS. There are
  no migrations beyond the initial creation.

SEE ALSO:
  - registry/store.go: Interface definition
  - registry/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/landbook/registry"
)

// Store implements registry.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ registry.Store = (*Store)(nil)

// New opens the SQLite database at dbPath, creating the file if needed.
// Use ":memory:" for an in-memory database. Tables are created by Initialize.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=FULL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Initialize creates the tables and indexes if they do not exist yet.
func (s *Store) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	schema := `
	CREATE TABLE IF NOT EXISTS clients (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		phone TEXT NOT NULL,
		address TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_clients_name
		ON clients(name);

	CREATE TABLE IF NOT EXISTS parcels (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		client_id INTEGER NOT NULL,
		address TEXT NOT NULL,
		area TEXT NOT NULL DEFAULT '0',
		price TEXT NOT NULL DEFAULT '0',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_parcels_client
		ON parcels(client_id);

	CREATE TABLE IF NOT EXISTS debts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		parcel_id INTEGER NOT NULL,
		amount TEXT NOT NULL,
		due_date TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'Pending',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_debts_parcel
		ON debts(parcel_id);
	`

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// =============================================================================
// WRITES
// =============================================================================

// Create inserts rec. A zero id lets SQLite assign the next one.
func (s *Store) Create(ctx context.Context, rec registry.Record) (registry.ID, error) {
	if err := registry.Validate(rec); err != nil {
		return 0, err
	}
	rec = registry.Normalize(rec)

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC().Format(time.RFC3339)
	var id any
	if rec.RecordID() != 0 {
		id = int64(rec.RecordID())
	}

	var (
		res sql.Result
		err error
	)
	switch r := rec.(type) {
	case registry.Client:
		res, err = s.db.ExecContext(ctx, `
			INSERT INTO clients (id, name, phone, address, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			id, r.Name, r.Phone, r.Address, now, now)
	case registry.Parcel:
		res, err = s.db.ExecContext(ctx, `
			INSERT INTO parcels (id, client_id, address, area, price, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			id, int64(r.ClientID), r.Address, r.Area.String(), r.Price.String(), now, now)
	case registry.Debt:
		res, err = s.db.ExecContext(ctx, `
			INSERT INTO debts (id, parcel_id, amount, due_date, status, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			id, int64(r.ParcelID), r.Amount.String(), formatTime(r.DueDate), statusOrDefault(r.Status), now, now)
	default:
		return 0, fmt.Errorf("%w: unsupported record type %T", registry.ErrValidation, rec)
	}
	if err != nil {
		if isUniqueConstraintError(err) {
			return 0, &registry.ConstraintError{Collection: rec.Collection(), ID: rec.RecordID(), Message: registry.MsgDuplicateID}
		}
		return 0, fmt.Errorf("failed to insert into %s: %w", rec.Collection(), err)
	}

	newID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read id of new %s row: %w", rec.Collection(), err)
	}
	return registry.ID(newID), nil
}

// Put replaces every field of an existing row.
func (s *Store) Put(ctx context.Context, rec registry.Record) error {
	if err := registry.Validate(rec); err != nil {
		return err
	}
	rec = registry.Normalize(rec)

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC().Format(time.RFC3339)
	var (
		res sql.Result
		err error
	)
	switch r := rec.(type) {
	case registry.Client:
		res, err = s.db.ExecContext(ctx, `
			UPDATE clients SET name = ?, phone = ?, address = ?, updated_at = ?
			WHERE id = ?`,
			r.Name, r.Phone, r.Address, now, int64(r.ID))
	case registry.Parcel:
		res, err = s.db.ExecContext(ctx, `
			UPDATE parcels SET client_id = ?, address = ?, area = ?, price = ?, updated_at = ?
			WHERE id = ?`,
			int64(r.ClientID), r.Address, r.Area.String(), r.Price.String(), now, int64(r.ID))
	case registry.Debt:
		res, err = s.db.ExecContext(ctx, `
			UPDATE debts SET parcel_id = ?, amount = ?, due_date = ?, status = ?, updated_at = ?
			WHERE id = ?`,
			int64(r.ParcelID), r.Amount.String(), formatTime(r.DueDate), statusOrDefault(r.Status), now, int64(r.ID))
	default:
		return fmt.Errorf("%w: unsupported record type %T", registry.ErrValidation, rec)
	}
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", rec.Collection(), err)
	}
	return expectOneRow(res, rec.Collection(), rec.RecordID())
}

// Delete removes a row.
func (s *Store) Delete(ctx context.Context, c registry.Collection, id registry.ID) error {
	table, err := tableFor(c)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM "+table+" WHERE id = ?", int64(id))
	if err != nil {
		return fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	return expectOneRow(res, c, id)
}

// =============================================================================
// READS
// =============================================================================

const (
	clientColumns = "id, name, phone, address"
	parcelColumns = "id, client_id, address, area, price"
	debtColumns   = "id, parcel_id, amount, due_date, status"
)

// Get returns a single record.
func (s *Store) Get(ctx context.Context, c registry.Collection, id registry.ID) (registry.Record, error) {
	query, err := selectFor(c)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, query+" WHERE id = ?", int64(id))
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", c, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, &registry.NotFoundError{Collection: c, ID: id}
	}
	return scanRecord(c, rows)
}

// GetAll returns every record of c in id order.
func (s *Store) GetAll(ctx context.Context, c registry.Collection) ([]registry.Record, error) {
	query, err := selectFor(c)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, query+" ORDER BY id ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", c, err)
	}
	defer rows.Close()

	records := []registry.Record{}
	for rows.Next() {
		rec, err := scanRecord(c, rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func scanRecord(c registry.Collection, rows *sql.Rows) (registry.Record, error) {
	switch c {
	case registry.Clients:
		var (
			cl registry.Client
			id int64
		)
		if err := rows.Scan(&id, &cl.Name, &cl.Phone, &cl.Address); err != nil {
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}
		cl.ID = registry.ID(id)
		return cl, nil

	case registry.Parcels:
		var (
			p            registry.Parcel
			id, clientID int64
			area, price  string
		)
		if err := rows.Scan(&id, &clientID, &p.Address, &area, &price); err != nil {
			return nil, fmt.Errorf("failed to scan parcel: %w", err)
		}
		p.ID = registry.ID(id)
		p.ClientID = registry.ID(clientID)
		var err error
		if p.Area, err = parseDecimal(area); err != nil {
			return nil, fmt.Errorf("parcel %d area: %w", id, err)
		}
		if p.Price, err = parseDecimal(price); err != nil {
			return nil, fmt.Errorf("parcel %d price: %w", id, err)
		}
		return p, nil

	case registry.Debts:
		var (
			d            registry.Debt
			id, parcelID int64
			amount, due  string
		)
		if err := rows.Scan(&id, &parcelID, &amount, &due, &d.Status); err != nil {
			return nil, fmt.Errorf("failed to scan debt: %w", err)
		}
		d.ID = registry.ID(id)
		d.ParcelID = registry.ID(parcelID)
		var err error
		if d.Amount, err = parseDecimal(amount); err != nil {
			return nil, fmt.Errorf("debt %d amount: %w", id, err)
		}
		if d.DueDate, err = time.Parse(time.RFC3339Nano, due); err != nil {
			return nil, fmt.Errorf("debt %d due date: %w", id, err)
		}
		return d, nil
	}
	return nil, fmt.Errorf("unknown collection %q", c)
}

// Helper functions

func tableFor(c registry.Collection) (string, error) {
	if !c.Valid() {
		return "", &registry.ValidationError{Collection: c, Field: "collection", Reason: "is unknown"}
	}
	return string(c), nil
}

func selectFor(c registry.Collection) (string, error) {
	switch c {
	case registry.Clients:
		return "SELECT " + clientColumns + " FROM clients", nil
	case registry.Parcels:
		return "SELECT " + parcelColumns + " FROM parcels", nil
	case registry.Debts:
		return "SELECT " + debtColumns + " FROM debts", nil
	}
	return "", &registry.ValidationError{Collection: c, Field: "collection", Reason: "is unknown"}
}

func expectOneRow(res sql.Result, c registry.Collection, id registry.ID) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return &registry.NotFoundError{Collection: c, ID: id}
	}
	return nil
}

func parseDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}

func statusOrDefault(status string) string {
	if status == "" {
		return registry.StatusPending
	}
	return status
}

func isUniqueConstraintError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "PRIMARY KEY"))
}
