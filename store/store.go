// Package store is the gateway to the operator table reached through the
// configured ODBC data source. SQL sticks to the subset the Access driver
// understands: [bracketed] identifiers and ? placeholders.
package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/alexbrainman/odbc"

	"qrzsync/operator"
)

const selectColumns = `Call, FirstName, LastName, Address_1, City, State, Zip,
	[Lic-issued], [Lic-exp], [Class], [E-Mail], [Status], [Updated]`

// Store wraps the single database connection held for the run.
type Store struct {
	db *sql.DB
}

// Open connects to the named ODBC data source and verifies the connection.
// A failure here is fatal for the run.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("odbc", "DSN="+dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open DSN %s: %w", dsn, err)
	}
	// Access over ODBC is effectively single-user; one connection is enough
	// and avoids file locking surprises.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: connect to DSN %s: %w", dsn, err)
	}
	return &Store{db: db}, nil
}

// NewWithDB wraps an already-open database handle. Tests use this with a
// SQLite database standing in for Access.
func NewWithDB(db *sql.DB) *Store {
	return &Store{db: db}
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the stored record for a callsign, or nil when the callsign
// is not in the table.
func (s *Store) Get(ctx context.Context, call string) (*operator.Record, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+selectColumns+" FROM tbl_Operator WHERE Call=?", call)

	rec, err := scanRecord(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: get %s: %w", call, err)
	}
	return rec, nil
}

// Insert adds a new row for a callsign seen for the first time.
func (s *Store) Insert(ctx context.Context, rec operator.Record) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO tbl_Operator
		(Call, FirstName, LastName, Address_1, City, State, Zip,
		 [Lic-issued], [Lic-exp], [Class], [E-Mail], [Status], [Updated])
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Call, rec.FirstName, rec.LastName, rec.Address, rec.City,
		rec.State, rec.Zip, rec.LicenseStart, rec.LicenseEnd, rec.Class,
		rec.Email, rec.Status, rec.Updated)
	if err != nil {
		return fmt.Errorf("store: insert %s: %w", rec.Call, err)
	}
	return nil
}

// Update rewrites every data column of an existing row. Callers only reach
// this after change detection, so every call performs real work.
func (s *Store) Update(ctx context.Context, rec operator.Record) error {
	_, err := s.db.ExecContext(ctx, `UPDATE tbl_Operator SET
		FirstName=?, LastName=?, Address_1=?, City=?, State=?, Zip=?,
		[Lic-issued]=?, [Lic-exp]=?, [Class]=?, [E-Mail]=?, [Status]=?, [Updated]=?
		WHERE Call=?`,
		rec.FirstName, rec.LastName, rec.Address, rec.City, rec.State,
		rec.Zip, rec.LicenseStart, rec.LicenseEnd, rec.Class, rec.Email,
		rec.Status, rec.Updated, rec.Call)
	if err != nil {
		return fmt.Errorf("store: update %s: %w", rec.Call, err)
	}
	return nil
}

// MarkInactive records that QRZ no longer knows the callsign.
func (s *Store) MarkInactive(ctx context.Context, call, date string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE tbl_Operator SET [Status]=?, [Updated]=? WHERE Call=?",
		operator.StatusInactive, date, call)
	if err != nil {
		return fmt.Errorf("store: mark %s inactive: %w", call, err)
	}
	return nil
}

// ListCalls returns every callsign in the table, for refresh runs.
func (s *Store) ListCalls(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT Call FROM tbl_Operator")
	if err != nil {
		return nil, fmt.Errorf("store: list callsigns: %w", err)
	}
	defer rows.Close()

	var calls []string
	for rows.Next() {
		var call string
		if err := rows.Scan(&call); err != nil {
			return nil, fmt.Errorf("store: scan callsign: %w", err)
		}
		calls = append(calls, call)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list callsigns: %w", err)
	}
	return calls, nil
}

// All returns every row in the table, for CSV export.
func (s *Store) All(ctx context.Context) ([]operator.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+selectColumns+" FROM tbl_Operator")
	if err != nil {
		return nil, fmt.Errorf("store: read table: %w", err)
	}
	defer rows.Close()

	var records []operator.Record
	for rows.Next() {
		rec, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("store: scan row: %w", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: read table: %w", err)
	}
	return records, nil
}

// scanRecord maps one result row onto a Record. Access rows routinely hold
// NULLs, which scan as empty strings here.
func scanRecord(scan func(dest ...any) error) (*operator.Record, error) {
	var call, first, last, address, city, state, zip sql.NullString
	var licStart, licEnd, class, email, status, updated sql.NullString

	err := scan(&call, &first, &last, &address, &city, &state, &zip,
		&licStart, &licEnd, &class, &email, &status, &updated)
	if err != nil {
		return nil, err
	}
	return &operator.Record{
		Call:         call.String,
		FirstName:    first.String,
		LastName:     last.String,
		Address:      address.String,
		City:         city.String,
		State:        state.String,
		Zip:          zip.String,
		LicenseStart: licStart.String,
		LicenseEnd:   licEnd.String,
		Class:        class.String,
		Email:        email.String,
		Status:       status.String,
		Updated:      updated.String,
	}, nil
}
