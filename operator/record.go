// Package operator models rows of the local operator table and the rules
// for turning QRZ lookup results into them.
package operator

import (
	"fmt"
	"strings"
	"time"

	"github.com/zeebo/xxh3"

	"qrzsync/qrz"
)

// Status values written by the synchronizer. The table also carries
// operator-maintained statuses (for example "SK") that the configuration
// marks as protected.
const (
	StatusActive   = "Active"
	StatusExpired  = "License Expired"
	StatusInactive = "Inactive"
	StatusNew      = "New"
)

// DateLayout is the date format used by both QRZ and the Updated column.
const DateLayout = "2006-01-02"

// Record is one row of the operator table. The csv tags drive the export
// column headers, matching the table's column names.
type Record struct {
	Call         string `csv:"Call"`
	FirstName    string `csv:"FirstName"`
	LastName     string `csv:"LastName"`
	Address      string `csv:"Address_1"`
	City         string `csv:"City"`
	State        string `csv:"State"`
	Zip          string `csv:"Zip"`
	LicenseStart string `csv:"Lic-issued"`
	LicenseEnd   string `csv:"Lic-exp"`
	Class        string `csv:"Class"`
	Email        string `csv:"E-Mail"`
	Status       string `csv:"Status"`
	Updated      string `csv:"Updated"`
}

// FromAPI builds a normalized record from raw QRZ fields. The Status and
// Updated columns are filled in later, once the license dates have been
// checked and the write decision is made.
func FromAPI(f qrz.Fields) Record {
	first, last := normalizeNamePair(f.FirstName, f.LastName)
	return Record{
		Call:         CleanCallsign(f.Call),
		FirstName:    first,
		LastName:     last,
		Address:      f.Address,
		City:         f.City,
		State:        f.State,
		Zip:          f.Zip,
		LicenseStart: dateOnly(f.EffectiveDate),
		LicenseEnd:   dateOnly(f.ExpirationDate),
		Class:        MapLicenseClass(f.ClassCode),
		Email:        f.Email,
	}
}

// DeriveStatus decides the status to persist from the license expiration
// date. An unparseable or missing date makes the record unpersistable; the
// caller skips the write.
func DeriveStatus(licenseEnd string, now time.Time) (string, error) {
	end, err := time.Parse(DateLayout, licenseEnd)
	if err != nil {
		return "", fmt.Errorf("operator: bad license end date %q: %w", licenseEnd, err)
	}
	if end.Before(now) {
		return StatusExpired, nil
	}
	return StatusActive, nil
}

// ChangeHash folds every persisted field except Updated into a single
// value. Equal hashes mean the row does not need a write.
func ChangeHash(r Record) uint64 {
	fields := []string{
		r.Call, r.FirstName, r.LastName, r.Address, r.City, r.State, r.Zip,
		r.LicenseStart, r.LicenseEnd, r.Class, r.Email, r.Status,
	}
	return xxh3.HashString(strings.Join(fields, "\x1f"))
}

// FieldChange describes one differing column, for debug output.
type FieldChange struct {
	Column  string
	Stored  string
	Fetched string
}

// Diff lists the columns where the fetched record differs from the stored
// row, Updated excluded.
func Diff(stored, fetched Record) []FieldChange {
	pairs := []struct {
		column       string
		old, fetched string
	}{
		{"Call", stored.Call, fetched.Call},
		{"FirstName", stored.FirstName, fetched.FirstName},
		{"LastName", stored.LastName, fetched.LastName},
		{"Address_1", stored.Address, fetched.Address},
		{"City", stored.City, fetched.City},
		{"State", stored.State, fetched.State},
		{"Zip", stored.Zip, fetched.Zip},
		{"Lic-issued", stored.LicenseStart, fetched.LicenseStart},
		{"Lic-exp", stored.LicenseEnd, fetched.LicenseEnd},
		{"Class", stored.Class, fetched.Class},
		{"E-Mail", stored.Email, fetched.Email},
		{"Status", stored.Status, fetched.Status},
	}

	var changes []FieldChange
	for _, p := range pairs {
		if p.old != p.fetched {
			changes = append(changes, FieldChange{Column: p.column, Stored: p.old, Fetched: p.fetched})
		}
	}
	return changes
}
