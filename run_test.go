package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"qrzsync/config"
	"qrzsync/operator"
	"qrzsync/qrz"
)

type fakeGateway struct {
	rows        map[string]operator.Record
	inserts     int
	updates     int
	inactivated []string
	getErr      error
}

func (g *fakeGateway) Get(_ context.Context, call string) (*operator.Record, error) {
	if g.getErr != nil {
		return nil, g.getErr
	}
	rec, ok := g.rows[call]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (g *fakeGateway) Insert(_ context.Context, rec operator.Record) error {
	g.rows[rec.Call] = rec
	g.inserts++
	return nil
}

func (g *fakeGateway) Update(_ context.Context, rec operator.Record) error {
	g.rows[rec.Call] = rec
	g.updates++
	return nil
}

func (g *fakeGateway) MarkInactive(_ context.Context, call, date string) error {
	rec := g.rows[call]
	rec.Status = operator.StatusInactive
	rec.Updated = date
	g.rows[call] = rec
	g.inactivated = append(g.inactivated, call)
	return nil
}

func (g *fakeGateway) ListCalls(_ context.Context) ([]string, error) {
	var calls []string
	for call := range g.rows {
		calls = append(calls, call)
	}
	return calls, nil
}

func fixedNow() time.Time {
	return time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
}

func activeFields(call string) qrz.Fields {
	return qrz.Fields{
		Call:           call,
		FirstName:      "FRED",
		LastName:       "LLOYD",
		Address:        "123 Main St",
		City:           "Scottsdale",
		State:          "AZ",
		Zip:            "85255",
		EffectiveDate:  "2020-01-20",
		ExpirationDate: "2030-01-20",
		ClassCode:      "E",
		Email:          "fred@example.com",
	}
}

func newTestRunner(t *testing.T, gw *fakeGateway, lookup func(ctx context.Context, key, call string) (qrz.Fields, []byte, error)) *runner {
	t.Helper()
	return &runner{
		lookup:  lookup,
		db:      gw,
		cfg:     &config.Config{NonUpdateStatuses: []string{"SK", "SILENT KEY"}},
		key:     "testkey",
		update:  true,
		reports: newReportFiles(t.TempDir(), fixedNow()),
		now:     fixedNow,
		out:     io.Discard,
	}
}

func TestProcessInsertsNewCallsign(t *testing.T) {
	gw := &fakeGateway{rows: map[string]operator.Record{}}
	r := newTestRunner(t, gw, func(_ context.Context, _, call string) (qrz.Fields, []byte, error) {
		return activeFields(call), []byte("<xml/>"), nil
	})

	r.Process(context.Background(), "aa7bq")

	if gw.inserts != 1 {
		t.Fatalf("expected 1 insert, got %d", gw.inserts)
	}
	rec := gw.rows["AA7BQ"]
	if rec.Status != operator.StatusNew {
		t.Fatalf("expected New status on insert, got %q", rec.Status)
	}
	if rec.Updated != "2026-06-01" {
		t.Fatalf("expected Updated set to today, got %q", rec.Updated)
	}
}

func TestProcessIsIdempotent(t *testing.T) {
	gw := &fakeGateway{rows: map[string]operator.Record{}}
	r := newTestRunner(t, gw, func(_ context.Context, _, call string) (qrz.Fields, []byte, error) {
		return activeFields(call), nil, nil
	})

	r.Process(context.Background(), "AA7BQ")
	if gw.inserts != 1 {
		t.Fatalf("expected insert on first run, got %d", gw.inserts)
	}

	// The second run sees Status "New" vs derived "Active" and updates once.
	r.Process(context.Background(), "AA7BQ")
	if gw.updates != 1 {
		t.Fatalf("expected one update to settle the status, got %d", gw.updates)
	}

	// From here on the remote data is unchanged: no further writes.
	r.Process(context.Background(), "AA7BQ")
	r.Process(context.Background(), "AA7BQ")
	if gw.updates != 1 || gw.inserts != 1 {
		t.Fatalf("expected no writes for unchanged data, got %d inserts %d updates",
			gw.inserts, gw.updates)
	}
	if r.stats.unchanged != 2 {
		t.Fatalf("expected 2 unchanged, got %d", r.stats.unchanged)
	}
}

func TestProtectedStatusIsNeverWritten(t *testing.T) {
	gw := &fakeGateway{rows: map[string]operator.Record{
		"AA7BQ": {Call: "AA7BQ", FirstName: "Fred", LastName: "Lloyd", Status: "SK"},
	}}
	r := newTestRunner(t, gw, func(_ context.Context, _, call string) (qrz.Fields, []byte, error) {
		return activeFields(call), nil, nil
	})

	r.Process(context.Background(), "AA7BQ")

	if gw.updates != 0 || gw.inserts != 0 {
		t.Fatalf("expected no writes for protected status, got %d inserts %d updates",
			gw.inserts, gw.updates)
	}
	if gw.rows["AA7BQ"].Status != "SK" {
		t.Fatalf("stored status changed: %+v", gw.rows["AA7BQ"])
	}
}

func TestBatchContinuesPastBadCallsign(t *testing.T) {
	gw := &fakeGateway{rows: map[string]operator.Record{}}
	r := newTestRunner(t, gw, func(_ context.Context, _, call string) (qrz.Fields, []byte, error) {
		if call == "BAD1X" {
			return qrz.Fields{}, nil, errors.New("connection reset")
		}
		return activeFields(call), nil, nil
	})

	r.ProcessLines(context.Background(), strings.NewReader("AA7BQ\n\nBAD1X\nK1ABC\n"))

	if r.stats.processed != 3 {
		t.Fatalf("expected 3 processed (blank skipped), got %d", r.stats.processed)
	}
	if r.stats.failed != 1 {
		t.Fatalf("expected 1 failure, got %d", r.stats.failed)
	}
	if gw.inserts != 2 {
		t.Fatalf("expected the two good callsigns inserted, got %d", gw.inserts)
	}
}

func TestNotFoundMarksInactive(t *testing.T) {
	gw := &fakeGateway{rows: map[string]operator.Record{
		"AA7BQ": {Call: "AA7BQ", Status: operator.StatusActive},
		"K1ABC": {Call: "K1ABC", Status: "SK"},
		"W1AW":  {Call: "W1AW", Status: operator.StatusInactive},
	}}
	r := newTestRunner(t, gw, func(_ context.Context, _, call string) (qrz.Fields, []byte, error) {
		return qrz.Fields{}, nil, fmt.Errorf("qrz lookup %s: %w", call, qrz.ErrNotFound)
	})

	r.Process(context.Background(), "AA7BQ")
	r.Process(context.Background(), "K1ABC")
	r.Process(context.Background(), "W1AW")

	if len(gw.inactivated) != 1 || gw.inactivated[0] != "AA7BQ" {
		t.Fatalf("expected only AA7BQ marked inactive, got %v", gw.inactivated)
	}
	if gw.rows["K1ABC"].Status != "SK" {
		t.Fatalf("protected status overwritten: %+v", gw.rows["K1ABC"])
	}
}

func TestNoUpdateFlagMeansNoWrites(t *testing.T) {
	gw := &fakeGateway{rows: map[string]operator.Record{}}
	r := newTestRunner(t, gw, func(_ context.Context, _, call string) (qrz.Fields, []byte, error) {
		return activeFields(call), nil, nil
	})
	r.update = false

	r.Process(context.Background(), "AA7BQ")

	if gw.inserts != 0 || gw.updates != 0 {
		t.Fatalf("expected display-only run, got %d inserts %d updates", gw.inserts, gw.updates)
	}
}

func TestNameMismatchBlocksUpdateAndIsLogged(t *testing.T) {
	gw := &fakeGateway{rows: map[string]operator.Record{
		"AA7BQ": {Call: "AA7BQ", FirstName: "George", LastName: "Lloyd", Status: operator.StatusActive},
	}}
	r := newTestRunner(t, gw, func(_ context.Context, _, call string) (qrz.Fields, []byte, error) {
		return activeFields(call), nil, nil
	})

	r.Process(context.Background(), "AA7BQ")

	if gw.updates != 0 {
		t.Fatalf("expected mismatch to block the update, got %d updates", gw.updates)
	}
	data, err := os.ReadFile(r.reports.mismatchPath)
	if err != nil {
		t.Fatalf("expected mismatch report file: %v", err)
	}
	if !strings.Contains(string(data), "AA7BQ") || !strings.Contains(string(data), "first name") {
		t.Fatalf("unexpected mismatch report: %s", data)
	}
}

func TestUnparseableExpirationSkipsWrite(t *testing.T) {
	gw := &fakeGateway{rows: map[string]operator.Record{}}
	r := newTestRunner(t, gw, func(_ context.Context, _, call string) (qrz.Fields, []byte, error) {
		f := activeFields(call)
		f.ExpirationDate = ""
		return f, nil, nil
	})

	r.Process(context.Background(), "AA7BQ")

	if gw.inserts != 0 {
		t.Fatalf("expected no insert without an expiration date, got %d", gw.inserts)
	}
	if r.stats.skipped != 1 {
		t.Fatalf("expected skip counted, got %+v", r.stats)
	}
}

func TestCheckStatusWritesDiscrepancyReport(t *testing.T) {
	gw := &fakeGateway{rows: map[string]operator.Record{
		"AA7BQ": {Call: "AA7BQ", FirstName: "Fred", LastName: "Lloyd", Status: "New"},
	}}
	r := newTestRunner(t, gw, func(_ context.Context, _, call string) (qrz.Fields, []byte, error) {
		return activeFields(call), nil, nil
	})
	r.update = false
	r.checkStatus = true

	r.Process(context.Background(), "AA7BQ")

	data, err := os.ReadFile(r.reports.statusPath)
	if err != nil {
		t.Fatalf("expected status report file: %v", err)
	}
	if !strings.Contains(string(data), "expected status Active, found New") {
		t.Fatalf("unexpected status report: %s", data)
	}
}

func TestArchStringHasPlatformAndWordSize(t *testing.T) {
	s := archString()
	if !strings.Contains(s, "/") || !strings.Contains(s, "-bit") {
		t.Fatalf("unexpected arch string: %s", s)
	}
}
