package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	jsoniter "github.com/json-iterator/go"

	"qrzsync/config"
	"qrzsync/operator"
	"qrzsync/qrz"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// gateway is the slice of the store the runner needs. Tests substitute an
// in-memory fake.
type gateway interface {
	Get(ctx context.Context, call string) (*operator.Record, error)
	Insert(ctx context.Context, rec operator.Record) error
	Update(ctx context.Context, rec operator.Record) error
	MarkInactive(ctx context.Context, call, date string) error
	ListCalls(ctx context.Context) ([]string, error)
}

type runStats struct {
	processed int
	inserted  int
	updated   int
	unchanged int
	skipped   int
	failed    int
}

// runner drives the fetch-normalize-persist sequence for each callsign.
// Processing is strictly sequential; one callsign finishes before the next
// starts.
type runner struct {
	lookup      func(ctx context.Context, key, call string) (qrz.Fields, []byte, error)
	db          gateway
	cfg         *config.Config
	key         string
	update      bool
	checkStatus bool
	showRaw     bool
	debug       bool
	reports     *reportFiles
	now         func() time.Time
	out         io.Writer
	stats       runStats
}

// Process handles one callsign end to end. Failures are reported and
// counted but never abort the run; batch and refresh modes depend on that.
func (r *runner) Process(ctx context.Context, raw string) {
	call := operator.CleanCallsign(raw)
	if call == "" {
		return
	}
	r.stats.processed++

	fields, rawXML, err := r.lookup(ctx, r.key, call)
	if r.showRaw && len(rawXML) > 0 {
		fmt.Fprintln(r.out, string(rawXML))
	}
	if errors.Is(err, qrz.ErrNotFound) {
		r.handleNotFound(ctx, call)
		return
	}
	if err != nil {
		r.stats.failed++
		log.Printf("error fetching data for %s: %v", call, err)
		return
	}

	rec := operator.FromAPI(fields)
	rec.Call = call
	if r.debug {
		r.dumpRecord(call, rec)
	}

	status, err := operator.DeriveStatus(rec.LicenseEnd, r.now())
	if err != nil {
		// Rows without a usable expiration date are never written.
		if r.debug {
			log.Printf("skipping %s: %v", call, err)
		}
		r.stats.skipped++
		r.display(rec)
		return
	}
	rec.Status = status

	if r.checkStatus {
		r.checkStoredStatus(ctx, call, status)
	}

	if !r.update {
		r.display(rec)
		return
	}
	r.persist(ctx, rec)
}

func (r *runner) persist(ctx context.Context, rec operator.Record) {
	existing, err := r.db.Get(ctx, rec.Call)
	if err != nil {
		r.stats.failed++
		log.Printf("error reading %s: %v", rec.Call, err)
		return
	}
	today := r.now().Format(operator.DateLayout)

	if existing == nil {
		rec.Status = operator.StatusNew
		rec.Updated = today
		if err := r.db.Insert(ctx, rec); err != nil {
			r.stats.failed++
			log.Print(err)
			return
		}
		r.stats.inserted++
		fmt.Fprintf(r.out, "%s: inserted\n", rec.Call)
		return
	}

	if r.cfg.SuppressesUpdate(existing.Status) {
		r.stats.skipped++
		if r.debug {
			log.Printf("%s: status %q is protected, not updating", rec.Call, existing.Status)
		}
		return
	}

	if !operator.NamesMatch(existing.FirstName, existing.LastName, rec.FirstName, rec.LastName) {
		r.reportNameMismatch(existing, rec)
		r.stats.skipped++
		return
	}

	if operator.ChangeHash(*existing) == operator.ChangeHash(rec) {
		r.stats.unchanged++
		if r.debug {
			log.Printf("%s: no changes", rec.Call)
		}
		return
	}
	if r.debug {
		for _, ch := range operator.Diff(*existing, rec) {
			log.Printf("%s: %s: %q -> %q", rec.Call, ch.Column, ch.Stored, ch.Fetched)
		}
	}

	rec.Updated = today
	if err := r.db.Update(ctx, rec); err != nil {
		r.stats.failed++
		log.Print(err)
		return
	}
	r.stats.updated++
	fmt.Fprintf(r.out, "%s: updated\n", rec.Call)
}

// handleNotFound marks a callsign QRZ no longer knows as Inactive, unless
// its stored status is protected or it is already Inactive.
func (r *runner) handleNotFound(ctx context.Context, call string) {
	log.Printf("%s: not found on QRZ", call)
	if !r.update {
		return
	}
	existing, err := r.db.Get(ctx, call)
	if err != nil {
		r.stats.failed++
		log.Printf("error reading %s: %v", call, err)
		return
	}
	if existing == nil || existing.Status == operator.StatusInactive ||
		r.cfg.SuppressesUpdate(existing.Status) {
		r.stats.skipped++
		return
	}
	if err := r.db.MarkInactive(ctx, call, r.now().Format(operator.DateLayout)); err != nil {
		r.stats.failed++
		log.Print(err)
		return
	}
	r.stats.updated++
	fmt.Fprintf(r.out, "%s: marked inactive\n", call)
}

func (r *runner) checkStoredStatus(ctx context.Context, call, expected string) {
	existing, err := r.db.Get(ctx, call)
	if err != nil || existing == nil {
		return
	}
	if existing.Status == expected {
		return
	}
	msg := fmt.Sprintf("%s: expected status %s, found %s", call, expected, existing.Status)
	if r.debug {
		log.Print(msg)
	}
	r.reports.StatusDiscrepancy(msg)
}

func (r *runner) reportNameMismatch(existing *operator.Record, rec operator.Record) {
	var b strings.Builder
	fmt.Fprintf(&b, "no update for %s: name mismatch", rec.Call)
	for _, m := range operator.CompareNames(existing.FirstName, existing.LastName, rec.FirstName, rec.LastName) {
		fmt.Fprintf(&b, "\n  %s: stored %q, QRZ %q (edit distance %d)", m.Field, m.Stored, m.Fetched, m.Distance)
	}
	msg := b.String()
	log.Print(msg)
	r.reports.Mismatch(msg)
}

func (r *runner) display(rec operator.Record) {
	fmt.Fprintf(r.out, "%s: %s %s, %s, %s %s %s\n", rec.Call, rec.FirstName,
		rec.LastName, rec.Address, rec.City, rec.State, rec.Zip)
	fmt.Fprintf(r.out, "  class=%s status=%s licensed=%s expires=%s\n",
		rec.Class, rec.Status, rec.LicenseStart, rec.LicenseEnd)
}

func (r *runner) dumpRecord(call string, rec operator.Record) {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return
	}
	log.Printf("fetched data for %s:\n%s", call, data)
}

// ProcessFile runs every callsign listed in a file, one per line. A read
// failure is fatal; per-callsign failures are not.
func (r *runner) ProcessFile(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open callsign file: %w", err)
	}
	defer f.Close()
	r.ProcessLines(ctx, f)
	return nil
}

// ProcessLines processes one callsign per line, skipping blanks.
func (r *runner) ProcessLines(ctx context.Context, src io.Reader) {
	scanner := bufio.NewScanner(src)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		r.Process(ctx, line)
	}
	if err := scanner.Err(); err != nil {
		log.Printf("error reading callsigns: %v", err)
	}
}

// Refresh re-fetches every callsign already present in the table.
func (r *runner) Refresh(ctx context.Context) error {
	calls, err := r.db.ListCalls(ctx)
	if err != nil {
		return err
	}
	if r.debug {
		log.Printf("refreshing %s records", humanize.Comma(int64(len(calls))))
	}
	for _, call := range calls {
		r.Process(ctx, call)
	}
	return nil
}

// Interactive prompts for callsigns until a blank line or EOF.
func (r *runner) Interactive(ctx context.Context, in io.Reader) {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(r.out, "Callsign (blank to exit): ")
		if !scanner.Scan() {
			fmt.Fprintln(r.out)
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			return
		}
		r.Process(ctx, line)
	}
}

func (r *runner) PrintSummary(elapsed time.Duration) {
	s := r.stats
	if s.processed == 0 {
		return
	}
	fmt.Fprintf(r.out, "Processed %s callsigns in %s: %s inserted, %s updated, %s unchanged, %s skipped, %s failed\n",
		humanize.Comma(int64(s.processed)), elapsed.Round(time.Second),
		humanize.Comma(int64(s.inserted)), humanize.Comma(int64(s.updated)),
		humanize.Comma(int64(s.unchanged)), humanize.Comma(int64(s.skipped)),
		humanize.Comma(int64(s.failed)))
}
