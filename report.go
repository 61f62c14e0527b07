package main

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"qrzsync/operator"
)

// reportFiles appends to the dated report files operators already expect:
// Mismatch-YYYY-MM-DD.txt for name mismatches that blocked an update, and
// status-YYYY-MM-DD.txt for status discrepancies found by --checkstatus.
type reportFiles struct {
	mismatchPath string
	statusPath   string
}

func newReportFiles(dir string, now time.Time) *reportFiles {
	date := now.Format(operator.DateLayout)
	return &reportFiles{
		mismatchPath: filepath.Join(dir, "Mismatch-"+date+".txt"),
		statusPath:   filepath.Join(dir, "status-"+date+".txt"),
	}
}

func (r *reportFiles) Mismatch(msg string) {
	appendLine(r.mismatchPath, msg)
}

func (r *reportFiles) StatusDiscrepancy(msg string) {
	appendLine(r.statusPath, msg)
}

func appendLine(path, msg string) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		log.Printf("cannot write report file %s: %v", path, err)
		return
	}
	defer f.Close()
	if !strings.HasSuffix(msg, "\n") {
		msg += "\n"
	}
	_, _ = f.WriteString(msg)
}
