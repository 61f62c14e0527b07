// Command qrzsync looks up amateur-radio callsigns on QRZ.com and
// synchronizes the results into a local operator database reached over
// ODBC.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"time"

	"golang.org/x/term"

	"qrzsync/config"
	"qrzsync/qrz"
	"qrzsync/store"
)

const version = "2.0.0"

func main() {
	var (
		callsignFlag = flag.String("callsign", "", "Callsign to look up")
		fileFlag     = flag.String("file", "", "File containing callsigns, one per line")
		updateFlag   = flag.Bool("update", false, "Write fetched data to the database")
		refreshFlag  = flag.Bool("refresh", false, "Re-fetch every callsign already in the database")
		checkFlag    = flag.Bool("checkstatus", false, "Log stored statuses that disagree with QRZ")
		exportFlag   = flag.String("export", "", "Export the operator table to a CSV file and exit")
		showRawFlag  = flag.Bool("show-raw-xml", false, "Print the raw XML returned by QRZ")
		debugFlag    = flag.Bool("debug", false, "Print debug information")
		archFlag     = flag.Bool("arch", false, "Print the build architecture and exit")
		versionFlag  = flag.Bool("version", false, "Print the version and exit")
		configFlag   = flag.String("config", "config.json", "Path to the configuration file")
	)
	flag.Parse()

	// The informational modes exit before any configuration, network, or
	// database activity.
	if *archFlag {
		fmt.Println(archString())
		return
	}
	if *versionFlag {
		fmt.Printf("qrzsync %s\n", version)
		return
	}

	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if *debugFlag {
		cfg.Print()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	st, err := store.Open(cfg.DSN)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer st.Close()

	if *exportFlag != "" {
		exportTable(ctx, st, *exportFlag)
		return
	}

	if cfg.Password == "" {
		cfg.Password = promptPassword()
	}

	client := qrz.NewClient(cfg.Agent)
	key, err := client.Login(ctx, cfg.Username, cfg.Password)
	if err != nil {
		log.Fatalf("QRZ login failed: %v", err)
	}

	r := &runner{
		lookup:      client.Lookup,
		db:          st,
		cfg:         cfg,
		key:         key,
		update:      *updateFlag,
		checkStatus: *checkFlag,
		showRaw:     *showRawFlag,
		debug:       *debugFlag,
		reports:     newReportFiles(".", time.Now()),
		now:         time.Now,
		out:         os.Stdout,
	}

	start := time.Now()
	switch {
	case *callsignFlag != "":
		r.Process(ctx, *callsignFlag)
	case *fileFlag != "":
		if err := r.ProcessFile(ctx, *fileFlag); err != nil {
			log.Fatalf("failed to read callsign file: %v", err)
		}
	case *refreshFlag:
		if err := r.Refresh(ctx); err != nil {
			log.Fatalf("refresh failed: %v", err)
		}
	default:
		if term.IsTerminal(int(os.Stdin.Fd())) {
			r.Interactive(ctx, os.Stdin)
		} else {
			r.ProcessLines(ctx, os.Stdin)
		}
	}
	r.PrintSummary(time.Since(start))
}

func archString() string {
	return fmt.Sprintf("%s/%s (%d-bit)", runtime.GOOS, runtime.GOARCH, strconv.IntSize)
}

func exportTable(ctx context.Context, st *store.Store, path string) {
	f, err := os.Create(path)
	if err != nil {
		log.Fatalf("failed to create export file: %v", err)
	}
	defer f.Close()

	n, err := st.ExportCSV(ctx, f)
	if err != nil {
		log.Fatalf("export failed: %v", err)
	}
	fmt.Printf("Exported %d records to %s\n", n, path)
}

func promptPassword() string {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		log.Fatalf("no QRZ password configured and stdin is not a terminal")
	}
	fmt.Fprint(os.Stderr, "QRZ password: ")
	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		log.Fatalf("failed to read password: %v", err)
	}
	return string(pw)
}
