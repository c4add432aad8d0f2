package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"pdf-summariser/summariser"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"
)

const usage = `usage: pdf-summariser [flags] <command> [args]

commands:
  upload <file.pdf>   send a PDF for summarisation and record it in history
  history             list past uploads, newest first
  show <index>        show the summary of a past upload (or use --id)
  ping                check that the summarisation endpoint is reachable
  serve               run the local web UI

flags:
`

type settings struct {
	endpoint     string
	timeout      time.Duration
	maxFileBytes int64
	debug        bool
	listen       string
	history      summariser.HistoryOptions
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	fs := pflag.NewFlagSet("pdf-summariser", pflag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		fs.PrintDefaults()
	}

	var configPath string
	var endpoint string
	var storage string
	var dbPath string
	var dir string
	var backend string
	var slot string
	var maxRecords string
	var maxFileMB int
	var quotaBytes int
	var timeout time.Duration
	var listen string
	var debug bool
	var recordID string

	fs.StringVarP(&configPath, "config", "c", "", "YAML config file path.")
	fs.StringVar(&endpoint, "endpoint", summariser.DefaultEndpoint, "Summarisation endpoint base URL.")
	fs.StringVar(&storage, "storage", summariser.StorageSQLite, "History storage medium: sqlite, file or memory.")
	fs.StringVar(&dbPath, "db", summariser.DefaultDBPath, "SQLite database path (storage=sqlite).")
	fs.StringVar(&dir, "dir", summariser.DefaultDir, "History directory (storage=file).")
	fs.StringVar(&backend, "backend", summariser.BackendSlot, "History layout: slot (one rewritten slot) or log (one row per upload).")
	fs.StringVar(&slot, "slot", summariser.DefaultSlot, "Slot name holding the history (backend=slot).")
	fs.StringVar(&maxRecords, "max-records", "unlimited", "History retention: unlimited or a record count.")
	fs.IntVar(&maxFileMB, "max-file-mb", 10, "Largest accepted PDF in megabytes.")
	fs.IntVar(&quotaBytes, "quota-bytes", 0, "Reject history writes larger than this many bytes (0 = no quota).")
	fs.DurationVar(&timeout, "timeout", summariser.DefaultRequestTimeout, "Request timeout for the summarisation endpoint (0 disables).")
	fs.StringVar(&listen, "listen", summariser.DefaultListen, "Listen address for serve.")
	fs.BoolVar(&debug, "debug", false, "Enable debug logs.")
	fs.StringVar(&recordID, "id", "", "Record id for show.")

	if err := fs.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		os.Exit(2)
	}

	// Base config from file (optional)
	fileCfg := &summariser.FileConfig{}
	if configPath != "" {
		cfg, err := summariser.LoadConfig(configPath)
		if err != nil {
			log.Fatalf("load config: %v", err)
		}
		fileCfg = cfg
	}

	// Merge config + CLI overrides
	st := settings{
		endpoint: fileCfg.Endpoint,
		debug:    fileCfg.Debug,
		listen:   fileCfg.Server.Listen,
		history: summariser.HistoryOptions{
			Storage:    fileCfg.Storage.Kind,
			DBPath:     fileCfg.Storage.DB,
			Dir:        fileCfg.Storage.Dir,
			QuotaBytes: fileCfg.Storage.QuotaBytes,
			Backend:    fileCfg.History.Backend,
			Slot:       fileCfg.History.Slot,
			Retention:  fileCfg.History.MaxRecords,
		},
	}
	fileTimeout, err := fileCfg.Timeout()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	st.timeout = fileTimeout
	fileMaxMB := fileCfg.MaxFileMB
	if fileMaxMB <= 0 {
		fileMaxMB = 10
	}
	st.maxFileBytes = int64(fileMaxMB) * 1024 * 1024

	if st.endpoint == "" || fs.Changed("endpoint") {
		st.endpoint = endpoint
	}
	if st.listen == "" || fs.Changed("listen") {
		st.listen = listen
	}
	if fs.Changed("debug") {
		st.debug = debug
	}
	if fs.Changed("timeout") {
		st.timeout = timeout
	}
	if fs.Changed("max-file-mb") {
		if maxFileMB <= 0 {
			fmt.Fprintln(os.Stderr, "--max-file-mb must be positive")
			os.Exit(2)
		}
		st.maxFileBytes = int64(maxFileMB) * 1024 * 1024
	}
	if st.history.Storage == "" || fs.Changed("storage") {
		st.history.Storage = storage
	}
	if st.history.DBPath == "" || fs.Changed("db") {
		st.history.DBPath = dbPath
	}
	if st.history.Dir == "" || fs.Changed("dir") {
		st.history.Dir = dir
	}
	if st.history.Backend == "" || fs.Changed("backend") {
		st.history.Backend = backend
	}
	if st.history.Slot == "" || fs.Changed("slot") {
		st.history.Slot = slot
	}
	if fs.Changed("quota-bytes") {
		st.history.QuotaBytes = quotaBytes
	}
	if fs.Changed("max-records") {
		r, err := summariser.ParseRetention(maxRecords)
		if err != nil {
			fmt.Fprintf(os.Stderr, "--max-records: %v\n", err)
			os.Exit(2)
		}
		st.history.Retention = r
	}

	args := fs.Args()
	if len(args) == 0 {
		fs.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if st.debug {
		log.Printf("settings: endpoint=%q storage=%q backend=%q db=%q dir=%q slot=%q retention=%s timeout=%s", st.endpoint, st.history.Storage, st.history.Backend, st.history.DBPath, st.history.Dir, st.history.Slot, st.history.Retention, st.timeout)
	}

	client := summariser.NewClient(st.endpoint, st.timeout)
	if args[0] == "ping" {
		if err := client.Ping(ctx); err != nil {
			log.Fatalf("cannot reach %s: %v", client.Endpoint(), err)
		}
		fmt.Printf("%s is reachable\n", client.Endpoint())
		return
	}

	hist, err := summariser.OpenHistory(st.history)
	if err != nil {
		log.Fatalf("open history: %v", err)
	}
	defer hist.Close()

	if err := run(ctx, st, hist.Journal, client, args, recordID); err != nil {
		var usageErr usageError
		if errors.As(err, &usageErr) {
			fmt.Fprintln(os.Stderr, usageErr.Error())
			_ = hist.Close()
			os.Exit(2)
		}
		_ = hist.Close()
		log.Fatalf("%s: %v", args[0], err)
	}
}

type usageError string

func (e usageError) Error() string { return string(e) }

func run(ctx context.Context, st settings, journal *summariser.Journal, client *summariser.Client, args []string, recordID string) error {
	switch args[0] {
	case "upload":
		if len(args) != 2 {
			return usageError("usage: pdf-summariser upload <file.pdf>")
		}
		return upload(ctx, st, journal, client, args[1])
	case "history":
		fmt.Println(summariser.RenderHistory(summariser.HistoryView(journal, time.Local), time.Now()))
		return nil
	case "show":
		return show(journal, args[1:], recordID)
	case "serve":
		srv := summariser.NewServer(summariser.ServerOptions{
			Listen:       st.listen,
			MaxFileBytes: st.maxFileBytes,
			Debug:        st.debug,
		}, journal, client)
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		if err := client.Ping(pingCtx); err != nil {
			log.Printf("warning: cannot connect to %s: %v", client.Endpoint(), err)
		}
		cancel()
		return srv.Run(ctx)
	default:
		return usageError(fmt.Sprintf("unknown command %q (want upload, history, show, ping or serve)", args[0]))
	}
}

func upload(ctx context.Context, st settings, journal *summariser.Journal, client *summariser.Client, path string) error {
	up, closer, err := summariser.OpenUpload(path)
	if err != nil {
		return err
	}
	defer closer.Close()

	session := summariser.NewSession(summariser.SessionConfig{MaxFileBytes: st.maxFileBytes, Debug: st.debug}, client, journal)
	out, err := session.Generate(ctx, up)
	if err != nil {
		return err
	}
	fmt.Println(summariser.RenderSummary(out, time.Local))
	return nil
}

func show(journal *summariser.Journal, args []string, recordID string) error {
	if strings.TrimSpace(recordID) != "" {
		rec, _, ok := journal.LookupID(recordID)
		if !ok {
			return fmt.Errorf("no history record with id %q", recordID)
		}
		fmt.Println(summariser.RenderRecall(rec, time.Local))
		return nil
	}
	if len(args) != 1 {
		return usageError("usage: pdf-summariser show <index> | show --id <id>")
	}
	index, err := strconv.Atoi(args[0])
	if err != nil {
		return usageError(fmt.Sprintf("index must be an integer, got %q", args[0]))
	}
	rec, ok := summariser.RecordForRecall(journal, index)
	if !ok {
		return fmt.Errorf("no history record at position %d (history has %d)", index, journal.Len())
	}
	fmt.Println(summariser.RenderRecall(rec, time.Local))
	return nil
}
