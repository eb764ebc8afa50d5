package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/estate"
	"github.com/fwojciec/estate/crawl"
	"github.com/fwojciec/estate/goquery"
	"github.com/fwojciec/estate/htmltomarkdown"
	estatehttp "github.com/fwojciec/estate/http"
	"github.com/fwojciec/estate/postgres"
	"github.com/fwojciec/estate/rod"
	estateslog "github.com/fwojciec/estate/slog"
	"github.com/fwojciec/estate/sqlite"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "warning: failed to load .env: %v\n", err)
	}

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Database path. Set before calling Run(). Overridden by --db.
	DBPath string

	// Stores opened by Run.
	SQLite   *sqlite.DB
	Postgres *postgres.DB

	// Services for end-to-end testing. Run builds the real ones when nil.
	Gateway  estate.Gateway
	Fetcher  estate.Fetcher
	Registry estate.ExtractorRegistry
	Now      func() time.Time
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{
		DBPath: defaultDBPath(),
	}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	var errs []error
	if m.SQLite != nil {
		errs = append(errs, m.SQLite.Close())
	}
	if m.Postgres != nil {
		errs = append(errs, m.Postgres.Close())
	}
	return errors.Join(errs...)
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("estate"),
		kong.Description("Harvest rental listings from Polish real-estate portals"),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'estate --help' to see available commands")
	}

	cmd := args[0]
	if cmd == "help" || cmd == "--help" || cmd == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	logger, err := newLogger(stderr, cli.LogLevel, cli.LogFormat)
	if err != nil {
		return err
	}
	deps.Logger = logger

	gateway, err := m.openGateway(ctx, cli, stderr)
	if err != nil {
		return err
	}
	defer m.Close()
	deps.Gateway = estateslog.NewLoggingGateway(gateway, logger)

	registry := m.Registry
	if registry == nil {
		registry = goquery.NewDefaultRegistry(htmltomarkdown.NewConverter())
	}
	deps.Registry = estateslog.NewLoggingRegistry(registry, logger)

	if flags := cli.harvestFlags(kongCtx.Command()); flags != nil {
		fetcher, err := m.newFetcher(flags, logger, stderr)
		if err != nil {
			return err
		}
		defer fetcher.Close()

		h := crawl.NewHarvester(deps.Gateway, fetcher, logger)
		h.Sitemaps = estateslog.NewLoggingSitemapService(
			estatehttp.NewSitemapService(estatehttp.WithTimeout(flags.Timeout)), logger)
		flags.apply(h)
		if m.Now != nil {
			h.Now = m.Now
		}
		deps.Harvester = h
	}

	return kongCtx.Run(deps)
}

// openGateway opens PostgreSQL when a URL is configured and SQLite
// otherwise.
func (m *Main) openGateway(ctx context.Context, cli *CLI, stderr io.Writer) (estate.Gateway, error) {
	if m.Gateway != nil {
		return m.Gateway, nil
	}

	if cli.PostgresURL != "" {
		m.Postgres = postgres.NewDB(cli.PostgresURL)
		if err := m.Postgres.Open(ctx); err != nil {
			fmt.Fprintln(stderr, "Hint: Check DATABASE_URL or --postgres-url")
			return nil, fmt.Errorf("failed to open postgres database: %w", err)
		}
		return postgres.NewGateway(m.Postgres), nil
	}

	path := m.DBPath
	if cli.DB != "" {
		path = cli.DB
	}
	m.SQLite = sqlite.NewDB(path)
	if err := m.SQLite.Open(); err != nil {
		fmt.Fprintf(stderr, "Hint: Set ESTATE_DB to use a different database path\n")
		return nil, fmt.Errorf("failed to open database at %q: %w", path, err)
	}
	return sqlite.NewGateway(m.SQLite), nil
}

// newFetcher builds the page fetcher, rate limited per host and logged.
func (m *Main) newFetcher(flags *HarvestFlags, logger *slog.Logger, stderr io.Writer) (estate.Fetcher, error) {
	fetcher := m.Fetcher
	if fetcher == nil {
		if flags.Browser {
			f, err := rod.NewFetcher(rod.WithFetchTimeout(flags.Timeout))
			if err != nil {
				fmt.Fprintln(stderr, "Hint: Chrome or Chromium must be installed")
				return nil, fmt.Errorf("failed to start browser: %w", err)
			}
			fetcher = f
		} else {
			fetcher = estatehttp.NewFetcher(estatehttp.WithTimeout(flags.Timeout))
		}
	}
	limited := crawl.NewRateLimitedFetcher(fetcher, crawl.NewDomainLimiter(flags.RPS))
	return estateslog.NewLoggingFetcher(limited, logger), nil
}

// newLogger returns a colour console logger, or a JSON logger for log
// collectors.
func newLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q", level)
	}

	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})
	default:
		handler = tint.NewHandler(w, &tint.Options{
			Level:      lvl,
			TimeFormat: "2006-01-02 15:04:05",
			NoColor:    !isTerminal(w),
		})
	}
	return slog.New(handler), nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "estate.db"
	}
	dir := filepath.Join(home, ".estate")
	_ = os.MkdirAll(dir, 0755)
	return filepath.Join(dir, "estate.db")
}
