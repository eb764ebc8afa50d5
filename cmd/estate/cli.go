package main

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/fwojciec/estate"
	"github.com/fwojciec/estate/crawl"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx       context.Context
	Stdout    io.Writer
	Stderr    io.Writer
	Logger    *slog.Logger
	Gateway   estate.Gateway
	Registry  estate.ExtractorRegistry
	Harvester *crawl.Harvester
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	DB          string `name:"db" env:"ESTATE_DB" help:"SQLite database path (default: ~/.estate/estate.db)"`
	PostgresURL string `name:"postgres-url" env:"DATABASE_URL" help:"PostgreSQL connection URL; selects PostgreSQL instead of SQLite"`
	LogLevel    string `default:"info" enum:"debug,info,warn,error" help:"Log level (debug, info, warn, error)"`
	LogFormat   string `default:"text" enum:"text,json" help:"Log format (text, json)"`

	Run      RunCmd      `cmd:"" help:"Discover listings and fetch offers for each site"`
	Discover DiscoverCmd `cmd:"" help:"Discover listings and queue new links without fetching offers"`
	Details  DetailsCmd  `cmd:"" help:"Fetch queued offers for today's run"`
	Stages   StagesCmd   `cmd:"" help:"List run stage records"`
	Sites    SitesCmd    `cmd:"" help:"List supported sites"`
}

// harvestFlags returns the harvest flags of command, or nil when command
// does not harvest.
func (c *CLI) harvestFlags(command string) *HarvestFlags {
	switch strings.Fields(command)[0] {
	case "run":
		return &c.Run.HarvestFlags
	case "discover":
		return &c.Discover.HarvestFlags
	case "details":
		return &c.Details.HarvestFlags
	}
	return nil
}

// HarvestFlags configure fetching and retries.
type HarvestFlags struct {
	Workers       int           `short:"w" default:"20" help:"Concurrent fetches per batch"`
	BatchSize     int           `default:"500" help:"Maximum queued links fetched per detail batch"`
	PageBatchSize int           `default:"100" help:"Maximum result pages fetched per discovery batch"`
	Retries       int           `short:"r" default:"5" help:"Retry rounds for failed fetches"`
	Timeout       time.Duration `short:"t" default:"30s" help:"Fetch timeout per page"`
	RPS           float64       `name:"rps" default:"2" help:"Requests per second per host (0 disables limiting)"`
	Browser       bool          `short:"b" help:"Render pages in a headless browser"`
}

func (f *HarvestFlags) apply(h *crawl.Harvester) {
	h.MaxWorkers = f.Workers
	h.BatchSize = f.BatchSize
	h.PageBatchSize = f.PageBatchSize
	h.MaxRetries = f.Retries
}

// RunCmd is the "run" subcommand.
type RunCmd struct {
	HarvestFlags `embed:""`
	Sites        []string `arg:"" optional:"" help:"Sites to harvest (default: all)"`
}

// DiscoverCmd is the "discover" subcommand.
type DiscoverCmd struct {
	HarvestFlags `embed:""`
	Sites        []string `arg:"" optional:"" help:"Sites to discover (default: all)"`
}

// DetailsCmd is the "details" subcommand.
type DetailsCmd struct {
	HarvestFlags `embed:""`
	Sites        []string `arg:"" optional:"" help:"Sites to resume (default: all)"`
}

// StagesCmd is the "stages" subcommand.
type StagesCmd struct {
	Site  string `short:"s" help:"Only records of this site"`
	Date  string `short:"d" help:"Only records of this run date (YYYY-MM-DD)"`
	Limit int    `short:"n" default:"20" help:"Maximum number of records"`
}

// SitesCmd is the "sites" subcommand.
type SitesCmd struct{}
