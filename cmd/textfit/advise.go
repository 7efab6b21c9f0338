package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexanderjulianmartinez/textfit/internal/advise"
	"github.com/alexanderjulianmartinez/textfit/internal/cdc"
	"github.com/alexanderjulianmartinez/textfit/internal/cdc/debezium"
	"github.com/alexanderjulianmartinez/textfit/internal/config"
	"github.com/alexanderjulianmartinez/textfit/internal/logging"
	"github.com/alexanderjulianmartinez/textfit/internal/report"
	"github.com/alexanderjulianmartinez/textfit/internal/source"
	"github.com/alexanderjulianmartinez/textfit/internal/source/mysql"
	"github.com/alexanderjulianmartinez/textfit/internal/source/postgres"
)

// AdviseCmd flags override the environment and the config file.
type AdviseCmd struct {
	DSN           string        `name:"dsn" help:"Connection string (default: $MYSQL_URL or $DATABASE_URL)"`
	SourceType    string        `name:"source-type" help:"mysql or postgres (default: inferred from the DSN)"`
	Schema        string        `name:"schema" help:"Schema/database of the table (default: the connection's current one)"`
	Table         string        `name:"table" short:"t" help:"Table to inspect (default: $TABLE_NAME or data_timbang)"`
	Index         []string      `name:"index" sep:"," help:"Index candidate columns (default: $INDEX_CANDIDATES)"`
	QueryTimeout  time.Duration `name:"query-timeout" help:"Per-query timeout, 0 for none"`
	CDCConnectURL string        `name:"cdc-connect-url" help:"Kafka Connect URL for the Debezium capture check"`
}

type prober interface {
	source.Prober
	Close() error
}

func (c *AdviseCmd) Run(g *Globals) error {
	level, err := logging.ParseLevel(g.LogLevel)
	if err != nil {
		return err
	}
	logging.Init(level, g.LogFormat)

	if err := config.LoadEnvFile(g.EnvFile); err != nil {
		return err
	}
	cfg, err := config.LoadConfig(g.Config, c.override)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, err := openProber(ctx, cfg)
	if err != nil {
		return err
	}
	defer p.Close()

	return run(ctx, cfg, p, openCDC(cfg.CDC), os.Stdout)
}

func (c *AdviseCmd) override(cfg *config.Config) {
	if c.DSN != "" {
		cfg.Source.DSN = c.DSN
	}
	if c.SourceType != "" {
		cfg.Source.Type = c.SourceType
	}
	if c.Schema != "" {
		cfg.Source.Schema = c.Schema
	}
	if c.Table != "" {
		cfg.Table = c.Table
	}
	if len(c.Index) > 0 {
		cfg.IndexCandidates = c.Index
	}
	if c.QueryTimeout > 0 {
		cfg.Source.QueryTimeout = c.QueryTimeout
	}
	if c.CDCConnectURL != "" {
		cfg.CDC.ConnectURL = c.CDCConnectURL
	}
}

// run analyzes cfg.Table through p and writes the report to out. insp may
// be nil when no CDC endpoint is configured.
func run(ctx context.Context, cfg *config.Config, p source.Prober, insp cdc.Inspector, out io.Writer) error {
	ctx, _ = logging.WithRunID(ctx)
	logger := logging.FromContext(ctx)
	logger.Debug("starting", "source", cfg.Source.Type, "table", cfg.Table, "cdc", insp != nil)

	rep, err := advise.New(p, logger).Analyze(ctx, cfg.Table, cfg.IndexCandidates)
	if err != nil {
		return err
	}
	rep.Schema = cfg.Source.Schema

	if !rep.Empty() && insp != nil {
		res, err := insp.Inspect(ctx)
		if err != nil {
			logger.Warn("cdc inspection failed", "inspector", insp.Name(), "error", err)
		} else {
			rep.CDC = res
		}
	}

	return report.NewWriter(out, p.Dialect()).Write(rep)
}

func openProber(ctx context.Context, cfg *config.Config) (prober, error) {
	switch cfg.Source.Type {
	case "mysql":
		return mysql.NewInspector(ctx, cfg.Source.DSN, cfg.Source.Schema, cfg.Source.QueryTimeout)
	case "postgres":
		return postgres.NewInspector(ctx, cfg.Source.DSN, cfg.Source.Schema, cfg.Source.QueryTimeout)
	default:
		return nil, fmt.Errorf("%w, got %q", config.ErrUnsupportedSource, cfg.Source.Type)
	}
}

func openCDC(cfg config.CDCConfig) cdc.Inspector {
	if !cfg.Enabled() {
		return nil
	}
	return debezium.New(cfg)
}
