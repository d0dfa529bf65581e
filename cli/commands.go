package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/alecthomas/kong"
	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/expenses/config"
	"github.com/robinvdvleuten/expenses/output"
	"github.com/robinvdvleuten/expenses/telemetry"
)

var (
	Version   = ""
	CommitSHA = ""
)

// Globals defines global flags available to all commands. Flags override the
// values of the configuration file.
type Globals struct {
	Telemetry    bool   `help:"Show timing telemetry for operations." env:"EXPENSES_TELEMETRY"`
	Config       string `help:"Configuration file." default:"expenses.toml" env:"EXPENSES_CONFIG" type:"path"`
	LogLevel     string `help:"Log level." default:"warn" enum:"debug,info,warn,error" env:"EXPENSES_LOG_LEVEL"`
	LogFormat    string `help:"Log format." default:"text" enum:"text,json" env:"EXPENSES_LOG_FORMAT"`
	Currency     string `help:"Currency label stamped on new records." env:"EXPENSES_CURRENCY"`
	MonthlyLimit string `help:"Advisory monthly limit." env:"EXPENSES_MONTHLY_LIMIT"`
	DataFile     string `help:"Ledger data file." env:"EXPENSES_DATA_FILE" type:"path"`
	Overwrite    bool   `help:"Replace the data file on save instead of appending." env:"EXPENSES_OVERWRITE"`
}

type Commands struct {
	Globals

	Shell  ShellCmd  `cmd:"" default:"withargs" help:"Run the interactive expense tracker."`
	Report ReportCmd `cmd:"" help:"Print reports for a ledger file."`
	Check  CheckCmd  `cmd:"" help:"Check a ledger file for malformed and rejected lines."`
	Web    WebCmd    `cmd:"" help:"Start a read-only web API for a ledger file."`
}

// Logger builds the logger selected by the log flags.
func (g *Globals) Logger(w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(g.LogLevel)); err != nil {
		level = slog.LevelWarn
	}

	opts := &slog.HandlerOptions{Level: level}
	if g.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// LoadConfig reads the configuration file and applies flag overrides.
func (g *Globals) LoadConfig() (*config.Config, error) {
	cfg, err := config.Load(g.Config)
	if err != nil {
		return nil, err
	}

	if g.Currency != "" {
		cfg.Currency = strings.TrimSpace(g.Currency)
	}
	if g.MonthlyLimit != "" {
		limit, err := decimal.NewFromString(strings.TrimSpace(g.MonthlyLimit))
		if err != nil {
			return nil, fmt.Errorf("invalid --monthly-limit %q: %w", g.MonthlyLimit, err)
		}
		cfg.MonthlyLimit = limit
		cfg.LimitOverride = true
	}
	if g.DataFile != "" {
		cfg.DataFile = g.DataFile
	}
	if g.Overwrite {
		cfg.Overwrite = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// startTelemetry returns a context carrying a timing collector when telemetry
// is enabled, and a function that reports it once to stderr.
func (g *Globals) startTelemetry(ctx *kong.Context, name string) (context.Context, func()) {
	runCtx := context.Background()
	if !g.Telemetry {
		return runCtx, func() {}
	}

	collector := telemetry.NewTimingCollector(telemetry.WithStyles(output.NewStyles(ctx.Stderr)))
	runCtx = telemetry.WithCollector(runCtx, collector)

	timer := collector.Start(name)
	runCtx = telemetry.WithTimer(runCtx, timer)

	var once sync.Once
	return runCtx, func() {
		once.Do(func() {
			timer.End()
			_, _ = fmt.Fprintln(ctx.Stderr)
			collector.Report(ctx.Stderr)
		})
	}
}
