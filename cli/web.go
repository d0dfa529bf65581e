package cli

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/alecthomas/kong"

	"github.com/robinvdvleuten/expenses/codec"
	"github.com/robinvdvleuten/expenses/config"
	"github.com/robinvdvleuten/expenses/web"
)

type WebCmd struct {
	File   string `help:"Ledger file to serve (defaults to data_file)." arg:"" optional:""`
	Port   int    `help:"Port to listen on." default:"8080" env:"EXPENSES_PORT"`
	Create bool   `help:"Automatically create file if it doesn't exist (no confirmation prompt)." short:"c"`
	Watch  bool   `help:"Reload the ledger when the file changes." default:"true" negatable:""`
}

func (cmd *WebCmd) Run(ctx *kong.Context, globals *Globals) error {
	cfg, err := globals.LoadConfig()
	if err != nil {
		return err
	}
	if cmd.File == "" {
		cmd.File = cfg.DataFile
	}

	runCtx, reportTelemetry := globals.startTelemetry(ctx, "web")
	defer reportTelemetry()

	runCtx, stop := signal.NotifyContext(runCtx, os.Interrupt)
	defer stop()

	ledgerFile, err := filepath.Abs(cmd.File)
	if err != nil {
		return fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	if _, err := os.Stat(ledgerFile); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to access file: %w", err)
		}
		if err := cmd.create(ctx, ledgerFile, cfg); err != nil {
			return err
		}
	}

	version := Version
	if version == "" {
		version = "dev"
	}
	commitSHA := CommitSHA
	if commitSHA == "" {
		commitSHA = "local"
	}

	opts := []web.Option{
		web.WithVersion(version, commitSHA),
		web.WithConfig(cfg),
		web.WithLogger(globals.Logger(ctx.Stderr)),
	}
	if cmd.Watch {
		opts = append(opts, web.WithWatch())
	}
	server := web.New(cmd.Port, ledgerFile, opts...)

	printInfof(ctx.Stdout, "Starting server on %s:%d", server.Host, cmd.Port)
	printInfof(ctx.Stdout, "Serving ledger: %s", pathStyle.Render(ledgerFile))

	return server.Start(runCtx)
}

// create writes an empty ledger with the configured limit.
func (cmd *WebCmd) create(ctx *kong.Context, ledgerFile string, cfg *config.Config) error {
	shouldCreate := cmd.Create

	if !shouldCreate {
		confirmed, err := promptYesNo(fmt.Sprintf("File %q does not exist. Create it?", ledgerFile))
		if err != nil {
			return fmt.Errorf("failed to read confirmation: %w", err)
		}
		shouldCreate = confirmed
	}

	if !shouldCreate {
		return fmt.Errorf("file does not exist: %s", ledgerFile)
	}

	if err := os.MkdirAll(filepath.Dir(ledgerFile), 0755); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}

	if err := os.WriteFile(ledgerFile, []byte(codec.HeaderPrefix+cfg.MonthlyLimit.String()+"\n"), 0600); err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	printInfof(ctx.Stdout, "Created empty ledger file: %s", pathStyle.Render(ledgerFile))
	return nil
}
