package cli

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/alecthomas/kong"

	"github.com/robinvdvleuten/expenses/ledger"
	"github.com/robinvdvleuten/expenses/loader"
)

type CheckCmd struct {
	File FileOrStdin `help:"Ledger file (use '-' for stdin, defaults to data_file)." arg:"" optional:""`
}

// Run decodes the file into a throwaway ledger. Rejected lines and a fatal
// decode error fail the check; skipped lines are only reported.
func (cmd *CheckCmd) Run(ctx *kong.Context, globals *Globals) error {
	cfg, err := globals.LoadConfig()
	if err != nil {
		return err
	}
	cmd.File.EnsureFile(cfg.DataFile)

	runCtx, reportTelemetry := globals.startTelemetry(ctx, fmt.Sprintf("check %s", filepath.Base(cmd.File.Filename)))
	defer reportTelemetry()

	sourceContent, err := cmd.File.GetSourceContent()
	if err != nil {
		printError(ctx.Stderr, fmt.Sprintf("failed to read %s: %v", cmd.File.Filename, err))
		return NewCommandError(1)
	}

	l := ledger.New(cfg.LedgerConfig().Options()...)
	ldr := loader.New(loader.WithLogger(globals.Logger(ctx.Stderr)))
	result, err := cmd.File.LoadInto(runCtx, ldr, l)

	renderer := NewErrorRenderer(sourceContent)

	var validationErrors *ledger.ValidationErrors
	switch {
	case errors.As(err, &validationErrors):
		_, _ = fmt.Fprintln(ctx.Stderr, renderer.RenderAll(validationErrors.Errors))
		_, _ = fmt.Fprintln(ctx.Stderr)
		printError(ctx.Stderr, fmt.Sprintf("%d rejected line(s) found", len(validationErrors.Errors)))
		return NewCommandError(1)

	case err != nil && isLineError(err):
		if result != nil && len(result.Rejected) > 0 {
			_, _ = fmt.Fprintln(ctx.Stderr, renderer.RenderAll(result.Rejected))
			_, _ = fmt.Fprintln(ctx.Stderr)
			printError(ctx.Stderr, fmt.Sprintf("%d rejected line(s) found", len(result.Rejected)))
			_, _ = fmt.Fprintln(ctx.Stderr)
		}
		_, _ = fmt.Fprintln(ctx.Stderr, renderer.Render(err))
		_, _ = fmt.Fprintln(ctx.Stderr)
		printError(ctx.Stderr, "decode error")
		return NewCommandError(1)

	case err != nil:
		printError(ctx.Stderr, err.Error())
		return NewCommandError(1)
	}

	for _, line := range result.Skipped {
		printWarning(ctx.Stderr, fmt.Sprintf("line %d skipped: expected 6 fields", line))
	}
	if !result.HeaderFound {
		printWarning(ctx.Stderr, "no monthly limit header found")
	}

	printSuccess(ctx.Stdout, fmt.Sprintf("Check passed: %d expense(s), %d skipped line(s)", result.Applied, len(result.Skipped)))
	return nil
}
