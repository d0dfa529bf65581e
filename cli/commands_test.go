package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/alecthomas/kong"
	"github.com/shopspring/decimal"
)

const sampleSource = "Monthly Limit: 100\n" +
	"Rent,80,2024-02-10,FIXED,2024-03-20T09:30:15,USD\n" +
	"Food,15,2024-01-05,VARIABLE,2024-03-20T09:30:15,USD\n" +
	"Food,10,2024-02-11,VARIABLE,2024-03-20T09:30:15,USD\n"

type cliResult struct {
	stdout string
	stderr string
	err    error
}

// runCLI parses args with an isolated config file and runs the selected
// command.
func runCLI(t *testing.T, args ...string) cliResult {
	t.Helper()

	var cmds Commands
	var stdout, stderr bytes.Buffer
	parser, err := kong.New(&cmds,
		kong.Name("expenses"),
		kong.Writers(&stdout, &stderr),
		kong.Bind(&cmds.Globals),
		kong.Exit(func(int) { t.Fatalf("unexpected exit: %s", stderr.String()) }),
	)
	assert.NoError(t, err)

	args = append([]string{"--config", filepath.Join(t.TempDir(), "missing.toml")}, args...)
	kctx, err := parser.Parse(args)
	assert.NoError(t, err)

	err = kctx.Run()
	return cliResult{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func writeFile(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	assert.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestReportCommand(t *testing.T) {
	path := writeFile(t, "expenses.txt", sampleSource)

	tests := []struct {
		name     string
		args     []string
		contains []string
		excludes []string
	}{
		{
			name:     "DefaultSections",
			args:     []string{"report", path},
			contains: []string{"Total Expenses: USD 105.00", "You have exceeded your monthly expense limit by USD 5.00!", "Expense Breakdown by Category:", "Monthly Expense Breakdown:"},
			excludes: []string{"Expenses:\n", "Yearly Report"},
		},
		{
			name:     "CategoryFilter",
			args:     []string{"report", path, "--category", "food", "--sections", "expenses"},
			contains: []string{"Expenses:", "USD 15.00", "USD 10.00"},
			excludes: []string{"Rent", "Total Expenses"},
		},
		{
			name:     "NoMatch",
			args:     []string{"report", path, "--date", "2023-01-01", "--sections", "yearly"},
			contains: []string{"No expenses match.", "Yearly Report: Total expenses for the year: USD 105.00"},
		},
		{
			name:     "RangeAndGoal",
			args:     []string{"report", path, "--from", "2024-02-01", "--to", "2024-02-28", "--goal", "50", "--sections", "yearly"},
			contains: []string{"Custom Report: Total expenses from 2024-02-01 to 2024-02-28: USD 90.00", "Great job! You've exceeded your savings goal by USD 55.00."},
		},
		{
			name:     "MonthlyLimitOverride",
			args:     []string{"--monthly-limit", "500", "report", path, "--sections", "totals"},
			contains: []string{"You are within your monthly limit of USD 500.00 (USD 395.00 left)."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := runCLI(t, tt.args...)
			assert.NoError(t, res.err)
			for _, s := range tt.contains {
				assert.Contains(t, res.stdout, s)
			}
			for _, s := range tt.excludes {
				assert.NotContains(t, res.stdout, s)
			}
		})
	}
}

func TestReportSortedExpenses(t *testing.T) {
	path := writeFile(t, "expenses.txt", sampleSource)

	res := runCLI(t, "report", path, "--sections", "expenses", "--sort", "amount")
	assert.NoError(t, res.err)

	food := strings.Index(res.stdout, "USD 10.00")
	rent := strings.Index(res.stdout, "USD 80.00")
	assert.True(t, food >= 0 && rent > food)
}

func TestReportCommandErrors(t *testing.T) {
	t.Run("UnknownSection", func(t *testing.T) {
		path := writeFile(t, "expenses.txt", sampleSource)
		res := runCLI(t, "report", path, "--sections", "weekly")
		assert.Equal(t, 1, exitCodeOf(res.err))
		assert.Contains(t, res.stderr, `unknown section "weekly"`)
	})

	t.Run("FatalLine", func(t *testing.T) {
		path := writeFile(t, "broken.txt", brokenSource)
		res := runCLI(t, "report", path)
		assert.Equal(t, 1, exitCodeOf(res.err))
		assert.Contains(t, res.stderr, "broken.txt:4:")
	})

	t.Run("RejectedBeforeFatalLine", func(t *testing.T) {
		path := writeFile(t, "broken.txt", "Monthly Limit: 10\nFuel,-3,2024-03-01,VARIABLE,x,USD\nFuel,NaN,2024-03-02,VARIABLE,x,USD\n")
		res := runCLI(t, "report", path)
		assert.Equal(t, 1, exitCodeOf(res.err))
		assert.Contains(t, res.stderr, "Rejected line 2:")
		assert.Contains(t, res.stderr, "broken.txt:3:")
	})

	t.Run("RejectedLinesStillReport", func(t *testing.T) {
		path := writeFile(t, "rejected.txt", "Monthly Limit: 10\nFood,0,2024-03-01,VARIABLE,x,USD\nFood,4,2024-03-01,VARIABLE,x,USD\nbad line\n")
		res := runCLI(t, "report", path, "--sections", "totals")
		assert.NoError(t, res.err)
		assert.Contains(t, res.stderr, "Rejected line 2:")
		assert.Contains(t, res.stderr, "Skipped 1 malformed line(s).")
		assert.Contains(t, res.stdout, "Total Expenses: USD 4.00")
	})

	t.Run("InvalidMonthlyLimitFlag", func(t *testing.T) {
		path := writeFile(t, "expenses.txt", sampleSource)
		res := runCLI(t, "--monthly-limit", "lots", "report", path)
		assert.Error(t, res.err)
		assert.Contains(t, res.err.Error(), "invalid --monthly-limit")
	})
}

func TestCheckCommand(t *testing.T) {
	t.Run("Passes", func(t *testing.T) {
		path := writeFile(t, "expenses.txt", sampleSource+"too,few\n")
		res := runCLI(t, "check", path)
		assert.NoError(t, res.err)
		assert.Contains(t, res.stdout, "Check passed: 3 expense(s), 1 skipped line(s)")
		assert.Contains(t, res.stderr, "line 5 skipped: expected 6 fields")
	})

	t.Run("MissingHeader", func(t *testing.T) {
		path := writeFile(t, "expenses.txt", "Food,1,2024-01-01,VARIABLE,x,USD\nFood,2,2024-01-02,VARIABLE,x,USD\n")
		res := runCLI(t, "check", path)
		assert.NoError(t, res.err)
		assert.Contains(t, res.stderr, "no monthly limit header found")
		assert.Contains(t, res.stdout, "Check passed: 1 expense(s), 0 skipped line(s)")
	})

	t.Run("Rejected", func(t *testing.T) {
		path := writeFile(t, "expenses.txt", "Monthly Limit: 10\nFood,0,2024-03-01,VARIABLE,x,USD\n,4,2024-03-01,VARIABLE,x,USD\n")
		res := runCLI(t, "check", path)
		assert.Equal(t, 1, exitCodeOf(res.err))
		assert.Contains(t, res.stderr, "2 rejected line(s) found")
	})

	t.Run("RejectedBeforeFatalLine", func(t *testing.T) {
		path := writeFile(t, "broken.txt", "Monthly Limit: 10\nFuel,-3,2024-03-01,VARIABLE,x,USD\nFuel,NaN,2024-03-02,VARIABLE,x,USD\n")
		res := runCLI(t, "check", path)
		assert.Equal(t, 1, exitCodeOf(res.err))
		assert.Contains(t, res.stderr, "1 rejected line(s) found")
		assert.Contains(t, res.stderr, "decode error")
	})

	t.Run("FatalLine", func(t *testing.T) {
		path := writeFile(t, "broken.txt", brokenSource)
		res := runCLI(t, "check", path)
		assert.Equal(t, 1, exitCodeOf(res.err))
		assert.Contains(t, res.stderr, "decode error")
		assert.Contains(t, res.stderr, "^")
	})
}

func TestGlobalsLoadConfig(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "expenses.toml")
	assert.NoError(t, os.WriteFile(configPath, []byte("currency = \"EUR\"\nmonthly_limit = 250\ndata_file = \"ledger.txt\"\n"), 0o644))

	t.Run("FromFile", func(t *testing.T) {
		g := &Globals{Config: configPath}
		cfg, err := g.LoadConfig()
		assert.NoError(t, err)
		assert.Equal(t, "EUR", cfg.Currency)
		assert.True(t, decimal.NewFromInt(250).Equal(cfg.MonthlyLimit))
		assert.Equal(t, filepath.Join(dir, "ledger.txt"), cfg.DataFile)
		assert.False(t, cfg.Overwrite)
		assert.False(t, cfg.LimitOverride)
	})

	t.Run("FlagsOverride", func(t *testing.T) {
		g := &Globals{Config: configPath, Currency: " GBP ", MonthlyLimit: "99.5", DataFile: "/tmp/other.txt", Overwrite: true}
		cfg, err := g.LoadConfig()
		assert.NoError(t, err)
		assert.Equal(t, "GBP", cfg.Currency)
		assert.True(t, decimal.RequireFromString("99.5").Equal(cfg.MonthlyLimit))
		assert.Equal(t, "/tmp/other.txt", cfg.DataFile)
		assert.True(t, cfg.Overwrite)
		assert.True(t, cfg.LimitOverride)
	})

	t.Run("NegativeLimitRejected", func(t *testing.T) {
		g := &Globals{Config: configPath, MonthlyLimit: "-1"}
		_, err := g.LoadConfig()
		assert.Error(t, err)
	})
}

func TestGlobalsLogger(t *testing.T) {
	var buf bytes.Buffer

	g := &Globals{LogLevel: "info", LogFormat: "json"}
	logger := g.Logger(&buf)
	logger.Debug("hidden")
	logger.Info("shown", "file", "expenses.txt")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
	assert.Contains(t, buf.String(), `"file":"expenses.txt"`)

	buf.Reset()
	g = &Globals{LogLevel: "warn", LogFormat: "text"}
	g.Logger(&buf).Warn("careful")
	assert.Contains(t, buf.String(), "msg=careful")
}

func exitCodeOf(err error) int {
	code, _ := ExitCode(err)
	return code
}
