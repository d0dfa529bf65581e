// Package config reads the expenses configuration file.
//
// The file is TOML:
//
//	currency = "EUR"
//	monthly_limit = 1500
//	data_file = "expenses.txt"
//	overwrite = false
//
//	[[recurring]]
//	category = "Gym"
//	amount = 30
//	start_date = "2024-01-01"
//	interval_days = 30
//
// A missing file is not an error; every key falls back to its default.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/expenses/expense"
	"github.com/robinvdvleuten/expenses/ledger"
	"github.com/robinvdvleuten/expenses/loader"
)

// DefaultFilename is the config file looked up in the working directory.
const DefaultFilename = "expenses.toml"

// Config holds user settings.
type Config struct {
	Currency     string          `toml:"currency"`
	MonthlyLimit decimal.Decimal `toml:"monthly_limit"`
	DataFile     string          `toml:"data_file"`
	Overwrite    bool            `toml:"overwrite"`
	Recurring    []Recurring     `toml:"recurring"`

	// LimitOverride makes MonthlyLimit win over the header of a loaded data
	// file. It is set by command-line flags, never by the file.
	LimitOverride bool `toml:"-"`
}

// Recurring declares a recurring template applied to every ledger built from
// the config.
type Recurring struct {
	Category     string          `toml:"category"`
	Amount       decimal.Decimal `toml:"amount"`
	StartDate    string          `toml:"start_date"`
	IntervalDays int             `toml:"interval_days"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Currency:     "USD",
		MonthlyLimit: decimal.Zero,
		DataFile:     "expenses.txt",
	}
}

// Error reports a config file that exists but cannot be used.
type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("config %s: %v", e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Load reads path on top of the defaults. Unknown keys are rejected so typos
// do not silently fall back to defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, &Error{Path: path, Err: err}
	}

	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, &Error{Path: path, Err: err}
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, key := range undecoded {
			keys[i] = key.String()
		}
		return nil, &Error{Path: path, Err: fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))}
	}

	if err := cfg.Validate(); err != nil {
		return nil, &Error{Path: path, Err: err}
	}

	// A relative data file is resolved against the config file's directory.
	if cfg.DataFile != "" && !filepath.IsAbs(cfg.DataFile) {
		cfg.DataFile = filepath.Join(filepath.Dir(path), cfg.DataFile)
	}

	return cfg, nil
}

// Validate checks values that the ledger cannot work with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Currency) == "" {
		return errors.New("currency must not be empty")
	}
	if c.MonthlyLimit.IsNegative() {
		return fmt.Errorf("monthly_limit must not be negative, got %s", c.MonthlyLimit)
	}
	if strings.TrimSpace(c.DataFile) == "" {
		return errors.New("data_file must not be empty")
	}
	for i, r := range c.Recurring {
		if strings.TrimSpace(r.Category) == "" {
			return fmt.Errorf("recurring[%d]: category must not be empty", i)
		}
		if _, err := expense.ParseDate(r.StartDate); err != nil {
			return fmt.Errorf("recurring[%d]: %w", i, err)
		}
	}
	return nil
}

// DeclareRecurring registers the configured templates on l. Dates were checked
// by Validate.
func (c *Config) DeclareRecurring(l *ledger.Ledger) {
	for _, r := range c.Recurring {
		l.DeclareRecurring(r.Category, r.Amount, expense.MustParseDate(r.StartDate), r.IntervalDays)
	}
}

// LedgerConfig converts the settings into an engine configuration.
func (c *Config) LedgerConfig() *ledger.Config {
	cfg := ledger.NewConfig()
	cfg.Currency = c.Currency
	cfg.MonthlyLimit = c.MonthlyLimit
	return cfg
}

// ApplyLimitOverride restores the overriding monthly limit on l after a data
// file header replaced it. It does nothing without an override.
func (c *Config) ApplyLimitOverride(l *ledger.Ledger) {
	if c.LimitOverride {
		l.SetMonthlyLimit(c.MonthlyLimit)
	}
}

// LoaderOptions returns the loader options implied by the settings.
func (c *Config) LoaderOptions() []loader.Option {
	var opts []loader.Option
	if c.Overwrite {
		opts = append(opts, loader.WithOverwrite())
	}
	return opts
}
