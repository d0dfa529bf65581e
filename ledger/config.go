package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Config holds the ledger configuration that is not part of the recorded data.
// MonthlyLimit and Currency may change over the lifetime of a ledger; records keep
// the currency they were created with.
type Config struct {
	MonthlyLimit decimal.Decimal
	Currency     string

	// Clock stamps CreatedAt on new records.
	Clock func() time.Time
	// NewID stamps the informational ID on new records.
	NewID func() uuid.UUID
}

// NewConfig creates a Config with a zero monthly limit and USD as currency.
func NewConfig() *Config {
	return &Config{
		MonthlyLimit: decimal.Zero,
		Currency:     "USD",
		Clock:        time.Now,
		NewID:        uuid.New,
	}
}

// Option configures a Ledger.
type Option func(*Config)

// WithMonthlyLimit sets the initial monthly limit.
func WithMonthlyLimit(limit decimal.Decimal) Option {
	return func(c *Config) {
		c.MonthlyLimit = limit
	}
}

// WithCurrency sets the currency label stamped on new records.
func WithCurrency(currency string) Option {
	return func(c *Config) {
		c.Currency = currency
	}
}

// WithClock replaces the clock used for CreatedAt. Mostly useful in tests.
func WithClock(clock func() time.Time) Option {
	return func(c *Config) {
		c.Clock = clock
	}
}

// WithIDGenerator replaces the record ID generator.
func WithIDGenerator(newID func() uuid.UUID) Option {
	return func(c *Config) {
		c.NewID = newID
	}
}

// contextKey is a private type to avoid key collisions in context.
type contextKey struct{}

// WithContext returns a new context with the Config attached.
func (c *Config) WithContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, c)
}

// ConfigFromContext retrieves the Config from context.
// Returns a default Config if not found.
func ConfigFromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(contextKey{}).(*Config); ok {
		return cfg
	}
	return NewConfig()
}

// Options converts the config back into options, so a ledger built from a
// context config gets the same clock and currency.
func (c *Config) Options() []Option {
	return []Option{
		WithMonthlyLimit(c.MonthlyLimit),
		WithCurrency(c.Currency),
		WithClock(c.Clock),
		WithIDGenerator(c.NewID),
	}
}
