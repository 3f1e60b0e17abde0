// Package config provides sqlgen settings: the target dialect, the output
// mode and capability overrides applied on top of the dialect's flags.
package config

import (
	"errors"
	"fmt"

	"github.com/leapstack-labs/sqlgen/pkg/dialect"

	// Built-in dialects register themselves with the dialect registry.
	_ "github.com/leapstack-labs/sqlgen/pkg/dialects/access"
	_ "github.com/leapstack-labs/sqlgen/pkg/dialects/mssql"
	_ "github.com/leapstack-labs/sqlgen/pkg/dialects/postgres"
	_ "github.com/leapstack-labs/sqlgen/pkg/dialects/sqlite"
)

// Output modes.
const (
	OutputText = "text"
	OutputJSON = "json"
)

// ErrInvalidOutput is returned by Validate for an unknown output mode.
var ErrInvalidOutput = errors.New("invalid output mode")

// Config holds sqlgen configuration.
type Config struct {
	DialectName string        `koanf:"dialect"`
	Output      string        `koanf:"output"`
	Verbose     bool          `koanf:"verbose"`
	Flags       FlagOverrides `koanf:"flags"`

	// DSN is the database the run command executes statements against.
	DSN string `koanf:"dsn"`

	// File is the config file that was loaded, or "".
	File string `koanf:"-"`
}

// FlagOverrides replaces individual capability flags of the selected
// dialect. Nil fields keep the dialect's value.
type FlagOverrides struct {
	MaxInListValues  *int  `koanf:"max_in_list_values"`
	SubQueryColumn   *bool `koanf:"subquery_column"`
	CountSubQuery    *bool `koanf:"count_subquery"`
	MultiTableUpdate *bool `koanf:"multi_table_update"`
	MultiTableDelete *bool `koanf:"multi_table_delete"`
	ApplyJoin        *bool `koanf:"apply_join"`
}

// IsZero reports whether no override is set.
func (o FlagOverrides) IsZero() bool {
	return o == FlagOverrides{}
}

// Apply writes the set overrides into f.
func (o FlagOverrides) Apply(f *dialect.Flags) {
	if o.MaxInListValues != nil {
		f.MaxInListValuesCount = *o.MaxInListValues
	}
	if o.SubQueryColumn != nil {
		f.IsSubQueryColumnSupported = *o.SubQueryColumn
	}
	if o.CountSubQuery != nil {
		f.IsCountSubQuerySupported = *o.CountSubQuery
	}
	if o.MultiTableUpdate != nil {
		f.IsMultiTableUpdateSupported = *o.MultiTableUpdate
	}
	if o.MultiTableDelete != nil {
		f.IsMultiTableDeleteSupported = *o.MultiTableDelete
	}
	if o.ApplyJoin != nil {
		f.IsApplyJoinSupported = *o.ApplyJoin
	}
}

// Validate checks the configuration values that do not need a registry
// lookup.
func (c *Config) Validate() error {
	switch c.Output {
	case OutputText, OutputJSON:
	default:
		return fmt.Errorf("%w %q (expected %s or %s)", ErrInvalidOutput, c.Output, OutputText, OutputJSON)
	}
	if n := c.Flags.MaxInListValues; n != nil && *n < 0 {
		return fmt.Errorf("flags.max_in_list_values must not be negative, got %d", *n)
	}
	return nil
}

// Dialect returns the configured dialect with the flag overrides applied.
// The registered dialect itself is never modified.
func (c *Config) Dialect() (*dialect.Dialect, error) {
	d, err := dialect.Lookup(c.DialectName)
	if err != nil {
		return nil, err
	}
	if c.Flags.IsZero() {
		return d, nil
	}
	return d.WithFlags(c.Flags.Apply), nil
}
