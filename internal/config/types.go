// Package config loads the settings of the infitable CLI.
package config

import (
	"fmt"
	"strings"

	"github.com/Alp4ka/infitable"
)

// Drivers supported by the browse command.
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Default values.
const (
	DefaultDriver     = DriverMemory
	DefaultRows       = 1000
	DefaultCacheSize  = infitable.DefaultCacheSize
	DefaultConfigFile = "infitable.yaml"
	EnvPrefix         = "INFITABLE_"
)

// Config holds all CLI configuration options.
type Config struct {
	Driver string `koanf:"driver"`
	DSN    string `koanf:"dsn"`
	Table  string `koanf:"table"`
	// Columns lists the displayed columns as "alias" or "alias=expression",
	// the expression being what the database orders by.
	Columns              []string `koanf:"columns"`
	Sort                 string   `koanf:"sort"`
	PageSize             int      `koanf:"page_size"`
	Mode                 string   `koanf:"mode"`
	Height               int      `koanf:"height"`
	FixedHeader          bool     `koanf:"fixed_header"`
	MeasureRows          bool     `koanf:"measure_rows"`
	Overscan             int      `koanf:"overscan"`
	CacheSize            int      `koanf:"cache_size"`
	MaxConcurrentFetches int      `koanf:"max_concurrent_fetches"`
	Lookahead            bool     `koanf:"lookahead"`
	// Keyset is the alias of a unique column. When set, SQL drivers page
	// with keyset conditions instead of OFFSET.
	Keyset string `koanf:"keyset"`
	// Rows is the size of the generated dataset of the memory driver.
	Rows    int    `koanf:"rows"`
	Verbose bool   `koanf:"verbose"`
	LogFile string `koanf:"log_file"`
}

// Column is one parsed entry of Config.Columns.
type Column struct {
	Alias      string
	Expression string
}

// ParsedColumns splits the column entries into aliases and expressions.
func (c *Config) ParsedColumns() ([]Column, error) {
	cols := make([]Column, 0, len(c.Columns))
	seen := make(map[string]struct{}, len(c.Columns))
	for _, raw := range c.Columns {
		alias, expr, found := strings.Cut(strings.TrimSpace(raw), "=")
		alias, expr = strings.TrimSpace(alias), strings.TrimSpace(expr)
		if !found {
			expr = alias
		}
		if alias == "" || expr == "" {
			return nil, fmt.Errorf("invalid column entry '%s'", raw)
		}
		if _, dup := seen[alias]; dup {
			return nil, fmt.Errorf("duplicate column '%s'", alias)
		}
		seen[alias] = struct{}{}
		cols = append(cols, Column{Alias: alias, Expression: expr})
	}

	return cols, nil
}

// ColumnMapping returns the alias to expression mapping used for ordering.
func (c *Config) ColumnMapping() (infitable.ColumnMapping, error) {
	cols, err := c.ParsedColumns()
	if err != nil {
		return nil, err
	}

	mapping := make(infitable.ColumnMapping, len(cols))
	for _, col := range cols {
		mapping[col.Alias] = col.Expression
	}

	return mapping, nil
}

// PagingMode returns the parsed Mode.
func (c *Config) PagingMode() (infitable.PagingMode, error) {
	return infitable.ParsePagingMode(c.Mode)
}
