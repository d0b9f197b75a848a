package config

import (
	"errors"
	"fmt"
	"slices"
)

// Validate checks that the configuration describes a table that can be
// browsed.
func (c *Config) Validate() error {
	if !slices.Contains([]string{DriverMySQL, DriverPostgres, DriverMemory}, c.Driver) {
		return fmt.Errorf("unknown driver '%s'", c.Driver)
	}
	if c.Driver != DriverMemory {
		if c.DSN == "" {
			return fmt.Errorf("driver %s requires a dsn", c.Driver)
		}
		if c.Table == "" {
			return fmt.Errorf("driver %s requires a table", c.Driver)
		}
		if len(c.Columns) == 0 {
			return errors.New("at least one column is required")
		}
	}
	cols, err := c.ParsedColumns()
	if err != nil {
		return err
	}
	if c.Keyset != "" && c.Driver != DriverMemory &&
		!slices.ContainsFunc(cols, func(col Column) bool { return col.Alias == c.Keyset }) {
		return fmt.Errorf("keyset column '%s' is not one of the columns", c.Keyset)
	}
	if _, err := c.PagingMode(); err != nil {
		return err
	}
	if c.PageSize < 0 {
		return fmt.Errorf("negative page size %d", c.PageSize)
	}
	if c.Height < 0 {
		return fmt.Errorf("negative height %d", c.Height)
	}
	if c.Rows < 0 {
		return fmt.Errorf("negative row count %d", c.Rows)
	}

	return nil
}
