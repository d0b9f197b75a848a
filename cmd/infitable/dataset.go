package main

import (
	"cmp"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/samber/lo"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/Alp4ka/infitable"
	"github.com/Alp4ka/infitable/internal/config"
)

// record is one row as scanned by gorm into a map.
type record = map[string]any

// dataset is what the browse command shows: a fetch callback, the columns
// and a title.
type dataset struct {
	title   string
	columns []infitable.Column[record]
	fetch   infitable.FetchFunc[record]
	close   func() error
}

func openDataset(cfg *config.Config, logger *slog.Logger) (*dataset, error) {
	if cfg.Driver == config.DriverMemory {
		return memoryDataset(cfg)
	}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case config.DriverMySQL:
		dialector = mysql.Open(cfg.DSN)
	case config.DriverPostgres:
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown driver '%s'", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: newGormLogger(logger, cfg.Verbose)})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.Driver, err)
	}

	ds, err := dbDataset(db, cfg, logger)
	if err != nil {
		return nil, err
	}
	ds.close = func() error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}

	return ds, nil
}

// dbDataset pages through cfg.Table. Every configured column is selected
// under its alias and sorted by its expression.
func dbDataset(db *gorm.DB, cfg *config.Config, logger *slog.Logger) (*dataset, error) {
	cols, err := cfg.ParsedColumns()
	if err != nil {
		return nil, err
	}

	selects := strings.Join(lo.Map(cols, func(c config.Column, _ int) string {
		return lo.Ternary(c.Alias == c.Expression, c.Alias, fmt.Sprintf("%s AS %s", c.Expression, c.Alias))
	}), ", ")
	mapping := lo.SliceToMap(cols, func(c config.Column) (string, string) {
		return c.Alias, c.Expression
	})

	scope := func(db *gorm.DB) *gorm.DB {
		return db.Table(cfg.Table).Select(selects)
	}

	var src infitable.Source[record]
	if cfg.Keyset != "" {
		getters := lo.SliceToMap(cols, func(c config.Column) (string, func(record) any) {
			return c.Alias, func(r record) any { return r[c.Alias] }
		})
		src, err = infitable.NewKeysetSource[record](db, cfg.Keyset, getters,
			infitable.WithKeysetScope(scope),
			infitable.WithKeysetColumnMapping(mapping),
			infitable.WithKeysetLogger(logger),
		)
	} else {
		opts := []infitable.GormSourceOption{
			infitable.WithScope(scope),
			infitable.WithColumnMapping(mapping),
		}
		if cfg.Lookahead {
			opts = append(opts, infitable.WithSourceLookahead())
		}
		src, err = infitable.NewGormSource[record](db, opts...)
	}
	if err != nil {
		return nil, err
	}

	return &dataset{
		title: cfg.Table,
		columns: lo.Map(cols, func(c config.Column, _ int) infitable.Column[record] {
			return recordColumn(c.Alias, 0)
		}),
		fetch: infitable.SourceFunc[record](src),
		close: func() error { return nil },
	}, nil
}

type demoColumn struct {
	id    string
	width int
}

var demoColumns = []demoColumn{
	{"id", 6},
	{"name", 18},
	{"score", 7},
	{"joined", 19},
	{"bio", 28},
}

var demoNames = []string{
	"Ada", "Grace", "Linus", "Ken", "Barbara",
	"Edsger", "Donald", "Margaret", "Dennis", "Radia",
}

// memoryDataset serves cfg.Rows generated records sorted in memory.
func memoryDataset(cfg *config.Config) (*dataset, error) {
	widths := lo.SliceToMap(demoColumns, func(c demoColumn) (string, int) {
		return c.id, c.width
	})

	ids := lo.Map(demoColumns, func(c demoColumn, _ int) string { return c.id })
	if len(cfg.Columns) > 0 {
		cols, err := cfg.ParsedColumns()
		if err != nil {
			return nil, err
		}
		ids = lo.Map(cols, func(c config.Column, _ int) string { return c.Alias })
		for _, id := range ids {
			if _, ok := widths[id]; !ok {
				return nil, fmt.Errorf("%w '%s' in the demo dataset", infitable.ErrUnknownColumn, id)
			}
		}
	}

	comparators := lo.SliceToMap(ids, func(id string) (string, infitable.Comparator[record]) {
		return id, func(a, b record) int { return compareValues(a[id], b[id]) }
	})
	src := infitable.NewSliceSource(demoRecords(cfg.Rows), comparators)

	return &dataset{
		title: fmt.Sprintf("demo (%d rows)", src.Len()),
		columns: lo.Map(ids, func(id string, _ int) infitable.Column[record] {
			return recordColumn(id, widths[id])
		}),
		fetch: infitable.SourceFunc[record](src),
		close: func() error { return nil },
	}, nil
}

func demoRecords(n int) []record {
	base := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

	return lo.Map(lo.Range(n), func(i, _ int) record {
		name := demoNames[i%len(demoNames)]
		bio := fmt.Sprintf("%s joined as #%d", name, i+1)
		if i%5 == 0 {
			bio += "\nmentor"
		}

		return record{
			"id":     i + 1,
			"name":   fmt.Sprintf("%s %d", name, i/len(demoNames)+1),
			"score":  float64((i*7919)%1000) / 10,
			"joined": base.Add(time.Duration((i*104729)%8760) * time.Hour),
			"bio":    bio,
		}
	})
}

func recordColumn(id string, width int) infitable.Column[record] {
	return infitable.Column[record]{
		ID:    id,
		Width: width,
		Cell: func(r record) string {
			return formatValue(r[id])
		},
	}
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(x)
	case time.Time:
		return x.Format(time.DateTime)
	case float64:
		return fmt.Sprintf("%.1f", x)
	default:
		return fmt.Sprint(x)
	}
}

// compareValues orders values of the same dynamic type; mixed or unknown
// types fall back to their formatted form.
func compareValues(a, b any) int {
	switch x := a.(type) {
	case int:
		if y, ok := b.(int); ok {
			return cmp.Compare(x, y)
		}
	case int64:
		if y, ok := b.(int64); ok {
			return cmp.Compare(x, y)
		}
	case float64:
		if y, ok := b.(float64); ok {
			return cmp.Compare(x, y)
		}
	case string:
		if y, ok := b.(string); ok {
			return strings.Compare(x, y)
		}
	case time.Time:
		if y, ok := b.(time.Time); ok {
			return x.Compare(y)
		}
	}

	return strings.Compare(formatValue(a), formatValue(b))
}
