package main

import (
	"fmt"
	"log/slog"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/Alp4ka/infitable"
	"github.com/Alp4ka/infitable/internal/config"
	"github.com/Alp4ka/infitable/tui"
)

func newBrowseCmd() *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse a table page by page",
		Long: `Browse opens a table in the terminal and loads pages as you scroll.

Settings are read from ./infitable.yaml (or --config), INFITABLE_* environment
variables and flags, in increasing order of precedence.`,
		Example: `  infitable browse --driver memory --rows 5000
  infitable browse --driver postgres --dsn "$DATABASE_URL" --table users \
    --columns id,email,created_at=users.created_at --sort "created_at desc"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, used, err := config.Load(cfgFile, cmd.Flags())
			if err != nil {
				return err
			}

			logger, closer, err := newLogger(cfg.LogFile, cfg.Verbose)
			if err != nil {
				return err
			}
			defer closer.Close()

			if used != "" {
				logger.Info("using config file", slog.String("path", used))
			}

			ds, err := openDataset(cfg, logger)
			if err != nil {
				return err
			}
			defer func() {
				if err := ds.close(); err != nil {
					logger.Warn("failed to close data source", slog.Any("error", err))
				}
			}()

			notifier := tui.NewNotifier()
			shell, err := newShell(cfg, ds, notifier, logger)
			if err != nil {
				return err
			}
			defer shell.Close()

			return tui.Run(cmd.Context(), shell, notifier, ds.title)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: ./infitable.yaml)")
	flags.String("driver", "", "Data source (mysql|postgres|memory)")
	flags.String("dsn", "", "Database connection string")
	flags.String("table", "", "Table to browse")
	flags.StringSlice("columns", nil, "Columns to show, as alias or alias=expression")
	flags.String("sort", "", `Initial sort, e.g. "name desc"`)
	flags.Int("page-size", 0, "Rows per fetched page")
	flags.String("mode", "", "Paging mode (default|infinite)")
	flags.Int("height", 0, "Body height in lines (0 follows the terminal)")
	flags.Bool("fixed-header", true, "Keep the header visible while scrolling")
	flags.Bool("measure-rows", true, "Measure rendered row heights")
	flags.Bool("lookahead", false, "Fetch one extra row to detect the last page early")
	flags.String("keyset", "", "Unique column to page by instead of OFFSET")
	flags.Int("rows", 0, "Size of the memory driver dataset")
	flags.Int("cache-size", 0, "Number of sort orders kept in the page cache")
	flags.BoolP("verbose", "v", false, "Verbose logging, including SQL")
	flags.String("log-file", "", "Write logs to this file")

	_ = cmd.RegisterFlagCompletionFunc("driver", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{config.DriverMySQL, config.DriverPostgres, config.DriverMemory}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = cmd.RegisterFlagCompletionFunc("mode", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{string(infitable.PagingDefault), string(infitable.PagingInfinite)}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

// newShell builds the table for ds and applies the configured initial sort.
func newShell(cfg *config.Config, ds *dataset, notifier *tui.Notifier, logger *slog.Logger) (*infitable.Shell[record], error) {
	mode, err := cfg.PagingMode()
	if err != nil {
		return nil, err
	}

	client, err := infitable.NewClient[record](
		infitable.WithCacheSize(cfg.CacheSize),
		infitable.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	shell, err := infitable.New(infitable.Options[record]{
		Columns:              ds.columns,
		Fetch:                ds.fetch,
		PageSize:             cfg.PageSize,
		QueryKey:             ds.title,
		Height:               cfg.Height,
		PagingMode:           mode,
		FixedHeader:          cfg.FixedHeader,
		Overscan:             cfg.Overscan,
		MeasureRows:          cfg.MeasureRows,
		Client:               client,
		MaxConcurrentFetches: cfg.MaxConcurrentFetches,
		Logger:               logger,
		OnChange:             notifier.Notify,
	})
	if err != nil {
		return nil, err
	}

	ids := lo.Map(ds.columns, func(c infitable.Column[record], _ int) string { return c.ID })
	sort, err := infitable.ParseSort(cfg.Sort, lo.SliceToMap(ids, func(id string) (string, string) {
		return id, id
	}))
	if err != nil {
		shell.Close()
		return nil, fmt.Errorf("invalid sort: %w", err)
	}
	if err := shell.SetSort(sort); err != nil {
		shell.Close()
		return nil, fmt.Errorf("invalid sort: %w", err)
	}

	return shell, nil
}
