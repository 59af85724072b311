package main

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/georss/internal/config"
	"github.com/sells-group/georss/internal/db"
	"github.com/sells-group/georss/internal/sink"
	"github.com/sells-group/georss/internal/vector"
)

var (
	loadSink  string
	loadTable string
	loadDSN   string
)

var loadCmd = &cobra.Command{
	Use:   "load <path>",
	Short: "Load a dataset into PostGIS or SQLite",
	Long:  "Opens path with the registered drivers and loads every layer into the configured store (postgres via COPY, sqlite in one transaction).",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		applyLoadFlags(cfg)
		if err := cfg.Validate("load"); err != nil {
			return err
		}
		ctx := cmd.Context()

		s, closeFn, err := openSink(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeFn()

		n, err := loadDataset(ctx, vector.Default(), vector.DefaultFs(), args[0], s)
		if err != nil {
			return err
		}
		zap.L().Info("load complete", zap.String("path", args[0]), zap.Int64("rows", n))
		return nil
	},
}

func init() {
	loadCmd.Flags().StringVar(&loadSink, "sink", "", "store driver: postgres or sqlite (default store.driver)")
	loadCmd.Flags().StringVar(&loadTable, "table", "", "target table (default load.table)")
	loadCmd.Flags().StringVar(&loadDSN, "dsn", "", "database URL or sqlite path (default from store config)")
	rootCmd.AddCommand(loadCmd)
}

// applyLoadFlags overrides config values with non-empty flags.
func applyLoadFlags(c *config.Config) {
	if loadSink != "" {
		c.Store.Driver = loadSink
	}
	if loadTable != "" {
		c.Load.Table = loadTable
	}
	if loadDSN == "" {
		return
	}
	if c.Store.Driver == "postgres" {
		c.Store.DatabaseURL = loadDSN
	} else {
		c.Store.SQLitePath = loadDSN
	}
}

func openSink(ctx context.Context, c *config.Config) (sink.Sink, func(), error) {
	switch c.Store.Driver {
	case "postgres":
		pool, err := db.Connect(ctx, c.Store.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return sink.NewPostgres(pool, c.Load.Schema, c.Load.Table, c.Load.BatchSize), pool.Close, nil
	case "sqlite":
		s, err := sink.NewSQLite(c.Store.SQLitePath, c.Load.Table)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	default:
		return nil, nil, eris.Errorf("load: unknown store driver %q", c.Store.Driver)
	}
}

// loadDataset opens path and loads each of its layers into s.
func loadDataset(ctx context.Context, reg *vector.Registry, fs afero.Fs, path string, s sink.Sink) (int64, error) {
	ds, _, err := reg.OpenEx(fs, path, vector.ReadOnly)
	if err != nil {
		return 0, eris.Wrap(err, "load")
	}
	defer func() { _ = ds.Close() }()

	var total int64
	for i := 0; i < ds.LayerCount(); i++ {
		n, err := s.Load(ctx, ds.Layer(i))
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
