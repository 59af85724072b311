package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/georss/internal/config"
	"github.com/sells-group/georss/internal/georss"
	"github.com/sells-group/georss/internal/shapefile"
	"github.com/sells-group/georss/internal/vector"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "georss",
	Short: "Read, write and load GeoRSS feeds",
	Long:  "Opens GeoRSS (RSS 2.0 / Atom) feeds and shapefiles through a driver registry, creates new feeds, and loads features into PostGIS or SQLite.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		registerDrivers()
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

// registerDrivers publishes the built-in drivers. GeoRSS is probed first.
func registerDrivers() {
	georss.RegisterDefault()
	shapefile.Register(vector.Default(), vector.DefaultFs())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
