package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/georss/internal/vector"
)

var infoOutput string

var infoCmd = &cobra.Command{
	Use:   "info <path>...",
	Short: "Summarize vector datasets",
	Long:  "Opens each path with the first driver that claims it and prints its layers, geometry types, fields and feature counts.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("info"); err != nil {
			return err
		}
		summaries, err := summarize(cmd.Context(), vector.Default(), vector.DefaultFs(), args, cfg.Info.Concurrency)
		if err != nil {
			return err
		}
		return writeSummaries(os.Stdout, summaries, infoOutput)
	},
}

func init() {
	infoCmd.Flags().StringVar(&infoOutput, "output", "text", "output format: text, json or yaml")
	rootCmd.AddCommand(infoCmd)
}

type layerSummary struct {
	Name         string             `json:"name" yaml:"name"`
	GeometryType string             `json:"geometry_type" yaml:"geometry_type"`
	Features     int                `json:"features" yaml:"features"`
	Fields       []vector.FieldDefn `json:"fields" yaml:"fields"`
}

type datasetSummary struct {
	Path     string            `json:"path" yaml:"path"`
	Driver   string            `json:"driver" yaml:"driver"`
	Metadata map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	Layers   []layerSummary    `json:"layers" yaml:"layers"`
}

// summarize opens paths concurrently, at most concurrency at a time. Results
// keep the order of paths. The first failure cancels the rest.
func summarize(ctx context.Context, reg *vector.Registry, fs afero.Fs, paths []string, concurrency int) ([]datasetSummary, error) {
	out := make([]datasetSummary, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, p := range paths {
		i, p := i, p
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			s, err := summarizeOne(reg, fs, p)
			if err != nil {
				return err
			}
			out[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func summarizeOne(reg *vector.Registry, fs afero.Fs, path string) (datasetSummary, error) {
	ds, d, err := reg.OpenEx(fs, path, vector.ReadOnly)
	if err != nil {
		return datasetSummary{}, eris.Wrap(err, "info")
	}
	defer func() {
		if cerr := ds.Close(); cerr != nil {
			zap.L().Warn("info: close dataset", zap.String("path", path), zap.Error(cerr))
		}
	}()

	s := datasetSummary{Path: path, Driver: d.Metadata().Name, Metadata: ds.Metadata()}
	for i := 0; i < ds.LayerCount(); i++ {
		l := ds.Layer(i)
		s.Layers = append(s.Layers, layerSummary{
			Name:         l.Name(),
			GeometryType: l.GeometryType().String(),
			Features:     l.FeatureCount(),
			Fields:       l.Fields(),
		})
	}
	return s, nil
}

func writeSummaries(w io.Writer, summaries []datasetSummary, format string) error {
	if format != "text" {
		return writeStructured(w, summaries, format)
	}
	for _, s := range summaries {
		_, _ = fmt.Fprintf(w, "%s (%s)\n", s.Path, s.Driver)
		for _, l := range s.Layers {
			_, _ = fmt.Fprintf(w, "  layer %s: %s, %d features\n", l.Name, l.GeometryType, l.Features)
			names := make([]string, len(l.Fields))
			for i, f := range l.Fields {
				names[i] = f.Name + ":" + f.Type.String()
			}
			_, _ = fmt.Fprintf(w, "  fields: %s\n", strings.Join(names, ", "))
		}
	}
	return nil
}
