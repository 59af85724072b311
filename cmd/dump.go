package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/twpayne/go-geom/encoding/geojson"
	"github.com/twpayne/go-geom/encoding/wkt"

	"github.com/sells-group/georss/internal/vector"
)

var dumpAs string

var dumpCmd = &cobra.Command{
	Use:   "dump <path>",
	Short: "Print the features of a dataset",
	Long:  "Writes every feature of every layer as tab-separated FID, WKT and attributes, or as a GeoJSON FeatureCollection.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return dump(os.Stdout, vector.Default(), vector.DefaultFs(), args[0], dumpAs)
	},
}

func init() {
	dumpCmd.Flags().StringVar(&dumpAs, "as", "wkt", "feature encoding: wkt or geojson")
	rootCmd.AddCommand(dumpCmd)
}

func dump(w io.Writer, reg *vector.Registry, fs afero.Fs, path, as string) error {
	if as != "wkt" && as != "geojson" {
		return eris.Errorf("dump: unknown encoding %q (want wkt or geojson)", as)
	}

	ds, _, err := reg.OpenEx(fs, path, vector.ReadOnly)
	if err != nil {
		return eris.Wrap(err, "dump")
	}
	defer func() { _ = ds.Close() }()

	if as == "geojson" {
		return dumpGeoJSON(w, ds)
	}

	for i := 0; i < ds.LayerCount(); i++ {
		l := ds.Layer(i)
		l.ResetReading()
		for f, ok := l.NextFeature(); ok; f, ok = l.NextFeature() {
			geomText := "EMPTY"
			if f.Geometry != nil {
				if geomText, err = wkt.Marshal(f.Geometry); err != nil {
					return eris.Wrapf(err, "dump: feature %d", f.FID)
				}
			}
			props, err := json.Marshal(f.Fields)
			if err != nil {
				return eris.Wrapf(err, "dump: feature %d", f.FID)
			}
			_, _ = fmt.Fprintf(w, "%s:%d\t%s\t%s\n", l.Name(), f.FID, geomText, props)
		}
	}
	return nil
}

func dumpGeoJSON(w io.Writer, ds vector.Dataset) error {
	fc := &geojson.FeatureCollection{Features: []*geojson.Feature{}}
	for i := 0; i < ds.LayerCount(); i++ {
		l := ds.Layer(i)
		l.ResetReading()
		for f, ok := l.NextFeature(); ok; f, ok = l.NextFeature() {
			props := make(map[string]any, len(f.Fields))
			for k, v := range f.Fields {
				props[k] = v
			}
			fc.Features = append(fc.Features, &geojson.Feature{
				ID:         fmt.Sprintf("%s.%d", l.Name(), f.FID),
				Geometry:   f.Geometry,
				Properties: props,
			})
		}
	}

	b, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		return eris.Wrap(err, "dump: encode geojson")
	}
	_, err = fmt.Fprintln(w, string(b))
	return eris.Wrap(err, "dump: write")
}
