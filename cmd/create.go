package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/georss/internal/georss"
	"github.com/sells-group/georss/internal/vector"
)

var (
	createOpts []string
	createFrom string
)

var createCmd = &cobra.Command{
	Use:   "create <path>",
	Short: "Create a GeoRSS feed",
	Long:  "Creates a new GeoRSS feed at path. With --from, features of the first layer of another dataset are copied into it.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("create"); err != nil {
			return err
		}
		opts, err := creationOptions(cfg.GeoRSS.Options(), createOpts)
		if err != nil {
			return err
		}
		n, err := createFeed(vector.Default(), vector.DefaultFs(), args[0], opts, createFrom)
		if err != nil {
			return err
		}
		zap.L().Info("feed created", zap.String("path", args[0]), zap.Int("features", n))
		return nil
	},
}

func init() {
	createCmd.Flags().StringArrayVarP(&createOpts, "option", "o", nil, "creation option KEY=VALUE (repeatable)")
	createCmd.Flags().StringVar(&createFrom, "from", "", "dataset to copy features from")
	rootCmd.AddCommand(createCmd)
}

// creationOptions layers command line options over configured defaults.
func creationOptions(defaults map[string]string, pairs []string) (vector.Options, error) {
	flagOpts, err := vector.ParseOptions(pairs)
	if err != nil {
		return nil, err
	}
	opts := make(vector.Options, len(defaults)+len(flagOpts))
	for k, v := range defaults {
		if _, overridden := flagOpts.Lookup(k); !overridden {
			opts[k] = v
		}
	}
	for k, v := range flagOpts {
		opts[k] = v
	}
	return opts, nil
}

// createFeed creates a GeoRSS feed at path and optionally fills it from the
// first layer of src. It returns the number of features written.
func createFeed(reg *vector.Registry, fs afero.Fs, path string, opts vector.Options, src string) (int, error) {
	ds, err := reg.Create(georss.DriverName, path, opts)
	if err != nil {
		return 0, err
	}

	n, err := fillFeed(reg, fs, ds, src)
	if cerr := ds.Close(); err == nil && cerr != nil {
		err = eris.Wrapf(cerr, "create: close %s", path)
	}
	if err != nil {
		if rerr := fs.Remove(path); rerr != nil {
			zap.L().Debug("create: remove partial feed", zap.String("path", path), zap.Error(rerr))
		}
		return 0, err
	}
	return n, nil
}

func fillFeed(reg *vector.Registry, fs afero.Fs, dst vector.Dataset, src string) (int, error) {
	if src == "" {
		_, err := dst.CreateLayer(georss.LayerName, vector.GeomUnknown)
		return 0, err
	}

	in, _, err := reg.OpenEx(fs, src, vector.ReadOnly)
	if err != nil {
		return 0, eris.Wrap(err, "create: open source")
	}
	defer func() { _ = in.Close() }()

	if in.LayerCount() == 0 {
		return 0, eris.Errorf("create: %s has no layers", src)
	}
	srcLayer := in.Layer(0)

	out, err := dst.CreateLayer(srcLayer.Name(), srcLayer.GeometryType())
	if err != nil {
		return 0, err
	}
	for _, fd := range srcLayer.Fields() {
		if err := out.CreateField(fd); err != nil {
			return 0, err
		}
	}

	var n int
	srcLayer.ResetReading()
	for f, ok := srcLayer.NextFeature(); ok; f, ok = srcLayer.NextFeature() {
		if err := out.CreateFeature(f); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
