package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/georss/internal/vector"
)

var driversOutput string

var driversCmd = &cobra.Command{
	Use:   "drivers",
	Short: "List registered vector drivers",
	RunE: func(cmd *cobra.Command, args []string) error {
		return writeDrivers(os.Stdout, vector.Default().All(), driversOutput)
	},
}

func init() {
	driversCmd.Flags().StringVar(&driversOutput, "output", "text", "output format: text, json or yaml")
	rootCmd.AddCommand(driversCmd)
}

// driverInfo is the printable form of a driver's metadata.
type driverInfo struct {
	Name            string   `json:"name" yaml:"name"`
	LongName        string   `json:"long_name" yaml:"long_name"`
	HelpTopic       string   `json:"help_topic,omitempty" yaml:"help_topic,omitempty"`
	Vector          bool     `json:"vector" yaml:"vector"`
	VirtualIO       bool     `json:"virtual_io" yaml:"virtual_io"`
	Extensions      []string `json:"extensions,omitempty" yaml:"extensions,omitempty"`
	CreationOptions []string `json:"creation_options,omitempty" yaml:"creation_options,omitempty"`
}

func describeDriver(d vector.Driver) driverInfo {
	m := d.Metadata()
	info := driverInfo{
		Name:       m.Name,
		LongName:   m.LongName,
		HelpTopic:  m.HelpTopic,
		Vector:     m.Capabilities.Vector,
		VirtualIO:  m.Capabilities.VirtualIO,
		Extensions: m.Extensions,
	}
	for _, o := range m.CreationOptions {
		info.CreationOptions = append(info.CreationOptions, o.Name)
	}
	return info
}

// writeDrivers writes the driver list to w in the requested format.
func writeDrivers(w io.Writer, drivers []vector.Driver, format string) error {
	infos := make([]driverInfo, len(drivers))
	for i, d := range drivers {
		infos[i] = describeDriver(d)
	}
	if format != "text" {
		return writeStructured(w, infos, format)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "NAME\tLONG NAME\tCAPS\tEXTENSIONS\tHELP")
	_, _ = fmt.Fprintln(tw, "----\t---------\t----\t----------\t----")
	for _, info := range infos {
		caps := "-"
		switch {
		case info.Vector && info.VirtualIO:
			caps = "vector,vsi"
		case info.Vector:
			caps = "vector"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			info.Name,
			info.LongName,
			caps,
			strings.Join(info.Extensions, ","),
			info.HelpTopic,
		)
	}
	return tw.Flush()
}
