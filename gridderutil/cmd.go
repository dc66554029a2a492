/*
Copyright © 2019 the Gridder authors.
This file is part of Gridder.

Gridder is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

Gridder is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with Gridder.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package gridderutil holds the command-line interface to gridder.
package gridderutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/gridder"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gonum.org/v1/plot/vg"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to gridder.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "verbose",
			usage: `
              verbose turns on debug logging.`,
			shorthand:  "v",
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "logfile",
			usage: `
              logfile specifies a file that log messages are written to
              in addition to standard error.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "input",
			usage: `
              input specifies the file the sample points are read from.
              Shapefiles (.shp) and CSV files (.csv) are supported. CSV files
              must have a header row naming the x and y columns (x, lon, lng,
              longitude or easting and y, lat, latitude or northing) and
              optionally a z column (z, elev, elevation or value).`,
			shorthand:  "i",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{gridCmd.Flags()},
		},
		{
			name: "output",
			usage: `
              output specifies the raster file to create.`,
			shorthand:  "o",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{gridCmd.Flags(), previewCmd.Flags()},
		},
		{
			name: "algorithm",
			usage: `
              algorithm specifies the interpolation method and its options
              in the form name:key=value:key=value. The methods are invdist,
              invdistnn, average, nearest, linear, minimum, maximum, range,
              count, average_distance and average_distance_pts.`,
			shorthand:  "a",
			defaultVal: "invdist",
			flagsets:   []*pflag.FlagSet{gridCmd.Flags()},
		},
		{
			name: "datatype",
			usage: `
              datatype specifies the output cell type: Byte, Int16, Int32,
              Float32 or Float64.`,
			defaultVal: "Float64",
			flagsets:   []*pflag.FlagSet{gridCmd.Flags()},
		},
		{
			name: "width",
			usage: `
              width specifies the number of columns in the output raster.`,
			defaultVal: 256,
			flagsets:   []*pflag.FlagSet{gridCmd.Flags()},
		},
		{
			name: "height",
			usage: `
              height specifies the number of rows in the output raster.`,
			defaultVal: 256,
			flagsets:   []*pflag.FlagSet{gridCmd.Flags()},
		},
		{
			name: "extent",
			usage: `
              extent specifies the world extent of the output raster as
              xmin,xmax,ymin,ymax. If it is empty the bounds of the input
              points are used.`,
			defaultVal: []string{},
			flagsets:   []*pflag.FlagSet{gridCmd.Flags()},
		},
		{
			name: "projection",
			usage: `
              projection specifies the spatial reference of the output
              raster in PROJ.4 or WKT format. If it is empty the spatial
              reference of the input is used.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{gridCmd.Flags()},
		},
		{
			name: "reproject",
			usage: `
              reproject specifies whether the input points are transformed
              into the output projection before gridding.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{gridCmd.Flags()},
		},
		{
			name: "driver",
			usage: `
              driver specifies the output format: netcdf or aaigrid.`,
			defaultVal: "netcdf",
			flagsets:   []*pflag.FlagSet{gridCmd.Flags()},
		},
		{
			name: "driveroptions",
			usage: `
              driveroptions specifies options passed to the output driver,
              for example {"VARIABLE":"elevation","UNITS":"m"}.`,
			defaultVal: map[string]string{},
			flagsets:   []*pflag.FlagSet{gridCmd.Flags()},
		},
		{
			name: "field",
			usage: `
              field specifies the input attribute holding the values to
              grid. If field and zexpression are both empty the z
              coordinates of the input geometries are used.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{gridCmd.Flags()},
		},
		{
			name: "zexpression",
			usage: `
              zexpression specifies an expression of input attributes that
              computes the values to grid, for example "depth * -1".`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{gridCmd.Flags()},
		},
		{
			name: "bufferbudget",
			usage: `
              bufferbudget specifies the largest number of bytes a block of
              output cells may use while gridding.`,
			defaultVal: gridder.DefaultBufferBudget,
			flagsets:   []*pflag.FlagSet{gridCmd.Flags()},
		},
		{
			name: "nodata",
			usage: `
              nodata specifies the value of cells without data. If it is
              empty the nodata option of the algorithm is used.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{gridCmd.Flags()},
		},
		{
			name: "previewfile",
			usage: `
              previewfile specifies the PNG image the preview is saved to.
              If it is empty the output file name with a .png extension is used.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{previewCmd.Flags()},
		},
		{
			name: "band",
			usage: `
              band specifies the raster band to preview, counting from 1.`,
			defaultVal: 1,
			flagsets:   []*pflag.FlagSet{previewCmd.Flags()},
		},
		{
			name: "previewsize",
			usage: `
              previewsize specifies the width of the preview image in inches.
              The height follows from the shape of the raster.`,
			defaultVal: 6.0,
			flagsets:   []*pflag.FlagSet{previewCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("GRIDDER")
	Cfg.AutomaticEnv()

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case []string:
				if option.shorthand == "" {
					set.StringSlice(option.name, option.defaultVal.([]string), option.usage)
				} else {
					set.StringSliceP(option.name, option.shorthand, option.defaultVal.([]string), option.usage)
				}
			case bool:
				if option.shorthand == "" {
					set.Bool(option.name, option.defaultVal.(bool), option.usage)
				} else {
					set.BoolP(option.name, option.shorthand, option.defaultVal.(bool), option.usage)
				}
			case int:
				if option.shorthand == "" {
					set.Int(option.name, option.defaultVal.(int), option.usage)
				} else {
					set.IntP(option.name, option.shorthand, option.defaultVal.(int), option.usage)
				}
			case float64:
				if option.shorthand == "" {
					set.Float64(option.name, option.defaultVal.(float64), option.usage)
				} else {
					set.Float64P(option.name, option.shorthand, option.defaultVal.(float64), option.usage)
				}
			case map[string]string:
				b := bytes.NewBuffer(nil)
				e := json.NewEncoder(b)
				e.Encode(option.defaultVal)
				s := string(b.Bytes())
				if option.shorthand == "" {
					set.String(option.name, s, option.usage)
				} else {
					set.StringP(option.name, option.shorthand, s, option.usage)
				}
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(gridCmd)
	Root.AddCommand(previewCmd)
	Root.AddCommand(configCmd)
}

// logFile is the open log file, if any.
var logFile *os.File

// setConfig finds and reads in the configuration file, if there is one,
// and sets up logging.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(os.ExpandEnv(cfgpath))
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("gridder: problem reading configuration file: %v", err)
		}
	}
	return setLogging(logrus.StandardLogger(), Cfg)
}

// setLogging configures log from the verbose and logfile options.
func setLogging(log *logrus.Logger, cfg *viper.Viper) error {
	log.Formatter = &logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
		DisableSorting:  true,
	}
	log.Level = logrus.InfoLevel
	if cfg.GetBool("verbose") {
		log.Level = logrus.DebugLevel
	}
	if logFile != nil {
		logFile.Close()
		logFile = nil
		log.Out = os.Stderr
	}
	if p := os.ExpandEnv(cfg.GetString("logfile")); p != "" {
		f, err := os.Create(p)
		if err != nil {
			return fmt.Errorf("gridder: creating log file: %v", err)
		}
		logFile = f
		log.Out = io.MultiWriter(os.Stderr, f)
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "gridder",
	Short: "Interpolate scattered points onto a raster.",
	Long: `gridder creates raster surfaces from scattered sample points, writing
the output one block at a time so that rasters larger than memory can be
created. Use the subcommands specified below to access the functionality.

Refer to the subcommand documentation for configuration options and default settings.
Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'GRIDDER_var' where 'var' is the
name of the variable to be set. Paths are additionally allowed to contain
environment variables within them.
Refer to https://github.com/spf13/viper for additional configuration information.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of gridder.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("Gridder v%s\n", gridder.Version)
	},
	DisableAutoGenTag: true,
}

var gridCmd = &cobra.Command{
	Use:   "grid",
	Short: "Create a raster from sample points",
	Long: `grid interpolates the sample points in the input file onto a new raster
as specified by the configuration. An interrupt signal stops the run after
the block being written; blocks already written are kept.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := OptionsFromConfig(Cfg)
		if err != nil {
			return err
		}
		output, err := checkOutputFile(Cfg.GetString("output"))
		if err != nil {
			return err
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt)
		defer signal.Stop(sig)
		go func() {
			select {
			case <-sig:
				logrus.Warn("interrupted; stopping")
				cancel()
			case <-ctx.Done():
			}
		}()

		_, err = Grid(ctx, os.ExpandEnv(Cfg.GetString("input")), output, opts, logrus.StandardLogger())
		return err
	},
	DisableAutoGenTag: true,
}

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Render a NetCDF raster as an image",
	Long: `preview draws one band of a NetCDF raster created by the grid
command as a heat map and saves it as a PNG image. Cells without data
are left blank.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		output := os.ExpandEnv(Cfg.GetString("output"))
		if output == "" {
			return fmt.Errorf("gridder: the output file to preview is not specified")
		}
		png := previewFile(output, os.ExpandEnv(Cfg.GetString("previewfile")))
		size := Cfg.GetFloat64("previewsize")
		if !(size > 0) {
			return fmt.Errorf("gridder: previewsize=%g but should be >0", size)
		}
		if err := Preview(output, png, Cfg.GetInt("band"), vg.Length(size)*vg.Inch); err != nil {
			return err
		}
		logrus.WithField("file", png).Info("preview saved")
		return nil
	},
	DisableAutoGenTag: true,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the configuration",
	Long: `config prints the configuration that results from the defaults,
the configuration file, environment variables and command-line
arguments in TOML format. The output can be used as a configuration file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return WriteConfig(cmd.OutOrStdout(), Cfg)
	},
	DisableAutoGenTag: true,
}
