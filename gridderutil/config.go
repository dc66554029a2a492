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

package gridderutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/lnashier/viper"
	"github.com/spatialmodel/gridder"
	"github.com/spf13/cast"
)

// OptionsFromConfig unmarshals a viper configuration into gridding
// options.
func OptionsFromConfig(cfg *viper.Viper) (gridder.Options, error) {
	o := gridder.DefaultOptions()
	var err error
	if o.Algorithm, o.AlgorithmOptions, err = gridder.ParseAlgorithm(cfg.GetString("algorithm")); err != nil {
		return o, err
	}
	if o.DataType, err = gridder.ParseDataType(cfg.GetString("datatype")); err != nil {
		return o, err
	}
	o.Width = cfg.GetInt("width")
	o.Height = cfg.GetInt("height")
	if o.Extent, err = parseExtent(cfg.Get("extent")); err != nil {
		return o, err
	}
	o.Projection = os.ExpandEnv(cfg.GetString("projection"))
	o.Reproject = cfg.GetBool("reproject")
	o.Driver = strings.ToLower(cfg.GetString("driver"))
	if o.DriverOptions, err = GetStringMapString("driveroptions", cfg); err != nil {
		return o, err
	}
	if len(o.DriverOptions) == 0 {
		o.DriverOptions = nil
	}
	o.Field = cfg.GetString("field")
	o.ZExpression = cfg.GetString("zexpression")
	o.BufferBudget = cfg.GetInt("bufferbudget")
	if s := strings.TrimSpace(cfg.GetString("nodata")); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return o, &gridder.ConfigError{Msg: fmt.Sprintf("parsing nodata %q: %v", s, err)}
		}
		o.NoData = &v
	}
	return o, o.Validate()
}

// parseExtent converts a list of four numbers, xmin, xmax, ymin and ymax,
// to an extent. An empty list is no extent.
func parseExtent(v interface{}) (*gridder.Extent, error) {
	var s []string
	switch t := v.(type) {
	case nil:
		return nil, nil
	case string:
		t = strings.Trim(strings.TrimSpace(t), "[]")
		if t != "" {
			s = strings.Split(t, ",")
		}
	default:
		var err error
		if s, err = cast.ToStringSliceE(v); err != nil {
			return nil, &gridder.ConfigError{Msg: fmt.Sprintf("parsing extent: %v", err)}
		}
	}
	if len(s) == 0 {
		return nil, nil
	}
	if len(s) != 4 {
		return nil, &gridder.ConfigError{Msg: fmt.Sprintf("extent has %d values but needs 4: xmin,xmax,ymin,ymax", len(s))}
	}
	var f [4]float64
	for i, x := range s {
		var err error
		if f[i], err = cast.ToFloat64E(strings.TrimSpace(x)); err != nil {
			return nil, &gridder.ConfigError{Msg: fmt.Sprintf("parsing extent value %q: %v", x, err)}
		}
	}
	e := &gridder.Extent{XMin: f[0], XMax: f[1], YMin: f[2], YMax: f[3]}
	return e, e.Validate()
}

// GetStringMapString returns a map[string]string from a viper configuration,
// accounting for the fact that it might be a json object if it was set
// from a command line argument.
func GetStringMapString(varName string, cfg *viper.Viper) (map[string]string, error) {
	i := cfg.Get(varName)
	switch v := i.(type) {
	case nil:
		return nil, nil
	case map[string]string:
		return v, nil
	case map[string]interface{}:
		return cast.ToStringMapStringE(v)
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, nil
		}
		d := json.NewDecoder(bytes.NewBufferString(v))
		o := make(map[string]string)
		if err := d.Decode(&o); err != nil {
			return nil, fmt.Errorf("gridder: parsing configuration variable %s: %v", varName, err)
		}
		return o, nil
	}
	return nil, fmt.Errorf("gridder: invalid type for configuration variable %s: %#v", varName, i)
}

// checkOutputFile makes sure that the output file is specified and its
// directory exists, and expands any environment variables.
func checkOutputFile(f string) (string, error) {
	if f == "" {
		return "", fmt.Errorf(`gridder: you need to specify an output file (for example: --output="surface.nc")`)
	}
	f = os.ExpandEnv(f)
	outdir := filepath.Dir(f)
	if _, err := os.Stat(outdir); err != nil {
		return f, fmt.Errorf("gridder: the output directory doesn't exist: %v", err)
	}
	return f, nil
}

// previewFile returns the preview image path, which defaults to the
// raster path with a .png extension.
func previewFile(raster, png string) string {
	if png != "" {
		return png
	}
	return strings.TrimSuffix(raster, filepath.Ext(raster)) + ".png"
}

// WriteConfig writes the value of every option except the configuration
// file location to w in TOML format.
func WriteConfig(w io.Writer, cfg *viper.Viper) error {
	m := make(map[string]interface{})
	for _, option := range options {
		if option.name == "config" {
			continue
		}
		v := cfg.Get(option.name)
		if v == nil {
			continue
		}
		if _, ok := option.defaultVal.(map[string]string); ok {
			mv, err := GetStringMapString(option.name, cfg)
			if err != nil {
				return err
			}
			if mv == nil {
				mv = map[string]string{}
			}
			v = mv
		}
		m[option.name] = v
	}
	if err := toml.NewEncoder(w).Encode(m); err != nil {
		return fmt.Errorf("gridder: writing configuration: %v", err)
	}
	return nil
}
