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

// Package raster holds the output formats gridded rasters can be
// written in.
package raster

import (
	"fmt"
	"math"

	"github.com/spatialmodel/gridder"
)

// Drivers returns the available output formats by name.
func Drivers() map[string]gridder.Driver {
	return map[string]gridder.Driver{
		"netcdf":  NetCDF{},
		"aaigrid": AAIGrid{},
	}
}

// checkBlock returns an error if the block is not inside a width by
// height raster with the given number of bands, or buf is the wrong
// length.
func checkBlock(width, height, bands, band, xOff, yOff, xSize, ySize int, buf []float64) error {
	if band < 1 || band > bands {
		return fmt.Errorf("raster: band %d out of range [1, %d]", band, bands)
	}
	if xOff < 0 || yOff < 0 || xSize <= 0 || ySize <= 0 || xOff+xSize > width || yOff+ySize > height {
		return fmt.Errorf("raster: block %dx%d at (%d, %d) is outside the %dx%d raster",
			xSize, ySize, xOff, yOff, width, height)
	}
	if len(buf) != xSize*ySize {
		return fmt.Errorf("raster: block %dx%d has %d values", xSize, ySize, len(buf))
	}
	return nil
}

// convert returns buf as a slice of the Go type that stores dt. Values
// are rounded and clamped to the range of integer types, and NaN is
// replaced by noData for them.
func convert(dt gridder.DataType, buf []float64, noData float64) interface{} {
	value := func(v float64) float64 {
		if math.IsNaN(v) && dt.Integer() {
			v = noData
		}
		return dt.Clamp(v)
	}
	switch dt {
	case gridder.Byte:
		out := make([]uint8, len(buf))
		for i, v := range buf {
			out[i] = uint8(value(v))
		}
		return out
	case gridder.Int16:
		out := make([]int16, len(buf))
		for i, v := range buf {
			out[i] = int16(value(v))
		}
		return out
	case gridder.Int32:
		out := make([]int32, len(buf))
		for i, v := range buf {
			out[i] = int32(value(v))
		}
		return out
	case gridder.Float32:
		out := make([]float32, len(buf))
		for i, v := range buf {
			out[i] = float32(v)
		}
		return out
	case gridder.Float64:
		out := make([]float64, len(buf))
		copy(out, buf)
		return out
	}
	panic(fmt.Errorf("raster: unsupported data type %v", dt))
}

// toFloat64 converts a slice returned by convert back to float64.
func toFloat64(v interface{}) ([]float64, error) {
	switch d := v.(type) {
	case []uint8:
		out := make([]float64, len(d))
		for i, x := range d {
			out[i] = float64(x)
		}
		return out, nil
	case []int16:
		out := make([]float64, len(d))
		for i, x := range d {
			out[i] = float64(x)
		}
		return out, nil
	case []int32:
		out := make([]float64, len(d))
		for i, x := range d {
			out[i] = float64(x)
		}
		return out, nil
	case []float32:
		out := make([]float64, len(d))
		for i, x := range d {
			out[i] = float64(x)
		}
		return out, nil
	case []float64:
		return d, nil
	}
	return nil, fmt.Errorf("raster: unsupported value type %T", v)
}
