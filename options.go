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

package gridder

import "fmt"

// Options configures one gridding run. Options must not be changed
// while a run is in progress.
type Options struct {
	Algorithm        Algorithm
	AlgorithmOptions AlgorithmOptions

	// DataType is the cell type of the output raster.
	DataType DataType

	// Width and Height are the size of the output raster in cells.
	Width, Height int

	// Projection is the output spatial reference as WKT or a PROJ.4
	// string. If empty, the reference of the input is used.
	Projection string

	// Reproject transforms the input points into Projection when the
	// input's reference is known and differs. Otherwise Projection is
	// only assigned to the output.
	Reproject bool

	// Extent is the world extent of the output raster. If nil, the
	// bounds of the input points are used.
	Extent *Extent

	// Driver names the output format and DriverOptions are passed to it.
	Driver        string
	DriverOptions map[string]string

	// Field is the attribute holding z values. ZExpression computes z
	// from attributes instead. If both are empty, the geometries' z
	// coordinates are used.
	Field       string
	ZExpression string

	// BufferBudget is the largest number of bytes one block buffer may
	// use. Zero means DefaultBufferBudget.
	BufferBudget int

	// NoData, if set, overrides AlgorithmOptions.NoData as the value
	// for cells without data.
	NoData *float64
}

// DefaultOptions returns options for an inverse distance Float64
// raster in the NetCDF format.
func DefaultOptions() Options {
	return Options{
		Algorithm:        InverseDistance,
		AlgorithmOptions: DefaultAlgorithmOptions(InverseDistance),
		DataType:         Float64,
		Driver:           "netcdf",
		BufferBudget:     DefaultBufferBudget,
	}
}

// Validate checks the options that do not depend on the input.
func (o *Options) Validate() error {
	if err := o.AlgorithmOptions.Validate(o.Algorithm); err != nil {
		return err
	}
	if o.DataType.Size() == 0 {
		return &ConfigError{Msg: fmt.Sprintf("unsupported data type %v", o.DataType)}
	}
	if o.Width <= 0 || o.Height <= 0 {
		return &ConfigError{Msg: fmt.Sprintf("output size %dx%d must be positive", o.Width, o.Height)}
	}
	if o.Extent != nil {
		if err := o.Extent.Validate(); err != nil {
			return err
		}
	}
	if o.BufferBudget < 0 {
		return &ConfigError{Msg: fmt.Sprintf("buffer budget %d must not be negative", o.BufferBudget)}
	}
	if o.Field != "" && o.ZExpression != "" {
		return &ConfigError{Msg: "only one of a z field and a z expression may be given"}
	}
	return nil
}

// budget returns the effective buffer budget.
func (o *Options) budget() int {
	if o.BufferBudget == 0 {
		return DefaultBufferBudget
	}
	return o.BufferBudget
}

// noData returns the value for cells without data.
func (o *Options) noData() float64 {
	if o.NoData != nil {
		return *o.NoData
	}
	return o.AlgorithmOptions.NoData
}
