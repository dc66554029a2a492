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

import "context"

// Raster is an output raster open for writing.
type Raster interface {
	// NativeBlockSize returns the block shape the format writes most
	// efficiently.
	NativeBlockSize() Size

	SetGeoTransform(GeoTransform) error

	// SetProjection sets the spatial reference, as WKT or PROJ.4.
	SetProjection(string) error

	// WriteBlock writes buf, which holds xSize*ySize values in row-major
	// order, to band (counting from 1) at the given cell offset. Values
	// are converted to the raster's data type. buf is not retained.
	WriteBlock(band, xOff, yOff, xSize, ySize int, buf []float64) error

	SetNoDataValue(band int, v float64) error

	// Close flushes and releases the raster.
	Close() error
}

// Driver creates rasters in one format.
type Driver interface {
	Create(path string, width, height, bands int, dt DataType, options map[string]string) (Raster, error)
}

// InterpolationRequest describes one block to interpolate.
type InterpolationRequest struct {
	Algorithm Algorithm
	Options   AlgorithmOptions
	Points    *Points

	// Extent is the world extent of the block, oriented as returned by
	// GeoTransform.BlockExtent.
	Extent Extent

	// XSize and YSize are the size of the block in cells.
	XSize, YSize int

	DataType DataType
}

// Interpolator fills blocks from scattered points.
type Interpolator interface {
	// Interpolate returns the XSize*YSize cell values of the requested
	// block in row-major order, starting at the corner given by
	// Extent.XMin and Extent.YMin. It reports its progress through
	// progress and returns ErrCanceled if progress returns false.
	Interpolate(ctx context.Context, req *InterpolationRequest, progress ProgressFunc) ([]float64, error)
}
