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

import (
	"fmt"
	"math"

	"github.com/ctessum/geom"
)

// Extent is an axis-aligned rectangle in world coordinates.
//
// The extent of a whole dataset always has XMin < XMax and YMin < YMax.
// Extents returned by GeoTransform.BlockExtent instead follow the
// direction of the transform: for a north-up raster (negative pixel
// height) YMin holds the y coordinate of the block's first row edge,
// which is the larger of the two values.
type Extent struct {
	XMin, XMax, YMin, YMax float64
}

// Validate checks that e is a non-degenerate dataset extent.
func (e Extent) Validate() error {
	for _, v := range []float64{e.XMin, e.XMax, e.YMin, e.YMax} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return &ConfigError{Msg: fmt.Sprintf("extent %v has non-finite bounds", e)}
		}
	}
	if !(e.XMin < e.XMax) || !(e.YMin < e.YMax) {
		return &ConfigError{Msg: fmt.Sprintf("extent %v has zero or negative area", e)}
	}
	return nil
}

// Dx returns the signed distance from XMin to XMax.
func (e Extent) Dx() float64 { return e.XMax - e.XMin }

// Dy returns the signed distance from YMin to YMax.
func (e Extent) Dy() float64 { return e.YMax - e.YMin }

// Bounds converts e to a geom.Bounds, reordering the corners if needed.
func (e Extent) Bounds() *geom.Bounds {
	return &geom.Bounds{
		Min: geom.Point{X: math.Min(e.XMin, e.XMax), Y: math.Min(e.YMin, e.YMax)},
		Max: geom.Point{X: math.Max(e.XMin, e.XMax), Y: math.Max(e.YMin, e.YMax)},
	}
}

// ExtentFromBounds returns the extent covering b.
func ExtentFromBounds(b *geom.Bounds) Extent {
	return Extent{XMin: b.Min.X, XMax: b.Max.X, YMin: b.Min.Y, YMax: b.Max.Y}
}

func (e Extent) String() string {
	return fmt.Sprintf("[%g, %g] x [%g, %g]", e.XMin, e.XMax, e.YMin, e.YMax)
}

// GeoTransform is the affine mapping between pixel (column, row) space and
// world coordinates:
//	x = XOrigin + col*PixelWidth + row*XRotation
//	y = YOrigin + col*YRotation + row*PixelHeight
type GeoTransform struct {
	XOrigin, PixelWidth, XRotation float64
	YOrigin, YRotation, PixelHeight float64
}

// NewGeoTransform returns the north-up transform that maps a raster of
// width x height cells onto ext.
func NewGeoTransform(ext Extent, width, height int) (GeoTransform, error) {
	if err := ext.Validate(); err != nil {
		return GeoTransform{}, err
	}
	if width <= 0 || height <= 0 {
		return GeoTransform{}, &ConfigError{Msg: fmt.Sprintf("raster size %dx%d must be positive", width, height)}
	}
	return GeoTransform{
		XOrigin:     ext.XMin,
		PixelWidth:  ext.Dx() / float64(width),
		YOrigin:     ext.YMax,
		PixelHeight: -ext.Dy() / float64(height),
	}, nil
}

// GeoTransformFromArray converts the conventional six-coefficient
// ordering (x0, pw, xrot, y0, yrot, ph) into a GeoTransform.
func GeoTransformFromArray(a [6]float64) GeoTransform {
	return GeoTransform{
		XOrigin: a[0], PixelWidth: a[1], XRotation: a[2],
		YOrigin: a[3], YRotation: a[4], PixelHeight: a[5],
	}
}

// Array returns the six coefficients in the conventional ordering.
func (g GeoTransform) Array() [6]float64 {
	return [6]float64{g.XOrigin, g.PixelWidth, g.XRotation, g.YOrigin, g.YRotation, g.PixelHeight}
}

// Rotated reports whether either rotation term is non-zero.
func (g GeoTransform) Rotated() bool {
	return g.XRotation != 0 || g.YRotation != 0
}

// Validate returns an error if g cannot be used for block mapping.
func (g GeoTransform) Validate() error {
	if g.Rotated() {
		return &ConfigError{Msg: fmt.Sprintf("rotated geotransforms are not supported (rotation terms %g, %g)",
			g.XRotation, g.YRotation)}
	}
	if g.PixelWidth == 0 || g.PixelHeight == 0 ||
		math.IsNaN(g.PixelWidth) || math.IsNaN(g.PixelHeight) {
		return &ConfigError{Msg: fmt.Sprintf("invalid pixel size %g x %g", g.PixelWidth, g.PixelHeight)}
	}
	return nil
}

// Apply maps the pixel-space location (px, py) to world coordinates.
func (g GeoTransform) Apply(px, py float64) (x, y float64) {
	x = g.XOrigin + px*g.PixelWidth + py*g.XRotation
	y = g.YOrigin + px*g.YRotation + py*g.PixelHeight
	return
}

// Invert maps the world location (x, y) back to pixel space.
func (g GeoTransform) Invert(x, y float64) (px, py float64, err error) {
	det := g.PixelWidth*g.PixelHeight - g.XRotation*g.YRotation
	if det == 0 {
		return math.NaN(), math.NaN(), &ConfigError{Msg: "geotransform is not invertible"}
	}
	dx, dy := x-g.XOrigin, y-g.YOrigin
	px = (dx*g.PixelHeight - dy*g.XRotation) / det
	py = (dy*g.PixelWidth - dx*g.YRotation) / det
	return px, py, nil
}

// BlockExtent returns the world rectangle covered by b. The result keeps
// the orientation of g, see Extent.
func (g GeoTransform) BlockExtent(b Block) (Extent, error) {
	if err := g.Validate(); err != nil {
		return Extent{}, err
	}
	return Extent{
		XMin: g.XOrigin + g.PixelWidth*float64(b.XOffset),
		XMax: g.XOrigin + g.PixelWidth*float64(b.XOffset+b.XSize),
		YMin: g.YOrigin + g.PixelHeight*float64(b.YOffset),
		YMax: g.YOrigin + g.PixelHeight*float64(b.YOffset+b.YSize),
	}, nil
}

// Extent returns the world extent of a width x height raster under g,
// with the corners sorted.
func (g GeoTransform) Extent(width, height int) (Extent, error) {
	e, err := g.BlockExtent(Block{XSize: width, YSize: height})
	if err != nil {
		return Extent{}, err
	}
	b := e.Bounds()
	return ExtentFromBounds(b), nil
}
