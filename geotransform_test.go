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
	"errors"
	"math"
	"testing"
)

const tol = 1.e-8

func different(a, b float64) bool {
	return math.Abs(a-b) > tol*math.Max(1, math.Abs(b))
}

func TestNewGeoTransform(t *testing.T) {
	gt, err := NewGeoTransform(Extent{XMin: 0, XMax: 10, YMin: 0, YMax: 10}, 4, 4)
	if err != nil {
		t.Fatal(err)
	}
	want := [6]float64{0, 2.5, 0, 10, 0, -2.5}
	if gt.Array() != want {
		t.Errorf("got %v, want %v", gt.Array(), want)
	}
	if GeoTransformFromArray(want) != gt {
		t.Errorf("array conversion does not round trip")
	}

	for _, ext := range []Extent{
		{XMin: 0, XMax: 0, YMin: 0, YMax: 1},
		{XMin: 0, XMax: 1, YMin: 2, YMax: 1},
		{XMin: math.NaN(), XMax: 1, YMin: 0, YMax: 1},
	} {
		if _, err := NewGeoTransform(ext, 4, 4); err == nil {
			t.Errorf("extent %v should be rejected", ext)
		}
	}
	if _, err := NewGeoTransform(Extent{XMax: 1, YMax: 1}, 0, 4); err == nil {
		t.Error("zero width should be rejected")
	}
}

func TestBlockExtent(t *testing.T) {
	gt, err := NewGeoTransform(Extent{XMin: 0, XMax: 10, YMin: 0, YMax: 10}, 4, 4)
	if err != nil {
		t.Fatal(err)
	}
	e, err := gt.BlockExtent(Block{XOffset: 0, YOffset: 0, XSize: 4, YSize: 4})
	if err != nil {
		t.Fatal(err)
	}
	if want := (Extent{XMin: 0, XMax: 10, YMin: 10, YMax: 0}); e != want {
		t.Errorf("got %v, want %v", e, want)
	}
	e, err = gt.BlockExtent(Block{XOffset: 1, YOffset: 2, XSize: 2, YSize: 1})
	if err != nil {
		t.Fatal(err)
	}
	if want := (Extent{XMin: 2.5, XMax: 7.5, YMin: 5, YMax: 2.5}); e != want {
		t.Errorf("got %v, want %v", e, want)
	}
	full, err := gt.Extent(4, 4)
	if err != nil {
		t.Fatal(err)
	}
	if want := (Extent{XMin: 0, XMax: 10, YMin: 0, YMax: 10}); full != want {
		t.Errorf("full extent: got %v, want %v", full, want)
	}
}

func TestBlockExtentRoundTrip(t *testing.T) {
	transforms := []GeoTransform{
		{XOrigin: -2736000, PixelWidth: 12000, YOrigin: 2088000, PixelHeight: -12000},
		{XOrigin: 0.5, PixelWidth: 0.001, YOrigin: -3, PixelHeight: 0.25},
		{XOrigin: -180, PixelWidth: 1.0 / 3, YOrigin: 90, PixelHeight: -1.0 / 7},
	}
	blocks, err := Plan(Size{X: 7, Y: 3}, 50, 20)
	if err != nil {
		t.Fatal(err)
	}
	for _, gt := range transforms {
		for _, b := range blocks {
			e, err := gt.BlockExtent(b)
			if err != nil {
				t.Fatal(err)
			}
			px, py, err := gt.Invert(e.XMin, e.YMin)
			if err != nil {
				t.Fatal(err)
			}
			if different(px, float64(b.XOffset)) || different(py, float64(b.YOffset)) {
				t.Errorf("%v, block %v: offset round trip gave (%g, %g)", gt, b, px, py)
			}
			px, py, err = gt.Invert(e.XMax, e.YMax)
			if err != nil {
				t.Fatal(err)
			}
			if different(px, float64(b.XOffset+b.XSize)) || different(py, float64(b.YOffset+b.YSize)) {
				t.Errorf("%v, block %v: end round trip gave (%g, %g)", gt, b, px, py)
			}
		}
	}
}

func TestRotatedGeoTransform(t *testing.T) {
	gt := GeoTransform{XOrigin: 0, PixelWidth: 1, XRotation: 0.1, YOrigin: 0, PixelHeight: -1}
	_, err := gt.BlockExtent(Block{XSize: 1, YSize: 1})
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("got %v, want a configuration error", err)
	}

	// Apply and Invert still handle rotation.
	x, y := gt.Apply(3, 4)
	px, py, err := gt.Invert(x, y)
	if err != nil {
		t.Fatal(err)
	}
	if different(px, 3) || different(py, 4) {
		t.Errorf("got (%g, %g), want (3, 4)", px, py)
	}
}
