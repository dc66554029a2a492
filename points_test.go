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
	"strconv"
	"testing"
)

// memSource is a VectorSource held in memory.
type memSource struct {
	fields     []string
	hasZ       bool
	projection string
	features   []Feature
}

func (s *memSource) Fields() []string                  { return s.fields }
func (s *memSource) HasZ() bool                        { return s.hasZ }
func (s *memSource) SpatialReference() (string, error) { return s.projection, nil }
func (s *memSource) ForEach(fn func(Feature) error) error {
	for _, f := range s.features {
		if err := fn(f); err != nil {
			return err
		}
	}
	return nil
}

// cornerSource returns the four corners of the square [0,10]x[0,10]
// with z values 1 to 4, both as geometry z and as the ELEV field.
func cornerSource(hasZ bool) *memSource {
	s := &memSource{fields: []string{"ELEV", "NAME"}, hasZ: hasZ}
	for i, p := range []Point3D{{X: 0, Y: 0, Z: 1}, {X: 10, Y: 0, Z: 2}, {X: 0, Y: 10, Z: 3}, {X: 10, Y: 10, Z: 4}} {
		v := p
		if !hasZ {
			v.Z = math.NaN()
		}
		s.features = append(s.features, Feature{
			Vertices: []Point3D{v},
			Attributes: map[string]string{
				"ELEV": strconv.FormatFloat(p.Z, 'g', -1, 64),
				"NAME": "p" + strconv.Itoa(i),
			},
		})
	}
	return s
}

func TestValidateSource(t *testing.T) {
	flat := cornerSource(false)
	var dataErr *DataError
	if err := ValidateSource(flat, "", ""); !errors.As(err, &dataErr) {
		t.Errorf("source without z and no field: got %v, want a data error", err)
	}
	if err := ValidateSource(flat, "elev", ""); err != nil {
		t.Errorf("source with z field: %v", err)
	}
	if err := ValidateSource(flat, "HEIGHT", ""); !errors.As(err, &dataErr) {
		t.Errorf("missing field: got %v, want a data error", err)
	}
	if err := ValidateSource(flat, "", "ELEV * 2"); err != nil {
		t.Errorf("expression: %v", err)
	}
	if err := ValidateSource(flat, "", "HEIGHT * 2"); !errors.As(err, &dataErr) {
		t.Errorf("expression with missing field: got %v, want a data error", err)
	}
	if err := ValidateSource(cornerSource(true), "", ""); err != nil {
		t.Errorf("source with z: %v", err)
	}
}

func TestExtractPoints(t *testing.T) {
	want := []Point3D{{X: 0, Y: 0, Z: 1}, {X: 10, Y: 0, Z: 2}, {X: 0, Y: 10, Z: 3}, {X: 10, Y: 10, Z: 4}}
	check := func(t *testing.T, p *Points, scale float64) {
		if p.Len() != len(want) {
			t.Fatalf("got %d points, want %d", p.Len(), len(want))
		}
		for i, w := range want {
			w.Z *= scale
			if p.XYZ[i] != w {
				t.Errorf("point %d: got %+v, want %+v", i, p.XYZ[i], w)
			}
		}
	}
	t.Run("geometry", func(t *testing.T) {
		p, err := ExtractPoints(cornerSource(true), "", "")
		if err != nil {
			t.Fatal(err)
		}
		check(t, p, 1)
	})
	t.Run("field", func(t *testing.T) {
		p, err := ExtractPoints(cornerSource(false), "Elev", "")
		if err != nil {
			t.Fatal(err)
		}
		check(t, p, 1)
	})
	t.Run("expression", func(t *testing.T) {
		p, err := ExtractPoints(cornerSource(false), "", "ELEV * 2")
		if err != nil {
			t.Fatal(err)
		}
		check(t, p, 2)
	})
	t.Run("non-numeric field", func(t *testing.T) {
		_, err := ExtractPoints(cornerSource(false), "NAME", "")
		var dataErr *DataError
		if !errors.As(err, &dataErr) {
			t.Errorf("got %v, want a data error", err)
		}
	})
	t.Run("missing values skipped", func(t *testing.T) {
		s := cornerSource(false)
		s.features[1].Attributes["ELEV"] = ""
		p, err := ExtractPoints(s, "ELEV", "")
		if err != nil {
			t.Fatal(err)
		}
		if p.Len() != 3 {
			t.Errorf("got %d points, want 3", p.Len())
		}
	})
}

func TestValidateHasZ(t *testing.T) {
	p := NewPoints([]Point3D{{X: 1, Y: 1, Z: math.NaN()}, {X: 2, Y: 2, Z: math.Inf(1)}}, "")
	if err := p.ValidateHasZ(); err == nil {
		t.Error("points without finite z should fail")
	}
	if err := NewPoints(nil, "").ValidateHasZ(); err == nil {
		t.Error("empty points should fail")
	}
	p = NewPoints([]Point3D{{X: 1, Y: 1, Z: math.NaN()}, {X: 2, Y: 2, Z: 0}}, "")
	if err := p.ValidateHasZ(); err != nil {
		t.Error(err)
	}
}

func TestFingerprint(t *testing.T) {
	a := NewPoints([]Point3D{{X: 1, Y: 2, Z: 3}}, "")
	b := NewPoints([]Point3D{{X: 1, Y: 2, Z: 3}}, "")
	c := NewPoints([]Point3D{{X: 1, Y: 2, Z: 4}}, "")
	if a.Fingerprint() != b.Fingerprint() {
		t.Error("identical points should have the same fingerprint")
	}
	if a.Fingerprint() == c.Fingerprint() {
		t.Error("different points should have different fingerprints")
	}
}

func TestPointsBounds(t *testing.T) {
	p, err := ExtractPoints(cornerSource(true), "", "")
	if err != nil {
		t.Fatal(err)
	}
	e := ExtentFromBounds(p.Bounds())
	if want := (Extent{XMin: 0, XMax: 10, YMin: 0, YMax: 10}); e != want {
		t.Errorf("got %v, want %v", e, want)
	}
}

func TestPointsTransform(t *testing.T) {
	const webMapProj = "+proj=merc +a=6378137 +b=6378137 +lat_ts=0.0 +lon_0=0.0 +x_0=0.0 +y_0=0 +k=1.0 +units=m +nadgrids=@null +no_defs"
	p := NewPoints([]Point3D{{X: 0, Y: 0, Z: 1}, {X: 90, Y: 0, Z: 2}}, "+proj=longlat")

	same, err := p.Transform("+proj=longlat")
	if err != nil {
		t.Fatal(err)
	}
	if same != p {
		t.Error("transforming to the same projection should be a no-op")
	}

	merc, err := p.Transform(webMapProj)
	if err != nil {
		t.Fatal(err)
	}
	if merc.Projection != webMapProj || merc.Len() != 2 {
		t.Fatalf("transformed points %+v", merc)
	}
	want := []Point3D{{X: 0, Y: 0, Z: 1}, {X: 6378137 * math.Pi / 2, Y: 0, Z: 2}}
	for i, w := range want {
		h := merc.XYZ[i]
		if math.Abs(h.X-w.X) > 1 || math.Abs(h.Y-w.Y) > 1 || h.Z != w.Z {
			t.Errorf("point %d: have %+v, want %+v", i, h, w)
		}
	}

	unprojected := NewPoints([]Point3D{{X: 1, Y: 2, Z: 3}}, "")
	if q, err := unprojected.Transform(webMapProj); err != nil || q != unprojected {
		t.Errorf("points without a projection should be returned as is: %v", err)
	}
}
