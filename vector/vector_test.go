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

package vector

import (
	"errors"
	"io/ioutil"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/spatialmodel/gridder"
)

const wgs84 = "+proj=longlat +datum=WGS84"

func tempDir(t *testing.T) (string, func()) {
	t.Helper()
	dir, err := ioutil.TempDir("", "gridder-vector")
	if err != nil {
		t.Fatal(err)
	}
	return dir, func() { os.RemoveAll(dir) }
}

// writeShapefile writes shapes with one ELEV and one NAME attribute
// each to base.shp.
func writeShapefile(t *testing.T, base string, st shp.ShapeType, shapes []shp.Shape, elev []float64) {
	t.Helper()
	w, err := shp.Create(base+".shp", st)
	if err != nil {
		t.Fatal(err)
	}
	w.SetFields([]shp.Field{
		shp.FloatField("ELEV", 12, 2),
		shp.StringField("NAME", 8),
	})
	for i, s := range shapes {
		row := int(w.Write(s))
		w.WriteAttribute(row, 0, elev[i])
		w.WriteAttribute(row, 1, "s"+string('a'+rune(i)))
	}
	w.Close()
	// Some versions of the writer leave the dot out of the dbf name.
	if _, err := os.Stat(base + "dbf"); err == nil {
		if err := os.Rename(base+"dbf", base+".dbf"); err != nil {
			t.Fatal(err)
		}
	}
}

func collect(t *testing.T, src gridder.VectorSource) []gridder.Feature {
	t.Helper()
	var out []gridder.Feature
	if err := src.ForEach(func(f gridder.Feature) error {
		out = append(out, f)
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	return out
}

func TestShapefilePointZ(t *testing.T) {
	dir, cleanup := tempDir(t)
	defer cleanup()
	base := filepath.Join(dir, "points")
	writeShapefile(t, base, shp.POINTZ, []shp.Shape{
		&shp.PointZ{X: 0, Y: 0, Z: 1},
		&shp.PointZ{X: 10, Y: 0, Z: 2},
		&shp.PointZ{X: 0, Y: 10, Z: 3},
		&shp.PointZ{X: 10, Y: 10, Z: 4},
	}, []float64{10, 20, 30, 40})
	if err := ioutil.WriteFile(base+".prj", []byte(wgs84+"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	s, err := OpenShapefile(base + ".shp")
	if err != nil {
		t.Fatal(err)
	}
	if !s.HasZ() {
		t.Error("POINTZ shapefile should have z")
	}
	if want := []string{"ELEV", "NAME"}; !reflect.DeepEqual(s.Fields(), want) {
		t.Errorf("fields %q, want %q", s.Fields(), want)
	}
	if p, _ := s.SpatialReference(); p != wgs84 {
		t.Errorf("spatial reference %q", p)
	}

	features := collect(t, s)
	if len(features) != 4 {
		t.Fatalf("%d features", len(features))
	}
	if f := features[1]; f.Attributes["NAME"] != "sb" || f.Attributes["ELEV"] != "20.00" {
		t.Errorf("attributes %v", f.Attributes)
	}

	p, err := gridder.ExtractPoints(s, "", "")
	if err != nil {
		t.Fatal(err)
	}
	want := []gridder.Point3D{{X: 0, Y: 0, Z: 1}, {X: 10, Y: 0, Z: 2}, {X: 0, Y: 10, Z: 3}, {X: 10, Y: 10, Z: 4}}
	if !reflect.DeepEqual(p.XYZ, want) {
		t.Errorf("points %v, want %v", p.XYZ, want)
	}
	if p.SR == nil {
		t.Error("spatial reference was not parsed")
	}

	p, err = gridder.ExtractPoints(s, "elev", "")
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range p.XYZ {
		if v.Z != float64(10*(i+1)) {
			t.Errorf("point %d z = %g", i, v.Z)
		}
	}
}

func TestShapefilePolygon(t *testing.T) {
	dir, cleanup := tempDir(t)
	defer cleanup()
	base := filepath.Join(dir, "polygons")
	square := &shp.Polygon{
		Box:       shp.Box{MinX: 0, MinY: 0, MaxX: 1, MaxY: 1},
		NumParts:  1,
		NumPoints: 5,
		Parts:     []int32{0},
		Points:    []shp.Point{{X: 0, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 1}, {X: 1, Y: 0}, {X: 0, Y: 0}},
	}
	writeShapefile(t, base, shp.POLYGON, []shp.Shape{square}, []float64{7.5})

	s, err := OpenShapefile(base + ".shp")
	if err != nil {
		t.Fatal(err)
	}
	if s.HasZ() {
		t.Error("POLYGON shapefile should not have z")
	}
	if p, _ := s.SpatialReference(); p != "" {
		t.Errorf("spatial reference %q without a .prj file", p)
	}
	features := collect(t, s)
	if len(features) != 1 || len(features[0].Vertices) != 5 {
		t.Fatalf("features %v", features)
	}
	if z := features[0].Vertices[0].Z; !math.IsNaN(z) {
		t.Errorf("vertex z = %g, want NaN", z)
	}

	var dataErr *gridder.DataError
	if _, err := gridder.ExtractPoints(s, "", ""); !errors.As(err, &dataErr) {
		t.Errorf("extracting without z: got %v, want a data error", err)
	}
	p, err := gridder.ExtractPoints(s, "ELEV", "")
	if err != nil {
		t.Fatal(err)
	}
	if p.Len() != 5 {
		t.Errorf("%d points, want 5", p.Len())
	}
	for _, v := range p.XYZ {
		if v.Z != 7.5 {
			t.Errorf("z = %g, want 7.5", v.Z)
		}
	}
}

func TestOpenShapefileMissing(t *testing.T) {
	dir, cleanup := tempDir(t)
	defer cleanup()
	if _, err := OpenShapefile(filepath.Join(dir, "missing.shp")); err == nil {
		t.Error("opening a missing shapefile should fail")
	}
}

func TestVertices(t *testing.T) {
	tests := []struct {
		name  string
		shape shp.Shape
		want  []gridder.Point3D
	}{
		{
			name:  "point",
			shape: &shp.Point{X: 1, Y: 2},
			want:  []gridder.Point3D{{X: 1, Y: 2, Z: math.NaN()}},
		},
		{
			name:  "multipointz",
			shape: &shp.MultiPointZ{Points: []shp.Point{{X: 1, Y: 2}, {X: 3, Y: 4}}, ZArray: []float64{5, 6}},
			want:  []gridder.Point3D{{X: 1, Y: 2, Z: 5}, {X: 3, Y: 4, Z: 6}},
		},
		{
			name:  "polylinez",
			shape: &shp.PolyLineZ{Points: []shp.Point{{X: 0, Y: 0}, {X: 1, Y: 1}}, ZArray: []float64{2, 3}},
			want:  []gridder.Point3D{{X: 0, Y: 0, Z: 2}, {X: 1, Y: 1, Z: 3}},
		},
		{
			name:  "null",
			shape: &shp.Null{},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			have := vertices(test.shape)
			if len(have) != len(test.want) {
				t.Fatalf("%d vertices, want %d", len(have), len(test.want))
			}
			for i, v := range have {
				w := test.want[i]
				if v.X != w.X || v.Y != w.Y || (v.Z != w.Z && !(math.IsNaN(v.Z) && math.IsNaN(w.Z))) {
					t.Errorf("vertex %d = %v, want %v", i, v, w)
				}
			}
		})
	}
}

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	if err := ioutil.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestCSV(t *testing.T) {
	dir, cleanup := tempDir(t)
	defer cleanup()
	path := filepath.Join(dir, "samples.csv")
	writeFile(t, path, `Name, Lon, Lat, Elevation, Depth
a, 0, 0, 1, 2
b, 10, 0, 2, 4
c, 0, 10, , 6
d, 10, 10, 4, 8
`)
	writeFile(t, filepath.Join(dir, "samples.prj"), wgs84)

	c, err := OpenCSV(path)
	if err != nil {
		t.Fatal(err)
	}
	if !c.HasZ() {
		t.Error("csv with an elevation column should have z")
	}
	if want := []string{"Name", "Lon", "Lat", "Elevation", "Depth"}; !reflect.DeepEqual(c.Fields(), want) {
		t.Errorf("fields %q, want %q", c.Fields(), want)
	}
	if p, _ := c.SpatialReference(); p != wgs84 {
		t.Errorf("spatial reference %q", p)
	}

	p, err := gridder.ExtractPoints(c, "", "")
	if err != nil {
		t.Fatal(err)
	}
	want := []gridder.Point3D{{X: 0, Y: 0, Z: 1}, {X: 10, Y: 0, Z: 2}, {X: 10, Y: 10, Z: 4}}
	if !reflect.DeepEqual(p.XYZ, want) {
		t.Errorf("points %v, want %v", p.XYZ, want)
	}

	p, err = gridder.ExtractPoints(c, "", "depth / 2")
	if err != nil {
		t.Fatal(err)
	}
	if p.Len() != 4 || p.XYZ[2].Z != 3 {
		t.Errorf("points from expression %v", p.XYZ)
	}
}

func TestCSVErrors(t *testing.T) {
	dir, cleanup := tempDir(t)
	defer cleanup()

	noY := filepath.Join(dir, "noy.csv")
	writeFile(t, noY, "x,value\n1,2\n")
	if _, err := OpenCSV(noY); err == nil || !strings.Contains(err.Error(), "columns not found") {
		t.Errorf("missing y column: %v", err)
	}

	empty := filepath.Join(dir, "empty.csv")
	writeFile(t, empty, "")
	if _, err := OpenCSV(empty); err == nil {
		t.Error("empty file should fail")
	}

	bad := filepath.Join(dir, "bad.csv")
	writeFile(t, bad, "x,y,z\n1,2,3\n1,north,3\n")
	c, err := OpenCSV(bad)
	if err != nil {
		t.Fatal(err)
	}
	err = c.ForEach(func(gridder.Feature) error { return nil })
	if err == nil || !strings.Contains(err.Error(), "line 3") {
		t.Errorf("bad y value: got %v, want an error on line 3", err)
	}
}
