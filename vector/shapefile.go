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

// Package vector reads the point sources that rasters are gridded from.
package vector

import (
	"fmt"
	"io/ioutil"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/spatialmodel/gridder"
)

// Shapefile is a gridder.VectorSource backed by an ESRI shapefile. Every
// vertex of every shape is a point. Z values come from the Z shape
// types, and the spatial reference from the .prj file next to the
// shapefile.
type Shapefile struct {
	path       string
	fields     []string
	hasZ       bool
	projection string
}

// OpenShapefile reads the header of the shapefile at path.
func OpenShapefile(path string) (*Shapefile, error) {
	base := strings.TrimSuffix(path, filepath.Ext(path))
	s := &Shapefile{path: base + ".shp"}
	r, err := shp.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("vector: opening shapefile: %v", err)
	}
	defer r.Close()

	switch r.GeometryType {
	case shp.POINTZ, shp.POLYLINEZ, shp.POLYGONZ, shp.MULTIPOINTZ, shp.MULTIPATCH:
		s.hasZ = true
	}
	for _, f := range r.Fields() {
		s.fields = append(s.fields, fieldName(f))
	}

	b, err := ioutil.ReadFile(base + ".prj")
	switch {
	case err == nil:
		s.projection = strings.TrimSpace(string(b))
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("vector: reading shapefile projection: %v", err)
	}
	return s, nil
}

func fieldName(f shp.Field) string {
	return strings.TrimRight(string(f.Name[:]), "\x00")
}

// Fields implements gridder.VectorSource.
func (s *Shapefile) Fields() []string { return s.fields }

// HasZ implements gridder.VectorSource.
func (s *Shapefile) HasZ() bool { return s.hasZ }

// SpatialReference implements gridder.VectorSource.
func (s *Shapefile) SpatialReference() (string, error) { return s.projection, nil }

// ForEach implements gridder.VectorSource.
func (s *Shapefile) ForEach(fn func(gridder.Feature) error) error {
	r, err := shp.Open(s.path)
	if err != nil {
		return fmt.Errorf("vector: opening shapefile: %v", err)
	}
	defer r.Close()
	for r.Next() {
		row, shape := r.Shape()
		f := gridder.Feature{
			Vertices:   vertices(shape),
			Attributes: make(map[string]string, len(s.fields)),
		}
		for i, name := range s.fields {
			f.Attributes[name] = strings.TrimSpace(r.ReadAttribute(row, i))
		}
		if err := fn(f); err != nil {
			return err
		}
	}
	return nil
}

func flat(points []shp.Point) []gridder.Point3D {
	out := make([]gridder.Point3D, len(points))
	for i, p := range points {
		out[i] = gridder.Point3D{X: p.X, Y: p.Y, Z: math.NaN()}
	}
	return out
}

func withZ(points []shp.Point, z []float64) []gridder.Point3D {
	out := flat(points)
	for i := range out {
		if i < len(z) {
			out[i].Z = z[i]
		}
	}
	return out
}

// vertices returns the vertices of s.
func vertices(s shp.Shape) []gridder.Point3D {
	switch g := s.(type) {
	case *shp.Point:
		return flat([]shp.Point{*g})
	case *shp.PointZ:
		return []gridder.Point3D{{X: g.X, Y: g.Y, Z: g.Z}}
	case *shp.PointM:
		return flat([]shp.Point{{X: g.X, Y: g.Y}})
	case *shp.PolyLine:
		return flat(g.Points)
	case *shp.Polygon:
		return flat(g.Points)
	case *shp.MultiPoint:
		return flat(g.Points)
	case *shp.PolyLineZ:
		return withZ(g.Points, g.ZArray)
	case *shp.PolygonZ:
		return withZ(g.Points, g.ZArray)
	case *shp.MultiPointZ:
		return withZ(g.Points, g.ZArray)
	case *shp.MultiPatch:
		return withZ(g.Points, g.ZArray)
	case *shp.PolyLineM:
		return flat(g.Points)
	case *shp.PolygonM:
		return flat(g.Points)
	case *shp.MultiPointM:
		return flat(g.Points)
	}
	return nil
}
