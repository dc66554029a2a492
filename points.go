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
	"strconv"
	"strings"
	"sync"

	"github.com/Knetic/govaluate"
	"github.com/ctessum/geom"
	"github.com/ctessum/geom/proj"
	"github.com/spatialmodel/gridder/internal/hash"
)

// Point3D is a sample location with its value.
type Point3D struct {
	X, Y, Z float64
}

// Points is the set of samples a raster is interpolated from.
type Points struct {
	XYZ []Point3D

	// Projection is the spatial reference of the coordinates as WKT or
	// PROJ.4, or empty if unknown. SR is its parsed form, or nil if it
	// is unknown or could not be parsed.
	Projection string
	SR         *proj.SR

	once        sync.Once
	fingerprint string
}

// NewPoints returns a point set holding xyz in the given projection.
func NewPoints(xyz []Point3D, projection string) *Points {
	p := &Points{XYZ: xyz, Projection: projection}
	if projection != "" {
		if sr, err := proj.Parse(projection); err == nil {
			p.SR = sr
		}
	}
	return p
}

// Len returns the number of points.
func (p *Points) Len() int { return len(p.XYZ) }

// Bounds returns the bounding box of the points.
func (p *Points) Bounds() *geom.Bounds {
	b := geom.NewBounds()
	for _, pt := range p.XYZ {
		b.Extend(geom.NewBoundsPoint(geom.Point{X: pt.X, Y: pt.Y}))
	}
	return b
}

// Fingerprint returns a key that is identical for point sets with the
// same coordinates and values. It is computed once.
func (p *Points) Fingerprint() string {
	p.once.Do(func() {
		p.fingerprint = hash.Hash(p.XYZ)
	})
	return p.fingerprint
}

// ValidateHasZ returns an error unless at least one point has a finite z
// value.
func (p *Points) ValidateHasZ() error {
	if p == nil || len(p.XYZ) == 0 {
		return &DataError{Msg: "no input points"}
	}
	for _, pt := range p.XYZ {
		if !math.IsNaN(pt.Z) && !math.IsInf(pt.Z, 0) {
			return nil
		}
	}
	return &DataError{Msg: "none of the input points has a z value"}
}

// Transform returns a copy of p with the coordinates transformed to the
// projection dst. If p has no projection, or it is the same as dst, p is
// returned as is.
func (p *Points) Transform(dst string) (*Points, error) {
	if p.Projection == "" || p.Projection == dst {
		return p, nil
	}
	if p.SR == nil {
		return nil, &ConfigError{Msg: fmt.Sprintf("cannot parse input projection %q", p.Projection)}
	}
	dstSR, err := proj.Parse(dst)
	if err != nil {
		return nil, &ConfigError{Msg: fmt.Sprintf("parsing output projection: %v", err)}
	}
	if p.SR.Equal(dstSR, 0) {
		return p, nil
	}
	t, err := p.SR.NewTransform(dstSR)
	if err != nil {
		return nil, &ConfigError{Msg: fmt.Sprintf("creating coordinate transform: %v", err)}
	}
	out := make([]Point3D, len(p.XYZ))
	for i, pt := range p.XYZ {
		x, y, err := t(pt.X, pt.Y)
		if err != nil {
			return nil, &DataError{Msg: fmt.Sprintf("reprojecting point %d", i), Err: err}
		}
		out[i] = Point3D{X: x, Y: y, Z: pt.Z}
	}
	return NewPoints(out, dst), nil
}

// Feature is one record read from a VectorSource.
type Feature struct {
	// Vertices holds every vertex of the feature's geometry. Z is NaN
	// when the geometry has no z coordinate.
	Vertices []Point3D
	// Attributes holds the feature's attribute values as text.
	Attributes map[string]string
}

// VectorSource is a readable collection of point-bearing features.
type VectorSource interface {
	// Fields returns the names of the attribute fields.
	Fields() []string
	// HasZ reports whether the source's geometries carry z coordinates.
	HasZ() bool
	// SpatialReference returns the reference system of the source as
	// WKT or PROJ.4, or an empty string if it is unknown.
	SpatialReference() (string, error)
	// ForEach calls fn for each feature in the source, in order, and
	// stops at the first error.
	ForEach(fn func(Feature) error) error
}

// lookupField returns the name of the field of src matching name,
// ignoring case.
func lookupField(src VectorSource, name string) (string, bool) {
	for _, f := range src.Fields() {
		if strings.EqualFold(f, name) {
			return f, true
		}
	}
	return "", false
}

var expressionFunctions = map[string]govaluate.ExpressionFunction{
	"exp": func(arg ...interface{}) (interface{}, error) {
		if len(arg) != 1 {
			return nil, fmt.Errorf("gridder: got %d arguments for function 'exp', but needs 1", len(arg))
		}
		return math.Exp(arg[0].(float64)), nil
	},
	"log": func(arg ...interface{}) (interface{}, error) {
		if len(arg) != 1 {
			return nil, fmt.Errorf("gridder: got %d arguments for function 'log', but needs 1", len(arg))
		}
		return math.Log(arg[0].(float64)), nil
	},
	"sqrt": func(arg ...interface{}) (interface{}, error) {
		if len(arg) != 1 {
			return nil, fmt.Errorf("gridder: got %d arguments for function 'sqrt', but needs 1", len(arg))
		}
		return math.Sqrt(arg[0].(float64)), nil
	},
	"abs": func(arg ...interface{}) (interface{}, error) {
		if len(arg) != 1 {
			return nil, fmt.Errorf("gridder: got %d arguments for function 'abs', but needs 1", len(arg))
		}
		return math.Abs(arg[0].(float64)), nil
	},
}

// zExpression computes z from feature attributes.
type zExpression struct {
	expr *govaluate.EvaluableExpression
	// vars maps expression variables to source field names.
	vars map[string]string
}

func newZExpression(src VectorSource, s string) (*zExpression, error) {
	expr, err := govaluate.NewEvaluableExpressionWithFunctions(s, expressionFunctions)
	if err != nil {
		return nil, &ConfigError{Msg: fmt.Sprintf("parsing z expression %q: %v", s, err)}
	}
	z := &zExpression{expr: expr, vars: make(map[string]string)}
	for _, v := range expr.Vars() {
		f, ok := lookupField(src, v)
		if !ok {
			return nil, &DataError{Msg: fmt.Sprintf("z expression variable %q is not a field of the input (fields: %s)",
				v, strings.Join(src.Fields(), ", "))}
		}
		z.vars[v] = f
	}
	return z, nil
}

func (z *zExpression) eval(attrs map[string]string) (float64, error) {
	params := make(map[string]interface{}, len(z.vars))
	for v, f := range z.vars {
		val, err := parseAttribute(attrs[f])
		if err != nil {
			return math.NaN(), fmt.Errorf("field %s: %v", f, err)
		}
		params[v] = val
	}
	r, err := z.expr.Evaluate(params)
	if err != nil {
		return math.NaN(), err
	}
	switch v := r.(type) {
	case float64:
		return v, nil
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	}
	return math.NaN(), fmt.Errorf("expression result %v is not a number", r)
}

// parseAttribute converts an attribute value to a number. Empty values
// are missing.
func parseAttribute(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}

// ValidateSource checks that z values can be taken from src: field, if
// given, must be an attribute of src; the variables of expression, if
// given, must all be attributes of src; with neither, the geometries of
// src must carry z coordinates.
func ValidateSource(src VectorSource, field, expression string) error {
	switch {
	case field != "":
		if _, ok := lookupField(src, field); !ok {
			return &DataError{Msg: fmt.Sprintf("field %q does not exist in the input (fields: %s)",
				field, strings.Join(src.Fields(), ", "))}
		}
	case expression != "":
		if _, err := newZExpression(src, expression); err != nil {
			return err
		}
	default:
		if !src.HasZ() {
			return &DataError{Msg: "the input geometries have no z coordinates and no z field was specified"}
		}
	}
	return nil
}

// ExtractPoints validates src and reads its samples. Every vertex of every
// feature becomes a point. z comes from field if it is set, else from
// expression if it is set, else from the geometry. Samples whose z is
// missing or not finite are skipped.
func ExtractPoints(src VectorSource, field, expression string) (*Points, error) {
	if err := ValidateSource(src, field, expression); err != nil {
		return nil, err
	}
	projection, err := src.SpatialReference()
	if err != nil {
		return nil, &DataError{Msg: "reading spatial reference", Err: err}
	}

	var zexpr *zExpression
	if field != "" {
		field, _ = lookupField(src, field)
	} else if expression != "" {
		if zexpr, err = newZExpression(src, expression); err != nil {
			return nil, err
		}
	}

	var xyz []Point3D
	var record int
	err = src.ForEach(func(f Feature) error {
		defer func() { record++ }()
		z := math.NaN()
		if field != "" {
			v, err := parseAttribute(f.Attributes[field])
			if err != nil {
				return &DataError{Msg: fmt.Sprintf("record %d: field %s is not numeric", record, field), Err: err}
			}
			z = v
		} else if zexpr != nil {
			v, err := zexpr.eval(f.Attributes)
			if err != nil {
				return &DataError{Msg: fmt.Sprintf("record %d: evaluating z expression", record), Err: err}
			}
			z = v
		}
		for _, v := range f.Vertices {
			if field != "" || zexpr != nil {
				v.Z = z
			}
			if math.IsNaN(v.Z) || math.IsInf(v.Z, 0) {
				continue
			}
			xyz = append(xyz, v)
		}
		return nil
	})
	if err != nil {
		if _, ok := err.(*DataError); ok {
			return nil, err
		}
		return nil, &DataError{Msg: "reading input features", Err: err}
	}
	p := NewPoints(xyz, projection)
	if err := p.ValidateHasZ(); err != nil {
		return nil, err
	}
	return p, nil
}
