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

package interp

import (
	"math"
	"sort"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/index/rtree"
	"github.com/spatialmodel/gridder"
)

// triangle is a Delaunay triangle over sample positions.
type triangle struct {
	a, b, c *sample

	// circumcircle
	cx, cy, r2 float64

	bounds *geom.Bounds

	// order is the position of the triangle in the triangulation.
	order int
}

func newTriangle(a, b, c *sample) *triangle {
	t := &triangle{a: a, b: b, c: c}
	d := 2 * (a.X*(b.Y-c.Y) + b.X*(c.Y-a.Y) + c.X*(a.Y-b.Y))
	if d == 0 {
		t.r2 = math.Inf(1)
	} else {
		a2 := a.X*a.X + a.Y*a.Y
		b2 := b.X*b.X + b.Y*b.Y
		c2 := c.X*c.X + c.Y*c.Y
		t.cx = (a2*(b.Y-c.Y) + b2*(c.Y-a.Y) + c2*(a.Y-b.Y)) / d
		t.cy = (a2*(c.X-b.X) + b2*(a.X-c.X) + c2*(b.X-a.X)) / d
		t.r2 = (t.cx-a.X)*(t.cx-a.X) + (t.cy-a.Y)*(t.cy-a.Y)
	}
	t.bounds = a.Bounds()
	t.bounds.Extend(b.Bounds())
	t.bounds.Extend(c.Bounds())
	return t
}

// Bounds implements rtree.Spatial.
func (t *triangle) Bounds() *geom.Bounds { return t.bounds }

func (t *triangle) inCircumcircle(p *sample) bool {
	if math.IsInf(t.r2, 1) {
		// Degenerate triangles are always replaced.
		return true
	}
	dx, dy := p.X-t.cx, p.Y-t.cy
	return dx*dx+dy*dy < t.r2
}

// barycentric returns the value at (x, y) interpolated from the corners
// of t, and whether (x, y) is inside t.
func (t *triangle) barycentric(x, y float64) (float64, bool) {
	det := (t.b.Y-t.c.Y)*(t.a.X-t.c.X) + (t.c.X-t.b.X)*(t.a.Y-t.c.Y)
	if det == 0 {
		return 0, false
	}
	l1 := ((t.b.Y-t.c.Y)*(x-t.c.X) + (t.c.X-t.b.X)*(y-t.c.Y)) / det
	l2 := ((t.c.Y-t.a.Y)*(x-t.c.X) + (t.a.X-t.c.X)*(y-t.c.Y)) / det
	l3 := 1 - l1 - l2
	const eps = -1e-12
	if l1 < eps || l2 < eps || l3 < eps {
		return 0, false
	}
	return l1*t.a.z + l2*t.b.z + l3*t.c.z, true
}

type edge struct{ a, b int }

func newEdge(a, b *sample) edge {
	if a.id > b.id {
		a, b = b, a
	}
	return edge{a.id, b.id}
}

// tin is a triangulated irregular network of the input points.
type tin struct {
	triangles []*triangle
	tree      *rtree.Rtree
	index     *pointIndex
}

// newTIN builds the Delaunay triangulation of the points with the
// Bowyer-Watson algorithm. Points sharing a position with an earlier
// point are left out.
func newTIN(idx *pointIndex) *tin {
	unique := make([]*sample, 0, len(idx.samples))
	seen := make(map[geom.Point]bool)
	for _, s := range idx.samples {
		if !seen[s.Point] {
			seen[s.Point] = true
			unique = append(unique, s)
		}
	}
	t := &tin{tree: rtree.NewTree(25, 50), index: idx}
	if len(unique) < 3 {
		return t
	}

	b := idx.bounds
	d := math.Max(b.Max.X-b.Min.X, b.Max.Y-b.Min.Y)
	if d == 0 {
		return t
	}
	mx, my := (b.Min.X+b.Max.X)/2, (b.Min.Y+b.Max.Y)/2
	super := []*sample{
		{Point: geom.Point{X: mx - 20*d, Y: my - d}, id: -1},
		{Point: geom.Point{X: mx, Y: my + 20*d}, id: -2},
		{Point: geom.Point{X: mx + 20*d, Y: my - d}, id: -3},
	}
	tris := []*triangle{newTriangle(super[0], super[1], super[2])}

	for _, p := range unique {
		var keep, bad []*triangle
		for _, tr := range tris {
			if tr.inCircumcircle(p) {
				bad = append(bad, tr)
			} else {
				keep = append(keep, tr)
			}
		}
		// The boundary of the cavity is made of the edges that belong to
		// exactly one bad triangle.
		count := make(map[edge]int)
		var edges [][2]*sample
		for _, tr := range bad {
			for _, e := range [][2]*sample{{tr.a, tr.b}, {tr.b, tr.c}, {tr.c, tr.a}} {
				k := newEdge(e[0], e[1])
				if count[k] == 0 {
					edges = append(edges, e)
				}
				count[k]++
			}
		}
		for _, e := range edges {
			if count[newEdge(e[0], e[1])] == 1 {
				keep = append(keep, newTriangle(e[0], e[1], p))
			}
		}
		tris = keep
	}

	for _, tr := range tris {
		if tr.a.id < 0 || tr.b.id < 0 || tr.c.id < 0 || math.IsInf(tr.r2, 1) {
			continue
		}
		tr.order = len(t.triangles)
		t.triangles = append(t.triangles, tr)
		t.tree.Insert(tr)
	}
	return t
}

// locate returns the triangles whose bounds contain (x, y), in
// triangulation order.
func (t *tin) locate(x, y float64) []*triangle {
	found := t.tree.SearchIntersect(geom.NewBoundsPoint(geom.Point{X: x, Y: y}))
	out := make([]*triangle, len(found))
	for i, f := range found {
		out[i] = f.(*triangle)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].order < out[j].order })
	return out
}

func linear(t *tin, o gridder.AlgorithmOptions) cellFunc {
	return func(x, y float64) float64 {
		for _, tr := range t.locate(x, y) {
			if v, ok := tr.barycentric(x, y); ok {
				return v
			}
		}
		switch {
		case o.Radius == 0:
			return o.NoData
		case o.Radius < 0:
			n, _ := t.index.nearest(x, y, 0)
			return n.z
		}
		n, ok := t.index.nearest(x, y, o.Radius)
		if !ok {
			return o.NoData
		}
		return n.z
	}
}
