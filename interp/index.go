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

// sample is an indexed input point.
type sample struct {
	geom.Point
	z float64
	// id is the position of the point in the input, used to order
	// search results.
	id int
}

// neighbor is a sample and its squared distance from a cell center.
type neighbor struct {
	*sample
	d2 float64
}

// pointIndex is a spatial index of the input points.
type pointIndex struct {
	tree    *rtree.Rtree
	samples []*sample
	bounds  *geom.Bounds

	// spacing is a typical distance between neighboring samples, used
	// as the first search radius of nearest neighbor queries.
	spacing float64
}

func newPointIndex(p *gridder.Points) *pointIndex {
	idx := &pointIndex{
		tree:    rtree.NewTree(25, 50),
		samples: make([]*sample, len(p.XYZ)),
		bounds:  geom.NewBounds(),
	}
	for i, pt := range p.XYZ {
		s := &sample{Point: geom.Point{X: pt.X, Y: pt.Y}, z: pt.Z, id: i}
		idx.samples[i] = s
		idx.tree.Insert(s)
		idx.bounds.Extend(s.Bounds())
	}
	w := idx.bounds.Max.X - idx.bounds.Min.X
	h := idx.bounds.Max.Y - idx.bounds.Min.Y
	n := float64(len(p.XYZ))
	switch {
	case w > 0 && h > 0:
		idx.spacing = math.Sqrt(w * h / n)
	case w > 0 || h > 0:
		idx.spacing = math.Max(w, h) / n
	default:
		idx.spacing = 1
	}
	return idx
}

// box returns the samples inside the axis-aligned box centered on (x, y)
// with half-sizes hx and hy, ordered by input position.
func (idx *pointIndex) box(x, y, hx, hy float64) []*sample {
	found := idx.tree.SearchIntersect(&geom.Bounds{
		Min: geom.Point{X: x - hx, Y: y - hy},
		Max: geom.Point{X: x + hx, Y: y + hy},
	})
	out := make([]*sample, len(found))
	for i, f := range found {
		out[i] = f.(*sample)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

// reach returns a distance from (x, y) beyond which there are no samples.
func (idx *pointIndex) reach(x, y float64) float64 {
	dx := math.Max(math.Abs(x-idx.bounds.Min.X), math.Abs(x-idx.bounds.Max.X))
	dy := math.Max(math.Abs(y-idx.bounds.Min.Y), math.Abs(y-idx.bounds.Max.Y))
	return math.Hypot(dx, dy)
}

// nearest returns the sample closest to (x, y) no farther than maxDist,
// where maxDist <= 0 means no limit. Ties go to the earlier sample.
func (idx *pointIndex) nearest(x, y, maxDist float64) (neighbor, bool) {
	limit := idx.reach(x, y)
	if maxDist > 0 && maxDist < limit {
		limit = maxDist
	}
	r := math.Min(idx.spacing, limit)
	if r <= 0 {
		r = limit
	}
	for {
		best, ok := closest(idx.box(x, y, r, r), x, y)
		if ok {
			// Nothing closer than best can lie outside the box whose
			// half-size is best's distance.
			if d := math.Sqrt(best.d2); d > r {
				d = math.Nextafter(d, math.Inf(1))
				if b, found := closest(idx.box(x, y, d, d), x, y); found {
					best = b
				}
			}
			if maxDist > 0 && best.d2 > maxDist*maxDist {
				return neighbor{}, false
			}
			return best, true
		}
		if r >= limit {
			return neighbor{}, false
		}
		r = math.Min(2*r, limit)
	}
}

// kNearest returns the k samples closest to (x, y), nearest first.
func (idx *pointIndex) kNearest(x, y float64, k int) []neighbor {
	if k >= len(idx.samples) {
		return sortByDistance(idx.samples, x, y)
	}
	limit := idx.reach(x, y)
	r := math.Min(idx.spacing*math.Sqrt(float64(k)), limit)
	for {
		var within []neighbor
		for _, n := range sortByDistance(idx.box(x, y, r, r), x, y) {
			if n.d2 <= r*r {
				within = append(within, n)
			}
		}
		if len(within) >= k || r >= limit {
			if len(within) > k {
				within = within[:k]
			}
			return within
		}
		r = math.Min(2*r, limit)
	}
}

// closest returns the sample in s nearest to (x, y).
func closest(s []*sample, x, y float64) (neighbor, bool) {
	best := neighbor{d2: math.Inf(1)}
	for _, p := range s {
		if d2 := dist2(p, x, y); d2 < best.d2 {
			best = neighbor{sample: p, d2: d2}
		}
	}
	return best, best.sample != nil
}

// sortByDistance returns s with distances from (x, y), nearest first.
func sortByDistance(s []*sample, x, y float64) []neighbor {
	out := make([]neighbor, len(s))
	for i, p := range s {
		out[i] = neighbor{sample: p, d2: dist2(p, x, y)}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].d2 == out[j].d2 {
			return out[i].id < out[j].id
		}
		return out[i].d2 < out[j].d2
	})
	return out
}

func dist2(p *sample, x, y float64) float64 {
	dx, dy := p.X-x, p.Y-y
	return dx*dx + dy*dy
}

// ellipse is a search area centered on a cell. The zero ellipse is
// unlimited.
type ellipse struct {
	r1, r2   float64
	cos, sin float64
	// hx and hy are the half-sizes of the bounding box.
	hx, hy float64
}

func newEllipse(r1, r2, angle float64) ellipse {
	if r1 == 0 || r2 == 0 {
		return ellipse{}
	}
	a := angle * math.Pi / 180
	e := ellipse{r1: r1, r2: r2, cos: math.Cos(a), sin: math.Sin(a)}
	e.hx = math.Hypot(r1*e.cos, r2*e.sin)
	e.hy = math.Hypot(r1*e.sin, r2*e.cos)
	return e
}

func (e ellipse) unlimited() bool { return e.r1 == 0 }

// contains reports whether the offset (dx, dy) from the center is inside e.
func (e ellipse) contains(dx, dy float64) bool {
	if e.unlimited() {
		return true
	}
	rx := dx*e.cos + dy*e.sin
	ry := -dx*e.sin + dy*e.cos
	return (rx*rx)/(e.r1*e.r1)+(ry*ry)/(e.r2*e.r2) <= 1
}

// search returns the samples inside e centered on (x, y), ordered by
// input position.
func (idx *pointIndex) search(e ellipse, x, y float64) []*sample {
	if e.unlimited() {
		return idx.samples
	}
	var out []*sample
	for _, s := range idx.box(x, y, e.hx, e.hy) {
		if e.contains(s.X-x, s.Y-y) {
			out = append(out, s)
		}
	}
	return out
}
