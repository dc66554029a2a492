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

	"github.com/spatialmodel/gridder"
	"gonum.org/v1/gonum/floats"
)

// cellFunc computes the value of the cell centered on (x, y).
type cellFunc func(x, y float64) float64

// coincident is the squared distance below which a sample is treated as
// lying on the cell center.
const coincident = 1e-13

// inverseDistance weights the values of the given samples by
// 1/(d²+smoothing²)^(power/2).
func inverseDistance(o gridder.AlgorithmOptions, ns []neighbor) float64 {
	if len(ns) == 0 || len(ns) < o.MinPoints {
		return o.NoData
	}
	s2 := o.Smoothing * o.Smoothing
	var num, den float64
	for _, n := range ns {
		if n.d2 < coincident && s2 == 0 {
			return n.z
		}
		w := 1 / math.Pow(n.d2+s2, o.Power/2)
		num += w * n.z
		den += w
	}
	return num / den
}

func invDist(idx *pointIndex, o gridder.AlgorithmOptions) cellFunc {
	e := newEllipse(o.Radius1, o.Radius2, o.Angle)
	return func(x, y float64) float64 {
		var ns []neighbor
		switch {
		case e.unlimited() && o.MaxPoints > 0:
			ns = idx.kNearest(x, y, o.MaxPoints)
		case o.MaxPoints > 0:
			ns = sortByDistance(idx.search(e, x, y), x, y)
			if len(ns) > o.MaxPoints {
				ns = ns[:o.MaxPoints]
			}
		default:
			s := idx.search(e, x, y)
			ns = make([]neighbor, len(s))
			for i, p := range s {
				ns[i] = neighbor{sample: p, d2: dist2(p, x, y)}
			}
		}
		return inverseDistance(o, ns)
	}
}

func invDistNearest(idx *pointIndex, o gridder.AlgorithmOptions) cellFunc {
	return func(x, y float64) float64 {
		var ns []neighbor
		if o.Radius == 0 {
			k := o.MaxPoints
			if k == 0 {
				k = len(idx.samples)
			}
			ns = idx.kNearest(x, y, k)
		} else {
			for _, n := range sortByDistance(idx.box(x, y, o.Radius, o.Radius), x, y) {
				if n.d2 > o.Radius*o.Radius || (o.MaxPoints > 0 && len(ns) == o.MaxPoints) {
					break
				}
				ns = append(ns, n)
			}
		}
		return inverseDistance(o, ns)
	}
}

func movingAverage(idx *pointIndex, o gridder.AlgorithmOptions) cellFunc {
	e := newEllipse(o.Radius1, o.Radius2, o.Angle)
	return func(x, y float64) float64 {
		s := idx.search(e, x, y)
		if len(s) == 0 || len(s) < o.MinPoints {
			return o.NoData
		}
		var sum float64
		for _, p := range s {
			sum += p.z
		}
		return sum / float64(len(s))
	}
}

func nearest(idx *pointIndex, o gridder.AlgorithmOptions) cellFunc {
	e := newEllipse(o.Radius1, o.Radius2, o.Angle)
	return func(x, y float64) float64 {
		if e.unlimited() {
			n, _ := idx.nearest(x, y, 0)
			return n.z
		}
		n, ok := closest(idx.search(e, x, y), x, y)
		if !ok {
			return o.NoData
		}
		return n.z
	}
}

// metric computes a statistic of the samples in the search ellipse.
func metric(idx *pointIndex, alg gridder.Algorithm, o gridder.AlgorithmOptions) cellFunc {
	e := newEllipse(o.Radius1, o.Radius2, o.Angle)
	return func(x, y float64) float64 {
		s := idx.search(e, x, y)
		if len(s) < o.MinPoints {
			return o.NoData
		}
		if alg == gridder.Count {
			return float64(len(s))
		}
		if len(s) == 0 {
			return o.NoData
		}
		switch alg {
		case gridder.Minimum, gridder.Maximum, gridder.Range:
			z := make([]float64, len(s))
			for i, p := range s {
				z[i] = p.z
			}
			switch alg {
			case gridder.Minimum:
				return floats.Min(z)
			case gridder.Maximum:
				return floats.Max(z)
			}
			return floats.Max(z) - floats.Min(z)
		case gridder.AverageDistance:
			d := make([]float64, len(s))
			for i, p := range s {
				d[i] = math.Sqrt(dist2(p, x, y))
			}
			return floats.Sum(d) / float64(len(d))
		case gridder.AverageDistancePoints:
			if len(s) < 2 {
				return o.NoData
			}
			d := make([]float64, 0, len(s)*(len(s)-1)/2)
			for i, p := range s {
				for _, q := range s[i+1:] {
					d = append(d, math.Sqrt(dist2(p, q.X, q.Y)))
				}
			}
			return floats.Sum(d) / float64(len(d))
		}
		return o.NoData
	}
}
