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
	"sort"
	"strconv"
	"strings"
)

// Algorithm identifies a point interpolation method.
type Algorithm int

// The supported interpolation methods.
const (
	// InverseDistance is inverse distance to a power.
	InverseDistance Algorithm = iota + 1
	// InverseDistanceNearest is inverse distance to a power restricted
	// to the nearest points within a radius.
	InverseDistanceNearest
	// MovingAverage averages the points inside the search ellipse.
	MovingAverage
	// Nearest takes the value of the closest point.
	Nearest
	// Linear interpolates linearly inside a Delaunay triangulation.
	Linear

	// Minimum is the smallest value in the search ellipse.
	Minimum
	// Maximum is the largest value in the search ellipse.
	Maximum
	// Range is the difference between Maximum and Minimum.
	Range
	// Count is the number of points in the search ellipse.
	Count
	// AverageDistance is the mean distance from the cell center to the
	// points in the search ellipse.
	AverageDistance
	// AverageDistancePoints is the mean distance between the points in
	// the search ellipse.
	AverageDistancePoints
)

var algorithmNames = map[Algorithm]string{
	InverseDistance:        "invdist",
	InverseDistanceNearest: "invdistnn",
	MovingAverage:          "average",
	Nearest:                "nearest",
	Linear:                 "linear",
	Minimum:                "minimum",
	Maximum:                "maximum",
	Range:                  "range",
	Count:                  "count",
	AverageDistance:        "average_distance",
	AverageDistancePoints:  "average_distance_pts",
}

// algorithmKeys lists the option keys each algorithm accepts.
var algorithmKeys = map[Algorithm][]string{
	InverseDistance:        {"power", "smoothing", "radius1", "radius2", "angle", "max_points", "min_points", "nodata"},
	InverseDistanceNearest: {"power", "smoothing", "radius", "max_points", "min_points", "nodata"},
	MovingAverage:          {"radius1", "radius2", "angle", "min_points", "nodata"},
	Nearest:                {"radius1", "radius2", "angle", "nodata"},
	Linear:                 {"radius", "nodata"},
	Minimum:                {"radius1", "radius2", "angle", "min_points", "nodata"},
	Maximum:                {"radius1", "radius2", "angle", "min_points", "nodata"},
	Range:                  {"radius1", "radius2", "angle", "min_points", "nodata"},
	Count:                  {"radius1", "radius2", "angle", "min_points", "nodata"},
	AverageDistance:        {"radius1", "radius2", "angle", "min_points", "nodata"},
	AverageDistancePoints:  {"radius1", "radius2", "angle", "min_points", "nodata"},
}

func (a Algorithm) String() string {
	if s, ok := algorithmNames[a]; ok {
		return s
	}
	return fmt.Sprintf("Algorithm(%d)", int(a))
}

// Valid reports whether a is one of the supported algorithms.
func (a Algorithm) Valid() bool {
	_, ok := algorithmNames[a]
	return ok
}

// Metric reports whether a computes a statistic of the points in the
// search ellipse rather than interpolating their values.
func (a Algorithm) Metric() bool {
	return a >= Minimum && a <= AverageDistancePoints
}

// Algorithms returns the names of all supported algorithms, sorted.
func Algorithms() []string {
	var names []string
	for _, n := range algorithmNames {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// AlgorithmOptions holds the parameters of an Algorithm. Fields that an
// algorithm does not use are ignored.
type AlgorithmOptions struct {
	// Power is the weighting power of the inverse distance methods.
	Power float64
	// Smoothing is added to distances in the inverse distance methods.
	Smoothing float64

	// Radius1 and Radius2 are the semi-axes of the search ellipse along
	// x and y before rotation by Angle degrees counter-clockwise. If
	// either is zero the search is unlimited.
	Radius1, Radius2, Angle float64

	// Radius is the circular search radius of InverseDistanceNearest and
	// the nearest-point fallback distance of Linear, where -1 means
	// unlimited and 0 disables the fallback.
	Radius float64

	// MaxPoints is the largest number of nearest points to use, or 0 for
	// all of them.
	MaxPoints int
	// MinPoints is the smallest number of points needed to produce a
	// value. Cells with fewer points get NoData.
	MinPoints int

	// NoData fills cells without a value.
	NoData float64
}

// DefaultAlgorithmOptions returns the default parameters for a.
func DefaultAlgorithmOptions(a Algorithm) AlgorithmOptions {
	switch a {
	case InverseDistance:
		return AlgorithmOptions{Power: 2}
	case InverseDistanceNearest:
		return AlgorithmOptions{Power: 2, Radius: 1, MaxPoints: 12}
	case Linear:
		return AlgorithmOptions{Radius: -1}
	}
	return AlgorithmOptions{}
}

// Validate checks o against the requirements of a.
func (o AlgorithmOptions) Validate(a Algorithm) error {
	if !a.Valid() {
		return &ConfigError{Msg: fmt.Sprintf("unsupported algorithm %v", a)}
	}
	if o.Radius1 < 0 || o.Radius2 < 0 {
		return &ConfigError{Msg: fmt.Sprintf("%v: search radii must not be negative", a)}
	}
	if o.MaxPoints < 0 || o.MinPoints < 0 {
		return &ConfigError{Msg: fmt.Sprintf("%v: point counts must not be negative", a)}
	}
	switch a {
	case InverseDistance, InverseDistanceNearest:
		if o.Power < 0 {
			return &ConfigError{Msg: fmt.Sprintf("%v: power must not be negative", a)}
		}
		if a == InverseDistanceNearest && o.Radius < 0 {
			return &ConfigError{Msg: fmt.Sprintf("%v: radius must not be negative", a)}
		}
	case Linear:
		if o.Radius < 0 && o.Radius != -1 {
			return &ConfigError{Msg: fmt.Sprintf("%v: radius must be -1 or not negative", a)}
		}
	}
	return nil
}

// set assigns the option named key.
func (o *AlgorithmOptions) set(key, value string) error {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("invalid value %q for %s: %v", value, key, err)
	}
	switch key {
	case "power":
		o.Power = v
	case "smoothing":
		o.Smoothing = v
	case "radius1":
		o.Radius1 = v
	case "radius2":
		o.Radius2 = v
	case "angle":
		o.Angle = v
	case "radius":
		o.Radius = v
	case "max_points":
		o.MaxPoints = int(v)
	case "min_points":
		o.MinPoints = int(v)
	case "nodata":
		o.NoData = v
	default:
		return fmt.Errorf("unknown option %q", key)
	}
	return nil
}

// ParseAlgorithm parses an algorithm description of the form
// "name[:key=value[:key=value...]]", for example
// "invdist:power=3:smoothing=0.5". Options that are not given take their
// default values.
func ParseAlgorithm(s string) (Algorithm, AlgorithmOptions, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	name := strings.ToLower(strings.TrimSpace(parts[0]))
	var a Algorithm
	for alg, n := range algorithmNames {
		if n == name {
			a = alg
			break
		}
	}
	if a == 0 {
		return 0, AlgorithmOptions{}, &ConfigError{Msg: fmt.Sprintf("unsupported algorithm %q; choose one of %s",
			name, strings.Join(Algorithms(), ", "))}
	}
	o := DefaultAlgorithmOptions(a)
	allowed := make(map[string]bool)
	for _, k := range algorithmKeys[a] {
		allowed[k] = true
	}
	for _, p := range parts[1:] {
		if strings.TrimSpace(p) == "" {
			continue
		}
		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			return 0, AlgorithmOptions{}, &ConfigError{Msg: fmt.Sprintf("%s: malformed option %q", name, p)}
		}
		key := strings.ToLower(strings.TrimSpace(kv[0]))
		if !allowed[key] {
			return 0, AlgorithmOptions{}, &ConfigError{Msg: fmt.Sprintf("%s does not accept option %q", name, key)}
		}
		if err := o.set(key, strings.TrimSpace(kv[1])); err != nil {
			return 0, AlgorithmOptions{}, &ConfigError{Msg: fmt.Sprintf("%s: %v", name, err)}
		}
	}
	if err := o.Validate(a); err != nil {
		return 0, AlgorithmOptions{}, err
	}
	return a, o, nil
}
