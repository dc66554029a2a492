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

import "testing"

func TestParseAlgorithm(t *testing.T) {
	tests := []struct {
		in   string
		alg  Algorithm
		opts AlgorithmOptions
	}{
		{in: "invdist", alg: InverseDistance, opts: AlgorithmOptions{Power: 2}},
		{in: "invdist:power=3:smoothing=0.5:nodata=-9999", alg: InverseDistance,
			opts: AlgorithmOptions{Power: 3, Smoothing: 0.5, NoData: -9999}},
		{in: "InvDistNN:radius=5", alg: InverseDistanceNearest,
			opts: AlgorithmOptions{Power: 2, Radius: 5, MaxPoints: 12}},
		{in: "average:radius1=2:radius2=3:angle=30:min_points=2", alg: MovingAverage,
			opts: AlgorithmOptions{Radius1: 2, Radius2: 3, Angle: 30, MinPoints: 2}},
		{in: "nearest", alg: Nearest},
		{in: "linear", alg: Linear, opts: AlgorithmOptions{Radius: -1}},
		{in: "average_distance_pts:radius1=1:radius2=1", alg: AverageDistancePoints,
			opts: AlgorithmOptions{Radius1: 1, Radius2: 1}},
	}
	for _, test := range tests {
		t.Run(test.in, func(t *testing.T) {
			alg, opts, err := ParseAlgorithm(test.in)
			if err != nil {
				t.Fatal(err)
			}
			if alg != test.alg {
				t.Errorf("algorithm: got %v, want %v", alg, test.alg)
			}
			if opts != test.opts {
				t.Errorf("options: got %+v, want %+v", opts, test.opts)
			}
		})
	}
}

func TestParseAlgorithmErrors(t *testing.T) {
	for _, in := range []string{
		"kriging",
		"invdist:power",
		"invdist:power=abc",
		"nearest:power=2",
		"average:radius1=-1",
		"linear:radius=-2",
	} {
		if _, _, err := ParseAlgorithm(in); err == nil {
			t.Errorf("%q should fail", in)
		}
	}
}

func TestAlgorithmNames(t *testing.T) {
	for a := InverseDistance; a <= AverageDistancePoints; a++ {
		got, _, err := ParseAlgorithm(a.String())
		if err != nil {
			t.Fatal(err)
		}
		if got != a {
			t.Errorf("%v parsed as %v", a, got)
		}
	}
	if Algorithm(0).Valid() {
		t.Error("zero algorithm should be invalid")
	}
	if !Count.Metric() || Linear.Metric() {
		t.Error("metric classification")
	}
}
