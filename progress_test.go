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

func TestScaledProgressNil(t *testing.T) {
	p := ScaledProgress(nil, 3, 10)
	if !p(0.5, "") {
		t.Error("nil global progress should continue")
	}
}

func TestScaledProgressMonotonic(t *testing.T) {
	const n = 5
	var got []float64
	global := func(f float64, _ string) bool {
		got = append(got, f)
		return true
	}
	for i := 0; i < n; i++ {
		local := ScaledProgress(global, i, n)
		for _, f := range []float64{0, 0.3, 0.3, 0.9, 1} {
			local(f, "")
		}
	}
	if got[0] != 0 {
		t.Errorf("first progress %g, want 0", got[0])
	}
	if got[len(got)-1] != 1 {
		t.Errorf("last progress %g, want 1", got[len(got)-1])
	}
	for i := 1; i < len(got); i++ {
		if got[i] < got[i-1] {
			t.Errorf("progress decreased from %g to %g", got[i-1], got[i])
		}
	}
}

func TestScaledProgressWindow(t *testing.T) {
	var got float64
	var msg string
	local := ScaledProgress(func(f float64, m string) bool {
		got, msg = f, m
		return false
	}, 1, 4)
	if local(0.5, "half") {
		t.Error("the global answer should be returned")
	}
	if different(got, 0.375) || msg != "half" {
		t.Errorf("got %g %q, want 0.375 \"half\"", got, msg)
	}
	local(2, "")
	if different(got, 0.5) {
		t.Errorf("fraction above 1 gave %g, want 0.5", got)
	}
	local(-1, "")
	if different(got, 0.25) {
		t.Errorf("fraction below 0 gave %g, want 0.25", got)
	}
	w := Window(3, 4)
	if w.Start != 0.75 || w.End != 1 {
		t.Errorf("window %+v", w)
	}
}
