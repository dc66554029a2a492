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

// ProgressFunc receives the completed fraction of an operation, in
// [0, 1], and a message. Returning false requests cancellation.
type ProgressFunc func(fraction float64, message string) bool

// ProgressWindow is the part of the overall progress owned by one block.
type ProgressWindow struct {
	Start, End float64
}

// Window returns the progress window of block index out of total.
func Window(index, total int) ProgressWindow {
	if total <= 0 {
		return ProgressWindow{Start: 0, End: 1}
	}
	return ProgressWindow{
		Start: float64(index) / float64(total),
		End:   float64(index+1) / float64(total),
	}
}

// ScaledProgress returns a ProgressFunc that reports the progress of block
// index out of total to global, mapping the block's [0, 1] onto its
// window of the overall sweep. If global is nil the returned function
// always asks to continue.
func ScaledProgress(global ProgressFunc, index, total int) ProgressFunc {
	if global == nil {
		return func(float64, string) bool { return true }
	}
	if total <= 0 {
		index, total = 0, 1
	}
	return func(fraction float64, message string) bool {
		if fraction < 0 {
			fraction = 0
		} else if fraction > 1 {
			fraction = 1
		}
		// Start + fraction*(End-Start), exact at both window edges.
		return global((float64(index)+fraction)/float64(total), message)
	}
}
