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
	"errors"
	"fmt"
)

// ErrCanceled is returned when a progress callback asks to stop or the
// context of a run is done. It is not a failure of the run itself; use
// errors.Is to tell it apart.
var ErrCanceled = errors.New("gridder: canceled")

// ConfigError is an invalid or unsupported configuration, detected
// before any block is gridded.
type ConfigError struct {
	Msg string
}

func (e *ConfigError) Error() string { return "gridder: configuration: " + e.Msg }

// DataError is a problem with the input points, such as a missing
// attribute field or the absence of z values.
type DataError struct {
	Msg string
	Err error
}

func (e *DataError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("gridder: input data: %s: %v", e.Msg, e.Err)
	}
	return "gridder: input data: " + e.Msg
}

func (e *DataError) Unwrap() error { return e.Err }

// BlockError is a failure while gridding or writing one block.
type BlockError struct {
	// Index and Total locate the block in the block plan.
	Index, Total int
	Block        Block
	// Op is the stage that failed: "interpolate", "write" or
	// "progress" when the run was stopped after the block was written.
	Op  string
	Err error
}

func (e *BlockError) Error() string {
	return fmt.Sprintf("gridder: block %d of %d at %v: %s: %v", e.Index+1, e.Total, e.Block, e.Op, e.Err)
}

func (e *BlockError) Unwrap() error { return e.Err }

// StateError records the state a run was in when it failed.
type StateError struct {
	State State
	Err   error
}

func (e *StateError) Error() string { return fmt.Sprintf("%v (while %v)", e.Err, e.State) }

func (e *StateError) Unwrap() error { return e.Err }

// IsCanceled reports whether err is, or wraps, ErrCanceled.
func IsCanceled(err error) bool { return errors.Is(err, ErrCanceled) }
