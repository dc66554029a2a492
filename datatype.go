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
	"strings"
)

// DataType is the cell type of an output raster.
type DataType int

// Supported cell types.
const (
	Byte DataType = iota + 1
	Int16
	Int32
	Float32
	Float64
)

var dataTypeNames = map[DataType]string{
	Byte:    "Byte",
	Int16:   "Int16",
	Int32:   "Int32",
	Float32: "Float32",
	Float64: "Float64",
}

func (d DataType) String() string {
	if s, ok := dataTypeNames[d]; ok {
		return s
	}
	return fmt.Sprintf("DataType(%d)", int(d))
}

// Size returns the number of bytes in one cell of type d, or 0 if d is
// not a supported type.
func (d DataType) Size() int {
	switch d {
	case Byte:
		return 1
	case Int16:
		return 2
	case Int32, Float32:
		return 4
	case Float64:
		return 8
	}
	return 0
}

// Integer reports whether d stores integers.
func (d DataType) Integer() bool {
	return d == Byte || d == Int16 || d == Int32
}

// Clamp rounds and clamps v to the range representable by d. NaN is
// returned unchanged.
func (d DataType) Clamp(v float64) float64 {
	if math.IsNaN(v) || !d.Integer() {
		if d == Float32 && !math.IsNaN(v) {
			return float64(float32(v))
		}
		return v
	}
	var lo, hi float64
	switch d {
	case Byte:
		lo, hi = 0, math.MaxUint8
	case Int16:
		lo, hi = math.MinInt16, math.MaxInt16
	case Int32:
		lo, hi = math.MinInt32, math.MaxInt32
	}
	v = math.Floor(v + 0.5)
	return math.Max(lo, math.Min(hi, v))
}

// ParseDataType parses a case-insensitive data type name such as
// "float32".
func ParseDataType(s string) (DataType, error) {
	for d, name := range dataTypeNames {
		if strings.EqualFold(s, name) {
			return d, nil
		}
	}
	return 0, &ConfigError{Msg: fmt.Sprintf("unsupported data type %q", s)}
}
