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
along with Gridder.  If not, see <http://www.gnu.org/licenses/>.*/

// Package hash creates deterministic keys for in-memory values.
package hash

import (
	"encoding/gob"
	"fmt"
	"hash"
	"hash/fnv"

	"github.com/davecgh/go-spew/spew"
)

// printer dumps values that gob cannot encode, such as those holding
// interfaces with unregistered types or unexported fields.
var printer = spew.ConfigState{
	Indent:                  " ",
	SortKeys:                true,
	DisableMethods:          true,
	SpewKeys:                true,
	DisablePointerAddresses: true,
	DisableCapacities:       true,
}

// Hash returns a hex key that is the same for equal values of objects.
func Hash(objects ...interface{}) string {
	h := fnv.New128a()
	for _, o := range objects {
		write(h, o)
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}

func write(h hash.Hash, o interface{}) {
	// Each object is encoded on its own so that a failure does not leave
	// a partial encoding behind.
	one := fnv.New128a()
	if err := gob.NewEncoder(one).Encode(o); err != nil {
		one.Reset()
		printer.Fprintf(one, "%#v", o)
	}
	h.Write(one.Sum(nil))
}
