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

package vector

import (
	"encoding/csv"
	"fmt"
	"io"
	"io/ioutil"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spatialmodel/gridder"
)

// Column names recognized as coordinates, in lower case.
var (
	xColumns = map[string]bool{"x": true, "lon": true, "lng": true, "longitude": true, "easting": true}
	yColumns = map[string]bool{"y": true, "lat": true, "latitude": true, "northing": true}
	zColumns = map[string]bool{"z": true, "elev": true, "elevation": true, "value": true}
)

// CSV is a gridder.VectorSource backed by a comma separated file with a
// header row. Each row is one point. The x and y columns are found by
// name, as is the optional z column. Every column is also an
// attribute. The spatial reference is read from a .prj file next to
// the CSV file, if there is one.
type CSV struct {
	path       string
	header     []string
	ix, iy, iz int
	projection string
}

// OpenCSV reads the header of the CSV file at path.
func OpenCSV(path string) (*CSV, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("vector: opening csv: %v", err)
	}
	defer f.Close()
	r := newCSVReader(f)
	header, err := r.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("vector: %s is empty", path)
	} else if err != nil {
		return nil, fmt.Errorf("vector: reading csv header: %v", err)
	}

	c := &CSV{path: path, ix: -1, iy: -1, iz: -1}
	for i, h := range header {
		h = strings.TrimSpace(h)
		c.header = append(c.header, h)
		lh := strings.ToLower(h)
		switch {
		case xColumns[lh] && c.ix == -1:
			c.ix = i
		case yColumns[lh] && c.iy == -1:
			c.iy = i
		case zColumns[lh] && c.iz == -1:
			c.iz = i
		}
	}
	if c.ix == -1 || c.iy == -1 {
		return nil, fmt.Errorf("vector: x and y columns not found in %s (columns: %s)",
			path, strings.Join(c.header, ", "))
	}

	b, err := ioutil.ReadFile(strings.TrimSuffix(path, filepath.Ext(path)) + ".prj")
	switch {
	case err == nil:
		c.projection = strings.TrimSpace(string(b))
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("vector: reading csv projection: %v", err)
	}
	return c, nil
}

func newCSVReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true
	return cr
}

// Fields implements gridder.VectorSource.
func (c *CSV) Fields() []string { return c.header }

// HasZ implements gridder.VectorSource.
func (c *CSV) HasZ() bool { return c.iz != -1 }

// SpatialReference implements gridder.VectorSource.
func (c *CSV) SpatialReference() (string, error) { return c.projection, nil }

// ForEach implements gridder.VectorSource.
func (c *CSV) ForEach(fn func(gridder.Feature) error) error {
	f, err := os.Open(c.path)
	if err != nil {
		return fmt.Errorf("vector: opening csv: %v", err)
	}
	defer f.Close()
	r := newCSVReader(f)
	if _, err := r.Read(); err != nil {
		return fmt.Errorf("vector: reading csv header: %v", err)
	}
	for line := 2; ; line++ {
		rec, err := r.Read()
		if err == io.EOF {
			return nil
		} else if err != nil {
			return fmt.Errorf("vector: reading csv: %v", err)
		}
		p := gridder.Point3D{Z: math.NaN()}
		if p.X, err = strconv.ParseFloat(strings.TrimSpace(rec[c.ix]), 64); err != nil {
			return fmt.Errorf("vector: %s line %d: x: %v", c.path, line, err)
		}
		if p.Y, err = strconv.ParseFloat(strings.TrimSpace(rec[c.iy]), 64); err != nil {
			return fmt.Errorf("vector: %s line %d: y: %v", c.path, line, err)
		}
		if c.iz != -1 {
			if s := strings.TrimSpace(rec[c.iz]); s != "" {
				if p.Z, err = strconv.ParseFloat(s, 64); err != nil {
					return fmt.Errorf("vector: %s line %d: z: %v", c.path, line, err)
				}
			}
		}
		attrs := make(map[string]string, len(c.header))
		for i, h := range c.header {
			attrs[h] = rec[i]
		}
		if err := fn(gridder.Feature{Vertices: []gridder.Point3D{p}, Attributes: attrs}); err != nil {
			return err
		}
	}
}
