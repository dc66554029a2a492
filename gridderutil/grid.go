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

package gridderutil

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/gridder"
	"github.com/spatialmodel/gridder/interp"
	"github.com/spatialmodel/gridder/raster"
	"github.com/spatialmodel/gridder/vector"
)

// OpenSource opens the point file at path, choosing the reader from the
// file extension.
func OpenSource(path string) (gridder.VectorSource, error) {
	if path == "" {
		return nil, fmt.Errorf("gridder: you need to specify an input file (for example: --input=\"samples.shp\")")
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".shp":
		return vector.OpenShapefile(path)
	case ".csv", ".txt":
		return vector.OpenCSV(path)
	}
	return nil, fmt.Errorf("gridder: unsupported input file type %q; use a shapefile (.shp) or CSV (.csv) file", filepath.Ext(path))
}

// Grid interpolates the points in the input file onto a new raster at
// output.
func Grid(ctx context.Context, input, output string, opts gridder.Options, log logrus.FieldLogger) (*gridder.Result, error) {
	src, err := OpenSource(input)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	g := &gridder.Gridder{
		Engine:  interp.New(log),
		Drivers: raster.Drivers(),
		Log:     log,
	}
	return g.Grid(ctx, src, output, opts, logProgress(log))
}

// logProgress returns a progress function that logs every tenth of the
// run.
func logProgress(log logrus.FieldLogger) gridder.ProgressFunc {
	last := -1
	return func(fraction float64, msg string) bool {
		if step := int(fraction * 10); step > last {
			last = step
			log.WithField("progress", fmt.Sprintf("%.0f%%", fraction*100)).Info(msg)
		}
		return true
	}
}
