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

package raster

import (
	"bufio"
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

// AAIGrid creates single band ESRI ASCII grids. The grid must have
// square cells and a north-up geotransform, and blocks must be written
// as full-width strips from top to bottom. The driver option
// DECIMAL_PRECISION sets the number of decimals written for floating
// point cells.
type AAIGrid struct{}

// aaigridNoData is the no-data value until SetNoDataValue is called.
const aaigridNoData = -9999

// Create implements gridder.Driver.
func (AAIGrid) Create(path string, width, height, bands int, dt gridder.DataType, options map[string]string) (gridder.Raster, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("raster: invalid aaigrid size %dx%d", width, height)
	}
	if bands != 1 {
		return nil, fmt.Errorf("raster: aaigrid supports 1 band, not %d", bands)
	}
	if dt.Size() == 0 {
		return nil, fmt.Errorf("raster: unsupported data type %v", dt)
	}
	opts, err := upperOptions(options, map[string]bool{"DECIMAL_PRECISION": true})
	if err != nil {
		return nil, err
	}
	precision := -1
	if p, ok := opts["DECIMAL_PRECISION"]; ok {
		if precision, err = strconv.Atoi(p); err != nil || precision < 0 {
			return nil, fmt.Errorf("raster: invalid DECIMAL_PRECISION %q", p)
		}
	}
	// The rows are kept next to the output until the header can be
	// written in front of them.
	body, err := ioutil.TempFile(filepath.Dir(path), filepath.Base(path)+".body")
	if err != nil {
		return nil, fmt.Errorf("raster: creating aaigrid: %v", err)
	}
	return &aaigridRaster{
		path:      path,
		width:     width,
		height:    height,
		dt:        dt,
		precision: precision,
		noData:    aaigridNoData,
		body:      body,
		w:         bufio.NewWriter(body),
	}, nil
}

type aaigridRaster struct {
	path          string
	width, height int
	dt            gridder.DataType
	precision     int

	gt         gridder.GeoTransform
	projection string
	noData     float64

	body *os.File
	w    *bufio.Writer
	// rows is the number of rows written so far.
	rows int
}

func (r *aaigridRaster) NativeBlockSize() gridder.Size { return gridder.Size{X: r.width, Y: 1} }

func (r *aaigridRaster) SetGeoTransform(gt gridder.GeoTransform) error {
	if err := gt.Validate(); err != nil {
		return err
	}
	if gt.PixelHeight >= 0 {
		return fmt.Errorf("raster: aaigrid needs a north-up geotransform")
	}
	if math.Abs(gt.PixelWidth+gt.PixelHeight) > 1e-9*gt.PixelWidth {
		return fmt.Errorf("raster: aaigrid needs square cells, not %g by %g", gt.PixelWidth, -gt.PixelHeight)
	}
	r.gt = gt
	return nil
}

func (r *aaigridRaster) SetProjection(p string) error {
	r.projection = p
	return nil
}

func (r *aaigridRaster) SetNoDataValue(band int, v float64) error {
	if band != 1 {
		return fmt.Errorf("raster: band %d out of range [1, 1]", band)
	}
	r.noData = v
	return nil
}

// nanToken stands for cells without a value in the rows until the
// final no-data value is known.
const nanToken = "NaN"

func (r *aaigridRaster) format(v float64) string {
	if math.IsNaN(v) {
		return nanToken
	}
	if r.dt.Integer() {
		return strconv.FormatFloat(r.dt.Clamp(v), 'f', 0, 64)
	}
	if r.dt == gridder.Float32 {
		return strconv.FormatFloat(v, 'f', r.precision, 32)
	}
	return strconv.FormatFloat(v, 'f', r.precision, 64)
}

func (r *aaigridRaster) writeRow(row []float64) error {
	for i, v := range row {
		if i > 0 {
			if err := r.w.WriteByte(' '); err != nil {
				return err
			}
		}
		if _, err := r.w.WriteString(r.format(v)); err != nil {
			return err
		}
	}
	if err := r.w.WriteByte('\n'); err != nil {
		return err
	}
	r.rows++
	return nil
}

// WriteBlock appends the rows of a full-width strip.
func (r *aaigridRaster) WriteBlock(band, xOff, yOff, xSize, ySize int, buf []float64) error {
	if err := checkBlock(r.width, r.height, 1, band, xOff, yOff, xSize, ySize, buf); err != nil {
		return err
	}
	if r.body == nil {
		return fmt.Errorf("raster: aaigrid is closed")
	}
	if xOff != 0 || xSize != r.width {
		return fmt.Errorf("raster: aaigrid blocks must span the full width of %d cells", r.width)
	}
	if yOff != r.rows {
		return fmt.Errorf("raster: aaigrid block at row %d written out of order; next row is %d", yOff, r.rows)
	}
	for j := 0; j < ySize; j++ {
		if err := r.writeRow(buf[j*xSize : (j+1)*xSize]); err != nil {
			return fmt.Errorf("raster: writing aaigrid row %d: %v", yOff+j, err)
		}
	}
	return nil
}

// Close writes the header followed by the rows, filling any rows that
// were never written with the no-data value.
func (r *aaigridRaster) Close() error {
	if r.body == nil {
		return nil
	}
	body := r.body
	r.body = nil
	defer os.Remove(body.Name())
	defer body.Close()

	if r.rows < r.height {
		fill := make([]float64, r.width)
		for i := range fill {
			fill[i] = math.NaN()
		}
		for r.rows < r.height {
			if err := r.writeRow(fill); err != nil {
				return fmt.Errorf("raster: filling aaigrid: %v", err)
			}
		}
	}
	if err := r.w.Flush(); err != nil {
		return fmt.Errorf("raster: writing aaigrid: %v", err)
	}
	if _, err := body.Seek(0, io.SeekStart); err != nil {
		return err
	}
	ext, err := r.gt.Extent(r.width, r.height)
	if err != nil {
		return err
	}

	f, err := os.Create(r.path)
	if err != nil {
		return fmt.Errorf("raster: creating aaigrid: %v", err)
	}
	noData := r.format(r.noData)
	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "ncols        %d\n", r.width)
	fmt.Fprintf(w, "nrows        %d\n", r.height)
	fmt.Fprintf(w, "xllcorner    %s\n", strconv.FormatFloat(ext.XMin, 'f', -1, 64))
	fmt.Fprintf(w, "yllcorner    %s\n", strconv.FormatFloat(ext.YMin, 'f', -1, 64))
	fmt.Fprintf(w, "cellsize     %s\n", strconv.FormatFloat(r.gt.PixelWidth, 'f', -1, 64))
	fmt.Fprintf(w, "NODATA_value %s\n", noData)
	br := bufio.NewReader(body)
	for {
		line, err := br.ReadString('\n')
		if _, werr := w.WriteString(strings.Replace(line, nanToken, noData, -1)); werr != nil {
			f.Close()
			return fmt.Errorf("raster: writing aaigrid: %v", werr)
		}
		if err == io.EOF {
			break
		} else if err != nil {
			f.Close()
			return fmt.Errorf("raster: reading aaigrid rows: %v", err)
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("raster: writing aaigrid: %v", err)
	}
	if err := f.Close(); err != nil {
		return err
	}

	if p := strings.TrimSpace(r.projection); p != "" {
		prj := strings.TrimSuffix(r.path, filepath.Ext(r.path)) + ".prj"
		if err := ioutil.WriteFile(prj, []byte(p+"\n"), 0644); err != nil {
			return fmt.Errorf("raster: writing aaigrid projection: %v", err)
		}
	}
	return nil
}
