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
	"bytes"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/ctessum/cdf"
	"github.com/spatialmodel/gridder"
)

// NetCDF creates classic-format NetCDF files with one variable per band
// over the dimensions (y, x). The driver options are VARIABLE, the name
// of the first band's variable, UNITS and DESCRIPTION.
type NetCDF struct{}

// netcdfOptions are the driver options NetCDF accepts.
var netcdfOptions = map[string]bool{"VARIABLE": true, "UNITS": true, "DESCRIPTION": true}

// Create implements gridder.Driver.
func (NetCDF) Create(path string, width, height, bands int, dt gridder.DataType, options map[string]string) (gridder.Raster, error) {
	if width <= 0 || height <= 0 || bands <= 0 {
		return nil, fmt.Errorf("raster: invalid netcdf size %dx%dx%d", width, height, bands)
	}
	if dt.Size() == 0 {
		return nil, fmt.Errorf("raster: unsupported data type %v", dt)
	}
	opts, err := upperOptions(options, netcdfOptions)
	if err != nil {
		return nil, err
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("raster: creating netcdf file: %v", err)
	}
	r := &netcdfRaster{
		f:           f,
		width:       width,
		height:      height,
		dt:          dt,
		variable:    opts["VARIABLE"],
		units:       opts["UNITS"],
		description: opts["DESCRIPTION"],
		noData:      make([]float64, bands),
	}
	if !dt.Integer() {
		for i := range r.noData {
			r.noData[i] = math.NaN()
		}
	}
	return r, nil
}

// upperOptions returns options with upper case keys, or an error if a
// key is not one of allowed.
func upperOptions(options map[string]string, allowed map[string]bool) (map[string]string, error) {
	out := make(map[string]string, len(options))
	for k, v := range options {
		k = strings.ToUpper(k)
		if !allowed[k] {
			return nil, fmt.Errorf("raster: unsupported driver option %q", k)
		}
		out[k] = v
	}
	return out, nil
}

type netcdfRaster struct {
	f             *os.File
	width, height int
	dt            gridder.DataType

	variable, units, description string

	gt         gridder.GeoTransform
	projection string
	noData     []float64

	// nc is created by the first write, after which the georeferencing
	// can no longer change.
	nc *cdf.File
}

func (r *netcdfRaster) NativeBlockSize() gridder.Size { return gridder.Size{X: r.width, Y: 1} }

func (r *netcdfRaster) SetGeoTransform(gt gridder.GeoTransform) error {
	if r.nc != nil {
		return fmt.Errorf("raster: netcdf geotransform set after writing")
	}
	r.gt = gt
	return nil
}

func (r *netcdfRaster) SetProjection(p string) error {
	if r.nc != nil {
		return fmt.Errorf("raster: netcdf projection set after writing")
	}
	r.projection = p
	return nil
}

func (r *netcdfRaster) bandName(band int) string {
	switch {
	case r.variable == "":
		return fmt.Sprintf("Band%d", band)
	case band == 1:
		return r.variable
	}
	return fmt.Sprintf("%s_%d", r.variable, band)
}

// header returns the file header. Its size depends only on settings
// that are fixed once the file is written.
func (r *netcdfRaster) header() *cdf.Header {
	h := cdf.NewHeader([]string{"y", "x"}, []int{r.height, r.width})
	h.AddAttribute("", "Conventions", "CF-1.5")
	h.AddAttribute("", "source", "gridder "+gridder.Version)
	if r.description != "" {
		h.AddAttribute("", "title", r.description)
	}
	gt := r.gt.Array()
	h.AddAttribute("", "geotransform", gt[:])
	if p := strings.TrimSpace(r.projection); p != "" {
		if strings.HasPrefix(p, "+") {
			h.AddAttribute("", "proj4", p)
		} else {
			h.AddAttribute("", "crs_wkt", p)
		}
	}

	h.AddVariable("x", []string{"x"}, []float64{0})
	h.AddAttribute("x", "long_name", "x coordinate of cell center")
	h.AddVariable("y", []string{"y"}, []float64{0})
	h.AddAttribute("y", "long_name", "y coordinate of cell center")

	for b := 1; b <= len(r.noData); b++ {
		name := r.bandName(b)
		nd := r.noData[b-1]
		h.AddVariable(name, []string{"y", "x"}, convert(r.dt, []float64{0}, nd))
		h.AddAttribute(name, "_FillValue", convert(r.dt, []float64{nd}, nd))
		h.AddAttribute(name, "nodata", []float64{nd})
		if r.units != "" {
			h.AddAttribute(name, "units", r.units)
		}
		if r.description != "" {
			h.AddAttribute(name, "long_name", r.description)
		}
	}
	h.Define()
	return h
}

// create writes the header and the cell center coordinates.
func (r *netcdfRaster) create() error {
	if r.nc != nil {
		return nil
	}
	nc, err := cdf.Create(r.f, r.header())
	if err != nil {
		return fmt.Errorf("raster: writing netcdf header: %v", err)
	}
	r.nc = nc
	xs := make([]float64, r.width)
	for i := range xs {
		xs[i], _ = r.gt.Apply(float64(i)+0.5, 0.5)
	}
	ys := make([]float64, r.height)
	for j := range ys {
		_, ys[j] = r.gt.Apply(0.5, float64(j)+0.5)
	}
	if _, err := nc.Writer("x", []int{0}, []int{r.width}).Write(xs); err != nil {
		return fmt.Errorf("raster: writing netcdf x coordinates: %v", err)
	}
	if _, err := nc.Writer("y", []int{0}, []int{r.height}).Write(ys); err != nil {
		return fmt.Errorf("raster: writing netcdf y coordinates: %v", err)
	}
	return nil
}

// WriteBlock writes the block one row at a time, as each row of a
// block is a contiguous run in the file. The end corner passed to the
// writer is one past the row so that filling the row is not reported
// as the end of the variable.
func (r *netcdfRaster) WriteBlock(band, xOff, yOff, xSize, ySize int, buf []float64) error {
	if err := checkBlock(r.width, r.height, len(r.noData), band, xOff, yOff, xSize, ySize, buf); err != nil {
		return err
	}
	if err := r.create(); err != nil {
		return err
	}
	name := r.bandName(band)
	for j := 0; j < ySize; j++ {
		row := convert(r.dt, buf[j*xSize:(j+1)*xSize], r.noData[band-1])
		w := r.nc.Writer(name, []int{yOff + j, xOff}, []int{yOff + j, xOff + xSize})
		if _, err := w.Write(row); err != nil {
			return fmt.Errorf("raster: writing netcdf row %d: %v", yOff+j, err)
		}
	}
	return nil
}

// SetNoDataValue rewrites the header in place if the file has already
// been started.
func (r *netcdfRaster) SetNoDataValue(band int, v float64) error {
	if band < 1 || band > len(r.noData) {
		return fmt.Errorf("raster: band %d out of range [1, %d]", band, len(r.noData))
	}
	r.noData[band-1] = v
	if r.nc == nil {
		return nil
	}
	var old, buf bytes.Buffer
	if err := r.nc.Header.WriteHeader(&old); err != nil {
		return err
	}
	h := r.header()
	if err := h.WriteHeader(&buf); err != nil {
		return err
	}
	if buf.Len() != old.Len() {
		return fmt.Errorf("raster: netcdf header changed size from %d to %d bytes", old.Len(), buf.Len())
	}
	if _, err := r.f.WriteAt(buf.Bytes(), 0); err != nil {
		return fmt.Errorf("raster: rewriting netcdf header: %v", err)
	}
	r.nc.Header = h
	return nil
}

// Close fills any band that was never written and closes the file.
func (r *netcdfRaster) Close() error {
	if r.f == nil {
		return nil
	}
	f := r.f
	defer func() { r.f = nil }()
	if r.nc == nil {
		if err := r.create(); err != nil {
			f.Close()
			return err
		}
		for b := 1; b <= len(r.noData); b++ {
			if err := r.nc.Fill(r.bandName(b)); err != nil {
				f.Close()
				return fmt.Errorf("raster: filling netcdf band %d: %v", b, err)
			}
		}
	}
	if err := cdf.UpdateNumRecs(f); err != nil {
		f.Close()
		return fmt.Errorf("raster: updating netcdf record count: %v", err)
	}
	return f.Close()
}

// Grid is one band of a raster read back into memory.
type Grid struct {
	Name          string
	Width, Height int
	GeoTransform  gridder.GeoTransform
	Projection    string
	NoData        float64

	// Values holds the cells in row-major order starting at the
	// geotransform origin.
	Values []float64
}

// At returns the value of cell (i, j).
func (g *Grid) At(i, j int) float64 { return g.Values[j*g.Width+i] }

// ReadNetCDF reads one band, counting from 1, of a NetCDF file written
// by the NetCDF driver.
func ReadNetCDF(path string, band int) (*Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("raster: opening netcdf file: %v", err)
	}
	defer f.Close()
	nc, err := cdf.Open(f)
	if err != nil {
		return nil, fmt.Errorf("raster: reading netcdf header from %s: %v", path, err)
	}

	var bandVars []string
	for _, v := range nc.Header.Variables() {
		if v != "x" && v != "y" {
			bandVars = append(bandVars, v)
		}
	}
	if band < 1 || band > len(bandVars) {
		return nil, fmt.Errorf("raster: %s has %d bands; band %d requested", path, len(bandVars), band)
	}
	name := bandVars[band-1]
	lengths := nc.Header.Lengths(name)
	if len(lengths) != 2 {
		return nil, fmt.Errorf("raster: variable %s has %d dimensions, want 2", name, len(lengths))
	}
	g := &Grid{Name: name, Height: lengths[0], Width: lengths[1], NoData: math.NaN()}

	if gt, ok := nc.Header.GetAttribute("", "geotransform").([]float64); ok && len(gt) == 6 {
		var a [6]float64
		copy(a[:], gt)
		g.GeoTransform = gridder.GeoTransformFromArray(a)
	}
	for _, a := range []string{"crs_wkt", "proj4"} {
		if p, ok := nc.Header.GetAttribute("", a).(string); ok {
			g.Projection = p
		}
	}
	if nd, ok := nc.Header.GetAttribute(name, "nodata").([]float64); ok && len(nd) > 0 {
		g.NoData = nd[0]
	}

	rd := nc.Reader(name, nil, nil)
	data := rd.Zero(-1)
	if _, err := rd.Read(data); err != nil {
		return nil, fmt.Errorf("raster: reading netcdf variable %s: %v", name, err)
	}
	if g.Values, err = toFloat64(data); err != nil {
		return nil, err
	}
	return g, nil
}
