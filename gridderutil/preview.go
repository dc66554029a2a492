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
	"fmt"
	"math"
	"os"

	"github.com/spatialmodel/gridder/raster"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// Preview draws band of the NetCDF raster at ncPath as a heat map above
// its color bar and saves it to pngPath as a PNG image. The image is
// width wide and as tall as the shape of the raster requires.
func Preview(ncPath, pngPath string, band int, width vg.Length) error {
	g, err := raster.ReadNetCDF(ncPath, band)
	if err != nil {
		return err
	}
	p, legend, err := previewPlots(g)
	if err != nil {
		return err
	}
	ext, err := g.GeoTransform.Extent(g.Width, g.Height)
	if err != nil {
		return err
	}
	height := width * vg.Length(math.Abs(ext.Dy()/ext.Dx()))
	if height < width/4 {
		height = width / 4
	} else if height > width*4 {
		height = width * 4
	}
	// Room for the axes and title.
	height += vg.Inch

	img := vgimg.New(width, height+legendHeight)
	dc := draw.New(img)
	top, bottom := splitVertical(dc, legendHeight)
	p.Draw(top)
	legend.Draw(bottom)

	f, err := os.Create(pngPath)
	if err != nil {
		return fmt.Errorf("gridder: creating preview: %v", err)
	}
	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("gridder: writing preview: %v", err)
	}
	return f.Close()
}

// legendHeight is the height of the color bar below the map.
const legendHeight = vg.Length(0.6 * vg.Inch)

// splitVertical splits c into the part above and the part below y.
func splitVertical(c draw.Canvas, y vg.Length) (top, bottom draw.Canvas) {
	return draw.Crop(c, 0, 0, y, 0), draw.Crop(c, 0, 0, 0, c.Min.Y-c.Max.Y+y)
}

// previewPlots returns the map of g and its color bar.
func previewPlots(g *raster.Grid) (p, legend *plot.Plot, err error) {
	c := &cells{Grid: g}
	var valid []float64
	for _, v := range g.Values {
		if c.valid(v) {
			valid = append(valid, v)
		}
	}
	if len(valid) == 0 {
		return nil, nil, fmt.Errorf("gridder: band %s has no cells with data", g.Name)
	}
	min, max := floats.Min(valid), floats.Max(valid)
	if max <= min {
		max = min + 1
	}
	cm := moreland.SmoothBlueRed()
	cm.SetMin(min)
	cm.SetMax(max)
	c.cm = cm

	if p, err = plot.New(); err != nil {
		return nil, nil, err
	}
	p.Title.Text = g.Name
	p.X.Label.Text = "x"
	p.Y.Label.Text = "y"
	p.Add(c)

	if legend, err = plot.New(); err != nil {
		return nil, nil, err
	}
	legend.Add(&plotter.ColorBar{ColorMap: cm})
	legend.HideY()
	legend.X.Padding = 0
	return p, legend, nil
}

// cells draws the cells of a grid colored by value. Cells without data
// are skipped.
type cells struct {
	*raster.Grid
	cm palette.ColorMap
}

func (c *cells) valid(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v != c.NoData
}

// Plot implements plot.Plotter.
func (c *cells) Plot(canvas draw.Canvas, plt *plot.Plot) {
	trX, trY := plt.Transforms(&canvas)
	gt := c.GeoTransform
	for j := 0; j < c.Height; j++ {
		for i := 0; i < c.Width; i++ {
			v := c.At(i, j)
			if !c.valid(v) {
				continue
			}
			clr, err := c.cm.At(v)
			if err != nil {
				continue
			}
			x0, y0 := gt.Apply(float64(i), float64(j))
			x1, y1 := gt.Apply(float64(i+1), float64(j+1))
			canvas.FillPolygon(clr, []vg.Point{
				{X: trX(x0), Y: trY(y0)},
				{X: trX(x1), Y: trY(y0)},
				{X: trX(x1), Y: trY(y1)},
				{X: trX(x0), Y: trY(y1)},
			})
		}
	}
}

// DataRange implements plot.DataRanger.
func (c *cells) DataRange() (xmin, xmax, ymin, ymax float64) {
	ext, err := c.GeoTransform.Extent(c.Width, c.Height)
	if err != nil {
		return 0, 1, 0, 1
	}
	return ext.XMin, ext.XMax, ext.YMin, ext.YMax
}
