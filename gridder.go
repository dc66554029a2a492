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

// Package gridder interpolates scattered 3D points onto regular rasters.
// Output rasters are written one block at a time so that the memory used
// by a run is bounded by a configurable buffer budget rather than by the
// size of the raster.
package gridder

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Version gives the version number.
const Version = "0.3.0"

// State is a step of a gridding run.
type State int

// The states of a gridding run, in order. Failed can be entered from
// any state.
const (
	Configured State = iota
	SpatialReferenceResolved
	OutputAllocated
	Gridding
	Finalized
	Failed
)

func (s State) String() string {
	switch s {
	case Configured:
		return "configured"
	case SpatialReferenceResolved:
		return "spatial reference resolved"
	case OutputAllocated:
		return "output allocated"
	case Gridding:
		return "gridding"
	case Finalized:
		return "finalized"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Gridder runs gridding jobs.
type Gridder struct {
	// Engine interpolates each block.
	Engine Interpolator

	// Drivers holds the available output formats by name.
	Drivers map[string]Driver

	// Log receives progress and diagnostic messages. If nil,
	// logrus.StandardLogger() is used.
	Log logrus.FieldLogger
}

// Result summarizes a completed run.
type Result struct {
	Points       int
	Projection   string
	Extent       Extent
	GeoTransform GeoTransform
	BlockSize    Size
	Blocks       int
}

// run holds the state of one call to Grid.
type run struct {
	g     *Gridder
	opts  Options
	log   logrus.FieldLogger
	state State

	points *Points
	raster Raster
	res    Result
}

func (r *run) transition(s State) {
	r.log.WithFields(logrus.Fields{
		"from": r.state.String(),
		"to":   s.String(),
	}).Debug("gridder state change")
	r.state = s
}

// Grid interpolates the points of src onto a new raster at dst as
// configured by opts. progress, if not nil, receives the overall progress
// of the run and can cancel it by returning false; a done ctx cancels it
// too. Canceled runs return an error wrapping ErrCanceled. Blocks written
// before a failure or cancellation are kept.
func (g *Gridder) Grid(ctx context.Context, src VectorSource, dst string, opts Options, progress ProgressFunc) (*Result, error) {
	r := &run{g: g, opts: opts, log: g.Log, state: Configured}
	if r.log == nil {
		r.log = logrus.StandardLogger()
	}
	r.log = r.log.WithField("output", dst)
	start := time.Now()

	err := r.grid(ctx, src, dst, progress)
	if r.raster != nil {
		// The raster must be released even when the run fails.
		if cerr := r.raster.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("gridder: closing output: %v", cerr)
		}
	}
	if err != nil {
		failedIn := r.state
		r.transition(Failed)
		if IsCanceled(err) {
			r.log.WithField("state", failedIn.String()).Warn("gridder run canceled")
		} else {
			r.log.WithField("state", failedIn.String()).WithError(err).Error("gridder run failed")
		}
		return nil, &StateError{State: failedIn, Err: err}
	}
	r.transition(Finalized)
	r.log.WithFields(logrus.Fields{
		"points":    r.res.Points,
		"blocks":    r.res.Blocks,
		"blockSize": r.res.BlockSize.String(),
		"duration":  time.Since(start).String(),
	}).Info("gridder run complete")
	return &r.res, nil
}

func (r *run) grid(ctx context.Context, src VectorSource, dst string, progress ProgressFunc) error {
	driver, err := r.configure(src)
	if err != nil {
		return err
	}
	if err := r.resolve(); err != nil {
		return err
	}
	r.transition(SpatialReferenceResolved)
	if err := r.allocate(driver, dst); err != nil {
		return err
	}
	r.transition(OutputAllocated)
	if err := r.gridBlocks(ctx, progress); err != nil {
		return err
	}
	return r.finalize()
}

// configure validates the options and reads the input points.
func (r *run) configure(src VectorSource) (Driver, error) {
	if err := r.opts.Validate(); err != nil {
		return nil, err
	}
	if r.g.Engine == nil {
		return nil, &ConfigError{Msg: "no interpolation engine"}
	}
	driver, ok := r.g.Drivers[strings.ToLower(r.opts.Driver)]
	if !ok {
		var names []string
		for n := range r.g.Drivers {
			names = append(names, n)
		}
		sort.Strings(names)
		return nil, &ConfigError{Msg: fmt.Sprintf("unknown output driver %q; choose one of %s",
			r.opts.Driver, strings.Join(names, ", "))}
	}
	points, err := ExtractPoints(src, r.opts.Field, r.opts.ZExpression)
	if err != nil {
		return nil, err
	}
	r.points = points
	r.log.WithFields(logrus.Fields{
		"points":    points.Len(),
		"algorithm": r.opts.Algorithm.String(),
	}).Debug("gridder read input points")
	return driver, nil
}

// resolve chooses the output projection and extent.
func (r *run) resolve() error {
	r.res.Projection = r.points.Projection
	if r.opts.Projection != "" {
		r.res.Projection = r.opts.Projection
		if r.opts.Reproject {
			p, err := r.points.Transform(r.opts.Projection)
			if err != nil {
				return err
			}
			r.points = p
		}
	}
	if r.opts.Extent != nil {
		r.res.Extent = *r.opts.Extent
	} else {
		r.res.Extent = ExtentFromBounds(r.points.Bounds())
		if err := r.res.Extent.Validate(); err != nil {
			return &ConfigError{Msg: fmt.Sprintf("the input points do not span an area; specify an output extent (%v)", err)}
		}
	}
	gt, err := NewGeoTransform(r.res.Extent, r.opts.Width, r.opts.Height)
	if err != nil {
		return err
	}
	r.res.GeoTransform = gt
	r.res.Points = r.points.Len()
	return nil
}

// allocate creates the output raster.
func (r *run) allocate(driver Driver, dst string) error {
	rast, err := driver.Create(dst, r.opts.Width, r.opts.Height, 1, r.opts.DataType, r.opts.DriverOptions)
	if err != nil {
		return fmt.Errorf("gridder: creating output %s: %v", dst, err)
	}
	r.raster = rast
	if r.res.Projection != "" {
		if err := rast.SetProjection(r.res.Projection); err != nil {
			return fmt.Errorf("gridder: setting output projection: %v", err)
		}
	}
	if err := rast.SetGeoTransform(r.res.GeoTransform); err != nil {
		return fmt.Errorf("gridder: setting output geotransform: %v", err)
	}
	return nil
}

// gridBlocks interpolates and writes each block in turn.
func (r *run) gridBlocks(ctx context.Context, progress ProgressFunc) error {
	bs, err := BlockSize(r.raster.NativeBlockSize(), r.opts.DataType.Size(),
		r.opts.Width, r.opts.Height, r.opts.budget())
	if err != nil {
		return err
	}
	r.res.BlockSize = bs
	r.res.Blocks = BlockCount(bs, r.opts.Width, r.opts.Height)
	r.transition(Gridding)
	r.log.WithFields(logrus.Fields{
		"blockSize": bs.String(),
		"blocks":    r.res.Blocks,
	}).Debug("gridder block plan")

	ao := r.opts.AlgorithmOptions
	ao.NoData = r.opts.noData()
	return ForEachBlock(bs, r.opts.Width, r.opts.Height, func(i, total int, b Block) error {
		blockErr := func(op string, err error) error {
			return &BlockError{Index: i, Total: total, Block: b, Op: op, Err: err}
		}
		if err := ctx.Err(); err != nil {
			return blockErr("interpolate", ErrCanceled)
		}
		ext, err := r.res.GeoTransform.BlockExtent(b)
		if err != nil {
			return err
		}
		local := ScaledProgress(progress, i, total)
		checked := func(frac float64, msg string) bool {
			return ctx.Err() == nil && local(frac, msg)
		}
		buf, err := r.g.Engine.Interpolate(ctx, &InterpolationRequest{
			Algorithm: r.opts.Algorithm,
			Options:   ao,
			Points:    r.points,
			Extent:    ext,
			XSize:     b.XSize,
			YSize:     b.YSize,
			DataType:  r.opts.DataType,
		}, checked)
		if err != nil {
			if IsCanceled(err) {
				return blockErr("interpolate", ErrCanceled)
			}
			return blockErr("interpolate", err)
		}
		if len(buf) != b.Cells() {
			return blockErr("interpolate", fmt.Errorf("engine returned %d values for %d cells", len(buf), b.Cells()))
		}
		if err := r.raster.WriteBlock(1, b.XOffset, b.YOffset, b.XSize, b.YSize, buf); err != nil {
			return blockErr("write", err)
		}
		r.log.WithFields(logrus.Fields{
			"block": i + 1,
			"of":    total,
		}).Debug("gridder wrote block")
		if cont := checked(1, fmt.Sprintf("block %d of %d", i+1, total)); !cont && i < total-1 {
			return blockErr("progress", ErrCanceled)
		}
		return nil
	})
}

// finalize sets the no-data value. The raster is closed by Grid.
func (r *run) finalize() error {
	if err := r.raster.SetNoDataValue(1, r.opts.noData()); err != nil {
		return fmt.Errorf("gridder: setting no-data value: %v", err)
	}
	return nil
}
