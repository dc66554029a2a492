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

// Package interp interpolates scattered points onto regular grid blocks.
package interp

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/ctessum/requestcache"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/gridder"
)

// Engine is a gridder.Interpolator that runs on all available processors.
// The spatial indexes it builds are kept and reused for later blocks of
// the same points. An Engine is safe for concurrent use.
type Engine struct {
	Log logrus.FieldLogger

	cache *requestcache.Cache
}

// indexRequest asks for the search structure of a set of points.
type indexRequest struct {
	points *gridder.Points
	tin    bool
}

// New returns an Engine that logs to log, which may be nil.
func New(log logrus.FieldLogger) *Engine {
	if log == nil {
		log = logrus.StandardLogger()
	}
	e := &Engine{Log: log}
	e.cache = requestcache.NewCache(e.build, runtime.GOMAXPROCS(0),
		requestcache.Deduplicate(), requestcache.Memory(8))
	return e
}

// build creates the index or triangulation described by the request.
func (e *Engine) build(ctx context.Context, payload interface{}) (interface{}, error) {
	r := payload.(indexRequest)
	start := time.Now()
	idx := newPointIndex(r.points)
	if !r.tin {
		e.Log.WithField("points", r.points.Len()).Debugf("indexed points in %v", time.Since(start))
		return idx, nil
	}
	t := newTIN(idx)
	e.Log.WithFields(logrus.Fields{
		"points":    r.points.Len(),
		"triangles": len(t.triangles),
	}).Debugf("triangulated points in %v", time.Since(start))
	return t, nil
}

func (e *Engine) index(ctx context.Context, p *gridder.Points) (*pointIndex, error) {
	v, err := e.cache.NewRequest(ctx, indexRequest{points: p}, "index:"+p.Fingerprint()).Result()
	if err != nil {
		return nil, err
	}
	return v.(*pointIndex), nil
}

func (e *Engine) triangulation(ctx context.Context, p *gridder.Points) (*tin, error) {
	v, err := e.cache.NewRequest(ctx, indexRequest{points: p, tin: true}, "tin:"+p.Fingerprint()).Result()
	if err != nil {
		return nil, err
	}
	return v.(*tin), nil
}

// cellFunc returns the function that computes the cells of req.
func (e *Engine) cellFunc(ctx context.Context, req *gridder.InterpolationRequest) (cellFunc, error) {
	o := req.Options
	if req.Algorithm == gridder.Linear {
		t, err := e.triangulation(ctx, req.Points)
		if err != nil {
			return nil, err
		}
		return linear(t, o), nil
	}
	idx, err := e.index(ctx, req.Points)
	if err != nil {
		return nil, err
	}
	switch req.Algorithm {
	case gridder.InverseDistance:
		return invDist(idx, o), nil
	case gridder.InverseDistanceNearest:
		return invDistNearest(idx, o), nil
	case gridder.MovingAverage:
		return movingAverage(idx, o), nil
	case gridder.Nearest:
		return nearest(idx, o), nil
	}
	if req.Algorithm.Metric() {
		return metric(idx, req.Algorithm, o), nil
	}
	return nil, &gridder.ConfigError{Msg: fmt.Sprintf("unsupported algorithm %v", req.Algorithm)}
}

// Interpolate implements gridder.Interpolator. Rows are computed in
// groups of one row per processor, and progress is reported before each
// group.
func (e *Engine) Interpolate(ctx context.Context, req *gridder.InterpolationRequest, progress gridder.ProgressFunc) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, gridder.ErrCanceled
	}
	if req.Points == nil || req.Points.Len() == 0 {
		return nil, &gridder.DataError{Msg: "no points to interpolate"}
	}
	if req.XSize <= 0 || req.YSize <= 0 {
		return nil, &gridder.ConfigError{Msg: fmt.Sprintf("invalid block size %dx%d", req.XSize, req.YSize)}
	}
	if err := req.Options.Validate(req.Algorithm); err != nil {
		return nil, err
	}
	f, err := e.cellFunc(ctx, req)
	if err != nil {
		return nil, err
	}

	nx, ny := req.XSize, req.YSize
	ext := req.Extent
	dx := (ext.XMax - ext.XMin) / float64(nx)
	dy := (ext.YMax - ext.YMin) / float64(ny)
	out := make([]float64, nx*ny)

	nprocs := runtime.GOMAXPROCS(0)
	for j0 := 0; j0 < ny; j0 += nprocs {
		if progress != nil && !progress(float64(j0)/float64(ny), fmt.Sprintf("row %d of %d", j0+1, ny)) {
			return nil, gridder.ErrCanceled
		}
		if ctx.Err() != nil {
			return nil, gridder.ErrCanceled
		}
		j1 := j0 + nprocs
		if j1 > ny {
			j1 = ny
		}
		var wg sync.WaitGroup
		wg.Add(j1 - j0)
		for j := j0; j < j1; j++ {
			go func(j int) {
				defer wg.Done()
				y := ext.YMin + (float64(j)+0.5)*dy
				row := out[j*nx : (j+1)*nx]
				for i := range row {
					row[i] = f(ext.XMin+(float64(i)+0.5)*dx, y)
				}
			}(j)
		}
		wg.Wait()
	}
	return out, nil
}
