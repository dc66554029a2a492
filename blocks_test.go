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
	"testing"
)

func TestBlockSize(t *testing.T) {
	tests := []struct {
		name                 string
		native               Size
		dtSize, w, h, budget int
		want                 Size
	}{
		{
			name:   "scanline grows to whole raster",
			native: Size{X: 256, Y: 1}, dtSize: 4, w: 1000, h: 1000, budget: DefaultBufferBudget,
			want: Size{X: 1000, Y: 1000},
		},
		{
			name:   "tile grows width only",
			native: Size{X: 256, Y: 256}, dtSize: 8, w: 4096, h: 4096, budget: 1 << 20,
			want: Size{X: 512, Y: 256},
		},
		{
			name:   "full width grows height",
			native: Size{X: 4096, Y: 1}, dtSize: 8, w: 4096, h: 100, budget: DefaultBufferBudget,
			want: Size{X: 4096, Y: 100},
		},
		{
			name:   "height limited by budget",
			native: Size{X: 100, Y: 1}, dtSize: 4, w: 100, h: 1000, budget: 4000,
			want: Size{X: 100, Y: 10},
		},
		{
			name:   "height rounded to native multiple",
			native: Size{X: 100, Y: 3}, dtSize: 4, w: 100, h: 1000, budget: 4000,
			want: Size{X: 100, Y: 9},
		},
		{
			name:   "native over budget is kept",
			native: Size{X: 512, Y: 512}, dtSize: 8, w: 1024, h: 1024, budget: 1000,
			want: Size{X: 512, Y: 512},
		},
		{
			name:   "output smaller than native",
			native: Size{X: 256, Y: 256}, dtSize: 1, w: 100, h: 50, budget: DefaultBufferBudget,
			want: Size{X: 100, Y: 50},
		},
		{
			name:   "width rounded to native multiple",
			native: Size{X: 3, Y: 1}, dtSize: 1, w: 100, h: 100, budget: 10,
			want: Size{X: 9, Y: 1},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := BlockSize(test.native, test.dtSize, test.w, test.h, test.budget)
			if err != nil {
				t.Fatal(err)
			}
			if got != test.want {
				t.Errorf("got %v, want %v", got, test.want)
			}
		})
	}
}

func TestBlockSizeInvalid(t *testing.T) {
	for _, native := range []Size{{X: 0, Y: 1}, {X: 1, Y: 0}, {X: -1, Y: 5}} {
		_, err := BlockSize(native, 4, 10, 10, DefaultBufferBudget)
		var cfgErr *ConfigError
		if !errors.As(err, &cfgErr) {
			t.Errorf("native %v: got error %v, want a configuration error", native, err)
		}
	}
	if _, err := BlockSize(Size{X: 1, Y: 1}, 0, 10, 10, DefaultBufferBudget); err == nil {
		t.Error("zero data type size should fail")
	}
}

func TestBlockSizeBudget(t *testing.T) {
	natives := []Size{{X: 1, Y: 1}, {X: 7, Y: 1}, {X: 64, Y: 64}, {X: 256, Y: 1}, {X: 1000, Y: 3}}
	sizes := []Size{{X: 1, Y: 1}, {X: 13, Y: 999}, {X: 640, Y: 480}, {X: 5000, Y: 20}}
	budgets := []int{1, 100, 4096, 1 << 20, DefaultBufferBudget}
	for _, native := range natives {
		for _, dt := range []int{1, 2, 4, 8} {
			for _, sz := range sizes {
				for _, budget := range budgets {
					got, err := BlockSize(native, dt, sz.X, sz.Y, budget)
					if err != nil {
						t.Fatal(err)
					}
					if got.X > sz.X || got.Y > sz.Y || got.X <= 0 || got.Y <= 0 {
						t.Errorf("native %v, dt %d, size %v: block %v out of range", native, dt, sz, got)
					}
					if native.X*native.Y*dt <= budget && got.X*got.Y*dt > budget {
						t.Errorf("native %v, dt %d, size %v, budget %d: block %v exceeds budget",
							native, dt, sz, budget, got)
					}
					if got.X != sz.X && got.X%native.X != 0 {
						t.Errorf("native %v, size %v: width %d is not a native multiple", native, sz, got.X)
					}
					if got.Y != sz.Y && got.Y%native.Y != 0 {
						t.Errorf("native %v, size %v: height %d is not a native multiple", native, sz, got.Y)
					}
				}
			}
		}
	}
}

func TestForEachBlockTiling(t *testing.T) {
	for _, test := range []struct{ bs, size Size }{
		{Size{X: 1, Y: 1}, Size{X: 3, Y: 2}},
		{Size{X: 4, Y: 4}, Size{X: 4, Y: 4}},
		{Size{X: 3, Y: 2}, Size{X: 10, Y: 7}},
		{Size{X: 100, Y: 1}, Size{X: 10, Y: 5}},
		{Size{X: 7, Y: 11}, Size{X: 50, Y: 50}},
	} {
		t.Run(fmt.Sprintf("%v in %v", test.bs, test.size), func(t *testing.T) {
			cover := make([]int, test.size.X*test.size.Y)
			var n int
			var last Block
			err := ForEachBlock(test.bs, test.size.X, test.size.Y, func(i, total int, b Block) error {
				if i != n {
					t.Errorf("index %d, want %d", i, n)
				}
				if total != BlockCount(test.bs, test.size.X, test.size.Y) {
					t.Errorf("total %d", total)
				}
				if n > 0 && (b.YOffset < last.YOffset || (b.YOffset == last.YOffset && b.XOffset <= last.XOffset)) {
					t.Errorf("block %v after %v is not row-major", b, last)
				}
				for y := b.YOffset; y < b.YOffset+b.YSize; y++ {
					for x := b.XOffset; x < b.XOffset+b.XSize; x++ {
						cover[y*test.size.X+x]++
					}
				}
				last = b
				n++
				return nil
			})
			if err != nil {
				t.Fatal(err)
			}
			if n != BlockCount(test.bs, test.size.X, test.size.Y) {
				t.Errorf("visited %d blocks, want %d", n, BlockCount(test.bs, test.size.X, test.size.Y))
			}
			for i, c := range cover {
				if c != 1 {
					t.Errorf("cell %d covered %d times", i, c)
				}
			}
		})
	}
}

func TestForEachBlockZeroSize(t *testing.T) {
	called := false
	err := ForEachBlock(Size{X: 0, Y: 4}, 10, 10, func(int, int, Block) error {
		called = true
		return nil
	})
	if err == nil {
		t.Error("zero block size should fail")
	}
	if called {
		t.Error("callback should not be called")
	}
}

func TestForEachBlockStops(t *testing.T) {
	stop := errors.New("stop")
	var n int
	err := ForEachBlock(Size{X: 1, Y: 1}, 5, 5, func(i, _ int, _ Block) error {
		n++
		if i == 2 {
			return stop
		}
		return nil
	})
	if err != stop {
		t.Errorf("got %v, want %v", err, stop)
	}
	if n != 3 {
		t.Errorf("callback called %d times, want 3", n)
	}
}

func TestPlan(t *testing.T) {
	blocks, err := Plan(Size{X: 3, Y: 2}, 5, 3)
	if err != nil {
		t.Fatal(err)
	}
	want := []Block{
		{XOffset: 0, YOffset: 0, XSize: 3, YSize: 2},
		{XOffset: 3, YOffset: 0, XSize: 2, YSize: 2},
		{XOffset: 0, YOffset: 2, XSize: 3, YSize: 1},
		{XOffset: 3, YOffset: 2, XSize: 2, YSize: 1},
	}
	if len(blocks) != len(want) {
		t.Fatalf("got %d blocks, want %d", len(blocks), len(want))
	}
	for i := range want {
		if blocks[i] != want[i] {
			t.Errorf("block %d: got %v, want %v", i, blocks[i], want[i])
		}
	}
}
