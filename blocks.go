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

import "fmt"

// DefaultBufferBudget is the default maximum number of bytes held by a
// single block buffer.
const DefaultBufferBudget = 16 << 20

// Size is a width and height in cells.
type Size struct {
	X, Y int
}

func (s Size) String() string { return fmt.Sprintf("%dx%d", s.X, s.Y) }

// Block is a rectangular window of the output raster, in cell offsets.
type Block struct {
	XOffset, YOffset int
	XSize, YSize     int
}

func (b Block) String() string {
	return fmt.Sprintf("(%d,%d)+%dx%d", b.XOffset, b.YOffset, b.XSize, b.YSize)
}

// Cells returns the number of cells in b.
func (b Block) Cells() int { return b.XSize * b.YSize }

// BlockSize derives the block size to use when writing a width x height
// raster whose native block is native, given the byte size of one cell
// and the maximum number of bytes a block buffer may use.
//
// Width is grown first, to the largest multiple of the native width the
// budget allows at the native height, but never past the raster width.
// Only when a block spans the full raster width is its height grown, the
// same way. A native block that alone exceeds the budget is used as is.
// Both axes are finally clamped to the raster size.
func BlockSize(native Size, dataTypeSize, width, height, budget int) (Size, error) {
	if native.X <= 0 || native.Y <= 0 {
		return Size{}, &ConfigError{Msg: fmt.Sprintf("native block size %v must be positive", native)}
	}
	if dataTypeSize <= 0 {
		return Size{}, &ConfigError{Msg: fmt.Sprintf("data type size %d must be positive", dataTypeSize)}
	}
	if width <= 0 || height <= 0 {
		return Size{}, &ConfigError{Msg: fmt.Sprintf("raster size %dx%d must be positive", width, height)}
	}
	bs := native
	if bs.X < width {
		if allowed := budget / (bs.Y * dataTypeSize); bs.X < allowed {
			bs.X = allowed / native.X * native.X
		}
	}
	if bs.X > width {
		bs.X = width
	}
	if bs.X == width && bs.Y < height {
		if allowed := budget / (bs.X * dataTypeSize); bs.Y < allowed {
			bs.Y = allowed / native.Y * native.Y
		}
	}
	if bs.Y > height {
		bs.Y = height
	}
	return bs, nil
}

// BlockCount returns the number of blocks of the given size needed to
// tile a width x height raster.
func BlockCount(size Size, width, height int) int {
	if size.X <= 0 || size.Y <= 0 || width <= 0 || height <= 0 {
		return 0
	}
	return ceilDiv(width, size.X) * ceilDiv(height, size.Y)
}

func ceilDiv(a, b int) int { return (a + b - 1) / b }

// ForEachBlock calls fn for every block tiling a width x height raster,
// row-major, with edge blocks clipped to the raster. index counts from
// zero and total is the number of blocks. Iteration stops at the first
// error returned by fn, which is returned.
func ForEachBlock(size Size, width, height int, fn func(index, total int, b Block) error) error {
	if size.X <= 0 || size.Y <= 0 {
		return &ConfigError{Msg: fmt.Sprintf("block size %v must be positive", size)}
	}
	total := BlockCount(size, width, height)
	index := 0
	for yoff := 0; yoff < height; yoff += size.Y {
		ysize := size.Y
		if yoff+ysize > height {
			ysize = height - yoff
		}
		for xoff := 0; xoff < width; xoff += size.X {
			xsize := size.X
			if xoff+xsize > width {
				xsize = width - xoff
			}
			b := Block{XOffset: xoff, YOffset: yoff, XSize: xsize, YSize: ysize}
			if err := fn(index, total, b); err != nil {
				return err
			}
			index++
		}
	}
	return nil
}

// Plan returns every block ForEachBlock would visit, in order.
func Plan(size Size, width, height int) ([]Block, error) {
	var blocks []Block
	err := ForEachBlock(size, width, height, func(_, total int, b Block) error {
		if blocks == nil {
			blocks = make([]Block, 0, total)
		}
		blocks = append(blocks, b)
		return nil
	})
	return blocks, err
}
