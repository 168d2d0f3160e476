// Package board implements the term model of the board algebra: cell
// contents, offsets, fragments, movements and positions.
package board

import "fmt"

// Vec is an offset on the 2D lattice. Y grows upward.
type Vec struct {
	X, Y int
}

// Unit offsets for the four translation generators.
var (
	Up    = Vec{0, 1}
	Down  = Vec{0, -1}
	Left  = Vec{-1, 0}
	Right = Vec{1, 0}
)

// Add returns v + o.
func (v Vec) Add(o Vec) Vec {
	return Vec{v.X + o.X, v.Y + o.Y}
}

// Sub returns v - o.
func (v Vec) Sub(o Vec) Vec {
	return Vec{v.X - o.X, v.Y - o.Y}
}

// Neg returns -v.
func (v Vec) Neg() Vec {
	return Vec{-v.X, -v.Y}
}

// Scale returns k*v.
func (v Vec) Scale(k int) Vec {
	return Vec{v.X * k, v.Y * k}
}

// Less orders offsets row by row from the top, then left to right, which is
// the order a diagram is read in.
func (v Vec) Less(o Vec) bool {
	if v.Y != o.Y {
		return v.Y > o.Y
	}
	return v.X < o.X
}

// String returns the offset as "(x,y)".
func (v Vec) String() string {
	return fmt.Sprintf("(%d,%d)", v.X, v.Y)
}

// rotate applies the rotation R^r, 90 degrees counter-clockwise per step.
func (v Vec) rotate(r int) Vec {
	switch r & 3 {
	case 1:
		return Vec{-v.Y, v.X}
	case 2:
		return Vec{-v.X, -v.Y}
	case 3:
		return Vec{v.Y, -v.X}
	}
	return v
}

// mirror reflects the offset across the y axis.
func (v Vec) mirror() Vec {
	return Vec{-v.X, v.Y}
}
