package geometry

import (
	"image"
	"math"
)

// Point is an x,y coordinate in pixel space
type Point struct {
	X, Y float64
}

// Pt is shorthand for Point{X: x, Y: y}
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Finite reports whether both coordinates are real numbers
func (p Point) Finite() bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) &&
		!math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}

// ImagePoint rounds the point to the nearest integer pixel
func (p Point) ImagePoint() image.Point {
	return image.Pt(int(math.Round(p.X)), int(math.Round(p.Y)))
}

// Box is an axis aligned bounding box with X1,Y1 the top left corner and
// X2,Y2 the bottom right corner
type Box struct {
	X1, Y1, X2, Y2 float64
}

// NewBox returns a Box from its top left corner, width and height
func NewBox(x, y, width, height float64) Box {
	return Box{X1: x, Y1: y, X2: x + width, Y2: y + height}
}

// Width of the box
func (b Box) Width() float64 {
	return b.X2 - b.X1
}

// Height of the box
func (b Box) Height() float64 {
	return b.Y2 - b.Y1
}

// Valid reports whether the box has finite coordinates with X1<X2 and Y1<Y2
func (b Box) Valid() bool {
	if !Pt(b.X1, b.Y1).Finite() || !Pt(b.X2, b.Y2).Finite() {
		return false
	}

	return b.X1 < b.X2 && b.Y1 < b.Y2
}

// Center returns the centroid of the box
func (b Box) Center() Point {
	return Point{
		X: (b.X1 + b.X2) / 2,
		Y: (b.Y1 + b.Y2) / 2,
	}
}

// Rect converts the box to an integer image.Rectangle for drawing
func (b Box) Rect() image.Rectangle {
	return image.Rect(int(b.X1), int(b.Y1), int(b.X2), int(b.Y2))
}

// IoU calculates the Intersection over Union with another box.  Pixel
// extents are inclusive so a box from 0 to 9 is 10 pixels wide.
func (b Box) IoU(other Box) float64 {

	iw := math.Min(b.X2, other.X2) - math.Max(b.X1, other.X1) + 1

	if iw <= 0 {
		return 0
	}

	ih := math.Min(b.Y2, other.Y2) - math.Max(b.Y1, other.Y1) + 1

	if ih <= 0 {
		return 0
	}

	inter := iw * ih
	union := (b.Width()+1)*(b.Height()+1) + (other.Width()+1)*(other.Height()+1) - inter

	if union <= 0 {
		return 0
	}

	return inter / union
}
