package render

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

type Alignment int

const (
	Left   Alignment = 1
	Center Alignment = 2
	Right  Alignment = 3
)

// Font defines the parameters for rendering text on an image using GoCV
type Font struct {
	Face      gocv.HersheyFont
	Scale     float64
	Color     color.RGBA
	Thickness int
	LineType  gocv.LineType
	// Padding to place around text
	LeftPad   int
	RightPad  int
	TopPad    int
	BottomPad int
	// Alignment of the text label to the bounding box
	Alignment Alignment
}

// DefaultFont returns the small font track labels are drawn with
func DefaultFont() Font {
	return Font{
		Face:      gocv.FontHersheySimplex,
		Scale:     0.5,
		Color:     White,
		Thickness: 1,
		LineType:  gocv.LineAA,
		LeftPad:   4,
		RightPad:  4,
		TopPad:    4,
		BottomPad: 6,
		Alignment: Left,
	}
}

// CountFont returns the larger font used for the count banner
func CountFont() Font {
	f := DefaultFont()
	f.Scale = 1.0
	f.Thickness = 2
	f.LeftPad, f.RightPad, f.TopPad, f.BottomPad = 8, 8, 8, 8

	return f
}

// TextSize returns the width and height of the text without padding
func (f Font) TextSize(text string) image.Point {
	return gocv.GetTextSize(text, f.Face, f.Scale, f.Thickness)
}

// PaddedSize returns the size of the text including the font padding
func (f Font) PaddedSize(text string) image.Point {
	sz := f.TextSize(text)
	return image.Pt(sz.X+f.LeftPad+f.RightPad, sz.Y+f.TopPad+f.BottomPad)
}

// Put writes text with its baseline starting at origin in the given color
func (f Font) Put(img *gocv.Mat, text string, origin image.Point, clr color.RGBA) {
	gocv.PutTextWithParams(img, text, origin, f.Face, f.Scale, clr,
		f.Thickness, f.LineType, false)
}

// Label fills a padded background box with its top left corner at min and
// writes the text inside it in the font color.  The box drawn is returned.
func (f Font) Label(img *gocv.Mat, text string, min image.Point, background color.RGBA) image.Rectangle {

	sz := f.TextSize(text)
	box := image.Rectangle{Min: min, Max: min.Add(f.PaddedSize(text))}

	gocv.Rectangle(img, box, background, -1)
	f.Put(img, text, image.Pt(min.X+f.LeftPad, min.Y+f.TopPad+sz.Y), f.Color)

	return box
}
