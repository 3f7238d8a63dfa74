package render

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// Counts writes each line of text on a filled background along the top left
// of the image, one line below the other
func Counts(img *gocv.Mat, lines []string, font Font, background color.RGBA) {

	y := 0

	for _, text := range lines {
		box := font.Label(img, text, image.Pt(0, y), background)
		y = box.Max.Y
	}
}
