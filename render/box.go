package render

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/swdee/go-zonecount/pipeline"
)

// boxLabel holds the precalculated position of a label so all labels can be
// drawn after the boxes
type boxLabel struct {
	min  image.Point
	clr  color.RGBA
	text string
}

// TrackBoxes renders the bounding box, ID label and centroid of each tracked
// object.  With HighlightInside set, tracks inside a zone are drawn in that
// zone's color, or InsideColor if it has none, and the rest use the per track
// palette.
func TrackBoxes(img *gocv.Mat, tracks []pipeline.TrackBox, style Style) {

	font := style.Font

	// keep a record of all box labels for later rendering
	boxLabels := make([]boxLabel, 0, len(tracks))

	for _, trk := range tracks {

		rect := trk.Box.Rect()

		useClr := trackColor(trk.ID)

		if style.HighlightInside && trk.Inside {
			useClr = ZoneColor(trk.ZoneColor, style.InsideColor)
		}

		gocv.Rectangle(img, rect, useClr, style.LineThickness)

		textSize := font.TextSize(trk.Label)

		// Calculate the alignment of text label
		var centerX int

		switch font.Alignment {
		case Center:
			centerX = (rect.Min.X + rect.Max.X) / 2

		case Right:
			centerX = rect.Max.X - (textSize.X / 2) - font.RightPad + (style.LineThickness / 2)

		case Left:
			fallthrough
		default:
			centerX = rect.Min.X + (textSize.X / 2) + font.LeftPad - (style.LineThickness / 2)
		}

		boxLabels = append(boxLabels, boxLabel{
			min: image.Pt(centerX-textSize.X/2-font.LeftPad,
				rect.Min.Y-textSize.Y-font.TopPad-font.BottomPad),
			clr:  useClr,
			text: trk.Label,
		})

		// centroid used for the zone test
		gocv.Circle(img, trk.Centroid.ImagePoint(), style.CentroidRadius, useClr, -1)
	}

	// draw labels last so they are the top most layer and are not covered by
	// neighbouring boxes
	for _, box := range boxLabels {
		font.Label(img, box.text, box.min, box.clr)
	}
}
