package render

import (
	"image/color"

	"gocv.io/x/gocv"

	"github.com/swdee/go-zonecount/pipeline"
)

// TrailStyle defines the parameters used for rendering the trail style
type TrailStyle struct {
	// LineSame defines if the color of the trail line should be the
	// same color as that of the bounding box.  If set to false then use
	// the color specified at LineColor
	LineSame      bool
	LineColor     color.RGBA
	LineThickness int
}

// DefaultTrailStyle returns default trail style settings
func DefaultTrailStyle() TrailStyle {
	return TrailStyle{
		LineSame:      false,
		LineColor:     Yellow,
		LineThickness: 1,
	}
}

// Trail draws the centroid history of each track
func Trail(img *gocv.Mat, tracks []pipeline.TrackBox, style TrailStyle) {

	for _, trk := range tracks {

		if len(trk.Trail) < 2 {
			continue
		}

		lineClr := style.LineColor

		if style.LineSame {
			lineClr = trackColor(trk.ID)
		}

		for i := 1; i < len(trk.Trail); i++ {
			gocv.Line(img,
				trk.Trail[i-1].ImagePoint(),
				trk.Trail[i].ImagePoint(),
				lineClr, style.LineThickness,
			)
		}
	}
}
