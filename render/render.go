// Package render draws a frame's counting overlay onto an image with GoCV
package render

import (
	"image/color"

	"gocv.io/x/gocv"

	"github.com/swdee/go-zonecount/pipeline"
)

// Style collects the rendering settings for an overlay
type Style struct {
	Font Font
	// CountFont is used for the count banner
	CountFont       Font
	CountBackground color.RGBA
	LineThickness   int
	CentroidRadius  int
	// HighlightInside draws tracks inside a zone in the zone's color
	HighlightInside bool
	// InsideColor and ZoneColor are used for zones without a color index
	InsideColor       color.RGBA
	ZoneColor         color.RGBA
	ZoneThickness     int
	OccupiedThickness int
	// DrawTrail enables drawing of track centroid history
	DrawTrail bool
	Trail     TrailStyle
}

// DefaultStyle returns default overlay style settings
func DefaultStyle() Style {
	return Style{
		Font:              DefaultFont(),
		CountFont:         CountFont(),
		CountBackground:   Purple,
		LineThickness:     2,
		CentroidRadius:    4,
		HighlightInside:   true,
		InsideColor:       Green,
		ZoneColor:         White,
		ZoneThickness:     2,
		OccupiedThickness: 4,
		DrawTrail:         true,
		Trail:             DefaultTrailStyle(),
	}
}

// Overlay draws the zones, trails, track boxes and count text of a frame in
// that order
func Overlay(img *gocv.Mat, ov pipeline.Overlay, style Style) {

	Zones(img, ov.Zones, style)

	if style.DrawTrail {
		Trail(img, ov.Tracks, style.Trail)
	}

	TrackBoxes(img, ov.Tracks, style)
	Counts(img, ov.Text, style.CountFont, style.CountBackground)
}
