// Package zone counts tracked objects inside fixed polygon regions of a video
// frame.
//
// Each Counter owns two sets of track IDs.  The occupancy set holds the IDs
// whose centroid is inside the zone in the most recent frame and is rebuilt
// from scratch on every update.  The seen set holds every ID that has ever
// been inside the zone and only grows, so an object leaving and re-entering
// with the same ID is counted once.  The occupancy set is always a subset of
// the seen set.
//
// IDs are taken from the tracker as is.  If the tracker reuses an ID for a
// different object after a long absence, that object is not counted again.
package zone

import (
	"fmt"

	"github.com/swdee/go-zonecount/geometry"
)

// DefaultName is used for a zone configured without a name
const DefaultName = "zone"

// NoColor is the color index of a zone drawn in the default zone color
const NoColor = -1

// Zone is a named, immutable polygon region
type Zone struct {
	Name    string
	Polygon geometry.Polygon
	// Color is the display palette index of the zone, NoColor if unset
	Color int
}

// New validates the polygon and returns a Zone.  A non zero margin grows or
// shrinks the polygon by that many pixels.
func New(name string, poly geometry.Polygon, margin float64) (Zone, error) {

	if name == "" {
		name = DefaultName
	}

	if err := poly.Validate(); err != nil {
		return Zone{}, fmt.Errorf("zone %q: %w", name, err)
	}

	poly = poly.Normalize()

	if margin != 0 {
		var err error
		poly, err = poly.Offset(margin)

		if err != nil {
			return Zone{}, fmt.Errorf("zone %q margin %v: %w", name, margin, err)
		}
	}

	return Zone{Name: name, Polygon: poly, Color: NoColor}, nil
}

// WithColor returns a copy of the zone with the display color index set
func (z Zone) WithColor(idx int) Zone {
	if idx < 0 {
		idx = NoColor
	}

	z.Color = idx

	return z
}

// Contains reports whether the point is inside the zone
func (z Zone) Contains(p geometry.Point) bool {
	return geometry.Contains(z.Polygon, p)
}
