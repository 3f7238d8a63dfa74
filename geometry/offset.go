package geometry

import (
	"errors"
	"math"

	clipper "github.com/ctessum/go.clipper"
)

// ErrEmptyOffset is returned when shrinking a polygon removes it entirely
var ErrEmptyOffset = errors.New("polygon offset produced no area")

// Offset grows the polygon outward by margin pixels, or shrinks it when margin
// is negative, using round joins.  Vertices are snapped to whole pixels.  If
// the offset splits the polygon the largest piece is returned.
func (p Polygon) Offset(margin float64) (Polygon, error) {

	if err := p.Validate(); err != nil {
		return nil, err
	}

	if margin == 0 {
		return append(Polygon(nil), p...), nil
	}

	// convert the zone to a Clipper Path
	var path clipper.Path

	for _, pt := range p.Normalize() {
		path = append(path, &clipper.IntPoint{
			X: clipper.CInt(math.Round(pt.X)),
			Y: clipper.CInt(math.Round(pt.Y)),
		})
	}

	co := clipper.NewClipperOffset()
	co.AddPath(path, clipper.JtRound, clipper.EtClosedPolygon)

	solution := co.Execute(margin)

	var best Polygon

	for _, sol := range solution {
		poly := make(Polygon, 0, len(sol))

		for _, pt := range sol {
			poly = append(poly, Point{X: float64(pt.X), Y: float64(pt.Y)})
		}

		if poly.Area() > best.Area() {
			best = poly
		}
	}

	if best.Area() == 0 {
		return nil, ErrEmptyOffset
	}

	return best, nil
}
