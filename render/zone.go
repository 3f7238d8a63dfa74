package render

import (
	"image"

	"gocv.io/x/gocv"

	"github.com/swdee/go-zonecount/pipeline"
)

// Zones draws the outline of each zone in its palette color with its name
// at the first vertex.  Occupied zones are drawn with OccupiedThickness.
func Zones(img *gocv.Mat, zones []pipeline.ZoneOutline, style Style) {

	for _, z := range zones {

		if len(z.Polygon) < 3 {
			continue
		}

		pts := make([]image.Point, len(z.Polygon))

		for i, p := range z.Polygon {
			pts[i] = p.ImagePoint()
		}

		clr := ZoneColor(z.Color, style.ZoneColor)
		thickness := style.ZoneThickness

		if z.Occupied {
			thickness = style.OccupiedThickness
		}

		pv := gocv.NewPointsVectorFromPoints([][]image.Point{pts})
		gocv.Polylines(img, pv, true, clr, thickness)
		pv.Close()

		style.Font.Put(img, z.Name, pts[0].Add(image.Pt(4, -6)), clr)
	}
}
