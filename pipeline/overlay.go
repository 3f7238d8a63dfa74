package pipeline

import (
	"fmt"

	"github.com/swdee/go-zonecount/geometry"
	"github.com/swdee/go-zonecount/zone"
)

// Overlay is the drawable data for a frame, rendering is left to the caller
type Overlay struct {
	Zones  []ZoneOutline
	Tracks []TrackBox
	// Text are the count lines to print at the top of the frame
	Text []string
}

// ZoneOutline is a zone polygon to draw
type ZoneOutline struct {
	Name    string
	Polygon geometry.Polygon
	// Color is the zone's display palette index, zone.NoColor if unset
	Color int
	// Occupied is true when at least one track is inside the zone
	Occupied bool
}

// TrackBox is a tracked object to draw
type TrackBox struct {
	ID       int
	Box      geometry.Box
	Centroid geometry.Point
	// Label is the text to draw above the box
	Label string
	// Inside is true when the centroid is inside any zone
	Inside bool
	// ZoneColor is the color index of the first zone containing the
	// centroid, zone.NoColor when outside every zone
	ZoneColor int
	// Trail is the recent centroid history, oldest first
	Trail []geometry.Point
}

// overlay builds the drawing instructions for a counted frame
func (p *Pipeline) overlay(res FrameResult) Overlay {

	ov := Overlay{}
	zones := p.counters.Zones()

	// color of the first zone in configuration order holding each track
	colorOf := make(map[int]int)

	for i, z := range zones {
		ov.Zones = append(ov.Zones, ZoneOutline{
			Name:     z.Name,
			Polygon:  z.Polygon,
			Color:    z.Color,
			Occupied: res.Zones[i].CurrentlyInside > 0,
		})

		for _, id := range res.Zones[i].Inside {
			if _, ok := colorOf[id]; !ok {
				colorOf[id] = z.Color
			}
		}
	}

	trail := p.registry.Trail()

	for _, trk := range res.Tracks {
		clr, in := colorOf[trk.ID]

		if !in {
			clr = zone.NoColor
		}

		tb := TrackBox{
			ID:        trk.ID,
			Box:       trk.Box,
			Centroid:  trk.Centroid,
			Label:     fmt.Sprintf("%d", trk.ID),
			Inside:    in,
			ZoneColor: clr,
		}

		if trk.Label != "" {
			tb.Label = fmt.Sprintf("%s %d", trk.Label, trk.ID)
		}

		if trail != nil {
			tb.Trail = trail.GetPoints(trk.ID)
		}

		ov.Tracks = append(ov.Tracks, tb)
	}

	if len(res.Zones) == 1 {
		ov.Text = append(ov.Text, fmt.Sprintf("People in Region: %d", res.CurrentlyInside))
	} else {
		for _, zc := range res.Zones {
			ov.Text = append(ov.Text, fmt.Sprintf("People in %s: %d", zc.Name, zc.CurrentlyInside))
		}
	}

	ov.Text = append(ov.Text, fmt.Sprintf("Total People Detected: %d", res.TotalSeen))

	return ov
}
