// Package pipeline connects a detector's per frame output to the zone
// counters.  Detections are filtered to the target class, passed to a
// tracker for persistent IDs, reduced to centroids by the track registry and
// then tested against every zone.
//
// A Pipeline carries state from one frame to the next and must be fed frames
// in arrival order from a single goroutine.
package pipeline

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/swdee/go-zonecount/postprocess"
	"github.com/swdee/go-zonecount/tracker"
	"github.com/swdee/go-zonecount/zone"
)

// ZoneCount is the per zone outcome of a frame
type ZoneCount = zone.Result

// FrameResult is the outcome of processing the detections of one frame
type FrameResult struct {
	// Frame is the number of frames processed including this one
	Frame int
	// Zones holds the counts of each zone in configuration order
	Zones []ZoneCount
	// Tracks are the filtered and identified objects of the frame
	Tracks []tracker.Track
	// CurrentlyInside is the number of distinct tracks inside any zone
	CurrentlyInside int
	// TotalSeen is the number of distinct tracks ever inside any zone
	TotalSeen int
	// Overlay describes what to draw on the frame
	Overlay Overlay
}

// Pipeline is the per frame entry point for zone counting
type Pipeline struct {
	filter   *postprocess.ClassFilter
	tracker  tracker.Tracker
	registry *tracker.Registry
	counters *zone.MultiCounter
	// seen is the union of every zone's seen set
	seen  map[int]struct{}
	frame int
	log   logrus.FieldLogger
}

// New returns a Pipeline.  The registry may be nil in which case one without
// a trail is created.
func New(filter *postprocess.ClassFilter, trk tracker.Tracker,
	reg *tracker.Registry, counters *zone.MultiCounter) (*Pipeline, error) {

	if filter == nil || trk == nil || counters == nil {
		return nil, fmt.Errorf("pipeline requires a filter, tracker and zone counters")
	}

	if reg == nil {
		reg = tracker.NewRegistry(nil, tracker.DefaultRetain)
	}

	return &Pipeline{
		filter:   filter,
		tracker:  trk,
		registry: reg,
		counters: counters,
		seen:     make(map[int]struct{}),
		log:      logrus.StandardLogger(),
	}, nil
}

// SetLogger replaces the logger, which defaults to the logrus standard
// logger
func (p *Pipeline) SetLogger(l logrus.FieldLogger) {
	p.log = l
}

// Zones returns the counted zones in configuration order
func (p *Pipeline) Zones() []zone.Zone {
	return p.counters.Zones()
}

// Frames returns the number of frames successfully processed
func (p *Pipeline) Frames() int {
	return p.frame
}

// Process runs the detections of the next frame through the class filter,
// tracker, registry and zone counters.  An empty detection list is a frame
// with nobody in it.  If the tracker fails the error is returned and the
// frame is not counted.
func (p *Pipeline) Process(dets []postprocess.Detection) (FrameResult, error) {

	kept, malformed := p.filter.Apply(dets)

	if malformed > 0 {
		p.log.WithField("frame", p.frame+1).
			Warnf("dropped %d detections with malformed boxes", malformed)
	}

	identified, err := p.tracker.Update(tracker.DetectionsToObjects(kept))

	if err != nil {
		return FrameResult{}, fmt.Errorf("tracker update on frame %d: %w", p.frame+1, err)
	}

	tracks := p.registry.Update(identified)

	points := make([]zone.TrackPoint, len(tracks))

	for i, trk := range tracks {
		points[i] = zone.TrackPoint{ID: trk.ID, Centroid: trk.Centroid}
	}

	counts := p.counters.Update(points)

	p.frame++

	res := FrameResult{
		Frame:  p.frame,
		Zones:  counts,
		Tracks: tracks,
	}

	inside := make(map[int]struct{})

	for _, zc := range counts {
		for _, id := range zc.Inside {
			inside[id] = struct{}{}
		}
		for _, id := range zc.NewlySeen {
			p.seen[id] = struct{}{}
		}
	}

	res.CurrentlyInside = len(inside)
	res.TotalSeen = len(p.seen)
	res.Overlay = p.overlay(res)

	p.log.WithFields(logrus.Fields{
		"frame":  res.Frame,
		"tracks": len(tracks),
		"inside": res.CurrentlyInside,
		"seen":   res.TotalSeen,
	}).Debug("frame counted")

	return res, nil
}

// Reset clears the tracker, registry and counters to start a new video
func (p *Pipeline) Reset() {
	p.tracker.Reset()
	p.registry.Reset()
	p.counters.Reset()
	p.seen = make(map[int]struct{})
	p.frame = 0
}
