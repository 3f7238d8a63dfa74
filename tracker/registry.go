package tracker

import (
	"sort"

	"github.com/swdee/go-zonecount/geometry"
)

// Track is a tracked object as known to the Registry for the current frame
type Track struct {
	// ID is the identifier assigned by the external tracker
	ID int
	// Box is the current bounding box
	Box geometry.Box
	// Centroid is the center of Box and the point tested against zones
	Centroid geometry.Point
	Class    int
	Label    string
	Score    float32
	// DetectionID links back to the detection the track was updated with
	DetectionID int64
	// LastFrame is the frame number the track was last seen in
	LastFrame int
}

// Registry keeps the set of track IDs known in the current frame and their
// last seen centroid.  It has no identity logic of its own and trusts the
// IDs provided by the tracker completely.
type Registry struct {
	// frame is the number of frames consumed so far
	frame int
	// current holds the tracks of the most recent frame
	current map[int]Track
	// lastSeen holds the most recent state of IDs seen within retain frames
	lastSeen map[int]Track
	// retain is the number of frames a vanished ID's state is kept
	retain int
	// trail optionally records centroid history for rendering
	trail *Trail
}

// DefaultRetain is the number of frames the last state of a vanished track
// is kept for
const DefaultRetain = DefaultMaxLost

// NewRegistry returns an empty registry.  Trail may be nil.  The last seen
// state of an ID is dropped once it has been absent for more than retain
// frames, which should cover how long the tracker may resume a lost ID.
func NewRegistry(trail *Trail, retain int) *Registry {

	if retain < 0 {
		retain = 0
	}

	return &Registry{
		current:  make(map[int]Track),
		lastSeen: make(map[int]Track),
		retain:   retain,
		trail:    trail,
	}
}

// Update consumes the identified objects of one frame, replacing the set of
// known tracks, and returns them with their centroids in input order.  If an
// ID appears more than once in a frame the last occurrence wins.
func (r *Registry) Update(frame []Identified) []Track {

	r.frame++
	r.current = make(map[int]Track, len(frame))

	out := make([]Track, 0, len(frame))
	pos := make(map[int]int, len(frame))

	for _, obj := range frame {

		trk := Track{
			ID:          obj.TrackID,
			Box:         obj.Box,
			Centroid:    obj.Box.Center(),
			Class:       obj.Class,
			Label:       obj.Label,
			Score:       obj.Score,
			DetectionID: obj.DetectionID,
			LastFrame:   r.frame,
		}

		if i, dup := pos[trk.ID]; dup {
			out[i] = trk
		} else {
			pos[trk.ID] = len(out)
			out = append(out, trk)
		}

		r.current[trk.ID] = trk
		r.lastSeen[trk.ID] = trk
	}

	for id, trk := range r.lastSeen {
		if r.frame-trk.LastFrame > r.retain {
			delete(r.lastSeen, id)
		}
	}

	if r.trail != nil {
		for _, trk := range out {
			r.trail.Add(r.frame, trk)
		}
		r.trail.Expire(r.frame)
	}

	return out
}

// Frame returns the number of frames consumed
func (r *Registry) Frame() int {
	return r.frame
}

// Known returns the sorted IDs present in the most recent frame
func (r *Registry) Known() []int {

	ids := make([]int, 0, len(r.current))

	for id := range r.current {
		ids = append(ids, id)
	}

	sort.Ints(ids)

	return ids
}

// Current returns the track for id if it is present in the most recent frame
func (r *Registry) Current(id int) (Track, bool) {
	trk, ok := r.current[id]
	return trk, ok
}

// LastSeen returns the most recent state of id, even if it has since left,
// for as long as it is retained
func (r *Registry) LastSeen(id int) (Track, bool) {
	trk, ok := r.lastSeen[id]
	return trk, ok
}

// Trail returns the centroid trail, may be nil
func (r *Registry) Trail() *Trail {
	return r.trail
}

// Reset forgets all tracks and restarts the frame count
func (r *Registry) Reset() {
	r.frame = 0
	r.current = make(map[int]Track)
	r.lastSeen = make(map[int]Track)

	if r.trail != nil {
		r.trail.Reset()
	}
}
