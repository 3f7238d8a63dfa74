package tracker

import (
	"fmt"
	"sort"
)

// DefaultIoUThreshold is the minimum overlap for a detection to continue a
// track
const DefaultIoUThreshold = 0.3

// DefaultMaxLost is the number of frames a track may go unmatched before it
// is removed
const DefaultMaxLost = 30

// IOUTracker is a minimal tracker that continues a track with the detection
// of the same class that overlaps its last box the most.  There is no motion
// model, so fast movers or long occlusions produce a new ID.
type IOUTracker struct {
	// iouThreshold is the minimum IoU to associate a detection with a track
	iouThreshold float64
	// maxLost is the number of frames a track can be lost before removal
	maxLost int
	// frameID is the current frame number
	frameID int
	// trackIDCount is a counter for assigning unique track IDs
	trackIDCount int
	// tracks holds both tracked and lost tracks
	tracks []*iouTrack
}

// iouTrack is the state kept for a single track
type iouTrack struct {
	id   int
	obj  Object
	lost int
}

// NewIOUTracker returns a tracker with the given association threshold and
// lost frame limit
func NewIOUTracker(iouThreshold float64, maxLost int) (*IOUTracker, error) {

	if iouThreshold <= 0 || iouThreshold > 1 {
		return nil, fmt.Errorf("iou threshold %v must be in (0,1]", iouThreshold)
	}

	if maxLost < 0 {
		return nil, fmt.Errorf("max lost %d must not be negative", maxLost)
	}

	return &IOUTracker{
		iouThreshold: iouThreshold,
		maxLost:      maxLost,
	}, nil
}

// Reset clears the tracked data and resets everything
func (t *IOUTracker) Reset() {
	t.frameID = 0
	t.trackIDCount = 0
	t.tracks = nil
}

// candidate is a possible track and detection pairing
type candidate struct {
	track, det int
	iou        float64
}

// Update updates the tracker with new detections
func (t *IOUTracker) Update(objects []Object) ([]Identified, error) {

	t.frameID++

	// score every same class pairing above the threshold
	var cands []candidate

	for ti, trk := range t.tracks {
		for di, obj := range objects {

			if obj.Class != trk.obj.Class {
				continue
			}

			if iou := trk.obj.Box.IoU(obj.Box); iou >= t.iouThreshold {
				cands = append(cands, candidate{track: ti, det: di, iou: iou})
			}
		}
	}

	// greedy assignment, highest overlap first
	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].iou > cands[j].iou
	})

	trackUsed := make([]bool, len(t.tracks))
	detUsed := make([]bool, len(objects))

	for _, c := range cands {
		if trackUsed[c.track] || detUsed[c.det] {
			continue
		}

		trackUsed[c.track] = true
		detUsed[c.det] = true

		trk := t.tracks[c.track]
		trk.obj = objects[c.det]
		trk.lost = 0
	}

	// age unmatched tracks and drop those lost for too long
	kept := t.tracks[:0]

	for ti, trk := range t.tracks {
		if !trackUsed[ti] {
			trk.lost++
		}

		if trk.lost > t.maxLost {
			continue
		}

		kept = append(kept, trk)
	}

	t.tracks = kept

	// init new tracks from unmatched detections
	for di, obj := range objects {
		if detUsed[di] || !obj.Box.Valid() {
			continue
		}

		t.trackIDCount++
		t.tracks = append(t.tracks, &iouTrack{id: t.trackIDCount, obj: obj})
	}

	var out []Identified

	for _, trk := range t.tracks {
		if trk.lost == 0 {
			out = append(out, Identified{Object: trk.obj, TrackID: trk.id})
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].TrackID < out[j].TrackID
	})

	return out, nil
}

