package tracker

import (
	"fmt"
)

// Default BYTETracker settings
const (
	DefaultFrameRate   = 30
	DefaultTrackBuffer = 30
	DefaultTrackThresh = 0.5
	DefaultHighThresh  = 0.6
	DefaultMatchThresh = 0.8
)

// maxRemoved caps the number of removed tracks remembered
const maxRemoved = 1000

// BYTETracker represents the BYTE Tracker
type BYTETracker struct {
	// Threshold for tracking objects
	trackThresh float32
	// High threshold for tracking objects
	highThresh float32
	// Matching threshold for associations
	matchThresh float32
	// Maximum time an object can be lost before being remove
	maxTimeLost int
	// Current frame ID
	frameID int
	// Counter for assigning unique track IDs
	trackIDCount int
	// List of currently tracked objects
	trackedStracks []*STrack
	// List of lost objects
	lostStracks []*STrack
	// List of removed objects
	removedStracks []*STrack
}

// NewBYTETracker initializes and returns a new BYTETracker.  Detections
// scoring at least trackThresh take part in the first association, new
// tracks are only started from detections scoring at least highThresh.
func NewBYTETracker(frameRate int, trackBuffer int, trackThresh float32,
	highThresh float32, matchThresh float32) *BYTETracker {

	return &BYTETracker{
		trackThresh: trackThresh,
		highThresh:  highThresh,
		matchThresh: matchThresh,
		maxTimeLost: MaxTimeLost(frameRate, trackBuffer),
	}
}

// MaxTimeLost is the number of frames a BYTETracker keeps a lost track for
// a track buffer given at 30 FPS
func MaxTimeLost(frameRate, trackBuffer int) int {
	return int(float32(frameRate) / 30.0 * float32(trackBuffer))
}

// Reset clears the tracked data and resets everything
func (bt *BYTETracker) Reset() {
	bt.frameID = 0
	bt.trackIDCount = 0
	bt.trackedStracks = nil
	bt.lostStracks = nil
	bt.removedStracks = nil
}

// Update updates the tracker with new detections and returns the activated
// tracks
func (bt *BYTETracker) Update(objects []Object) ([]Identified, error) {

	stracks, err := bt.update(objects)

	if err != nil {
		return nil, err
	}

	out := make([]Identified, 0, len(stracks))

	for _, s := range stracks {
		out = append(out, s.Identified())
	}

	return out, nil
}

// update runs the BYTE association steps for one frame
func (bt *BYTETracker) update(objects []Object) ([]*STrack, error) {

	// Step 1: Get detections
	bt.frameID++

	// split detections by score, boxes the filter can not use are skipped
	var detStracks, detLowStracks []*STrack

	for _, object := range objects {

		if !object.Box.Valid() {
			continue
		}

		strack := NewSTrack(object)

		if object.Score >= bt.trackThresh {
			detStracks = append(detStracks, strack)
		} else {
			detLowStracks = append(detLowStracks, strack)
		}
	}

	// create lists of existing STrack
	var activeStracks, nonActiveStracks []*STrack

	for _, trackedStrack := range bt.trackedStracks {
		if !trackedStrack.IsActivated() {
			nonActiveStracks = append(nonActiveStracks, trackedStrack)
		} else {
			activeStracks = append(activeStracks, trackedStrack)
		}
	}

	strackPool := jointStracks(activeStracks, bt.lostStracks)

	// predict current pose by KF
	for _, strack := range strackPool {
		strack.Predict()
	}

	// Step 2: First association, with IoU
	var currentTrackedStracks, remainTrackedStracks, remainDetStracks, refindStracks []*STrack

	matchesIdx, unmatchTrackIdx, unmatchDetectionIdx, err := linearAssignment(
		iouDistance(strackPool, detStracks),
		len(strackPool), len(detStracks), float64(bt.matchThresh),
	)

	if err != nil {
		return nil, fmt.Errorf("fatal error in linearAssignment call, step 2: %w", err)
	}

	for _, matchIdx := range matchesIdx {

		track := strackPool[matchIdx[0]]
		det := detStracks[matchIdx[1]]

		if track.GetSTrackState() == Tracked {
			if err := track.Update(det, bt.frameID); err != nil {
				return nil, fmt.Errorf("step 2: %w", err)
			}
			currentTrackedStracks = append(currentTrackedStracks, track)
		} else {
			if err := track.ReActivate(det, bt.frameID); err != nil {
				return nil, fmt.Errorf("step 2: %w", err)
			}
			refindStracks = append(refindStracks, track)
		}
	}

	for _, unmatchIdx := range unmatchDetectionIdx {
		remainDetStracks = append(remainDetStracks, detStracks[unmatchIdx])
	}

	for _, unmatchIdx := range unmatchTrackIdx {
		if strackPool[unmatchIdx].GetSTrackState() == Tracked {
			remainTrackedStracks = append(remainTrackedStracks, strackPool[unmatchIdx])
		}
	}

	// Step 3: Second association, using low score dets
	var currentLostStracks []*STrack

	matchesIdx, unmatchTrackIdx, _, err = linearAssignment(
		iouDistance(remainTrackedStracks, detLowStracks),
		len(remainTrackedStracks), len(detLowStracks), 0.5,
	)

	if err != nil {
		return nil, fmt.Errorf("fatal error in linearAssignment call, step 3: %w", err)
	}

	for _, matchIdx := range matchesIdx {

		track := remainTrackedStracks[matchIdx[0]]
		det := detLowStracks[matchIdx[1]]

		if track.GetSTrackState() == Tracked {
			if err := track.Update(det, bt.frameID); err != nil {
				return nil, fmt.Errorf("step 3: %w", err)
			}
			currentTrackedStracks = append(currentTrackedStracks, track)
		} else {
			if err := track.ReActivate(det, bt.frameID); err != nil {
				return nil, fmt.Errorf("step 3: %w", err)
			}
			refindStracks = append(refindStracks, track)
		}
	}

	for _, unmatchTrack := range unmatchTrackIdx {
		track := remainTrackedStracks[unmatchTrack]
		if track.GetSTrackState() != Lost {
			track.MarkAsLost()
			currentLostStracks = append(currentLostStracks, track)
		}
	}

	// Step 4: Init new stracks
	var currentRemovedStracks []*STrack

	matchesIdx, unmatchUnconfirmedIdx, unmatchDetectionIdx, err := linearAssignment(
		iouDistance(nonActiveStracks, remainDetStracks),
		len(nonActiveStracks), len(remainDetStracks), 0.7,
	)

	if err != nil {
		return nil, fmt.Errorf("fatal error in linearAssignment call, step 4: %w", err)
	}

	for _, matchIdx := range matchesIdx {
		track := nonActiveStracks[matchIdx[0]]

		if err := track.Update(remainDetStracks[matchIdx[1]], bt.frameID); err != nil {
			return nil, fmt.Errorf("step 4: %w", err)
		}

		currentTrackedStracks = append(currentTrackedStracks, track)
	}

	for _, unmatchIdx := range unmatchUnconfirmedIdx {
		track := nonActiveStracks[unmatchIdx]
		track.MarkAsRemoved()
		currentRemovedStracks = append(currentRemovedStracks, track)
	}

	for _, unmatchIdx := range unmatchDetectionIdx {
		track := remainDetStracks[unmatchIdx]
		if track.GetScore() < bt.highThresh {
			continue
		}
		bt.trackIDCount++
		track.Activate(bt.frameID, bt.trackIDCount)
		currentTrackedStracks = append(currentTrackedStracks, track)
	}

	// Step 5: Update state
	for _, lostStrack := range bt.lostStracks {
		if bt.frameID-lostStrack.GetFrameID() > bt.maxTimeLost {
			lostStrack.MarkAsRemoved()
			currentRemovedStracks = append(currentRemovedStracks, lostStrack)
		}
	}

	bt.trackedStracks = jointStracks(currentTrackedStracks, refindStracks)
	bt.lostStracks = subStracks(jointStracks(subStracks(bt.lostStracks, bt.trackedStracks), currentLostStracks), bt.removedStracks)
	bt.removedStracks = jointStracks(bt.removedStracks, currentRemovedStracks)

	if len(bt.removedStracks) > maxRemoved {
		bt.removedStracks = bt.removedStracks[len(bt.removedStracks)-maxRemoved:]
	}

	bt.trackedStracks, bt.lostStracks = removeDuplicateStracks(bt.trackedStracks, bt.lostStracks)

	var outputStracks []*STrack

	for _, track := range bt.trackedStracks {
		if track.IsActivated() {
			outputStracks = append(outputStracks, track)
		}
	}

	return outputStracks, nil
}

// jointStracks combines two lists of tracks, avoiding duplicates
func jointStracks(aTlist []*STrack, bTlist []*STrack) []*STrack {

	// create a map to track the existence of track IDs
	exists := make(map[int]bool)
	var res []*STrack

	for _, track := range aTlist {
		exists[track.GetTrackID()] = true
		res = append(res, track)
	}

	for _, track := range bTlist {
		tid := track.GetTrackID()

		if !exists[tid] {
			exists[tid] = true
			res = append(res, track)
		}
	}

	return res
}

// subStracks returns aTlist without the tracks in bTlist, keeping order
func subStracks(aTlist []*STrack, bTlist []*STrack) []*STrack {

	drop := make(map[int]bool, len(bTlist))

	for _, track := range bTlist {
		drop[track.GetTrackID()] = true
	}

	var res []*STrack

	for _, track := range aTlist {
		if !drop[track.GetTrackID()] {
			res = append(res, track)
		}
	}

	return res
}

// removeDuplicateStracks drops the younger of any tracked and lost track
// pair that overlap almost completely
func removeDuplicateStracks(aStracks, bStracks []*STrack) (aRes, bRes []*STrack) {

	dist := iouDistance(aStracks, bStracks)

	aOverlapping := make([]bool, len(aStracks))
	bOverlapping := make([]bool, len(bStracks))

	for i := range dist {
		for j := range dist[i] {
			if dist[i][j] >= 0.15 {
				continue
			}

			timep := aStracks[i].GetFrameID() - aStracks[i].GetStartFrameID()
			timeq := bStracks[j].GetFrameID() - bStracks[j].GetStartFrameID()

			if timep > timeq {
				bOverlapping[j] = true
			} else {
				aOverlapping[i] = true
			}
		}
	}

	for i, overlapping := range aOverlapping {
		if !overlapping {
			aRes = append(aRes, aStracks[i])
		}
	}

	for i, overlapping := range bOverlapping {
		if !overlapping {
			bRes = append(bRes, bStracks[i])
		}
	}

	return aRes, bRes
}

// iouDistance returns the 1-IoU cost matrix between two sets of tracks
func iouDistance(aTracks, bTracks []*STrack) [][]float64 {

	if len(aTracks) == 0 || len(bTracks) == 0 {
		return nil
	}

	cost := make([][]float64, len(aTracks))

	for i, a := range aTracks {
		cost[i] = make([]float64, len(bTracks))

		for j, b := range bTracks {
			cost[i][j] = 1 - b.Box().IoU(a.Box())
		}
	}

	return cost
}
