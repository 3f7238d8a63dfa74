package tracker

import "github.com/swdee/go-zonecount/geometry"

// Tracker is implemented by any multi-object tracker that assigns a
// persistent ID to the detections of each frame.  Update must be called once
// for every frame, including frames with no detections.
type Tracker interface {
	// Update associates the current frame's objects with existing tracks and
	// returns the objects currently being tracked
	Update(objects []Object) ([]Identified, error)
	// Reset clears all tracks so IDs start again
	Reset()
}

// Object represents an object detected and passed to a Tracker
type Object struct {
	// Box is the bounding box of the detected object
	Box geometry.Box
	// Class is the class index of the object detected
	Class int
	// Label is the class name of the object detected
	Label string
	// Score is the confidence/probability of the object detected
	Score float32
	// DetectionID is a unique ID which can be used to match the input
	// detection object and tracked object
	DetectionID int64
}

// Identified is an Object the tracker has associated with a persistent
// track ID
type Identified struct {
	Object
	// TrackID is the positive identifier assigned by the tracker
	TrackID int
}
