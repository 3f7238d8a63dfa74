package tracker

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/swdee/go-zonecount/geometry"
)

// STrackState represents the state of a tracked object
type STrackState int

const (
	// Object is newly detected
	New STrackState = 0
	// Object is currently being tracked
	Tracked STrackState = 1
	// Object has been lost
	Lost STrackState = 2
	// Object has been removed
	Removed STrackState = 3
)

// STrack represents a single track of an object
type STrack struct {
	// Kalman filter used for tracking
	kalmanFilter *KalmanFilter
	// Mean state vector
	mean StateMean
	// Covariance matrix
	covariance StateCov
	// box is the Kalman filtered bounding box of the tracked object
	box geometry.Box
	// obj is the most recent detection associated with the track
	obj Object
	// Current state of the track
	state STrackState
	// Whether the track is activated
	isActivated bool
	// Unique ID for the track
	trackID int
	// Current frame ID
	frameID int
	// Frame ID when the track started
	startFrameID int
	// Length of the tracklet
	trackletLen int
}

// NewSTrack creates a new STrack from a detected object
func NewSTrack(obj Object) *STrack {
	return &STrack{
		kalmanFilter: NewKalmanFilter(1.0/20, 1.0/160),
		mean:         make(StateMean, 8),
		covariance:   StateCov{mat.NewDense(8, 8, nil)},
		box:          obj.Box,
		obj:          obj,
		state:        New,
	}
}

// Box returns the filtered bounding box of the tracked object
func (s *STrack) Box() geometry.Box {
	return s.box
}

// GetSTrackState returns the current state of the track
func (s *STrack) GetSTrackState() STrackState {
	return s.state
}

// IsActivated returns whether the track is activated
func (s *STrack) IsActivated() bool {
	return s.isActivated
}

// GetScore returns the score of the most recent detection
func (s *STrack) GetScore() float32 {
	return s.obj.Score
}

// GetTrackID returns the unique ID for the track
func (s *STrack) GetTrackID() int {
	return s.trackID
}

// GetFrameID returns the frame the track was last updated in
func (s *STrack) GetFrameID() int {
	return s.frameID
}

// GetDetectionID returns the ID of the most recent detection
func (s *STrack) GetDetectionID() int64 {
	return s.obj.DetectionID
}

// GetStartFrameID returns the frame ID when the track started
func (s *STrack) GetStartFrameID() int {
	return s.startFrameID
}

// GetTrackletLength returns the length of the tracklet
func (s *STrack) GetTrackletLength() int {
	return s.trackletLen
}

// Identified returns the track as an Identified object carrying the filtered
// box and the class and score of the latest detection
func (s *STrack) Identified() Identified {
	obj := s.obj
	obj.Box = s.box

	return Identified{Object: obj, TrackID: s.trackID}
}

// Activate initializes the track with the given frame ID and track ID
func (s *STrack) Activate(frameID, trackID int) {

	s.kalmanFilter.Initiate(s.mean, &s.covariance, xyah(s.box))

	s.updateBox()

	s.state = Tracked

	if frameID == 1 {
		s.isActivated = true
	}

	s.trackID = trackID
	s.frameID = frameID
	s.startFrameID = frameID
	s.trackletLen = 0
}

// ReActivate continues a lost track with a new detection
func (s *STrack) ReActivate(newTrack *STrack, frameID int) error {

	err := s.kalmanFilter.Update(s.mean, &s.covariance, xyah(newTrack.box))

	if err != nil {
		return fmt.Errorf("error reactivating track %d: %w", s.trackID, err)
	}

	s.updateBox()

	s.state = Tracked
	s.isActivated = true
	s.obj = newTrack.obj
	s.frameID = frameID
	s.trackletLen = 0

	return nil
}

// Predict predicts the next state of the track
func (s *STrack) Predict() {
	if s.state != Tracked {
		s.mean[7] = 0
	}

	s.kalmanFilter.Predict(s.mean, &s.covariance)
}

// Update updates the track with a new detection
func (s *STrack) Update(newTrack *STrack, frameID int) error {

	err := s.kalmanFilter.Update(s.mean, &s.covariance, xyah(newTrack.box))

	if err != nil {
		return fmt.Errorf("error updating track %d: %w", s.trackID, err)
	}

	s.updateBox()

	s.state = Tracked
	s.isActivated = true
	s.obj = newTrack.obj
	s.frameID = frameID
	s.trackletLen++

	return nil
}

// MarkAsLost marks the track as lost
func (s *STrack) MarkAsLost() {
	s.state = Lost
}

// MarkAsRemoved marks the track as removed
func (s *STrack) MarkAsRemoved() {
	s.state = Removed
}

// updateBox sets the bounding box from the filter's state mean
func (s *STrack) updateBox() {
	h := s.mean[3]
	w := s.mean[2] * h

	s.box = geometry.NewBox(s.mean[0]-w/2, s.mean[1]-h/2, w, h)
}

// xyah converts a box to the (center x, center y, aspect ratio, height)
// measurement the Kalman filter works in
func xyah(b geometry.Box) DetectBox {
	c := b.Center()
	return DetectBox{c.X, c.Y, b.Width() / b.Height(), b.Height()}
}
