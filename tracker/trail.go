package tracker

import (
	"sync"

	"github.com/swdee/go-zonecount/geometry"
)

// trackHistory represents the centroid history of a single track
type trackHistory struct {
	points    []geometry.Point
	lastFrame int
}

// Trail is the struct to keep a history of track centroids used for drawing
// a trail
type Trail struct {
	// size is the maximum number of most recent points to keep in history,
	// it is also the number of frames a vanished track's history is kept
	size int
	// history of tracked points keyed by track ID
	history map[int]*trackHistory
	sync.Mutex
}

// NewTrail returns a new trail history track instance.  Size is the number
// of most recent points to keep and specifies the maximum length of the trail
// to maintain
func NewTrail(size int) *Trail {
	return &Trail{
		size:    size,
		history: make(map[int]*trackHistory),
	}
}

// Reset clears all history
func (t *Trail) Reset() {
	t.Lock()
	defer t.Unlock()

	t.history = make(map[int]*trackHistory)
}

// Add a track's centroid seen at the given frame to the history
func (t *Trail) Add(frame int, track Track) {
	t.Lock()
	defer t.Unlock()

	if t.size <= 0 {
		return
	}

	h, exists := t.history[track.ID]

	if !exists {
		h = &trackHistory{}
		t.history[track.ID] = h
	}

	h.points = append(h.points, track.Centroid)
	h.lastFrame = frame

	// check if history is exceeded and drop oldest point
	if len(h.points) > t.size {
		h.points = h.points[1:]
	}
}

// Expire drops the history of tracks not seen within the last size frames
func (t *Trail) Expire(frame int) {
	t.Lock()
	defer t.Unlock()

	for id, h := range t.history {
		if frame-h.lastFrame > t.size {
			delete(t.history, id)
		}
	}
}

// GetPoints gets a copy of the point history for a specific track id
func (t *Trail) GetPoints(id int) []geometry.Point {
	t.Lock()
	defer t.Unlock()

	if h, exists := t.history[id]; exists {
		return append([]geometry.Point(nil), h.points...)
	}

	// no history yet
	return nil
}
