package postprocess

import "sync/atomic"

// IDGenerator hands out incremental detection IDs starting at 1.  It is safe
// for concurrent use so detectors running on several goroutines can share
// one and keep IDs unique across a run.
type IDGenerator struct {
	last atomic.Int64
}

// NewIDGenerator returns a generator whose first ID is 1
func NewIDGenerator() *IDGenerator {
	return &IDGenerator{}
}

// GetNext returns the next incremental number
func (g *IDGenerator) GetNext() int64 {
	return g.last.Add(1)
}

// Assign gives every detection without an ID the next one
func (g *IDGenerator) Assign(dets []Detection) {
	for i := range dets {
		if dets[i].ID == 0 {
			dets[i].ID = g.GetNext()
		}
	}
}

// Reset restarts numbering so the next ID is 1
func (g *IDGenerator) Reset() {
	g.last.Store(0)
}
