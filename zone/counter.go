package zone

import (
	"sort"

	"github.com/swdee/go-zonecount/geometry"
)

// TrackPoint is a track ID and the centroid to test against the zone
type TrackPoint struct {
	ID       int
	Centroid geometry.Point
}

// Counter maintains the occupancy and seen sets of a single Zone.  It is not
// safe for concurrent use, updates must be made one frame at a time in
// arrival order.
type Counter struct {
	zone      Zone
	occupancy map[int]struct{}
	seen      map[int]struct{}
}

// NewCounter returns a Counter for the zone with empty sets
func NewCounter(z Zone) *Counter {
	return &Counter{
		zone:      z,
		occupancy: make(map[int]struct{}),
		seen:      make(map[int]struct{}),
	}
}

// Zone returns the zone being counted
func (c *Counter) Zone() Zone {
	return c.zone
}

// Update tests every track of the current frame against the zone.  It
// returns the sorted IDs currently inside and the sorted IDs that are inside
// for the first time.  An empty frame clears the occupancy set and leaves the
// seen set unchanged.
func (c *Counter) Update(frame []TrackPoint) (inside, newlySeen []int) {

	c.occupancy = make(map[int]struct{}, len(frame))

	inside = []int{}
	newlySeen = []int{}

	for _, tp := range frame {

		if !c.zone.Contains(tp.Centroid) {
			continue
		}

		if _, dup := c.occupancy[tp.ID]; dup {
			continue
		}

		c.occupancy[tp.ID] = struct{}{}
		inside = append(inside, tp.ID)

		if _, ok := c.seen[tp.ID]; !ok {
			c.seen[tp.ID] = struct{}{}
			newlySeen = append(newlySeen, tp.ID)
		}
	}

	sort.Ints(inside)
	sort.Ints(newlySeen)

	return inside, newlySeen
}

// CurrentlyInside is the number of tracks inside the zone in the last frame
func (c *Counter) CurrentlyInside() int {
	return len(c.occupancy)
}

// TotalSeen is the number of distinct tracks ever seen inside the zone
func (c *Counter) TotalSeen() int {
	return len(c.seen)
}

// Occupancy returns the sorted IDs inside the zone in the last frame
func (c *Counter) Occupancy() []int {
	return sortedKeys(c.occupancy)
}

// Seen returns the sorted IDs ever seen inside the zone
func (c *Counter) Seen() []int {
	return sortedKeys(c.seen)
}

// IsInside reports whether id was inside the zone in the last frame
func (c *Counter) IsInside(id int) bool {
	_, ok := c.occupancy[id]
	return ok
}

// Reset empties both sets, used when starting a new video
func (c *Counter) Reset() {
	c.occupancy = make(map[int]struct{})
	c.seen = make(map[int]struct{})
}

func sortedKeys(m map[int]struct{}) []int {

	ids := make([]int, 0, len(m))

	for id := range m {
		ids = append(ids, id)
	}

	sort.Ints(ids)

	return ids
}
