package zone

import "fmt"

// Result is the outcome of updating one zone for a frame
type Result struct {
	Name            string
	Inside          []int
	NewlySeen       []int
	CurrentlyInside int
	TotalSeen       int
}

// MultiCounter counts several zones over the same tracks.  Zones are
// evaluated independently so a track may be inside more than one.
type MultiCounter struct {
	counters []*Counter
}

// NewMultiCounter returns a counter for each zone in the given order.  Zone
// names must be unique.
func NewMultiCounter(zones ...Zone) (*MultiCounter, error) {

	if len(zones) == 0 {
		return nil, fmt.Errorf("no zones given")
	}

	names := make(map[string]struct{}, len(zones))
	m := &MultiCounter{}

	for _, z := range zones {
		if _, dup := names[z.Name]; dup {
			return nil, fmt.Errorf("duplicate zone name %q", z.Name)
		}

		names[z.Name] = struct{}{}
		m.counters = append(m.counters, NewCounter(z))
	}

	return m, nil
}

// Update passes the frame to every zone counter and returns a Result per
// zone in configuration order
func (m *MultiCounter) Update(frame []TrackPoint) []Result {

	res := make([]Result, 0, len(m.counters))

	for _, c := range m.counters {
		inside, newly := c.Update(frame)

		res = append(res, Result{
			Name:            c.zone.Name,
			Inside:          inside,
			NewlySeen:       newly,
			CurrentlyInside: c.CurrentlyInside(),
			TotalSeen:       c.TotalSeen(),
		})
	}

	return res
}

// Counters returns the per zone counters in configuration order
func (m *MultiCounter) Counters() []*Counter {
	return m.counters
}

// Zones returns the zones in configuration order
func (m *MultiCounter) Zones() []Zone {

	zones := make([]Zone, len(m.counters))

	for i, c := range m.counters {
		zones[i] = c.zone
	}

	return zones
}

// Reset empties the sets of every zone
func (m *MultiCounter) Reset() {
	for _, c := range m.counters {
		c.Reset()
	}
}
