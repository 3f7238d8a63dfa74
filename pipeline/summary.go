package pipeline

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/swdee/go-zonecount/zone"
)

// Summary is the outcome of a run up to the last fully processed frame
type Summary struct {
	// Frames is the number of frames counted
	Frames int
	// TotalSeen is the number of distinct tracks inside any zone
	TotalSeen int
	Zones     []ZoneSummary
}

// ZoneSummary holds the run statistics of a single zone
type ZoneSummary struct {
	Name string
	// TotalSeen is the size of the zone's seen set
	TotalSeen int
	// PeakOccupancy is the highest number of tracks inside at once
	PeakOccupancy int
	// MeanOccupancy is the average number of tracks inside per frame
	MeanOccupancy float64
}

// Stats accumulates per frame occupancy to produce a Summary
type Stats struct {
	names     []string
	occupancy [][]float64
	seen      []int
	totalSeen int
}

// NewStats returns an empty accumulator for the zones
func NewStats(zones []zone.Zone) *Stats {

	s := &Stats{
		names:     make([]string, len(zones)),
		occupancy: make([][]float64, len(zones)),
		seen:      make([]int, len(zones)),
	}

	for i, z := range zones {
		s.names[i] = z.Name
	}

	return s
}

// Add records a frame result
func (s *Stats) Add(res FrameResult) {

	for i, zc := range res.Zones {
		if i >= len(s.occupancy) {
			break
		}

		s.occupancy[i] = append(s.occupancy[i], float64(zc.CurrentlyInside))
		s.seen[i] = zc.TotalSeen
	}

	s.totalSeen = res.TotalSeen
}

// Occupancy returns the recorded occupancy series of zone i
func (s *Stats) Occupancy(i int) []float64 {
	return s.occupancy[i]
}

// Summary computes the statistics of the frames added so far
func (s *Stats) Summary() Summary {

	sum := Summary{TotalSeen: s.totalSeen}

	if len(s.occupancy) > 0 {
		sum.Frames = len(s.occupancy[0])
	}

	for i, name := range s.names {
		zs := ZoneSummary{Name: name, TotalSeen: s.seen[i]}

		if occ := s.occupancy[i]; len(occ) > 0 {
			zs.PeakOccupancy = int(floats.Max(occ))
			zs.MeanOccupancy = stat.Mean(occ, nil)
		}

		sum.Zones = append(sum.Zones, zs)
	}

	return sum
}
