package zonecount

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/swdee/go-zonecount/pipeline"
	"github.com/swdee/go-zonecount/postprocess"
	"github.com/swdee/go-zonecount/tracker"
	"github.com/swdee/go-zonecount/zone"
)

// NewPipeline builds a counting pipeline from the configuration.  Labels
// resolve the target class and may be nil.
func (c Config) NewPipeline(labels []string) (*pipeline.Pipeline, error) {

	if err := c.Validate(); err != nil {
		return nil, err
	}

	filter, err := postprocess.NewClassFilter(c.TargetClass, c.ConfidenceThreshold, labels)

	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if _, ok := filter.ClassIndex(); !ok {
		log.WithField("target_class", c.TargetClass).
			Warn("No labels to resolve the target class index, only detections carrying a label will be counted")
	}

	trk, retain, err := c.NewTracker()

	if err != nil {
		return nil, err
	}

	zones, err := c.BuildZones()

	if err != nil {
		return nil, err
	}

	counters, err := zone.NewMultiCounter(zones...)

	if err != nil {
		return nil, err
	}

	var trail *tracker.Trail

	if c.TrailSize > 0 {
		trail = tracker.NewTrail(c.TrailSize)
	}

	return pipeline.New(filter, trk, tracker.NewRegistry(trail, retain), counters)
}

// NewTracker creates the configured tracker.  It also returns the number of
// frames the tracker may resume a lost track after.
func (c Config) NewTracker() (tracker.Tracker, int, error) {

	switch c.Tracker {
	case TrackerIoU:
		trk, err := tracker.NewIOUTracker(c.IoUThreshold, c.MaxLost)

		if err != nil {
			return nil, 0, fmt.Errorf("%w: %v", ErrThreshold, err)
		}

		return trk, c.MaxLost, nil

	case TrackerByteTrack, "":
		fps := c.FrameRate

		if fps <= 0 {
			fps = tracker.DefaultFrameRate
		}

		trk := tracker.NewBYTETracker(fps, c.TrackBuffer, c.TrackThresh,
			c.HighThresh, c.MatchThresh)

		return trk, tracker.MaxTimeLost(fps, c.TrackBuffer), nil
	}

	return nil, 0, fmt.Errorf("%w: unknown tracker type %q", ErrInvalidConfig, c.Tracker)
}
