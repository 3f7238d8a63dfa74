package postprocess

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultTargetClass is the class counted when none is configured
const DefaultTargetClass = "person"

// DefaultConfidenceThreshold is the minimum detection score counted when none
// is configured
const DefaultConfidenceThreshold = 0.5

// ClassFilter restricts detections to a single target class at or above a
// confidence threshold
type ClassFilter struct {
	// label is the target class name, empty if only the class index is known
	label string
	// class is the target class index, -1 if only the label is known
	class int
	// threshold is the minimum score, inclusive
	threshold float32
}

// NewClassFilter creates a filter for the target class.  Target may be a
// class name such as "person" or a numeric class index.  When labels are
// given the name and index are resolved against each other.
func NewClassFilter(target string, threshold float32, labels []string) (*ClassFilter, error) {

	if threshold < 0 || threshold > 1 {
		return nil, fmt.Errorf("confidence threshold %v is outside [0,1]", threshold)
	}

	target = strings.TrimSpace(target)

	if target == "" {
		target = DefaultTargetClass
	}

	f := &ClassFilter{
		label:     target,
		class:     -1,
		threshold: threshold,
	}

	if idx, err := strconv.Atoi(target); err == nil {
		if idx < 0 {
			return nil, fmt.Errorf("target class index %d is negative", idx)
		}

		f.class = idx
		f.label = ""

		if idx < len(labels) {
			f.label = labels[idx]
		}

		return f, nil
	}

	for i, l := range labels {
		if l == target {
			f.class = i
			break
		}
	}

	if len(labels) > 0 && f.class < 0 {
		return nil, fmt.Errorf("target class %q not found in labels", target)
	}

	return f, nil
}

// Label returns the target class name, may be empty
func (f *ClassFilter) Label() string {
	return f.label
}

// ClassIndex returns the target class index and whether it is known.  It is
// unknown when the target was given by name without labels to resolve it.
func (f *ClassFilter) ClassIndex() (int, bool) {
	return f.class, f.class >= 0
}

// Threshold returns the minimum confidence score
func (f *ClassFilter) Threshold() float32 {
	return f.threshold
}

// Match reports whether a detection is of the target class and meets the
// confidence threshold
func (f *ClassFilter) Match(det Detection) bool {

	if det.Score < f.threshold {
		return false
	}

	// compare names when both sides have one, otherwise fall back to the
	// class index
	if det.Label != "" && f.label != "" {
		return det.Label == f.label
	}

	return f.class >= 0 && det.Class == f.class
}

// Apply returns the detections that match the filter and have a valid box.
// The number of detections dropped for a malformed box is also returned.
func (f *ClassFilter) Apply(dets []Detection) (kept []Detection, malformed int) {

	kept = make([]Detection, 0, len(dets))

	for _, det := range dets {

		if !det.Box.Valid() {
			malformed++
			continue
		}

		if f.Match(det) {
			kept = append(kept, det)
		}
	}

	return kept, malformed
}
