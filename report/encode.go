package report

import (
	"fmt"

	"github.com/tidwall/sjson"

	"github.com/swdee/go-zonecount/pipeline"
)

const (
	// TypeFrame marks a per frame count record
	TypeFrame = "frame"
	// TypeSummary marks the end of run summary record
	TypeSummary = "summary"
)

// setAll applies the path and value pairs to a JSON document in order
func setAll(js string, kv ...interface{}) (string, error) {

	var err error

	for i := 0; i+1 < len(kv); i += 2 {
		path := kv[i].(string)

		js, err = sjson.Set(js, path, kv[i+1])

		if err != nil {
			return "", fmt.Errorf("error setting %s: %w", path, err)
		}
	}

	return js, nil
}

// EncodeFrame returns the JSON record of a frame result
func EncodeFrame(runID string, res pipeline.FrameResult) (string, error) {

	js, err := setAll("{}",
		"type", TypeFrame,
		"run_id", runID,
		"frame", res.Frame,
		"currently_inside", res.CurrentlyInside,
		"total_seen", res.TotalSeen,
		"tracks", len(res.Tracks),
	)

	if err != nil {
		return "", err
	}

	js, err = sjson.SetRaw(js, "zones", "[]")

	if err != nil {
		return "", err
	}

	for i, zc := range res.Zones {
		js, err = setAll(js,
			fmt.Sprintf("zones.%d.name", i), zc.Name,
			fmt.Sprintf("zones.%d.inside", i), zc.Inside,
			fmt.Sprintf("zones.%d.newly_seen", i), zc.NewlySeen,
			fmt.Sprintf("zones.%d.currently_inside", i), zc.CurrentlyInside,
			fmt.Sprintf("zones.%d.total_seen", i), zc.TotalSeen,
		)

		if err != nil {
			return "", err
		}
	}

	return js, nil
}

// EncodeSummary returns the JSON record of a run summary
func EncodeSummary(runID string, sum pipeline.Summary) (string, error) {

	js, err := setAll("{}",
		"type", TypeSummary,
		"run_id", runID,
		"frames", sum.Frames,
		"total_seen", sum.TotalSeen,
	)

	if err != nil {
		return "", err
	}

	js, err = sjson.SetRaw(js, "zones", "[]")

	if err != nil {
		return "", err
	}

	for i, zs := range sum.Zones {
		js, err = setAll(js,
			fmt.Sprintf("zones.%d.name", i), zs.Name,
			fmt.Sprintf("zones.%d.total_seen", i), zs.TotalSeen,
			fmt.Sprintf("zones.%d.peak_occupancy", i), zs.PeakOccupancy,
			fmt.Sprintf("zones.%d.mean_occupancy", i), zs.MeanOccupancy,
		)

		if err != nil {
			return "", err
		}
	}

	return js, nil
}
