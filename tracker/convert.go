package tracker

import "github.com/swdee/go-zonecount/postprocess"

// DetectionsToObjects takes postprocess object detection results and
// converts them into tracker objects
func DetectionsToObjects(dets []postprocess.Detection) []Object {

	objs := make([]Object, 0, len(dets))

	for _, det := range dets {
		objs = append(objs, Object{
			Box:         det.Box,
			Class:       det.Class,
			Label:       det.Label,
			Score:       det.Score,
			DetectionID: det.ID,
		})
	}

	return objs
}
