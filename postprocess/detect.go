package postprocess

import "github.com/swdee/go-zonecount/geometry"

// Detector is implemented by anything that can produce the object detections
// for a single video frame, such as a YOLO model or a replayed detection log
type Detector[F any] interface {
	Detect(frame F) ([]Detection, error)
}

// Detection defines the attributes of a single object detected
type Detection struct {
	// Class is the line number in the labels file the Model was trained on
	// defining the Class of the detected object
	Class int
	// Label is the class name resolved from the labels file, may be empty
	Label string
	// Box are the bounding box dimensions of the object location
	Box geometry.Box
	// Score is the confidence score of the object detected
	Score float32
	// ID is a unique ID assigned to the detection result
	ID int64
}
