package postprocess

import (
	"fmt"
	"math"

	"github.com/swdee/go-zonecount/geometry"
)

// YOLOv8 defines the struct for YOLOv8 model inference post processing of
// the ONNX export, whose single output tensor has shape [1, 4+classes, anchors]
type YOLOv8 struct {
	// Params are the Model configuration parameters
	Params YOLOv8Params
	// labels resolve class indices to names
	labels []string
	// idGen provides the next number for each detection result ID
	idGen *IDGenerator
}

// YOLOv8Params defines the struct containing the YOLOv8 parameters to use
// for post processing operations
type YOLOv8Params struct {
	// BoxThreshold is the minimum probability score required for a bounding box
	// region to be considered for processing
	BoxThreshold float32
	// NMSThreshold is the Non-Maximum Suppression threshold used for defining
	// the maximum allowed Intersection Over Union (IoU) between two
	// bounding boxes for both to be kept
	NMSThreshold float32
	// ObjectClassNum is the number of different object classes the Model has
	// been trained with
	ObjectClassNum int
	// MaxObjectNumber is the maximum number of objects detected that can be
	// returned
	MaxObjectNumber int
}

// YOLOv8COCOParams returns an instance of YOLOv8Params configured with
// default values for a Model trained on the COCO dataset featuring:
// - Object Classes: 80
// - Box Threshold: 0.25
// - NMS Threshold: 0.45
// - Maximum Object Number: 64
func YOLOv8COCOParams() YOLOv8Params {
	return YOLOv8Params{
		BoxThreshold:    0.25,
		NMSThreshold:    0.45,
		ObjectClassNum:  80,
		MaxObjectNumber: 64,
	}
}

// Letterbox describes how a source frame was scaled and padded to the model
// input size so boxes can be mapped back to source pixels
type Letterbox struct {
	Scale     float64
	XPad      float64
	YPad      float64
	SrcWidth  int
	SrcHeight int
}

// NewYOLOv8 returns an instance of the YOLOv8 post processor
func NewYOLOv8(p YOLOv8Params, labels []string) *YOLOv8 {
	return &YOLOv8{
		Params: p,
		labels: labels,
		idGen:  NewIDGenerator(),
	}
}

// DetectObjects decodes the raw output tensor data with the given dimensions
// into detections in source frame coordinates
func (y *YOLOv8) DetectObjects(data []float32, dims []int, lb Letterbox) ([]Detection, error) {

	if len(dims) != 3 {
		return nil, fmt.Errorf("unexpected output dimensions %v", dims)
	}

	channels := 4 + y.Params.ObjectClassNum

	// at reports the value of channel c for anchor i, handling both the
	// channel major export and a transposed one
	var anchors int
	var at func(c, i int) float32

	switch {
	case dims[1] == channels:
		anchors = dims[2]
		at = func(c, i int) float32 { return data[c*anchors+i] }

	case dims[2] == channels:
		anchors = dims[1]
		at = func(c, i int) float32 { return data[i*channels+c] }

	default:
		return nil, fmt.Errorf("output dimensions %v do not match %d classes", dims, y.Params.ObjectClassNum)
	}

	if len(data) < anchors*channels {
		return nil, fmt.Errorf("output has %d values, need %d", len(data), anchors*channels)
	}

	if lb.Scale <= 0 {
		return nil, fmt.Errorf("invalid letterbox scale %v", lb.Scale)
	}

	var dets []Detection

	for i := 0; i < anchors; i++ {

		maxClassID := -1
		maxScore := y.Params.BoxThreshold

		for c := 0; c < y.Params.ObjectClassNum; c++ {
			if s := at(4+c, i); s > maxScore {
				maxScore = s
				maxClassID = c
			}
		}

		if maxClassID < 0 {
			continue
		}

		cx := float64(at(0, i))
		cy := float64(at(1, i))
		w := float64(at(2, i))
		h := float64(at(3, i))

		box := geometry.Box{
			X1: clampF((cx-w/2-lb.XPad)/lb.Scale, float64(lb.SrcWidth)),
			Y1: clampF((cy-h/2-lb.YPad)/lb.Scale, float64(lb.SrcHeight)),
			X2: clampF((cx+w/2-lb.XPad)/lb.Scale, float64(lb.SrcWidth)),
			Y2: clampF((cy+h/2-lb.YPad)/lb.Scale, float64(lb.SrcHeight)),
		}

		det := Detection{
			Class: maxClassID,
			Box:   box,
			Score: maxScore,
		}

		if maxClassID < len(y.labels) {
			det.Label = y.labels[maxClassID]
		}

		dets = append(dets, det)
	}

	dets = NMS(dets, float64(y.Params.NMSThreshold), y.Params.MaxObjectNumber)

	y.idGen.Assign(dets)

	return dets, nil
}

// clampF restricts val to the range 0 to max, max is ignored if not positive
func clampF(val, max float64) float64 {

	val = math.Max(0, val)

	if max > 0 {
		val = math.Min(val, max)
	}

	return val
}
