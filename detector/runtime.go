// Package detector runs a YOLOv8 ONNX model with OpenCV DNN and returns the
// detections of each video frame.
package detector

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/swdee/go-zonecount/postprocess"
	"github.com/swdee/go-zonecount/preprocess"
)

// DefaultInputSize is the width and height of the YOLOv8 model input tensor
const DefaultInputSize = 640

// letterboxColor is the padding color YOLO models were trained with
var letterboxColor = color.RGBA{R: 114, G: 114, B: 114, A: 255}

// Backend selects where OpenCV DNN runs the Model
type Backend int

const (
	BackendCPU Backend = iota
	BackendCUDA
)

// Runtime runs a YOLOv8 ONNX Model on OpenCV DNN and decodes its output into
// detections.  It is not safe for concurrent use.
type Runtime struct {
	net       gocv.Net
	inputSize int
	post      *postprocess.YOLOv8
	// resizer is created on the first frame and recreated if the frame size
	// changes
	resizer *preprocess.Resizer
	input   gocv.Mat
}

// NewRuntime loads the ONNX Model file.  Params define the number of classes
// and thresholds used in post processing.
func NewRuntime(modelFile string, labels []string, params postprocess.YOLOv8Params,
	inputSize int, backend Backend) (*Runtime, error) {

	if inputSize <= 0 {
		inputSize = DefaultInputSize
	}

	net := gocv.ReadNetFromONNX(modelFile)

	if net.Empty() {
		return nil, fmt.Errorf("failed to load ONNX model from %s", modelFile)
	}

	if backend == BackendCUDA {
		net.SetPreferableBackend(gocv.NetBackendCUDA)
		net.SetPreferableTarget(gocv.NetTargetCUDA)
	}

	return &Runtime{
		net:       net,
		inputSize: inputSize,
		post:      postprocess.NewYOLOv8(params, labels),
		input:     gocv.NewMat(),
	}, nil
}

// Detect runs inference on the frame and returns detections in frame pixel
// coordinates
func (r *Runtime) Detect(img gocv.Mat) ([]postprocess.Detection, error) {

	if img.Empty() {
		return nil, fmt.Errorf("empty frame")
	}

	if r.resizer == nil || !r.resizer.Matches(img.Cols(), img.Rows()) {
		if r.resizer != nil {
			r.resizer.Close()
		}

		r.resizer = preprocess.NewResizer(img.Cols(), img.Rows(), r.inputSize, r.inputSize)
	}

	r.resizer.LetterBoxResize(img, &r.input, letterboxColor)

	blob := gocv.BlobFromImage(r.input, 1.0/255.0, image.Pt(r.inputSize, r.inputSize),
		gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	r.net.SetInput(blob, "")

	output := r.net.Forward("")
	defer output.Close()

	data, err := output.DataPtrFloat32()

	if err != nil {
		return nil, fmt.Errorf("error reading output tensor: %w", err)
	}

	return r.post.DetectObjects(data, output.Size(), r.resizer.Letterbox())
}

// Close releases the Model and buffers
func (r *Runtime) Close() error {

	if r.resizer != nil {
		r.resizer.Close()
	}

	r.input.Close()

	return r.net.Close()
}
