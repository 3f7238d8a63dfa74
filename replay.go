package zonecount

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/tidwall/gjson"

	"github.com/swdee/go-zonecount/geometry"
	"github.com/swdee/go-zonecount/postprocess"
)

// Replay holds detections recorded per frame in a JSON lines file, so a
// video can be counted without running a model.  Each line is one frame:
//
//	{"frame": 0, "detections": [{"box": [x1, y1, x2, y2], "score": 0.9, "class": 0, "label": "person"}]}
//
// The frame number is optional and defaults to the line's position.  Frames
// without a line have no detections.
type Replay struct {
	frames map[int][]postprocess.Detection
	count  int
}

// LoadReplay reads a replay file
func LoadReplay(file string, labels []string) (*Replay, error) {

	f, err := os.Open(file)

	if err != nil {
		return nil, fmt.Errorf("error opening replay: %w", err)
	}

	defer f.Close()

	return ReadReplay(f, labels)
}

// ReadReplay parses replay lines from r.  Labels, if given, fill in the
// label of detections that only carry a class index.
func ReadReplay(r io.Reader, labels []string) (*Replay, error) {

	rp := &Replay{frames: make(map[int][]postprocess.Detection)}
	idGen := postprocess.NewIDGenerator()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	line := 0
	next := 0

	for scanner.Scan() {
		line++
		text := scanner.Bytes()

		if len(bytes.TrimSpace(text)) == 0 {
			continue
		}

		if !gjson.ValidBytes(text) {
			return nil, fmt.Errorf("replay line %d: malformed JSON", line)
		}

		doc := gjson.ParseBytes(text)
		frame := next

		if v := doc.Get("frame"); v.Exists() {
			frame = int(v.Int())
		}

		if frame < 0 {
			return nil, fmt.Errorf("replay line %d: negative frame %d", line, frame)
		}

		var dets []postprocess.Detection
		var err error

		doc.Get("detections").ForEach(func(_, d gjson.Result) bool {
			var det postprocess.Detection

			det, err = parseDetection(d, labels)

			if err != nil {
				return false
			}

			dets = append(dets, det)
			return true
		})

		if err != nil {
			return nil, fmt.Errorf("replay line %d: %w", line, err)
		}

		idGen.Assign(dets)
		rp.frames[frame] = append(rp.frames[frame], dets...)
		next = frame + 1

		if next > rp.count {
			rp.count = next
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading replay: %w", err)
	}

	return rp, nil
}

// parseDetection reads a single detection object
func parseDetection(d gjson.Result, labels []string) (postprocess.Detection, error) {

	box := d.Get("box").Array()

	if len(box) != 4 {
		return postprocess.Detection{}, fmt.Errorf("detection box must have 4 values")
	}

	det := postprocess.Detection{
		Class: int(d.Get("class").Int()),
		Label: d.Get("label").String(),
		Score: float32(d.Get("score").Float()),
		Box: geometry.Box{
			X1: box[0].Float(),
			Y1: box[1].Float(),
			X2: box[2].Float(),
			Y2: box[3].Float(),
		},
	}

	if det.Label == "" && det.Class >= 0 && det.Class < len(labels) {
		det.Label = labels[det.Class]
	}

	return det, nil
}

// Frames returns the number of frames covered, one past the highest frame
func (rp *Replay) Frames() int {
	return rp.count
}

// At returns the detections of a frame
func (rp *Replay) At(frame int) []postprocess.Detection {
	return rp.frames[frame]
}

// replayDetector returns the recorded detections of consecutive frames
type replayDetector[T any] struct {
	replay *Replay
	frame  int
}

// ReplayDetector returns a Detector that ignores the frame image and returns
// the recorded detections, one frame per call in order
func ReplayDetector[T any](rp *Replay) postprocess.Detector[T] {
	return &replayDetector[T]{replay: rp}
}

// Detect returns the next frame's detections
func (d *replayDetector[T]) Detect(_ T) ([]postprocess.Detection, error) {
	dets := d.replay.At(d.frame)
	d.frame++
	return dets, nil
}
