package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/swdee/go-zonecount/postprocess"
)

// Frame is a single video frame and the detections made on it
type Frame[T any] struct {
	// Index is the zero based position of the frame in the source
	Index      int
	Image      T
	Detections []postprocess.Detection
}

// Source supplies frames in order.  Next returns io.EOF when the source is
// exhausted.
type Source[T any] interface {
	Next() (Frame[T], error)
}

// Sink receives every successfully processed frame with its result
type Sink[T any] interface {
	Write(frame Frame[T], res FrameResult) error
}

// SinkFunc adapts a function to a Sink
type SinkFunc[T any] func(frame Frame[T], res FrameResult) error

// Write calls f
func (f SinkFunc[T]) Write(frame Frame[T], res FrameResult) error {
	return f(frame, res)
}

// Sinks writes to each sink in order, stopping at the first error
type Sinks[T any] []Sink[T]

// Write passes the frame to every sink
func (s Sinks[T]) Write(frame Frame[T], res FrameResult) error {
	for _, sink := range s {
		if err := sink.Write(frame, res); err != nil {
			return err
		}
	}
	return nil
}

// FrameReader reads raw frames without detections, eg: a video file
type FrameReader[T any] interface {
	Read() (T, error)
}

// detecting is a Source that runs a Detector over each frame read
type detecting[T any] struct {
	reader   FrameReader[T]
	detector postprocess.Detector[T]
	index    int
}

// Detecting returns a Source that reads frames and runs the detector on each
func Detecting[T any](r FrameReader[T], d postprocess.Detector[T]) Source[T] {
	return &detecting[T]{reader: r, detector: d}
}

// Next reads the next frame and detects objects on it
func (d *detecting[T]) Next() (Frame[T], error) {

	img, err := d.reader.Read()

	if err != nil {
		return Frame[T]{}, err
	}

	frame := Frame[T]{Index: d.index, Image: img}
	d.index++

	frame.Detections, err = d.detector.Detect(img)

	if err != nil {
		return frame, fmt.Errorf("detector failed on frame %d: %w", frame.Index, err)
	}

	return frame, nil
}

// Run processes frames from src one at a time until the source returns
// io.EOF, the context is cancelled or an error occurs.  Each counted frame is
// passed to sink, which may be nil.
//
// The returned Summary covers every frame fully processed before Run
// stopped.  On cancellation the context's error is returned.  A frame whose
// detection, tracking or sink write fails is not included in the Summary.
func Run[T any](ctx context.Context, p *Pipeline, src Source[T], sink Sink[T]) (Summary, error) {

	stats := NewStats(p.Zones())

	for {
		select {
		case <-ctx.Done():
			return stats.Summary(), ctx.Err()
		default:
		}

		frame, err := src.Next()

		if errors.Is(err, io.EOF) {
			return stats.Summary(), nil
		}

		if err != nil {
			return stats.Summary(), fmt.Errorf("error reading frame: %w", err)
		}

		res, err := p.Process(frame.Detections)

		if err != nil {
			return stats.Summary(), err
		}

		if sink != nil {
			if err := sink.Write(frame, res); err != nil {
				return stats.Summary(), fmt.Errorf("error writing frame %d: %w", frame.Index, err)
			}
		}

		stats.Add(res)
	}
}
