// Package video reads frames from a video file and writes the annotated
// frames of a counting run to another.
package video

import (
	"fmt"
	"io"

	"gocv.io/x/gocv"

	"github.com/swdee/go-zonecount/pipeline"
	"github.com/swdee/go-zonecount/render"
)

// DefaultCodec is the fourcc used for the annotated output video
const DefaultCodec = "mp4v"

// Reader reads frames from a video file.  The returned Mat is reused
// for every frame and is only valid until the next Read.
type Reader struct {
	video *gocv.VideoCapture
	img   gocv.Mat
}

// Open opens the video file for reading
func Open(file string) (*Reader, error) {

	video, err := gocv.VideoCaptureFile(file)

	if err != nil {
		return nil, fmt.Errorf("error opening video %s: %w", file, err)
	}

	if !video.IsOpened() {
		video.Close()
		return nil, fmt.Errorf("unable to read video %s", file)
	}

	return &Reader{video: video, img: gocv.NewMat()}, nil
}

// Read returns the next non empty frame or io.EOF after the last frame
func (v *Reader) Read() (gocv.Mat, error) {

	for {
		if ok := v.video.Read(&v.img); !ok {
			return v.img, io.EOF
		}

		if !v.img.Empty() {
			return v.img, nil
		}
	}
}

// FPS returns the frame rate of the video, or 30 if unknown
func (v *Reader) FPS() float64 {

	fps := v.video.Get(gocv.VideoCaptureFPS)

	if fps <= 0 {
		return 30
	}

	return fps
}

// Size returns the frame width and height of the video
func (v *Reader) Size() (int, int) {
	return int(v.video.Get(gocv.VideoCaptureFrameWidth)),
		int(v.video.Get(gocv.VideoCaptureFrameHeight))
}

// Close releases the video and frame buffer
func (v *Reader) Close() error {
	v.img.Close()
	return v.video.Close()
}

// Writer draws the counting overlay on each frame and writes it to a
// video file.  It implements pipeline.Sink.
type Writer struct {
	writer *gocv.VideoWriter
	style  render.Style
	frames int
}

// Create creates the output video file
func Create(file string, fps float64, width, height int, style render.Style) (*Writer, error) {

	writer, err := gocv.VideoWriterFile(file, DefaultCodec, fps, width, height, true)

	if err != nil {
		return nil, fmt.Errorf("error creating video %s: %w", file, err)
	}

	if !writer.IsOpened() {
		writer.Close()
		return nil, fmt.Errorf("unable to write video %s", file)
	}

	return &Writer{writer: writer, style: style}, nil
}

// Write renders the overlay onto the frame and appends it to the video
func (w *Writer) Write(frame pipeline.Frame[gocv.Mat], res pipeline.FrameResult) error {

	render.Overlay(&frame.Image, res.Overlay, w.style)

	if err := w.writer.Write(frame.Image); err != nil {
		return fmt.Errorf("error writing video frame %d: %w", frame.Index, err)
	}

	w.frames++

	return nil
}

// Frames returns the number of frames written
func (w *Writer) Frames() int {
	return w.frames
}

// Close finalises the video file
func (w *Writer) Close() error {
	return w.writer.Close()
}
