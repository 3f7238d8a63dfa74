package report

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/swdee/go-zonecount/pipeline"
)

// JSONL writes one JSON record per line
type JSONL struct {
	runID  string
	w      *bufio.Writer
	closer io.Closer
}

// NewJSONL returns a JSONL writer on w
func NewJSONL(w io.Writer, runID string) *JSONL {
	return &JSONL{
		runID: runID,
		w:     bufio.NewWriter(w),
	}
}

// CreateJSONL creates or truncates the file at path and writes to it
func CreateJSONL(path, runID string) (*JSONL, error) {

	f, err := os.Create(path)

	if err != nil {
		return nil, fmt.Errorf("error creating report file: %w", err)
	}

	j := NewJSONL(f, runID)
	j.closer = f

	return j, nil
}

// Write appends the frame record
func (j *JSONL) Write(res pipeline.FrameResult) error {

	js, err := EncodeFrame(j.runID, res)

	if err != nil {
		return err
	}

	return j.line(js)
}

// WriteSummary appends the run summary record
func (j *JSONL) WriteSummary(sum pipeline.Summary) error {

	js, err := EncodeSummary(j.runID, sum)

	if err != nil {
		return err
	}

	return j.line(js)
}

func (j *JSONL) line(js string) error {

	if _, err := j.w.WriteString(js); err != nil {
		return err
	}

	return j.w.WriteByte('\n')
}

// Close flushes buffered records and closes the underlying file if this
// writer opened it
func (j *JSONL) Close() error {

	err := j.w.Flush()

	if j.closer != nil {
		if cerr := j.closer.Close(); err == nil {
			err = cerr
		}
	}

	return err
}
