// Package report writes the per frame counts and run summary of a zone
// counting run to JSON lines, SQLite, Kafka and a PNG chart.
package report

import (
	"github.com/google/uuid"

	"github.com/swdee/go-zonecount/pipeline"
)

// Writer is implemented by every report output
type Writer interface {
	Write(res pipeline.FrameResult) error
}

// NewRunID returns a new random identifier to tag all records of a run
func NewRunID() string {
	return uuid.New().String()
}

// Sink adapts report writers to a pipeline Sink, writing to each in order
func Sink[T any](writers ...Writer) pipeline.Sink[T] {
	return pipeline.SinkFunc[T](func(_ pipeline.Frame[T], res pipeline.FrameResult) error {
		for _, w := range writers {
			if err := w.Write(res); err != nil {
				return err
			}
		}
		return nil
	})
}
