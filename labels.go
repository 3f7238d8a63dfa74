package zonecount

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrNoLabels is returned for a labels file without any labels
var ErrNoLabels = errors.New("no labels found")

// LoadLabels reads the class labels the detection Model was trained on from
// the given text file.  It should contain one label per line, the line number
// being the class index.
func LoadLabels(file string) ([]string, error) {

	f, err := os.Open(file)

	if err != nil {
		return nil, fmt.Errorf("error opening file: %w", err)
	}

	defer f.Close()

	labels, err := ParseLabels(f)

	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}

	return labels, nil
}

// ParseLabels reads one label per line.  Blank lines inside the list are
// kept as empty labels so class indices do not shift, trailing blank lines
// are dropped.
func ParseLabels(r io.Reader) ([]string, error) {

	scanner := bufio.NewScanner(r)

	var labels []string

	for scanner.Scan() {
		labels = append(labels, strings.TrimSpace(scanner.Text()))
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading labels: %w", err)
	}

	for len(labels) > 0 && labels[len(labels)-1] == "" {
		labels = labels[:len(labels)-1]
	}

	if len(labels) == 0 {
		return nil, ErrNoLabels
	}

	return labels, nil
}

// LabelIndex returns the class index of label, or -1 if it is not listed
func LabelIndex(labels []string, label string) int {
	for i, l := range labels {
		if l == label {
			return i
		}
	}
	return -1
}
