package report

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/swdee/go-zonecount/pipeline"
)

// Chart records the occupancy and total seen of every zone per frame and
// saves them as a line chart
type Chart struct {
	title string
	names []string
	// inside and seen hold a series per zone
	inside []plotter.XYs
	seen   []plotter.XYs
}

// NewChart returns an empty chart
func NewChart(title string) *Chart {
	return &Chart{title: title}
}

// Write adds the frame to the series
func (c *Chart) Write(res pipeline.FrameResult) error {

	if c.names == nil {
		for _, zc := range res.Zones {
			c.names = append(c.names, zc.Name)
		}

		c.inside = make([]plotter.XYs, len(res.Zones))
		c.seen = make([]plotter.XYs, len(res.Zones))
	}

	if len(res.Zones) != len(c.names) {
		return fmt.Errorf("frame %d has %d zones, chart has %d", res.Frame, len(res.Zones), len(c.names))
	}

	for i, zc := range res.Zones {
		x := float64(res.Frame)
		c.inside[i] = append(c.inside[i], plotter.XY{X: x, Y: float64(zc.CurrentlyInside)})
		c.seen[i] = append(c.seen[i], plotter.XY{X: x, Y: float64(zc.TotalSeen)})
	}

	return nil
}

// Save renders the chart to path, the image format is taken from the file
// extension
func (c *Chart) Save(path string) error {

	p := plot.New()
	p.Title.Text = c.title
	p.X.Label.Text = "Frame"
	p.Y.Label.Text = "People"

	for i, name := range c.names {

		inLine, err := plotter.NewLine(c.inside[i])

		if err != nil {
			return fmt.Errorf("error plotting zone %s occupancy: %w", name, err)
		}

		inLine.Color = plotutil.Color(i)
		inLine.Width = vg.Points(1)

		seenLine, err := plotter.NewLine(c.seen[i])

		if err != nil {
			return fmt.Errorf("error plotting zone %s total: %w", name, err)
		}

		seenLine.Color = plotutil.Color(i)
		seenLine.Width = vg.Points(1)
		seenLine.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}

		p.Add(inLine, seenLine)
		p.Legend.Add(name+" in region", inLine)
		p.Legend.Add(name+" total", seenLine)
	}

	p.Legend.Top = true
	p.Legend.Left = true

	if err := p.Save(10*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("error saving chart: %w", err)
	}

	return nil
}
