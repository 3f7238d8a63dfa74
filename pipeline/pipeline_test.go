package pipeline

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swdee/go-zonecount/geometry"
	"github.com/swdee/go-zonecount/postprocess"
	"github.com/swdee/go-zonecount/tracker"
	"github.com/swdee/go-zonecount/zone"
)

var errTracker = errors.New("tracker exploded")

// idTracker uses the detection ID as the track ID so tests control identity
type idTracker struct {
	failOn int
	calls  int
	resets int
}

func (t *idTracker) Update(objs []tracker.Object) ([]tracker.Identified, error) {
	t.calls++

	if t.failOn > 0 && t.calls == t.failOn {
		return nil, errTracker
	}

	out := make([]tracker.Identified, 0, len(objs))
	for _, o := range objs {
		out = append(out, tracker.Identified{Object: o, TrackID: int(o.DetectionID)})
	}
	return out, nil
}

func (t *idTracker) Reset() {
	t.resets++
}

// at returns a person detection with its centroid at x,y
func at(id int64, x, y float64) postprocess.Detection {
	return postprocess.Detection{
		Class: 0,
		Label: "person",
		Box:   geometry.Box{X1: x - 1, Y1: y - 1, X2: x + 1, Y2: y + 1},
		Score: 0.9,
		ID:    id,
	}
}

func newPipeline(t *testing.T, trk tracker.Tracker, zones ...zone.Zone) *Pipeline {
	t.Helper()

	if len(zones) == 0 {
		z, err := zone.New("square", geometry.Polygon{{0, 0}, {10, 0}, {10, 10}, {0, 10}}, 0)
		require.NoError(t, err)
		zones = append(zones, z)
	}

	filter, err := postprocess.NewClassFilter("person", 0.5, []string{"person", "bicycle", "car"})
	require.NoError(t, err)

	mc, err := zone.NewMultiCounter(zones...)
	require.NoError(t, err)

	p, err := New(filter, trk, tracker.NewRegistry(tracker.NewTrail(5), tracker.DefaultRetain), mc)
	require.NoError(t, err)

	logger, _ := test.NewNullLogger()
	p.SetLogger(logger)

	return p
}

func TestNewRequiresCollaborators(t *testing.T) {
	_, err := New(nil, &idTracker{}, nil, nil)
	assert.Error(t, err)
}

func TestProcessCounts(t *testing.T) {

	p := newPipeline(t, &idTracker{})

	low := at(4, 5, 5)
	low.Score = 0.3

	car := at(5, 5, 5)
	car.Class = 2
	car.Label = "car"

	res, err := p.Process([]postprocess.Detection{at(1, 5, 5), at(2, 50, 50), low, car})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Frame)
	assert.Equal(t, 1, res.CurrentlyInside)
	assert.Equal(t, 1, res.TotalSeen)
	require.Len(t, res.Tracks, 2, "low score and car filtered")

	want := []ZoneCount{{Name: "square", Inside: []int{1}, NewlySeen: []int{1}, CurrentlyInside: 1, TotalSeen: 1}}
	if diff := cmp.Diff(want, res.Zones); diff != "" {
		t.Errorf("zone counts mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, []string{"People in Region: 1", "Total People Detected: 1"}, res.Overlay.Text)
	require.Len(t, res.Overlay.Zones, 1)
	assert.True(t, res.Overlay.Zones[0].Occupied)
	require.Len(t, res.Overlay.Tracks, 2)
	assert.Equal(t, "person 1", res.Overlay.Tracks[0].Label)
	assert.True(t, res.Overlay.Tracks[0].Inside)
	assert.False(t, res.Overlay.Tracks[1].Inside)
	assert.Len(t, res.Overlay.Tracks[0].Trail, 1)

	// empty frame clears occupancy but not the total
	res, err = p.Process(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, res.CurrentlyInside)
	assert.Equal(t, 1, res.TotalSeen)
	assert.False(t, res.Overlay.Zones[0].Occupied)
	assert.Equal(t, "People in Region: 0", res.Overlay.Text[0])
}

func TestProcessMalformedWarns(t *testing.T) {

	p := newPipeline(t, &idTracker{})

	logger, hook := test.NewNullLogger()
	p.SetLogger(logger)

	bad := at(1, 5, 5)
	bad.Box = geometry.Box{X1: 5, Y1: 5, X2: 1, Y2: 1}

	res, err := p.Process([]postprocess.Detection{bad})
	require.NoError(t, err)
	assert.Equal(t, 0, res.CurrentlyInside)

	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}

func TestProcessMultipleZones(t *testing.T) {

	left, err := zone.New("left", geometry.Polygon{{0, 0}, {10, 0}, {10, 10}, {0, 10}}, 0)
	require.NoError(t, err)
	right, err := zone.New("right", geometry.Polygon{{10, 0}, {20, 0}, {20, 10}, {10, 10}}, 0)
	require.NoError(t, err)

	p := newPipeline(t, &idTracker{}, left, right)

	res, err := p.Process([]postprocess.Detection{at(1, 5, 5), at(2, 10, 5), at(3, 15, 5)})
	require.NoError(t, err)

	assert.Equal(t, 3, res.CurrentlyInside, "track 2 on the shared edge counted once")
	assert.Equal(t, 3, res.TotalSeen)
	assert.Equal(t, []string{
		"People in left: 2",
		"People in right: 2",
		"Total People Detected: 3",
	}, res.Overlay.Text)
}

func TestOverlayZoneColors(t *testing.T) {

	left, err := zone.New("left", geometry.Polygon{{0, 0}, {10, 0}, {10, 10}, {0, 10}}, 0)
	require.NoError(t, err)
	right, err := zone.New("right", geometry.Polygon{{10, 0}, {20, 0}, {20, 10}, {10, 10}}, 0)
	require.NoError(t, err)

	p := newPipeline(t, &idTracker{}, left.WithColor(3), right.WithColor(7))

	res, err := p.Process([]postprocess.Detection{at(1, 5, 5), at(2, 10, 5), at(3, 15, 5), at(4, 50, 50)})
	require.NoError(t, err)

	require.Len(t, res.Overlay.Zones, 2)
	assert.Equal(t, 3, res.Overlay.Zones[0].Color)
	assert.Equal(t, 7, res.Overlay.Zones[1].Color)

	got := make(map[int]int)
	for _, tb := range res.Overlay.Tracks {
		got[tb.ID] = tb.ZoneColor
	}

	want := map[int]int{
		1: 3,
		2: 3, // on the shared edge, first zone wins
		3: 7,
		4: zone.NoColor,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("track colors mismatch (-want +got):\n%s", diff)
	}
}

func TestOverlayUncoloredZone(t *testing.T) {

	p := newPipeline(t, &idTracker{})

	res, err := p.Process([]postprocess.Detection{at(1, 5, 5)})
	require.NoError(t, err)

	require.Len(t, res.Overlay.Zones, 1)
	assert.Equal(t, zone.NoColor, res.Overlay.Zones[0].Color)
	require.Len(t, res.Overlay.Tracks, 1)
	assert.True(t, res.Overlay.Tracks[0].Inside)
	assert.Equal(t, zone.NoColor, res.Overlay.Tracks[0].ZoneColor)
}

func TestProcessTrackerError(t *testing.T) {

	p := newPipeline(t, &idTracker{failOn: 2})

	_, err := p.Process([]postprocess.Detection{at(1, 5, 5)})
	require.NoError(t, err)

	_, err = p.Process([]postprocess.Detection{at(2, 5, 5)})
	require.ErrorIs(t, err, errTracker)
	assert.Equal(t, 1, p.Frames(), "failed frame not counted")

	res, err := p.Process([]postprocess.Detection{at(3, 5, 5)})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Frame)
	assert.Equal(t, 2, res.TotalSeen)
}

func TestReset(t *testing.T) {

	trk := &idTracker{}
	p := newPipeline(t, trk)

	_, err := p.Process([]postprocess.Detection{at(1, 5, 5)})
	require.NoError(t, err)

	p.Reset()
	assert.Equal(t, 1, trk.resets)
	assert.Equal(t, 0, p.Frames())

	res, err := p.Process(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, res.TotalSeen)
}

// sliceSource returns each entry in turn then io.EOF
type sliceSource struct {
	frames [][]postprocess.Detection
	pos    int
	err    error
}

func (s *sliceSource) Next() (Frame[int], error) {
	if s.pos >= len(s.frames) {
		if s.err != nil {
			return Frame[int]{}, s.err
		}
		return Frame[int]{}, io.EOF
	}

	f := Frame[int]{Index: s.pos, Image: s.pos, Detections: s.frames[s.pos]}
	s.pos++
	return f, nil
}

func walk() [][]postprocess.Detection {
	return [][]postprocess.Detection{
		{at(1, 5, 5)},
		{at(1, 6, 5), at(2, 7, 7)},
		{at(1, 50, 5), at(2, 8, 7)},
		{},
	}
}

func TestRunToEOF(t *testing.T) {

	p := newPipeline(t, &idTracker{})

	var written []int
	sink := SinkFunc[int](func(f Frame[int], res FrameResult) error {
		written = append(written, res.CurrentlyInside)
		return nil
	})

	sum, err := Run[int](context.Background(), p, &sliceSource{frames: walk()}, sink)
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2, 1, 0}, written)

	want := Summary{
		Frames:    4,
		TotalSeen: 2,
		Zones: []ZoneSummary{
			{Name: "square", TotalSeen: 2, PeakOccupancy: 2, MeanOccupancy: 1},
		},
	}

	if diff := cmp.Diff(want, sum); diff != "" {
		t.Errorf("summary mismatch (-want +got):\n%s", diff)
	}
}

func TestRunCancelled(t *testing.T) {

	p := newPipeline(t, &idTracker{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// cancel once the second frame has been written
	sink := SinkFunc[int](func(f Frame[int], res FrameResult) error {
		if res.Frame == 2 {
			cancel()
		}
		return nil
	})

	sum, err := Run[int](ctx, p, &sliceSource{frames: walk()}, sink)
	require.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, 2, sum.Frames)
	assert.Equal(t, 2, sum.TotalSeen)
	assert.Equal(t, 2, sum.Zones[0].PeakOccupancy)
	assert.InDelta(t, 1.5, sum.Zones[0].MeanOccupancy, 1e-9)
}

func TestRunTrackerError(t *testing.T) {

	p := newPipeline(t, &idTracker{failOn: 3})

	sum, err := Run[int](context.Background(), p, &sliceSource{frames: walk()}, nil)
	require.ErrorIs(t, err, errTracker)
	assert.Equal(t, 2, sum.Frames)
}

func TestRunSourceError(t *testing.T) {

	p := newPipeline(t, &idTracker{})
	readErr := errors.New("corrupt frame")

	sum, err := Run[int](context.Background(), p,
		&sliceSource{frames: walk()[:1], err: readErr}, nil)
	require.ErrorIs(t, err, readErr)
	assert.Equal(t, 1, sum.Frames)
}

func TestRunSinkError(t *testing.T) {

	p := newPipeline(t, &idTracker{})
	sinkErr := errors.New("disk full")

	calls := 0
	sinks := Sinks[int]{
		SinkFunc[int](func(Frame[int], FrameResult) error {
			calls++
			return nil
		}),
		SinkFunc[int](func(f Frame[int], res FrameResult) error {
			if res.Frame == 3 {
				return sinkErr
			}
			return nil
		}),
	}

	sum, err := Run[int](context.Background(), p, &sliceSource{frames: walk()}, sinks)
	require.ErrorIs(t, err, sinkErr)
	assert.Equal(t, 2, sum.Frames)
	assert.Equal(t, 3, calls)
}

// intReader yields n frames then io.EOF
type intReader struct{ n, pos int }

func (r *intReader) Read() (int, error) {
	if r.pos >= r.n {
		return 0, io.EOF
	}
	r.pos++
	return r.pos, nil
}

// fixedDetector places one person per frame, failing on frame fail
type fixedDetector struct{ fail int }

func (d fixedDetector) Detect(img int) ([]postprocess.Detection, error) {
	if img == d.fail {
		return nil, errors.New("bad frame")
	}
	return []postprocess.Detection{at(int64(img), 5, 5)}, nil
}

func TestDetectingSource(t *testing.T) {

	p := newPipeline(t, &idTracker{})
	src := Detecting[int](&intReader{n: 3}, fixedDetector{})

	sum, err := Run[int](context.Background(), p, src, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, sum.Frames)
	assert.Equal(t, 3, sum.TotalSeen)

	p.Reset()
	src = Detecting[int](&intReader{n: 3}, fixedDetector{fail: 2})

	sum, err = Run[int](context.Background(), p, src, nil)
	require.Error(t, err)
	assert.Equal(t, 1, sum.Frames)
}
