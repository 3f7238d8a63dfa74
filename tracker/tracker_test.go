package tracker

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swdee/go-zonecount/geometry"
)

// person returns a class 0 object at the given top left corner
func person(x, y float64) Object {
	return Object{
		Box:   geometry.NewBox(x, y, 20, 40),
		Class: 0,
		Label: "person",
		Score: 0.9,
	}
}

// ids returns the track ids of the identified objects
func ids(objs []Identified) []int {
	out := make([]int, 0, len(objs))
	for _, o := range objs {
		out = append(out, o.TrackID)
	}
	return out
}

func TestNewIOUTracker(t *testing.T) {

	tests := []struct {
		name    string
		iou     float64
		maxLost int
		wantErr bool
	}{
		{"defaults", DefaultIoUThreshold, DefaultMaxLost, false},
		{"full overlap", 1, 0, false},
		{"zero iou", 0, 10, true},
		{"iou above one", 1.5, 10, true},
		{"negative lost", 0.3, -1, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			trk, err := NewIOUTracker(tc.iou, tc.maxLost)

			if tc.wantErr {
				assert.Error(t, err)
				assert.Nil(t, trk)
				return
			}

			require.NoError(t, err)
			assert.NotNil(t, trk)
		})
	}
}

func TestIOUTrackerStableIDs(t *testing.T) {

	trk, err := NewIOUTracker(0.3, 5)
	require.NoError(t, err)

	// two people walking right a few pixels per frame
	for frame := 0; frame < 10; frame++ {
		dx := float64(frame * 2)

		out, err := trk.Update([]Object{
			person(100+dx, 100),
			person(300+dx, 100),
		})
		require.NoError(t, err)

		if diff := cmp.Diff([]int{1, 2}, ids(out)); diff != "" {
			t.Fatalf("frame %d ids mismatch (-want +got):\n%s", frame, diff)
		}
	}
}

func TestIOUTrackerLostTrack(t *testing.T) {

	trk, err := NewIOUTracker(0.3, 2)
	require.NoError(t, err)

	out, err := trk.Update([]Object{person(100, 100)})
	require.NoError(t, err)
	assert.Equal(t, []int{1}, ids(out))

	// gone for two frames, still within max lost
	for i := 0; i < 2; i++ {
		out, err = trk.Update(nil)
		require.NoError(t, err)
		assert.Empty(t, out)
	}

	out, err = trk.Update([]Object{person(102, 100)})
	require.NoError(t, err)
	assert.Equal(t, []int{1}, ids(out), "track resumed within max lost")

	// gone for three frames, track is removed
	for i := 0; i < 3; i++ {
		_, err = trk.Update(nil)
		require.NoError(t, err)
	}

	out, err = trk.Update([]Object{person(102, 100)})
	require.NoError(t, err)
	assert.Equal(t, []int{2}, ids(out), "new id after track expired")
}

func TestIOUTrackerClassSeparation(t *testing.T) {

	trk, err := NewIOUTracker(0.3, 5)
	require.NoError(t, err)

	_, err = trk.Update([]Object{person(100, 100)})
	require.NoError(t, err)

	car := person(100, 100)
	car.Class = 2
	car.Label = "car"

	out, err := trk.Update([]Object{car})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, 2, out[0].TrackID)
	assert.Equal(t, "car", out[0].Label)
}

func TestIOUTrackerSkipsInvalidBoxes(t *testing.T) {

	trk, err := NewIOUTracker(0.3, 5)
	require.NoError(t, err)

	bad := person(100, 100)
	bad.Box = geometry.Box{X1: 10, Y1: 10, X2: 5, Y2: 20}

	out, err := trk.Update([]Object{bad, person(300, 300)})
	require.NoError(t, err)
	assert.Equal(t, []int{1}, ids(out))
}

func TestIOUTrackerReset(t *testing.T) {

	trk, err := NewIOUTracker(0.3, 5)
	require.NoError(t, err)

	_, err = trk.Update([]Object{person(100, 100), person(300, 100)})
	require.NoError(t, err)

	trk.Reset()

	out, err := trk.Update([]Object{person(500, 100)})
	require.NoError(t, err)
	assert.Equal(t, []int{1}, ids(out))
}

func TestRegistryCentroids(t *testing.T) {

	reg := NewRegistry(nil, DefaultRetain)

	out := reg.Update([]Identified{
		{Object: Object{Box: geometry.Box{X1: 0, Y1: 0, X2: 10, Y2: 10}}, TrackID: 4},
		{Object: Object{Box: geometry.Box{X1: 1, Y1: 2, X2: 4, Y2: 7}}, TrackID: 2},
	})

	require.Len(t, out, 2)
	assert.Equal(t, geometry.Pt(5, 5), out[0].Centroid)
	assert.Equal(t, geometry.Pt(2.5, 4.5), out[1].Centroid)
	assert.Equal(t, 1, out[0].LastFrame)
	assert.Equal(t, []int{2, 4}, reg.Known())
	assert.Equal(t, 1, reg.Frame())
}

func TestRegistryDuplicateLastWins(t *testing.T) {

	reg := NewRegistry(nil, DefaultRetain)

	out := reg.Update([]Identified{
		{Object: Object{Box: geometry.Box{X1: 0, Y1: 0, X2: 10, Y2: 10}}, TrackID: 1},
		{Object: Object{Box: geometry.Box{X1: 20, Y1: 20, X2: 30, Y2: 30}}, TrackID: 2},
		{Object: Object{Box: geometry.Box{X1: 40, Y1: 40, X2: 60, Y2: 60}}, TrackID: 1},
	})

	require.Len(t, out, 2)
	assert.Equal(t, 1, out[0].ID)
	assert.Equal(t, geometry.Pt(50, 50), out[0].Centroid)
	assert.Equal(t, 2, out[1].ID)
}

func TestRegistryReplacesKnownSet(t *testing.T) {

	reg := NewRegistry(nil, DefaultRetain)

	reg.Update([]Identified{
		{Object: Object{Box: geometry.Box{X1: 0, Y1: 0, X2: 10, Y2: 10}}, TrackID: 1},
	})
	reg.Update([]Identified{
		{Object: Object{Box: geometry.Box{X1: 0, Y1: 0, X2: 20, Y2: 20}}, TrackID: 2},
	})

	assert.Equal(t, []int{2}, reg.Known())

	_, ok := reg.Current(1)
	assert.False(t, ok)

	last, ok := reg.LastSeen(1)
	require.True(t, ok)
	assert.Equal(t, geometry.Pt(5, 5), last.Centroid)
	assert.Equal(t, 1, last.LastFrame)

	reg.Update(nil)
	assert.Empty(t, reg.Known())
	assert.Equal(t, 3, reg.Frame())

	reg.Reset()
	assert.Equal(t, 0, reg.Frame())
	_, ok = reg.LastSeen(2)
	assert.False(t, ok)
}

func TestTrail(t *testing.T) {

	trail := NewTrail(3)
	reg := NewRegistry(trail, DefaultRetain)

	for i := 0; i < 5; i++ {
		x := float64(i * 10)
		reg.Update([]Identified{
			{Object: Object{Box: geometry.Box{X1: x, Y1: 0, X2: x + 10, Y2: 10}}, TrackID: 7},
		})
	}

	want := []geometry.Point{{X: 25, Y: 5}, {X: 35, Y: 5}, {X: 45, Y: 5}}

	if diff := cmp.Diff(want, trail.GetPoints(7)); diff != "" {
		t.Errorf("trail mismatch (-want +got):\n%s", diff)
	}

	assert.Nil(t, trail.GetPoints(8))

	// history is kept for size frames after the track vanishes
	for i := 0; i < 3; i++ {
		reg.Update(nil)
	}
	assert.Len(t, trail.GetPoints(7), 3)

	reg.Update(nil)
	assert.Nil(t, trail.GetPoints(7))
}

func TestRegistryExpiresLastSeen(t *testing.T) {

	reg := NewRegistry(nil, 2)

	reg.Update([]Identified{
		{Object: Object{Box: geometry.Box{X1: 0, Y1: 0, X2: 10, Y2: 10}}, TrackID: 1},
	})

	// absent for two frames, still retained
	reg.Update(nil)
	reg.Update(nil)

	_, ok := reg.LastSeen(1)
	assert.True(t, ok)

	reg.Update(nil)

	_, ok = reg.LastSeen(1)
	assert.False(t, ok, "state dropped after retain frames")

	// a stream of ever new IDs keeps only the recent ones
	for id := 10; id < 110; id++ {
		reg.Update([]Identified{
			{Object: Object{Box: geometry.Box{X1: 0, Y1: 0, X2: 10, Y2: 10}}, TrackID: id},
		})
	}

	assert.Len(t, reg.lastSeen, 3)
}
