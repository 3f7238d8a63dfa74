package tracker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swdee/go-zonecount/geometry"
)

// detection is a YOLO person detection in x1,y1,x2,y2 form
type detection struct {
	x1, y1, x2, y2, score float64
	detectionID           int64
}

// expectedTrack is a tracker output in x1,y1,x2,y2 form
type expectedTrack struct {
	trackID        int
	x1, y1, x2, y2 float64
	score          float64
	detectionID    int64
}

// detectionFrame holds detection data for a single frame and the tracks the
// tracker is expected to return
type detectionFrame struct {
	frameIdx       int
	detections     []detection
	expectedTracks []expectedTrack
}

// convertDetections takes YOLO detections and converts them into tracker
// objects of the person class
func convertDetections(detections []detection) []Object {

	var objects []Object

	for _, det := range detections {
		objects = append(objects, Object{
			Box:         geometry.Box{X1: det.x1, Y1: det.y1, X2: det.x2, Y2: det.y2},
			Class:       0,
			Label:       "person",
			Score:       float32(det.score),
			DetectionID: det.detectionID,
		})
	}

	return objects
}

// TestBYTETracker tests tracker result from given detection inputs
func TestBYTETracker(t *testing.T) {

	// tolerance for float comparisons
	const tolerance = 1e-2

	bt := NewBYTETracker(30, 30, 0.5, 0.6, 0.8)

	frames := []detectionFrame{
		{
			frameIdx: 0,
			detections: []detection{
				{79, 205, 169, 609, 85.10, 1},
				{196, 222, 258, 451, 83.98, 2},
				{270, 247, 331, 456, 82.81, 3},
				{471, 205, 584, 638, 82.61, 4},
				{158, 302, 201, 506, 78.12, 5},
				{328, 234, 381, 445, 76.65, 6},
				{364, 218, 434, 450, 76.12, 7},
				{347, 148, 378, 238, 46.30, 8},
				{296, 184, 342, 408, 43.97, 9},
				{132, 201, 176, 319, 41.19, 10},
				{69, 191, 120, 391, 31.02, 11},
				{627, 237, 640, 284, 24.46, 12},
			},
			expectedTracks: []expectedTrack{
				{1, 79.00000, 205.00000, 169.00000, 609.00000, 85.10, 1},
				{2, 196.00000, 222.00000, 258.00000, 451.00000, 83.98, 2},
				{3, 270.00000, 247.00000, 331.00000, 456.00000, 82.81, 3},
				{4, 471.00000, 205.00000, 584.00000, 638.00000, 82.61, 4},
				{5, 158.00000, 302.00000, 201.00000, 506.00000, 78.12, 5},
				{6, 328.00000, 234.00000, 381.00000, 445.00000, 76.65, 6},
				{7, 364.00000, 218.00000, 434.00000, 450.00000, 76.12, 7},
				{8, 347.00000, 148.00000, 378.00000, 238.00000, 46.30, 8},
				{9, 296.00000, 184.00000, 342.00000, 408.00000, 43.97, 9},
				{10, 132.00000, 201.00000, 176.00000, 319.00000, 41.19, 10},
				{11, 69.00000, 191.00000, 120.00000, 391.00000, 31.02, 11},
				{12, 627.00000, 237.00000, 640.00000, 284.00000, 24.46, 12},
			},
		},
		{
			frameIdx: 1,
			detections: []detection{
				{471, 212, 584, 633, 83.76, 13},
				{197, 219, 259, 453, 83.59, 14},
				{271, 242, 331, 457, 81.64, 15},
				{83, 220, 166, 610, 78.91, 16},
				{157, 303, 204, 502, 77.43, 17},
				{364, 218, 434, 450, 74.97, 18},
				{327, 232, 383, 446, 73.54, 19},
				{346, 149, 377, 238, 50.58, 20},
				{70, 181, 125, 397, 43.71, 21},
				{297, 185, 343, 416, 42.02, 22},
				{133, 206, 178, 319, 37.11, 23},
				{589, 280, 639, 554, 34.46, 24},
			},
			expectedTracks: []expectedTrack{
				{1, 80.82532, 218.01653, 168.04245, 609.86774, 78.91, 16},
				{2, 196.29364, 219.39668, 259.44189, 452.73553, 83.59, 14},
				{3, 269.70096, 242.66116, 332.16684, 456.86777, 81.64, 15},
				{4, 472.32794, 211.07437, 582.67206, 633.66113, 83.76, 13},
				{5, 159.27533, 302.86774, 201.46021, 502.52890, 77.43, 17},
				{6, 328.08496, 232.26445, 381.78284, 445.86774, 73.54, 19},
				{7, 364.00000, 218.00000, 434.00000, 450.00000, 74.97, 18},
				{8, 346.27829, 148.86777, 376.98615, 238.00000, 50.58, 20},
				{9, 296.25809, 184.86777, 343.47742, 414.94214, 42.02, 22},
				{10, 134.08234, 205.33885, 176.52097, 319.00000, 37.11, 23},
				{11, 69.83383, 182.32233, 124.37277, 396.20660, 43.71, 21},
			},
		},
		{
			frameIdx: 2,
			detections: []detection{
				{472, 204, 584, 637, 85.21, 25},
				{199, 221, 260, 450, 81.64, 26},
				{158, 303, 205, 502, 78.59, 27},
				{84, 228, 167, 609, 77.73, 28},
				{269, 240, 332, 458, 77.34, 29},
				{363, 218, 433, 450, 75.57, 30},
				{329, 233, 381, 445, 73.63, 31},
				{139, 206, 179, 321, 46.31, 32},
				{78, 181, 134, 385, 44.66, 33},
				{296, 185, 346, 411, 42.80, 34},
				{589, 263, 640, 571, 38.81, 35},
				{346, 149, 377, 236, 33.45, 36},
			},
			expectedTracks: []expectedTrack{
				{1, 82.73601, 226.55103, 167.85870, 609.22614, 77.73, 28},
				{2, 198.03925, 220.49619, 260.31458, 450.71359, 81.64, 26},
				{3, 268.93002, 240.37213, 332.31552, 457.78845, 77.34, 29},
				{4, 471.73502, 205.81052, 584.05249, 636.07104, 85.21, 25},
				{5, 160.21704, 303.01587, 202.38788, 501.93652, 78.59, 27},
				{6, 328.31689, 232.74213, 381.69986, 445.24115, 73.63, 31},
				{7, 363.22046, 218.00000, 433.22046, 450.00000, 75.57, 30},
				{8, 346.41031, 149.01614, 376.55737, 236.43452, 33.45, 36},
				{9, 297.41403, 185.01706, 344.16153, 412.28278, 42.80, 34},
				{10, 136.95946, 206.07745, 179.62943, 320.58356, 46.31, 32},
				{11, 77.51575, 180.81949, 130.46681, 388.02057, 44.66, 33},
				{13, 586.94348, 266.39999, 641.85657, 567.59998, 38.81, 35},
			},
		},
	}

	for _, frame := range frames {

		tracked, err := bt.Update(convertDetections(frame.detections))
		require.NoError(t, err, "frame %d", frame.frameIdx)

		require.Len(t, tracked, len(frame.expectedTracks), "frame %d", frame.frameIdx)

		for i, trk := range tracked {
			want := frame.expectedTracks[i]

			assert.Equal(t, want.trackID, trk.TrackID, "frame %d track %d", frame.frameIdx, i)
			assert.InDelta(t, want.x1, trk.Box.X1, tolerance, "frame %d track %d x1", frame.frameIdx, i)
			assert.InDelta(t, want.y1, trk.Box.Y1, tolerance, "frame %d track %d y1", frame.frameIdx, i)
			assert.InDelta(t, want.x2, trk.Box.X2, tolerance, "frame %d track %d x2", frame.frameIdx, i)
			assert.InDelta(t, want.y2, trk.Box.Y2, tolerance, "frame %d track %d y2", frame.frameIdx, i)
			assert.InDelta(t, want.score, float64(trk.Score), tolerance, "frame %d track %d score", frame.frameIdx, i)
			assert.Equal(t, want.detectionID, trk.DetectionID, "frame %d track %d", frame.frameIdx, i)
			assert.Equal(t, "person", trk.Label)
		}
	}
}

// walker returns a 40x100 person box with its top left corner at x
func walker(x float64, id int64) Object {
	return Object{
		Box:         geometry.NewBox(x, 100, 40, 100),
		Label:       "person",
		Score:       0.9,
		DetectionID: id,
	}
}

func TestBYTETrackerFastMover(t *testing.T) {

	bt := NewBYTETracker(DefaultFrameRate, DefaultTrackBuffer,
		DefaultTrackThresh, DefaultHighThresh, DefaultMatchThresh)

	// a box moving 25 pixels per frame, more than half its width, so
	// consecutive detections overlap by less than an IoU of 0.3.  The
	// velocity learnt by the Kalman filter keeps the same ID.
	var ids []int

	for frame := 0; frame < 12; frame++ {
		out, err := bt.Update([]Object{walker(float64(frame*25), int64(frame))})
		require.NoError(t, err)

		for _, o := range out {
			ids = append(ids, o.TrackID)
		}
	}

	require.NotEmpty(t, ids)

	for _, id := range ids {
		assert.Equal(t, 1, id)
	}
}

func TestBYTETrackerOcclusion(t *testing.T) {

	bt := NewBYTETracker(30, 30, 0.5, 0.6, 0.8)

	for frame := 0; frame < 5; frame++ {
		out, err := bt.Update([]Object{walker(100, int64(frame))})
		require.NoError(t, err)
		require.Len(t, out, 1)
		assert.Equal(t, 1, out[0].TrackID)
	}

	// hidden for ten frames, within the track buffer
	for frame := 0; frame < 10; frame++ {
		out, err := bt.Update(nil)
		require.NoError(t, err)
		assert.Empty(t, out)
	}

	out, err := bt.Update([]Object{walker(104, 99)})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, 1, out[0].TrackID, "lost track is found again")
	assert.Equal(t, int64(99), out[0].DetectionID)
}

func TestBYTETrackerLowScoreStartsNoTrack(t *testing.T) {

	bt := NewBYTETracker(30, 30, 0.5, 0.6, 0.8)

	low := walker(100, 1)
	low.Score = 0.55

	out, err := bt.Update([]Object{low})
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestBYTETrackerSkipsInvalidBoxes(t *testing.T) {

	bt := NewBYTETracker(30, 30, 0.5, 0.6, 0.8)

	bad := walker(100, 1)
	bad.Box = geometry.Box{X1: 10, Y1: 10, X2: 10, Y2: 50}

	out, err := bt.Update([]Object{bad, walker(300, 2)})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, int64(2), out[0].DetectionID)
}

func TestBYTETrackerReset(t *testing.T) {

	bt := NewBYTETracker(30, 30, 0.5, 0.6, 0.8)

	_, err := bt.Update([]Object{walker(100, 1), walker(300, 2)})
	require.NoError(t, err)

	bt.Reset()

	out, err := bt.Update([]Object{walker(500, 3)})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, 1, out[0].TrackID)
}

func TestMaxTimeLost(t *testing.T) {
	assert.Equal(t, 30, MaxTimeLost(30, 30))
	assert.Equal(t, 60, MaxTimeLost(60, 30))
	assert.Equal(t, 15, MaxTimeLost(15, 30))
}
