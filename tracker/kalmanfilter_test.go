package tracker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// assertMatrix compares matrices element wise within epsilon
func assertMatrix(t *testing.T, want, got mat.Matrix, epsilon float64) {
	t.Helper()

	wr, wc := want.Dims()
	gr, gc := got.Dims()

	require.Equal(t, []int{wr, wc}, []int{gr, gc}, "matrix dimensions")

	if !mat.EqualApprox(want, got, epsilon) {
		t.Errorf("expected covariance\n%v\ngot\n%v",
			mat.Formatted(want, mat.Prefix(""), mat.Excerpt(0)),
			mat.Formatted(got, mat.Prefix(""), mat.Excerpt(0)),
		)
	}
}

// TestKalmanFilter tests the filter against values computed by the C++
// ByteTrack implementation
func TestKalmanFilter(t *testing.T) {

	kf := NewKalmanFilter(1.0/20, 1.0/160)

	mean := make(StateMean, 8)
	covariance := &StateCov{mat.NewDense(8, 8, nil)}

	kf.Initiate(mean, covariance, DetectBox{100.0, 200.0, 1.0, 50.0})

	assert.InDeltaSlice(t, []float64{100, 200, 1, 50, 0, 0, 0, 0}, []float64(mean), 1e-4)

	assertMatrix(t, mat.NewDense(8, 8, []float64{
		25.0, 0.0, 0.0, 0.0, 0.0, 0.0, 0.0, 0.0,
		0.0, 25.0, 0.0, 0.0, 0.0, 0.0, 0.0, 0.0,
		0.0, 0.0, 1e-04, 0.0, 0.0, 0.0, 0.0, 0.0,
		0.0, 0.0, 0.0, 25.0, 0.0, 0.0, 0.0, 0.0,
		0.0, 0.0, 0.0, 0.0, 9.765625, 0.0, 0.0, 0.0,
		0.0, 0.0, 0.0, 0.0, 0.0, 9.765625, 0.0, 0.0,
		0.0, 0.0, 0.0, 0.0, 0.0, 0.0, 1e-10, 0.0,
		0.0, 0.0, 0.0, 0.0, 0.0, 0.0, 0.0, 9.765625,
	}), covariance, 1e-4)

	kf.Predict(mean, covariance)

	assert.InDeltaSlice(t, []float64{100, 200, 1, 50, 0, 0, 0, 0}, []float64(mean), 1e-4)

	assertMatrix(t, mat.NewDense(8, 8, []float64{
		41.015625, 0.0, 0.0, 0.0, 9.765625, 0.0, 0.0, 0.0,
		0.0, 41.015625, 0.0, 0.0, 0.0, 9.765625, 0.0, 0.0,
		0.0, 0.0, 0.0002, 0.0, 0.0, 0.0, 1e-10, 0.0,
		0.0, 0.0, 0.0, 41.015625, 0.0, 0.0, 0.0, 9.765625,
		9.765625, 0.0, 0.0, 0.0, 9.86328125, 0.0, 0.0, 0.0,
		0.0, 9.765625, 0.0, 0.0, 0.0, 9.86328125, 0.0, 0.0,
		0.0, 0.0, 1e-10, 0.0, 0.0, 0.0, 2e-10, 0.0,
		0.0, 0.0, 0.0, 9.765625, 0.0, 0.0, 0.0, 9.86328125,
	}), covariance, 1e-4)

	err := kf.Update(mean, covariance, DetectBox{105.0, 205.0, 1.1, 55.0})
	require.NoError(t, err)

	assert.InDeltaSlice(t,
		[]float64{104.338844, 204.338837, 1.001961, 54.338844, 1.033058, 1.033058, 0.0, 1.033058},
		[]float64(mean), 1e-4)

	assertMatrix(t, mat.NewDense(8, 8, []float64{
		5.423553719008268, 0.0, 0.0, 0.0, 1.2913223140495873, 0.0, 0.0, 0.0,
		0.0, 5.423553719008268, 0.0, 0.0, 0.0, 1.2913223140495873, 0.0, 0.0,
		0.0, 0.0, 0.00019607852290531608, 0.0, 0.0, 0.0, 9.803920941585902e-11, 0.0,
		0.0, 0.0, 0.0, 5.423553719008268, 0.0, 0.0, 0.0, 1.2913223140495873,
		1.291322314049589, 0.0, 0.0, 0.0, 7.845590134297521, 0.0, 0.0, 0.0,
		0.0, 1.291322314049589, 0.0, 0.0, 0.0, 7.845590134297521, 0.0, 0.0,
		0.0, 0.0, 9.803920941585902e-11, 0.0, 0.0, 0.0, 1.9999998781210662e-10, 0.0,
		0.0, 0.0, 0.0, 1.291322314049589, 0.0, 0.0, 0.0, 7.845590134297521,
	}), covariance, 1e-4)
}

func TestKalmanFilterLearnsVelocity(t *testing.T) {

	kf := NewKalmanFilter(1.0/20, 1.0/160)

	mean := make(StateMean, 8)
	covariance := &StateCov{mat.NewDense(8, 8, nil)}

	kf.Initiate(mean, covariance, DetectBox{0, 100, 0.4, 100})

	for step := 1; step <= 50; step++ {
		kf.Predict(mean, covariance)
		require.NoError(t, kf.Update(mean, covariance, DetectBox{float64(step * 10), 100, 0.4, 100}))
	}

	assert.InDelta(t, 10, mean[4], 1, "x velocity")
	assert.InDelta(t, 0, mean[5], 0.5, "y velocity")
	assert.InDelta(t, 500, mean[0], 3, "x position")
}
