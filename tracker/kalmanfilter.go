package tracker

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// DetectBox is a measurement in (center x, center y, aspect ratio, height)
type DetectBox []float64

// StateMean is the 8 dimensional state, the measurement followed by its
// velocities
type StateMean []float64

// StateCov represents an 8x8 state covariance matrix
type StateCov struct {
	*mat.Dense
}

// KalmanFilter is a constant velocity Kalman filter over box center, aspect
// ratio and height
type KalmanFilter struct {
	stdWeightPosition float64
	stdWeightVelocity float64
	motionMat         *mat.Dense
	updateMat         *mat.Dense
}

// NewKalmanFilter initializes and returns a new KalmanFilter
func NewKalmanFilter(stdWeightPosition, stdWeightVelocity float64) *KalmanFilter {

	const ndim = 4

	// identity with a unit time step coupling each position to its velocity
	motionMat := mat.NewDense(2*ndim, 2*ndim, nil)

	for i := 0; i < 2*ndim; i++ {
		motionMat.Set(i, i, 1)
	}

	for i := 0; i < ndim; i++ {
		motionMat.Set(i, ndim+i, 1)
	}

	// observe the first four state elements
	updateMat := mat.NewDense(ndim, 2*ndim, nil)

	for i := 0; i < ndim; i++ {
		updateMat.Set(i, i, 1)
	}

	return &KalmanFilter{
		stdWeightPosition: stdWeightPosition,
		stdWeightVelocity: stdWeightVelocity,
		motionMat:         motionMat,
		updateMat:         updateMat,
	}
}

// diagonal returns a square matrix with the squares of std on its diagonal
func diagonal(std []float64) *mat.Dense {

	d := mat.NewDense(len(std), len(std), nil)

	for i, s := range std {
		d.Set(i, i, s*s)
	}

	return d
}

// Initiate initializes the state mean and covariance from a first
// measurement with zero velocity
func (kf *KalmanFilter) Initiate(mean StateMean, covariance *StateCov,
	measurement DetectBox) {

	copy(mean[:4], measurement[:4])

	for i := 4; i < 8; i++ {
		mean[i] = 0
	}

	pos := 2 * kf.stdWeightPosition * measurement[3]
	vel := 10 * kf.stdWeightVelocity * measurement[3]

	covariance.Dense = diagonal([]float64{
		pos, pos, 1e-2, pos,
		vel, vel, 1e-5, vel,
	})
}

// Predict advances the state mean and covariance by one frame
func (kf *KalmanFilter) Predict(mean StateMean, covariance *StateCov) {

	pos := kf.stdWeightPosition * mean[3]
	vel := kf.stdWeightVelocity * mean[3]

	motionCov := diagonal([]float64{
		pos, pos, 1e-2, pos,
		vel, vel, 1e-5, vel,
	})

	var next mat.VecDense
	next.MulVec(kf.motionMat, mat.NewVecDense(8, mean))

	for i := 0; i < 8; i++ {
		mean[i] = next.AtVec(i)
	}

	// F * P * F' + Q
	var fp, cov mat.Dense
	fp.Mul(kf.motionMat, covariance.Dense)
	cov.Mul(&fp, kf.motionMat.T())
	cov.Add(&cov, motionCov)

	covariance.Dense = &cov
}

// Update corrects the state mean and covariance with a measurement
func (kf *KalmanFilter) Update(mean StateMean, covariance *StateCov,
	measurement DetectBox) error {

	projectedMean, projectedCov := kf.project(mean, covariance)

	var chol mat.Cholesky

	if ok := chol.Factorize(projectedCov); !ok {
		return errors.New("failed to factorize projected covariance")
	}

	// gain is solved transposed as S^-1 * H * P
	var pht, gain mat.Dense
	pht.Mul(covariance.Dense, kf.updateMat.T())

	if err := chol.SolveTo(&gain, pht.T()); err != nil {
		return fmt.Errorf("failed to compute kalman gain: %w", err)
	}

	innovation := mat.NewVecDense(4, nil)

	for i := 0; i < 4; i++ {
		innovation.SetVec(i, measurement[i]-projectedMean.AtVec(i))
	}

	var delta mat.VecDense
	delta.MulVec(gain.T(), innovation)

	for i := 0; i < 8; i++ {
		mean[i] += delta.AtVec(i)
	}

	// P - K * S * K'
	var ks, ksk, cov mat.Dense
	ks.Mul(gain.T(), projectedCov)
	ksk.Mul(&ks, &gain)
	cov.Sub(covariance.Dense, &ksk)

	covariance.Dense = &cov

	return nil
}

// project maps the state mean and covariance to measurement space
func (kf *KalmanFilter) project(mean StateMean,
	covariance *StateCov) (*mat.VecDense, *mat.SymDense) {

	pos := kf.stdWeightPosition * mean[3]
	noise := []float64{pos, pos, 1e-1, pos}

	projectedMean := mat.NewVecDense(4, nil)
	projectedMean.MulVec(kf.updateMat, mat.NewVecDense(8, mean))

	var hp, hph mat.Dense
	hp.Mul(kf.updateMat, covariance.Dense)
	hph.Mul(&hp, kf.updateMat.T())

	projectedCov := mat.NewSymDense(4, nil)

	for i := 0; i < 4; i++ {
		for j := i; j < 4; j++ {
			v := hph.At(i, j)

			if i == j {
				v += noise[i] * noise[i]
			}

			projectedCov.SetSym(i, j, v)
		}
	}

	return projectedMean, projectedCov
}
