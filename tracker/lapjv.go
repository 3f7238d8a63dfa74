package tracker

import (
	"errors"
	"fmt"
)

// lapLarge is the initial minimum when searching reduced costs
const lapLarge = 1000000.0

// linearAssignment matches rows (tracks) to columns (detections) minimising
// the total cost.  Pairs costing more than thresh are left unmatched.
func linearAssignment(cost [][]float64, rows, cols int,
	thresh float64) (matches [][2]int, unmatchedRows, unmatchedCols []int, err error) {

	if rows == 0 || cols == 0 {
		for i := 0; i < rows; i++ {
			unmatchedRows = append(unmatchedRows, i)
		}
		for i := 0; i < cols; i++ {
			unmatchedCols = append(unmatchedCols, i)
		}
		return
	}

	rowsol, colsol, err := solveAssignment(cost, thresh)

	if err != nil {
		return nil, nil, nil, err
	}

	for i, sol := range rowsol {
		if sol >= 0 {
			matches = append(matches, [2]int{i, sol})
		} else {
			unmatchedRows = append(unmatchedRows, i)
		}
	}

	for i, sol := range colsol {
		if sol < 0 {
			unmatchedCols = append(unmatchedCols, i)
		}
	}

	return
}

// solveAssignment solves a rectangular assignment by extending the cost
// matrix to a square one where leaving a row or column unassigned costs
// limit/2.  It returns the column of each row and the row of each column,
// -1 when unassigned.
func solveAssignment(cost [][]float64, limit float64) (rowsol, colsol []int, err error) {

	nRows := len(cost)
	nCols := len(cost[0])
	n := nRows + nCols

	ext := make([][]float64, n)

	for i := range ext {
		ext[i] = make([]float64, n)

		for j := range ext[i] {
			switch {
			case i < nRows && j < nCols:
				ext[i][j] = cost[i][j]
			case i >= nRows && j >= nCols:
				ext[i][j] = 0
			default:
				ext[i][j] = limit / 2
			}
		}
	}

	x := make([]int, n)
	y := make([]int, n)

	if err := lapjvInternal(n, ext, x, y); err != nil {
		return nil, nil, fmt.Errorf("assignment failed: %w", err)
	}

	rowsol = make([]int, nRows)
	colsol = make([]int, nCols)

	for i := 0; i < nRows; i++ {
		rowsol[i] = x[i]
		if rowsol[i] >= nCols {
			rowsol[i] = -1
		}
	}

	for j := 0; j < nCols; j++ {
		colsol[j] = y[j]
		if colsol[j] >= nRows {
			colsol[j] = -1
		}
	}

	return rowsol, colsol, nil
}

// lapjvInternal solves the dense square linear assignment problem with the
// Jonker-Volgenant algorithm.  On return x holds the column assigned to each
// row and y the row assigned to each column.
func lapjvInternal(n int, cost [][]float64, x, y []int) error {

	freeRows := make([]int, n)
	v := make([]float64, n)

	free := ccrrtDense(n, cost, freeRows, x, y, v)

	for i := 0; free > 0 && i < 2; i++ {
		free = carrDense(n, cost, free, freeRows, x, y, v)
	}

	if free > 0 {
		return caDense(n, cost, free, freeRows, x, y, v)
	}

	return nil
}

// ccrrtDense performs column reduction and reduction transfer, returning the
// number of rows left unassigned
func ccrrtDense(n int, cost [][]float64, freeRows, x, y []int, v []float64) int {

	unique := make([]bool, n)

	for i := 0; i < n; i++ {
		x[i] = -1
		v[i] = lapLarge
		y[i] = 0
	}

	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if c := cost[i][j]; c < v[j] {
				v[j] = c
				y[j] = i
			}
		}
	}

	for i := 0; i < n; i++ {
		unique[i] = true
	}

	for j := n - 1; j >= 0; j-- {
		i := y[j]

		if x[i] < 0 {
			x[i] = j
		} else {
			unique[i] = false
			y[j] = -1
		}
	}

	nFree := 0

	for i := 0; i < n; i++ {

		if x[i] < 0 {
			freeRows[nFree] = i
			nFree++
			continue
		}

		if !unique[i] {
			continue
		}

		j := x[i]
		minVal := lapLarge

		for j2 := 0; j2 < n; j2++ {
			if j2 == j {
				continue
			}

			if c := cost[i][j2] - v[j2]; c < minVal {
				minVal = c
			}
		}

		v[j] -= minVal
	}

	return nFree
}

// carrDense performs augmenting row reduction, returning the number of rows
// still unassigned
func carrDense(n int, cost [][]float64, nFree int, freeRows,
	x, y []int, v []float64) int {

	current := 0
	newFree := 0
	rrCnt := 0

	for current < nFree {

		rrCnt++
		freeI := freeRows[current]
		current++

		// find the lowest and second lowest reduced cost of the row
		j1 := 0
		v1 := cost[freeI][0] - v[0]
		j2 := -1
		v2 := lapLarge

		for j := 1; j < n; j++ {
			c := cost[freeI][j] - v[j]

			if c < v2 {
				if c >= v1 {
					v2 = c
					j2 = j
				} else {
					v2 = v1
					v1 = c
					j2 = j1
					j1 = j
				}
			}
		}

		i0 := y[j1]
		v1New := v[j1] - (v2 - v1)
		v1Lowers := v1New < v[j1]

		if rrCnt < current*n {
			if v1Lowers {
				v[j1] = v1New
			} else if i0 >= 0 && j2 >= 0 {
				j1 = j2
				i0 = y[j2]
			}

			if i0 >= 0 {
				if v1Lowers {
					current--
					freeRows[current] = i0
				} else {
					freeRows[newFree] = i0
					newFree++
				}
			}

		} else if i0 >= 0 {
			freeRows[newFree] = i0
			newFree++
		}

		x[freeI] = j1
		y[j1] = freeI
	}

	return newFree
}

// findDense moves the columns with the minimum d to the SCAN list starting
// at lo and returns the end of the list
func findDense(n int, lo int, d []float64, cols []int) int {

	hi := lo + 1
	mind := d[cols[lo]]

	for k := hi; k < n; k++ {
		j := cols[k]

		if d[j] > mind {
			continue
		}

		if d[j] < mind {
			hi = lo
			mind = d[j]
		}

		cols[k] = cols[hi]
		cols[hi] = j
		hi++
	}

	return hi
}

// scanDense scans the TODO columns from the SCAN list lowering their d,
// returning an unassigned column reached at minimum distance or -1
func scanDense(n int, cost [][]float64, lo, hi *int, d []float64,
	cols, pred, y []int, v []float64) int {

	for *lo != *hi {

		j := cols[*lo]
		*lo++
		i := y[j]
		mind := d[j]
		h := cost[i][j] - v[j] - mind

		for k := *hi; k < n; k++ {
			j = cols[k]
			cred := cost[i][j] - v[j] - h

			if cred >= d[j] {
				continue
			}

			d[j] = cred
			pred[j] = i

			if cred == mind {
				if y[j] < 0 {
					return j
				}

				cols[k] = cols[*hi]
				cols[*hi] = j
				*hi++
			}
		}
	}

	return -1
}

// findPathDense runs one shortest augmenting path search from startI and
// returns the unassigned column it ends at
func findPathDense(n int, cost [][]float64, startI int, y []int, v []float64,
	pred []int) int {

	lo := 0
	hi := 0
	finalJ := -1
	nReady := 0
	cols := make([]int, n)
	d := make([]float64, n)

	for i := 0; i < n; i++ {
		cols[i] = i
		pred[i] = startI
		d[i] = cost[startI][i] - v[i]
	}

	for finalJ == -1 {

		// no columns left on the SCAN list
		if lo == hi {
			nReady = lo
			hi = findDense(n, lo, d, cols)

			for k := lo; k < hi; k++ {
				if j := cols[k]; y[j] < 0 {
					finalJ = j
				}
			}
		}

		if finalJ == -1 {
			finalJ = scanDense(n, cost, &lo, &hi, d, cols, pred, y, v)
		}
	}

	mind := d[cols[lo]]

	for k := 0; k < nReady; k++ {
		j := cols[k]
		v[j] += d[j] - mind
	}

	return finalJ
}

// caDense augments the remaining free rows along shortest paths
func caDense(n int, cost [][]float64, nFree int, freeRows,
	x, y []int, v []float64) error {

	pred := make([]int, n)

	for _, freeI := range freeRows[:nFree] {

		j := findPathDense(n, cost, freeI, y, v, pred)

		if j < 0 || j >= n {
			return fmt.Errorf("augmenting path ended at invalid column %d", j)
		}

		for i, k := -1, 0; i != freeI; k++ {

			if k >= n {
				return errors.New("augmenting path longer than matrix")
			}

			i = pred[j]
			y[j] = i
			j, x[i] = x[i], j
		}
	}

	return nil
}
