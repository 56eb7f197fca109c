package sweep

import (
	"fmt"
	"math"
)

// USL holds Universal Scalability Law coefficients:
//
//	C(N) = λN / (1 + α(N-1) + βN(N-1))
type USL struct {
	Lambda   float64 // publishes/sec with a single writer
	Alpha    float64 // contention
	Beta     float64 // coherency
	RSquared float64 // goodness of fit, 1.0 is perfect
}

// Predict returns the modelled publish rate at n writers.
func (u USL) Predict(n int) float64 {
	return usl(float64(n), u.Lambda, u.Alpha, u.Beta)
}

// Peak returns the writer count where the model peaks, or 0 when β is zero
// and the curve never turns over.
func (u USL) Peak() float64 {
	if u.Beta <= 0 || u.Alpha >= 1 {
		return 0
	}
	return math.Sqrt((1 - u.Alpha) / u.Beta)
}

func usl(n, lambda, alpha, beta float64) float64 {
	return lambda * n / (1 + alpha*(n-1) + beta*n*(n-1))
}

// FitContention fits the USL to the publish rate of each level.
//
// The model is linearised as N/C(N) = b0 + b1(N-1) + b2·N(N-1) and solved by
// least squares; λ = 1/b0, α = b1/b0, β = b2/b0. A negative β is a fitting
// artifact from noise, so the fit falls back to the contention-only model.
func FitContention(levels []Level) (USL, error) {
	pts := make([]Level, 0, len(levels))
	for _, l := range levels {
		if l.PublishRate > 0 {
			pts = append(pts, l)
		}
	}
	if len(pts) < 3 {
		return USL{}, fmt.Errorf("need at least 3 levels with publishes, got %d", len(pts))
	}

	// Normal equations: A·b = y with rows [1, x1, x2].
	var a [3][3]float64
	var y [3]float64
	for _, p := range pts {
		n := float64(p.Writers)
		row := [3]float64{1, n - 1, n * (n - 1)}
		obs := n / p.PublishRate
		for i := range row {
			for j := range row {
				a[i][j] += row[i] * row[j]
			}
			y[i] += row[i] * obs
		}
	}

	b, ok := solve3(a, y)
	if !ok {
		return USL{}, fmt.Errorf("levels %v do not determine the model", writerCounts(pts))
	}

	fit := USL{Lambda: 1 / b[0], Alpha: b[1] / b[0], Beta: b[2] / b[0]}
	if fit.Beta < 0 {
		fit.Beta = 0
		if b0, b1, ok := solve2(pts); ok {
			fit.Lambda = 1 / b0
			fit.Alpha = b1 / b0
		}
	}
	fit.RSquared = rSquared(pts, fit)
	return fit, nil
}

// solve2 fits N/C(N) = b0 + b1(N-1).
func solve2(pts []Level) (b0, b1 float64, ok bool) {
	var n, sx, sxx, sy, sxy float64
	for _, p := range pts {
		w := float64(p.Writers)
		x := w - 1
		obs := w / p.PublishRate
		n++
		sx += x
		sxx += x * x
		sy += obs
		sxy += x * obs
	}
	det := n*sxx - sx*sx
	if math.Abs(det) < 1e-12 {
		return 0, 0, false
	}
	return (sxx*sy - sx*sxy) / det, (n*sxy - sx*sy) / det, true
}

// solve3 solves a 3x3 system by Cramer's rule.
func solve3(a [3][3]float64, y [3]float64) ([3]float64, bool) {
	det := det3(a)
	if math.Abs(det) < 1e-12 {
		return [3]float64{}, false
	}
	var b [3]float64
	for col := 0; col < 3; col++ {
		m := a
		for row := 0; row < 3; row++ {
			m[row][col] = y[row]
		}
		b[col] = det3(m) / det
	}
	return b, true
}

func det3(m [3][3]float64) float64 {
	return m[0][0]*(m[1][1]*m[2][2]-m[1][2]*m[2][1]) -
		m[0][1]*(m[1][0]*m[2][2]-m[1][2]*m[2][0]) +
		m[0][2]*(m[1][0]*m[2][1]-m[1][1]*m[2][0])
}

func rSquared(pts []Level, fit USL) float64 {
	var mean float64
	for _, p := range pts {
		mean += p.PublishRate
	}
	mean /= float64(len(pts))

	var ssRes, ssTot float64
	for _, p := range pts {
		d := p.PublishRate - fit.Predict(p.Writers)
		ssRes += d * d
		t := p.PublishRate - mean
		ssTot += t * t
	}
	if ssTot == 0 {
		if ssRes == 0 {
			return 1
		}
		return 0
	}
	return 1 - ssRes/ssTot
}

func writerCounts(pts []Level) []int {
	ns := make([]int, len(pts))
	for i, p := range pts {
		ns[i] = p.Writers
	}
	return ns
}
