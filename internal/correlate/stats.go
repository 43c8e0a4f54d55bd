package correlate

import (
	"errors"
	"math"
)

// pearson computes the Pearson correlation coefficient between two equal
// length series. Zero variance in either series is a degenerate input.
func pearson(xs, ys []float64) (float64, error) {
	n := len(xs)
	if n != len(ys) {
		return 0, errors.New("series length mismatch")
	}
	if n < 2 {
		return 0, errors.New("need at least 2 points")
	}

	var sumX, sumY float64
	for i := range xs {
		sumX += xs[i]
		sumY += ys[i]
	}
	meanX := sumX / float64(n)
	meanY := sumY / float64(n)

	var cov, varX, varY float64
	for i := range xs {
		dx := xs[i] - meanX
		dy := ys[i] - meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}

	if varX == 0 || varY == 0 {
		return 0, errors.New("zero variance series")
	}

	r := cov / math.Sqrt(varX*varY)
	// Guard against floating point drift just past the bounds.
	return math.Max(-1, math.Min(1, r)), nil
}

// pValue estimates the two-tailed significance of r at sample size n via a
// t-statistic. For more than 30 degrees of freedom the t distribution is
// close enough to normal to use the normal CDF; below that, fixed critical
// value thresholds are used.
func pValue(r float64, n int) float64 {
	df := n - 2
	if df <= 0 {
		return 1
	}
	if math.Abs(r) >= 1 {
		return 0
	}

	t := r * math.Sqrt(float64(df)/(1-r*r))
	abs := math.Abs(t)

	if df > 30 {
		p := 2 * (1 - normalCDF(abs))
		return math.Max(0, math.Min(1, p))
	}

	switch {
	case abs > 2.576:
		return 0.01
	case abs > 1.96:
		return 0.05
	case abs > 1.645:
		return 0.10
	default:
		return 0.20
	}
}

// fisherInterval builds a confidence interval for r via the Fisher
// z-transformation, back-transformed with tanh and clamped to [-1,1].
// Degenerate inputs (|r| >= 1 or n < 4) return the full interval.
func fisherInterval(r float64, n int, confidenceLevel float64) [2]float64 {
	if math.Abs(r) >= 1 || n < 4 {
		return [2]float64{-1, 1}
	}

	z := 0.5 * math.Log((1+r)/(1-r))
	se := 1 / math.Sqrt(float64(n-3))
	crit := criticalValue(confidenceLevel)

	lo := math.Tanh(z - crit*se)
	hi := math.Tanh(z + crit*se)
	return [2]float64{
		math.Max(-1, math.Min(1, lo)),
		math.Max(-1, math.Min(1, hi)),
	}
}

// criticalValue maps a confidence level to its two-tailed normal critical
// value. Unlisted levels fall back to the 95% value.
func criticalValue(confidenceLevel float64) float64 {
	switch confidenceLevel {
	case 0.90:
		return 1.645
	case 0.95:
		return 1.96
	case 0.99:
		return 2.576
	default:
		return 1.96
	}
}

// normalCDF is the standard normal cumulative distribution function.
func normalCDF(x float64) float64 {
	return 0.5 * (1 + math.Erf(x/math.Sqrt2))
}
