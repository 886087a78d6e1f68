package stats

import "gonum.org/v1/gonum/stat/distuv"

// ZVal returns the two-tailed Z-value for a confidence interval,
// given as a percentage (95, 98, 99, ...).
func ZVal(ci float64) float64 {
	dist := distuv.Normal{
		Mu:    0,
		Sigma: 1,
	}
	area := (1 + (ci / 100)) / 2
	return dist.Quantile(area)
}
