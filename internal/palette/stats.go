package palette

import (
	"math"

	"github.com/aclements/go-moremath/stats"
)

// threshold returns max(xs) - k·σ, where σ is the population standard
// deviation.
func threshold(xs []float64, k float64) float64 {
	_, hi := stats.Bounds(xs)
	return hi - k*populationStdDev(xs)
}

func populationStdDev(xs []float64) float64 {
	n := float64(len(xs))
	if n < 2 {
		return 0
	}
	// stats.StdDev is the sample deviation.
	return stats.StdDev(xs) * math.Sqrt((n-1)/n)
}
