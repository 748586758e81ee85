package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Round rounds x to the given number of decimal places.
func Round(x float64, places int) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}

// Mean returns the arithmetic mean, or 0 for an empty slice.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return stat.Mean(xs, nil)
}

// StdDev returns the sample standard deviation (n-1), or 0 when n < 2.
func StdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	return stat.StdDev(xs, nil)
}

// PopStdDev returns the population standard deviation (n), or 0 for an empty slice.
func PopStdDev(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return math.Sqrt(stat.PopVariance(xs, nil))
}

// CV is the coefficient of variation in percent; 0 when the mean is 0.
func CV(mean, std float64) float64 {
	if mean == 0 {
		return 0
	}
	return std / mean * 100
}

// Sorted returns an ascending copy of xs.
func Sorted(xs []float64) []float64 {
	cp := make([]float64, len(xs))
	copy(cp, xs)
	sort.Float64s(cp)
	return cp
}

// Quantile returns the q-th quantile of an ascending slice using linear
// interpolation between closest ranks.
func Quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

// Median returns the median of xs.
func Median(xs []float64) float64 {
	return Quantile(Sorted(xs), 0.5)
}

// Summary is a describe()-style summary of one numeric column.
type Summary struct {
	Count int     `json:"count"`
	Mean  float64 `json:"mean"`
	Std   float64 `json:"std"`
	Min   float64 `json:"min"`
	Q25   float64 `json:"25%"`
	Q50   float64 `json:"50%"`
	Q75   float64 `json:"75%"`
	Max   float64 `json:"max"`
	CV    float64 `json:"cv_%"`
}

// Describe summarizes xs.
func Describe(xs []float64) Summary {
	if len(xs) == 0 {
		return Summary{}
	}
	s := Sorted(xs)
	out := Summary{
		Count: len(xs),
		Mean:  Mean(xs),
		Std:   StdDev(xs),
		Min:   s[0],
		Q25:   Quantile(s, 0.25),
		Q50:   Quantile(s, 0.5),
		Q75:   Quantile(s, 0.75),
		Max:   s[len(s)-1],
	}
	out.CV = CV(out.Mean, out.Std)
	return out
}

// GroupSummary is the per-group rating summary used for city, cuisine and
// restaurant breakdowns.
type GroupSummary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	CV     float64 `json:"cv_%"`
}

// SummarizeGroup computes a GroupSummary for xs.
func SummarizeGroup(xs []float64) GroupSummary {
	d := Describe(xs)
	return GroupSummary{Count: d.Count, Mean: d.Mean, Std: d.Std, Median: d.Q50, Min: d.Min, Max: d.Max, CV: d.CV}
}
