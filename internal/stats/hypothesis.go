package stats

import (
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// ANOVAResult holds a one-way ANOVA outcome.
type ANOVAResult struct {
	F          float64
	P          float64
	EtaSquared float64
}

// OneWayANOVA runs a one-way ANOVA across groups. Zero within-group
// variance with differing means yields F=+Inf and p=0; identical constant
// groups yield NaN.
func OneWayANOVA(groups [][]float64) ANOVAResult {
	var all []float64
	for _, g := range groups {
		all = append(all, g...)
	}
	k, n := len(groups), len(all)
	if k < 2 || n <= k {
		return ANOVAResult{F: math.NaN(), P: math.NaN()}
	}
	grand := Mean(all)
	var ssb, ssw float64
	for _, g := range groups {
		m := Mean(g)
		ssb += float64(len(g)) * (m - grand) * (m - grand)
		for _, v := range g {
			ssw += (v - m) * (v - m)
		}
	}
	sst := ssb + ssw
	res := ANOVAResult{}
	if sst != 0 {
		res.EtaSquared = ssb / sst
	}
	dfb, dfw := float64(k-1), float64(n-k)
	switch {
	case ssw == 0 && ssb == 0:
		res.F, res.P = math.NaN(), math.NaN()
	case ssw == 0:
		res.F, res.P = math.Inf(1), 0
	default:
		res.F = (ssb / dfb) / (ssw / dfw)
		res.P = distuv.F{D1: dfb, D2: dfw}.Survival(res.F)
	}
	return res
}

// WelchResult holds a two-sample unequal-variance t-test outcome.
type WelchResult struct {
	T  float64
	P  float64
	DF float64
}

// WelchTTest compares the means of a and b without assuming equal variance.
// The p-value is two-sided.
func WelchTTest(a, b []float64) WelchResult {
	n1, n2 := float64(len(a)), float64(len(b))
	if n1 < 2 || n2 < 2 {
		return WelchResult{T: math.NaN(), P: math.NaN(), DF: math.NaN()}
	}
	m1, m2 := Mean(a), Mean(b)
	v1, v2 := stat.Variance(a, nil), stat.Variance(b, nil)
	se1, se2 := v1/n1, v2/n2
	se := math.Sqrt(se1 + se2)
	if se == 0 {
		if m1 == m2 {
			return WelchResult{T: math.NaN(), P: math.NaN(), DF: math.NaN()}
		}
		return WelchResult{T: math.Copysign(math.Inf(1), m1-m2), P: 0, DF: n1 + n2 - 2}
	}
	t := (m1 - m2) / se
	df := (se1 + se2) * (se1 + se2) / (se1*se1/(n1-1) + se2*se2/(n2-1))
	p := 2 * distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}.Survival(math.Abs(t))
	return WelchResult{T: t, P: math.Min(p, 1), DF: df}
}

// CohensD is the standardized mean difference of a and b using the pooled
// sample standard deviation; 0 when the pooled deviation is 0.
func CohensD(a, b []float64) float64 {
	n1, n2 := float64(len(a)), float64(len(b))
	if n1+n2-2 <= 0 {
		return 0
	}
	s1, s2 := StdDev(a), StdDev(b)
	pooled := math.Sqrt(((n1-1)*s1*s1 + (n2-1)*s2*s2) / (n1 + n2 - 2))
	if pooled == 0 {
		return 0
	}
	return (Mean(a) - Mean(b)) / pooled
}

// PearsonResult holds a correlation coefficient and its two-sided p-value.
type PearsonResult struct {
	R float64
	P float64
}

// Pearson correlates x and y. ok is false when fewer than three pairs exist
// or either series is constant.
func Pearson(x, y []float64) (PearsonResult, bool) {
	n := len(x)
	if n != len(y) || n < 3 {
		return PearsonResult{}, false
	}
	if StdDev(x) == 0 || StdDev(y) == 0 {
		return PearsonResult{}, false
	}
	r := stat.Correlation(x, y, nil)
	r = math.Max(-1, math.Min(1, r))
	if math.Abs(r) == 1 {
		return PearsonResult{R: r, P: 0}, true
	}
	df := float64(n - 2)
	t := r * math.Sqrt(df/(1-r*r))
	p := 2 * distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}.Survival(math.Abs(t))
	return PearsonResult{R: r, P: math.Min(p, 1)}, true
}

// SignificanceCode renders a p-value as Yes***, Yes**, Yes* or No.
func SignificanceCode(p float64) string {
	switch {
	case p < 0.001:
		return "Yes***"
	case p < 0.01:
		return "Yes**"
	case p < 0.05:
		return "Yes*"
	default:
		return "No"
	}
}

// EtaSquaredEffect labels an ANOVA effect size.
func EtaSquaredEffect(eta float64) string {
	switch {
	case eta < 0.01:
		return "Small"
	case eta < 0.06:
		return "Medium"
	default:
		return "Large"
	}
}

// CohensDEffect labels a standardized mean difference.
func CohensDEffect(d float64) string {
	ad := math.Abs(d)
	switch {
	case ad < 0.2:
		return "Negligible"
	case ad < 0.5:
		return "Small"
	case ad < 0.8:
		return "Medium"
	default:
		return "Large"
	}
}

// CorrelationStrength labels a correlation coefficient.
func CorrelationStrength(r float64) string {
	ar := math.Abs(r)
	switch {
	case ar < 0.1:
		return "Negligible"
	case ar < 0.3:
		return "Weak"
	case ar < 0.5:
		return "Moderate"
	case ar < 0.7:
		return "Strong"
	default:
		return "Very strong"
	}
}
