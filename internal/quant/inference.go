package quant

import (
	"github.com/KaramelBytes/reviewloom-cli/internal/review"
	"github.com/KaramelBytes/reviewloom-cli/internal/stats"
)

// ANOVA is a one-way ANOVA of rating across groups.
type ANOVA struct {
	FStatistic  Float   `json:"F_statistic"`
	PValue      Float   `json:"p_value"`
	EtaSquared  float64 `json:"eta_squared"`
	EffectSize  string  `json:"effect_size"`
	NGroups     int     `json:"n_groups"`
	Significant string  `json:"significant"`
}

// TTest compares ratings of reviews with and without likes.
type TTest struct {
	TStatistic       Float   `json:"t_statistic"`
	PValue           Float   `json:"p_value"`
	CohensD          float64 `json:"cohens_d"`
	EffectSize       string  `json:"effect_size"`
	Significant      string  `json:"significant"`
	MeanWithLikes    float64 `json:"mean_with_likes"`
	MeanWithoutLikes float64 `json:"mean_without_likes"`
	MeanDifference   float64 `json:"mean_difference"`
	NWithLikes       int     `json:"n_with_likes"`
	NWithoutLikes    int     `json:"n_without_likes"`
}

// Correlation is the Pearson correlation of rating and like count.
type Correlation struct {
	PearsonR    float64 `json:"pearson_r"`
	PValue      float64 `json:"p_value"`
	Strength    string  `json:"strength"`
	Significant string  `json:"significant"`
}

// Tests is stage 2.
type Tests struct {
	ANOVAByCity      Outcome[ANOVA]       `json:"anova_by_city"`
	ANOVAByCuisine   Outcome[ANOVA]       `json:"anova_by_cuisine"`
	TTestLikes       Outcome[TTest]       `json:"ttest_likes_comparison"`
	CorrelationLikes Outcome[Correlation] `json:"correlation_rating_likes"`
}

func runTests(t *review.Table, opt Options) Tests {
	return Tests{
		ANOVAByCity:      anovaBy(t, byCity, ReasonOneCity, opt.MinGroupSize),
		ANOVAByCuisine:   anovaBy(t, byCuisine, ReasonOneCuisine, opt.MinGroupSize),
		TTestLikes:       likesTTest(t, opt.MinTTestGroupSize),
		CorrelationLikes: ratingLikesCorrelation(t),
	}
}

// anovaBy keeps groups with at least minSize ratings and needs two of them.
func anovaBy(t *review.Table, key func(review.Review) string, oneGroup string, minSize int) Outcome[ANOVA] {
	order, groups := groupRatings(t, key)
	if len(order) <= 1 {
		return NotApplicable[ANOVA](oneGroup)
	}
	var kept [][]float64
	for _, k := range order {
		if len(groups[k]) >= minSize {
			kept = append(kept, groups[k])
		}
	}
	if len(kept) < 2 {
		return NotApplicable[ANOVA](ReasonFewGroups)
	}
	res := stats.OneWayANOVA(kept)
	return Computed(ANOVA{
		FStatistic:  Float(res.F),
		PValue:      Float(res.P),
		EtaSquared:  res.EtaSquared,
		EffectSize:  stats.EtaSquaredEffect(res.EtaSquared),
		NGroups:     len(kept),
		Significant: stats.SignificanceCode(res.P),
	})
}

func likesTTest(t *review.Table, minSize int) Outcome[TTest] {
	var with, without []float64
	for _, r := range t.Reviews {
		if r.LikeCount > 0 {
			with = append(with, r.RatingOverall)
		} else {
			without = append(without, r.RatingOverall)
		}
	}
	if len(with) < minSize || len(without) < minSize {
		return NotApplicable[TTest](ReasonInsufficient)
	}
	res := stats.WelchTTest(with, without)
	d := stats.CohensD(with, without)
	m1, m2 := stats.Mean(with), stats.Mean(without)
	return Computed(TTest{
		TStatistic:       Float(res.T),
		PValue:           Float(res.P),
		CohensD:          d,
		EffectSize:       stats.CohensDEffect(d),
		Significant:      stats.SignificanceCode(res.P),
		MeanWithLikes:    m1,
		MeanWithoutLikes: m2,
		MeanDifference:   m1 - m2,
		NWithLikes:       len(with),
		NWithoutLikes:    len(without),
	})
}

func ratingLikesCorrelation(t *review.Table) Outcome[Correlation] {
	if t.Len() <= 2 {
		return NotApplicable[Correlation](ReasonInsufficient)
	}
	res, ok := stats.Pearson(t.Ratings(), t.Likes())
	if !ok {
		return NotApplicable[Correlation](ReasonConstant)
	}
	return Computed(Correlation{
		PearsonR:    res.R,
		PValue:      res.P,
		Strength:    stats.CorrelationStrength(res.R),
		Significant: stats.SignificanceCode(res.P),
	})
}
