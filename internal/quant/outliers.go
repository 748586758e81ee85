package quant

import (
	"math"

	"github.com/KaramelBytes/reviewloom-cli/internal/review"
	"github.com/KaramelBytes/reviewloom-cli/internal/stats"
)

// IQRResult summarizes Tukey-fence outliers of one column.
type IQRResult struct {
	Column            string  `json:"column"`
	Q1                float64 `json:"Q1"`
	Q3                float64 `json:"Q3"`
	IQR               float64 `json:"IQR"`
	LowerBound        float64 `json:"lower_bound"`
	UpperBound        float64 `json:"upper_bound"`
	OutlierCount      int     `json:"outlier_count"`
	OutlierPercentage float64 `json:"outlier_percentage"`
}

// ZScoreResult summarizes z-score outliers of one column.
type ZScoreResult struct {
	Column            string  `json:"column"`
	Mean              float64 `json:"mean"`
	StdDev            float64 `json:"std_dev"`
	Threshold         float64 `json:"threshold"`
	OutlierCount      int     `json:"outlier_count"`
	OutlierPercentage float64 `json:"outlier_percentage"`
}

// Anomaly flags.
const (
	FlagOutlierVsRestaurant     = "outlier_vs_restaurant"
	FlagViralEngagement         = "viral_engagement"
	FlagLowRatingHighEngagement = "low_rating_high_engagement"
	anomalyRestaurantMinReviews = 20
	anomalyRatingGap            = 3.0
	anomalyViralMinLikes        = 5
	anomalyLowRating            = 2.0
	anomalyEngagementPercentile = 0.99
)

// Anomaly is one review that tripped the engagement/rating rules.
type Anomaly struct {
	ReviewID       int      `json:"review_id"`
	ReviewerName   string   `json:"reviewer_name"`
	RatingOverall  float64  `json:"rating_overall"`
	LikeCount      int      `json:"like_count"`
	RestaurantName string   `json:"restaurant_name"`
	Flags          []string `json:"anomaly_flags"`
	FlagCount      int      `json:"flag_count"`
}

// Outliers is stage 3.
type Outliers struct {
	RatingIQR              Outcome[IQRResult]    `json:"rating_outliers_iqr"`
	RatingZScore           Outcome[ZScoreResult] `json:"rating_outliers_zscore"`
	LikesIQR               Outcome[IQRResult]    `json:"likes_outliers_iqr"`
	LikesZScore            Outcome[ZScoreResult] `json:"likes_outliers_zscore"`
	RestaurantRatingIQR    Outcome[IQRResult]    `json:"restaurant_rating_outliers_iqr"`
	RestaurantRatingZScore Outcome[ZScoreResult] `json:"restaurant_rating_outliers_zscore"`
	Like99thPercentile     float64               `json:"like_count_p99"`
	AnomalyCount           int                   `json:"anomaly_count"`
	AnomalyPercentage      float64               `json:"anomaly_percentage"`
	Anomalies              []Anomaly             `json:"anomalies"`
}

// IQROutliers counts values outside [Q1-k*IQR, Q3+k*IQR].
func IQROutliers(xs []float64, column string, k float64) Outcome[IQRResult] {
	if len(xs) == 0 {
		return NotApplicable[IQRResult](ReasonNoData)
	}
	s := stats.Sorted(xs)
	q1, q3 := stats.Quantile(s, 0.25), stats.Quantile(s, 0.75)
	iqr := q3 - q1
	res := IQRResult{Column: column, Q1: q1, Q3: q3, IQR: iqr, LowerBound: q1 - k*iqr, UpperBound: q3 + k*iqr}
	for _, v := range xs {
		if v < res.LowerBound || v > res.UpperBound {
			res.OutlierCount++
		}
	}
	res.OutlierPercentage = float64(res.OutlierCount) / float64(len(xs)) * 100
	return Computed(res)
}

// ZScoreOutliers counts values whose population z-score exceeds threshold.
// The reported deviation is the sample standard deviation.
func ZScoreOutliers(xs []float64, column string, threshold float64) Outcome[ZScoreResult] {
	if len(xs) == 0 {
		return NotApplicable[ZScoreResult](ReasonNoData)
	}
	mean := stats.Mean(xs)
	res := ZScoreResult{Column: column, Mean: mean, StdDev: stats.StdDev(xs), Threshold: threshold}
	if pop := stats.PopStdDev(xs); pop > 0 {
		for _, v := range xs {
			if math.Abs(v-mean)/pop > threshold {
				res.OutlierCount++
			}
		}
	}
	res.OutlierPercentage = float64(res.OutlierCount) / float64(len(xs)) * 100
	return Computed(res)
}

func detectOutliers(t *review.Table, opt Options) Outliers {
	ratings, likes := t.Ratings(), t.Likes()
	var nonzero, restRating []float64
	for _, r := range t.Reviews {
		if r.LikeCount > 0 {
			nonzero = append(nonzero, float64(r.LikeCount))
		}
		restRating = append(restRating, r.RestaurantOverallRating)
	}
	out := Outliers{
		RatingIQR:              IQROutliers(ratings, "rating_overall", opt.IQRMultiplier),
		RatingZScore:           ZScoreOutliers(ratings, "rating_overall", opt.ZThreshold),
		LikesIQR:               IQROutliers(nonzero, "like_count_nonzero", opt.IQRMultiplier),
		LikesZScore:            ZScoreOutliers(likes, "like_count", opt.ZThreshold),
		RestaurantRatingIQR:    IQROutliers(restRating, "restaurant_overall_rating", opt.IQRMultiplier),
		RestaurantRatingZScore: ZScoreOutliers(restRating, "restaurant_overall_rating", opt.ZThreshold),
		Anomalies:              []Anomaly{},
	}
	if t.Len() == 0 {
		return out
	}
	p99 := stats.Quantile(stats.Sorted(likes), anomalyEngagementPercentile)
	out.Like99thPercentile = p99
	for i, r := range t.Reviews {
		flags := AnomalyFlags(r, p99)
		if !IsAnomaly(flags) {
			continue
		}
		out.AnomalyCount++
		if len(out.Anomalies) < opt.MaxAnomalyDetails {
			out.Anomalies = append(out.Anomalies, Anomaly{
				ReviewID:       i,
				ReviewerName:   r.ReviewerName,
				RatingOverall:  r.RatingOverall,
				LikeCount:      r.LikeCount,
				RestaurantName: r.RestaurantName,
				Flags:          flags,
				FlagCount:      len(flags),
			})
		}
	}
	out.AnomalyPercentage = stats.Round(float64(out.AnomalyCount)/float64(t.Len())*100, 2)
	return out
}

// AnomalyFlags evaluates the per-review anomaly rules against the like-count
// 99th percentile.
func AnomalyFlags(r review.Review, likeP99 float64) []string {
	var flags []string
	likes := float64(r.LikeCount)
	if r.RestaurantReviewCount >= anomalyRestaurantMinReviews && math.Abs(r.RatingOverall-r.RestaurantOverallRating) > anomalyRatingGap {
		flags = append(flags, FlagOutlierVsRestaurant)
	}
	if likes > likeP99 && r.LikeCount > anomalyViralMinLikes {
		flags = append(flags, FlagViralEngagement)
	}
	if r.RatingOverall <= anomalyLowRating && likes > likeP99 {
		flags = append(flags, FlagLowRatingHighEngagement)
	}
	return flags
}

// IsAnomaly reports whether a flag set counts as an anomaly: two or more
// flags, or a single engagement flag.
func IsAnomaly(flags []string) bool {
	switch len(flags) {
	case 0:
		return false
	case 1:
		return flags[0] == FlagViralEngagement || flags[0] == FlagLowRatingHighEngagement
	default:
		return true
	}
}
