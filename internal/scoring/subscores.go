package scoring

import (
	"math"
	"time"
)

// Log-normalization domains for the ads activity blend.
const (
	paidETVMin       = 1
	paidETVMax       = 100000
	creativeCountMin = 0
	creativeCountMax = 200

	adFreshWindow = 7 * 24 * time.Hour
	adStaleWindow = 180 * 24 * time.Hour
)

// SubScores are the four independent 0-100 component scores.
type SubScores struct {
	Presence    int `json:"presenceScore"`
	SEO         int `json:"seoScore"`
	AdsActivity int `json:"adsActivityScore"`
	Engagement  int `json:"engagementScore"`
}

// AdsInputs feed AdsActivityScore.
type AdsInputs struct {
	PaidETV            float64
	CreativeCount      int
	LastShown          *time.Time
	VerifiedAdvertiser bool
}

// RatingScore maps a 1-5 star rating onto 0-100. A zero rating scores 0.
func RatingScore(rating float64) float64 {
	if rating <= 0 || math.IsNaN(rating) {
		return 0
	}
	return clampFloat((rating-1)/4*100, 0, 100)
}

// PresenceScore blends rating, review volume, NAP completeness and the
// claimed flag.
func PresenceScore(rating float64, reviewCount int, napComplete, claimed bool) int {
	reviewScore := math.Min(100, math.Log10(1+float64(max(reviewCount, 0)))*20)
	score := RatingScore(rating)*0.4 + reviewScore*0.4
	if napComplete {
		score += 20
	}
	if claimed {
		score += 10
	}
	return clampScore(score)
}

// SEOScore blends on-page health, organic traffic and keyword footprint.
func SEOScore(onPage float64, organicTraffic, keywordCount int) int {
	trafficScore := math.Min(100, math.Log10(1+float64(max(organicTraffic, 0)))*15)
	keywordScore := math.Min(100, math.Log10(1+float64(max(keywordCount, 0)))*10)
	return clampScore(clampFloat(onPage, 0, 100)*0.5 + trafficScore*0.3 + keywordScore*0.2)
}

// AdsActivityScore blends paid traffic, creative volume, ad recency and
// advertiser verification.
func AdsActivityScore(in AdsInputs, now time.Time) int {
	score := 0.6*LogNormalize(in.PaidETV, paidETVMin, paidETVMax) +
		0.2*LogNormalize(float64(in.CreativeCount), creativeCountMin, creativeCountMax) +
		0.1*float64(AdRecencyScore(in.LastShown, now))
	if in.VerifiedAdvertiser {
		score += 10
	}
	return clampScore(score)
}

// AdRecencyScore decays linearly from 100 for an ad shown within the last
// 7 days to 0 for one last shown 180 or more days ago. Never shown scores 0.
func AdRecencyScore(lastShown *time.Time, now time.Time) int {
	if lastShown == nil {
		return 0
	}
	age := now.Sub(*lastShown)
	switch {
	case age <= adFreshWindow:
		return 100
	case age >= adStaleWindow:
		return 0
	}
	frac := float64(adStaleWindow-age) / float64(adStaleWindow-adFreshWindow)
	return clampScore(frac * 100)
}

// LogNormalize maps v onto 0-100 on a log10(1+x) scale between lo and hi.
func LogNormalize(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	den := math.Log10(1+hi) - math.Log10(1+lo)
	if den <= 0 {
		return 0
	}
	num := math.Log10(1+math.Max(v, 0)) - math.Log10(1+lo)
	return clampFloat(100*num/den, 0, 100)
}

// EngagementScore blends recent review velocity, owner response rate and
// rating.
func EngagementScore(velocity int, responseRate, rating float64) int {
	velocityScore := math.Min(100, float64(max(velocity, 0))*5)
	responseScore := clampFloat(responseRate, 0, 1) * 100
	return clampScore(velocityScore*0.4 + responseScore*0.3 + RatingScore(rating)*0.3)
}

// CalculateSubScores runs every calculator over the extracted metrics.
func CalculateSubScores(m ExtractedMetrics, ads AdsInputs, now time.Time) SubScores {
	return SubScores{
		Presence:    PresenceScore(m.ReviewRating, m.ReviewCount, m.NAPComplete, m.Claimed),
		SEO:         SEOScore(m.OnPageScore, m.OrganicTraffic, m.KeywordCount),
		AdsActivity: AdsActivityScore(ads, now),
		Engagement:  EngagementScore(m.ReviewVelocity, m.ResponseRate, m.ReviewRating),
	}
}

func clampScore(v float64) int {
	return clampInt(roundHalfUp(v), 0, 100)
}
