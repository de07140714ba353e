// Package scoring turns upstream marketing data about a business into
// component scores, a composite lead score, an opportunity score and
// improvement recommendations.
//
// Everything in this package is pure computation. Missing upstream data
// resolves to zero values and never produces an error.
package scoring

import (
	"sort"
	"strings"
	"time"

	"leadscout_backend/platform/apperr"
	"leadscout_backend/platform/validator"
)

// ScoreVersion identifies the scoring formulas used to build a report.
const ScoreVersion = "2024.2"

// Input identifies the business being evaluated.
type Input struct {
	BusinessName string   `json:"businessName"`
	Domain       string   `json:"domain"`
	Location     string   `json:"location"`
	Keywords     []string `json:"keywords,omitempty"`
}

// Scores are the sub-scores plus the composite lead score.
type Scores struct {
	SubScores
	LeadScore int `json:"leadScore"`
}

// AdPerformance summarizes the paid advertising footprint.
type AdPerformance struct {
	PaidETV            int        `json:"paidETV"`
	CreativesCount     int        `json:"creativesCount"`
	ApproxAdsCount     int        `json:"approxAdsCount"`
	AdRecency          int        `json:"adRecency"`
	VerifiedAdvertiser bool       `json:"verifiedAdvertiser"`
	Platforms          []string   `json:"platforms"`
	Creatives          []Creative `json:"creatives"`
	LastActiveDate     *string    `json:"lastActiveDate"`
}

// Report is the full result of an evaluation.
type Report struct {
	Scores           Scores            `json:"scores"`
	OpportunityScore int               `json:"opportunityScore"`
	Opportunity      OpportunityInputs `json:"opportunity"`
	Recommendations  []string          `json:"recommendations"`
	AdPerformance    AdPerformance     `json:"adPerformance"`
	Metrics          ExtractedMetrics  `json:"metrics"`
	NAP              NAP               `json:"nap"`
	ScoreVersion     string            `json:"scoreVersion"`
}

// ValidateInput rejects inputs that cannot identify a business.
func ValidateInput(in Input) error {
	if strings.TrimSpace(in.BusinessName) == "" {
		return apperr.Validation("business name is required")
	}
	domain := NormalizeDomain(in.Domain)
	if domain == "" {
		return apperr.Validation("domain is required")
	}
	if !validator.IsDomain(domain) {
		return apperr.Validation("domain is not a valid host name")
	}
	return nil
}

// Evaluate scores a business from its upstream bundle as of now.
func Evaluate(in Input, b Bundle, now time.Time) Report {
	metrics := Extract(b, in.Domain, now)
	ads := summarizeAds(b, metrics, now)

	subScores := CalculateSubScores(metrics, AdsInputs{
		PaidETV:            float64(metrics.PaidTraffic),
		CreativeCount:      ads.perf.CreativesCount,
		LastShown:          ads.lastShown,
		VerifiedAdvertiser: ads.perf.VerifiedAdvertiser,
	}, now)
	scores := Scores{SubScores: subScores, LeadScore: LeadScore(subScores)}

	site := ExtractWebsiteSignals(b)
	opportunity := OpportunityInputs{
		SerpPosition: ExtractSerpPosition(b, in.Domain),
		Schema: SchemaFlags{
			LocalBusiness: site.HasLocalBusinessSchema,
			FAQ:           site.HasFAQSchema,
		},
		Analytics: AnalyticsFlags{
			GoogleAnalytics: site.HasGoogleAnalytics,
			FacebookPixel:   site.HasFacebookPixel,
		},
		Speed:      ExtractSpeedScores(b),
		RunningAds: metrics.AdCount > 0 || metrics.PaidTraffic > 0,
	}

	return Report{
		Scores:           scores,
		OpportunityScore: OpportunityScore(opportunity),
		Opportunity:      opportunity,
		Recommendations: GenerateRecommendations(RecommendationInput{
			Scores:        subScores,
			LeadScore:     scores.LeadScore,
			Opportunity:   opportunity,
			Metrics:       metrics,
			AdRecency:     ads.perf.AdRecency,
			SpeedMeasured: ExtractSpeedMeasured(b),
		}),
		AdPerformance: ads.perf,
		Metrics:       metrics,
		NAP:           ExtractNAP(b),
		ScoreVersion:  ScoreVersion,
	}
}

type adSummary struct {
	perf      AdPerformance
	lastShown *time.Time
}

func summarizeAds(b Bundle, m ExtractedMetrics, now time.Time) adSummary {
	creatives := ExtractAdCreatives(b)

	var lastShown *time.Time
	seen := make(map[string]struct{})
	platforms := make([]string, 0)
	for _, c := range creatives {
		if c.LastShown != nil && (lastShown == nil || c.LastShown.After(*lastShown)) {
			lastShown = c.LastShown
		}
		if _, ok := seen[c.Platform]; !ok {
			seen[c.Platform] = struct{}{}
			platforms = append(platforms, c.Platform)
		}
	}
	sort.Strings(platforms)

	var lastActive *string
	if lastShown != nil {
		d := lastShown.Format("2006-01-02")
		lastActive = &d
	}

	return adSummary{
		perf: AdPerformance{
			PaidETV:            m.PaidTraffic,
			CreativesCount:     len(creatives),
			ApproxAdsCount:     ExtractApproxAdsCount(b),
			AdRecency:          AdRecencyScore(lastShown, now),
			VerifiedAdvertiser: ExtractVerifiedAdvertiser(b),
			Platforms:          platforms,
			Creatives:          creatives,
			LastActiveDate:     lastActive,
		},
		lastShown: lastShown,
	}
}
