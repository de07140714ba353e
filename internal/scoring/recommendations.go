package scoring

import (
	"fmt"
	"math"
)

// Thresholds used by the recommendation rules.
const (
	healthyScore        = 70
	firstPageCutoff     = 10
	slowSpeedCutoff     = 50
	minBacklinks        = 10
	minReviews          = 50
	staleAdRecency      = 50
	minimumResponseRate = 0.5
)

// RecommendationInput is everything the rules inspect.
type RecommendationInput struct {
	Scores      SubScores
	LeadScore   int
	Opportunity OpportunityInputs
	Metrics     ExtractedMetrics
	AdRecency   int

	// SpeedMeasured is set when lighthouse returned a performance score for
	// either device.
	SpeedMeasured bool
}

type recommendationRule func(in RecommendationInput) (string, bool)

// Rules run in a fixed order: technical SEO, local presence, paid
// advertising, engagement, overall.
var recommendationRules = []recommendationRule{
	noSearchDataRule,
	schemaRule,
	faqRule,
	serpRule,
	speedRule,
	analyticsRule,
	onPageRule,
	backlinkRule,
	napRule,
	claimRule,
	reviewVolumeRule,
	adsRule,
	responseRule,
	overallRule,
}

// GenerateRecommendations evaluates every rule in order and collects the
// messages of those that fire.
func GenerateRecommendations(in RecommendationInput) []string {
	recs := make([]string, 0, len(recommendationRules))
	for _, rule := range recommendationRules {
		if msg, ok := rule(in); ok {
			recs = append(recs, msg)
		}
	}
	return recs
}

func noSearchDataRule(in RecommendationInput) (string, bool) {
	if in.Metrics.OrganicTraffic > 0 || in.Metrics.KeywordCount > 0 {
		return "", false
	}
	return "No organic search data is available for this domain yet. Build out service and location pages so the practice starts ranking for local patient searches.", true
}

func schemaRule(in RecommendationInput) (string, bool) {
	if in.Scores.SEO >= healthyScore || in.Opportunity.Schema.LocalBusiness {
		return "", false
	}
	return fmt.Sprintf("Add LocalBusiness schema markup to the homepage. The current SEO score is %d/100 and structured data helps search engines surface the practice in local results.", in.Scores.SEO), true
}

func faqRule(in RecommendationInput) (string, bool) {
	if in.Scores.SEO >= healthyScore || in.Opportunity.Schema.FAQ {
		return "", false
	}
	return "Add an FAQ section with FAQPage schema answering common patient questions to win rich results.", true
}

func serpRule(in RecommendationInput) (string, bool) {
	pos := in.Opportunity.SerpPosition
	switch {
	case pos == nil:
		return "The website is not ranking in the top organic results for its primary keyword. Target the core service and city keywords on dedicated landing pages.", true
	case *pos > firstPageCutoff:
		return fmt.Sprintf("The website ranks at position %d for its primary keyword. Moving onto the first page (top 10) would substantially increase patient inquiries.", *pos), true
	}
	return "", false
}

func speedRule(in RecommendationInput) (string, bool) {
	sp := in.Opportunity.Speed
	if !in.SpeedMeasured && sp.Desktop == 0 && sp.Mobile == 0 {
		return "Page speed data was unavailable for this website. Run a Lighthouse check on desktop and mobile, since slow pages lose visitors before they call.", true
	}
	if sp.Desktop >= slowSpeedCutoff && sp.Mobile >= slowSpeedCutoff {
		return "", false
	}
	return fmt.Sprintf("Improve page speed: desktop performance is %d/100 and mobile performance is %d/100. Compress images and defer non-critical scripts.", sp.Desktop, sp.Mobile), true
}

func analyticsRule(in RecommendationInput) (string, bool) {
	a := in.Opportunity.Analytics
	if a.GoogleAnalytics || a.FacebookPixel {
		return "", false
	}
	return "Install Google Analytics and a Facebook pixel to measure visitors and build retargeting audiences.", true
}

func onPageRule(in RecommendationInput) (string, bool) {
	score := in.Metrics.OnPageScore
	if score <= 0 || score >= healthyScore {
		return "", false
	}
	return fmt.Sprintf("Fix technical on-page issues: the on-page health score is %d/100. Address missing titles, meta descriptions and broken links.", int(math.Round(score))), true
}

func backlinkRule(in RecommendationInput) (string, bool) {
	if in.Metrics.BacklinkCount >= minBacklinks {
		return "", false
	}
	return fmt.Sprintf("Only %d backlinks were found. Earn links from local directories, health associations and community sponsorships to build authority.", in.Metrics.BacklinkCount), true
}

func napRule(in RecommendationInput) (string, bool) {
	if in.Metrics.NAPComplete {
		return "", false
	}
	return "Complete the business name, address and phone number on the Google Business Profile and keep them consistent across directories.", true
}

func claimRule(in RecommendationInput) (string, bool) {
	if in.Metrics.Claimed {
		return "", false
	}
	return "Claim and verify the Google Business Profile listing to control how the practice appears in Maps and local search.", true
}

func reviewVolumeRule(in RecommendationInput) (string, bool) {
	if in.Metrics.ReviewCount >= minReviews {
		return "", false
	}
	return fmt.Sprintf("The practice has %d reviews. Set up an automated review request after each appointment to reach at least %d.", in.Metrics.ReviewCount, minReviews), true
}

func adsRule(in RecommendationInput) (string, bool) {
	switch {
	case !in.Opportunity.RunningAds:
		return "No active paid search ads were detected. Launch a Google Ads campaign targeting high-intent local service searches.", true
	case in.Metrics.AdCount > 0 && in.AdRecency < staleAdRecency:
		return fmt.Sprintf("Ad creatives have not been refreshed recently (recency score %d/100). Rotate in new ad copy and offers.", in.AdRecency), true
	}
	return "", false
}

func responseRule(in RecommendationInput) (string, bool) {
	if in.Metrics.ReviewCount == 0 || in.Metrics.ResponseRate >= minimumResponseRate {
		return "", false
	}
	return fmt.Sprintf("Only %d%% of reviews have an owner response. Reply to every review, especially negative ones, to show patients the practice is attentive.", int(math.Round(in.Metrics.ResponseRate*100))), true
}

func overallRule(in RecommendationInput) (string, bool) {
	if in.LeadScore >= healthyScore {
		return "", false
	}
	return fmt.Sprintf("The overall digital marketing score is %d/100. A coordinated SEO, local listing and advertising plan would close the gap with competitors.", in.LeadScore), true
}
