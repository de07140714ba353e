package scoring

// Composite weights in percent.
const (
	presenceWeight    = 30
	seoWeight         = 35
	adsActivityWeight = 25
	engagementWeight  = 10
)

// LeadScore combines the four sub-scores into the composite lead score.
// The blend is kept in hundredths so exact halves round up.
func LeadScore(s SubScores) int {
	hundredths := presenceWeight*s.Presence +
		seoWeight*s.SEO +
		adsActivityWeight*s.AdsActivity +
		engagementWeight*s.Engagement
	return clampInt((hundredths+50)/100, 0, 100)
}

// SchemaFlags records structured data found on the site.
type SchemaFlags struct {
	LocalBusiness bool `json:"localBusiness"`
	FAQ           bool `json:"faq"`
}

// AnalyticsFlags records tracking tags found on the site.
type AnalyticsFlags struct {
	GoogleAnalytics bool `json:"googleAnalytics"`
	FacebookPixel   bool `json:"facebookPixel"`
}

// OpportunityInputs feed OpportunityScore.
type OpportunityInputs struct {
	SerpPosition *int           `json:"serpPosition"`
	Schema       SchemaFlags    `json:"schema"`
	Analytics    AnalyticsFlags `json:"analytics"`
	Speed        SpeedScores    `json:"speed"`
	RunningAds   bool           `json:"runningAds"`
}

type rubricCategory struct {
	max    int
	earned func(OpportunityInputs) int
}

var opportunityRubric = []rubricCategory{
	{max: 30, earned: serpPoints},
	{max: 20, earned: schemaPoints},
	{max: 15, earned: analyticsPoints},
	{max: 20, earned: speedPoints},
	{max: 15, earned: ppcPoints},
}

// OpportunityScore allocates rubric points and scales the total by the
// points available across the evaluated categories.
func OpportunityScore(in OpportunityInputs) int {
	earned, possible := 0, 0
	for _, cat := range opportunityRubric {
		possible += cat.max
		earned += min(cat.earned(in), cat.max)
	}
	if possible == 0 {
		return 0
	}
	return clampInt((earned*200+possible)/(2*possible), 0, 100)
}

func serpPoints(in OpportunityInputs) int {
	if in.SerpPosition == nil {
		return 0
	}
	switch pos := *in.SerpPosition; {
	case pos <= 3:
		return 30
	case pos <= 10:
		return 20
	case pos <= 20:
		return 10
	default:
		return 5
	}
}

func schemaPoints(in OpportunityInputs) int {
	points := 0
	if in.Schema.LocalBusiness {
		points += 10
	}
	if in.Schema.FAQ {
		points += 10
	}
	return points
}

func analyticsPoints(in OpportunityInputs) int {
	points := 0
	if in.Analytics.GoogleAnalytics {
		points += 8
	}
	if in.Analytics.FacebookPixel {
		points += 7
	}
	return points
}

func speedPoints(in OpportunityInputs) int {
	return devicePoints(in.Speed.Desktop) + devicePoints(in.Speed.Mobile)
}

func devicePoints(score int) int {
	switch {
	case score >= 90:
		return 10
	case score >= 50:
		return 5
	default:
		return 0
	}
}

func ppcPoints(in OpportunityInputs) int {
	if in.RunningAds {
		return 15
	}
	return 8
}
