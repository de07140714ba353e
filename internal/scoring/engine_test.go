package scoring

import (
	"encoding/json"
	"testing"

	"leadscout_backend/platform/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateWithoutData(t *testing.T) {
	in := Input{BusinessName: "Quiet Clinic", Domain: "quiet-clinic.com", Location: "Chicago"}
	report := Evaluate(in, Bundle{}, fixtureNow)

	assert.Equal(t, Scores{}, report.Scores)
	assert.Equal(t, 8, report.OpportunityScore)
	assert.Len(t, report.Recommendations, 12)
	assert.Nil(t, report.AdPerformance.LastActiveDate)
	assert.Empty(t, report.AdPerformance.Platforms)
	assert.Equal(t, ScoreVersion, report.ScoreVersion)
}

func TestEvaluateFixture(t *testing.T) {
	in := Input{BusinessName: "Bright Smile Dental", Domain: "example.com", Location: "Chicago, IL"}
	report := Evaluate(in, loadFixture(t), fixtureNow)

	assert.Equal(t, Scores{
		SubScores: SubScores{Presence: 83, SEO: 59, AdsActivity: 49, Engagement: 51},
		LeadScore: 63,
	}, report.Scores)
	assert.Equal(t, 45, report.OpportunityScore)
	assert.True(t, report.Opportunity.RunningAds)

	ad := report.AdPerformance
	assert.Equal(t, 250, ad.PaidETV)
	assert.Equal(t, 1, ad.CreativesCount)
	assert.Equal(t, 35, ad.ApproxAdsCount)
	assert.Equal(t, 100, ad.AdRecency)
	assert.True(t, ad.VerifiedAdvertiser)
	assert.Equal(t, []string{"google_ads"}, ad.Platforms)
	require.NotNil(t, ad.LastActiveDate)
	assert.Equal(t, "2024-05-29", *ad.LastActiveDate)

	require.Len(t, report.Recommendations, 6)
	assert.Contains(t, report.Recommendations[2], "desktop performance is 93/100 and mobile performance is 41/100")
	assert.Contains(t, report.Recommendations[5], "63/100")
}

func TestEvaluateIsDeterministic(t *testing.T) {
	in := Input{BusinessName: "Bright Smile Dental", Domain: "example.com"}
	b := loadFixture(t)

	first, err := json.Marshal(Evaluate(in, b, fixtureNow))
	require.NoError(t, err)
	second, err := json.Marshal(Evaluate(in, b, fixtureNow))
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
}

func TestReportJSONShape(t *testing.T) {
	report := Evaluate(Input{BusinessName: "A", Domain: "a.com"}, Bundle{}, fixtureNow)
	data, err := json.Marshal(report)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))

	scores, ok := decoded["scores"].(map[string]any)
	require.True(t, ok)
	for _, key := range []string{"presenceScore", "seoScore", "adsActivityScore", "engagementScore", "leadScore"} {
		assert.Contains(t, scores, key)
	}
	ad, ok := decoded["adPerformance"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, ad, "lastActiveDate")
	assert.Nil(t, ad["lastActiveDate"])
}

func TestValidateInput(t *testing.T) {
	tests := []struct {
		name    string
		in      Input
		wantErr bool
	}{
		{name: "valid", in: Input{BusinessName: "Clinic", Domain: "clinic.com"}},
		{name: "url domain", in: Input{BusinessName: "Clinic", Domain: "https://www.clinic.com/about"}},
		{name: "blank name", in: Input{BusinessName: "  ", Domain: "clinic.com"}, wantErr: true},
		{name: "blank domain", in: Input{BusinessName: "Clinic"}, wantErr: true},
		{name: "bad domain", in: Input{BusinessName: "Clinic", Domain: "not a domain"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateInput(tt.in)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, apperr.Is(err, apperr.KindValidation))
		})
	}
}
