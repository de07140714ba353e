package scoring

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
)

// FlexNumber accepts a JSON number or a numeric string. Anything else,
// including unparsable strings, decodes as 0.
type FlexNumber float64

func (f *FlexNumber) UnmarshalJSON(data []byte) error {
	*f = 0
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}

	var v float64
	switch data[0] {
	case '"':
		var str string
		if json.Unmarshal(data, &str) != nil {
			return nil
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(str), 64)
		if err != nil {
			return nil
		}
		v = parsed
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		if json.Unmarshal(data, &v) != nil {
			return nil
		}
	default:
		return nil
	}

	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	*f = FlexNumber(v)
	return nil
}

// tolerateShape drops type mismatches reported by encoding/json. The decoder
// still fills every field it could, leaving mismatched ones at their zero
// value. Malformed JSON is still an error.
func tolerateShape(err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return nil
	}
	return err
}

// Float returns the value, or 0 for a nil receiver.
func (f *FlexNumber) Float() float64 {
	if f == nil {
		return 0
	}
	return float64(*f)
}

// Envelope is the task/result wrapper every upstream endpoint responds with.
type Envelope[T any] struct {
	StatusCode    int       `json:"status_code"`
	StatusMessage string    `json:"status_message,omitempty"`
	Tasks         []Task[T] `json:"tasks"`
}

// Task is a single upstream task and its results.
type Task[T any] struct {
	ID            string `json:"id,omitempty"`
	StatusCode    int    `json:"status_code"`
	StatusMessage string `json:"status_message,omitempty"`
	Result        []T    `json:"result"`
}

type envelopeFields[T any] Envelope[T]

func (e *Envelope[T]) UnmarshalJSON(data []byte) error {
	return tolerateShape(json.Unmarshal(data, (*envelopeFields[T])(e)))
}

// First returns the first result of the first task. ok is false when any
// level is missing, including a nil envelope.
func (e *Envelope[T]) First() (result T, ok bool) {
	if e == nil || len(e.Tasks) == 0 || len(e.Tasks[0].Result) == 0 {
		return result, false
	}
	return e.Tasks[0].Result[0], true
}

// Rating is the aggregate rating block shared by listings and reviews.
type Rating struct {
	Value      *FlexNumber `json:"value"`
	VotesCount *FlexNumber `json:"votes_count"`
}

// BusinessItem is a business listing or "my business info" item.
type BusinessItem struct {
	Type      string  `json:"type,omitempty"`
	Title     string  `json:"title"`
	Address   string  `json:"address"`
	Phone     string  `json:"phone"`
	Domain    string  `json:"domain"`
	URL       string  `json:"url"`
	Category  string  `json:"category"`
	IsClaimed *bool   `json:"is_claimed"`
	Rating    *Rating `json:"rating"`
}

// ListingResult is the result of the listing and business info endpoints.
type ListingResult struct {
	Items []BusinessItem `json:"items"`
}

// ReviewRating is the star rating on a single review.
type ReviewRating struct {
	Value *FlexNumber `json:"value"`
}

// ReviewItem is one customer review.
type ReviewItem struct {
	Type        string        `json:"type,omitempty"`
	Rating      *ReviewRating `json:"rating"`
	Timestamp   string        `json:"timestamp"`
	ReviewText  string        `json:"review_text"`
	OwnerAnswer string        `json:"owner_answer"`
}

// ReviewsResult is the result of the reviews endpoint.
type ReviewsResult struct {
	Rating       *Rating      `json:"rating"`
	ReviewsCount *FlexNumber  `json:"reviews_count"`
	Items        []ReviewItem `json:"items"`
}

// KeywordData holds the keyword a domain ranks for.
type KeywordData struct {
	Keyword string `json:"keyword"`
}

// RankedKeywordItem is one keyword the domain ranks for.
type RankedKeywordItem struct {
	KeywordData *KeywordData `json:"keyword_data"`
}

// RankedKeywordsResult is the result of the ranked keywords endpoint.
type RankedKeywordsResult struct {
	TotalCount *FlexNumber         `json:"total_count"`
	Items      []RankedKeywordItem `json:"items"`
}

// TrafficMetric is an estimated traffic figure for one channel.
type TrafficMetric struct {
	ETV   *FlexNumber `json:"etv"`
	Count *FlexNumber `json:"count"`
}

// TrafficMetrics splits estimated traffic by channel.
type TrafficMetrics struct {
	Organic *TrafficMetric `json:"organic"`
	Paid    *TrafficMetric `json:"paid"`
}

// TrafficItem is the traffic estimate for one target.
type TrafficItem struct {
	Target  string          `json:"target"`
	Metrics *TrafficMetrics `json:"metrics"`
}

// TrafficResult is the result of the bulk traffic estimation endpoint.
type TrafficResult struct {
	Items []TrafficItem `json:"items"`
}

// OnPageItem is a crawled page with its technical health score.
type OnPageItem struct {
	URL         string      `json:"url"`
	OnPageScore *FlexNumber `json:"onpage_score"`
}

// OnPageResult is the result of the instant pages endpoint.
type OnPageResult struct {
	Items []OnPageItem `json:"items"`
}

// BacklinkItem is one inbound link.
type BacklinkItem struct {
	DomainFrom string `json:"domain_from"`
	URLFrom    string `json:"url_from"`
}

// BacklinksResult is the result of the backlinks endpoint.
type BacklinksResult struct {
	TotalCount *FlexNumber    `json:"total_count"`
	Items      []BacklinkItem `json:"items"`
}

// AdItem is an entry of the ads search endpoint. Only items with type
// "ads_search" are creatives.
type AdItem struct {
	Type         string `json:"type"`
	AdvertiserID string `json:"advertiser_id"`
	CreativeID   string `json:"creative_id"`
	Title        string `json:"title"`
	Format       string `json:"format"`
	FirstShown   string `json:"first_shown"`
	LastShown    string `json:"last_shown"`
	Verified     *bool  `json:"verified"`
	Platform     string `json:"platform"`
}

// AdsSearchResult is the result of the ads search endpoint.
type AdsSearchResult struct {
	Items []AdItem `json:"items"`
}

// AdvertiserItem is one advertiser account.
type AdvertiserItem struct {
	Type           string      `json:"type"`
	AdvertiserID   string      `json:"advertiser_id"`
	Title          string      `json:"title"`
	Verified       *bool       `json:"verified"`
	ApproxAdsCount *FlexNumber `json:"approx_ads_count"`
}

// AdsAdvertisersResult is the result of the ads advertisers endpoint.
type AdsAdvertisersResult struct {
	Items []AdvertiserItem `json:"items"`
}

// SerpItem is one entry on a search results page.
type SerpItem struct {
	Type         string `json:"type"`
	RankGroup    *int   `json:"rank_group"`
	RankAbsolute *int   `json:"rank_absolute"`
	Domain       string `json:"domain"`
	URL          string `json:"url"`
}

// SerpResult is the result of the organic SERP endpoint.
type SerpResult struct {
	Keyword string     `json:"keyword,omitempty"`
	Items   []SerpItem `json:"items"`
}

// LighthouseCategory is a scored lighthouse category (0 to 1).
type LighthouseCategory struct {
	Score *FlexNumber `json:"score"`
}

// LighthouseCategories holds the categories the engine reads.
type LighthouseCategories struct {
	Performance *LighthouseCategory `json:"performance"`
}

// LighthouseResult is the result of the lighthouse endpoint.
type LighthouseResult struct {
	Categories *LighthouseCategories `json:"categories"`
}

// WebsiteSignals are markers detected on the business homepage.
type WebsiteSignals struct {
	HasLocalBusinessSchema bool `json:"hasLocalBusinessSchema"`
	HasFAQSchema           bool `json:"hasFAQSchema"`
	HasGoogleAnalytics     bool `json:"hasGoogleAnalytics"`
	HasFacebookPixel       bool `json:"hasFacebookPixel"`
}

// Bundle groups every upstream payload an evaluation consumes. A nil field
// means the source returned no data.
type Bundle struct {
	BusinessListing   *Envelope[ListingResult]        `json:"business_listing,omitempty"`
	BusinessInfo      *Envelope[ListingResult]        `json:"business_info,omitempty"`
	Reviews           *Envelope[ReviewsResult]        `json:"reviews,omitempty"`
	RankedKeywords    *Envelope[RankedKeywordsResult] `json:"ranked_keywords,omitempty"`
	TrafficEstimation *Envelope[TrafficResult]        `json:"traffic_estimation,omitempty"`
	OnPage            *Envelope[OnPageResult]         `json:"on_page,omitempty"`
	Backlinks         *Envelope[BacklinksResult]      `json:"backlinks,omitempty"`
	AdsSearch         *Envelope[AdsSearchResult]      `json:"ads_search,omitempty"`
	AdsAdvertisers    *Envelope[AdsAdvertisersResult] `json:"ads_advertisers,omitempty"`
	Serp              *Envelope[SerpResult]           `json:"serp,omitempty"`
	LighthouseDesktop *Envelope[LighthouseResult]     `json:"lighthouse_desktop,omitempty"`
	LighthouseMobile  *Envelope[LighthouseResult]     `json:"lighthouse_mobile,omitempty"`
	Site              *WebsiteSignals                 `json:"site,omitempty"`
}

type bundleFields Bundle

func (b *Bundle) UnmarshalJSON(data []byte) error {
	return tolerateShape(json.Unmarshal(data, (*bundleFields)(b)))
}
