package dataforseo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"leadscout_backend/internal/scoring"
)

// Endpoint paths.
const (
	PathBusinessListings = "/v3/business_data/business_listings/search/live"
	PathBusinessInfo     = "/v3/business_data/google/my_business_info/live"
	PathReviewsTaskPost  = "/v3/business_data/google/reviews/task_post"
	PathReviewsTaskGet   = "/v3/business_data/google/reviews/task_get/"
	PathRankedKeywords   = "/v3/dataforseo_labs/google/ranked_keywords/live"
	PathTrafficEstimate  = "/v3/dataforseo_labs/google/bulk_traffic_estimation/live"
	PathInstantPages     = "/v3/on_page/instant_pages"
	PathBacklinks        = "/v3/backlinks/backlinks/live"
	PathAdsSearch        = "/v3/serp/google/ads_search/live/advanced"
	PathAdsAdvertisers   = "/v3/serp/google/ads_advertisers/live/advanced"
	PathOrganicSerp      = "/v3/serp/google/organic/live/advanced"
	PathLighthouse       = "/v3/on_page/lighthouse/live/json"

	defaultLanguageCode = "en"
	reviewsDepth        = 100
	reviewsPollAttempts = 10
)

// Request describes the business to fetch data for.
type Request struct {
	BusinessName string
	Domain       string
	LocationCode int
	Keyword      string
	LanguageCode string
}

func (r Request) language() string {
	if r.LanguageCode == "" {
		return defaultLanguageCode
	}
	return r.LanguageCode
}

func (r Request) siteURL() string {
	return "https://" + r.Domain
}

func (r Request) serpKeyword() string {
	if r.Keyword != "" {
		return r.Keyword
	}
	return r.BusinessName
}

// live posts a single task and decodes the typed envelope.
func live[T any](ctx context.Context, c *Client, path string, task map[string]any) (*scoring.Envelope[T], error) {
	var env scoring.Envelope[T]
	if err := c.Post(ctx, path, []map[string]any{task}, &env); err != nil {
		return nil, err
	}
	return &env, nil
}

// BusinessListings searches business listings by name.
func (c *Client) BusinessListings(ctx context.Context, r Request) (*scoring.Envelope[scoring.ListingResult], error) {
	return live[scoring.ListingResult](ctx, c, PathBusinessListings, map[string]any{
		"title":         r.BusinessName,
		"location_code": r.LocationCode,
		"limit":         5,
	})
}

// BusinessInfo fetches the Google Business Profile of a business.
func (c *Client) BusinessInfo(ctx context.Context, r Request) (*scoring.Envelope[scoring.ListingResult], error) {
	return live[scoring.ListingResult](ctx, c, PathBusinessInfo, map[string]any{
		"keyword":       r.BusinessName,
		"location_code": r.LocationCode,
		"language_code": r.language(),
	})
}

// RankedKeywords lists keywords the domain ranks for.
func (c *Client) RankedKeywords(ctx context.Context, r Request) (*scoring.Envelope[scoring.RankedKeywordsResult], error) {
	return live[scoring.RankedKeywordsResult](ctx, c, PathRankedKeywords, map[string]any{
		"target":        r.Domain,
		"location_code": r.LocationCode,
		"language_code": r.language(),
		"limit":         100,
	})
}

// TrafficEstimation estimates organic and paid traffic for the domain.
func (c *Client) TrafficEstimation(ctx context.Context, r Request) (*scoring.Envelope[scoring.TrafficResult], error) {
	return live[scoring.TrafficResult](ctx, c, PathTrafficEstimate, map[string]any{
		"targets":       []string{r.Domain},
		"location_code": r.LocationCode,
		"language_code": r.language(),
	})
}

// OnPage crawls the homepage and scores its technical health.
func (c *Client) OnPage(ctx context.Context, r Request) (*scoring.Envelope[scoring.OnPageResult], error) {
	return live[scoring.OnPageResult](ctx, c, PathInstantPages, map[string]any{
		"url": r.siteURL(),
	})
}

// Backlinks lists inbound links to the domain.
func (c *Client) Backlinks(ctx context.Context, r Request) (*scoring.Envelope[scoring.BacklinksResult], error) {
	return live[scoring.BacklinksResult](ctx, c, PathBacklinks, map[string]any{
		"target": r.Domain,
		"mode":   "as_is",
		"limit":  100,
	})
}

// AdsSearch lists ad creatives shown for the domain.
func (c *Client) AdsSearch(ctx context.Context, r Request) (*scoring.Envelope[scoring.AdsSearchResult], error) {
	return live[scoring.AdsSearchResult](ctx, c, PathAdsSearch, map[string]any{
		"target":        r.Domain,
		"location_code": r.LocationCode,
	})
}

// AdsAdvertisers lists advertiser accounts matching the business name.
func (c *Client) AdsAdvertisers(ctx context.Context, r Request) (*scoring.Envelope[scoring.AdsAdvertisersResult], error) {
	return live[scoring.AdsAdvertisersResult](ctx, c, PathAdsAdvertisers, map[string]any{
		"keyword":       r.BusinessName,
		"location_code": r.LocationCode,
	})
}

// OrganicSerp fetches the organic results for the primary keyword.
func (c *Client) OrganicSerp(ctx context.Context, r Request) (*scoring.Envelope[scoring.SerpResult], error) {
	return live[scoring.SerpResult](ctx, c, PathOrganicSerp, map[string]any{
		"keyword":       r.serpKeyword(),
		"location_code": r.LocationCode,
		"language_code": r.language(),
		"depth":         100,
	})
}

// Lighthouse runs a performance audit of the homepage.
func (c *Client) Lighthouse(ctx context.Context, r Request, mobile bool) (*scoring.Envelope[scoring.LighthouseResult], error) {
	return live[scoring.LighthouseResult](ctx, c, PathLighthouse, map[string]any{
		"url":        r.siteURL(),
		"for_mobile": mobile,
		"categories": []string{"performance"},
	})
}

// Reviews posts a reviews task and polls until it completes. Reviews are
// only available through the task queue.
func (c *Client) Reviews(ctx context.Context, r Request, pollInterval time.Duration) (*scoring.Envelope[scoring.ReviewsResult], error) {
	body, err := json.Marshal([]map[string]any{{
		"keyword":       r.BusinessName,
		"location_code": r.LocationCode,
		"language_code": r.language(),
		"depth":         reviewsDepth,
		"sort_by":       "newest",
	}})
	if err != nil {
		return nil, fmt.Errorf("encode tasks: %w", err)
	}

	raw, err := c.do(ctx, http.MethodPost, PathReviewsTaskPost, body)
	if err != nil {
		return nil, err
	}
	if err := checkTasks(PathReviewsTaskPost, raw, statusTaskCreated, statusOK); err != nil {
		return nil, err
	}
	var created envelopeStatus
	if err := json.Unmarshal(raw, &created); err != nil {
		return nil, fmt.Errorf("decode %s: %w", PathReviewsTaskPost, err)
	}
	if len(created.Tasks) == 0 || created.Tasks[0].ID == "" {
		return nil, fmt.Errorf("dataforseo %s: no task id returned", PathReviewsTaskPost)
	}
	taskID := created.Tasks[0].ID

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for attempt := 0; attempt < reviewsPollAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}

		raw, err := c.do(ctx, http.MethodGet, PathReviewsTaskGet+taskID, nil)
		if err != nil {
			return nil, err
		}
		if taskPending(raw) {
			continue
		}
		if err := checkTasks(PathReviewsTaskGet, raw, statusOK); err != nil {
			return nil, err
		}

		var env scoring.Envelope[scoring.ReviewsResult]
		if err := json.Unmarshal(raw, &env); err != nil {
			return nil, fmt.Errorf("decode %s: %w", PathReviewsTaskGet, err)
		}
		return &env, nil
	}
	return nil, fmt.Errorf("dataforseo reviews task %s not ready after %d polls", taskID, reviewsPollAttempts)
}

func taskPending(raw []byte) bool {
	var env envelopeStatus
	if err := json.Unmarshal(raw, &env); err != nil || len(env.Tasks) == 0 {
		return false
	}
	code := env.Tasks[0].StatusCode
	return code == statusTaskHanded || code == statusTaskInQueue
}
