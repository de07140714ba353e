package dataforseo

import (
	"context"
	"sort"
	"sync"
	"time"

	"leadscout_backend/internal/scoring"
	"leadscout_backend/platform/logger"

	"golang.org/x/sync/errgroup"
)

// Source names reported in FetchReport.Failed.
const (
	SourceBusinessListing   = "business_listing"
	SourceBusinessInfo      = "business_info"
	SourceReviews           = "reviews"
	SourceRankedKeywords    = "ranked_keywords"
	SourceTrafficEstimation = "traffic_estimation"
	SourceOnPage            = "on_page"
	SourceBacklinks         = "backlinks"
	SourceAdsSearch         = "ads_search"
	SourceAdsAdvertisers    = "ads_advertisers"
	SourceSerp              = "serp"
	SourceLighthouseDesktop = "lighthouse_desktop"
	SourceLighthouseMobile  = "lighthouse_mobile"
	SourceSite              = "site"

	defaultFetchConcurrency = 6
	defaultPollInterval     = 3 * time.Second
)

// SiteSignals detects homepage markers for a domain.
type SiteSignals interface {
	Detect(ctx context.Context, domain string) (*scoring.WebsiteSignals, error)
}

// FetchReport describes how a bundle fetch went.
type FetchReport struct {
	Failed   []string      `json:"failedSources"`
	Duration time.Duration `json:"-"`
}

// Fetcher fans out every upstream call for one business.
type Fetcher struct {
	client       *Client
	site         SiteSignals
	log          *logger.Logger
	concurrency  int
	pollInterval time.Duration
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithConcurrency bounds the number of in-flight upstream calls.
func WithConcurrency(n int) FetcherOption {
	return func(f *Fetcher) {
		if n > 0 {
			f.concurrency = n
		}
	}
}

// WithPollInterval sets the delay between reviews task polls.
func WithPollInterval(d time.Duration) FetcherOption {
	return func(f *Fetcher) {
		if d > 0 {
			f.pollInterval = d
		}
	}
}

// NewFetcher creates a fetcher. site may be nil.
func NewFetcher(client *Client, site SiteSignals, log *logger.Logger, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		client:       client,
		site:         site,
		log:          log,
		concurrency:  defaultFetchConcurrency,
		pollInterval: defaultPollInterval,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FetchBundle issues every upstream call concurrently. A failed call leaves
// its bundle field nil and is listed in the report; it never aborts the
// others.
func (f *Fetcher) FetchBundle(ctx context.Context, req Request) (scoring.Bundle, FetchReport) {
	start := time.Now()
	var (
		b      scoring.Bundle
		mu     sync.Mutex
		failed []string
		g      errgroup.Group
	)
	g.SetLimit(f.concurrency)

	run := func(source, endpoint string, call func() error) {
		g.Go(func() error {
			if err := call(); err != nil {
				f.log.UpstreamFailure(source, endpoint, err)
				mu.Lock()
				failed = append(failed, source)
				mu.Unlock()
			}
			return nil
		})
	}

	run(SourceBusinessListing, PathBusinessListings, func() (err error) {
		b.BusinessListing, err = f.client.BusinessListings(ctx, req)
		return err
	})
	run(SourceBusinessInfo, PathBusinessInfo, func() (err error) {
		b.BusinessInfo, err = f.client.BusinessInfo(ctx, req)
		return err
	})
	run(SourceReviews, PathReviewsTaskPost, func() (err error) {
		b.Reviews, err = f.client.Reviews(ctx, req, f.pollInterval)
		return err
	})
	run(SourceRankedKeywords, PathRankedKeywords, func() (err error) {
		b.RankedKeywords, err = f.client.RankedKeywords(ctx, req)
		return err
	})
	run(SourceTrafficEstimation, PathTrafficEstimate, func() (err error) {
		b.TrafficEstimation, err = f.client.TrafficEstimation(ctx, req)
		return err
	})
	run(SourceOnPage, PathInstantPages, func() (err error) {
		b.OnPage, err = f.client.OnPage(ctx, req)
		return err
	})
	run(SourceBacklinks, PathBacklinks, func() (err error) {
		b.Backlinks, err = f.client.Backlinks(ctx, req)
		return err
	})
	run(SourceAdsSearch, PathAdsSearch, func() (err error) {
		b.AdsSearch, err = f.client.AdsSearch(ctx, req)
		return err
	})
	run(SourceAdsAdvertisers, PathAdsAdvertisers, func() (err error) {
		b.AdsAdvertisers, err = f.client.AdsAdvertisers(ctx, req)
		return err
	})
	run(SourceSerp, PathOrganicSerp, func() (err error) {
		b.Serp, err = f.client.OrganicSerp(ctx, req)
		return err
	})
	run(SourceLighthouseDesktop, PathLighthouse, func() (err error) {
		b.LighthouseDesktop, err = f.client.Lighthouse(ctx, req, false)
		return err
	})
	run(SourceLighthouseMobile, PathLighthouse, func() (err error) {
		b.LighthouseMobile, err = f.client.Lighthouse(ctx, req, true)
		return err
	})
	if f.site != nil {
		run(SourceSite, req.siteURL(), func() (err error) {
			b.Site, err = f.site.Detect(ctx, req.Domain)
			return err
		})
	}

	_ = g.Wait()
	sort.Strings(failed)
	return b, FetchReport{Failed: failed, Duration: time.Since(start)}
}
