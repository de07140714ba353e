package scoring

import (
	"math"
	"net/url"
	"strings"
	"time"

	"leadscout_backend/platform/phone"
)

const (
	reviewVelocityWindow = 90 * 24 * time.Hour
	defaultAdPlatform    = "google_ads"
	adCreativeType       = "ads_search"
	upstreamTimeLayout   = "2006-01-02 15:04:05 -07:00"

	maxCount = 1 << 40
)

// ExtractedMetrics is the flat set of scalars the calculators consume.
type ExtractedMetrics struct {
	ReviewRating   float64 `json:"reviewRating"`
	ReviewCount    int     `json:"reviewCount"`
	OrganicTraffic int     `json:"organicTraffic"`
	PaidTraffic    int     `json:"paidTraffic"`
	KeywordCount   int     `json:"keywordCount"`
	OnPageScore    float64 `json:"onPageScore"`
	BacklinkCount  int     `json:"backlinkCount"`
	AdCount        int     `json:"adCount"`
	NAPComplete    bool    `json:"napComplete"`
	Claimed        bool    `json:"claimed"`
	ReviewVelocity int     `json:"reviewVelocity"`
	ResponseRate   float64 `json:"responseRate"`
}

// Creative is a normalized ad creative.
type Creative struct {
	CreativeID   string     `json:"creativeId"`
	AdvertiserID string     `json:"advertiserId"`
	Title        string     `json:"title"`
	Format       string     `json:"format"`
	FirstShown   *time.Time `json:"firstShown"`
	LastShown    *time.Time `json:"lastShown"`
	Verified     bool       `json:"verified"`
	Platform     string     `json:"platform"`
}

// NAP holds the resolved name, address and phone of a business.
type NAP struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

// Complete reports whether all three fields are present.
func (n NAP) Complete() bool {
	return n.Name != "" && n.Address != "" && n.Phone != ""
}

// SpeedScores are lighthouse performance scores on a 0-100 scale.
type SpeedScores struct {
	Desktop int `json:"desktop"`
	Mobile  int `json:"mobile"`
}

// Extract assembles every metric from the bundle.
func Extract(b Bundle, domain string, now time.Time) ExtractedMetrics {
	return ExtractedMetrics{
		ReviewRating:   ExtractReviewRating(b),
		ReviewCount:    ExtractReviewCount(b),
		OrganicTraffic: ExtractOrganicTraffic(b),
		PaidTraffic:    ExtractPaidTraffic(b),
		KeywordCount:   ExtractKeywordCount(b),
		OnPageScore:    ExtractOnPageScore(b),
		BacklinkCount:  ExtractBacklinkCount(b),
		AdCount:        ExtractAdCount(b),
		NAPComplete:    ExtractNAP(b).Complete(),
		Claimed:        ExtractClaimed(b),
		ReviewVelocity: ExtractReviewVelocity(b, now),
		ResponseRate:   ExtractResponseRate(b),
	}
}

// ExtractReviewRating reads the aggregate rating, falling back to the
// business info and then the listing when the reviews payload has none.
func ExtractReviewRating(b Bundle) float64 {
	if res, ok := b.Reviews.First(); ok && res.Rating != nil && res.Rating.Value != nil {
		return clampFloat(res.Rating.Value.Float(), 0, 5)
	}
	for _, item := range businessItems(b) {
		if item.Rating != nil && item.Rating.Value != nil {
			return clampFloat(item.Rating.Value.Float(), 0, 5)
		}
	}
	return 0
}

// ExtractReviewCount reads the total review count with the same fallbacks
// as ExtractReviewRating.
func ExtractReviewCount(b Bundle) int {
	if res, ok := b.Reviews.First(); ok && res.ReviewsCount != nil {
		return nonNegative(res.ReviewsCount.Float())
	}
	for _, item := range businessItems(b) {
		if item.Rating != nil && item.Rating.VotesCount != nil {
			return nonNegative(item.Rating.VotesCount.Float())
		}
	}
	return 0
}

// ExtractOrganicTraffic reads the organic estimated traffic value.
func ExtractOrganicTraffic(b Bundle) int {
	m := trafficMetrics(b)
	if m == nil || m.Organic == nil {
		return 0
	}
	return nonNegative(m.Organic.ETV.Float())
}

// ExtractPaidTraffic reads the paid estimated traffic value.
func ExtractPaidTraffic(b Bundle) int {
	m := trafficMetrics(b)
	if m == nil || m.Paid == nil {
		return 0
	}
	return nonNegative(m.Paid.ETV.Float())
}

func trafficMetrics(b Bundle) *TrafficMetrics {
	res, ok := b.TrafficEstimation.First()
	if !ok || len(res.Items) == 0 {
		return nil
	}
	return res.Items[0].Metrics
}

// ExtractKeywordCount counts the ranked keyword items.
func ExtractKeywordCount(b Bundle) int {
	res, _ := b.RankedKeywords.First()
	return len(res.Items)
}

// ExtractOnPageScore reads the first page's technical health score.
func ExtractOnPageScore(b Bundle) float64 {
	res, ok := b.OnPage.First()
	if !ok || len(res.Items) == 0 {
		return 0
	}
	return clampFloat(res.Items[0].OnPageScore.Float(), 0, 100)
}

// ExtractBacklinkCount counts the backlink items.
func ExtractBacklinkCount(b Bundle) int {
	res, _ := b.Backlinks.First()
	return len(res.Items)
}

// ExtractAdCreatives maps ad creative items to normalized creatives.
func ExtractAdCreatives(b Bundle) []Creative {
	res, _ := b.AdsSearch.First()
	creatives := make([]Creative, 0, len(res.Items))
	for _, item := range res.Items {
		if item.Type != adCreativeType {
			continue
		}
		platform := strings.TrimSpace(item.Platform)
		if platform == "" {
			platform = defaultAdPlatform
		}
		creatives = append(creatives, Creative{
			CreativeID:   item.CreativeID,
			AdvertiserID: item.AdvertiserID,
			Title:        item.Title,
			Format:       item.Format,
			FirstShown:   parseUpstreamTime(item.FirstShown),
			LastShown:    parseUpstreamTime(item.LastShown),
			Verified:     item.Verified != nil && *item.Verified,
			Platform:     platform,
		})
	}
	return creatives
}

// ExtractAdCount counts the ad creatives.
func ExtractAdCount(b Bundle) int {
	return len(ExtractAdCreatives(b))
}

// ExtractNAP resolves name, address and phone independently, preferring the
// business info payload over the listing.
func ExtractNAP(b Bundle) NAP {
	var nap NAP
	for _, item := range businessItems(b) {
		if nap.Name == "" {
			nap.Name = strings.TrimSpace(item.Title)
		}
		if nap.Address == "" {
			nap.Address = strings.TrimSpace(item.Address)
		}
		if nap.Phone == "" {
			nap.Phone = phone.NormalizeE164(item.Phone)
		}
	}
	return nap
}

// ExtractClaimed reads the claimed flag with the same source preference as
// ExtractNAP.
func ExtractClaimed(b Bundle) bool {
	for _, item := range businessItems(b) {
		if item.IsClaimed != nil {
			return *item.IsClaimed
		}
	}
	return false
}

// ExtractReviewVelocity counts reviews posted in the 90 days up to now.
func ExtractReviewVelocity(b Bundle, now time.Time) int {
	res, _ := b.Reviews.First()
	cutoff := now.Add(-reviewVelocityWindow)
	count := 0
	for _, item := range res.Items {
		ts := parseUpstreamTime(item.Timestamp)
		if ts == nil {
			continue
		}
		if !ts.Before(cutoff) && !ts.After(now) {
			count++
		}
	}
	return count
}

// ExtractResponseRate is the share of reviews with an owner answer.
func ExtractResponseRate(b Bundle) float64 {
	res, _ := b.Reviews.First()
	if len(res.Items) == 0 {
		return 0
	}
	answered := 0
	for _, item := range res.Items {
		if strings.TrimSpace(item.OwnerAnswer) != "" {
			answered++
		}
	}
	return float64(answered) / float64(len(res.Items))
}

// ExtractSerpPosition returns the organic rank of domain, or nil when it
// does not appear.
func ExtractSerpPosition(b Bundle, domain string) *int {
	target := NormalizeDomain(domain)
	res, ok := b.Serp.First()
	if target == "" || !ok {
		return nil
	}
	for _, item := range res.Items {
		if item.Type != "" && item.Type != "organic" {
			continue
		}
		itemDomain := item.Domain
		if itemDomain == "" {
			itemDomain = item.URL
		}
		if NormalizeDomain(itemDomain) != target {
			continue
		}
		// Ranks start at 1; a zero rank is a missing or malformed field.
		if pos := rankOf(item.RankAbsolute); pos > 0 {
			return &pos
		}
		if pos := rankOf(item.RankGroup); pos > 0 {
			return &pos
		}
	}
	return nil
}

func rankOf(rank *int) int {
	if rank == nil {
		return 0
	}
	return *rank
}

// ExtractSpeedScores reads lighthouse performance for both devices.
func ExtractSpeedScores(b Bundle) SpeedScores {
	return SpeedScores{
		Desktop: lighthousePerformance(b.LighthouseDesktop),
		Mobile:  lighthousePerformance(b.LighthouseMobile),
	}
}

// ExtractSpeedMeasured reports whether either device has a performance score.
func ExtractSpeedMeasured(b Bundle) bool {
	return hasPerformance(b.LighthouseDesktop) || hasPerformance(b.LighthouseMobile)
}

func hasPerformance(env *Envelope[LighthouseResult]) bool {
	res, ok := env.First()
	return ok && res.Categories != nil && res.Categories.Performance != nil &&
		res.Categories.Performance.Score != nil
}

func lighthousePerformance(env *Envelope[LighthouseResult]) int {
	res, ok := env.First()
	if !ok || res.Categories == nil || res.Categories.Performance == nil {
		return 0
	}
	return clampInt(roundHalfUp(res.Categories.Performance.Score.Float()*100), 0, 100)
}

// ExtractApproxAdsCount sums the approximate ad counts of all advertisers.
func ExtractApproxAdsCount(b Bundle) int {
	res, _ := b.AdsAdvertisers.First()
	total := 0
	for _, item := range res.Items {
		total += nonNegative(item.ApproxAdsCount.Float())
	}
	return total
}

// ExtractVerifiedAdvertiser reports whether any advertiser or creative is
// marked verified.
func ExtractVerifiedAdvertiser(b Bundle) bool {
	res, _ := b.AdsAdvertisers.First()
	for _, item := range res.Items {
		if item.Verified != nil && *item.Verified {
			return true
		}
	}
	for _, c := range ExtractAdCreatives(b) {
		if c.Verified {
			return true
		}
	}
	return false
}

// ExtractWebsiteSignals returns the homepage signals, zero when absent.
func ExtractWebsiteSignals(b Bundle) WebsiteSignals {
	if b.Site == nil {
		return WebsiteSignals{}
	}
	return *b.Site
}

// NormalizeDomain lowercases a domain or URL and strips the scheme, "www."
// prefix, port and path.
func NormalizeDomain(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return ""
	}
	if strings.Contains(s, "://") {
		if u, err := url.Parse(s); err == nil && u.Host != "" {
			s = u.Host
		}
	}
	if i := strings.IndexAny(s, "/?#"); i >= 0 {
		s = s[:i]
	}
	if i := strings.LastIndex(s, ":"); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimSuffix(s, ".")
	return strings.TrimPrefix(s, "www.")
}

// businessItems returns the first item of the business info payload followed
// by the first item of the listing payload, skipping missing ones.
func businessItems(b Bundle) []BusinessItem {
	items := make([]BusinessItem, 0, 2)
	if res, ok := b.BusinessInfo.First(); ok && len(res.Items) > 0 {
		items = append(items, res.Items[0])
	}
	if res, ok := b.BusinessListing.First(); ok && len(res.Items) > 0 {
		items = append(items, res.Items[0])
	}
	return items
}

func parseUpstreamTime(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	for _, layout := range []string{upstreamTimeLayout, time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t
		}
	}
	return nil
}

func nonNegative(v float64) int {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	if v > maxCount {
		return maxCount
	}
	return roundHalfUp(v)
}

func clampFloat(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func roundHalfUp(v float64) int {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return int(math.Floor(v + 0.5))
}
