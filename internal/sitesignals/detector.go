// Package sitesignals inspects a business homepage for structured data and
// tracking tags.
package sitesignals

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"leadscout_backend/internal/scoring"

	"github.com/PuerkitoBio/goquery"
)

const (
	defaultTimeout = 15 * time.Second
	maxPageBytes   = 5 << 20
	userAgent      = "Mozilla/5.0 (compatible; LeadScoutBot/1.0)"
)

// localBusinessTypes are schema.org types treated as a local business.
var localBusinessTypes = map[string]struct{}{
	"localbusiness":           {},
	"medicalbusiness":         {},
	"medicalclinic":           {},
	"medicalorganization":     {},
	"dentist":                 {},
	"physician":               {},
	"optician":                {},
	"physiotherapy":           {},
	"healthandbeautybusiness": {},
	"chiropractor":            {},
	"hospital":                {},
}

var analyticsMarkers = []string{
	"googletagmanager.com/gtag/js",
	"google-analytics.com/analytics.js",
	"google-analytics.com/ga.js",
	"googletagmanager.com/gtm.js",
	"gtag(",
}

var pixelMarkers = []string{
	"connect.facebook.net",
	"fbq(",
}

// Detector fetches homepages over HTTP.
type Detector struct {
	httpClient *http.Client
	scheme     string
}

// New creates a detector with the default timeout.
func New() *Detector {
	return &Detector{httpClient: &http.Client{Timeout: defaultTimeout}, scheme: "https"}
}

// NewWithClient creates a detector that uses h and fetches over scheme.
func NewWithClient(h *http.Client, scheme string) *Detector {
	return &Detector{httpClient: h, scheme: scheme}
}

// Detect fetches the homepage of domain and reports the signals found.
func (d *Detector) Detect(ctx context.Context, domain string) (*scoring.WebsiteSignals, error) {
	target := fmt.Sprintf("%s://%s/", d.scheme, hostOf(domain))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("fetch %s: status %d", target, resp.StatusCode)
	}
	return Parse(io.LimitReader(resp.Body, maxPageBytes))
}

// Parse inspects an HTML document.
func Parse(r io.Reader) (*scoring.WebsiteSignals, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	signals := &scoring.WebsiteSignals{}

	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		for _, typ := range jsonLDTypes(s.Text()) {
			t := strings.ToLower(typ)
			if _, ok := localBusinessTypes[t]; ok {
				signals.HasLocalBusinessSchema = true
			}
			if t == "faqpage" {
				signals.HasFAQSchema = true
			}
		}
	})

	doc.Find(`[itemtype]`).Each(func(_ int, s *goquery.Selection) {
		itemType, _ := s.Attr("itemtype")
		name := strings.ToLower(itemType[strings.LastIndex(itemType, "/")+1:])
		if _, ok := localBusinessTypes[name]; ok {
			signals.HasLocalBusinessSchema = true
		}
		if name == "faqpage" {
			signals.HasFAQSchema = true
		}
	})

	doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		text := strings.ToLower(src + " " + s.Text())
		if containsAny(text, analyticsMarkers) {
			signals.HasGoogleAnalytics = true
		}
		if containsAny(text, pixelMarkers) {
			signals.HasFacebookPixel = true
		}
	})

	doc.Find(`noscript img[src*="facebook.com/tr"]`).Each(func(_ int, _ *goquery.Selection) {
		signals.HasFacebookPixel = true
	})

	return signals, nil
}

// jsonLDTypes collects every @type in a JSON-LD block, walking @graph and
// nested objects.
func jsonLDTypes(raw string) []string {
	var v any
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &v); err != nil {
		return nil
	}
	var types []string
	var walk func(any)
	walk = func(node any) {
		switch n := node.(type) {
		case []any:
			for _, item := range n {
				walk(item)
			}
		case map[string]any:
			switch t := n["@type"].(type) {
			case string:
				types = append(types, t)
			case []any:
				for _, item := range t {
					if s, ok := item.(string); ok {
						types = append(types, s)
					}
				}
			}
			for key, child := range n {
				if key != "@type" {
					walk(child)
				}
			}
		}
	}
	walk(v)
	return types
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

// hostOf strips any scheme and path from domain, keeping the port.
func hostOf(domain string) string {
	h := strings.TrimSpace(domain)
	if i := strings.Index(h, "://"); i >= 0 {
		h = h[i+3:]
	}
	if i := strings.IndexAny(h, "/?#"); i >= 0 {
		h = h[:i]
	}
	return h
}
