package sitesignals

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"leadscout_backend/internal/scoring"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fullPage = `<!doctype html>
<html><head>
<script type="application/ld+json">
{"@context":"https://schema.org","@graph":[
  {"@type":["Dentist","LocalBusiness"],"name":"Bright Smile Dental"},
  {"@type":"WebSite","name":"Bright Smile"}
]}
</script>
<script type="application/ld+json">{"@context":"https://schema.org","@type":"FAQPage","mainEntity":[]}</script>
<script async src="https://www.googletagmanager.com/gtag/js?id=G-XXXX"></script>
<script>!function(f,b,e,v,n,t,s){}(window, document,'script','https://connect.facebook.net/en_US/fbevents.js'); fbq('init', '123');</script>
</head><body><h1>Bright Smile</h1></body></html>`

func TestParseDetectsAllSignals(t *testing.T) {
	got, err := Parse(strings.NewReader(fullPage))
	require.NoError(t, err)

	assert.Equal(t, &scoring.WebsiteSignals{
		HasLocalBusinessSchema: true,
		HasFAQSchema:           true,
		HasGoogleAnalytics:     true,
		HasFacebookPixel:       true,
	}, got)
}

func TestParseBarePage(t *testing.T) {
	got, err := Parse(strings.NewReader(`<html><body><script>console.log("hi")</script></body></html>`))
	require.NoError(t, err)
	assert.Equal(t, &scoring.WebsiteSignals{}, got)
}

func TestParseMicrodataAndNoscriptPixel(t *testing.T) {
	page := `<html><body>
<div itemscope itemtype="https://schema.org/MedicalClinic"><span itemprop="name">Clinic</span></div>
<noscript><img height="1" width="1" src="https://www.facebook.com/tr?id=1&ev=PageView"/></noscript>
<script type="application/ld+json">{ not json </script>
</body></html>`

	got, err := Parse(strings.NewReader(page))
	require.NoError(t, err)
	assert.True(t, got.HasLocalBusinessSchema)
	assert.True(t, got.HasFacebookPixel)
	assert.False(t, got.HasFAQSchema)
	assert.False(t, got.HasGoogleAnalytics)
}

func TestDetectFetchesHomepage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/", r.URL.Path)
		assert.Contains(t, r.Header.Get("User-Agent"), "LeadScoutBot")
		_, _ = io.WriteString(w, fullPage)
	}))
	defer srv.Close()

	host := strings.TrimPrefix(srv.URL, "http://")
	d := NewWithClient(srv.Client(), "http")

	got, err := d.Detect(context.Background(), host)
	require.NoError(t, err)
	assert.True(t, got.HasFAQSchema)
}

func TestDetectErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	d := NewWithClient(srv.Client(), "http")
	got, err := d.Detect(context.Background(), strings.TrimPrefix(srv.URL, "http://"))
	assert.Error(t, err)
	assert.Nil(t, got)
}
