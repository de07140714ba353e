// Package location maps free-text locations to geotarget codes.
package location

import (
	"strconv"
	"strings"
)

// DefaultCode is returned when nothing matches (Chicago).
const (
	DefaultCode = 1016367
	DefaultName = "Chicago,Illinois,United States"
)

const (
	exactMatchPoints     = 100
	termMatchPoints      = 20
	substringMatchPoints = 10
	firstTermPoints      = 15
	majorCityPoints      = 25
	majorCityPenalty     = 15
	sharedStatePoints    = 5
	extraTermsPenalty    = 5
	maxExtraTerms        = 2
	minSubstringLen      = 3
	zipMatchScore        = 100
)

var stopWords = map[string]struct{}{
	"united": {}, "states": {}, "county": {}, "city": {},
	"state": {}, "region": {}, "dma": {},
}

// majorCities pins well-known cities to the state they are expected in.
var majorCities = map[string]string{
	"chicago":       "il",
	"new york":      "ny",
	"los angeles":   "ca",
	"san francisco": "ca",
	"san diego":     "ca",
	"houston":       "tx",
	"dallas":        "tx",
	"austin":        "tx",
	"miami":         "fl",
	"boston":        "ma",
}

var usStates = map[string]string{
	"alabama": "al", "alaska": "ak", "arizona": "az", "arkansas": "ar", "california": "ca",
	"colorado": "co", "connecticut": "ct", "delaware": "de", "florida": "fl", "georgia": "ga",
	"hawaii": "hi", "idaho": "id", "illinois": "il", "indiana": "in", "iowa": "ia",
	"kansas": "ks", "kentucky": "ky", "louisiana": "la", "maine": "me", "maryland": "md",
	"massachusetts": "ma", "michigan": "mi", "minnesota": "mn", "mississippi": "ms", "missouri": "mo",
	"montana": "mt", "nebraska": "ne", "nevada": "nv", "new hampshire": "nh", "new jersey": "nj",
	"new mexico": "nm", "new york": "ny", "north carolina": "nc", "north dakota": "nd", "ohio": "oh",
	"oklahoma": "ok", "oregon": "or", "pennsylvania": "pa", "rhode island": "ri", "south carolina": "sc",
	"south dakota": "sd", "tennessee": "tn", "texas": "tx", "utah": "ut", "vermont": "vt",
	"virginia": "va", "washington": "wa", "west virginia": "wv", "wisconsin": "wi", "wyoming": "wy",
}

var stateAbbreviations = func() map[string]struct{} {
	abbrs := make(map[string]struct{}, len(usStates))
	for _, abbr := range usStates {
		abbrs[abbr] = struct{}{}
	}
	return abbrs
}()

// Match is the outcome of a resolution.
type Match struct {
	Code  int    `json:"code"`
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// Region is a sub-area with its own, more specific gazetteer.
type Region struct {
	Name        string
	State       string
	ZIPRanges   []ZIPRange
	DefaultCode int
	DefaultName string
	Places      *Gazetteer
}

// Illinois returns the embedded Illinois region.
func Illinois(places *Gazetteer) *Region {
	if places == nil {
		places = DefaultRegionGazetteer()
	}
	return &Region{
		Name:        "illinois",
		State:       "il",
		ZIPRanges:   []ZIPRange{{From: 60001, To: 62999}},
		DefaultCode: 21147,
		DefaultName: "Illinois,United States",
		Places:      places,
	}
}

func (r *Region) containsZIP(zip int) bool {
	for _, zr := range r.ZIPRanges {
		if zr.Contains(zip) {
			return true
		}
	}
	return false
}

// Resolver scores free text against gazetteer rows. It is safe for
// concurrent use.
type Resolver struct {
	places *Gazetteer
	region *Region
}

// NewResolver builds a resolver over places with an optional region.
func NewResolver(places *Gazetteer, region *Region) *Resolver {
	if places == nil {
		places = DefaultGazetteer()
	}
	return &Resolver{places: places, region: region}
}

// NewDefaultResolver uses the embedded tables.
func NewDefaultResolver() *Resolver {
	return NewResolver(DefaultGazetteer(), Illinois(DefaultRegionGazetteer()))
}

// ResolveLocationCode returns only the code of Resolve.
func (r *Resolver) ResolveLocationCode(input string) int {
	return r.Resolve(input).Code
}

// Resolve finds the best matching place. It never fails: inputs that match
// nothing resolve to DefaultCode with a score of 0.
func (r *Resolver) Resolve(input string) Match {
	q := newQuery(input)
	if len(q.terms) == 0 {
		return defaultMatch()
	}

	if zip, ok := q.zipOnly(); ok {
		return r.resolveZIP(zip)
	}

	if r.region != nil && r.inRegion(q) {
		if m, ok := bestMatch(r.region.Places, q); ok {
			return m
		}
	}

	m, ok := bestMatch(r.places, q)
	// Places listed only in the region table still resolve without a state
	// hint; the general table keeps ties.
	if r.region != nil {
		if rm, rok := bestMatch(r.region.Places, q); rok && (!ok || rm.Score > m.Score) {
			m, ok = rm, true
		}
	}
	if !ok {
		return defaultMatch()
	}
	return m
}

func (r *Resolver) inRegion(q query) bool {
	if _, ok := q.states[r.region.State]; ok {
		return true
	}
	for _, zip := range q.zips {
		if r.region.containsZIP(zip) {
			return true
		}
	}
	return false
}

// resolveZIP picks the narrowest region row covering zip.
func (r *Resolver) resolveZIP(zip int) Match {
	if r.region == nil || !r.region.containsZIP(zip) {
		return defaultMatch()
	}

	var best *Place
	bestSpan := 0
	for i := range r.region.Places.Places() {
		p := &r.region.Places.places[i]
		for _, zr := range p.ZIPRanges {
			if !zr.Contains(zip) {
				continue
			}
			if best == nil || zr.span() < bestSpan || (zr.span() == bestSpan && p.Code < best.Code) {
				best, bestSpan = p, zr.span()
			}
		}
	}
	if best == nil {
		return Match{Code: r.region.DefaultCode, Name: r.region.DefaultName}
	}
	return Match{Code: best.Code, Name: best.CanonicalName, Score: zipMatchScore}
}

func defaultMatch() Match {
	return Match{Code: DefaultCode, Name: DefaultName}
}

// bestMatch returns the highest scoring row. Exact score ties go to the
// lowest code.
func bestMatch(g *Gazetteer, q query) (Match, bool) {
	var best Match
	found := false
	for i := range g.Places() {
		p := &g.places[i]
		s := scorePlace(p, q)
		if s <= 0 {
			continue
		}
		if !found || s > best.Score || (s == best.Score && p.Code < best.Code) {
			best = Match{Code: p.Code, Name: p.CanonicalName, Score: s}
			found = true
		}
	}
	return best, found
}

func scorePlace(p *Place, q query) int {
	score := 0
	if q.key == p.key || q.key == normalizeKey(p.Name) {
		score += exactMatchPoints
	}

	rowTerms := make(map[string]struct{}, len(p.terms))
	for _, t := range p.terms {
		rowTerms[t] = struct{}{}
	}
	for _, t := range q.terms {
		if _, ok := rowTerms[t]; ok {
			score += termMatchPoints
			continue
		}
		if overlaps(t, p.terms) {
			score += substringMatchPoints
		}
	}

	if first := q.terms[0]; containsPhrase(p.key, first) ||
		(len(first) >= minSubstringLen && strings.Contains(p.key, first)) {
		score += firstTermPoints
	}

	rowStates := statesIn(p.key)
	for city, state := range majorCities {
		if !containsPhrase(q.key, city) || !containsPhrase(p.key, city) {
			continue
		}
		if _, ok := rowStates[state]; ok {
			score += majorCityPoints
		} else {
			score -= majorCityPenalty
		}
	}

	for state := range q.states {
		if _, ok := rowStates[state]; ok {
			score += sharedStatePoints
		}
	}

	if len(p.terms)-len(q.terms) > maxExtraTerms {
		score -= extraTermsPenalty
	}
	return score
}

func overlaps(term string, rowTerms []string) bool {
	if len(term) < minSubstringLen {
		return false
	}
	for _, rt := range rowTerms {
		if len(rt) < minSubstringLen {
			continue
		}
		if strings.Contains(rt, term) || strings.Contains(term, rt) {
			return true
		}
	}
	return false
}

type query struct {
	key    string
	terms  []string
	states map[string]struct{}
	zips   []int
}

func newQuery(input string) query {
	key := normalizeKey(input)
	terms := tokenize(input)

	states := statesIn(key)
	for _, t := range terms {
		if _, ok := stateAbbreviations[t]; ok {
			states[t] = struct{}{}
		}
	}

	var zips []int
	for _, t := range terms {
		if zip, ok := parseZIP(t); ok {
			zips = append(zips, zip)
		}
	}
	return query{key: key, terms: terms, states: states, zips: zips}
}

func (q query) zipOnly() (int, bool) {
	if len(q.terms) != 1 || len(q.zips) != 1 {
		return 0, false
	}
	return q.zips[0], true
}

func parseZIP(term string) (int, bool) {
	if len(term) != 5 {
		return 0, false
	}
	zip, err := strconv.Atoi(term)
	if err != nil || zip < 0 {
		return 0, false
	}
	return zip, true
}

// statesIn returns the abbreviations of the full state names found in key.
func statesIn(key string) map[string]struct{} {
	found := make(map[string]struct{})
	for name, abbr := range usStates {
		if containsPhrase(key, name) {
			found[abbr] = struct{}{}
		}
	}
	return found
}

// containsPhrase reports whether phrase occurs in key on term boundaries.
func containsPhrase(key, phrase string) bool {
	return strings.Contains(" "+key+" ", " "+phrase+" ")
}

// normalizeKey lowercases s, treats commas as spaces and collapses runs of
// whitespace.
func normalizeKey(s string) string {
	s = strings.ToLower(strings.ReplaceAll(s, ",", " "))
	return strings.Join(strings.Fields(s), " ")
}

// tokenize splits s into distinct lowercase terms, dropping stop-words
// unless nothing else is left.
func tokenize(s string) []string {
	fields := strings.Fields(normalizeKey(s))
	terms := make([]string, 0, len(fields))
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if _, stop := stopWords[f]; stop {
			continue
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		terms = append(terms, f)
	}
	if len(terms) == 0 && len(fields) > 0 {
		return distinct(fields)
	}
	return terms
}

func distinct(fields []string) []string {
	out := make([]string, 0, len(fields))
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if _, dup := seen[f]; !dup {
			seen[f] = struct{}{}
			out = append(out, f)
		}
	}
	return out
}
