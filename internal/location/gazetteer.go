package location

import (
	"embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

//go:embed data/*.csv
var seedFS embed.FS

const (
	colCriteriaID    = "Criteria ID"
	colName          = "Name"
	colCanonicalName = "Canonical Name"
	colParentID      = "Parent ID"
	colCountryCode   = "Country Code"
	colTargetType    = "Target Type"
	colStatus        = "Status"
	colZIPRange      = "ZIP Range"

	statusActive = "Active"
)

// ZIPRange is an inclusive range of 5-digit ZIP codes.
type ZIPRange struct {
	From int
	To   int
}

// Contains reports whether zip lies inside the range.
func (r ZIPRange) Contains(zip int) bool {
	return zip >= r.From && zip <= r.To
}

func (r ZIPRange) span() int {
	return r.To - r.From
}

// Place is one gazetteer row.
type Place struct {
	Code          int
	Name          string
	CanonicalName string
	ParentID      int
	CountryCode   string
	TargetType    string
	ZIPRanges     []ZIPRange

	key   string
	terms []string
}

// Gazetteer is an ordered table of places.
type Gazetteer struct {
	places []Place
}

// Places returns the rows in file order.
func (g *Gazetteer) Places() []Place {
	if g == nil {
		return nil
	}
	return g.places
}

// Len returns the number of rows.
func (g *Gazetteer) Len() int {
	return len(g.Places())
}

// LoadGazetteer reads a geotarget CSV export from disk.
func LoadGazetteer(path string) (*Gazetteer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gazetteer: %w", err)
	}
	defer f.Close()
	return ParseGazetteer(f)
}

// ParseGazetteer reads a geotarget CSV. Rows whose status is not Active are
// skipped. An optional "ZIP Range" column holds ranges like
// "60601-60661;60666".
func ParseGazetteer(r io.Reader) (*Gazetteer, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read gazetteer header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	for _, required := range []string{colCriteriaID, colName, colCanonicalName} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("gazetteer missing column %q", required)
		}
	}

	field := func(rec []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	g := &Gazetteer{}
	line := 1
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("read gazetteer line %d: %w", line, err)
		}

		if status := field(rec, colStatus); status != "" && status != statusActive {
			continue
		}
		code, err := strconv.Atoi(field(rec, colCriteriaID))
		if err != nil {
			return nil, fmt.Errorf("gazetteer line %d: invalid criteria id: %w", line, err)
		}
		parentID, _ := strconv.Atoi(field(rec, colParentID))
		ranges, err := parseZIPRanges(field(rec, colZIPRange))
		if err != nil {
			return nil, fmt.Errorf("gazetteer line %d: %w", line, err)
		}

		canonical := field(rec, colCanonicalName)
		if canonical == "" {
			canonical = field(rec, colName)
		}
		g.places = append(g.places, Place{
			Code:          code,
			Name:          field(rec, colName),
			CanonicalName: canonical,
			ParentID:      parentID,
			CountryCode:   field(rec, colCountryCode),
			TargetType:    field(rec, colTargetType),
			ZIPRanges:     ranges,
			key:           normalizeKey(canonical),
			terms:         tokenize(canonical),
		})
	}
	return g, nil
}

func parseZIPRanges(raw string) ([]ZIPRange, error) {
	if raw == "" {
		return nil, nil
	}
	var ranges []ZIPRange
	for _, part := range strings.Split(raw, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		from, to, found := strings.Cut(part, "-")
		if !found {
			to = from
		}
		lo, err := strconv.Atoi(strings.TrimSpace(from))
		if err != nil {
			return nil, fmt.Errorf("invalid zip range %q", part)
		}
		hi, err := strconv.Atoi(strings.TrimSpace(to))
		if err != nil || hi < lo {
			return nil, fmt.Errorf("invalid zip range %q", part)
		}
		ranges = append(ranges, ZIPRange{From: lo, To: hi})
	}
	return ranges, nil
}

func seedGazetteer(name string) *Gazetteer {
	f, err := seedFS.Open("data/" + name)
	if err != nil {
		panic(fmt.Sprintf("location: missing seed %s: %v", name, err))
	}
	defer f.Close()

	g, err := ParseGazetteer(f)
	if err != nil {
		panic(fmt.Sprintf("location: invalid seed %s: %v", name, err))
	}
	return g
}

// DefaultGazetteer returns the embedded general table.
func DefaultGazetteer() *Gazetteer {
	return seedGazetteer("geotargets.csv")
}

// DefaultRegionGazetteer returns the embedded Illinois table.
func DefaultRegionGazetteer() *Gazetteer {
	return seedGazetteer("illinois.csv")
}
