// Package fundamentals turns SEC XBRL company facts into clean, deduplicated
// annual time series of core financial metrics.
//
// The pipeline runs in four stages: Normalize flattens the nested
// companyfacts store into Fact rows, ChoosePreferredUnit and
// DedupeKeepLatestFiled clean the rows, ExtractAnnualSeries reconciles one
// metric per fiscal year, and BuildAnnualTable assembles the wide table with
// derived ratios. Every stage takes a slice of Fact and returns a new one;
// facts are never mutated in place.
package fundamentals

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Period types derived during normalization. A fact with no usable start
// date is an instant (point-in-time balance); a fact with one is a duration
// (flow over an interval).
const (
	PeriodInstant  = "instant"
	PeriodDuration = "duration"
)

// dateLayout is the YYYY-MM-DD format used throughout SEC JSON data.
const dateLayout = "2006-01-02"

// CompanyFacts represents the SEC companyfacts JSON structure for one filer.
type CompanyFacts struct {
	CIK        json.Number         `json:"cik"`
	EntityName string              `json:"entityName"`
	Facts      map[string]Taxonomy `json:"facts"`
}

// Taxonomy groups concepts within one reporting taxonomy (us-gaap, dei, ...).
type Taxonomy map[string]ConceptFacts

// ConceptFacts holds the label, description and per-unit observations
// reported for one concept tag.
type ConceptFacts struct {
	Label       string               `json:"label"`
	Description string               `json:"description"`
	Units       map[string][]RawFact `json:"units"`
}

// RawFact is a single observation exactly as reported in companyfacts JSON.
// Val is decoded as any because the SEC occasionally reports string values
// for numeric concepts.
type RawFact struct {
	Val   any            `json:"val"`
	Start string         `json:"start,omitempty"`
	End   string         `json:"end"`
	FY    int            `json:"fy"`
	FP    string         `json:"fp"`
	Form  string         `json:"form"`
	Filed string         `json:"filed"`
	Accn  string         `json:"accn"`
	Qtrs  int            `json:"qtrs,omitempty"`
	Frame string         `json:"frame,omitempty"`
	Dims  map[string]any `json:"dims,omitempty"`
}

// ParseCompanyFacts parses a companyfacts JSON document from a reader.
func ParseCompanyFacts(r io.Reader) (*CompanyFacts, error) {
	var cf CompanyFacts
	if err := json.NewDecoder(r).Decode(&cf); err != nil {
		return nil, fmt.Errorf("failed to parse company facts JSON: %w", err)
	}
	return &cf, nil
}

// Fact is one flattened, normalized observation. Zero time values and a nil
// Value mark fields that were absent or unparseable in the source data.
// Facts are read-only snapshots: pipeline stages filter and copy them, never
// mutate them.
type Fact struct {
	Taxonomy    string
	Concept     string
	Label       string
	Description string
	Unit        string
	Value       *float64
	Start       time.Time // zero for instant facts
	End         time.Time
	FY          int // declared fiscal year, 0 when missing
	FP          string
	Form        string
	Filed       time.Time
	Frame       string
	Accn        string
	Qtrs        int // declared quarters spanned, 0 when missing
	HasDims     bool
	PeriodType  string // PeriodInstant or PeriodDuration, set by Normalize
}

// IsInstant returns true for point-in-time facts (balance sheet items).
func (f *Fact) IsInstant() bool {
	return f.PeriodType == PeriodInstant
}

// IsDuration returns true for facts accumulated over an interval
// (income and cash flow statement items).
func (f *Fact) IsDuration() bool {
	return f.PeriodType == PeriodDuration
}

// SpanDays returns the whole days between start and end, or -1 when the fact
// has no usable start or end date. Instant facts always return -1, which
// ranks them below any duration fact when span length is compared.
func (f *Fact) SpanDays() int {
	if f.Start.IsZero() || f.End.IsZero() {
		return -1
	}
	return int(f.End.Sub(f.Start).Hours() / 24)
}

// NormalizeConfig controls how the raw fact store is flattened.
type NormalizeConfig struct {
	// Taxonomy selects the reporting taxonomy to read ("us-gaap" by default).
	Taxonomy string
	// PreferredUnits is the unit preference order used by NormalizePipeline.
	PreferredUnits []string
	// KeepDimensions keeps records carrying dimensional qualifiers.
	// Dimensioned facts are dropped by default.
	KeepDimensions bool
	// KeepForms is an optional allow-list of source form types.
	// Nil keeps every form.
	KeepForms []string
}

// DefaultNormalizeConfig returns the default normalization settings.
func DefaultNormalizeConfig() NormalizeConfig {
	return NormalizeConfig{
		Taxonomy:       "us-gaap",
		PreferredUnits: []string{"USD", "shares", "pure"},
	}
}

// Normalize flattens the nested per-concept/per-unit fact store into a flat
// slice of Fact rows, one per raw observation.
//
// Values and dates are parsed leniently: anything that fails to parse becomes
// a missing marker rather than an error. An empty or absent store produces an
// empty (non-nil) slice, so callers never special-case "no data". Concept and
// unit keys are visited in sorted order to keep output deterministic.
func Normalize(cf *CompanyFacts, cfg NormalizeConfig) []Fact {
	if cfg.Taxonomy == "" {
		cfg.Taxonomy = "us-gaap"
	}

	facts := []Fact{}
	if cf == nil {
		return facts
	}
	tax := cf.Facts[cfg.Taxonomy]

	var keepForm map[string]bool
	if cfg.KeepForms != nil {
		keepForm = make(map[string]bool, len(cfg.KeepForms))
		for _, form := range cfg.KeepForms {
			keepForm[form] = true
		}
	}

	for _, concept := range sortedKeys(tax) {
		cFacts := tax[concept]
		for _, unit := range sortedKeys(cFacts.Units) {
			for _, raw := range cFacts.Units[unit] {
				if keepForm != nil && !keepForm[raw.Form] {
					continue
				}

				hasDims := len(raw.Dims) > 0
				if hasDims && !cfg.KeepDimensions {
					continue
				}

				start := parseDate(raw.Start)
				fact := Fact{
					Taxonomy:    cfg.Taxonomy,
					Concept:     concept,
					Label:       cFacts.Label,
					Description: cFacts.Description,
					Unit:        unit,
					Value:       parseValue(raw.Val),
					Start:       start,
					End:         parseDate(raw.End),
					FY:          raw.FY,
					FP:          raw.FP,
					Form:        raw.Form,
					Filed:       parseDate(raw.Filed),
					Frame:       raw.Frame,
					Accn:        raw.Accn,
					Qtrs:        raw.Qtrs,
					HasDims:     hasDims,
					PeriodType:  PeriodDuration,
				}
				if start.IsZero() {
					fact.PeriodType = PeriodInstant
				}

				facts = append(facts, fact)
			}
		}
	}

	return facts
}

// parseValue converts a raw JSON value to a float64, returning nil for
// anything non-numeric.
func parseValue(v any) *float64 {
	switch val := v.(type) {
	case float64:
		return &val
	case json.Number:
		if f, err := val.Float64(); err == nil {
			return &f
		}
	case string:
		cleaned := strings.TrimSpace(strings.ReplaceAll(val, ",", ""))
		if f, err := strconv.ParseFloat(cleaned, 64); err == nil {
			return &f
		}
	}
	return nil
}

// parseDate parses a YYYY-MM-DD date, returning the zero time on failure.
func parseDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}
	}
	return t
}

// sortedKeys returns the keys of a string-keyed map in ascending order.
func sortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
