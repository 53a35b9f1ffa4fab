package fundamentals

import (
	"sort"
	"strings"
	"time"
)

// ConceptSpec defines how one output metric is resolved from XBRL concepts.
// Candidates are tried in preference order because the same line item appears
// under different tag names across companies and years. Static configuration,
// never mutated.
type ConceptSpec struct {
	Name       string
	Candidates []string
	Unit       string
	PeriodType string // PeriodInstant, PeriodDuration, or "" for any
	Forms      []string
}

// AnnualPoint is one reconciled (fiscal year, value) observation.
type AnnualPoint struct {
	FY            int
	FiscalYearEnd time.Time
	Value         float64
}

// AnnualSeries is the reconciled annual time series for one metric: at most
// one point per fiscal year, sorted by fiscal year ascending. Concept names
// the candidate that ultimately supplied the data, empty when no candidate
// produced any.
type AnnualSeries struct {
	Name    string
	Concept string
	Points  []AnnualPoint
}

// Empty returns true when the series carries no data.
func (s AnnualSeries) Empty() bool {
	return len(s.Points) == 0
}

// prepareBase applies the spec's form, unit, and period-type restrictions.
func prepareBase(facts []Fact, spec ConceptSpec) []Fact {
	base := facts
	if len(spec.Forms) > 0 {
		base = FilterForms(base, spec.Forms)
	}

	out := make([]Fact, 0, len(base))
	for _, f := range base {
		if f.Unit != spec.Unit {
			continue
		}
		if spec.PeriodType != "" && f.PeriodType != spec.PeriodType {
			continue
		}
		out = append(out, f)
	}
	return out
}

// hasAnnualEssentials reports whether a fact carries the fields every annual
// reconciliation step requires.
func hasAnnualEssentials(f Fact) bool {
	return f.FY != 0 && !f.End.IsZero() && f.Value != nil
}

// annualizeDuration keeps only the annual-like duration facts. Filter rules
// in strict preference order, first match applied exclusively:
//
//  1. facts declaring exactly 4 quarters spanned, if any exist;
//  2. else facts tagged with fiscal period "FY", if any exist.
//
// Whichever set results (including the untouched input when neither rule
// matched) is then restricted to spans of 330-400 days, skipped only when no
// surviving fact has a usable start date.
func annualizeDuration(facts []Fact) []Fact {
	if len(facts) == 0 {
		return facts
	}

	out := facts

	var q4 []Fact
	for _, f := range out {
		if f.Qtrs == 4 {
			q4 = append(q4, f)
		}
	}
	if len(q4) > 0 {
		out = q4
	} else {
		var fy []Fact
		for _, f := range out {
			if strings.EqualFold(f.FP, "FY") {
				fy = append(fy, f)
			}
		}
		if len(fy) > 0 {
			out = fy
		}
	}

	hasStart := false
	for _, f := range out {
		if !f.Start.IsZero() {
			hasStart = true
			break
		}
	}
	if !hasStart {
		return out
	}

	nearYear := make([]Fact, 0, len(out))
	for _, f := range out {
		if days := f.SpanDays(); days >= 330 && days <= 400 {
			nearYear = append(nearYear, f)
		}
	}
	return nearYear
}

// yearGap is the absolute difference between a fact's end-date year and its
// declared fiscal year.
func yearGap(f Fact) int {
	gap := f.End.Year() - f.FY
	if gap < 0 {
		gap = -gap
	}
	return gap
}

// betterAnnualRow reports whether a should replace b as the representative
// fact for a fiscal year. The total order, earlier criteria dominating:
//
//  1. smaller |end year - fiscal year|,
//  2. quarters spanned equal to 4,
//  3. longer start-to-end span (instants rank as span -1),
//  4. later filing date,
//  5. later end date.
//
// Fully tied rows keep the incumbent, so selection is stable in input order.
func betterAnnualRow(a, b Fact) bool {
	if ga, gb := yearGap(a), yearGap(b); ga != gb {
		return ga < gb
	}
	if q4a, q4b := a.Qtrs == 4, b.Qtrs == 4; q4a != q4b {
		return q4a
	}
	if sa, sb := a.SpanDays(), b.SpanDays(); sa != sb {
		return sa > sb
	}
	if !a.Filed.Equal(b.Filed) {
		return a.Filed.After(b.Filed)
	}
	return a.End.After(b.End)
}

// selectBestPerFY keeps exactly one fact per fiscal year, chosen by
// betterAnnualRow. Rows missing fiscal year, end date, or value are dropped
// before ranking. Output is sorted by fiscal year ascending.
func selectBestPerFY(facts []Fact) []Fact {
	best := make(map[int]Fact)
	for _, f := range facts {
		if !hasAnnualEssentials(f) {
			continue
		}
		cur, ok := best[f.FY]
		if !ok || betterAnnualRow(f, cur) {
			best[f.FY] = f
		}
	}

	years := make([]int, 0, len(best))
	for fy := range best {
		years = append(years, fy)
	}
	sort.Ints(years)

	out := make([]Fact, 0, len(years))
	for _, fy := range years {
		out = append(out, best[fy])
	}
	return out
}

// extractSeriesForConcept runs annualization and best-row selection for one
// candidate concept, returning at most one fact per fiscal year.
func extractSeriesForConcept(base []Fact, spec ConceptSpec, concept string) []Fact {
	var rows []Fact
	for _, f := range base {
		if f.Concept == concept && hasAnnualEssentials(f) {
			rows = append(rows, f)
		}
	}
	if len(rows) == 0 {
		return nil
	}

	if spec.PeriodType == PeriodDuration {
		rows = annualizeDuration(rows)
	}
	return selectBestPerFY(rows)
}

// seriesScore ranks candidate concepts by freshness of coverage: latest
// fiscal year first, then breadth of coverage, then latest end date.
type seriesScore struct {
	maxFY  int
	years  int
	maxEnd time.Time
}

func scoreSeries(rows []Fact) seriesScore {
	s := seriesScore{years: len(rows)}
	for _, f := range rows {
		if f.FY > s.maxFY {
			s.maxFY = f.FY
		}
		if f.End.After(s.maxEnd) {
			s.maxEnd = f.End
		}
	}
	return s
}

// beats reports whether s is lexicographically greater than o.
func (s seriesScore) beats(o seriesScore) bool {
	if s.maxFY != o.maxFY {
		return s.maxFY > o.maxFY
	}
	if s.years != o.years {
		return s.years > o.years
	}
	return s.maxEnd.After(o.maxEnd)
}

// chooseBestConcept tries each candidate concept in order and keeps the one
// whose series scores highest. Exact score ties keep the earlier candidate.
func chooseBestConcept(base []Fact, spec ConceptSpec) (string, []Fact) {
	var (
		bestConcept string
		bestRows    []Fact
		bestScore   seriesScore
		found       bool
	)

	for _, concept := range spec.Candidates {
		rows := extractSeriesForConcept(base, spec, concept)
		if len(rows) == 0 {
			continue
		}
		score := scoreSeries(rows)
		if !found || score.beats(bestScore) {
			found = true
			bestConcept = concept
			bestRows = rows
			bestScore = score
		}
	}

	return bestConcept, bestRows
}

// ExtractAnnualSeries reconciles one metric into its annual series: apply the
// spec's restrictions, pick the best candidate concept, and keep the most
// recent lastNYears fiscal years (all years when lastNYears <= 0). A metric
// with no usable data yields an empty series with an empty Concept.
func ExtractAnnualSeries(facts []Fact, spec ConceptSpec, lastNYears int) AnnualSeries {
	series := AnnualSeries{Name: spec.Name}

	base := prepareBase(facts, spec)
	concept, rows := chooseBestConcept(base, spec)
	if concept == "" || len(rows) == 0 {
		return series
	}

	if lastNYears > 0 && len(rows) > lastNYears {
		rows = rows[len(rows)-lastNYears:]
	}

	series.Concept = concept
	series.Points = make([]AnnualPoint, 0, len(rows))
	for _, f := range rows {
		series.Points = append(series.Points, AnnualPoint{
			FY:            f.FY,
			FiscalYearEnd: f.End,
			Value:         *f.Value,
		})
	}
	return series
}
