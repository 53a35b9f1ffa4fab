package fundamentals

import (
	"sort"
	"time"
)

// ChoosePreferredUnit narrows each concept to its single best measurement
// unit. Units are ranked by their position in the preference list (earlier is
// better); facts whose unit is not listed are excluded entirely. Within each
// concept only facts at the minimum observed rank survive, so a concept
// reported in both USD and shares keeps only its USD rows.
func ChoosePreferredUnit(facts []Fact, preferred []string) []Fact {
	if len(facts) == 0 {
		return []Fact{}
	}
	if preferred == nil {
		preferred = []string{"USD", "shares", "pure"}
	}

	rank := make(map[string]int, len(preferred))
	for i, unit := range preferred {
		rank[unit] = i
	}

	bestRank := make(map[string]int)
	for _, f := range facts {
		r, ok := rank[f.Unit]
		if !ok {
			continue
		}
		if cur, seen := bestRank[f.Concept]; !seen || r < cur {
			bestRank[f.Concept] = r
		}
	}

	out := make([]Fact, 0, len(facts))
	for _, f := range facts {
		r, ok := rank[f.Unit]
		if !ok {
			continue
		}
		if r == bestRank[f.Concept] {
			out = append(out, f)
		}
	}
	return out
}

// dedupeKey identifies one logical observation across multiple filings.
type dedupeKey struct {
	concept string
	unit    string
	start   time.Time
	end     time.Time
	fy      int
	fp      string
	form    string
}

func (k dedupeKey) less(o dedupeKey) bool {
	if k.concept != o.concept {
		return k.concept < o.concept
	}
	if k.unit != o.unit {
		return k.unit < o.unit
	}
	if !k.start.Equal(o.start) {
		return k.start.Before(o.start)
	}
	if !k.end.Equal(o.end) {
		return k.end.Before(o.end)
	}
	if k.fy != o.fy {
		return k.fy < o.fy
	}
	if k.fp != o.fp {
		return k.fp < o.fp
	}
	return k.form < o.form
}

func factDedupeKey(f Fact) dedupeKey {
	return dedupeKey{
		concept: f.Concept,
		unit:    f.Unit,
		start:   f.Start,
		end:     f.End,
		fy:      f.FY,
		fp:      f.FP,
		form:    f.Form,
	}
}

// DedupeKeepLatestFiled collapses multiple filings of the same observation
// to the most recently filed one. Facts are grouped by
// (concept, unit, start, end, fy, fp, form); within each group the fact with
// the latest filing date wins. Ties on filing date keep whichever row came
// later in the input, so same-date ties depend on input order.
//
// Output is sorted by the grouping key, so the operation is idempotent:
// applying it twice equals applying it once.
func DedupeKeepLatestFiled(facts []Fact) []Fact {
	if len(facts) == 0 {
		return []Fact{}
	}

	ordered := make([]Fact, len(facts))
	copy(ordered, facts)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Filed.Before(ordered[j].Filed)
	})

	best := make(map[dedupeKey]Fact, len(ordered))
	for _, f := range ordered {
		// Later in filed-ascending order supersedes.
		best[factDedupeKey(f)] = f
	}

	out := make([]Fact, 0, len(best))
	for _, f := range best {
		out = append(out, f)
	}
	// One fact per key survives, so the key order is total here.
	sort.Slice(out, func(i, j int) bool {
		return factDedupeKey(out[i]).less(factDedupeKey(out[j]))
	})
	return out
}

// FilterForms keeps only facts whose source form type is in forms.
func FilterForms(facts []Fact, forms []string) []Fact {
	keep := make(map[string]bool, len(forms))
	for _, form := range forms {
		keep[form] = true
	}

	out := make([]Fact, 0, len(facts))
	for _, f := range facts {
		if keep[f.Form] {
			out = append(out, f)
		}
	}
	return out
}

// ExtractConceptSeries returns all facts for one concept and unit, sorted by
// end date then filing date ascending. Useful for inspecting what a filer
// actually reported before reconciliation.
func ExtractConceptSeries(facts []Fact, concept, unit string) []Fact {
	out := make([]Fact, 0)
	for _, f := range facts {
		if f.Concept == concept && f.Unit == unit {
			out = append(out, f)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].End.Equal(out[j].End) {
			return out[i].End.Before(out[j].End)
		}
		return out[i].Filed.Before(out[j].Filed)
	})
	return out
}

// ConceptSummary reports how many rows and which units exist for a concept.
type ConceptSummary struct {
	Concept string
	Rows    int
	Units   []string
}

// SummarizeConcepts returns the topN concepts by row count, a quick way to
// see what a filer reports and how densely.
func SummarizeConcepts(facts []Fact, topN int) []ConceptSummary {
	rows := make(map[string]int)
	units := make(map[string]map[string]bool)
	for _, f := range facts {
		rows[f.Concept]++
		if units[f.Concept] == nil {
			units[f.Concept] = make(map[string]bool)
		}
		units[f.Concept][f.Unit] = true
	}

	out := make([]ConceptSummary, 0, len(rows))
	for concept, n := range rows {
		out = append(out, ConceptSummary{
			Concept: concept,
			Rows:    n,
			Units:   sortedKeys(units[concept]),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Rows != out[j].Rows {
			return out[i].Rows > out[j].Rows
		}
		return out[i].Concept < out[j].Concept
	})

	if topN > 0 && len(out) > topN {
		out = out[:topN]
	}
	return out
}

// NormalizePipeline runs the full cleanup in one call: flatten the store,
// narrow each concept to its preferred unit, then keep only the latest-filed
// version of each observation.
func NormalizePipeline(cf *CompanyFacts, cfg NormalizeConfig) []Fact {
	facts := Normalize(cf, cfg)
	facts = ChoosePreferredUnit(facts, cfg.PreferredUnits)
	return DedupeKeepLatestFiled(facts)
}
