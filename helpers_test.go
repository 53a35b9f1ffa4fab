package fundamentals_test

import (
	"testing"
	"time"

	fundamentals "github.com/RxDataLab/go-fundamentals"
)

// f64 returns a pointer to v for building Fact values.
func f64(v float64) *float64 {
	return &v
}

// date parses a YYYY-MM-DD test date, failing the test on bad input.
func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatalf("bad test date %q: %v", s, err)
	}
	return d
}

// durFact builds a normalized annual-shaped duration fact.
func durFact(t *testing.T, concept string, fy int, start, end, filed string, qtrs int, val float64) fundamentals.Fact {
	t.Helper()
	f := fundamentals.Fact{
		Taxonomy:   "us-gaap",
		Concept:    concept,
		Unit:       "USD",
		Value:      f64(val),
		End:        date(t, end),
		FY:         fy,
		FP:         "FY",
		Form:       "10-K",
		Filed:      date(t, filed),
		Qtrs:       qtrs,
		PeriodType: fundamentals.PeriodDuration,
	}
	if start != "" {
		f.Start = date(t, start)
	}
	return f
}

// instFact builds a normalized instant fact.
func instFact(t *testing.T, concept string, fy int, end, filed string, val float64) fundamentals.Fact {
	t.Helper()
	return fundamentals.Fact{
		Taxonomy:   "us-gaap",
		Concept:    concept,
		Unit:       "USD",
		Value:      f64(val),
		End:        date(t, end),
		FY:         fy,
		FP:         "FY",
		Form:       "10-K",
		Filed:      date(t, filed),
		PeriodType: fundamentals.PeriodInstant,
	}
}
