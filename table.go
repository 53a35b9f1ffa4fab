package fundamentals

import (
	"fmt"
	"sort"
	"time"
)

// Derived column names added by BuildAnnualTable.
const (
	ColFCF             = "fcf"
	ColRevenueYoY      = "revenue_yoy"
	ColGrossMargin     = "gross_margin"
	ColOperatingMargin = "operating_margin"
	ColNetMargin       = "net_margin"
	ColFCFMargin       = "fcf_margin"
)

// derivedColumns in output order.
var derivedColumns = []string{
	ColFCF, ColRevenueYoY, ColGrossMargin, ColOperatingMargin, ColNetMargin, ColFCFMargin,
}

// dollarColumns are the absolute-dollar columns scaled by ScaleForDisplay.
// Ratio and percentage columns are never scaled.
var dollarColumns = []string{
	"revenue", "gross_profit", "operating_income", "net_income",
	"cfo", "capex", ColFCF, "cash", "equity",
}

// TableConfig controls table assembly.
type TableConfig struct {
	// LastNYears restricts each metric to its most recent fiscal years.
	// Zero means the default of 5.
	LastNYears int
}

// DefaultTableConfig returns the default table settings.
func DefaultTableConfig() TableConfig {
	return TableConfig{LastNYears: 5}
}

// AnnualRow is one fiscal year of the table. Values holds metric and derived
// columns by name; a missing key means the metric has no value for that year
// (never zero-filled, never interpolated).
type AnnualRow struct {
	FY            int
	FiscalYearEnd time.Time
	Values        map[string]float64
}

// Value returns the named column and whether it is present.
func (r AnnualRow) Value(col string) (float64, bool) {
	v, ok := r.Values[col]
	return v, ok
}

// AnnualTable is the wide fiscal-year-indexed result: one row per fiscal year
// covered by any metric, sorted ascending. Columns lists metric columns (in
// spec order, only those with data) followed by the derived columns. Built
// once per run and immutable thereafter.
type AnnualTable struct {
	Columns []string
	Rows    []AnnualRow
}

// Empty returns true when the table has no rows.
func (t *AnnualTable) Empty() bool {
	return t == nil || len(t.Rows) == 0
}

// validateNormalized enforces the single structural precondition: every fact
// must carry the fields only the Normalizer sets. A violation means the
// Normalizer was bypassed and reconciliation cannot proceed.
func validateNormalized(facts []Fact) error {
	for i, f := range facts {
		switch {
		case f.Concept == "":
			return fmt.Errorf("fact %d: missing concept; input must come from Normalize", i)
		case f.Unit == "":
			return fmt.Errorf("fact %d: missing unit; input must come from Normalize", i)
		case f.PeriodType != PeriodInstant && f.PeriodType != PeriodDuration:
			return fmt.Errorf("fact %d: missing period type; input must come from Normalize", i)
		}
	}
	return nil
}

// BuildAnnualTable runs the reconciliation engine once per spec and assembles
// the annual table plus the mapping from metric name to the concept that
// ultimately supplied it (empty string when no candidate produced data).
//
// Malformed per-row data degrades to missing values; the only error is the
// structural precondition on the input facts. Nil specs use DefaultSpecs.
func BuildAnnualTable(facts []Fact, specs []ConceptSpec, cfg TableConfig) (*AnnualTable, map[string]string, error) {
	if err := validateNormalized(facts); err != nil {
		return nil, nil, err
	}
	if specs == nil {
		specs = DefaultSpecs()
	}
	lastN := cfg.LastNYears
	if lastN == 0 {
		lastN = 5
	}

	conceptMap := make(map[string]string, len(specs))
	var all []AnnualSeries
	for _, spec := range specs {
		s := ExtractAnnualSeries(facts, spec, lastN)
		conceptMap[spec.Name] = s.Concept
		if !s.Empty() {
			all = append(all, s)
		}
	}
	if len(all) == 0 {
		return &AnnualTable{}, conceptMap, nil
	}

	// Union of fiscal years across every series.
	rowByFY := make(map[int]*AnnualRow)
	for _, s := range all {
		for _, p := range s.Points {
			row, ok := rowByFY[p.FY]
			if !ok {
				row = &AnnualRow{FY: p.FY, Values: make(map[string]float64)}
				rowByFY[p.FY] = row
			}
			row.Values[s.Name] = p.Value
			// Fiscal year end is the latest end date seen for the year.
			if p.FiscalYearEnd.After(row.FiscalYearEnd) {
				row.FiscalYearEnd = p.FiscalYearEnd
			}
		}
	}

	years := make([]int, 0, len(rowByFY))
	for fy := range rowByFY {
		years = append(years, fy)
	}
	sort.Ints(years)

	table := &AnnualTable{Rows: make([]AnnualRow, 0, len(years))}
	for _, fy := range years {
		table.Rows = append(table.Rows, *rowByFY[fy])
	}

	for _, s := range all {
		table.Columns = append(table.Columns, s.Name)
	}
	table.Columns = append(table.Columns, derivedColumns...)

	addDerivedColumns(table)
	return table, conceptMap, nil
}

// addDerivedColumns computes fcf, revenue growth, and the margin columns.
// Each is set only when every required input exists for the row.
func addDerivedColumns(t *AnnualTable) {
	for i := range t.Rows {
		row := &t.Rows[i]

		if cfo, ok := row.Value("cfo"); ok {
			if capex, ok := row.Value("capex"); ok {
				row.Values[ColFCF] = cfo - capex
			}
		}

		// Year-over-year growth compares against the previous table row,
		// so it is absent for the first row.
		if i > 0 {
			if rev, ok := row.Value("revenue"); ok {
				if prev, ok := t.Rows[i-1].Value("revenue"); ok && prev != 0 {
					row.Values[ColRevenueYoY] = rev/prev - 1
				}
			}
		}

		if rev, ok := row.Value("revenue"); ok && rev != 0 {
			if gp, ok := row.Value("gross_profit"); ok {
				row.Values[ColGrossMargin] = gp / rev
			}
			if oi, ok := row.Value("operating_income"); ok {
				row.Values[ColOperatingMargin] = oi / rev
			}
			if ni, ok := row.Value("net_income"); ok {
				row.Values[ColNetMargin] = ni / rev
			}
			if fcf, ok := row.Value(ColFCF); ok {
				row.Values[ColFCFMargin] = fcf / rev
			}
		}
	}
}

// ScaleForDisplay returns a copy of the table with absolute-dollar columns
// divided by 1e9 (billions) for human presentation. Ratio and percentage
// columns pass through untouched. The input table is not modified.
func ScaleForDisplay(t *AnnualTable) *AnnualTable {
	if t == nil {
		return &AnnualTable{}
	}
	if len(t.Rows) == 0 {
		return &AnnualTable{Columns: append([]string(nil), t.Columns...)}
	}

	scale := make(map[string]bool, len(dollarColumns))
	for _, col := range dollarColumns {
		scale[col] = true
	}

	out := &AnnualTable{
		Columns: append([]string(nil), t.Columns...),
		Rows:    make([]AnnualRow, len(t.Rows)),
	}
	for i, row := range t.Rows {
		scaled := AnnualRow{
			FY:            row.FY,
			FiscalYearEnd: row.FiscalYearEnd,
			Values:        make(map[string]float64, len(row.Values)),
		}
		for col, v := range row.Values {
			if scale[col] {
				v /= 1e9
			}
			scaled.Values[col] = v
		}
		out.Rows[i] = scaled
	}
	return out
}
