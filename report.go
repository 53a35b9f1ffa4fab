package fundamentals

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// reportColumns is the preferred column order for the report table. Columns
// absent from the table are skipped; extra columns are appended at the end.
var reportColumns = []string{
	"revenue", "gross_profit", "operating_income", "net_income",
	"cfo", "capex", ColFCF,
	ColRevenueYoY, ColGrossMargin, ColOperatingMargin, ColNetMargin, ColFCFMargin,
	"cash", "equity",
}

// percentColumns are rendered as percentages in the report.
var percentColumns = map[string]bool{
	ColRevenueYoY:      true,
	ColGrossMargin:     true,
	ColOperatingMargin: true,
	ColNetMargin:       true,
	ColFCFMargin:       true,
}

// Report holds everything needed to render an annual financials report for
// one company.
type Report struct {
	Ticker      string
	CompanyName string
	CIK         string
	Years       int
	Generated   time.Time

	// Table is the unscaled annual table; Display is the same table with
	// dollar columns scaled to billions for presentation.
	Table      *AnnualTable
	Display    *AnnualTable
	ConceptMap map[string]string

	// IncludeConceptMap controls the concept map section of the report.
	IncludeConceptMap bool
}

// NewReport assembles a report from the pipeline's output.
func NewReport(ticker, companyName, cik string, years int, table *AnnualTable, conceptMap map[string]string) *Report {
	return &Report{
		Ticker:            strings.ToUpper(strings.TrimSpace(ticker)),
		CompanyName:       companyName,
		CIK:               cik,
		Years:             years,
		Generated:         time.Now(),
		Table:             table,
		Display:           ScaleForDisplay(table),
		ConceptMap:        conceptMap,
		IncludeConceptMap: true,
	}
}

// Markdown renders the report as GitHub-flavored Markdown.
func (r *Report) Markdown() string {
	var b strings.Builder

	name := r.CompanyName
	if name == "" {
		name = r.Ticker
	}
	fmt.Fprintf(&b, "# %s (%s) Automated Financial Analysis Report\n\n", name, r.Ticker)
	fmt.Fprintf(&b, "- CIK: `%s`\n", r.CIK)
	fmt.Fprintf(&b, "- Generated: %s\n", r.Generated.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "- Coverage: last %d fiscal years\n\n", r.Years)

	b.WriteString("## Highlights\n")
	b.WriteString(r.highlights())
	b.WriteString("\n\n")

	b.WriteString("## Annual Financials Table (USD in billions)\n")
	b.WriteString(r.markdownTable())
	b.WriteString("\n")

	if r.IncludeConceptMap && len(r.ConceptMap) > 0 {
		b.WriteString("\n## XBRL Concept Map\n\n")
		b.WriteString("| Metric | XBRL Concept |\n|---|---|\n")
		for _, name := range sortedKeys(r.ConceptMap) {
			fmt.Fprintf(&b, "| %s | `%s` |\n", name, r.ConceptMap[name])
		}
	}

	return b.String()
}

// HTML renders the Markdown report to HTML using goldmark with GFM tables.
func (r *Report) HTML() ([]byte, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	var buf bytes.Buffer
	if err := md.Convert([]byte(r.Markdown()), &buf); err != nil {
		return nil, fmt.Errorf("failed to render report HTML: %w", err)
	}
	return buf.Bytes(), nil
}

// highlights summarizes the latest fiscal year in a few bullet lines.
func (r *Report) highlights() string {
	if r.Display.Empty() {
		return "- No data available."
	}

	latest := r.Display.Rows[len(r.Display.Rows)-1]
	var lines []string

	lines = append(lines, fmt.Sprintf("- Latest fiscal year: **FY%d** (ended %s).",
		latest.FY, fmtDate(latest.FiscalYearEnd)))

	if rev, ok := latest.Value("revenue"); ok {
		if yoy, ok := latest.Value(ColRevenueYoY); ok {
			lines = append(lines, fmt.Sprintf("- Revenue: **%sB** (%s YoY).", fmtNum(rev), fmtPct(yoy)))
		} else {
			lines = append(lines, fmt.Sprintf("- Revenue: **%sB**.", fmtNum(rev)))
		}
	}
	if gm, ok := latest.Value(ColGrossMargin); ok {
		lines = append(lines, fmt.Sprintf("- Gross margin: **%s**.", fmtPct(gm)))
	}
	if om, ok := latest.Value(ColOperatingMargin); ok {
		lines = append(lines, fmt.Sprintf("- Operating margin: **%s**.", fmtPct(om)))
	}
	if nm, ok := latest.Value(ColNetMargin); ok {
		lines = append(lines, fmt.Sprintf("- Net margin: **%s**.", fmtPct(nm)))
	}
	if fcf, ok := latest.Value(ColFCF); ok {
		if fcfm, ok := latest.Value(ColFCFMargin); ok {
			lines = append(lines, fmt.Sprintf("- Free cash flow: **%sB** (%s of revenue).", fmtNum(fcf), fmtPct(fcfm)))
		} else {
			lines = append(lines, fmt.Sprintf("- Free cash flow: **%sB**.", fmtNum(fcf)))
		}
	}

	if len(r.Display.Rows) >= 2 {
		prev := r.Display.Rows[len(r.Display.Rows)-2]
		rev, okLatest := latest.Value("revenue")
		prevRev, okPrev := prev.Value("revenue")
		if okLatest && okPrev {
			switch {
			case rev > prevRev:
				lines = append(lines, "- Revenue increased vs prior year.")
			case rev < prevRev:
				lines = append(lines, "- Revenue decreased vs prior year.")
			default:
				lines = append(lines, "- Revenue was flat vs prior year.")
			}
		}
	}

	return strings.Join(lines, "\n")
}

// markdownTable renders the display table as a Markdown table.
func (r *Report) markdownTable() string {
	if r.Display.Empty() {
		return "_No data._\n"
	}

	cols := orderedColumns(r.Display.Columns)
	header := append([]string{"fy", "fiscal_year_end"}, cols...)

	var b strings.Builder
	b.WriteString("| " + strings.Join(header, " | ") + " |\n")
	b.WriteString("|" + strings.Repeat("---|", len(header)) + "\n")

	for _, row := range r.Display.Rows {
		cells := []string{fmt.Sprintf("%d", row.FY), fmtDate(row.FiscalYearEnd)}
		for _, col := range cols {
			v, ok := row.Value(col)
			switch {
			case !ok:
				cells = append(cells, "NA")
			case percentColumns[col]:
				cells = append(cells, fmtPct(v))
			default:
				cells = append(cells, fmtNum(v))
			}
		}
		b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
	return b.String()
}

// orderedColumns arranges table columns in the preferred report order,
// appending any columns the preference list does not know about.
func orderedColumns(columns []string) []string {
	present := make(map[string]bool, len(columns))
	for _, col := range columns {
		present[col] = true
	}

	ordered := make([]string, 0, len(columns))
	for _, col := range reportColumns {
		if present[col] {
			ordered = append(ordered, col)
			present[col] = false
		}
	}

	var extra []string
	for _, col := range columns {
		if present[col] {
			extra = append(extra, col)
			present[col] = false
		}
	}
	sort.Strings(extra)
	return append(ordered, extra...)
}

// fmtPct formats a ratio as a percentage with one decimal place.
func fmtPct(v float64) string {
	return fmt.Sprintf("%.1f%%", v*100)
}

// fmtNum formats a number with one decimal place.
func fmtNum(v float64) string {
	return fmt.Sprintf("%.1f", v)
}

// fmtDate formats a date as YYYY-MM-DD, "NA" for the zero time.
func fmtDate(t time.Time) string {
	if t.IsZero() {
		return "NA"
	}
	return t.Format(dateLayout)
}
