package fundamentals_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	fundamentals "github.com/RxDataLab/go-fundamentals"
)

func buildFixtureReport(t *testing.T) *fundamentals.Report {
	t.Helper()
	facts := []fundamentals.Fact{
		durFact(t, "Revenues", 2021, "2021-01-01", "2021-12-31", "2022-02-15", 4, 2e9),
		durFact(t, "Revenues", 2022, "2022-01-01", "2022-12-31", "2023-02-15", 4, 3e9),
		durFact(t, "NetIncomeLoss", 2022, "2022-01-01", "2022-12-31", "2023-02-15", 4, 6e8),
		durFact(t, "NetCashProvidedByUsedInOperatingActivities", 2022, "2022-01-01", "2022-12-31", "2023-02-15", 4, 9e8),
		durFact(t, "PaymentsToAcquirePropertyPlantAndEquipment", 2022, "2022-01-01", "2022-12-31", "2023-02-15", 4, 3e8),
	}
	table, concepts, err := fundamentals.BuildAnnualTable(facts, nil, fundamentals.TableConfig{})
	require.NoError(t, err)
	return fundamentals.NewReport("exco", "Example Corp", "0000123456", 5, table, concepts)
}

func TestReportMarkdown(t *testing.T) {
	r := buildFixtureReport(t)
	md := r.Markdown()

	assert.Contains(t, md, "# Example Corp (EXCO) Automated Financial Analysis Report")
	assert.Contains(t, md, "- CIK: `0000123456`")
	assert.Contains(t, md, "- Coverage: last 5 fiscal years")
	assert.Contains(t, md, "## Highlights")
	assert.Contains(t, md, "## Annual Financials Table (USD in billions)")
	assert.Contains(t, md, "## XBRL Concept Map")

	// Latest-year highlights with display scaling applied.
	assert.Contains(t, md, "Latest fiscal year: **FY2022** (ended 2022-12-31)")
	assert.Contains(t, md, "Revenue: **3.0B** (50.0% YoY)")
	assert.Contains(t, md, "Net margin: **20.0%**")
	assert.Contains(t, md, "Free cash flow: **0.6B** (20.0% of revenue)")
	assert.Contains(t, md, "Revenue increased vs prior year.")

	// Table rows carry scaled values and NA for missing cells.
	assert.Contains(t, md, "| 2022 | 2022-12-31 |")
	assert.Contains(t, md, "| 2021 | 2021-12-31 | 2.0 | NA |")

	// Concept map rows.
	assert.Contains(t, md, "| revenue | `Revenues` |")
	assert.Contains(t, md, "| net_income | `NetIncomeLoss` |")
}

func TestReportMarkdown_ConceptMapDisabled(t *testing.T) {
	r := buildFixtureReport(t)
	r.IncludeConceptMap = false
	assert.NotContains(t, r.Markdown(), "## XBRL Concept Map")
}

func TestReportMarkdown_NoData(t *testing.T) {
	r := fundamentals.NewReport("exco", "", "0000123456", 5, &fundamentals.AnnualTable{}, nil)
	md := r.Markdown()

	assert.Contains(t, md, "# EXCO (EXCO)", "ticker stands in for a missing company name")
	assert.Contains(t, md, "- No data available.")
	assert.Contains(t, md, "_No data._")
	assert.NotContains(t, md, "## XBRL Concept Map")
}

func TestReportHTML(t *testing.T) {
	r := buildFixtureReport(t)
	out, err := r.HTML()
	require.NoError(t, err)

	doc, err := html.Parse(bytes.NewReader(out))
	require.NoError(t, err)

	counts := map[string]int{}
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			counts[n.Data]++
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	assert.Equal(t, 1, counts["h1"])
	assert.GreaterOrEqual(t, counts["h2"], 3)
	assert.Equal(t, 2, counts["table"], "financials table plus concept map rendered as HTML tables")
	assert.Greater(t, counts["td"], 10)
}

func TestOrderedReportColumns(t *testing.T) {
	r := buildFixtureReport(t)
	md := r.Markdown()

	headerLine := ""
	for _, line := range strings.Split(md, "\n") {
		if strings.HasPrefix(line, "| fy |") {
			headerLine = line
			break
		}
	}
	require.NotEmpty(t, headerLine, "table header not found")

	// revenue leads the metric columns; derived ratios follow the dollar
	// columns they are computed from.
	revIdx := strings.Index(headerLine, " revenue ")
	fcfIdx := strings.Index(headerLine, " fcf ")
	yoyIdx := strings.Index(headerLine, " revenue_yoy ")
	require.True(t, revIdx >= 0 && fcfIdx >= 0 && yoyIdx >= 0, "header: %s", headerLine)
	assert.Less(t, revIdx, fcfIdx)
	assert.Less(t, fcfIdx, yoyIdx)
}
