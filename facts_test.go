package fundamentals_test

import (
	"strings"
	"testing"

	fundamentals "github.com/RxDataLab/go-fundamentals"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleFactsJSON = `{
  "cik": 320193,
  "entityName": "Example Corp",
  "facts": {
    "us-gaap": {
      "Revenues": {
        "label": "Revenues",
        "description": "Total revenues from all sources.",
        "units": {
          "USD": [
            {"val": 100000000, "start": "2021-01-01", "end": "2021-12-31", "fy": 2021, "fp": "FY", "form": "10-K", "filed": "2022-02-15", "accn": "0001-22-000001", "qtrs": 4},
            {"val": 25000000, "start": "2022-01-01", "end": "2022-03-31", "fy": 2022, "fp": "Q1", "form": "10-Q", "filed": "2022-05-01", "accn": "0001-22-000002", "qtrs": 1},
            {"val": "not-a-number", "end": "2022-12-31", "fy": 2022, "fp": "FY", "form": "10-K", "filed": "bad-date", "accn": "0001-23-000003"}
          ]
        }
      },
      "CashAndCashEquivalentsAtCarryingValue": {
        "label": "Cash and cash equivalents",
        "units": {
          "USD": [
            {"val": 5000000, "end": "2021-12-31", "fy": 2021, "fp": "FY", "form": "10-K", "filed": "2022-02-15", "accn": "0001-22-000001"},
            {"val": 1000000, "end": "2021-12-31", "fy": 2021, "fp": "FY", "form": "10-K", "filed": "2022-02-15", "accn": "0001-22-000001", "dims": {"us-gaap:StatementClassOfStockAxis": "us-gaap:CommonClassAMember"}}
          ]
        }
      }
    }
  }
}`

func parseSample(t *testing.T) *fundamentals.CompanyFacts {
	t.Helper()
	cf, err := fundamentals.ParseCompanyFacts(strings.NewReader(sampleFactsJSON))
	require.NoError(t, err)
	return cf
}

func TestParseCompanyFacts(t *testing.T) {
	cf := parseSample(t)
	assert.Equal(t, "Example Corp", cf.EntityName)
	require.Contains(t, cf.Facts, "us-gaap")
	assert.Len(t, cf.Facts["us-gaap"], 2)
}

func TestParseCompanyFacts_InvalidJSON(t *testing.T) {
	_, err := fundamentals.ParseCompanyFacts(strings.NewReader("{not json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse company facts")
}

func TestNormalize_FlattensStore(t *testing.T) {
	facts := fundamentals.Normalize(parseSample(t), fundamentals.DefaultNormalizeConfig())

	// The dimensioned cash row is dropped by default: 3 revenue rows + 1 cash row.
	require.Len(t, facts, 4)

	// Concepts are visited in sorted order.
	assert.Equal(t, "CashAndCashEquivalentsAtCarryingValue", facts[0].Concept)
	assert.Equal(t, "Revenues", facts[1].Concept)

	rev := facts[1]
	assert.Equal(t, "us-gaap", rev.Taxonomy)
	assert.Equal(t, "Revenues", rev.Label)
	assert.Equal(t, "USD", rev.Unit)
	require.NotNil(t, rev.Value)
	assert.Equal(t, 100000000.0, *rev.Value)
	assert.Equal(t, 2021, rev.FY)
	assert.Equal(t, 4, rev.Qtrs)
	assert.Equal(t, "0001-22-000001", rev.Accn)
	assert.True(t, rev.IsDuration())

	cash := facts[0]
	assert.True(t, cash.IsInstant())
	assert.True(t, cash.Start.IsZero())
	assert.False(t, cash.HasDims)
}

func TestNormalize_LenientParsing(t *testing.T) {
	facts := fundamentals.Normalize(parseSample(t), fundamentals.DefaultNormalizeConfig())

	// The third Revenues row has a non-numeric value and an unparseable
	// filing date: both become missing markers, never errors.
	bad := facts[3]
	assert.Nil(t, bad.Value)
	assert.True(t, bad.Filed.IsZero())
	// No start date makes it an instant fact by derivation.
	assert.Equal(t, fundamentals.PeriodInstant, bad.PeriodType)
}

func TestNormalize_FormAllowList(t *testing.T) {
	cfg := fundamentals.DefaultNormalizeConfig()
	cfg.KeepForms = []string{"10-K"}

	facts := fundamentals.Normalize(parseSample(t), cfg)
	for _, f := range facts {
		assert.Equal(t, "10-K", f.Form)
	}
	assert.Len(t, facts, 3)
}

func TestNormalize_KeepDimensions(t *testing.T) {
	cfg := fundamentals.DefaultNormalizeConfig()
	cfg.KeepDimensions = true

	facts := fundamentals.Normalize(parseSample(t), cfg)
	require.Len(t, facts, 5)

	var dimmed int
	for _, f := range facts {
		if f.HasDims {
			dimmed++
		}
	}
	assert.Equal(t, 1, dimmed)
}

func TestNormalize_EmptyStore(t *testing.T) {
	cfg := fundamentals.DefaultNormalizeConfig()

	for name, cf := range map[string]*fundamentals.CompanyFacts{
		"nil store":        nil,
		"no facts":         {},
		"missing taxonomy": {Facts: map[string]fundamentals.Taxonomy{"ifrs-full": {}}},
	} {
		t.Run(name, func(t *testing.T) {
			facts := fundamentals.Normalize(cf, cfg)
			require.NotNil(t, facts)
			assert.Empty(t, facts)
		})
	}
}

func TestSpanDays(t *testing.T) {
	dur := durFact(t, "Revenues", 2022, "2022-01-01", "2022-12-31", "2023-02-01", 4, 1)
	assert.Equal(t, 364, dur.SpanDays())

	inst := instFact(t, "StockholdersEquity", 2022, "2022-12-31", "2023-02-01", 1)
	assert.Equal(t, -1, inst.SpanDays())
}
