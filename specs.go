package fundamentals

// DefaultSpecs returns the eight default metric definitions covering revenue,
// profitability, cash flow, and balance sheet basics from annual filings.
// A fresh slice is returned on every call so callers can modify their copy
// without aliasing anyone else's.
func DefaultSpecs() []ConceptSpec {
	// Each spec gets its own slice so editing one spec's Forms cannot
	// leak into another.
	annual := func() []string { return []string{"10-K"} }
	return []ConceptSpec{
		{
			Name: "revenue",
			Candidates: []string{
				"RevenueFromContractWithCustomerExcludingAssessedTax",
				"Revenues",
				"SalesRevenueNet",
			},
			Unit:       "USD",
			PeriodType: PeriodDuration,
			Forms:      annual(),
		},
		{
			Name:       "gross_profit",
			Candidates: []string{"GrossProfit"},
			Unit:       "USD",
			PeriodType: PeriodDuration,
			Forms:      annual(),
		},
		{
			Name:       "operating_income",
			Candidates: []string{"OperatingIncomeLoss"},
			Unit:       "USD",
			PeriodType: PeriodDuration,
			Forms:      annual(),
		},
		{
			Name:       "net_income",
			Candidates: []string{"NetIncomeLoss"},
			Unit:       "USD",
			PeriodType: PeriodDuration,
			Forms:      annual(),
		},
		{
			Name: "cfo",
			Candidates: []string{
				"NetCashProvidedByUsedInOperatingActivities",
				"NetCashProvidedByUsedInOperatingActivitiesContinuingOperations",
			},
			Unit:       "USD",
			PeriodType: PeriodDuration,
			Forms:      annual(),
		},
		{
			Name: "capex",
			Candidates: []string{
				"PaymentsToAcquirePropertyPlantAndEquipment",
				"PaymentsToAcquireProductiveAssets",
			},
			Unit:       "USD",
			PeriodType: PeriodDuration,
			Forms:      annual(),
		},
		{
			Name:       "cash",
			Candidates: []string{"CashAndCashEquivalentsAtCarryingValue"},
			Unit:       "USD",
			PeriodType: PeriodInstant,
			Forms:      annual(),
		},
		{
			Name:       "equity",
			Candidates: []string{"StockholdersEquity"},
			Unit:       "USD",
			PeriodType: PeriodInstant,
			Forms:      annual(),
		},
	}
}
