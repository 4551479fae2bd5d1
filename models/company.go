package models

// CompanyEntities holds entities extracted from a company's filings
type CompanyEntities struct {
	Countries []string `json:"countries"`
}

// CompanyMetadata describes how exposed a company's business is, independent
// of any particular piece of legislation. All fields are optional; the
// sensitivity model substitutes documented defaults for anything missing
// (margin sensitivity 0.2, supply chain dependency 0.0, legal exposure 0.0).
type CompanyMetadata struct {
	CompanyName string `json:"company_name,omitempty"`
	Sector      string `json:"sector,omitempty"`
	Industry    string `json:"industry,omitempty"`

	// Revenue split by region, paired with the regions the legislation
	// affects. Both must be present for the regional exposure estimate.
	RevenueByRegion map[string]float64 `json:"revenue_by_region,omitempty"`
	AffectedRegions []string           `json:"affected_regions,omitempty"`

	// Pointer fields distinguish "not provided" from an explicit zero.
	MarginSensitivity     *float64 `json:"margin_sensitivity,omitempty"`      // 0-1
	SupplyChainDependency *float64 `json:"supply_chain_dependency,omitempty"` // 0-1
	LegalExposure         *float64 `json:"legal_exposure,omitempty"`          // 0-1

	MarketCap float64         `json:"market_cap,omitempty"`
	Entities  CompanyEntities `json:"entities,omitempty"`
}
