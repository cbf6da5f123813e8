package catalog

import "time"

// Product is the canonical cross-supplier record every connector transforms
// into. Products are never hard-deleted, only deactivated.
type Product struct {
	ID                      int64
	ProductName             string
	SKU                     string
	Model                   string
	Brand                   string
	CategoryName            string
	Description             string
	CostPrice               float64
	RetailPrice             float64
	SellingPrice            float64
	MarginPercentage        float64
	Stock                   map[string]int
	TotalStock              int
	Images                  []string
	Specifications          map[string]string
	SupplierID              int64
	SupplierSKU             string
	Active                  bool
	UseCase                 string
	ExcludeFromConsultation bool
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

// SourceRecord is the neutral shape connectors hand to the transformer.
type SourceRecord struct {
	Name        string
	SKU         string
	SupplierSKU string
	Model       string
	Brand       string
	Category    string
	Description string
	CostPrice   float64
	// Stock per warehouse. Nil for sources that only expose an
	// availability flag.
	Stock map[string]int
	// Availability substitutes for numeric stock on scrape sources.
	Availability   *bool
	Images         []string
	Specifications map[string]string
}
