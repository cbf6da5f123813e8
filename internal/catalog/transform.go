package catalog

import (
	"errors"
	"strings"

	"github.com/soundbridge-av/soundbridge/internal/classify"
	"github.com/soundbridge-av/soundbridge/internal/pricing"
	"github.com/soundbridge-av/soundbridge/internal/shared"
)

// Transformer assembles canonical products from raw source records, applying
// the supplier's pricing rule and the use-case classifier.
type Transformer struct {
	rule pricing.Rule
}

// NewTransformer builds a transformer for one supplier slug.
func NewTransformer(supplier string) *Transformer {
	return &Transformer{rule: pricing.RuleFor(supplier)}
}

// Transform validates and maps one source record. A missing SKU or name is a
// TransformError; the caller skips the record and continues the batch.
func (t *Transformer) Transform(supplierID int64, rec SourceRecord) (Product, error) {
	sku := strings.TrimSpace(rec.SKU)
	name := strings.TrimSpace(rec.Name)
	if sku == "" {
		return Product{}, &shared.TransformError{SKU: rec.SupplierSKU, Err: errors.New("missing sku")}
	}
	if name == "" {
		return Product{}, &shared.TransformError{SKU: sku, Err: errors.New("missing product name")}
	}
	if rec.CostPrice < 0 {
		return Product{}, &shared.TransformError{SKU: sku, Err: errors.New("negative cost price")}
	}

	brand := strings.TrimSpace(rec.Brand)
	if brand == "" {
		brand = inferBrand(name)
	}
	category := strings.TrimSpace(rec.Category)
	if category == "" {
		category = inferCategory(name + " " + rec.Description)
	}

	total := 0
	for _, qty := range rec.Stock {
		if qty > 0 {
			total += qty
		}
	}
	active := total > 0
	if rec.Availability != nil {
		active = *rec.Availability
	}

	selling := t.rule.SellingPrice(rec.CostPrice)
	cls := classify.Classify(classify.Input{
		Name:        name,
		Brand:       brand,
		Category:    category,
		Description: rec.Description,
	})

	supplierSKU := rec.SupplierSKU
	if supplierSKU == "" {
		supplierSKU = sku
	}

	return Product{
		ProductName:             name,
		SKU:                     sku,
		Model:                   strings.TrimSpace(rec.Model),
		Brand:                   brand,
		CategoryName:            category,
		Description:             rec.Description,
		CostPrice:               rec.CostPrice,
		RetailPrice:             t.rule.RetailPrice(rec.CostPrice),
		SellingPrice:            selling,
		MarginPercentage:        pricing.MarginPercentage(rec.CostPrice, selling),
		Stock:                   rec.Stock,
		TotalStock:              total,
		Images:                  rec.Images,
		Specifications:          rec.Specifications,
		SupplierID:              supplierID,
		SupplierSKU:             supplierSKU,
		Active:                  active,
		UseCase:                 cls.Tag,
		ExcludeFromConsultation: cls.ExcludeFromConsultation,
	}, nil
}

func inferBrand(name string) string {
	lower := strings.ToLower(name)
	for _, brand := range knownBrands {
		if strings.HasPrefix(lower, strings.ToLower(brand)+" ") || strings.Contains(lower, " "+strings.ToLower(brand)+" ") {
			return brand
		}
	}
	return ""
}

func inferCategory(text string) string {
	lower := strings.ToLower(text)
	for _, entry := range categoryKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				return entry.category
			}
		}
	}
	return "Uncategorised"
}
