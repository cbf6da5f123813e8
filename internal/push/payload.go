package push

import (
	"strings"

	"github.com/soundbridge-av/soundbridge/internal/catalog"
)

// BuildPayload maps a canonical product to the storefront creation body.
// The name is brand-prefixed for searchability and truncated to the
// storefront's field limit.
func BuildPayload(p catalog.Product) CreationPayload {
	return CreationPayload{
		Name:           listingName(p),
		SKU:            p.SKU,
		Model:          p.Model,
		Description:    p.Description,
		Price:          p.SellingPrice,
		CategoryID:     categoryID(p.CategoryName),
		ManufacturerID: manufacturerID(p.Brand),
		Images:         p.Images,
	}
}

func listingName(p catalog.Product) string {
	name := strings.TrimSpace(p.ProductName)
	brand := strings.TrimSpace(p.Brand)
	if brand != "" && !strings.Contains(fold(name), fold(brand)) {
		name = brand + " " + name
	}
	if len(name) > storefrontNameLimit {
		name = strings.TrimSpace(name[:storefrontNameLimit])
	}
	return name
}

func categoryID(category string) string {
	key := strings.ToLower(strings.TrimSpace(category))
	if id, ok := categoryIDs[key]; ok {
		return id
	}
	return defaultCategoryID
}

func manufacturerID(brand string) string {
	key := strings.ToLower(strings.TrimSpace(brand))
	if id, ok := manufacturerIDs[key]; ok {
		return id
	}
	return unassignedManufacturer
}
