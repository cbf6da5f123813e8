package push

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/soundbridge-av/soundbridge/internal/catalog"
)

func TestBuildPayloadPrefixesBrand(t *testing.T) {
	payload := BuildPayload(catalog.Product{
		ProductName:  "LS50 Meta",
		Brand:        "KEF",
		SKU:          "KEF-LS50M",
		SellingPrice: 1099.0,
		CategoryName: "Speakers",
	})
	require.Equal(t, "KEF LS50 Meta", payload.Name)
	require.Equal(t, "cat-speakers", payload.CategoryID)
	require.Equal(t, "man-kef", payload.ManufacturerID)
	require.Equal(t, 1099.0, payload.Price)
}

func TestBuildPayloadDoesNotDoublePrefix(t *testing.T) {
	payload := BuildPayload(catalog.Product{
		ProductName: "KEF LS50 Meta",
		Brand:       "KEF",
	})
	require.Equal(t, "KEF LS50 Meta", payload.Name)
}

func TestBuildPayloadTruncatesToFieldLimit(t *testing.T) {
	payload := BuildPayload(catalog.Product{
		ProductName: strings.Repeat("Very Long Product Name ", 10),
		Brand:       "KEF",
	})
	require.LessOrEqual(t, len(payload.Name), storefrontNameLimit)
	require.True(t, strings.HasPrefix(payload.Name, "KEF "))
}

func TestBuildPayloadDefaultsUnknownLookups(t *testing.T) {
	payload := BuildPayload(catalog.Product{
		ProductName:  "Mystery Gadget",
		Brand:        "NoName Audio",
		CategoryName: "Widgets",
	})
	require.Equal(t, defaultCategoryID, payload.CategoryID)
	require.Equal(t, unassignedManufacturer, payload.ManufacturerID)
}
