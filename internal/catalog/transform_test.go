package catalog

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/soundbridge-av/soundbridge/internal/classify"
	"github.com/soundbridge-av/soundbridge/internal/shared"
)

func TestTransformBuildsCanonicalProduct(t *testing.T) {
	tr := NewTransformer("avitech")

	p, err := tr.Transform(1, SourceRecord{
		Name:      "WiiM Pro Streamer",
		SKU:       "WIIM-PRO",
		Model:     "Pro",
		Brand:     "WiiM",
		Category:  "Streamers",
		CostPrice: 100,
		Stock:     map[string]int{"utrecht": 4, "antwerp": 0},
	})
	require.NoError(t, err)

	require.Equal(t, int64(1), p.SupplierID)
	require.Equal(t, "WIIM-PRO", p.SupplierSKU)
	require.Equal(t, 4, p.TotalStock)
	require.True(t, p.Active)
	require.InDelta(t, 157.30, p.SellingPrice, 0.001)
	require.Greater(t, p.SellingPrice, p.CostPrice)
	require.Greater(t, p.MarginPercentage, 0.0)
	require.Equal(t, classify.TagResidential, p.UseCase)
}

func TestTransformActiveFollowsStock(t *testing.T) {
	tr := NewTransformer("avitech")

	p, err := tr.Transform(1, SourceRecord{
		Name:      "Dust cover",
		SKU:       "DC-1",
		CostPrice: 5,
		Stock:     map[string]int{"utrecht": 0},
	})
	require.NoError(t, err)
	require.False(t, p.Active)
	require.Equal(t, 0, p.TotalStock)
}

func TestTransformAvailabilityFlagOverridesStock(t *testing.T) {
	tr := NewTransformer("hifistudio")
	avail := true

	p, err := tr.Transform(3, SourceRecord{
		Name:         "KEF LS50 Meta",
		SKU:          "LS50M",
		CostPrice:    700,
		Availability: &avail,
	})
	require.NoError(t, err)
	require.True(t, p.Active, "availability flag substitutes for numeric stock")
	require.Equal(t, 0, p.TotalStock)
}

func TestTransformRejectsMalformedRecords(t *testing.T) {
	tr := NewTransformer("soundwave")

	var terr *shared.TransformError

	_, err := tr.Transform(2, SourceRecord{Name: "No SKU"})
	require.ErrorAs(t, err, &terr)

	_, err = tr.Transform(2, SourceRecord{SKU: "X-1"})
	require.ErrorAs(t, err, &terr)

	_, err = tr.Transform(2, SourceRecord{SKU: "X-1", Name: "Neg", CostPrice: -1})
	require.ErrorAs(t, err, &terr)
}

func TestTransformInfersBrandAndCategory(t *testing.T) {
	tr := NewTransformer("hifistudio")
	avail := true

	p, err := tr.Transform(3, SourceRecord{
		Name:         "Cambridge Audio CXN100 network player",
		SKU:          "CXN100",
		CostPrice:    500,
		Availability: &avail,
	})
	require.NoError(t, err)
	require.Equal(t, "Cambridge Audio", p.Brand)
	require.Equal(t, "Streamers", p.CategoryName)
}
