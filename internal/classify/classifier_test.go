package classify

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVehicleAudioAlwaysWins(t *testing.T) {
	// Category and brand both point at residential, the vehicle keyword
	// must still win and exclude the product.
	res := Classify(Input{
		Name:     "Sonos style car speaker set",
		Brand:    "sonos",
		Category: "Soundbar",
	})
	require.Equal(t, TagVehicleAudio, res.Tag)
	require.True(t, res.ExcludeFromConsultation)
}

func TestCategoryTableBeforeBrand(t *testing.T) {
	res := Classify(Input{
		Name:     "CS55 loudspeaker",
		Brand:    "jabra",
		Category: "Ceiling Speakers 100V",
	})
	require.Equal(t, TagCommercialInstall, res.Tag)
	require.False(t, res.ExcludeFromConsultation)
}

func TestBrandTable(t *testing.T) {
	res := Classify(Input{Name: "PanaCast 50", Brand: "Jabra"})
	require.Equal(t, TagConferencing, res.Tag)
}

func TestKeywordScoring(t *testing.T) {
	res := Classify(Input{
		Name:        "XD-12 active loudspeaker",
		Brand:       "unknown",
		Description: "Designed for live sound, stage monitoring and club installs with DJ booths.",
	})
	require.Equal(t, TagClubPA, res.Tag)
}

func TestDefaultsToResidential(t *testing.T) {
	res := Classify(Input{Name: "XQ-1", Brand: "nobody"})
	require.Equal(t, TagResidential, res.Tag)
	require.False(t, res.ExcludeFromConsultation)
}
