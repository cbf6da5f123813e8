// Package classify tags unified products with a coarse use case so the
// consultation flow can filter recommendations per customer context.
package classify

import "strings"

// Use-case tags.
const (
	TagResidential       = "residential"
	TagCommercialInstall = "commercial-install"
	TagConferencing      = "conferencing"
	TagClubPA            = "club-pa"
	TagDualPurpose       = "dual-purpose"
	TagVehicleAudio      = "vehicle-audio"
)

// Result is the outcome of classifying one product.
type Result struct {
	Tag string
	// ExcludeFromConsultation is set for vehicle and marine audio gear,
	// which never belongs in a home or venue consultation.
	ExcludeFromConsultation bool
}

// Input carries the product signals the classifier scores.
type Input struct {
	Name        string
	Brand       string
	Category    string
	Description string
}

// Classify resolves a use-case tag. Vehicle audio overrides every other
// signal; after that the first hit wins across the category table, the brand
// table and keyword-frequency scoring, defaulting to residential.
func Classify(in Input) Result {
	text := strings.ToLower(in.Name + " " + in.Category + " " + in.Description)
	brand := strings.ToLower(strings.TrimSpace(in.Brand))
	category := strings.ToLower(in.Category)

	for _, kw := range vehicleKeywords {
		if strings.Contains(text, kw) {
			return Result{Tag: TagVehicleAudio, ExcludeFromConsultation: true}
		}
	}

	for substr, tag := range categoryTags {
		if category != "" && strings.Contains(category, substr) {
			return Result{Tag: tag}
		}
	}

	if tag, ok := brandTags[brand]; ok {
		return Result{Tag: tag}
	}

	if tag := scoreKeywords(text); tag != "" {
		return Result{Tag: tag}
	}

	return Result{Tag: TagResidential}
}

// scoreKeywords counts keyword occurrences per tag and returns the highest
// scoring tag, or empty when nothing scores above zero.
func scoreKeywords(text string) string {
	bestTag := ""
	bestScore := 0
	for _, tag := range scoredTagOrder {
		score := 0
		for _, kw := range tagKeywords[tag] {
			score += strings.Count(text, kw)
		}
		if score > bestScore {
			bestScore = score
			bestTag = tag
		}
	}
	return bestTag
}
