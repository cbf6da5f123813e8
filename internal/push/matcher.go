package push

import (
	"sort"
	"strings"

	"github.com/soundbridge-av/soundbridge/internal/catalog"
)

// Match tiers, in strict priority order. First hit wins. The semantic tier
// is the optional completion-service fallback consulted only when the fuzzy
// tier is ambiguous.
const (
	TierExactSKU   = 1
	TierModelBrand = 2
	TierFuzzy      = 3
	TierSemantic   = 4
)

// MatcherConfig carries the fuzzy weights and acceptance threshold. The
// defaults were chosen empirically; treat them as tuning knobs, not
// invariants.
type MatcherConfig struct {
	CoreWeight    float64
	EarlyWeight   float64
	BrevityWeight float64
	EditWeight    float64
	// AcceptThreshold is the minimum total fuzzy score for a tier-3 match.
	AcceptThreshold float64
	// ShortlistFloor is the minimum score for a candidate to enter the
	// semantic-fallback shortlist.
	ShortlistFloor float64
	ShortlistSize  int
}

// DefaultMatcherConfig returns the production weights.
func DefaultMatcherConfig() MatcherConfig {
	return MatcherConfig{
		CoreWeight:      0.50,
		EarlyWeight:     0.20,
		BrevityWeight:   0.15,
		EditWeight:      0.15,
		AcceptThreshold: 0.55,
		ShortlistFloor:  0.40,
		ShortlistSize:   3,
	}
}

// Match is one accepted pairing of a catalog product with a downstream
// listing.
type Match struct {
	Listing    Listing
	Tier       int
	Confidence float64
}

// Matcher decides whether a catalog product already exists downstream.
type Matcher struct {
	cfg MatcherConfig
}

// NewMatcher builds a matcher; zero-valued config fields fall back to the
// defaults.
func NewMatcher(cfg MatcherConfig) *Matcher {
	def := DefaultMatcherConfig()
	if cfg.CoreWeight == 0 && cfg.EarlyWeight == 0 && cfg.BrevityWeight == 0 && cfg.EditWeight == 0 {
		cfg.CoreWeight, cfg.EarlyWeight, cfg.BrevityWeight, cfg.EditWeight = def.CoreWeight, def.EarlyWeight, def.BrevityWeight, def.EditWeight
	}
	if cfg.AcceptThreshold == 0 {
		cfg.AcceptThreshold = def.AcceptThreshold
	}
	if cfg.ShortlistFloor == 0 {
		cfg.ShortlistFloor = def.ShortlistFloor
	}
	if cfg.ShortlistSize == 0 {
		cfg.ShortlistSize = def.ShortlistSize
	}
	return &Matcher{cfg: cfg}
}

// Match evaluates the tiers in order against the downstream listings. It
// returns the accepted match, or nil plus a shortlist of near-miss
// candidates for the optional semantic fallback.
func (m *Matcher) Match(p catalog.Product, listings []Listing) (*Match, []Listing) {
	// Tier 1: case-insensitive exact SKU.
	for _, l := range listings {
		if l.SKU != "" && strings.EqualFold(l.SKU, p.SKU) {
			return &Match{Listing: l, Tier: TierExactSKU, Confidence: 1.0}, nil
		}
	}

	// Tier 2: downstream model contains the source model and downstream
	// name contains the source brand.
	if p.Model != "" && p.Brand != "" {
		model, brand := fold(p.Model), fold(p.Brand)
		for _, l := range listings {
			if l.Model != "" && strings.Contains(fold(l.Model), model) && strings.Contains(fold(l.Name), brand) {
				return &Match{Listing: l, Tier: TierModelBrand, Confidence: 0.9}, nil
			}
		}
	}

	// Tier 3: weighted fuzzy over pre-filtered candidates.
	type scored struct {
		listing Listing
		total   float64
	}
	var candidates []scored
	for _, l := range listings {
		if !sharesLongWord(p.ProductName, l.Name) {
			continue
		}
		score := scoreNames(m.cfg, p.ProductName, l.Name)
		if score.Total >= m.cfg.ShortlistFloor {
			candidates = append(candidates, scored{listing: l, total: score.Total})
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].total > candidates[j].total
	})

	if best := candidates[0]; best.total >= m.cfg.AcceptThreshold {
		return &Match{Listing: best.listing, Tier: TierFuzzy, Confidence: best.total}, nil
	}

	shortlist := make([]Listing, 0, m.cfg.ShortlistSize)
	for _, c := range candidates {
		shortlist = append(shortlist, c.listing)
		if len(shortlist) == m.cfg.ShortlistSize {
			break
		}
	}
	return nil, shortlist
}
