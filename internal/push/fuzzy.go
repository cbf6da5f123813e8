package push

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// fillerWords are colors and marketing filler excluded from the core word
// set. Matching on "black" or "pair" says nothing about product identity.
var fillerWords = map[string]struct{}{
	"black": {}, "white": {}, "silver": {}, "grey": {}, "gray": {},
	"red": {}, "blue": {}, "green": {}, "walnut": {}, "oak": {},
	"the": {}, "and": {}, "with": {}, "for": {}, "per": {},
	"pair": {}, "each": {}, "new": {}, "set": {},
}

var deaccent = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// fold lowercases and strips combining diacritics so "Café" and "cafe"
// compare equal.
func fold(s string) string {
	out, _, err := transform.String(deaccent, strings.ToLower(s))
	if err != nil {
		return strings.ToLower(s)
	}
	return out
}

// tokenize splits a folded name into alphanumeric words.
func tokenize(s string) []string {
	return strings.FieldsFunc(fold(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// coreWords picks up to five meaningful words: length three or more and not
// in the filler list.
func coreWords(tokens []string) []string {
	core := make([]string, 0, 5)
	for _, tok := range tokens {
		if len(tok) < 3 {
			continue
		}
		if _, filler := fillerWords[tok]; filler {
			continue
		}
		core = append(core, tok)
		if len(core) == 5 {
			break
		}
	}
	return core
}

// stem strips common morphological suffixes so "streamer" and "streaming"
// compare equal.
func stem(word string) string {
	for _, suffix := range []string{"ing", "er", "ed"} {
		if trimmed, ok := strings.CutSuffix(word, suffix); ok && len(trimmed) >= 3 {
			return trimmed
		}
	}
	return word
}

func stemSet(tokens []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		set[stem(tok)] = struct{}{}
	}
	return set
}

// fuzzyScore is the tier-3 component breakdown for one candidate.
type fuzzyScore struct {
	Core    float64
	Early   float64
	Brevity float64
	Edit    float64
	Total   float64
}

// scoreNames computes the weighted hybrid score of a candidate name against
// the source name.
func scoreNames(cfg MatcherConfig, source, candidate string) fuzzyScore {
	srcTokens := tokenize(source)
	candTokens := tokenize(candidate)
	core := coreWords(srcTokens)
	if len(core) == 0 || len(candTokens) == 0 {
		return fuzzyScore{}
	}

	candStems := stemSet(candTokens)

	// Early position compares leading core words on both sides, so a name
	// scored against itself is always a full early match regardless of how
	// many core words it carries.
	earlyCand := coreWords(candTokens)
	if len(earlyCand) > 3 {
		earlyCand = earlyCand[:3]
	}
	earlyStems := stemSet(earlyCand)
	earlyCore := core
	if len(earlyCore) > 3 {
		earlyCore = earlyCore[:3]
	}

	var inCore int
	for _, word := range core {
		if _, ok := candStems[stem(word)]; ok {
			inCore++
		}
	}
	var inEarly int
	for _, word := range earlyCore {
		if _, ok := earlyStems[stem(word)]; ok {
			inEarly++
		}
	}

	var score fuzzyScore
	score.Core = float64(inCore) / float64(len(core))
	score.Early = float64(inEarly) / float64(len(earlyCore))
	// Brevity penalizes candidates padded with marketing text, but only
	// once the core identifiers already agree.
	if score.Core > 0.8 {
		score.Brevity = min(float64(len(srcTokens))/float64(len(candTokens)), 1.0)
	}
	score.Edit = editSimilarity(fold(source), fold(candidate))
	score.Total = cfg.CoreWeight*score.Core +
		cfg.EarlyWeight*score.Early +
		cfg.BrevityWeight*score.Brevity +
		cfg.EditWeight*score.Edit
	return score
}

// sharesLongWord is the tier-3 pre-filter: the candidate must share at least
// one word of length four or more with the source.
func sharesLongWord(source, candidate string) bool {
	candSet := make(map[string]struct{})
	for _, tok := range tokenize(candidate) {
		if len(tok) >= 4 {
			candSet[tok] = struct{}{}
		}
	}
	for _, tok := range tokenize(source) {
		if len(tok) < 4 {
			continue
		}
		if _, ok := candSet[tok]; ok {
			return true
		}
	}
	return false
}

// editSimilarity is normalized Levenshtein similarity over full strings.
func editSimilarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	longest := max(len(a), len(b))
	if longest == 0 {
		return 1.0
	}
	return 1.0 - float64(levenshtein(a, b))/float64(longest)
}

func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}
