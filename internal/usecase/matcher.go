package usecase

import (
	"log"
	"strings"

	"github.com/orderdesk/backend/internal/domain"
)

// Similarity-stage thresholds
const (
	simRatioFloor  = 0.6  // minimum edit-distance ratio to become a candidate
	simScoreWeight = 10.0 // candidate score = ratio * weight
	simAcceptScore = 8.0  // best weighted score must exceed this or the stage falls through
)

// Brand-priority stage scoring
const (
	brandBaseScore     = 50.0 // name contains the brand token found in the phrase
	brandAllWordsBonus = 30.0 // all non-brand phrase words appear verbatim
	brandWordBonus     = 10.0 // per non-brand word (>= 3 chars) found in the name
)

// Keyword stage scoring
const (
	keywordBaseScore     = 20.0 // name contains every phrase word longer than 2 chars
	keywordPriorityBonus = 30.0 // priority brand token present in both phrase and name
)

// General weighted fallback scoring
const (
	phraseInNameBonus  = 10.0 // phrase is a substring of the name
	nameInPhraseBonus  = 8.0  // name is a substring of the phrase
	priorityBrandBonus = 15.0 // priority brand token in both phrase and name
	unitTokenBonus     = 5.0  // generic unit token in both phrase and name
	wordHitScore       = 1.0  // per phrase word contained in the name
	wordOrderBonus     = 0.5  // word found further right than the previous hit
	coverageMaxBonus   = 3.0  // scaled by fraction of phrase words matched
	allWordsBonus      = 4.0  // every word longer than 2 chars is contained
)

// minKeywordLen is the shortest word that counts as a keyword; shorter words
// are connective noise.
const minKeywordLen = 3

// Match stage identifiers, recorded in the per-line trace.
const (
	StageOverride   = "override"
	StageExact      = "exact"
	StageSimilarity = "similarity"
	StageBrand      = "brand"
	StageKeyword    = "keyword"
	StageWeighted   = "weighted"
)

// SpecialCase pins a known problematic substring to an exact product. It
// guards high-traffic products the heuristics used to get wrong.
type SpecialCase struct {
	Substring   string `mapstructure:"substring"`
	ProductID   string `mapstructure:"product_id"`
	DisplayName string `mapstructure:"display_name"`
}

// DefaultSpecialCases pins the high-traffic phrases the heuristics kept
// resolving to the wrong product. Each entry only applies while its target
// product still exists in the store's catalog.
var DefaultSpecialCases = []SpecialCase{
	{Substring: "fami nguyên chất", ProductID: "SP-10021", DisplayName: "Sữa đậu nành Fami nguyên chất 200ml"},
	{Substring: "fami canxi", ProductID: "SP-10024", DisplayName: "Sữa đậu nành Fami Canxi 200ml"},
}

// MatcherConfig holds the token tables and behavior switches for matching.
type MatcherConfig struct {
	// BrandTokens bias matching toward a brand when one appears in the phrase
	BrandTokens []string
	// PriorityBrand is the single high-value brand token with extra weight
	PriorityBrand string
	// UnitTokens mirror the extraction vocabulary for co-occurrence scoring
	UnitTokens []string
	// Overrides is the special-case table consulted before any heuristic
	Overrides []SpecialCase
	// CanonicalNames makes every stage return the catalog primary name.
	// Default false keeps the historical behavior: scoring stages return the
	// matched lookup key, only exact matches return the display form.
	CanonicalNames bool
	EnableDebugLogging bool
}

// matchCandidate is a scored catalog name, transient to one Match call.
type matchCandidate struct {
	productID   string
	matchedName string
	score       float64
}

// ProductMatcher resolves a cleaned product phrase to a catalog entry through
// ordered stages: special-case overrides, exact lookup, similarity ratio,
// brand priority, then accumulated keyword and general weighted scoring.
// The first stage producing a candidate wins; the last two pool their scores.
type ProductMatcher struct {
	brandTokens        []string
	priorityBrand      string
	unitTokens         []string
	overrides          []SpecialCase
	canonicalNames     bool
	enableDebugLogging bool
}

// NewProductMatcher creates a matcher with the given configuration.
func NewProductMatcher(config MatcherConfig) *ProductMatcher {
	brands := make([]string, 0, len(config.BrandTokens))
	for _, b := range config.BrandTokens {
		if b = strings.ToLower(strings.TrimSpace(b)); b != "" {
			brands = append(brands, b)
		}
	}
	units := make([]string, 0, len(config.UnitTokens))
	for _, u := range config.UnitTokens {
		if u = strings.ToLower(strings.TrimSpace(u)); u != "" {
			units = append(units, u)
		}
	}

	return &ProductMatcher{
		brandTokens:        brands,
		priorityBrand:      strings.ToLower(config.PriorityBrand),
		unitTokens:         units,
		overrides:          config.Overrides,
		canonicalNames:     config.CanonicalNames,
		enableDebugLogging: config.EnableDebugLogging,
	}
}

// Match resolves a product phrase against the index. It returns the product
// ID, the matched display name, and the stage that produced the match.
// ok is false when no stage yields a positive candidate; that is a normal
// per-line outcome, not an error.
func (m *ProductMatcher) Match(phrase string, idx *domain.NameIndex, catalog domain.Catalog) (id, name, stage string, ok bool) {
	folded := strings.ToLower(strings.TrimSpace(phrase))
	if folded == "" {
		return "", "", "", false
	}

	if m.enableDebugLogging {
		log.Printf("[MATCH] Resolving phrase: %q", folded)
	}

	if c, found := m.matchOverride(folded, catalog); found {
		return c.productID, c.matchedName, StageOverride, true
	}

	if productID, found := idx.Lookup(folded); found {
		entry := catalog[productID]
		display := entry.PrimaryName
		if display == "" {
			display = folded
		}
		return productID, display, StageExact, true
	}

	if c, found := m.matchSimilarity(folded, idx); found {
		return c.productID, m.displayName(c, catalog), StageSimilarity, true
	}

	if c, found := m.matchBrand(folded, idx); found {
		return c.productID, m.displayName(c, catalog), StageBrand, true
	}

	if c, fromKeyword, found := m.matchAccumulated(folded, idx); found {
		stage = StageWeighted
		if fromKeyword {
			stage = StageKeyword
		}
		return c.productID, m.displayName(c, catalog), stage, true
	}

	if m.enableDebugLogging {
		log.Printf("[MATCH] No stage resolved %q", folded)
	}
	return "", "", "", false
}

// matchOverride consults the special-case table by substring containment.
// An override only applies while its target product still exists.
func (m *ProductMatcher) matchOverride(folded string, catalog domain.Catalog) (matchCandidate, bool) {
	for _, sc := range m.overrides {
		if sc.Substring == "" || !strings.Contains(folded, strings.ToLower(sc.Substring)) {
			continue
		}
		if _, exists := catalog[sc.ProductID]; !exists {
			continue
		}
		if m.enableDebugLogging {
			log.Printf("[MATCH] Override %q -> %s", sc.Substring, sc.ProductID)
		}
		return matchCandidate{productID: sc.ProductID, matchedName: sc.DisplayName}, true
	}
	return matchCandidate{}, false
}

// matchSimilarity keeps names whose edit-distance ratio to the phrase beats
// the floor and accepts the best one only when its weighted score clears the
// acceptance bar. Near-identical phrasing and typos land here.
func (m *ProductMatcher) matchSimilarity(folded string, idx *domain.NameIndex) (matchCandidate, bool) {
	var best matchCandidate
	for _, key := range idx.Keys() {
		ratio := similarityRatio(folded, key.Name)
		if ratio <= simRatioFloor {
			continue
		}
		score := ratio * simScoreWeight
		if score > best.score {
			best = matchCandidate{productID: key.ProductID, matchedName: key.Name, score: score}
		}
	}

	if best.productID == "" || best.score <= simAcceptScore {
		return matchCandidate{}, false
	}
	if m.enableDebugLogging {
		log.Printf("[MATCH] Similarity: %q (%.1f)", best.matchedName, best.score)
	}
	return best, true
}

// matchBrand restricts candidates to names carrying the same brand token as
// the phrase. Brand identity dominates generic descriptive words in this
// catalog's naming convention.
func (m *ProductMatcher) matchBrand(folded string, idx *domain.NameIndex) (matchCandidate, bool) {
	var brand string
	for _, b := range m.brandTokens {
		if strings.Contains(folded, b) {
			brand = b
			break
		}
	}
	if brand == "" {
		return matchCandidate{}, false
	}

	var remaining []string
	for _, word := range strings.Fields(folded) {
		if word != brand {
			remaining = append(remaining, word)
		}
	}
	remainingPhrase := strings.Join(remaining, " ")

	var best matchCandidate
	for _, key := range idx.Keys() {
		if !strings.Contains(key.Name, brand) {
			continue
		}

		score := brandBaseScore
		if remainingPhrase != "" && strings.Contains(key.Name, remainingPhrase) {
			score += brandAllWordsBonus
		} else {
			for _, word := range remaining {
				if len([]rune(word)) >= minKeywordLen && strings.Contains(key.Name, word) {
					score += brandWordBonus
				}
			}
		}

		if score > best.score {
			best = matchCandidate{productID: key.ProductID, matchedName: key.Name, score: score}
		}
	}

	if best.productID == "" {
		return matchCandidate{}, false
	}
	if m.enableDebugLogging {
		log.Printf("[MATCH] Brand %q: %q (%.1f)", brand, best.matchedName, best.score)
	}
	return best, true
}

// matchAccumulated pools the keyword stage and the general weighted fallback:
// keyword scores carry over into the full-catalog scan and the overall best
// positive score wins. Ties break first-seen in index order.
func (m *ProductMatcher) matchAccumulated(folded string, idx *domain.NameIndex) (matchCandidate, bool, bool) {
	words := strings.Fields(folded)
	keywords := make([]string, 0, len(words))
	for _, word := range words {
		if len([]rune(word)) >= minKeywordLen {
			keywords = append(keywords, word)
		}
	}

	scores := make(map[string]float64)
	fromKeyword := make(map[string]bool)

	// Keyword stage: names containing every keyword
	if len(keywords) > 0 {
		for _, key := range idx.Keys() {
			if !containsAll(key.Name, keywords) {
				continue
			}
			score := keywordBaseScore
			if m.priorityBrand != "" &&
				strings.Contains(folded, m.priorityBrand) &&
				strings.Contains(key.Name, m.priorityBrand) {
				score += keywordPriorityBonus
			}
			scores[key.Name] += score
			fromKeyword[key.Name] = true
		}
	}

	// Weighted fallback over the full catalog
	for _, key := range idx.Keys() {
		score := m.weightedScore(folded, words, keywords, key.Name)
		if score > 0 {
			scores[key.Name] += score
		}
	}

	var best matchCandidate
	for _, key := range idx.Keys() {
		score, present := scores[key.Name]
		if !present || score <= 0 {
			continue
		}
		if score > best.score {
			best = matchCandidate{productID: key.ProductID, matchedName: key.Name, score: score}
		}
	}

	if best.productID == "" {
		return matchCandidate{}, false, false
	}
	if m.enableDebugLogging {
		log.Printf("[MATCH] Accumulated: %q (%.1f)", best.matchedName, best.score)
	}
	return best, fromKeyword[best.matchedName], true
}

// weightedScore accumulates the general fallback signals for one name.
func (m *ProductMatcher) weightedScore(folded string, words, keywords []string, name string) float64 {
	var score float64

	if strings.Contains(name, folded) {
		score += phraseInNameBonus
	}
	if strings.Contains(folded, name) {
		score += nameInPhraseBonus
	}

	if m.priorityBrand != "" &&
		strings.Contains(folded, m.priorityBrand) &&
		strings.Contains(name, m.priorityBrand) {
		score += priorityBrandBonus
	}
	for _, unit := range m.unitTokens {
		if hasUnitToken(folded, unit) && hasUnitToken(name, unit) {
			score += unitTokenBonus
			break
		}
	}

	matched := 0
	lastPos := -1
	for _, word := range words {
		pos := strings.Index(name, word)
		if pos < 0 {
			continue
		}
		matched++
		score += wordHitScore
		if pos > lastPos {
			score += wordOrderBonus
		}
		lastPos = pos
	}
	if len(words) > 0 {
		score += coverageMaxBonus * float64(matched) / float64(len(words))
	}

	if len(keywords) > 0 && containsAll(name, keywords) {
		score += allWordsBonus
	}

	return score
}

// displayName returns the name to surface for a scored candidate: the matched
// lookup key by default, the catalog primary name when configured canonical.
func (m *ProductMatcher) displayName(c matchCandidate, catalog domain.Catalog) string {
	if !m.canonicalNames {
		return c.matchedName
	}
	if entry, ok := catalog[c.productID]; ok && entry.PrimaryName != "" {
		return entry.PrimaryName
	}
	return c.matchedName
}

// hasUnitToken reports whether a unit token occurs in s as its own word or
// glued to a leading number ("200ml"). A bare substring check would let
// one-letter units like "l" match inside ordinary words.
func hasUnitToken(s, unit string) bool {
	for _, field := range strings.Fields(s) {
		if field == unit {
			return true
		}
		if strings.HasSuffix(field, unit) && isDigits(strings.TrimSuffix(field, unit)) {
			return true
		}
	}
	return false
}

// isDigits checks if a string contains only digits
func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return len(s) > 0
}

// containsAll reports whether name contains every word.
func containsAll(name string, words []string) bool {
	for _, word := range words {
		if !strings.Contains(name, word) {
			return false
		}
	}
	return true
}

// similarityRatio is a normalized edit-distance similarity in [0, 1].
func similarityRatio(a, b string) float64 {
	if a == b {
		return 1.0
	}
	maxLen := len([]rune(a))
	if l := len([]rune(b)); l > maxLen {
		maxLen = l
	}
	if maxLen == 0 {
		return 1.0
	}
	return 1.0 - float64(levenshteinDistance(a, b))/float64(maxLen)
}

// levenshteinDistance calculates the edit distance between two strings
func levenshteinDistance(s1, s2 string) int {
	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	r1 := []rune(s1)
	r2 := []rune(s2)
	m := len(r1)
	n := len(r2)

	// Use two rows instead of full matrix for space efficiency
	prev := make([]int, n+1)
	curr := make([]int, n+1)

	for j := 0; j <= n; j++ {
		prev[j] = j
	}

	for i := 1; i <= m; i++ {
		curr[0] = i
		for j := 1; j <= n; j++ {
			cost := 0
			if r1[i-1] != r2[j-1] {
				cost = 1
			}
			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[n]
}
