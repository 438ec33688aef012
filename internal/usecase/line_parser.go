package usecase

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/orderdesk/backend/internal/domain"
)

// Vocabulary holds the locale-specific token tables used by field extraction.
// Tables are supplied at construction so the matching logic stays untouched
// when the deployment locale changes.
type Vocabulary struct {
	// UnitTokens are quantity unit words ("x", "bottle", "chai", "kg", ...)
	UnitTokens []string
	// QuantityLabels are explicit quantity markers ("quantity", "sl", ...)
	QuantityLabels []string
	// NoteLabels are note/request markers in priority order ("note", "ghi chú", ...)
	NoteLabels []string
}

// DefaultVocabulary covers the English and Vietnamese token sets of the
// store catalogs this service fronts.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		UnitTokens: []string{
			"x", "piece", "pieces", "bottle", "bottles", "pack", "packs",
			"box", "boxes", "carton", "cartons", "can", "cans",
			"cái", "chai", "gói", "hộp", "thùng", "lon",
			"kg", "g", "ml", "l",
		},
		QuantityLabels: []string{"quantity", "qty", "số lượng", "sl"},
		NoteLabels:     []string{"note", "ghi chú", "yêu cầu", "remark", "request"},
	}
}

// LineParser extracts quantity, note, and the residual product phrase from a
// single raw order line. Patterns are compiled once in the constructor from
// the vocabulary tables.
type LineParser struct {
	listPrefixPattern *regexp.Regexp
	unitQtyPattern    *regexp.Regexp
	labelQtyPattern   *regexp.Regexp
	bareQtyPattern    *regexp.Regexp
	notePatterns      []*regexp.Regexp
	noteLabels        []string
}

// NewLineParser compiles the extraction patterns for the given vocabulary.
// Zero-value tables fall back to DefaultVocabulary.
func NewLineParser(vocab Vocabulary) *LineParser {
	if len(vocab.UnitTokens) == 0 {
		vocab.UnitTokens = DefaultVocabulary().UnitTokens
	}
	if len(vocab.QuantityLabels) == 0 {
		vocab.QuantityLabels = DefaultVocabulary().QuantityLabels
	}
	if len(vocab.NoteLabels) == 0 {
		vocab.NoteLabels = DefaultVocabulary().NoteLabels
	}

	units := make([]string, len(vocab.UnitTokens))
	for i, u := range vocab.UnitTokens {
		units[i] = regexp.QuoteMeta(strings.ToLower(u))
	}
	labels := make([]string, len(vocab.QuantityLabels))
	for i, l := range vocab.QuantityLabels {
		labels[i] = regexp.QuoteMeta(strings.ToLower(l))
	}

	p := &LineParser{
		// "1. " style list numbering, stripped before any quantity pattern runs
		listPrefixPattern: regexp.MustCompile(`^\s*\d+\.\s+`),
		// "3x", "2 bottles", "5 chai" — digits immediately before a unit token
		unitQtyPattern: regexp.MustCompile(`(?i)(\d+)\s*(?:` + strings.Join(units, "|") + `)(?:\s|$|[^\p{L}\d])`),
		// "quantity: 5", "sl 2" — explicit label followed by digits
		labelQtyPattern: regexp.MustCompile(`(?i)(?:` + strings.Join(labels, "|") + `)\s*[:=]?\s*(\d+)`),
		// last resort: any standalone digit run
		bareQtyPattern: regexp.MustCompile(`(\d+)`),
	}

	for _, label := range vocab.NoteLabels {
		folded := strings.ToLower(label)
		p.noteLabels = append(p.noteLabels, folded)
		p.notePatterns = append(p.notePatterns,
			regexp.MustCompile(`(?i)`+regexp.QuoteMeta(folded)+`\s*[:：]?\s*(.+)$`))
	}

	return p
}

// ExtractQuantity returns the quantity encoded in a line, defaulting to 1.
// Pattern families are tried in order: digits+unit, labeled quantity, bare
// digits. The result is always >= 1.
func (p *LineParser) ExtractQuantity(line string) int {
	line = p.listPrefixPattern.ReplaceAllString(line, "")

	for _, pattern := range []*regexp.Regexp{p.unitQtyPattern, p.labelQtyPattern, p.bareQtyPattern} {
		m := pattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		qty, err := strconv.Atoi(m[1])
		if err != nil || qty < 1 {
			continue
		}
		return qty
	}

	return 1
}

// ExtractNote returns the trailing text after the first note label found,
// trying labels in priority order. Empty string when no label matches.
func (p *LineParser) ExtractNote(line string) string {
	for _, pattern := range p.notePatterns {
		if m := pattern.FindStringSubmatch(line); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

// Parse peels quantity and note off a raw line and derives the residual
// product phrase. Percent-encoded input is decoded first; a decode failure
// keeps the raw text unchanged.
func (p *LineParser) Parse(rawLine string) domain.LineDraft {
	line := rawLine
	if decoded, err := url.PathUnescape(rawLine); err == nil {
		line = decoded
	}

	draft := domain.LineDraft{
		RawText:  rawLine,
		Quantity: p.ExtractQuantity(line),
		Note:     p.ExtractNote(line),
	}
	draft.ProductPhrase = p.productPhrase(line)
	return draft
}

// productPhrase strips the quantity and note substrings from a line, leaving
// the text handed to the product matcher.
func (p *LineParser) productPhrase(line string) string {
	phrase := p.listPrefixPattern.ReplaceAllString(line, "")

	// Cut everything from the first note label onward
	lower := strings.ToLower(phrase)
	for _, label := range p.noteLabels {
		if idx := strings.Index(lower, label); idx >= 0 {
			phrase = phrase[:idx]
			lower = lower[:idx]
		}
	}

	// Drop whichever quantity form is present: digits+unit first, then the
	// labeled form, then a bare leading digit run
	if p.unitQtyPattern.MatchString(phrase) {
		phrase = p.unitQtyPattern.ReplaceAllString(phrase, " ")
	} else if p.labelQtyPattern.MatchString(phrase) {
		phrase = p.labelQtyPattern.ReplaceAllString(phrase, " ")
	} else {
		phrase = regexp.MustCompile(`^\s*\d+\s+`).ReplaceAllString(phrase, " ")
	}

	phrase = strings.Trim(phrase, " \t-–,.;")
	return strings.TrimSpace(multiSpacePattern.ReplaceAllString(phrase, " "))
}

// multiSpacePattern collapses runs of whitespace left behind by stripping.
var multiSpacePattern = regexp.MustCompile(`\s+`)
