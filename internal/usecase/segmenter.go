package usecase

import "strings"

// minLineLength is the shortest segment that can still carry a product name
// plus quantity information. Anything shorter is discarded as noise.
const minLineLength = 3

// SplitLines splits a raw message into candidate order lines. Commas count as
// line separators, so "A, B" and "A\nB" segment identically. A segment that
// starts with a note label belongs to the preceding line ("Fami, note: cold"
// is one line, not two), so it is merged back before filtering. Segments are
// trimmed; empty or too-short ones are dropped. Original relative order is
// preserved.
func (p *LineParser) SplitLines(message string) []string {
	normalized := strings.ReplaceAll(message, ",", "\n")

	var lines []string
	for _, segment := range strings.Split(normalized, "\n") {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}
		if len(lines) > 0 && p.startsWithNoteLabel(segment) {
			lines[len(lines)-1] += ", " + segment
			continue
		}
		lines = append(lines, segment)
	}

	kept := lines[:0]
	for _, line := range lines {
		if len([]rune(line)) < minLineLength {
			continue
		}
		kept = append(kept, line)
	}

	return kept
}

func (p *LineParser) startsWithNoteLabel(segment string) bool {
	folded := strings.ToLower(segment)
	for _, label := range p.noteLabels {
		if strings.HasPrefix(folded, label) {
			return true
		}
	}
	return false
}
