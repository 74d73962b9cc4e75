// Package format holds the text helpers applied to generated output.
package format

import (
	"regexp"
	"strings"
)

// numberedMarker matches "<integer>." at the start of a line followed by
// whitespace or the end of the line.
var numberedMarker = regexp.MustCompile(`(?m)^[ \t]*\d+\.(?:[ \t]+|$)`)

// SegmentNumberedList splits text on numbered markers ("1. ", "2. ", ...).
// Each span runs from the end of its marker to the next marker or the end of
// the text, so an item may cover several lines. Spans are trimmed and returned
// in marker order; text without markers yields an empty slice.
func SegmentNumberedList(text string) []string {
	locs := numberedMarker.FindAllStringIndex(text, -1)
	segments := make([]string, 0, len(locs))
	for i, loc := range locs {
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		segments = append(segments, strings.TrimSpace(text[loc[1]:end]))
	}
	return segments
}

// Segmentation is the result of splitting a numbered list against the count
// that was asked for. A mismatch is reported, never corrected.
type Segmentation struct {
	Items     []string
	Requested int
}

// Segment splits text and records the requested count (0 when unknown)
func Segment(text string, requested int) Segmentation {
	return Segmentation{Items: SegmentNumberedList(text), Requested: requested}
}

// Found returns the number of segments actually present
func (s Segmentation) Found() int {
	return len(s.Items)
}

// Mismatch reports whether a count was requested and differs from Found
func (s Segmentation) Mismatch() bool {
	return s.Requested > 0 && s.Requested != len(s.Items)
}
