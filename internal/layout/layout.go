// Package layout partitions the 32 bits of a register into the spans that
// a register diagram shows: one span per field plus one merged "reserved"
// span for every run of bits no field claims.
package layout

import (
	"sort"

	"svddoc/internal/sysdec"
)

// WordBits is the width of every register the engine lays out.
const WordBits = 32

// BitSpan is the closed bit range [Low, High].  Field is nil for a
// reserved span.
type BitSpan struct {
	High  int
	Low   int
	Field *sysdec.FieldDef
}

func (s BitSpan) Width() int {
	return s.High - s.Low + 1
}

func (s BitSpan) Reserved() bool {
	return s.Field == nil
}

func high(f *sysdec.FieldDef) int {
	return f.BitOffset() + f.BitWidth() - 1
}

// Layout returns the spans covering bits 31 down to 0, highest first.
// The fields must not overlap and must lie inside the word; Check
// reports fields that do not.  The result for such input is unspecified.
func Layout(fields []*sysdec.FieldDef) []BitSpan {
	sorted := make([]*sysdec.FieldDef, len(fields))
	copy(sorted, fields)
	sort.Slice(sorted, func(i, j int) bool {
		return high(sorted[i]) < high(sorted[j])
	})

	spans := make([]BitSpan, 0, 2*len(sorted)+1)
	cursor := 0 //lowest bit not yet in a span
	for _, f := range sorted {
		low := f.BitOffset()
		if low > cursor {
			spans = append(spans, BitSpan{High: low - 1, Low: cursor})
		}
		spans = append(spans, BitSpan{High: high(f), Low: low, Field: f})
		cursor = high(f) + 1
	}
	if cursor <= WordBits-1 {
		spans = append(spans, BitSpan{High: WordBits - 1, Low: cursor})
	}

	for i, j := 0, len(spans)-1; i < j; i, j = i+1, j-1 {
		spans[i], spans[j] = spans[j], spans[i]
	}
	return spans
}
