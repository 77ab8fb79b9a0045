// Package dump prints register layouts as plain text, for reading in a
// terminal rather than a browser.
package dump

import (
	"fmt"
	"io"
	"strings"

	tty "github.com/mattn/go-tty"
	"golang.org/x/text/width"

	"svddoc/internal/layout"
	"svddoc/internal/pages"
	"svddoc/internal/sysdec"
)

const DefaultWidth = 80

// TerminalWidth is the column count of the controlling terminal, or
// DefaultWidth when there is none.
func TerminalWidth() int {
	t, err := tty.Open()
	if err != nil {
		return DefaultWidth
	}
	defer t.Close()
	w, _, err := t.Size()
	if err != nil || w <= 0 {
		return DefaultWidth
	}
	return w
}

// Write prints every register of dev, wrapping lines at cols display
// columns.
func Write(w io.Writer, dev *sysdec.DeviceDef, cols int, placeholder string) error {
	if cols <= 0 {
		cols = DefaultWidth
	}
	for _, p := range dev.Peripheral {
		var b strings.Builder
		fmt.Fprintf(&b, "%s 0x%08x\n", p.Name, p.BaseAddress)
		wrap(&b, p.Description, "  ", cols)
		for _, r := range p.Register {
			fmt.Fprintf(&b, "  %s 0x%04x 0x%08x\n", pages.ResolveName(r, placeholder),
				r.AddressOffset, p.BaseAddress+r.AddressOffset)
			wrap(&b, r.Description, "    ", cols)
			cells := []string{}
			for _, rec := range layout.FormatAll(layout.Layout(r.Fields())) {
				cells = append(cells, cell(rec))
			}
			pack(&b, cells, "    ", cols)
		}
		b.WriteString("\n")
		if _, err := io.WriteString(w, b.String()); err != nil {
			return err
		}
	}
	return nil
}

func cell(r layout.Record) string {
	if r.Reserved {
		return "[" + r.RangeText + " reserved]"
	}
	return "[" + r.RangeText + " " + r.Label + " " + r.AccessText + "]"
}

// displayWidth counts East Asian wide and fullwidth runes as two columns.
func displayWidth(s string) int {
	n := 0
	for _, r := range s {
		switch width.LookupRune(r).Kind() {
		case width.EastAsianWide, width.EastAsianFullwidth:
			n += 2
		default:
			n++
		}
	}
	return n
}

// wrap writes text as indented lines of words.
func wrap(b *strings.Builder, text string, indent string, cols int) {
	words := strings.Fields(text)
	if len(words) == 0 {
		return
	}
	fill(b, words, indent, " ", cols)
}

// pack writes cells as indented lines with no separator.
func pack(b *strings.Builder, cells []string, indent string, cols int) {
	fill(b, cells, indent, "", cols)
}

func fill(b *strings.Builder, items []string, indent string, sep string, cols int) {
	used := 0
	for _, item := range items {
		wide := displayWidth(item)
		switch {
		case used == 0:
			b.WriteString(indent)
			used = displayWidth(indent)
		case used+len(sep)+wide > cols:
			b.WriteString("\n")
			b.WriteString(indent)
			used = displayWidth(indent)
		default:
			b.WriteString(sep)
			used += len(sep)
		}
		b.WriteString(item)
		used += wide
	}
	b.WriteString("\n")
}
