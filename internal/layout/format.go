package layout

import (
	"strconv"

	"svddoc/internal/sysdec"
)

// Record is a span ready for a table cell.  Width is the column span.
type Record struct {
	Label       string
	RangeText   string
	Width       int
	Description string
	AccessText  string
	Reserved    bool
}

// AccessText is the abbreviation shown for an access mode.
func AccessText(a sysdec.AccessMode) string {
	switch a {
	case sysdec.AccessReadOnly:
		return "R"
	case sysdec.AccessReadWrite:
		return "RW"
	case sysdec.AccessReadWriteOnce:
		return "RWO"
	case sysdec.AccessWriteOnce:
		return "WO"
	case sysdec.AccessWriteOnly:
		return "W"
	}
	return "-"
}

// RangeText is "high - low", or just "high" for a single bit.
func RangeText(high, low int) string {
	if high == low {
		return strconv.Itoa(high)
	}
	return strconv.Itoa(high) + " - " + strconv.Itoa(low)
}

func Format(span BitSpan) Record {
	r := Record{
		RangeText:  RangeText(span.High, span.Low),
		Width:      span.Width(),
		AccessText: "-",
		Reserved:   span.Reserved(),
	}
	if f := span.Field; f != nil {
		r.Label = f.Name
		r.Description = f.Description
		r.AccessText = AccessText(f.Access)
	}
	return r
}

func FormatAll(spans []BitSpan) []Record {
	result := make([]Record, len(spans))
	for i, s := range spans {
		result[i] = Format(s)
	}
	return result
}

// HeaderRow returns one cell per bit, bit 31 first.  A field's name sits
// in the cell of its middle bit, offset + width/2; all other cells are
// empty.
func HeaderRow(fields []*sysdec.FieldDef) []string {
	row := make([]string, WordBits)
	for _, f := range fields {
		bit := f.BitOffset() + f.BitWidth()/2
		if bit < 0 || bit >= WordBits {
			continue
		}
		row[WordBits-1-bit] = f.Name
	}
	return row
}
