package pages

import (
	"fmt"
	"strconv"
	"strings"

	"svddoc/internal/layout"
	"svddoc/internal/sysdec"
)

// The page contexts below are what the templates see.  Every field is
// already text, so a template never formats numbers itself.

type IndexPage struct {
	Name        string
	Vendor      string
	Description string
	Peripherals []IndexEntry
}

type IndexEntry struct {
	Name        string
	Description string
	BaseAddress string
	GroupName   string
	File        string
}

type PeripheralPage struct {
	Device      string
	Name        string
	BaseAddress string
	Description string
	GroupName   string
	DerivedFrom string
	Interrupts  []InterruptRow
	Registers   []RegisterRow
	Bits        []int //31 down to 0, for the bit number row
}

type InterruptRow struct {
	Name        string
	Value       string
	Description string
}

type RegisterRow struct {
	Name        string
	Offset      string
	Address     string
	Description string
	ResetValue  string
	Header      []string
	Records     []layout.Record
	Fields      []FieldRow //declaration order
}

type FieldRow struct {
	Name        string
	RangeText   string
	AccessText  string
	Description string
	Values      []ValueRow
}

type ValueRow struct {
	Name        string
	Value       string
	Description string
}

// DefaultPlaceholder marks the index in the name of an array register.
const DefaultPlaceholder = "%s"

// ResolveName replaces every placeholder in the name of an array register
// with "<0..count>".  The count is used as is, not count-1.
func ResolveName(r *sysdec.RegisterDef, placeholder string) string {
	if r.ArrayCount() == 0 || placeholder == "" {
		return r.Name
	}
	return strings.ReplaceAll(r.Name, placeholder, fmt.Sprintf("<0..%d>", r.ArrayCount()))
}

// PageFile is the file name of a peripheral's page.
func PageFile(peripheral string) string {
	return strings.NewReplacer("/", "_", "\\", "_").Replace(peripheral) + ".html"
}

func bitNumbers() []int {
	bits := make([]int, layout.WordBits)
	for i := range bits {
		bits[i] = layout.WordBits - 1 - i
	}
	return bits
}

func (g *Generator) IndexContext(dev *sysdec.DeviceDef) IndexPage {
	page := IndexPage{
		Name:        dev.Name,
		Vendor:      dev.Vendor,
		Description: dev.Description,
	}
	for _, p := range dev.Peripheral {
		page.Peripherals = append(page.Peripherals, IndexEntry{
			Name:        p.Name,
			Description: p.Description,
			BaseAddress: addressText(p.BaseAddress),
			GroupName:   p.GroupName,
			File:        PageFile(p.Name),
		})
	}
	return page
}

// PeripheralContext builds the page of one peripheral.  In strict mode a
// register with fields that cannot be laid out is an error; otherwise it
// is logged and rendered anyway.
func (g *Generator) PeripheralContext(dev *sysdec.DeviceDef, p *sysdec.PeripheralDef) (PeripheralPage, error) {
	page := PeripheralPage{
		Device:      dev.Name,
		Name:        p.Name,
		BaseAddress: addressText(p.BaseAddress),
		Description: p.Description,
		GroupName:   p.GroupName,
		DerivedFrom: p.DerivedFrom,
		Bits:        bitNumbers(),
	}
	for _, irq := range p.Interrupt {
		page.Interrupts = append(page.Interrupts, InterruptRow{
			Name:        irq.Name,
			Value:       strconv.Itoa(irq.Value),
			Description: irq.Description,
		})
	}
	for _, r := range p.Register {
		if err := layout.Check(r.Fields()); err != nil {
			if g.strict {
				return page, fmt.Errorf("%s.%s: %w", p.Name, r.Name, err)
			}
			g.logger.Printf("warning: %s.%s: %v", p.Name, r.Name,
				strings.ReplaceAll(err.Error(), "\n", "; "))
		}
		page.Registers = append(page.Registers, g.registerRow(p, r))
	}
	return page, nil
}

func (g *Generator) registerRow(p *sysdec.PeripheralDef, r *sysdec.RegisterDef) RegisterRow {
	row := RegisterRow{
		Name:        ResolveName(r, g.placeholder),
		Offset:      offsetText(r.AddressOffset),
		Address:     addressText(p.BaseAddress + r.AddressOffset),
		Description: r.Description,
		ResetValue:  resetText(r.ResetValue, r.Size),
		Header:      layout.HeaderRow(r.Fields()),
		Records:     layout.FormatAll(layout.Layout(r.Fields())),
	}
	for _, f := range r.Fields() {
		fr := FieldRow{
			Name:        f.Name,
			RangeText:   layout.RangeText(f.BitRange.Msb, f.BitRange.Lsb),
			AccessText:  layout.AccessText(f.Access),
			Description: f.Description,
		}
		for _, v := range f.EnumeratedValue {
			value := strconv.FormatUint(v.Value, 10)
			if v.IsDefault {
				value = "default"
			}
			fr.Values = append(fr.Values, ValueRow{
				Name:        v.Name,
				Value:       value,
				Description: v.Description,
			})
		}
		row.Fields = append(row.Fields, fr)
	}
	return row
}
