package sysdec

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ErrUnknownBase is returned when a derivedFrom attribute names a
// peripheral that does not exist.
var ErrUnknownBase = errors.New("derivedFrom names an unknown peripheral")

// ParseError locates a failure inside the description.
type ParseError struct {
	Path string //slash separated element path, e.g. device/TIMER0/CTRL/MODE
	Err  error
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return "svd: " + e.Err.Error()
	}
	return "svd: " + e.Path + ": " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func parseErr(path string, err error) error {
	var pe *ParseError
	if errors.As(err, &pe) {
		return err
	}
	return &ParseError{Path: path, Err: err}
}

//
// XML mirror of the parts of CMSIS-SVD that we use.
//

type xmlRegisterProps struct {
	Size       string `xml:"size"`
	Access     string `xml:"access"`
	ResetValue string `xml:"resetValue"`
	ResetMask  string `xml:"resetMask"`
}

type xmlDimProps struct {
	Dim          string `xml:"dim"`
	DimIncrement string `xml:"dimIncrement"`
	DimIndex     string `xml:"dimIndex"`
}

type xmlDevice struct {
	XMLName         xml.Name `xml:"device"`
	Vendor          string   `xml:"vendor"`
	VendorID        string   `xml:"vendorID"`
	Name            string   `xml:"name"`
	Series          string   `xml:"series"`
	Version         string   `xml:"version"`
	Description     string   `xml:"description"`
	LicenseText     string   `xml:"licenseText"`
	Cpu             *xmlCPU  `xml:"cpu"`
	AddressUnitBits string   `xml:"addressUnitBits"`
	Width           string   `xml:"width"`
	xmlRegisterProps
	Peripherals []xmlPeripheral `xml:"peripherals>peripheral"`
}

type xmlCPU struct {
	Name                string `xml:"name"`
	Revision            string `xml:"revision"`
	Endian              string `xml:"endian"`
	MPUPresent          string `xml:"mpuPresent"`
	FPUPresent          string `xml:"fpuPresent"`
	DeviceNumInterrupts string `xml:"deviceNumInterrupts"`
}

type xmlPeripheral struct {
	DerivedFrom string `xml:"derivedFrom,attr"`
	Name        string `xml:"name"`
	Version     string `xml:"version"`
	Description string `xml:"description"`
	GroupName   string `xml:"groupName"`
	BaseAddress string `xml:"baseAddress"`
	xmlRegisterProps
	AddressBlocks []xmlAddressBlock `xml:"addressBlock"`
	Interrupts    []xmlInterrupt    `xml:"interrupt"`
	Registers     *xmlRegisterBlock `xml:"registers"`
}

type xmlAddressBlock struct {
	Offset string `xml:"offset"`
	Size   string `xml:"size"`
	Usage  string `xml:"usage"`
}

type xmlInterrupt struct {
	Name        string `xml:"name"`
	Description string `xml:"description"`
	Value       string `xml:"value"`
}

// xmlRegisterBlock keeps registers and clusters in document order, which
// the tag based decoding of encoding/xml cannot do for mixed siblings.
type xmlRegisterBlock struct {
	Items []xmlRegisterItem
}

type xmlRegisterItem struct {
	Register *xmlRegister
	Cluster  *xmlCluster
}

func (b *xmlRegisterBlock) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	return decodeChildren(d, func(t xml.StartElement) (bool, error) {
		return b.decodeItem(d, t)
	})
}

// decodeItem consumes a <register> or <cluster> element.  It reports false
// for any other element, leaving it unread.
func (b *xmlRegisterBlock) decodeItem(d *xml.Decoder, t xml.StartElement) (bool, error) {
	switch t.Name.Local {
	case "register":
		var r xmlRegister
		if err := d.DecodeElement(&r, &t); err != nil {
			return true, err
		}
		b.Items = append(b.Items, xmlRegisterItem{Register: &r})
		return true, nil
	case "cluster":
		var c xmlCluster
		if err := d.DecodeElement(&c, &t); err != nil {
			return true, err
		}
		b.Items = append(b.Items, xmlRegisterItem{Cluster: &c})
		return true, nil
	}
	return false, nil
}

type xmlCluster struct {
	Name          string
	Description   string
	AddressOffset string
	xmlDimProps
	xmlRegisterBlock
}

func (c *xmlCluster) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	return decodeChildren(d, func(t xml.StartElement) (bool, error) {
		var dst *string
		switch t.Name.Local {
		case "name":
			dst = &c.Name
		case "description":
			dst = &c.Description
		case "addressOffset":
			dst = &c.AddressOffset
		case "dim":
			dst = &c.Dim
		case "dimIncrement":
			dst = &c.DimIncrement
		case "dimIndex":
			dst = &c.DimIndex
		default:
			return c.decodeItem(d, t)
		}
		return true, d.DecodeElement(dst, &t)
	})
}

// decodeChildren walks the direct children of the current element until
// its end tag.  Children that handle does not consume are skipped.
func decodeChildren(d *xml.Decoder, handle func(xml.StartElement) (bool, error)) error {
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			used, err := handle(t)
			if err != nil {
				return err
			}
			if !used {
				if err := d.Skip(); err != nil {
					return err
				}
			}
		case xml.EndElement:
			return nil
		}
	}
}

type xmlRegister struct {
	DerivedFrom   string `xml:"derivedFrom,attr"`
	Name          string `xml:"name"`
	Description   string `xml:"description"`
	AddressOffset string `xml:"addressOffset"`
	xmlRegisterProps
	xmlDimProps
	Fields *xmlFields `xml:"fields"`
}

type xmlFields struct {
	Field []xmlField `xml:"field"`
}

type xmlField struct {
	Name             string                `xml:"name"`
	Description      string                `xml:"description"`
	BitOffset        string                `xml:"bitOffset"`
	BitWidth         string                `xml:"bitWidth"`
	Lsb              string                `xml:"lsb"`
	Msb              string                `xml:"msb"`
	BitRange         string                `xml:"bitRange"`
	Access           string                `xml:"access"`
	EnumeratedValues []xmlEnumeratedValues `xml:"enumeratedValues"`
}

type xmlEnumeratedValues struct {
	Values []xmlEnumeratedValue `xml:"enumeratedValue"`
}

type xmlEnumeratedValue struct {
	Name        string `xml:"name"`
	Description string `xml:"description"`
	Value       string `xml:"value"`
	IsDefault   string `xml:"isDefault"`
}

// ParseFile reads and parses the SVD file at path.
func ParseFile(path string) (*DeviceDef, error) {
	fp, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fp.Close()
	dev, err := Parse(fp)
	if err != nil {
		return nil, err
	}
	dev.SourceFilename = path
	return dev, nil
}

// Parse decodes an SVD document.  The charset named in the XML
// declaration is honored.
func Parse(r io.Reader) (*DeviceDef, error) {
	var x xmlDevice
	if err := newDecoder(r).Decode(&x); err != nil {
		return nil, parseErr("", err)
	}
	return x.convert()
}

// registerProps are the register defaults inherited from device to
// peripheral to register.
type registerProps struct {
	size   int
	access AccessMode
	reset  uint64
	mask   uint64
}

func (p registerProps) override(x xmlRegisterProps, path string) (registerProps, error) {
	var err error
	if x.Size != "" {
		var v uint64
		if v, err = parseInteger(x.Size); err != nil {
			return p, parseErr(path+"/size", err)
		}
		p.size = int(v)
	}
	if x.Access != "" {
		if p.access, err = Access(x.Access); err != nil {
			return p, parseErr(path+"/access", err)
		}
	}
	if x.ResetValue != "" {
		if p.reset, err = parseInteger(x.ResetValue); err != nil {
			return p, parseErr(path+"/resetValue", err)
		}
	}
	if x.ResetMask != "" {
		if p.mask, err = parseInteger(x.ResetMask); err != nil {
			return p, parseErr(path+"/resetMask", err)
		}
	}
	return p, nil
}

func optionalInt(s string, path string) (int, error) {
	if strings.TrimSpace(s) == "" {
		return 0, nil
	}
	v, err := parseInteger(s)
	if err != nil {
		return 0, parseErr(path, err)
	}
	return int(v), nil
}

func (x *xmlDevice) convert() (*DeviceDef, error) {
	path := "device"
	if x.Name != "" {
		path = x.Name
	}
	dev := &DeviceDef{
		Vendor:      x.Vendor,
		VendorID:    x.VendorID,
		Name:        x.Name,
		Series:      x.Series,
		Version:     x.Version,
		Description: cleanText(x.Description),
		LicenseText: cleanText(x.LicenseText),
	}
	var err error
	if dev.AddressUnitBits, err = optionalInt(x.AddressUnitBits, path+"/addressUnitBits"); err != nil {
		return nil, err
	}
	if dev.Width, err = optionalInt(x.Width, path+"/width"); err != nil {
		return nil, err
	}
	if x.Cpu != nil {
		n, err := optionalInt(x.Cpu.DeviceNumInterrupts, path+"/cpu/deviceNumInterrupts")
		if err != nil {
			return nil, err
		}
		dev.Cpu = &CPUDef{
			Name:                x.Cpu.Name,
			Revision:            x.Cpu.Revision,
			Endian:              x.Cpu.Endian,
			MPUPresent:          parseBool(x.Cpu.MPUPresent),
			FPUPresent:          parseBool(x.Cpu.FPUPresent),
			DeviceNumInterrupts: n,
		}
	}
	props, err := registerProps{size: 32}.override(x.xmlRegisterProps, path)
	if err != nil {
		return nil, err
	}

	declared := make([]bool, len(x.Peripherals)) //had its own <registers>
	for i := range x.Peripherals {
		xp := &x.Peripherals[i]
		p, err := convertPeripheral(xp, props, path+"/"+xp.Name)
		if err != nil {
			return nil, err
		}
		declared[i] = xp.Registers != nil
		dev.Peripheral = append(dev.Peripheral, p)
	}
	if err := resolveDerived(dev.Peripheral, declared, path); err != nil {
		return nil, err
	}
	return dev, nil
}

// resolveDerived fills derived peripherals from their base.  Anything the
// derived peripheral declares itself wins.
func resolveDerived(all []*PeripheralDef, declared []bool, path string) error {
	byName := make(map[string]int, len(all))
	for i, p := range all {
		byName[p.Name] = i
	}
	done := make([]bool, len(all))
	var resolve func(i int, depth int) error
	resolve = func(i int, depth int) error {
		p := all[i]
		if done[i] || p.DerivedFrom == "" {
			done[i] = true
			return nil
		}
		if depth > len(all) {
			return parseErr(path+"/"+p.Name, fmt.Errorf("derivedFrom cycle through %q", p.DerivedFrom))
		}
		b, ok := byName[p.DerivedFrom]
		if !ok {
			return parseErr(path+"/"+p.Name, fmt.Errorf("%w: %q", ErrUnknownBase, p.DerivedFrom))
		}
		if err := resolve(b, depth+1); err != nil {
			return err
		}
		base := all[b]
		if p.Description == "" {
			p.Description = base.Description
		}
		if p.GroupName == "" {
			p.GroupName = base.GroupName
		}
		if len(p.AddressBlock) == 0 {
			p.AddressBlock = base.AddressBlock
		}
		if !declared[i] {
			p.Register = base.Register
			declared[i] = true
		}
		done[i] = true
		return nil
	}
	for i := range all {
		if err := resolve(i, 0); err != nil {
			return err
		}
	}
	return nil
}

func convertPeripheral(xp *xmlPeripheral, inherited registerProps, path string) (*PeripheralDef, error) {
	if strings.TrimSpace(xp.Name) == "" {
		return nil, parseErr(path, errors.New("peripheral without a name"))
	}
	p := &PeripheralDef{
		Name:        strings.TrimSpace(xp.Name),
		Version:     xp.Version,
		Description: cleanText(xp.Description),
		GroupName:   xp.GroupName,
		DerivedFrom: strings.TrimSpace(xp.DerivedFrom),
	}
	var err error
	if xp.BaseAddress != "" {
		if p.BaseAddress, err = parseInteger(xp.BaseAddress); err != nil {
			return nil, parseErr(path+"/baseAddress", err)
		}
	} else if p.DerivedFrom == "" {
		return nil, parseErr(path, errors.New("missing baseAddress"))
	}
	for _, ab := range xp.AddressBlocks {
		var b AddressBlockDef
		if b.Offset, err = parseInteger(ab.Offset); err != nil {
			return nil, parseErr(path+"/addressBlock/offset", err)
		}
		if b.Size, err = parseInteger(ab.Size); err != nil {
			return nil, parseErr(path+"/addressBlock/size", err)
		}
		b.Usage = ab.Usage
		p.AddressBlock = append(p.AddressBlock, b)
	}
	for _, xi := range xp.Interrupts {
		v, err := parseInteger(xi.Value)
		if err != nil {
			return nil, parseErr(path+"/interrupt/"+xi.Name, err)
		}
		p.Interrupt = append(p.Interrupt, InterruptDef{
			Name:        xi.Name,
			Description: cleanText(xi.Description),
			Value:       int(v),
		})
	}
	props, err := inherited.override(xp.xmlRegisterProps, path)
	if err != nil {
		return nil, err
	}
	if xp.Registers != nil {
		p.Register, err = convertRegisterBlock(xp.Registers.Items, props, "", 0, nil, path)
		if err != nil {
			return nil, err
		}
	}
	return p, nil
}

// convertRegisterBlock flattens clusters into plain registers.  prefix and
// base are the accumulated cluster name and offset.
func convertRegisterBlock(items []xmlRegisterItem, props registerProps, prefix string,
	base uint64, dim *DimDef, path string) ([]*RegisterDef, error) {
	result := []*RegisterDef{}
	byName := map[string]*RegisterDef{} //unprefixed names in this block
	var derived []derivedRegister
	for _, item := range items {
		if c := item.Cluster; c != nil {
			cpath := path + "/" + c.Name
			off, err := parseInteger(c.AddressOffset)
			if err != nil {
				return nil, parseErr(cpath+"/addressOffset", err)
			}
			cdim, err := convertDim(c.xmlDimProps, cpath)
			if err != nil {
				return nil, err
			}
			if cdim == nil {
				cdim = dim
			}
			regs, err := convertRegisterBlock(c.Items, props, prefix+c.Name+"_",
				base+off, cdim, cpath)
			if err != nil {
				return nil, err
			}
			result = append(result, regs...)
			continue
		}
		xr := item.Register
		rpath := path + "/" + xr.Name
		r, err := convertRegister(xr, props, rpath)
		if err != nil {
			return nil, err
		}
		byName[r.Name] = r
		if xr.DerivedFrom != "" {
			derived = append(derived, derivedRegister{r, xr, rpath})
		}
		r.Name = prefix + r.Name
		r.AddressOffset += base
		if r.Dim == nil {
			r.Dim = dim
		}
		result = append(result, r)
	}
	if err := resolveDerivedRegisters(derived, byName); err != nil {
		return nil, err
	}
	return result, nil
}

type derivedRegister struct {
	reg  *RegisterDef
	x    *xmlRegister
	path string
}

// resolveDerivedRegisters fills registers from a base in the same block,
// which may come before or after them.
func resolveDerivedRegisters(derived []derivedRegister, byName map[string]*RegisterDef) error {
	pending := make(map[*RegisterDef]derivedRegister, len(derived))
	for _, d := range derived {
		pending[d.reg] = d
	}
	var resolve func(d derivedRegister, depth int) error
	resolve = func(d derivedRegister, depth int) error {
		if depth > len(derived) {
			return parseErr(d.path, fmt.Errorf("derivedFrom cycle through %q", d.x.DerivedFrom))
		}
		from, ok := byName[d.x.DerivedFrom]
		if !ok {
			return parseErr(d.path, fmt.Errorf("derivedFrom names an unknown register %q", d.x.DerivedFrom))
		}
		if base, ok := pending[from]; ok {
			if err := resolve(base, depth+1); err != nil {
				return err
			}
		}
		if d.reg.Description == "" {
			d.reg.Description = from.Description
		}
		if d.x.Fields == nil {
			d.reg.Field = from.Field
		}
		delete(pending, d.reg)
		return nil
	}
	for _, d := range derived {
		if _, ok := pending[d.reg]; !ok {
			continue
		}
		if err := resolve(d, 0); err != nil {
			return err
		}
	}
	return nil
}

func convertRegister(xr *xmlRegister, inherited registerProps, path string) (*RegisterDef, error) {
	if strings.TrimSpace(xr.Name) == "" {
		return nil, parseErr(path, errors.New("register without a name"))
	}
	props, err := inherited.override(xr.xmlRegisterProps, path)
	if err != nil {
		return nil, err
	}
	r := &RegisterDef{
		Name:        strings.TrimSpace(xr.Name),
		Description: cleanText(xr.Description),
		Size:        props.size,
		Access:      props.access,
		ResetValue:  props.reset,
		ResetMask:   props.mask,
	}
	if r.AddressOffset, err = parseInteger(xr.AddressOffset); err != nil {
		return nil, parseErr(path+"/addressOffset", err)
	}
	if r.Dim, err = convertDim(xr.xmlDimProps, path); err != nil {
		return nil, err
	}
	if xr.Fields != nil {
		for i := range xr.Fields.Field {
			xf := &xr.Fields.Field[i]
			f, err := convertField(xf, path+"/"+xf.Name)
			if err != nil {
				return nil, err
			}
			r.Field = append(r.Field, f)
		}
	}
	return r, nil
}

func convertDim(x xmlDimProps, path string) (*DimDef, error) {
	if strings.TrimSpace(x.Dim) == "" {
		return nil, nil
	}
	count, err := parseInteger(x.Dim)
	if err != nil {
		return nil, parseErr(path+"/dim", err)
	}
	d := &DimDef{Count: int(count)}
	if x.DimIncrement != "" {
		if d.Increment, err = parseInteger(x.DimIncrement); err != nil {
			return nil, parseErr(path+"/dimIncrement", err)
		}
	}
	if d.Index, err = dimIndex(x.DimIndex); err != nil {
		return nil, parseErr(path+"/dimIndex", err)
	}
	return d, nil
}

// dimIndex expands "0-3" to 0,1,2,3 and splits "A,B,C" on commas.
func dimIndex(s string) ([]string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if from, to, ok := strings.Cut(s, "-"); ok && !strings.Contains(s, ",") {
		lo, err := strconv.Atoi(from)
		if err != nil {
			return nil, err
		}
		hi, err := strconv.Atoi(to)
		if err != nil {
			return nil, err
		}
		if hi < lo {
			return nil, fmt.Errorf("descending dimIndex %q", s)
		}
		result := make([]string, 0, hi-lo+1)
		for i := lo; i <= hi; i++ {
			result = append(result, strconv.Itoa(i))
		}
		return result, nil
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts, nil
}

// convertField keeps only the field's own access; a field without one is
// AccessUnspecified even when its register declares an access.
func convertField(xf *xmlField, path string) (*FieldDef, error) {
	f := &FieldDef{
		Name:        strings.TrimSpace(xf.Name),
		Description: cleanText(xf.Description),
	}
	var err error
	switch {
	case xf.BitOffset != "":
		var off uint64
		if off, err = parseInteger(xf.BitOffset); err != nil {
			return nil, parseErr(path+"/bitOffset", err)
		}
		width := uint64(1)
		if xf.BitWidth != "" {
			if width, err = parseInteger(xf.BitWidth); err != nil {
				return nil, parseErr(path+"/bitWidth", err)
			}
		}
		if width == 0 {
			return nil, parseErr(path+"/bitWidth", errors.New("zero width field"))
		}
		f.BitRange, err = BitRange(int(off+width-1), int(off))
	case xf.Lsb != "" || xf.Msb != "":
		var lsb, msb uint64
		if lsb, err = parseInteger(xf.Lsb); err != nil {
			return nil, parseErr(path+"/lsb", err)
		}
		if msb, err = parseInteger(xf.Msb); err != nil {
			return nil, parseErr(path+"/msb", err)
		}
		f.BitRange, err = BitRange(int(msb), int(lsb))
	case xf.BitRange != "":
		f.BitRange, err = parseBitRange(xf.BitRange)
	default:
		err = errors.New("field has no bit position")
	}
	if err != nil {
		return nil, parseErr(path, err)
	}
	if f.Access, err = Access(xf.Access); err != nil {
		return nil, parseErr(path+"/access", err)
	}
	for _, group := range xf.EnumeratedValues {
		for _, xv := range group.Values {
			ev := &EnumeratedValueDef{
				Name:        xv.Name,
				Description: cleanText(xv.Description),
				IsDefault:   parseBool(xv.IsDefault),
			}
			if xv.Value != "" {
				if ev.Value, err = parseInteger(xv.Value); err != nil {
					return nil, parseErr(path+"/enumeratedValue/"+xv.Name, err)
				}
			}
			f.EnumeratedValue = append(f.EnumeratedValue, ev)
		}
	}
	return f, nil
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1":
		return true
	}
	return false
}

// cleanText collapses the indentation that SVD files carry inside their
// multi-line descriptions.
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
