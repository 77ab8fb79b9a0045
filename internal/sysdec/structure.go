package sysdec

// DeviceDef is the root of a parsed system description.  Peripherals are
// kept in the order the description declares them.
type DeviceDef struct {
	Vendor          string
	VendorID        string
	Name            string
	Series          string
	Version         string
	Description     string
	LicenseText     string
	Cpu             *CPUDef //nil if the description has no <cpu>
	AddressUnitBits int
	Width           int
	Peripheral      []*PeripheralDef
	SourceFilename  string //the file this was parsed from, if any
}

type CPUDef struct {
	Name                string
	Revision            string
	Endian              string
	MPUPresent          bool
	FPUPresent          bool
	DeviceNumInterrupts int
}

type PeripheralDef struct {
	Name         string
	Version      string
	Description  string
	GroupName    string
	DerivedFrom  string //name of the peripheral this one was copied from
	BaseAddress  uint64
	AddressBlock []AddressBlockDef
	Interrupt    []InterruptDef
	Register     []*RegisterDef
}

type AddressBlockDef struct {
	Offset uint64
	Size   uint64
	Usage  string
}

type InterruptDef struct {
	Name        string
	Description string
	Value       int
}

// RegisterDef is either a single register or an array of identical
// registers.  Dim is nil for the single case.
type RegisterDef struct {
	Name          string //may contain a %s placeholder when Dim != nil
	Description   string
	AddressOffset uint64
	Size          int //in bits
	Access        AccessMode
	ResetValue    uint64
	ResetMask     uint64
	Dim           *DimDef
	Field         []*FieldDef
}

// DimDef describes the replication of an array register.
type DimDef struct {
	Count     int
	Increment uint64
	Index     []string //explicit dimIndex values, if any
}

// IsArray reports whether r is an array register.
func (r *RegisterDef) IsArray() bool {
	return r.Dim != nil
}

// ArrayCount is the number of elements of an array register, 0 for a
// single register.
func (r *RegisterDef) ArrayCount() int {
	if r.Dim == nil {
		return 0
	}
	return r.Dim.Count
}

// Fields returns the bitfields of the register regardless of whether it is
// an array or not.
func (r *RegisterDef) Fields() []*FieldDef {
	return r.Field
}

type FieldDef struct {
	Name            string
	Description     string
	BitRange        BitRangeDef
	Access          AccessMode
	EnumeratedValue []*EnumeratedValueDef
}

func (f *FieldDef) BitOffset() int {
	return f.BitRange.Lsb
}

func (f *FieldDef) BitWidth() int {
	return f.BitRange.Width()
}

type EnumeratedValueDef struct {
	Name        string
	Description string
	Value       uint64
	IsDefault   bool
}
