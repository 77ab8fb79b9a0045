package sysdec

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// AccessMode is the read/write capability of a register or field.  The
// zero value means the description did not say.
type AccessMode int

const (
	AccessUnspecified AccessMode = iota
	AccessReadOnly
	AccessReadWrite
	AccessReadWriteOnce
	AccessWriteOnce
	AccessWriteOnly
)

func (a AccessMode) CanRead() bool {
	switch a {
	case AccessReadOnly, AccessReadWrite, AccessReadWriteOnce:
		return true
	}
	return false
}

func (a AccessMode) CanWrite() bool {
	switch a {
	case AccessReadWrite, AccessReadWriteOnce, AccessWriteOnce, AccessWriteOnly:
		return true
	}
	return false
}

func (a AccessMode) IsSet() bool {
	return a != AccessUnspecified
}

// String returns the SVD spelling of the access mode.
func (a AccessMode) String() string {
	switch a {
	case AccessReadOnly:
		return "read-only"
	case AccessReadWrite:
		return "read-write"
	case AccessReadWriteOnce:
		return "read-writeOnce"
	case AccessWriteOnce:
		return "writeOnce"
	case AccessWriteOnly:
		return "write-only"
	}
	return ""
}

// Access converts the text of an <access> element.  The short forms r, w
// and rw are accepted as well.
func Access(s string) (AccessMode, error) {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	switch s {
	case "": //not set
		return AccessUnspecified, nil
	case "r", "read-only":
		return AccessReadOnly, nil
	case "w", "write-only":
		return AccessWriteOnly, nil
	case "rw", "read-write":
		return AccessReadWrite, nil
	case "writeonce":
		return AccessWriteOnce, nil
	case "read-writeonce":
		return AccessReadWriteOnce, nil
	}
	return AccessUnspecified, fmt.Errorf("unable to understand access value %q", s)
}

// BitRangeDef is the closed range of bits [Lsb, Msb] a field occupies.
type BitRangeDef struct {
	Lsb int
	Msb int
}

func (b BitRangeDef) String() string {
	return fmt.Sprintf("[%d:%d]", b.Msb, b.Lsb)
}

func (b BitRangeDef) Width() int {
	return (b.Msb - b.Lsb) + 1
}

var errBitRange = errors.New("bit range out of order or negative")

func BitRange(msb int, lsb int) (BitRangeDef, error) {
	if msb < 0 || lsb < 0 || msb < lsb {
		return BitRangeDef{}, fmt.Errorf("%w: msb=%d lsb=%d", errBitRange, msb, lsb)
	}
	return BitRangeDef{Msb: msb, Lsb: lsb}, nil
}

// parseBitRange reads the "[msb:lsb]" form of a <bitRange> element.
func parseBitRange(s string) (BitRangeDef, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "[") || !strings.HasSuffix(s, "]") {
		return BitRangeDef{}, fmt.Errorf("bitRange %q is not of the form [msb:lsb]", s)
	}
	msbText, lsbText, ok := strings.Cut(s[1:len(s)-1], ":")
	if !ok {
		return BitRangeDef{}, fmt.Errorf("bitRange %q is not of the form [msb:lsb]", s)
	}
	msb, err := strconv.Atoi(strings.TrimSpace(msbText))
	if err != nil {
		return BitRangeDef{}, fmt.Errorf("bitRange %q: %w", s, err)
	}
	lsb, err := strconv.Atoi(strings.TrimSpace(lsbText))
	if err != nil {
		return BitRangeDef{}, fmt.Errorf("bitRange %q: %w", s, err)
	}
	return BitRange(msb, lsb)
}

// parseInteger reads an SVD scaledNonNegativeInteger: decimal, 0x hex,
// 0b or # binary, optionally followed by a k, M, G or T multiplier.
func parseInteger(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("empty number")
	}
	mult := uint64(1)
	isHex := strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X")
	if !isHex {
		switch s[len(s)-1] {
		case 'k', 'K':
			mult = 1 << 10
		case 'm', 'M':
			mult = 1 << 20
		case 'g', 'G':
			mult = 1 << 30
		case 't', 'T':
			mult = 1 << 40
		}
		if mult != 1 {
			s = s[:len(s)-1]
		}
	}
	var v uint64
	var err error
	switch {
	case strings.HasPrefix(s, "#"):
		//don't care bits (x) read as zero
		digits := strings.NewReplacer("x", "0", "X", "0").Replace(s[1:])
		v, err = strconv.ParseUint(digits, 2, 64)
	case strings.HasPrefix(s, "0b"), strings.HasPrefix(s, "0B"):
		v, err = strconv.ParseUint(s[2:], 2, 64)
	case isHex:
		v, err = strconv.ParseUint(s[2:], 16, 64)
	default:
		v, err = strconv.ParseUint(s, 10, 64)
	}
	if err != nil {
		return 0, fmt.Errorf("bad number %q: %w", s, err)
	}
	return v * mult, nil
}
