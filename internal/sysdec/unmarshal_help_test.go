package sysdec

import "testing"

func TestAccess(t *testing.T) {
	good := map[string]AccessMode{
		"":               AccessUnspecified,
		"read-only":      AccessReadOnly,
		" Read-Write ":   AccessReadWrite,
		"read-writeOnce": AccessReadWriteOnce,
		"writeOnce":      AccessWriteOnce,
		"write-only":     AccessWriteOnly,
		"r":              AccessReadOnly,
		"w":              AccessWriteOnly,
		"rw":             AccessReadWrite,
	}
	for text, expected := range good {
		a, err := Access(text)
		if err != nil {
			t.Errorf("%q: unexpected error %v", text, err)
			continue
		}
		if a != expected {
			t.Errorf("%q: expected %v but got %v", text, expected, a)
		}
	}
	if _, err := Access("x"); err == nil {
		t.Errorf("expected an error for an unknown access value")
	}
}

func TestAccessCapabilities(t *testing.T) {
	if !AccessReadOnly.CanRead() || AccessReadOnly.CanWrite() {
		t.Errorf("read-only capabilities wrong")
	}
	if AccessWriteOnce.CanRead() || !AccessWriteOnce.CanWrite() {
		t.Errorf("writeOnce capabilities wrong")
	}
	if AccessUnspecified.IsSet() || AccessUnspecified.CanRead() || AccessUnspecified.CanWrite() {
		t.Errorf("unspecified should have no capabilities")
	}
	if AccessReadWriteOnce.String() != "read-writeOnce" {
		t.Errorf("unexpected name %q", AccessReadWriteOnce.String())
	}
}

func TestBitRange(t *testing.T) {
	b, err := BitRange(7, 4)
	if err != nil {
		t.Fatal(err)
	}
	if b.Width() != 4 || b.String() != "[7:4]" {
		t.Errorf("got width %d and %s", b.Width(), b)
	}
	if _, err := BitRange(3, 4); err == nil {
		t.Errorf("msb < lsb should fail")
	}
	if _, err := BitRange(-1, 0); err == nil {
		t.Errorf("negative msb should fail")
	}
	b, err = parseBitRange("[ 31 : 0 ]")
	if err != nil || b.Width() != 32 {
		t.Errorf("parseBitRange: %v %v", b, err)
	}
	for _, bad := range []string{"31:0", "[31]", "[a:0]"} {
		if _, err := parseBitRange(bad); err == nil {
			t.Errorf("%q should not parse", bad)
		}
	}
}

func TestParseInteger(t *testing.T) {
	good := map[string]uint64{
		"42":         42,
		"010":        10,
		"0x40001000": 0x40001000,
		"0XfF":       0xff,
		"#101":       5,
		"#1x1":       5,
		"0b11":       3,
		"4k":         4096,
		"1M":         1 << 20,
	}
	for text, expected := range good {
		v, err := parseInteger(text)
		if err != nil {
			t.Errorf("%q: unexpected error %v", text, err)
			continue
		}
		if v != expected {
			t.Errorf("%q: expected %d but got %d", text, expected, v)
		}
	}
	for _, bad := range []string{"", "0x", "12q", "#2"} {
		if _, err := parseInteger(bad); err == nil {
			t.Errorf("%q should not parse", bad)
		}
	}
}
