package dump

import (
	"strings"
	"testing"

	"svddoc/internal/sysdec"
)

func testDevice() *sysdec.DeviceDef {
	return &sysdec.DeviceDef{
		Name: "DEV",
		Peripheral: []*sysdec.PeripheralDef{{
			Name:        "TIMER0",
			Description: "General purpose timer",
			BaseAddress: 0x40001000,
			Register: []*sysdec.RegisterDef{{
				Name:          "CH%s",
				AddressOffset: 0x4,
				Dim:           &sysdec.DimDef{Count: 2},
				Field: []*sysdec.FieldDef{{
					Name:     "MODE",
					BitRange: sysdec.BitRangeDef{Lsb: 4, Msb: 7},
					Access:   sysdec.AccessWriteOnly,
				}},
			}},
		}},
	}
}

func TestWrite(t *testing.T) {
	var b strings.Builder
	if err := Write(&b, testDevice(), 200, "%s"); err != nil {
		t.Fatal(err)
	}
	expected := "TIMER0 0x40001000\n" +
		"  General purpose timer\n" +
		"  CH<0..2> 0x0004 0x40001004\n" +
		"    [31 - 8 reserved][7 - 4 MODE W][3 - 0 reserved]\n" +
		"\n"
	if b.String() != expected {
		t.Errorf("expected\n%s\nbut got\n%s", expected, b.String())
	}
}

func TestWriteWraps(t *testing.T) {
	var b strings.Builder
	if err := Write(&b, testDevice(), 30, "%s"); err != nil {
		t.Fatal(err)
	}
	for _, line := range strings.Split(b.String(), "\n") {
		if displayWidth(line) > 30 {
			t.Errorf("line too long: %q", line)
		}
	}
	if !strings.Contains(b.String(), "    [7 - 4 MODE W]\n") {
		t.Errorf("expected the MODE cell on its own line:\n%s", b.String())
	}
}

func TestDisplayWidth(t *testing.T) {
	if displayWidth("abc") != 3 {
		t.Errorf("ascii width wrong")
	}
	if displayWidth("タイマ") != 6 {
		t.Errorf("wide runes should count twice, got %d", displayWidth("タイマ"))
	}
}

func TestWrapWide(t *testing.T) {
	var b strings.Builder
	wrap(&b, "タイマ タイマ", "", 8)
	if b.String() != "タイマ\nタイマ\n" {
		t.Errorf("wide words should not share an 8 column line: %q", b.String())
	}
}
