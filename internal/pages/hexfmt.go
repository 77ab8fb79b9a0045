package pages

import (
	"fmt"

	"golang.org/x/exp/constraints"
)

// hexText renders v as 0x followed by at least digits lower case hex
// digits.
func hexText[T constraints.Unsigned](v T, digits int) string {
	return fmt.Sprintf("0x%0*x", digits, uint64(v))
}

func addressText[T constraints.Unsigned](v T) string {
	return hexText(v, 8)
}

func offsetText[T constraints.Unsigned](v T) string {
	return hexText(v, 4)
}

// resetText pads the reset value to the register's size.
func resetText(v uint64, sizeBits int) string {
	digits := (sizeBits + 3) / 4
	if digits <= 0 {
		digits = 8
	}
	return hexText(v, digits)
}
