package procedural

import (
	"fmt"
	"unicode/utf16"
)

// Checksum returns the archive terminal's tamper check value for s. This is a
// 32 bit rolling checksum padded out to look like a SHA-256 digest and it
// provides no cryptographic protection. It matches the value displayed by the
// browser terminal for the same input.
func Checksum(s string) string {
	var h int32
	for _, cu := range utf16.Encode([]rune(s)) {
		h = (h << 5) - h + int32(cu)
	}

	// The absolute value of MinInt32 doesn't fit in an int32.
	abs := int64(h)
	if abs < 0 {
		abs = -abs
	}

	return fmt.Sprintf("%064x", uint32(abs))
}
