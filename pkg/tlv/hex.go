package tlv

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// Hex decodes hexadecimal fragments into bytes. Whitespace inside or between
// fragments is ignored, so "9F37 04" and "9F3704" are equivalent. It panics on
// malformed input and is meant for static tables and fixtures.
func Hex(parts ...string) []byte {
	digits := strings.Join(strings.Fields(strings.Join(parts, " ")), "")
	data, err := hex.DecodeString(digits)
	if err != nil {
		panic(fmt.Sprintf("tlv: invalid hex %q: %v", digits, err))
	}
	return data
}
