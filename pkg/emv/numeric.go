package emv

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// EMV numeric formats (Book 3, section 4.3):
//   - n:  BCD digits, right justified, left padded with zeros.
//   - cn: BCD digits, left justified, right padded with 'F' nibbles (e.g. the PAN).

// DecodeCompressedNumeric decodes a 'cn' value, dropping the trailing 'F' padding.
func DecodeCompressedNumeric(data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("empty compressed numeric value")
	}

	digits := strings.TrimRight(strings.ToUpper(hex.EncodeToString(data)), "F")
	for _, d := range digits {
		if d < '0' || d > '9' {
			return "", fmt.Errorf("invalid digit %q in compressed numeric %X", d, data)
		}
	}
	return digits, nil
}

// DecodeBCD decodes a single 'n' byte holding two digits.
func DecodeBCD(b byte) (int, error) {
	hi, lo := b>>4, b&0x0F
	if hi > 9 || lo > 9 {
		return 0, fmt.Errorf("invalid BCD byte %02X", b)
	}
	return int(hi)*10 + int(lo), nil
}

// DecodeDate decodes a YYMM or YYMMDD date (e.g. tag 5F24) and returns its
// year and month. Years are interpreted in the 2000-2099 range.
func DecodeDate(data []byte) (year, month int, err error) {
	if len(data) != 2 && len(data) != 3 {
		return 0, 0, fmt.Errorf("date must be 2 or 3 bytes, got %d", len(data))
	}

	yy, err := DecodeBCD(data[0])
	if err != nil {
		return 0, 0, fmt.Errorf("year: %w", err)
	}
	mm, err := DecodeBCD(data[1])
	if err != nil {
		return 0, 0, fmt.Errorf("month: %w", err)
	}
	if mm < 1 || mm > 12 {
		return 0, 0, fmt.Errorf("month %d out of range", mm)
	}

	return 2000 + yy, mm, nil
}
