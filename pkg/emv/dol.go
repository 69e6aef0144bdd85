package emv

import (
	"fmt"
	"strings"
)

// DATA OBJECT LIST (DOL) according to EMV Book 3, section 5.4.
//
// A DOL (CDOL1 '8C', CDOL2 '8D', PDOL '9F38', DDOL '9F49') is a concatenation
// of tag/length pairs without values. The terminal answers with the values
// concatenated in the same order, so the data length is the sum of lengths.

// DOLEntry is one tag/length pair of a Data Object List.
type DOLEntry struct {
	Tag    string
	Length int
}

// DOL is an ordered Data Object List.
type DOL []DOLEntry

// ParseDOL decodes a Data Object List.
func ParseDOL(data []byte) (DOL, error) {
	var dol DOL

	for i := 0; i < len(data); {
		tag, length, next, err := readHeader(data, i)
		if err != nil {
			return nil, err
		}
		dol = append(dol, DOLEntry{Tag: tag, Length: length})
		i = next
	}

	return dol, nil
}

// readHeader decodes the BER tag and length starting at data[i] and returns the
// offset of the value. Tags follow the BER rules: a first byte with bits 5-1 set
// announces subsequent bytes, each continued while bit 8 is set. Lengths use the
// short form or the long form with up to two bytes.
func readHeader(data []byte, i int) (tag string, length, next int, err error) {
	start := i
	if data[i]&0x1F == 0x1F {
		i++
		for i < len(data) && data[i]&0x80 != 0 {
			i++
		}
	}
	i++
	if i > len(data) {
		return "", 0, 0, fmt.Errorf("truncated tag at offset %d", start)
	}
	tag = fmt.Sprintf("%X", data[start:i])

	if i >= len(data) {
		return "", 0, 0, fmt.Errorf("missing length for tag %s", tag)
	}

	length = int(data[i])
	i++
	if length&0x80 != 0 {
		n := length & 0x7F
		if n == 0 || n > 2 || i+n > len(data) {
			return "", 0, 0, fmt.Errorf("invalid length encoding for tag %s", tag)
		}
		length = 0
		for _, b := range data[i : i+n] {
			length = length<<8 | int(b)
		}
		i += n
	}

	return tag, length, i, nil
}

// DataLength returns the number of bytes the terminal must supply for the list.
func (d DOL) DataLength() int {
	total := 0
	for _, e := range d {
		total += e.Length
	}
	return total
}

// Describe lists the requested data objects with their lengths.
func (d DOL) Describe() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("=== DATA OBJECT LIST [%d bytes] ===", d.DataLength()))
	for _, e := range d {
		sb.WriteString(fmt.Sprintf("\n    - %s (%d)", e.Tag, e.Length))
	}
	return sb.String()
}
