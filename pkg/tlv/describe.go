package tlv

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/moov-io/bertlv"
)

// WriteStructFields appends the lines produced by FieldLines to sb. Lines are
// joined without a trailing newline; a separating newline is written first when
// sb already holds text.
func WriteStructFields(sb *strings.Builder, prefix string, s interface{}) {
	lines := FieldLines(prefix, s)
	if len(lines) == 0 {
		return
	}
	if sb.Len() > 0 {
		sb.WriteByte('\n')
	}
	sb.WriteString(strings.Join(lines, "\n"))
}

// FieldLines renders one "    - Prefix.Field (tag): value" line per present
// byte slice field of s, followed by the leftover objects of its Unknown field.
// Nil fields are skipped and empty ones are shown as "(empty)".
func FieldLines(prefix string, s interface{}) []string {
	v, ok := structValue(reflect.ValueOf(s))
	if !ok {
		return nil
	}

	var lines []string
	for _, b := range bindingsOf(v.Type()) {
		fv := v.Field(b.index)
		switch {
		case isByteSlice(fv):
			if fv.IsNil() {
				continue
			}
			lines = append(lines, fmt.Sprintf("    - %s.%s: %s", prefix, b.label(), formatValue(fv.Bytes(), b.format)))

		case fv.Type() == packetsType:
			for _, p := range fv.Interface().([]bertlv.TLV) {
				lines = append(lines, fmt.Sprintf("    - %s.Unknown Tag %s: %X", prefix, p.Tag, p.Value))
			}
		}
	}
	return lines
}

func formatValue(data []byte, format string) string {
	if len(data) == 0 {
		return "(empty)"
	}
	switch format {
	case "ascii":
		return fmt.Sprintf("%X (%q)", data, PrintableASCII(data))
	case "int":
		n := 0
		for _, b := range data {
			n = n<<8 | int(b)
		}
		return fmt.Sprintf("%X (Dec: %d)", data, n)
	default:
		return fmt.Sprintf("%X", data)
	}
}

// PrintableASCII replaces every byte outside 0x20-0x7E with a dot.
func PrintableASCII(data []byte) string {
	out := make([]byte, len(data))
	for i, b := range data {
		if b < 0x20 || b > 0x7E {
			b = '.'
		}
		out[i] = b
	}
	return string(out)
}
