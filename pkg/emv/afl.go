package emv

import (
	"fmt"
	"strings"

	"github.com/gregLibert/emvcard/pkg/bits"
)

// APPLICATION FILE LOCATOR (Tag '94') according to EMV Book 3, section 10.2.
//
// The AFL is a list of 4-byte entries, each naming a range of records the
// terminal has to read during application initiation:
//   - Byte 1: SFI on bits 8-4 (bits 3-1 are zero)
//   - Byte 2: first record number (never 0)
//   - Byte 3: last record number (>= first)
//   - Byte 4: number of records, starting with the first, involved in offline data authentication

// AFLEntry is one 4-byte entry of the Application File Locator.
type AFLEntry struct {
	SFI                byte
	FirstRecord        byte
	LastRecord         byte
	OfflineAuthRecords byte
}

// ParseAFL decodes and validates an Application File Locator.
func ParseAFL(data []byte) ([]AFLEntry, error) {
	if len(data) == 0 || len(data)%4 != 0 {
		return nil, fmt.Errorf("AFL length %d is not a non-zero multiple of 4", len(data))
	}

	entries := make([]AFLEntry, 0, len(data)/4)
	for i := 0; i < len(data); i += 4 {
		e := AFLEntry{
			SFI:                bits.GetRange(data[i], 8, 4),
			FirstRecord:        data[i+1],
			LastRecord:         data[i+2],
			OfflineAuthRecords: data[i+3],
		}

		if bits.GetRange(data[i], 3, 1) != 0 {
			return nil, fmt.Errorf("AFL entry %d: reserved bits set in %02X", i/4+1, data[i])
		}
		if e.SFI < 1 || e.SFI > 30 {
			return nil, fmt.Errorf("AFL entry %d: SFI %d out of range 1-30", i/4+1, e.SFI)
		}
		if e.FirstRecord == 0 || e.LastRecord < e.FirstRecord {
			return nil, fmt.Errorf("AFL entry %d: invalid record range %d-%d", i/4+1, e.FirstRecord, e.LastRecord)
		}
		if int(e.OfflineAuthRecords) > int(e.LastRecord-e.FirstRecord)+1 {
			return nil, fmt.Errorf("AFL entry %d: %d offline authentication records exceed range", i/4+1, e.OfflineAuthRecords)
		}

		entries = append(entries, e)
	}

	return entries, nil
}

// Records returns the record numbers covered by the entry, in order.
func (e AFLEntry) Records() []byte {
	var out []byte
	for r := int(e.FirstRecord); r <= int(e.LastRecord); r++ {
		out = append(out, byte(r))
	}
	return out
}

// String returns a compact description such as "SFI 1: records 1-3 (1 for ODA)".
func (e AFLEntry) String() string {
	return fmt.Sprintf("SFI %d: records %d-%d (%d for ODA)", e.SFI, e.FirstRecord, e.LastRecord, e.OfflineAuthRecords)
}

// DescribeAFL generates a report of all AFL entries.
func DescribeAFL(entries []AFLEntry) string {
	var sb strings.Builder
	sb.WriteString("=== APPLICATION FILE LOCATOR ===")
	for _, e := range entries {
		sb.WriteString("\n    - " + e.String())
	}
	return sb.String()
}
