package emv

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gregLibert/emvcard/pkg/tlv"
)

func TestParseAFL(t *testing.T) {
	entries, err := ParseAFL(tlv.Hex("08 01 03 01", "10 01 01 00"))
	if err != nil {
		t.Fatalf("ParseAFL failed: %v", err)
	}

	want := []AFLEntry{
		{SFI: 1, FirstRecord: 1, LastRecord: 3, OfflineAuthRecords: 1},
		{SFI: 2, FirstRecord: 1, LastRecord: 1, OfflineAuthRecords: 0},
	}
	if diff := cmp.Diff(want, entries); diff != "" {
		t.Errorf("Entries mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff([]byte{1, 2, 3}, entries[0].Records()); diff != "" {
		t.Errorf("Records mismatch (-want +got):\n%s", diff)
	}

	wantReport := "=== APPLICATION FILE LOCATOR ===\n" +
		"    - SFI 1: records 1-3 (1 for ODA)\n" +
		"    - SFI 2: records 1-1 (0 for ODA)"
	if diff := cmp.Diff(wantReport, DescribeAFL(entries)); diff != "" {
		t.Errorf("Report mismatch (-want +got):\n%s", diff)
	}
}

func TestParseAFL_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
	}{
		{"Empty", nil},
		{"Not a multiple of 4", tlv.Hex("08 01 03")},
		{"Reserved bits set", tlv.Hex("09 01 03 01")},
		{"SFI zero", tlv.Hex("00 01 03 01")},
		{"SFI 31", tlv.Hex("F8 01 03 01")},
		{"First record zero", tlv.Hex("08 00 03 01")},
		{"Last before first", tlv.Hex("08 03 01 00")},
		{"Too many ODA records", tlv.Hex("08 01 02 03")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseAFL(tt.input); err == nil {
				t.Errorf("Expected error for %X", tt.input)
			}
		})
	}
}
