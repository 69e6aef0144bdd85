package card

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gregLibert/emvcard/pkg/emv"
	"github.com/gregLibert/emvcard/pkg/tlv"
)

var (
	referenceFCI = tlv.Hex(
		"6F 26",
		"84 08 A000000002030405",
		"A5 15",
		"50 0E 46494E5445434820444556434F4E",
		"87 01 00",
		"5F2D 02 656E",
	)

	referenceRecords = map[byte][]byte{
		1: tlv.Hex(
			"70 77",
			"8C 21 9F0206 9F0306 9F1A02 9505 5F2A02 9A03 9C01 9F3704 9F3501 9F4502 9F4C08 9F3403",
			"8D 0C 910A 8A02 9505 9F3704 9F4C08",
			"5A 08 7000000000000070",
			"5F34 01 01",
			"5F24 02 3004",
			"5F20 11 446176696420576164652041726E6F6C64",
			"8E 0A 00000000000000000100",
			"9F55 01 01",
			"9F56 0C 00007FFFFFE0000000000000",
		),
		2: tlv.Hex("70 09", "8F 00", "90 00", "92 00", "9F32 00"),
		3: tlv.Hex("70 0F", "9F46 00", "9F47 00", "9F48 00", "9F49 03 9F3704"),
	}
)

func TestStaticDataStore_SelectionInfo(t *testing.T) {
	store := NewStaticDataStore()

	fci := store.SelectionInfo()
	if diff := cmp.Diff(referenceFCI, fci); diff != "" {
		t.Errorf("FCI mismatch (-want +got):\n%s", diff)
	}
	if len(fci) != 0x26 {
		t.Errorf("FCI length = %d, want 38", len(fci))
	}

	// Callers get a copy.
	fci[0] = 0x00
	if store.SelectionInfo()[0] != 0x6F {
		t.Error("SelectionInfo exposed the internal buffer")
	}
}

func TestStaticDataStore_SelectionInfoContent(t *testing.T) {
	fci, err := emv.ParseFCI(DefaultStore().SelectionInfo())
	if err != nil {
		t.Fatalf("ParseFCI failed: %v", err)
	}

	want := &emv.FCI{
		DFName: ApplicationIdentifier,
		Proprietary: emv.FCIProprietary{
			ApplicationLabel:   []byte(ApplicationLabel),
			PriorityIndicator:  []byte{0x00},
			LanguagePreference: []byte(LanguagePreference),
		},
		LengthsRepaired: true,
	}
	if diff := cmp.Diff(want, fci); diff != "" {
		t.Errorf("FCI content mismatch (-want +got):\n%s", diff)
	}
}

func TestStaticDataStore_ControlValues(t *testing.T) {
	store := DefaultStore()

	if got := store.ApplicationInterchangeProfile(); got != 0x5800 {
		t.Errorf("AIP = %04X, want 5800", got)
	}

	aip := emv.AIP(store.ApplicationInterchangeProfile())
	if !aip.SDASupported() || !aip.CardholderVerificationSupported() || !aip.TerminalRiskManagementRequired() {
		t.Errorf("AIP %04X does not announce SDA, CVM and TRM", uint16(aip))
	}
	if aip.DDASupported() || aip.CDASupported() {
		t.Errorf("AIP %04X announces dynamic authentication", uint16(aip))
	}

	if diff := cmp.Diff(tlv.Hex("08 01 03 01"), store.ApplicationFileLocator()); diff != "" {
		t.Errorf("AFL mismatch (-want +got):\n%s", diff)
	}

	if got := store.CDOLLength(CDOL1); got != 0x2B {
		t.Errorf("CDOL1 length = %02X, want 2B", got)
	}
	if got := store.CDOLLength(CDOL2); got != 0x1D {
		t.Errorf("CDOL2 length = %02X, want 1D", got)
	}
	if got := store.CDOLLength(CDOL(9)); got != 0 {
		t.Errorf("unknown CDOL length = %d, want 0", got)
	}
}

func TestStaticDataStore_AFLCoversCatalog(t *testing.T) {
	store := DefaultStore()

	entries, err := emv.ParseAFL(store.ApplicationFileLocator())
	if err != nil {
		t.Fatalf("ParseAFL failed: %v", err)
	}

	var fromAFL []FileAddress
	for _, e := range entries {
		for _, r := range e.Records() {
			fromAFL = append(fromAFL, FileAddress{SFI: e.SFI, Record: r})
		}
	}

	if diff := cmp.Diff(store.Addresses(), fromAFL); diff != "" {
		t.Errorf("AFL does not match catalog (-catalog +afl):\n%s", diff)
	}
}

func TestStaticDataStore_CDOLLengthsMatchServedLists(t *testing.T) {
	store := DefaultStore()

	rec, ok := store.Record(FileAddress{SFI: 1, Record: 1})
	if !ok {
		t.Fatal("record 1 missing")
	}
	parsed, err := emv.ParseRecord(rec)
	if err != nil {
		t.Fatalf("ParseRecord failed: %v", err)
	}

	tests := []struct {
		which CDOL
		list  []byte
	}{
		{CDOL1, parsed.CDOL1},
		{CDOL2, parsed.CDOL2},
	}

	for _, tt := range tests {
		t.Run(tt.which.String(), func(t *testing.T) {
			dol, err := emv.ParseDOL(tt.list)
			if err != nil {
				t.Fatalf("ParseDOL failed: %v", err)
			}
			if got := uint16(dol.DataLength()); got != store.CDOLLength(tt.which) {
				t.Errorf("served list needs %d bytes, store announces %d", got, store.CDOLLength(tt.which))
			}
		})
	}
}

func TestStaticDataStore_Records(t *testing.T) {
	store := DefaultStore()

	for number, want := range referenceRecords {
		rec, ok := store.Record(FileAddress{SFI: 1, Record: number})
		if !ok {
			t.Errorf("record %d missing", number)
			continue
		}
		if diff := cmp.Diff(want, rec.Bytes()); diff != "" {
			t.Errorf("record %d mismatch (-want +got):\n%s", number, diff)
		}
		if rec.Tag() != 0x70 {
			t.Errorf("record %d tag = %02X, want 70", number, rec.Tag())
		}
		if len(rec.Payload()) != int(rec[1]) {
			t.Errorf("record %d declares %d bytes, carries %d", number, rec[1], len(rec.Payload()))
		}
	}

	if _, ok := store.Record(FileAddress{SFI: 1, Record: 4}); ok {
		t.Error("record 4 should not exist")
	}
}

func TestStaticDataStore_PlaceholdersStayEmpty(t *testing.T) {
	store := DefaultStore()

	rec2, _ := store.Record(FileAddress{SFI: 1, Record: 2})
	parsed, err := emv.ParseRecord(rec2)
	if err != nil {
		t.Fatalf("ParseRecord failed: %v", err)
	}

	slots := map[string][]byte{
		"8F":   parsed.CAPublicKeyIndex,
		"90":   parsed.IssuerPublicKeyCertificate,
		"92":   parsed.IssuerPublicKeyRemainder,
		"9F32": parsed.IssuerPublicKeyExponent,
	}
	for tag, value := range slots {
		if value == nil || len(value) != 0 {
			t.Errorf("tag %s = %#v, want present and empty", tag, value)
		}
	}
}
