// Package card implements the application layer of a contact EMV payment card:
// a fixed catalog of data objects, the READ RECORD address resolution, the
// response framing and the dispatch of already classified commands.
//
// The package has no transport concerns. The host runtime (see pkg/host)
// parses APDUs, classifies them and encodes status words.
package card

import (
	"fmt"

	"github.com/gregLibert/emvcard/pkg/bits"
	"github.com/gregLibert/emvcard/pkg/emv"
	"github.com/gregLibert/emvcard/pkg/tlv"
)

// CDOL selects one of the two Card Risk Management Data Object Lists.
type CDOL int

const (
	CDOL1 CDOL = iota + 1
	CDOL2
)

func (c CDOL) String() string {
	switch c {
	case CDOL1:
		return "CDOL1"
	case CDOL2:
		return "CDOL2"
	default:
		return fmt.Sprintf("CDOL(%d)", int(c))
	}
}

// DataObjectRecord is one TLV framed READ RECORD response body: a one-byte
// template tag, a one-byte length and the nested data objects.
type DataObjectRecord []byte

// Len returns the total encoded length, header included.
func (r DataObjectRecord) Len() int {
	return len(r)
}

// Tag returns the outer template tag.
func (r DataObjectRecord) Tag() byte {
	if len(r) == 0 {
		return 0
	}
	return r[0]
}

// Payload returns the bytes following the two-byte header.
func (r DataObjectRecord) Payload() []byte {
	if len(r) < 2 {
		return nil
	}
	return r[2:]
}

// Bytes returns a copy of the record.
func (r DataObjectRecord) Bytes() []byte {
	return append([]byte(nil), r...)
}

// Application constants of the reference card.
var (
	ApplicationIdentifier = []byte{0xA0, 0x00, 0x00, 0x00, 0x02, 0x03, 0x04, 0x05}
	ApplicationLabel      = "FINTECH DEVCON"
	LanguagePreference    = "en"
)

const (
	// ApplicationSFI is the only elementary file served by the card.
	ApplicationSFI byte = 1

	// AIP byte 1: SDA (bit 7), cardholder verification (bit 5), terminal risk management (bit 4).
	applicationInterchangeProfile uint16 = 0x5800

	cdol1DataLength uint16 = 0x2B
	cdol2DataLength uint16 = 0x1D

	// Largest payload expressible with a short form BER length byte.
	maxShortFormLength = 0x7F
)

// StaticDataStore owns the immutable catalog. It is built once and only read
// afterwards, so a single instance can be shared freely.
type StaticDataStore struct {
	fci     []byte
	aip     uint16
	afl     []byte
	cdols   map[CDOL]uint16
	records map[FileAddress]DataObjectRecord
	order   []FileAddress
}

var defaultStore = NewStaticDataStore()

// DefaultStore returns the store built at package initialization.
func DefaultStore() *StaticDataStore {
	return defaultStore
}

// selectionInfo is the FCI exactly as issued. Its declared lengths ('6F 26',
// 'A5 15') do not match the content; terminals accept it as is, so it is served
// byte for byte.
var selectionInfo = tlv.Hex(
	"6F 26",
	"84 08 A000000002030405",
	"A5 15",
	"50 0E 46494E5445434820444556434F4E",
	"87 01 00",
	"5F2D 02 656E",
)

// NewStaticDataStore builds the reference catalog. Every record length is
// computed by the BER-TLV encoder from its content.
//
// It panics if the catalog cannot be encoded, which can only result from a
// change to the constants below.
func NewStaticDataStore() *StaticDataStore {
	s := &StaticDataStore{
		fci: append([]byte(nil), selectionInfo...),
		aip: applicationInterchangeProfile,
		afl: []byte{
			bits.SetRange(0, 8, 4, ApplicationSFI), // SFI 1
			0x01,                                   // first record
			0x03,                                   // last record
			0x01,                                   // records involved in offline data authentication
		},
		cdols: map[CDOL]uint16{
			CDOL1: cdol1DataLength,
			CDOL2: cdol2DataLength,
		},
		records: make(map[FileAddress]DataObjectRecord),
	}

	for _, entry := range catalog() {
		data, err := entry.record.Bytes()
		if err != nil {
			panic(fmt.Sprintf("card: encoding %s: %v", entry.addr, err))
		}
		mustFitShortForm(entry.addr.String(), data)

		s.records[entry.addr] = DataObjectRecord(data)
		s.order = append(s.order, entry.addr)
	}

	return s
}

type catalogEntry struct {
	addr   FileAddress
	record *emv.Record
}

// catalog lists the records of the application file. Zero length values are
// placeholders for offline data authentication material.
func catalog() []catalogEntry {
	return []catalogEntry{
		{
			addr: FileAddress{SFI: ApplicationSFI, Record: 1},
			record: &emv.Record{
				CDOL1: tlv.Hex(
					"9F02 06", "9F03 06", "9F1A 02", "95 05", "5F2A 02", "9A 03",
					"9C 01", "9F37 04", "9F35 01", "9F45 02", "9F4C 08", "9F34 03",
				),
				CDOL2:               tlv.Hex("91 0A", "8A 02", "95 05", "9F37 04", "9F4C 08"),
				PAN:                 tlv.Hex("70 00 00 00 00 00 00 70"),
				PANSequenceNumber:   []byte{0x01},
				ExpirationDate:      tlv.Hex("30 04"),
				CardholderName:      []byte("David Wade Arnold"),
				CVMList:             tlv.Hex("00000000 00000000 0100"),
				GeographicIndicator: []byte{0x01},
				BitFilter:           tlv.Hex("00007FFFFFE00000 00000000"),
			},
		},
		{
			addr: FileAddress{SFI: ApplicationSFI, Record: 2},
			record: &emv.Record{
				CAPublicKeyIndex:           []byte{},
				IssuerPublicKeyCertificate: []byte{},
				IssuerPublicKeyRemainder:   []byte{},
				IssuerPublicKeyExponent:    []byte{},
			},
		},
		{
			addr: FileAddress{SFI: ApplicationSFI, Record: 3},
			record: &emv.Record{
				ICCPublicKeyCertificate: []byte{},
				ICCPublicKeyExponent:    []byte{},
				ICCPublicKeyRemainder:   []byte{},
				DDOL:                    tlv.Hex("9F37 04"),
			},
		},
	}
}

func mustFitShortForm(name string, data []byte) {
	if len(data) < 2 || len(data)-2 > maxShortFormLength {
		panic(fmt.Sprintf("card: %s payload of %d bytes does not fit a one-byte length", name, len(data)-2))
	}
}

// SelectionInfo returns a copy of the FCI served on application selection.
func (s *StaticDataStore) SelectionInfo() []byte {
	return append([]byte(nil), s.fci...)
}

// ApplicationInterchangeProfile returns the AIP (tag 82).
func (s *StaticDataStore) ApplicationInterchangeProfile() uint16 {
	return s.aip
}

// ApplicationFileLocator returns a copy of the 4-byte AFL (tag 94).
func (s *StaticDataStore) ApplicationFileLocator() []byte {
	return append([]byte(nil), s.afl...)
}

// CDOLLength returns the length of the data the terminal supplies for the list.
// Unknown selectors yield 0.
func (s *StaticDataStore) CDOLLength(which CDOL) uint16 {
	return s.cdols[which]
}

// Record looks up a catalog entry. The returned record shares the catalog
// storage and must not be modified.
func (s *StaticDataStore) Record(addr FileAddress) (DataObjectRecord, bool) {
	rec, ok := s.records[addr]
	return rec, ok
}

// Addresses returns every readable address in catalog order.
func (s *StaticDataStore) Addresses() []FileAddress {
	return append([]FileAddress(nil), s.order...)
}
