package iso7816

import (
	"fmt"

	"github.com/gregLibert/emvcard/pkg/bits"
)

// READ RECORD (INS B2). P2 holds the short file identifier on bits 8-4 (0 is
// the current EF) and the reference mode on bits 3-1. EMV terminals only use
// mode 100, where P1 is the record number.

// ReadRecordMode is bits 3-1 of the READ RECORD P2.
type ReadRecordMode byte

const (
	ReadFirstID      ReadRecordMode = 0b000
	ReadLastID       ReadRecordMode = 0b001
	ReadNextID       ReadRecordMode = 0b010
	ReadPreviousID   ReadRecordMode = 0b011
	ReadRecordP1     ReadRecordMode = 0b100
	ReadRecordsFrom  ReadRecordMode = 0b101
	ReadRecordsUntil ReadRecordMode = 0b110
)

var modeNames = map[ReadRecordMode]string{
	ReadFirstID:      "first record with identifier P1",
	ReadLastID:       "last record with identifier P1",
	ReadNextID:       "next record with identifier P1",
	ReadPreviousID:   "previous record with identifier P1",
	ReadRecordP1:     "record number P1",
	ReadRecordsFrom:  "all records from P1 to the last",
	ReadRecordsUntil: "all records from the last to P1",
}

func (m ReadRecordMode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("mode %03b", byte(m))
}

// ByNumber reports whether P1 is a record number rather than an identifier.
func (m ReadRecordMode) ByNumber() bool {
	return bits.IsSet(byte(m), 3)
}

// MaxSFI is the largest short file identifier READ RECORD can carry.
const MaxSFI = 30

// EncodeReadRecordP2 packs sfi and mode into a READ RECORD P2.
func EncodeReadRecordP2(sfi byte, mode ReadRecordMode) byte {
	return bits.SetRange(bits.SetRange(0, 8, 4, sfi), 3, 1, byte(mode))
}

// DecodeReadRecordP2 is the inverse of EncodeReadRecordP2.
func DecodeReadRecordP2(p2 byte) (sfi byte, mode ReadRecordMode) {
	return bits.GetRange(p2, 8, 4), ReadRecordMode(bits.GetRange(p2, 3, 1))
}

// NewReadRecordCommand builds a READ RECORD asking for up to 256 bytes.
func NewReadRecordCommand(cla Class, sfi, p1 byte, mode ReadRecordMode) *CommandAPDU {
	return NewCommandAPDU(cla, instruction(InsReadRecord), p1, EncodeReadRecordP2(sfi, mode), nil, MaxShortLe)
}

// ReadRecord reads record number n of the file sfi.
func ReadRecord(cla Class, sfi, n byte) *CommandAPDU {
	return NewReadRecordCommand(cla, sfi, n, ReadRecordP1)
}
