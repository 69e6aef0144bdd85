package iso7816

import (
	"fmt"

	"github.com/gregLibert/emvcard/pkg/bits"
)

// SELECT (INS A4). P1 names the selection method; P2 carries the file
// occurrence on bits 2-1 and the requested response template on bits 4-3.
// EMV application selection always uses P1 04 (by DF name) with P2 00 for the
// first candidate and P2 02 for the next one.

// SelectionMethod is the P1 of SELECT.
type SelectionMethod byte

const (
	SelectByFileID          SelectionMethod = 0x00
	SelectChildDF           SelectionMethod = 0x01
	SelectEFUnderCurrentDF  SelectionMethod = 0x02
	SelectParentDF          SelectionMethod = 0x03
	SelectByDFName          SelectionMethod = 0x04
	SelectPathFromMF        SelectionMethod = 0x08
	SelectPathFromCurrentDF SelectionMethod = 0x09
)

var methodNames = map[SelectionMethod]string{
	SelectByFileID:          "by file identifier",
	SelectChildDF:           "child DF",
	SelectEFUnderCurrentDF:  "EF under current DF",
	SelectParentDF:          "parent DF",
	SelectByDFName:          "by DF name",
	SelectPathFromMF:        "path from MF",
	SelectPathFromCurrentDF: "path from current DF",
}

func (m SelectionMethod) String() string {
	if name, ok := methodNames[m]; ok {
		return name
	}
	return fmt.Sprintf("method %02X", byte(m))
}

// FileOccurrence is bits 2-1 of the SELECT P2.
type FileOccurrence byte

const (
	FirstOrOnlyOccurrence FileOccurrence = iota
	LastOccurrence
	NextOccurrence
	PreviousOccurrence
)

var occurrenceNames = [...]string{"first or only", "last", "next", "previous"}

func (o FileOccurrence) String() string {
	if int(o) < len(occurrenceNames) {
		return occurrenceNames[o]
	}
	return fmt.Sprintf("occurrence %d", byte(o))
}

// SelectionControl is bits 4-3 of the SELECT P2.
type SelectionControl byte

const (
	ReturnFCI SelectionControl = iota
	ReturnFCP
	ReturnFMD
	ReturnNoData
)

var controlNames = [...]string{"return FCI", "return FCP", "return FMD", "no response data"}

func (c SelectionControl) String() string {
	if int(c) < len(controlNames) {
		return controlNames[c]
	}
	return fmt.Sprintf("control %d", byte(c))
}

// EncodeSelectP2 packs occurrence and control into a SELECT P2.
func EncodeSelectP2(occ FileOccurrence, ctrl SelectionControl) byte {
	return bits.SetRange(bits.SetRange(0, 4, 3, byte(ctrl)), 2, 1, byte(occ))
}

// DecodeSelectP2 is the inverse of EncodeSelectP2. Bits 8-5 are ignored.
func DecodeSelectP2(p2 byte) (FileOccurrence, SelectionControl) {
	return FileOccurrence(bits.GetRange(p2, 2, 1)), SelectionControl(bits.GetRange(p2, 4, 3))
}

// NewSelectCommand builds a SELECT. A command carrying data has no Le so that
// it stays a case 3 command under T=0, where the card answers 61XX. Without
// data the full 256 bytes are requested unless ctrl asks for no data.
func NewSelectCommand(cla Class, method SelectionMethod, occ FileOccurrence, ctrl SelectionControl, data []byte) *CommandAPDU {
	ne := 0
	if len(data) == 0 && ctrl != ReturnNoData {
		ne = MaxShortLe
	}
	return NewCommandAPDU(cla, instruction(InsSelect), byte(method), EncodeSelectP2(occ, ctrl), data, ne)
}

// SelectByAID selects the first application whose DF name starts with aid.
func SelectByAID(cla Class, aid []byte) *CommandAPDU {
	return NewSelectCommand(cla, SelectByDFName, FirstOrOnlyOccurrence, ReturnFCI, aid)
}

// SelectNextByAID asks for the next application matching the same partial aid.
func SelectNextByAID(cla Class, aid []byte) *CommandAPDU {
	return NewSelectCommand(cla, SelectByDFName, NextOccurrence, ReturnFCI, aid)
}
