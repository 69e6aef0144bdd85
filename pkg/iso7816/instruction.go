package iso7816

import (
	"fmt"

	"github.com/gregLibert/emvcard/pkg/bits"
)

// InsCode is the raw INS byte.
type InsCode byte

// EMV commands (Book 3, section 6.5) plus GET RESPONSE. The issuer script
// commands and GET PROCESSING OPTIONS and GENERATE AC are sent with
// proprietary classes (80, 84, 8C).
const (
	InsCardBlock            InsCode = 0x16
	InsApplicationUnblock   InsCode = 0x18
	InsApplicationBlock     InsCode = 0x1E
	InsVerify               InsCode = 0x20
	InsPINChangeUnblock     InsCode = 0x24
	InsExternalAuthenticate InsCode = 0x82
	InsGetChallenge         InsCode = 0x84
	InsInternalAuthenticate InsCode = 0x88
	InsSelect               InsCode = 0xA4
	InsGetProcessingOptions InsCode = 0xA8
	InsGenerateAC           InsCode = 0xAE
	InsReadRecord           InsCode = 0xB2
	InsGetResponse          InsCode = 0xC0
	InsGetData              InsCode = 0xCA
)

var insNames = map[InsCode]string{
	InsCardBlock:            "CARD BLOCK",
	InsApplicationUnblock:   "APPLICATION UNBLOCK",
	InsApplicationBlock:     "APPLICATION BLOCK",
	InsVerify:               "VERIFY",
	InsPINChangeUnblock:     "PIN CHANGE/UNBLOCK",
	InsExternalAuthenticate: "EXTERNAL AUTHENTICATE",
	InsGetChallenge:         "GET CHALLENGE",
	InsInternalAuthenticate: "INTERNAL AUTHENTICATE",
	InsSelect:               "SELECT",
	InsGetProcessingOptions: "GET PROCESSING OPTIONS",
	InsGenerateAC:           "GENERATE AC",
	InsReadRecord:           "READ RECORD",
	InsGetResponse:          "GET RESPONSE",
	InsGetData:              "GET DATA",
}

// String returns the command name, or "INS XX" for codes without one.
func (i InsCode) String() string {
	if name, ok := insNames[i]; ok {
		return name
	}
	return fmt.Sprintf("INS %02X", byte(i))
}

// Instruction is a validated INS byte.
type Instruction struct {
	Code InsCode
	// BERTLV is set for odd codes, which carry BER-TLV encoded data.
	BERTLV bool
}

// NewInstruction validates ins. Values 6X and 9X collide with the procedure
// bytes of T=0 and are rejected.
func NewInstruction(ins InsCode) (Instruction, error) {
	if hi := bits.GetRange(byte(ins), 8, 5); hi == 0x6 || hi == 0x9 {
		return Instruction{}, fmt.Errorf("INS %02X is reserved for T=0 procedure bytes", byte(ins))
	}
	return Instruction{Code: ins, BERTLV: bits.IsSet(byte(ins), 1)}, nil
}

// instruction is NewInstruction for the constants of this package.
func instruction(ins InsCode) Instruction {
	i, err := NewInstruction(ins)
	if err != nil {
		panic(err)
	}
	return i
}

func (i Instruction) String() string {
	if i.BERTLV {
		return fmt.Sprintf("%s (%02X, BER-TLV data)", i.Code, byte(i.Code))
	}
	return fmt.Sprintf("%s (%02X)", i.Code, byte(i.Code))
}
