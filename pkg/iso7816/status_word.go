package iso7816

import (
	"fmt"

	"github.com/gregLibert/emvcard/pkg/bits"
)

// StatusWord is the SW1 SW2 trailer of a response.
type StatusWord uint16

// Status words produced or interpreted by the EMV application layer.
const (
	SWNoError StatusWord = 0x9000

	SWSelectedFileInvalidated StatusWord = 0x6283
	SWStateUnchanged          StatusWord = 0x6300

	SWWrongLength                 StatusWord = 0x6700
	SWLogicalChannelNotSupported  StatusWord = 0x6881
	SWSecureMessagingNotSupported StatusWord = 0x6882
	SWChainingNotSupported        StatusWord = 0x6884

	SWSecurityStatusNotSatisfied StatusWord = 0x6982
	SWAuthMethodBlocked          StatusWord = 0x6983
	SWReferenceDataNotUsable     StatusWord = 0x6984
	SWConditionsNotSatisfied     StatusWord = 0x6985

	SWIncorrectData          StatusWord = 0x6A80
	SWFunctionNotSupported   StatusWord = 0x6A81
	SWFileNotFound           StatusWord = 0x6A82
	SWRecordNotFound         StatusWord = 0x6A83
	SWIncorrectP1P2          StatusWord = 0x6A86
	SWReferencedDataNotFound StatusWord = 0x6A88

	SWWrongP1P2               StatusWord = 0x6B00
	SWInstructionNotSupported StatusWord = 0x6D00
	SWClassNotSupported       StatusWord = 0x6E00
	SWUnknown                 StatusWord = 0x6F00
)

var swDescriptions = map[StatusWord]string{
	SWNoError:                     "normal processing",
	SWSelectedFileInvalidated:     "selected file invalidated",
	SWStateUnchanged:              "state of non-volatile memory changed, no information",
	SWWrongLength:                 "wrong length",
	SWLogicalChannelNotSupported:  "logical channel not supported",
	SWSecureMessagingNotSupported: "secure messaging not supported",
	SWChainingNotSupported:        "command chaining not supported",
	SWSecurityStatusNotSatisfied:  "security status not satisfied",
	SWAuthMethodBlocked:           "authentication method blocked",
	SWReferenceDataNotUsable:      "reference data not usable",
	SWConditionsNotSatisfied:      "conditions of use not satisfied",
	SWIncorrectData:               "incorrect parameters in the data field",
	SWFunctionNotSupported:        "function not supported",
	SWFileNotFound:                "file or application not found",
	SWRecordNotFound:              "record not found",
	SWIncorrectP1P2:               "incorrect parameters P1-P2",
	SWReferencedDataNotFound:      "referenced data not found",
	SWWrongP1P2:                   "wrong parameters P1-P2",
	SWInstructionNotSupported:     "instruction code not supported or invalid",
	SWClassNotSupported:           "class not supported",
	SWUnknown:                     "no precise diagnosis",
}

// NewStatusWord joins SW1 and SW2.
func NewStatusWord(sw1, sw2 byte) StatusWord {
	return StatusWord(sw1)<<8 | StatusWord(sw2)
}

// BytesRemaining is the 61XX status announcing n bytes for GET RESPONSE.
// 256 or more is signalled as 6100.
func BytesRemaining(n int) StatusWord {
	if n >= 256 {
		n = 0
	}
	return NewStatusWord(0x61, byte(n))
}

// WrongLe is the 6CXX status giving the exact length n the terminal must ask for.
func WrongLe(n int) StatusWord {
	if n >= 256 {
		n = 0
	}
	return NewStatusWord(0x6C, byte(n))
}

func (sw StatusWord) SW1() byte { return byte(sw >> 8) }

func (sw StatusWord) SW2() byte { return byte(sw) }

// Remaining returns the byte count of a 61XX status.
func (sw StatusWord) Remaining() (int, bool) {
	if sw.SW1() != 0x61 {
		return 0, false
	}
	return lengthOf(sw.SW2()), true
}

// ExactLength returns the length advertised by a 6CXX status.
func (sw StatusWord) ExactLength() (int, bool) {
	if sw.SW1() != 0x6C {
		return 0, false
	}
	return lengthOf(sw.SW2()), true
}

func lengthOf(sw2 byte) int {
	if sw2 == 0 {
		return 256
	}
	return int(sw2)
}

// IsSuccess reports 9000 and 61XX.
func (sw StatusWord) IsSuccess() bool {
	return sw == SWNoError || sw.SW1() == 0x61
}

// IsWarning reports 62XX and 63XX.
func (sw StatusWord) IsWarning() bool {
	return sw.SW1() == 0x62 || sw.SW1() == 0x63
}

// IsError reports the execution and checking errors 64XX to 6FXX.
func (sw StatusWord) IsError() bool {
	return sw.SW1() >= 0x64 && sw.SW1() <= 0x6F
}

// RetriesLeft returns the counter of a 63CX status, as sent after a failed VERIFY.
func (sw StatusWord) RetriesLeft() (int, bool) {
	if sw.SW1() != 0x63 || bits.GetRange(sw.SW2(), 8, 5) != 0xC {
		return 0, false
	}
	return int(bits.GetRange(sw.SW2(), 4, 1)), true
}

// String returns the four hex digits of the status word.
func (sw StatusWord) String() string {
	return fmt.Sprintf("%04X", uint16(sw))
}

// Description explains the status word in words.
func (sw StatusWord) Description() string {
	if n, ok := sw.Remaining(); ok {
		return fmt.Sprintf("%d response bytes still available", n)
	}
	if n, ok := sw.ExactLength(); ok {
		return fmt.Sprintf("wrong Le, exact length is %d", n)
	}
	if n, ok := sw.RetriesLeft(); ok {
		return fmt.Sprintf("verification failed, %d tries left", n)
	}
	if desc, ok := swDescriptions[sw]; ok {
		return desc
	}

	switch sw.SW1() {
	case 0x62:
		return "warning, non-volatile memory unchanged"
	case 0x63:
		return "warning, non-volatile memory changed"
	case 0x64:
		return "execution error, non-volatile memory unchanged"
	case 0x65:
		return "execution error, non-volatile memory changed"
	case 0x66:
		return "execution error, security related"
	case 0x68:
		return "function in CLA not supported"
	case 0x69:
		return "command not allowed"
	case 0x6A:
		return "wrong parameters P1-P2"
	default:
		return "unknown status"
	}
}
