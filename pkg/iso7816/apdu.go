package iso7816

import (
	"errors"
	"fmt"
)

// Command APDU cases (ISO/IEC 7816-3, 12.1.3):
//
//	case 1  CLA INS P1 P2
//	case 2  CLA INS P1 P2 Le
//	case 3  CLA INS P1 P2 Lc Data
//	case 4  CLA INS P1 P2 Lc Data Le
//
// Short fields are one byte (Le 00 means 256). Extended fields are used as
// soon as Nc exceeds 255 or Ne exceeds 256: Lc becomes 00 HH LL and Le two
// bytes (0000 means 65536), preceded by 00 when no Lc is present.

// Length limits of the two encodings.
const (
	MaxShortLc    = 255
	MaxShortLe    = 256
	MaxExtendedLc = 65535
	MaxExtendedLe = 65536
)

// Errors reported by ParseCommandAPDU. A card answers them with
// SWClassNotSupported, SWInstructionNotSupported and SWWrongLength.
var (
	ErrInvalidClass       = errors.New("invalid class byte")
	ErrInvalidInstruction = errors.New("invalid instruction byte")
	ErrMalformedAPDU      = errors.New("malformed command APDU")
)

// CommandAPDU is a command as built by a terminal or decoded by a card.
type CommandAPDU struct {
	Class       Class
	Instruction Instruction
	P1, P2      byte
	Data        []byte
	Ne          int // maximum response length, 0 when no Le is sent
}

// NewCommandAPDU assembles a command.
func NewCommandAPDU(cla Class, ins Instruction, p1, p2 byte, data []byte, ne int) *CommandAPDU {
	return &CommandAPDU{
		Class:       cla,
		Instruction: ins,
		P1:          p1,
		P2:          p2,
		Data:        data,
		Ne:          ne,
	}
}

// Bytes encodes the command, choosing the short or extended form from Nc and Ne.
func (c *CommandAPDU) Bytes() ([]byte, error) {
	nc, ne := len(c.Data), c.Ne
	if nc > MaxExtendedLc {
		return nil, fmt.Errorf("%w: %d data bytes exceed %d", ErrMalformedAPDU, nc, MaxExtendedLc)
	}
	if ne < 0 || ne > MaxExtendedLe {
		return nil, fmt.Errorf("%w: Ne %d out of range", ErrMalformedAPDU, ne)
	}

	out := make([]byte, 0, 4+3+nc+3)
	out = append(out, c.Class.Byte(), byte(c.Instruction.Code), c.P1, c.P2)

	extended := nc > MaxShortLc || ne > MaxShortLe
	if nc > 0 {
		if extended {
			out = append(out, 0x00, byte(nc>>8), byte(nc))
		} else {
			out = append(out, byte(nc))
		}
		out = append(out, c.Data...)
	}

	switch {
	case ne == 0:
	case !extended:
		// 256 wraps to 00.
		out = append(out, byte(ne))
	default:
		if nc == 0 {
			out = append(out, 0x00)
		}
		// 65536 wraps to 0000.
		out = append(out, byte(ne>>8), byte(ne))
	}
	return out, nil
}

// ParseCommandAPDU decodes a command as received by the card. It accepts the
// four cases in short and extended form and reports Le as Ne, with 00 and 0000
// read as 256 and 65536.
func ParseCommandAPDU(raw []byte) (*CommandAPDU, error) {
	if len(raw) < 4 {
		return nil, fmt.Errorf("%w: header too short (%d bytes)", ErrMalformedAPDU, len(raw))
	}

	cla, err := NewClass(raw[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidClass, err)
	}

	ins, err := NewInstruction(InsCode(raw[1]))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInstruction, err)
	}

	cmd := &CommandAPDU{Class: cla, Instruction: ins, P1: raw[2], P2: raw[3]}

	body := raw[4:]
	switch {
	case len(body) == 0:
		// Case 1
		return cmd, nil

	case len(body) == 1:
		// Case 2 Short
		cmd.Ne = decodeShortLe(body[0])
		return cmd, nil

	case body[0] != 0x00:
		// Case 3/4 Short
		nc := int(body[0])
		switch len(body) {
		case 1 + nc:
			cmd.Data = body[1:]
		case 2 + nc:
			cmd.Data = body[1 : 1+nc]
			cmd.Ne = decodeShortLe(body[1+nc])
		default:
			return nil, fmt.Errorf("%w: Lc=%d but body holds %d bytes", ErrMalformedAPDU, nc, len(body)-1)
		}
		return cmd, nil

	case len(body) == 3:
		// Case 2 Extended
		cmd.Ne = decodeExtendedLe(body[1], body[2])
		return cmd, nil

	case len(body) > 3:
		// Case 3/4 Extended
		nc := int(body[1])<<8 | int(body[2])
		if nc == 0 {
			return nil, fmt.Errorf("%w: extended Lc of zero", ErrMalformedAPDU)
		}
		switch len(body) {
		case 3 + nc:
			cmd.Data = body[3:]
		case 5 + nc:
			cmd.Data = body[3 : 3+nc]
			cmd.Ne = decodeExtendedLe(body[3+nc], body[4+nc])
		default:
			return nil, fmt.Errorf("%w: extended Lc=%d but body holds %d bytes", ErrMalformedAPDU, nc, len(body)-3)
		}
		return cmd, nil

	default:
		return nil, fmt.Errorf("%w: %d byte body cannot be decoded", ErrMalformedAPDU, len(body))
	}
}

func decodeShortLe(le byte) int {
	if le == 0x00 {
		return MaxShortLe
	}
	return int(le)
}

func decodeExtendedLe(hi, lo byte) int {
	ne := int(hi)<<8 | int(lo)
	if ne == 0 {
		return MaxExtendedLe
	}
	return ne
}

func (c *CommandAPDU) String() string {
	return fmt.Sprintf("%s P1=%02X P2=%02X Nc=%d Ne=%d", c.Instruction.Code, c.P1, c.P2, len(c.Data), c.Ne)
}

// ResponseAPDU is the data field and trailer of a reply.
type ResponseAPDU struct {
	Data   []byte
	Status StatusWord
}

// NewResponseAPDU builds a response from its data field and status word.
func NewResponseAPDU(data []byte, sw StatusWord) *ResponseAPDU {
	return &ResponseAPDU{Data: data, Status: sw}
}

// Bytes encodes the response as sent by the card: Data followed by SW1 SW2.
func (r *ResponseAPDU) Bytes() []byte {
	out := make([]byte, 0, len(r.Data)+2)
	out = append(out, r.Data...)
	return append(out, r.Status.SW1(), r.Status.SW2())
}

// ParseResponseAPDU splits raw card output into data and status word.
func ParseResponseAPDU(raw []byte) (*ResponseAPDU, error) {
	n := len(raw)
	if n < 2 {
		return nil, fmt.Errorf("response of %d bytes has no status word", n)
	}
	return NewResponseAPDU(raw[:n-2], NewStatusWord(raw[n-2], raw[n-1])), nil
}

func (r *ResponseAPDU) String() string {
	return fmt.Sprintf("%d data bytes, SW %s (%s)", len(r.Data), r.Status, r.Status.Description())
}
