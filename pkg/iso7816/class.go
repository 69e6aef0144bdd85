package iso7816

import (
	"fmt"

	"github.com/gregLibert/emvcard/pkg/bits"
)

// CLA layout (ISO/IEC 7816-4, 5.4.1):
//
//	0 0 0 C S S L L   first interindustry, channels 0-3, two SM bits
//	0 1 S C L L L L   further interindustry, channels 4-19, one SM bit
//	1 x x x x x x x   proprietary (EMV uses 80 for GPO and GENERATE AC)
//
// C is command chaining. FF is reserved and never a valid class.

// SecureMessaging is the SM indication carried by an interindustry class.
type SecureMessaging uint8

const (
	SMNone SecureMessaging = iota
	SMProprietary
	SMHeaderNotProcessed
	SMHeaderAuthenticated
)

var smNames = [...]string{
	SMNone:                "no SM",
	SMProprietary:         "proprietary SM",
	SMHeaderNotProcessed:  "ISO SM, header not processed",
	SMHeaderAuthenticated: "ISO SM, header authenticated",
}

func (sm SecureMessaging) String() string {
	if int(sm) < len(smNames) {
		return smNames[sm]
	}
	return fmt.Sprintf("SM(%d)", uint8(sm))
}

// MaxChannel is the highest logical channel an interindustry class can address.
const MaxChannel = 19

// Class is a decoded CLA byte.
type Class struct {
	Raw             byte
	Proprietary     bool
	Chained         bool
	SecureMessaging SecureMessaging
	Channel         uint8
}

// NewClass decodes a CLA byte. Proprietary classes keep only Raw.
func NewClass(cla byte) (Class, error) {
	if cla == 0xFF {
		return Class{}, fmt.Errorf("CLA FF is reserved")
	}

	c := Class{Raw: cla}
	switch {
	case bits.IsSet(cla, 8):
		c.Proprietary = true

	case bits.IsSet(cla, 7):
		c.Chained = bits.IsSet(cla, 5)
		if bits.IsSet(cla, 6) {
			c.SecureMessaging = SMHeaderNotProcessed
		}
		c.Channel = 4 + bits.GetRange(cla, 4, 1)

	default:
		c.Chained = bits.IsSet(cla, 5)
		c.SecureMessaging = SecureMessaging(bits.GetRange(cla, 4, 3))
		c.Channel = bits.GetRange(cla, 2, 1)
	}
	return c, nil
}

// InterindustryClass builds a class for the given channel, picking the first
// or further interindustry layout. Channels 4 and up only carry SMNone or
// SMHeaderNotProcessed.
func InterindustryClass(channel uint8, sm SecureMessaging, chained bool) (Class, error) {
	if channel > MaxChannel {
		return Class{}, fmt.Errorf("logical channel %d out of range 0-%d", channel, MaxChannel)
	}
	if sm > SMHeaderAuthenticated {
		return Class{}, fmt.Errorf("unknown secure messaging indication %d", sm)
	}
	if channel >= 4 && sm != SMNone && sm != SMHeaderNotProcessed {
		return Class{}, fmt.Errorf("%s cannot be signalled on channel %d", sm, channel)
	}

	c := Class{Chained: chained, SecureMessaging: sm, Channel: channel}
	c.Raw = c.Byte()
	return c, nil
}

// Byte encodes the class. A proprietary class returns Raw unchanged.
func (c Class) Byte() byte {
	if c.Proprietary {
		return c.Raw
	}

	var cla byte
	if c.Chained {
		cla = bits.Set(cla, 5)
	}
	if c.Channel < 4 {
		cla = bits.SetRange(cla, 4, 3, byte(c.SecureMessaging))
		return bits.SetRange(cla, 2, 1, c.Channel)
	}

	cla = bits.Set(cla, 7)
	if c.SecureMessaging != SMNone {
		cla = bits.Set(cla, 6)
	}
	return bits.SetRange(cla, 4, 1, c.Channel-4)
}

// IsBasic reports whether the class is 00: channel 0, no SM, no chaining.
// It is the only class the EMV interindustry commands use.
func (c Class) IsBasic() bool {
	return !c.Proprietary && !c.Chained && c.SecureMessaging == SMNone && c.Channel == 0
}

func (c Class) String() string {
	if c.Proprietary {
		return fmt.Sprintf("CLA %02X: proprietary", c.Raw)
	}
	chaining := "last or only command"
	if c.Chained {
		chaining = "chained"
	}
	return fmt.Sprintf("CLA %02X: channel %d, %s, %s", c.Byte(), c.Channel, c.SecureMessaging, chaining)
}
