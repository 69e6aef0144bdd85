package emv

import (
	"fmt"
	"strings"

	"github.com/gregLibert/emvcard/pkg/bits"
)

// APPLICATION INTERCHANGE PROFILE (Tag '82') according to EMV Book 3, Annex C1.
//
// Byte 1:
//   - Bit 7: SDA supported
//   - Bit 6: DDA supported
//   - Bit 5: Cardholder verification is supported
//   - Bit 4: Terminal risk management is to be performed
//   - Bit 3: Issuer authentication is supported
//   - Bit 1: CDA supported
//
// Byte 2 is reserved for use by contactless specifications.

// AIP is the 2-byte Application Interchange Profile.
type AIP uint16

func (a AIP) byte1() byte {
	return byte(a >> 8)
}

func (a AIP) SDASupported() bool {
	return bits.IsSet(a.byte1(), 7)
}

func (a AIP) DDASupported() bool {
	return bits.IsSet(a.byte1(), 6)
}

func (a AIP) CardholderVerificationSupported() bool {
	return bits.IsSet(a.byte1(), 5)
}

func (a AIP) TerminalRiskManagementRequired() bool {
	return bits.IsSet(a.byte1(), 4)
}

func (a AIP) IssuerAuthenticationSupported() bool {
	return bits.IsSet(a.byte1(), 3)
}

func (a AIP) CDASupported() bool {
	return bits.IsSet(a.byte1(), 1)
}

// Bytes returns the big-endian encoding carried in tag 82.
func (a AIP) Bytes() []byte {
	return []byte{byte(a >> 8), byte(a)}
}

// Describe lists the features announced by the profile.
func (a AIP) Describe() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("=== APPLICATION INTERCHANGE PROFILE [%04X] ===", uint16(a)))

	features := []struct {
		set  bool
		name string
	}{
		{a.SDASupported(), "SDA supported"},
		{a.DDASupported(), "DDA supported"},
		{a.CardholderVerificationSupported(), "Cardholder verification supported"},
		{a.TerminalRiskManagementRequired(), "Terminal risk management to be performed"},
		{a.IssuerAuthenticationSupported(), "Issuer authentication supported"},
		{a.CDASupported(), "CDA supported"},
	}

	for _, f := range features {
		if f.set {
			sb.WriteString("\n    - " + f.name)
		}
	}

	return sb.String()
}
