// Package host emulates the card runtime around the applet: it parses C-APDUs,
// checks the class byte, classifies the instruction, encodes status words and
// applies the T=0 or T=1 transport rules.
//
// VirtualCard implements iso7816.Transmitter so that terminal code written for
// a PC/SC reader can drive the applet in-process.
package host

import (
	"bytes"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gregLibert/emvcard/pkg/card"
	"github.com/gregLibert/emvcard/pkg/emv"
	"github.com/gregLibert/emvcard/pkg/iso7816"
)

// Minimum AID length accepted for partial selection (the RID).
const minPartialAIDLength = 5

// VirtualCard hosts an Applet. Exchanges are serialized: a command is fully
// processed before the next one is accepted.
type VirtualCard struct {
	mu      sync.Mutex
	applet  *card.Applet
	aid     []byte
	opts    *Options
	buf     [card.MaxResponseLength]byte
	pending []byte
}

// NewVirtualCard creates a card hosting applet. The AID used for selection is
// the DF name of the applet's FCI.
//
// It panics if the FCI carries no DF name.
func NewVirtualCard(applet *card.Applet, opts ...Option) *VirtualCard {
	options := DefaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	return &VirtualCard{
		applet: applet,
		aid:    selectionAID(applet.Store()),
		opts:   options,
	}
}

func selectionAID(store *card.StaticDataStore) []byte {
	fci, err := emv.ParseFCI(store.SelectionInfo())
	if err != nil {
		panic(fmt.Sprintf("host: unreadable FCI: %v", err))
	}
	if len(fci.DFName) == 0 {
		panic("host: FCI has no DF name")
	}
	return fci.DFName
}

// Protocol returns the emulated transmission protocol.
func (v *VirtualCard) Protocol() Protocol {
	return v.opts.Protocol
}

// Transmit processes one C-APDU and returns the R-APDU (data followed by SW1 SW2).
// Card level failures are reported in the status word, never as an error.
func (v *VirtualCard) Transmit(raw []byte) ([]byte, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	data, sw := v.exchange(raw)
	resp := iso7816.NewResponseAPDU(data, sw).Bytes()

	v.opts.Logger.Debug("apdu exchange",
		slog.String("protocol", v.opts.Protocol.String()),
		slog.String("command", fmt.Sprintf("%X", raw)),
		slog.String("response", fmt.Sprintf("%X", resp)),
		slog.String("status", sw.String()),
	)

	return resp, nil
}

// Reset drops any response waiting for GET RESPONSE, as a card reset would.
func (v *VirtualCard) Reset() {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.pending = nil
	v.opts.Logger.Debug("card reset")
}

func (v *VirtualCard) exchange(raw []byte) ([]byte, iso7816.StatusWord) {
	cmd, err := iso7816.ParseCommandAPDU(raw)
	if err != nil {
		v.pending = nil
		return nil, StatusWordFor(err)
	}

	if err := checkClass(cmd.Class); err != nil {
		v.pending = nil
		return nil, StatusWordFor(err)
	}

	if cmd.Instruction.Code == iso7816.InsGetResponse && v.opts.Protocol == ProtocolT0 {
		return v.getResponse(cmd)
	}
	v.pending = nil

	data, err := v.process(cmd)
	if err != nil {
		return nil, StatusWordFor(err)
	}

	return v.frame(cmd, data)
}

func checkClass(cla iso7816.Class) error {
	switch {
	case cla.Proprietary:
		return statusError(iso7816.SWClassNotSupported)
	case cla.Channel != 0:
		return statusError(iso7816.SWLogicalChannelNotSupported)
	case cla.SecureMessaging != iso7816.SMNone:
		return statusError(iso7816.SWSecureMessagingNotSupported)
	case cla.Chained:
		return statusError(iso7816.SWChainingNotSupported)
	}
	return nil
}

// process classifies the command and hands it to the applet.
func (v *VirtualCard) process(cmd *iso7816.CommandAPDU) ([]byte, error) {
	var kind card.CommandKind

	switch cmd.Instruction.Code {
	case iso7816.InsSelect:
		if err := v.checkSelect(cmd); err != nil {
			return nil, err
		}
		kind = card.KindSelect
	case iso7816.InsReadRecord:
		kind = card.KindReadRecord
	default:
		return nil, statusError(iso7816.SWInstructionNotSupported)
	}

	n, err := v.applet.Process(card.Command{Kind: kind, P1: cmd.P1, P2: cmd.P2}, v.buf[:])
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), v.buf[:n]...), nil
}

// checkSelect accepts a selection by DF name, first occurrence, naming the
// full AID or a prefix of at least the RID. The card holds a single
// application, so asking for the next occurrence finds nothing.
func (v *VirtualCard) checkSelect(cmd *iso7816.CommandAPDU) error {
	occurrence, _ := iso7816.DecodeSelectP2(cmd.P2)

	switch {
	case iso7816.SelectionMethod(cmd.P1) != iso7816.SelectByDFName:
		return statusError(iso7816.SWFileNotFound)
	case occurrence != iso7816.FirstOrOnlyOccurrence:
		return statusError(iso7816.SWFileNotFound)
	case len(cmd.Data) < minPartialAIDLength || !bytes.HasPrefix(v.aid, cmd.Data):
		return statusError(iso7816.SWFileNotFound)
	}
	return nil
}

// frame applies the length rules to a successful response.
func (v *VirtualCard) frame(cmd *iso7816.CommandAPDU, data []byte) ([]byte, iso7816.StatusWord) {
	if len(data) == 0 {
		return nil, iso7816.SWNoError
	}

	// Case 4 under T=0: the data goes through GET RESPONSE.
	if v.opts.Protocol == ProtocolT0 && len(cmd.Data) > 0 {
		v.pending = data
		return nil, iso7816.BytesRemaining(len(data))
	}

	if cmd.Ne > 0 && cmd.Ne < len(data) {
		return nil, iso7816.WrongLe(len(data))
	}

	return data, iso7816.SWNoError
}

func (v *VirtualCard) getResponse(cmd *iso7816.CommandAPDU) ([]byte, iso7816.StatusWord) {
	if len(v.pending) == 0 {
		return nil, iso7816.SWConditionsNotSatisfied
	}
	if cmd.P1 != 0x00 || cmd.P2 != 0x00 {
		v.pending = nil
		return nil, iso7816.SWIncorrectP1P2
	}

	n := cmd.Ne
	if n == 0 || n > len(v.pending) {
		n = len(v.pending)
	}

	out := v.pending[:n]
	v.pending = v.pending[n:]

	if len(v.pending) > 0 {
		return out, iso7816.BytesRemaining(len(v.pending))
	}
	v.pending = nil
	return out, iso7816.SWNoError
}
