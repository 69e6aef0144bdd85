package iso7816

import (
	"errors"
	"fmt"
)

// Transmitter exchanges raw APDUs with a card, physical or emulated.
type Transmitter interface {
	Transmit(cmd []byte) ([]byte, error)
}

// ErrTooManyExchanges is returned when the card keeps answering 61XX or 6CXX.
var ErrTooManyExchanges = errors.New("card kept requesting transport exchanges")

// maxExchanges bounds the GET RESPONSE and Le retry chain of a single Send.
const maxExchanges = 16

// Client drives a Transmitter and hides the T=0 transport statuses from the
// caller.
type Client struct {
	card Transmitter
}

// NewClient returns a Client sending through card.
func NewClient(card Transmitter) *Client {
	return &Client{card: card}
}

// Send transmits cmd and follows the transport requests of the card: a 61XX
// status is answered with GET RESPONSE on the same logical channel and a 6CXX
// status repeats the command with the exact Le. Every exchange is recorded in
// the returned trace, which is returned even when an error stops the chain.
func (c *Client) Send(cmd *CommandAPDU) (Trace, error) {
	var trace Trace

	next := cmd
	for len(trace) < maxExchanges {
		resp, err := c.exchange(next)
		if err != nil {
			return trace, err
		}
		trace = append(trace, Transaction{Command: next, Response: resp})

		if n, ok := resp.Status.Remaining(); ok {
			next = getResponseFor(next.Class, n)
			continue
		}
		if n, ok := resp.Status.ExactLength(); ok {
			retry := *next
			retry.Ne = n
			next = &retry
			continue
		}
		return trace, nil
	}
	return trace, fmt.Errorf("%w: %d exchanges for %s", ErrTooManyExchanges, len(trace), cmd.Instruction.Code)
}

func (c *Client) exchange(cmd *CommandAPDU) (*ResponseAPDU, error) {
	raw, err := cmd.Bytes()
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", cmd.Instruction.Code, err)
	}
	out, err := c.card.Transmit(raw)
	if err != nil {
		return nil, fmt.Errorf("transmitting %s: %w", cmd.Instruction.Code, err)
	}
	return ParseResponseAPDU(out)
}

// getResponseFor builds the GET RESPONSE following a 61XX. It keeps the
// logical channel of the original class; proprietary classes fall back to 00.
func getResponseFor(cla Class, n int) *CommandAPDU {
	if cla.Proprietary {
		cla = Class{}
	}
	cla.Chained = false
	cla.Raw = cla.Byte()
	return NewCommandAPDU(cla, instruction(InsGetResponse), 0x00, 0x00, nil, n)
}
