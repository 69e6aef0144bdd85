package host

import (
	"errors"
	"fmt"

	"github.com/gregLibert/emvcard/pkg/card"
	"github.com/gregLibert/emvcard/pkg/iso7816"
)

// StatusError carries a status word other than 9000.
type StatusError struct {
	SW iso7816.StatusWord
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("card returned %s: %s", e.SW, e.SW.Description())
}

// CheckStatus returns a *StatusError unless sw is 9000.
func CheckStatus(sw iso7816.StatusWord) error {
	if sw == iso7816.SWNoError {
		return nil
	}
	return &StatusError{SW: sw}
}

func statusError(sw iso7816.StatusWord) error {
	return &StatusError{SW: sw}
}

// StatusWordFor maps an error raised while processing a command to the status
// word sent to the terminal.
func StatusWordFor(err error) iso7816.StatusWord {
	var se *StatusError
	switch {
	case err == nil:
		return iso7816.SWNoError
	case errors.As(err, &se):
		return se.SW
	case errors.Is(err, card.ErrRecordNotFound):
		return iso7816.SWFileNotFound
	case errors.Is(err, card.ErrCommandNotSupported):
		return iso7816.SWInstructionNotSupported
	case errors.Is(err, iso7816.ErrInvalidClass):
		return iso7816.SWClassNotSupported
	case errors.Is(err, iso7816.ErrInvalidInstruction):
		return iso7816.SWInstructionNotSupported
	case errors.Is(err, iso7816.ErrMalformedAPDU):
		return iso7816.SWWrongLength
	default:
		return iso7816.SWUnknown
	}
}
