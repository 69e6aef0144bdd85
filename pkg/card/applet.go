package card

import (
	"errors"
	"fmt"
	"io"
)

// ErrCommandNotSupported is returned for a command kind the applet does not
// handle. The host runtime is expected to reject such commands before dispatch.
var ErrCommandNotSupported = errors.New("command not supported")

// CommandKind is the classification made by the host runtime.
type CommandKind int

const (
	KindSelect CommandKind = iota + 1
	KindReadRecord
)

func (k CommandKind) String() string {
	switch k {
	case KindSelect:
		return "SELECT"
	case KindReadRecord:
		return "READ RECORD"
	default:
		return fmt.Sprintf("CommandKind(%d)", int(k))
	}
}

// Command is a classified command with its parameters.
type Command struct {
	Kind CommandKind
	P1   byte
	P2   byte
}

// Applet dispatches classified commands to the catalog. It holds no session
// state: every call is independent of the previous ones.
type Applet struct {
	store    *StaticDataStore
	resolver *Resolver
}

// NewApplet creates an applet serving the given store.
func NewApplet(store *StaticDataStore) *Applet {
	return &Applet{
		store:    store,
		resolver: NewResolver(store),
	}
}

// Store returns the catalog served by the applet.
func (a *Applet) Store() *StaticDataStore {
	return a.store
}

// Process writes the response data for cmd into dst and returns its length.
// On error nothing is written. A dst too small for the whole response yields
// io.ErrShortBuffer.
func (a *Applet) Process(cmd Command, dst []byte) (int, error) {
	switch cmd.Kind {
	case KindSelect:
		if err := checkRoom(dst, len(a.store.fci), "FCI"); err != nil {
			return 0, err
		}
		return copy(dst, a.store.fci), nil

	case KindReadRecord:
		rec, err := a.resolver.Resolve(cmd.P1, cmd.P2)
		if err != nil {
			return 0, err
		}
		if err := checkRoom(dst, rec.Len(), "record"); err != nil {
			return 0, err
		}
		return BuildResponse(dst, rec), nil

	default:
		return 0, fmt.Errorf("%w: %s", ErrCommandNotSupported, cmd.Kind)
	}
}

func checkRoom(dst []byte, need int, what string) error {
	if len(dst) < need {
		return fmt.Errorf("%w: %s needs %d bytes, buffer holds %d", io.ErrShortBuffer, what, need, len(dst))
	}
	return nil
}
