package host

import (
	"fmt"
	"log/slog"
	"strings"
)

// Protocol is the transmission protocol emulated by the virtual card.
type Protocol int

const (
	ProtocolT1 Protocol = iota
	ProtocolT0
)

func (p Protocol) String() string {
	switch p {
	case ProtocolT0:
		return "T=0"
	case ProtocolT1:
		return "T=1"
	default:
		return fmt.Sprintf("Protocol(%d)", int(p))
	}
}

// ParseProtocol accepts "t0" or "t1", in any case and with an optional "=".
// An empty string selects T=1.
func ParseProtocol(s string) (Protocol, error) {
	switch strings.ReplaceAll(strings.ToLower(s), "=", "") {
	case "t0":
		return ProtocolT0, nil
	case "t1", "":
		return ProtocolT1, nil
	default:
		return 0, fmt.Errorf("unknown protocol %q (want t0 or t1)", s)
	}
}

// Options configures a VirtualCard.
type Options struct {
	// Protocol selects the case 4 behavior: T=1 answers directly, T=0 answers 61XX.
	Protocol Protocol

	// Logger receives one debug record per exchange.
	Logger *slog.Logger
}

// DefaultOptions returns a T=1 card that does not log.
func DefaultOptions() *Options {
	return &Options{
		Protocol: ProtocolT1,
		Logger:   slog.New(slog.DiscardHandler),
	}
}

// Option mutates Options.
type Option func(*Options)

// WithProtocol sets the emulated protocol.
func WithProtocol(p Protocol) Option {
	return func(opts *Options) {
		opts.Protocol = p
	}
}

// WithProtocolT0 makes case 4 commands answer 61XX, leaving the data to GET RESPONSE.
func WithProtocolT0() Option {
	return WithProtocol(ProtocolT0)
}

// WithLogger sets the exchange logger. A nil logger is ignored.
func WithLogger(logger *slog.Logger) Option {
	return func(opts *Options) {
		if logger != nil {
			opts.Logger = logger
		}
	}
}
