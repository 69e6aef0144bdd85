package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/kr/pretty"
	"github.com/moov-io/bertlv"
	"github.com/urfave/cli/v3"

	"github.com/gregLibert/emvcard/pkg/config"
	"github.com/gregLibert/emvcard/pkg/iso7816"
	"github.com/gregLibert/emvcard/pkg/logging"
)

// session bundles what every command needs to talk to the card.
type session struct {
	cfg      *config.Config
	logger   *slog.Logger
	out      io.Writer
	client   *iso7816.Client
	cls      iso7816.Class
	asStruct bool
	closer   func() error
}

// loadConfig reads the configuration file and applies the flags set on the command line.
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, err
	}

	if cmd.IsSet("reader") {
		cfg.Reader = cmd.String("reader")
	}
	if cmd.IsSet("reader-index") {
		cfg.ReaderIndex = cmd.Int("reader-index")
	}
	if cmd.IsSet("protocol") {
		cfg.Protocol = cmd.String("protocol")
	}
	if cmd.IsSet("log-level") {
		cfg.LogLevel = cmd.String("log-level")
	}
	if cmd.IsSet("aid") {
		cfg.AID = cmd.String("aid")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func openSession(cmd *cli.Command) (*session, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	out, errOut := writers(cmd)

	level, _ := logging.ParseLevel(cfg.LogLevel)
	logger := logging.New(errOut, level)

	transmitter, closer, err := openTransmitter(cfg, logger)
	if err != nil {
		return nil, err
	}

	cls, _ := iso7816.NewClass(0x00)

	return &session{
		cfg:      cfg,
		logger:   logger,
		out:      out,
		client:   iso7816.NewClient(transmitter),
		cls:      cls,
		asStruct: cmd.Bool("struct"),
		closer:   closer,
	}, nil
}

// writers returns the output streams of the root command.
func writers(cmd *cli.Command) (out, errOut io.Writer) {
	root := cmd.Root()
	out, errOut = root.Writer, root.ErrWriter
	if out == nil {
		out = os.Stdout
	}
	if errOut == nil {
		errOut = os.Stderr
	}
	return out, errOut
}

func (s *session) Close() {
	if err := s.closer(); err != nil {
		s.logger.Warn("failed to release card", "error", err)
	}
}

func (s *session) println(a ...interface{}) {
	fmt.Fprintln(s.out, a...)
}

// dump prints a parsed value and its TLV tree when --struct is set.
func (s *session) dump(v interface{}, raw []byte) {
	if !s.asStruct {
		return
	}

	fmt.Fprintf(s.out, "%# v\n", pretty.Formatter(v))

	tlvs, err := bertlv.Decode(raw)
	if err != nil {
		s.logger.Warn("response is not BER-TLV", "error", err)
		return
	}
	bertlv.PrettyPrint(tlvs)
}
