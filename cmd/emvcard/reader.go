package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/ebfe/scard"

	"github.com/gregLibert/emvcard/pkg/card"
	"github.com/gregLibert/emvcard/pkg/config"
	"github.com/gregLibert/emvcard/pkg/host"
	"github.com/gregLibert/emvcard/pkg/iso7816"
)

// openTransmitter returns the configured card and the function releasing it.
func openTransmitter(cfg *config.Config, logger *slog.Logger) (iso7816.Transmitter, func() error, error) {
	protocol, err := host.ParseProtocol(cfg.Protocol)
	if err != nil {
		return nil, nil, err
	}

	if cfg.Reader == config.ReaderPCSC {
		c, err := connectToCard(cfg.ReaderIndex, protocol, logger)
		if err != nil {
			return nil, nil, err
		}
		return c, c.Close, nil
	}

	virtual := host.NewVirtualCard(
		card.NewApplet(card.DefaultStore()),
		host.WithProtocol(protocol),
		host.WithLogger(logger),
	)
	logger.Debug("using virtual card", "protocol", protocol.String())

	return virtual, func() error { return nil }, nil
}

// pcscCard is a card connected through a PC/SC reader.
type pcscCard struct {
	ctx  *scard.Context
	card *scard.Card
}

func (p *pcscCard) Transmit(cmd []byte) ([]byte, error) {
	return p.card.Transmit(cmd)
}

func (p *pcscCard) Close() error {
	return errors.Join(
		p.card.Disconnect(scard.LeaveCard),
		p.ctx.Release(),
	)
}

// connectToCard handles the PC/SC context establishment and reader connection.
func connectToCard(index int, protocol host.Protocol, logger *slog.Logger) (*pcscCard, error) {
	ctx, err := scard.EstablishContext()
	if err != nil {
		return nil, fmt.Errorf("error establishing context: %w", err)
	}

	release := func() {
		if relErr := ctx.Release(); relErr != nil {
			logger.Warn("failed to release context during error handling", "error", relErr)
		}
	}

	readers, err := ctx.ListReaders()
	if err != nil {
		release()
		return nil, fmt.Errorf("error listing readers: %w", err)
	}
	if len(readers) == 0 {
		release()
		return nil, fmt.Errorf("no smart card reader found")
	}
	if index >= len(readers) {
		release()
		return nil, fmt.Errorf("reader index %d out of range (%d readers)", index, len(readers))
	}

	proto := scard.ProtocolT1
	if protocol == host.ProtocolT0 {
		proto = scard.ProtocolT0
	}

	logger.Info("using reader", "reader", readers[index], "protocol", protocol.String())

	c, err := ctx.Connect(readers[index], scard.ShareShared, proto)
	if err != nil {
		release()
		return nil, fmt.Errorf("error connecting to card: %w", err)
	}

	return &pcscCard{ctx: ctx, card: c}, nil
}
