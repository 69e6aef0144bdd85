package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/gregLibert/emvcard/pkg/card"
	"github.com/gregLibert/emvcard/pkg/emv"
	"github.com/gregLibert/emvcard/pkg/host"
	"github.com/gregLibert/emvcard/pkg/iso7816"
)

func selectCommand() *cli.Command {
	return &cli.Command{
		Name:   "select",
		Usage:  "SELECT the application and print its FCI",
		Action: runSelect,
	}
}

func readCommand() *cli.Command {
	return &cli.Command{
		Name:  "read",
		Usage: "SELECT the application, then READ RECORD one record",
		Flags: []cli.Flag{
			&cli.UintFlag{
				Name:  "sfi",
				Value: uint(card.ApplicationSFI),
				Usage: "Short File Identifier (1-30)",
			},
			&cli.UintFlag{
				Name:     "record",
				Usage:    "Record number (1-254)",
				Required: true,
			},
		},
		Action: runRead,
	}
}

func dumpCommand() *cli.Command {
	return &cli.Command{
		Name:   "dump",
		Usage:  "SELECT the application and read every record named by the AFL",
		Action: runDump,
	}
}

func infoCommand() *cli.Command {
	return &cli.Command{
		Name:   "info",
		Usage:  "Print the AIP, AFL and CDOL data lengths of the built-in card",
		Action: runInfo,
	}
}

func runSelect(ctx context.Context, cmd *cli.Command) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	_, err = s.selectApplication()
	return err
}

func runRead(ctx context.Context, cmd *cli.Command) error {
	sfi, number := cmd.Uint("sfi"), cmd.Uint("record")
	if sfi < 1 || sfi > 30 {
		return fmt.Errorf("--sfi %d out of range 1-30", sfi)
	}
	if number < 1 || number > 254 {
		return fmt.Errorf("--record %d out of range 1-254", number)
	}

	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	if _, err := s.selectApplication(); err != nil {
		return err
	}

	_, err = s.readRecord(byte(sfi), byte(number))
	return err
}

func runDump(ctx context.Context, cmd *cli.Command) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	if _, err := s.selectApplication(); err != nil {
		return err
	}

	// The card has no GET PROCESSING OPTIONS, the AFL comes from the built-in catalog.
	entries, err := emv.ParseAFL(card.DefaultStore().ApplicationFileLocator())
	if err != nil {
		return fmt.Errorf("invalid AFL: %w", err)
	}
	s.println(emv.DescribeAFL(entries))

	read := 0
	for _, entry := range entries {
		for _, number := range entry.Records() {
			if _, err := s.readRecord(entry.SFI, number); err != nil {
				return err
			}
			read++
		}
	}

	s.logger.Info("dump complete", "records", read)
	return nil
}

func runInfo(ctx context.Context, cmd *cli.Command) error {
	out, _ := writers(cmd)
	store := card.DefaultStore()

	aip := emv.AIP(store.ApplicationInterchangeProfile())
	fmt.Fprintln(out, aip.Describe())

	entries, err := emv.ParseAFL(store.ApplicationFileLocator())
	if err != nil {
		return fmt.Errorf("invalid AFL: %w", err)
	}
	fmt.Fprintln(out, emv.DescribeAFL(entries))

	fmt.Fprintln(out, "=== CARD RISK MANAGEMENT DATA ===")
	for _, which := range []card.CDOL{card.CDOL1, card.CDOL2} {
		fmt.Fprintf(out, "    - %s data length: %d (0x%02X)\n", which, store.CDOLLength(which), store.CDOLLength(which))
	}
	return nil
}

// selectApplication selects the configured AID and prints the reports.
func (s *session) selectApplication() (*emv.FCI, error) {
	aid, err := s.cfg.AIDBytes()
	if err != nil {
		return nil, err
	}

	trace, err := s.client.Send(iso7816.SelectByAID(s.cls, aid))
	if err != nil {
		return nil, fmt.Errorf("transmission failed: %w", err)
	}

	s.println(trace.Describe())

	if err := host.CheckStatus(trace.Status()); err != nil {
		return nil, fmt.Errorf("selection of %X failed: %w", aid, err)
	}

	raw := trace.Data()
	fci, err := emv.ParseFCI(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse FCI: %w", err)
	}
	s.println(fci.Describe())
	s.dump(fci, raw)

	return fci, nil
}

// readRecord reads one record and prints the reports.
func (s *session) readRecord(sfi, number byte) (*emv.Record, error) {
	trace, err := s.client.Send(iso7816.ReadRecord(s.cls, sfi, number))
	if err != nil {
		return nil, fmt.Errorf("transmission failed: %w", err)
	}

	s.println(trace.Describe())

	if err := host.CheckStatus(trace.Status()); err != nil {
		return nil, fmt.Errorf("read of SFI %d record %d failed: %w", sfi, number, err)
	}

	raw := trace.Data()
	record, err := emv.ParseRecord(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse record: %w", err)
	}
	s.println(record.Describe())
	s.dump(record, raw)

	return record, nil
}
