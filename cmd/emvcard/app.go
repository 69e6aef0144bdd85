package main

import (
	"github.com/urfave/cli/v3"

	"github.com/gregLibert/emvcard/pkg/config"
)

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "emvcard",
		Usage: "Select and read the FINTECH DEVCON EMV application, in-process or on a PC/SC reader",
		Flags: globalFlags(),
		Commands: []*cli.Command{
			selectCommand(),
			readCommand(),
			dumpCommand(),
			infoCommand(),
		},
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Usage:   "Path to a YAML configuration file",
			Sources: cli.EnvVars(config.EnvFile),
		},
		&cli.StringFlag{
			Name:  "reader",
			Usage: "Card reader: virtual (in-process card) or pcsc",
		},
		&cli.IntFlag{
			Name:  "reader-index",
			Usage: "Index of the PC/SC reader to use",
		},
		&cli.StringFlag{
			Name:  "protocol",
			Usage: "Transmission protocol: t0 or t1",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level: debug, info, warn or error",
		},
		&cli.StringFlag{
			Name:  "aid",
			Usage: "Hex AID to select",
		},
		&cli.BoolFlag{
			Name:  "struct",
			Usage: "Also dump parsed structures and TLV trees",
		},
	}
}
