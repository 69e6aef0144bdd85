package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/gregLibert/emvcard/pkg/config"
	"github.com/gregLibert/emvcard/pkg/host"
	"github.com/gregLibert/emvcard/pkg/iso7816"
)

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv(config.EnvFile, "")

	var out, errOut bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &errOut

	err := app.Run(context.Background(), append([]string{"emvcard"}, args...))
	return out.String(), err
}

func TestNewApp(t *testing.T) {
	app := newApp()

	require.Equal(t, "emvcard", app.Name)
	require.Len(t, app.Commands, 4)

	var names []string
	for _, c := range app.Commands {
		names = append(names, c.Name)
	}
	require.Equal(t, []string{"select", "read", "dump", "info"}, names)

	var hasConfig, hasStruct bool
	for _, flag := range app.Flags {
		switch f := flag.(type) {
		case *cli.StringFlag:
			if f.Name == "config" {
				hasConfig = true
			}
		case *cli.BoolFlag:
			if f.Name == "struct" {
				hasStruct = true
			}
		}
	}
	require.True(t, hasConfig)
	require.True(t, hasStruct)
}

func TestInfo(t *testing.T) {
	out, err := runApp(t, "info")
	require.NoError(t, err)

	require.Contains(t, out, "=== APPLICATION INTERCHANGE PROFILE [5800] ===")
	require.Contains(t, out, "SFI 1: records 1-3 (1 for ODA)")
	require.Contains(t, out, "CDOL1 data length: 43 (0x2B)")
	require.Contains(t, out, "CDOL2 data length: 29 (0x1D)")
}

func TestSelect(t *testing.T) {
	for _, protocol := range []string{"t1", "t0"} {
		t.Run(protocol, func(t *testing.T) {
			out, err := runApp(t, "--protocol", protocol, "select")
			require.NoError(t, err)

			require.Contains(t, out, "=== SELECT COMMAND REPORT ===")
			require.Contains(t, out, "=== EMV FCI TEMPLATE ===")
			require.Contains(t, out, "FINTECH DEVCON")
		})
	}
}

func TestSelect_StructDump(t *testing.T) {
	out, err := runApp(t, "--struct", "select")
	require.NoError(t, err)
	require.Contains(t, out, "emv.FCI{")
}

func TestSelect_UnknownAID(t *testing.T) {
	_, err := runApp(t, "--aid", "A0000000041010", "select")
	require.Error(t, err)

	var se *host.StatusError
	require.True(t, errors.As(err, &se))
	require.Equal(t, iso7816.SWFileNotFound, se.SW)
}

func TestRead(t *testing.T) {
	out, err := runApp(t, "read", "--record", "1")
	require.NoError(t, err)

	require.Contains(t, out, "=== READ RECORD COMMAND REPORT ===")
	require.Contains(t, out, "=== EMV RECORD TEMPLATE ===")
	require.Contains(t, out, "David Wade Arnold")
	require.Contains(t, out, "7000000000000070")
}

func TestRead_Errors(t *testing.T) {
	t.Run("Record not found", func(t *testing.T) {
		_, err := runApp(t, "read", "--record", "4")
		require.Error(t, err)

		var se *host.StatusError
		require.True(t, errors.As(err, &se))
		require.Equal(t, iso7816.SWFileNotFound, se.SW)
	})

	t.Run("SFI out of range", func(t *testing.T) {
		_, err := runApp(t, "read", "--sfi", "31", "--record", "1")
		require.ErrorContains(t, err, "--sfi")
	})

	t.Run("Missing record flag", func(t *testing.T) {
		_, err := runApp(t, "read")
		require.Error(t, err)
	})
}

func TestDump(t *testing.T) {
	out, err := runApp(t, "--protocol", "t0", "dump")
	require.NoError(t, err)

	require.Contains(t, out, "=== APPLICATION FILE LOCATOR ===")
	require.Equal(t, 3, strings.Count(out, "=== EMV RECORD TEMPLATE ==="))
	require.Contains(t, out, "Record.DDOL (9F49): 9F3704")
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("Invalid reader", func(t *testing.T) {
		path := filepath.Join(dir, "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("reader: usb\n"), 0o600))

		_, err := runApp(t, "--config", path, "select")
		require.ErrorIs(t, err, config.ErrInvalid)
	})

	t.Run("Flags override file", func(t *testing.T) {
		path := filepath.Join(dir, "other-aid.yaml")
		require.NoError(t, os.WriteFile(path, []byte("protocol: t0\naid: A0000000041010\n"), 0o600))

		_, err := runApp(t, "--config", path, "select")
		require.Error(t, err, "the file AID is not on the card")

		out, err := runApp(t, "--config", path, "--aid", "A000000002030405", "select")
		require.NoError(t, err)
		require.Contains(t, out, "FINTECH DEVCON")
	})
}
