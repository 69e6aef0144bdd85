package iso7816

import (
	"bytes"
	"errors"
	"testing"

	"github.com/gregLibert/emvcard/pkg/tlv"
)

func TestCommandAPDU_Bytes(t *testing.T) {
	cls, _ := NewClass(0x00)
	channel2, _ := NewClass(0x02)
	aid := tlv.Hex("A000000002030405")
	long := make([]byte, 300)

	tests := []struct {
		name string
		cmd  *CommandAPDU
		want []byte
	}{
		{
			name: "case 1",
			cmd:  NewCommandAPDU(cls, instruction(InsGetChallenge), 0x00, 0x00, nil, 0),
			want: tlv.Hex("00 84 00 00"),
		},
		{
			name: "case 2 short, READ RECORD SFI 1 record 2",
			cmd:  ReadRecord(cls, 1, 2),
			want: tlv.Hex("00 B2 02 0C 00"),
		},
		{
			name: "case 3 short, SELECT by AID",
			cmd:  SelectByAID(cls, aid),
			want: tlv.Hex("00 A4 04 00 08 A000000002030405"),
		},
		{
			name: "case 4 short on channel 2",
			cmd:  NewCommandAPDU(channel2, instruction(InsSelect), 0x04, 0x00, aid, 0x26),
			want: tlv.Hex("02 A4 04 00 08 A000000002030405 26"),
		},
		{
			name: "case 2 extended",
			cmd:  NewCommandAPDU(cls, instruction(InsReadRecord), 0x01, 0x0C, nil, MaxExtendedLe),
			want: tlv.Hex("00 B2 01 0C 00 0000"),
		},
		{
			name: "case 4 extended",
			cmd:  NewCommandAPDU(cls, instruction(InsGetData), 0x9F, 0x36, long, 0x0102),
			want: append(append(tlv.Hex("00 CA 9F 36 00 012C"), long...), 0x01, 0x02),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.cmd.Bytes()
			if err != nil {
				t.Fatalf("Bytes() failed: %v", err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("Bytes() = %X, want %X", got, tt.want)
			}
		})
	}
}

func TestCommandAPDU_BytesRejectsOversizedFields(t *testing.T) {
	cls, _ := NewClass(0x00)

	tooMuchData := NewCommandAPDU(cls, instruction(InsSelect), 0x04, 0x00, make([]byte, MaxExtendedLc+1), 0)
	if _, err := tooMuchData.Bytes(); !errors.Is(err, ErrMalformedAPDU) {
		t.Errorf("Bytes() error = %v, want ErrMalformedAPDU", err)
	}

	negativeLe := NewCommandAPDU(cls, instruction(InsReadRecord), 0x01, 0x0C, nil, -1)
	if _, err := negativeLe.Bytes(); !errors.Is(err, ErrMalformedAPDU) {
		t.Errorf("Bytes() error = %v, want ErrMalformedAPDU", err)
	}
}

func TestParseResponseAPDU(t *testing.T) {
	resp, err := ParseResponseAPDU(tlv.Hex("70 09 8F00 9000 9200 9F3200 90 00"))
	if err != nil {
		t.Fatalf("ParseResponseAPDU failed: %v", err)
	}
	if !bytes.Equal(resp.Data, tlv.Hex("70 09 8F00 9000 9200 9F3200")) {
		t.Errorf("Data = %X", resp.Data)
	}
	if resp.Status != SWNoError {
		t.Errorf("Status = %s, want 9000", resp.Status)
	}

	if _, err := ParseResponseAPDU([]byte{0x6A}); err == nil {
		t.Error("ParseResponseAPDU accepted a single byte")
	}
}

func TestParseCommandAPDU(t *testing.T) {
	tests := []struct {
		name     string
		raw      []byte
		wantP1P2 [2]byte
		wantData []byte
		wantNe   int
		wantErr  error
	}{
		{
			name:     "Case 1: Header only",
			raw:      tlv.Hex("00 A4 04 00"),
			wantP1P2: [2]byte{0x04, 0x00},
		},
		{
			name:     "Case 2 Short: READ RECORD SFI 1 record 1, Le=00",
			raw:      tlv.Hex("00 B2 01 0C 00"),
			wantP1P2: [2]byte{0x01, 0x0C},
			wantNe:   MaxShortLe,
		},
		{
			name:     "Case 3 Short: SELECT by AID",
			raw:      tlv.Hex("00 A4 04 00 08 A000000002030405"),
			wantP1P2: [2]byte{0x04, 0x00},
			wantData: tlv.Hex("A000000002030405"),
		},
		{
			name:     "Case 4 Short: SELECT by AID with Le",
			raw:      tlv.Hex("00 A4 04 00 08 A000000002030405 26"),
			wantP1P2: [2]byte{0x04, 0x00},
			wantData: tlv.Hex("A000000002030405"),
			wantNe:   0x26,
		},
		{
			name:     "Case 2 Extended: Le=0000",
			raw:      tlv.Hex("00 B0 00 00 00 0000"),
			wantNe:   MaxExtendedLe,
			wantP1P2: [2]byte{0x00, 0x00},
		},
		{
			name:     "Case 4 Extended",
			raw:      tlv.Hex("00 A4 04 00 00 0002 A000 0100"),
			wantP1P2: [2]byte{0x04, 0x00},
			wantData: tlv.Hex("A000"),
			wantNe:   0x0100,
		},
		{
			name:    "Header too short",
			raw:     tlv.Hex("00 A4 04"),
			wantErr: ErrMalformedAPDU,
		},
		{
			name:    "Lc larger than body",
			raw:     tlv.Hex("00 A4 04 00 08 A000"),
			wantErr: ErrMalformedAPDU,
		},
		{
			name:    "Reserved CLA FF",
			raw:     tlv.Hex("FF A4 04 00"),
			wantErr: ErrInvalidClass,
		},
		{
			name:    "Reserved INS 6X",
			raw:     tlv.Hex("00 6A 00 00"),
			wantErr: ErrInvalidInstruction,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCommandAPDU(tt.raw)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ParseCommandAPDU() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseCommandAPDU() unexpected error: %v", err)
			}

			if got.P1 != tt.wantP1P2[0] || got.P2 != tt.wantP1P2[1] {
				t.Errorf("P1/P2 = %02X %02X, want %02X %02X", got.P1, got.P2, tt.wantP1P2[0], tt.wantP1P2[1])
			}
			if !bytes.Equal(got.Data, tt.wantData) {
				t.Errorf("Data = %X, want %X", got.Data, tt.wantData)
			}
			if got.Ne != tt.wantNe {
				t.Errorf("Ne = %d, want %d", got.Ne, tt.wantNe)
			}
		})
	}
}

func TestParseCommandAPDU_RoundTrip(t *testing.T) {
	cls, _ := NewClass(0x00)

	commands := []*CommandAPDU{
		SelectByAID(cls, tlv.Hex("A000000002030405")),
		SelectNextByAID(cls, tlv.Hex("A000000002")),
		ReadRecord(cls, 1, 3),
		NewCommandAPDU(cls, instruction(InsGetResponse), 0, 0, nil, 0x77),
	}

	for _, cmd := range commands {
		raw, err := cmd.Bytes()
		if err != nil {
			t.Fatalf("Bytes() failed: %v", err)
		}

		got, err := ParseCommandAPDU(raw)
		if err != nil {
			t.Fatalf("ParseCommandAPDU(%X) failed: %v", raw, err)
		}

		if got.Instruction != cmd.Instruction || got.P1 != cmd.P1 || got.P2 != cmd.P2 ||
			!bytes.Equal(got.Data, cmd.Data) || got.Ne != cmd.Ne {
			t.Errorf("round trip mismatch:\nsent %s\ngot  %s", cmd, got)
		}
	}
}

func TestResponseAPDU_Bytes(t *testing.T) {
	resp := NewResponseAPDU(tlv.Hex("70 00"), SWNoError)
	if got := resp.Bytes(); !bytes.Equal(got, tlv.Hex("70 00 90 00")) {
		t.Errorf("Bytes() = %X, want 70009000", got)
	}

	notFound := NewResponseAPDU(nil, SWFileNotFound)
	if got := notFound.Bytes(); !bytes.Equal(got, tlv.Hex("6A 82")) {
		t.Errorf("Bytes() = %X, want 6A82", got)
	}
}
