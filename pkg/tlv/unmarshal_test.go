package tlv

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/moov-io/bertlv"
)

type amount struct {
	digits string
}

func (a *amount) UnmarshalTLV(data []byte) error {
	a.digits = strings.TrimLeft(fmt.Sprintf("%X", data), "0")
	return nil
}

type nestedStruct struct {
	Version []byte `tlv:"82"`
}

type recordSample struct {
	PAN     []byte        `tlv:"5A"`
	Holder  string        `tlv:"5F20"`
	Details nestedStruct  `tlv:"A5"`
	Extra   *nestedStruct `tlv:"BF0C"`
	Amount  amount        `tlv:"9F02"`
	Certs   [][]byte      `tlv:"90"`
	Slot    []byte        `tlv:"8F"`
	Missing []byte        `tlv:"92"`
	Unknown []bertlv.TLV
}

func TestUnmarshal(t *testing.T) {
	raw := Hex(
		"5A 08 4761739001010010",
		"5F20 02 4142",
		"A5 03 82 01 FF",
		"BF0C 03 82 01 01",
		"9F02 06 000000001500",
		"90 01 01",
		"90 01 02",
		"8F 00",
		"DF01 01 BB",
	)

	var got recordSample
	if err := Unmarshal(raw, &got); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if !bytes.Equal(got.PAN, Hex("4761739001010010")) {
		t.Errorf("PAN = %X", got.PAN)
	}
	if got.Holder != "4142" {
		t.Errorf("Holder = %q, want hex text 4142", got.Holder)
	}
	if !bytes.Equal(got.Details.Version, []byte{0xFF}) {
		t.Errorf("Details.Version = %X", got.Details.Version)
	}
	if got.Extra == nil || !bytes.Equal(got.Extra.Version, []byte{0x01}) {
		t.Errorf("Extra = %+v, want allocated template", got.Extra)
	}
	if got.Amount.digits != "1500" {
		t.Errorf("Amount = %q, want 1500", got.Amount.digits)
	}
	if diff := cmp.Diff([][]byte{{0x01}, {0x02}}, got.Certs); diff != "" {
		t.Errorf("Certs mismatch (-want +got):\n%s", diff)
	}
	if got.Slot == nil || len(got.Slot) != 0 {
		t.Errorf("Slot = %#v, want present and empty", got.Slot)
	}
	if got.Missing != nil {
		t.Errorf("Missing = %#v, want nil", got.Missing)
	}
	if len(got.Unknown) != 1 || !strings.EqualFold(got.Unknown[0].Tag, "DF01") {
		t.Errorf("Unknown = %+v, want only DF01", got.Unknown)
	}
}

func TestUnmarshalFromPackets_ConstructedByteField(t *testing.T) {
	type wrapper struct {
		Template []byte `tlv:"70"`
	}

	packets, err := bertlv.Decode(Hex("70 03 8F 01 05"))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	var got wrapper
	if err := UnmarshalFromPackets(packets, &got); err != nil {
		t.Fatalf("UnmarshalFromPackets failed: %v", err)
	}
	if !bytes.Equal(got.Template, Hex("8F 01 05")) {
		t.Errorf("Template = %X, want the encoded children", got.Template)
	}
}

func TestUnmarshalErrors(t *testing.T) {
	tests := []struct {
		name   string
		data   []byte
		target interface{}
		want   string
	}{
		{"Value target", Hex("5A 00"), recordSample{}, "pointer"},
		{"Nil pointer", Hex("5A 00"), (*recordSample)(nil), "pointer"},
		{"Pointer to non struct", Hex("5A 00"), new(int), "struct"},
		{"Truncated data", Hex("5A 08 4761"), &recordSample{}, "decode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Unmarshal(tt.data, tt.target)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Unmarshal() error = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}
