package tlv

import (
	"encoding/hex"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/moov-io/bertlv"
)

var errTarget = errors.New("target must be a non-nil pointer to a struct")

// Unmarshaler allows custom types to implement their own TLV parsing logic.
type Unmarshaler interface {
	UnmarshalTLV(data []byte) error
}

// Unmarshal decodes BER-TLV data and maps it onto the struct pointed to by target.
func Unmarshal(data []byte, target interface{}) error {
	packets, err := bertlv.Decode(data)
	if err != nil {
		return fmt.Errorf("bertlv decode failed: %w", err)
	}
	return UnmarshalFromPackets(packets, target)
}

// UnmarshalFromPackets maps already decoded objects onto the struct pointed to
// by target. A tag occurring several times fills a slice field in order; for
// any other field the last occurrence wins.
func UnmarshalFromPackets(packets []bertlv.TLV, target interface{}) error {
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Ptr {
		return errTarget
	}
	v, ok := structValue(v)
	if !ok {
		return errTarget
	}

	claimed := make([]bool, len(packets))
	var unknown reflect.Value

	for _, b := range bindingsOf(v.Type()) {
		dst := v.Field(b.index)
		if b.unknown {
			unknown = dst
			continue
		}
		if b.tag == "" {
			continue
		}
		for i, p := range packets {
			if !strings.EqualFold(p.Tag, b.tag) {
				continue
			}
			if err := assign(dst, p); err != nil {
				return fmt.Errorf("field %s (%s): %w", b.name, b.tag, err)
			}
			claimed[i] = true
		}
	}

	if !unknown.IsValid() || unknown.Type() != packetsType {
		return nil
	}
	var rest []bertlv.TLV
	for i, p := range packets {
		if !claimed[i] {
			rest = append(rest, p)
		}
	}
	if len(rest) > 0 {
		unknown.Set(reflect.ValueOf(rest))
	}
	return nil
}

// assign stores p into dst, appending when dst is a repeated template.
func assign(dst reflect.Value, p bertlv.TLV) error {
	if dst.Kind() == reflect.Slice && !isByteSlice(dst) {
		elem := reflect.New(dst.Type().Elem()).Elem()
		if err := decodeInto(elem, p); err != nil {
			return err
		}
		dst.Set(reflect.Append(dst, elem))
		return nil
	}
	return decodeInto(dst, p)
}

// decodeInto is the inverse of encodeField: Unmarshaler, byte slice, hex
// string or nested template.
func decodeInto(dst reflect.Value, p bertlv.TLV) error {
	if dst.CanAddr() {
		if u, ok := dst.Addr().Interface().(Unmarshaler); ok {
			return u.UnmarshalTLV(contentOf(p))
		}
	}

	switch {
	case isByteSlice(dst):
		raw := contentOf(p)
		if raw == nil {
			raw = []byte{}
		}
		dst.SetBytes(raw)

	case dst.Kind() == reflect.String:
		dst.SetString(hex.EncodeToString(p.Value))

	case dst.Kind() == reflect.Struct:
		return decodeTemplate(p, dst.Addr().Interface())

	case dst.Kind() == reflect.Ptr && dst.Type().Elem().Kind() == reflect.Struct:
		if dst.IsNil() {
			dst.Set(reflect.New(dst.Type().Elem()))
		}
		return decodeTemplate(p, dst.Interface())
	}
	return nil
}

func decodeTemplate(p bertlv.TLV, target interface{}) error {
	if len(p.TLVs) > 0 {
		return UnmarshalFromPackets(p.TLVs, target)
	}
	if len(p.Value) == 0 {
		return nil
	}
	return Unmarshal(p.Value, target)
}
