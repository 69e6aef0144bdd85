package tlv

import (
	"encoding/hex"
	"fmt"
	"reflect"
	"strings"

	"github.com/moov-io/bertlv"
)

// Marshaler allows custom types to produce their own TLV value.
type Marshaler interface {
	MarshalTLV() ([]byte, error)
}

// Marshal encodes src as a constructed template with the given tag.
// Every length, including the outer one, is computed by the BER-TLV encoder
// from the content, so no length byte is ever maintained by hand.
func Marshal(tag string, src interface{}) ([]byte, error) {
	template, err := MarshalTemplate(tag, src)
	if err != nil {
		return nil, err
	}

	data, err := bertlv.Encode([]bertlv.TLV{template})
	if err != nil {
		return nil, fmt.Errorf("bertlv encode failed: %w", err)
	}
	return data, nil
}

// MarshalTemplate builds the bertlv.TLV tree for src wrapped in tag.
func MarshalTemplate(tag string, src interface{}) (bertlv.TLV, error) {
	packets, err := MarshalToPackets(src)
	if err != nil {
		return bertlv.TLV{}, err
	}
	return bertlv.TLV{Tag: strings.ToUpper(tag), TLVs: packets}, nil
}

// MarshalToPackets converts the tagged fields of a struct into bertlv.TLV
// packets, in field declaration order. Leftover packets held by the Unknown
// field are appended last.
//
// Absent values are skipped: nil byte slices, nil pointers, empty strings and
// nested templates without any present field.
func MarshalToPackets(src interface{}) ([]bertlv.TLV, error) {
	v, ok := structValue(reflect.ValueOf(src))
	if !ok {
		return nil, fmt.Errorf("source must be a struct or a non-nil pointer to one")
	}

	// Work on an addressable copy so pointer-receiver Marshalers are found.
	addressable := reflect.New(v.Type()).Elem()
	addressable.Set(v)
	v = addressable

	var packets, unknown []bertlv.TLV
	for _, b := range bindingsOf(v.Type()) {
		field := v.Field(b.index)
		if b.unknown {
			if leftovers, ok := field.Interface().([]bertlv.TLV); ok {
				unknown = leftovers
			}
			continue
		}
		if b.tag == "" {
			continue
		}

		encoded, err := encodeField(b.tag, field)
		if err != nil {
			return nil, fmt.Errorf("field %s (%s): %w", b.name, b.tag, err)
		}
		packets = append(packets, encoded...)
	}

	return append(packets, unknown...), nil
}

// encodeField mirrors decodeInto: Marshaler, byte slice, hex string,
// nested structure, or a repeated template.
func encodeField(tag string, field reflect.Value) ([]bertlv.TLV, error) {
	if field.Kind() == reflect.Ptr && field.IsNil() {
		return nil, nil
	}

	// 1. Custom Marshaler
	if field.CanAddr() {
		if m, ok := field.Addr().Interface().(Marshaler); ok {
			value, err := m.MarshalTLV()
			if err != nil {
				return nil, err
			}
			if value == nil {
				return nil, nil
			}
			return []bertlv.TLV{{Tag: tag, Value: value}}, nil
		}
	}

	// 2. Byte Slices (nil is absent, empty is a zero length object)
	if isByteSlice(field) {
		if field.IsNil() {
			return nil, nil
		}
		return []bertlv.TLV{{Tag: tag, Value: field.Bytes()}}, nil
	}

	// 3. Strings (Hex representation)
	if field.Kind() == reflect.String {
		if field.Len() == 0 {
			return nil, nil
		}
		value, err := hex.DecodeString(field.String())
		if err != nil {
			return nil, fmt.Errorf("invalid hex string: %w", err)
		}
		return []bertlv.TLV{{Tag: tag, Value: value}}, nil
	}

	// 4. Nested Structures
	if isStructOrPtrToStruct(field) {
		return encodeTemplate(tag, field.Interface())
	}

	// 5. Repeated templates
	if field.Kind() == reflect.Slice {
		var packets []bertlv.TLV
		for i := 0; i < field.Len(); i++ {
			encoded, err := encodeTemplate(tag, field.Index(i).Interface())
			if err != nil {
				return nil, err
			}
			packets = append(packets, encoded...)
		}
		return packets, nil
	}

	return nil, fmt.Errorf("unsupported kind %s", field.Kind())
}

func encodeTemplate(tag string, src interface{}) ([]bertlv.TLV, error) {
	children, err := MarshalToPackets(src)
	if err != nil {
		return nil, err
	}
	if len(children) == 0 {
		return nil, nil
	}
	return []bertlv.TLV{{Tag: tag, TLVs: children}}, nil
}
