// Package tlv maps BER-TLV (Basic Encoding Rules - Tag-Length-Value) data to and
// from Go structures using struct tags.
//
// Fields are bound to a tag with `tlv:"5A"`. A `[]bertlv.TLV` field named Unknown
// (or tagged `tlv:",unknown"`) collects the tags no other field claimed. The
// optional `fmt` tag ("ascii", "int") only affects Describe output.
//
// Byte slice fields distinguish absence from emptiness: a nil slice means the tag
// is not present, a non-nil empty slice means the tag is present with a zero
// length value. Unmarshal and Marshal both honour this, so placeholder objects
// such as an empty certificate slot survive a round trip.
package tlv

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/moov-io/bertlv"
)

var packetsType = reflect.TypeOf([]bertlv.TLV(nil))

// binding is the parsed form of one exported struct field.
type binding struct {
	index   int
	name    string
	tag     string // upper case hex, empty when the field is not bound
	format  string
	unknown bool
}

func (b binding) label() string {
	if b.tag == "" {
		return b.name
	}
	return fmt.Sprintf("%s (%s)", b.name, b.tag)
}

var bindingCache sync.Map // reflect.Type -> []binding

// bindingsOf returns the field bindings of struct type t in declaration order.
func bindingsOf(t reflect.Type) []binding {
	if cached, ok := bindingCache.Load(t); ok {
		return cached.([]binding)
	}

	var out []binding
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		tag, opts, _ := strings.Cut(sf.Tag.Get("tlv"), ",")
		out = append(out, binding{
			index:   i,
			name:    sf.Name,
			tag:     strings.ToUpper(tag),
			format:  sf.Tag.Get("fmt"),
			unknown: opts == "unknown" || sf.Name == "Unknown",
		})
	}

	bindingCache.Store(t, out)
	return out
}

// structValue dereferences v down to a struct. ok is false for nil pointers
// and non struct kinds.
func structValue(v reflect.Value) (reflect.Value, bool) {
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return reflect.Value{}, false
		}
		v = v.Elem()
	}
	return v, v.Kind() == reflect.Struct
}

func isByteSlice(v reflect.Value) bool {
	return v.Kind() == reflect.Slice && v.Type().Elem().Kind() == reflect.Uint8
}

func isStructOrPtrToStruct(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Struct:
		return true
	case reflect.Ptr:
		return v.Type().Elem().Kind() == reflect.Struct
	}
	return false
}

// contentOf returns the value bytes of p, re-encoding the children of a
// constructed object.
func contentOf(p bertlv.TLV) []byte {
	if len(p.TLVs) > 0 {
		if enc, err := bertlv.Encode(p.TLVs); err == nil {
			return enc
		}
	}
	return p.Value
}
