package emv

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gregLibert/emvcard/pkg/tlv"
	"github.com/moov-io/bertlv"
)

// FCI is the answer to SELECT for an application (EMV Book 1, 11.3.4): a '6F'
// template holding the DF name and the 'A5' proprietary template.
type FCI struct {
	DFName      []byte         `tlv:"84" fmt:"ascii"`
	Proprietary FCIProprietary `tlv:"A5"`

	Unknown []bertlv.TLV `tlv:",unknown"`

	// LengthsRepaired is set when the declared template lengths disagreed with
	// the content and the objects were regrouped by ParseFCI.
	LengthsRepaired bool
}

// FCIProprietary is the content of the 'A5' template.
type FCIProprietary struct {
	ApplicationLabel     []byte `tlv:"50" fmt:"ascii"`
	PriorityIndicator    []byte `tlv:"87" fmt:"int"`
	PDOL                 []byte `tlv:"9F38"`
	LanguagePreference   []byte `tlv:"5F2D" fmt:"ascii"`
	IssuerCodeTableIndex []byte `tlv:"9F11" fmt:"int"`
	PreferredName        []byte `tlv:"9F12" fmt:"ascii"`

	Discretionary *FCIDiscretionary `tlv:"BF0C"`

	Unknown []bertlv.TLV `tlv:",unknown"`
}

// FCIDiscretionary is the 'BF0C' issuer discretionary template.
type FCIDiscretionary struct {
	LogEntry       []byte `tlv:"9F4D"`
	IINExtended    []byte `tlv:"9F0C"`
	CountryAlpha3  []byte `tlv:"5F56" fmt:"ascii"`
	CountryAlpha2  []byte `tlv:"5F55" fmt:"ascii"`
	BIC            []byte `tlv:"5F54" fmt:"ascii"`
	IBAN           []byte `tlv:"5F53" fmt:"ascii"`
	IssuerURL      []byte `tlv:"5F50" fmt:"ascii"`
	IssuerIDNumber []byte `tlv:"42"`

	Unknown []bertlv.TLV `tlv:",unknown"`
}

const (
	fciProprietaryTag   = "A5"
	fciDiscretionaryTag = "BF0C"
)

// errEmpty is returned when a response carries no data object at all.
var errEmpty = errors.New("no data to parse")

// templateContent decodes data and returns the children of its leading
// template. When the template is optional, data that does not start with it is
// returned as is.
func templateContent(data []byte, tag string, optional bool) ([]bertlv.TLV, error) {
	if len(data) == 0 {
		return nil, errEmpty
	}

	packets, err := bertlv.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("BER-TLV decode failed: %w", err)
	}

	if len(packets) > 0 && strings.EqualFold(packets[0].Tag, tag) {
		return packets[0].TLVs, nil
	}
	if optional {
		return packets, nil
	}
	return nil, fmt.Errorf("missing mandatory template %s", tag)
}

// ParseFCI decodes a SELECT response. A bare list of objects without the '6F'
// wrapper is accepted too.
//
// Some cards declare template lengths that do not match their content. When the
// strict decoding fails, the primitive objects are read one after the other and
// regrouped under the template opened last; the result has LengthsRepaired set.
func ParseFCI(data []byte) (*FCI, error) {
	repaired := false
	packets, err := templateContent(data, FCITemplateTag, true)
	if err != nil {
		if errors.Is(err, errEmpty) {
			return nil, err
		}
		regrouped, rerr := regroupFCI(data)
		if rerr != nil {
			return nil, fmt.Errorf("%w (regrouping: %v)", err, rerr)
		}
		packets, repaired = regrouped, true
	}

	fci := &FCI{}
	if err := tlv.UnmarshalFromPackets(packets, fci); err != nil {
		return nil, fmt.Errorf("failed to map FCI: %w", err)
	}
	fci.LengthsRepaired = repaired
	return fci, nil
}

// regroupFCI walks data without trusting template lengths: a template header
// only switches the current template, and every primitive object is filed
// under it. Primitive lengths must still fit the data.
func regroupFCI(data []byte) ([]bertlv.TLV, error) {
	groups := make(map[string][]bertlv.TLV)
	opened := make(map[string]bool)
	current := FCITemplateTag

	for i := 0; i < len(data); {
		constructed := data[i]&0x20 != 0
		tag, length, next, err := readHeader(data, i)
		if err != nil {
			return nil, err
		}

		if constructed {
			switch tag {
			case FCITemplateTag, fciProprietaryTag, fciDiscretionaryTag:
			default:
				return nil, fmt.Errorf("unexpected template %s at offset %d", tag, i)
			}
			current, opened[tag] = tag, true
			i = next
			continue
		}

		if next+length > len(data) {
			return nil, fmt.Errorf("tag %s overruns the data by %d bytes", tag, next+length-len(data))
		}
		groups[current] = append(groups[current], bertlv.NewTag(tag, append([]byte{}, data[next:next+length]...)))
		i = next + length
	}

	packets := groups[FCITemplateTag]
	if opened[fciProprietaryTag] || opened[fciDiscretionaryTag] {
		proprietary := groups[fciProprietaryTag]
		if opened[fciDiscretionaryTag] {
			proprietary = append(proprietary, bertlv.NewComposite(fciDiscretionaryTag, groups[fciDiscretionaryTag]...))
		}
		packets = append(packets, bertlv.NewComposite(fciProprietaryTag, proprietary...))
	}
	return packets, nil
}

// Bytes encodes the FCI as a '6F' template. Lengths are computed from content.
func (f *FCI) Bytes() ([]byte, error) {
	return tlv.Marshal(FCITemplateTag, f)
}

// Describe lists every data object of the FCI, template by template.
func (f *FCI) Describe() string {
	var sb strings.Builder
	sb.WriteString("=== EMV FCI TEMPLATE ===")

	tlv.WriteStructFields(&sb, "FCI", f)
	tlv.WriteStructFields(&sb, "Proprietary", f.Proprietary)
	tlv.WriteStructFields(&sb, "Discretionary", f.Proprietary.Discretionary)
	if f.LengthsRepaired {
		sb.WriteString("\n    ! Declared template lengths do not match the content.")
	}

	return sb.String()
}
