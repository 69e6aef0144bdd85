package emv

import (
	"fmt"
	"strings"

	"github.com/gregLibert/emvcard/pkg/tlv"
	"github.com/moov-io/bertlv"
)

// READ RECORD response data according to EMV Book 3, section 6.5.11.
//
// Every record of an application elementary file is wrapped in the
// READ RECORD Response Message Template (Tag '70'). The data objects carried
// inside depend on the issuer; the fields below cover the card risk management
// lists, the cardholder data and the offline data authentication slots.

// Template tags used by the card responses.
const (
	FCITemplateTag    = "6F"
	RecordTemplateTag = "70"
)

// Record represents the content of a record read from an application file.
// Certificate fields are placeholders in a card without offline data
// authentication keys: present (non-nil) but empty.
type Record struct {
	CDOL1             []byte `tlv:"8C"`
	CDOL2             []byte `tlv:"8D"`
	PAN               []byte `tlv:"5A"`
	PANSequenceNumber []byte `tlv:"5F34" fmt:"int"`
	ExpirationDate    []byte `tlv:"5F24"`
	CardholderName    []byte `tlv:"5F20" fmt:"ascii"`
	CVMList           []byte `tlv:"8E"`

	GeographicIndicator []byte `tlv:"9F55"`
	BitFilter           []byte `tlv:"9F56"`

	CAPublicKeyIndex           []byte `tlv:"8F"`
	IssuerPublicKeyCertificate []byte `tlv:"90"`
	IssuerPublicKeyRemainder   []byte `tlv:"92"`
	IssuerPublicKeyExponent    []byte `tlv:"9F32"`
	ICCPublicKeyCertificate    []byte `tlv:"9F46"`
	ICCPublicKeyExponent       []byte `tlv:"9F47"`
	ICCPublicKeyRemainder      []byte `tlv:"9F48"`
	DDOL                       []byte `tlv:"9F49"`

	Unknown []bertlv.TLV `tlv:",unknown"`
}

// ParseRecord decodes the data of a READ RECORD response. The '70' template is mandatory.
func ParseRecord(data []byte) (*Record, error) {
	packets, err := templateContent(data, RecordTemplateTag, false)
	if err != nil {
		return nil, err
	}

	record := &Record{}
	if err := tlv.UnmarshalFromPackets(packets, record); err != nil {
		return nil, fmt.Errorf("failed to map record: %w", err)
	}

	return record, nil
}

// Bytes encodes the record inside its '70' template.
func (r *Record) Bytes() ([]byte, error) {
	return tlv.Marshal(RecordTemplateTag, r)
}

// PANDigits returns the Primary Account Number as a digit string.
func (r *Record) PANDigits() (string, error) {
	return DecodeCompressedNumeric(r.PAN)
}

// Expiry returns the Application Expiration Date as year and month.
func (r *Record) Expiry() (year, month int, err error) {
	return DecodeDate(r.ExpirationDate)
}

// Describe generates a report of every data object present in the record.
func (r *Record) Describe() string {
	var sb strings.Builder
	sb.WriteString("=== EMV RECORD TEMPLATE ===")

	tlv.WriteStructFields(&sb, "Record", r)

	return sb.String()
}
