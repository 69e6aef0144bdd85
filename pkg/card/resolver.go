package card

import (
	"errors"
	"fmt"

	"github.com/gregLibert/emvcard/pkg/iso7816"
)

// ErrRecordNotFound is returned when a READ RECORD address is not part of the catalog.
var ErrRecordNotFound = errors.New("record not found")

// FileAddress designates one record of an elementary file.
type FileAddress struct {
	SFI    byte
	Record byte
}

func (a FileAddress) String() string {
	return fmt.Sprintf("SFI %d record %d", a.SFI, a.Record)
}

// AddressFromParams decodes the READ RECORD parameters. P1 is the record number
// and P2 carries the SFI on bits 8-4 with the "P1 is a record number" mode
// ('100') on bits 3-1. Any other reference control is not an address.
func AddressFromParams(p1, p2 byte) (FileAddress, bool) {
	sfi, mode := iso7816.DecodeReadRecordP2(p2)
	if mode != iso7816.ReadRecordP1 {
		return FileAddress{}, false
	}
	return FileAddress{SFI: sfi, Record: p1}, true
}

// Resolver maps READ RECORD parameters to catalog entries. Resolution depends
// only on the two parameter bytes.
type Resolver struct {
	table map[FileAddress]DataObjectRecord
}

// NewResolver builds the lookup table from the readable addresses of the store.
func NewResolver(store *StaticDataStore) *Resolver {
	table := make(map[FileAddress]DataObjectRecord, len(store.order))
	for _, addr := range store.Addresses() {
		rec, _ := store.Record(addr)
		table[addr] = rec
	}
	return &Resolver{table: table}
}

// Resolve returns the record designated by P1/P2, or an error wrapping
// ErrRecordNotFound.
func (r *Resolver) Resolve(p1, p2 byte) (DataObjectRecord, error) {
	addr, ok := AddressFromParams(p1, p2)
	if !ok {
		return nil, fmt.Errorf("%w: unsupported reference control P1=%02X P2=%02X", ErrRecordNotFound, p1, p2)
	}

	rec, ok := r.table[addr]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRecordNotFound, addr)
	}
	return rec, nil
}
