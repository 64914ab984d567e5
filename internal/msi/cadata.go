package msi

import (
	"errors"
	"strings"
)

// recordSeparator delimits the values packed into the CustomActionData
// property by the scheduling side of the installer.
const recordSeparator = "**"

// ErrNoMoreRecords is returned when a reader has been exhausted, which
// includes reading from an empty data blob.
var ErrNoMoreRecords = errors.New("no more records in custom action data")

// DataReader pops string records off an opaque CustomActionData blob
// in the order the scheduling action packed them.
type DataReader struct {
	records []string
}

// NewDataReader parses the opaque blob a deferred action received. An
// empty blob yields a reader with no records.
func NewDataReader(data string) *DataReader {
	if data == "" {
		return &DataReader{}
	}
	return &DataReader{records: strings.Split(data, recordSeparator)}
}

// ReadString returns the next record. Actions treat an error here as a
// fatal setup failure: required input could not be obtained.
func (r *DataReader) ReadString() (string, error) {
	if len(r.records) == 0 {
		return "", ErrNoMoreRecords
	}
	record := r.records[0]
	r.records = r.records[1:]
	return record, nil
}
