// Package json provides a JSON codec for dead-letter records.
package json

import (
	"encoding/json"

	"github.com/teenjuna/redrain/internal"
)

// Codec is a [json] based codec.
type Codec[Record any] struct{}

var _ internal.Codec[any] = (*Codec[any])(nil)

// New creates a new codec.
func New[Record any]() *Codec[Record] {
	return &Codec[Record]{}
}

// Encode encodes the record into JSON.
func (c *Codec[Record]) Encode(record Record) ([]byte, error) {
	return json.Marshal(record)
}

// Decode decodes the record from JSON.
func (c *Codec[Record]) Decode(data []byte) (Record, error) {
	var record Record
	err := json.Unmarshal(data, &record)
	return record, err
}
