package redrain

// Codec encodes and decodes records for the dead-letter storage.
//
// Implementations are not considered thread-safe; the decorators serialize
// access to the codec through the storage.
type Codec[Record any] interface {
	// Encode serializes a record into a byte slice.
	Encode(record Record) ([]byte, error)
	// Decode deserializes a byte slice back into a record.
	Decode(data []byte) (Record, error)
}
