package internal

// Codec mirrors the root package's Codec interface so that codec subpackages
// can assert against it without importing the root package.
type Codec[Record any] interface {
	Encode(record Record) ([]byte, error)
	Decode(data []byte) (Record, error)
}
