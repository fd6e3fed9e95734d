package statedb

import (
	"github.com/golang/snappy"
)

// Codec compresses and decompresses stored header/body records.
type Codec interface {
	Compress(data []byte) []byte
	Decompress(data []byte) ([]byte, error)
}

type snappyCodec struct{}

// SnappyCodec returns the codec used for the persisted chain records.
func SnappyCodec() Codec {
	return snappyCodec{}
}

func (snappyCodec) Compress(data []byte) []byte {
	return snappy.Encode(nil, data)
}

func (snappyCodec) Decompress(data []byte) ([]byte, error) {
	return snappy.Decode(nil, data)
}
