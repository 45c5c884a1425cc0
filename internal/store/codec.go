package store

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// Every stored value starts with one byte naming its encoding.
const (
	codecRaw  byte = 0
	codecZstd byte = 1
)

var (
	encoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	decoder, _ = zstd.NewReader(nil)
)

func encodeValue(data []byte, compress bool) ([]byte, error) {
	if !compress {
		out := make([]byte, 0, 1+len(data))
		return append(append(out, codecRaw), data...), nil
	}
	return encoder.EncodeAll(data, []byte{codecZstd}), nil
}

// decodeValue returns a copy, so the result outlives the bbolt transaction.
func decodeValue(v []byte) ([]byte, error) {
	if len(v) == 0 {
		return nil, fmt.Errorf("%w: empty value", ErrCorrupt)
	}
	switch v[0] {
	case codecRaw:
		return append([]byte(nil), v[1:]...), nil
	case codecZstd:
		out, err := decoder.DecodeAll(v[1:], nil)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: unknown codec %d", ErrCorrupt, v[0])
}
