package meshio

import (
	"fmt"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects the payload codec.
type Compression uint8

const (
	CompressionNone Compression = 0
	CompressionLZ4  Compression = 1
	CompressionZstd Compression = 2
)

var compressionNames = map[Compression]string{
	CompressionNone: "none",
	CompressionLZ4:  "lz4",
	CompressionZstd: "zstd",
}

func (c Compression) String() string {
	if s, ok := compressionNames[c]; ok {
		return s
	}
	return fmt.Sprintf("Compression(%d)", uint8(c))
}

// ParseCompression maps "none", "lz4" or "zstd" to a Compression.
func ParseCompression(s string) (Compression, error) {
	for c, name := range compressionNames {
		if strings.EqualFold(s, name) {
			return c, nil
		}
	}
	return 0, fmt.Errorf("meshio: unknown compression %q", s)
}

// Payloads that shrink by less than this are stored raw.
const maxRatio = 0.9

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() (*zstd.Encoder, error) {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder), nil
	}
	return zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
}

func getZstdDecoder() (*zstd.Decoder, error) {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder), nil
	}
	return zstd.NewReader(nil)
}

// compress returns the stored bytes and whether they are compressed.
func compress(data []byte, c Compression) ([]byte, bool, error) {
	if c == CompressionNone || len(data) == 0 {
		return data, false, nil
	}
	var out []byte
	switch c {
	case CompressionLZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, buf, nil)
		if err != nil {
			return nil, false, fmt.Errorf("meshio: lz4: %w", err)
		}
		out = buf[:n]
	case CompressionZstd:
		enc, err := getZstdEncoder()
		if err != nil {
			return nil, false, fmt.Errorf("meshio: zstd: %w", err)
		}
		out = enc.EncodeAll(data, nil)
		zstdEncoderPool.Put(enc)
	default:
		return nil, false, fmt.Errorf("meshio: unknown compression %d", uint8(c))
	}
	if len(out) == 0 || float64(len(out)) > float64(len(data))*maxRatio {
		return data, false, nil
	}
	return out, true, nil
}

func decompress(stored []byte, size int, c Compression) ([]byte, error) {
	switch c {
	case CompressionLZ4:
		out := make([]byte, size)
		n, err := lz4.UncompressBlock(stored, out)
		if err != nil {
			return nil, fmt.Errorf("meshio: lz4: %w", err)
		}
		if n != size {
			return nil, fmt.Errorf("%w: lz4 size %d, header says %d", ErrFormat, n, size)
		}
		return out, nil
	case CompressionZstd:
		dec, err := getZstdDecoder()
		if err != nil {
			return nil, fmt.Errorf("meshio: zstd: %w", err)
		}
		defer zstdDecoderPool.Put(dec)
		out, err := dec.DecodeAll(stored, make([]byte, 0, size))
		if err != nil {
			return nil, fmt.Errorf("meshio: zstd: %w", err)
		}
		if len(out) != size {
			return nil, fmt.Errorf("%w: zstd size %d, header says %d", ErrFormat, len(out), size)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: compressed payload with codec %s", ErrFormat, c)
	}
}
