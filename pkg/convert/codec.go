package convert

import (
	"encoding/binary"
	"fmt"
	"math"

	"rawtools/internal/models"
)

// DecodeSamples interprets a little-endian byte buffer as a sequence of
// samples in the given encoding and widens them to float64 for numeric work.
// The buffer must hold a whole number of samples.
func DecodeSamples(buf []byte, enc models.Encoding) ([]float64, error) {
	width := enc.ByteWidth()
	if width == 0 {
		return nil, fmt.Errorf("decode: %q: %w", enc, models.ErrUnsupportedEncoding)
	}
	if len(buf)%width != 0 {
		return nil, fmt.Errorf("decode: %d bytes is not a whole number of %s samples: %w",
			len(buf), enc, models.ErrInvalidInput)
	}

	samples := make([]float64, len(buf)/width)
	switch enc {
	case models.UInt8:
		for i, b := range buf {
			samples[i] = float64(b)
		}
	case models.UInt16:
		for i := range samples {
			samples[i] = float64(binary.LittleEndian.Uint16(buf[i*2:]))
		}
	case models.Float32:
		for i := range samples {
			bits := binary.LittleEndian.Uint32(buf[i*4:])
			samples[i] = float64(math.Float32frombits(bits))
		}
	}
	return samples, nil
}

// EncodeSamples converts float64 samples into the little-endian byte
// representation of the given encoding. Integer targets are rounded to the
// nearest value and clamped to the encoding's representable domain; Float32
// narrows precision without further adjustment.
func EncodeSamples(samples []float64, enc models.Encoding) ([]byte, error) {
	width := enc.ByteWidth()
	if width == 0 {
		return nil, fmt.Errorf("encode: %q: %w", enc, models.ErrUnsupportedEncoding)
	}

	buf := make([]byte, len(samples)*width)
	switch enc {
	case models.UInt8:
		for i, v := range samples {
			buf[i] = uint8(clampRound(v, 0, math.MaxUint8))
		}
	case models.UInt16:
		for i, v := range samples {
			binary.LittleEndian.PutUint16(buf[i*2:], uint16(clampRound(v, 0, math.MaxUint16)))
		}
	case models.Float32:
		for i, v := range samples {
			binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(float32(v)))
		}
	}
	return buf, nil
}

// clampRound rounds to the nearest integer and clamps into [lo, hi].
func clampRound(v, lo, hi float64) float64 {
	v = math.Round(v)
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
