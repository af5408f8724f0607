package convert

import (
	"errors"
	"math"
	"testing"

	"rawtools/internal/models"
)

// TestDecodeSamples verifies little-endian decoding of each encoding
func TestDecodeSamples(t *testing.T) {
	// uint8
	got, err := DecodeSamples([]byte{0, 1, 255}, models.UInt8)
	if err != nil {
		t.Fatalf("Decode uint8 failed: %v", err)
	}
	for i, want := range []float64{0, 1, 255} {
		if got[i] != want {
			t.Errorf("uint8 sample %d: expected %v, got %v", i, want, got[i])
		}
	}

	// uint16, little-endian
	got, err = DecodeSamples([]byte{0x01, 0x00, 0xFF, 0xFF}, models.UInt16)
	if err != nil {
		t.Fatalf("Decode uint16 failed: %v", err)
	}
	if got[0] != 1 || got[1] != 65535 {
		t.Errorf("Expected uint16 samples [1, 65535], got %v", got)
	}

	// float32
	bits := math.Float32bits(-1000.25)
	buf := []byte{byte(bits), byte(bits >> 8), byte(bits >> 16), byte(bits >> 24)}
	got, err = DecodeSamples(buf, models.Float32)
	if err != nil {
		t.Fatalf("Decode float32 failed: %v", err)
	}
	if got[0] != -1000.25 {
		t.Errorf("Expected float32 sample -1000.25, got %v", got[0])
	}
}

// TestDecodeRejectsPartialSample verifies that a buffer that is not a whole
// number of samples fails with ErrInvalidInput
func TestDecodeRejectsPartialSample(t *testing.T) {
	if _, err := DecodeSamples([]byte{1, 2, 3}, models.UInt16); !errors.Is(err, models.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for 3 bytes of uint16, got %v", err)
	}
}

// TestEncodeRoundsAndClamps verifies integer casting semantics: round to
// nearest, then clamp into the representable domain
func TestEncodeRoundsAndClamps(t *testing.T) {
	buf, err := EncodeSamples([]float64{-12.9, 0.4, 0.5, 254.6, 300}, models.UInt8)
	if err != nil {
		t.Fatalf("Encode uint8 failed: %v", err)
	}
	want := []byte{0, 0, 1, 255, 255}
	for i := range want {
		if buf[i] != want[i] {
			t.Errorf("Encoded byte %d: expected %d, got %d", i, want[i], buf[i])
		}
	}
}

// TestEncodeDecodeRoundTrip verifies that encoding then decoding preserves
// integer-valued samples exactly
func TestEncodeDecodeRoundTrip(t *testing.T) {
	samples := []float64{0, 1, 256, 65535}

	buf, err := EncodeSamples(samples, models.UInt16)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if len(buf) != len(samples)*2 {
		t.Fatalf("Expected %d bytes, got %d", len(samples)*2, len(buf))
	}

	got, err := DecodeSamples(buf, models.UInt16)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	for i := range samples {
		if got[i] != samples[i] {
			t.Errorf("Sample %d: expected %v, got %v", i, samples[i], got[i])
		}
	}
}

// TestEncodeFloat32NarrowsPrecision verifies that float targets only narrow
// precision, without rounding or clamping
func TestEncodeFloat32NarrowsPrecision(t *testing.T) {
	samples := []float64{-1000.5, 0.25, 3000.75}

	buf, err := EncodeSamples(samples, models.Float32)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	got, err := DecodeSamples(buf, models.Float32)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	for i := range samples {
		if got[i] != samples[i] {
			t.Errorf("Sample %d: expected %v, got %v", i, samples[i], got[i])
		}
	}
}
