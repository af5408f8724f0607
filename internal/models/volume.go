package models

import (
	"fmt"
	"math"
	"strings"
)

// Encoding identifies the binary representation of a single sample value
// stored in a RAW volume.
type Encoding string

const (
	// UInt8 is an 8-bit unsigned integer sample.
	UInt8 Encoding = "uint8"

	// UInt16 is a 16-bit unsigned integer sample, little-endian.
	UInt16 Encoding = "uint16"

	// Float32 is a 32-bit IEEE 754 floating-point sample, little-endian.
	Float32 Encoding = "float32"
)

// ParseEncoding converts a user-supplied format name into an Encoding.
// Only uint8, uint16, and float32 volumes are supported.
func ParseEncoding(s string) (Encoding, error) {
	switch Encoding(strings.ToLower(strings.TrimSpace(s))) {
	case UInt8:
		return UInt8, nil
	case UInt16:
		return UInt16, nil
	case Float32:
		return Float32, nil
	}
	return "", fmt.Errorf("format %q: %w", s, ErrUnsupportedEncoding)
}

// Valid reports whether the encoding is one of the supported sample types.
func (e Encoding) Valid() bool {
	switch e {
	case UInt8, UInt16, Float32:
		return true
	}
	return false
}

// ByteWidth returns the number of bytes occupied by one sample.
func (e Encoding) ByteWidth() int {
	switch e {
	case UInt8:
		return 1
	case UInt16:
		return 2
	case Float32:
		return 4
	}
	return 0
}

// NaturalRange returns the canonical numeric range of the encoding.
// Unsigned integer types span their full representable range. Float32 has
// no natural data bound, so its representable extremes are returned; callers
// converting from float data are expected to scan the actual samples instead.
func (e Encoding) NaturalRange() Range {
	switch e {
	case UInt8:
		return Range{Min: 0, Max: math.MaxUint8}
	case UInt16:
		return Range{Min: 0, Max: math.MaxUint16}
	case Float32:
		return Range{Min: -math.MaxFloat32, Max: math.MaxFloat32}
	}
	return Range{}
}

// Range is a closed numeric interval over sample values, Min <= Max.
type Range struct {
	Min float64
	Max float64
}

// Merge widens the range to include the other range.
func (r Range) Merge(other Range) Range {
	return Range{
		Min: math.Min(r.Min, other.Min),
		Max: math.Max(r.Max, other.Max),
	}
}

// Degenerate reports whether the range spans no interval at all.
func (r Range) Degenerate() bool {
	return r.Min == r.Max
}

// VolumeDescriptor describes a RAW volume as recorded in its companion DAT
// metadata file: voxel dimensions, per-axis physical slice thickness, the
// sample encoding, and the object model tag.
type VolumeDescriptor struct {
	// ObjectFileName is the RAW file the descriptor refers to (basename only).
	ObjectFileName string

	// XDim, YDim, ZDim are the voxel counts along each axis.
	XDim, YDim, ZDim int

	// XThickness, YThickness, ZThickness are the physical thicknesses of one
	// voxel along each axis, in the scanner's units.
	XThickness, YThickness, ZThickness float64

	// Format is the sample encoding of the volume data.
	Format Encoding

	// ObjectModel tags what the samples measure (X-ray volumes are DENSITY).
	ObjectModel string
}

// VoxelCount returns the total number of samples in the volume.
func (d VolumeDescriptor) VoxelCount() int64 {
	return int64(d.XDim) * int64(d.YDim) * int64(d.ZDim)
}

// SliceBytes returns the byte size of one z-slice at the given encoding.
func (d VolumeDescriptor) SliceBytes(enc Encoding) int {
	return d.XDim * d.YDim * enc.ByteWidth()
}

// VolumeBytes returns the expected byte size of the whole volume file at the
// given encoding. A well-formed volume file has exactly this size.
func (d VolumeDescriptor) VolumeBytes(enc Encoding) int64 {
	return d.VoxelCount() * int64(enc.ByteWidth())
}

// ConversionJob describes one single-volume conversion: the RAW file, its DAT
// metadata sidecar, and the desired output encoding. Jobs are ephemeral and
// derived fresh per invocation.
type ConversionJob struct {
	VolumePath   string
	MetadataPath string
	Target       Encoding
}

// AssemblyJob describes one slice-assembly run: an NSIHDR project header to
// assemble into a single RAW volume. When Force is set, an existing output
// volume is deleted before assembly begins; otherwise the job aborts.
type AssemblyJob struct {
	HeaderPath string

	// OutputPath is the target RAW file. Empty means alongside the header,
	// with the header's basename and a .raw extension.
	OutputPath string

	Force bool
}
