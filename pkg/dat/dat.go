// Package dat reads and writes the DAT metadata sidecar that accompanies a
// RAW volume. A DAT file is a small line-oriented text document of
// "Key: value" pairs describing the volume's dimensions, per-axis physical
// slice thickness, sample format, and object model.
package dat

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"rawtools/internal/models"
)

// Format tags used by the DAT grammar for each sample encoding.
const (
	tagUChar  = "UCHAR"
	tagUShort = "USHORT"
	tagFloat  = "FLOAT"
)

// FormatTag returns the DAT format tag for a sample encoding.
func FormatTag(enc models.Encoding) (string, error) {
	switch enc {
	case models.UInt8:
		return tagUChar, nil
	case models.UInt16:
		return tagUShort, nil
	case models.Float32:
		return tagFloat, nil
	}
	return "", fmt.Errorf("format tag for %q: %w", enc, models.ErrUnsupportedEncoding)
}

// parseFormatTag accepts either a DAT format tag (UCHAR, USHORT, FLOAT) or a
// plain encoding name (uint8, uint16, float32), case-insensitively.
func parseFormatTag(tag string) (models.Encoding, error) {
	switch strings.ToUpper(strings.TrimSpace(tag)) {
	case tagUChar, "UINT8":
		return models.UInt8, nil
	case tagUShort, "UINT16":
		return models.UInt16, nil
	case tagFloat, "FLOAT32":
		return models.Float32, nil
	}
	return "", fmt.Errorf("format tag %q: %w", tag, models.ErrUnsupportedEncoding)
}

// Read parses a DAT file into a VolumeDescriptor. A missing file or any
// missing or unparsable field fails with ErrMetadata.
func Read(path string) (models.VolumeDescriptor, error) {
	var desc models.VolumeDescriptor

	data, err := os.ReadFile(path)
	if err != nil {
		return desc, fmt.Errorf("reading DAT file %q: %w", path, models.ErrMetadata)
	}

	fields := make(map[string]string)
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		fields[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}

	required := []string{"ObjectFileName", "Resolution", "SliceThickness", "Format", "ObjectModel"}
	for _, key := range required {
		if _, ok := fields[key]; !ok {
			return desc, fmt.Errorf("DAT file %q is missing %s: %w", path, key, models.ErrMetadata)
		}
	}

	desc.ObjectFileName = fields["ObjectFileName"]
	desc.ObjectModel = fields["ObjectModel"]

	dims, err := parseInts(fields["Resolution"], 3)
	if err != nil {
		return desc, fmt.Errorf("DAT file %q Resolution: %w", path, models.ErrMetadata)
	}
	desc.XDim, desc.YDim, desc.ZDim = dims[0], dims[1], dims[2]
	if desc.XDim <= 0 || desc.YDim <= 0 || desc.ZDim <= 0 {
		return desc, fmt.Errorf("DAT file %q has non-positive dimensions: %w", path, models.ErrMetadata)
	}

	thickness, err := parseFloats(fields["SliceThickness"], 3)
	if err != nil {
		return desc, fmt.Errorf("DAT file %q SliceThickness: %w", path, models.ErrMetadata)
	}
	desc.XThickness, desc.YThickness, desc.ZThickness = thickness[0], thickness[1], thickness[2]

	desc.Format, err = parseFormatTag(fields["Format"])
	if err != nil {
		return desc, fmt.Errorf("DAT file %q: %w", path, err)
	}

	return desc, nil
}

// Write emits a DAT file for the descriptor, overwriting any existing file.
// The ObjectFileName line always carries a .raw basename derived from the DAT
// path so the pair of files stays self-consistent.
func Write(path string, desc models.VolumeDescriptor) error {
	tag, err := FormatTag(desc.Format)
	if err != nil {
		return err
	}

	name := desc.ObjectFileName
	if name == "" {
		base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		name = base + ".raw"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "ObjectFileName: %s\n", name)
	fmt.Fprintf(&b, "Resolution:     %d %d %d\n", desc.XDim, desc.YDim, desc.ZDim)
	fmt.Fprintf(&b, "SliceThickness: %s %s %s\n",
		formatThickness(desc.XThickness),
		formatThickness(desc.YThickness),
		formatThickness(desc.ZThickness))
	fmt.Fprintf(&b, "Format:         %s\n", tag)
	fmt.Fprintf(&b, "ObjectModel:    %s\n", desc.ObjectModel)

	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("writing DAT file %q: %w", path, err)
	}
	return nil
}

// InferEncoding determines the sample encoding of a volume from its file size
// and declared dimensions. The file size must divide exactly into the voxel
// count with a supported per-sample width, otherwise ErrUnknownEncoding.
func InferEncoding(volumePath string, desc models.VolumeDescriptor) (models.Encoding, error) {
	info, err := os.Stat(volumePath)
	if err != nil {
		return "", fmt.Errorf("stat volume %q: %w", volumePath, err)
	}

	voxels := desc.VoxelCount()
	if voxels <= 0 {
		return "", fmt.Errorf("volume %q has no voxels: %w", volumePath, models.ErrUnknownEncoding)
	}
	if info.Size()%voxels != 0 {
		return "", fmt.Errorf("volume %q size %d does not divide %d voxels: %w",
			volumePath, info.Size(), voxels, models.ErrUnknownEncoding)
	}

	switch info.Size() / voxels {
	case 1:
		return models.UInt8, nil
	case 2:
		return models.UInt16, nil
	case 4:
		return models.Float32, nil
	}
	return "", fmt.Errorf("volume %q has %d bytes per voxel: %w",
		volumePath, info.Size()/voxels, models.ErrUnknownEncoding)
}

func parseInts(s string, n int) ([]int, error) {
	parts := strings.Fields(s)
	if len(parts) != n {
		return nil, fmt.Errorf("expected %d values, found %d", n, len(parts))
	}
	values := make([]int, n)
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}

func parseFloats(s string, n int) ([]float64, error) {
	parts := strings.Fields(s)
	if len(parts) != n {
		return nil, fmt.Errorf("expected %d values, found %d", n, len(parts))
	}
	values := make([]float64, n)
	for i, p := range parts {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}

// formatThickness renders a thickness value the way the DAT grammar expects:
// a plain decimal with no exponent and an explicit fractional part.
func formatThickness(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
