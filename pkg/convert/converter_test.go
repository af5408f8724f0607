package convert

import (
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"testing"

	"rawtools/internal/models"
	"rawtools/pkg/dat"
)

// testParams returns pipeline parameters that stay quiet under test
func testParams() Params {
	return Params{
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		ShowProgress: false,
		ScanWorkers:  2,
	}
}

// writeVolume writes a RAW volume fixture plus its DAT sidecar and returns
// the volume path
func writeVolume(t *testing.T, dir, name string, desc models.VolumeDescriptor, samples []float64) string {
	t.Helper()

	buf, err := EncodeSamples(samples, desc.Format)
	if err != nil {
		t.Fatalf("Encoding fixture failed: %v", err)
	}
	volumePath := filepath.Join(dir, name+".raw")
	if err := os.WriteFile(volumePath, buf, 0644); err != nil {
		t.Fatalf("Writing volume fixture failed: %v", err)
	}
	if err := dat.Write(filepath.Join(dir, name+".dat"), desc); err != nil {
		t.Fatalf("Writing DAT fixture failed: %v", err)
	}
	return volumePath
}

// readSamples decodes a whole volume file
func readSamples(t *testing.T, path string, enc models.Encoding) []float64 {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Reading %s failed: %v", path, err)
	}
	samples, err := DecodeSamples(data, enc)
	if err != nil {
		t.Fatalf("Decoding %s failed: %v", path, err)
	}
	return samples
}

// TestConvertUint8ToUint16 verifies the reference scenario: a 64x64x10 uint8
// volume converts to uint16 with v' = round(v/255*65535), and the new DAT
// reports the target format with unchanged dimensions and thickness
func TestConvertUint8ToUint16(t *testing.T) {
	dir := t.TempDir()
	desc := models.VolumeDescriptor{
		XDim: 64, YDim: 64, ZDim: 10,
		XThickness: 0.1, YThickness: 0.1, ZThickness: 0.1,
		Format: models.UInt8, ObjectModel: "DENSITY",
	}

	samples := make([]float64, desc.VoxelCount())
	for i := range samples {
		samples[i] = float64(i % 256)
	}
	volumePath := writeVolume(t, dir, "volume", desc, samples)

	converter := NewConverter(testParams())
	job := models.ConversionJob{
		VolumePath:   volumePath,
		MetadataPath: filepath.Join(dir, "volume.dat"),
		Target:       models.UInt16,
	}
	if err := converter.Convert(job); err != nil {
		t.Fatalf("Convert failed: %v", err)
	}

	outputPath := filepath.Join(dir, "volume-uint16.raw")
	got := readSamples(t, outputPath, models.UInt16)
	if len(got) != len(samples) {
		t.Fatalf("Expected %d output samples, got %d", len(samples), len(got))
	}
	for i, v := range samples {
		want := math.Round(v / 255 * 65535)
		if got[i] != want {
			t.Fatalf("Sample %d: expected %v, got %v", i, want, got[i])
		}
	}

	outDesc, err := dat.Read(filepath.Join(dir, "volume-uint16.dat"))
	if err != nil {
		t.Fatalf("Reading output DAT failed: %v", err)
	}
	if outDesc.Format != models.UInt16 {
		t.Errorf("Expected output format uint16, got %q", outDesc.Format)
	}
	if outDesc.XDim != 64 || outDesc.YDim != 64 || outDesc.ZDim != 10 {
		t.Errorf("Expected unchanged dimensions, got %dx%dx%d", outDesc.XDim, outDesc.YDim, outDesc.ZDim)
	}
	if outDesc.XThickness != 0.1 || outDesc.YThickness != 0.1 || outDesc.ZThickness != 0.1 {
		t.Errorf("Expected unchanged thickness, got %v %v %v",
			outDesc.XThickness, outDesc.YThickness, outDesc.ZThickness)
	}
	if outDesc.ObjectFileName != "volume-uint16.raw" {
		t.Errorf("Expected object file name volume-uint16.raw, got %q", outDesc.ObjectFileName)
	}
}

// TestConvertFloat32ToUint16 verifies that float sources get their input
// range discovered by scanning the actual data
func TestConvertFloat32ToUint16(t *testing.T) {
	dir := t.TempDir()
	desc := models.VolumeDescriptor{
		XDim: 4, YDim: 4, ZDim: 2,
		XThickness: 1, YThickness: 1, ZThickness: 1,
		Format: models.Float32, ObjectModel: "DENSITY",
	}

	samples := make([]float64, desc.VoxelCount())
	for i := range samples {
		samples[i] = float64(i)*125 - 1000 // spans [-1000, 2875]
	}
	volumePath := writeVolume(t, dir, "scan", desc, samples)

	converter := NewConverter(testParams())
	job := models.ConversionJob{
		VolumePath:   volumePath,
		MetadataPath: filepath.Join(dir, "scan.dat"),
		Target:       models.UInt16,
	}
	if err := converter.Convert(job); err != nil {
		t.Fatalf("Convert failed: %v", err)
	}

	got := readSamples(t, filepath.Join(dir, "scan-uint16.raw"), models.UInt16)
	for i, v := range samples {
		want := math.Round((v - (-1000)) / (2875 - (-1000)) * 65535)
		if got[i] != want {
			t.Fatalf("Sample %d: expected %v, got %v", i, want, got[i])
		}
	}
}

// TestConvertNoOpOnSameEncoding verifies idempotence: converting a volume to
// its current encoding performs no writes
func TestConvertNoOpOnSameEncoding(t *testing.T) {
	dir := t.TempDir()
	desc := models.VolumeDescriptor{
		XDim: 4, YDim: 4, ZDim: 1,
		XThickness: 1, YThickness: 1, ZThickness: 1,
		Format: models.UInt8, ObjectModel: "DENSITY",
	}
	volumePath := writeVolume(t, dir, "same", desc, make([]float64, desc.VoxelCount()))

	converter := NewConverter(testParams())
	job := models.ConversionJob{
		VolumePath:   volumePath,
		MetadataPath: filepath.Join(dir, "same.dat"),
		Target:       models.UInt8,
	}
	if err := converter.Convert(job); err != nil {
		t.Fatalf("Convert failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "same-uint8.raw")); !os.IsNotExist(err) {
		t.Error("Expected no output file for a same-encoding conversion")
	}
}

// TestConvertNeverClobbers verifies that a second conversion run leaves the
// existing output byte-identical and reports no error
func TestConvertNeverClobbers(t *testing.T) {
	dir := t.TempDir()
	desc := models.VolumeDescriptor{
		XDim: 8, YDim: 8, ZDim: 2,
		XThickness: 1, YThickness: 1, ZThickness: 1,
		Format: models.UInt8, ObjectModel: "DENSITY",
	}
	samples := make([]float64, desc.VoxelCount())
	for i := range samples {
		samples[i] = float64(i % 256)
	}
	volumePath := writeVolume(t, dir, "keep", desc, samples)

	converter := NewConverter(testParams())
	job := models.ConversionJob{
		VolumePath:   volumePath,
		MetadataPath: filepath.Join(dir, "keep.dat"),
		Target:       models.UInt16,
	}

	if err := converter.Convert(job); err != nil {
		t.Fatalf("First conversion failed: %v", err)
	}
	outputPath := filepath.Join(dir, "keep-uint16.raw")
	first, err := os.ReadFile(outputPath)
	if err != nil {
		t.Fatalf("Reading first output failed: %v", err)
	}

	if err := converter.Convert(job); err != nil {
		t.Fatalf("Second conversion failed: %v", err)
	}
	second, err := os.ReadFile(outputPath)
	if err != nil {
		t.Fatalf("Reading second output failed: %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("Output size changed: %d vs %d bytes", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("Output byte %d changed across runs", i)
		}
	}
}

// TestConvertIntegerRoundTrip verifies that widening and narrowing between
// integer encodings reproduces the original samples exactly
func TestConvertIntegerRoundTrip(t *testing.T) {
	dir := t.TempDir()
	desc := models.VolumeDescriptor{
		XDim: 16, YDim: 16, ZDim: 2,
		XThickness: 1, YThickness: 1, ZThickness: 1,
		Format: models.UInt8, ObjectModel: "DENSITY",
	}
	samples := make([]float64, desc.VoxelCount())
	for i := range samples {
		samples[i] = float64(i % 256)
	}
	volumePath := writeVolume(t, dir, "trip", desc, samples)

	converter := NewConverter(testParams())

	// uint8 -> uint16
	up := models.ConversionJob{
		VolumePath:   volumePath,
		MetadataPath: filepath.Join(dir, "trip.dat"),
		Target:       models.UInt16,
	}
	if err := converter.Convert(up); err != nil {
		t.Fatalf("Widening conversion failed: %v", err)
	}

	// uint16 -> uint8
	down := models.ConversionJob{
		VolumePath:   filepath.Join(dir, "trip-uint16.raw"),
		MetadataPath: filepath.Join(dir, "trip-uint16.dat"),
		Target:       models.UInt8,
	}
	if err := converter.Convert(down); err != nil {
		t.Fatalf("Narrowing conversion failed: %v", err)
	}

	got := readSamples(t, filepath.Join(dir, "trip-uint16-uint8.raw"), models.UInt8)
	for i := range samples {
		if got[i] != samples[i] {
			t.Fatalf("Sample %d: expected %v after round trip, got %v", i, samples[i], got[i])
		}
	}
}

// TestConvertRejectsUnsupportedTarget verifies target validation before any
// I/O happens
func TestConvertRejectsUnsupportedTarget(t *testing.T) {
	converter := NewConverter(testParams())
	job := models.ConversionJob{
		VolumePath:   "missing.raw",
		MetadataPath: "missing.dat",
		Target:       models.Encoding("int64"),
	}
	err := converter.Convert(job)
	if err == nil {
		t.Fatal("Expected an error for unsupported target encoding")
	}
}

// TestConvertMissingMetadata verifies that an absent DAT file fails the job
func TestConvertMissingMetadata(t *testing.T) {
	dir := t.TempDir()
	volumePath := filepath.Join(dir, "orphan.raw")
	if err := os.WriteFile(volumePath, make([]byte, 16), 0644); err != nil {
		t.Fatalf("Writing fixture failed: %v", err)
	}

	converter := NewConverter(testParams())
	job := models.ConversionJob{
		VolumePath:   volumePath,
		MetadataPath: filepath.Join(dir, "orphan.dat"),
		Target:       models.UInt16,
	}
	if err := converter.Convert(job); err == nil {
		t.Fatal("Expected an error for missing metadata")
	}
}
