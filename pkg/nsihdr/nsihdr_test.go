package nsihdr

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"rawtools/internal/models"
)

// writeHeader writes a header fixture and returns its path
func writeHeader(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "project.nsihdr")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Writing header fixture failed: %v", err)
	}
	return path
}

const completeHeader = `<NSI Reconstruction Project>
  <Name>project_002.nsidat</Name>
  <Name>project_000.nsidat</Name>
  <Name>project_001.nsidat</Name>
  <source to detector distance>10.0</source to detector distance>
  <source to table distance>5.0</source to table distance>
  <bit depth>16</bit depth>
  <resolution>64 3 32</resolution>
  <DataRange> -1000.5 3000.25</DataRange>
</NSI Reconstruction Project>
`

// TestParse verifies field extraction from a complete header
func TestParse(t *testing.T) {
	dir := t.TempDir()
	path := writeHeader(t, dir, completeHeader)

	hdr, err := Parse(path)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	// Slice files are resolved against the header directory and sorted
	// alphanumerically regardless of header order
	if len(hdr.SliceFiles) != 3 {
		t.Fatalf("Expected 3 slice files, got %d", len(hdr.SliceFiles))
	}
	for i, want := range []string{"project_000.nsidat", "project_001.nsidat", "project_002.nsidat"} {
		if hdr.SliceFiles[i] != filepath.Join(dir, want) {
			t.Errorf("Expected slice %d to be %s, got %s", i, want, hdr.SliceFiles[i])
		}
	}

	if hdr.XDim != 64 || hdr.YDim != 32 || hdr.ZDim != 3 {
		t.Errorf("Expected dimensions x=64 y=32 z=3, got x=%d y=%d z=%d", hdr.XDim, hdr.YDim, hdr.ZDim)
	}
	if hdr.BitDepth != 16 {
		t.Errorf("Expected bit depth 16, got %d", hdr.BitDepth)
	}
	if hdr.DetectorDistance != 10.0 || hdr.TableDistance != 5.0 {
		t.Errorf("Expected distances 10.0 and 5.0, got %v and %v", hdr.DetectorDistance, hdr.TableDistance)
	}
	if !hdr.HasDataRange {
		t.Fatal("Expected data range to be present")
	}
	if hdr.DataRange.Min != -1000.5 || hdr.DataRange.Max != 3000.25 {
		t.Errorf("Expected data range [-1000.5, 3000.25], got [%v, %v]",
			hdr.DataRange.Min, hdr.DataRange.Max)
	}
}

// TestResolution verifies the in-plane voxel size computed from the
// acquisition geometry, rounded to four decimals
func TestResolution(t *testing.T) {
	hdr := Header{DetectorDistance: 10.0, TableDistance: 5.0}

	// pitch/detector*table = 0.127/10*5 = 0.0635
	if got := hdr.Resolution(); math.Abs(got-0.0635) > 1e-12 {
		t.Errorf("Expected resolution 0.0635, got %v", got)
	}

	// A value needing rounding: 0.127/3*2 = 0.08466... -> 0.0847
	hdr = Header{DetectorDistance: 3.0, TableDistance: 2.0}
	if got := hdr.Resolution(); math.Abs(got-0.0847) > 1e-12 {
		t.Errorf("Expected resolution 0.0847, got %v", got)
	}
}

// TestParseWithoutDataRange verifies that the optional data range is left
// unset when the header omits it
func TestParseWithoutDataRange(t *testing.T) {
	content := `<Name>a.nsidat</Name>
<source to detector distance>10.0</source to detector distance>
<source to table distance>5.0</source to table distance>
<bit depth>16</bit depth>
<resolution>8 1 8</resolution>
`
	path := writeHeader(t, t.TempDir(), content)

	hdr, err := Parse(path)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if hdr.HasDataRange {
		t.Errorf("Expected no data range, got [%v, %v]", hdr.DataRange.Min, hdr.DataRange.Max)
	}
}

// TestParseMissingFields verifies that required fields are enforced
func TestParseMissingFields(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"no slices", "<bit depth>16</bit depth>\n<resolution>8 1 8</resolution>\n<source to detector distance>10.0</source to detector distance>\n<source to table distance>5.0</source to table distance>\n"},
		{"no geometry", "<Name>a.nsidat</Name>\n<bit depth>16</bit depth>\n<resolution>8 1 8</resolution>\n"},
		{"no bit depth", "<Name>a.nsidat</Name>\n<resolution>8 1 8</resolution>\n<source to detector distance>10.0</source to detector distance>\n<source to table distance>5.0</source to table distance>\n"},
		{"no resolution", "<Name>a.nsidat</Name>\n<bit depth>16</bit depth>\n<source to detector distance>10.0</source to detector distance>\n<source to table distance>5.0</source to table distance>\n"},
	}

	for _, c := range cases {
		path := writeHeader(t, t.TempDir(), c.content)
		if _, err := Parse(path); !errors.Is(err, models.ErrMetadata) {
			t.Errorf("Case %q: expected ErrMetadata, got %v", c.name, err)
		}
	}
}
