// Package nsihdr parses NSIHDR project headers. An NSIHDR file is the text
// document an X-ray scanning session leaves behind: it references the
// per-slice data files (.nsidat), the acquisition geometry, the declared
// output bit depth, and sometimes the data range of the float samples.
package nsihdr

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"rawtools/internal/models"
)

// DetectorPitch is the physical pitch of the detector elements in the same
// units as the source distances. Fixed for the current detector hardware.
const DetectorPitch = 0.127

var (
	slicePattern      = regexp.MustCompile(`<Name>(?P<filename>.*\.nsidat)`)
	detectorPattern   = regexp.MustCompile(`<source to detector distance>(?P<value>[\d.]+)`)
	tablePattern      = regexp.MustCompile(`<source to table distance>(?P<value>[\d.]+)`)
	bitDepthPattern   = regexp.MustCompile(`<bit depth>(?P<value>\d+)`)
	resolutionPattern = regexp.MustCompile(`<resolution>(?P<x>\d+)\s+(?P<slices>\d+)\s+(?P<z>\d+)`)
	dataRangePattern  = regexp.MustCompile(`<DataRange>\s+(?P<lower>-?\d+\.\d+)\s+(?P<upper>-?\d+\.\d+)`)
)

// Header holds the project metadata extracted from an NSIHDR file.
type Header struct {
	// SliceFiles are the absolute paths of the referenced .nsidat slice
	// files, sorted alphanumerically. The sort order is the canonical
	// z-order of the assembled volume regardless of header order.
	SliceFiles []string

	// XDim, YDim are the in-plane voxel dimensions of each slice; ZDim is
	// the slice count. The header's <resolution> element stores these as
	// x, slice count, z.
	XDim, YDim, ZDim int

	// BitDepth is the declared bit depth of the assembled output volume.
	BitDepth int

	// DetectorDistance and TableDistance are the source-to-detector and
	// source-to-table distances of the acquisition geometry.
	DetectorDistance float64
	TableDistance    float64

	// DataRange is the float sample range recorded in the header, if any.
	// When present the slice files do not need to be scanned.
	DataRange    models.Range
	HasDataRange bool
}

// Resolution computes the physical in-plane voxel size from the acquisition
// geometry, rounded to four decimal places. The assembled volume assumes
// isotropic voxels, so this value populates all three thickness axes.
func (h Header) Resolution() float64 {
	res := DetectorPitch / h.DetectorDistance * h.TableDistance
	return math.Round(res*1e4) / 1e4
}

// Parse reads an NSIHDR file. Slice file references are resolved relative to
// the header's directory and returned in sorted order. Missing required
// fields (slice files, geometry, bit depth, resolution) fail with
// ErrMetadata.
func Parse(path string) (Header, error) {
	var hdr Header

	file, err := os.Open(path)
	if err != nil {
		return hdr, fmt.Errorf("opening header %q: %w", path, err)
	}
	defer file.Close()

	dir := filepath.Dir(path)
	var haveResolution bool

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()

		if m := slicePattern.FindStringSubmatch(line); m != nil {
			hdr.SliceFiles = append(hdr.SliceFiles, filepath.Join(dir, m[1]))
		}
		if m := detectorPattern.FindStringSubmatch(line); m != nil {
			hdr.DetectorDistance, _ = strconv.ParseFloat(m[1], 64)
		}
		if m := tablePattern.FindStringSubmatch(line); m != nil {
			hdr.TableDistance, _ = strconv.ParseFloat(m[1], 64)
		}
		if m := bitDepthPattern.FindStringSubmatch(line); m != nil {
			hdr.BitDepth, _ = strconv.Atoi(m[1])
		}
		if m := resolutionPattern.FindStringSubmatch(line); m != nil {
			hdr.XDim, _ = strconv.Atoi(m[1])
			hdr.ZDim, _ = strconv.Atoi(m[2])
			hdr.YDim, _ = strconv.Atoi(m[3])
			haveResolution = true
		}
		if m := dataRangePattern.FindStringSubmatch(line); m != nil {
			hdr.DataRange.Min, _ = strconv.ParseFloat(m[1], 64)
			hdr.DataRange.Max, _ = strconv.ParseFloat(m[2], 64)
			hdr.HasDataRange = true
		}
	}
	if err := scanner.Err(); err != nil {
		return hdr, fmt.Errorf("reading header %q: %w", path, err)
	}

	if len(hdr.SliceFiles) == 0 {
		return hdr, fmt.Errorf("header %q references no slice files: %w", path, models.ErrMetadata)
	}
	if hdr.DetectorDistance <= 0 || hdr.TableDistance <= 0 {
		return hdr, fmt.Errorf("header %q is missing acquisition geometry: %w", path, models.ErrMetadata)
	}
	if hdr.BitDepth <= 0 {
		return hdr, fmt.Errorf("header %q is missing bit depth: %w", path, models.ErrMetadata)
	}
	if !haveResolution || hdr.XDim <= 0 || hdr.YDim <= 0 || hdr.ZDim <= 0 {
		return hdr, fmt.Errorf("header %q is missing resolution: %w", path, models.ErrMetadata)
	}

	// Canonical z-order for assembly.
	sort.Strings(hdr.SliceFiles)

	return hdr, nil
}
