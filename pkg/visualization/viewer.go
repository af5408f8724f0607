// Package visualization exports 2-D grayscale images from a RAW volume so a
// scan can be inspected without volumetric tooling.
package visualization

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/floats"

	"rawtools/internal/models"
	"rawtools/pkg/convert"
	"rawtools/pkg/dat"
)

// Viewer extracts cross-sections from a volume and renders them as 16-bit
// grayscale images. Sample values are normalized against the volume's actual
// data range so integer and float volumes render with comparable contrast.
type Viewer struct {
	// volumeData holds the decoded volume samples
	volumeData []float64

	// dimensions of the volume
	width  int
	height int
	depth  int

	// dataRange is the normalization range applied when rendering
	dataRange models.Range

	// quality is the JPEG encoder quality for saved slices
	quality int
}

// NewViewer creates a viewer over already-decoded volume data.
func NewViewer(volumeData []float64, width, height, depth int, quality int) *Viewer {
	rng := models.Range{}
	if len(volumeData) > 0 {
		rng = models.Range{Min: floats.Min(volumeData), Max: floats.Max(volumeData)}
	}
	return &Viewer{
		volumeData: volumeData,
		width:      width,
		height:     height,
		depth:      depth,
		dataRange:  rng,
		quality:    quality,
	}
}

// LoadVolume reads a RAW volume and its DAT descriptor into a viewer. The
// whole volume is decoded into memory; extraction is a QC convenience, not a
// streaming path.
func LoadVolume(volumePath, metadataPath string, quality int) (*Viewer, error) {
	desc, err := dat.Read(metadataPath)
	if err != nil {
		return nil, err
	}
	enc, err := dat.InferEncoding(volumePath, desc)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(volumePath)
	if err != nil {
		return nil, fmt.Errorf("reading volume %q: %w", volumePath, err)
	}
	samples, err := convert.DecodeSamples(data, enc)
	if err != nil {
		return nil, err
	}
	if int64(len(samples)) != desc.VoxelCount() {
		return nil, fmt.Errorf("volume %q has %d samples, descriptor declares %d: %w",
			volumePath, len(samples), desc.VoxelCount(), models.ErrInvalidInput)
	}

	return NewViewer(samples, desc.XDim, desc.YDim, desc.ZDim, quality), nil
}

// gray16At normalizes one sample into the full Gray16 range.
func (v *Viewer) gray16At(idx int) color.Gray16 {
	value := convert.Rescale(v.volumeData[idx], v.dataRange.Min, v.dataRange.Max, 0, 65535)
	if value < 0 {
		value = 0
	}
	if value > 65535 {
		value = 65535
	}
	return color.Gray16{Y: uint16(value)}
}

// ExtractSlice extracts a 2D cross-section from the volume along the
// specified axis.
func (v *Viewer) ExtractSlice(axis string, position int) (image.Image, error) {
	if position < 0 {
		return nil, fmt.Errorf("position must be non-negative")
	}

	var img *image.Gray16

	switch axis {
	case "x", "X":
		// Extract slice along YZ plane
		if position >= v.width {
			return nil, fmt.Errorf("position %d exceeds width %d", position, v.width)
		}
		img = image.NewGray16(image.Rect(0, 0, v.depth, v.height))
		for y := 0; y < v.height; y++ {
			for z := 0; z < v.depth; z++ {
				idx := z*v.width*v.height + y*v.width + position
				img.SetGray16(z, y, v.gray16At(idx))
			}
		}

	case "y", "Y":
		// Extract slice along XZ plane
		if position >= v.height {
			return nil, fmt.Errorf("position %d exceeds height %d", position, v.height)
		}
		img = image.NewGray16(image.Rect(0, 0, v.width, v.depth))
		for z := 0; z < v.depth; z++ {
			for x := 0; x < v.width; x++ {
				idx := z*v.width*v.height + position*v.width + x
				img.SetGray16(x, z, v.gray16At(idx))
			}
		}

	case "z", "Z":
		// Extract slice along XY plane
		if position >= v.depth {
			return nil, fmt.Errorf("position %d exceeds depth %d", position, v.depth)
		}
		img = image.NewGray16(image.Rect(0, 0, v.width, v.height))
		for y := 0; y < v.height; y++ {
			for x := 0; x < v.width; x++ {
				idx := position*v.width*v.height + y*v.width + x
				img.SetGray16(x, y, v.gray16At(idx))
			}
		}

	default:
		return nil, fmt.Errorf("invalid axis: %s (must be x, y, or z)", axis)
	}

	return img, nil
}

// SaveSlice saves an extracted slice as a JPEG image
func (v *Viewer) SaveSlice(img image.Image, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	return jpeg.Encode(file, img, &jpeg.Options{Quality: v.quality})
}

// SaveSliceSequence extracts and saves a sequence of slices along the
// specified axis.
func (v *Viewer) SaveSliceSequence(axis string, outputDir string) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}

	var maxPos int
	switch axis {
	case "x", "X":
		maxPos = v.width
	case "y", "Y":
		maxPos = v.height
	case "z", "Z":
		maxPos = v.depth
	default:
		return fmt.Errorf("invalid axis: %s (must be x, y, or z)", axis)
	}

	for pos := 0; pos < maxPos; pos++ {
		img, err := v.ExtractSlice(axis, pos)
		if err != nil {
			return err
		}

		filename := filepath.Join(outputDir, fmt.Sprintf("slice_%s_%03d.jpg", axis, pos))
		if err := v.SaveSlice(img, filename); err != nil {
			return err
		}
	}

	return nil
}
