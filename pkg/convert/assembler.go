package convert

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/dustin/go-humanize"

	"rawtools/internal/models"
	"rawtools/pkg/dat"
	"rawtools/pkg/nsihdr"
)

// ObjectModelDensity is the object model tag written for assembled X-ray
// volumes; the scanner measures density.
const ObjectModelDensity = "DENSITY"

// Assembler concatenates the per-slice data files referenced by an NSIHDR
// project header into one contiguous RAW volume, rescaling every float
// sample into the unsigned integer range declared by the header's bit depth.
type Assembler struct {
	params Params
	log    *slog.Logger
}

// NewAssembler creates an assembler with the provided parameters.
func NewAssembler(params Params) *Assembler {
	return &Assembler{
		params: params,
		log:    params.logger(),
	}
}

// Assemble runs one assembly job end to end: parse the header, resolve the
// input range (declared or scanned), stream every slice file through the
// rescaler in sorted order, and emit the volume, its DAT descriptor, and a
// plain-text record of the input range.
//
// Assembly works by sequential append, so an existing output volume aborts
// with ErrAlreadyExists unless the job forces overwrite, in which case the
// stale file is deleted before any byte is written.
func (a *Assembler) Assemble(ctx context.Context, job models.AssemblyJob) error {
	hdr, err := nsihdr.Parse(job.HeaderPath)
	if err != nil {
		return err
	}

	target, err := encodingForBitDepth(hdr.BitDepth)
	if err != nil {
		return err
	}

	outputPath := job.OutputPath
	if outputPath == "" {
		base := job.HeaderPath[:len(job.HeaderPath)-len(filepath.Ext(job.HeaderPath))]
		outputPath = base + ".raw"
	}

	log := a.log.With("header", job.HeaderPath, "output", outputPath)

	if _, err := os.Stat(outputPath); err == nil {
		if !job.Force {
			return fmt.Errorf("assemble %q: %w", outputPath, models.ErrAlreadyExists)
		}
		log.Warn("output already exists, deleting before assembly")
		if err := os.Remove(outputPath); err != nil {
			return fmt.Errorf("removing stale output %q: %w", outputPath, err)
		}
	}

	inputRange := hdr.DataRange
	if hdr.HasDataRange {
		log.Info("using data range from header", "min", inputRange.Min, "max", inputRange.Max)
	} else {
		inputRange, err = ScanFilesRange(ctx, hdr.SliceFiles, models.Float32, a.params.ScanWorkers)
		if err != nil {
			return err
		}
		log.Info("scanned data range from slice files", "min", inputRange.Min, "max", inputRange.Max)
	}

	// Output spans the full unsigned range implied by the declared depth,
	// which may be narrower than the chosen encoding's natural range.
	outputRange := models.Range{Min: 0, Max: float64(uint64(1)<<uint(hdr.BitDepth)) - 1}

	if len(hdr.SliceFiles) != hdr.ZDim {
		log.Warn("header slice count disagrees with referenced files",
			"declared", hdr.ZDim, "referenced", len(hdr.SliceFiles))
	}

	if err := a.appendSlices(hdr, outputPath, target, inputRange, outputRange); err != nil {
		// A partial volume must never look finished.
		os.Remove(outputPath)
		return err
	}

	desc := models.VolumeDescriptor{
		ObjectFileName: filepath.Base(outputPath),
		XDim:           hdr.XDim,
		YDim:           hdr.YDim,
		ZDim:           len(hdr.SliceFiles),
		XThickness:     hdr.Resolution(),
		YThickness:     hdr.Resolution(),
		ZThickness:     hdr.Resolution(),
		Format:         target,
		ObjectModel:    ObjectModelDensity,
	}
	base := outputPath[:len(outputPath)-len(filepath.Ext(outputPath))]
	if err := dat.Write(base+".dat", desc); err != nil {
		return err
	}

	return writeRangeRecord(base+".float32.range", inputRange)
}

// appendSlices streams each slice file through the rescaler and appends the
// encoded result to the output volume. Order is significant: the sorted
// slice list is the z-order of the volume.
func (a *Assembler) appendSlices(hdr nsihdr.Header, outputPath string,
	target models.Encoding, inputRange, outputRange models.Range) error {

	output, err := os.OpenFile(outputPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("creating output %q: %w", outputPath, err)
	}
	defer output.Close()

	sliceSamples := hdr.XDim * hdr.YDim

	bar := newProgressBar(int64(len(hdr.SliceFiles)),
		fmt.Sprintf("Generating %s", filepath.Base(outputPath)),
		false, a.params.ShowProgress)
	defer bar.Finish()

	for _, slicePath := range hdr.SliceFiles {
		data, err := os.ReadFile(slicePath)
		if err != nil {
			return fmt.Errorf("reading slice %q: %w", slicePath, err)
		}
		samples, err := DecodeSamples(data, models.Float32)
		if err != nil {
			return fmt.Errorf("slice %q: %w", slicePath, err)
		}
		if len(samples) != sliceSamples {
			return fmt.Errorf("slice %q has %d samples, expected %d (%s): %w",
				slicePath, len(samples), sliceSamples,
				humanize.Bytes(uint64(len(data))), models.ErrInvalidInput)
		}

		RescaleSamples(samples, inputRange, outputRange)
		encoded, err := EncodeSamples(samples, target)
		if err != nil {
			return err
		}
		if _, err := output.Write(encoded); err != nil {
			return fmt.Errorf("appending to %q: %w", outputPath, err)
		}
		bar.Add(1)
	}

	if err := output.Close(); err != nil {
		return fmt.Errorf("closing output %q: %w", outputPath, err)
	}
	return nil
}

// encodingForBitDepth picks the smallest unsigned sample encoding that can
// represent 2^bitDepth - 1. Depths beyond 16 bits have no supported
// encoding.
func encodingForBitDepth(bitDepth int) (models.Encoding, error) {
	switch {
	case bitDepth >= 1 && bitDepth <= 8:
		return models.UInt8, nil
	case bitDepth > 8 && bitDepth <= 16:
		return models.UInt16, nil
	}
	return "", fmt.Errorf("bit depth %d: %w", bitDepth, models.ErrUnsupportedEncoding)
}

// writeRangeRecord persists the resolved input range as two numbers in a
// plain-text side file, kept for provenance so an integer volume can later
// be mapped back toward its original float values.
func writeRangeRecord(path string, rng models.Range) error {
	record := strconv.FormatFloat(rng.Min, 'g', -1, 64) + " " +
		strconv.FormatFloat(rng.Max, 'g', -1, 64)
	if err := os.WriteFile(path, []byte(record), 0644); err != nil {
		return fmt.Errorf("writing range record %q: %w", path, err)
	}
	return nil
}
