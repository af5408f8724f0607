package convert

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"

	"rawtools/internal/models"
	"rawtools/pkg/dat"
)

// Params holds the pipeline configuration shared by the Converter and the
// Assembler.
type Params struct {
	// Logger receives structured progress and diagnostic messages. A nil
	// logger falls back to slog.Default().
	Logger *slog.Logger

	// ShowProgress enables per-volume progress bars on stderr.
	ShowProgress bool

	// ScanWorkers bounds the concurrent file scans during multi-file range
	// discovery. Values below one scan sequentially.
	ScanWorkers int

	// BufferPercent overrides the default range-scan chunk size, as a
	// percentage of the scanned file's size. Zero keeps the default (1%).
	BufferPercent float64
}

func (p Params) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}

// Converter converts a single RAW volume from its current sample encoding to
// a target encoding, streaming one z-slice at a time so peak memory stays
// bounded regardless of volume depth.
type Converter struct {
	params Params
	log    *slog.Logger
}

// NewConverter creates a converter with the provided parameters.
func NewConverter(params Params) *Converter {
	return &Converter{
		params: params,
		log:    params.logger(),
	}
}

// Convert runs one conversion job end to end: read the DAT descriptor, infer
// the current encoding from the volume's file size, establish input and
// output ranges, stream every slice through the rescaler, and emit the
// converted volume plus its new DAT sidecar.
//
// Two outcomes short-circuit without writing anything and without error: the
// volume is already in the target encoding, or the output file already
// exists (conversions never clobber).
func (c *Converter) Convert(job models.ConversionJob) error {
	if !job.Target.Valid() {
		return fmt.Errorf("target %q: %w", job.Target, models.ErrUnsupportedEncoding)
	}

	desc, err := dat.Read(job.MetadataPath)
	if err != nil {
		return err
	}

	source, err := dat.InferEncoding(job.VolumePath, desc)
	if err != nil {
		return err
	}

	log := c.log.With("volume", job.VolumePath)
	if source == job.Target {
		log.Info("volume already in target encoding, nothing to do", "format", source)
		return nil
	}

	outputPath := suffixedPath(job.VolumePath, job.Target, ".raw")
	if _, err := os.Stat(outputPath); err == nil {
		log.Info("output already exists, skipping", "path", outputPath)
		return nil
	}

	// One full z-slice per chunk keeps chunk boundaries aligned with slice
	// boundaries and bounds peak memory to a single slice.
	bufferSize := desc.SliceBytes(source)

	inputRange := source.NaturalRange()
	if source == models.Float32 {
		inputRange, err = c.scanVolumeRange(job.VolumePath, source, bufferSize)
		if err != nil {
			return err
		}
		log.Debug("scanned float range", "min", inputRange.Min, "max", inputRange.Max)
	}
	outputRange := job.Target.NaturalRange()

	log.Info("converting volume",
		"from", source,
		"to", job.Target,
		"size", humanize.Bytes(uint64(desc.VolumeBytes(source))),
		"output", outputPath)

	if err := c.stream(job.VolumePath, outputPath, desc, source, job.Target, inputRange, outputRange, bufferSize); err != nil {
		// A partial volume must never look finished.
		os.Remove(outputPath)
		return err
	}

	outputDesc := desc
	outputDesc.Format = job.Target
	outputDesc.ObjectFileName = filepath.Base(outputPath)
	return dat.Write(suffixedPath(job.MetadataPath, job.Target, ".dat"), outputDesc)
}

// scanVolumeRange discovers the sample range of a float volume, showing byte
// progress while the file streams through the scanner.
func (c *Converter) scanVolumeRange(path string, enc models.Encoding, bufferSize int) (models.Range, error) {
	file, err := os.Open(path)
	if err != nil {
		return models.Range{}, fmt.Errorf("scan %q: %w", path, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return models.Range{}, fmt.Errorf("scan %q: %w", path, err)
	}
	if c.params.BufferPercent > 0 {
		bufferSize = percentBufferSize(info.Size(), c.params.BufferPercent, enc)
	}

	bar := newProgressBar(info.Size(),
		fmt.Sprintf("Calculating range for %s", filepath.Base(path)),
		true, c.params.ShowProgress)
	defer bar.Finish()

	rng, err := ScanRange(io.TeeReader(file, bar), enc, bufferSize)
	if err != nil {
		return models.Range{}, fmt.Errorf("scan %q: %w", path, err)
	}
	return rng, nil
}

// stream copies the volume chunk by chunk, rescaling every sample. Chunks
// are processed strictly in order because the output reconstructs the
// original scan order by sequential append.
func (c *Converter) stream(inputPath, outputPath string, desc models.VolumeDescriptor,
	source, target models.Encoding, inputRange, outputRange models.Range, bufferSize int) error {

	input, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("opening volume %q: %w", inputPath, err)
	}
	defer input.Close()

	output, err := os.OpenFile(outputPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("creating output %q: %w", outputPath, err)
	}
	defer output.Close()

	bar := newProgressBar(int64(desc.ZDim),
		fmt.Sprintf("Converting %s (%s -> %s)", filepath.Base(inputPath), source, target),
		false, c.params.ShowProgress)
	defer bar.Finish()

	buf := make([]byte, bufferSize)
	for {
		n, err := io.ReadFull(input, buf)
		if n > 0 {
			samples, derr := DecodeSamples(buf[:n], source)
			if derr != nil {
				return derr
			}
			RescaleSamples(samples, inputRange, outputRange)
			encoded, eerr := EncodeSamples(samples, target)
			if eerr != nil {
				return eerr
			}
			if _, werr := output.Write(encoded); werr != nil {
				return fmt.Errorf("writing output %q: %w", outputPath, werr)
			}
			bar.Add(1)
		}
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			break
		}
		if err != nil {
			return fmt.Errorf("reading volume %q: %w", inputPath, err)
		}
	}

	if err := output.Close(); err != nil {
		return fmt.Errorf("closing output %q: %w", outputPath, err)
	}
	return nil
}

// suffixedPath tags a filename with the target encoding:
// volume.raw -> volume-uint16.raw.
func suffixedPath(path string, target models.Encoding, ext string) string {
	base := strings.TrimSuffix(path, filepath.Ext(path))
	return base + "-" + string(target) + ext
}

// percentBufferSize sizes a scan chunk as a percentage of the file size,
// aligned down to a whole sample and never below one sample.
func percentBufferSize(totalBytes int64, percent float64, enc models.Encoding) int {
	width := enc.ByteWidth()
	size := int(float64(totalBytes) * percent / 100)
	size -= size % width
	if size < width {
		size = width
	}
	return size
}
