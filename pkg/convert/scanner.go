package convert

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"

	"rawtools/internal/models"
)

// ScanRange streams samples from r in bufferSize-byte chunks and returns the
// global (minimum, maximum) range of all samples. The buffer size must be a
// positive multiple of the encoding's byte width. An empty stream has no
// defined range and fails with ErrInvalidInput.
//
// The reduction is commutative: chunk size and chunk order do not affect the
// result.
func ScanRange(r io.Reader, enc models.Encoding, bufferSize int) (models.Range, error) {
	width := enc.ByteWidth()
	if width == 0 {
		return models.Range{}, fmt.Errorf("scan: %q: %w", enc, models.ErrUnsupportedEncoding)
	}
	if bufferSize <= 0 || bufferSize%width != 0 {
		return models.Range{}, fmt.Errorf("scan: buffer size %d is not a positive multiple of %d: %w",
			bufferSize, width, models.ErrInvalidInput)
	}

	var (
		rng  models.Range
		seen bool
		buf  = make([]byte, bufferSize)
	)
	for {
		n, err := io.ReadFull(r, buf)
		if n > 0 {
			if n%width != 0 {
				return models.Range{}, fmt.Errorf("scan: stream truncated mid-sample: %w", models.ErrInvalidInput)
			}
			samples, derr := DecodeSamples(buf[:n], enc)
			if derr != nil {
				return models.Range{}, derr
			}
			chunk := models.Range{Min: floats.Min(samples), Max: floats.Max(samples)}
			if seen {
				rng = rng.Merge(chunk)
			} else {
				rng = chunk
				seen = true
			}
		}
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			break
		}
		if err != nil {
			return models.Range{}, fmt.Errorf("scan: %w", err)
		}
	}

	if !seen {
		return models.Range{}, fmt.Errorf("scan: empty stream: %w", models.ErrInvalidInput)
	}
	return rng, nil
}

// DefaultBufferSize picks a chunk size of roughly one percent of the total
// stream size, aligned down to a whole sample, but never below one sample.
func DefaultBufferSize(totalBytes int64, enc models.Encoding) int {
	width := enc.ByteWidth()
	size := int(totalBytes / 100)
	size -= size % width
	if size < width {
		size = width
	}
	return size
}

// ScanFileRange scans a whole file for its sample range. A bufferSize of
// zero or less selects the default chunk size for the file.
func ScanFileRange(path string, enc models.Encoding, bufferSize int) (models.Range, error) {
	file, err := os.Open(path)
	if err != nil {
		return models.Range{}, fmt.Errorf("scan %q: %w", path, err)
	}
	defer file.Close()

	if bufferSize <= 0 {
		info, err := file.Stat()
		if err != nil {
			return models.Range{}, fmt.Errorf("scan %q: %w", path, err)
		}
		bufferSize = DefaultBufferSize(info.Size(), enc)
	}

	rng, err := ScanRange(file, enc, bufferSize)
	if err != nil {
		return models.Range{}, fmt.Errorf("scan %q: %w", path, err)
	}
	return rng, nil
}

// ScanFilesRange computes the aggregate sample range across a set of files,
// as if they were one concatenated stream. Because the min/max reduction is
// commutative the files are scanned concurrently, bounded by workers
// (workers < 1 means one at a time). Any unreadable file fails the whole
// scan.
func ScanFilesRange(ctx context.Context, paths []string, enc models.Encoding, workers int) (models.Range, error) {
	if len(paths) == 0 {
		return models.Range{}, fmt.Errorf("scan: no files: %w", models.ErrInvalidInput)
	}
	if workers < 1 {
		workers = 1
	}

	var (
		mu   sync.Mutex
		rng  models.Range
		seen bool
	)

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, path := range paths {
		path := path
		g.Go(func() error {
			fileRange, err := ScanFileRange(path, enc, 0)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			if seen {
				rng = rng.Merge(fileRange)
			} else {
				rng = fileRange
				seen = true
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return models.Range{}, err
	}
	return rng, nil
}
