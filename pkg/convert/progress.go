package convert

import (
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
)

// newProgressBar builds a progress bar on stderr. When disabled, the bar is
// still returned but renders nowhere, so callers never need nil checks.
func newProgressBar(total int64, description string, showBytes, enabled bool) *progressbar.ProgressBar {
	writer := io.Writer(os.Stderr)
	if !enabled {
		writer = io.Discard
	}
	opts := []progressbar.Option{
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(writer),
		progressbar.OptionClearOnFinish(),
	}
	if showBytes {
		opts = append(opts, progressbar.OptionShowBytes(true))
	}
	return progressbar.NewOptions64(total, opts...)
}
