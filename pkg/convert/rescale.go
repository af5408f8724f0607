// Package convert implements the streaming sample-range discovery and
// bit-depth rescaling pipeline for RAW volumes: a chunked range scanner, a
// linear sample rescaler, a single-volume converter, and a slice assembler
// that concatenates per-slice scan files into one volume.
package convert

import (
	"gonum.org/v1/gonum/floats"

	"rawtools/internal/models"
)

// Rescale maps a value from the closed interval [fromMin, fromMax] onto
// [toMin, toMax], inclusive at both endpoints.
//
// A degenerate input interval (fromMax == fromMin) carries no information
// about where the value sits, so every sample maps to toMin rather than
// dividing by zero.
func Rescale(x, fromMin, fromMax, toMin, toMax float64) float64 {
	if fromMax == fromMin {
		return toMin
	}
	return (x-fromMin)/(fromMax-fromMin)*(toMax-toMin) + toMin
}

// RescaleSamples applies Rescale element-wise over samples, in place.
func RescaleSamples(samples []float64, from, to models.Range) {
	if len(samples) == 0 {
		return
	}
	if from.Degenerate() {
		for i := range samples {
			samples[i] = to.Min
		}
		return
	}
	floats.AddConst(-from.Min, samples)
	floats.Scale((to.Max-to.Min)/(from.Max-from.Min), samples)
	floats.AddConst(to.Min, samples)
}
