package geo

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// ErrInvalidArgument is returned when the caller passes input that violates
// a function's preconditions.
var ErrInvalidArgument = errors.New("invalid argument")

// Mode selects how coordinates of synthesized steps are filled.
type Mode string

const (
	// Midpoint fills a gap with the mean of the two bracketing coordinates.
	Midpoint Mode = "midpoint"
	// Linear fills a gap with evenly spaced points strictly between the
	// bracketing coordinates.
	Linear Mode = "linear"
	// Begin repeats the coordinate observed before the gap.
	Begin Mode = "begin"
	// End repeats the coordinate observed after the gap.
	End Mode = "end"
)

// Modes lists all supported fill modes.
var Modes = []Mode{Midpoint, Linear, Begin, End}

// ParseMode converts s to a Mode.
func ParseMode(s string) (Mode, error) {
	for _, m := range Modes {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown fill mode %q: %w", s, ErrInvalidArgument)
}

func (m Mode) valid() bool {
	switch m {
	case Midpoint, Linear, Begin, End:
		return true
	}
	return false
}

// FillCoords returns steps, lons and lats with every gap between consecutive
// steps filled according to mode, so that the returned steps are contiguous.
//
// steps must be strictly increasing and all three slices must have the same
// non-zero length. The inputs are never modified.
func FillCoords(steps []int, lons, lats []float64, mode Mode) ([]int, []float64, []float64, error) {
	if !mode.valid() {
		return nil, nil, nil, fmt.Errorf("unknown fill mode %q: %w", mode, ErrInvalidArgument)
	}
	if len(steps) == 0 {
		return nil, nil, nil, fmt.Errorf("empty step sequence: %w", ErrInvalidArgument)
	}
	if len(lons) != len(steps) || len(lats) != len(steps) {
		return nil, nil, nil, fmt.Errorf("length mismatch: %d steps, %d lons, %d lats: %w",
			len(steps), len(lons), len(lats), ErrInvalidArgument)
	}
	for i := 1; i < len(steps); i++ {
		if steps[i] <= steps[i-1] {
			return nil, nil, nil, fmt.Errorf("step %d at index %d does not follow step %d: %w",
				steps[i], i, steps[i-1], ErrInvalidArgument)
		}
	}

	n := steps[len(steps)-1] - steps[0] + 1
	outSteps := make([]int, 0, n)
	outLons := make([]float64, 0, n)
	outLats := make([]float64, 0, n)

	outSteps = append(outSteps, steps[0])
	outLons = append(outLons, lons[0])
	outLats = append(outLats, lats[0])
	for i := 1; i < len(steps); i++ {
		prev, step := steps[i-1], steps[i]
		if gap := step - prev - 1; gap > 0 {
			for s := prev + 1; s < step; s++ {
				outSteps = append(outSteps, s)
			}
			outLons = append(outLons, fill(lons[i-1], lons[i], gap, mode)...)
			outLats = append(outLats, fill(lats[i-1], lats[i], gap, mode)...)
		}
		outSteps = append(outSteps, step)
		outLons = append(outLons, lons[i])
		outLats = append(outLats, lats[i])
	}
	return outSteps, outLons, outLats, nil
}

// fill returns n values for the steps strictly between a and b.
func fill(a, b float64, n int, mode Mode) []float64 {
	if mode == Linear {
		// Span includes both endpoints, which are already observed.
		span := floats.Span(make([]float64, n+2), a, b)
		return span[1 : n+1]
	}
	var v float64
	switch mode {
	case Midpoint:
		v = (a + b) / 2
	case Begin:
		v = a
	case End:
		v = b
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}
