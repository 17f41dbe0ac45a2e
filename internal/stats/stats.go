// Package stats describes groups of eddy tracks.
package stats

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/rtm0/eddytracks/internal/eddy"
)

// Description holds statistics of a group of track summaries.
type Description struct {
	Count          int
	MeanLifetime   float64
	StdLifetime    float64
	MeanDistanceKm float64
	StdDistanceKm  float64
	MaxDistanceKm  float64
	// LongestTrack is the index of the track that travelled the farthest,
	// or -1 for an empty group.
	LongestTrack int
	// FilledSteps is the total number of timesteps synthesized to close
	// gaps.
	FilledSteps int
}

// Describe computes statistics over sums.
func Describe(sums []eddy.Summary) Description {
	d := Description{Count: len(sums), LongestTrack: -1}
	if len(sums) == 0 {
		return d
	}
	lifetimes := make([]float64, len(sums))
	dists := make([]float64, len(sums))
	for i, s := range sums {
		lifetimes[i] = float64(s.Lifetime)
		dists[i] = s.DistanceKm
		d.FilledSteps += s.Filled
	}
	d.MeanLifetime, d.StdLifetime = meanStdDev(lifetimes)
	d.MeanDistanceKm, d.StdDistanceKm = meanStdDev(dists)
	longest := floats.MaxIdx(dists)
	d.MaxDistanceKm = dists[longest]
	d.LongestTrack = sums[longest].Index
	return d
}

// meanStdDev returns the mean and the unbiased standard deviation of x. The
// standard deviation of a single value is 0.
func meanStdDev(x []float64) (float64, float64) {
	if len(x) == 1 {
		return x[0], 0
	}
	return stat.MeanStdDev(x, nil)
}

// LogAttrs returns the description as key/value pairs suitable for logging.
func (d Description) LogAttrs() []any {
	return []any{
		"count", d.Count,
		"meanLifetime", d.MeanLifetime,
		"stdLifetime", d.StdLifetime,
		"meanDistanceKm", d.MeanDistanceKm,
		"stdDistanceKm", d.StdDistanceKm,
		"maxDistanceKm", d.MaxDistanceKm,
		"longestTrack", d.LongestTrack,
		"filledSteps", d.FilledSteps,
	}
}
