package eddy

import (
	"fmt"

	"github.com/rtm0/eddytracks/internal/geo"
)

// Summary describes the gap-filled trajectory of one track.
type Summary struct {
	Index    int
	Rotation Rotation
	Lifetime int
	// Observed is the number of observed timesteps, Filled the number of
	// timesteps synthesized to close gaps.
	Observed   int
	Filled     int
	DistanceKm float64
}

// Summarize fills the gaps of the track's trajectory and measures the
// distance travelled along it.
func Summarize(t Track, mode geo.Mode) (Summary, error) {
	steps, lons, lats, err := geo.FillCoords(t.Step, t.Lon, t.Lat, mode)
	if err != nil {
		return Summary{}, fmt.Errorf("track %d: %w", t.Index, err)
	}
	dist, err := geo.TotalTrackDistance(lons, lats)
	if err != nil {
		return Summary{}, fmt.Errorf("track %d: %w", t.Index, err)
	}
	return Summary{
		Index:      t.Index,
		Rotation:   t.Rotation,
		Lifetime:   t.Lifetime(),
		Observed:   t.Len(),
		Filled:     len(steps) - t.Len(),
		DistanceKm: dist,
	}, nil
}
