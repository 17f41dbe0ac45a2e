package eddy

// Rotation is the rotational sense of an eddy.
type Rotation int

const (
	Cyclonic     Rotation = 1
	Anticyclonic Rotation = -1
)

func (r Rotation) String() string {
	switch r {
	case Cyclonic:
		return "cyclonic"
	case Anticyclonic:
		return "anticyclonic"
	}
	return "unknown"
}

// Track is the time series of observed states of one eddy.
//
// All per-observation slices, including every entry of Vars, have the same
// length, and every entry of Shapes holds one contour per observation.
type Track struct {
	// Index is the position of the track within its source.
	Index int

	Step     []int
	Lon      []float64
	Lat      []float64
	Rotation Rotation

	// Vars holds every per-observation numeric variable by its source name,
	// including the ones Step, Lon and Lat were derived from.
	Vars map[string][]float64
	// Shapes holds the contour sequences of shape variables.
	Shapes map[string]*Contours
}

// Len returns the number of observations of the track.
func (t *Track) Len() int {
	return len(t.Step)
}

// Lifetime returns the number of timesteps from the first to the last
// observation, both included.
func (t *Track) Lifetime() int {
	if len(t.Step) == 0 {
		return 0
	}
	return t.Step[len(t.Step)-1] - t.Step[0] + 1
}
