package eddy

import "fmt"

// Contour is a closed polygon boundary observed at one timestep.
type Contour struct {
	Lon []float64
	Lat []float64
}

// Contours is a sequence of contours, one per observation of a track, read
// from the source on demand.
type Contours struct {
	x, y VarGetter
	// offsets[i] and offsets[i+1] delimit the vertices of the i-th contour.
	offsets []int64
}

// Len returns the number of contours.
func (c *Contours) Len() int {
	return len(c.offsets) - 1
}

// At reads the i-th contour.
func (c *Contours) At(i int) (Contour, error) {
	if i < 0 || i >= c.Len() {
		return Contour{}, fmt.Errorf("contour %d out of range [0, %d)", i, c.Len())
	}
	begin, limit := c.offsets[i], c.offsets[i+1]
	if begin == limit {
		return Contour{Lon: []float64{}, Lat: []float64{}}, nil
	}
	lon, err := readSlice(c.x, begin, limit)
	if err != nil {
		return Contour{}, fmt.Errorf("contour %d longitudes: %w", i, err)
	}
	lat, err := readSlice(c.y, begin, limit)
	if err != nil {
		return Contour{}, fmt.Errorf("contour %d latitudes: %w", i, err)
	}
	return Contour{Lon: lon, Lat: lat}, nil
}

// All reads every contour of the sequence.
func (c *Contours) All() ([]Contour, error) {
	out := make([]Contour, c.Len())
	for i := range out {
		var err error
		if out[i], err = c.At(i); err != nil {
			return nil, err
		}
	}
	return out, nil
}
