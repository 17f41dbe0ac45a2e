package eddy

import (
	"fmt"
	"math"
	"slices"
	"strings"
)

// Layout names the variables of a source holding eddy tracks stored as
// contiguous ragged arrays: per-observation variables are concatenated track
// after track and CountVar holds the number of observations of each track.
//
// A shape variable S is stored as S_count (number of vertices of each
// observation) plus S_x and S_y (vertex coordinates, concatenated).
type Layout struct {
	CountVar    string
	StepVar     string
	LonVar      string
	LatVar      string
	TypeVar     string
	ShapePrefix string
}

// DefaultLayout returns the variable names used by AMEDA tracks converted to
// ragged arrays.
func DefaultLayout() Layout {
	return Layout{
		CountVar:    "rowSize",
		StepVar:     "step",
		LonVar:      "x1",
		LatVar:      "y1",
		TypeVar:     "type",
		ShapePrefix: "shapes",
	}
}

const (
	shapeCountSuffix = "_count"
	shapeXSuffix     = "_x"
	shapeYSuffix     = "_y"
)

type shapeVar struct {
	x, y    VarGetter
	offsets []int64 // vertex offsets of every observation in the source
}

// Scanner reads eddy tracks from a source one track at a time.
type Scanner struct {
	src       Source
	layout    Layout
	offsets   []int64 // observation offsets of every track
	vars      map[string]VarGetter
	varNames  []string
	shapes    map[string]*shapeVar
	shapeNms  []string
	skipped   []string
	pos       int
	track     Track
	haveTrack bool
	err       error
}

// OpenScanner opens a netCDF file and creates a scanner over it.
func OpenScanner(filePath string, layout Layout) (*Scanner, error) {
	src, err := OpenSource(filePath)
	if err != nil {
		return nil, err
	}
	s, err := NewScanner(src, layout)
	if err != nil {
		src.Close()
		return nil, err
	}
	return s, nil
}

// NewScanner creates a new eddy track scanner over src. Closing the scanner
// closes src.
func NewScanner(src Source, layout Layout) (*Scanner, error) {
	s := &Scanner{
		src:    src,
		layout: layout,
		vars:   make(map[string]VarGetter),
		shapes: make(map[string]*shapeVar),
	}

	counts, err := s.readCounts(layout.CountVar)
	if err != nil {
		return nil, err
	}
	s.offsets = cumulative(counts)
	total := s.offsets[len(s.offsets)-1]

	names := src.ListVariables()
	shapeParts := make(map[string]bool)
	for _, name := range names {
		if !strings.HasPrefix(name, layout.ShapePrefix) || !strings.HasSuffix(name, shapeCountSuffix) {
			continue
		}
		shape := strings.TrimSuffix(name, shapeCountSuffix)
		sv, err := s.openShape(shape, total)
		if err != nil {
			return nil, err
		}
		s.shapes[shape] = sv
		s.shapeNms = append(s.shapeNms, shape)
		shapeParts[name] = true
		shapeParts[shape+shapeXSuffix] = true
		shapeParts[shape+shapeYSuffix] = true
	}

	for _, name := range names {
		if name == layout.CountVar || shapeParts[name] {
			continue
		}
		vg, err := src.VarGetter(name)
		if err != nil {
			return nil, fmt.Errorf("variable %q: %w", name, err)
		}
		if vg.Len() != total {
			s.skipped = append(s.skipped, name)
			continue
		}
		s.vars[name] = vg
		s.varNames = append(s.varNames, name)
	}

	for _, name := range []string{layout.StepVar, layout.LonVar, layout.LatVar, layout.TypeVar} {
		if s.vars[name] == nil {
			return nil, fmt.Errorf("missing per-observation variable %q", name)
		}
	}
	return s, nil
}

func (s *Scanner) readCounts(name string) ([]int64, error) {
	vg, err := s.src.VarGetter(name)
	if err != nil {
		return nil, fmt.Errorf("count variable %q: %w", name, err)
	}
	v, err := readAll(vg)
	if err != nil {
		return nil, fmt.Errorf("count variable %q: %w", name, err)
	}
	counts := make([]int64, len(v))
	for i, c := range v {
		if c < 0 || c != math.Trunc(c) {
			return nil, fmt.Errorf("count variable %q: invalid count %v at %d", name, c, i)
		}
		counts[i] = int64(c)
	}
	return counts, nil
}

func (s *Scanner) openShape(shape string, total int64) (*shapeVar, error) {
	counts, err := s.readCounts(shape + shapeCountSuffix)
	if err != nil {
		return nil, err
	}
	if int64(len(counts)) != total {
		return nil, fmt.Errorf("shape %q: %d vertex counts for %d observations", shape, len(counts), total)
	}
	sv := &shapeVar{offsets: cumulative(counts)}
	vertices := sv.offsets[len(sv.offsets)-1]
	if sv.x, err = s.src.VarGetter(shape + shapeXSuffix); err != nil {
		return nil, fmt.Errorf("shape %q: %w", shape, err)
	}
	if sv.y, err = s.src.VarGetter(shape + shapeYSuffix); err != nil {
		return nil, fmt.Errorf("shape %q: %w", shape, err)
	}
	if sv.x.Len() != vertices || sv.y.Len() != vertices {
		return nil, fmt.Errorf("shape %q: %d/%d vertex coordinates for %d vertices",
			shape, sv.x.Len(), sv.y.Len(), vertices)
	}
	return sv, nil
}

func cumulative(counts []int64) []int64 {
	offsets := make([]int64, len(counts)+1)
	for i, c := range counts {
		offsets[i+1] = offsets[i] + c
	}
	return offsets
}

// Close closes the scanner and its source.
func (s *Scanner) Close() {
	s.src.Close()
}

// Summary returns the summary information about the source suitable for
// logging.
func (s *Scanner) Summary() []any {
	return []any{
		"tracks", s.TrackCount(),
		"obs", s.TotalObsCount(),
		"vars", s.varNames,
		"shapes", s.shapeNms,
		"skipped", s.skipped,
	}
}

// TrackCount returns the number of tracks within the source.
func (s *Scanner) TrackCount() int {
	return len(s.offsets) - 1
}

// TotalObsCount returns the total number of observations within the source.
func (s *Scanner) TotalObsCount() int {
	return int(s.offsets[len(s.offsets)-1])
}

// Scan reads the next track. It returns false when there are no more tracks
// or an error occurred; Err tells the two apart.
func (s *Scanner) Scan() bool {
	if s.err != nil || s.pos >= s.TrackCount() {
		return false
	}
	t, err := s.read(s.pos)
	if err != nil {
		s.err = fmt.Errorf("track %d: %w", s.pos, err)
		return false
	}
	s.track = t
	s.haveTrack = true
	s.pos++
	return true
}

func (s *Scanner) read(idx int) (Track, error) {
	begin, limit := s.offsets[idx], s.offsets[idx+1]
	t := Track{
		Index:  idx,
		Vars:   make(map[string][]float64, len(s.vars)),
		Shapes: make(map[string]*Contours, len(s.shapes)),
	}
	for _, name := range s.varNames {
		v := []float64{}
		if limit > begin {
			var err error
			if v, err = readSlice(s.vars[name], begin, limit); err != nil {
				return Track{}, fmt.Errorf("variable %q: %w", name, err)
			}
		}
		if int64(len(v)) != limit-begin {
			return Track{}, fmt.Errorf("variable %q: read %d values, want %d", name, len(v), limit-begin)
		}
		t.Vars[name] = v
	}

	t.Step = make([]int, limit-begin)
	for i, st := range t.Vars[s.layout.StepVar] {
		if st != math.Trunc(st) {
			return Track{}, fmt.Errorf("variable %q: non-integer step %v at %d", s.layout.StepVar, st, i)
		}
		t.Step[i] = int(st)
	}
	t.Lon = t.Vars[s.layout.LonVar]
	t.Lat = t.Vars[s.layout.LatVar]

	types := t.Vars[s.layout.TypeVar]
	if len(types) > 0 {
		if slices.ContainsFunc(types, func(v float64) bool { return v != types[0] }) {
			return Track{}, fmt.Errorf("variable %q: rotation changes along the track", s.layout.TypeVar)
		}
		t.Rotation = Rotation(types[0])
	}

	for _, name := range s.shapeNms {
		sv := s.shapes[name]
		t.Shapes[name] = &Contours{x: sv.x, y: sv.y, offsets: sv.offsets[begin : limit+1]}
	}
	return t, nil
}

// Err returns the error that stopped the last Scan, if any.
func (s *Scanner) Err() error {
	return s.err
}

// Track returns the track read by the last Scan() operation. The function
// transfers ownership of the track to the caller and subsequent calls
// without prior invocation of Scan() return false as the second value.
func (s *Scanner) Track() (Track, bool) {
	t, ok := s.track, s.haveTrack
	s.track, s.haveTrack = Track{}, false
	return t, ok
}

// LoadTracks reads every track of src.
func LoadTracks(src Source, layout Layout) ([]Track, error) {
	s, err := NewScanner(src, layout)
	if err != nil {
		return nil, err
	}
	tracks := make([]Track, 0, s.TrackCount())
	for s.Scan() {
		t, _ := s.Track()
		tracks = append(tracks, t)
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return tracks, nil
}
