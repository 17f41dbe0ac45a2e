package eddy

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeVar struct {
	vals   []float64
	int32s bool // serve values as []int32
	slices int
	fail   bool
}

func (v *fakeVar) Len() int64 { return int64(len(v.vals)) }

func (v *fakeVar) Values() (any, error) {
	return v.GetSlice(0, v.Len())
}

func (v *fakeVar) GetSlice(begin, limit int64) (any, error) {
	v.slices++
	if v.fail {
		return nil, errors.New("read failed")
	}
	if begin < 0 || limit > v.Len() || begin > limit {
		return nil, fmt.Errorf("slice [%d:%d] out of range", begin, limit)
	}
	if v.int32s {
		out := make([]int32, limit-begin)
		for i, x := range v.vals[begin:limit] {
			out[i] = int32(x)
		}
		return out, nil
	}
	return append([]float64(nil), v.vals[begin:limit]...), nil
}

type fakeSource struct {
	names  []string
	vars   map[string]*fakeVar
	closed bool
}

func newFakeSource() *fakeSource {
	return &fakeSource{vars: make(map[string]*fakeVar)}
}

func (s *fakeSource) add(name string, vals ...float64) *fakeVar {
	v := &fakeVar{vals: vals}
	s.names = append(s.names, name)
	s.vars[name] = v
	return v
}

func (s *fakeSource) ListVariables() []string { return s.names }

func (s *fakeSource) VarGetter(name string) (VarGetter, error) {
	v, ok := s.vars[name]
	if !ok {
		return nil, fmt.Errorf("no variable %q", name)
	}
	return v, nil
}

func (s *fakeSource) Close() { s.closed = true }

// threeTracks returns a source with tracks of 3, 2 and 0 observations. The
// first track has a gap between steps 2 and 5.
func threeTracks() *fakeSource {
	src := newFakeSource()
	src.add("rowSize", 3, 2, 0).int32s = true
	src.add("step", 1, 2, 5, 10, 11).int32s = true
	src.add("x1", 3.0, 3.1, 3.4, 7.0, 7.2)
	src.add("y1", 42.0, 42.1, 42.4, 39.0, 39.1)
	src.add("type", 1, 1, 1, -1, -1).int32s = true
	src.add("rmax1", 20, 21, 22, 15, 14)
	src.add("shapes1_count", 3, 4, 3, 3, 3).int32s = true
	src.add("shapes1_x",
		1, 2, 3,
		1, 2, 3, 4,
		5, 6, 7,
		8, 9, 10,
		11, 12, 13)
	src.add("shapes1_y",
		-1, -2, -3,
		-1, -2, -3, -4,
		-5, -6, -7,
		-8, -9, -10,
		-11, -12, -13)
	src.add("title", 0)
	return src
}

func TestLoadTracks(t *testing.T) {
	src := threeTracks()
	tracks, err := LoadTracks(src, DefaultLayout())
	require.NoError(t, err)
	require.Len(t, tracks, 3)

	first := tracks[0]
	assert.Equal(t, 0, first.Index)
	assert.Equal(t, []int{1, 2, 5}, first.Step)
	assert.Equal(t, []float64{3.0, 3.1, 3.4}, first.Lon)
	assert.Equal(t, []float64{42.0, 42.1, 42.4}, first.Lat)
	assert.Equal(t, Cyclonic, first.Rotation)
	assert.Equal(t, []float64{20, 21, 22}, first.Vars["rmax1"])
	assert.Equal(t, []float64{1, 2, 5}, first.Vars["step"])
	assert.Equal(t, 5, first.Lifetime())
	assert.NotContains(t, first.Vars, "title")
	assert.NotContains(t, first.Vars, "shapes1_x")

	second := tracks[1]
	assert.Equal(t, []int{10, 11}, second.Step)
	assert.Equal(t, Anticyclonic, second.Rotation)
	assert.Equal(t, 2, second.Lifetime())

	empty := tracks[2]
	assert.Equal(t, 0, empty.Len())
	assert.Equal(t, 0, empty.Lifetime())
	assert.Equal(t, Rotation(0), empty.Rotation)

	for _, tr := range tracks {
		for name, v := range tr.Vars {
			assert.Len(t, v, tr.Len(), "track %d variable %s", tr.Index, name)
		}
		require.Contains(t, tr.Shapes, "shapes1")
		assert.Equal(t, tr.Len(), tr.Shapes["shapes1"].Len())
	}
	assert.False(t, src.closed)
}

func TestContoursAreLazy(t *testing.T) {
	src := threeTracks()
	tracks, err := LoadTracks(src, DefaultLayout())
	require.NoError(t, err)
	assert.Zero(t, src.vars["shapes1_x"].slices)

	c, err := tracks[1].Shapes["shapes1"].At(1)
	require.NoError(t, err)
	assert.Equal(t, []float64{11, 12, 13}, c.Lon)
	assert.Equal(t, []float64{-11, -12, -13}, c.Lat)
	assert.Equal(t, 1, src.vars["shapes1_x"].slices)

	all, err := tracks[0].Shapes["shapes1"].All()
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []float64{1, 2, 3, 4}, all[1].Lon)
	assert.Equal(t, []float64{5, 6, 7}, all[2].Lon)

	_, err = tracks[0].Shapes["shapes1"].At(3)
	assert.Error(t, err)

	src.vars["shapes1_y"].fail = true
	_, err = tracks[0].Shapes["shapes1"].At(0)
	assert.Error(t, err)
}

func TestScanner(t *testing.T) {
	src := threeTracks()
	s, err := NewScanner(src, DefaultLayout())
	require.NoError(t, err)
	assert.Equal(t, 3, s.TrackCount())
	assert.Equal(t, 5, s.TotalObsCount())
	assert.Equal(t, []any{
		"tracks", 3,
		"obs", 5,
		"vars", []string{"step", "x1", "y1", "type", "rmax1"},
		"shapes", []string{"shapes1"},
		"skipped", []string{"title"},
	}, s.Summary())

	var idx []int
	for s.Scan() {
		tr, ok := s.Track()
		require.True(t, ok)
		idx = append(idx, tr.Index)
		_, ok = s.Track()
		assert.False(t, ok)
	}
	require.NoError(t, s.Err())
	assert.Equal(t, []int{0, 1, 2}, idx)

	s.Close()
	assert.True(t, src.closed)
}

func TestNewScannerErrors(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*fakeSource)
	}{
		{"missing count variable", func(s *fakeSource) { delete(s.vars, "rowSize") }},
		{"negative count", func(s *fakeSource) { s.vars["rowSize"].vals[1] = -1 }},
		{"fractional count", func(s *fakeSource) {
			s.vars["rowSize"].int32s = false
			s.vars["rowSize"].vals[0] = 2.5
		}},
		{"missing step", func(s *fakeSource) { s.vars["step"].vals = s.vars["step"].vals[:4] }},
		{"shape count mismatch", func(s *fakeSource) { s.vars["shapes1_count"].vals = []float64{3, 4} }},
		{"shape vertices mismatch", func(s *fakeSource) { s.vars["shapes1_y"].vals = s.vars["shapes1_y"].vals[:3] }},
		{"missing shape coordinates", func(s *fakeSource) { delete(s.vars, "shapes1_x") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := threeTracks()
			tt.modify(src)
			_, err := NewScanner(src, DefaultLayout())
			assert.Error(t, err)
		})
	}
}

func TestLoadTracksErrors(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*fakeSource)
	}{
		{"rotation changes", func(s *fakeSource) { s.vars["type"].vals[4] = 1 }},
		{"fractional step", func(s *fakeSource) {
			s.vars["step"].int32s = false
			s.vars["step"].vals[3] = 10.5
		}},
		{"read failure", func(s *fakeSource) { s.vars["rmax1"].fail = true }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := threeTracks()
			tt.modify(src)
			tracks, err := LoadTracks(src, DefaultLayout())
			assert.Error(t, err)
			assert.Nil(t, tracks)
		})
	}
}

func TestLoadTracksCustomLayout(t *testing.T) {
	src := newFakeSource()
	src.add("n", 2)
	src.add("time", 7, 9)
	src.add("lon", 1, 2)
	src.add("lat", 3, 4)
	src.add("sense", -1, -1)

	tracks, err := LoadTracks(src, Layout{
		CountVar:    "n",
		StepVar:     "time",
		LonVar:      "lon",
		LatVar:      "lat",
		TypeVar:     "sense",
		ShapePrefix: "contour",
	})
	require.NoError(t, err)
	require.Len(t, tracks, 1)
	assert.Equal(t, []int{7, 9}, tracks[0].Step)
	assert.Equal(t, Anticyclonic, tracks[0].Rotation)
	assert.Empty(t, tracks[0].Shapes)
}

func TestFloat64s(t *testing.T) {
	for _, v := range []any{
		[]float64{1, -2}, []float32{1, -2}, []int8{1, -2}, []int16{1, -2},
		[]int32{1, -2}, []int64{1, -2},
	} {
		got, err := float64s(v)
		require.NoError(t, err)
		assert.Equal(t, []float64{1, -2}, got, "%T", v)
	}
	got, err := float64s([]uint16{3, 4})
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 4}, got)

	_, err = float64s([][]float64{{1}})
	assert.Error(t, err)
	_, err = float64s("x")
	assert.Error(t, err)
}
