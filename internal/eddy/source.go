package eddy

import (
	"fmt"

	"github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"
)

// Source is a container of named one-dimensional arrays.
type Source interface {
	ListVariables() []string
	VarGetter(name string) (VarGetter, error)
	Close()
}

// VarGetter reads the values of one variable, whole or in part.
type VarGetter interface {
	Len() int64
	Values() (any, error)
	GetSlice(begin, limit int64) (any, error)
}

// OpenSource opens a netCDF file. Both the classic CDF and the HDF5 based
// netCDF-4 formats are supported.
func OpenSource(filePath string) (Source, error) {
	nc, err := netcdf.Open(filePath)
	if err != nil {
		return nil, err
	}
	return &ncSource{nc: nc}, nil
}

type ncSource struct {
	nc api.Group
}

func (s *ncSource) ListVariables() []string {
	return s.nc.ListVariables()
}

func (s *ncSource) VarGetter(name string) (VarGetter, error) {
	return s.nc.GetVarGetter(name)
}

func (s *ncSource) Close() {
	s.nc.Close()
}

type number interface {
	~int8 | ~int16 | ~int32 | ~int64 | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~float32 | ~float64
}

func convert[T number](v []T) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}

// float64s converts the values returned by a VarGetter to float64.
func float64s(v any) ([]float64, error) {
	switch v := v.(type) {
	case []float64:
		return v, nil
	case []float32:
		return convert(v), nil
	case []int8:
		return convert(v), nil
	case []int16:
		return convert(v), nil
	case []int32:
		return convert(v), nil
	case []int64:
		return convert(v), nil
	case []uint8:
		return convert(v), nil
	case []uint16:
		return convert(v), nil
	case []uint32:
		return convert(v), nil
	case []uint64:
		return convert(v), nil
	}
	return nil, fmt.Errorf("unsupported value type %T", v)
}

func readSlice(vg VarGetter, begin, limit int64) ([]float64, error) {
	v, err := vg.GetSlice(begin, limit)
	if err != nil {
		return nil, err
	}
	return float64s(v)
}

func readAll(vg VarGetter) ([]float64, error) {
	v, err := vg.Values()
	if err != nil {
		return nil, err
	}
	return float64s(v)
}
