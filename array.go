package phicore

import (
	"fmt"
	"reflect"
)

// DType is the element type of an Array.
type DType uint8

const (
	InvalidDType DType = iota
	Int8
	Int16
	Int32
	Int64
	Uint8
	Uint16
	Uint32
	Uint64
	Float32
	Float64
)

var dtypeNames = [...]string{
	InvalidDType: "invalid",
	Int8:         "int8",
	Int16:        "int16",
	Int32:        "int32",
	Int64:        "int64",
	Uint8:        "uint8",
	Uint16:       "uint16",
	Uint32:       "uint32",
	Uint64:       "uint64",
	Float32:      "float32",
	Float64:      "float64",
}

func (d DType) String() string {
	if int(d) < len(dtypeNames) {
		return dtypeNames[d]
	}
	return fmt.Sprintf("DType(%d)", uint8(d))
}

// Size returns the element size in bytes.
func (d DType) Size() int {
	switch d {
	case Int8, Uint8:
		return 1
	case Int16, Uint16:
		return 2
	case Int32, Uint32, Float32:
		return 4
	case Int64, Uint64, Float64:
		return 8
	}
	return 0
}

func dtypeOf(k reflect.Kind) DType {
	switch k {
	case reflect.Int8:
		return Int8
	case reflect.Int16:
		return Int16
	case reflect.Int32:
		return Int32
	case reflect.Int64:
		return Int64
	case reflect.Uint8:
		return Uint8
	case reflect.Uint16:
		return Uint16
	case reflect.Uint32:
		return Uint32
	case reflect.Uint64:
		return Uint64
	case reflect.Float32:
		return Float32
	case reflect.Float64:
		return Float64
	}
	return InvalidDType
}

// Number is the set of element types an Array can hold.
type Number interface {
	int8 | int16 | int32 | int64 | uint8 | uint16 | uint32 | uint64 | float32 | float64
}

// Array is a row-major N-dimensional array backed by a typed slice.
type Array struct {
	data  any // []T for one of the Number types
	shape []int
}

// NewArray wraps data in an array of the given shape. Without a shape the
// array is 1-D. NewArray panics if the shape does not hold len(data)
// elements.
func NewArray[T Number](data []T, shape ...int) *Array {
	if len(shape) == 0 {
		shape = []int{len(data)}
	}
	if n := product(shape); n != len(data) {
		panic(fmt.Sprintf("phicore: shape %v holds %d elements, data has %d", shape, n, len(data)))
	}
	return &Array{data: data, shape: append([]int(nil), shape...)}
}

// ArrayOf wraps a slice of any element type. It fails with
// ErrUnsupportedDType unless the elements are one of the Number types.
func ArrayOf(data any, shape ...int) (*Array, error) {
	v := reflect.ValueOf(data)
	if v.Kind() != reflect.Slice || dtypeOf(v.Type().Elem().Kind()) == InvalidDType ||
		v.Type().Elem().PkgPath() != "" {
		return nil, &Error{Kind: UnsupportedDType, Msg: fmt.Sprintf("element type of %T", data)}
	}
	if len(shape) == 0 {
		shape = []int{v.Len()}
	}
	if n := product(shape); n != v.Len() {
		return nil, &Error{Kind: SchemaViolation, Msg: fmt.Sprintf("shape %v holds %d elements, data has %d", shape, n, v.Len())}
	}
	return &Array{data: data, shape: append([]int(nil), shape...)}, nil
}

// Values returns the backing slice of a, or nil if a does not hold T.
func Values[T Number](a *Array) []T {
	if a == nil {
		return nil
	}
	v, _ := a.data.([]T)
	return v
}

// DType returns the element type.
func (a *Array) DType() DType {
	if a == nil || a.data == nil {
		return InvalidDType
	}
	return dtypeOf(reflect.TypeOf(a.data).Elem().Kind())
}

// Shape returns a copy of the dimensions.
func (a *Array) Shape() []int {
	return append([]int(nil), a.shape...)
}

// Rank returns the number of dimensions.
func (a *Array) Rank() int {
	return len(a.shape)
}

// Len returns the number of elements.
func (a *Array) Len() int {
	if a == nil || a.data == nil {
		return 0
	}
	return reflect.ValueOf(a.data).Len()
}

// Data returns the backing slice.
func (a *Array) Data() any {
	return a.data
}

// Float64s returns the elements converted to float64.
func (a *Array) Float64s() []float64 {
	switch v := a.data.(type) {
	case []float64:
		return append([]float64(nil), v...)
	case []float32:
		return convert(v)
	case []int8:
		return convert(v)
	case []int16:
		return convert(v)
	case []int32:
		return convert(v)
	case []int64:
		return convert(v)
	case []uint8:
		return convert(v)
	case []uint16:
		return convert(v)
	case []uint32:
		return convert(v)
	case []uint64:
		return convert(v)
	}
	return nil
}

func convert[T Number](in []T) []float64 {
	out := make([]float64, len(in))
	for i, x := range in {
		out[i] = float64(x)
	}
	return out
}

func (a *Array) String() string {
	if a == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s%v", a.DType(), a.shape)
}

func product(dims []int) int {
	n := 1
	for _, d := range dims {
		n *= d
	}
	return n
}
