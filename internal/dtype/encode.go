package dtype

import (
	"encoding/binary"
	"fmt"
	"reflect"

	"github.com/robert-malhotra/phicore/internal/message"
)

// Value is a Go value encoded for storage.
type Value struct {
	Type *message.Datatype
	Data []byte
	Dims []uint64 // nil for a scalar
}

// Len returns the number of elements.
func (v *Value) Len() int {
	n := 1
	for _, d := range v.Dims {
		n *= int(d)
	}
	return n
}

// Encode converts a numeric scalar, a numeric slice, a string or a string
// slice. Slices encode as 1-D; callers reshape by replacing Dims.
func Encode(x any) (*Value, error) {
	switch x := x.(type) {
	case string:
		return encodeStrings([]string{x}, nil), nil
	case []string:
		return encodeStrings(x, []uint64{uint64(len(x))}), nil
	}

	rv := reflect.ValueOf(x)
	if !rv.IsValid() {
		return nil, fmt.Errorf("%w: nil value", ErrUnsupported)
	}
	var dims []uint64
	if rv.Kind() == reflect.Slice {
		dims = []uint64{uint64(rv.Len())}
	} else {
		s := reflect.MakeSlice(reflect.SliceOf(rv.Type()), 1, 1)
		s.Index(0).Set(rv)
		rv = s
	}

	et := rv.Type().Elem()
	dt, err := ForType(et)
	if err != nil {
		return nil, err
	}
	// encoding/binary has no encoding for int and uint.
	switch et.Kind() {
	case reflect.Int:
		rv = convertSlice(rv, int64Type)
	case reflect.Uint:
		rv = convertSlice(rv, uint64Type)
	}
	data, err := binary.Append(make([]byte, 0, rv.Len()*int(dt.Size)), binary.LittleEndian, rv.Interface())
	if err != nil {
		return nil, fmt.Errorf("dtype: encoding %s: %w", rv.Type(), err)
	}
	return &Value{Type: dt, Data: data, Dims: dims}, nil
}

func convertSlice(rv reflect.Value, et reflect.Type) reflect.Value {
	out := reflect.MakeSlice(reflect.SliceOf(et), rv.Len(), rv.Len())
	for i := 0; i < rv.Len(); i++ {
		out.Index(i).Set(rv.Index(i).Convert(et))
	}
	return out
}

// encodeStrings stores ss as null-terminated UTF-8 strings sized to the
// longest one.
func encodeStrings(ss []string, dims []uint64) *Value {
	width := 1
	for _, s := range ss {
		width = max(width, len(s)+1)
	}
	data := make([]byte, width*len(ss))
	for i, s := range ss {
		copy(data[i*width:], s)
	}
	return &Value{
		Type: message.NewString(uint32(width), message.CharsetUTF8),
		Data: data,
		Dims: dims,
	}
}
