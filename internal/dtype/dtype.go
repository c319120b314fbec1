package dtype

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/robert-malhotra/phicore/internal/heap"
	"github.com/robert-malhotra/phicore/internal/message"
)

// ErrUnsupported is returned for datatypes without a Go mapping.
var ErrUnsupported = errors.New("dtype: unsupported datatype")

// Heap resolves variable-length elements stored in the global heap.
type Heap interface {
	Get(id heap.ID) ([]byte, error)
}

var (
	int8Type    = reflect.TypeFor[int8]()
	int16Type   = reflect.TypeFor[int16]()
	int32Type   = reflect.TypeFor[int32]()
	int64Type   = reflect.TypeFor[int64]()
	uint8Type   = reflect.TypeFor[uint8]()
	uint16Type  = reflect.TypeFor[uint16]()
	uint32Type  = reflect.TypeFor[uint32]()
	uint64Type  = reflect.TypeFor[uint64]()
	float32Type = reflect.TypeFor[float32]()
	float64Type = reflect.TypeFor[float64]()
	stringType  = reflect.TypeFor[string]()
)

// GoType returns the Go element type for dt.
func GoType(dt *message.Datatype) (reflect.Type, error) {
	if dt == nil {
		return nil, fmt.Errorf("%w: nil datatype", ErrUnsupported)
	}
	switch dt.Class {
	case message.ClassFixedPoint:
		switch {
		case dt.Size == 1 && dt.Signed:
			return int8Type, nil
		case dt.Size == 1:
			return uint8Type, nil
		case dt.Size == 2 && dt.Signed:
			return int16Type, nil
		case dt.Size == 2:
			return uint16Type, nil
		case dt.Size == 4 && dt.Signed:
			return int32Type, nil
		case dt.Size == 4:
			return uint32Type, nil
		case dt.Size == 8 && dt.Signed:
			return int64Type, nil
		case dt.Size == 8:
			return uint64Type, nil
		}
	case message.ClassFloatPoint:
		if !dt.IsIEEE() {
			break
		}
		switch dt.Size {
		case 4:
			return float32Type, nil
		case 8:
			return float64Type, nil
		}
	case message.ClassString:
		return stringType, nil
	case message.ClassVarLen:
		if dt.VarLenString {
			return stringType, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupported, dt)
}

// IsNumeric reports whether dt decodes to a Go integer or float type.
func IsNumeric(dt *message.Datatype) bool {
	t, err := GoType(dt)
	return err == nil && t != stringType
}

// ForType returns the datatype written for Go element type t.
func ForType(t reflect.Type) (*message.Datatype, error) {
	switch t.Kind() {
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return message.NewInteger(uint32(t.Size()), true), nil
	case reflect.Int:
		return message.NewInteger(8, true), nil
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return message.NewInteger(uint32(t.Size()), false), nil
	case reflect.Uint:
		return message.NewInteger(8, false), nil
	case reflect.Float32, reflect.Float64:
		return message.NewFloat(uint32(t.Size())), nil
	}
	return nil, fmt.Errorf("%w: Go type %s", ErrUnsupported, t)
}
