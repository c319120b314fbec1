package dtype

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"reflect"

	binpkg "github.com/robert-malhotra/phicore/internal/binary"
	"github.com/robert-malhotra/phicore/internal/heap"
	"github.com/robert-malhotra/phicore/internal/message"
)

// Decode converts n elements of raw data into a new slice of the Go type
// GoType reports for dt. Variable-length strings need h; fixed types
// ignore it.
func Decode(dt *message.Datatype, data []byte, n int, cfg binpkg.Config, h Heap) (any, error) {
	t, err := GoType(dt)
	if err != nil {
		return nil, err
	}
	switch dt.Class {
	case message.ClassString:
		return decodeFixedStrings(dt, data, n)
	case message.ClassVarLen:
		return decodeVarLenStrings(data, n, cfg, h)
	}

	size := int(dt.Size)
	if len(data) < n*size {
		return nil, fmt.Errorf("dtype: %d bytes for %d %s elements", len(data), n, dt)
	}
	out := reflect.MakeSlice(reflect.SliceOf(t), n, n).Interface()
	if _, err := binary.Decode(data[:n*size], dt.ByteOrder(), out); err != nil {
		return nil, fmt.Errorf("dtype: decoding %s: %w", dt, err)
	}
	return out, nil
}

func decodeFixedStrings(dt *message.Datatype, data []byte, n int) ([]string, error) {
	size := int(dt.Size)
	if len(data) < n*size {
		return nil, fmt.Errorf("dtype: %d bytes for %d strings of %d", len(data), n, size)
	}
	out := make([]string, n)
	for i := range out {
		s := data[i*size : (i+1)*size]
		if j := bytes.IndexByte(s, 0); j >= 0 {
			s = s[:j]
		}
		if dt.Padding == message.PadSpacePad {
			s = bytes.TrimRight(s, " ")
		}
		out[i] = string(s)
	}
	return out, nil
}

func decodeVarLenStrings(data []byte, n int, cfg binpkg.Config, h Heap) ([]string, error) {
	size := heap.VarLenSize(cfg)
	if len(data) < n*size {
		return nil, fmt.Errorf("dtype: %d bytes for %d variable-length strings", len(data), n)
	}
	out := make([]string, n)
	for i := range out {
		length, id := heap.DecodeVarLen(data[i*size:], cfg)
		if id.Collection == 0 {
			continue
		}
		if h == nil {
			return nil, fmt.Errorf("dtype: variable-length string at %d needs a heap", id.Collection)
		}
		b, err := h.Get(id)
		if err != nil {
			return nil, fmt.Errorf("dtype: string %d: %w", i, err)
		}
		if int(length) < len(b) {
			b = b[:length]
		}
		out[i] = string(bytes.TrimRight(b, "\x00"))
	}
	return out, nil
}

// Convert decodes n elements into dest, which must be a pointer to a slice,
// a scalar or an interface. Numeric values convert between Go numeric types
// the way a Go conversion would; strings only go to strings.
func Convert(dt *message.Datatype, data []byte, n int, dest any, cfg binpkg.Config, h Heap) error {
	dv := reflect.ValueOf(dest)
	if dv.Kind() != reflect.Pointer || dv.IsNil() {
		return fmt.Errorf("dtype: dest must be a non-nil pointer, got %T", dest)
	}
	v, err := Decode(dt, data, n, cfg, h)
	if err != nil {
		return err
	}
	src := reflect.ValueOf(v)
	dv = dv.Elem()

	switch dv.Kind() {
	case reflect.Interface:
		dv.Set(src)
		return nil
	case reflect.Slice:
		if src.Type() == dv.Type() {
			dv.Set(src)
			return nil
		}
		et := dv.Type().Elem()
		if !convertible(src.Type().Elem(), et) {
			return fmt.Errorf("dtype: cannot store %s in %s", dt, dv.Type())
		}
		out := reflect.MakeSlice(dv.Type(), n, n)
		for i := 0; i < n; i++ {
			out.Index(i).Set(src.Index(i).Convert(et))
		}
		dv.Set(out)
		return nil
	}

	if n < 1 {
		return fmt.Errorf("dtype: no element to store in %s", dv.Type())
	}
	if !convertible(src.Type().Elem(), dv.Type()) {
		return fmt.Errorf("dtype: cannot store %s in %s", dt, dv.Type())
	}
	dv.Set(src.Index(0).Convert(dv.Type()))
	return nil
}

func convertible(from, to reflect.Type) bool {
	if from.Kind() == reflect.String || to.Kind() == reflect.String {
		return from.Kind() == to.Kind()
	}
	return isNumberKind(from.Kind()) && isNumberKind(to.Kind())
}

func isNumberKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
