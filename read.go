package phicore

import (
	"fmt"
	"path"
	"reflect"
	"strings"
	"unicode"

	"github.com/robert-malhotra/phicore/hdf5"
)

// Range is the half-open interval [Start, Stop) along one axis.
type Range struct {
	Start, Stop int
}

// Len returns the number of indices in the range.
func (r Range) Len() int {
	return r.Stop - r.Start
}

// ReadOption configures Read.
type ReadOption func(*readOptions)

type readOptions struct {
	index []Range
}

// WithIndex selects a sub-block of the variable, one range per leading
// axis. Axes without a range are read whole. The coordinate vectors are
// sliced to match.
func WithIndex(ranges ...Range) ReadOption {
	return func(o *readOptions) { o.index = ranges }
}

// Read loads the variable at path, either "/data/<name>" or a bare name,
// together with its scales.
func (f *File) Read(p string, opts ...ReadOption) (*View, error) {
	o := &readOptions{}
	for _, opt := range opts {
		opt(o)
	}
	p = variablePath(p)
	name := path.Base(p)

	ds, err := f.h5.OpenDataset(p)
	if err != nil {
		return nil, nodeError(p, err)
	}
	dims, err := variableAxes(ds)
	if err != nil {
		return nil, err
	}
	shape := ds.Shape()

	if len(o.index) > len(shape) {
		return nil, errorf(SchemaViolation, p, "%d index ranges for rank %d", len(o.index), len(shape))
	}
	sel := make([]Range, len(shape))
	for i, n := range shape {
		sel[i] = Range{0, int(n)}
		if i < len(o.index) {
			r := o.index[i]
			if r.Start < 0 || r.Start > r.Stop || r.Stop > int(n) {
				return nil, errorf(SchemaViolation, p, "index [%d:%d) out of range for axis %s of length %d", r.Start, r.Stop, dims[i], n)
			}
			sel[i] = r
		}
	}

	data, err := readArray(ds, sel, len(o.index) > 0)
	if err != nil {
		return nil, err
	}
	v := &View{
		Name:       name,
		Dims:       dims,
		Data:       data,
		Coords:     make(map[Axis]*Array, len(dims)),
		ScaleUnits: make(map[Axis]string, len(dims)),
		Attrs:      make(map[string]string),
	}

	for i, a := range dims {
		sp := scaleName(name, a)
		sds, err := f.h5.OpenDataset(sp)
		if err != nil {
			if isNotFound(err) {
				return nil, &Error{Kind: SchemaViolation, Path: sp, Msg: "scale referenced by " + p + " is missing", Err: err}
			}
			return nil, nodeError(sp, err)
		}
		unit := sds.Attr(attrUnit)
		if unit == nil {
			return nil, errorf(SchemaViolation, hdf5.JoinAttrPath(sp, attrUnit), "missing")
		}
		if v.ScaleUnits[a], err = unit.String(); err != nil {
			return nil, &Error{Kind: SchemaViolation, Path: hdf5.JoinAttrPath(sp, attrUnit), Err: err}
		}
		if sds.Rank() != 1 || sds.Shape()[0] != shape[i] {
			return nil, errorf(SchemaViolation, sp, "shape %v does not match axis %s of length %d", sds.Shape(), a, shape[i])
		}
		c, err := readArray(sds, sel[i:i+1], sel[i].Len() != int(shape[i]))
		if err != nil {
			return nil, err
		}
		v.Coords[a] = c
	}

	for _, k := range ds.Attrs() {
		if k == attrName || k == attrScales || isSystemAttr(k) {
			continue
		}
		s, err := formatAttr(ds.Attr(k))
		if err != nil {
			return nil, fmt.Errorf("phicore: %s: %w", hdf5.JoinAttrPath(p, k), err)
		}
		v.Attrs[k] = s
	}
	return v, nil
}

// variableAxes reads and checks the scales attribute of a data variable.
func variableAxes(ds *hdf5.Dataset) ([]Axis, error) {
	ap := hdf5.JoinAttrPath(ds.Path(), attrScales)
	a := ds.Attr(attrScales)
	if a == nil {
		return nil, errorf(SchemaViolation, ap, "missing")
	}
	names, err := a.Strings()
	if err != nil {
		return nil, &Error{Kind: SchemaViolation, Path: ap, Err: err}
	}
	if len(names) != ds.Rank() {
		return nil, errorf(SchemaViolation, ap, "%d axes for rank %d", len(names), ds.Rank())
	}
	dims := make([]Axis, len(names))
	for i, s := range names {
		if dims[i], err = ParseAxis(s); err != nil {
			return nil, errorf(SchemaViolation, ap, "unknown axis %q", s)
		}
	}
	return dims, nil
}

// readArray reads the selection sel of ds, or all of it when partial is
// false.
func readArray(ds *hdf5.Dataset, sel []Range, partial bool) (*Array, error) {
	t, err := ds.GoType()
	if err != nil {
		return nil, &Error{Kind: UnsupportedDType, Path: ds.Path(), Err: err}
	}
	shape := make([]int, len(sel))
	for i, r := range sel {
		shape[i] = r.Len()
	}
	var read func(dest any) error
	if partial {
		start, count := make([]uint64, len(sel)), make([]uint64, len(sel))
		for i, r := range sel {
			start[i], count[i] = uint64(r.Start), uint64(r.Len())
		}
		read = func(dest any) error { return ds.ReadSlice(start, count, dest) }
	} else {
		read = ds.Read
	}

	switch dtypeOf(t.Kind()) {
	case Int8:
		return readTyped[int8](read, shape)
	case Int16:
		return readTyped[int16](read, shape)
	case Int32:
		return readTyped[int32](read, shape)
	case Int64:
		return readTyped[int64](read, shape)
	case Uint8:
		return readTyped[uint8](read, shape)
	case Uint16:
		return readTyped[uint16](read, shape)
	case Uint32:
		return readTyped[uint32](read, shape)
	case Uint64:
		return readTyped[uint64](read, shape)
	case Float32:
		return readTyped[float32](read, shape)
	case Float64:
		return readTyped[float64](read, shape)
	}
	return nil, errorf(UnsupportedDType, ds.Path(), "element type %s", ds.Dtype())
}

func readTyped[T Number](read func(any) error, shape []int) (*Array, error) {
	var vals []T
	if err := read(&vals); err != nil {
		return nil, err
	}
	if vals == nil {
		vals = make([]T, product(shape))
	}
	return NewArray(vals, shape...), nil
}

// isSystemAttr reports whether an attribute belongs to PyTables, which
// writes its bookkeeping attributes in upper case.
func isSystemAttr(k string) bool {
	cased := false
	for _, r := range k {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) {
			cased = true
		}
	}
	return cased
}

// formatAttr renders an attribute value as a string. Arrays are joined
// with commas.
func formatAttr(a *hdf5.Attribute) (string, error) {
	if a.IsString() {
		ss, err := a.Strings()
		return strings.Join(ss, ","), err
	}
	v, err := a.Value()
	if err != nil {
		return "", err
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice {
		return fmt.Sprint(v), nil
	}
	parts := make([]string, rv.Len())
	for i := range parts {
		parts[i] = fmt.Sprint(rv.Index(i).Interface())
	}
	return strings.Join(parts, ","), nil
}
