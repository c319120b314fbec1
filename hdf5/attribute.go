package hdf5

import (
	"fmt"
	"reflect"

	"github.com/robert-malhotra/phicore/internal/dtype"
	"github.com/robert-malhotra/phicore/internal/message"
)

// Attribute represents an HDF5 attribute attached to a dataset or group.
type Attribute struct {
	msg  *message.Attribute
	file *File // resolves variable-length strings
}

// Name returns the attribute name.
func (a *Attribute) Name() string {
	return a.msg.Name
}

// Shape returns the dimensions of the attribute value, nil for a scalar.
func (a *Attribute) Shape() []uint64 {
	if a.msg.Dataspace == nil || a.msg.Dataspace.Kind != message.SpaceSimple {
		return nil
	}
	return a.msg.Dataspace.Dims
}

// NumElements returns the total number of elements.
func (a *Attribute) NumElements() int {
	if a.msg.Dataspace == nil {
		return 1
	}
	return int(a.msg.Dataspace.NumElements())
}

// IsScalar returns true if the attribute is a scalar value.
func (a *Attribute) IsScalar() bool {
	return a.msg.Dataspace == nil || a.msg.Dataspace.Kind == message.SpaceScalar
}

// IsString reports whether the attribute holds fixed- or variable-length
// strings.
func (a *Attribute) IsString() bool {
	return a.msg.Datatype != nil && a.msg.Datatype.IsString()
}

// IsNumeric reports whether the attribute holds integers or floats.
func (a *Attribute) IsNumeric() bool {
	return dtype.IsNumeric(a.msg.Datatype)
}

// Dtype describes the element type, for example "int64" or "string[8]".
func (a *Attribute) Dtype() string {
	if a.msg.Datatype == nil {
		return "unknown"
	}
	return a.msg.Datatype.String()
}

// Read reads the attribute value into dest, a pointer to a slice, a
// scalar or an interface.
func (a *Attribute) Read(dest any) error {
	if a.msg.Datatype == nil {
		return fmt.Errorf("attribute %q has no datatype", a.msg.Name)
	}
	err := dtype.Convert(a.msg.Datatype, a.msg.Data, a.NumElements(), dest, a.file.reader.Config(), a.file.heaps)
	if err != nil {
		return fmt.Errorf("attribute %q: %w", a.msg.Name, err)
	}
	return nil
}

func (a *Attribute) one() error {
	if n := a.NumElements(); n != 1 {
		return fmt.Errorf("attribute %q holds %d values", a.msg.Name, n)
	}
	return nil
}

// String reads a single string value.
func (a *Attribute) String() (string, error) {
	if !a.IsString() {
		return "", fmt.Errorf("attribute %q is %s, not a string", a.msg.Name, a.Dtype())
	}
	if err := a.one(); err != nil {
		return "", err
	}
	var s string
	err := a.Read(&s)
	return s, err
}

// Strings reads every value of a string attribute.
func (a *Attribute) Strings() ([]string, error) {
	if !a.IsString() {
		return nil, fmt.Errorf("attribute %q is %s, not a string", a.msg.Name, a.Dtype())
	}
	var ss []string
	err := a.Read(&ss)
	return ss, err
}

// Int64 reads a single numeric value as int64. Floats are truncated.
func (a *Attribute) Int64() (int64, error) {
	if !a.IsNumeric() {
		return 0, fmt.Errorf("attribute %q is %s, not a number", a.msg.Name, a.Dtype())
	}
	if err := a.one(); err != nil {
		return 0, err
	}
	var v int64
	err := a.Read(&v)
	return v, err
}

// Float64 reads a single numeric value as float64.
func (a *Attribute) Float64() (float64, error) {
	if !a.IsNumeric() {
		return 0, fmt.Errorf("attribute %q is %s, not a number", a.msg.Name, a.Dtype())
	}
	if err := a.one(); err != nil {
		return 0, err
	}
	var v float64
	err := a.Read(&v)
	return v, err
}

// Value returns the attribute in its own Go type: a single value for a
// scalar, otherwise a slice such as []int32 or []string.
func (a *Attribute) Value() (any, error) {
	var v any
	if err := a.Read(&v); err != nil {
		return nil, err
	}
	if a.IsScalar() {
		rv := reflect.ValueOf(v)
		if rv.Len() == 1 {
			return rv.Index(0).Interface(), nil
		}
	}
	return v, nil
}
