package phicore

import "fmt"

// Axis names one dimension of a data variable.
type Axis uint8

const (
	AxisX Axis = iota
	AxisKX
	AxisY
	AxisKY
	AxisLamb
	AxisW
	AxisF
	AxisTau
	AxisD
	AxisT
	numAxes
)

var axisInfo = [numAxes]struct {
	name string
	unit string
}{
	AxisX:    {"x", "mm"},
	AxisKX:   {"kx", "1/mm"},
	AxisY:    {"y", "mm"},
	AxisKY:   {"ky", "1/mm"},
	AxisLamb: {"lamb", "nm"},
	AxisW:    {"w", "PHz.rad"},
	AxisF:    {"f", "PHz"},
	AxisTau:  {"tau", "fs"},
	AxisD:    {"d", "fs"},
	AxisT:    {"t", "fs"},
}

// Axes returns every axis in vocabulary order.
func Axes() []Axis {
	out := make([]Axis, numAxes)
	for i := range out {
		out[i] = Axis(i)
	}
	return out
}

// ParseAxis returns the axis with the given name.
func ParseAxis(s string) (Axis, error) {
	for i, info := range axisInfo {
		if info.name == s {
			return Axis(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown axis %q", ErrSchemaViolation, s)
}

// Valid reports whether a is part of the vocabulary.
func (a Axis) Valid() bool {
	return a < numAxes
}

func (a Axis) String() string {
	if !a.Valid() {
		return fmt.Sprintf("Axis(%d)", uint8(a))
	}
	return axisInfo[a].name
}

// DefaultUnit returns the unit assumed for the axis when a file does not
// override it.
func (a Axis) DefaultUnit() string {
	if !a.Valid() {
		return ""
	}
	return axisInfo[a].unit
}

// IsSpatial reports whether the axis is a position or transverse wave
// vector: x, kx, y or ky.
func (a Axis) IsSpatial() bool {
	return a <= AxisKY
}

// IsSpectral reports whether the axis is temporal or spectral.
func (a Axis) IsSpectral() bool {
	return a >= AxisLamb && a < numAxes
}

// MarshalText implements encoding.TextMarshaler.
func (a Axis) MarshalText() ([]byte, error) {
	if !a.Valid() {
		return nil, fmt.Errorf("%w: invalid axis %d", ErrSchemaViolation, uint8(a))
	}
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Axis) UnmarshalText(text []byte) error {
	v, err := ParseAxis(string(text))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// checkAxes enforces the dimension rules of a data variable: two or three
// distinct axes, spatial ones first and a temporal or spectral one last.
func checkAxes(dims []Axis) error {
	if n := len(dims); n < 2 || n > 3 {
		return fmt.Errorf("variable has %d dimensions, want 2 or 3", n)
	}
	seen := make(map[Axis]bool, len(dims))
	for i, a := range dims {
		if !a.Valid() {
			return fmt.Errorf("unknown axis %s", a)
		}
		if seen[a] {
			return fmt.Errorf("axis %s repeated", a)
		}
		seen[a] = true
		last := i == len(dims)-1
		if last && !a.IsSpectral() {
			return fmt.Errorf("last axis %s is not temporal or spectral", a)
		}
		if !last && !a.IsSpatial() {
			return fmt.Errorf("axis %s at position %d is not spatial", a, i)
		}
	}
	return nil
}
