package phicore

// View is a data variable joined with its coordinate vectors.
type View struct {
	// Name of the variable under /data.
	Name string
	// Dims lists the axes in storage order.
	Dims []Axis
	// Data holds the values, one dimension per entry of Dims.
	Data *Array
	// Coords holds a 1-D coordinate vector for every axis in Dims.
	Coords map[Axis]*Array
	// ScaleUnits overrides the default unit of an axis.
	ScaleUnits map[Axis]string
	// Attrs holds extra attributes of the variable.
	Attrs map[string]string
}

// Unit returns the unit of an axis: the override in ScaleUnits if there is
// one, otherwise the axis default.
func (v *View) Unit(a Axis) string {
	if u, ok := v.ScaleUnits[a]; ok && u != "" {
		return u
	}
	return a.DefaultUnit()
}

// Coord returns the coordinate vector of an axis as float64 values.
func (v *View) Coord(a Axis) []float64 {
	c := v.Coords[a]
	if c == nil {
		return nil
	}
	return c.Float64s()
}

// check verifies the shape rules a view must satisfy before it is written.
func (v *View) check() error {
	path := dataGroup + "/" + v.Name
	if err := checkVarName(v.Name); err != nil {
		return err
	}
	if v.Data == nil || v.Data.DType() == InvalidDType {
		return errorf(UnsupportedDType, path, "variable has no numeric data")
	}
	if err := checkAxes(v.Dims); err != nil {
		return &Error{Kind: SchemaViolation, Path: path, Msg: err.Error()}
	}
	shape := v.Data.Shape()
	if len(shape) != len(v.Dims) {
		return errorf(SchemaViolation, path, "data has rank %d, dims %v", len(shape), v.Dims)
	}
	for i, a := range v.Dims {
		c := v.Coords[a]
		cpath := scaleName(v.Name, a)
		switch {
		case c == nil:
			return errorf(SchemaViolation, cpath, "no coordinate for axis %s", a)
		case c.DType() == InvalidDType:
			return errorf(UnsupportedDType, cpath, "coordinate for axis %s is not numeric", a)
		case c.Rank() != 1:
			return errorf(SchemaViolation, cpath, "coordinate for axis %s has rank %d", a, c.Rank())
		case c.Len() != shape[i]:
			return errorf(SchemaViolation, cpath, "coordinate for axis %s has length %d, dimension is %d", a, c.Len(), shape[i])
		}
	}
	for a := range v.Coords {
		if !contains(v.Dims, a) {
			return errorf(SchemaViolation, path, "coordinate for axis %s not in dims %v", a, v.Dims)
		}
	}
	if ds, ok := v.Attrs[attrDataSource]; ok && !validDataSource(ds) {
		return errorf(SchemaViolation, path+"@"+attrDataSource, "invalid value %q", ds)
	}
	return nil
}

func contains(dims []Axis, a Axis) bool {
	for _, d := range dims {
		if d == a {
			return true
		}
	}
	return false
}
