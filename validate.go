package phicore

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/robert-malhotra/phicore/hdf5"
)

// Validate checks an existing container without modifying it.
func Validate(path string, opts ...Option) ([]Violation, error) {
	f, err := Open(path, ModeRead, opts...)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return f.Validate(), nil
}

type validator struct {
	f  *File
	vs []Violation
}

func (c *validator) add(kind Kind, path, format string, args ...any) {
	c.vs = append(c.vs, Violation{Kind: kind, Path: path, Message: fmt.Sprintf(format, args...)})
}

// Validate checks the container against the format: root attributes
// first, then /data, /scales and /diag with members in lexical order. It
// returns every violation found, or nil if there are none.
func (f *File) Validate() []Violation {
	c := &validator{f: f}
	c.root()
	groups := make(map[string]*hdf5.Group)
	for _, p := range structureGroups {
		g, err := f.h5.OpenGroup(p)
		switch {
		case err == nil:
			groups[p] = g
		case isNotFound(err):
			c.add(MissingNode, p, "group is missing")
		default:
			c.add(SchemaViolation, p, "%v", err)
		}
	}
	if g := groups[dataGroup]; g != nil {
		for _, name := range c.members(g) {
			c.variable(g, name)
		}
	}
	if g := groups[scaleGroup]; g != nil {
		for _, name := range c.members(g) {
			c.scale(g, name)
		}
	}
	if len(c.vs) > 0 {
		f.log.Debug("validation found violations")
	}
	return c.vs
}

func (c *validator) members(g *hdf5.Group) []string {
	names, err := g.Members()
	if err != nil {
		c.add(SchemaViolation, g.Path(), "listing members: %v", err)
		return nil
	}
	sort.Strings(names)
	return names
}

func (c *validator) root() {
	root := c.f.h5.Root()
	rp := hdf5.JoinAttrPath("/", attrRevision)
	if a := root.Attr(attrRevision); a == nil {
		c.add(SchemaViolation, rp, "missing")
	} else if rev, err := a.Int64(); err != nil {
		c.add(SchemaViolation, rp, "%v", err)
	} else if rev != Revision {
		c.add(SchemaViolation, rp, "revision %d, want %d", rev, Revision)
	}

	dp := hdf5.JoinAttrPath("/", attrDate)
	if a := root.Attr(attrDate); a == nil {
		c.add(SchemaViolation, dp, "missing")
	} else if s, err := a.String(); err != nil {
		c.add(SchemaViolation, dp, "%v", err)
	} else if _, err := time.Parse(DateLayout, s); err != nil {
		c.add(SchemaViolation, dp, "%q does not match layout %s", s, DateLayout)
	}

	for _, k := range []string{attrOperator, attrComments} {
		if a := root.Attr(k); a != nil && !a.IsString() {
			c.add(SchemaViolation, hdf5.JoinAttrPath("/", k), "is %s, want string", a.Dtype())
		}
	}
	c.dataSource(root)
}

func (c *validator) dataSource(obj hdf5.Object) {
	a := obj.Attr(attrDataSource)
	if a == nil {
		return
	}
	p := hdf5.JoinAttrPath(obj.Path(), attrDataSource)
	s, err := a.String()
	if err != nil {
		c.add(SchemaViolation, p, "%v", err)
		return
	}
	if !validDataSource(s) {
		c.add(SchemaViolation, p, "%q is not %s or %s", s, SourceSimulation, SourceExperiment)
	}
}

func (c *validator) variable(g *hdf5.Group, name string) {
	p := dataGroup + "/" + name
	ds, err := g.OpenDataset(name)
	if err != nil {
		c.add(SchemaViolation, p, "not a dataset: %v", err)
		return
	}
	if !ds.IsNumeric() {
		c.add(UnsupportedDType, p, "element type %s is not numeric", ds.Dtype())
	}
	if r := ds.Rank(); r != 2 && r != 3 {
		c.add(SchemaViolation, p, "rank %d, want 2 or 3", r)
	}

	np := hdf5.JoinAttrPath(p, attrName)
	if a := ds.Attr(attrName); a == nil {
		c.add(SchemaViolation, np, "missing")
	} else if s, err := a.String(); err != nil {
		c.add(SchemaViolation, np, "%v", err)
	} else if s != name {
		c.add(SchemaViolation, np, "%q does not match node name %q", s, name)
	}
	c.dataSource(ds)

	sp := hdf5.JoinAttrPath(p, attrScales)
	a := ds.Attr(attrScales)
	if a == nil {
		c.add(SchemaViolation, sp, "missing")
		return
	}
	names, err := a.Strings()
	if err != nil {
		c.add(SchemaViolation, sp, "%v", err)
		return
	}
	if len(names) != ds.Rank() {
		c.add(SchemaViolation, sp, "%d axes for rank %d", len(names), ds.Rank())
	}
	dims := make([]Axis, 0, len(names))
	for _, s := range names {
		ax, err := ParseAxis(s)
		if err != nil {
			c.add(SchemaViolation, sp, "unknown axis %q", s)
			continue
		}
		dims = append(dims, ax)
		scale := scaleName(name, ax)
		if _, err := c.f.h5.OpenDataset(scale); err != nil {
			if isNotFound(err) {
				c.add(MissingNode, scale, "scale of %s is missing", p)
			} else {
				c.add(SchemaViolation, scale, "%v", err)
			}
		}
	}
	if len(dims) == len(names) && len(names) == ds.Rank() {
		if err := checkAxes(dims); err != nil {
			c.add(SchemaViolation, sp, "%v", err)
		}
	}
}

func (c *validator) scale(g *hdf5.Group, name string) {
	p := scaleGroup + "/" + name
	ds, err := g.OpenDataset(name)
	if err != nil {
		c.add(SchemaViolation, p, "not a dataset: %v", err)
		return
	}
	if ds.Rank() != 1 {
		c.add(SchemaViolation, p, "rank %d, want 1", ds.Rank())
	}
	if !ds.IsNumeric() {
		c.add(UnsupportedDType, p, "element type %s is not numeric", ds.Dtype())
	}
	up := hdf5.JoinAttrPath(p, attrUnit)
	if a := ds.Attr(attrUnit); a == nil {
		c.add(SchemaViolation, up, "missing")
	} else if _, err := a.String(); err != nil {
		c.add(SchemaViolation, up, "%v", err)
	}

	if ds.Rank() == 1 {
		if n, want, ok := c.ownerLength(name); ok && ds.Shape()[0] != want {
			c.add(SchemaViolation, p, "length %d, %s has length %d", ds.Shape()[0], n, want)
		}
	}
}

// ownerLength finds the variable and dimension a scale named
// <variable>_<axis> belongs to. ok is false for orphan scales.
func (c *validator) ownerLength(scale string) (owner string, length uint64, ok bool) {
	i := strings.LastIndex(scale, "_")
	if i <= 0 {
		return "", 0, false
	}
	variable, axis := scale[:i], scale[i+1:]
	owner = dataGroup + "/" + variable
	ds, err := c.f.h5.OpenDataset(owner)
	if err != nil {
		return "", 0, false
	}
	a := ds.Attr(attrScales)
	if a == nil || !a.IsString() {
		return "", 0, false
	}
	names, err := a.Strings()
	if err != nil || len(names) != ds.Rank() {
		return "", 0, false
	}
	for d, s := range names {
		if s == axis {
			return owner, ds.Shape()[d], true
		}
	}
	return "", 0, false
}
