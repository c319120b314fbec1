package hdf5

import (
	"errors"
	"slices"
)

// ErrStopWalk can be returned from a walk callback to end the walk early
// without an error.
var ErrStopWalk = errors.New("walk stopped")

// WalkFunc is called for each object during traversal.
// path is the full path to the object.
// obj is either *Group or *Dataset, or nil when err is set.
// Return nil to continue walking, or an error to stop.
type WalkFunc func(path string, obj any, err error) error

// Walk visits g and everything below it, depth first, with the members of
// each group in lexical order.
//
//	hdf5.Walk(f.Root(), func(path string, obj any, err error) error {
//	    if ds, ok := obj.(*hdf5.Dataset); ok {
//	        fmt.Println(path, ds.Shape())
//	    }
//	    return err
//	})
func Walk(g *Group, fn WalkFunc) error {
	err := walkGroup(g, fn, make(map[*Group]bool))
	if errors.Is(err, ErrStopWalk) {
		return nil
	}
	return err
}

// seen stops soft links to an enclosing group from looping.
func walkGroup(g *Group, fn WalkFunc, seen map[*Group]bool) error {
	if seen[g] {
		return nil
	}
	seen[g] = true
	if err := fn(g.Path(), g, nil); err != nil {
		return err
	}
	members, err := g.Members()
	if err != nil {
		return fn(g.Path(), nil, err)
	}
	slices.Sort(members)

	for _, name := range members {
		childPath := joinPath(g.Path(), name)
		obj, err := g.child(name, 0)
		switch o := obj.(type) {
		case *Group:
			err = walkGroup(o, fn, seen)
		case *Dataset:
			err = fn(childPath, o, nil)
		default:
			err = fn(childPath, nil, err)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// AttrInfo describes one attribute met by WalkAttrs.
type AttrInfo struct {
	// Path is the full attribute path (e.g., "/group/dataset@attr")
	Path string

	// ObjectPath is the path to the object containing this attribute
	ObjectPath string

	// ObjectType is "group" or "dataset"
	ObjectType string

	// Name is the attribute name
	Name string

	Attr *Attribute

	// Value holds the attribute value, nil when reading it failed
	Value any

	// Err is the error from reading the value
	Err error
}

// WalkAttrsFunc is the callback function type for WalkAttrs.
type WalkAttrsFunc func(info AttrInfo) error

// WalkAttrs calls fn for every attribute of every group and dataset in the
// file. Objects that cannot be opened are skipped.
func (f *File) WalkAttrs(fn WalkAttrsFunc) error {
	if err := f.check(); err != nil {
		return err
	}
	return Walk(f.root, func(path string, obj any, err error) error {
		if err != nil {
			return nil
		}
		n, kind := nodeOf(obj), "group"
		if _, ok := obj.(*Dataset); ok {
			kind = "dataset"
		}
		for _, name := range n.Attrs() {
			a := n.Attr(name)
			info := AttrInfo{
				Path:       JoinAttrPath(path, name),
				ObjectPath: path,
				ObjectType: kind,
				Name:       name,
				Attr:       a,
			}
			info.Value, info.Err = a.Value()
			if err := fn(info); err != nil {
				return err
			}
		}
		return nil
	})
}
