package phicore

import (
	"fmt"
	"sort"
	"time"

	"github.com/robert-malhotra/phicore/hdf5"
)

// List returns the full paths of the variables in the group at location,
// /data when empty: the members that carry a scales attribute, in lexical
// order.
func (f *File) List(location string) ([]string, error) {
	if location == "" {
		location = dataGroup
	}
	location = hdf5.CleanPath(location)
	g, err := f.group(location)
	if err != nil {
		return nil, err
	}
	names, err := g.Members()
	if err != nil {
		return nil, fmt.Errorf("phicore: listing %s: %w", location, err)
	}
	sort.Strings(names)
	var out []string
	for _, name := range names {
		p := location + "/" + name
		if location == "/" {
			p = "/" + name
		}
		obj, err := f.h5.Object(p)
		if err != nil {
			continue // external or dangling links
		}
		if obj.HasAttr(attrScales) {
			out = append(out, p)
		}
	}
	return out, nil
}

// Attrs returns the attributes of the node at location, the root when
// empty, formatted as strings.
func (f *File) Attrs(location string) (map[string]string, error) {
	location = hdf5.CleanPath(location)
	obj, err := f.object(location)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string)
	for _, k := range obj.Attrs() {
		s, err := formatAttr(obj.Attr(k))
		if err != nil {
			return nil, fmt.Errorf("phicore: %s: %w", hdf5.JoinAttrPath(location, k), err)
		}
		out[k] = s
	}
	return out, nil
}

// SetAttrs writes string attributes on the node at location, the root when
// empty. The root rev_fileformat cannot be set, and date and data_source
// must be well formed.
func (f *File) SetAttrs(location string, attrs map[string]string) error {
	if err := f.checkWritable(); err != nil {
		return err
	}
	location = hdf5.CleanPath(location)
	obj, err := f.object(location)
	if err != nil {
		return err
	}
	keys := sortedKeys(attrs)
	for _, k := range keys {
		if err := checkAttr(location, k, attrs[k]); err != nil {
			return err
		}
	}
	for _, k := range keys {
		if err := obj.SetAttr(k, attrs[k]); err != nil {
			return fmt.Errorf("phicore: setting %s: %w", hdf5.JoinAttrPath(location, k), err)
		}
	}
	return nil
}

func checkAttr(location, k, v string) error {
	ap := hdf5.JoinAttrPath(location, k)
	switch {
	case k == attrDataSource && !validDataSource(v):
		return errorf(SchemaViolation, ap, "%q is not %s or %s", v, SourceSimulation, SourceExperiment)
	case location != "/":
		return nil
	case k == attrRevision:
		return errorf(SchemaViolation, ap, "format revision cannot be set")
	case k == attrDate:
		if _, err := time.Parse(DateLayout, v); err != nil {
			return errorf(SchemaViolation, ap, "%q does not match layout %s", v, DateLayout)
		}
	}
	return nil
}

// Metadata is the typed form of the root attributes.
type Metadata struct {
	Revision   int64
	Date       time.Time
	Operator   string
	Comments   string
	DataSource string
}

// Metadata reads the root attributes. Missing optional keys are left
// empty.
func (f *File) Metadata() (*Metadata, error) {
	root := f.h5.Root()
	m := &Metadata{}

	a := root.Attr(attrRevision)
	if a == nil {
		return nil, errorf(SchemaViolation, hdf5.JoinAttrPath("/", attrRevision), "missing")
	}
	rev, err := a.Int64()
	if err != nil {
		return nil, &Error{Kind: SchemaViolation, Path: hdf5.JoinAttrPath("/", attrRevision), Err: err}
	}
	m.Revision = rev

	if a := root.Attr(attrDate); a != nil {
		s, err := a.String()
		if err != nil {
			return nil, &Error{Kind: SchemaViolation, Path: hdf5.JoinAttrPath("/", attrDate), Err: err}
		}
		if m.Date, err = time.Parse(DateLayout, s); err != nil {
			return nil, &Error{Kind: SchemaViolation, Path: hdf5.JoinAttrPath("/", attrDate), Err: err}
		}
	}
	for k, dst := range map[string]*string{
		attrOperator:   &m.Operator,
		attrComments:   &m.Comments,
		attrDataSource: &m.DataSource,
	} {
		if a := root.Attr(k); a != nil {
			if *dst, err = formatAttr(a); err != nil {
				return nil, fmt.Errorf("phicore: %s: %w", hdf5.JoinAttrPath("/", k), err)
			}
		}
	}
	return m, nil
}
