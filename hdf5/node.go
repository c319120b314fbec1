package hdf5

import (
	"fmt"
	"path"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/robert-malhotra/phicore/internal/dtype"
	"github.com/robert-malhotra/phicore/internal/message"
	"github.com/robert-malhotra/phicore/internal/object"
)

// node is the state shared by groups and datasets: where the object
// header lives and which group links to it.
type node struct {
	file   *File
	path   string
	addr   uint64
	header *object.Header
	parent *Group // nil for the root group
}

// Name returns the last component of the object's path.
func (n *node) Name() string {
	if n.path == "/" {
		return "/"
	}
	return path.Base(n.path)
}

// Path returns the full path to the object.
func (n *node) Path() string {
	return n.path
}

// Attrs returns the attribute names in storage order.
func (n *node) Attrs() []string {
	var names []string
	for _, a := range n.header.Attributes() {
		names = append(names, a.Name)
	}
	return names
}

// Attr returns an attribute by name, or nil if not found.
func (n *node) Attr(name string) *Attribute {
	for _, a := range n.header.Attributes() {
		if a.Name == name {
			return &Attribute{msg: a, file: n.file}
		}
	}
	return nil
}

// HasAttr returns true if the object has an attribute with the given name.
func (n *node) HasAttr(name string) bool {
	return n.Attr(name) != nil
}

// SetAttr creates or replaces an attribute. The value can be a scalar or
// slice of: int, int8-64, uint, uint8-64, float32, float64, string.
func (n *node) SetAttr(name string, value any) error {
	if err := n.file.checkWritable(); err != nil {
		return err
	}
	a, err := newAttribute(name, value)
	if err != nil {
		return err
	}
	n.header.SetAttribute(a, n.file.reader.Config())
	if err := n.commit(); err != nil {
		return fmt.Errorf("setting attribute %s: %w", JoinAttrPath(n.path, name), err)
	}
	return nil
}

func newAttribute(name string, value any) (*message.Attribute, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty attribute name", ErrInvalidPath)
	}
	v, err := dtype.Encode(value)
	if err != nil {
		return nil, fmt.Errorf("attribute %q: %w: %w", name, ErrUnsupported, err)
	}
	space := message.NewScalarDataspace()
	if v.Dims != nil {
		space = message.NewSimpleDataspace(v.Dims...)
	}
	return &message.Attribute{
		Name:      name,
		Charset:   charsetOf(name),
		Datatype:  v.Type,
		Dataspace: space,
		Data:      v.Data,
	}, nil
}

func charsetOf(s string) message.Charset {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return message.CharsetUTF8
		}
	}
	return message.CharsetASCII
}

// commit writes the header back to the file. The header is rewritten in
// place when it still fits its chunk; otherwise it moves to new space and
// the parent's link, or the superblock for the root, is updated.
func (n *node) commit() error {
	f := n.file
	cfg := f.reader.Config()
	h := n.header

	if h.Fits() {
		buf, err := h.Encode(cfg, h.Capacity)
		if err != nil {
			return err
		}
		if _, err := f.store.WriteAt(buf, int64(n.addr)); err != nil {
			return fmt.Errorf("rewriting object header: %w", err)
		}
		return nil
	}

	oldAddr, oldLen := n.addr, 0
	if h.Version == 2 && h.Capacity > 0 {
		oldLen = object.EncodedLen(h.Capacity)
	}
	addr, err := f.writeHeader(h)
	if err != nil {
		return err
	}
	n.addr = addr
	f.log.Debug("relocated object header",
		zap.String("path", n.path),
		zap.Uint64("from", oldAddr),
		zap.Uint64("to", addr))

	if n.parent == nil {
		f.superblock.RootAddress = addr
		if err := f.Flush(); err != nil {
			return err
		}
	} else {
		n.parent.header.PutLink(message.NewHardLink(n.Name(), addr), cfg)
		if err := n.parent.commit(); err != nil {
			return err
		}
	}
	if oldLen > 0 {
		f.allocator.Free(oldAddr, uint64(oldLen))
	}
	return nil
}

// nodeOf returns the node behind a *Group or *Dataset.
func nodeOf(obj any) *node {
	switch o := obj.(type) {
	case *Group:
		return &o.node
	case *Dataset:
		return &o.node
	}
	return nil
}
