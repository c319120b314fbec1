package hdf5

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/robert-malhotra/phicore/internal/alloc"
	"github.com/robert-malhotra/phicore/internal/btree"
	"github.com/robert-malhotra/phicore/internal/dtype"
	"github.com/robert-malhotra/phicore/internal/heap"
	"github.com/robert-malhotra/phicore/internal/layout"
	"github.com/robert-malhotra/phicore/internal/message"
	"github.com/robert-malhotra/phicore/internal/object"
)

// Group represents an HDF5 group.
type Group struct {
	node
}

// link is one member of a group, from either a link message or a
// symbol table entry.
type link struct {
	name     string
	addr     uint64
	target   string // soft link path
	external bool
}

func (l link) hard() bool { return l.target == "" && !l.external }

// links returns the group's members in storage order.
func (g *Group) links() ([]link, error) {
	f := g.file
	if st := g.header.SymbolTable(); st != nil {
		return g.symbolLinks(st.BTreeAddr, st.HeapAddr)
	}
	if li := g.header.LinkInfo(); li != nil && li.Dense(f.reader.Config()) {
		return nil, fmt.Errorf("%w: dense link storage in %s", ErrUnsupported, g.path)
	}

	msgs := g.header.Links()
	if len(msgs) == 0 && g.parent == nil && !f.reader.IsUndefinedOffset(f.superblock.RootBTreeAddress) {
		// Root group known only from the superblock's symbol table cache.
		return g.symbolLinks(f.superblock.RootBTreeAddress, f.superblock.RootHeapAddress)
	}
	out := make([]link, 0, len(msgs))
	for _, m := range msgs {
		l := link{name: m.Name}
		switch m.Kind {
		case message.LinkHard:
			l.addr = m.Address
		case message.LinkSoft:
			l.target = m.Target
		default:
			l.external = true
		}
		out = append(out, l)
	}
	return out, nil
}

func (g *Group) symbolLinks(btreeAddr, heapAddr uint64) ([]link, error) {
	names, err := heap.ReadLocal(g.file.reader, heapAddr)
	if err != nil {
		return nil, fmt.Errorf("reading local heap of %s: %w", g.path, err)
	}
	entries, err := btree.ReadGroup(g.file.reader, btreeAddr, names)
	if err != nil {
		return nil, fmt.Errorf("reading symbol table of %s: %w", g.path, err)
	}
	out := make([]link, len(entries))
	for i, e := range entries {
		out[i] = link{name: e.Name, addr: e.Address, target: e.SoftTarget}
	}
	return out, nil
}

func (g *Group) find(name string) (link, error) {
	ls, err := g.links()
	if err != nil {
		return link{}, err
	}
	for _, l := range ls {
		if l.name == name {
			return l, nil
		}
	}
	return link{}, fmt.Errorf("%w: %s", ErrNotFound, joinPath(g.path, name))
}

// Members returns the names of all members (groups and datasets) in this group.
func (g *Group) Members() ([]string, error) {
	if err := g.file.check(); err != nil {
		return nil, err
	}
	ls, err := g.links()
	if err != nil {
		return nil, err
	}
	names := make([]string, len(ls))
	for i, l := range ls {
		names[i] = l.name
	}
	return names, nil
}

// NumObjects returns the number of objects in this group.
func (g *Group) NumObjects() (int, error) {
	members, err := g.Members()
	return len(members), err
}

// Has reports whether the group has a member with the given name.
func (g *Group) Has(name string) bool {
	if g.file.check() != nil {
		return false
	}
	_, err := g.find(name)
	return err == nil
}

// OpenGroup opens a group by path. Paths starting with "/" are resolved
// from the root group.
func (g *Group) OpenGroup(path string) (*Group, error) {
	obj, err := g.open(path, 0)
	if err != nil {
		return nil, err
	}
	group, ok := obj.(*Group)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotGroup, path)
	}
	return group, nil
}

// OpenDataset opens a dataset by path. Paths starting with "/" are
// resolved from the root group.
func (g *Group) OpenDataset(path string) (*Dataset, error) {
	obj, err := g.open(path, 0)
	if err != nil {
		return nil, err
	}
	ds, ok := obj.(*Dataset)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotDataset, path)
	}
	return ds, nil
}

// open returns the *Group or *Dataset at path.
func (g *Group) open(path string, depth int) (any, error) {
	if err := g.file.check(); err != nil {
		return nil, err
	}
	cur := g
	if strings.HasPrefix(path, "/") {
		cur = g.file.root
	}
	parts := SplitPath(path)
	for i, name := range parts {
		if name == ".." {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPath, path)
		}
		obj, err := cur.child(name, depth)
		if err != nil {
			return nil, err
		}
		if i == len(parts)-1 {
			return obj, nil
		}
		next, ok := obj.(*Group)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrNotGroup, joinPath(cur.path, name))
		}
		cur = next
	}
	return cur, nil
}

func (g *Group) child(name string, depth int) (any, error) {
	f := g.file
	p := joinPath(g.path, name)
	if obj, ok := f.objects[p]; ok {
		return obj, nil
	}
	l, err := g.find(name)
	if err != nil {
		return nil, err
	}
	switch {
	case l.external:
		return nil, fmt.Errorf("%w: external link %s", ErrUnsupported, p)
	case l.target != "":
		if depth >= MaxLinkDepth {
			return nil, ErrLinkDepth
		}
		return g.open(l.target, depth+1)
	}

	h, err := object.Read(f.reader, l.addr)
	if err != nil {
		return nil, fmt.Errorf("reading object header of %s: %w", p, err)
	}
	n := node{file: f, path: p, addr: l.addr, header: h, parent: g}
	var obj any = &Group{node: n}
	if h.IsDataset() {
		obj = &Dataset{node: n}
	}
	f.objects[p] = obj
	return obj, nil
}

// checkLinkable fails unless new links can be added to the group.
func (g *Group) checkLinkable(name string) error {
	if err := g.file.checkWritable(); err != nil {
		return err
	}
	if err := checkName(name); err != nil {
		return err
	}
	if g.header.SymbolTable() != nil {
		return fmt.Errorf("%w: adding links to symbol-table group %s", ErrUnsupported, g.path)
	}
	if li := g.header.LinkInfo(); li != nil && li.Dense(g.file.reader.Config()) {
		return fmt.Errorf("%w: adding links to dense group %s", ErrUnsupported, g.path)
	}
	return nil
}

func (g *Group) addLink(name string, addr uint64) error {
	g.header.PutLink(message.NewHardLink(name, addr), g.file.reader.Config())
	return g.commit()
}

// CreateGroup creates a new subgroup with the given name.
func (g *Group) CreateGroup(name string) (*Group, error) {
	if err := g.checkLinkable(name); err != nil {
		return nil, err
	}
	p := joinPath(g.path, name)
	if g.Has(name) {
		return nil, fmt.Errorf("%w: %s", ErrExists, p)
	}

	f := g.file
	h := object.NewGroup(f.reader.Config())
	addr, err := f.writeHeader(h)
	if err != nil {
		return nil, fmt.Errorf("creating group %s: %w", p, err)
	}
	if err := g.addLink(name, addr); err != nil {
		return nil, fmt.Errorf("linking group %s: %w", p, err)
	}
	child := &Group{node: node{file: f, path: p, addr: addr, header: h, parent: g}}
	f.objects[p] = child
	f.log.Debug("created group", zap.String("path", p))
	return child, nil
}

// CreateDataset creates a dataset holding data, which is a numeric or
// string scalar or slice. Slices are stored as 1-D unless WithShape gives
// the dimensions of the row-major data.
func (g *Group) CreateDataset(name string, data any, opts ...DatasetOption) (*Dataset, error) {
	if err := g.checkLinkable(name); err != nil {
		return nil, err
	}
	p := joinPath(g.path, name)
	if g.Has(name) {
		return nil, fmt.Errorf("%w: %s", ErrExists, p)
	}

	options := &datasetOptions{}
	for _, opt := range opts {
		opt(options)
	}
	v, err := dtype.Encode(data)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w: %w", p, ErrUnsupported, err)
	}
	if options.shape != nil {
		n := 1
		for _, d := range options.shape {
			n *= int(d)
		}
		if n != v.Len() {
			return nil, fmt.Errorf("dataset %s: shape %v holds %d elements, data has %d", p, options.shape, n, v.Len())
		}
		v.Dims = options.shape
	}

	f := g.file
	cfg := f.reader.Config()
	shape := layout.Shape{Dims: v.Dims, ElemSize: uint64(v.Type.Size)}
	stored, err := layout.Write(f.store, f.allocator, cfg, v.Data, shape, options.storage)
	if err != nil {
		return nil, fmt.Errorf("writing dataset %s: %w", p, err)
	}

	space := message.NewScalarDataspace()
	if v.Dims != nil {
		space = message.NewSimpleDataspace(v.Dims...)
	}
	h := object.New()
	h.Add(space, cfg)
	h.Add(v.Type, cfg)
	h.Add(&message.FillValue{Chunked: stored.Layout.Class == message.LayoutChunked}, cfg)
	if stored.Pipeline != nil {
		h.Add(stored.Pipeline, cfg)
	}
	h.Add(stored.Layout, cfg)
	for _, def := range options.attributes {
		a, err := newAttribute(def.name, def.value)
		if err != nil {
			return nil, err
		}
		h.SetAttribute(a, cfg)
	}

	addr, err := f.writeHeader(h)
	if err != nil {
		return nil, fmt.Errorf("writing dataset %s: %w", p, err)
	}
	if err := g.addLink(name, addr); err != nil {
		return nil, fmt.Errorf("linking dataset %s: %w", p, err)
	}
	ds := &Dataset{node: node{file: f, path: p, addr: addr, header: h, parent: g}}
	f.objects[p] = ds
	f.log.Debug("created dataset",
		zap.String("path", p),
		zap.Int("rank", len(v.Dims)),
		zap.Stringer("dtype", v.Type),
		zap.Stringer("layout", stored.Layout.Class))
	return ds, nil
}

// Unlink removes the named member. The storage of a dataset and the header
// of a group or dataset written by this package are returned to the free
// space; members of a removed group are not.
func (g *Group) Unlink(name string) error {
	if err := g.checkLinkable(name); err != nil {
		return err
	}
	p := joinPath(g.path, name)
	l, err := g.find(name)
	if err != nil {
		return err
	}

	f := g.file
	var free []alloc.Block
	if l.hard() {
		free, err = g.blocksOf(l.addr)
		if err != nil {
			return fmt.Errorf("unlinking %s: %w", p, err)
		}
	}
	g.header.RemoveLink(name)
	if err := g.commit(); err != nil {
		return fmt.Errorf("unlinking %s: %w", p, err)
	}
	for _, b := range free {
		f.allocator.Free(b.Addr, b.Size)
	}
	f.forget(p)
	f.log.Debug("unlinked", zap.String("path", p), zap.Int("blocks", len(free)))
	return nil
}

// blocksOf returns the file space held by the object at addr.
func (g *Group) blocksOf(addr uint64) ([]alloc.Block, error) {
	r := g.file.reader
	h, err := object.Read(r, addr)
	if err != nil {
		return nil, err
	}
	var blocks []alloc.Block
	if h.IsDataset() {
		space, dt := h.Dataspace(), h.Datatype()
		if dt != nil {
			shape := layout.Shape{Dims: space.Dims, ElemSize: uint64(dt.Size)}
			if blocks, err = layout.Blocks(r, h.Layout(), shape); err != nil {
				return nil, err
			}
		}
	}
	if h.Version == 2 && h.Capacity > 0 {
		blocks = append(blocks, alloc.Block{Addr: addr, Size: uint64(object.EncodedLen(h.Capacity))})
	}
	return blocks, nil
}
