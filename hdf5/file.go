package hdf5

import (
	"fmt"
	"os"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/robert-malhotra/phicore/internal/alloc"
	"github.com/robert-malhotra/phicore/internal/binary"
	"github.com/robert-malhotra/phicore/internal/heap"
	"github.com/robert-malhotra/phicore/internal/object"
	"github.com/robert-malhotra/phicore/internal/superblock"
)

// File represents an open HDF5 file.
type File struct {
	path       string
	file       *os.File
	store      *storage
	reader     *binary.Reader
	superblock *superblock.Superblock
	root       *Group
	heaps      *heap.Cache
	log        *zap.Logger
	closed     bool

	// objects caches opened groups and datasets by path so every handle to
	// an object sees the same header after a rewrite.
	objects map[string]any

	writable  bool
	allocator *alloc.Allocator
}

// storage shifts file addresses by the base address, which is non-zero
// when the file starts with a user block.
type storage struct {
	f    *os.File
	base int64
}

func (s *storage) ReadAt(p []byte, off int64) (int, error) {
	return s.f.ReadAt(p, off+s.base)
}

func (s *storage) WriteAt(p []byte, off int64) (int, error) {
	return s.f.WriteAt(p, off+s.base)
}

// Open opens an HDF5 file for reading.
func Open(path string, opts ...FileOption) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	hf, err := load(path, f, opts)
	if err != nil {
		f.Close()
		return nil, err
	}
	hf.log.Debug("opened file", zap.String("path", path), zap.Uint8("superblock", hf.superblock.Version))
	return hf, nil
}

// OpenReadWrite opens an existing HDF5 file for reading and writing.
// Only files with a version 2 or 3 superblock can be modified.
func OpenReadWrite(path string, opts ...FileOption) (*File, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	hf, err := load(path, f, opts)
	if err != nil {
		f.Close()
		return nil, err
	}
	if hf.superblock.Version < 2 {
		f.Close()
		return nil, fmt.Errorf("%w: modifying files with a version %d superblock", ErrUnsupported, hf.superblock.Version)
	}
	hf.writable = true
	hf.allocator = alloc.New(hf.superblock.EOFAddress)
	hf.log.Debug("opened file for writing", zap.String("path", path), zap.Uint64("eof", hf.superblock.EOFAddress))
	return hf, nil
}

func load(path string, f *os.File, opts []FileOption) (*File, error) {
	options := defaultFileOptions()
	for _, opt := range opts {
		opt(options)
	}

	sb, err := superblock.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading superblock: %w", err)
	}
	store := &storage{f: f, base: int64(sb.BaseAddress)}
	reader := binary.NewReader(store, sb.Config())

	hf := &File{
		path:       path,
		file:       f,
		store:      store,
		reader:     reader,
		superblock: sb,
		heaps:      heap.NewCache(reader),
		log:        options.logger,
		objects:    make(map[string]any),
	}
	header, err := object.Read(reader, sb.RootAddress)
	if err != nil {
		return nil, fmt.Errorf("opening root group: %w", err)
	}
	hf.root = &Group{node: node{file: hf, path: "/", addr: sb.RootAddress, header: header}}
	hf.objects["/"] = hf.root
	return hf, nil
}

// Create creates a new HDF5 file, truncating any existing file at path.
func Create(path string, opts ...FileOption) (*File, error) {
	options := defaultFileOptions()
	for _, opt := range opts {
		opt(options)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("creating file: %w", err)
	}

	sb := superblock.New()
	sb.OffsetSize = uint8(options.offsetSize)
	sb.LengthSize = uint8(options.lengthSize)
	undef := binary.Undefined(options.offsetSize)
	sb.ExtensionAddress, sb.RootBTreeAddress, sb.RootHeapAddress = undef, undef, undef

	store := &storage{f: f}
	reader := binary.NewReader(store, sb.Config())
	hf := &File{
		path:       path,
		file:       f,
		store:      store,
		reader:     reader,
		superblock: sb,
		heaps:      heap.NewCache(reader),
		log:        options.logger,
		objects:    make(map[string]any),
		writable:   true,
		allocator:  alloc.New(uint64(sb.Size())),
	}

	header := object.NewGroup(sb.Config())
	addr, err := hf.writeHeader(header)
	if err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("writing root group: %w", err)
	}
	sb.RootAddress = addr
	hf.root = &Group{node: node{file: hf, path: "/", addr: addr, header: header}}
	hf.objects["/"] = hf.root

	if err := hf.Flush(); err != nil {
		f.Close()
		os.Remove(path)
		return nil, err
	}
	hf.log.Debug("created file", zap.String("path", path))
	return hf, nil
}

// Close flushes a writable file, trims unused space from its end and
// releases the handle. Calling Close again is a no-op.
func (f *File) Close() error {
	if f.closed {
		return nil
	}
	var err error
	if f.writable {
		err = multierr.Append(err, f.Flush())
		size := f.store.base + int64(f.allocator.EOF())
		err = multierr.Append(err, f.file.Truncate(size))
	}
	f.closed = true
	f.objects = nil
	return multierr.Append(err, f.file.Close())
}

// Flush writes the superblock and syncs the file. It does nothing on a
// read-only file.
func (f *File) Flush() error {
	if f.closed {
		return ErrClosed
	}
	if !f.writable {
		return nil
	}
	f.superblock.EOFAddress = f.allocator.EOF()
	if _, err := f.file.WriteAt(f.superblock.Encode(), f.superblock.Offset); err != nil {
		return fmt.Errorf("writing superblock: %w", err)
	}
	return f.file.Sync()
}

// Root returns the root group of the file.
func (f *File) Root() *Group {
	return f.root
}

// Path returns the file path.
func (f *File) Path() string {
	return f.path
}

// Version returns the superblock version.
func (f *File) Version() int {
	return int(f.superblock.Version)
}

// IsWritable reports whether the file was opened for writing.
func (f *File) IsWritable() bool {
	return f.writable
}

// AllocStats returns allocation statistics of a writable file.
func (f *File) AllocStats() alloc.Stats {
	if f.allocator == nil {
		return alloc.Stats{}
	}
	return f.allocator.Stats()
}

// OpenGroup opens a group by absolute path.
func (f *File) OpenGroup(path string) (*Group, error) {
	return f.root.OpenGroup(path)
}

// OpenDataset opens a dataset by absolute path.
func (f *File) OpenDataset(path string) (*Dataset, error) {
	return f.root.OpenDataset(path)
}

// Attr returns the attribute named by an attribute path such as
// "/data/Sxyw@scales".
func (f *File) Attr(attrPath string) (*Attribute, error) {
	objectPath, name, err := ParseAttrPath(attrPath)
	if err != nil {
		return nil, err
	}
	obj, err := f.root.open(objectPath, 0)
	if err != nil {
		return nil, err
	}
	a := nodeOf(obj).Attr(name)
	if a == nil {
		return nil, fmt.Errorf("%w: attribute %s", ErrNotFound, attrPath)
	}
	return a, nil
}

func (f *File) check() error {
	if f.closed {
		return ErrClosed
	}
	return nil
}

func (f *File) checkWritable() error {
	if f.closed {
		return ErrClosed
	}
	if !f.writable {
		return ErrReadOnly
	}
	return nil
}

// writeHeader stores h at a new address with room to grow.
func (f *File) writeHeader(h *object.Header) (uint64, error) {
	buf, err := h.Encode(f.reader.Config(), object.Reserve(h.Size()))
	if err != nil {
		return 0, err
	}
	addr := f.allocator.Alloc(uint64(len(buf)))
	if _, err := f.store.WriteAt(buf, int64(addr)); err != nil {
		return 0, fmt.Errorf("writing object header: %w", err)
	}
	return addr, nil
}

// forget drops cached handles at and below path.
func (f *File) forget(path string) {
	for p := range f.objects {
		if p == path || (len(p) > len(path) && p[:len(path)] == path && p[len(path)] == '/') {
			delete(f.objects, p)
		}
	}
}

// Object is the part of a group or dataset that carries attributes.
type Object interface {
	Name() string
	Path() string
	Attrs() []string
	Attr(name string) *Attribute
	HasAttr(name string) bool
	SetAttr(name string, value any) error
}

// Object opens the group or dataset at path.
func (f *File) Object(path string) (Object, error) {
	obj, err := f.root.open(path, 0)
	if err != nil {
		return nil, err
	}
	return obj.(Object), nil
}
