package phicore

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/robert-malhotra/phicore/hdf5"
)

// WriteOption configures Write and WriteDiag.
type WriteOption func(*writeOptions)

type writeOptions struct {
	codec      string
	level      int
	shuffle    bool
	fletcher32 bool
	chunks     []int
	overwrite  bool
}

// WithCompression compresses the data with codec ("deflate" or "lz4") at
// the given level.
func WithCompression(codec string, level int) WriteOption {
	return func(o *writeOptions) {
		o.codec = codec
		o.level = level
	}
}

// WithShuffle applies the byte shuffle filter before compression.
func WithShuffle() WriteOption {
	return func(o *writeOptions) { o.shuffle = true }
}

// WithFletcher32 stores a checksum with each chunk.
func WithFletcher32() WriteOption {
	return func(o *writeOptions) { o.fletcher32 = true }
}

// WithChunks sets the chunk shape. Filters without an explicit chunk shape
// store the whole array as one chunk.
func WithChunks(shape ...int) WriteOption {
	return func(o *writeOptions) { o.chunks = shape }
}

// WithOverwrite replaces an existing variable of the same name.
func WithOverwrite() WriteOption {
	return func(o *writeOptions) { o.overwrite = true }
}

func (o *writeOptions) dataset(a *Array, attrs ...hdf5.DatasetOption) []hdf5.DatasetOption {
	opts := []hdf5.DatasetOption{hdf5.WithShape(dims64(a.Shape())...)}
	if o.codec != "" {
		opts = append(opts, hdf5.WithCompression(o.codec, o.level))
	}
	if o.shuffle {
		opts = append(opts, hdf5.WithShuffle())
	}
	if o.fletcher32 {
		opts = append(opts, hdf5.WithFletcher32())
	}
	if len(o.chunks) > 0 {
		opts = append(opts, hdf5.WithChunks(dims64(o.chunks)...))
	} else if o.filtered() {
		opts = append(opts, hdf5.WithChunks(dims64(a.Shape())...))
	}
	return append(opts, attrs...)
}

func (o *writeOptions) filtered() bool {
	return o.codec != "" || o.shuffle || o.fletcher32
}

func dims64(dims []int) []uint64 {
	out := make([]uint64, len(dims))
	for i, d := range dims {
		out[i] = uint64(d)
	}
	return out
}

// Write stores v as /data/<name> with one scale per axis under /scales.
// The structural groups and root attributes are created when missing.
func (f *File) Write(v *View, opts ...WriteOption) error {
	if err := f.checkWritable(); err != nil {
		return err
	}
	o := &writeOptions{}
	for _, opt := range opts {
		opt(o)
	}
	if err := v.check(); err != nil {
		return err
	}
	path := dataGroup + "/" + v.Name

	if err := f.ensureStructure(); err != nil {
		return err
	}
	data, err := f.group(dataGroup)
	if err != nil {
		return err
	}
	scales, err := f.group(scaleGroup)
	if err != nil {
		return err
	}

	if err := f.makeRoom(data, scales, v, o.overwrite); err != nil {
		return err
	}

	axes := make([]string, len(v.Dims))
	for i, a := range v.Dims {
		axes[i] = a.String()
	}
	attrs := []hdf5.DatasetOption{
		hdf5.WithAttribute(attrName, v.Name),
		hdf5.WithAttribute(attrScales, axes),
	}
	for _, k := range sortedKeys(v.Attrs) {
		switch k {
		case attrName, attrScales, attrScaleUnits:
			continue
		}
		attrs = append(attrs, hdf5.WithAttribute(k, v.Attrs[k]))
	}
	if _, err := data.CreateDataset(v.Name, v.Data.Data(), o.dataset(v.Data, attrs...)...); err != nil {
		return fmt.Errorf("phicore: writing %s: %w", path, err)
	}

	for _, a := range v.Dims {
		name := v.Name + "_" + a.String()
		c := v.Coords[a]
		_, err := scales.CreateDataset(name, c.Data(),
			hdf5.WithShape(uint64(c.Len())),
			hdf5.WithAttribute(attrUnit, v.Unit(a)))
		if err != nil {
			return fmt.Errorf("phicore: writing %s: %w", scaleName(v.Name, a), err)
		}
	}

	if err := f.ensureRootAttrs(); err != nil {
		return fmt.Errorf("phicore: writing root attributes: %w", err)
	}
	f.log.Info("wrote variable",
		zap.String("path", path),
		zap.Int("rank", len(v.Dims)),
		zap.Stringer("dtype", v.Data.DType()),
		zap.Bool("overwrite", o.overwrite))
	return nil
}

// makeRoom clears the way for v. Without overwrite any existing node of the
// variable or one of its scales is a collision; with overwrite the old
// variable and every scale it or v names are removed.
func (f *File) makeRoom(data, scales *hdf5.Group, v *View, overwrite bool) error {
	names := make(map[string]bool)
	for _, a := range v.Dims {
		names[v.Name+"_"+a.String()] = true
	}
	if data.Has(v.Name) {
		if !overwrite {
			return errorf(NameCollision, dataGroup+"/"+v.Name, "variable exists")
		}
		if old, err := data.OpenDataset(v.Name); err == nil {
			if a := old.Attr(attrScales); a != nil && a.IsString() {
				axes, _ := a.Strings()
				for _, ax := range axes {
					names[v.Name+"_"+ax] = true
				}
			}
		}
		if err := data.Unlink(v.Name); err != nil {
			return fmt.Errorf("phicore: removing %s/%s: %w", dataGroup, v.Name, err)
		}
	}
	for _, name := range sortedKeys(names) {
		if !scales.Has(name) {
			continue
		}
		if !overwrite {
			return errorf(NameCollision, scaleGroup+"/"+name, "scale exists")
		}
		if err := scales.Unlink(name); err != nil {
			return fmt.Errorf("phicore: removing %s/%s: %w", scaleGroup, name, err)
		}
	}
	return nil
}

// WriteDiag stores an auxiliary array as /diag/<name>. Any shape and
// element type of Array is accepted.
func (f *File) WriteDiag(name string, a *Array, opts ...WriteOption) error {
	if err := f.checkWritable(); err != nil {
		return err
	}
	o := &writeOptions{}
	for _, opt := range opts {
		opt(o)
	}
	path := diagGroup + "/" + name
	if err := checkVarName(name); err != nil {
		return err
	}
	if a == nil || a.DType() == InvalidDType {
		return errorf(UnsupportedDType, path, "array has no numeric data")
	}
	if err := f.ensureStructure(); err != nil {
		return err
	}
	diag, err := f.group(diagGroup)
	if err != nil {
		return err
	}
	if diag.Has(name) {
		if !o.overwrite {
			return errorf(NameCollision, path, "node exists")
		}
		if err := diag.Unlink(name); err != nil {
			return fmt.Errorf("phicore: removing %s: %w", path, err)
		}
	}
	if _, err := diag.CreateDataset(name, a.Data(), o.dataset(a)...); err != nil {
		return fmt.Errorf("phicore: writing %s: %w", path, err)
	}
	f.log.Debug("wrote diagnostic", zap.String("path", path), zap.Int("rank", a.Rank()))
	return nil
}

// CreateGroup creates a group at path. Its parent must exist.
func (f *File) CreateGroup(path string) error {
	if err := f.checkWritable(); err != nil {
		return err
	}
	parts := hdf5.SplitPath(path)
	if len(parts) == 0 {
		return errorf(NameCollision, "/", "root group exists")
	}
	parentPath := hdf5.CleanPath(strings.Join(parts[:len(parts)-1], "/"))
	parent, err := f.group(parentPath)
	if err != nil {
		return err
	}
	name := parts[len(parts)-1]
	full := hdf5.CleanPath(path)
	if parent.Has(name) {
		return errorf(NameCollision, full, "node exists")
	}
	if _, err := parent.CreateGroup(name); err != nil {
		return fmt.Errorf("phicore: creating %s: %w", full, err)
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
