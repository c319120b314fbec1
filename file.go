package phicore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/robert-malhotra/phicore/hdf5"
)

// Revision is the format revision written to rev_fileformat.
const Revision = 3

// DateLayout is the time layout of the root date attribute and of the
// {date} token in file names.
const DateLayout = "2006-01-02-150405"

const (
	dataGroup  = "/data"
	scaleGroup = "/scales"
	diagGroup  = "/diag"

	attrRevision   = "rev_fileformat"
	attrDate       = "date"
	attrOperator   = "operator"
	attrComments   = "comments"
	attrDataSource = "data_source"
	attrName       = "name"
	attrScales     = "scales"
	attrUnit       = "unit"
	attrScaleUnits = "scale_units"
)

var structureGroups = []string{dataGroup, scaleGroup, diagGroup}

// Data sources allowed in data_source.
const (
	SourceSimulation = "simulation"
	SourceExperiment = "experiment"
)

func validDataSource(s string) bool {
	return s == SourceSimulation || s == SourceExperiment
}

// Mode selects how Open treats the file.
type Mode uint8

const (
	// ModeRead opens an existing file read-only.
	ModeRead Mode = iota
	// ModeReadWrite opens an existing file for reading and writing.
	ModeReadWrite
	// ModeCreate creates a new file.
	ModeCreate
)

func (m Mode) String() string {
	switch m {
	case ModeRead:
		return "r"
	case ModeReadWrite:
		return "r+"
	case ModeCreate:
		return "w"
	}
	return fmt.Sprintf("Mode(%d)", uint8(m))
}

// ParseMode accepts the h5py mode strings r, r+, a, a+, w and w+.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "r":
		return ModeRead, nil
	case "r+", "a", "a+":
		return ModeReadWrite, nil
	case "w", "w+":
		return ModeCreate, nil
	}
	return 0, fmt.Errorf("phicore: unknown mode %q", s)
}

// Option configures Open.
type Option func(*options)

type options struct {
	force bool
	clock func() time.Time
	log   *zap.Logger
}

// WithForce lets ModeCreate replace an existing file.
func WithForce() Option {
	return func(o *options) { o.force = true }
}

// WithClock sets the time source for the {date} token and the date
// attribute.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.clock = now }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.log = l }
}

// File is an open phicore container.
type File struct {
	h5    *hdf5.File
	path  string
	mode  Mode
	clock func() time.Time
	log   *zap.Logger
}

// Open opens or creates the container at path. A {date} token in path is
// replaced by the current time in DateLayout.
func Open(path string, mode Mode, opts ...Option) (*File, error) {
	o := options{clock: time.Now, log: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	path = strings.ReplaceAll(path, "{date}", o.clock().Format(DateLayout))
	h5opts := []hdf5.FileOption{hdf5.WithLogger(o.log.Named("hdf5"))}

	f := &File{path: path, mode: mode, clock: o.clock, log: o.log}
	var err error
	switch mode {
	case ModeRead:
		f.h5, err = hdf5.Open(path, h5opts...)
	case ModeReadWrite:
		f.h5, err = hdf5.OpenReadWrite(path, h5opts...)
	case ModeCreate:
		if _, statErr := os.Stat(path); statErr == nil && !o.force {
			return nil, fmt.Errorf("phicore: %s: %w", path, fs.ErrExist)
		}
		f.h5, err = hdf5.Create(path, h5opts...)
		if err == nil {
			if err = f.initialize(); err != nil {
				f.h5.Close()
			}
		}
	default:
		return nil, fmt.Errorf("phicore: unknown mode %d", mode)
	}
	if err != nil {
		return nil, fmt.Errorf("phicore: opening %s: %w", path, err)
	}
	f.log.Debug("opened container", zap.String("path", path), zap.Stringer("mode", mode))
	return f, nil
}

// initialize lays out a new container.
func (f *File) initialize() error {
	if err := f.ensureStructure(); err != nil {
		return err
	}
	return f.ensureRootAttrs()
}

func (f *File) ensureStructure() error {
	root := f.h5.Root()
	for _, g := range structureGroups {
		name := g[1:]
		if root.Has(name) {
			continue
		}
		if _, err := root.CreateGroup(name); err != nil {
			return fmt.Errorf("phicore: creating %s: %w", g, err)
		}
	}
	return nil
}

// ensureRootAttrs sets rev_fileformat and date unless they already exist.
func (f *File) ensureRootAttrs() error {
	root := f.h5.Root()
	if !root.HasAttr(attrRevision) {
		if err := root.SetAttr(attrRevision, int64(Revision)); err != nil {
			return err
		}
	}
	if !root.HasAttr(attrDate) {
		if err := root.SetAttr(attrDate, f.clock().Format(DateLayout)); err != nil {
			return err
		}
	}
	return nil
}

// Close flushes and closes the container.
func (f *File) Close() error {
	return f.h5.Close()
}

// Path returns the file path, with any {date} token expanded.
func (f *File) Path() string {
	return f.path
}

// Mode returns the mode the file was opened with.
func (f *File) Mode() Mode {
	return f.mode
}

// HDF5 returns the underlying HDF5 file.
func (f *File) HDF5() *hdf5.File {
	return f.h5
}

func (f *File) checkWritable() error {
	if f.mode == ModeRead {
		return fmt.Errorf("phicore: %s: %w", f.path, ErrReadOnly)
	}
	return nil
}

// object opens the group or dataset at path, mapping hdf5 errors to Kinds.
func (f *File) object(path string) (hdf5.Object, error) {
	obj, err := f.h5.Object(path)
	if err != nil {
		return nil, nodeError(path, err)
	}
	return obj, nil
}

func (f *File) group(path string) (*hdf5.Group, error) {
	g, err := f.h5.OpenGroup(path)
	if err != nil {
		return nil, nodeError(path, err)
	}
	return g, nil
}

// variablePath resolves a bare variable name under /data.
func variablePath(p string) string {
	if strings.HasPrefix(p, "/") {
		return hdf5.CleanPath(p)
	}
	return dataGroup + "/" + p
}

func scaleName(variable string, a Axis) string {
	return scaleGroup + "/" + variable + "_" + a.String()
}

func checkVarName(name string) error {
	if name == "" || name == "." || name == ".." || strings.Contains(name, "/") {
		return errorf(SchemaViolation, dataGroup+"/"+name, "invalid variable name %q", name)
	}
	return nil
}

func isNotFound(err error) bool {
	return errors.Is(err, hdf5.ErrNotFound)
}
