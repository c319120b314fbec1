// Package hdf5 reads and writes HDF5 files in pure Go.
//
// Files are written with a version 2 superblock, version 2 object headers
// and compact link storage. Reading also covers the older structures that
// h5py and PyTables produce: version 0 superblocks, version 1 object
// headers and symbol-table groups.
package hdf5

import (
	"errors"

	"github.com/robert-malhotra/phicore/internal/superblock"
)

// Common errors
var (
	ErrNotHDF5     = superblock.ErrNotHDF5
	ErrNotFound    = errors.New("object not found")
	ErrNotDataset  = errors.New("object is not a dataset")
	ErrNotGroup    = errors.New("object is not a group")
	ErrUnsupported = errors.New("unsupported feature")
	ErrInvalidPath = errors.New("invalid path")
	ErrClosed      = errors.New("file is closed")
	ErrReadOnly    = errors.New("file is read-only")
	ErrExists      = errors.New("object already exists")
	ErrLinkDepth   = errors.New("maximum link depth exceeded")
)

// MaxLinkDepth is the maximum number of soft links followed while resolving
// one path.
const MaxLinkDepth = 100
