package hdf5

import (
	"go.uber.org/zap"

	"github.com/robert-malhotra/phicore/internal/layout"
)

// FileOption configures how a file is opened or created.
type FileOption func(*fileOptions)

type fileOptions struct {
	offsetSize int
	lengthSize int
	logger     *zap.Logger
}

func defaultFileOptions() *fileOptions {
	return &fileOptions{
		offsetSize: 8,
		lengthSize: 8,
		logger:     zap.NewNop(),
	}
}

// WithOffsetSize sets the size in bytes of file addresses (2, 4, or 8) in
// a new file.
func WithOffsetSize(size int) FileOption {
	return func(o *fileOptions) {
		if size == 2 || size == 4 || size == 8 {
			o.offsetSize = size
		}
	}
}

// WithLengthSize sets the size in bytes of lengths (2, 4, or 8) in a new
// file.
func WithLengthSize(size int) FileOption {
	return func(o *fileOptions) {
		if size == 2 || size == 4 || size == 8 {
			o.lengthSize = size
		}
	}
}

// WithLogger sets the logger for structural changes. The default discards
// everything.
func WithLogger(l *zap.Logger) FileOption {
	return func(o *fileOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// DatasetOption configures dataset creation.
type DatasetOption func(*datasetOptions)

type attrDef struct {
	name  string
	value any
}

type datasetOptions struct {
	shape      []uint64
	storage    layout.Options
	attributes []attrDef
}

// WithShape gives the dimensions of flat data. Without it a slice is
// stored as 1-D and any other value as a scalar.
func WithShape(dims ...uint64) DatasetOption {
	return func(o *datasetOptions) {
		o.shape = dims
	}
}

// WithChunks sets the chunk dimensions. Filters imply chunking; without
// this option the chunk shape is chosen from the data size.
func WithChunks(dims ...uint64) DatasetOption {
	return func(o *datasetOptions) {
		o.storage.Chunks = dims
	}
}

// WithCompression selects a codec ("deflate" or "lz4") and level.
// A zero level picks the codec default.
func WithCompression(codec string, level int) DatasetOption {
	return func(o *datasetOptions) {
		o.storage.Filters.Codec = codec
		o.storage.Filters.Level = level
	}
}

// WithShuffle enables the shuffle filter (improves compression).
func WithShuffle() DatasetOption {
	return func(o *datasetOptions) {
		o.storage.Filters.Shuffle = true
	}
}

// WithFletcher32 enables Fletcher32 checksums on each chunk.
func WithFletcher32() DatasetOption {
	return func(o *datasetOptions) {
		o.storage.Filters.Fletcher32 = true
	}
}

// WithAttribute adds an attribute to the dataset.
// The value can be a scalar or slice of: int, int8-64, uint, uint8-64, float32, float64, string.
func WithAttribute(name string, value any) DatasetOption {
	return func(o *datasetOptions) {
		o.attributes = append(o.attributes, attrDef{name: name, value: value})
	}
}
