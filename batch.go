package phicore

import (
	"fmt"

	"go.uber.org/zap"
)

// Batches splits [0, n) into consecutive ranges of size elements. A batch
// is only cut while at least minSize elements remain after it; the rest
// forms the final batch. A size below 1 yields one batch.
func Batches(n, size, minSize int) []Range {
	if n <= 0 {
		return nil
	}
	if size < 1 {
		return []Range{{0, n}}
	}
	var out []Range
	start := 0
	for i := 0; i < n/size; i++ {
		end := start + size
		if end+minSize > n {
			continue
		}
		out = append(out, Range{start, end})
		start = end
	}
	if start < n {
		out = append(out, Range{start, n})
	}
	return out
}

// ChunkRows returns how many rows of rowBytes each fit in workingMemoryMiB,
// capped at maxRows when it is positive and never less than one.
func ChunkRows(rowBytes int, workingMemoryMiB float64, maxRows int) int {
	if rowBytes < 1 {
		rowBytes = 1
	}
	rows := int(workingMemoryMiB * (1 << 20) / float64(rowBytes))
	if maxRows > 0 && rows > maxRows {
		rows = maxRows
	}
	if rows < 1 {
		rows = 1
	}
	return rows
}

// ReadBatches reads the variable at path in batches along its first axis,
// each sized to fit workingMemoryMiB, and calls fn with the range and the
// partial view of every batch.
func (f *File) ReadBatches(path string, workingMemoryMiB float64, fn func(Range, *View) error) error {
	p := variablePath(path)
	ds, err := f.h5.OpenDataset(p)
	if err != nil {
		return nodeError(p, err)
	}
	shape := ds.Shape()
	if len(shape) == 0 {
		return errorf(SchemaViolation, p, "scalar variable")
	}
	rowBytes := ds.DtypeSize()
	for _, d := range shape[1:] {
		rowBytes *= int(d)
	}
	rows := ChunkRows(rowBytes, workingMemoryMiB, 0)
	if float64(rowBytes) > workingMemoryMiB*(1<<20) {
		f.log.Warn("row exceeds working memory",
			zap.String("path", p),
			zap.Int("row_bytes", rowBytes),
			zap.Float64("working_memory_mib", workingMemoryMiB))
	}
	for _, r := range Batches(int(shape[0]), rows, 0) {
		v, err := f.Read(p, WithIndex(r))
		if err != nil {
			return err
		}
		if err := fn(r, v); err != nil {
			return fmt.Errorf("phicore: batch [%d:%d) of %s: %w", r.Start, r.Stop, p, err)
		}
	}
	return nil
}
