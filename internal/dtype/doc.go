// Package dtype converts between raw HDF5 element bytes and Go values.
//
// Only the classes a labeled array needs are handled: fixed-point and IEEE
// floating-point numbers of 1, 2, 4 or 8 bytes in either byte order, and
// fixed- or variable-length strings. Decoding produces a slice of the
// matching Go type ([]int16, []float32, []string, ...). Encoding goes the
// other way and always writes little-endian numbers and null-terminated
// fixed-length strings.
//
// Variable-length strings live in the global heap; callers pass a [Heap]
// (usually a *heap.Cache) to resolve them.
package dtype
