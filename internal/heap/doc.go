// Package heap reads the two heap structures that hold variable-sized
// metadata: local heaps, which store link names of symbol-table groups,
// and global heap collections, which store variable-length string values.
package heap
