// Package alloc hands out file space while a file is being written.
//
// Space comes from two places: blocks released with [Allocator.Free], reused
// first-fit, and the end of file, which advances on every allocation that no
// free block can satisfy. Released blocks are never handed back to the
// operating system; the file only grows.
package alloc
