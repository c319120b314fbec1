// Package layout moves dataset elements between memory and the storage
// layouts of the file format.
//
// Reading supports compact, contiguous and chunked storage. Chunks may be
// indexed by a version 1 B-tree, a single chunk address, an implicit
// array or a fixed array. Selections are read chunk by chunk, so a slice of
// a large chunked dataset only touches the chunks it intersects.
//
// Writing produces contiguous storage for unfiltered data and chunked
// storage otherwise. A dataset that fits in one chunk uses the single chunk
// index; anything larger gets a fixed array sized so it is never paged.
package layout
