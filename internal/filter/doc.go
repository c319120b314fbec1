// Package filter runs the HDF5 chunk filter pipeline in both directions.
//
// Filters are applied in pipeline order when a chunk is written and in
// reverse order when it is read. A chunk's filter mask records stages that
// were skipped: bit i set means filter i was not applied.
//
// Supported filters:
//
//   - deflate (1), zlib streams via klauspost/compress
//   - shuffle (2), byte transposition by element size
//   - fletcher32 (3), a trailing checksum verified on read
//   - lz4 (32004), the framed block format of the HDF5 LZ4 plugin
//
// Other registered filters, blosc among them, are recognized by name so
// error messages can say which filter a dataset needs.
package filter
