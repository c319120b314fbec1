// Package object reads and writes HDF5 object headers.
//
// Every group and dataset has an object header holding its messages. Two
// on-disk versions exist:
//
//   - Version 1, used by files with a version 0 or 1 superblock: 8-byte
//     aligned messages with no checksum.
//   - Version 2 ("OHDR"), used by newer files: compact message prefixes and a
//     lookup3 checksum per chunk.
//
// [Read] handles both, following continuation blocks. Headers are only ever
// written as version 2 with a single chunk; [Header.Encode] pads the chunk
// to a fixed capacity so later edits can be written back in place.
package object
