// Package superblock locates, decodes and encodes the HDF5 superblock.
//
// The superblock is found by searching for the format signature at byte 0
// and then at successive powers of two starting at 512. Versions 0 through 3
// are decoded:
//
//   - Versions 0 and 1 describe the root group through a symbol table entry
//     whose scratch pad caches the group's B-tree and local heap addresses.
//   - Versions 2 and 3 reference the root object header directly and carry
//     a lookup3 checksum.
//
// Only version 2 is written. Its fixed size lets [Superblock.Encode] output
// be rewritten in place whenever the end of file or root group address moves.
package superblock
