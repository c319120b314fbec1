// Package message decodes and encodes HDF5 object header messages.
//
// An object header is a list of typed messages. The ones this package
// understands are:
//
//   - Dataspace (0x0001): rank and dimensions. See [Dataspace].
//   - Link Info (0x0002) and Group Info (0x000A): markers of a new-style group.
//   - Datatype (0x0003): element type. See [Datatype].
//   - Fill Value (0x0005): written for datasets, never interpreted.
//   - Link (0x0006): a named hard or soft link. See [Link].
//   - Data Layout (0x0008): where the raw data lives. See [DataLayout].
//   - Filter Pipeline (0x000B): chunk filters. See [FilterPipeline].
//   - Attribute (0x000C): a named small value. See [Attribute].
//   - Continuation (0x0010): pointer to more header space.
//   - Symbol Table (0x0011): an old-style group's B-tree and local heap.
//
// Anything else is preserved as [Raw] so a header can be rewritten without
// losing messages this package does not model.
//
// Decoding goes through [Parse]; messages that can be written implement
// [Writable] and are turned into bytes with [Encode].
package message
