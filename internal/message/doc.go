// Package message decodes HDF5 object header messages.
//
// Object headers hold a sequence of typed messages describing a group or
// dataset. [Parse] decodes the message types a reader needs:
//
//   - Dataspace (0x0001): dataset or attribute shape. See [Dataspace].
//   - Link info (0x0002): marks new-style groups. See [LinkInfo].
//   - Datatype (0x0003): element type, including nested types. See [Datatype].
//   - Link (0x0006): one hard, soft or external group member. See [Link].
//   - Data layout (0x0008): compact, contiguous or chunked storage. See [DataLayout].
//   - Filter pipeline (0x000B): chunk filters. See [FilterPipeline].
//   - Attribute (0x000C): a named value. See [Attribute].
//   - Continuation (0x0010): more header messages elsewhere. See [Continuation].
//   - Symbol table (0x0011): old-style group index. See [SymbolTable].
//   - Attribute info (0x0015): attribute storage. See [AttributeInfo].
//
// Any other type comes back as [Unknown] with its raw body.
package message
