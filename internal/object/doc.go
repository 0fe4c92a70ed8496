// Package object reads HDF5 object headers.
//
// Every group, dataset and committed datatype has an object header holding
// its metadata as a list of messages. Version 1 headers start with the
// version byte and pad messages to 8 bytes. Version 2 headers start with
// "OHDR", use compact message headers and end every block with a lookup3
// checksum. Both may chain continuation blocks.
//
// Read collects the raw messages of every block. Message bodies are only
// decoded when asked for:
//
//	h, err := object.Read(r, addr)
//	space, err := h.Dataspace()
//	links, err := h.Links()
//
// Shared messages are followed to the committed object that stores them.
package object
