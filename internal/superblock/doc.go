// Package superblock locates and decodes the HDF5 superblock.
//
// The superblock is found by probing for the 8-byte signature at offset 0
// and then at successive powers of two from 512, which skips any user
// block. Versions 0 and 1 describe the root group through a symbol table
// entry whose scratch pad may cache the root B-tree and local heap
// addresses. Versions 2 and 3 point straight at the root object header and
// end with a lookup3 checksum, which is verified.
//
// All addresses in the file are relative to BaseAddress.
package superblock
