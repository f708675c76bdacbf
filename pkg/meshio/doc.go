// Package meshio reads and writes flat meshes.
//
// The native .kmsh container is
//
//	"KMSH" | version u8 | compression u8 | uncompressed u32 | stored u32 | payload
//
// with little-endian sizes. A stored size of zero means the payload follows
// uncompressed. The payload is a JSON document; node sets inside it are
// portable roaring bitmaps.
package meshio
