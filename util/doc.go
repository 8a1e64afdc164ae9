// Package util provides identifier allocation and shared helpers for the tgfs filesystem.
//
// Identifier allocation:
//   - RootID is reserved for the filesystem root
//   - Directory identifiers are bound to conversation names
//   - File identifiers are bound to (directory, remote message id) pairs
//
// Both kinds share one identifier space backed by an explicit key table. The
// initial candidate for a key is a 64-bit xxhash of the key; collisions probe
// forward to the next free identifier, so distinct keys never share an inode
// and an identifier is never reassigned to another key while the process runs.
//
// The package also holds the sentinel errors shared by the cache and the FUSE
// adapter, and name sanitising for remote conversation titles.
package util
