// Package tgfs implements a read-only FUSE filesystem over Telegram chat media.
//
// The tree has two levels: the root holds one directory per conversation and
// each conversation directory holds one regular file per media message, named
// "msg-<message id><extension>".
//
// The package is split into:
//   - Store: holds the Generation currently being served and swaps it atomically
//   - Refresher: rebuilds a complete Generation from a media.Provider on a fixed cadence
//   - Adapter: answers lookup, getattr, readdir, read and xattr queries from one snapshot
//   - FS, Dir, File: the bazil.org/fuse node types that forward to the Adapter
//
// A rebuild never mutates the generation readers hold. Every filesystem call
// takes one snapshot and answers entirely from it, so a listing never mixes two
// generations. Nodes only keep their identifier and re-resolve it on each call;
// an identifier that vanished in the latest generation reports ENOENT.
package tgfs
