// Package main provides the tgfs command-line interface.
//
// tgfs mounts the media of a Telegram account as a read-only FUSE filesystem:
// one directory per conversation, one file per photo, document, sticker or
// contact. The tree lives entirely in memory and is rebuilt periodically.
//
// Usage:
//
//	tgfs MOUNTPOINT        mount and serve until SIGINT or SIGTERM
//	tgfs ls                build the tree once and print it
//	tgfs version           print build information
package main
