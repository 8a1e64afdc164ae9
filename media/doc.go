// Package media turns remote chat attachments into named byte payloads.
//
// The remote side is abstracted as a Provider that enumerates conversations,
// enumerates messages of one conversation, and streams one attachment as a
// sequence of chunks. Two providers live here:
//   - TelegramProvider, backed by an authorized gotd/td client (see RunTelegram)
//   - MemoryProvider, an in-process fake used by tests and the demo tree
//
// Resolver downloads one item and concatenates its chunks in arrival order.
// Filenames follow "msg-<message id><extension>", where the extension comes
// from the media kind: photos are ".jpg", contacts ".vcf", documents and
// stickers use their MIME subtype (".bin" when it is missing or malformed),
// and everything else has no extension.
package media
