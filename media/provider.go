package media

import (
	"context"
	"errors"
	"iter"
)

// Sentinel errors for package media.
var (
	ErrTooLarge         = errors.New("media payload exceeds size limit")
	ErrUnsupportedMedia = errors.New("media cannot be downloaded")
	ErrNotAuthorized    = errors.New("telegram session is not authorized")
)

// Kind tags the type of media a message carries.
type Kind int

const (
	KindOther Kind = iota
	KindPhoto
	KindDocument
	KindSticker
	KindContact
)

func (k Kind) String() string {
	switch k {
	case KindPhoto:
		return "photo"
	case KindDocument:
		return "document"
	case KindSticker:
		return "sticker"
	case KindContact:
		return "contact"
	default:
		return "other"
	}
}

// Conversation is a remote chat whose media becomes one directory.
type Conversation struct {
	ID   int64  // remote peer id
	Name string // display name, may be empty

	ref any // provider specific handle used to list messages
}

// MediaItem is one downloadable attachment.
type MediaItem struct {
	MessageID int64
	Kind      Kind
	MimeType  string // hint for documents and stickers

	ref any // provider specific download handle
}

// Message is one remote message. Media is nil when the message carries none.
type Message struct {
	ID    int64
	Media *MediaItem
}

// Provider is the remote side of the filesystem.
//
// Every sequence yields a non-nil error at most once, as its last element.
// Calls may block on network I/O and must honour ctx.
type Provider interface {
	Conversations(ctx context.Context) iter.Seq2[Conversation, error]
	Messages(ctx context.Context, conv Conversation) iter.Seq2[Message, error]
	Download(ctx context.Context, item MediaItem) iter.Seq2[[]byte, error]
}
