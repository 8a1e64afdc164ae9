package media

import (
	"context"
	"fmt"
	"iter"
	"strconv"
	"strings"

	"github.com/gotd/td/telegram/message/peer"
	"github.com/gotd/td/telegram/query"
	"github.com/gotd/td/tg"
	"go.uber.org/zap"
)

const (
	// downloadChunkSize must divide 1 MiB and be a multiple of 4 KiB.
	downloadChunkSize = 512 * 1024
	defaultBatchSize  = 100
)

// TelegramProvider serves dialogs, history and media of an authorized Telegram account.
type TelegramProvider struct {
	api   *tg.Client
	log   *zap.Logger
	batch int
}

// NewTelegramProvider wraps an authorized API client.
func NewTelegramProvider(api *tg.Client, log *zap.Logger) *TelegramProvider {
	return &TelegramProvider{
		api:   api,
		log:   log,
		batch: defaultBatchSize,
	}
}

func (p *TelegramProvider) Conversations(ctx context.Context) iter.Seq2[Conversation, error] {
	return func(yield func(Conversation, error) bool) {
		it := query.GetDialogs(p.api).BatchSize(p.batch).Iter()
		for it.Next(ctx) {
			elem := it.Value()
			conv, ok := conversationFromPeer(elem.Peer, elem.Entities)
			if !ok {
				p.log.Debug("skipping dialog", zap.String("peer", fmt.Sprintf("%T", elem.Peer)))
				continue
			}
			if !yield(conv, nil) {
				return
			}
		}
		if err := it.Err(); err != nil {
			yield(Conversation{}, fmt.Errorf("list dialogs: %w", err))
		}
	}
}

func (p *TelegramProvider) Messages(ctx context.Context, conv Conversation) iter.Seq2[Message, error] {
	return func(yield func(Message, error) bool) {
		inputPeer, ok := conv.ref.(tg.InputPeerClass)
		if !ok {
			yield(Message{}, fmt.Errorf("conversation %q has no telegram peer", conv.Name))
			return
		}

		it := query.Messages(p.api).GetHistory(inputPeer).BatchSize(p.batch).Iter()
		for it.Next(ctx) {
			msg, ok := it.Value().Msg.(*tg.Message)
			if !ok {
				continue // service message
			}
			m := Message{ID: int64(msg.ID)}
			if media, ok := msg.GetMedia(); ok {
				if item, ok := mediaItem(m.ID, media); ok {
					m.Media = &item
				}
			}
			if !yield(m, nil) {
				return
			}
		}
		if err := it.Err(); err != nil {
			yield(Message{}, fmt.Errorf("history of %q: %w", conv.Name, err))
		}
	}
}

func (p *TelegramProvider) Download(ctx context.Context, item MediaItem) iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		switch ref := item.ref.(type) {
		case nil:
			return
		case []byte:
			if len(ref) > 0 {
				yield(ref, nil)
			}
		case tg.InputFileLocationClass:
			var offset int64
			for {
				res, err := p.api.UploadGetFile(ctx, &tg.UploadGetFileRequest{
					Location: ref,
					Offset:   offset,
					Limit:    downloadChunkSize,
				})
				if err != nil {
					yield(nil, fmt.Errorf("get file at offset %d: %w", offset, err))
					return
				}
				file, ok := res.(*tg.UploadFile)
				if !ok {
					yield(nil, fmt.Errorf("%T: %w", res, ErrUnsupportedMedia))
					return
				}
				if len(file.Bytes) > 0 && !yield(file.Bytes, nil) {
					return
				}
				if len(file.Bytes) < downloadChunkSize {
					return
				}
				offset += int64(len(file.Bytes))
			}
		default:
			yield(nil, fmt.Errorf("%T: %w", ref, ErrUnsupportedMedia))
		}
	}
}

func conversationFromPeer(inputPeer tg.InputPeerClass, entities peer.Entities) (Conversation, bool) {
	switch p := inputPeer.(type) {
	case *tg.InputPeerSelf:
		return Conversation{Name: "Saved Messages", ref: inputPeer}, true
	case *tg.InputPeerUser:
		u, ok := entities.Users()[p.UserID]
		if !ok {
			return Conversation{}, false
		}
		return Conversation{ID: p.UserID, Name: userName(u), ref: inputPeer}, true
	case *tg.InputPeerChat:
		c, ok := entities.Chats()[p.ChatID]
		if !ok {
			return Conversation{}, false
		}
		return Conversation{ID: p.ChatID, Name: c.Title, ref: inputPeer}, true
	case *tg.InputPeerChannel:
		c, ok := entities.Channels()[p.ChannelID]
		if !ok {
			return Conversation{}, false
		}
		return Conversation{ID: p.ChannelID, Name: c.Title, ref: inputPeer}, true
	default:
		return Conversation{}, false
	}
}

func userName(u *tg.User) string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		name = u.Username
	}
	if name == "" && u.Deleted {
		name = "Deleted Account " + strconv.FormatInt(u.ID, 10)
	}
	return name
}

func mediaItem(messageID int64, media tg.MessageMediaClass) (MediaItem, bool) {
	item := MediaItem{MessageID: messageID, Kind: KindOther}

	switch m := media.(type) {
	case *tg.MessageMediaEmpty:
		return MediaItem{}, false
	case *tg.MessageMediaPhoto:
		pc, ok := m.GetPhoto()
		if !ok {
			return MediaItem{}, false
		}
		photo, ok := pc.(*tg.Photo)
		if !ok {
			return MediaItem{}, false
		}
		item.Kind = KindPhoto
		item.ref = &tg.InputPhotoFileLocation{
			ID:            photo.ID,
			AccessHash:    photo.AccessHash,
			FileReference: photo.FileReference,
			ThumbSize:     largestPhotoSize(photo.Sizes),
		}
	case *tg.MessageMediaDocument:
		dc, ok := m.GetDocument()
		if !ok {
			return MediaItem{}, false
		}
		doc, ok := dc.(*tg.Document)
		if !ok {
			return MediaItem{}, false
		}
		item.Kind = KindDocument
		for _, attr := range doc.Attributes {
			if _, ok := attr.(*tg.DocumentAttributeSticker); ok {
				item.Kind = KindSticker
			}
		}
		item.MimeType = doc.MimeType
		item.ref = &tg.InputDocumentFileLocation{
			ID:            doc.ID,
			AccessHash:    doc.AccessHash,
			FileReference: doc.FileReference,
		}
	case *tg.MessageMediaContact:
		item.Kind = KindContact
		item.ref = []byte(contactCard(m))
	}
	return item, true
}

// largestPhotoSize picks the thumb type of the biggest stored size.
func largestPhotoSize(sizes []tg.PhotoSizeClass) string {
	best, bestSize := "", -1
	for _, s := range sizes {
		switch v := s.(type) {
		case *tg.PhotoSize:
			if v.Size > bestSize {
				best, bestSize = v.Type, v.Size
			}
		case *tg.PhotoSizeProgressive:
			for _, n := range v.Sizes {
				if n > bestSize {
					best, bestSize = v.Type, n
				}
			}
		}
	}
	return best
}

func contactCard(c *tg.MessageMediaContact) string {
	if c.Vcard != "" {
		return c.Vcard
	}
	var b strings.Builder
	b.WriteString("BEGIN:VCARD\r\nVERSION:3.0\r\n")
	fmt.Fprintf(&b, "N:%s;%s;;;\r\n", c.LastName, c.FirstName)
	fmt.Fprintf(&b, "FN:%s\r\n", strings.TrimSpace(c.FirstName+" "+c.LastName))
	if c.PhoneNumber != "" {
		fmt.Fprintf(&b, "TEL;TYPE=CELL:%s\r\n", c.PhoneNumber)
	}
	b.WriteString("END:VCARD\r\n")
	return b.String()
}
