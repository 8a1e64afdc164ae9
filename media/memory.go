package media

import (
	"context"
	"iter"
	"slices"
	"sync"
)

// MemoryConversation is a conversation served by MemoryProvider.
type MemoryConversation struct {
	ID       int64
	Name     string
	Messages []MemoryMessage
	Err      error // returned after the messages have been listed
}

// MemoryMessage is a message served by MemoryProvider. Media is nil for text messages.
type MemoryMessage struct {
	ID    int64
	Media *MemoryMedia
}

// MemoryMedia is an attachment served by MemoryProvider.
type MemoryMedia struct {
	Kind     Kind
	MimeType string
	Content  []byte
	Err      error // returned after the first chunk
}

// MemoryProvider is an in-process Provider. It backs tests and the offline demo tree.
type MemoryProvider struct {
	mu            sync.RWMutex
	conversations []MemoryConversation
	listErr       error
	chunkSize     int
}

// NewMemoryProvider returns a provider serving convs, split into chunks of chunkSize bytes.
func NewMemoryProvider(chunkSize int, convs ...MemoryConversation) *MemoryProvider {
	if chunkSize <= 0 {
		chunkSize = 4096
	}
	return &MemoryProvider{
		conversations: convs,
		chunkSize:     chunkSize,
	}
}

// Set replaces the served conversations.
func (p *MemoryProvider) Set(convs ...MemoryConversation) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.conversations = convs
}

// SetListError makes Conversations fail with err. A nil err clears the failure.
func (p *MemoryProvider) SetListError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listErr = err
}

func (p *MemoryProvider) Conversations(ctx context.Context) iter.Seq2[Conversation, error] {
	p.mu.RLock()
	convs := slices.Clone(p.conversations)
	listErr := p.listErr
	p.mu.RUnlock()

	return func(yield func(Conversation, error) bool) {
		for i := range convs {
			if err := ctx.Err(); err != nil {
				yield(Conversation{}, err)
				return
			}
			c := &convs[i]
			if !yield(Conversation{ID: c.ID, Name: c.Name, ref: c}, nil) {
				return
			}
		}
		if listErr != nil {
			yield(Conversation{}, listErr)
		}
	}
}

func (p *MemoryProvider) Messages(ctx context.Context, conv Conversation) iter.Seq2[Message, error] {
	return func(yield func(Message, error) bool) {
		c, ok := conv.ref.(*MemoryConversation)
		if !ok {
			yield(Message{}, ErrUnsupportedMedia)
			return
		}
		for _, m := range c.Messages {
			msg := Message{ID: m.ID}
			if m.Media != nil {
				msg.Media = &MediaItem{
					MessageID: m.ID,
					Kind:      m.Media.Kind,
					MimeType:  m.Media.MimeType,
					ref:       m.Media,
				}
			}
			if !yield(msg, nil) {
				return
			}
		}
		if c.Err != nil {
			yield(Message{}, c.Err)
		}
	}
}

func (p *MemoryProvider) Download(ctx context.Context, item MediaItem) iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		m, ok := item.ref.(*MemoryMedia)
		if !ok {
			yield(nil, ErrUnsupportedMedia)
			return
		}
		for off := 0; off < len(m.Content); off += p.chunkSize {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			end := min(off+p.chunkSize, len(m.Content))
			if !yield(m.Content[off:end], nil) {
				return
			}
			if m.Err != nil {
				yield(nil, m.Err)
				return
			}
		}
		if m.Err != nil && len(m.Content) == 0 {
			yield(nil, m.Err)
		}
	}
}
