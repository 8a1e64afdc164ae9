package media

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"strings"
)

// Extension returns the filename extension used for item, including the leading dot.
func Extension(item MediaItem) string {
	switch item.Kind {
	case KindPhoto:
		return ".jpg"
	case KindSticker, KindDocument:
		return mimeExtension(item.MimeType)
	case KindContact:
		return ".vcf"
	default:
		return ""
	}
}

// mimeExtension maps "image/webp" to ".webp" and "image/svg+xml" to ".svg".
func mimeExtension(mimeType string) string {
	mediaType, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return ".bin"
	}
	_, subtype, ok := strings.Cut(mediaType, "/")
	if !ok {
		return ".bin"
	}
	subtype, _, _ = strings.Cut(subtype, "+")
	if subtype == "" {
		return ".bin"
	}
	return "." + subtype
}

// FileName returns the display name of the file materialised from item.
func FileName(item MediaItem) string {
	return fmt.Sprintf("msg-%d%s", item.MessageID, Extension(item))
}

// Resolver downloads media items into memory.
type Resolver struct {
	provider Provider
	maxSize  int64
}

// NewResolver creates a resolver. maxSize caps a single payload in bytes; 0 disables the cap.
func NewResolver(provider Provider, maxSize int64) *Resolver {
	return &Resolver{
		provider: provider,
		maxSize:  maxSize,
	}
}

// Resolve downloads item and returns its filename and the concatenated chunks.
// Nothing is returned unless the whole payload arrived.
func (r *Resolver) Resolve(ctx context.Context, item MediaItem) (string, []byte, error) {
	var buf bytes.Buffer
	for chunk, err := range r.provider.Download(ctx, item) {
		if err != nil {
			return "", nil, fmt.Errorf("download message %d: %w", item.MessageID, err)
		}
		if r.maxSize > 0 && int64(buf.Len()+len(chunk)) > r.maxSize {
			return "", nil, fmt.Errorf("download message %d: %w (%d bytes)", item.MessageID, ErrTooLarge, r.maxSize)
		}
		buf.Write(chunk)
	}
	return FileName(item), buf.Bytes(), nil
}
