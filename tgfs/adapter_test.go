package tgfs

import (
	"context"
	"errors"
	"os"
	"testing"

	"bazil.org/fuse"

	"github.com/dendrascience/telegram-media-fuse/media"
	"github.com/dendrascience/telegram-media-fuse/util"
)

func newTestAdapter(t *testing.T, convs ...media.MemoryConversation) (*Adapter, *Refresher, *media.MemoryProvider) {
	t.Helper()
	p := media.NewMemoryProvider(0, convs...)
	r, store := newTestRefresher(p, RefreshConfig{})
	if _, err := r.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	return NewAdapter(store, Owner{Uid: 1000, Gid: 100}, nil), r, p
}

func TestAdapterRootListing(t *testing.T) {
	bob := media.MemoryConversation{
		ID:       8,
		Name:     "Bob",
		Messages: []media.MemoryMessage{{ID: 4, Media: &media.MemoryMedia{Kind: media.KindContact, Content: []byte("BEGIN:VCARD\r\n")}}},
	}
	a, _, _ := newTestAdapter(t, aliceConversation(), bob)

	entries, err := a.ReadDir(util.RootID, 0)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	want := []string{".", "..", "Alice", "Bob"}
	if len(entries) != len(want) {
		t.Fatalf("got %d entries, want %d", len(entries), len(want))
	}
	for i, e := range entries {
		if e.Name != want[i] {
			t.Errorf("entry %d = %q, want %q", i, e.Name, want[i])
		}
		if e.Type != fuse.DT_Dir {
			t.Errorf("entry %q has type %v, want DT_Dir", e.Name, e.Type)
		}
	}
	if entries[0].Inode != util.RootID || entries[1].Inode != util.RootID {
		t.Error("dot entries of the root must point at the root")
	}
}

func TestAdapterReadDirOffset(t *testing.T) {
	a, _, _ := newTestAdapter(t, aliceConversation())
	alice, err := a.Lookup(util.RootID, "Alice")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}

	tests := []struct {
		name   string
		offset int
		want   []string
	}{
		{"from start", 0, []string{".", "..", "msg-1.jpg", "msg-2.pdf"}},
		{"skip dots", 2, []string{"msg-1.jpg", "msg-2.pdf"}},
		{"last", 3, []string{"msg-2.pdf"}},
		{"past end", 4, nil},
		{"negative", -1, []string{".", "..", "msg-1.jpg", "msg-2.pdf"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := a.ReadDir(alice.Inode, tt.offset)
			if err != nil {
				t.Fatalf("ReadDir failed: %v", err)
			}
			if len(entries) != len(tt.want) {
				t.Fatalf("got %d entries, want %d", len(entries), len(tt.want))
			}
			for i, e := range entries {
				if e.Name != tt.want[i] {
					t.Errorf("entry %d = %q, want %q", i, e.Name, tt.want[i])
				}
			}
		})
	}
}

func TestAdapterLookup(t *testing.T) {
	a, _, _ := newTestAdapter(t, aliceConversation())

	dir, err := a.Lookup(util.RootID, "Alice")
	if err != nil {
		t.Fatalf("Lookup(Alice) failed: %v", err)
	}
	if dir.Mode != os.ModeDir|0o755 || dir.Nlink != 2 {
		t.Errorf("dir attr mode=%v nlink=%d", dir.Mode, dir.Nlink)
	}
	if dir.Uid != 1000 || dir.Gid != 100 {
		t.Errorf("dir owner = %d:%d, want 1000:100", dir.Uid, dir.Gid)
	}

	file, err := a.Lookup(dir.Inode, "msg-2.pdf")
	if err != nil {
		t.Fatalf("Lookup(msg-2.pdf) failed: %v", err)
	}
	size := uint64(len(pdfBytes))
	if file.Size != size || file.Blocks != (size+511)/512 {
		t.Errorf("file size=%d blocks=%d", file.Size, file.Blocks)
	}
	if file.Mode != 0o644 || file.Nlink != 1 {
		t.Errorf("file attr mode=%v nlink=%d", file.Mode, file.Nlink)
	}

	got, err := a.Getattr(file.Inode)
	if err != nil || got.Inode != file.Inode || got.Size != file.Size {
		t.Errorf("Getattr(%d) = %+v, %v; want %+v", file.Inode, got, err, file)
	}

	missing := []struct {
		parent uint64
		name   string
	}{
		{util.RootID, "Bob"},
		{util.RootID, "msg-1.jpg"},
		{dir.Inode, "msg-3.jpg"},
		{file.Inode, "anything"},
		{999, "Alice"},
	}
	for _, m := range missing {
		if _, err := a.Lookup(m.parent, m.name); !errors.Is(err, util.ErrNotFound) {
			t.Errorf("Lookup(%d, %q) error = %v, want ErrNotFound", m.parent, m.name, err)
		}
	}
}

func TestAdapterGetattrRoot(t *testing.T) {
	a, _, _ := newTestAdapter(t)
	attr, err := a.Getattr(util.RootID)
	if err != nil {
		t.Fatalf("Getattr(root) failed: %v", err)
	}
	if attr.Inode != util.RootID || !attr.Mode.IsDir() {
		t.Errorf("root attr = %+v", attr)
	}
	entries, err := a.ReadDir(util.RootID, 0)
	if err != nil || len(entries) != 2 {
		t.Errorf("empty root ReadDir = %v, %v; want only dot entries", entries, err)
	}
}

func TestAdapterRead(t *testing.T) {
	a, _, _ := newTestAdapter(t, aliceConversation())
	dir, _ := a.Lookup(util.RootID, "Alice")
	file, err := a.Lookup(dir.Inode, "msg-2.pdf")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}

	tests := []struct {
		name   string
		offset int64
		size   int
		want   string
	}{
		{"head", 0, 4, "%PDF"},
		{"middle", 5, 3, "1.4"},
		{"clipped", int64(len(pdfBytes)) - 2, 100, "t\n"},
		{"at end", int64(len(pdfBytes)), 10, ""},
		{"past end", 1000, 10, ""},
		{"zero size", 0, 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := a.Read(file.Inode, tt.offset, tt.size)
			if err != nil {
				t.Fatalf("Read failed: %v", err)
			}
			if string(data) != tt.want {
				t.Errorf("Read(%d, %d) = %q, want %q", tt.offset, tt.size, data, tt.want)
			}
		})
	}

	if _, err := a.Read(dir.Inode, 0, 10); !errors.Is(err, util.ErrNotFound) {
		t.Errorf("Read on a directory error = %v, want ErrNotFound", err)
	}
}

func TestAdapterVanishedIDs(t *testing.T) {
	a, r, p := newTestAdapter(t, aliceConversation())
	dir, _ := a.Lookup(util.RootID, "Alice")
	file, _ := a.Lookup(dir.Inode, "msg-1.jpg")

	p.Set()
	if _, err := r.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	if _, err := a.Getattr(dir.Inode); !errors.Is(err, util.ErrNotFound) {
		t.Errorf("Getattr(old dir) error = %v, want ErrNotFound", err)
	}
	if _, err := a.Getattr(file.Inode); !errors.Is(err, util.ErrNotFound) {
		t.Errorf("Getattr(old file) error = %v, want ErrNotFound", err)
	}
	if _, err := a.ReadDir(dir.Inode, 0); !errors.Is(err, util.ErrNotFound) {
		t.Errorf("ReadDir(old dir) error = %v, want ErrNotFound", err)
	}
	if _, err := a.Read(file.Inode, 0, 1); !errors.Is(err, util.ErrNotFound) {
		t.Errorf("Read(old file) error = %v, want ErrNotFound", err)
	}
}

func TestAdapterXattr(t *testing.T) {
	a, _, _ := newTestAdapter(t, aliceConversation())
	dir, _ := a.Lookup(util.RootID, "Alice")
	photo, _ := a.Lookup(dir.Inode, "msg-1.jpg")
	doc, _ := a.Lookup(dir.Inode, "msg-2.pdf")

	tests := []struct {
		id   uint64
		name string
		want string
	}{
		{photo.Inode, XattrMimeType, "image/jpeg"},
		{doc.Inode, XattrMimeType, "application/pdf"},
		{doc.Inode, XattrMessageID, "2"},
		{doc.Inode, XattrSHA256, util.ContentHash(pdfBytes)},
	}
	for _, tt := range tests {
		value, err := a.Xattr(tt.id, tt.name)
		if err != nil {
			t.Errorf("Xattr(%d, %s) failed: %v", tt.id, tt.name, err)
			continue
		}
		if string(value) != tt.want {
			t.Errorf("Xattr(%d, %s) = %q, want %q", tt.id, tt.name, value, tt.want)
		}
	}

	if _, err := a.Xattr(doc.Inode, "user.other"); !errors.Is(err, fuse.ErrNoXattr) {
		t.Errorf("unknown xattr error = %v, want ErrNoXattr", err)
	}
	names, err := a.ListXattr(doc.Inode)
	if err != nil || len(names) != 3 {
		t.Errorf("ListXattr = %v, %v", names, err)
	}
	if _, err := a.ListXattr(dir.Inode); !errors.Is(err, util.ErrNotFound) {
		t.Errorf("ListXattr(dir) error = %v, want ErrNotFound", err)
	}
}
