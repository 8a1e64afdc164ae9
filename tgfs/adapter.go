package tgfs

import (
	"os"
	"strconv"
	"time"

	"bazil.org/fuse"
	"github.com/gabriel-vasile/mimetype"

	"github.com/dendrascience/telegram-media-fuse/util"
)

const (
	dirMode   = os.ModeDir | 0o755
	fileMode  = 0o644
	blockSize = 512
)

// Extended attributes exposed on files.
const (
	XattrMimeType  = "user.mime_type"
	XattrMessageID = "user.telegram.message_id"
	XattrSHA256    = "user.checksum.sha256"
)

// Owner is the uid/gid reported for every entry.
type Owner struct {
	Uid uint32
	Gid uint32
}

// Adapter answers filesystem queries against the store's current generation.
// Every call reads exactly one snapshot and never modifies the store.
type Adapter struct {
	store   *Store
	owner   Owner
	metrics *Metrics
}

// NewAdapter creates an adapter over store. metrics may be nil.
func NewAdapter(store *Store, owner Owner, metrics *Metrics) *Adapter {
	return &Adapter{
		store:   store,
		owner:   owner,
		metrics: metrics,
	}
}

// Lookup resolves name inside the directory parent.
func (a *Adapter) Lookup(parent uint64, name string) (fuse.Attr, error) {
	gen := a.store.Snapshot()
	attr, err := a.lookup(gen, parent, name)
	a.metrics.operation("lookup", err)
	return attr, err
}

func (a *Adapter) lookup(gen *Generation, parent uint64, name string) (fuse.Attr, error) {
	if parent == util.RootID {
		if folder, ok := gen.Folder(name); ok {
			return a.dirAttr(folder.ID), nil
		}
		return fuse.Attr{}, util.ErrNotFound
	}

	folder, ok := gen.FolderByID(parent)
	if !ok {
		return fuse.Attr{}, util.ErrNotFound
	}
	file, ok := folder.File(name)
	if !ok {
		return fuse.Attr{}, util.ErrNotFound
	}
	return a.fileAttr(file), nil
}

// Getattr returns the attributes of the entry id.
func (a *Adapter) Getattr(id uint64) (fuse.Attr, error) {
	gen := a.store.Snapshot()
	attr, err := a.getattr(gen, id)
	a.metrics.operation("getattr", err)
	return attr, err
}

func (a *Adapter) getattr(gen *Generation, id uint64) (fuse.Attr, error) {
	if id == util.RootID {
		return a.dirAttr(util.RootID), nil
	}
	if folder, ok := gen.FolderByID(id); ok {
		return a.dirAttr(folder.ID), nil
	}
	if file, ok := gen.File(id); ok {
		return a.fileAttr(file), nil
	}
	return fuse.Attr{}, util.ErrNotFound
}

// ReadDir lists the directory id, skipping the first offset entries.
// "." and ".." always come first.
func (a *Adapter) ReadDir(id uint64, offset int) ([]fuse.Dirent, error) {
	gen := a.store.Snapshot()
	entries, err := a.readDir(gen, id)
	a.metrics.operation("readdir", err)
	if err != nil {
		return nil, err
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(entries) {
		return nil, nil
	}
	return entries[offset:], nil
}

func (a *Adapter) readDir(gen *Generation, id uint64) ([]fuse.Dirent, error) {
	entries := []fuse.Dirent{
		{Inode: id, Name: ".", Type: fuse.DT_Dir},
		{Inode: util.RootID, Name: "..", Type: fuse.DT_Dir},
	}

	if id == util.RootID {
		for _, folder := range gen.Folders() {
			entries = append(entries, fuse.Dirent{Inode: folder.ID, Name: folder.Name, Type: fuse.DT_Dir})
		}
		return entries, nil
	}

	folder, ok := gen.FolderByID(id)
	if !ok {
		return nil, util.ErrNotFound
	}
	for _, file := range folder.Files {
		entries = append(entries, fuse.Dirent{Inode: file.ID, Name: file.Name, Type: fuse.DT_File})
	}
	return entries, nil
}

// Read returns up to size bytes of file id starting at offset.
// The returned slice aliases the cached payload and must not be modified.
func (a *Adapter) Read(id uint64, offset int64, size int) ([]byte, error) {
	gen := a.store.Snapshot()
	file, ok := gen.File(id)
	if !ok {
		a.metrics.operation("read", util.ErrNotFound)
		return nil, util.ErrNotFound
	}
	a.metrics.operation("read", nil)

	length := int64(len(file.Data))
	if offset < 0 || offset >= length || size <= 0 {
		return []byte{}, nil
	}
	end := min(offset+int64(size), length)
	return file.Data[offset:end], nil
}

// Xattr returns the extended attribute name of file id.
func (a *Adapter) Xattr(id uint64, name string) ([]byte, error) {
	file, ok := a.store.Snapshot().File(id)
	if !ok {
		return nil, util.ErrNotFound
	}
	switch name {
	case XattrMimeType:
		return []byte(mimetype.Detect(file.Data).String()), nil
	case XattrMessageID:
		return []byte(strconv.FormatInt(file.MessageID, 10)), nil
	case XattrSHA256:
		return []byte(file.Hash), nil
	}
	return nil, fuse.ErrNoXattr
}

// ListXattr returns the extended attribute names of entry id.
func (a *Adapter) ListXattr(id uint64) ([]string, error) {
	if _, ok := a.store.Snapshot().File(id); !ok {
		return nil, util.ErrNotFound
	}
	return []string{XattrMimeType, XattrMessageID, XattrSHA256}, nil
}

func (a *Adapter) dirAttr(id uint64) fuse.Attr {
	return fuse.Attr{
		Inode:     id,
		Mode:      dirMode,
		Nlink:     2,
		Uid:       a.owner.Uid,
		Gid:       a.owner.Gid,
		Atime:     time.Unix(0, 0),
		Mtime:     time.Unix(0, 0),
		Ctime:     time.Unix(0, 0),
		BlockSize: blockSize,
	}
}

func (a *Adapter) fileAttr(file *CachedFile) fuse.Attr {
	size := uint64(len(file.Data))
	return fuse.Attr{
		Inode:     file.ID,
		Size:      size,
		Blocks:    (size + blockSize - 1) / blockSize,
		Mode:      fileMode,
		Nlink:     1,
		Uid:       a.owner.Uid,
		Gid:       a.owner.Gid,
		Atime:     time.Unix(0, 0),
		Mtime:     time.Unix(0, 0),
		Ctime:     time.Unix(0, 0),
		BlockSize: blockSize,
	}
}
