package tgfs

import (
	"context"
	"errors"
	"syscall"
	"time"

	"bazil.org/fuse"
	"bazil.org/fuse/fs"

	"github.com/dendrascience/telegram-media-fuse/util"
)

// attrTTL is how long the kernel may cache attributes and entries.
const attrTTL = time.Second

// FS implements the tgfs FUSE filesystem on top of an Adapter.
type FS struct {
	adapter *Adapter
}

// NewFS creates a new tgfs filesystem instance
func NewFS(adapter *Adapter) *FS {
	return &FS{adapter: adapter}
}

// Root returns the root directory node
func (f *FS) Root() (fs.Node, error) {
	return &Dir{fs: f, id: util.RootID}, nil
}

// Dir is a directory node: the root or one conversation.
// It only holds the identifier; every call re-resolves it against the current generation.
type Dir struct {
	fs *FS
	id uint64
}

var (
	_ fs.Node               = (*Dir)(nil)
	_ fs.NodeStringLookuper = (*Dir)(nil)
	_ fs.HandleReadDirAller = (*Dir)(nil)
)

// Attr returns directory attributes
func (d *Dir) Attr(ctx context.Context, a *fuse.Attr) error {
	attr, err := d.fs.adapter.Getattr(d.id)
	if err != nil {
		return toErrno(err)
	}
	*a = attr
	a.Valid = attrTTL
	return nil
}

// Lookup resolves a conversation name under the root, or a file name inside a conversation
func (d *Dir) Lookup(ctx context.Context, name string) (fs.Node, error) {
	attr, err := d.fs.adapter.Lookup(d.id, name)
	if err != nil {
		return nil, toErrno(err)
	}
	if attr.Mode.IsDir() {
		return &Dir{fs: d.fs, id: attr.Inode}, nil
	}
	return &File{fs: d.fs, id: attr.Inode}, nil
}

// ReadDirAll lists directory contents
func (d *Dir) ReadDirAll(ctx context.Context) ([]fuse.Dirent, error) {
	entries, err := d.fs.adapter.ReadDir(d.id, 0)
	if err != nil {
		return nil, toErrno(err)
	}
	return entries, nil
}

// File is a media file node.
type File struct {
	fs *FS
	id uint64
}

var (
	_ fs.Node            = (*File)(nil)
	_ fs.HandleReader    = (*File)(nil)
	_ fs.NodeGetxattrer  = (*File)(nil)
	_ fs.NodeListxattrer = (*File)(nil)
)

// Attr returns file attributes
func (f *File) Attr(ctx context.Context, a *fuse.Attr) error {
	attr, err := f.fs.adapter.Getattr(f.id)
	if err != nil {
		return toErrno(err)
	}
	*a = attr
	a.Valid = attrTTL
	return nil
}

// Read serves a byte range of the cached payload
func (f *File) Read(ctx context.Context, req *fuse.ReadRequest, resp *fuse.ReadResponse) error {
	data, err := f.fs.adapter.Read(f.id, req.Offset, req.Size)
	if err != nil {
		return toErrno(err)
	}
	resp.Data = data
	return nil
}

// Getxattr returns one extended attribute of the file
func (f *File) Getxattr(ctx context.Context, req *fuse.GetxattrRequest, resp *fuse.GetxattrResponse) error {
	value, err := f.fs.adapter.Xattr(f.id, req.Name)
	if err != nil {
		return toErrno(err)
	}
	resp.Xattr = value
	return nil
}

// Listxattr lists the extended attribute names of the file
func (f *File) Listxattr(ctx context.Context, req *fuse.ListxattrRequest, resp *fuse.ListxattrResponse) error {
	names, err := f.fs.adapter.ListXattr(f.id)
	if err != nil {
		return toErrno(err)
	}
	resp.Append(names...)
	return nil
}

func toErrno(err error) error {
	if errors.Is(err, util.ErrNotFound) {
		return syscall.ENOENT
	}
	return err
}
