package tgfs

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/dendrascience/telegram-media-fuse/media"
)

// CachedFile is one materialised media item. It is immutable once built.
type CachedFile struct {
	ID        uint64
	Name      string
	MessageID int64
	Kind      media.Kind
	Hash      string // hex SHA-256 of Data
	Data      []byte // shared between generations, never written after construction
}

// Folder is the directory built from one conversation.
type Folder struct {
	ID       uint64
	Name     string
	RemoteID int64
	Files    []*CachedFile // message order

	byName map[string]*CachedFile
}

// NewFolder indexes files into a folder.
func NewFolder(id uint64, name string, remoteID int64, files []*CachedFile) *Folder {
	return &Folder{
		ID:       id,
		Name:     name,
		RemoteID: remoteID,
		Files:    files,
		byName:   lo.KeyBy(files, func(file *CachedFile) string { return file.Name }),
	}
}

// File returns the file called name inside the folder.
func (f *Folder) File(name string) (*CachedFile, bool) {
	file, ok := f.byName[name]
	return file, ok
}

// Size is the number of payload bytes held by the folder.
func (f *Folder) Size() int64 {
	return lo.SumBy(f.Files, func(file *CachedFile) int64 { return int64(len(file.Data)) })
}

// Generation is one complete build of the filesystem tree.
// It is never modified after NewGeneration returns, so readers need no locking.
type Generation struct {
	ID      uuid.UUID
	Seq     uint64
	BuiltAt time.Time

	folders []*Folder
	byName  map[string]*Folder
	byID    map[uint64]*Folder
	files   map[uint64]*CachedFile
}

// NewGeneration indexes folders into a generation. Folders keep the given order.
func NewGeneration(seq uint64, folders []*Folder) *Generation {
	g := &Generation{
		ID:      uuid.New(),
		Seq:     seq,
		BuiltAt: time.Now(),
		folders: folders,
		byName:  make(map[string]*Folder, len(folders)),
		byID:    make(map[uint64]*Folder, len(folders)),
		files:   make(map[uint64]*CachedFile),
	}

	for _, folder := range folders {
		g.byName[folder.Name] = folder
		g.byID[folder.ID] = folder
		for _, file := range folder.Files {
			g.files[file.ID] = file
		}
	}
	return g
}

// Folders returns the folders in enumeration order. Callers must not modify the slice.
func (g *Generation) Folders() []*Folder {
	return g.folders
}

// Folder returns the folder called name.
func (g *Generation) Folder(name string) (*Folder, bool) {
	f, ok := g.byName[name]
	return f, ok
}

// FolderByID returns the folder whose directory identifier is id.
func (g *Generation) FolderByID(id uint64) (*Folder, bool) {
	f, ok := g.byID[id]
	return f, ok
}

// File returns the file whose identifier is id.
func (g *Generation) File(id uint64) (*CachedFile, bool) {
	f, ok := g.files[id]
	return f, ok
}

// Stats reports the number of folders, files and payload bytes in the generation.
func (g *Generation) Stats() (folders, files int, size int64) {
	for _, f := range g.folders {
		files += len(f.Files)
		size += f.Size()
	}
	return len(g.folders), files, size
}

// Store holds the generation currently served to the filesystem.
type Store struct {
	mu      sync.RWMutex
	current *Generation
}

// NewStore returns a store serving an empty generation.
func NewStore() *Store {
	return &Store{current: NewGeneration(0, nil)}
}

// Snapshot returns the current generation. The result stays valid and
// consistent after later calls to Replace.
func (s *Store) Snapshot() *Generation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Replace swaps in gen as a whole.
func (s *Store) Replace(gen *Generation) {
	s.mu.Lock()
	s.current = gen
	s.mu.Unlock()
}
