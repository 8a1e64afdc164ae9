package util

import (
	"strconv"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// RootID is the inode of the filesystem root. No allocated identifier ever equals it.
const RootID uint64 = 1

// firstFreeID is the lowest identifier the allocator hands out.
const firstFreeID uint64 = 2

// Allocator maps conversation names and media items to filesystem identifiers.
//
// Identifiers start from a 64-bit hash of their key and probe forward on collision,
// so distinct keys never share an identifier. Entries are never released: an
// identifier stays bound to its key for the lifetime of the process.
type Allocator struct {
	mu   sync.Mutex
	hash func(string) uint64
	ids  map[string]uint64
	keys map[uint64]string
}

// NewAllocator returns an empty allocator with the root identifier reserved.
func NewAllocator() *Allocator {
	return &Allocator{
		hash: hashKey,
		ids:  make(map[string]uint64),
		keys: map[uint64]string{RootID: ""},
	}
}

// Directory returns the identifier for the conversation directory called name.
func (a *Allocator) Directory(name string) (uint64, error) {
	if name == "" {
		return 0, ErrEmptyName
	}
	return a.allocate("d:" + name), nil
}

// File returns the identifier of the media item carried by messageID inside directory dir.
func (a *Allocator) File(dir uint64, messageID int64) uint64 {
	return a.allocate("f:" + strconv.FormatUint(dir, 16) + ":" + strconv.FormatInt(messageID, 10))
}

// Size reports how many identifiers have been handed out.
func (a *Allocator) Size() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.ids)
}

func (a *Allocator) allocate(key string) uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	if id, ok := a.ids[key]; ok {
		return id
	}

	id := a.hash(key)
	for {
		if id < firstFreeID {
			id = firstFreeID
		}
		if _, taken := a.keys[id]; !taken {
			break
		}
		id++
	}

	a.ids[key] = id
	a.keys[id] = key
	return id
}

// hashKey keeps identifiers within the positive int64 range; some tools print inodes signed.
func hashKey(key string) uint64 {
	return xxhash.Sum64String(key) >> 1
}
