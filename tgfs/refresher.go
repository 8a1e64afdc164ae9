package tgfs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dendrascience/telegram-media-fuse/media"
	"github.com/dendrascience/telegram-media-fuse/util"
)

// DefaultRefreshInterval is the pause between two rebuilds.
const DefaultRefreshInterval = 10 * time.Second

// RefreshConfig tunes the refresher.
type RefreshConfig struct {
	Interval    time.Duration // pause after each rebuild
	Concurrency int           // parallel downloads inside one conversation
	MaxFileSize int64         // bytes, 0 = unlimited
}

// Refresher periodically rebuilds the whole tree from the provider and swaps it into the store.
type Refresher struct {
	provider media.Provider
	resolver *media.Resolver
	ids      *util.Allocator
	store    *Store
	log      *zap.Logger
	metrics  *Metrics

	interval    time.Duration
	concurrency int

	mu  sync.Mutex // serialises Refresh
	seq uint64
}

// NewRefresher creates a refresher. metrics may be nil.
func NewRefresher(provider media.Provider, store *Store, ids *util.Allocator, cfg RefreshConfig, log *zap.Logger, metrics *Metrics) *Refresher {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultRefreshInterval
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	return &Refresher{
		provider:    provider,
		resolver:    media.NewResolver(provider, cfg.MaxFileSize),
		ids:         ids,
		store:       store,
		log:         log,
		metrics:     metrics,
		interval:    cfg.Interval,
		concurrency: cfg.Concurrency,
	}
}

// Run rebuilds the cache, sleeps for the configured interval and repeats until ctx ends.
// A failed rebuild leaves the last good generation in place.
func (r *Refresher) Run(ctx context.Context) error {
	for {
		if _, err := r.Refresh(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			r.log.Warn("refresh failed, serving previous generation",
				zap.Uint64("generation", r.store.Snapshot().Seq),
				zap.Error(err))
		}

		timer := time.NewTimer(r.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Refresh performs one full rebuild and, on success, replaces the store's generation.
func (r *Refresher) Refresh(ctx context.Context) (*Generation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	start := time.Now()
	gen, err := r.build(ctx)
	if err != nil {
		r.metrics.refreshFailed(time.Since(start))
		return nil, err
	}

	r.store.Replace(gen)
	r.metrics.refreshSucceeded(gen, time.Since(start))

	folders, files, size := gen.Stats()
	r.log.Info("generation ready",
		zap.Uint64("generation", gen.Seq),
		zap.Stringer("id", gen.ID),
		zap.Int("conversations", folders),
		zap.Int("files", files),
		zap.Int64("bytes", size),
		zap.Duration("took", time.Since(start)))
	return gen, nil
}

func (r *Refresher) build(ctx context.Context) (*Generation, error) {
	prev := r.store.Snapshot()

	var convs []media.Conversation
	for conv, err := range r.provider.Conversations(ctx) {
		if err != nil {
			return nil, fmt.Errorf("enumerate conversations: %w", err)
		}
		convs = append(convs, conv)
	}

	var folders []*Folder
	for _, named := range folderNames(convs) {
		name, conv := named.name, named.conv
		folder, err := r.buildFolder(ctx, name, conv)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if old, ok := prev.Folder(name); ok && old.RemoteID == conv.ID {
				r.log.Warn("conversation listing failed, keeping previous files",
					zap.String("conversation", name), zap.Error(err))
				r.metrics.folderCarried()
				folders = append(folders, old)
			} else {
				r.log.Warn("conversation listing failed", zap.String("conversation", name), zap.Error(err))
			}
			continue
		}
		if len(folder.Files) == 0 {
			continue
		}
		folders = append(folders, folder)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.seq++
	return NewGeneration(r.seq, folders), nil
}

type namedConversation struct {
	name string
	conv media.Conversation
}

// folderNames assigns directory names in enumeration order. Conversations whose
// sanitised titles collide are all suffixed with " [<remote id>]", so a name
// never depends on the order the remote lists them in. Empty names are skipped.
func folderNames(convs []media.Conversation) []namedConversation {
	counts := make(map[string]int, len(convs))
	for _, conv := range convs {
		counts[util.SanitizeName(conv.Name)]++
	}

	seen := make(map[string]bool, len(convs))
	named := make([]namedConversation, 0, len(convs))
	for _, conv := range convs {
		name := util.SanitizeName(conv.Name)
		if name == "" {
			continue
		}
		if counts[name] > 1 {
			name = fmt.Sprintf("%s [%d]", name, conv.ID)
		}
		// A title can itself look like "Alice [2]"
		if seen[name] {
			continue
		}
		seen[name] = true
		named = append(named, namedConversation{name: name, conv: conv})
	}
	return named
}

// buildFolder downloads every media item of conv. Items that fail are skipped;
// only a failure to list the messages fails the folder.
func (r *Refresher) buildFolder(ctx context.Context, name string, conv media.Conversation) (*Folder, error) {
	dirID, err := r.ids.Directory(name)
	if err != nil {
		return nil, err
	}

	var items []media.MediaItem
	for msg, err := range r.provider.Messages(ctx, conv) {
		if err != nil {
			return nil, fmt.Errorf("list messages: %w", err)
		}
		if msg.Media != nil {
			items = append(items, *msg.Media)
		}
	}

	files := make([]*CachedFile, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, item := range items {
		g.Go(func() error {
			fileName, data, err := r.resolver.Resolve(gctx, item)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				r.log.Warn("skipping media item",
					zap.String("conversation", name),
					zap.Int64("message", item.MessageID),
					zap.Stringer("kind", item.Kind),
					zap.Error(err))
				r.metrics.mediaFailed()
				return nil
			}
			files[i] = &CachedFile{
				ID:        r.ids.File(dirID, item.MessageID),
				Name:      fileName,
				MessageID: item.MessageID,
				Kind:      item.Kind,
				Hash:      util.ContentHash(data),
				Data:      data,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return NewFolder(dirID, name, conv.ID, lo.Compact(files)), nil
}
