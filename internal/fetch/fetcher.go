package fetch

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format
	_ "image/jpeg" // Register JPEG format
	_ "image/png"  // Register PNG format
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"time"

	_ "golang.org/x/image/webp" // Register WebP format

	"photoframe/internal/config"
	"photoframe/internal/discourse"
	"photoframe/internal/fsutil"
	"photoframe/internal/store"
)

// Source provides the Discourse lookups the fetcher needs. The concrete
// implementation is discourse.Client.
type Source interface {
	TaggedTopics(ctx context.Context, tag string) ([]discourse.TopicSummary, error)
	TopicHTML(ctx context.Context, id int) (string, error)
	Download(ctx context.Context, rawURL string) ([]byte, error)
}

// Fetcher runs one fetch cycle: list tagged topics, extract original
// uploads from the ones bumped since the last successful fetch, download
// the images not yet stored, and prune the oldest past the limit.
type Fetcher struct {
	source Source
	store  *store.Store
	cfg    *config.Config

	// pause between topic batches, to go easy on the forum.
	pause time.Duration
}

// New creates a Fetcher with the default batch pause.
func New(source Source, st *store.Store, cfg *config.Config) *Fetcher {
	return &Fetcher{source: source, store: st, cfg: cfg, pause: 2 * time.Second}
}

// Run executes one fetch cycle. Per-topic and per-image failures are
// logged and skipped; the cycle only fails on listing or store errors.
func (f *Fetcher) Run(ctx context.Context) error {
	topics, err := f.source.TaggedTopics(ctx, f.cfg.Tag)
	if err != nil {
		return fmt.Errorf("failed to list topics tagged %q; %w", f.cfg.Tag, err)
	}

	since, haveSince, err := f.store.LastFetch(ctx)
	if err != nil {
		return err
	}
	if haveSince {
		fresh := topics[:0]
		for _, topic := range topics {
			if topic.BumpedAt.After(since) {
				fresh = append(fresh, topic)
			}
		}
		topics = fresh
	}
	if len(topics) == 0 {
		slog.Info("no topics updated since last fetch", "tag", f.cfg.Tag)
		return nil
	}

	started := time.Now()

	refs, err := f.collect(ctx, topics)
	if err != nil {
		return err
	}

	downloaded, err := f.download(ctx, refs)
	if err != nil {
		return err
	}

	if err := f.store.SetLastFetch(ctx, started); err != nil {
		return err
	}

	slog.Info("fetch cycle complete",
		"topics", len(topics),
		"images_found", len(refs),
		"images_downloaded", downloaded)
	return nil
}

// collect walks the topics in batches, pausing between batches, and
// returns the original-upload references found, deduplicated by hash.
func (f *Fetcher) collect(ctx context.Context, topics []discourse.TopicSummary) ([]ImageRef, error) {
	var refs []ImageRef
	seen := make(map[string]struct{})

	for i, topic := range topics {
		if i > 0 && f.cfg.BatchSize > 0 && i%f.cfg.BatchSize == 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(f.pause):
			}
		}

		html, err := f.source.TopicHTML(ctx, topic.ID)
		if err != nil {
			slog.Warn("skipping topic", "id", topic.ID, "title", topic.Title, "error", err)
			continue
		}
		found, err := extractImages(html)
		if err != nil {
			slog.Warn("skipping unparseable topic", "id", topic.ID, "error", err)
			continue
		}
		for _, ref := range found {
			if _, dup := seen[ref.Hash]; dup {
				continue
			}
			seen[ref.Hash] = struct{}{}
			refs = append(refs, ref)
		}
	}
	return refs, nil
}

// download stores the images not yet present, evicting the oldest stored
// images first when the new batch would exceed the retention limit.
func (f *Fetcher) download(ctx context.Context, refs []ImageRef) (int, error) {
	var fresh []ImageRef
	for _, ref := range refs {
		have, err := f.store.IsDownloaded(ctx, ref.Hash)
		if err != nil {
			return 0, err
		}
		if !have {
			fresh = append(fresh, ref)
		}
	}
	if len(fresh) == 0 {
		slog.Info("all images already downloaded")
		return 0, nil
	}

	count, err := f.store.Count(ctx)
	if err != nil {
		return 0, err
	}
	if over := count+len(fresh)-f.cfg.ImageLimit; over > 0 {
		slog.Info("evicting oldest images", "count", over, "limit", f.cfg.ImageLimit)
		if err := f.store.RemoveOldest(ctx, over); err != nil {
			return 0, err
		}
	}

	if err := fsutil.EnsureDir(f.cfg.ImageDir); err != nil {
		return 0, fmt.Errorf("failed to create image directory; %w", err)
	}

	downloaded := 0
	for _, ref := range fresh {
		data, err := f.source.Download(ctx, ref.URL)
		if err != nil {
			slog.Warn("failed to download image", "url", ref.URL, "error", err)
			continue
		}
		// The frame displays whatever lands in the image directory, so
		// reject payloads that do not decode as an image.
		if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
			slog.Warn("skipping download that is not an image", "url", ref.URL, "error", err)
			continue
		}
		name := ref.Hash + path.Ext(ref.URL)
		if err := os.WriteFile(filepath.Join(f.cfg.ImageDir, name), data, 0o644); err != nil {
			slog.Warn("failed to write image", "file", name, "error", err)
			continue
		}
		err = f.store.AddImage(ctx, store.Image{
			Hash:         ref.Hash,
			Filename:     name,
			URL:          ref.URL,
			DownloadedAt: time.Now(),
		})
		if err != nil {
			slog.Warn("failed to record image", "file", name, "error", err)
			continue
		}
		downloaded++
	}
	return downloaded, nil
}
