package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photoframe/internal/config"
	"photoframe/internal/discourse"
	"photoframe/internal/store"
)

type fakeSource struct {
	topics  []discourse.TopicSummary
	html    map[int]string
	htmlErr map[int]error
	images  map[string][]byte

	downloadErr map[string]error
	downloads   []string
}

func (f *fakeSource) TaggedTopics(_ context.Context, _ string) ([]discourse.TopicSummary, error) {
	return f.topics, nil
}

func (f *fakeSource) TopicHTML(_ context.Context, id int) (string, error) {
	if err := f.htmlErr[id]; err != nil {
		return "", err
	}
	return f.html[id], nil
}

func (f *fakeSource) Download(_ context.Context, rawURL string) ([]byte, error) {
	if err := f.downloadErr[rawURL]; err != nil {
		return nil, err
	}
	f.downloads = append(f.downloads, rawURL)
	data, ok := f.images[rawURL]
	if !ok {
		return nil, fmt.Errorf("no image at %s", rawURL)
	}
	return data, nil
}

func uploadURL(hash string) string {
	return "https://forum.example.com/uploads/default/original/1X/" + hash + ".jpeg"
}

func postHTML(hashes ...string) string {
	var html string
	for _, h := range hashes {
		html += `<a href="` + uploadURL(h) + `">photo</a>`
	}
	return html
}

// tinyPNG returns a minimal valid image payload.
func tinyPNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 1, 1))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func newTestFetcher(t *testing.T, src *fakeSource) (*Fetcher, *store.Store, string) {
	t.Helper()
	dir := t.TempDir()
	imageDir := filepath.Join(dir, "images")

	st, err := store.Open(filepath.Join(dir, "photoframe.db"), imageDir)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	cfg := &config.Config{
		Tag:        "photoframe",
		ImageLimit: 100,
		BatchSize:  20,
		ImageDir:   imageDir,
	}
	f := New(src, st, cfg)
	f.pause = 0
	return f, st, imageDir
}

func topic(id int, bumped time.Time) discourse.TopicSummary {
	return discourse.TopicSummary{ID: id, Title: fmt.Sprintf("topic %d", id), BumpedAt: bumped}
}

func TestRunDownloadsNewImages(t *testing.T) {
	hashA, hashB := uploadHash('a'), uploadHash('b')
	payload := tinyPNG(t)
	src := &fakeSource{
		topics: []discourse.TopicSummary{topic(1, time.Now())},
		html:   map[int]string{1: postHTML(hashA, hashB)},
		images: map[string][]byte{
			uploadURL(hashA): payload,
			uploadURL(hashB): payload,
		},
	}
	f, st, imageDir := newTestFetcher(t, src)

	require.NoError(t, f.Run(context.Background()))

	data, err := os.ReadFile(filepath.Join(imageDir, hashA+".jpeg"))
	require.NoError(t, err)
	assert.Equal(t, payload, data)

	count, err := st.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	_, ok, err := st.LastFetch(context.Background())
	require.NoError(t, err)
	assert.True(t, ok, "last fetch should be recorded after a successful cycle")
}

func TestRunSkipsTopicsNotBumpedSinceLastFetch(t *testing.T) {
	hashA := uploadHash('a')
	old := time.Now().Add(-48 * time.Hour)
	src := &fakeSource{
		topics: []discourse.TopicSummary{topic(1, old)},
		html:   map[int]string{1: postHTML(hashA)},
		images: map[string][]byte{uploadURL(hashA): tinyPNG(t)},
	}
	f, st, _ := newTestFetcher(t, src)
	require.NoError(t, st.SetLastFetch(context.Background(), time.Now().Add(-time.Hour)))

	require.NoError(t, f.Run(context.Background()))
	assert.Empty(t, src.downloads, "stale topics should not be fetched")
}

func TestRunSkipsImagesAlreadyStored(t *testing.T) {
	hashA, hashB := uploadHash('a'), uploadHash('b')
	payload := tinyPNG(t)
	src := &fakeSource{
		topics: []discourse.TopicSummary{topic(1, time.Now())},
		html:   map[int]string{1: postHTML(hashA, hashB)},
		images: map[string][]byte{
			uploadURL(hashA): payload,
			uploadURL(hashB): payload,
		},
	}
	f, st, _ := newTestFetcher(t, src)
	require.NoError(t, st.AddImage(context.Background(), store.Image{
		Hash: hashA, Filename: hashA + ".jpeg", URL: uploadURL(hashA), DownloadedAt: time.Now(),
	}))

	require.NoError(t, f.Run(context.Background()))
	assert.Equal(t, []string{uploadURL(hashB)}, src.downloads)
}

func TestRunEvictsOldestWhenOverLimit(t *testing.T) {
	hashNew := uploadHash('c')
	src := &fakeSource{
		topics: []discourse.TopicSummary{topic(1, time.Now())},
		html:   map[int]string{1: postHTML(hashNew)},
		images: map[string][]byte{uploadURL(hashNew): tinyPNG(t)},
	}
	f, st, imageDir := newTestFetcher(t, src)
	f.cfg.ImageLimit = 2

	require.NoError(t, os.MkdirAll(imageDir, 0o755))
	for i, c := range []byte{'a', 'b'} {
		h := uploadHash(c)
		name := h + ".jpeg"
		require.NoError(t, os.WriteFile(filepath.Join(imageDir, name), []byte("old"), 0o644))
		require.NoError(t, st.AddImage(context.Background(), store.Image{
			Hash:         h,
			Filename:     name,
			URL:          uploadURL(h),
			DownloadedAt: time.Now().Add(time.Duration(i-10) * time.Minute),
		}))
	}

	require.NoError(t, f.Run(context.Background()))

	count, err := st.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	_, err = os.Stat(filepath.Join(imageDir, uploadHash('a')+".jpeg"))
	assert.True(t, os.IsNotExist(err), "oldest image should be evicted")
	_, err = os.Stat(filepath.Join(imageDir, hashNew+".jpeg"))
	assert.NoError(t, err)
}

func TestRunToleratesTopicFailures(t *testing.T) {
	hashA := uploadHash('a')
	src := &fakeSource{
		topics: []discourse.TopicSummary{
			topic(1, time.Now()),
			topic(2, time.Now()),
		},
		htmlErr: map[int]error{1: errors.New("boom")},
		html:    map[int]string{2: postHTML(hashA)},
		images:  map[string][]byte{uploadURL(hashA): tinyPNG(t)},
	}
	f, st, _ := newTestFetcher(t, src)

	require.NoError(t, f.Run(context.Background()))

	count, err := st.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRunToleratesDownloadFailures(t *testing.T) {
	hashA, hashB := uploadHash('a'), uploadHash('b')
	src := &fakeSource{
		topics:      []discourse.TopicSummary{topic(1, time.Now())},
		html:        map[int]string{1: postHTML(hashA, hashB)},
		images:      map[string][]byte{uploadURL(hashB): tinyPNG(t)},
		downloadErr: map[string]error{uploadURL(hashA): errors.New("timeout")},
	}
	f, st, _ := newTestFetcher(t, src)

	require.NoError(t, f.Run(context.Background()))

	have, err := st.IsDownloaded(context.Background(), hashB)
	require.NoError(t, err)
	assert.True(t, have)

	have, err = st.IsDownloaded(context.Background(), hashA)
	require.NoError(t, err)
	assert.False(t, have, "failed download must not be recorded")
}

func TestRunSkipsDownloadsThatAreNotImages(t *testing.T) {
	hashA, hashB := uploadHash('a'), uploadHash('b')
	src := &fakeSource{
		topics: []discourse.TopicSummary{topic(1, time.Now())},
		html:   map[int]string{1: postHTML(hashA, hashB)},
		images: map[string][]byte{
			uploadURL(hashA): []byte("<html>503 Service Unavailable</html>"),
			uploadURL(hashB): tinyPNG(t),
		},
	}
	f, st, imageDir := newTestFetcher(t, src)

	require.NoError(t, f.Run(context.Background()))

	have, err := st.IsDownloaded(context.Background(), hashA)
	require.NoError(t, err)
	assert.False(t, have, "non-image payload must not be recorded")
	_, err = os.Stat(filepath.Join(imageDir, hashA+".jpeg"))
	assert.True(t, os.IsNotExist(err), "non-image payload must not land in the image directory")

	have, err = st.IsDownloaded(context.Background(), hashB)
	require.NoError(t, err)
	assert.True(t, have)
}
