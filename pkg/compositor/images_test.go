package compositor

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ha1tch/graphcanvas/pkg/loop"
)

func TestImageCacheTickEvicts(t *testing.T) {
	block := make(chan struct{})
	t.Cleanup(func() { close(block) })
	fetcher := FetcherFunc(func(ctx context.Context, url string) (image.Image, error) {
		<-block
		return nil, ctx.Err()
	})
	cache := NewImageCache(loop.New(clockwork.NewFakeClock()), fetcher, log.New(io.Discard), 2, nil)
	t.Cleanup(cache.Close)

	_, ok := cache.GetOrFetch("a.png")
	assert.False(t, ok)
	assert.Equal(t, 1, cache.Len())

	cache.Tick()
	assert.Equal(t, 1, cache.Len())

	cache.GetOrFetch("a.png")
	cache.Tick()
	assert.Equal(t, 1, cache.Len(), "a lookup resets the time to live")

	cache.Tick()
	assert.Zero(t, cache.Len())
}

func TestImageCacheWithoutFetcherFails(t *testing.T) {
	cache := NewImageCache(loop.New(clockwork.NewFakeClock()), nil, log.New(io.Discard), 0, nil)
	_, ok := cache.GetOrFetch("a.png")
	assert.False(t, ok)
	assert.True(t, cache.Failed("a.png"))
}

func writePNG(t *testing.T, w io.Writer) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{255, 0, 0, 255})
	require.NoError(t, png.Encode(w, img))
}

func TestURLFetcherReadsFiles(t *testing.T) {
	dir := t.TempDir()
	f, err := os.Create(filepath.Join(dir, "dot.png"))
	require.NoError(t, err)
	writePNG(t, f)
	require.NoError(t, f.Close())

	fetcher := URLFetcher{Dir: dir}
	img, err := fetcher.Fetch(context.Background(), "dot.png")
	require.NoError(t, err)
	assert.Equal(t, 4, img.Bounds().Dx())

	_, err = fetcher.Fetch(context.Background(), "file://"+filepath.Join(dir, "dot.png"))
	require.NoError(t, err)

	_, err = fetcher.Fetch(context.Background(), "missing.png")
	assert.ErrorContains(t, err, "failed to open image")
}

func TestURLFetcherHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/dot.png":
			w.Header().Set("Content-Type", "image/png")
			writePNG(t, w)
		case "/text":
			_, _ = io.WriteString(w, "not an image")
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	fetcher := URLFetcher{Client: srv.Client()}
	img, err := fetcher.Fetch(context.Background(), srv.URL+"/dot.png")
	require.NoError(t, err)
	assert.Equal(t, 4, img.Bounds().Dy())

	_, err = fetcher.Fetch(context.Background(), srv.URL+"/missing")
	assert.ErrorContains(t, err, "unexpected image response")

	_, err = fetcher.Fetch(context.Background(), srv.URL+"/text")
	assert.ErrorContains(t, err, "failed to decode image")
}
