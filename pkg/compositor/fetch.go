package compositor

import (
	"context"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"go.trai.ch/zerr"
	_ "golang.org/x/image/bmp"  // register BMP decoder
	_ "golang.org/x/image/webp" // register WebP decoder
)

var (
	errNoFetcher  = zerr.New("no image fetcher configured")
	errEmptyImage = zerr.New("fetcher returned no image")
)

// URLFetcher loads images over HTTP(S) or from the local filesystem.
// Plain paths and file:// URLs are read from disk, relative to Dir.
type URLFetcher struct {
	Client *http.Client
	Dir    string
}

// Fetch implements Fetcher.
func (f URLFetcher) Fetch(ctx context.Context, url string) (image.Image, error) {
	if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		return f.fetchHTTP(ctx, url)
	}
	return f.fetchFile(strings.TrimPrefix(url, "file://"))
}

func (f URLFetcher) fetchHTTP(ctx context.Context, url string) (image.Image, error) {
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to build image request"), "url", url)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to fetch image"), "url", url)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, zerr.With(zerr.With(zerr.New("unexpected image response"), "url", url), "status", resp.StatusCode)
	}
	return decode(resp.Body, url)
}

func (f URLFetcher) fetchFile(path string) (image.Image, error) {
	if f.Dir != "" && !filepath.IsAbs(path) {
		path = filepath.Join(f.Dir, path)
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to open image"), "path", path)
	}
	defer file.Close()
	return decode(file, path)
}

func decode(r io.Reader, src string) (image.Image, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to decode image"), "source", src)
	}
	return img, nil
}
