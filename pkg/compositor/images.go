package compositor

import (
	"context"
	"image"

	"github.com/charmbracelet/log"
	"github.com/disintegration/imaging"
	"golang.org/x/sync/singleflight"

	"github.com/ha1tch/graphcanvas/pkg/loop"
)

// DefaultImageKeepTicks is how many frames an unused bitmap survives.
const DefaultImageKeepTicks = 30 * 300

// Fetcher loads the bitmap behind a background-image URL. Fetch runs off
// the loop goroutine.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (image.Image, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, url string) (image.Image, error)

// Fetch calls f.
func (f FetcherFunc) Fetch(ctx context.Context, url string) (image.Image, error) {
	return f(ctx, url)
}

type imageEntry struct {
	img     image.Image
	ttl     int
	loading bool
	failed  bool
}

// ImageCache holds decoded background images by URL. Lookups and
// eviction run on the loop; fetches run on their own goroutines and post
// their result back.
type ImageCache struct {
	loop    *loop.Loop
	fetcher Fetcher
	logger  *log.Logger
	keep    int
	onLoad  func(url string)

	entries map[string]*imageEntry
	group   singleflight.Group

	ctx    context.Context
	cancel context.CancelFunc
}

// NewImageCache creates a cache. onLoad runs on the loop after each
// successful load.
func NewImageCache(l *loop.Loop, fetcher Fetcher, logger *log.Logger, keep int, onLoad func(url string)) *ImageCache {
	if keep <= 0 {
		keep = DefaultImageKeepTicks
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &ImageCache{
		loop:    l,
		fetcher: fetcher,
		logger:  logger,
		keep:    keep,
		onLoad:  onLoad,
		entries: make(map[string]*imageEntry),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// GetOrFetch returns the bitmap for url if it has finished loading. A
// first lookup starts the fetch. Every lookup resets the entry's time to
// live.
func (c *ImageCache) GetOrFetch(url string) (image.Image, bool) {
	if e, ok := c.entries[url]; ok {
		e.ttl = c.keep
		return e.img, e.img != nil
	}
	c.entries[url] = &imageEntry{ttl: c.keep, loading: true}
	if c.fetcher == nil {
		c.loaded(url, nil, errNoFetcher)
		return nil, false
	}

	go func() {
		v, err, _ := c.group.Do(url, func() (any, error) {
			return c.fetcher.Fetch(c.ctx, url)
		})
		img, _ := v.(image.Image)
		c.loop.Post(func() { c.loaded(url, img, err) })
	}()
	return nil, false
}

func (c *ImageCache) loaded(url string, img image.Image, err error) {
	if c.ctx.Err() != nil {
		return
	}
	e, ok := c.entries[url]
	if !ok {
		return
	}
	e.loading = false
	if err == nil && img == nil {
		err = errEmptyImage
	}
	if err != nil {
		e.failed = true
		c.logger.Warn("image load failed", "url", url, "err", err)
		return
	}
	e.img = imaging.Clone(img)
	if c.onLoad != nil {
		c.onLoad(url)
	}
}

// Tick ages every entry by one frame and evicts those that reach zero.
func (c *ImageCache) Tick() {
	for url, e := range c.entries {
		e.ttl--
		if e.ttl <= 0 {
			delete(c.entries, url)
		}
	}
}

// Len returns the number of cached entries, loaded or not.
func (c *ImageCache) Len() int { return len(c.entries) }

// Failed reports whether the load of url failed.
func (c *ImageCache) Failed(url string) bool {
	e, ok := c.entries[url]
	return ok && e.failed
}

// Close cancels in-flight fetches and drops late results.
func (c *ImageCache) Close() {
	c.cancel()
}
