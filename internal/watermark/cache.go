package watermark

import (
	"image"
	"image/color"
	"math"
	"sync"

	"github.com/wb-go/wbf/zlog"
)

const (
	// Canvas sizes are bucketed so near-identical image dimensions in a
	// batch reuse one entry instead of churning the cache.
	canvasBucketSize = 50

	// Bounded LRU: long sessions with many size buckets must not grow
	// without limit.
	maxCacheEntries = 32
)

// fingerprint captures every setting that affects a cached bitmap's
// appearance or size. Rotation is excluded: it is applied at blit time.
type fingerprint struct {
	kind Kind

	content    string
	fontFamily string
	fontSize   float64
	fill       color.RGBA
	shadow     Effect
	outline    Effect
	glow       Effect

	logoID    string
	logoScale float64
	tint      color.RGBA
	tinted    bool

	opacity float64

	bucketW int
	bucketH int
}

func quantizeCanvas(v int) int {
	return int(math.Round(float64(v)/canvasBucketSize)) * canvasBucketSize
}

func fingerprintFor(s Settings, canvasW, canvasH int) fingerprint {
	fp := fingerprint{
		kind:    s.Kind,
		opacity: s.Opacity,
		bucketW: quantizeCanvas(canvasW),
		bucketH: quantizeCanvas(canvasH),
	}
	switch s.Kind {
	case KindLogo:
		fp.logoID = s.Logo.ID
		fp.logoScale = s.Logo.ScalePercent
		if s.Logo.Tint != nil {
			fp.tinted = true
			fp.tint = *s.Logo.Tint
		}
	default:
		fp.content = s.Text.Content
		fp.fontFamily = s.Text.FontFamily
		fp.fontSize = s.Text.FontSize
		fp.fill = s.Text.Fill
		fp.shadow = s.Text.Shadow
		fp.outline = s.Text.Outline
		fp.glow = s.Text.Glow
	}
	return fp
}

// CacheEntry is one memoized watermark bitmap. Content dimensions exclude
// the effect-bleed padding; consumers tiling the watermark must use them,
// not the total bitmap size.
type CacheEntry struct {
	Bitmap   *image.NRGBA
	TotalW   int
	TotalH   int
	ContentW int
	ContentH int
	Padding  int

	fp fingerprint
}

// RenderCache memoizes rendered watermark tiles by settings fingerprint.
// Entries are evicted least-recently-used; a kind switch clears the whole
// cache since appearance interpretation changes entirely.
type RenderCache struct {
	mu       sync.Mutex
	renderer *renderer
	entries  map[fingerprint]*CacheEntry
	order    []fingerprint
	kind     Kind
	haveKind bool
	logger   *zlog.Zerolog
}

func NewRenderCache(r *renderer, logger *zlog.Zerolog) *RenderCache {
	return &RenderCache{
		renderer: r,
		entries:  make(map[fingerprint]*CacheEntry),
		logger:   logger,
	}
}

// Ensure returns the cache entry for the settings at the given canvas size,
// building it on a miss. The second result reports whether it was a hit.
func (c *RenderCache) Ensure(s Settings, canvasW, canvasH int) (*CacheEntry, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.haveKind || c.kind != s.Kind {
		if c.haveKind && len(c.entries) > 0 {
			c.logger.Debug().
				Str("kind", string(s.Kind)).
				Int("evicted", len(c.entries)).
				Msg("Watermark kind changed, clearing render cache")
		}
		c.entries = make(map[fingerprint]*CacheEntry)
		c.order = c.order[:0]
		c.kind = s.Kind
		c.haveKind = true
	}

	fp := fingerprintFor(s, canvasW, canvasH)
	if entry, ok := c.entries[fp]; ok {
		c.touch(fp)
		return entry, true, nil
	}

	t, err := c.renderer.buildTile(s, canvasW, canvasH)
	if err != nil {
		return nil, false, err
	}

	entry := &CacheEntry{
		Bitmap:   t.bitmap,
		TotalW:   t.bitmap.Bounds().Dx(),
		TotalH:   t.bitmap.Bounds().Dy(),
		ContentW: t.contentW,
		ContentH: t.contentH,
		Padding:  t.padding,
		fp:       fp,
	}

	c.entries[fp] = entry
	c.order = append(c.order, fp)
	c.evictLocked()

	c.logger.Debug().
		Int("total_w", entry.TotalW).
		Int("total_h", entry.TotalH).
		Int("content_w", entry.ContentW).
		Int("content_h", entry.ContentH).
		Int("entries", len(c.entries)).
		Msg("Watermark tile rendered into cache")

	return entry, false, nil
}

// Clear drops every entry.
func (c *RenderCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[fingerprint]*CacheEntry)
	c.order = c.order[:0]
	c.haveKind = false
}

// Len returns the number of cached entries.
func (c *RenderCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *RenderCache) touch(fp fingerprint) {
	for i, key := range c.order {
		if key == fp {
			c.order = append(append(c.order[:i], c.order[i+1:]...), fp)
			return
		}
	}
}

func (c *RenderCache) evictLocked() {
	for len(c.order) > maxCacheEntries {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
}
