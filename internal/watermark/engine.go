// Package watermark implements the watermark layout and rendering engine:
// footprint estimation, spacing conversion, placement planning for single,
// grid and diagonal patterns, a fingerprint-keyed render cache and the
// compositor that blits cached tiles onto a target surface.
package watermark

import (
	"fmt"
	"image"
	"strings"

	"github.com/wb-go/wbf/zlog"
)

// Result reports what one render actually did, so callers can distinguish
// "nothing configured, skipped" from "drawn" and from errors.
type Result struct {
	Rendered bool
	Tiles    int
	CacheHit bool
}

// Engine ties the pipeline together: settings in, pixels on the surface
// out. One engine's render cache is shared across renders, so batches of
// similarly sized images reuse tiles.
type Engine struct {
	fonts     *FontLibrary
	estimator *Estimator
	cache     *RenderCache
	layout    *LayoutEngine
	comp      *Compositor
	logger    *zlog.Zerolog
}

func NewEngine(logger *zlog.Zerolog) (*Engine, error) {
	fonts, err := NewFontLibrary()
	if err != nil {
		return nil, fmt.Errorf("failed to create font library: %w", err)
	}
	return newEngineWithFonts(fonts, logger), nil
}

// NewEngineWithFontDir is NewEngine plus custom TTF families from dir.
func NewEngineWithFontDir(dir string, logger *zlog.Zerolog) (*Engine, error) {
	fonts, err := NewFontLibrary()
	if err != nil {
		return nil, fmt.Errorf("failed to create font library: %w", err)
	}
	if dir != "" {
		if err := fonts.LoadDir(dir); err != nil {
			logger.Warn().Err(err).Str("dir", dir).Msg("Some custom fonts failed to load")
		}
	}
	return newEngineWithFonts(fonts, logger), nil
}

func newEngineWithFonts(fonts *FontLibrary, logger *zlog.Zerolog) *Engine {
	estimator := NewEstimator(fonts)
	r := newRenderer(fonts, estimator)
	return &Engine{
		fonts:     fonts,
		estimator: estimator,
		cache:     NewRenderCache(r, logger),
		layout:    NewLayoutEngine(logger),
		comp:      NewCompositor(r, estimator, fonts, logger),
		logger:    logger,
	}
}

// Fonts exposes the engine's font library.
func (e *Engine) Fonts() *FontLibrary {
	return e.fonts
}

// InvalidateCache drops all cached tiles.
func (e *Engine) InvalidateCache() {
	e.cache.Clear()
}

// Render draws the configured watermark onto dst. A settings value with
// nothing to draw (empty text, missing logo) is skipped, not an error.
func (e *Engine) Render(dst *image.RGBA, s Settings) (Result, error) {
	if !e.configured(s) {
		return Result{Rendered: false}, nil
	}

	canvasW := dst.Bounds().Dx()
	canvasH := dst.Bounds().Dy()
	if canvasW <= 0 || canvasH <= 0 {
		return Result{}, fmt.Errorf("invalid canvas size %dx%d", canvasW, canvasH)
	}

	if s.Pattern == PatternSingle {
		fp := e.estimator.Estimate(s, canvasW, canvasH)
		p := e.layout.Plan(s, fp, canvasW, canvasH)[0]
		if err := e.comp.DrawSingle(dst, p, s); err != nil {
			// DrawSingle already fell back to the direct path.
			return Result{Rendered: true, Tiles: 1}, nil
		}
		return Result{Rendered: true, Tiles: 1}, nil
	}

	entry, hit, err := e.cache.Ensure(s, canvasW, canvasH)
	if err != nil {
		e.logger.Error().Err(err).Msg("Render cache build failed, falling back to direct draw")
		entry = nil
	}

	content := e.estimator.Estimate(s, canvasW, canvasH)
	if entry != nil {
		content = Footprint{W: entry.ContentW, H: entry.ContentH}
	}

	placements := e.layout.Plan(s, content, canvasW, canvasH)
	for _, p := range placements {
		e.comp.Draw(dst, p, entry, s)
	}

	return Result{
		Rendered: len(placements) > 0,
		Tiles:    len(placements),
		CacheHit: hit,
	}, nil
}

func (e *Engine) configured(s Settings) bool {
	switch s.Kind {
	case KindLogo:
		return s.Logo.Source != nil
	default:
		return strings.TrimSpace(s.Text.Content) != ""
	}
}
