package render

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"player-cards/internal/cache"
	"player-cards/internal/constants"

	"github.com/rs/zerolog"
)

// Cached reuses images for identical template, payload and viewport
// combinations for the lifetime the caller asks for.
type Cached struct {
	next   Renderer
	store  *cache.Namespaced
	logger zerolog.Logger
}

func NewCached(next Renderer, store cache.Store, logger zerolog.Logger) *Cached {
	return &Cached{
		next:   next,
		store:  cache.NewNamespaced(store, constants.RenderNamespace),
		logger: logger,
	}
}

func (c *Cached) Render(ctx context.Context, template string, data any, opts Options) (*Result, error) {
	key, err := renderKey(template, data, opts)
	if err != nil {
		return nil, err
	}

	if opts.TTL > 0 {
		img, err := c.store.Get(ctx, key)
		switch {
		case err == nil:
			c.logger.Debug().Str("template", template).Str("key", key).Msg("render cache hit")
			return &Result{Template: template, Image: img, Filename: opts.Filename, Caption: opts.Caption, Cached: true}, nil
		case !errors.Is(err, cache.ErrMiss):
			c.logger.Warn().Err(err).Str("key", key).Msg("render cache read failed")
		}
	}

	res, err := c.next.Render(ctx, template, data, opts)
	if err != nil {
		return nil, err
	}
	if opts.TTL > 0 {
		if err := c.store.Set(ctx, key, res.Image, opts.TTL); err != nil {
			c.logger.Warn().Err(err).Str("key", key).Msg("render cache write failed")
		}
	}
	return res, nil
}

func renderKey(template string, data any, opts Options) (string, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("encode render payload: %w", err)
	}
	h := sha256.New()
	fmt.Fprintf(h, "%s|%d|%d|%t|%s|", template, opts.Viewport.Width, opts.Viewport.Height, opts.FullPage, opts.Selector)
	h.Write(raw)
	return hex.EncodeToString(h.Sum(nil)), nil
}
