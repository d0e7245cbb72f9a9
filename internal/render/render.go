// Package render turns a template and a data payload into an image.
package render

import (
	"context"
	"time"
)

type Viewport struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type Options struct {
	Viewport Viewport
	FullPage bool
	// Selector, when set, must match an element before the capture is taken.
	Selector string
	// TTL is how long the produced image may be reused for an identical request.
	TTL      time.Duration
	Filename string
	Caption  string
}

// Result is a rendered image plus the metadata needed to deliver it.
type Result struct {
	Template string
	Image    []byte
	Filename string
	Caption  string
	Cached   bool
}

type Renderer interface {
	Render(ctx context.Context, template string, data any, opts Options) (*Result, error)
}
