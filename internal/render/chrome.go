package render

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/url"
	"os"
	"path/filepath"
	"player-cards/internal/config"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

// ChromeRenderer executes HTML templates and screenshots them in headless
// Chrome. The page is loaded from a file so mirrored file:// images resolve.
type ChromeRenderer struct {
	templates *template.Template
	workDir   string
	remoteURL string
	logger    zerolog.Logger

	mu      sync.Mutex
	browser *rod.Browser
}

func NewChromeRenderer(cfg *config.Config, logger zerolog.Logger) (*ChromeRenderer, error) {
	tmpl, err := template.New("").Funcs(templateFuncs).ParseGlob(filepath.Join(cfg.TemplateDir, "*.html"))
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	workDir, err := filepath.Abs(filepath.Join(cfg.MirrorDir, "pages"))
	if err != nil {
		return nil, fmt.Errorf("resolve render dir: %w", err)
	}
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, fmt.Errorf("create render dir: %w", err)
	}
	return &ChromeRenderer{
		templates: tmpl,
		workDir:   workDir,
		remoteURL: cfg.ChromeURL,
		logger:    logger,
	}, nil
}

var templateFuncs = template.FuncMap{
	"add": func(a, b int) int { return a + b },
	"pct": func(v float64) string { return fmt.Sprintf("%.1f%%", v*100) },
	"num": func(v float64) string { return fmt.Sprintf("%.0f", v) },
	"one": func(v float64) string { return fmt.Sprintf("%.1f", v) },
	// mirrored images are file:// references, which html/template would otherwise reject
	"src": func(s string) template.URL { return template.URL(s) },
}

// HTML executes the named template without rendering it.
func (r *ChromeRenderer) HTML(name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.templates.ExecuteTemplate(&buf, name+".html", data); err != nil {
		return nil, fmt.Errorf("execute template %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

func (r *ChromeRenderer) Render(ctx context.Context, name string, data any, opts Options) (*Result, error) {
	html, err := r.HTML(name, data)
	if err != nil {
		return nil, err
	}

	suffix, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("failed to generate page name: %w", err)
	}
	pagePath := filepath.Join(r.workDir, name+"-"+suffix+".html")
	if err := os.WriteFile(pagePath, html, 0o644); err != nil {
		return nil, fmt.Errorf("write page: %w", err)
	}
	defer os.Remove(pagePath)

	b, err := r.connect(ctx)
	if err != nil {
		return nil, err
	}
	page, err := b.Page(proto.TargetCreateTarget{URL: ""})
	if err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}
	defer page.Close()
	page = page.Context(ctx)

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             opts.Viewport.Width,
		Height:            opts.Viewport.Height,
		DeviceScaleFactor: 1,
	}); err != nil {
		return nil, fmt.Errorf("set viewport: %w", err)
	}

	pageURL := (&url.URL{Scheme: "file", Path: filepath.ToSlash(pagePath)}).String()
	if err := page.Navigate(pageURL); err != nil {
		return nil, fmt.Errorf("navigate: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("wait load: %w", err)
	}
	if opts.Selector != "" {
		if _, err := page.Element(opts.Selector); err != nil {
			return nil, fmt.Errorf("wait for %s: %w", opts.Selector, err)
		}
	}

	img, err := page.Screenshot(opts.FullPage, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return nil, fmt.Errorf("screenshot: %w", err)
	}

	r.logger.Debug().Str("template", name).Int("bytes", len(img)).Msg("template rendered")
	return &Result{Template: name, Image: img, Filename: opts.Filename, Caption: opts.Caption}, nil
}

func (r *ChromeRenderer) connect(ctx context.Context) (*rod.Browser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.browser != nil {
		return r.browser, nil
	}

	wsURL := r.remoteURL
	if wsURL == "" {
		u, err := launcher.New().Headless(true).Launch()
		if err != nil {
			return nil, fmt.Errorf("launch chrome: %w", err)
		}
		wsURL = u
		r.logger.Info().Str("url", wsURL).Msg("launched local chrome")
	} else {
		u, err := launcher.ResolveURL(wsURL)
		if err != nil {
			return nil, fmt.Errorf("resolve chrome url: %w", err)
		}
		wsURL = u
	}

	b := rod.New().ControlURL(wsURL).Context(ctx)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("connect chrome: %w", err)
	}
	// the browser outlives the request that happened to start it
	r.browser = b.Context(context.Background())
	return r.browser, nil
}

func (r *ChromeRenderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.browser == nil {
		return nil
	}
	err := r.browser.Close()
	r.browser = nil
	return err
}
