// Package mirror copies remote images to local files so renders do not
// depend on the remote host.
package mirror

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"player-cards/internal/config"
	"player-cards/internal/constants"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
	"golang.org/x/sync/singleflight"
)

// Mirror downloads each remote URL at most once and returns a stable
// file:// reference for it.
type Mirror struct {
	dir    string
	client *fasthttp.Client
	group  singleflight.Group
	logger zerolog.Logger
}

func New(cfg *config.Config, logger zerolog.Logger) (*Mirror, error) {
	return NewWithClient(cfg.MirrorDir, &fasthttp.Client{
		MaxConnsPerHost:     32,
		ReadTimeout:         15 * time.Second,
		WriteTimeout:        10 * time.Second,
		MaxIdleConnDuration: 1 * time.Minute,
	}, logger)
}

func NewWithClient(dir string, client *fasthttp.Client, logger zerolog.Logger) (*Mirror, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve mirror dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create mirror dir: %w", err)
	}
	return &Mirror{dir: abs, client: client, logger: logger}, nil
}

// Mirror returns the local reference for remoteURL, downloading it first
// if it is not on disk yet. Concurrent calls for one URL share a download,
// which runs under its own timeout and outlives any single waiter.
func (m *Mirror) Mirror(ctx context.Context, remoteURL string) (string, error) {
	if remoteURL == "" {
		return "", errors.New("mirror: empty url")
	}
	local := m.pathFor(remoteURL)
	if _, err := os.Stat(local); err == nil {
		return fileURI(local), nil
	}

	ch := m.group.DoChan(local, func() (any, error) {
		if _, err := os.Stat(local); err == nil {
			return nil, nil
		}
		dlCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), constants.MirrorTimeout)
		defer cancel()
		return nil, m.download(dlCtx, remoteURL, local)
	})
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return fileURI(local), nil
	}
}

func (m *Mirror) pathFor(remoteURL string) string {
	sum := sha256.Sum256([]byte(remoteURL))
	name := hex.EncodeToString(sum[:])[:32]
	ext := ".png"
	if u, err := url.Parse(remoteURL); err == nil {
		if e := path.Ext(u.Path); e != "" && len(e) <= 5 {
			ext = e
		}
	}
	return filepath.Join(m.dir, name+ext)
}

func (m *Mirror) download(ctx context.Context, remoteURL, local string) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(remoteURL)
	req.Header.SetMethod(fasthttp.MethodGet)

	var err error
	if deadline, ok := ctx.Deadline(); ok {
		err = m.client.DoDeadline(req, resp, deadline)
	} else {
		err = m.client.Do(req, resp)
	}
	if err != nil {
		return fmt.Errorf("download %s: %w", remoteURL, err)
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		return fmt.Errorf("download %s: status %d", remoteURL, resp.StatusCode())
	}
	body := resp.Body()
	if len(body) == 0 {
		return fmt.Errorf("download %s: empty body", remoteURL)
	}

	suffix, err := gonanoid.New()
	if err != nil {
		return fmt.Errorf("failed to generate temp name: %w", err)
	}
	tmp := local + "." + suffix + ".tmp"
	if err := os.WriteFile(tmp, body, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, local); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename %s: %w", tmp, err)
	}

	m.logger.Debug().Str("url", remoteURL).Str("path", local).Int("bytes", len(body)).Msg("image mirrored")
	return nil
}

func fileURI(p string) string {
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(p)}).String()
}
