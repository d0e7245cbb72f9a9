package mirror

import (
	"context"
	"errors"
	"net"
	"net/url"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
)

func newTestMirror(t *testing.T, handler fasthttp.RequestHandler) *Mirror {
	t.Helper()
	ln := fasthttputil.NewInmemoryListener()
	go func() { _ = fasthttp.Serve(ln, handler) }()
	t.Cleanup(func() { _ = ln.Close() })

	client := &fasthttp.Client{
		Dial: func(addr string) (net.Conn, error) { return ln.Dial() },
	}
	m, err := NewWithClient(t.TempDir(), client, zerolog.Nop())
	if err != nil {
		t.Fatalf("new mirror: %v", err)
	}
	return m
}

func localPath(t *testing.T, ref string) string {
	t.Helper()
	u, err := url.Parse(ref)
	if err != nil || u.Scheme != "file" {
		t.Fatalf("expected file uri, got %q", ref)
	}
	return u.Path
}

func TestMirrorDownloadsOnce(t *testing.T) {
	var hits atomic.Int32
	m := newTestMirror(t, func(ctx *fasthttp.RequestCtx) {
		hits.Add(1)
		ctx.SetBodyString("png-bytes")
	})
	ctx := context.Background()

	first, err := m.Mirror(ctx, "http://assets.test/ui/UI_AvatarIcon_Diluc.png")
	if err != nil {
		t.Fatalf("mirror: %v", err)
	}
	second, err := m.Mirror(ctx, "http://assets.test/ui/UI_AvatarIcon_Diluc.png")
	if err != nil {
		t.Fatalf("mirror: %v", err)
	}
	if first != second {
		t.Fatalf("expected stable reference, got %s and %s", first, second)
	}
	if hits.Load() != 1 {
		t.Fatalf("expected 1 download, got %d", hits.Load())
	}

	data, err := os.ReadFile(localPath(t, first))
	if err != nil {
		t.Fatalf("read mirrored file: %v", err)
	}
	if string(data) != "png-bytes" {
		t.Fatalf("unexpected content %q", data)
	}
	if !strings.HasSuffix(first, ".png") {
		t.Fatalf("expected .png extension, got %s", first)
	}
}

func TestMirrorConcurrentCallsShareDownload(t *testing.T) {
	var hits atomic.Int32
	release := make(chan struct{})
	m := newTestMirror(t, func(ctx *fasthttp.RequestCtx) {
		hits.Add(1)
		<-release
		ctx.SetBodyString("img")
	})

	var wg sync.WaitGroup
	refs := make([]string, 8)
	errs := make([]error, 8)
	for i := range refs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			refs[i], errs[i] = m.Mirror(context.Background(), "http://assets.test/a.webp")
		}()
	}
	close(release)
	wg.Wait()

	for i := range refs {
		if errs[i] != nil {
			t.Fatalf("mirror %d: %v", i, errs[i])
		}
		if refs[i] != refs[0] {
			t.Fatalf("expected identical references, got %s and %s", refs[0], refs[i])
		}
	}
	if !strings.HasSuffix(refs[0], ".webp") {
		t.Fatalf("expected .webp extension, got %s", refs[0])
	}
	if n := hits.Load(); n < 1 || n > 8 {
		t.Fatalf("unexpected download count %d", n)
	}
}

func TestMirrorDownloadSurvivesFirstCallerLeaving(t *testing.T) {
	var hits atomic.Int32
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	var once sync.Once
	unblock := func() { once.Do(func() { close(release) }) }
	t.Cleanup(unblock)

	m := newTestMirror(t, func(ctx *fasthttp.RequestCtx) {
		hits.Add(1)
		started <- struct{}{}
		<-release
		ctx.SetBodyString("png-bytes")
	})
	const asset = "http://assets.test/ui/UI_Gacha_AvatarImg_Klee.png"

	first, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	errc := make(chan error, 1)
	go func() {
		_, err := m.Mirror(first, asset)
		errc <- err
	}()
	<-started
	if err := <-errc; !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected the first caller to give up, got %v", err)
	}

	refc := make(chan string, 1)
	go func() {
		ref, err := m.Mirror(context.Background(), asset)
		if err != nil {
			t.Errorf("second caller: %v", err)
		}
		refc <- ref
	}()
	time.Sleep(20 * time.Millisecond)
	unblock()

	ref := <-refc
	if ref == "" {
		t.Fatalf("expected the shared download to complete")
	}
	if data, err := os.ReadFile(localPath(t, ref)); err != nil || string(data) != "png-bytes" {
		t.Fatalf("expected mirrored bytes, got %q (%v)", data, err)
	}
	if hits.Load() != 1 {
		t.Fatalf("expected one download, got %d", hits.Load())
	}
}

func TestMirrorDistinctURLs(t *testing.T) {
	m := newTestMirror(t, func(ctx *fasthttp.RequestCtx) {
		ctx.SetBody(ctx.Path())
	})
	a, err := m.Mirror(context.Background(), "http://assets.test/a.png")
	if err != nil {
		t.Fatalf("mirror a: %v", err)
	}
	b, err := m.Mirror(context.Background(), "http://assets.test/b.png")
	if err != nil {
		t.Fatalf("mirror b: %v", err)
	}
	if a == b {
		t.Fatalf("expected distinct files for distinct urls")
	}
}

func TestMirrorFailures(t *testing.T) {
	m := newTestMirror(t, func(ctx *fasthttp.RequestCtx) {
		switch string(ctx.Path()) {
		case "/missing.png":
			ctx.SetStatusCode(fasthttp.StatusNotFound)
		case "/empty.png":
			ctx.SetStatusCode(fasthttp.StatusOK)
		}
	})
	for _, u := range []string{"", "http://assets.test/missing.png", "http://assets.test/empty.png"} {
		if _, err := m.Mirror(context.Background(), u); err == nil {
			t.Fatalf("expected error for %q", u)
		}
	}

	entries, err := os.ReadDir(m.dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no files after failed downloads, got %d", len(entries))
	}
}
