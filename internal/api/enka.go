package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"player-cards/internal/config"
	"player-cards/internal/constants"
	"player-cards/internal/domain"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
)

var uidPattern = regexp.MustCompile(`^[1-9][0-9]{8,9}$`)

type EnkaClient struct {
	baseURL   string
	userAgent string
	client    *fasthttp.Client
	catalog   *Catalog
}

func NewEnkaClient(cfg *config.Config, catalog *Catalog) *EnkaClient {
	return newEnkaClient(cfg.EnkaBaseURL, cfg.EnkaUserAgent, catalog, &fasthttp.Client{
		MaxConnsPerHost:     100,
		ReadTimeout:         10 * time.Second,
		WriteTimeout:        10 * time.Second,
		MaxIdleConnDuration: 1 * time.Minute,
	})
}

func newEnkaClient(baseURL, userAgent string, catalog *Catalog, client *fasthttp.Client) *EnkaClient {
	return &EnkaClient{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		client:    client,
		catalog:   catalog,
	}
}

// AssetURL returns the remote URL of a UI asset.
func (c *EnkaClient) AssetURL(icon string) string {
	if icon == "" {
		return ""
	}
	return c.baseURL + constants.EnkaUIAssetsPath + icon + ".png"
}

// FetchProfile downloads and decodes the showcase of uid. Every failure is
// a *domain.Error with one of the fetch kinds.
func (c *EnkaClient) FetchProfile(ctx context.Context, uid int64) (*domain.PlayerProfile, error) {
	if !uidPattern.MatchString(strconv.FormatInt(uid, 10)) {
		return nil, domain.NewError(domain.KindInvalidIdentifier, fmt.Errorf("malformed uid %d", uid))
	}

	body, err := c.doRequest(ctx, fmt.Sprintf("%s/api/uid/%d", c.baseURL, uid))
	if err != nil {
		return nil, err
	}

	payload, err := decodePayload(body)
	if err != nil {
		return nil, domain.NewError(domain.KindServiceUnknown, fmt.Errorf("decode payload: %w", err))
	}

	profile := c.toProfile(uid, payload)
	profile.FetchedAt = time.Now().UTC()
	return profile, nil
}

func (c *EnkaClient) doRequest(ctx context.Context, url string) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	var err error
	if deadline, ok := ctx.Deadline(); ok {
		err = c.client.DoDeadline(req, resp, deadline)
	} else {
		err = c.client.Do(req, resp)
	}
	if err != nil {
		return nil, classifyTransport(err)
	}

	if kind, failed := classifyStatus(resp.StatusCode()); failed {
		return nil, domain.NewError(kind, fmt.Errorf("API error: %d", resp.StatusCode()))
	}

	return append([]byte(nil), resp.Body()...), nil
}

func classifyStatus(code int) (domain.ErrorKind, bool) {
	switch code {
	case fasthttp.StatusOK:
		return "", false
	case fasthttp.StatusBadRequest:
		return domain.KindInvalidIdentifier, true
	case fasthttp.StatusNotFound:
		return domain.KindNotFound, true
	case fasthttp.StatusFailedDependency:
		return domain.KindServiceMaintenance, true
	case fasthttp.StatusTooManyRequests:
		return domain.KindRateLimited, true
	case fasthttp.StatusInternalServerError:
		return domain.KindServiceError, true
	case fasthttp.StatusServiceUnavailable:
		return domain.KindServiceUnknown, true
	}
	if code >= 500 {
		return domain.KindServiceError, true
	}
	return domain.KindTransportError, true
}

func classifyTransport(err error) error {
	var netErr net.Error
	switch {
	case errors.Is(err, fasthttp.ErrTimeout),
		errors.Is(err, fasthttp.ErrDialTimeout),
		errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &netErr) && netErr.Timeout():
		return domain.NewError(domain.KindTimeout, err)
	}
	return domain.NewError(domain.KindTransportError, err)
}
