package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"player-cards/internal/cache"
	"player-cards/internal/constants"
	"player-cards/internal/domain"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

// snapshotVersion tags the encoded snapshot shape stored in caches.
const snapshotVersion = 1

type snapshotEnvelope struct {
	Version int                   `json:"v"`
	Profile *domain.PlayerProfile `json:"profile"`
}

func encodeSnapshot(p *domain.PlayerProfile) ([]byte, error) {
	return json.Marshal(snapshotEnvelope{Version: snapshotVersion, Profile: p})
}

func decodeSnapshot(raw []byte) (*domain.PlayerProfile, error) {
	var env snapshotEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, err
	}
	if env.Version != snapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d", env.Version)
	}
	if env.Profile == nil {
		return nil, errors.New("snapshot has no profile")
	}
	return env.Profile, nil
}

// ProfileCache holds the most recently fetched snapshot per uid for a fixed TTL.
type ProfileCache struct {
	store  *cache.Namespaced
	ttl    time.Duration
	logger zerolog.Logger
}

func NewProfileCache(store cache.Store, ttl time.Duration, logger zerolog.Logger) *ProfileCache {
	return &ProfileCache{
		store:  cache.NewNamespaced(store, constants.ProfileNamespace),
		ttl:    ttl,
		logger: logger,
	}
}

// Get returns the cached snapshot, or ok=false on miss. Store errors and
// undecodable values are logged and reported as a miss.
func (c *ProfileCache) Get(ctx context.Context, uid int64) (*domain.PlayerProfile, bool) {
	key := strconv.FormatInt(uid, 10)
	raw, err := c.store.Get(ctx, key)
	if errors.Is(err, cache.ErrMiss) {
		return nil, false
	}
	if err != nil {
		c.logger.Warn().Err(err).Int64("uid", uid).Msg("profile cache read failed, treating as miss")
		return nil, false
	}
	profile, err := decodeSnapshot(raw)
	if err != nil {
		c.logger.Warn().Err(err).Int64("uid", uid).Msg("corrupt profile cache entry, treating as miss")
		return nil, false
	}
	return profile, true
}

// Set overwrites the entry for the profile's uid and resets its expiry.
func (c *ProfileCache) Set(ctx context.Context, profile *domain.PlayerProfile) error {
	raw, err := encodeSnapshot(profile)
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}
	if err := c.store.Set(ctx, strconv.FormatInt(profile.UID, 10), raw, c.ttl); err != nil {
		return fmt.Errorf("failed to cache profile: %w", err)
	}
	return nil
}

// TTL returns the remaining lifetime, negative when missing or expired.
func (c *ProfileCache) TTL(ctx context.Context, uid int64) time.Duration {
	ttl, err := c.store.TTL(ctx, strconv.FormatInt(uid, 10))
	if err != nil {
		c.logger.Warn().Err(err).Int64("uid", uid).Msg("profile cache ttl failed")
		return cache.TTLMissing
	}
	return ttl
}
