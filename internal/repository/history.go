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

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

type historyRecord struct {
	Revision  string          `json:"revision"`
	Merges    int             `json:"merges"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	Snapshot  json.RawMessage `json:"snapshot"`
}

// HistoryStore keeps the last merged snapshot per uid without expiry.
type HistoryStore struct {
	store  *cache.Namespaced
	logger zerolog.Logger
	now    func() time.Time
}

func NewHistoryStore(store cache.Store, logger zerolog.Logger) *HistoryStore {
	return &HistoryStore{
		store:  cache.NewNamespaced(store, constants.HistoryNamespace),
		logger: logger,
		now:    time.Now,
	}
}

// Load returns the stored snapshot or ok=false when none exists or it is unreadable.
func (h *HistoryStore) Load(ctx context.Context, uid int64) (*domain.PlayerProfile, bool) {
	rec, ok := h.loadRecord(ctx, uid)
	if !ok {
		return nil, false
	}
	profile, err := decodeSnapshot(rec.Snapshot)
	if err != nil {
		h.logger.Warn().Err(err).Int64("uid", uid).Str("revision", rec.Revision).Msg("corrupt history snapshot")
		return nil, false
	}
	return profile, true
}

// MergeAndSave merges fresh into the previous snapshot, persists the result
// and returns it.
func (h *HistoryStore) MergeAndSave(ctx context.Context, fresh *domain.PlayerProfile) (*domain.PlayerProfile, error) {
	if fresh == nil {
		return nil, errors.New("merge: nil profile")
	}
	now := h.now()
	rec, exists := h.loadRecord(ctx, fresh.UID)

	merged := fresh
	if exists {
		if prev, err := decodeSnapshot(rec.Snapshot); err == nil {
			merged = Merge(prev, fresh)
		} else {
			h.logger.Warn().Err(err).Int64("uid", fresh.UID).Msg("previous history unreadable, replacing")
		}
	} else {
		rec = historyRecord{CreatedAt: now}
	}

	revision, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("failed to generate revision: %w", err)
	}
	snapshot, err := encodeSnapshot(merged)
	if err != nil {
		return nil, fmt.Errorf("failed to encode history: %w", err)
	}
	rec.Revision = revision
	rec.Merges++
	rec.UpdatedAt = now
	rec.Snapshot = snapshot

	raw, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to encode history record: %w", err)
	}
	if err := h.store.Set(ctx, strconv.FormatInt(fresh.UID, 10), raw, 0); err != nil {
		return nil, fmt.Errorf("failed to save history: %w", err)
	}

	h.logger.Debug().
		Int64("uid", fresh.UID).
		Str("revision", revision).
		Int("merges", rec.Merges).
		Int("characters", len(merged.Characters)).
		Msg("history merged")
	return merged, nil
}

func (h *HistoryStore) loadRecord(ctx context.Context, uid int64) (historyRecord, bool) {
	var rec historyRecord
	raw, err := h.store.Get(ctx, strconv.FormatInt(uid, 10))
	if errors.Is(err, cache.ErrMiss) {
		return rec, false
	}
	if err != nil {
		h.logger.Warn().Err(err).Int64("uid", uid).Msg("history read failed")
		return rec, false
	}
	if err := json.Unmarshal(raw, &rec); err != nil {
		h.logger.Warn().Err(err).Int64("uid", uid).Msg("corrupt history record")
		return rec, false
	}
	return rec, true
}

// Merge combines prev and fresh. The roster is replaced wholesale by the
// fresh one, absent or empty included. Player display fields keep the
// previous value only when fresh leaves them empty.
func Merge(prev, fresh *domain.PlayerProfile) *domain.PlayerProfile {
	out := *fresh
	if out.Player.Nickname == "" {
		out.Player.Nickname = prev.Player.Nickname
	}
	if out.Player.Level == 0 {
		out.Player.Level = prev.Player.Level
	}
	if out.Player.Signature == "" {
		out.Player.Signature = prev.Player.Signature
	}
	if out.Player.WorldLevel == 0 {
		out.Player.WorldLevel = prev.Player.WorldLevel
	}
	return &out
}
