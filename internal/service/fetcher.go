package service

import (
	"context"
	"errors"
	"player-cards/internal/constants"
	"player-cards/internal/domain"
	"player-cards/internal/repository"

	"github.com/rs/zerolog"
)

type ProfileSource interface {
	FetchProfile(ctx context.Context, uid int64) (*domain.PlayerProfile, error)
}

// ProfileFetcher serves profiles from the cache and falls through to the
// remote source on a miss. Overlapping fetches for one uid are not
// coalesced; the last merge to finish wins.
type ProfileFetcher struct {
	source  ProfileSource
	cache   *repository.ProfileCache
	history *repository.HistoryStore
	logger  zerolog.Logger
}

func NewProfileFetcher(source ProfileSource, cache *repository.ProfileCache, history *repository.HistoryStore, logger zerolog.Logger) *ProfileFetcher {
	return &ProfileFetcher{source: source, cache: cache, history: history, logger: logger}
}

func (f *ProfileFetcher) Fetch(ctx context.Context, uid int64) (*domain.PlayerProfile, error) {
	if profile, ok := f.cache.Get(ctx, uid); ok {
		f.logger.Debug().Int64("uid", uid).Msg("returning cached profile")
		return profile, nil
	}

	f.logger.Info().Int64("uid", uid).Msg("fetching profile from remote")
	apiCtx, apiCancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
	fresh, err := f.source.FetchProfile(apiCtx, uid)
	apiCancel()
	if err != nil {
		var derr *domain.Error
		if !errors.As(err, &derr) || !derr.Kind.IsFetchKind() {
			derr = domain.NewError(domain.KindTransportError, err)
		}
		f.logger.Error().Err(err).Int64("uid", uid).Str("kind", string(derr.Kind)).Msg("failed to fetch profile")
		return nil, derr
	}

	// The remote call already cost us; finish persisting even if the caller left.
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), constants.DatabaseTimeout)
	defer cancel()

	merged, err := f.history.MergeAndSave(writeCtx, fresh)
	if err != nil {
		f.logger.Error().Err(err).Int64("uid", uid).Msg("failed to save history")
		return nil, domain.NewError(domain.KindServiceUnknown, err)
	}
	if err := f.cache.Set(writeCtx, merged); err != nil {
		f.logger.Warn().Err(err).Int64("uid", uid).Msg("failed to cache profile")
	}

	f.logger.Info().Int64("uid", uid).Int("characters", len(merged.Characters)).Msg("profile fetched successfully")
	return merged, nil
}
