package service

import (
	"context"
	"fmt"
	"math"
	"player-cards/internal/domain"
	"player-cards/internal/pagination"
	"player-cards/internal/render"
	"player-cards/internal/repository"

	"github.com/rs/zerolog"
)

const (
	NoticeUnavailable = "This button is unavailable"
	NoticeNotOwner    = "This is not your button"
	NoticeRefreshed   = "Character list updated"
)

// Reply is what a user sees after a roster request or a button press.
// Alert marks notices that should be shown as a popup rather than a message.
type Reply struct {
	Notice string
	Alert  bool
	Grid   *pagination.Grid
	Image  *render.Result
}

// CardService drives the roster selection flow from stateless button tokens.
type CardService struct {
	fetcher      *ProfileFetcher
	cache        *repository.ProfileCache
	orchestrator *Orchestrator
	logger       zerolog.Logger
}

func NewCardService(fetcher *ProfileFetcher, cache *repository.ProfileCache, orchestrator *Orchestrator, logger zerolog.Logger) *CardService {
	return &CardService{fetcher: fetcher, cache: cache, orchestrator: orchestrator, logger: logger}
}

// ListCharacters returns the selection grid for uid as seen by user.
func (s *CardService) ListCharacters(ctx context.Context, user, uid int64, page int) (*Reply, error) {
	allowRefresh := s.cache.TTL(ctx, uid) < 0

	profile, err := s.orchestrator.Resolve(ctx, uid, false)
	if err != nil {
		if kind, ok := domain.KindOf(err); ok && kind == domain.KindProfileNotLoaded {
			grid := pagination.RefreshOnly(user, uid)
			return &Reply{Notice: domain.UserMessage(err), Grid: &grid}, nil
		}
		return nil, err
	}

	grid := pagination.Build(pagination.Request{
		Characters:   profile.Characters,
		UID:          uid,
		Owner:        user,
		Page:         page,
		AllowRefresh: allowRefresh,
	})
	reply := &Reply{Grid: &grid}
	if len(grid.Rows) == 0 {
		reply.Notice = domain.UserMessage(domain.NewError(domain.KindNoShowcaseData, nil))
		if allowRefresh {
			refresh := pagination.RefreshOnly(user, uid)
			reply.Grid = &refresh
		}
	}
	return reply, nil
}

// HandleAction resumes the flow encoded in a button token. Ownership is
// checked before any state is read.
func (s *CardService) HandleAction(ctx context.Context, user int64, raw string) (*Reply, error) {
	tok := pagination.ParseToken(raw)
	if !tok.Valid {
		return &Reply{Notice: NoticeUnavailable, Alert: true}, nil
	}
	if !tok.OwnedBy(user) {
		s.logger.Warn().Int64("user", user).Int64("owner", tok.Owner).Int64("uid", tok.UID).Msg("rejected foreign button press")
		return &Reply{Notice: NoticeNotOwner, Alert: true}, nil
	}

	switch tok.Kind {
	case pagination.SelectPage:
		return s.ListCharacters(ctx, user, tok.UID, tok.Page)
	case pagination.SelectCharacter:
		res, err := s.orchestrator.RenderCard(ctx, tok.UID, CardRequest{Character: tok.Character})
		if err != nil {
			return nil, err
		}
		return &Reply{Image: res}, nil
	case pagination.SelectRefresh:
		return s.refresh(ctx, user, tok.UID)
	default:
		return &Reply{Notice: NoticeUnavailable, Alert: true}, nil
	}
}

func (s *CardService) refresh(ctx context.Context, user, uid int64) (*Reply, error) {
	if ttl := s.cache.TTL(ctx, uid); ttl > 0 {
		wait := int(math.Ceil(ttl.Seconds()))
		return &Reply{Notice: fmt.Sprintf("Please wait %d seconds before refreshing", wait), Alert: true}, nil
	}

	profile, err := s.fetcher.Fetch(ctx, uid)
	if err != nil {
		return nil, err
	}
	if !profile.HasRoster() || len(profile.Characters) == 0 {
		return nil, domain.NewError(domain.KindNoShowcaseData, nil)
	}

	grid := pagination.Build(pagination.Request{
		Characters: profile.Characters,
		UID:        uid,
		Owner:      user,
		Page:       1,
	})
	holder, err := s.orchestrator.RenderHolder(ctx, profile, NoticeRefreshed)
	if err != nil {
		return nil, err
	}
	return &Reply{Notice: NoticeRefreshed, Grid: &grid, Image: holder}, nil
}
