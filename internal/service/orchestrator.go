package service

import (
	"context"
	"fmt"
	"player-cards/internal/constants"
	"player-cards/internal/domain"
	"player-cards/internal/render"
	"player-cards/internal/repository"
	"player-cards/internal/scoring"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

type ImageMirror interface {
	Mirror(ctx context.Context, remoteURL string) (string, error)
}

type CardRequest struct {
	Character string
	Refresh   bool
}

// CardPayload is everything the character card template needs.
type CardPayload struct {
	UID           int64             `json:"uid"`
	Character     domain.Character  `json:"character"`
	Stats         []domain.StatRow  `json:"stats"`
	Weapon        *domain.Equipment `json:"weapon"`
	Artifacts     []domain.Artifact `json:"artifacts"`
	ArtifactTotal scoring.SetScore  `json:"artifact_total"`
}

type HolderPayload struct {
	UID        int64             `json:"uid"`
	Nickname   string            `json:"nickname"`
	Level      int               `json:"level"`
	Signature  string            `json:"signature"`
	Characters []HolderCharacter `json:"characters"`
}

type HolderCharacter struct {
	Name          string `json:"name"`
	Level         int    `json:"level"`
	Element       string `json:"element"`
	Constellation int    `json:"constellation"`
	Rarity        int    `json:"rarity"`
	Icon          string `json:"icon"`
}

// Orchestrator resolves the freshest snapshot, scores the selected
// character and hands a render-local view to the renderer.
type Orchestrator struct {
	fetcher  *ProfileFetcher
	cache    *repository.ProfileCache
	history  *repository.HistoryStore
	scorer   *scoring.Engine
	mirror   ImageMirror
	renderer render.Renderer
	logger   zerolog.Logger
}

func NewOrchestrator(
	fetcher *ProfileFetcher,
	cache *repository.ProfileCache,
	history *repository.HistoryStore,
	scorer *scoring.Engine,
	mirror ImageMirror,
	renderer render.Renderer,
	logger zerolog.Logger,
) *Orchestrator {
	return &Orchestrator{
		fetcher:  fetcher,
		cache:    cache,
		history:  history,
		scorer:   scorer,
		mirror:   mirror,
		renderer: renderer,
		logger:   logger,
	}
}

// Resolve returns the cached snapshot, a fresh one when refresh is set,
// or the history snapshot as a fallback.
func (o *Orchestrator) Resolve(ctx context.Context, uid int64, refresh bool) (*domain.PlayerProfile, error) {
	if profile, ok := o.cache.Get(ctx, uid); ok {
		return profile, nil
	}
	if refresh {
		return o.fetcher.Fetch(ctx, uid)
	}
	if profile, ok := o.history.Load(ctx, uid); ok {
		o.logger.Debug().Int64("uid", uid).Msg("serving profile from history")
		return profile, nil
	}
	return nil, domain.NewError(domain.KindProfileNotLoaded, nil)
}

// Prepare builds the card payload for one character of uid's roster.
func (o *Orchestrator) Prepare(ctx context.Context, uid int64, req CardRequest) (*CardPayload, error) {
	profile, err := o.Resolve(ctx, uid, req.Refresh)
	if err != nil {
		return nil, err
	}
	return o.PrepareFrom(ctx, profile, req.Character)
}

// PrepareFrom builds the payload from an already resolved snapshot. The
// snapshot is never modified.
func (o *Orchestrator) PrepareFrom(ctx context.Context, profile *domain.PlayerProfile, name string) (*CardPayload, error) {
	if !profile.HasRoster() || len(profile.Characters) == 0 {
		return nil, domain.NewError(domain.KindNoShowcaseData, nil)
	}
	found, ok := profile.FindCharacter(name)
	if !ok {
		return nil, domain.NewError(domain.KindCharacterNotFound, fmt.Errorf("character %q", name))
	}

	view := found.Clone()
	if err := o.mirrorCharacter(ctx, &view); err != nil {
		return nil, err
	}

	payload := &CardPayload{
		UID:       profile.UID,
		Character: view,
		Stats:     StatRows(view.Stats),
		Artifacts: []domain.Artifact{},
	}
	if w, ok := view.Weapon(); ok {
		payload.Weapon = w
	}
	for _, piece := range view.ArtifactPieces() {
		payload.Artifacts = append(payload.Artifacts, o.scorer.Artifact(view.Name, piece))
	}
	payload.ArtifactTotal = scoring.Set(payload.Artifacts)
	return payload, nil
}

// RenderCard prepares and renders the character card.
func (o *Orchestrator) RenderCard(ctx context.Context, uid int64, req CardRequest) (*render.Result, error) {
	payload, err := o.Prepare(ctx, uid, req)
	if err != nil {
		return nil, err
	}
	return o.RenderPayload(ctx, payload)
}

// RenderPayload renders a payload produced by Prepare.
func (o *Orchestrator) RenderPayload(ctx context.Context, payload *CardPayload) (*render.Result, error) {
	renderCtx, cancel := context.WithTimeout(ctx, constants.RenderTimeout)
	defer cancel()

	res, err := o.renderer.Render(renderCtx, constants.CardTemplate, payload, render.Options{
		Viewport: render.Viewport{Width: constants.CardWidth, Height: constants.CardHeight},
		FullPage: true,
		Selector: constants.CardSelector,
		TTL:      constants.CardRenderTTL,
		Filename: fmt.Sprintf("player_card_%d_%s.png", payload.UID, payload.Character.Name),
	})
	if err != nil {
		return nil, fmt.Errorf("render card: %w", err)
	}
	o.logger.Info().Int64("uid", payload.UID).Str("character", payload.Character.Name).Bool("cached", res.Cached).Msg("card rendered")
	return res, nil
}

// PrepareHolder builds the roster overview for the first characters of a snapshot.
func (o *Orchestrator) PrepareHolder(ctx context.Context, profile *domain.PlayerProfile) (*HolderPayload, error) {
	payload := &HolderPayload{
		UID:        profile.UID,
		Nickname:   profile.Player.Nickname,
		Level:      profile.Player.Level,
		Signature:  profile.Player.Signature,
		Characters: []HolderCharacter{},
	}
	var urls []string
	for i, c := range profile.Characters {
		if i >= constants.HolderCharacters {
			break
		}
		payload.Characters = append(payload.Characters, HolderCharacter{
			Name:          c.Name,
			Level:         c.Level,
			Element:       c.Element,
			Constellation: c.Constellations,
			Rarity:        c.Rarity,
			Icon:          c.Icon,
		})
		urls = append(urls, c.Icon)
	}

	local, err := o.mirrorAll(ctx, urls)
	if err != nil {
		return nil, err
	}
	for i := range payload.Characters {
		payload.Characters[i].Icon = rewrite(local, payload.Characters[i].Icon)
	}
	return payload, nil
}

func (o *Orchestrator) RenderHolder(ctx context.Context, profile *domain.PlayerProfile, caption string) (*render.Result, error) {
	payload, err := o.PrepareHolder(ctx, profile)
	if err != nil {
		return nil, err
	}
	renderCtx, cancel := context.WithTimeout(ctx, constants.RenderTimeout)
	defer cancel()

	res, err := o.renderer.Render(renderCtx, constants.HolderTemplate, payload, render.Options{
		Viewport: render.Viewport{Width: constants.HolderWidth, Height: constants.HolderHeight},
		TTL:      constants.HolderRenderTTL,
		Filename: fmt.Sprintf("player_cards_%d.png", profile.UID),
		Caption:  caption,
	})
	if err != nil {
		return nil, fmt.Errorf("render holder: %w", err)
	}
	return res, nil
}

// mirrorCharacter swaps every remote image of c for its local copy.
func (o *Orchestrator) mirrorCharacter(ctx context.Context, c *domain.Character) error {
	urls := []string{c.Banner, c.Icon}
	for _, s := range c.Skills {
		urls = append(urls, s.URL)
	}
	for _, s := range c.Constellation {
		urls = append(urls, s.URL)
	}
	for _, e := range c.Equipment {
		urls = append(urls, e.Icon)
	}

	local, err := o.mirrorAll(ctx, urls)
	if err != nil {
		return err
	}

	c.Banner = rewrite(local, c.Banner)
	c.Icon = rewrite(local, c.Icon)
	for i := range c.Skills {
		c.Skills[i].URL = rewrite(local, c.Skills[i].URL)
	}
	for i := range c.Constellation {
		c.Constellation[i].URL = rewrite(local, c.Constellation[i].URL)
	}
	for i := range c.Equipment {
		c.Equipment[i].Icon = rewrite(local, c.Equipment[i].Icon)
	}
	return nil
}

// mirrorAll mirrors each distinct non-empty URL once. Any failure fails the lot.
func (o *Orchestrator) mirrorAll(ctx context.Context, urls []string) (map[string]string, error) {
	seen := make(map[string]struct{}, len(urls))
	var unique []string
	for _, u := range urls {
		if u == "" {
			continue
		}
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		unique = append(unique, u)
	}

	mirrorCtx, cancel := context.WithTimeout(ctx, constants.MirrorTimeout)
	defer cancel()

	var mu sync.Mutex
	local := make(map[string]string, len(unique))
	g, gCtx := errgroup.WithContext(mirrorCtx)
	g.SetLimit(constants.MirrorConcurrency)
	for _, u := range unique {
		g.Go(func() error {
			ref, err := o.mirror.Mirror(gCtx, u)
			if err != nil {
				return err
			}
			mu.Lock()
			local[u] = ref
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		o.logger.Error().Err(err).Int("images", len(unique)).Msg("failed to mirror images")
		return nil, domain.NewError(domain.KindMirrorFailure, err)
	}
	return local, nil
}

func rewrite(local map[string]string, u string) string {
	if ref, ok := local[u]; ok {
		return ref
	}
	return u
}
