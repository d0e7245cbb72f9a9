package service

import (
	"context"
	"errors"
	"player-cards/internal/cache"
	"player-cards/internal/domain"
	"player-cards/internal/render"
	"player-cards/internal/repository"
	"player-cards/internal/scoring"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

const testUID = int64(800000001)

type fakeSource struct {
	mu      sync.Mutex
	calls   int
	profile *domain.PlayerProfile
	err     error
	hook    func()
}

func (s *fakeSource) FetchProfile(_ context.Context, uid int64) (*domain.PlayerProfile, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.hook != nil {
		s.hook()
	}
	if s.err != nil {
		return nil, s.err
	}
	p := *s.profile
	p.UID = uid
	return &p, nil
}

type fakeMirror struct {
	mu    sync.Mutex
	calls map[string]int
	fail  string
}

func (m *fakeMirror) Mirror(_ context.Context, remoteURL string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[remoteURL]++
	if remoteURL == m.fail {
		return "", errors.New("download failed")
	}
	return "file:///mirror/" + remoteURL[len("http://enka.test/ui/"):], nil
}

type fakeRenderer struct {
	mu    sync.Mutex
	calls []string
	data  []any
	opts  []render.Options
}

func (r *fakeRenderer) Render(_ context.Context, template string, data any, opts render.Options) (*render.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, template)
	r.data = append(r.data, data)
	r.opts = append(r.opts, opts)
	return &render.Result{Template: template, Image: []byte(template), Filename: opts.Filename, Caption: opts.Caption}, nil
}

func asset(name string) string { return "http://enka.test/ui/" + name + ".png" }

func character(name string) domain.Character {
	return domain.Character{
		ID:             1,
		Name:           name,
		Level:          90,
		Element:        "Pyro",
		Constellations: 1,
		Rarity:         5,
		Icon:           asset("UI_AvatarIcon_" + name),
		Banner:         asset("UI_Gacha_AvatarImg_" + name),
		Stats: map[string]float64{
			"FIGHT_PROP_MAX_HP":        18000,
			"FIGHT_PROP_CRITICAL":      0.6,
			"FIGHT_PROP_CRITICAL_HURT": 1.5,
			"FIGHT_PROP_FIRE_ADD_HURT": 0.466,
		},
		Skills: []domain.Icon{
			{Name: "Skill_A_04", Level: 9, URL: asset("Skill_A_04")},
			{Name: "Skill_E", Level: 9, URL: asset("Skill_E_" + name)},
		},
		Constellation: []domain.Icon{
			{Name: "C1", Unlocked: true, URL: asset("UI_Talent_S_" + name + "_01")},
		},
		Equipment: []domain.Equipment{
			{
				Kind:       domain.EquipmentWeapon,
				Name:       "Wolf's Gravestone",
				Level:      90,
				Refinement: 1,
				Icon:       asset("UI_EquipIcon_Claymore_Wolfmound"),
				MainStat:   domain.Substat{PropID: "FIGHT_PROP_BASE_ATTACK", Value: 608},
			},
			artifact("flower", asset("UI_RelicIcon_15006_4")),
			artifact("plume", asset("UI_RelicIcon_15006_2")),
		},
	}
}

func artifact(slot, icon string) domain.Equipment {
	return domain.Equipment{
		Kind:  domain.EquipmentArtifact,
		Slot:  slot,
		Level: 20,
		Icon:  icon,
		Substats: []domain.Substat{
			{PropID: "FIGHT_PROP_CRITICAL", Value: 10.5, Percent: true},
			{PropID: "FIGHT_PROP_CRITICAL_HURT", Value: 21, Percent: true},
		},
	}
}

func showcase(names ...string) *domain.PlayerProfile {
	p := &domain.PlayerProfile{
		UID:       testUID,
		Player:    domain.PlayerInfo{Nickname: "Aether", Level: 58, Signature: "hello"},
		FetchedAt: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	}
	if names != nil {
		p.Characters = []domain.Character{}
	}
	for _, n := range names {
		p.Characters = append(p.Characters, character(n))
	}
	return p
}

type harness struct {
	clock    time.Time
	store    *cache.MemoryStore
	cache    *repository.ProfileCache
	history  *repository.HistoryStore
	source   *fakeSource
	mirror   *fakeMirror
	renderer *fakeRenderer
	fetcher  *ProfileFetcher
	orch     *Orchestrator
	cards    *CardService
}

func newHarness(t *testing.T, profile *domain.PlayerProfile) *harness {
	t.Helper()
	h := &harness{
		clock:    time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		source:   &fakeSource{profile: profile},
		mirror:   &fakeMirror{},
		renderer: &fakeRenderer{},
	}
	h.store = cache.NewMemoryStore().WithClock(func() time.Time { return h.clock })
	h.cache = repository.NewProfileCache(h.store, time.Minute, zerolog.Nop())
	h.history = repository.NewHistoryStore(cache.NewMemoryStore(), zerolog.Nop())

	engine, err := scoring.NewEngine()
	if err != nil {
		t.Fatalf("scoring engine: %v", err)
	}
	h.fetcher = NewProfileFetcher(h.source, h.cache, h.history, zerolog.Nop())
	h.orch = NewOrchestrator(h.fetcher, h.cache, h.history, engine, h.mirror, h.renderer, zerolog.Nop())
	h.cards = NewCardService(h.fetcher, h.cache, h.orch, zerolog.Nop())
	return h
}

func (h *harness) advance(d time.Duration) { h.clock = h.clock.Add(d) }

func expectKind(t *testing.T, err error, want domain.ErrorKind) {
	t.Helper()
	kind, ok := domain.KindOf(err)
	if !ok || kind != want {
		t.Fatalf("expected %s, got %v", want, err)
	}
}
