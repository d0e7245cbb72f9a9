package service

import (
	"context"
	"player-cards/internal/constants"
	"player-cards/internal/domain"
	"player-cards/internal/pagination"
	"strings"
	"testing"
	"time"
)

const (
	ownerID = int64(42)
	otherID = int64(43)
)

func gridLabels(g *pagination.Grid) []string {
	var out []string
	for _, row := range g.Rows {
		for _, c := range row {
			out = append(out, c.Label)
		}
	}
	return out
}

func hasLabel(g *pagination.Grid, label string) bool {
	for _, l := range gridLabels(g) {
		if l == label {
			return true
		}
	}
	return false
}

func findToken(t *testing.T, g *pagination.Grid, label string) string {
	t.Helper()
	for _, row := range g.Rows {
		for _, c := range row {
			if c.Label == label {
				return c.Token
			}
		}
	}
	t.Fatalf("no control labelled %q in %v", label, gridLabels(g))
	return ""
}

func TestListCharactersWithoutData(t *testing.T) {
	h := newHarness(t, showcase("Diluc"))

	reply, err := h.cards.ListCharacters(context.Background(), ownerID, testUID, 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if reply.Notice != domain.UserMessage(domain.NewError(domain.KindProfileNotLoaded, nil)) {
		t.Fatalf("expected not loaded notice, got %q", reply.Notice)
	}
	if labels := gridLabels(reply.Grid); len(labels) != 1 || labels[0] != pagination.LabelRefresh {
		t.Fatalf("expected refresh only, got %v", labels)
	}
	if h.source.calls != 0 {
		t.Fatalf("expected no remote call, got %d", h.source.calls)
	}
}

func TestRefreshFlow(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, showcase("Diluc", "Klee"))

	first, err := h.cards.ListCharacters(ctx, ownerID, testUID, 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	refresh := findToken(t, first.Grid, pagination.LabelRefresh)

	reply, err := h.cards.HandleAction(ctx, ownerID, refresh)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if h.source.calls != 1 {
		t.Fatalf("expected one remote call, got %d", h.source.calls)
	}
	if hasLabel(reply.Grid, pagination.LabelRefresh) {
		t.Fatalf("expected no refresh control right after a refresh, got %v", gridLabels(reply.Grid))
	}
	if !hasLabel(reply.Grid, "Diluc") || !hasLabel(reply.Grid, "Klee") {
		t.Fatalf("expected roster buttons, got %v", gridLabels(reply.Grid))
	}
	if reply.Image == nil || reply.Image.Template != constants.HolderTemplate {
		t.Fatalf("expected holder render, got %+v", reply.Image)
	}

	again, err := h.cards.HandleAction(ctx, ownerID, refresh)
	if err != nil {
		t.Fatalf("second refresh: %v", err)
	}
	if !strings.Contains(again.Notice, "60 seconds") {
		t.Fatalf("expected wait notice, got %q", again.Notice)
	}
	if h.source.calls != 1 {
		t.Fatalf("expected refresh to be gated by cache ttl, got %d calls", h.source.calls)
	}

	h.advance(30 * time.Second)
	later, _ := h.cards.HandleAction(ctx, ownerID, refresh)
	if !strings.Contains(later.Notice, "30 seconds") {
		t.Fatalf("expected 30 second wait, got %q", later.Notice)
	}

	h.advance(31 * time.Second)
	listed, err := h.cards.ListCharacters(ctx, ownerID, testUID, 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !hasLabel(listed.Grid, pagination.LabelRefresh) {
		t.Fatalf("expected refresh control once the cache expired, got %v", gridLabels(listed.Grid))
	}
}

func TestHandleActionRejectsForeignUser(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, showcase("Diluc"))
	if _, err := h.fetcher.Fetch(ctx, testUID); err != nil {
		t.Fatalf("fetch: %v", err)
	}

	tokens := []string{
		pagination.CharacterToken(ownerID, testUID, "Diluc").Encode(),
		pagination.RefreshToken(ownerID, testUID).Encode(),
		pagination.PageToken(ownerID, testUID, 2).Encode(),
	}
	for _, tok := range tokens {
		reply, err := h.cards.HandleAction(ctx, otherID, tok)
		if err != nil {
			t.Fatalf("action: %v", err)
		}
		if reply.Notice != NoticeNotOwner || !reply.Alert || reply.Grid != nil || reply.Image != nil {
			t.Fatalf("expected a bare ownership notice, got %+v", reply)
		}
	}
	if h.source.calls != 1 || len(h.renderer.calls) != 0 {
		t.Fatalf("expected no state change, got %d fetches and %d renders", h.source.calls, len(h.renderer.calls))
	}
}

func TestHandleActionUnavailable(t *testing.T) {
	h := newHarness(t, showcase("Diluc"))
	for _, raw := range []string{"", "junk", pagination.DisabledToken(ownerID, testUID).Encode()} {
		reply, err := h.cards.HandleAction(context.Background(), ownerID, raw)
		if err != nil {
			t.Fatalf("action: %v", err)
		}
		if reply.Notice != NoticeUnavailable {
			t.Fatalf("expected unavailable notice for %q, got %q", raw, reply.Notice)
		}
	}
}

func TestHandleActionSelectsCharacter(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, showcase("Diluc", "Klee"))
	if _, err := h.fetcher.Fetch(ctx, testUID); err != nil {
		t.Fatalf("fetch: %v", err)
	}

	reply, err := h.cards.HandleAction(ctx, ownerID, pagination.CharacterToken(ownerID, testUID, "Klee").Encode())
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if reply.Image == nil || reply.Image.Filename != "player_card_800000001_Klee.png" {
		t.Fatalf("expected Klee card, got %+v", reply.Image)
	}
	payload, ok := h.renderer.data[0].(*CardPayload)
	if !ok || payload.Character.Name != "Klee" {
		t.Fatalf("expected Klee payload, got %#v", h.renderer.data[0])
	}

	_, err = h.cards.HandleAction(ctx, ownerID, pagination.CharacterToken(ownerID, testUID, "Mona").Encode())
	expectKind(t, err, domain.KindCharacterNotFound)
}

func TestHandleActionPages(t *testing.T) {
	ctx := context.Background()
	var names []string
	for i := 0; i < 13; i++ {
		names = append(names, string(rune('A'+i)))
	}
	h := newHarness(t, showcase(names...))
	if _, err := h.fetcher.Fetch(ctx, testUID); err != nil {
		t.Fatalf("fetch: %v", err)
	}

	first, err := h.cards.ListCharacters(ctx, ownerID, testUID, 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	next := findToken(t, first.Grid, pagination.LabelNext)

	second, err := h.cards.HandleAction(ctx, ownerID, next)
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if second.Grid.Page != 2 || !hasLabel(second.Grid, "M") || hasLabel(second.Grid, "A") {
		t.Fatalf("expected page 2 with M only, got %v", gridLabels(second.Grid))
	}
}

func TestListCharactersEmptyRoster(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, showcase([]string{}...))
	if _, err := h.fetcher.Fetch(ctx, testUID); err != nil {
		t.Fatalf("fetch: %v", err)
	}

	reply, err := h.cards.ListCharacters(ctx, ownerID, testUID, 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if reply.Notice != domain.UserMessage(domain.NewError(domain.KindNoShowcaseData, nil)) {
		t.Fatalf("expected no showcase notice, got %q", reply.Notice)
	}
	if len(reply.Grid.Rows) != 0 {
		t.Fatalf("expected no controls while the cache is fresh, got %v", gridLabels(reply.Grid))
	}

	refresh := pagination.RefreshToken(ownerID, testUID).Encode()
	gated, err := h.cards.HandleAction(ctx, ownerID, refresh)
	if err != nil || !strings.Contains(gated.Notice, "seconds") {
		t.Fatalf("expected refresh to be gated, got %+v (%v)", gated, err)
	}

	h.advance(61 * time.Second)
	_, err = h.cards.HandleAction(ctx, ownerID, refresh)
	expectKind(t, err, domain.KindNoShowcaseData)
}
