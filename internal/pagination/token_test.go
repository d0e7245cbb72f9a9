package pagination

import (
	"strings"
	"testing"
)

func TestTokenRoundTrip(t *testing.T) {
	tokens := []Token{
		CharacterToken(1, 800000001, "Hu Tao"),
		PageToken(1, 800000001, 3),
		RefreshToken(1, 800000001),
		DisabledToken(1, 800000001),
	}
	for _, want := range tokens {
		got := ParseToken(want.Encode())
		if got != want {
			t.Fatalf("expected %+v, got %+v", want, got)
		}
	}
}

func TestTokenEncoding(t *testing.T) {
	if got := CharacterToken(7, 800000001, "Klee").Encode(); got != "v1|sel|7|800000001|c:Klee" {
		t.Fatalf("unexpected encoding %q", got)
	}
	if got := RefreshToken(7, 800000001).Encode(); got != "v1|ref|7|800000001|r" {
		t.Fatalf("unexpected encoding %q", got)
	}
}

func TestParseTokenMalformed(t *testing.T) {
	bad := []string{
		"",
		"garbage",
		"v2|sel|1|2|c:Klee",
		"v1|sel|x|2|c:Klee",
		"v1|sel|1|y|c:Klee",
		"v1|sel|1|2|c:",
		"v1|sel|1|2|p:zero",
		"v1|sel|1|2|p:0",
		"v1|sel|1|2|q",
		"v1|ref|1|2|c:Klee",
		"v1|del|1|2|r",
		"v1|sel|1|2|e:extra",
		"v1|sel|1|2|c:" + strings.Repeat("x", maxTokenLen),
	}
	for _, raw := range bad {
		tok := ParseToken(raw)
		if tok.Valid {
			t.Fatalf("expected %q to be invalid, got %+v", raw, tok)
		}
		if tok.Kind != SelectDisabled {
			t.Fatalf("expected %q to decode as disabled, got %s", raw, tok.Kind)
		}
		if tok.OwnedBy(0) {
			t.Fatalf("expected invalid token %q to have no owner", raw)
		}
	}
}

func TestCharacterNameWithSeparator(t *testing.T) {
	tok := ParseToken(CharacterToken(1, 2, "A|B").Encode())
	if !tok.Valid || tok.Character != "A|B" {
		t.Fatalf("expected name with separator to survive, got %+v", tok)
	}
}

func TestOwnedBy(t *testing.T) {
	tok := ParseToken(PageToken(10, 800000001, 2).Encode())
	if !tok.OwnedBy(10) {
		t.Fatalf("expected owner 10 to own the token")
	}
	if tok.OwnedBy(11) {
		t.Fatalf("expected user 11 to be rejected")
	}
}
