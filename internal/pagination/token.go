package pagination

import (
	"strconv"
	"strings"
)

// TokenVersion prefixes every encoded token.
const TokenVersion = "v1"

type Action string

const (
	ActionSelect  Action = "sel"
	ActionRefresh Action = "ref"
)

type SelectorKind string

const (
	SelectCharacter SelectorKind = "c"
	SelectPage      SelectorKind = "p"
	SelectRefresh   SelectorKind = "r"
	SelectDisabled  SelectorKind = "e"
)

// maxTokenLen bounds what ParseToken will look at.
const maxTokenLen = 256

const sep = "|"

// Token is the state a control carries so an action can be resumed
// without server-side sessions.
type Token struct {
	Action    Action
	Owner     int64
	UID       int64
	Kind      SelectorKind
	Character string
	Page      int
	// Valid is false when the token could not be parsed.
	Valid bool
}

func CharacterToken(owner, uid int64, name string) Token {
	return Token{Action: ActionSelect, Owner: owner, UID: uid, Kind: SelectCharacter, Character: name, Valid: true}
}

func PageToken(owner, uid int64, page int) Token {
	return Token{Action: ActionSelect, Owner: owner, UID: uid, Kind: SelectPage, Page: page, Valid: true}
}

func RefreshToken(owner, uid int64) Token {
	return Token{Action: ActionRefresh, Owner: owner, UID: uid, Kind: SelectRefresh, Valid: true}
}

func DisabledToken(owner, uid int64) Token {
	return Token{Action: ActionSelect, Owner: owner, UID: uid, Kind: SelectDisabled, Valid: true}
}

// Encode renders the token as "v1|action|owner|uid|kind[:value]".
func (t Token) Encode() string {
	sel := string(t.Kind)
	switch t.Kind {
	case SelectCharacter:
		sel += ":" + t.Character
	case SelectPage:
		sel += ":" + strconv.Itoa(t.Page)
	}
	return strings.Join([]string{
		TokenVersion,
		string(t.Action),
		strconv.FormatInt(t.Owner, 10),
		strconv.FormatInt(t.UID, 10),
		sel,
	}, sep)
}

// OwnedBy reports whether user may act on the token.
func (t Token) OwnedBy(user int64) bool {
	return t.Valid && t.Owner == user
}

// ParseToken never fails: anything malformed comes back as an invalid
// disabled token.
func ParseToken(raw string) Token {
	bad := Token{Kind: SelectDisabled}
	if len(raw) > maxTokenLen {
		return bad
	}
	parts := strings.SplitN(raw, sep, 5)
	if len(parts) != 5 || parts[0] != TokenVersion {
		return bad
	}
	owner, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return bad
	}
	uid, err := strconv.ParseInt(parts[3], 10, 64)
	if err != nil {
		return bad
	}
	t := Token{Action: Action(parts[1]), Owner: owner, UID: uid}

	kind, value, hasValue := strings.Cut(parts[4], ":")
	switch t.Action {
	case ActionRefresh:
		if kind != string(SelectRefresh) || hasValue {
			return bad
		}
		t.Kind = SelectRefresh
	case ActionSelect:
		switch SelectorKind(kind) {
		case SelectCharacter:
			if !hasValue || value == "" {
				return bad
			}
			t.Kind, t.Character = SelectCharacter, value
		case SelectPage:
			page, err := strconv.Atoi(value)
			if !hasValue || err != nil || page < 1 {
				return bad
			}
			t.Kind, t.Page = SelectPage, page
		case SelectDisabled:
			if hasValue {
				return bad
			}
			t.Kind = SelectDisabled
		default:
			return bad
		}
	default:
		return bad
	}
	t.Valid = true
	return t
}
