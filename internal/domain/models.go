package domain

import (
	"time"
)

type EquipmentKind string

const (
	EquipmentWeapon   EquipmentKind = "weapon"
	EquipmentArtifact EquipmentKind = "artifact"
)

// PlayerProfile is one snapshot of a player's public showcase.
// A nil Characters slice means no roster was present in the payload;
// an empty non-nil slice means the roster was fetched and is empty.
type PlayerProfile struct {
	UID        int64       `json:"uid"`
	Player     PlayerInfo  `json:"player"`
	Characters []Character `json:"characters"`
	FetchedAt  time.Time   `json:"fetched_at"`
}

type PlayerInfo struct {
	Nickname   string `json:"nickname"`
	Level      int    `json:"level"`
	Signature  string `json:"signature"`
	WorldLevel int    `json:"world_level"`
}

type Character struct {
	ID             int64              `json:"id"`
	Name           string             `json:"name"`
	Level          int                `json:"level"`
	Element        string             `json:"element"`
	Constellations int                `json:"constellations"`
	Rarity         int                `json:"rarity"`
	Friendship     int                `json:"friendship"`
	Stats          map[string]float64 `json:"stats"`
	Equipment      []Equipment        `json:"equipment"`
	Skills         []Icon             `json:"skills"`
	Constellation  []Icon             `json:"constellation"`
	Icon           string             `json:"icon"`
	Banner         string             `json:"banner"`
}

type Icon struct {
	Name     string `json:"name"`
	Level    int    `json:"level,omitempty"`
	Unlocked bool   `json:"unlocked,omitempty"`
	URL      string `json:"url"`
}

type Equipment struct {
	Kind       EquipmentKind `json:"kind"`
	Name       string        `json:"name"`
	Slot       string        `json:"slot,omitempty"`
	Level      int           `json:"level"`
	Rarity     int           `json:"rarity"`
	Refinement int           `json:"refinement,omitempty"`
	Icon       string        `json:"icon"`
	MainStat   Substat       `json:"main_stat"`
	Substats   []Substat     `json:"substats"`
	Secondary  *Substat      `json:"secondary,omitempty"`
}

type Substat struct {
	PropID  string  `json:"prop_id"`
	Value   float64 `json:"value"`
	Percent bool    `json:"percent,omitempty"`
}

// Artifact is an artifact piece with its theory score attached.
type Artifact struct {
	Equipment     Equipment `json:"equipment"`
	SubstatScores []float64 `json:"substat_scores"`
	Score         float64   `json:"score"`
	ScoreLabel    string    `json:"score_label"`
	ScoreClass    string    `json:"score_class"`
}

type StatRow struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// HasRoster reports whether a roster was present in the snapshot.
func (p *PlayerProfile) HasRoster() bool {
	return p != nil && p.Characters != nil
}

// FindCharacter does an exact, case-sensitive lookup by name.
func (p *PlayerProfile) FindCharacter(name string) (*Character, bool) {
	if p == nil {
		return nil, false
	}
	for i := range p.Characters {
		if p.Characters[i].Name == name {
			return &p.Characters[i], true
		}
	}
	return nil, false
}

// Clone returns a deep copy so callers can rewrite icon URLs without
// touching the cached snapshot.
func (c Character) Clone() Character {
	out := c
	if c.Stats != nil {
		out.Stats = make(map[string]float64, len(c.Stats))
		for k, v := range c.Stats {
			out.Stats[k] = v
		}
	}
	if c.Equipment != nil {
		out.Equipment = make([]Equipment, len(c.Equipment))
		for i, e := range c.Equipment {
			out.Equipment[i] = e
			if e.Substats != nil {
				out.Equipment[i].Substats = append([]Substat(nil), e.Substats...)
			}
			if e.Secondary != nil {
				sec := *e.Secondary
				out.Equipment[i].Secondary = &sec
			}
		}
	}
	if c.Skills != nil {
		out.Skills = append([]Icon(nil), c.Skills...)
	}
	if c.Constellation != nil {
		out.Constellation = append([]Icon(nil), c.Constellation...)
	}
	return out
}

func (c *Character) Weapon() (*Equipment, bool) {
	for i := range c.Equipment {
		if c.Equipment[i].Kind == EquipmentWeapon {
			return &c.Equipment[i], true
		}
	}
	return nil, false
}

func (c *Character) ArtifactPieces() []Equipment {
	var out []Equipment
	for _, e := range c.Equipment {
		if e.Kind == EquipmentArtifact {
			out = append(out, e)
		}
	}
	return out
}
