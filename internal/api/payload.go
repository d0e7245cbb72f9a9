package api

import (
	"encoding/json"
	"player-cards/internal/domain"
	"sort"
	"strconv"
	"strings"
)

type enkaResponse struct {
	PlayerInfo     enkaPlayerInfo `json:"playerInfo"`
	AvatarInfoList []enkaAvatar   `json:"avatarInfoList"`
	UID            string         `json:"uid"`
}

type enkaPlayerInfo struct {
	Nickname   string `json:"nickname"`
	Level      int    `json:"level"`
	Signature  string `json:"signature"`
	WorldLevel int    `json:"worldLevel"`
}

type enkaAvatar struct {
	AvatarID      int64               `json:"avatarId"`
	PropMap       map[string]enkaProp `json:"propMap"`
	TalentIDList  []int64             `json:"talentIdList"`
	FightPropMap  map[string]float64  `json:"fightPropMap"`
	SkillLevelMap map[string]int      `json:"skillLevelMap"`
	EquipList     []enkaEquip         `json:"equipList"`
	FetterInfo    enkaFetter          `json:"fetterInfo"`
}

type enkaFetter struct {
	ExpLevel int `json:"expLevel"`
}

type enkaProp struct {
	Type int    `json:"type"`
	Val  string `json:"val"`
}

type enkaEquip struct {
	ItemID    int64 `json:"itemId"`
	Reliquary *struct {
		Level int `json:"level"`
	} `json:"reliquary"`
	Weapon *struct {
		Level    int            `json:"level"`
		AffixMap map[string]int `json:"affixMap"`
	} `json:"weapon"`
	Flat enkaFlat `json:"flat"`
}

type enkaFlat struct {
	NameTextMapHash   string        `json:"nameTextMapHash"`
	RankLevel         int           `json:"rankLevel"`
	ItemType          string        `json:"itemType"`
	Icon              string        `json:"icon"`
	EquipType         string        `json:"equipType"`
	ReliquaryMainstat *enkaMainstat `json:"reliquaryMainstat"`
	ReliquarySubstats []enkaSubstat `json:"reliquarySubstats"`
	WeaponStats       []enkaSubstat `json:"weaponStats"`
}

type enkaMainstat struct {
	MainPropID string  `json:"mainPropId"`
	StatValue  float64 `json:"statValue"`
}

type enkaSubstat struct {
	AppendPropID string  `json:"appendPropId"`
	StatValue    float64 `json:"statValue"`
}

const (
	propLevel      = "4001"
	itemTypeRelic  = "ITEM_RELIQUARY"
	itemTypeWeapon = "ITEM_WEAPON"
)

// fightProps maps numeric fight property ids to their symbolic names.
var fightProps = map[string]string{
	"1":    "FIGHT_PROP_BASE_HP",
	"4":    "FIGHT_PROP_BASE_ATTACK",
	"7":    "FIGHT_PROP_BASE_DEFENSE",
	"20":   "FIGHT_PROP_CRITICAL",
	"22":   "FIGHT_PROP_CRITICAL_HURT",
	"23":   "FIGHT_PROP_CHARGE_EFFICIENCY",
	"26":   "FIGHT_PROP_HEAL_ADD",
	"28":   "FIGHT_PROP_ELEMENT_MASTERY",
	"30":   "FIGHT_PROP_PHYSICAL_ADD_HURT",
	"40":   "FIGHT_PROP_FIRE_ADD_HURT",
	"41":   "FIGHT_PROP_ELEC_ADD_HURT",
	"42":   "FIGHT_PROP_WATER_ADD_HURT",
	"43":   "FIGHT_PROP_GRASS_ADD_HURT",
	"44":   "FIGHT_PROP_WIND_ADD_HURT",
	"45":   "FIGHT_PROP_ROCK_ADD_HURT",
	"46":   "FIGHT_PROP_ICE_ADD_HURT",
	"2000": "FIGHT_PROP_MAX_HP",
	"2001": "FIGHT_PROP_CUR_ATTACK",
	"2002": "FIGHT_PROP_CUR_DEFENSE",
}

var equipSlots = map[string]string{
	"EQUIP_BRACER":   "flower",
	"EQUIP_NECKLACE": "plume",
	"EQUIP_SHOES":    "sands",
	"EQUIP_RING":     "goblet",
	"EQUIP_DRESS":    "circlet",
}

func decodePayload(body []byte) (*enkaResponse, error) {
	var r enkaResponse
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (c *EnkaClient) toProfile(uid int64, r *enkaResponse) *domain.PlayerProfile {
	profile := &domain.PlayerProfile{
		UID: uid,
		Player: domain.PlayerInfo{
			Nickname:   r.PlayerInfo.Nickname,
			Level:      r.PlayerInfo.Level,
			Signature:  r.PlayerInfo.Signature,
			WorldLevel: r.PlayerInfo.WorldLevel,
		},
	}
	// a missing list means character details are hidden
	if r.AvatarInfoList == nil {
		return profile
	}
	profile.Characters = make([]domain.Character, 0, len(r.AvatarInfoList))
	for _, a := range r.AvatarInfoList {
		profile.Characters = append(profile.Characters, c.toCharacter(a))
	}
	return profile
}

func (c *EnkaClient) toCharacter(a enkaAvatar) domain.Character {
	ch := domain.Character{
		ID:             a.AvatarID,
		Constellations: len(a.TalentIDList),
		Friendship:     a.FetterInfo.ExpLevel,
		Stats:          make(map[string]float64, len(a.FightPropMap)),
	}
	if p, ok := a.PropMap[propLevel]; ok {
		ch.Level, _ = strconv.Atoi(p.Val)
	}
	for id, v := range a.FightPropMap {
		if name, ok := fightProps[id]; ok {
			ch.Stats[name] = v
		}
	}

	entry, known := c.catalog.Lookup(a.AvatarID)
	if known {
		ch.Name = entry.Name
		ch.Element = entry.Element
		ch.Rarity = entry.Rarity
		ch.Icon = c.AssetURL(entry.SideIcon())
		ch.Banner = c.AssetURL(entry.Banner())
		ch.Skills = c.skills(entry, a.SkillLevelMap)
		for i := 1; i <= 6; i++ {
			ch.Constellation = append(ch.Constellation, domain.Icon{
				Name:     "C" + strconv.Itoa(i),
				Unlocked: i <= ch.Constellations,
				URL:      c.AssetURL(entry.ConstellationIcon(i)),
			})
		}
	}

	for _, e := range a.EquipList {
		if eq, ok := c.toEquipment(e); ok {
			ch.Equipment = append(ch.Equipment, eq)
		}
	}
	return ch
}

func (c *EnkaClient) skills(entry CatalogEntry, levels map[string]int) []domain.Icon {
	ids := make([]string, 0, len(levels))
	for id := range levels {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]domain.Icon, 0, len(entry.Skills))
	for i, icon := range entry.Skills {
		skill := domain.Icon{Name: icon, URL: c.AssetURL(icon)}
		if i < len(ids) {
			skill.Level = levels[ids[i]]
		}
		out = append(out, skill)
	}
	return out
}

func (c *EnkaClient) toEquipment(e enkaEquip) (domain.Equipment, bool) {
	eq := domain.Equipment{
		Name:   e.Flat.NameTextMapHash,
		Rarity: e.Flat.RankLevel,
		Icon:   c.AssetURL(e.Flat.Icon),
	}
	switch e.Flat.ItemType {
	case itemTypeRelic:
		eq.Kind = domain.EquipmentArtifact
		eq.Slot = equipSlots[e.Flat.EquipType]
		if e.Reliquary != nil {
			// reliquary levels are offset by one
			eq.Level = e.Reliquary.Level - 1
		}
		if m := e.Flat.ReliquaryMainstat; m != nil {
			eq.MainStat = toSubstat(m.MainPropID, m.StatValue)
		}
		eq.Substats = make([]domain.Substat, 0, len(e.Flat.ReliquarySubstats))
		for _, s := range e.Flat.ReliquarySubstats {
			eq.Substats = append(eq.Substats, toSubstat(s.AppendPropID, s.StatValue))
		}
	case itemTypeWeapon:
		eq.Kind = domain.EquipmentWeapon
		if e.Weapon != nil {
			eq.Level = e.Weapon.Level
			for _, v := range e.Weapon.AffixMap {
				eq.Refinement = v + 1
			}
		}
		if len(e.Flat.WeaponStats) > 0 {
			eq.MainStat = toSubstat(e.Flat.WeaponStats[0].AppendPropID, e.Flat.WeaponStats[0].StatValue)
		}
		if len(e.Flat.WeaponStats) > 1 {
			sec := toSubstat(e.Flat.WeaponStats[1].AppendPropID, e.Flat.WeaponStats[1].StatValue)
			eq.Secondary = &sec
		}
	default:
		return eq, false
	}
	return eq, true
}

func toSubstat(propID string, value float64) domain.Substat {
	return domain.Substat{PropID: propID, Value: value, Percent: IsPercentProp(propID)}
}

// IsPercentProp reports whether a stat is displayed as a percentage.
func IsPercentProp(propID string) bool {
	switch propID {
	case "FIGHT_PROP_CRITICAL", "FIGHT_PROP_CRITICAL_HURT", "FIGHT_PROP_CHARGE_EFFICIENCY", "FIGHT_PROP_HEAL_ADD":
		return true
	}
	return strings.HasSuffix(propID, "_PERCENT") || strings.HasSuffix(propID, "_ADD_HURT")
}
