package service

import (
	"fmt"
	"player-cards/internal/domain"
)

var baseStatRows = []struct {
	label   string
	prop    string
	percent bool
}{
	{"HP", "FIGHT_PROP_MAX_HP", false},
	{"ATK", "FIGHT_PROP_CUR_ATTACK", false},
	{"DEF", "FIGHT_PROP_CUR_DEFENSE", false},
	{"Crit Rate", "FIGHT_PROP_CRITICAL", true},
	{"Crit DMG", "FIGHT_PROP_CRITICAL_HURT", true},
	{"Energy Recharge", "FIGHT_PROP_CHARGE_EFFICIENCY", true},
	{"Elemental Mastery", "FIGHT_PROP_ELEMENT_MASTERY", false},
}

var elementalBonuses = []struct {
	label string
	prop  string
}{
	{"Pyro DMG Bonus", "FIGHT_PROP_FIRE_ADD_HURT"},
	{"Electro DMG Bonus", "FIGHT_PROP_ELEC_ADD_HURT"},
	{"Hydro DMG Bonus", "FIGHT_PROP_WATER_ADD_HURT"},
	{"Dendro DMG Bonus", "FIGHT_PROP_GRASS_ADD_HURT"},
	{"Anemo DMG Bonus", "FIGHT_PROP_WIND_ADD_HURT"},
	{"Geo DMG Bonus", "FIGHT_PROP_ROCK_ADD_HURT"},
	{"Cryo DMG Bonus", "FIGHT_PROP_ICE_ADD_HURT"},
}

// StatRows lists the character's display stats. Only the highest elemental
// bonus is shown so weapon passives do not crowd the card.
func StatRows(stats map[string]float64) []domain.StatRow {
	rows := make([]domain.StatRow, 0, len(baseStatRows)+3)
	for _, r := range baseStatRows {
		rows = append(rows, domain.StatRow{Label: r.label, Value: formatStat(stats[r.prop], r.percent)})
	}

	best := -1
	for i, e := range elementalBonuses {
		if stats[e.prop] <= 0 {
			continue
		}
		if best < 0 || stats[e.prop] > stats[elementalBonuses[best].prop] {
			best = i
		}
	}
	if best >= 0 {
		e := elementalBonuses[best]
		rows = append(rows, domain.StatRow{Label: e.label, Value: formatStat(stats[e.prop], true)})
	}
	if v := stats["FIGHT_PROP_PHYSICAL_ADD_HURT"]; v > 0 {
		rows = append(rows, domain.StatRow{Label: "Physical DMG Bonus", Value: formatStat(v, true)})
	}
	if v := stats["FIGHT_PROP_HEAL_ADD"]; v > 0 {
		rows = append(rows, domain.StatRow{Label: "Healing Bonus", Value: formatStat(v, true)})
	}
	return rows
}

// fight props store percentages as fractions
func formatStat(v float64, percent bool) string {
	if percent {
		return fmt.Sprintf("%.1f%%", v*100)
	}
	return fmt.Sprintf("%.0f", v)
}
