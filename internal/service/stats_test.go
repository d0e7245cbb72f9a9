package service

import "testing"

func TestStatRows(t *testing.T) {
	rows := StatRows(map[string]float64{
		"FIGHT_PROP_MAX_HP":            18000.4,
		"FIGHT_PROP_CRITICAL":          0.625,
		"FIGHT_PROP_FIRE_ADD_HURT":     0.466,
		"FIGHT_PROP_WATER_ADD_HURT":    0.15,
		"FIGHT_PROP_PHYSICAL_ADD_HURT": 0.1,
	})
	if len(rows) != 9 {
		t.Fatalf("expected 7 base rows plus 2 bonuses, got %d", len(rows))
	}
	if rows[0].Value != "18000" || rows[3].Value != "62.5%" {
		t.Fatalf("unexpected formatting: %+v", rows[:4])
	}
	if rows[7].Label != "Pyro DMG Bonus" || rows[7].Value != "46.6%" {
		t.Fatalf("expected only the highest elemental bonus, got %+v", rows[7])
	}
	if rows[8].Label != "Physical DMG Bonus" {
		t.Fatalf("expected physical bonus, got %+v", rows[8])
	}
}
