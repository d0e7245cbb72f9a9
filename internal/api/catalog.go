package api

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

type CatalogEntry struct {
	Name    string   `yaml:"name"`
	Key     string   `yaml:"key"`
	Element string   `yaml:"element"`
	Rarity  int      `yaml:"rarity"`
	Skills  []string `yaml:"skills"`
}

func (e CatalogEntry) SideIcon() string { return "UI_AvatarIcon_" + e.Key }

func (e CatalogEntry) Banner() string { return "UI_Gacha_AvatarImg_" + e.Key }

// ConstellationIcon returns the icon of the n-th (1-based) constellation.
func (e CatalogEntry) ConstellationIcon(n int) string {
	return fmt.Sprintf("UI_Talent_S_%s_%02d", e.Key, n)
}

type Catalog struct {
	Characters map[int64]CatalogEntry `yaml:"characters"`
}

func LoadCatalog() (*Catalog, error) {
	return parseCatalog(catalogYAML)
}

func parseCatalog(raw []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("failed to parse character catalog: %w", err)
	}
	return &c, nil
}

func (c *Catalog) Lookup(avatarID int64) (CatalogEntry, bool) {
	e, ok := c.Characters[avatarID]
	return e, ok
}
