package catalogs

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"tokenwheel.ai/internal/sim/entity"
)

type Catalogs struct {
	Buildings BuildingCatalog
	Upgrades  UpgradeCatalog
	Manifest  Manifest
}

type BuildingCatalog struct {
	ByKind map[entity.BuildingKind]BuildingDef
	Digest string
}

type BuildingFile struct {
	Buildings []BuildingDef `json:"buildings" jsonschema:"required,minItems=1"`
}

type BuildingDef struct {
	Type      string      `json:"type" jsonschema:"required"`
	Name      string      `json:"name" jsonschema:"required"`
	Cost      int64       `json:"cost" jsonschema:"required,minimum=0"`
	BuildTime float64     `json:"build_time" jsonschema:"required,minimum=0"`
	Effects   []EffectDef `json:"effects,omitempty"`
	Light     *LightDef   `json:"light,omitempty"`

	Kind entity.BuildingKind `json:"-"`
}

type EffectDef struct {
	Kind   string  `json:"kind" jsonschema:"required,enum=PassiveIncome,enum=AgentMoraleBoost,enum=ErrorRateReduction,enum=PylonRangeBoost,enum=BuildSpeedBoost,enum=CrankHeatReduction"`
	Amount float64 `json:"amount" jsonschema:"required"`
}

type LightDef struct {
	Radius float64    `json:"radius" jsonschema:"required,minimum=0"`
	Color  [3]float64 `json:"color"`
}

// EffectList converts the declared effects into components.
func (d BuildingDef) EffectList() []entity.Effect {
	out := make([]entity.Effect, 0, len(d.Effects))
	for _, e := range d.Effects {
		k, ok := entity.ParseEffectKind(e.Kind)
		if !ok {
			continue
		}
		out = append(out, entity.Effect{Kind: k, Amount: e.Amount})
	}
	return out
}

// Lookup finds a building definition by its type name.
func (c *BuildingCatalog) Lookup(typ string) (BuildingDef, bool) {
	k, ok := entity.ParseBuildingKind(typ)
	if !ok {
		return BuildingDef{}, false
	}
	d, ok := c.ByKind[k]
	return d, ok
}

type UpgradeCatalog struct {
	ByID   map[string]UpgradeDef
	Order  []string
	Digest string
}

type UpgradeFile struct {
	Upgrades []UpgradeDef `json:"upgrades" jsonschema:"required,minItems=1"`
}

type UpgradeDef struct {
	ID           string `json:"id" jsonschema:"required"`
	Name         string `json:"name" jsonschema:"required"`
	Tier         int    `json:"tier" jsonschema:"required,minimum=1,maximum=4"`
	Cost         int64  `json:"cost" jsonschema:"required,minimum=0"`
	Prerequisite string `json:"prerequisite,omitempty"`
	Description  string `json:"description,omitempty"`
}

// Manifest maps building ids to the on-disk projects agents work on.
type Manifest struct {
	Buildings []ProjectDef `json:"buildings"`
	Digest    string       `json:"-"`
}

type ProjectDef struct {
	ID                string  `json:"id" jsonschema:"required"`
	Name              string  `json:"name"`
	Tier              int     `json:"tier"`
	Port              int     `json:"port"`
	DirectoryName     string  `json:"directory_name"`
	Description       string  `json:"description,omitempty"`
	Cost              int64   `json:"cost"`
	BuildTime         float64 `json:"build_time"`
	UnlockedByDefault bool    `json:"unlocked_by_default"`
}

// Project looks up a manifest entry by building id.
func (m *Manifest) Project(id string) (ProjectDef, bool) {
	for _, p := range m.Buildings {
		if p.ID == id {
			return p, true
		}
	}
	return ProjectDef{}, false
}

// Kind maps a snake_case project id ("todo_app") to its building type.
func (p ProjectDef) Kind() (entity.BuildingKind, bool) {
	var b strings.Builder
	for _, part := range strings.Split(p.ID, "_") {
		if part == "" {
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(part[1:])
	}
	return entity.ParseBuildingKind(b.String())
}

// Load reads buildings.json, upgrades.json and manifest.json from configDir.
// The first two are validated against their reflected schemas; a missing or
// malformed manifest degrades to an empty one with a warning on logger.
func Load(configDir string, logger *log.Logger) (*Catalogs, error) {
	var c Catalogs

	if err := loadBuildings(filepath.Join(configDir, "buildings.json"), &c.Buildings); err != nil {
		return nil, err
	}
	if err := loadUpgrades(filepath.Join(configDir, "upgrades.json"), &c.Upgrades); err != nil {
		return nil, err
	}
	c.Manifest = loadManifest(filepath.Join(configDir, "manifest.json"), logger)
	return &c, nil
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func loadBuildings(path string, out *BuildingCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out.Digest = sha256Hex(raw)
	if err := validate("buildings.json", raw); err != nil {
		return err
	}

	var file BuildingFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("buildings.json: %w", err)
	}
	out.ByKind = map[entity.BuildingKind]BuildingDef{}
	for _, d := range file.Buildings {
		k, ok := entity.ParseBuildingKind(d.Type)
		if !ok {
			return fmt.Errorf("buildings.json: unknown building type %q", d.Type)
		}
		if _, dup := out.ByKind[k]; dup {
			return fmt.Errorf("buildings.json: duplicate building type %q", d.Type)
		}
		if d.BuildTime <= 0 {
			return fmt.Errorf("buildings.json: %s: build_time must be positive", d.Type)
		}
		d.Kind = k
		out.ByKind[k] = d
	}
	return nil
}

func loadUpgrades(path string, out *UpgradeCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out.Digest = sha256Hex(raw)
	if err := validate("upgrades.json", raw); err != nil {
		return err
	}

	var file UpgradeFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("upgrades.json: %w", err)
	}
	out.ByID = map[string]UpgradeDef{}
	out.Order = out.Order[:0]
	for _, u := range file.Upgrades {
		if _, dup := out.ByID[u.ID]; dup {
			return fmt.Errorf("upgrades.json: duplicate id %q", u.ID)
		}
		out.ByID[u.ID] = u
		out.Order = append(out.Order, u.ID)
	}
	for _, u := range file.Upgrades {
		if u.Prerequisite == "" {
			continue
		}
		pre, ok := out.ByID[u.Prerequisite]
		if !ok {
			return fmt.Errorf("upgrades.json: %s: unknown prerequisite %q", u.ID, u.Prerequisite)
		}
		// Prerequisites always sit in a lower tier, which rules out cycles.
		if pre.Tier >= u.Tier {
			return fmt.Errorf("upgrades.json: %s: prerequisite %s is not in a lower tier", u.ID, pre.ID)
		}
	}
	sort.SliceStable(out.Order, func(i, j int) bool {
		return out.ByID[out.Order[i]].Tier < out.ByID[out.Order[j]].Tier
	})
	return nil
}

func loadManifest(path string, logger *log.Logger) Manifest {
	raw, err := os.ReadFile(path)
	if err != nil {
		logf(logger, "manifest: read %s: %v; using empty manifest", path, err)
		return Manifest{Digest: sha256Hex(nil)}
	}
	var m Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		logf(logger, "manifest: parse %s: %v; using empty manifest", path, err)
		return Manifest{Digest: sha256Hex(nil)}
	}
	m.Digest = sha256Hex(raw)
	logf(logger, "manifest: loaded %d buildings", len(m.Buildings))
	return m
}

func logf(logger *log.Logger, format string, args ...any) {
	if logger != nil {
		logger.Printf(format, args...)
	}
}
