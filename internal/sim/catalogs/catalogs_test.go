package catalogs

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tokenwheel.ai/internal/sim/entity"
)

func TestLoad_RepoConfigs(t *testing.T) {
	c, err := Load(filepath.Join("..", "..", "..", "configs"), nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	for _, k := range []entity.BuildingKind{entity.Pylon, entity.TokenWheel, entity.CraftingTable, entity.Blockchain} {
		if _, ok := c.Buildings.ByKind[k]; !ok {
			t.Fatalf("missing building %s", k)
		}
	}
	if d, ok := c.Buildings.Lookup("TokenWheel"); !ok || d.Light == nil || d.Light.Radius != 60 {
		t.Fatalf("token wheel def=%+v", d)
	}
	if len(c.Upgrades.ByID) != 13 {
		t.Fatalf("upgrades=%d want 13", len(c.Upgrades.ByID))
	}
	if pre := c.Upgrades.ByID["CrankAssignment"].Prerequisite; pre != "TokenCompression" {
		t.Fatalf("crank assignment prerequisite=%q", pre)
	}
	for i := 1; i < len(c.Upgrades.Order); i++ {
		if c.Upgrades.ByID[c.Upgrades.Order[i-1]].Tier > c.Upgrades.ByID[c.Upgrades.Order[i]].Tier {
			t.Fatalf("order not sorted by tier: %v", c.Upgrades.Order)
		}
	}
	p, ok := c.Manifest.Project("ai_image_generator")
	if !ok {
		t.Fatalf("manifest missing ai_image_generator")
	}
	if k, ok := p.Kind(); !ok || k != entity.AiImageGenerator {
		t.Fatalf("kind=%v ok=%v", k, ok)
	}
	if c.Buildings.Digest == "" || c.Upgrades.Digest == "" {
		t.Fatalf("digests not computed")
	}
}

func writeConfigs(t *testing.T, buildings, upgrades string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "buildings.json"), []byte(buildings), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "upgrades.json"), []byte(upgrades), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

const okUpgrades = `{"upgrades":[{"id":"A","name":"A","tier":1,"cost":10}]}`

func TestLoad_SchemaRejectsMalformedBuilding(t *testing.T) {
	cases := map[string]string{
		"missing cost":   `{"buildings":[{"type":"Pylon","name":"Pylon","build_time":10}]}`,
		"negative cost":  `{"buildings":[{"type":"Pylon","name":"Pylon","cost":-1,"build_time":10}]}`,
		"unknown field":  `{"buildings":[{"type":"Pylon","name":"Pylon","cost":1,"build_time":10,"colour":"red"}]}`,
		"bad effect":     `{"buildings":[{"type":"Pylon","name":"Pylon","cost":1,"build_time":10,"effects":[{"kind":"Teleport","amount":1}]}]}`,
		"empty list":     `{"buildings":[]}`,
		"string for num": `{"buildings":[{"type":"Pylon","name":"Pylon","cost":"5","build_time":10}]}`,
	}
	for name, raw := range cases {
		dir := writeConfigs(t, raw, okUpgrades)
		if _, err := Load(dir, nil); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestLoad_SemanticChecks(t *testing.T) {
	dir := writeConfigs(t, `{"buildings":[{"type":"Castle","name":"Castle","cost":1,"build_time":10}]}`, okUpgrades)
	if _, err := Load(dir, nil); err == nil || !strings.Contains(err.Error(), "unknown building type") {
		t.Fatalf("err=%v", err)
	}
	dir = writeConfigs(t, `{"buildings":[{"type":"Pylon","name":"Pylon","cost":1,"build_time":0}]}`, okUpgrades)
	if _, err := Load(dir, nil); err == nil || !strings.Contains(err.Error(), "build_time") {
		t.Fatalf("err=%v", err)
	}

	okBuildings := `{"buildings":[{"type":"Pylon","name":"Pylon","cost":1,"build_time":10}]}`
	dir = writeConfigs(t, okBuildings, `{"upgrades":[{"id":"B","name":"B","tier":2,"cost":1,"prerequisite":"Z"}]}`)
	if _, err := Load(dir, nil); err == nil || !strings.Contains(err.Error(), "unknown prerequisite") {
		t.Fatalf("err=%v", err)
	}
	dir = writeConfigs(t, okBuildings, `{"upgrades":[
		{"id":"A","name":"A","tier":2,"cost":1,"prerequisite":"B"},
		{"id":"B","name":"B","tier":2,"cost":1,"prerequisite":"A"}]}`)
	if _, err := Load(dir, nil); err == nil || !strings.Contains(err.Error(), "lower tier") {
		t.Fatalf("err=%v", err)
	}
}

func TestLoad_MissingManifestIsEmpty(t *testing.T) {
	dir := writeConfigs(t, `{"buildings":[{"type":"Pylon","name":"Pylon","cost":1,"build_time":10}]}`, okUpgrades)
	c, err := Load(dir, nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(c.Manifest.Buildings) != 0 {
		t.Fatalf("manifest=%+v", c.Manifest)
	}
	if err := os.WriteFile(filepath.Join(dir, "manifest.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err = Load(dir, nil)
	if err != nil || len(c.Manifest.Buildings) != 0 {
		t.Fatalf("malformed manifest: err=%v manifest=%+v", err, c.Manifest)
	}
}

func TestBuildingDef_EffectList(t *testing.T) {
	d := BuildingDef{Effects: []EffectDef{{Kind: "PassiveIncome", Amount: 0.1}, {Kind: "Nope", Amount: 1}}}
	fx := d.EffectList()
	if len(fx) != 1 || fx[0].Kind != entity.PassiveIncome || fx[0].Amount != 0.1 {
		t.Fatalf("effects=%+v", fx)
	}
}

func TestSchemaNames(t *testing.T) {
	got := SchemaNames()
	want := []string{"buildings.json", "manifest.json", "upgrades.json"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("names=%v", got)
	}
}
