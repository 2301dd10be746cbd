package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestRun_WritesAllSchemas(t *testing.T) {
	dir := t.TempDir()
	written, err := run(dir)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(written) != 5 {
		t.Fatalf("written=%v want 5 files", written)
	}
	for _, rel := range []string{
		filepath.Join("catalogs", "buildings.schema.json"),
		filepath.Join("catalogs", "manifest.schema.json"),
		filepath.Join("protocol", "player_input.schema.json"),
	} {
		b, err := os.ReadFile(filepath.Join(dir, rel))
		if err != nil {
			t.Fatalf("read %s: %v", rel, err)
		}
		var doc map[string]any
		if err := json.Unmarshal(b, &doc); err != nil {
			t.Fatalf("%s is not JSON: %v", rel, err)
		}
		if doc["title"] == nil {
			t.Fatalf("%s has no title", rel)
		}
	}
}

func TestSchemaFileName(t *testing.T) {
	if got := schemaFileName("upgrades.json"); got != "upgrades.schema.json" {
		t.Fatalf("got %q", got)
	}
}
