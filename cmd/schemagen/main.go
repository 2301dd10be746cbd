package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"

	reflectschema "github.com/invopop/jsonschema"

	"tokenwheel.ai/internal/protocol"
	"tokenwheel.ai/internal/sim/catalogs"
)

func main() {
	outDir := flag.String("out", "schemas", "output directory for generated JSON Schemas")
	flag.Parse()

	logger := log.New(os.Stdout, "[schemagen] ", log.LstdFlags)
	written, err := run(*outDir)
	if err != nil {
		logger.Fatalf("%v", err)
	}
	for _, p := range written {
		logger.Printf("wrote %s", p)
	}
}

// run writes every catalog and wire-message schema under outDir and returns
// the written paths in order.
func run(outDir string) ([]string, error) {
	all := map[string]*reflectschema.Schema{}
	for name, s := range catalogs.Schemas() {
		all[filepath.Join("catalogs", schemaFileName(name))] = s
	}
	for name, s := range protocol.Schemas() {
		all[filepath.Join("protocol", name)] = s
	}

	names := make([]string, 0, len(all))
	for n := range all {
		names = append(names, n)
	}
	sort.Strings(names)

	written := make([]string, 0, len(names))
	for _, n := range names {
		b, err := json.MarshalIndent(all[n], "", "  ")
		if err != nil {
			return written, fmt.Errorf("marshal %s: %w", n, err)
		}
		p := filepath.Join(outDir, n)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return written, err
		}
		if err := os.WriteFile(p, append(b, '\n'), 0o644); err != nil {
			return written, err
		}
		written = append(written, p)
	}
	return written, nil
}

// buildings.json -> buildings.schema.json
func schemaFileName(catalog string) string {
	ext := filepath.Ext(catalog)
	return catalog[:len(catalog)-len(ext)] + ".schema" + ext
}
