package catalogs

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	reflectschema "github.com/invopop/jsonschema"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Schemas reflects the JSON Schema of every catalog file from its Go type,
// keyed by file name.
func Schemas() map[string]*reflectschema.Schema {
	r := reflectschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		DoNotReference:             true,
		Anonymous:                  true,
	}
	out := map[string]*reflectschema.Schema{
		"buildings.json": r.Reflect(new(BuildingFile)),
		"upgrades.json":  r.Reflect(new(UpgradeFile)),
		"manifest.json":  r.Reflect(new(Manifest)),
	}
	out["buildings.json"].Title = "Building catalog"
	out["upgrades.json"].Title = "Upgrade catalog"
	out["manifest.json"].Title = "Project manifest"
	return out
}

// SchemaNames lists the catalog files that have a schema, sorted.
func SchemaNames() []string {
	names := make([]string, 0, 3)
	for n := range Schemas() {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

var (
	compileOnce sync.Once
	compiled    map[string]*jsonschema.Schema
	compileErr  error
)

func compileAll() {
	compiled = map[string]*jsonschema.Schema{}
	for name, s := range Schemas() {
		raw, err := json.Marshal(s)
		if err != nil {
			compileErr = fmt.Errorf("%s schema: %w", name, err)
			return
		}
		url := "mem://catalogs/" + name
		c := jsonschema.NewCompiler()
		if err := c.AddResource(url, bytes.NewReader(raw)); err != nil {
			compileErr = fmt.Errorf("%s schema: %w", name, err)
			return
		}
		sch, err := c.Compile(url)
		if err != nil {
			compileErr = fmt.Errorf("%s schema: %w", name, err)
			return
		}
		compiled[name] = sch
	}
}

// Validate checks a catalog file's bytes against its schema.
func Validate(name string, raw []byte) error { return validate(name, raw) }

func validate(name string, raw []byte) error {
	compileOnce.Do(compileAll)
	if compileErr != nil {
		return compileErr
	}
	sch, ok := compiled[name]
	if !ok {
		return fmt.Errorf("%s: no schema", name)
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if err := sch.Validate(v); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}
