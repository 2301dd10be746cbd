package protocol

import (
	reflectschema "github.com/invopop/jsonschema"
)

// Schemas reflects the JSON Schema of the wire messages, keyed by the file
// name cmd/schemagen writes them under.
func Schemas() map[string]*reflectschema.Schema {
	r := reflectschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		DoNotReference:             true,
		Anonymous:                  true,
	}
	in := r.Reflect(new(PlayerInput))
	in.Title = "Player input"
	out := r.Reflect(new(ServerMessage))
	out.Title = "Server message"
	return map[string]*reflectschema.Schema{
		"player_input.schema.json":   in,
		"server_message.schema.json": out,
	}
}
