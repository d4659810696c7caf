package messages

import "github.com/invopop/jsonschema"

var reflector = jsonschema.Reflector{
	AllowAdditionalProperties: false,
	DoNotReference:            true,
}

type parseEnvelope struct {
	Type string `json:"type" jsonschema:"enum=parse"`
	Text string `json:"text" jsonschema:"description=Console line with surrounding whitespace removed"`
}

type printEnvelope struct {
	Type string `json:"type" jsonschema:"enum=print"`
	Text string `json:"text" jsonschema:"description=Text rendered after the console marker"`
}

// JSONSchema returns the schema of each wire envelope keyed by its type tag.
func JSONSchema() map[string]*jsonschema.Schema {
	return map[string]*jsonschema.Schema{
		TypeParse: reflector.Reflect(&parseEnvelope{}),
		TypePrint: reflector.Reflect(&printEnvelope{}),
	}
}
