package config

import (
	"reflect"
	"time"

	"github.com/invopop/jsonschema"
)

// JSONSchema returns the JSON schema of the configuration file. Field names
// follow the YAML keys.
func JSONSchema() *jsonschema.Schema {
	r := &jsonschema.Reflector{
		FieldNameTag:              "yaml",
		DoNotReference:            true,
		AllowAdditionalProperties: false,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t == reflect.TypeOf(time.Duration(0)) {
				return &jsonschema.Schema{
					Type:        "string",
					Pattern:     `^([0-9]+(\.[0-9]+)?(ns|us|µs|ms|s|m|h))+$`,
					Description: `Duration such as "30s" or "5m"`,
				}
			}
			return nil
		},
	}

	s := r.Reflect(&Config{})
	s.Title = "guardfs configuration"
	return s
}
