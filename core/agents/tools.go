package agents

import (
	"reflect"

	"github.com/invopop/jsonschema"
)

// Tool describes a frontend tool the agent may call.
type Tool struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Parameters  *jsonschema.Schema `json:"parameters"`
}

// NewTool describes a tool whose parameters are the JSON schema of T.
//
// T should be a struct; its json and jsonschema tags shape the schema.
func NewTool[T any](name, description string) Tool {
	return Tool{
		Name:        name,
		Description: description,
		Parameters:  Schema[T](),
	}
}

// Schema reflects the inlined JSON schema of T.
func Schema[T any]() *jsonschema.Schema {
	reflector := jsonschema.Reflector{DoNotReference: true}
	typ := reflect.TypeFor[T]()
	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	return reflector.ReflectFromType(typ)
}

// RequestSchema reflects the JSON schema of the turn request body. Tool
// parameters are described as free-form objects.
func RequestSchema() *jsonschema.Schema {
	schemaType := reflect.TypeFor[jsonschema.Schema]()
	reflector := jsonschema.Reflector{
		DoNotReference: true,
		Mapper: func(typ reflect.Type) *jsonschema.Schema {
			if typ == schemaType {
				return &jsonschema.Schema{Type: "object"}
			}
			return nil
		},
	}
	return reflector.Reflect(&TurnRequest{})
}
