package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	invopop "github.com/invopop/jsonschema"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/haasonsaas/fairgame/internal/payoff"
)

var (
	schemaOnce sync.Once
	schemaJSON []byte
	schemaErr  error

	compiledOnce   sync.Once
	compiledSchema *jsonschema.Schema
	compiledErr    error
)

// JSONSchema returns the JSON Schema for GameConfig.
func JSONSchema() ([]byte, error) {
	schemaOnce.Do(func() {
		r := &invopop.Reflector{
			FieldNameTag: "yaml",
			Mapper:       tableSchema,
		}
		schema := r.Reflect(&GameConfig{})
		schemaJSON, schemaErr = json.MarshalIndent(schema, "", "  ")
	})
	return schemaJSON, schemaErr
}

// tableSchema describes the ordered tables as plain objects.
func tableSchema(t reflect.Type) *invopop.Schema {
	var values *invopop.Schema
	switch t {
	case reflect.TypeOf(payoff.Table[float64]{}):
		values = &invopop.Schema{Type: "number"}
	case reflect.TypeOf(payoff.Table[string]{}):
		values = &invopop.Schema{Type: "string"}
	case reflect.TypeOf(payoff.Table[[]string]{}):
		values = &invopop.Schema{Type: "array", Items: &invopop.Schema{Type: "string"}}
	default:
		return nil
	}
	return &invopop.Schema{Type: "object", AdditionalProperties: values}
}

func compiled() (*jsonschema.Schema, error) {
	compiledOnce.Do(func() {
		raw, err := JSONSchema()
		if err != nil {
			compiledErr = err
			return
		}
		compiledSchema, compiledErr = jsonschema.CompileString("fairgame.schema.json", string(raw))
	})
	return compiledSchema, compiledErr
}

// validateSchema checks the document structure before it is decoded.
func validateSchema(root *yaml.Node) error {
	schema, err := compiled()
	if err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}

	var doc any
	if err := root.Decode(&doc); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	var decoded any
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}

	err = schema.Validate(decoded)
	if err == nil {
		return nil
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err
	}
	return &ValidationError{Issues: schemaIssues(ve)}
}

// schemaIssues flattens a schema failure into one line per failing location.
func schemaIssues(ve *jsonschema.ValidationError) []string {
	seen := map[string]bool{}
	var issues []string
	for _, e := range ve.BasicOutput().Errors {
		if e.Error == "" || strings.HasPrefix(e.Error, "doesn't validate with") {
			continue
		}
		location := e.InstanceLocation
		if location == "" {
			location = "/"
		}
		issue := location + ": " + e.Error
		if !seen[issue] {
			seen[issue] = true
			issues = append(issues, issue)
		}
	}
	if len(issues) == 0 {
		issues = append(issues, ve.Error())
	}
	sort.Strings(issues)
	return issues
}
