// Package schemas holds the JSON Schemas that constrain LLM output, one per
// target table. The registry is loaded once at startup and immutable
// afterwards: pure lookup, no logic.
package schemas

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/govdata-ar/rendicion-tracker/internal/common"
)

// Target table names. They double as schema names throughout the pipeline.
const (
	Jurisdiccion = "jurisdiccion"
	Programas    = "programas"
	Metas        = "metas"
)

// Entry is one registered schema: the raw map (sent to the LLM and embedded
// in prompts) plus the compiled form used for local validation.
type Entry struct {
	Name     string
	Raw      map[string]any
	Compiled *jsonschema.Schema
}

// Registry maps schema names to compiled entries.
type Registry struct {
	entries map[string]Entry
	names   []string
}

// New builds and compiles the built-in schemas. Compilation failure is a
// programming error surfaced at startup rather than mid-run.
func New() (*Registry, error) {
	registry := &Registry{
		entries: make(map[string]Entry),
		names:   []string{Jurisdiccion, Programas, Metas},
	}
	raws := map[string]map[string]any{
		Jurisdiccion: buildJurisdiccionSchema(),
		Programas:    buildProgramasSchema(),
		Metas:        buildMetasSchema(),
	}
	for name, raw := range raws {
		compiled, err := compile(name, raw)
		if err != nil {
			return nil, fmt.Errorf("compile schema %q: %w", name, err)
		}
		registry.entries[name] = Entry{Name: name, Raw: raw, Compiled: compiled}
	}
	return registry, nil
}

// Names returns the schema names in extraction order. Jurisdicciones and
// programas must be extracted before metas so the linker has its match set.
func (r *Registry) Names() []string {
	return append([]string(nil), r.names...)
}

// Get looks up a schema by name. Unknown names are a configuration error.
func (r *Registry) Get(name string) (Entry, error) {
	entry, ok := r.entries[name]
	if !ok {
		return Entry{}, common.NewConfigError(fmt.Sprintf("unknown schema %q", name))
	}
	return entry, nil
}

func compile(name string, raw map[string]any) (*jsonschema.Schema, error) {
	b, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name+".json", bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	return compiler.Compile(name + ".json")
}

// Validate checks data (already unmarshalled into Go values) against the
// compiled schema.
func (e Entry) Validate(data any) error {
	if err := e.Compiled.Validate(data); err != nil {
		return fmt.Errorf("json does not match schema %q: %w", e.Name, err)
	}
	return nil
}

// Every schema wraps its rows in a single "records" array so extraction
// output is handled uniformly regardless of the target table.
func recordsSchema(items map[string]any) map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"records": map[string]any{
				"type":  "array",
				"items": items,
			},
		},
		"required": []string{"records"},
	}
}

func numberOrNull() map[string]any {
	return map[string]any{"type": []string{"number", "null"}}
}

func stringOrNull() map[string]any {
	return map[string]any{"type": []string{"string", "null"}}
}

func buildJurisdiccionSchema() map[string]any {
	return recordsSchema(map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"Juri_Codigo": map[string]any{"type": "string", "minLength": 1},
			"Juri_Nombre": stringOrNull(),
			"Juri_Grupo":  stringOrNull(),
		},
		"required": []string{"Juri_Codigo"},
	})
}

func buildProgramasSchema() map[string]any {
	return recordsSchema(map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"Juri_Codigo":     stringOrNull(),
			"Prog_Codigo":     stringOrNull(),
			"Prog_Nombre":     map[string]any{"type": "string", "minLength": 1},
			"Prog_Vigente":    numberOrNull(),
			"Prog_Preventivo": numberOrNull(),
			"Prog_Compromiso": numberOrNull(),
			"Prog_Devengado":  numberOrNull(),
			"Prog_Pagado":     numberOrNull(),
		},
		"required": []string{"Prog_Nombre"},
	})
}

func buildMetasSchema() map[string]any {
	return recordsSchema(map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"Meta_Codigo":    stringOrNull(),
			"Meta_Nombre":    map[string]any{"type": "string", "minLength": 1},
			"Meta_Unidad":    stringOrNull(),
			"Meta_Anual":     numberOrNull(),
			"Meta_Parcial":   numberOrNull(),
			"Meta_Ejecutado": numberOrNull(),
			"Juri_Codigo":    stringOrNull(),
			"Prog_Codigo":    stringOrNull(),
			"Prog_Nombre":    stringOrNull(),
		},
		"required": []string{"Meta_Nombre"},
	})
}
