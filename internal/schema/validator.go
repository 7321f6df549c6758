// Package schema validates extracted model output against embedded JSON
// Schemas before it is decoded into domain types.
package schema

import (
	"embed"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/inducomp/aipk/internal/domain"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// Validator implements domain.ResultValidator with draft-07 schemas.
type Validator struct {
	comparison *gojsonschema.Schema
	simulation *gojsonschema.Schema
	database   *gojsonschema.Schema
}

// NewValidator compiles the embedded schemas once at startup.
func NewValidator() (*Validator, error) {
	comparison, err := compile("schemas/comparison_result.json")
	if err != nil {
		return nil, err
	}
	simulation, err := compile("schemas/simulation_result.json")
	if err != nil {
		return nil, err
	}
	database, err := compile("schemas/product_database.json")
	if err != nil {
		return nil, err
	}

	return &Validator{
		comparison: comparison,
		simulation: simulation,
		database:   database,
	}, nil
}

// ValidateComparison checks a comparison payload.
func (v *Validator) ValidateComparison(data []byte) error {
	return validate(v.comparison, data)
}

// ValidateSimulation checks a simulation payload.
func (v *Validator) ValidateSimulation(data []byte) error {
	return validate(v.simulation, data)
}

// ValidateDatabase checks an imported product database payload.
func (v *Validator) ValidateDatabase(data []byte) error {
	return validate(v.database, data)
}

func compile(name string) (*gojsonschema.Schema, error) {
	raw, err := schemaFS.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema %s: %w", name, err)
	}

	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema %s: %w", name, err)
	}

	return schema, nil
}

func validate(schema *gojsonschema.Schema, data []byte) error {
	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return &domain.MalformedResponseError{
			Raw:   string(data),
			Cause: err,
		}
	}

	if result.Valid() {
		return nil
	}

	issues := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		issues = append(issues, desc.String())
	}

	return &domain.MalformedResponseError{
		Raw:   string(data),
		Cause: fmt.Errorf("schema violations: %s", strings.Join(issues, "; ")),
	}
}
