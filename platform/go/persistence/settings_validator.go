package persistence

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed settings_schema.json
var settingsSchemaJSON string

// SettingsValidator checks the optional branding/feature-flag payload a
// signup may carry before it is handed to the provisioning procedure. The
// schema is embedded and compiled once.
type SettingsValidator struct {
	schema *jsonschema.Schema
}

// NewSettingsValidator compiles the embedded settings schema.
func NewSettingsValidator() (*SettingsValidator, error) {
	compiler := jsonschema.NewCompiler()
	const url = "memory://schemas/tenant-settings.json"
	if err := compiler.AddResource(url, strings.NewReader(settingsSchemaJSON)); err != nil {
		return nil, fmt.Errorf("register settings schema: %w", err)
	}
	compiled, err := compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile settings schema: %w", err)
	}
	return &SettingsValidator{schema: compiled}, nil
}

// Validate ensures the payload is a JSON object matching the settings schema.
func (v *SettingsValidator) Validate(payload []byte) error {
	if len(payload) == 0 {
		return fmt.Errorf("payload is required for validation")
	}

	var document any
	if err := json.Unmarshal(payload, &document); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}

	if err := v.schema.Validate(document); err != nil {
		return fmt.Errorf("settings validation: %w", err)
	}
	return nil
}
