package main

import (
	_ "embed"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
)

//go:embed contracts/controlplane.yaml
var controlPlaneContract []byte

// loadControlPlaneSpec parses and validates the embedded OpenAPI contract.
func loadControlPlaneSpec() (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	spec, err := loader.LoadFromData(controlPlaneContract)
	if err != nil {
		return nil, fmt.Errorf("load control-plane contract: %w", err)
	}
	if err := spec.Validate(loader.Context); err != nil {
		return nil, fmt.Errorf("validate control-plane contract: %w", err)
	}
	return spec, nil
}
