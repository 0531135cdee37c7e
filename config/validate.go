package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"github.com/AltairaLabs/MediaKit/schema"
)

//go:embed mediastore.schema.json
var manifestSchemaJSON string

var manifestSchemaLoader = gojsonschema.NewStringLoader(manifestSchemaJSON)

const errorFormat = "  - %s"

// ValidateManifest validates a raw YAML manifest against the MediaStoreConfig
// JSON schema and reports field-level violations.
func ValidateManifest(yamlData []byte) (*schema.ValidationResult, error) {
	// Convert YAML to JSON for schema validation
	var doc interface{}
	if err := yaml.Unmarshal(yamlData, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	jsonData, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to convert to JSON: %w", err)
	}

	return schema.ValidateJSONAgainstLoader(jsonData, manifestSchemaLoader)
}

// ValidateManifestStrict validates a manifest and returns an error listing
// every schema violation.
func ValidateManifestStrict(yamlData []byte) error {
	result, err := ValidateManifest(yamlData)
	if err != nil {
		return err
	}

	if !result.Valid {
		var errorMessages []string
		for _, e := range result.Errors {
			errorMessages = append(errorMessages, fmt.Sprintf(errorFormat, e.Error()))
		}
		return fmt.Errorf("manifest failed schema validation:\n%s", strings.Join(errorMessages, "\n"))
	}

	return nil
}
