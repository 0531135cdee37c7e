package media

import (
	_ "embed"
	"fmt"

	"github.com/xeipuuv/gojsonschema"

	"github.com/AltairaLabs/MediaKit/schema"
)

//go:embed record.schema.json
var recordSchemaJSON string

var recordSchemaLoader = gojsonschema.NewStringLoader(recordSchemaJSON)

// validateRecordJSON checks a raw metadata document against the record
// schema before it is trusted. A document that fails here is treated as
// corrupt state, not as a malformed request.
func validateRecordJSON(data []byte) error {
	result, err := schema.ValidateJSONAgainstLoader(data, recordSchemaLoader)
	if err != nil {
		return err
	}
	if !result.Valid {
		return fmt.Errorf("metadata document rejected by schema: %w", result.FirstError())
	}
	return nil
}
