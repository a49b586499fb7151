package assess

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/ppiankov/erosion/internal/model"
)

// Validate checks an assessment against the output schema consumers rely on
func Validate(a *model.EnhancedAssessment) error {
	if a == nil {
		return model.NewValidationError("", "assessment is nil")
	}
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal assessment: %w", err)
	}
	return ValidateJSON(data)
}

// ValidateJSON checks a serialized assessment. Required fields must be
// present and non-null, status must be a known value and dataCoverage must
// lie in [0, 1]. Fields the schema does not name are allowed.
func ValidateJSON(data []byte) error {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return model.NewValidationError("", "not a JSON object: %v", err)
	}

	for _, field := range model.RequiredAssessmentFields() {
		raw, ok := doc[field]
		if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			return model.NewValidationError(field, "required field is missing")
		}
	}

	var category string
	if err := json.Unmarshal(doc["category"], &category); err != nil || category == "" {
		return model.NewValidationError("category", "must be a non-empty string")
	}

	var status string
	if err := json.Unmarshal(doc["status"], &status); err != nil || !model.Status(status).Valid() {
		return model.NewValidationError("status", "must be one of Stable, Warning, Drift, Capture; got %s", doc["status"])
	}

	var coverage float64
	if err := json.Unmarshal(doc["dataCoverage"], &coverage); err != nil || coverage < 0 || coverage > 1 {
		return model.NewValidationError("dataCoverage", "must be a number in [0, 1]; got %s", doc["dataCoverage"])
	}

	for _, field := range []string{"matches", "evidenceFor", "evidenceAgainst", "howWeCouldBeWrong"} {
		var list []json.RawMessage
		if err := json.Unmarshal(doc[field], &list); err != nil {
			return model.NewValidationError(field, "must be an array")
		}
	}
	return nil
}
