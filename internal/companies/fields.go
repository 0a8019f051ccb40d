package companies

import (
	"encoding/json"
	"errors"
	"maps"
	"slices"

	apperrors "github.com/utafrali/salesonboard/pkg/errors"
	"github.com/utafrali/salesonboard/pkg/validator"
)

// validationError converts struct validation failures into VALIDATION_ERROR.
func validationError(err error) error {
	var verr *validator.ValidationError
	if !errors.As(err, &verr) {
		return apperrors.Unknown(err)
	}
	return apperrors.Validation("Request validation failed", verr.Fields())
}

// setFields lists the JSON names of the fields a partial update sends.
func setFields(req any) []string {
	raw, err := json.Marshal(req)
	if err != nil {
		return nil
	}
	var m map[string]json.RawMessage
	if json.Unmarshal(raw, &m) != nil {
		return nil
	}
	return slices.Sorted(maps.Keys(m))
}
