package models

import "encoding/json"

// TrainingResult is the raw response body of a training invocation
type TrainingResult []byte

// IsFailure reports whether the body is a structured failure document.
// Any body that parses as JSON is a failure, even if it could also be a
// valid artifact; everything else is the artifact.
func (r TrainingResult) IsFailure() bool {
	return json.Valid(r)
}
