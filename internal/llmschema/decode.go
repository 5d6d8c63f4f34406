package llmschema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
)

var (
	validate = validator.New(validator.WithRequiredStructEnabled())

	agencyRecordNumberPattern = regexp.MustCompile(`^[0-9]{5,}$`)
)

// DecodeLlm1 unmarshals and validates an LLM1 response from a parsed JSON
// object map, rejecting unknown top-level keys and out-of-range values.
func DecodeLlm1(obj map[string]any) (*Llm1Response, error) {
	var resp Llm1Response
	if err := decodeStrict(obj, &resp); err != nil {
		return nil, err
	}
	if !agencyRecordNumberPattern.MatchString(resp.AgencyRecordNumber) {
		return nil, fmt.Errorf("agency_record_number %q does not match expected pattern", resp.AgencyRecordNumber)
	}
	if err := validate.Struct(resp); err != nil {
		return nil, fmt.Errorf("llm1 response failed validation: %w", err)
	}
	return &resp, nil
}

// DecodeLlm2 unmarshals and validates an LLM2 response from a parsed JSON
// object map.
func DecodeLlm2(obj map[string]any) (*Llm2Response, error) {
	var resp Llm2Response
	if err := decodeStrict(obj, &resp); err != nil {
		return nil, err
	}
	if !agencyRecordNumberPattern.MatchString(resp.AgencyRecordNumber) {
		return nil, fmt.Errorf("agency_record_number %q does not match expected pattern", resp.AgencyRecordNumber)
	}
	if err := validate.Struct(resp); err != nil {
		return nil, fmt.Errorf("llm2 response failed validation: %w", err)
	}
	return &resp, nil
}

// decodeStrict round-trips obj through encoding/json with
// DisallowUnknownFields, the Go analogue of the original's extra="forbid".
func decodeStrict(obj map[string]any, target any) error {
	raw, err := json.Marshal(obj)
	if err != nil {
		return fmt.Errorf("failed to re-marshal LLM response object: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(target); err != nil {
		return fmt.Errorf("failed to decode LLM response: %w", err)
	}
	return nil
}
