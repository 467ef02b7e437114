package model

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema/cv.schema.json
var cvSchema []byte

var cvSchemaLoader = gojsonschema.NewBytesLoader(cvSchema)

// ValidateJSON validates a raw CV document against cv.schema.json.
// Only shapes are checked; empty strings are always accepted.
func ValidateJSON(raw []byte) error {
	res, err := gojsonschema.Validate(cvSchemaLoader, gojsonschema.NewBytesLoader(raw))
	if err != nil {
		// malformed JSON surfaces here rather than as a result error
		return fmt.Errorf("%w: %v", ErrInvalidCV, err)
	}
	return schemaResultErr(res)
}

// ValidateMap validates a generic map, e.g. a decoded request body.
func ValidateMap(m map[string]interface{}) error {
	res, err := gojsonschema.Validate(cvSchemaLoader, gojsonschema.NewGoLoader(m))
	if err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}
	return schemaResultErr(res)
}

func schemaResultErr(res *gojsonschema.Result) error {
	if res.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("%w: %s", ErrInvalidCV, strings.Join(msgs, "; "))
}

// DecodeCV validates raw and decodes it. Absent lists come back empty,
// never nil, so every renderer sees a total value.
func DecodeCV(raw []byte) (CVData, error) {
	if err := ValidateJSON(raw); err != nil {
		return CVData{}, err
	}
	var d CVData
	if err := json.Unmarshal(raw, &d); err != nil {
		return CVData{}, fmt.Errorf("%w: %v", ErrInvalidCV, err)
	}
	return d.Normalize(), nil
}

// Normalize replaces nil slices with empty ones.
func (d CVData) Normalize() CVData {
	out := d.Clone()
	if out.Experiences == nil {
		out.Experiences = []Experience{}
	}
	if out.Education == nil {
		out.Education = []Education{}
	}
	if out.Expertise == nil {
		out.Expertise = []string{}
	}
	if out.Languages == nil {
		out.Languages = []string{}
	}
	if out.References == nil {
		out.References = []Reference{}
	}
	if out.Hobbies == nil {
		out.Hobbies = []string{}
	}
	return out
}
