package ai

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/opsintel/backend/internal/models"
)

var validate = validator.New()

// ParseAnalysis decodes a raw model reply. Nothing is salvaged from a reply
// that fails the schema or field validation.
func ParseAnalysis(raw string) (models.AnalysisResult, error) {
	var out models.AnalysisResult
	if err := decodeStrict(raw, &AnalysisSchema, &out); err != nil {
		return models.AnalysisResult{}, err
	}
	return out, nil
}

func ParseSynthesis(raw string) (models.GlobalSynthesisResult, error) {
	var out models.GlobalSynthesisResult
	if err := decodeStrict(raw, &SynthesisSchema, &out); err != nil {
		return models.GlobalSynthesisResult{}, err
	}
	return out, nil
}

func decodeStrict(raw string, schema *jsonschema.Definition, dst any) error {
	body := []byte(stripFences(raw))

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data after JSON document", ErrInvalidResponse)
	}
	if err := conform(schema, doc, "$"); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if err := validate.Struct(dst); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}

// conform checks types and required keys of doc against the schema.
func conform(def *jsonschema.Definition, doc any, path string) error {
	switch def.Type {
	case jsonschema.Object:
		obj, ok := doc.(map[string]any)
		if !ok {
			return fmt.Errorf("%s: expected object", path)
		}
		for _, key := range def.Required {
			if _, ok := obj[key]; !ok {
				return fmt.Errorf("%s: missing %q", path, key)
			}
		}
		for key, v := range obj {
			prop, ok := def.Properties[key]
			if !ok {
				continue
			}
			if err := conform(&prop, v, path+"."+key); err != nil {
				return err
			}
		}
	case jsonschema.Array:
		arr, ok := doc.([]any)
		if !ok {
			return fmt.Errorf("%s: expected array", path)
		}
		if def.Items == nil {
			return nil
		}
		for i, v := range arr {
			if err := conform(def.Items, v, fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
	case jsonschema.String:
		s, ok := doc.(string)
		if !ok {
			return fmt.Errorf("%s: expected string", path)
		}
		if len(def.Enum) > 0 && !contains(def.Enum, s) {
			return fmt.Errorf("%s: %q not in %v", path, s, def.Enum)
		}
	case jsonschema.Number:
		if _, ok := doc.(json.Number); !ok {
			return fmt.Errorf("%s: expected number", path)
		}
	case jsonschema.Boolean:
		if _, ok := doc.(bool); !ok {
			return fmt.Errorf("%s: expected boolean", path)
		}
	}
	return nil
}

func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
