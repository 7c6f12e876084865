package llm

import (
	"fmt"
	"strings"

	"maitred/internal/models"

	"github.com/tidwall/gjson"
)

// Fields is a parsed structured response.
type Fields struct {
	raw gjson.Result
}

// ParseFields extracts a JSON object from model text and checks it against schema.
func ParseFields(text string, schema Schema) (Fields, error) {
	obj, err := extractObject(text)
	if err != nil {
		return Fields{}, err
	}

	for _, f := range schema {
		v := obj.Get(gjson.Escape(f.Name))
		if !v.Exists() {
			return Fields{}, fmt.Errorf("%w: missing field %q", models.ErrMalformedOutput, f.Name)
		}
		if !matchesType(v, f.Type) {
			return Fields{}, fmt.Errorf("%w: field %q is not a %s", models.ErrMalformedOutput, f.Name, f.Type)
		}
	}
	return Fields{raw: obj}, nil
}

// FieldsFromJSON wraps an already-valid JSON object, mainly for fakes.
func FieldsFromJSON(raw string) Fields {
	return Fields{raw: gjson.Parse(raw)}
}

func (f Fields) Has(name string) bool      { return f.raw.Get(gjson.Escape(name)).Exists() }
func (f Fields) String(name string) string { return f.raw.Get(gjson.Escape(name)).String() }
func (f Fields) Float(name string) float64 { return f.raw.Get(gjson.Escape(name)).Float() }
func (f Fields) Bool(name string) bool     { return f.raw.Get(gjson.Escape(name)).Bool() }

// Strings returns an array field as strings, skipping empty entries.
func (f Fields) Strings(name string) []string {
	var out []string
	f.raw.Get(gjson.Escape(name)).ForEach(func(_, v gjson.Result) bool {
		if s := strings.TrimSpace(v.String()); s != "" {
			out = append(out, s)
		}
		return true
	})
	return out
}

// Raw returns the JSON text of the object.
func (f Fields) Raw() string { return f.raw.Raw }

func matchesType(v gjson.Result, t FieldType) bool {
	switch t {
	case TypeString:
		return v.Type == gjson.String
	case TypeNumber:
		return v.Type == gjson.Number
	case TypeBoolean:
		return v.Type == gjson.True || v.Type == gjson.False
	case TypeArray:
		return v.IsArray()
	}
	return true
}

// extractObject accepts a bare object, a fenced ```json block, or an object
// embedded in surrounding prose.
func extractObject(text string) (gjson.Result, error) {
	text = strings.TrimSpace(text)
	candidates := []string{text}

	if i := strings.Index(text, "```"); i >= 0 {
		block := text[i+3:]
		block = strings.TrimPrefix(block, "json")
		if j := strings.Index(block, "```"); j >= 0 {
			block = block[:j]
		}
		candidates = append(candidates, strings.TrimSpace(block))
	}
	if i, j := strings.Index(text, "{"), strings.LastIndex(text, "}"); i >= 0 && j > i {
		candidates = append(candidates, text[i:j+1])
	}

	for _, c := range candidates {
		if gjson.Valid(c) {
			if r := gjson.Parse(c); r.IsObject() {
				return r, nil
			}
		}
	}
	return gjson.Result{}, fmt.Errorf("%w: no JSON object in response", models.ErrMalformedOutput)
}
