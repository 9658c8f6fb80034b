package record

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

// Field describes one node of the template shape.
type Field struct {
	Name   string
	Kind   Kind
	Fields []*Field // KindRecord
	Elem   *Field   // KindList
}

// Schema is the shape derived from a template document. Payloads are
// normalized against it and then checked by a compiled JSON Schema.
type Schema struct {
	root      *Field
	validator *jsonschema.Schema
}

var placeholderPattern = regexp.MustCompile(`^\[[^\[\]]*\]$`)

// NewSchema derives a schema from a parsed YAML template.
func NewSchema(doc *yaml.Node) (*Schema, error) {
	root, err := fieldFromNode("", doc)
	if err != nil {
		return nil, err
	}
	if root.Kind != KindRecord {
		return nil, errors.New("template root must be a mapping")
	}
	if len(root.Fields) == 0 {
		return nil, errors.New("template defines no sections")
	}
	validator, err := compileValidator(root)
	if err != nil {
		return nil, err
	}
	return &Schema{root: root, validator: validator}, nil
}

// Sections returns the top-level field names in template order.
func (s *Schema) Sections() []string {
	out := make([]string, 0, len(s.root.Fields))
	for _, f := range s.root.Fields {
		out = append(out, f.Name)
	}
	return out
}

// Root exposes the top-level field.
func (s *Schema) Root() *Field { return s.root }

// Empty returns a record with every template field present and empty.
func (s *Schema) Empty() *Record {
	return emptyValue(s.root).Record()
}

// Coerce validates a decoded payload and converts it into a record that
// carries every template key. Missing fields default to "" or an empty
// list, placeholder echoes such as "[Your Name]" are cleared, scalars are
// formatted as strings and keys unknown to the template are dropped. A
// value of the wrong shape is rejected.
func (s *Schema) Coerce(raw any) (*Record, error) {
	if raw == nil {
		return nil, errors.New("payload is empty")
	}
	if _, ok := asStringMap(raw); !ok {
		return nil, fmt.Errorf("payload is %T, want a mapping", raw)
	}

	normalized := normalize(raw, s.root)

	// Round-trip through JSON so the validator sees only JSON-native types.
	b, err := json.Marshal(normalized)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	var doc any
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	if err := s.validator.Validate(doc); err != nil {
		return nil, fmt.Errorf("payload does not match template: %w", err)
	}
	return buildValue(doc, s.root).Record(), nil
}

func fieldFromNode(name string, node *yaml.Node) (*Field, error) {
	if node == nil {
		return &Field{Name: name, Kind: KindString}, nil
	}
	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return nil, errors.New("template is empty")
		}
		return fieldFromNode(name, node.Content[0])
	case yaml.AliasNode:
		return fieldFromNode(name, node.Alias)
	case yaml.ScalarNode:
		return &Field{Name: name, Kind: KindString}, nil
	case yaml.MappingNode:
		f := &Field{Name: name, Kind: KindRecord}
		seen := make(map[string]bool)
		for i := 0; i+1 < len(node.Content); i += 2 {
			key := node.Content[i].Value
			if seen[key] {
				continue
			}
			seen[key] = true
			child, err := fieldFromNode(key, node.Content[i+1])
			if err != nil {
				return nil, err
			}
			f.Fields = append(f.Fields, child)
		}
		return f, nil
	case yaml.SequenceNode:
		elem, err := listElem(name, node.Content)
		if err != nil {
			return nil, err
		}
		return &Field{Name: name, Kind: KindList, Elem: elem}, nil
	default:
		return nil, fmt.Errorf("template field %q: unsupported node kind %d", name, node.Kind)
	}
}

// listElem merges the sample items of a template list into one element
// shape. Record items contribute the union of their keys.
func listElem(name string, items []*yaml.Node) (*Field, error) {
	var elem *Field
	for _, item := range items {
		f, err := fieldFromNode(name, item)
		if err != nil {
			return nil, err
		}
		switch {
		case elem == nil:
			elem = f
		case elem.Kind != f.Kind:
			return nil, fmt.Errorf("template list %q mixes %s and %s items", name, elem.Kind, f.Kind)
		case elem.Kind == KindRecord:
			mergeFields(elem, f)
		}
	}
	if elem == nil {
		elem = &Field{Name: name, Kind: KindString}
	}
	return elem, nil
}

func mergeFields(dst, src *Field) {
	have := make(map[string]bool, len(dst.Fields))
	for _, f := range dst.Fields {
		have[f.Name] = true
	}
	for _, f := range src.Fields {
		if !have[f.Name] {
			dst.Fields = append(dst.Fields, f)
		}
	}
}

func (f *Field) jsonSchema() map[string]any {
	switch f.Kind {
	case KindRecord:
		props := make(map[string]any, len(f.Fields))
		required := make([]string, 0, len(f.Fields))
		for _, child := range f.Fields {
			props[child.Name] = child.jsonSchema()
			required = append(required, child.Name)
		}
		return map[string]any{
			"type":                 "object",
			"properties":           props,
			"required":             required,
			"additionalProperties": false,
		}
	case KindList:
		return map[string]any{
			"type":  "array",
			"items": f.Elem.jsonSchema(),
		}
	default:
		return map[string]any{"type": "string"}
	}
}

func compileValidator(root *Field) (*jsonschema.Schema, error) {
	b, err := json.Marshal(root.jsonSchema())
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("resume-template.json", bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	compiled, err := compiler.Compile("resume-template.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return compiled, nil
}

func normalize(raw any, f *Field) any {
	switch f.Kind {
	case KindString:
		if raw == nil {
			return ""
		}
		if s, ok := scalarString(raw); ok {
			return cleanScalar(s)
		}
		return jsonCompatible(raw)
	case KindRecord:
		if raw == nil {
			raw = map[string]any{}
		}
		m, ok := asStringMap(raw)
		if !ok {
			return jsonCompatible(raw)
		}
		out := make(map[string]any, len(f.Fields))
		for _, child := range f.Fields {
			out[child.Name] = normalize(m[child.Name], child)
		}
		return out
	case KindList:
		switch t := raw.(type) {
		case nil:
			return []any{}
		case []any:
			out := make([]any, 0, len(t))
			for _, item := range t {
				if f.Elem.Kind == KindString {
					item = unwrapSingleEntry(item)
				}
				n := normalize(item, f.Elem)
				if isBlank(n) {
					continue
				}
				out = append(out, n)
			}
			return out
		case string:
			if f.Elem.Kind != KindString {
				return t
			}
			if s := cleanScalar(t); s != "" {
				return []any{s}
			}
			return []any{}
		default:
			return jsonCompatible(raw)
		}
	}
	return jsonCompatible(raw)
}

// unwrapSingleEntry turns {"responsibility_1": "Built X"} into "Built X".
func unwrapSingleEntry(item any) any {
	m, ok := asStringMap(item)
	if !ok || len(m) != 1 {
		return item
	}
	for _, v := range m {
		if s, ok := scalarString(v); ok {
			return s
		}
	}
	return item
}

func cleanScalar(s string) string {
	s = strings.TrimSpace(s)
	if placeholderPattern.MatchString(s) {
		return ""
	}
	return s
}

func isBlank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case []any:
		return len(t) == 0
	case map[string]any:
		for _, child := range t {
			if !isBlank(child) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func jsonCompatible(raw any) any {
	if m, ok := asStringMap(raw); ok {
		out := make(map[string]any, len(m))
		for k, v := range m {
			out[k] = jsonCompatible(v)
		}
		return out
	}
	switch t := raw.(type) {
	case nil:
		return nil
	case []any:
		out := make([]any, 0, len(t))
		for _, item := range t {
			out = append(out, jsonCompatible(item))
		}
		return out
	}
	if s, ok := scalarString(raw); ok {
		return s
	}
	return fmt.Sprint(raw)
}

func emptyValue(f *Field) Value {
	switch f.Kind {
	case KindRecord:
		rec := New()
		for _, child := range f.Fields {
			rec.Set(child.Name, emptyValue(child))
		}
		return Nested(rec)
	case KindList:
		return List()
	default:
		return String("")
	}
}

// buildValue converts validated data into a Value in template field order.
func buildValue(raw any, f *Field) Value {
	switch f.Kind {
	case KindRecord:
		m, _ := raw.(map[string]any)
		rec := New()
		for _, child := range f.Fields {
			rec.Set(child.Name, buildValue(m[child.Name], child))
		}
		return Nested(rec)
	case KindList:
		items, _ := raw.([]any)
		out := make([]Value, 0, len(items))
		for _, item := range items {
			out = append(out, buildValue(item, f.Elem))
		}
		return List(out...)
	default:
		s, _ := raw.(string)
		return String(s)
	}
}
