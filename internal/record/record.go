// Package record defines the structured résumé record and the schema that a
// record is validated against before it is accepted.
package record

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// Kind tags the variant held by a Value.
type Kind uint8

const (
	KindString Kind = iota + 1
	KindRecord
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindRecord:
		return "record"
	case KindList:
		return "list"
	default:
		return "invalid"
	}
}

// Value is a tagged union: a scalar string, a nested record, or an ordered
// list of values. The zero Value is an empty string.
type Value struct {
	kind  Kind
	str   string
	rec   *Record
	items []Value
}

// String wraps a scalar.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Nested wraps a record. A nil record is stored as an empty one.
func Nested(r *Record) Value {
	if r == nil {
		r = New()
	}
	return Value{kind: KindRecord, rec: r}
}

// List wraps an ordered list of values.
func List(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{kind: KindList, items: items}
}

// Strings builds a list of scalar values.
func Strings(ss ...string) Value {
	items := make([]Value, 0, len(ss))
	for _, s := range ss {
		items = append(items, String(s))
	}
	return List(items...)
}

func (v Value) Kind() Kind {
	if v.kind == 0 {
		return KindString
	}
	return v.kind
}

// Str returns the scalar, or "" for non-string values.
func (v Value) Str() string { return v.str }

// Record returns the nested record, or nil for non-record values.
func (v Value) Record() *Record { return v.rec }

// Items returns the list elements, or nil for non-list values.
func (v Value) Items() []Value { return v.items }

// StringItems returns the scalar elements of a list value.
func (v Value) StringItems() []string {
	out := make([]string, 0, len(v.items))
	for _, item := range v.items {
		if item.Kind() == KindString {
			out = append(out, item.str)
		}
	}
	return out
}

// IsEmpty reports whether the value carries no extracted content.
func (v Value) IsEmpty() bool {
	switch v.Kind() {
	case KindRecord:
		for _, k := range v.rec.keys {
			if !v.rec.vals[k].IsEmpty() {
				return false
			}
		}
		return true
	case KindList:
		return len(v.items) == 0
	default:
		return v.str == ""
	}
}

// Interface converts the value into plain Go types: string, map[string]any
// or []any.
func (v Value) Interface() any {
	switch v.Kind() {
	case KindRecord:
		return v.rec.Map()
	case KindList:
		out := make([]any, 0, len(v.items))
		for _, item := range v.items {
			out = append(out, item.Interface())
		}
		return out
	default:
		return v.str
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind() {
	case KindRecord:
		return v.rec.MarshalJSON()
	case KindList:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, item := range v.items {
			if i > 0 {
				buf.WriteByte(',')
			}
			b, err := item.MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf.Write(b)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil
	default:
		return json.Marshal(v.str)
	}
}

func (v Value) yamlNode() *yaml.Node {
	switch v.Kind() {
	case KindRecord:
		return v.rec.yamlNode()
	case KindList:
		node := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range v.items {
			node.Content = append(node.Content, item.yamlNode())
		}
		return node
	default:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v.str}
	}
}

// Record is an ordered mapping from field names to values.
type Record struct {
	keys []string
	vals map[string]Value
}

// New returns an empty record.
func New() *Record {
	return &Record{vals: make(map[string]Value)}
}

// Set assigns key, appending it to the key order on first use.
func (r *Record) Set(key string, v Value) {
	if r.vals == nil {
		r.vals = make(map[string]Value)
	}
	if _, ok := r.vals[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.vals[key] = v
}

func (r *Record) Get(key string) (Value, bool) {
	if r == nil {
		return Value{}, false
	}
	v, ok := r.vals[key]
	return v, ok
}

// Str is shorthand for reading a scalar field.
func (r *Record) Str(key string) string {
	v, _ := r.Get(key)
	return v.Str()
}

// Keys returns the field names in insertion order.
func (r *Record) Keys() []string {
	if r == nil {
		return nil
	}
	return append([]string(nil), r.keys...)
}

func (r *Record) Len() int {
	if r == nil {
		return 0
	}
	return len(r.keys)
}

// Map converts the record into a plain map suitable for storage encoders.
func (r *Record) Map() map[string]any {
	out := make(map[string]any, r.Len())
	if r == nil {
		return out
	}
	for _, k := range r.keys {
		out[k] = r.vals[k].Interface()
	}
	return out
}

func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if r != nil {
		for i, k := range r.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, err := json.Marshal(k)
			if err != nil {
				return nil, err
			}
			buf.Write(kb)
			buf.WriteByte(':')
			vb, err := r.vals[k].MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf.Write(vb)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON accepts any JSON object whose leaves are strings, objects
// or arrays. Object keys are sorted since JSON carries no field order.
func (r *Record) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := FromAny(raw)
	if err != nil {
		return err
	}
	*r = *parsed
	return nil
}

func (r *Record) MarshalYAML() (any, error) {
	return r.yamlNode(), nil
}

func (r *Record) yamlNode() *yaml.Node {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	if r == nil {
		return node
	}
	for _, k := range r.keys {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k},
			r.vals[k].yamlNode(),
		)
	}
	return node
}

// YAML renders the record as a YAML document in field order.
func (r *Record) YAML() (string, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(r.yamlNode()); err != nil {
		return "", err
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// FromAny builds a record from decoded JSON or YAML data. Scalars other than
// strings are formatted; nil becomes an empty string. Map keys are sorted.
func FromAny(raw any) (*Record, error) {
	m, ok := asStringMap(raw)
	if !ok {
		return nil, fmt.Errorf("record: expected mapping, got %T", raw)
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rec := New()
	for _, k := range keys {
		v, err := valueFromAny(m[k])
		if err != nil {
			return nil, fmt.Errorf("record: field %q: %w", k, err)
		}
		rec.Set(k, v)
	}
	return rec, nil
}

func valueFromAny(raw any) (Value, error) {
	switch t := raw.(type) {
	case nil:
		return String(""), nil
	case string:
		return String(t), nil
	case []any:
		items := make([]Value, 0, len(t))
		for i, item := range t {
			v, err := valueFromAny(item)
			if err != nil {
				return Value{}, fmt.Errorf("item %d: %w", i, err)
			}
			items = append(items, v)
		}
		return List(items...), nil
	case []string:
		return Strings(t...), nil
	}
	if _, ok := asStringMap(raw); ok {
		nested, err := FromAny(raw)
		if err != nil {
			return Value{}, err
		}
		return Nested(nested), nil
	}
	if s, ok := scalarString(raw); ok {
		return String(s), nil
	}
	return Value{}, fmt.Errorf("unsupported value type %T", raw)
}

func asStringMap(raw any) (map[string]any, bool) {
	switch t := raw.(type) {
	case map[string]any:
		return t, true
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, v := range t {
			out[fmt.Sprint(k)] = v
		}
		return out, true
	default:
		return nil, false
	}
}

func scalarString(raw any) (string, bool) {
	switch t := raw.(type) {
	case string:
		return t, true
	case bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64, json.Number:
		return fmt.Sprint(t), true
	case fmt.Stringer:
		return t.String(), true
	default:
		return "", false
	}
}
