// Package query compiles attribute-based queries into Cypher statements.
//
// A Query holds named filter values and QueryOptions holds projection and
// traversal controls. Both are ordered maps so that compiling the same input
// twice yields byte-identical statement text.
package query

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Recognized query keys.
const (
	KeyNodeType = "node.type"
	KeyNodeUID  = "node.uid"
	KeyNodeID   = "node.id"
	KeyNodeName = "node.name"

	KeySrcNode  = "src-node"
	KeyDestNode = "dest-node"

	KeyChromosome             = "chromosome"
	KeyVariantID              = "id"
	KeyPanel                  = "panel"
	KeyGene                   = "gene"
	KeyConsequenceType        = "ct"
	KeyBiotype                = "biotype"
	KeyGenotype               = "genotype"
	KeyPopulationFrequencyAlt = "populationFrequencyAlt"
)

// Recognized option keys.
const (
	OptOutput         = "output"
	OptInclude        = "include"
	OptLimit          = "limit"
	OptMaxJumps       = "max-jumps"
	OptIncludeSamples = "include-samples"
)

// Output shapes selectable with OptOutput.
const (
	OutputNode  = "node"
	OutputPath  = "path"
	OutputTable = "table"
)

// Query is an insertion-ordered string-keyed map of filter values.
// The zero value is ready to use.
type Query struct {
	keys   []string
	values map[string]any
}

// QueryOptions carries projection and traversal controls.
type QueryOptions = Query

// New builds a Query from alternating key/value arguments.
func New(kv ...any) *Query {
	q := &Query{}
	for i := 0; i+1 < len(kv); i += 2 {
		q.Put(fmt.Sprint(kv[i]), kv[i+1])
	}
	return q
}

// Put sets key, keeping its original position when it already exists.
func (q *Query) Put(key string, value any) *Query {
	if q.values == nil {
		q.values = make(map[string]any)
	}
	if _, ok := q.values[key]; !ok {
		q.keys = append(q.keys, key)
	}
	q.values[key] = value
	return q
}

// Get returns the value under key. A nil Query holds nothing.
func (q *Query) Get(key string) (any, bool) {
	if q == nil {
		return nil, false
	}
	v, ok := q.values[key]
	return v, ok
}

// Has reports whether key is set.
func (q *Query) Has(key string) bool {
	_, ok := q.Get(key)
	return ok
}

// Delete removes key.
func (q *Query) Delete(key string) {
	if q == nil {
		return
	}
	if _, ok := q.values[key]; !ok {
		return
	}
	delete(q.values, key)
	for i, k := range q.keys {
		if k == key {
			q.keys = append(q.keys[:i:i], q.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the keys in insertion order.
func (q *Query) Keys() []string {
	if q == nil {
		return nil
	}
	out := make([]string, len(q.keys))
	copy(out, q.keys)
	return out
}

// Len returns the number of keys.
func (q *Query) Len() int {
	if q == nil {
		return 0
	}
	return len(q.keys)
}

// Clone returns a shallow copy.
func (q *Query) Clone() *Query {
	c := &Query{}
	if q == nil {
		return c
	}
	for _, k := range q.keys {
		c.Put(k, q.values[k])
	}
	return c
}

// String returns the value under key rendered as text, or "".
func (q *Query) String(key string) string {
	v, ok := q.Get(key)
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Int returns the value under key as an int, or def when unset.
func (q *Query) Int(key string, def int) (int, error) {
	v, ok := q.Get(key)
	if !ok {
		return def, nil
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n != float64(int(n)) {
			return 0, fmt.Errorf("%s: %v is not an integer", key, v)
		}
		return int(n), nil
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, fmt.Errorf("%s: %w", key, err)
		}
		return int(i), nil
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, fmt.Errorf("%s: %w", key, err)
		}
		return i, nil
	}
	return 0, fmt.Errorf("%s: unsupported value type %T", key, v)
}

// List returns the value under key as a list of strings. String values are
// split on commas.
func (q *Query) List(key string) []string {
	v, ok := q.Get(key)
	if !ok {
		return nil
	}
	list, _ := toStringList(v)
	return list
}

func toStringList(v any) ([]string, error) {
	var out []string
	switch t := v.(type) {
	case string:
		for _, s := range strings.Split(t, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	case []string:
		for _, s := range t {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	case []any:
		for _, e := range t {
			s := strings.TrimSpace(fmt.Sprint(e))
			if s != "" {
				out = append(out, s)
			}
		}
	default:
		return nil, fmt.Errorf("unsupported list type %T", v)
	}
	return out, nil
}

// MarshalJSON writes the keys in insertion order.
func (q *Query) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range q.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(q.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads an object, keeping key order. Integral numbers decode
// to int64, other numbers to float64 and nested objects to *Query.
func (q *Query) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("query: expected object, got %v", tok)
	}
	parsed, err := decodeObject(dec)
	if err != nil {
		return err
	}
	*q = *parsed
	return nil
}

func decodeObject(dec *json.Decoder) (*Query, error) {
	q := &Query{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("query: expected key, got %v", tok)
		}
		v, err := decodeValue(dec)
		if err != nil {
			return nil, fmt.Errorf("query: key %q: %w", key, err)
		}
		q.Put(key, v)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return q, nil
}

func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return decodeObject(dec)
		case '[':
			var list []any
			for dec.More() {
				v, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				list = append(list, v)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return list, nil
		}
		return nil, fmt.Errorf("unexpected delimiter %v", t)
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i, nil
		}
		return t.Float64()
	default:
		return t, nil
	}
}
