// Package normalize turns vendor order payloads into canonical transactions.
package normalize

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
)

var errNotObject = errors.New("payload is not a JSON object")

// Object is a decoded JSON object. Numbers are kept as json.Number.
type Object map[string]any

func Decode(raw []byte) (Object, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, errNotObject
	}
	return Object(obj), nil
}

// DecodeValue decodes any JSON value keeping numbers as json.Number.
func DecodeValue(raw []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// Get resolves a dotted path. Numeric segments index into arrays.
func (o Object) Get(path string) (any, bool) {
	var cur any = map[string]any(o)
	for _, part := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]any:
			next, ok := node[part]
			if !ok {
				return nil, false
			}
			cur = next
		case Object:
			next, ok := node[part]
			if !ok {
				return nil, false
			}
			cur = next
		case []any:
			idx, err := strconv.Atoi(part)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, false
			}
			cur = node[idx]
		default:
			return nil, false
		}
	}
	if cur == nil {
		return nil, false
	}
	return cur, true
}

// First returns the first path that resolves to a non-null value.
func (o Object) First(paths ...string) (any, bool) {
	for _, p := range paths {
		if v, ok := o.Get(p); ok {
			return v, true
		}
	}
	return nil, false
}

// String returns the first non-empty scalar found at paths, as text.
func (o Object) String(paths ...string) string {
	for _, p := range paths {
		v, ok := o.Get(p)
		if !ok {
			continue
		}
		if s := scalarString(v); s != "" {
			return s
		}
	}
	return ""
}

// Object returns the nested object at path. An empty path or "." is the
// object itself.
func (o Object) Object(path string) (Object, bool) {
	if path == "" || path == "." {
		return o, true
	}
	v, ok := o.Get(path)
	if !ok {
		return nil, false
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}
	return Object(m), true
}

func (o Object) Slice(path string) ([]any, bool) {
	v, ok := o.Get(path)
	if !ok {
		return nil, false
	}
	s, ok := v.([]any)
	return s, ok
}

func scalarString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return ""
	}
}
