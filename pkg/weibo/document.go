package weibo

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"wbscraper/pkg/errors"
)

// Document is one decoded JSON object from the API.
// Fields are read through explicit accessors: the required ones fail with an
// unexpected_shape error, the optional ones fall back to the default given by the caller.
type Document map[string]any

func decodeDocument(body []byte) (Document, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, fmt.Errorf("response is not a JSON object")
	}
	return doc, nil
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		if f, err := n.Float64(); err == nil && f == float64(int64(f)) {
			return int64(f), true
		}
	case float64:
		if n == float64(int64(n)) {
			return int64(n), true
		}
	case int:
		return int64(n), true
	case int64:
		return n, true
	case string:
		if i, err := strconv.ParseInt(n, 10, 64); err == nil {
			return i, true
		}
	}
	return 0, false
}

// Int64 returns a required integer field. Numeric strings are accepted.
func (d Document) Int64(key string) (int64, error) {
	v, ok := d[key]
	if !ok || v == nil {
		return 0, errors.UnexpectedShape("missing field %q", key)
	}
	n, ok := toInt64(v)
	if !ok {
		return 0, errors.UnexpectedShape("field %q is not an integer: %v", key, v)
	}
	return n, nil
}

// Int returns a required integer field as int
func (d Document) Int(key string) (int, error) {
	n, err := d.Int64(key)
	return int(n), err
}

// OptInt returns an integer field or def when it is absent or not numeric
func (d Document) OptInt(key string, def int) int {
	if n, ok := toInt64(d[key]); ok {
		return int(n)
	}
	return def
}

// String returns a required string field
func (d Document) String(key string) (string, error) {
	v, ok := d[key]
	if !ok || v == nil {
		return "", errors.UnexpectedShape("missing field %q", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", errors.UnexpectedShape("field %q is not a string: %v", key, v)
	}
	return s, nil
}

// OptString returns a string field or def
func (d Document) OptString(key, def string) string {
	if s, ok := d[key].(string); ok {
		return s
	}
	return def
}

// OptBool returns a boolean field or def. The API sometimes encodes flags as 0/1.
func (d Document) OptBool(key string, def bool) bool {
	switch v := d[key].(type) {
	case bool:
		return v
	case nil:
		return def
	default:
		if n, ok := toInt64(v); ok {
			return n != 0
		}
	}
	return def
}

// Object returns a required nested object
func (d Document) Object(key string) (Document, error) {
	v, ok := d[key]
	if !ok || v == nil {
		return nil, errors.UnexpectedShape("missing object %q", key)
	}
	obj, ok := v.(map[string]any)
	if !ok {
		if doc, isDoc := v.(Document); isDoc {
			return doc, nil
		}
		return nil, errors.UnexpectedShape("field %q is not an object", key)
	}
	return Document(obj), nil
}

// OptObject returns a nested object or nil
func (d Document) OptObject(key string) Document {
	obj, err := d.Object(key)
	if err != nil {
		return nil
	}
	return obj
}

// OptArray returns a nested array or nil
func (d Document) OptArray(key string) []any {
	arr, _ := d[key].([]any)
	return arr
}

// Objects returns a required array whose elements must all be objects
func (d Document) Objects(key string) ([]Document, error) {
	v, ok := d[key]
	if !ok || v == nil {
		return nil, errors.UnexpectedShape("missing array %q", key)
	}
	switch arr := v.(type) {
	case []Document:
		return arr, nil
	case []any:
		out := make([]Document, 0, len(arr))
		for i, el := range arr {
			obj, ok := el.(map[string]any)
			if !ok {
				if doc, isDoc := el.(Document); isDoc {
					out = append(out, doc)
					continue
				}
				return nil, errors.UnexpectedShape("%s[%d] is not an object", key, i)
			}
			out = append(out, Document(obj))
		}
		return out, nil
	default:
		return nil, errors.UnexpectedShape("field %q is not an array", key)
	}
}

// OK reports whether the envelope carries ok == 1
func (d Document) OK() bool {
	n, ok := toInt64(d["ok"])
	return ok && n == 1
}
