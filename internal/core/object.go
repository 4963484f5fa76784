package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

// Field is a single key/value pair of an Object.
type Field struct {
	Key   string
	Value any
}

// Object is a decoded JSON object that keeps upstream key order.
//
// Values are nil, bool, string, json.Number, []any or Object.
type Object []Field

// Get returns the value stored under key.
func (o Object) Get(key string) (any, bool) {
	for _, f := range o {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// Lookup returns the value of the first key that is present.
func (o Object) Lookup(keys ...string) (any, bool) {
	for _, key := range keys {
		if value, ok := o.Get(key); ok {
			return value, true
		}
	}
	return nil, false
}

// Has reports whether key is present, even with a null value.
func (o Object) Has(key string) bool {
	_, ok := o.Get(key)
	return ok
}

// Set replaces the value under key or appends a new field.
func (o *Object) Set(key string, value any) {
	for i := range *o {
		if (*o)[i].Key == key {
			(*o)[i].Value = value
			return
		}
	}
	*o = append(*o, Field{Key: key, Value: value})
}

// MarshalJSON writes the fields in their stored order.
func (o Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := marshalValue(f.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		value, err := marshalValue(f.Value)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.Key, err)
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// marshalValue encodes v without HTML escaping so upstream text such as
// "M&M <Pvt>" survives verbatim.
func marshalValue(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// UnmarshalJSON decodes a JSON object, keeping key order.
func (o *Object) UnmarshalJSON(data []byte) error {
	value, err := DecodeJSON(data)
	if err != nil {
		return err
	}
	obj, ok := value.(Object)
	if !ok {
		return fmt.Errorf("expected JSON object, got %T", value)
	}
	*o = obj
	return nil
}

// AsObject returns v as an Object when it is one.
func AsObject(v any) (Object, bool) {
	obj, ok := v.(Object)
	return obj, ok
}

// AsList returns v as a list when it is one.
func AsList(v any) ([]any, bool) {
	list, ok := v.([]any)
	return list, ok
}

// UnwrapData returns the value under a top-level `data` key when v is an
// object carrying one, and v itself otherwise. This is the single place the
// `{data: ...}` response wrapper is recognized.
func UnwrapData(v any) any {
	if obj, ok := AsObject(v); ok {
		if inner, ok := obj.Get("data"); ok {
			return inner
		}
	}
	return v
}

// DecodeJSON decodes a single JSON document into ordered values. Numbers are
// kept as json.Number so large identifiers and amounts render verbatim.
func DecodeJSON(data []byte) (any, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.New("invalid JSON document")
	}
	return decodeResult(gjson.ParseBytes(data)), nil
}

func decodeResult(r gjson.Result) any {
	switch {
	case r.IsObject():
		obj := Object{}
		index := map[string]int{}
		r.ForEach(func(key, value gjson.Result) bool {
			name := key.String()
			if i, seen := index[name]; seen {
				obj[i].Value = decodeResult(value)
				return true
			}
			index[name] = len(obj)
			obj = append(obj, Field{Key: name, Value: decodeResult(value)})
			return true
		})
		return obj
	case r.IsArray():
		list := []any{}
		r.ForEach(func(_, value gjson.Result) bool {
			list = append(list, decodeResult(value))
			return true
		})
		return list
	}

	switch r.Type {
	case gjson.String:
		return r.String()
	case gjson.Number:
		return json.Number(r.Raw)
	case gjson.True:
		return true
	case gjson.False:
		return false
	default:
		return nil
	}
}
