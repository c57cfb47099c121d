package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

const (
	// FieldURL holds the resource locator of a record.
	FieldURL = "url"
	// FieldMetaData holds the extracted JSON-LD fragment, or the empty sentinel.
	FieldMetaData = "metaData"
)

// EmptyMetaData marks a record as attempted with no usable result.
var EmptyMetaData = json.RawMessage(`{}`)

var errNotObject = errors.New("record is not a JSON object")

// Record is one entry of a collection. Fields keep the order they had in the
// source document and their values are carried as raw JSON, so fields the
// pipeline does not touch survive a load/persist cycle unchanged.
type Record struct {
	fields *orderedmap.OrderedMap[string, json.RawMessage]
}

// Collection is the ordered sequence of records. Index order is processing order.
type Collection []*Record

// NewRecord returns an empty record.
func NewRecord() *Record {
	return &Record{fields: orderedmap.New[string, json.RawMessage]()}
}

func (r *Record) ensure() {
	if r.fields == nil {
		r.fields = orderedmap.New[string, json.RawMessage]()
	}
}

// Get returns the raw value stored under key.
func (r *Record) Get(key string) (json.RawMessage, bool) {
	if r == nil || r.fields == nil {
		return nil, false
	}
	return r.fields.Get(key)
}

// Set stores a raw value under key. New keys are appended after existing ones.
func (r *Record) Set(key string, value json.RawMessage) {
	r.ensure()
	r.fields.Set(key, value)
}

// Keys returns the field names in document order.
func (r *Record) Keys() []string {
	if r == nil || r.fields == nil {
		return nil
	}
	keys := make([]string, 0, r.fields.Len())
	for pair := r.fields.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// URL returns the record's url when it is a non-empty string.
func (r *Record) URL() (string, bool) {
	raw, ok := r.Get(FieldURL)
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil || s == "" {
		return "", false
	}
	return s, true
}

// MetaData returns the metaData field, if present.
func (r *Record) MetaData() (json.RawMessage, bool) {
	return r.Get(FieldMetaData)
}

// SetMetaData replaces the metaData field.
func (r *Record) SetMetaData(value json.RawMessage) {
	r.Set(FieldMetaData, value)
}

// String renders the record as compact JSON for log lines.
func (r *Record) String() string {
	b, err := r.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("<unprintable record: %v>", err)
	}
	return string(b)
}

// MarshalJSON implements json.Marshaler. Fields are written in document
// order and string content is not HTML-escaped.
func (r *Record) MarshalJSON() ([]byte, error) {
	r.ensure()

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	buf.WriteByte('{')
	first := true
	for pair := r.fields.Oldest(); pair != nil; pair = pair.Next() {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		if err := enc.Encode(pair.Key); err != nil {
			return nil, err
		}
		// Encode terminates every value with a newline
		buf.Truncate(buf.Len() - 1)
		buf.WriteByte(':')

		value := pair.Value
		if len(value) == 0 {
			value = json.RawMessage("null")
		}
		if err := json.Compact(&buf, value); err != nil {
			return nil, fmt.Errorf("field %q: %w", pair.Key, err)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON implements json.Unmarshaler. Only JSON objects are accepted.
func (r *Record) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return errNotObject
	}
	r.fields = orderedmap.New[string, json.RawMessage]()
	if err := r.fields.UnmarshalJSON(trimmed); err != nil {
		return fmt.Errorf("failed to decode record: %w", err)
	}
	return nil
}
