package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Record is one parsed table: its caption plus the key-value data extracted
// from its rows. Fields keep document order; Set overwrites an existing key
// in place, so keys are unique within a Record.
type Record struct {
	Caption string
	Fields  []Field
}

// Field is a single top-level entry of a Record.
type Field struct {
	Key   string
	Value Value
}

// Value is the sum type of everything a table cell can decode to. Consumers
// type-switch on the concrete type instead of probing map shapes.
//
//	Text     plain cell text
//	Section  nested sub-entries under a header-only row
//	Package  a named option bundle with price and addon list
type Value interface {
	isValue()
}

// Text is a plain string cell value.
type Text string

func (Text) isValue() {}

// Section holds the sub-entries collected under a section header row, in
// document order.
type Section []SubField

// SubField is one entry of a Section.
type SubField struct {
	Key   string
	Value string
}

func (Section) isValue() {}

// Get returns the sub-value for key.
func (s Section) Get(key string) (string, bool) {
	for _, sub := range s {
		if sub.Key == key {
			return sub.Value, true
		}
	}
	return "", false
}

// Set returns the section with key set to value, overwriting an existing
// entry or appending a new one.
func (s Section) Set(key, value string) Section {
	for i := range s {
		if s[i].Key == key {
			s[i].Value = value
			return s
		}
	}
	return append(s, SubField{Key: key, Value: value})
}

// Package is a named option bundle: its price and the addon items listed in
// the bundle detail popup.
type Package struct {
	Price  string
	Addons []string
}

func (Package) isValue() {}

// Get returns the value stored under key.
func (r *Record) Get(key string) (Value, bool) {
	for _, f := range r.Fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// Set stores value under key, overwriting an existing field in place.
func (r *Record) Set(key string, value Value) {
	for i := range r.Fields {
		if r.Fields[i].Key == key {
			r.Fields[i].Value = value
			return
		}
	}
	r.Fields = append(r.Fields, Field{Key: key, Value: value})
}

// MarshalJSON encodes the record as {"caption": ..., "data": {...}} with the
// data keys in field order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"caption":`)
	caption, err := json.Marshal(r.Caption)
	if err != nil {
		return nil, err
	}
	buf.Write(caption)
	buf.WriteString(`,"data":`)
	if err := writeFields(&buf, r.Fields); err != nil {
		return nil, err
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeFields(buf *bytes.Buffer, fields []Field) error {
	buf.WriteByte('{')
	for i, f := range fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Key)
		if err != nil {
			return err
		}
		buf.Write(key)
		buf.WriteByte(':')
		if err := writeValue(buf, f.Value); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}

func writeValue(buf *bytes.Buffer, v Value) error {
	switch v := v.(type) {
	case Text:
		b, err := json.Marshal(string(v))
		if err != nil {
			return err
		}
		buf.Write(b)
	case Section:
		buf.WriteByte('{')
		for i, sub := range v {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(sub.Key)
			if err != nil {
				return err
			}
			val, err := json.Marshal(sub.Value)
			if err != nil {
				return err
			}
			buf.Write(key)
			buf.WriteByte(':')
			buf.Write(val)
		}
		buf.WriteByte('}')
	case Package:
		addons := v.Addons
		if addons == nil {
			addons = []string{}
		}
		b, err := json.Marshal(struct {
			Price  string   `json:"price"`
			Addons []string `json:"addons"`
		}{Price: v.Price, Addons: addons})
		if err != nil {
			return err
		}
		buf.Write(b)
	default:
		return fmt.Errorf("unsupported record value type %T", v)
	}
	return nil
}

// UnmarshalJSON decodes a record written by MarshalJSON, preserving the data
// key order.
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := expectDelim(dec, '{'); err != nil {
		return fmt.Errorf("record: %w", err)
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("record: unexpected token %v", tok)
		}
		switch key {
		case "caption":
			if err := dec.Decode(&r.Caption); err != nil {
				return err
			}
		case "data":
			fields, err := decodeFields(dec)
			if err != nil {
				return err
			}
			r.Fields = fields
		default:
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return err
			}
		}
	}
	_, err := dec.Token() // closing brace
	return err
}

func decodeFields(dec *json.Decoder) ([]Field, error) {
	if err := expectDelim(dec, '{'); err != nil {
		return nil, fmt.Errorf("record data: %w", err)
	}
	var fields []Field
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("record data: unexpected token %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, err
		}
		value, err := decodeValue(raw)
		if err != nil {
			return nil, fmt.Errorf("record data %q: %w", key, err)
		}
		fields = append(fields, Field{Key: key, Value: value})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return fields, nil
}

func decodeValue(raw json.RawMessage) (Value, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty value")
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return nil, err
		}
		return Text(s), nil
	case '{':
		var probe map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &probe); err != nil {
			return nil, err
		}
		_, hasPrice := probe["price"]
		_, hasAddons := probe["addons"]
		if hasPrice && hasAddons && len(probe) == 2 {
			var pkg struct {
				Price  string   `json:"price"`
				Addons []string `json:"addons"`
			}
			if err := json.Unmarshal(trimmed, &pkg); err != nil {
				return nil, err
			}
			if pkg.Addons == nil {
				pkg.Addons = []string{}
			}
			return Package{Price: pkg.Price, Addons: pkg.Addons}, nil
		}
		return decodeSection(trimmed)
	}
	return nil, fmt.Errorf("unsupported value %s", trimmed)
}

func decodeSection(raw []byte) (Section, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}
	section := Section{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("section: unexpected token %v", tok)
		}
		var value string
		if err := dec.Decode(&value); err != nil {
			return nil, err
		}
		section = append(section, SubField{Key: key, Value: value})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return section, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}
