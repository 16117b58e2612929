package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

// DecodeStrict decodes a parameter block into dst, which must be a pointer to
// a struct. Keys that match no field are rejected, and every field whose json
// tag lacks omitempty must be present in opts. Missing keys are reported
// together, in field order.
func DecodeStrict(opts Options, dst any) error {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Pointer || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("config: DecodeStrict needs a pointer to a struct, got %T", dst)
	}
	if missing := missingKeys(opts, rv.Elem().Type()); len(missing) > 0 {
		return fmt.Errorf("config: missing required parameter(s): %s", strings.Join(missing, ", "))
	}

	if opts == nil {
		opts = Options{}
	}
	b, err := json.Marshal(opts)
	if err != nil {
		return fmt.Errorf("config: encode parameters: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Decode is DecodeStrict for a value type.
func Decode[C any](opts Options) (C, error) {
	var c C
	err := DecodeStrict(opts, &c)
	return c, err
}

func missingKeys(opts Options, t reflect.Type) []string {
	var missing []string
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, optional := jsonName(f)
		if name == "-" || optional {
			continue
		}
		if !opts.Has(name) {
			missing = append(missing, name)
		}
	}
	return missing
}

func jsonName(f reflect.StructField) (name string, optional bool) {
	tag := f.Tag.Get("json")
	if tag == "" {
		return f.Name, false
	}
	parts := strings.Split(tag, ",")
	name = parts[0]
	if name == "" {
		name = f.Name
	}
	for _, p := range parts[1:] {
		if p == "omitempty" {
			optional = true
		}
	}
	return name, optional
}

// StringList accepts either a single string or an array of strings.
type StringList []string

// UnmarshalJSON implements json.Unmarshaler.
func (l *StringList) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*l = nil
		return nil
	}
	var one string
	if err := json.Unmarshal(b, &one); err == nil {
		*l = StringList{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(b, &many); err != nil {
		return fmt.Errorf("want a string or a list of strings: %w", err)
	}
	*l = many
	return nil
}
