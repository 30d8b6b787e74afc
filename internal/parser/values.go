package parser

import "github.com/harrison/songdeck/internal/schema"

// Values holds the coerced options of one parsed section. Options absent
// from the document hold their default, or nil when there is none.
type Values struct {
	section schema.Section
	purpose schema.Purpose
	schema  *schema.Schema
	values  map[string]any
	set     map[string]bool
}

func newValues(sch *schema.Schema, purpose schema.Purpose) *Values {
	return &Values{
		section: sch.Section,
		purpose: purpose,
		schema:  sch,
		values:  make(map[string]any, len(sch.Options)),
		set:     make(map[string]bool),
	}
}

// Section returns the section the values were parsed from.
func (v *Values) Section() schema.Section { return v.section }

// Purpose returns the purpose the section was parsed under.
func (v *Values) Purpose() schema.Purpose { return v.purpose }

// IsSet reports whether the document assigned name, including an explicit None.
func (v *Values) IsSet(name string) bool { return v.set[name] }

// Get returns the value of name. ok is false when the value is unset or None.
func (v *Values) Get(name string) (val any, ok bool) {
	val = v.values[name]
	return val, val != nil
}

// Int returns an int option, or 0 when unset.
func (v *Values) Int(name string) int {
	n, _ := v.values[name].(int)
	return n
}

// OptionalInt returns an optional-int option, or nil when unset or None.
func (v *Values) OptionalInt(name string) *int {
	n, ok := v.values[name].(int)
	if !ok {
		return nil
	}
	return &n
}

// Float returns a float option, or 0 when unset.
func (v *Values) Float(name string) float64 {
	f, _ := v.values[name].(float64)
	return f
}

// OptionalFloat returns a float or duration option, or nil when unset or None.
func (v *Values) OptionalFloat(name string) *float64 {
	f, ok := v.values[name].(float64)
	if !ok {
		return nil
	}
	return &f
}

// Bool returns a bool option, or false when unset.
func (v *Values) Bool(name string) bool {
	b, _ := v.values[name].(bool)
	return b
}

// String returns a string, enum or path option, or "" when unset.
// Path options are absolute after a successful Parse.
func (v *Values) String(name string) string {
	s, _ := v.values[name].(string)
	return s
}

// Strings returns a labelset or model-list option.
func (v *Values) Strings(name string) []string {
	s, _ := v.values[name].([]string)
	return append([]string(nil), s...)
}

// Ints returns an int-list option.
func (v *Values) Ints(name string) []int {
	n, _ := v.values[name].([]int)
	return append([]int(nil), n...)
}

// Raw returns the options the document assigned, re-encoded as TOML values.
// Parsing the result with the same schema and context yields equal Values.
// Defaults are not included.
func (v *Values) Raw() map[string]any {
	out := make(map[string]any, len(v.set))
	for _, opt := range v.schema.Options {
		if !v.set[opt.Name] {
			continue
		}
		out[opt.Name] = encodeRaw(opt.Kind, v.values[opt.Name])
	}
	return out
}

func encodeRaw(kind schema.Kind, val any) any {
	if val == nil {
		return noneLiteral
	}
	switch kind {
	case schema.KindInt, schema.KindOptionalInt:
		return int64(val.(int))
	case schema.KindIntList:
		ints := val.([]int)
		out := make([]int64, len(ints))
		for i, n := range ints {
			out[i] = int64(n)
		}
		return out
	case schema.KindLabelSet, schema.KindModelList:
		return append([]string(nil), val.([]string)...)
	}
	return val
}

