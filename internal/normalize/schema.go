// Package normalize turns free-form model output into schema-complete values.
// It never fails: unparseable input yields the schema's fallback values plus a
// diagnostic.
package normalize

// Kind selects how a field value is coerced.
type Kind int

const (
	KindAny Kind = iota
	KindList
	KindInt
	KindNumber
	KindText
	KindEnum
	KindBool
)

// Field declares one required key, its default and its valid range.
type Field struct {
	Name     string
	Kind     Kind
	Default  any
	Min      float64
	Max      float64
	Clamp    bool
	MaxItems int
	Allowed  []string
}

// Schema is the required-fields table for one artifact kind.
type Schema struct {
	Kind   string
	Fields []Field
	// Fallback overrides defaults when the payload cannot be parsed at all.
	Fallback map[string]any
}

// List declares a list field capped at maxItems (0 for unbounded).
func List(name string, maxItems int) Field {
	return Field{Name: name, Kind: KindList, Default: []any{}, MaxItems: maxItems}
}

// Int declares an integer field clamped to [min, max].
func Int(name string, def, min, max int) Field {
	return Field{Name: name, Kind: KindInt, Default: def, Min: float64(min), Max: float64(max), Clamp: true}
}

// Number declares a float field clamped to [min, max].
func Number(name string, def, min, max float64) Field {
	return Field{Name: name, Kind: KindNumber, Default: def, Min: min, Max: max, Clamp: true}
}

// Text declares a string field.
func Text(name, def string) Field {
	return Field{Name: name, Kind: KindText, Default: def}
}

// Enum declares a string field restricted to allowed values (compared case-insensitively).
func Enum(name, def string, allowed ...string) Field {
	return Field{Name: name, Kind: KindEnum, Default: def, Allowed: allowed}
}

// Bool declares a boolean field.
func Bool(name string, def bool) Field {
	return Field{Name: name, Kind: KindBool, Default: def}
}

// Required lists the schema's field names in declaration order.
func (s Schema) Required() []string {
	out := make([]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		out = append(out, f.Name)
	}
	return out
}

// Defaults returns a fresh map of every field's default value.
func (s Schema) Defaults() map[string]any {
	out := make(map[string]any, len(s.Fields))
	for _, f := range s.Fields {
		out[f.Name] = f.defaultValue()
	}
	return out
}

func (f Field) defaultValue() any {
	switch d := f.Default.(type) {
	case []any:
		return append([]any{}, d...)
	case []string:
		out := make([]any, len(d))
		for i, v := range d {
			out[i] = v
		}
		return out
	case nil:
		if f.Kind == KindList {
			return []any{}
		}
		return nil
	default:
		return d
	}
}
