package normalize

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"

	"pathpilot-backend/internal/shared/privacy"
	"pathpilot-backend/internal/shared/util"
)

// PreviewLen bounds the raw text kept on a fallback result.
const PreviewLen = 200

// Result is a normalized object payload.
type Result struct {
	Values     map[string]any
	Backfilled []string
	Fallback   bool
	ParseError string
	Preview    string
}

// ListResult is a normalized array payload.
type ListResult struct {
	Items      []map[string]any
	Fallback   bool
	ParseError string
	Preview    string
}

var errNotObject = errors.New("payload is not a JSON object")

// StripFences removes a surrounding markdown code fence and its language tag.
func StripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = s[3:]
		if i := strings.IndexByte(s, '\n'); i >= 0 {
			if isLanguageTag(s[:i]) {
				s = s[i+1:]
			}
		} else {
			s = strings.TrimPrefix(s, "json")
		}
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func isLanguageTag(s string) bool {
	s = strings.TrimSpace(s)
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_' || r == '+') {
			return false
		}
	}
	return true
}

// Normalize parses an object payload against schema. It never panics and
// every schema field is present in the returned Values.
func Normalize(raw string, schema Schema) Result {
	decoded, err := decode(raw)
	var obj map[string]any
	if err == nil {
		var ok bool
		if obj, ok = decoded.(map[string]any); !ok {
			err = errNotObject
		}
	}
	if err != nil {
		return fallback(raw, schema, err)
	}

	values, backfilled := applySchema(obj, schema.Fields)
	return Result{Values: values, Backfilled: backfilled}
}

// NormalizeList parses an array payload, or an object wrapping one, and
// normalizes up to limit elements (0 for no limit). A payload with no usable
// elements is reported as a fallback so callers can substitute canned items.
func NormalizeList(raw string, schema Schema, limit int) ListResult {
	decoded, err := decode(raw)
	if err != nil {
		return ListResult{Fallback: true, ParseError: err.Error(), Preview: preview(raw)}
	}

	var elems []any
	switch v := decoded.(type) {
	case []any:
		elems = v
	case map[string]any:
		elems = unwrapList(v)
	}

	out := make([]map[string]any, 0, len(elems))
	for _, elem := range elems {
		obj, ok := elem.(map[string]any)
		if !ok {
			continue
		}
		values, _ := applySchema(obj, schema.Fields)
		out = append(out, values)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	if len(out) == 0 {
		return ListResult{Fallback: true, ParseError: "payload contains no usable items", Preview: preview(raw)}
	}
	return ListResult{Items: out}
}

// unwrapList accepts {"questions": [...]} style wrappers, falling back to
// treating the object itself as a single element.
func unwrapList(obj map[string]any) []any {
	var found []any
	lists := 0
	for _, v := range obj {
		if l, ok := v.([]any); ok && len(l) > 0 {
			if _, isObj := l[0].(map[string]any); isObj {
				found = l
				lists++
			}
		}
	}
	if lists == 1 {
		return found
	}
	return []any{obj}
}

// Decode copies normalized values into a typed record using its json tags.
func Decode(values map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(values)
}

func decode(raw string) (any, error) {
	cleaned := StripFences(raw)
	if cleaned == "" {
		return nil, errors.New("empty response")
	}
	var v any
	err := json.Unmarshal([]byte(cleaned), &v)
	if err == nil {
		return v, nil
	}
	// Models sometimes wrap the payload in prose, fenced or not.
	candidates := []string{}
	if block, ok := fencedBlock(raw); ok {
		candidates = append(candidates, block)
		candidates = append(candidates, salvage(block)...)
	}
	candidates = append(candidates, salvage(cleaned)...)
	for _, c := range candidates {
		var salvaged any
		if json.Unmarshal([]byte(c), &salvaged) == nil {
			return salvaged, nil
		}
	}
	return nil, err
}

// fencedBlock returns the body of the first code fence anywhere in s.
func fencedBlock(s string) (string, bool) {
	start := strings.Index(s, "```")
	if start < 0 {
		return "", false
	}
	body := s[start+3:]
	if i := strings.IndexByte(body, '\n'); i >= 0 && isLanguageTag(body[:i]) {
		body = body[i+1:]
	}
	if end := strings.Index(body, "```"); end >= 0 {
		body = body[:end]
	}
	body = strings.TrimSpace(body)
	return body, body != ""
}

// salvage returns the outermost brace span and the outermost bracket span.
// An array of objects only parses from the bracket span.
func salvage(s string) []string {
	var out []string
	for _, pair := range [][2]byte{{'{', '}'}, {'[', ']'}} {
		start := strings.IndexByte(s, pair[0])
		end := strings.LastIndexByte(s, pair[1])
		if start >= 0 && end > start {
			out = append(out, s[start:end+1])
		}
	}
	return out
}

func fallback(raw string, schema Schema, err error) Result {
	values := schema.Defaults()
	for k, v := range schema.Fallback {
		values[k] = v
	}
	for _, f := range schema.Fields {
		if v, ok := coerce(f, values[f.Name]); ok {
			values[f.Name] = v
		}
	}
	return Result{
		Values:     values,
		Fallback:   true,
		ParseError: err.Error(),
		Preview:    preview(raw),
	}
}

func preview(raw string) string {
	return privacy.Scrub(util.Truncate(strings.TrimSpace(raw), PreviewLen))
}

func applySchema(obj map[string]any, fields []Field) (map[string]any, []string) {
	values := make(map[string]any, len(fields))
	var backfilled []string
	for _, f := range fields {
		raw, present := obj[f.Name]
		if !present || raw == nil {
			values[f.Name] = f.defaultValue()
			backfilled = append(backfilled, f.Name)
			continue
		}
		v, ok := coerce(f, raw)
		if !ok {
			values[f.Name] = f.defaultValue()
			backfilled = append(backfilled, f.Name)
			continue
		}
		values[f.Name] = v
	}
	return values, backfilled
}

func coerce(f Field, raw any) (any, bool) {
	switch f.Kind {
	case KindList:
		return coerceList(f, raw)
	case KindInt:
		n, ok := toFloat(raw)
		if !ok {
			return nil, false
		}
		return int(math.Round(clamp(f, n))), true
	case KindNumber:
		n, ok := toFloat(raw)
		if !ok {
			return nil, false
		}
		return clamp(f, n), true
	case KindText:
		switch v := raw.(type) {
		case string:
			return strings.TrimSpace(v), true
		case float64, bool:
			return fmt.Sprint(v), true
		}
		return nil, false
	case KindEnum:
		s, ok := raw.(string)
		if !ok {
			return nil, false
		}
		s = strings.TrimSpace(s)
		for _, allowed := range f.Allowed {
			if strings.EqualFold(s, allowed) {
				return allowed, true
			}
		}
		return nil, false
	case KindBool:
		switch v := raw.(type) {
		case bool:
			return v, true
		case string:
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			return b, err == nil
		}
		return nil, false
	default:
		return raw, true
	}
}

func coerceList(f Field, raw any) (any, bool) {
	var items []any
	switch v := raw.(type) {
	case []any:
		items = v
	case []string:
		for _, s := range v {
			items = append(items, s)
		}
	case string:
		if strings.TrimSpace(v) == "" {
			return []any{}, true
		}
		items = []any{v}
	default:
		return nil, false
	}
	out := make([]any, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			item = s
		}
		if item == nil {
			continue
		}
		out = append(out, item)
		if f.MaxItems > 0 && len(out) == f.MaxItems {
			break
		}
	}
	return out, true
}

func toFloat(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(v), "%")), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

func clamp(f Field, v float64) float64 {
	if !f.Clamp {
		return v
	}
	return math.Max(f.Min, math.Min(f.Max, v))
}
