package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

func coerce(kind Kind, v any) (any, error) {
	switch kind {
	case KindString:
		s, ok := v.(string)
		if !ok {
			return nil, typeError(kind, v)
		}
		return s, nil
	case KindInteger:
		return toInt(v)
	case KindNumber:
		return toFloat(v)
	case KindBoolean:
		b, ok := v.(bool)
		if !ok {
			return nil, typeError(kind, v)
		}
		return b, nil
	case KindObject:
		m, ok := v.(map[string]any)
		if !ok {
			return nil, typeError(kind, v)
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unsupported field kind %q", kind)
	}
}

func toInt(v any) (any, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case float64:
		// float64(1<<63) is exact; anything at or past it would wrap on conversion.
		if n != math.Trunc(n) || math.IsInf(n, 0) || math.IsNaN(n) || n < -(1<<63) || n >= 1<<63 {
			return nil, errors.New("must be a valid integer")
		}
		return int64(n), nil
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, nil
		}
		return toInt(string(n))
	case string:
		s := strings.TrimSpace(n)
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i, nil
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return toInt(f)
		}
		return nil, errors.New("must be a valid integer")
	default:
		return nil, typeError(KindInteger, v)
	}
}

func toFloat(v any) (any, error) {
	var f float64
	switch n := v.(type) {
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case float64:
		f = n
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return nil, errors.New("must be a valid number")
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return nil, errors.New("must be a valid number")
		}
		f = parsed
	default:
		return nil, typeError(KindNumber, v)
	}
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return nil, errors.New("must be a finite number")
	}
	return f, nil
}

func typeError(kind Kind, v any) error {
	return fmt.Errorf("must be of type %s, got %s", kind, jsonTypeName(v))
}

func jsonTypeName(v any) string {
	switch v.(type) {
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64, int, int64, json.Number:
		return "number"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	default:
		return fmt.Sprintf("%T", v)
	}
}
