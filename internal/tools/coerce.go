package tools

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/JakeFAU/stayscout/internal/toolerr"
)

// coerce applies the coercion table to raw caller arguments. Keys without a
// table row are dropped. Empty strings count as absent.
func coerce(fields []Field, raw map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(fields))
	for _, f := range fields {
		v, err := f.coerce(raw[f.Name])
		if err != nil {
			return nil, toolerr.InvalidArguments("argument %q %v", f.Name, err)
		}
		if v == nil {
			if f.Required {
				return nil, toolerr.InvalidArguments("missing required argument %q", f.Name)
			}
			continue
		}
		out[f.Name] = v
	}
	return out, nil
}

func (f Field) coerce(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch f.Type {
	case FieldNumber:
		return coerceNumber(v)
	case FieldDate:
		s, err := coerceString(v)
		if err != nil || s == nil {
			return s, err
		}
		if _, err := time.Parse(time.DateOnly, s.(string)); err != nil {
			return nil, fmt.Errorf("must be a date in YYYY-MM-DD form")
		}
		return s, nil
	default:
		return coerceString(v)
	}
}

func coerceString(v any) (any, error) {
	var s string
	switch t := v.(type) {
	case string:
		s = strings.TrimSpace(t)
	case json.Number:
		s = t.String()
	case float64:
		s = strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		s = strconv.Itoa(t)
	case int64:
		s = strconv.FormatInt(t, 10)
	default:
		return nil, fmt.Errorf("must be a string")
	}
	if s == "" {
		return nil, nil
	}
	return s, nil
}

func coerceNumber(v any) (any, error) {
	errWhole := fmt.Errorf("must be a non-negative whole number")
	var n int64
	switch t := v.(type) {
	case float64:
		if t < 0 || t != math.Trunc(t) || t > math.MaxInt32 {
			return nil, errWhole
		}
		n = int64(t)
	case int:
		n = int64(t)
	case int64:
		n = t
	case json.Number:
		if parsed, err := strconv.ParseInt(t.String(), 10, 64); err == nil {
			n = parsed
			break
		}
		f, err := t.Float64()
		if err != nil {
			return nil, errWhole
		}
		return coerceNumber(f)
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return nil, nil
		}
		parsed, err := strconv.ParseUint(s, 10, 31)
		if err != nil {
			return nil, errWhole
		}
		n = int64(parsed)
	default:
		return nil, errWhole
	}
	if n < 0 || n > math.MaxInt32 {
		return nil, errWhole
	}
	return n, nil
}
