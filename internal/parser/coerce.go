package parser

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/harrison/songdeck/internal/schema"
)

// noneLiteral is how documents spell an explicitly unset optional value.
const noneLiteral = "None"

func isNone(raw any) bool {
	s, ok := raw.(string)
	return ok && strings.EqualFold(strings.TrimSpace(s), noneLiteral)
}

// coerce converts a raw document value to the Go value for opt's kind.
// Path kinds are returned unresolved; resolution happens in the path check.
func coerce(opt schema.Option, raw any) (any, error) {
	switch opt.Kind {
	case schema.KindInt:
		return toInt(raw)
	case schema.KindFloat:
		return toFloat(raw)
	case schema.KindBool:
		return toBool(raw)
	case schema.KindString:
		return toString(raw)
	case schema.KindEnum:
		return toEnum(raw, opt.Choices)
	case schema.KindIntList:
		return toIntList(raw)
	case schema.KindOptionalInt:
		if isNone(raw) {
			return nil, nil
		}
		return toInt(raw)
	case schema.KindDuration:
		if isNone(raw) {
			return nil, nil
		}
		f, err := toFloat(raw)
		if err != nil {
			return nil, err
		}
		if f < 0 {
			return nil, errors.New("duration must be a non-negative number of seconds or None")
		}
		return f, nil
	case schema.KindLabelSet:
		return toLabelSet(raw)
	case schema.KindModelList:
		return toNameList(raw)
	case schema.KindPath, schema.KindExistingFile, schema.KindExistingDir:
		s, err := toString(raw)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(s) == "" {
			return nil, errors.New("path must not be empty")
		}
		return s, nil
	}
	return nil, fmt.Errorf("unsupported option kind %s", opt.Kind)
}

func toInt(raw any) (int, error) {
	switch v := raw.(type) {
	case int64:
		return int(v), nil
	case int:
		return v, nil
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("expected an integer, got %v", v)
		}
		if v < math.MinInt64 || v >= math.MaxInt64 {
			return 0, fmt.Errorf("integer %v out of range", v)
		}
		return int(v), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, fmt.Errorf("expected an integer, got %q", v)
		}
		return n, nil
	}
	return 0, fmt.Errorf("expected an integer, got %T", raw)
}

func toFloat(raw any) (float64, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case int64:
		return float64(v), nil
	case int:
		return float64(v), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("expected a number, got %q", v)
		}
		return f, nil
	}
	return 0, fmt.Errorf("expected a number, got %T", raw)
}

func toBool(raw any) (bool, error) {
	switch v := raw.(type) {
	case bool:
		return v, nil
	case int64:
		if v == 0 || v == 1 {
			return v == 1, nil
		}
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "yes", "on", "1":
			return true, nil
		case "false", "no", "off", "0":
			return false, nil
		}
		return false, fmt.Errorf("expected a boolean, got %q", v)
	}
	return false, fmt.Errorf("expected a boolean, got %v", raw)
}

func toString(raw any) (string, error) {
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("expected a string, got %T", raw)
	}
	return s, nil
}

func toEnum(raw any, choices []string) (string, error) {
	s, err := toString(raw)
	if err != nil {
		return "", err
	}
	for _, c := range choices {
		if strings.EqualFold(strings.TrimSpace(s), c) {
			return c, nil
		}
	}
	return "", fmt.Errorf("%q is not one of: %s", s, strings.Join(choices, ", "))
}

// asSlice views decoded TOML arrays and already coerced slices uniformly.
func asSlice(raw any) ([]any, bool) {
	switch v := raw.(type) {
	case []any:
		return v, true
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out, true
	case []int64:
		out := make([]any, len(v))
		for i, n := range v {
			out[i] = n
		}
		return out, true
	case []int:
		out := make([]any, len(v))
		for i, n := range v {
			out[i] = n
		}
		return out, true
	}
	return nil, false
}

func toIntList(raw any) ([]int, error) {
	if items, ok := asSlice(raw); ok {
		out := make([]int, 0, len(items))
		for _, item := range items {
			n, err := toInt(item)
			if err != nil {
				return nil, err
			}
			out = append(out, n)
		}
		return out, nil
	}
	switch v := raw.(type) {
	case int64, int:
		n, _ := toInt(v)
		return []int{n}, nil
	case string:
		s := strings.TrimSpace(v)
		s = strings.TrimSuffix(strings.TrimPrefix(s, "["), "]")
		var out []int
		for _, part := range strings.Split(s, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			n, err := strconv.Atoi(part)
			if err != nil {
				return nil, fmt.Errorf("expected comma-separated integers, got %q", v)
			}
			out = append(out, n)
		}
		if len(out) == 0 {
			return nil, errors.New("expected at least one integer")
		}
		return out, nil
	}
	return nil, fmt.Errorf("expected a list of integers, got %T", raw)
}

// toLabelSet accepts "a,b,c" (labels split on commas), "abc" (one label per
// character), or an array of labels. Duplicates keep their first position.
func toLabelSet(raw any) ([]string, error) {
	var labels []string
	if items, ok := asSlice(raw); ok {
		for _, item := range items {
			switch v := item.(type) {
			case string:
				labels = append(labels, strings.TrimSpace(v))
			case int64, int:
				labels = append(labels, fmt.Sprint(v))
			default:
				return nil, fmt.Errorf("labels must be strings or integers, got %T", item)
			}
		}
	} else {
		s, err := toString(raw)
		if err != nil {
			return nil, err
		}
		if strings.Contains(s, ",") {
			for _, part := range strings.Split(s, ",") {
				labels = append(labels, strings.TrimSpace(part))
			}
		} else {
			for _, r := range s {
				if !unicode.IsSpace(r) {
					labels = append(labels, string(r))
				}
			}
		}
	}

	seen := make(map[string]bool, len(labels))
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		if l == "" || seen[l] {
			continue
		}
		seen[l] = true
		out = append(out, l)
	}
	if len(out) == 0 {
		return nil, errors.New("labelset must contain at least one label")
	}
	return out, nil
}

// toNameList splits "A, B" or an array of strings into trimmed names.
func toNameList(raw any) ([]string, error) {
	var parts []string
	if items, ok := asSlice(raw); ok {
		for _, item := range items {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("expected model names, got %T", item)
			}
			parts = append(parts, s)
		}
	} else {
		s, err := toString(raw)
		if err != nil {
			return nil, err
		}
		parts = strings.Split(s, ",")
	}

	var out []string
	for _, p := range parts {
		if name := strings.TrimSpace(p); name != "" {
			out = append(out, name)
		}
	}
	if len(out) == 0 {
		return nil, errors.New("expected at least one model name")
	}
	return out, nil
}
