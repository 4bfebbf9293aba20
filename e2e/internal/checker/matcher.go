package checker

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Match compares an actual decoded JSON value against an expected YAML value.
//
// Expected strings may carry matchers: "~pattern~" is a regular expression
// applied to the actual value's text, and ">n", "<n", ">=n", "<=n" compare
// numerically. Expected maps match when every expected key matches; extra
// actual keys are ignored.
func Match(actual, expected interface{}) (bool, string) {
	if expected == nil {
		if actual == nil {
			return true, ""
		}
		return false, fmt.Sprintf("expected nil, got %v", actual)
	}
	if actual == nil {
		return false, fmt.Sprintf("expected %v, got nil", expected)
	}

	switch exp := expected.(type) {
	case string:
		if len(exp) > 1 && strings.HasPrefix(exp, "~") && strings.HasSuffix(exp, "~") {
			return matchRegex(actual, strings.Trim(exp, "~"))
		}
		if strings.HasPrefix(exp, ">") || strings.HasPrefix(exp, "<") {
			return matchComparison(actual, exp)
		}
		got, ok := actual.(string)
		if !ok {
			return false, fmt.Sprintf("expected string %q, got %T", exp, actual)
		}
		if got != exp {
			return false, fmt.Sprintf("expected %q, got %q", exp, got)
		}
		return true, ""

	case bool:
		got, ok := actual.(bool)
		if !ok || got != exp {
			return false, fmt.Sprintf("expected %v, got %v", exp, actual)
		}
		return true, ""

	case map[string]interface{}:
		got, ok := actual.(map[string]interface{})
		if !ok {
			return false, fmt.Sprintf("expected object, got %T", actual)
		}
		for key, want := range exp {
			value, exists := got[key]
			if !exists {
				return false, fmt.Sprintf("missing key %q", key)
			}
			if ok, reason := Match(value, want); !ok {
				return false, fmt.Sprintf("key %q: %s", key, reason)
			}
		}
		return true, ""

	case []interface{}:
		got, ok := actual.([]interface{})
		if !ok {
			return false, fmt.Sprintf("expected array, got %T", actual)
		}
		if len(got) != len(exp) {
			return false, fmt.Sprintf("expected array length %d, got %d", len(exp), len(got))
		}
		for i := range exp {
			if ok, reason := Match(got[i], exp[i]); !ok {
				return false, fmt.Sprintf("element %d: %s", i, reason)
			}
		}
		return true, ""
	}

	want, err := toFloat64(expected)
	if err != nil {
		return false, fmt.Sprintf("unsupported expected type %T", expected)
	}
	got, err := toFloat64(actual)
	if err != nil {
		return false, fmt.Sprintf("expected number %v, got %T", expected, actual)
	}
	if got != want {
		return false, fmt.Sprintf("expected %v, got %v", want, got)
	}
	return true, ""
}

func matchRegex(actual interface{}, pattern string) (bool, string) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false, fmt.Sprintf("invalid regex pattern %q: %v", pattern, err)
	}

	text := fmt.Sprintf("%v", actual)
	if !re.MatchString(text) {
		return false, fmt.Sprintf("value %q does not match ~%s~", text, pattern)
	}
	return true, ""
}

func matchComparison(actual interface{}, comparison string) (bool, string) {
	got, err := toFloat64(actual)
	if err != nil {
		return false, fmt.Sprintf("cannot compare non-numeric value %v", actual)
	}

	op := comparison[:1]
	if strings.HasPrefix(comparison, ">=") || strings.HasPrefix(comparison, "<=") {
		op = comparison[:2]
	}

	want, err := strconv.ParseFloat(strings.TrimSpace(comparison[len(op):]), 64)
	if err != nil {
		return false, fmt.Sprintf("invalid comparison value in %q", comparison)
	}

	var ok bool
	switch op {
	case ">":
		ok = got > want
	case "<":
		ok = got < want
	case ">=":
		ok = got >= want
	case "<=":
		ok = got <= want
	}

	if !ok {
		return false, fmt.Sprintf("expected value %s %v, got %v", op, want, got)
	}
	return true, ""
}

func toFloat64(v interface{}) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case string:
		return strconv.ParseFloat(n, 64)
	default:
		return 0, fmt.Errorf("not a numeric type: %T", v)
	}
}
