package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Coerce converts a single scalar value to the named target type. Supported
// targets: string, int, float, bool, datetime. Nil passes through unchanged.
func Coerce(val interface{}, target string) (interface{}, error) {
	if val == nil {
		return nil, nil
	}
	switch target {
	case "string":
		return ToString(val), nil
	case "int":
		return ToInt64(val)
	case "float":
		return ToFloat64(val)
	case "bool":
		return ToBool(val)
	case "datetime":
		return ToTime(val)
	default:
		return nil, fmt.Errorf("unknown target type %q", target)
	}
}

func ToString(val interface{}) string {
	if s, ok := val.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", val)
}

func ToInt64(val interface{}) (int64, error) {
	switch v := val.(type) {
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case float64:
		return int64(v), nil
	case float32:
		return int64(v), nil
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	case string:
		return strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	case []byte:
		return strconv.ParseInt(string(v), 10, 64)
	default:
		return 0, fmt.Errorf("cannot convert %T to int", val)
	}
}

func ToFloat64(val interface{}) (float64, error) {
	switch v := val.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(v), 64)
	case []byte:
		return strconv.ParseFloat(string(v), 64)
	default:
		return 0, fmt.Errorf("cannot convert %T to float", val)
	}
}

func ToBool(val interface{}) (bool, error) {
	switch v := val.(type) {
	case bool:
		return v, nil
	case string:
		return strconv.ParseBool(strings.TrimSpace(v))
	case int:
		return v != 0, nil
	case int64:
		return v != 0, nil
	case float64:
		return v != 0, nil
	default:
		return false, fmt.Errorf("cannot convert %T to bool", val)
	}
}

// ToTime parses timestamps from the formats the pipeline commonly sees.
func ToTime(val interface{}) (time.Time, error) {
	switch v := val.(type) {
	case time.Time:
		return v, nil
	case string:
		formats := []string{
			time.RFC3339Nano,
			time.RFC3339,
			"2006-01-02 15:04:05",
			"2006-01-02",
		}
		for _, f := range formats {
			if t, err := time.Parse(f, strings.TrimSpace(v)); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("unable to parse datetime: %s", v)
	case []byte:
		return ToTime(string(v))
	default:
		return time.Time{}, fmt.Errorf("cannot convert %T to datetime", val)
	}
}

// Numeric reports the float64 value of val and whether it is numeric.
// Strings are not treated as numeric here; this is used where numeric
// semantics are required, not for parsing.
func Numeric(val interface{}) (float64, bool) {
	switch v := val.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}
