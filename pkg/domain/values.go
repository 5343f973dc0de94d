package domain

import (
	"fmt"
	"strings"
	"time"
)

// AsArray reports whether a field value is an array, and returns its
// elements if so.
func AsArray(v interface{}) ([]interface{}, bool) {
	arr, ok := v.([]interface{})
	return arr, ok
}

// AsTime reports whether a field value is a date.
func AsTime(v interface{}) (time.Time, bool) {
	t, ok := v.(time.Time)
	return t, ok
}

// ToFloat64 converts the numeric types a decoded document can carry to
// float64 for comparison.
func ToFloat64(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	default:
		return 0, false
	}
}

// typeRank orders values of different kinds so heterogeneous index keys
// still have a total order: nil < bool < number < string < time < other.
func typeRank(v interface{}) int {
	switch v.(type) {
	case nil:
		return 0
	case bool:
		return 1
	case string:
		return 3
	case time.Time:
		return 4
	}
	if _, ok := ToFloat64(v); ok {
		return 2
	}
	return 5
}

// CompareValues orders two field values for index placement. Returns a
// negative number if a < b, zero if equal, positive if a > b.
func CompareValues(a, b interface{}) int {
	ra, rb := typeRank(a), typeRank(b)
	if ra != rb {
		return ra - rb
	}
	switch ra {
	case 0:
		return 0
	case 1:
		av, bv := a.(bool), b.(bool)
		if av == bv {
			return 0
		}
		if !av {
			return -1
		}
		return 1
	case 2:
		av, _ := ToFloat64(a)
		bv, _ := ToFloat64(b)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		default:
			return 0
		}
	case 3:
		return strings.Compare(a.(string), b.(string))
	case 4:
		at, bt := a.(time.Time), b.(time.Time)
		switch {
		case at.Before(bt):
			return -1
		case at.After(bt):
			return 1
		default:
			return 0
		}
	default:
		// Arrays and nested maps have no meaningful order; fall back to
		// their printed form so the ordering is at least stable.
		return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
	}
}

// ValuesEqual compares two field values for equality, coercing numeric
// types so an int filter matches a float64 decoded from JSON.
func ValuesEqual(a, b interface{}) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return CompareValues(a, b) == 0 && typeRank(a) == typeRank(b)
}
