package config

import (
	"fmt"
	"math"
	"reflect"
)

// IntegerHook is a mapstructure decode hook that rejects floats with a
// fractional part when the target is an integer. Without it YAML numbers
// such as 16.9 are silently truncated.
func IntegerHook(from, to reflect.Type, data any) (any, error) {
	switch to.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
	default:
		return data, nil
	}
	if from == nil || from.Kind() != reflect.Float32 && from.Kind() != reflect.Float64 {
		return data, nil
	}
	f := reflect.ValueOf(data).Float()
	if f != math.Trunc(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("cannot use fractional value %v as an integer", data)
	}
	return data, nil
}
