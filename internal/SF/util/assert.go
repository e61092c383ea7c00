package util

import (
	"reflect"

	"github.com/cockroachdb/errors"
)

// Assertf panics with an assertion failure if condition is false. It guards
// programming errors; user input never reaches it.
// Usage: util.Assertf(n >= 0, "negative register count %d", n)
func Assertf(condition bool, format string, args ...interface{}) {
	if !condition {
		panic(errors.AssertionFailedf(format, args...))
	}
}

// AssertNotNil panics if value is nil, including typed nil pointers, slices,
// maps, channels and funcs.
func AssertNotNil(value interface{}, name string) {
	if value == nil {
		panic(errors.AssertionFailedf("%s must not be nil", errors.Safe(name)))
	}
	switch v := reflect.ValueOf(value); v.Kind() {
	case reflect.Ptr, reflect.Slice, reflect.Map, reflect.Chan, reflect.Func:
		if v.IsNil() {
			panic(errors.AssertionFailedf("%s must not be nil", errors.Safe(name)))
		}
	}
}
