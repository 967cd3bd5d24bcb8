package internal

import (
	"fmt"
	"strconv"
)

// ContextValue returns the context value stored under key, or the zero T.
func ContextValue[T any](c Context, key any) T {
	if v, ok := c.Get(key).(T); ok {
		return v
	}
	var zero T
	return zero
}

// ParamAs returns a typed request parameter, or the zero T if missing or unparsable.
func ParamAs[T ~string | ~int | ~int64 | ~float64 | ~bool](c Context, name string) T {
	v, _ := convertParam[T](c.Param(name))
	return v
}

// ParamOr returns a typed request parameter, or defaultValue if missing or unparsable.
func ParamOr[T ~string | ~int | ~int64 | ~float64 | ~bool](c Context, name string, defaultValue T) T {
	raw := c.Param(name)
	if raw == "" {
		return defaultValue
	}
	v, ok := convertParam[T](raw)
	if !ok {
		return defaultValue
	}
	return v
}

// AttributeAs returns a typed request attribute. Restored flash values are
// attributes, so this is also how the next request reads them.
func AttributeAs[T any](c Context, key string) (T, bool) {
	v, ok := c.Attribute(key)
	if !ok {
		var zero T
		return zero, false
	}
	typed, ok := v.(T)
	return typed, ok
}

// ResourceAs acquires the handle for service and asserts its concrete type.
//
// Example:
//
//	h, err := dispatch.ResourceAs[*db.Handle](c, "billing")
func ResourceAs[T Handle](c Context, service string) (T, error) {
	var zero T
	h, err := c.Resource(service)
	if err != nil {
		return zero, err
	}
	typed, ok := h.(T)
	if !ok {
		return zero, fmt.Errorf("resource %s: unexpected handle type %T", service, h)
	}
	return typed, nil
}

// convertParam converts raw to T, reporting whether parsing succeeded.
func convertParam[T ~string | ~int | ~int64 | ~float64 | ~bool](raw string) (T, bool) {
	var zero T
	switch p := any(&zero).(type) {
	case *string:
		*p = raw
	case *int:
		v, err := strconv.Atoi(raw)
		if err != nil {
			return zero, false
		}
		*p = v
	case *int64:
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return zero, false
		}
		*p = v
	case *float64:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return zero, false
		}
		*p = v
	case *bool:
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return zero, false
		}
		*p = v
	default:
		return zero, false
	}
	return zero, true
}
