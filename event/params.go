package event

// ParamMap carries named parameters from the creator of an event to its
// class functions.
type ParamMap map[string]any

// Contains reports whether key is set.
func (m ParamMap) Contains(key string) bool {
	_, ok := m[key]
	return ok
}

// Get returns the parameter under key if it is set and has type T.
// Otherwise it returns def.
func Get[T any](m ParamMap, key string, def T) T {
	v, ok := m[key]
	if !ok {
		return def
	}

	typed, ok := v.(T)
	if !ok {
		return def
	}

	return typed
}

// Is reports whether the parameter under key is set and has type T.
func Is[T any](m ParamMap, key string) bool {
	v, ok := m[key]
	if !ok {
		return false
	}

	_, ok = v.(T)

	return ok
}

func (m ParamMap) clone() ParamMap {
	if m == nil {
		return ParamMap{}
	}

	c := make(ParamMap, len(m))
	for k, v := range m {
		c[k] = v
	}

	return c
}
