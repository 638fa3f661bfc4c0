package condarun

import "fmt"

// String returns the string stored under key. ok is false when the key is
// absent or holds another type.
func (o *Options) String(key string) (value string, ok bool) {
	v, _ := o.Get(key)
	value, ok = v.(string)
	return value, ok
}

// Bool returns the boolean stored under key. ok is false when the key is
// absent or holds another type.
func (o *Options) Bool(key string) (value, ok bool) {
	v, _ := o.Get(key)
	value, ok = v.(bool)
	return value, ok
}

// Strings returns the list stored under key. A []any list is rendered
// element-wise with its default string form. ok is false when the key is
// absent or does not hold a list.
func (o *Options) Strings(key string) ([]string, bool) {
	v, _ := o.Get(key)
	switch list := v.(type) {
	case []string:
		return append([]string(nil), list...), true
	case []any:
		out := make([]string, len(list))
		for i, elem := range list {
			out[i] = fmt.Sprint(elem)
		}
		return out, true
	default:
		return nil, false
	}
}

// Truthy reports whether key holds a value that counts as set: anything but
// absent, nil, false and the empty string.
func (o *Options) Truthy(key string) bool {
	v, ok := o.Get(key)
	if !ok {
		return false
	}
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case string:
		return val != ""
	default:
		return true
	}
}
