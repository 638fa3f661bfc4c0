package condarun

import (
	"bytes"
	"encoding/json"
	"slices"
)

// Options is an insertion-ordered set of named command options.
//
// Values are bool, string, []string or nil. Other scalars (numbers, for
// example) are accepted and rendered with their default string form when
// a transport needs text. The zero value is an empty, usable Options.
type Options struct {
	keys   []string
	values map[string]any
}

// NewOptions returns an empty Options.
func NewOptions() *Options {
	return &Options{}
}

// Set stores value under key and returns o for chaining. Setting an
// existing key replaces its value but keeps its original position.
func (o *Options) Set(key string, value any) *Options {
	if o.values == nil {
		o.values = make(map[string]any)
	}
	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}
	if list, ok := value.([]string); ok {
		value = slices.Clone(list)
	}
	o.values[key] = value
	return o
}

// Get returns the value stored under key.
func (o *Options) Get(key string) (any, bool) {
	if o == nil {
		return nil, false
	}
	v, ok := o.values[key]
	return v, ok
}

// Has reports whether key is present, whatever its value.
func (o *Options) Has(key string) bool {
	_, ok := o.Get(key)
	return ok
}

// Delete removes key. Missing keys are ignored.
func (o *Options) Delete(key string) {
	if o == nil {
		return
	}
	if _, ok := o.values[key]; !ok {
		return
	}
	delete(o.values, key)
	o.keys = slices.DeleteFunc(o.keys, func(k string) bool { return k == key })
}

// Keys returns the option names in insertion order.
func (o *Options) Keys() []string {
	if o == nil {
		return nil
	}
	return slices.Clone(o.keys)
}

// Len returns the number of options.
func (o *Options) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

// Clone returns a deep copy of o. A nil receiver yields an empty Options.
func (o *Options) Clone() *Options {
	c := NewOptions()
	if o == nil {
		return c
	}
	for _, k := range o.keys {
		c.Set(k, o.values[k])
	}
	return c
}

// MarshalJSON encodes o as a JSON object, preserving insertion order.
func (o *Options) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range o.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(o.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Command is a logical request before any transport-specific encoding.
// Commands are built fresh per invocation and never mutated afterwards;
// transports that need to reshape options work on a clone.
type Command struct {
	name       string
	options    *Options
	positional []string
}

// NewCommand builds a Command. opts and positional are copied, so the
// caller may keep mutating its own values.
func NewCommand(name string, opts *Options, positional ...string) Command {
	return Command{
		name:       name,
		options:    opts.Clone(),
		positional: slices.Clone(positional),
	}
}

// Name returns the subcommand name (e.g. "install").
func (c Command) Name() string { return c.name }

// Options returns a copy of the command's options.
func (c Command) Options() *Options { return c.options.Clone() }

// Option returns a single option value.
func (c Command) Option(key string) (any, bool) { return c.options.Get(key) }

// Positional returns a copy of the positional arguments.
func (c Command) Positional() []string { return slices.Clone(c.positional) }

// WantsProgress reports whether the caller asked for progress updates,
// which it does by setting the "quiet" option to exactly false.
func (c Command) WantsProgress() bool {
	quiet, ok := c.options.Bool("quiet")
	return ok && !quiet
}
