package remote

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/dmora/condarun"
)

// Mode selects the API style.
type Mode int

const (
	// Uniform routes every command to /<command>.
	Uniform Mode = iota + 1
	// Resource routes environment commands under /env/... with per-operation verbs.
	Resource
)

func (m Mode) String() string {
	switch m {
	case Uniform:
		return "rpc"
	case Resource:
		return "rest"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode maps a configured mode name to a Mode. Unknown names yield an
// UnsupportedConfiguration error.
func ParseMode(name string) (Mode, error) {
	switch strings.ToLower(name) {
	case "rpc", "uniform":
		return Uniform, nil
	case "rest", "resource":
		return Resource, nil
	default:
		return 0, unsupportedMode(name)
	}
}

func unsupportedMode(name string) error {
	return &condarun.Error{
		Kind:    condarun.KindUnsupportedConfiguration,
		Op:      "remote",
		Message: fmt.Sprintf("unrecognized API method %q", name),
	}
}

// Reserved payload keys.
const (
	// PositionalKey carries positional arguments in uniform mode.
	PositionalKey = "positional"
	// QueryKey carries unconsumed positional arguments in resource mode.
	QueryKey = "q"
)

// Route is the HTTP shape of one command.
type Route struct {
	Method string

	// Path is relative to the API root and starts with "/".
	Path string

	// Body is sent as JSON. nil for GET and DELETE.
	Body *condarun.Options

	// Query is sent as the URL query string. nil for POST and PUT.
	Query url.Values
}

// readOnly commands use GET in uniform mode.
var readOnly = map[string]bool{"info": true, "list": true, "search": true}

// packageOps address exactly one package in resource mode.
var packageOps = map[string]bool{"install": true, "update": true, "remove": true}

// envScoped commands cannot be routed without an environment.
var envScoped = map[string]bool{"install": true, "update": true, "remove": true, "create": true}

var resourceVerbs = map[string]string{
	"install": http.MethodPost,
	"create":  http.MethodPost,
	"update":  http.MethodPut,
	"remove":  http.MethodDelete,
}

// Select computes the Route for cmd in the given mode. It performs no I/O
// and never mutates cmd.
func Select(mode Mode, cmd condarun.Command) (Route, error) {
	switch mode {
	case Uniform:
		return selectUniform(cmd), nil
	case Resource:
		return selectResource(cmd)
	default:
		return Route{}, unsupportedMode(mode.String())
	}
}

func selectUniform(cmd condarun.Command) Route {
	data := cmd.Options()
	data.Set(PositionalKey, cmd.Positional())

	method := http.MethodPost
	if readOnly[cmd.Name()] {
		method = http.MethodGet
	}
	if cmd.Name() == "config" && data.Truthy("get") {
		method = http.MethodGet
	}
	return shape(method, "/"+cmd.Name(), data)
}

func selectResource(cmd condarun.Command) (Route, error) {
	name := cmd.Name()
	data := cmd.Options()
	positional := cmd.Positional()

	var path strings.Builder
	envName, _ := data.Get("name")
	envPrefix, _ := data.Get("prefix")
	hasName := data.Truthy("name")
	hasPrefix := data.Truthy("prefix")
	switch {
	case hasName && hasPrefix:
		return Route{}, condarun.ValidationError(name, "exactly one of name or prefix allowed")
	case hasName:
		path.WriteString("/env/name/" + url.PathEscape(fmt.Sprint(envName)))
	case hasPrefix:
		path.WriteString("/env/prefix/" + url.PathEscape(fmt.Sprint(envPrefix)))
	case envScoped[name]:
		return Route{}, condarun.ValidationError(name, "either name or prefix required")
	}
	data.Delete("name")
	data.Delete("prefix")

	switch {
	case packageOps[name]:
		wholeEnv := name == "remove" && data.Truthy("all") && len(positional) == 0
		if !wholeEnv {
			if len(positional) != 1 {
				return Route{}, condarun.ValidationError(name, "REST API supports only manipulating one package at a time")
			}
			path.WriteString("/" + url.PathEscape(positional[0]))
			positional = nil
		}
	case name == "create":
	default:
		path.WriteString("/" + url.PathEscape(name))
	}

	method, ok := resourceVerbs[name]
	if !ok {
		method = http.MethodGet
	}

	if name == "config" {
		var err error
		method, err = routeConfig(data, &path, method)
		if err != nil {
			return Route{}, err
		}
	}

	if len(positional) > 0 {
		data.Set(QueryKey, positional)
	}
	return shape(method, path.String(), data), nil
}

// routeConfig applies the config command's secondary routing: the first of
// add, set, remove, removeKey, get that is present decides verb and path.
// All five are removed from data.
func routeConfig(data *condarun.Options, path *strings.Builder, method string) (string, error) {
	defer func() {
		for _, k := range []string{"get", "add", "set", "remove", "removeKey"} {
			data.Delete(k)
		}
	}()

	if data.Has("add") {
		key, value, err := keyValue(data, "add")
		if err != nil {
			return "", err
		}
		path.WriteString("/" + url.PathEscape(key) + "/" + url.PathEscape(value))
		return http.MethodPut, nil
	}
	if data.Has("set") {
		key, value, err := keyValue(data, "set")
		if err != nil {
			return "", err
		}
		path.WriteString("/" + url.PathEscape(key))
		data.Set("value", value)
		return http.MethodPut, nil
	}
	if data.Has("remove") {
		key, value, err := keyValue(data, "remove")
		if err != nil {
			return "", err
		}
		path.WriteString("/" + url.PathEscape(key) + "/" + url.PathEscape(value))
		return http.MethodDelete, nil
	}
	if data.Has("removeKey") {
		if key, _ := data.String("removeKey"); key != "" {
			path.WriteString("/" + url.PathEscape(key))
		}
		return http.MethodDelete, nil
	}
	if key, _ := data.String("get"); key != "" {
		path.WriteString("/" + url.PathEscape(key))
	}
	return method, nil
}

// keyValue unpacks a two-element [key, value] option.
func keyValue(data *condarun.Options, option string) (string, string, error) {
	if pair, ok := data.Strings(option); ok && len(pair) == 2 {
		return pair[0], pair[1], nil
	}
	v, _ := data.Get(option)
	return "", "", condarun.ValidationError("config", fmt.Sprintf("%s expects a [key, value] pair, got %v", option, v))
}

// shape places data in the query string for GET and DELETE, and in the
// JSON body otherwise.
func shape(method, path string, data *condarun.Options) Route {
	r := Route{Method: method, Path: path}
	if method == http.MethodGet || method == http.MethodDelete {
		r.Query = queryValues(data)
	} else {
		r.Body = data
	}
	return r
}

// queryValues encodes options as a query string: lists repeat their key,
// nil encodes as an empty value.
func queryValues(data *condarun.Options) url.Values {
	q := url.Values{}
	for _, k := range data.Keys() {
		v, _ := data.Get(k)
		switch val := v.(type) {
		case nil:
			q.Add(k, "")
		case []string:
			for _, s := range val {
				q.Add(k, s)
			}
		case []any:
			for _, s := range val {
				q.Add(k, fmt.Sprint(s))
			}
		default:
			q.Add(k, fmt.Sprint(val))
		}
	}
	return q
}
