package local

import (
	"fmt"
	"strings"

	"github.com/dmora/condarun"
)

// JSONFlag asks the executable for machine-readable output. Encode always
// appends it last.
const JSONFlag = "--json"

// FlagName converts an option name like useIndexCache to --use-index-cache.
// Names that are already dashed pass through unchanged.
func FlagName(key string) string {
	var b strings.Builder
	b.Grow(len(key) + 4)
	b.WriteString("--")
	for i := 0; i < len(key); i++ {
		c := key[i]
		if 'A' <= c && c <= 'Z' {
			b.WriteByte('-')
			c += 'a' - 'A'
		}
		b.WriteByte(c)
	}
	return b.String()
}

// Encode builds the argument vector for cmd: the subcommand, then one flag
// per option in insertion order, then positional arguments, then JSONFlag.
//
// false and nil options are omitted, true emits a bare flag, a []string
// emits the flag followed by each element, and anything else emits the
// flag followed by its string form. Option names are not validated.
func Encode(cmd condarun.Command) []string {
	opts := cmd.Options()
	pos := cmd.Positional()

	argv := make([]string, 0, 2+2*opts.Len()+len(pos))
	argv = append(argv, cmd.Name())
	for _, key := range opts.Keys() {
		value, _ := opts.Get(key)
		argv = appendOption(argv, key, value)
	}
	argv = append(argv, pos...)
	return append(argv, JSONFlag)
}

func appendOption(argv []string, key string, value any) []string {
	switch v := value.(type) {
	case nil:
		return argv
	case bool:
		if v {
			argv = append(argv, FlagName(key))
		}
		return argv
	case []string:
		argv = append(argv, FlagName(key))
		return append(argv, v...)
	case []any:
		argv = append(argv, FlagName(key))
		for _, elem := range v {
			argv = append(argv, fmt.Sprint(elem))
		}
		return argv
	case string:
		return append(argv, FlagName(key), v)
	default:
		return append(argv, FlagName(key), fmt.Sprint(v))
	}
}
