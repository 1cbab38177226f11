package schema

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptySchema is returned when a schema document declares no options.
var ErrEmptySchema = errors.New("schema declares no options")

// SchemaError reports a malformed static schema. It is fatal at load time.
type SchemaError struct {
	Option string
	Line   int
	Reason string
	Err    error
}

func (e *SchemaError) Error() string {
	var b strings.Builder
	b.WriteString("invalid schema")
	if e.Line > 0 {
		fmt.Fprintf(&b, " (line %d)", e.Line)
	}
	if e.Option != "" {
		fmt.Fprintf(&b, ": option %q", e.Option)
	}
	b.WriteString(": ")
	b.WriteString(e.Reason)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}

// UnknownOptionError reports override keys that no definition declares.
type UnknownOptionError struct {
	Keys []string
}

func (e *UnknownOptionError) Error() string {
	quoted := make([]string, len(e.Keys))
	for i, k := range e.Keys {
		quoted[i] = fmt.Sprintf("%q", k)
	}
	if len(quoted) == 1 {
		return "unknown option " + quoted[0]
	}
	return "unknown options " + strings.Join(quoted, ", ")
}

// InvalidValueError reports an override that does not parse as its declared type.
type InvalidValueError struct {
	Option string
	Type   OptionType
	Value  string
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("option %q: %q is not a valid %s", e.Option, e.Value, e.Type)
}
