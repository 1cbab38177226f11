package schema

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strconv"
)

// Names of the options declared by the embedded schema.
const (
	OptionSource                  = "source"
	OptionInterfaceBridgeMappings = "interface-bridge-mappings"
	OptionOVNBridgeMappings       = "ovn-bridge-mappings"
)

// OptionType is the declared type of an option value.
type OptionType string

const (
	TypeString  OptionType = "string"
	TypeInt     OptionType = "int"
	TypeFloat   OptionType = "float"
	TypeBoolean OptionType = "boolean"
)

// Valid reports whether t is a type the schema knows how to check.
func (t OptionType) Valid() bool {
	switch t {
	case TypeString, TypeInt, TypeFloat, TypeBoolean:
		return true
	}
	return false
}

// check reports whether value is acceptable for t. Empty values always pass.
func (t OptionType) check(value string) error {
	if value == "" {
		return nil
	}
	var err error
	switch t {
	case TypeInt:
		_, err = strconv.ParseInt(value, 10, 64)
	case TypeFloat:
		_, err = strconv.ParseFloat(value, 64)
	case TypeBoolean:
		_, err = strconv.ParseBool(value)
	}
	return err
}

// OptionDefinition describes one configurable option.
type OptionDefinition struct {
	Name        string     `json:"name"`
	Type        OptionType `json:"type"`
	Default     string     `json:"default"`
	HasDefault  bool       `json:"hasDefault"`
	Description string     `json:"description"`
}

// Definitions is the immutable, ordered set of declared options.
type Definitions struct {
	options []OptionDefinition
	index   map[string]int
}

func newDefinitions(options []OptionDefinition) Definitions {
	index := make(map[string]int, len(options))
	for i, opt := range options {
		index[opt.Name] = i
	}
	return Definitions{options: options, index: index}
}

// Len returns the number of declared options.
func (d Definitions) Len() int {
	return len(d.options)
}

// Lookup returns the definition for name.
func (d Definitions) Lookup(name string) (OptionDefinition, bool) {
	i, ok := d.index[name]
	if !ok {
		return OptionDefinition{}, false
	}
	return d.options[i], true
}

// Names returns option names in declaration order.
func (d Definitions) Names() []string {
	names := make([]string, len(d.options))
	for i, opt := range d.options {
		names[i] = opt.Name
	}
	return names
}

// All returns a copy of the definitions in declaration order.
func (d Definitions) All() []OptionDefinition {
	return slices.Clone(d.options)
}

// ResolvedConfig maps every declared option to its resolved value.
type ResolvedConfig struct {
	defs   Definitions
	values map[string]string
}

// Get returns the resolved value of name and whether name is declared.
func (c ResolvedConfig) Get(name string) (string, bool) {
	v, ok := c.values[name]
	return v, ok
}

// String returns the resolved value of name, or "" if undeclared.
func (c ResolvedConfig) String(name string) string {
	return c.values[name]
}

// Int interprets an int option. Empty values yield 0.
func (c ResolvedConfig) Int(name string) (int64, error) {
	raw, err := c.typed(name, TypeInt)
	if err != nil || raw == "" {
		return 0, err
	}
	return strconv.ParseInt(raw, 10, 64)
}

// Float interprets a float option. Empty values yield 0.
func (c ResolvedConfig) Float(name string) (float64, error) {
	raw, err := c.typed(name, TypeFloat)
	if err != nil || raw == "" {
		return 0, err
	}
	return strconv.ParseFloat(raw, 64)
}

// Bool interprets a boolean option. Empty values yield false.
func (c ResolvedConfig) Bool(name string) (bool, error) {
	raw, err := c.typed(name, TypeBoolean)
	if err != nil || raw == "" {
		return false, err
	}
	return strconv.ParseBool(raw)
}

func (c ResolvedConfig) typed(name string, want OptionType) (string, error) {
	def, ok := c.defs.Lookup(name)
	if !ok {
		return "", &UnknownOptionError{Keys: []string{name}}
	}
	if def.Type != want {
		return "", fmt.Errorf("option %q is of type %s, not %s", name, def.Type, want)
	}
	return c.values[name], nil
}

// Len returns the number of resolved entries.
func (c ResolvedConfig) Len() int {
	return len(c.values)
}

// Values returns a copy of the resolved name to value mapping.
func (c ResolvedConfig) Values() map[string]string {
	return maps.Clone(c.values)
}

// Equal reports whether both configurations hold the same values.
func (c ResolvedConfig) Equal(other ResolvedConfig) bool {
	return maps.Equal(c.values, other.values)
}

// MarshalJSON encodes the resolved values as a flat object.
func (c ResolvedConfig) MarshalJSON() ([]byte, error) {
	if c.values == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(c.values)
}
