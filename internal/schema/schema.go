package schema

import (
	_ "embed"
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed options.yaml
var staticSchema []byte

// optionsKey is the top-level key holding the option mapping.
const optionsKey = "options"

// optionEntry is the YAML shape of a single option body.
type optionEntry struct {
	Type        string    `yaml:"type"`
	Default     yaml.Node `yaml:"default"`
	Description string    `yaml:"description"`
}

// Load parses the schema embedded in the binary.
func Load() (Definitions, error) {
	return Parse(staticSchema)
}

// LoadFile reads and parses a schema document from path.
func LoadFile(path string) (Definitions, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Definitions{}, fmt.Errorf("read schema: %w", err)
	}
	return Parse(data)
}

// Parse builds Definitions from a YAML document of the form
//
//	options:
//	  <name>:
//	    type: string
//	    default: <value>
//	    description: <text>
//
// Options keep their declaration order.
func Parse(data []byte) (Definitions, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Definitions{}, &SchemaError{Reason: "parse YAML", Err: err}
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return Definitions{}, &SchemaError{Reason: "empty document", Err: ErrEmptySchema}
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return Definitions{}, &SchemaError{Line: root.Line, Reason: "document must be a mapping"}
	}

	options := lookupKey(root, optionsKey)
	if options == nil || isNull(options) {
		return Definitions{}, &SchemaError{Line: root.Line, Reason: "missing options section", Err: ErrEmptySchema}
	}
	if options.Kind != yaml.MappingNode {
		return Definitions{}, &SchemaError{Line: options.Line, Reason: "options must be a mapping"}
	}

	defs := make([]OptionDefinition, 0, len(options.Content)/2)
	seen := make(map[string]int, len(options.Content)/2)
	for i := 0; i+1 < len(options.Content); i += 2 {
		keyNode, body := options.Content[i], options.Content[i+1]

		def, err := parseOption(keyNode, body)
		if err != nil {
			return Definitions{}, err
		}
		if line, dup := seen[def.Name]; dup {
			return Definitions{}, &SchemaError{
				Option: def.Name,
				Line:   keyNode.Line,
				Reason: fmt.Sprintf("duplicate option, first declared on line %d", line),
			}
		}
		seen[def.Name] = keyNode.Line
		defs = append(defs, def)
	}
	if len(defs) == 0 {
		return Definitions{}, &SchemaError{Line: options.Line, Reason: "no options declared", Err: ErrEmptySchema}
	}

	return newDefinitions(defs), nil
}

func parseOption(keyNode, body *yaml.Node) (OptionDefinition, error) {
	name := strings.TrimSpace(keyNode.Value)
	if keyNode.Kind != yaml.ScalarNode || isNull(keyNode) || name == "" {
		return OptionDefinition{}, &SchemaError{Line: keyNode.Line, Reason: "option is missing a name"}
	}

	var entry optionEntry
	if !isNull(body) {
		if body.Kind != yaml.MappingNode {
			return OptionDefinition{}, &SchemaError{Option: name, Line: body.Line, Reason: "option body must be a mapping"}
		}
		if err := body.Decode(&entry); err != nil {
			return OptionDefinition{}, &SchemaError{Option: name, Line: body.Line, Reason: "decode option", Err: err}
		}
	}

	typ := OptionType(strings.TrimSpace(entry.Type))
	if typ == "" {
		return OptionDefinition{}, &SchemaError{Option: name, Line: keyNode.Line, Reason: "option is missing a type"}
	}
	if !typ.Valid() {
		return OptionDefinition{}, &SchemaError{Option: name, Line: keyNode.Line, Reason: fmt.Sprintf("unsupported type %q", typ)}
	}

	def := OptionDefinition{
		Name:        name,
		Type:        typ,
		Description: entry.Description,
	}

	if entry.Default.Kind != 0 && !isNull(&entry.Default) {
		if entry.Default.Kind != yaml.ScalarNode {
			return OptionDefinition{}, &SchemaError{Option: name, Line: entry.Default.Line, Reason: "default must be a scalar"}
		}
		if err := typ.check(entry.Default.Value); err != nil {
			return OptionDefinition{}, &SchemaError{
				Option: name,
				Line:   entry.Default.Line,
				Reason: fmt.Sprintf("default %q is not a valid %s", entry.Default.Value, typ),
			}
		}
		def.Default = entry.Default.Value
		def.HasDefault = true
	}

	return def, nil
}

// Resolve computes the configuration for overrides. Each option takes its
// override when present and non-empty, its default otherwise, and "" when
// neither exists. Keys that are not declared are rejected as a whole.
func Resolve(defs Definitions, overrides map[string]string) (ResolvedConfig, error) {
	var unknown []string
	for key := range overrides {
		if _, ok := defs.Lookup(key); !ok {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 {
		slices.Sort(unknown)
		return ResolvedConfig{}, &UnknownOptionError{Keys: unknown}
	}

	values := make(map[string]string, defs.Len())
	for _, opt := range defs.options {
		value := opt.Default
		if override := overrides[opt.Name]; override != "" {
			if err := opt.Type.check(override); err != nil {
				return ResolvedConfig{}, &InvalidValueError{Option: opt.Name, Type: opt.Type, Value: override}
			}
			value = override
		}
		values[opt.Name] = value
	}

	return ResolvedConfig{defs: defs, values: values}, nil
}

// Changed returns, in declaration order, the options whose value in c
// differs from prev.
func (c ResolvedConfig) Changed(prev ResolvedConfig) []string {
	var changed []string
	for _, opt := range c.defs.options {
		cur, _ := c.Get(opt.Name)
		old, ok := prev.Get(opt.Name)
		if !ok || cur != old {
			changed = append(changed, opt.Name)
		}
	}
	return changed
}

func lookupKey(mapping *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return mapping.Content[i+1]
		}
	}
	return nil
}

func isNull(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.ShortTag() == "!!null"
}
