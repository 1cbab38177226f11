// Package bridgemap parses the space-delimited "key:bridge" lists carried by
// the interface-bridge-mappings and ovn-bridge-mappings options. The schema
// stores those strings verbatim; bridge reconciliation calls into this
// package when it needs the individual pairs.
package bridgemap

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

var (
	// ErrMalformedMapping is returned when a field is not of the form key:bridge.
	ErrMalformedMapping = errors.New("mapping must be of the form key:bridge")
	// ErrDuplicateKey is returned when the same key is mapped more than once.
	ErrDuplicateKey = errors.New("key mapped more than once")
)

// KeyKind tells how a mapping key identifies its source.
type KeyKind string

const (
	KeyMAC  KeyKind = "mac"
	KeyName KeyKind = "name"
)

// Mapping associates an interface, MAC address or physical network with a bridge.
type Mapping struct {
	Key    string  `json:"key"`
	Kind   KeyKind `json:"kind"`
	Bridge string  `json:"bridge"`
}

// Mappings is an ordered list of parsed pairs.
type Mappings []Mapping

// Parse splits raw into its pairs. Each pair is split on its last colon, so
// MAC address keys such as 00:00:5e:00:00:42:br-provider are accepted. MAC
// keys are normalised to lower case. An empty string yields no mappings.
func Parse(raw string) (Mappings, error) {
	fields := strings.Fields(raw)
	out := make(Mappings, 0, len(fields))
	seen := make(map[string]struct{}, len(fields))

	for _, field := range fields {
		idx := strings.LastIndex(field, ":")
		if idx <= 0 || idx == len(field)-1 {
			return nil, fmt.Errorf("%w: %q", ErrMalformedMapping, field)
		}

		m := Mapping{Key: field[:idx], Kind: KeyName, Bridge: field[idx+1:]}
		if hw, err := net.ParseMAC(m.Key); err == nil {
			m.Key = hw.String()
			m.Kind = KeyMAC
		}

		if _, dup := seen[m.Key]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateKey, m.Key)
		}
		seen[m.Key] = struct{}{}
		out = append(out, m)
	}

	return out, nil
}

// Lookup returns the bridge key is mapped to.
func (ms Mappings) Lookup(key string) (string, bool) {
	if hw, err := net.ParseMAC(key); err == nil {
		key = hw.String()
	}
	for _, m := range ms {
		if m.Key == key {
			return m.Bridge, true
		}
	}
	return "", false
}

// Bridges returns the distinct bridge names in first-seen order.
func (ms Mappings) Bridges() []string {
	seen := make(map[string]struct{}, len(ms))
	bridges := make([]string, 0, len(ms))
	for _, m := range ms {
		if _, ok := seen[m.Bridge]; ok {
			continue
		}
		seen[m.Bridge] = struct{}{}
		bridges = append(bridges, m.Bridge)
	}
	return bridges
}

// String renders the mappings back into the option's space-delimited form.
func (ms Mappings) String() string {
	return ms.join(" ")
}

// ExternalIDValue renders the comma-separated form stored under
// external_ids:ovn-bridge-mappings in the Open_vSwitch table.
func (ms Mappings) ExternalIDValue() string {
	return ms.join(",")
}

func (ms Mappings) join(sep string) string {
	parts := make([]string, len(ms))
	for i, m := range ms {
		parts[i] = m.Key + ":" + m.Bridge
	}
	return strings.Join(parts, sep)
}

// Unbound returns the interface mappings whose bridge is not provided by any
// physical network mapping. Such bridges are still created, they only lack
// an OVN bridge mapping.
func Unbound(interfaces, networks Mappings) Mappings {
	provided := make(map[string]struct{}, len(networks))
	for _, n := range networks {
		provided[n.Bridge] = struct{}{}
	}

	var out Mappings
	for _, m := range interfaces {
		if _, ok := provided[m.Bridge]; !ok {
			out = append(out, m)
		}
	}
	return out
}
