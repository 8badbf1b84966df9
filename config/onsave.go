package config

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// OnSave is a value of the minifyOnSave setting.
type OnSave int

const (
	// Never minify on save.
	Never OnSave = iota
	// Always minify on save.
	Always
	// Minify on save only if the minified file already exists.
	Exists
)

// ParseOnSave parses "yes", "no", "exists" and boolean literals.
func ParseOnSave(s string) (OnSave, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "no", "false", "off":
		return Never, nil
	case "yes", "true", "on":
		return Always, nil
	case "exists":
		return Exists, nil
	default:
		return Never, fmt.Errorf("minifyOnSave: unknown value %q", s)
	}
}

func (o OnSave) String() string {
	switch o {
	case Always:
		return "yes"
	case Exists:
		return "exists"
	default:
		return "no"
	}
}

func (o *OnSave) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: minifyOnSave must be a string or boolean", value.Line)
	}
	v, err := ParseOnSave(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %s", value.Line, err)
	}
	*o = v
	return nil
}

func (o OnSave) MarshalYAML() (interface{}, error) {
	return o.String(), nil
}
