package schema

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

// ruleDecl is the YAML form of a rule: a target field and an arithmetic
// expression over field names.
type ruleDecl struct {
	Target string `yaml:"target"`
	Expr   string `yaml:"expr"`
}

type schemaDecl struct {
	Fields   []string   `yaml:"fields"`
	Defaults []Default  `yaml:"defaults"`
	Rules    []ruleDecl `yaml:"rules"`
}

// ParseYAML builds a Schema from a YAML declaration such as
//
//	fields: [qty, rate, net_amount]
//	defaults:
//	  - field: qty
//	    value: 1
//	rules:
//	  - target: net_amount
//	    expr: qty * rate
//	  - target: qty
//	    expr: net_amount / rate
//
// Defaults and rules keep their declared order. The returned schema is
// validated.
func ParseYAML(data []byte) (*Schema, error) {
	var decl schemaDecl
	if err := yaml.Unmarshal(data, &decl); err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	s := &Schema{
		Fields:   decl.Fields,
		Defaults: decl.Defaults,
		Rules:    make([]Rule, 0, len(decl.Rules)),
	}
	for _, rd := range decl.Rules {
		r, err := NewRule(rd.Target, rd.Expr)
		if err != nil {
			return nil, err
		}
		s.Rules = append(s.Rules, r)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// LoadFile reads and parses a YAML schema declaration from disk.
func LoadFile(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseYAML(data)
}
