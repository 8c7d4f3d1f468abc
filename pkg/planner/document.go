// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package planner

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jllopis/rover/pkg/errors"
)

// Document is the file form of a set of plans:
//
//	plans:
//	  patrol:
//	    - when: forward==blocked
//	      then: right
//	    - when: battery_nonzero
//	      then: wonder
type Document struct {
	Plans map[string][]RuleSpec `json:"plans" yaml:"plans"`
}

// RuleSpec is the file form of a Rule. An empty Kind is inferred when the
// document is registered.
type RuleSpec struct {
	When string `json:"when" yaml:"when"`
	Then string `json:"then" yaml:"then"`
	Kind string `json:"kind,omitempty" yaml:"kind,omitempty"`
}

// Validate checks that every rule names a condition and an action.
func (d *Document) Validate() error {
	if d == nil {
		return invalidDocument("document is nil")
	}
	if len(d.Plans) == 0 {
		return invalidDocument("document has no plans")
	}
	for goal, rules := range d.Plans {
		if strings.TrimSpace(goal) == "" {
			return invalidDocument("plan goal is required")
		}
		for i, rule := range rules {
			if strings.TrimSpace(rule.When) == "" {
				return invalidDocument(fmt.Sprintf("plan %q rule %d missing when", goal, i))
			}
			if strings.TrimSpace(rule.Then) == "" {
				return invalidDocument(fmt.Sprintf("plan %q rule %d missing then", goal, i))
			}
			if rule.Kind != "" {
				if _, ok := ParseActionKind(rule.Kind); !ok {
					return invalidDocument(fmt.Sprintf("plan %q rule %d has unknown kind %q", goal, i, rule.Kind))
				}
			}
		}
	}
	return nil
}

func invalidDocument(msg string) error {
	return errors.New(errors.CodeInvalidInput, msg, nil)
}

// ParseJSON loads a plan document from JSON and validates it.
func ParseJSON(data []byte) (*Document, error) {
	if len(data) == 0 {
		return nil, invalidDocument("empty JSON payload")
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.New(errors.CodeInvalidInput, "parse json plans", err)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// ParseYAML loads a plan document from YAML and validates it.
func ParseYAML(data []byte) (*Document, error) {
	if len(data) == 0 {
		return nil, invalidDocument("empty YAML payload")
	}
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.New(errors.CodeInvalidInput, "parse yaml plans", err)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// MarshalJSON serializes a document to JSON. Use pretty for indented output.
func MarshalJSON(doc *Document, pretty bool) ([]byte, error) {
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	if pretty {
		return json.MarshalIndent(doc, "", "  ")
	}
	return json.Marshal(doc)
}

// MarshalYAML serializes a document to YAML.
func MarshalYAML(doc *Document) ([]byte, error) {
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return yaml.Marshal(doc)
}

// RegisterDocument registers every plan in doc. Rules without an explicit
// kind become delegations when they name a goal (in the library or in doc),
// computations when they name a registered decision, and literals otherwise.
func (l *Library) RegisterDocument(doc *Document, reg *Registry) error {
	if err := doc.Validate(); err != nil {
		return err
	}
	goals := make([]string, 0, len(doc.Plans))
	for goal := range doc.Plans {
		goals = append(goals, goal)
	}
	sort.Strings(goals)

	for _, goal := range goals {
		specs := doc.Plans[goal]
		plan := make(Plan, 0, len(specs))
		for _, spec := range specs {
			plan = append(plan, When(spec.When, Action{Kind: l.inferKind(spec, doc, reg), Name: spec.Then}))
		}
		l.Register(goal, plan)
	}
	return nil
}

func (l *Library) inferKind(spec RuleSpec, doc *Document, reg *Registry) ActionKind {
	if kind, ok := ParseActionKind(spec.Kind); ok {
		return kind
	}
	if _, ok := doc.Plans[spec.Then]; ok || l.Has(spec.Then) {
		return KindDelegate
	}
	if reg != nil && reg.HasDecision(spec.Then) {
		return KindCompute
	}
	return KindLiteral
}

// Document returns the library's plans in file form with explicit kinds.
func (l *Library) Document() *Document {
	doc := &Document{Plans: make(map[string][]RuleSpec, len(l.plans))}
	for goal, plan := range l.plans {
		specs := make([]RuleSpec, 0, len(plan))
		for _, rule := range plan {
			specs = append(specs, RuleSpec{When: rule.When, Then: rule.Then.Name, Kind: rule.Then.Kind.String()})
		}
		doc.Plans[goal] = specs
	}
	return doc
}
