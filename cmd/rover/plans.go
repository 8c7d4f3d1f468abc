// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jllopis/rover/pkg/planner"
)

type plansResult struct {
	Format  string   `json:"format"`
	Content string   `json:"content"`
	Goal    string   `json:"goal,omitempty"`
	Goals   []string `json:"goals"`
	Rules   int      `json:"rules"`
}

func runPlans(global globalFlags, args []string) {
	fs := flag.NewFlagSet("plans", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	output := fs.String("output", "mermaid", "Output format: mermaid, dot, yaml, json")
	plansPath := fs.String("plans", "", "Plan document merged over the built-in plans (overrides plans.path)")
	goal := fs.String("goal", "", "Goal to highlight (overrides sim.goal)")
	if err := fs.Parse(args); err != nil {
		fatal(NewInvalidArgumentError("plans", err.Error()), global.JSON)
	}
	ensureNoArgs(fs.Args(), global.JSON)

	configArgs := append([]string(nil), global.ConfigArgs...)
	if *plansPath != "" {
		configArgs = append(configArgs, "--set", "plans.path="+*plansPath)
	}
	if *goal != "" {
		configArgs = append(configArgs, "--set", "sim.goal="+*goal)
	}
	cfg := loadConfig(configArgs, global.JSON)

	library, _, err := loadLibrary(cfg.Plans.Path)
	if err != nil {
		fatal(asCLIError(err, cfg.Plans.Path), global.JSON)
	}

	content, err := renderPlans(library, cfg.Sim.Goal, *output)
	if err != nil {
		fatal(asCLIError(err, ""), global.JSON)
	}

	result := plansResult{
		Format:  *output,
		Content: content,
		Goal:    cfg.Sim.Goal,
		Goals:   library.Goals(),
	}
	for _, plan := range library.Plans() {
		result.Rules += len(plan)
	}

	if global.JSON {
		printJSON(os.Stdout, result)
		return
	}
	fmt.Print(result.Content)
}

func renderPlans(library *planner.Library, start, format string) (string, error) {
	switch format {
	case "mermaid":
		return toMermaid(library, start), nil
	case "dot":
		return toDot(library, start), nil
	case "yaml":
		data, err := planner.MarshalYAML(library.Document())
		return string(data), err
	case "json":
		data, err := planner.MarshalJSON(library.Document(), true)
		return string(data) + "\n", err
	default:
		return "", NewInvalidArgumentError(format, fmt.Sprintf("unknown output format %q; use mermaid, dot, yaml or json", format))
	}
}

// ruleTarget returns the node a rule points at and whether it is a goal node.
// Delegations to goals nobody registered are drawn as actions.
func ruleTarget(library *planner.Library, goal string, i int, rule planner.Rule) (string, bool) {
	if rule.Then.Kind == planner.KindDelegate && library.Has(rule.Then.Name) {
		return rule.Then.Name, true
	}
	return fmt.Sprintf("%s_%d", goal, i+1), false
}

func toMermaid(library *planner.Library, start string) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	plans := library.Plans()
	for _, goal := range library.Goals() {
		sb.WriteString(fmt.Sprintf("    %s([%s])\n", goal, goal))
		for i, rule := range plans[goal] {
			target, isGoal := ruleTarget(library, goal, i, rule)
			if !isGoal {
				if rule.Then.Kind == planner.KindCompute {
					sb.WriteString(fmt.Sprintf("    %s{{%s}}\n", target, rule.Then.Name))
				} else {
					sb.WriteString(fmt.Sprintf("    %s[%s]\n", target, rule.Then.Name))
				}
			}
			sb.WriteString(fmt.Sprintf("    %s -->|\"%d: %s\"| %s\n", goal, i+1, rule.When, target))
		}
	}

	// Mark start goal
	if library.Has(start) {
		sb.WriteString(fmt.Sprintf("    style %s fill:#90EE90\n", start))
	}

	return sb.String()
}

func toDot(library *planner.Library, start string) string {
	var sb strings.Builder
	sb.WriteString("digraph plans {\n")
	sb.WriteString("    rankdir=TB;\n")
	sb.WriteString("    node [shape=box, style=rounded];\n")

	plans := library.Plans()
	for _, goal := range library.Goals() {
		attrs := "shape=ellipse"
		// Highlight start goal
		if goal == start {
			attrs += ", style=filled, fillcolor=\"#90EE90\""
		}
		sb.WriteString(fmt.Sprintf("    %q [%s];\n", goal, attrs))

		for i, rule := range plans[goal] {
			target, isGoal := ruleTarget(library, goal, i, rule)
			if !isGoal {
				shape := ""
				if rule.Then.Kind == planner.KindCompute {
					shape = ", shape=hexagon"
				}
				sb.WriteString(fmt.Sprintf("    %q [label=%q%s];\n", target, rule.Then.Name, shape))
			}
			sb.WriteString(fmt.Sprintf("    %q -> %q [label=%q];\n", goal, target, fmt.Sprintf("%d: %s", i+1, rule.When)))
		}
	}

	sb.WriteString("}\n")
	return sb.String()
}
