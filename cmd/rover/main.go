// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

// Package main implements the rover CLI.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

type globalFlags struct {
	ConfigArgs []string
	JSON       bool
	Help       bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	global, args, err := parseGlobalFlags(os.Args[1:])
	if err != nil {
		fatal(NewInvalidArgumentError("flags", err.Error()), false)
	}
	if global.Help || len(args) == 0 {
		printUsage(os.Stdout)
		return
	}

	cmd := args[0]
	switch cmd {
	case "run":
		runRun(ctx, global, args[1:])
	case "plans":
		runPlans(global, args[1:])
	case "config":
		runConfig(global, args[1:])
	case "help":
		printUsage(os.Stdout)
	case "version":
		ensureNoArgs(args[1:], global.JSON)
		printVersion(global.JSON)
	default:
		fatal(NewInvalidArgumentError(cmd, fmt.Sprintf("unknown command %q", cmd)), global.JSON)
	}
}

func parseGlobalFlags(args []string) (globalFlags, []string, error) {
	var flags globalFlags

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			return flags, args[i+1:], nil
		}
		if !strings.HasPrefix(arg, "-") {
			return flags, args[i:], nil
		}
		switch {
		case arg == "-h" || arg == "--help":
			flags.Help = true
			return flags, nil, nil
		case arg == "--json":
			flags.JSON = true
		case arg == "--config" || arg == "--set" || arg == "--profile" || arg == "--env":
			if i+1 >= len(args) {
				return flags, nil, fmt.Errorf("missing value for %s", arg)
			}
			flags.ConfigArgs = append(flags.ConfigArgs, arg, args[i+1])
			i++
		case strings.HasPrefix(arg, "--config="), strings.HasPrefix(arg, "--set="),
			strings.HasPrefix(arg, "--profile="), strings.HasPrefix(arg, "--env="):
			flags.ConfigArgs = append(flags.ConfigArgs, arg)
		default:
			return flags, nil, fmt.Errorf("unknown global flag %q", arg)
		}
	}
	return flags, nil, nil
}

func printVersion(asJSON bool) {
	if asJSON {
		printJSON(os.Stdout, map[string]string{"version": version})
		return
	}
	fmt.Println(version)
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `rover: subsumption sense-plan-act rover simulator

Usage:
  rover [global flags] <command> [args]

Global flags:
  --config <path>      Path to a YAML config file
  --profile <name>     Merge <config>.<name>.yaml over the config file (alias --env)
  --set key=value      Override config (repeatable), e.g. --set sim.goal=wonder
  --json               JSON output

Commands:
  run [--goal G] [--seed N] [--max-ticks N] [--plans FILE] [--trace]
  plans [--output mermaid|dot|yaml|json] [--plans FILE] [--goal G]
  config [--output yaml|json]
  version
  help

Environment variables prefixed with ROVER_ override config keys:
  ROVER_SIM_GOAL=wonder sets sim.goal.
`)
}

// fatal prints err and exits with status 1.
func fatal(err error, asJSON bool) {
	if cliErr, ok := err.(*CLIError); ok {
		cliErr.PrintError(asJSON)
	} else {
		PrintSimpleError(err, asJSON)
	}
	os.Exit(1)
}

func ensureNoArgs(args []string, asJSON bool) {
	if len(args) > 0 {
		fatal(NewInvalidArgumentError(strings.Join(args, " "), "unexpected arguments"), asJSON)
	}
}

func printJSON(w io.Writer, value any) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(value); err != nil {
		fatal(err, true)
	}
}

func newTabWriter(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func writeRow(writer *tabwriter.Writer, cols ...string) {
	fmt.Fprintln(writer, strings.Join(cols, "\t"))
}
