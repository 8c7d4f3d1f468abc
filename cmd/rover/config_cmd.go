// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"flag"
	"fmt"
	"io"
	"os"
)

// runConfig prints the effective configuration after every layer was merged.
func runConfig(global globalFlags, args []string) {
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	output := fs.String("output", "yaml", "Output format: yaml, json")
	if err := fs.Parse(args); err != nil {
		fatal(NewInvalidArgumentError("config", err.Error()), global.JSON)
	}
	ensureNoArgs(fs.Args(), global.JSON)

	format := *output
	if global.JSON {
		format = "json"
	}
	switch format {
	case "yaml", "yml", "json":
	default:
		fatal(NewInvalidArgumentError(format, fmt.Sprintf("unknown output format %q; use yaml or json", format)), global.JSON)
	}

	cfg := loadConfig(global.ConfigArgs, global.JSON)
	data, err := cfg.Marshal(format)
	if err != nil {
		fatal(asCLIError(err, ""), global.JSON)
	}
	os.Stdout.Write(data)
	if len(data) > 0 && data[len(data)-1] != '\n' {
		fmt.Println()
	}
}
