// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command preflight previews the effect of proposed source edits on a
// project's diagnostics without writing to disk.
//
// Usage:
//
//	# Start the HTTP API server
//	preflight serve --port 8080
//
//	# One-shot validation from a request file (or stdin with -)
//	preflight check --request edits.json
//	cat edits.json | preflight check --request -
//
// Example request:
//
//	{
//	  "project_root": "/path/to/project",
//	  "edits": [
//	    {"file": "src/a.ts", "old_text": "x = 1", "new_text": "x = 2"}
//	  ]
//	}
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/preflight/pkg/logging"
)

var (
	flagLogLevel string
	flagLogDir   string
	flagJSONLogs bool
	flagQuiet    bool

	logger *logging.Logger
)

var rootCmd = &cobra.Command{
	Use:   "preflight",
	Short: "Preview the effect of proposed source edits",
	Long: `Preflight applies proposed edits to an in-memory overlay of a project,
analyzes the project before and after, and reports exactly the diagnostics
the edits would introduce. Disk is never modified.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&flagLogDir, "log-dir", "", "Directory for JSON log files (disabled when empty)")
	rootCmd.PersistentFlags().BoolVar(&flagJSONLogs, "json-logs", false, "Emit JSON logs on stderr")
	rootCmd.PersistentFlags().BoolVar(&flagQuiet, "quiet", false, "Suppress stderr logging")

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		logger = logging.New(logging.Config{
			Level:   parseLevel(flagLogLevel),
			LogDir:  flagLogDir,
			Service: "preflight",
			JSON:    flagJSONLogs,
			Quiet:   flagQuiet,
		})
		slog.SetDefault(logger.Slog())
	}
	rootCmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Close()
		}
	}
}

// parseLevel maps a flag value to a logging level, defaulting to info.
func parseLevel(s string) logging.Level {
	switch s {
	case "debug":
		return logging.LevelDebug
	case "warn":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}
