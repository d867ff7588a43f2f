// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	preflight "github.com/AleutianAI/preflight/services/preflight"
)

var (
	flagRequest    string
	flagFailUnsafe bool
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run one validation and print the result as JSON",
	Long: `Check reads a ValidateRequest from a file (or stdin with --request -),
runs the validation, and prints the ValidationResult to stdout as JSON.

With --fail-unsafe the exit code is 1 when the edits are not safe to
apply, which makes check usable as a pre-edit hook.`,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().StringVar(&flagRequest, "request", "-", "Request file path, - for stdin")
	checkCmd.Flags().BoolVar(&flagFailUnsafe, "fail-unsafe", false, "Exit non-zero when edits are unsafe")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	data, err := readRequest(flagRequest)
	if err != nil {
		return err
	}

	var req preflight.ValidateRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return fmt.Errorf("parse request: %w", err)
	}

	svc := preflight.NewService(preflight.DefaultServiceConfig())
	result, err := svc.ValidateEdits(cmd.Context(), req.ProjectRoot, req.Edits)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(result); err != nil {
		return fmt.Errorf("encode result: %w", err)
	}

	if flagFailUnsafe && !result.Safe {
		// The result already went to stdout; the exit code is the signal.
		os.Exit(1)
	}
	return nil
}

// readRequest loads the request body from a file or stdin.
func readRequest(path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read request file: %w", err)
	}
	return data, nil
}
