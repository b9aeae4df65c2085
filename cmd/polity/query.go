// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/blinklabs-io/polity"
	"github.com/blinklabs-io/polity/internal/node"
	"github.com/spf13/cobra"
)

// queryLogger keeps stdout clean for command output
func queryLogger() *slog.Logger {
	logLevel := slog.LevelWarn
	if globalFlags.debug {
		logLevel = slog.LevelDebug
	}
	return slog.New(
		slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: logLevel,
		}),
	)
}

func withNode(cmd *cobra.Command, fn func(*polity.Node) (any, error)) error {
	cfg := configFromCommand(cmd)
	n, err := node.Open(cfg, queryLogger())
	if err != nil {
		return fmt.Errorf("open node: %w", err)
	}
	ret, err := fn(n)
	if stopErr := n.Stop(); stopErr != nil && err == nil {
		err = stopErr
	}
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), ret)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func statusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the governance and fee state from the data directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withNode(cmd, func(n *polity.Node) (any, error) {
				return n.Status()
			})
		},
	}
}

func historyCommand() *cobra.Command {
	var from uint64
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show committed operations from the journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit <= 0 {
				return fmt.Errorf("invalid limit: %d", limit)
			}
			return withNode(cmd, func(n *polity.Node) (any, error) {
				return n.History(from, limit)
			})
		},
	}
	cmd.Flags().Uint64Var(&from, "from", 0, "first sequence number to show")
	cmd.Flags().IntVar(&limit, "limit", 100, "maximum number of operations")
	return cmd
}
