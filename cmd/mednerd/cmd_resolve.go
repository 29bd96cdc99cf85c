package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"mednerd/internal/logging"
	"mednerd/internal/perception"
	coresys "mednerd/internal/system"
	"mednerd/internal/types"
)

// queryCmd resolves a symptom description
var queryCmd = &cobra.Command{
	Use:   "query <symptoms...>",
	Short: "Match a free-text symptom description",
	Example: `  mednerd query itchy red skin
  mednerd query "shortness of breath" --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCortex(cmd, func(ctx context.Context, c *coresys.Cortex) types.AnalysisResponse {
			return c.ResolveByQuery(ctx, joinArgs(args))
		})
	},
}

// documentCmd resolves a report file by its text content
var documentCmd = &cobra.Command{
	Use:   "document <path>",
	Short: "Match a medical report (text, HTML or PDF) by its content",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", args[0], err)
		}
		name := filepath.Base(args[0])
		text := perception.ExtractText(name, data)
		if !jsonOutput && text != "" {
			fmt.Fprintln(cmd.OutOrStdout(), renderSummary(perception.Summary(text)))
		}
		return withCortex(cmd, func(ctx context.Context, c *coresys.Cortex) types.AnalysisResponse {
			return c.ResolveByDocument(ctx, name, text)
		})
	},
}

// fileCmd resolves a file by its name alone
var fileCmd = &cobra.Command{
	Use:   "file <filename>",
	Short: "Match an uploaded file (e.g. an image) by its filename",
	Long: `Only the filename is used: "rash_photo.jpg" is matched as the query "rash_photo".
The file does not need to exist.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCortex(cmd, func(ctx context.Context, c *coresys.Cortex) types.AnalysisResponse {
			return c.ResolveByFilename(ctx, args[0])
		})
	},
}

// withCortex boots the cortex, runs op, prints its response and flushes the
// knowledge base.
func withCortex(cmd *cobra.Command, op func(context.Context, *coresys.Cortex) types.AnalysisResponse) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cortex, err := coresys.BootCortex(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to boot cortex: %w", err)
	}
	defer func() {
		if err := cortex.Close(context.WithoutCancel(ctx)); err != nil {
			logging.Get(logging.CategoryBoot).Warn("Failed to close cortex: %v", err)
		}
	}()

	resp := op(ctx, cortex)
	return printResponse(cmd, resp)
}

func printResponse(cmd *cobra.Command, resp types.AnalysisResponse) error {
	out := cmd.OutOrStdout()
	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}
	_, err := fmt.Fprintln(out, renderResponse(resp))
	return err
}
