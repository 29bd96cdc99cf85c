// This file handles knowledge base listing and inspection.
package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"mednerd/internal/store"
	"mednerd/internal/types"
)

// knowledgeCmd shows knowledge base info
var knowledgeCmd = &cobra.Command{
	Use:   "knowledge",
	Short: "View the knowledge base",
	Long: `View the mednerd knowledge base.

Subcommands:
  list    - List every known condition
  show    - Show one condition entry`,
	RunE: runKnowledgeList,
}

// knowledgeListCmd lists knowledge entries
var knowledgeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every known condition",
	RunE:  runKnowledgeList,
}

// knowledgeShowCmd prints a single entry
var knowledgeShowCmd = &cobra.Command{
	Use:   "show <condition>",
	Short: "Show one condition entry (case-insensitive)",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runKnowledgeShow,
}

func openKnowledge(cmd *cobra.Command) (*store.KnowledgeStore, func(), error) {
	persister, err := store.OpenPersister(cfg.Knowledge.Backend, cfg.Knowledge.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open knowledge base: %w", err)
	}
	kb := store.Open(cmd.Context(), persister)
	return kb, func() { _ = kb.Close(cmd.Context()) }, nil
}

func runKnowledgeList(cmd *cobra.Command, args []string) error {
	kb, closeFn, err := openKnowledge(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	entries := kb.Entries()
	out := cmd.OutOrStdout()
	if jsonOutput {
		names := make([]string, len(entries))
		for i := range entries {
			names[i] = entries[i].Condition
		}
		return json.NewEncoder(out).Encode(names)
	}

	if len(entries) == 0 {
		fmt.Fprintln(out, "No conditions in the knowledge base. Run 'mednerd seed' to build one.")
		return nil
	}
	fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("Knowledge Base (%d conditions)", len(entries))))
	fmt.Fprintln(out, strings.Repeat("─", 60))
	for i := range entries {
		fmt.Fprintln(out, renderListEntry(&entries[i]))
	}
	return nil
}

func runKnowledgeShow(cmd *cobra.Command, args []string) error {
	kb, closeFn, err := openKnowledge(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	name := joinArgs(args)
	entry, ok := kb.Find(name)
	if !ok {
		return fmt.Errorf("condition %q not found", name)
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(entry)
	}
	fmt.Fprintln(out, renderEntry(entry))
	return nil
}

func renderListEntry(e *types.ConditionEntry) string {
	tag := mutedStyle.Render("seeded")
	if e.IsLive() {
		tag = accentStyle.Render("live")
	}
	return fmt.Sprintf("  %-40s %s", e.Condition, tag)
}
