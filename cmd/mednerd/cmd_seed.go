package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"mednerd/internal/logging"
	"mednerd/internal/research"
	"mednerd/internal/seed"
	"mednerd/internal/store"
)

var (
	seedTarget int
	seedOutput string
)

// seedCmd builds the initial knowledge base
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Build the knowledge base by crawling the NHS A-Z index",
	Long: `Crawls the condition index, scrapes each condition page at the configured
rate and writes the result to the knowledge base, replacing its contents.`,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().IntVar(&seedTarget, "target", 0, "Number of conditions to collect (overrides seed.target_count)")
	seedCmd.Flags().StringVarP(&seedOutput, "output", "o", "", "Knowledge base path (overrides knowledge.path)")
}

func runSeed(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	path := cfg.Knowledge.Path
	if seedOutput != "" {
		path = seedOutput
	}
	target := cfg.Seed.TargetCount
	if seedTarget > 0 {
		target = seedTarget
	}

	persister, err := store.OpenPersister(cfg.Knowledge.Backend, path)
	if err != nil {
		return fmt.Errorf("failed to open knowledge base: %w", err)
	}
	defer persister.Close()

	index := research.NewHTTPSource(cfg.Seed.IndexUserAgent, cfg.Fetch.MaxBodyBytes)
	defer index.Close()
	pages := research.NewHTTPSource(cfg.Fetch.UserAgent, cfg.Fetch.MaxBodyBytes)
	defer pages.Close()

	crawler := seed.NewCrawler(index, pages, seed.Options{
		IndexURL:      cfg.Seed.IndexURL,
		TargetCount:   target,
		RatePerSecond: cfg.Seed.RatePerSecond,
		PageTimeout:   cfg.GetSeedPageTimeout(),
	})

	n, err := seed.Build(ctx, crawler, persister)
	if n > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n", successStyle.Render(fmt.Sprintf("Built knowledge base with %d conditions at %s", n, persister)))
	}
	if err != nil {
		logging.Get(logging.CategorySeed).Warn("Seeding finished with errors: %v", err)
		return err
	}
	return nil
}
