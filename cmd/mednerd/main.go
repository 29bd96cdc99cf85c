// Package main is the mednerd command line: one-shot resolution, the HTTP
// server, the seeding crawler and knowledge base inspection.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"mednerd/internal/config"
	"mednerd/internal/logging"
)

var (
	// Global flags
	verbose    bool
	cfgFile    string
	jsonOutput bool

	cfg *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "mednerd",
	Short: "mednerd - offline-first clinical condition matcher",
	Long: `mednerd matches symptom descriptions, medical reports and image filenames
against a local knowledge base of conditions. Queries the knowledge base cannot
answer are looked up live on NHS condition pages, and what is found is learned.

Run "mednerd serve" to expose the same operations over HTTP.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return err
		}

		opts := cfg.Logging.Options()
		if verbose {
			opts.Level = "debug"
		}
		if err := logging.Initialize(opts); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logging.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "mednerd.yaml", "Config file (missing file uses defaults)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print results as JSON")

	knowledgeCmd.AddCommand(knowledgeListCmd)
	knowledgeCmd.AddCommand(knowledgeShowCmd)
	configCmd.AddCommand(configInitCmd)

	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(documentCmd)
	rootCmd.AddCommand(fileCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(knowledgeCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// joinArgs joins command arguments into one query with single spaces.
func joinArgs(args []string) string {
	return strings.Join(strings.Fields(strings.Join(args, " ")), " ")
}
