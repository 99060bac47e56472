package main

import (
	"github.com/spf13/cobra"

	"inkplan/version"
)

var (
	cfgFile string
	homeDir string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "inkplan",
	Short: "Episode and page segmentation planner for manga-style scripts",
	Long: `Inkplan converts long narrative text into a manga-style script plan.

The pipeline includes:
  - Chunked conversion of raw text into structured panels
  - LLM-suggested episode boundaries, normalized into a strict partition
  - Page planning with episode alignment to page boundaries
  - Content-hash-keyed plan caching with single-flight computation`,
	Version: version.GitRelease,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.inkplan/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "inkplan home directory (default: ~/.inkplan)",
	)
	rootCmd.PersistentFlags().BoolVarP(
		&verbose, "verbose", "v", false, "enable debug logging",
	)

	rootCmd.AddCommand(versionCmd)
}
