package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"inkplan/internal/chunkpool"
	"inkplan/internal/script"
)

var (
	convertChunkSize int
	convertOut       string
)

// panelsDocument is the on-disk form of a converted panel sequence.
type panelsDocument struct {
	JobID  string         `yaml:"job_id"`
	Panels []script.Panel `yaml:"panels"`
}

var convertCmd = &cobra.Command{
	Use:   "convert <job-id> <text-file>",
	Short: "Convert raw narrative text into structured panels",
	Long: `Split a narrative text file into chunks and convert each chunk into
structured panels via the suggestion service. Conversion is resumable:
chunks that completed in a previous run are not reprocessed.

Examples:
  inkplan convert novel-1 ./novel.txt
  inkplan convert novel-1 ./novel.txt --chunk-size 4000
  inkplan convert novel-1 ./novel.txt --out panels.yaml`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		jobID, textFile := args[0], args[1]

		d, err := setup()
		if err != nil {
			return err
		}
		defer d.close()

		text, err := os.ReadFile(textFile)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", textFile, err)
		}
		chunks := script.SplitText(string(text), convertChunkSize)
		if len(chunks) == 0 {
			return fmt.Errorf("%s contains no text", textFile)
		}
		d.logger.Info("converting chunks", "job_id", jobID, "chunks", len(chunks))

		pool, err := newPool(d)
		if err != nil {
			return err
		}
		results, err := pool.Convert(cmd.Context(), jobID, chunks)
		if err != nil {
			return err
		}
		panels := chunkpool.Assemble(results)

		out := convertOut
		if out == "" {
			out = d.home.ScriptPath(jobID + ".panels")
		}
		data, err := yaml.Marshal(panelsDocument{JobID: jobID, Panels: panels})
		if err != nil {
			return fmt.Errorf("failed to serialize panels: %w", err)
		}
		if err := os.WriteFile(out, data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", out, err)
		}

		fmt.Printf("Converted %d chunks into %d panels: %s\n", len(chunks), len(panels), out)
		return nil
	},
}

func init() {
	convertCmd.Flags().IntVar(&convertChunkSize, "chunk-size", script.DefaultChunkSize, "target chunk size in characters")
	convertCmd.Flags().StringVar(&convertOut, "out", "", "output file (default: <home>/scripts/<job-id>.panels.yaml)")

	rootCmd.AddCommand(convertCmd)
}
