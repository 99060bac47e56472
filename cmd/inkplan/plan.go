package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"inkplan/internal/script"
)

var planOut string

// planDocument is the on-disk form of a finished segmentation plan.
type planDocument struct {
	JobID    string             `yaml:"job_id"`
	Episodes []script.Episode   `yaml:"episodes"`
	Pages    []script.PageRange `yaml:"pages"`
}

var planCmd = &cobra.Command{
	Use:   "plan <job-id> <panels-file>",
	Short: "Compute episode and page plans for a converted panel sequence",
	Long: `Compute the full segmentation plan for a panel sequence produced by
'inkplan convert': episode boundaries, page assignments, and episodes
aligned to page boundaries. Plans are cached by content hash, so
re-running on unchanged panels makes no suggestion-service calls.

Examples:
  inkplan plan novel-1 ~/.inkplan/scripts/novel-1.panels.yaml
  inkplan plan novel-1 panels.yaml --out plan.yaml`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		jobID, panelsFile := args[0], args[1]

		d, err := setup()
		if err != nil {
			return err
		}
		defer d.close()

		data, err := os.ReadFile(panelsFile)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", panelsFile, err)
		}
		var doc panelsDocument
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("failed to parse %s: %w", panelsFile, err)
		}
		if len(doc.Panels) == 0 {
			return fmt.Errorf("%s contains no panels", panelsFile)
		}

		p, err := newPlanner(d)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		episodes, err := p.PlanEpisodes(ctx, jobID, doc.Panels)
		if err != nil {
			return err
		}
		pages, err := p.PlanPages(ctx, jobID, doc.Panels)
		if err != nil {
			return err
		}
		aligned, err := p.AlignEpisodesToPages(jobID, episodes, pages, len(doc.Panels))
		if err != nil {
			return err
		}

		out := planOut
		if out == "" {
			out = d.home.ScriptPath(jobID + ".plan")
		}
		planData, err := yaml.Marshal(planDocument{
			JobID:    jobID,
			Episodes: aligned.Episodes,
			Pages:    pages.Ranges(),
		})
		if err != nil {
			return fmt.Errorf("failed to serialize plan: %w", err)
		}
		if err := os.WriteFile(out, planData, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", out, err)
		}

		fmt.Printf("Planned %d episodes over %d pages: %s\n",
			len(aligned.Episodes), pages.PageCount(), out)
		return nil
	},
}

func init() {
	planCmd.Flags().StringVar(&planOut, "out", "", "output file (default: <home>/scripts/<job-id>.plan.yaml)")

	rootCmd.AddCommand(planCmd)
}
