package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"inkplan/internal/callrecord"
)

var callsCmd = &cobra.Command{
	Use:   "calls <job-id>",
	Short: "List recorded suggestion-service calls for a job",
	Long: `List every suggestion-service call recorded for a job: prompt key,
provider, model, token usage, latency, and outcome. Useful for auditing
cost and diagnosing conversion failures.

Examples:
  inkplan calls novel-1`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		jobID := args[0]

		d, err := setup()
		if err != nil {
			return err
		}
		defer d.close()

		recorder := callrecord.NewRecorder(d.kv, d.logger)
		records, err := recorder.ForJob(cmd.Context(), jobID)
		if err != nil {
			return fmt.Errorf("failed to list calls for job %s: %w", jobID, err)
		}
		if len(records) == 0 {
			fmt.Printf("No recorded calls for job %s\n", jobID)
			return nil
		}

		var inputTotal, outputTotal int
		for _, rec := range records {
			status := "ok"
			if !rec.Success {
				status = "FAILED"
				if rec.Error != "" {
					status = "FAILED: " + rec.Error
				}
			}
			fmt.Printf("%s  %-20s chunk=%-3d %s/%s in=%d out=%d %dms %s\n",
				rec.Timestamp.Format("2006-01-02 15:04:05"),
				rec.PromptKey, rec.ChunkIndex,
				rec.Provider, rec.Model,
				rec.InputTokens, rec.OutputTokens,
				rec.LatencyMs, status)
			inputTotal += rec.InputTokens
			outputTotal += rec.OutputTokens
		}
		fmt.Printf("\n%d calls, %d input tokens, %d output tokens\n",
			len(records), inputTotal, outputTotal)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(callsCmd)
}
