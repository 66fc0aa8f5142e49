package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/workspacekit/manifest-eval/internal/analyzer"
	"github.com/workspacekit/manifest-eval/internal/fixture"
	"github.com/workspacekit/manifest-eval/internal/model"
	"github.com/workspacekit/manifest-eval/internal/runner"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Compare baseline and enhanced results",
	Long:  "Aggregates trial results per variant, computes deltas and significance, evaluates success criteria, and renders the comparison report.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		runID, _ := cmd.Flags().GetString("run")
		resultsPath, _ := cmd.Flags().GetString("results")
		thresholdsPath, _ := cmd.Flags().GetString("thresholds")
		asJSON, _ := cmd.Flags().GetBool("json")

		var trials []model.TrialResult
		switch {
		case resultsPath != "":
			rf, err := readResults(resultsPath)
			if err != nil {
				return eris.Wrap(err, "analyze")
			}
			trials = rf.Trials
		case runID != "":
			st, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck
			if err := st.Migrate(ctx); err != nil {
				return err
			}
			trials, err = loadRunTrials(ctx, st, runID)
			if err != nil {
				return eris.Wrap(err, "analyze")
			}
		default:
			return eris.New("analyze: one of --run or --results is required")
		}

		scenarios, err := fixture.LoadScenarios(cfg.Fixtures.ScenariosPath)
		if err != nil {
			return eris.Wrap(err, "analyze")
		}

		baseline, enhanced := runner.SplitByVariant(trials)
		report, err := analyzer.Compare(scenarios, baseline, enhanced)
		if err != nil {
			return eris.Wrap(err, "analyze")
		}

		var criteria []model.CriterionResult
		if thresholdsPath == "" {
			thresholdsPath = cfg.Fixtures.ThresholdsPath
		}
		if thresholdsPath != "" {
			thresholds, err := analyzer.LoadThresholds(thresholdsPath)
			if err != nil {
				return eris.Wrap(err, "analyze")
			}
			criteria = analyzer.EvaluateSuccess(report, thresholds)
		}

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(struct {
				Report   *model.ComparisonReport `json:"report"`
				Criteria []model.CriterionResult `json:"criteria,omitempty"`
			}{report, criteria}); err != nil {
				return eris.Wrap(err, "analyze: encode report")
			}
		} else {
			fmt.Print(analyzer.RenderText(report, criteria))
		}

		if len(criteria) > 0 && !analyzer.AllPassed(criteria) {
			return eris.New("analyze: success criteria not met")
		}
		return nil
	},
}

func init() {
	analyzeCmd.Flags().String("run", "", "analyze trials of a stored run ID")
	analyzeCmd.Flags().String("results", "", "analyze trials from a results file")
	analyzeCmd.Flags().String("thresholds", "", "success criteria YAML (default from config)")
	analyzeCmd.Flags().Bool("json", false, "emit the report as JSON")
	rootCmd.AddCommand(analyzeCmd)
}
