package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/workspacekit/manifest-eval/internal/fixture"
	"github.com/workspacekit/manifest-eval/internal/model"
	"github.com/workspacekit/manifest-eval/internal/runner"
	"github.com/workspacekit/manifest-eval/internal/store"
)

// resultsFile is the on-disk form of one evaluation run.
type resultsFile struct {
	RunID    string              `json:"run_id"`
	Selector string              `json:"selector"`
	Model    string              `json:"model,omitempty"`
	Trials   []model.TrialResult `json:"trials"`
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the evaluation suite",
	Long:  "Dispatches every scenario through the chosen selector for each manifest variant, scores the trials, and records them in the store and a results file.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		selName, _ := cmd.Flags().GetString("selector")
		runs, _ := cmd.Flags().GetInt("runs")
		concurrency, _ := cmd.Flags().GetInt("concurrency")
		variantFlag, _ := cmd.Flags().GetString("variant")
		output, _ := cmd.Flags().GetString("output")

		if runs <= 0 {
			runs = cfg.Eval.RunsPerScenario
		}
		if concurrency <= 0 {
			concurrency = cfg.Eval.Concurrency
		}

		var variants []model.Variant
		switch variantFlag {
		case "":
			variants = model.Variants
		case string(model.VariantBaseline), string(model.VariantEnhanced):
			variants = []model.Variant{model.Variant(variantFlag)}
		default:
			return eris.Errorf("unknown variant %q", variantFlag)
		}

		suite, err := fixture.LoadSuite(cfg.Fixtures.ScenariosPath, cfg.Fixtures.ManifestDir)
		if err != nil {
			return eris.Wrap(err, "run")
		}

		sel, err := initSelector(selName)
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		run, err := st.CreateRun(ctx, sel.Name(), cfg.Anthropic.Model)
		if err != nil {
			return eris.Wrap(err, "run")
		}
		fmt.Printf("Run %s started (%s selector, %d scenarios)\n", run.ID, sel.Name(), len(suite.Scenarios))

		opts := runner.Options{
			Variants:        variants,
			RunsPerScenario: runs,
			Concurrency:     concurrency,
			Flush: func(ctx context.Context, trials []model.TrialResult) error {
				return st.AppendTrials(ctx, run.ID, trials)
			},
		}

		trials, runErr := runner.New(sel).Run(ctx, suite, opts)

		status := model.RunStatusComplete
		if runErr != nil {
			status = model.RunStatusFailed
			if eris.Is(runErr, context.Canceled) {
				status = model.RunStatusCanceled
			}
		}
		// The status update uses a fresh context: the run context may already
		// be canceled.
		statusCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := st.UpdateRunStatus(statusCtx, run.ID, status); err != nil {
			zap.L().Error("update run status failed", zap.Error(err))
		}

		if output == "" {
			output = filepath.Join(cfg.Fixtures.ResultsDir, run.ID+".json")
		}
		if err := writeResults(output, resultsFile{
			RunID:    run.ID,
			Selector: sel.Name(),
			Model:    cfg.Anthropic.Model,
			Trials:   trials,
		}); err != nil {
			return err
		}

		failed := 0
		for _, t := range trials {
			if t.Failed() {
				failed++
			}
		}
		fmt.Printf("Run %s %s: %d trials (%d failed), results in %s\n",
			run.ID, status, len(trials), failed, output)

		if runErr != nil {
			return eris.Wrap(runErr, "run")
		}
		return nil
	},
}

func writeResults(path string, rf resultsFile) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrapf(err, "run: mkdir %s", filepath.Dir(path))
	}
	data, err := json.MarshalIndent(rf, "", "  ")
	if err != nil {
		return eris.Wrap(err, "run: marshal results")
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return eris.Wrapf(err, "run: write %s", path)
	}
	return nil
}

func readResults(path string) (resultsFile, error) {
	var rf resultsFile
	data, err := os.ReadFile(path)
	if err != nil {
		return rf, eris.Wrapf(err, "read results %s", path)
	}
	if err := json.Unmarshal(data, &rf); err != nil {
		return rf, eris.Wrapf(err, "unmarshal results %s", path)
	}
	return rf, nil
}

// loadRunTrials pulls every trial of one run from the store.
func loadRunTrials(ctx context.Context, st store.Store, runID string) ([]model.TrialResult, error) {
	return st.ListTrials(ctx, store.TrialFilter{RunID: runID})
}

func init() {
	runCmd.Flags().String("selector", "rules", "selector implementation (rules, llm)")
	runCmd.Flags().Int("runs", 0, "trials per scenario per variant (default from config)")
	runCmd.Flags().Int("concurrency", 0, "parallel scenario groups (default from config)")
	runCmd.Flags().String("variant", "", "restrict to one variant (baseline, enhanced)")
	runCmd.Flags().String("output", "", "results file path (default <results_dir>/<run-id>.json)")
	rootCmd.AddCommand(runCmd)
}
