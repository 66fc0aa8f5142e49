package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/workspacekit/manifest-eval/internal/model"
	"github.com/workspacekit/manifest-eval/internal/store"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect evaluation run history",
	Long:  "Commands for listing runs and viewing their recorded trials.",
}

// -- runs list --

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List evaluation runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		status, _ := cmd.Flags().GetString("status")
		limit, _ := cmd.Flags().GetInt("limit")

		runs, err := st.ListRuns(ctx, store.RunFilter{
			Status: model.RunStatus(status),
			Limit:  limit,
		})
		if err != nil {
			return eris.Wrap(err, "runs list")
		}

		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "No runs found.")
			return nil
		}

		formatRunsList(os.Stdout, runs)
		return nil
	},
}

// -- runs show --

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show full details of a run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		run, err := st.GetRun(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "runs show")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(run)
	},
}

// -- runs trials --

var runsTrialsCmd = &cobra.Command{
	Use:   "trials <run-id>",
	Short: "List the recorded trials of a run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		scenario, _ := cmd.Flags().GetString("scenario")
		variant, _ := cmd.Flags().GetString("variant")
		asJSON, _ := cmd.Flags().GetBool("json")

		trials, err := st.ListTrials(ctx, store.TrialFilter{
			RunID:      args[0],
			ScenarioID: scenario,
			Variant:    model.Variant(variant),
		})
		if err != nil {
			return eris.Wrap(err, "runs trials")
		}

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(trials)
		}

		if len(trials) == 0 {
			fmt.Fprintln(os.Stderr, "No trials found.")
			return nil
		}
		formatTrialsList(os.Stdout, trials)
		return nil
	},
}

func init() {
	runsListCmd.Flags().String("status", "", "filter by run status (running, complete, failed, canceled)")
	runsListCmd.Flags().Int("limit", 50, "max number of runs to display")

	runsTrialsCmd.Flags().String("scenario", "", "filter by scenario ID")
	runsTrialsCmd.Flags().String("variant", "", "filter by manifest variant (baseline, enhanced)")
	runsTrialsCmd.Flags().Bool("json", false, "emit trials as JSON")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	runsCmd.AddCommand(runsTrialsCmd)
	rootCmd.AddCommand(runsCmd)
}

// formatRunsList writes a tabular list of runs to w.
func formatRunsList(out io.Writer, runs []model.Run) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tSELECTOR\tMODEL\tSTATUS\tCREATED\tDURATION")
	_, _ = fmt.Fprintln(w, "--\t--------\t-----\t------\t-------\t--------")

	for _, r := range runs {
		dur := r.UpdatedAt.Sub(r.CreatedAt).Round(time.Second).String()
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			truncateID(r.ID),
			r.Selector,
			r.Model,
			r.Status,
			r.CreatedAt.Format("2006-01-02 15:04"),
			dur,
		)
	}
	_ = w.Flush()
}

// formatTrialsList writes a tabular list of trials to w.
func formatTrialsList(out io.Writer, trials []model.TrialResult) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "SCENARIO\tVARIANT\tRUN\tSTATUS\tACCURACY\tCONF\tLATENCY\tERROR")
	for _, t := range trials {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%.1f%%\t%.0f\t%dms\t%s\n",
			t.ScenarioID,
			t.Variant,
			t.RunIndex,
			t.Status,
			t.Accuracy,
			t.Confidence,
			t.DecisionLatencyMS,
			t.ErrorKind,
		)
	}
	_ = w.Flush()
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
