package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/workspacekit/manifest-eval/internal/fixture"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate manifest fixtures from the scenario suite",
	Long:  "Derives baseline and enhanced manifests from each scenario's context and writes them under the manifest directory.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		scenariosPath, _ := cmd.Flags().GetString("scenarios")
		manifestDir, _ := cmd.Flags().GetString("manifest-dir")
		if scenariosPath == "" {
			scenariosPath = cfg.Fixtures.ScenariosPath
		}
		if manifestDir == "" {
			manifestDir = cfg.Fixtures.ManifestDir
		}

		scenarios, err := fixture.LoadScenarios(scenariosPath)
		if err != nil {
			return eris.Wrap(err, "generate")
		}

		written, err := fixture.GenerateAll(scenarios, manifestDir)
		if err != nil {
			return eris.Wrap(err, "generate")
		}

		fmt.Printf("Wrote %d manifests for %d scenarios to %s\n", written, len(scenarios), manifestDir)
		return nil
	},
}

func init() {
	generateCmd.Flags().String("scenarios", "", "scenario suite file (default from config)")
	generateCmd.Flags().String("manifest-dir", "", "manifest output directory (default from config)")
	rootCmd.AddCommand(generateCmd)
}
