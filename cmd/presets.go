package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/stackarr/stackarr/internal/preset"
	"gopkg.in/yaml.v3"
)

var (
	presetsDir        string
	presetsInputsFile string
	presetsInstall    bool
)

// presetsCmd groups preset management. A preset is a JSON file bundling
// several blueprints so they can be configured and installed together.
var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "Manage app presets",
	Long: `List, inspect and apply presets. A preset is a JSON file in the presets
directory naming a set of blueprints to install together.`,
}

var presetsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available presets",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		svc := preset.NewService(presetsDir, st)
		presets, err := svc.List(context.Background())
		if err != nil {
			return err
		}
		if len(presets) == 0 {
			fmt.Println("No presets found.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tAPPS")
		for _, p := range presets {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.ID, p.Name, p.Category, strings.Join(p.Apps, ", "))
		}
		return w.Flush()
	},
}

var presetsShowCmd = &cobra.Command{
	Use:   "show <preset>",
	Short: "Show a preset and what applying it would need",
	Long: `Show a preset's definition together with an analysis against the current
catalog: which apps can be created, which blueprints are missing, which apps
exist already, and which required inputs still need a value.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()
		ctx := context.Background()

		svc := preset.NewService(presetsDir, st)
		p, err := svc.Get(ctx, args[0])
		if err != nil {
			return err
		}
		analysis, err := svc.Analyze(ctx, p.ID)
		if err != nil {
			return err
		}

		fmt.Printf("%s (%s)\n", p.Name, p.ID)
		if p.Description != "" {
			fmt.Println(p.Description)
		}
		fmt.Printf("Apps: %s\n", strings.Join(p.Apps, ", "))

		if len(analysis.MissingBlueprints) > 0 {
			color.New(color.FgRed).Printf("Missing blueprints: %s\n", strings.Join(analysis.MissingBlueprints, ", "))
		}
		if len(analysis.AlreadyExists) > 0 {
			color.New(color.Faint).Printf("Already installed: %s\n", strings.Join(analysis.AlreadyExists, ", "))
		}
		if len(analysis.RequiredInputs) == 0 {
			return nil
		}

		fmt.Println("\nRequired inputs (no default, pass via --inputs):")
		for _, appName := range analysis.AvailableApps {
			inputs := analysis.RequiredInputs[appName]
			if len(inputs) == 0 {
				continue
			}
			fmt.Printf("  %s:\n", appName)
			for _, in := range inputs {
				line := fmt.Sprintf("    %s (%s)", in.Field, in.Label)
				if in.IsSensitive {
					line += " [sensitive]"
				}
				fmt.Println(line)
			}
		}
		return nil
	},
}

var presetsApplyCmd = &cobra.Command{
	Use:   "apply <preset>",
	Short: "Create app records from a preset",
	Long: `Create a configured app record for every blueprint the preset names.
Inputs can be supplied with --inputs as a JSON or YAML map of app name to
field values; schema defaults fill the rest. With --install the created apps
are installed immediately in prerequisite order.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()
		ctx := context.Background()

		inputs := map[string]map[string]any{}
		if presetsInputsFile != "" {
			data, err := os.ReadFile(presetsInputsFile)
			if err != nil {
				return fmt.Errorf("failed to read inputs file: %w", err)
			}
			if strings.EqualFold(filepath.Ext(presetsInputsFile), ".json") {
				err = json.Unmarshal(data, &inputs)
			} else {
				err = yaml.Unmarshal(data, &inputs)
			}
			if err != nil {
				return fmt.Errorf("failed to parse inputs file: %w", err)
			}
		}

		svc := preset.NewService(presetsDir, st)
		result, err := svc.Apply(ctx, args[0], inputs)
		if err != nil {
			return err
		}

		for _, appName := range result.Skipped {
			color.New(color.FgYellow).Printf("Skipped %s: %s\n", appName, result.Errors[appName])
		}
		fmt.Printf("Created %d app(s)\n", len(result.CreatedApps))

		if !presetsInstall || len(result.CreatedApps) == 0 {
			return nil
		}
		inst, err := newInstaller(st)
		if err != nil {
			return err
		}
		if err := inst.InstallBatch(ctx, result.CreatedApps); err != nil {
			return err
		}
		fmt.Printf("Installed %d app(s)\n", len(result.CreatedApps))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(presetsCmd)
	presetsCmd.AddCommand(presetsListCmd)
	presetsCmd.AddCommand(presetsShowCmd)
	presetsCmd.AddCommand(presetsApplyCmd)

	presetsCmd.PersistentFlags().StringVar(&presetsDir, "presets", "presets", "directory containing preset files")
	presetsApplyCmd.Flags().StringVar(&presetsInputsFile, "inputs", "", "JSON or YAML map of app name to input values")
	presetsApplyCmd.Flags().BoolVar(&presetsInstall, "install", false, "install the created apps immediately")
}
