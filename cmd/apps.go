package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/stackarr/stackarr/internal/model"
	"gopkg.in/yaml.v3"
)

// appsCmd groups app instance management
var appsCmd = &cobra.Command{
	Use:   "apps",
	Short: "Manage app instances",
	Long:  `List, add and remove the app instances stackarr manages.`,
}

var appsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List app instances",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		apps, err := st.ListApps(context.Background())
		if err != nil {
			return err
		}
		if len(apps) == 0 {
			fmt.Println("No apps configured.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tBLUEPRINT\tSTATUS\tID")
		for _, app := range apps {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", app.Name, app.BlueprintName, statusLabel(app.Status), app.ID)
		}
		w.Flush()

		for _, app := range apps {
			if app.Status == model.StatusError && app.ErrorMessage != "" {
				color.New(color.FgRed).Printf("%s: %s\n", app.Name, app.ErrorMessage)
			}
		}
		return nil
	},
}

var appsAddCmd = &cobra.Command{
	Use:   "add <blueprint> [name]",
	Short: "Add an app instance from a blueprint",
	Long: `Create an app record from a blueprint, optionally with user inputs from a
JSON or YAML file. The app is stored as configured; run "stackarr install"
to bring it up.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()
		ctx := context.Background()

		bp, err := st.GetBlueprint(ctx, args[0])
		if err != nil {
			return err
		}
		name := bp.Name
		if len(args) == 2 {
			name = args[1]
		}

		raw := map[string]any{}
		if appsInputsFile != "" {
			data, err := os.ReadFile(appsInputsFile)
			if err != nil {
				return fmt.Errorf("failed to read inputs file: %w", err)
			}
			if strings.HasSuffix(strings.ToLower(appsInputsFile), ".json") {
				err = json.Unmarshal(data, &raw)
			} else {
				err = yaml.Unmarshal(data, &raw)
			}
			if err != nil {
				return fmt.Errorf("failed to parse inputs file: %w", err)
			}
		}

		app := &model.App{
			Name:          name,
			BlueprintName: bp.Name,
			Status:        model.StatusConfigured,
			RawInputs:     raw,
		}
		if err := st.CreateApp(ctx, app); err != nil {
			return err
		}
		fmt.Printf("Added app %s (%s)\n", app.Name, app.ID)
		return nil
	},
}

var appsRemoveCmd = &cobra.Command{
	Use:   "remove <app>",
	Short: "Tear down an app and delete its record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()
		ctx := context.Background()

		app, err := findApp(ctx, st, args[0])
		if err != nil {
			return err
		}
		inst, err := newInstaller(st)
		if err != nil {
			return err
		}
		if err := inst.Remove(ctx, app.ID); err != nil {
			return err
		}
		fmt.Printf("Removed app %s\n", app.Name)
		return nil
	},
}

var appsInputsFile string

func statusLabel(status string) string {
	switch status {
	case model.StatusRunning:
		return color.GreenString(status)
	case model.StatusError:
		return color.RedString(status)
	case model.StatusInstalling:
		return color.YellowString(status)
	case model.StatusStopped:
		return color.New(color.Faint).Sprint(status)
	default:
		return status
	}
}

func init() {
	rootCmd.AddCommand(appsCmd)
	appsCmd.AddCommand(appsListCmd)
	appsCmd.AddCommand(appsAddCmd)
	appsCmd.AddCommand(appsRemoveCmd)

	appsAddCmd.Flags().StringVar(&appsInputsFile, "inputs", "", "JSON or YAML file with user inputs")
}
