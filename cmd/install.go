package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/stackarr/stackarr/internal/model"
)

// installCmd installs one or more configured apps in prerequisite order.
var installCmd = &cobra.Command{
	Use:   "install <app>...",
	Short: "Install apps",
	Long: `Generate stack files for the named apps and bring their containers up.
Apps are installed in prerequisite order; a blueprint's prerequisites must
either be installed already or part of the same invocation.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()
		ctx := context.Background()

		ids := make([]string, 0, len(args))
		for _, ref := range args {
			app, err := findApp(ctx, st, ref)
			if err != nil {
				return err
			}
			ids = append(ids, app.ID)
		}

		inst, err := newInstaller(st)
		if err != nil {
			return err
		}
		if err := inst.InstallBatch(ctx, ids); err != nil {
			return err
		}
		fmt.Printf("Installed %d app(s)\n", len(ids))
		return nil
	},
}

var startCmd = &cobra.Command{
	Use:   "start <app>",
	Short: "Start a stopped app",
	Args:  cobra.ExactArgs(1),
	RunE:  func(cmd *cobra.Command, args []string) error { return lifecycleRun(args[0], "start") },
}

var stopCmd = &cobra.Command{
	Use:   "stop <app>",
	Short: "Stop a running app",
	Args:  cobra.ExactArgs(1),
	RunE:  func(cmd *cobra.Command, args []string) error { return lifecycleRun(args[0], "stop") },
}

var updateCmd = &cobra.Command{
	Use:   "update <app>",
	Short: "Regenerate an app's stack and re-apply it",
	Args:  cobra.ExactArgs(1),
	RunE:  func(cmd *cobra.Command, args []string) error { return lifecycleRun(args[0], "update") },
}

func lifecycleRun(ref, op string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()
	ctx := context.Background()

	app, err := findApp(ctx, st, ref)
	if err != nil {
		return err
	}
	inst, err := newInstaller(st)
	if err != nil {
		return err
	}

	switch op {
	case "start":
		err = inst.Start(ctx, app.ID)
	case "stop":
		err = inst.Stop(ctx, app.ID)
	case "update":
		err = inst.Update(ctx, app.ID)
	}
	if err != nil {
		return err
	}
	fmt.Printf("%s: %s\n", app.Name, opPastTense(op))
	return nil
}

func opPastTense(op string) string {
	switch op {
	case "start":
		return model.StatusRunning
	case "stop":
		return model.StatusStopped
	default:
		return "updated"
	}
}

func init() {
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(updateCmd)
}
