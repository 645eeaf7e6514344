package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stackarr/stackarr/internal/blueprint"
)

// blueprintsCmd groups blueprint catalog management
var blueprintsCmd = &cobra.Command{
	Use:   "blueprints",
	Short: "Manage the blueprint catalog",
}

var blueprintsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List loaded blueprints",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		bps, err := st.ListBlueprints(context.Background())
		if err != nil {
			return err
		}
		if len(bps) == 0 {
			fmt.Println("No blueprints loaded. Run \"stackarr blueprints load\" first.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tCATEGORY\tORDER\tPREREQUISITES")
		for _, bp := range bps {
			prereqs := "-"
			if len(bp.Prerequisites) > 0 {
				prereqs = fmt.Sprintf("%v", bp.Prerequisites)
			}
			fmt.Fprintf(w, "%s\t%s\t%g\t%s\n", bp.Name, bp.Category, bp.InstallOrder, prereqs)
		}
		return w.Flush()
	},
}

var blueprintsLoadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load blueprint files into the catalog",
	Long:  `Read every blueprint file in the blueprints directory into the store.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		dir := viper.GetString("blueprints")
		loader := blueprint.NewLoader(dir, st)
		loaded, failed, err := loader.LoadAll(context.Background())
		if err != nil {
			return err
		}
		fmt.Printf("Loaded %d blueprints from %s", loaded, dir)
		if failed > 0 {
			fmt.Printf(" (%d failed)", failed)
		}
		fmt.Println()
		return nil
	},
}

var blueprintsWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the blueprint directory and reload on change",
	Long: `Load every blueprint, then keep watching the blueprints directory and
reload files as they are edited. Runs until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()
		ctx := context.Background()

		dir := viper.GetString("blueprints")
		loader := blueprint.NewLoader(dir, st)
		if _, _, err := loader.LoadAll(ctx); err != nil {
			return err
		}

		watcher, err := blueprint.NewWatcher(func(path string) error {
			return loader.LoadFile(ctx, path)
		})
		if err != nil {
			return err
		}
		defer watcher.Close()
		if err := watcher.Watch(dir); err != nil {
			return err
		}

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		fmt.Println("Shutting down")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(blueprintsCmd)
	blueprintsCmd.AddCommand(blueprintsListCmd)
	blueprintsCmd.AddCommand(blueprintsLoadCmd)
	blueprintsCmd.AddCommand(blueprintsWatchCmd)
}
