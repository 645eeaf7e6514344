package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/stackarr/stackarr/internal/model"
	"gopkg.in/yaml.v3"
)

// settingsCmd groups global settings management
var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage global settings",
	Long: `Show or change the global settings injected into generated stacks:
ownership (PUID/PGID/umask), timezone, the managed network and the base
paths for stacks and app data.`,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show global settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		settings, err := st.GetGlobalSettings(context.Background())
		if err != nil {
			return err
		}
		out, err := yaml.Marshal(settings)
		if err != nil {
			return err
		}
		fmt.Print(string(out))
		return nil
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set one global setting",
	Long: `Set a global setting by key. Keys: puid, pgid, umask, timezone, user,
network-name, network-subnet, network-gateway, stacks-path, data-path.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()
		ctx := context.Background()

		settings, err := st.GetGlobalSettings(ctx)
		if err != nil {
			return err
		}
		if err := applySetting(&settings, args[0], args[1]); err != nil {
			return err
		}
		if err := st.SaveGlobalSettings(ctx, settings); err != nil {
			return err
		}
		fmt.Printf("Set %s = %s\n", args[0], args[1])
		return nil
	},
}

func applySetting(s *model.GlobalSettings, key, value string) error {
	switch key {
	case "puid", "pgid":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s must be numeric: %w", key, err)
		}
		if key == "puid" {
			s.PUID = n
		} else {
			s.PGID = n
		}
	case "umask":
		s.Umask = value
	case "timezone":
		s.Timezone = value
	case "user":
		s.UserOverride = value
	case "network-name":
		s.NetworkName = value
	case "network-subnet":
		s.NetworkSubnet = value
	case "network-gateway":
		s.NetworkGateway = value
	case "stacks-path":
		s.StacksPath = value
	case "data-path":
		s.DataPath = value
	default:
		return fmt.Errorf("unknown setting %q", key)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(settingsCmd)
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
}
