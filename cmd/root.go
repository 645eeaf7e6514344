package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stackarr/stackarr/internal/utils/logger"
	"go.uber.org/zap"
)

var (
	cfgFile      string
	logLevel     string
	dbPath       string
	blueprintDir string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "stackarr",
	Short: "Self-hosted app manager built on compose stacks",
	Long: `stackarr turns blueprint definitions and user inputs into compose stack
files and manages the resulting app containers. Blueprints describe what an
app needs; stackarr routes the answers into a deterministic stack descriptor
and drives the container runtime.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	defer logger.Sync()

	if err := rootCmd.Execute(); err != nil {
		logger.Error("Command execution failed", zap.Error(err))
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/stackarr/stackarr.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "path to the app database (default is stackarr.db)")
	rootCmd.PersistentFlags().StringVar(&blueprintDir, "blueprints", "blueprints", "directory containing blueprint files")

	// Bind flags to viper
	viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("db", rootCmd.PersistentFlags().Lookup("db"))
	viper.BindPFlag("blueprints", rootCmd.PersistentFlags().Lookup("blueprints"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		// Search config in home directory with name "stackarr" (without extension).
		viper.AddConfigPath(home + "/.config/stackarr")
		viper.SetConfigType("yaml")
		viper.SetConfigName("stackarr")
	}

	viper.SetEnvPrefix("STACKARR")
	viper.AutomaticEnv() // read in environment variables that match

	// Initialize the logger
	if err := logger.Init(logLevel); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		logger.Info("Using config file", zap.String("file", viper.ConfigFileUsed()))
	}
}
