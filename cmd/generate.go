package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/stackarr/stackarr/internal/blueprint"
	"github.com/stackarr/stackarr/internal/compose"
	"github.com/stackarr/stackarr/internal/installer"
	"github.com/stackarr/stackarr/internal/model"
	"github.com/stackarr/stackarr/internal/utils/logger"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var (
	generateBlueprintFile string
	generateInputsFile    string
	generateAppName       string
	generateOutputDir     string
)

// generateCmd renders a blueprint plus inputs into compose.yaml and .env
// without touching the database or the container runtime.
var generateCmd = &cobra.Command{
	Use:   "generate -f <blueprint>",
	Short: "Generate stack files from a blueprint",
	Long: `Generate the compose stack descriptor and env file for a blueprint and a
set of user inputs. Nothing is installed; this is a dry run of the same
pipeline the install command uses. Output goes to stdout unless -o names a
directory.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if generateBlueprintFile == "" {
			return fmt.Errorf("blueprint file is required. Use -f to specify a file")
		}

		bp, err := blueprint.ParseFile(generateBlueprintFile)
		if err != nil {
			return err
		}

		raw := compose.RawInputs{}
		if generateInputsFile != "" {
			data, err := os.ReadFile(generateInputsFile)
			if err != nil {
				return fmt.Errorf("failed to read inputs file: %w", err)
			}
			if strings.EqualFold(filepath.Ext(generateInputsFile), ".json") {
				err = json.Unmarshal(data, &raw)
			} else {
				err = yaml.Unmarshal(data, &raw)
			}
			if err != nil {
				return fmt.Errorf("failed to parse inputs file: %w", err)
			}
		}

		name := generateAppName
		if name == "" {
			name = bp.Name
		}
		globals := model.DefaultGlobalSettings()
		app := model.AppIdentity{
			Name:          name,
			BlueprintName: bp.Name,
			HostPath:      filepath.Join(globals.StacksPath, name),
		}

		logger.Debug("Generating stack",
			zap.String("blueprint", bp.Name), zap.String("app", name))

		gen := compose.NewGenerator(nil)
		result, err := gen.Generate(context.Background(), bp, globals, app, raw)
		if err != nil {
			return err
		}

		stackYAML, err := result.Stack.YAML()
		if err != nil {
			return err
		}

		if generateOutputDir == "" {
			fmt.Printf("# %s\n%s\n", installer.ComposeFileName, stackYAML)
			fmt.Printf("# .env\n%s", result.EnvFile)
			return nil
		}

		if err := os.MkdirAll(generateOutputDir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		composePath := filepath.Join(generateOutputDir, installer.ComposeFileName)
		if err := os.WriteFile(composePath, stackYAML, 0644); err != nil {
			return fmt.Errorf("failed to write compose file: %w", err)
		}
		envPath := filepath.Join(generateOutputDir, ".env")
		if err := os.WriteFile(envPath, []byte(result.EnvFile), 0644); err != nil {
			return fmt.Errorf("failed to write env file: %w", err)
		}
		fmt.Printf("Wrote %s and %s\n", composePath, envPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().StringVarP(&generateBlueprintFile, "file", "f", "", "blueprint file to render")
	generateCmd.Flags().StringVar(&generateInputsFile, "inputs", "", "JSON or YAML file with user inputs")
	generateCmd.Flags().StringVar(&generateAppName, "name", "", "app instance name (defaults to the blueprint name)")
	generateCmd.Flags().StringVarP(&generateOutputDir, "output", "o", "", "directory to write the stack files into")
}
