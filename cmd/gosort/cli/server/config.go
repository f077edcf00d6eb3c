package server

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	config "github.com/mwantia/gosort/internal/config/server"
)

func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management utilities",
		Long: `Manage GoSort agent configuration files.

This command provides utilities for generating and inspecting
configuration files.`,
	}

	cmd.AddCommand(newConfigGenerateCommand())
	cmd.AddCommand(newConfigShowCommand())

	return cmd
}

func newConfigGenerateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate an example configuration file",
		Long: `Generate an example configuration file containing every default.

The file can be written as YAML or TOML and customized afterwards.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			outputDir, _ := cmd.Flags().GetString("output")
			overwrite, _ := cmd.Flags().GetBool("overwrite")
			format, _ := cmd.Flags().GetString("format")

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Generating configuration file (output: %s)\n", outputDir)

			data, err := marshalConfig(config.GetServerDefault(), format)
			if err != nil {
				return err
			}

			// Create output directory if it doesn't exist
			if err := os.MkdirAll(outputDir, 0o755); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}

			filename := filepath.Join(outputDir, "config."+format)

			if _, err := os.Stat(filename); err == nil && !overwrite {
				fmt.Fprintf(out, "Skipping %s (file exists, use --overwrite to replace)\n", filename)
				return nil
			}

			if err := os.WriteFile(filename, data, 0o644); err != nil {
				return fmt.Errorf("failed to write config file %s: %w", filename, err)
			}

			fmt.Fprintf(out, "Generated %s\n", filename)
			return nil
		},
	}

	cmd.Flags().String("output", ".", "output directory for configuration files")
	cmd.Flags().String("format", "yaml", "configuration format (yaml, toml)")
	cmd.Flags().Bool("overwrite", false, "overwrite existing files")

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Long:  "Print the configuration after merging defaults, config file, .env files and environment.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")

			cfg, err := config.LoadServerConfig()
			if err != nil {
				return fmt.Errorf("failed to load server configuration: %w", err)
			}

			data, err := marshalConfig(*cfg, format)
			if err != nil {
				return err
			}

			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.Flags().String("format", "yaml", "output format (yaml, toml)")

	return cmd
}

func marshalConfig(cfg config.BaseServerConfig, format string) ([]byte, error) {
	var (
		data []byte
		err  error
	)

	switch format {
	case "yaml", "yml":
		data, err = yaml.Marshal(cfg)
	case "toml":
		data, err = toml.Marshal(cfg)
	default:
		return nil, fmt.Errorf("unsupported format '%s'", format)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}
