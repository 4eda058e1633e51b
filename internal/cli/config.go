package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/randalmurphal/chatkit/config"
	"github.com/randalmurphal/chatkit/openai"
	"github.com/randalmurphal/chatkit/provider"
)

func newConfigCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and create config files",
	}
	cmd.AddCommand(
		newConfigInitCmd(),
		newConfigShowCmd(opts),
		newConfigSchemaCmd(),
	)
	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a starter config file",
		Long: `Write a starter config file. The format follows the extension
(.yaml, .yml, .toml or .json). The default path is chatkit.yaml.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.BaseName + ".yaml"
			if len(args) == 1 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("stat %s: %w", path, err)
			}

			f := &config.File{
				Provider:    provider.DefaultProvider,
				BaseURL:     openai.DefaultBaseURL,
				APIKeyEnv:   "OPENAI_API_KEY",
				ModelPrefix: provider.DefaultModelPrefix,
				Temperature: provider.Float(provider.DefaultTemperature),
				Timeout:     config.Duration(provider.DefaultTimeout),
			}
			if err := config.Save(path, f); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func newConfigShowCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, path, err := resolveConfig(opts)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if path != "" {
				fmt.Fprintf(out, "# source: %s\n", path)
			}
			keyState := "unset"
			if cfg.APIKey != "" {
				keyState = "set"
			}
			fmt.Fprintf(out, "# api key: %s\n", keyState)

			enc := yaml.NewEncoder(out)
			enc.SetIndent(2)
			if err := enc.Encode(config.FromProvider(cfg)); err != nil {
				return fmt.Errorf("encode config: %w", err)
			}
			return enc.Close()
		},
	}
}

func newConfigSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema for config files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := config.Schema()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}
