package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pders01/cntry/internal/config"
)

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configGenCmd = &cobra.Command{
	Use:   "generate",
	Short: "Write the default configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		path := configPath
		if path == "" {
			path = config.DefaultPath()
		}
		path = config.ExpandPath(path)

		if _, err := os.Stat(path); err == nil && !configForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		if err := config.GenerateDefaultConfig(path); err != nil {
			return fmt.Errorf("failed to generate config: %w", err)
		}
		cmd.Printf("Generated default configuration at: %s\n", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration as TOML",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		data, err := config.Marshal(cfg)
		if err != nil {
			return err
		}
		cmd.Print(string(data))
		return nil
	},
}

func init() {
	configGenCmd.Flags().BoolVar(&configForce, "force", false, "overwrite an existing file")
	configCmd.AddCommand(configGenCmd, configShowCmd)
	rootCmd.AddCommand(configCmd)
}
