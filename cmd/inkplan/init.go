package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"inkplan/internal/config"
	"inkplan/internal/home"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the inkplan home directory and default config",
	Long: `Create the inkplan home directory (default ~/.inkplan) with its data
layout and write a default config.yaml.

Examples:
  inkplan init                 # Initialize ~/.inkplan
  inkplan init --home ./work   # Initialize a custom directory
  inkplan init --force         # Overwrite an existing config`,
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := home.New(homeDir)
		if err != nil {
			return err
		}
		if err := h.EnsureExists(); err != nil {
			return err
		}

		if h.ConfigExists() && !initForce {
			fmt.Printf("Config already exists at %s (use --force to overwrite)\n", h.ConfigPath())
			return nil
		}
		if err := config.WriteDefault(h.ConfigPath()); err != nil {
			return err
		}

		fmt.Printf("Initialized inkplan home at %s\n", h.Path())
		fmt.Printf("Edit %s to configure providers and thresholds\n", h.ConfigPath())
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing config file")

	rootCmd.AddCommand(initCmd)
}
