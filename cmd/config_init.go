package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/brogergvhs/pagetidy/internal/config"

	"github.com/spf13/cobra"
)

var assumeYes bool

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the Default config and make it active",
	RunE: func(cmd *cobra.Command, args []string) error {
		store := config.DefaultStore()
		target := store.ConfigsDir()

		if path, err := store.PathByLabel(config.DefaultLabel); err == nil {
			fmt.Println("Configuration already exists at:")
			fmt.Println("  ", path)
			fmt.Println("Use `pagetidy config reset` to recreate it.")
			return nil
		}

		fmt.Println("Configuration file will be saved in:")
		fmt.Println("  ", target)
		fmt.Println()

		fmt.Println("Default configuration:")
		config.DefaultConfig().Print()
		fmt.Println()

		if !assumeYes && !confirm("Create Default config?") {
			fmt.Println("Aborted.")
			return nil
		}

		path, err := store.InitDefault()
		if err != nil && !errors.Is(err, os.ErrExist) {
			return fmt.Errorf("failed to create config: %w", err)
		}

		fmt.Println("Config created at:", path)
		fmt.Printf("This config is now active (label: %s).\n", config.DefaultLabel)

		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "don't ask for confirmation")
	configCmd.AddCommand(configInitCmd)
}
