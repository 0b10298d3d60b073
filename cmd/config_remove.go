package cmd

import (
	"fmt"

	"github.com/brogergvhs/pagetidy/internal/config"

	"github.com/spf13/cobra"
)

var forceRemove bool

var configRemoveCmd = &cobra.Command{
	Use:   "remove <label>",
	Short: "Remove a config (<config_label>)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		label := args[0]
		store := config.DefaultStore()

		active, _ := store.CurrentLabel()
		if label == active && !forceRemove && !confirm(fmt.Sprintf("Config %q is currently active. Remove it anyway?", label)) {
			fmt.Println("Aborted.")
			return nil
		}

		fellBack, err := store.Remove(label)
		if err != nil {
			return err
		}

		fmt.Printf("Removed configuration %q\n", label)
		if fellBack {
			fmt.Printf("Active config is now %q\n", config.DefaultLabel)
		}
		return nil
	},
}

func init() {
	configRemoveCmd.Flags().BoolVarP(&forceRemove, "force", "f", false, "remove the active config without asking")
	configCmd.AddCommand(configRemoveCmd)
}
