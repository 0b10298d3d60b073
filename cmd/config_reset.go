package cmd

import (
	"fmt"

	"github.com/brogergvhs/pagetidy/internal/config"

	"github.com/spf13/cobra"
)

var configResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset the active config to default values",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.DefaultStore().Reset()
		if err != nil {
			return err
		}

		fmt.Printf("Reset active config: %s\n", path)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configResetCmd)
}
