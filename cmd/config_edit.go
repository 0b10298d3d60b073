package cmd

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/brogergvhs/pagetidy/internal/config"

	"github.com/spf13/cobra"
)

var configEditCmd = &cobra.Command{
	Use:   "edit [label]",
	Short: "Open the active or the given config in $EDITOR",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store := config.DefaultStore()

		label := ""
		if len(args) == 1 {
			label = args[0]
		} else {
			var err error
			if label, err = store.CurrentLabel(); err != nil {
				return fmt.Errorf("failed to get current config label: %w", err)
			}
		}

		path, err := store.PathByLabel(label)
		if err != nil {
			return fmt.Errorf("failed to get config path: %w", err)
		}

		editor := os.Getenv("EDITOR")
		if editor == "" {
			editor = "nvim"
		}

		cmdExec := exec.Command(editor, path)
		cmdExec.Stdin = os.Stdin
		cmdExec.Stdout = os.Stdout
		cmdExec.Stderr = os.Stderr

		if err := cmdExec.Run(); err != nil {
			return fmt.Errorf("failed to open editor %q: %w", editor, err)
		}

		return nil
	},
}

func init() {
	configCmd.AddCommand(configEditCmd)
}
