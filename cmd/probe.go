package cmd

import (
	"fmt"
	"strings"

	"github.com/brogergvhs/pagetidy/internal/dom"

	"github.com/spf13/cobra"
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Show which locator strategy is active and the effective rule",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		cleaner, err := cfg.NewCleaner()
		if err != nil {
			return err
		}
		rule := cleaner.Rule()

		fmt.Printf("Locator:   %s (text conditions: %t)\n", cleaner.Locator().Name(), dom.SupportsTextConditions(nil))
		fmt.Printf("Primary:   %s\n", rule.Selector)

		fallback := rule.FallbackSelector()
		if fallback == "" {
			fallback = "(none)"
		}
		fmt.Printf("Fallback:  %s\n", fallback)

		if ts := cleaner.Transforms(); len(ts) > 0 {
			fmt.Printf("Transform: %s\n", strings.Join(ts, ", "))
		}

		return nil
	},
}

func init() {
	addRuleFlags(probeCmd)
	rootCmd.AddCommand(probeCmd)
}
