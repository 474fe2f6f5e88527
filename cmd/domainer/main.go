// Package main provides the CLI entrypoint for domainer.
//
// domainer generates pairs of conversion functions between annotated shape
// types and their domain types:
//   - gen writes domainer_gen.go into every package with annotated types
//   - check reports generated files that are missing or out of date
//   - plan prints the mapping plans as YAML
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "domainer",
	Short:         "Generate shape/domain conversion functions",
	Long:          `domainer reads //domainer:model directives and generates ToModel/FromModel function pairs`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		colorFlag, err := cmd.Flags().GetString("color")
		if err != nil {
			return err
		}

		switch colorFlag {
		case "auto", "on", "off":
			return nil
		default:
			return fmt.Errorf("invalid --color %q (want auto, on or off)", colorFlag)
		}
	},
}

func init() {
	rootCmd.Version = Version

	rootCmd.AddCommand(genCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("config", "", "config file (default: domainer.yaml or domainer.toml found upwards)")
	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	rootCmd.PersistentFlags().Bool("verbose", false, "log round progress")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		newPrinter(rootCmd).fatal(err)
		os.Exit(1)
	}
}
