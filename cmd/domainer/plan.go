package main

import (
	"github.com/spf13/cobra"

	"domainer/internal/driver"
	"domainer/internal/plan"
)

var planCmd = &cobra.Command{
	Use:   "plan [packages...]",
	Short: "Print the mapping plans as YAML",
	Long:  `plan runs the rounds without writing anything and prints the plans, deferrals and failures of the final round.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := runDriver(cmd, args, driver.ModeCheck)
		if err != nil {
			return err
		}

		newPrinter(cmd).diagnostics(&res.Diagnostics)

		out, err := plan.ExportYAML(res.Last)
		if err != nil {
			return err
		}

		_, err = cmd.OutOrStdout().Write(out)

		return err
	},
}
