package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"domainer/internal/driver"
)

var checkCmd = &cobra.Command{
	Use:   "check [packages...]",
	Short: "Report generated files that are missing or out of date",
	RunE: func(cmd *cobra.Command, args []string) error {
		p := newPrinter(cmd)

		res, err := runDriver(cmd, args, driver.ModeCheck)
		if err != nil {
			return err
		}

		p.diagnostics(&res.Diagnostics)

		for _, path := range res.Stale {
			fmt.Fprintln(cmd.OutOrStdout(), path)
		}

		switch {
		case res.Diagnostics.HasErrors():
			return fmt.Errorf("%d declaration errors", len(res.Diagnostics.Errors))
		case len(res.Stale) > 0:
			return fmt.Errorf("%d generated files are stale", len(res.Stale))
		}

		p.status("%d units up to date", len(res.Units))

		return nil
	},
}
