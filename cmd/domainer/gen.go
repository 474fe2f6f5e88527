package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"domainer/internal/driver"
	"domainer/internal/gen"
)

var genDepfile string

func init() {
	genCmd.Flags().StringVar(&genDepfile, "depfile", "", "write a make-style dependency file")
}

var genCmd = &cobra.Command{
	Use:   "gen [packages...]",
	Short: "Generate conversion functions",
	Long:  `gen writes the generated file into every package that declares //domainer:model types. Packages default to the configured ones.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		p := newPrinter(cmd)

		res, err := runDriver(cmd, args, driver.ModeWrite)
		if err != nil {
			return err
		}

		p.diagnostics(&res.Diagnostics)

		if genDepfile != "" {
			if err := writeDepfile(genDepfile, res.Units); err != nil {
				return err
			}
		}

		for _, path := range res.Written {
			p.status("wrote %s", path)
		}

		for _, path := range res.Removed {
			p.status("removed %s", path)
		}

		if res.Diagnostics.HasErrors() {
			return fmt.Errorf("%d declaration errors", len(res.Diagnostics.Errors))
		}

		p.status("%d units in %d rounds (%d unchanged)", len(res.Units), res.Rounds, len(res.Unchanged))

		return nil
	},
}

func writeDepfile(path string, units []*gen.Unit) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating depfile: %w", err)
	}

	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing depfile: %w", cerr)
		}
	}()

	return gen.WriteDepfile(f, units)
}
