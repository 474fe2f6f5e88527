package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"domainer/internal/config"
	"domainer/internal/driver"
)

// isTerminal reports whether f is attached to a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// loadConfig reads the --config file, or discovers one from the working
// directory.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	if path != "" {
		return config.Load(path)
	}

	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting working directory: %w", err)
	}

	return config.Discover(wd)
}

// runDriver loads the config and runs the rounds in the given mode.
func runDriver(cmd *cobra.Command, args []string, mode driver.Mode) (*driver.Result, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		return nil, err
	}

	opts := driver.Options{Mode: mode, Patterns: args}
	if verbose {
		opts.Logger = log.New(cmd.ErrOrStderr(), "domainer: ", 0)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	return driver.New(cfg, opts).Run(ctx)
}
