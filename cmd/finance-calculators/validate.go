package main

import (
	"fmt"

	"github.com/iwvelando/finance-calculators/internal/definition"
	"github.com/spf13/cobra"
)

func newValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [paths...]",
		Short: "Load and compile calculator definitions",
		Long: `Load every definition file below the given paths (or the configured
definitions paths) and compile it. Any parse, type or ordering error fails
the whole set. Paths given as arguments must exist; missing configured
paths are skipped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			paths := args
			if len(paths) == 0 {
				paths = a.conf.Definitions.Paths
			} else if err := definition.CheckPaths(paths...); err != nil {
				return err
			}

			registry, err := definition.LoadFiles(a.logger, paths...)
			if err != nil {
				return err
			}
			if registry.Len() == 0 {
				return fmt.Errorf("no calculator definitions found in %v", paths)
			}

			out := cmd.OutOrStdout()
			for _, slug := range registry.Slugs() {
				if _, err := fmt.Fprintf(out, "ok  %s (%s)\n", slug, registry.Source(slug)); err != nil {
					return err
				}
			}
			_, err = fmt.Fprintf(out, "%d calculators valid\n", registry.Len())
			return err
		},
	}
}
