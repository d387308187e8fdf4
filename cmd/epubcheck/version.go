package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bryanwahyu/automaton-epub/internal/infra/release"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the tool and EPUBCheck versions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv(cmd)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "epubcheck %s\n", Version)
		v, err := release.JarVersion(e.cfg.EPUBCheck.JarPath())
		if err != nil {
			fmt.Fprintln(cmd.OutOrStdout(), "EPUBCheck not installed (run `epubcheck update`)")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "EPUBCheck %s\n", v)
		return nil
	},
}
