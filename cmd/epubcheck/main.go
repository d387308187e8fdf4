package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// Version of this tool, set at build time.
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:           "epubcheck",
	Short:         "Validate EPUB packages with EPUBCheck",
	Long:          `Runs EPUBCheck on an .epub file or an unpacked folder and lists the messages per file.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// errFindings ends the process with status 1 without printing anything more.
var errFindings = errors.New("package has errors")

func main() {
	rootCmd.Version = Version

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("config", defaultConfigPath(), "config file (.yaml or .toml)")
	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug|info|warn|error)")

	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errFindings) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}

// isTerminal checks whether f is attached to a terminal
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
