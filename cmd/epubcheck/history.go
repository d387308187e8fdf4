package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/bryanwahyu/automaton-epub/internal/domain/checks"
	"github.com/bryanwahyu/automaton-epub/internal/infra/db/sqlite"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent local checks",
	Args:  cobra.NoArgs,
	RunE:  historyExecution,
}

func init() {
	historyCmd.Flags().Int("limit", 20, "number of checks to list")
}

func historyExecution(cmd *cobra.Command, args []string) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	limit, _ := cmd.Flags().GetInt("limit")

	db, err := sqlite.Open(cmd.Context(), e.cfg.EPUBCheck.HistoryPath())
	if err != nil {
		return err
	}
	defer db.Close()

	list, err := sqlite.Repositories(db).Checks.Latest(cmd.Context(), "", limit)
	if err != nil {
		return err
	}
	return printHistory(os.Stdout, list)
}

func printHistory(w io.Writer, list []*checks.Check) error {
	if len(list) == 0 {
		_, err := fmt.Fprintln(w, "No checks yet.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "WHEN\tPACKAGE\tSTATUS\tERRORS\tWARNINGS\tEPUBCHECK")
	for _, c := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\n",
			c.TriggeredAt.Local().Format("2006-01-02 15:04"), c.Package, c.Status,
			c.Counts.Error+c.Counts.Fatal, c.Counts.Warning, c.EPUBCheckVersion)
	}
	return tw.Flush()
}
