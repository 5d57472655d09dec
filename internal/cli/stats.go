package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/alexx-ftw/km77-scraper/internal/ui"
)

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show database summary counts",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	a := GetApp()
	c, err := a.Store.Counts(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s  %s\n", ui.Bold("Makes:"), ui.Success(strconv.FormatInt(c.Makes, 10)))
	fmt.Fprintf(out, "%s %s\n", ui.Bold("Models:"), ui.Success(strconv.FormatInt(c.Models, 10)))
	fmt.Fprintf(out, "%s  %s\n", ui.Bold("Trims:"), ui.Success(strconv.FormatInt(c.Trims, 10)))
	fmt.Fprintf(out, "%s %s\n", ui.Bold("With records:"), ui.Stage(strconv.FormatInt(c.WithRecords, 10)))
	return nil
}
