package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/alexx-ftw/km77-scraper/internal/export"
	"github.com/alexx-ftw/km77-scraper/internal/store"
)

var exportOutput string

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export <trim-id>",
	Short: "Write a trim's stored markup as a markdown document",
	Example: `  # Print trim 42 as markdown
  km77 export 42

  # Write it to a file
  km77 export 42 -o ibiza-fr.md`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "File path to write markdown to (default stdout)")
}

func runExport(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid trim id %q", args[0])
	}

	a := GetApp()
	raw, err := a.Store.ReadRaw(cmd.Context(), store.KindTrim, id)
	if err != nil {
		return err
	}
	if raw == "" {
		return fmt.Errorf("trim %d has no stored markup; run crawl or sources first", id)
	}

	if exportOutput != "" {
		return export.WriteFile(raw, exportOutput)
	}

	out, err := export.Markdown(raw)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}
