package cli

import (
	"github.com/spf13/cobra"

	"github.com/alexx-ftw/km77-scraper/internal/pipeline"
)

// sourcesCmd represents the sources command
var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Refetch raw markup for trims that are missing it",
	Long: `Sources finds every trim whose raw markup is empty, usually because a
fetch failed during a crawl, and fetches its pages again. Records are not
re-extracted; run crawl afterwards for that.`,
	Args: cobra.NoArgs,
	RunE: runSources,
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}

func runSources(cmd *cobra.Command, args []string) error {
	a := GetApp()
	p := pipeline.New(a.Store, a.Fetcher, a.Parser, a.Config.BaseURL, a.Config.FetchWorkers, *a.Logger)
	return p.RefetchMissing(cmd.Context())
}
