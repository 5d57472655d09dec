package cli

import (
	"github.com/spf13/cobra"

	"github.com/alexx-ftw/km77-scraper/internal/pipeline"
)

// crawlCmd represents the crawl command
var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Run the full crawl: makes, models, trims, specs and options",
	Long: `Crawl walks the site top-down: the brand index, each make's model
listing, each model's trim listing, and finally every trim's specification
and equipment pages. Everything already in the database is skipped, so an
interrupted crawl resumes where it stopped.`,
	Example: `  # Full crawl into the default database
  km77 crawl

  # Crawl into a specific database with more parallel fetches
  km77 crawl --db cars.db --workers 8

  # Crawl through headless Chrome
  km77 crawl --render`,
	Args: cobra.NoArgs,
	RunE: runCrawl,
}

func init() {
	rootCmd.AddCommand(crawlCmd)
}

func runCrawl(cmd *cobra.Command, args []string) error {
	a := GetApp()
	p := pipeline.New(a.Store, a.Fetcher, a.Parser, a.Config.BaseURL, a.Config.FetchWorkers, *a.Logger)
	return p.Run(cmd.Context())
}
