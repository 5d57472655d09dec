package config

import "github.com/spf13/cobra"

// RegisterFlags registers common CLI flags on the provided root command
func RegisterFlags(cmd *cobra.Command) {
	if cmd == nil {
		return
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().BoolP("quiet", "q", false, "Suppress all output except errors")
	cmd.PersistentFlags().Bool("json", false, "Output logs in JSON format")
	cmd.PersistentFlags().String("base-url", "", "Site base URL (default "+DefaultBaseURL+")")
	cmd.PersistentFlags().String("db", "", "Path to the sqlite database (default "+DefaultDBPath+")")
	cmd.PersistentFlags().String("timeout", "30s", "Hard timeout for requests")
	cmd.PersistentFlags().String("user-agent", "", "Custom user agent string")
	cmd.PersistentFlags().Int("workers", DefaultFetchWorkers, "Concurrent page fetches")
	cmd.PersistentFlags().Bool("render", false, "Fetch pages through headless Chrome")
}
