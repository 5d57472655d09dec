// Package cli provides the command-line interface for the km77 scraper.
package cli

import (
	"github.com/alexx-ftw/km77-scraper/internal/app"
)

// Global application reference shared by all commands. Initialized lazily
// in the root command's PersistentPreRunE and cleared on shutdown.
var globalApp *app.Application

// SetApp stores the Application for commands to access.
func SetApp(a *app.Application) {
	globalApp = a
}

// GetApp retrieves the current Application.
func GetApp() *app.Application {
	return globalApp
}
