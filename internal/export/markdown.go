// Package export turns a trim's stored markup into a markdown document,
// for reading a car's spec sheet outside the database.
package export

import (
	"fmt"
	"os"
	"path/filepath"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
)

// Markdown converts the raw markup of a trim page into GitHub-flavored
// markdown.
func Markdown(raw string) (string, error) {
	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.GitHubFlavored())

	out, err := converter.ConvertString(raw)
	if err != nil {
		return "", fmt.Errorf("converting markup to markdown: %w", err)
	}
	return out, nil
}

// WriteFile converts raw markup and writes the markdown next to the given
// path, creating parent directories as needed.
func WriteFile(raw, path string) error {
	out, err := Markdown(raw)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating export directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(out), 0o644); err != nil {
		return fmt.Errorf("writing markdown: %w", err)
	}
	return nil
}
