package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestMarkdown(t *testing.T) {
	raw := `<html><body>
		<h2>Motor</h2>
		<table>
			<tr><th>Potencia máxima</th><td>150 CV / 110 kW</td></tr>
		</table>
	</body></html>`

	out, err := Markdown(raw)
	if err != nil {
		t.Fatalf("Markdown() error = %v", err)
	}
	if !strings.Contains(out, "## Motor") {
		t.Errorf("Markdown() = %q, want a Motor heading", out)
	}
	if !strings.Contains(out, "Potencia máxima") {
		t.Errorf("Markdown() = %q, want the table content preserved", out)
	}
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exports", "trim.md")
	if err := WriteFile("<h1>Ibiza</h1>", path); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(data), "# Ibiza") {
		t.Errorf("exported file = %q, want an Ibiza heading", data)
	}
}
