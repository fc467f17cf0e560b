package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func seedCatalogDir(t *testing.T, dir string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir catalog: %v", err)
	}
	files := map[string]string{
		"nord.json":    `{"id": "nord", "name": "Nord", "note": "cool blues"}`,
		"gruvbox.json": `{"id": "gruvbox", "name": "Gruvbox"}`,
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write descriptor: %v", err)
		}
	}
}

func TestThemesCommandListsCatalog(t *testing.T) {
	rootOpts := newTestRootOptions(t)
	seedCatalogDir(t, rootOpts.CatalogDir)

	cmd := NewThemesCommand(rootOpts)
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	if err := cmd.Execute(); err != nil {
		t.Fatalf("themes: %v", err)
	}
	output := buf.String()
	if !strings.Contains(output, "nord  Nord  (cool blues)") {
		t.Fatalf("missing annotated theme: %q", output)
	}
	if !strings.Contains(output, "gruvbox  Gruvbox") {
		t.Fatalf("missing plain theme: %q", output)
	}
}

func TestThemesCommandEmptyCatalog(t *testing.T) {
	rootOpts := newTestRootOptions(t)
	if err := os.MkdirAll(rootOpts.CatalogDir, 0o755); err != nil {
		t.Fatalf("mkdir catalog: %v", err)
	}

	cmd := NewThemesCommand(rootOpts)
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	if err := cmd.Execute(); err != nil {
		t.Fatalf("themes: %v", err)
	}
	if !strings.Contains(buf.String(), "no themes in") {
		t.Fatalf("unexpected output: %q", buf.String())
	}
}
