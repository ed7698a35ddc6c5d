package importer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/hyperjump/foundermatch/internal/storage"
)

const yamlCorpus = `
startups:
  - id: a1
    title: AgroTech
    description: Smart farming with IoT sensors
    industry: Agriculture
  - id: a2
    title: SoilSense
    description: Soil sensors for farmers
    industry: Agriculture
`

const jsonCorpus = `[{"id": "h1", "title": "MediConnect", "description": "Telemedicine for rural clinics", "industry": "Healthcare"}]`

func setup(t *testing.T) (*Importer, *storage.SQLiteStorage, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewSQLiteStorage(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })
	corpusDir := filepath.Join(dir, "corpus")
	if err := os.MkdirAll(corpusDir, 0755); err != nil {
		t.Fatal(err)
	}
	return New(store), store, corpusDir
}

func write(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestImporter_ImportFile(t *testing.T) {
	im, store, dir := setup(t)
	ctx := context.Background()
	path := filepath.Join(dir, "startups.yaml")
	write(t, path, yamlCorpus)

	n, err := im.ImportFile(ctx, path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("imported %d, want 2", n)
	}
	got, err := store.GetStartup(ctx, "a1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Source != path {
		t.Errorf("source = %q, want %q", got.Source, path)
	}

	// Re-importing a shrunk file drops the startups that disappeared.
	write(t, path, "- id: a2\n  title: SoilSense\n  description: Soil sensors\n  industry: Agriculture\n")
	if _, err := im.ImportFile(ctx, path, nil); err != nil {
		t.Fatal(err)
	}
	count, _ := store.CountStartups(ctx)
	if count != 1 {
		t.Errorf("count after re-import = %d, want 1", count)
	}
}

func TestImporter_ImportFileRejects(t *testing.T) {
	im, _, dir := setup(t)
	ctx := context.Background()

	csv := filepath.Join(dir, "startups.csv")
	write(t, csv, "id,title")
	if _, err := im.ImportFile(ctx, csv, nil); err == nil {
		t.Error("expected error for unsupported extension")
	}

	js := filepath.Join(dir, "startups.json")
	write(t, js, jsonCorpus)
	if _, err := im.ImportFile(ctx, js, []string{"yaml"}); err == nil {
		t.Error("expected error for extension outside the allowed list")
	}
	if _, err := im.ImportFile(ctx, filepath.Join(dir, "missing.json"), nil); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := im.ImportFile(ctx, dir, nil); err == nil {
		t.Error("expected error for directory")
	}
}

func TestImporter_ImportDirectoryAndRemove(t *testing.T) {
	im, store, dir := setup(t)
	ctx := context.Background()
	write(t, filepath.Join(dir, "agri.yaml"), yamlCorpus)
	if err := os.MkdirAll(filepath.Join(dir, "health"), 0755); err != nil {
		t.Fatal(err)
	}
	write(t, filepath.Join(dir, "health", "health.json"), jsonCorpus)
	write(t, filepath.Join(dir, "notes.txt"), "not a corpus file")
	if err := os.MkdirAll(filepath.Join(dir, ".hidden"), 0755); err != nil {
		t.Fatal(err)
	}
	write(t, filepath.Join(dir, ".hidden", "skip.json"), `[{"id": "x", "title": "X", "description": "X", "industry": "X"}]`)

	files, startups, err := im.ImportDirectory(ctx, dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	if files != 2 || startups != 3 {
		t.Errorf("files=%d startups=%d, want 2 and 3", files, startups)
	}

	files, _, err = im.ImportDirectory(ctx, dir, []string{".json"})
	if err != nil {
		t.Fatal(err)
	}
	if files != 1 {
		t.Errorf("json-only files = %d, want 1", files)
	}

	removed, err := im.RemoveFile(ctx, filepath.Join(dir, "agri.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if removed != 2 {
		t.Errorf("removed = %d, want 2", removed)
	}
	count, _ := store.CountStartups(ctx)
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}

	if _, _, err := im.ImportDirectory(ctx, filepath.Join(dir, "agri.yaml"), nil); err == nil {
		t.Error("expected error when importing a file as a directory")
	}
}

func TestExtensionAllowed(t *testing.T) {
	tests := []struct {
		path    string
		allowed []string
		want    bool
	}{
		{"a.json", []string{"json"}, true},
		{"a.JSON", []string{".json"}, true},
		{"a.yaml", []string{"json", "yml"}, false},
		{"a", []string{"json"}, false},
	}
	for _, tt := range tests {
		if got := ExtensionAllowed(tt.path, tt.allowed); got != tt.want {
			t.Errorf("ExtensionAllowed(%q, %v) = %v, want %v", tt.path, tt.allowed, got, tt.want)
		}
	}
}
