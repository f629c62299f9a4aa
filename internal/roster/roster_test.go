package roster

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleWorker = `name: scribe
display_title: The Scribe
role: specialist
description: Documentation and changelog work.
skills:
  - writing
  - summarizing
`

func TestParseWorkerYAML(t *testing.T) {
	w, err := ParseWorkerYAML([]byte(sampleWorker))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if w.Name != "scribe" || w.DisplayTitle != "The Scribe" {
		t.Fatalf("unexpected worker: %+v", w)
	}
	if len(w.Skills) != 2 {
		t.Fatalf("expected 2 skills, got %d", len(w.Skills))
	}
}

func TestParseWorkerYAMLErrors(t *testing.T) {
	if _, err := ParseWorkerYAML([]byte("")); err == nil {
		t.Fatalf("expected empty payload to fail")
	}
	if _, err := ParseWorkerYAML([]byte("role: specialist\n")); err == nil {
		t.Fatalf("expected missing name to fail validation")
	}
}

func TestParseWorkerYAMLDefaultsDisplayTitle(t *testing.T) {
	w, err := ParseWorkerYAML([]byte("name: forgemaster\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if w.DisplayTitle != "forgemaster" {
		t.Fatalf("expected display title to default to name, got %q", w.DisplayTitle)
	}
}

func TestLoadDirSortsByName(t *testing.T) {
	root := t.TempDir()
	write := func(file, name string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(root, file), []byte("name: "+name+"\n"), 0644); err != nil {
			t.Fatalf("write %s: %v", file, err)
		}
	}
	write("b.yaml", "Zephyr")
	write("a.yml", "archivist")
	write("notes.txt", "ignored")

	workers, err := LoadDir(root)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(workers) != 2 {
		t.Fatalf("expected 2 workers, got %d", len(workers))
	}
	if workers[0].Name != "archivist" || workers[1].Name != "Zephyr" {
		t.Fatalf("expected case-insensitive name order, got %+v", workers)
	}
}

func TestLoadDirRejectsDuplicateNames(t *testing.T) {
	root := t.TempDir()
	for _, file := range []string{"one.yaml", "two.yaml"} {
		if err := os.WriteFile(filepath.Join(root, file), []byte("name: scribe\n"), 0644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if _, err := LoadDir(root); err == nil {
		t.Fatalf("expected duplicate worker name to fail")
	}
}

func TestLoadDirMissing(t *testing.T) {
	workers, err := LoadDir(filepath.Join(t.TempDir(), "missing"))
	if err != nil {
		t.Fatalf("missing dir should not error: %v", err)
	}
	if workers != nil {
		t.Fatalf("expected nil roster for missing dir, got %v", workers)
	}
}
