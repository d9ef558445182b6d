package jsonstore

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type document struct {
	Names []string `json:"names"`
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open(""); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.json")
	file, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if err := file.Save(document{Names: []string{"a", "b"}}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	var loaded document
	if err := file.Load(&loaded); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded.Names) != 2 || loaded.Names[1] != "b" {
		t.Fatalf("unexpected document %+v", loaded)
	}
}

func TestLoadMissingFile(t *testing.T) {
	file, err := Open(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	var doc document
	if err := file.Load(&doc); !errors.Is(err, ErrNotExist) {
		t.Fatalf("expected ErrNotExist, got %v", err)
	}
}

func TestLoadOrToleratesMissingFile(t *testing.T) {
	file, err := Open(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	doc := document{Names: []string{"keep"}}
	if err := file.LoadOr(&doc); err != nil {
		t.Fatalf("LoadOr: %v", err)
	}
	if len(doc.Names) != 1 || doc.Names[0] != "keep" {
		t.Fatalf("LoadOr must leave dest untouched, got %+v", doc)
	}
}

func TestLoadOrSurfacesDecodeErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	file, _ := Open(path)

	var doc document
	if err := file.LoadOr(&doc); err == nil {
		t.Fatal("expected decode error for corrupt document")
	}
}

func TestSaveCreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deep", "doc.json")
	file, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if err := file.Save(document{Names: []string{"x"}}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("saved file missing: %v", err)
	}
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	file, _ := Open(filepath.Join(dir, "doc.json"))

	if err := file.Save(document{}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "doc.json" {
		t.Fatalf("unexpected directory contents %v", entries)
	}
}
