package registry

import (
	"os"
	"path/filepath"
	"testing"

	"chanscraper/pkg/logger"
	"chanscraper/pkg/models"
)

func TestLoadMissingFileCreatesIt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "threads.txt")
	reg := New(path, logger.NewNopLogger())

	entries, err := reg.Load()
	if err != nil {
		t.Fatalf("Failed to load registry: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Expected empty registry, got %d entries", len(entries))
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Expected registry file to be created: %v", err)
	}
	if info.Size() != 0 {
		t.Errorf("Expected empty file, got %d bytes", info.Size())
	}
}

func TestRoundTrip(t *testing.T) {
	original := "https://boards.example/g/thread/1;1\n" +
		"https://boards.example/wg/thread/22;Wallpapers\n" +
		"https://archive.example.net/g/thread/333/;333\n"

	path := filepath.Join(t.TempDir(), "threads.txt")
	if err := os.WriteFile(path, []byte(original), 0644); err != nil {
		t.Fatal(err)
	}

	reg := New(path, logger.NewNopLogger())
	entries, err := reg.Load()
	if err != nil {
		t.Fatalf("Failed to load registry: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(entries))
	}
	if entries[1].Name != "Wallpapers" {
		t.Errorf("Expected second name Wallpapers, got %s", entries[1].Name)
	}

	if err := reg.Save(entries); err != nil {
		t.Fatalf("Failed to save registry: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(content) != original {
		t.Errorf("Round trip changed the file:\n%q\nwant\n%q", content, original)
	}
}

func TestLoadToleratesBlankAndMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "threads.txt")
	content := "https://boards.example/g/thread/1;1\r\n\nnot a record\nhttps://boards.example/g/thread/2;a;b\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	log := logger.NewTestLogger()
	entries, err := New(path, log).Load()
	if err != nil {
		t.Fatalf("Failed to load registry: %v", err)
	}

	want := []models.RegistryEntry{
		{URL: "https://boards.example/g/thread/1", Name: "1"},
		{URL: "https://boards.example/g/thread/2", Name: "a;b"},
	}
	if len(entries) != len(want) {
		t.Fatalf("Expected %d entries, got %d: %v", len(want), len(entries), entries)
	}
	for i := range want {
		if entries[i] != want[i] {
			t.Errorf("Entry %d: expected %v, got %v", i, want[i], entries[i])
		}
	}
	if !log.HasMessage("skipping malformed registry line") {
		t.Error("Expected malformed line to be logged")
	}
}

func TestSaveOverwritesAndLeavesNoTemporaryFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "threads.txt")
	reg := New(path, logger.NewNopLogger())

	if err := reg.Save([]models.RegistryEntry{{URL: "a", Name: "1"}, {URL: "b", Name: "2"}}); err != nil {
		t.Fatal(err)
	}
	if err := reg.Save([]models.RegistryEntry{{URL: "b", Name: "2"}}); err != nil {
		t.Fatal(err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(content) != "b;2\n" {
		t.Errorf("Expected full overwrite, got %q", content)
	}

	files, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 {
		t.Errorf("Expected only the registry file, got %d files", len(files))
	}
}

func TestUpsert(t *testing.T) {
	entries := []models.RegistryEntry{{URL: "a", Name: "1"}, {URL: "b", Name: "2"}}

	entries = Upsert(entries, models.RegistryEntry{URL: "a", Name: "1"})
	if len(entries) != 2 {
		t.Errorf("Expected exact duplicate to be dropped, got %v", entries)
	}

	entries = Upsert(entries, models.RegistryEntry{URL: "a", Name: "renamed"})
	if len(entries) != 3 {
		t.Errorf("Expected same url under a new name to be kept, got %v", entries)
	}
	if entries[0] != (models.RegistryEntry{URL: "a", Name: "1"}) || entries[2].Name != "renamed" {
		t.Errorf("Expected first-seen order, got %v", entries)
	}
}

func TestRemove(t *testing.T) {
	entries := []models.RegistryEntry{{URL: "a", Name: "1"}, {URL: "b", Name: "2"}, {URL: "a", Name: "x"}}

	entries = Remove(entries, "a")
	if len(entries) != 1 || entries[0].URL != "b" {
		t.Errorf("Expected only b to remain, got %v", entries)
	}
}
