package registry

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"chanscraper/pkg/logger"
	"chanscraper/pkg/models"
)

// separator between url and name; fields are not escaped, so neither may contain it
const separator = ";"

// Registry is the watch-list of threads kept in a text file, one "url;name" per line
type Registry struct {
	path   string
	logger logger.Logger
}

// New creates a registry backed by path
func New(path string, log logger.Logger) *Registry {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Registry{
		path:   path,
		logger: log.WithField("registry", path),
	}
}

// Path returns the backing file
func (r *Registry) Path() string {
	return r.path
}

// Load reads every entry in file order. A missing file is created empty.
func (r *Registry) Load() ([]models.RegistryEntry, error) {
	file, err := os.Open(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			if err := r.Save(nil); err != nil {
				return nil, err
			}
			r.logger.Debug("registry created")
			return []models.RegistryEntry{}, nil
		}
		return nil, fmt.Errorf("failed to open registry: %w", err)
	}
	defer file.Close()

	entries := []models.RegistryEntry{}
	scanner := bufio.NewScanner(file)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		url, name, ok := strings.Cut(line, separator)
		if !ok {
			r.logger.WarnWithFields("skipping malformed registry line", map[string]interface{}{
				"line": lineNo,
			})
			continue
		}
		entries = append(entries, models.RegistryEntry{URL: url, Name: name})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read registry: %w", err)
	}

	r.logger.DebugWithFields("registry loaded", map[string]interface{}{
		"entries": len(entries),
	})
	return entries, nil
}

// Save replaces the whole file with entries. The new content is written to a
// temporary file next to the registry and renamed over it, so an interrupted
// save leaves the previous file intact. Edits made to the file by another
// process since Load are lost.
func (r *Registry) Save(entries []models.RegistryEntry) error {
	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create registry directory: %w", err)
	}

	file, err := os.CreateTemp(dir, ".threads-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary registry file: %w", err)
	}
	tempPath := file.Name()

	w := bufio.NewWriter(file)
	for _, entry := range entries {
		if _, err := w.WriteString(entry.String() + "\n"); err != nil {
			file.Close()
			os.Remove(tempPath)
			return fmt.Errorf("failed to write registry: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to write registry: %w", err)
	}

	// Ensure data is written to disk
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync registry file: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close registry file: %w", err)
	}
	if err := os.Chmod(tempPath, 0644); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to set registry permissions: %w", err)
	}

	if err := os.Rename(tempPath, r.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace registry file: %w", err)
	}

	r.logger.DebugWithFields("registry saved", map[string]interface{}{
		"entries": len(entries),
	})
	return nil
}

// Upsert appends entry and drops exact duplicates, keeping first-seen order.
// Entries are compared as whole (url, name) pairs, so the same url under a new
// name is kept twice.
func Upsert(entries []models.RegistryEntry, entry models.RegistryEntry) []models.RegistryEntry {
	return Dedup(append(entries, entry))
}

// Dedup removes repeated (url, name) pairs
func Dedup(entries []models.RegistryEntry) []models.RegistryEntry {
	seen := make(map[models.RegistryEntry]struct{}, len(entries))
	out := make([]models.RegistryEntry, 0, len(entries))
	for _, entry := range entries {
		if _, ok := seen[entry]; ok {
			continue
		}
		seen[entry] = struct{}{}
		out = append(out, entry)
	}
	return out
}

// Remove drops every entry for url
func Remove(entries []models.RegistryEntry, url string) []models.RegistryEntry {
	out := make([]models.RegistryEntry, 0, len(entries))
	for _, entry := range entries {
		if entry.URL != url {
			out = append(out, entry)
		}
	}
	return out
}
