package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"chanscraper/pkg/classifier"
	errs "chanscraper/pkg/errors"
	"chanscraper/pkg/logger"
	"chanscraper/pkg/models"
)

const (
	tempPrefix = ".chanscraper-"
	tempSuffix = ".tmp"
)

// Downloader streams the body of a URL into w
type Downloader interface {
	Download(ctx context.Context, url string, w io.Writer) (int64, error)
}

// Policy controls how images are written to one directory
type Policy struct {
	// Override re-downloads images that already have a file
	Override bool
	// StampModTime sets the mtime of written and existing files to now
	StampModTime bool
	// MinFileSize is the size a download must exceed to be kept
	MinFileSize int64
	// ReverseSearch strips the thumbnail marker from filenames
	ReverseSearch bool
}

// Manager is the download engine for one thread directory. It scans the
// directory once and keeps the listing current as files are written.
type Manager struct {
	outputDir string
	client    Downloader
	policy    Policy
	logger    logger.Logger
	now       func() time.Time

	mu    sync.RWMutex
	files []string
}

// NewManager creates the output directory if needed and indexes its files
func NewManager(outputDir string, client Downloader, policy Policy, log logger.Logger) (*Manager, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	// Create output directory if it doesn't exist
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, &errs.Error{
			Type:    errs.ErrorTypeFilesystem,
			Message: fmt.Sprintf("failed to create output directory: %v", err),
			Err:     err,
		}
	}

	manager := &Manager{
		outputDir: outputDir,
		client:    client,
		policy:    policy,
		logger:    log.WithField("directory", outputDir),
		now:       time.Now,
	}

	if err := manager.scanExistingFiles(); err != nil {
		return nil, fmt.Errorf("failed to scan existing files: %w", err)
	}

	return manager, nil
}

// scanExistingFiles reads the directory listing used by the existence check
func (m *Manager) scanExistingFiles() error {
	entries, err := os.ReadDir(m.outputDir)
	if err != nil {
		return &errs.Error{
			Type:    errs.ErrorTypeFilesystem,
			Message: fmt.Sprintf("failed to read directory: %v", err),
			Err:     err,
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || isTempFile(name) {
			continue
		}
		m.files = append(m.files, name)
	}
	return nil
}

func isTempFile(name string) bool {
	return strings.HasPrefix(name, tempPrefix) && strings.HasSuffix(name, tempSuffix)
}

// NewTask builds the task for origin. In reverse-search mode the thumbnail
// marker is removed from the filename; candidates are filled in by the caller.
func (m *Manager) NewTask(origin string, sequence int) models.ImageTask {
	filename := classifier.Basename(origin)
	if m.policy.ReverseSearch {
		filename = classifier.StripThumbnailMarker(filename)
	}
	return models.ImageTask{
		OriginLink: origin,
		Filename:   filename,
		Candidates: []string{origin},
		Sequence:   sequence,
	}
}

// Stem returns filename without its extension
func Stem(filename string) string {
	return strings.TrimSuffix(filename, path.Ext(filename))
}

// CheckExisting looks for a file whose name contains the task's stem. The match
// ignores extensions, so an image first saved under a different extension is
// still found; its real name is returned in the outcome.
func (m *Manager) CheckExisting(task models.ImageTask) (models.Outcome, bool) {
	if m.policy.Override {
		return models.Outcome{}, false
	}

	stem := Stem(task.Filename)
	if stem == "" {
		return models.Outcome{}, false
	}

	m.mu.RLock()
	var found string
	for _, name := range m.files {
		if strings.Contains(name, stem) {
			found = name
			break
		}
	}
	m.mu.RUnlock()

	if found == "" {
		return models.Outcome{}, false
	}

	outcome := models.Outcome{
		Kind: models.AlreadyExists,
		Name: found,
		Path: filepath.Join(m.outputDir, found),
	}
	m.stamp(outcome.Path)
	return outcome, true
}

// Materialize puts the image of task on disk. Candidates are tried in order;
// each is written to a temporary file in the output directory and renamed into
// place only if it is larger than the minimum size.
func (m *Manager) Materialize(ctx context.Context, task models.ImageTask) models.Outcome {
	if outcome, ok := m.CheckExisting(task); ok {
		return outcome
	}

	stem := Stem(task.Filename)
	var lastErr error

	for _, candidate := range task.Candidates {
		if err := ctx.Err(); err != nil {
			lastErr = err
			break
		}

		ext := classifier.Extension(candidate)
		if ext == "" {
			ext = path.Ext(task.Filename)
		}
		name := stem + ext
		target := filepath.Join(m.outputDir, name)

		size, err := m.downloadTo(ctx, candidate, target)
		if err != nil {
			lastErr = err
			m.logger.DebugWithFields("candidate rejected", map[string]interface{}{
				"candidate": candidate,
				"error":     err.Error(),
			})
			continue
		}

		m.addFile(name)
		m.stamp(target)
		m.logger.DebugWithFields("image saved", map[string]interface{}{
			"file": name,
			"size": size,
		})
		return models.Outcome{Kind: models.Downloaded, Name: name, Path: target}
	}

	return models.Outcome{
		Kind: models.FetchFailedAllCandidates,
		Name: task.Filename,
		Err: &errs.Error{
			Type:    errs.ErrorTypeCandidatesExhausted,
			Message: fmt.Sprintf("%d candidate(s) tried", len(task.Candidates)),
			URL:     task.OriginLink,
			Err:     lastErr,
		},
	}
}

// downloadTo streams url into a temporary file and renames it to target when
// the result is large enough. The temporary file never outlives the call.
func (m *Manager) downloadTo(ctx context.Context, url, target string) (int64, error) {
	tmp, err := os.CreateTemp(m.outputDir, tempPrefix+"*"+tempSuffix)
	if err != nil {
		return 0, &errs.Error{
			Type:    errs.ErrorTypeFilesystem,
			Message: fmt.Sprintf("failed to create temporary file: %v", err),
			Err:     err,
		}
	}
	tempPath := tmp.Name()
	defer os.Remove(tempPath) // no-op after a successful rename

	size, err := m.client.Download(ctx, url, tmp)
	closeErr := tmp.Close()
	if err != nil {
		return size, err
	}
	if closeErr != nil {
		return size, &errs.Error{
			Type:    errs.ErrorTypeFilesystem,
			Message: fmt.Sprintf("failed to close temporary file: %v", closeErr),
			Err:     closeErr,
		}
	}

	if size <= m.policy.MinFileSize {
		return size, &errs.Error{
			Type:    errs.ErrorTypeCandidatesExhausted,
			Message: fmt.Sprintf("response too small (%d bytes)", size),
			URL:     url,
		}
	}

	if err := os.Chmod(tempPath, 0644); err != nil {
		return size, &errs.Error{Type: errs.ErrorTypeFilesystem, Message: err.Error(), Err: err}
	}
	if err := os.Rename(tempPath, target); err != nil {
		return size, &errs.Error{
			Type:    errs.ErrorTypeFilesystem,
			Message: fmt.Sprintf("failed to rename temporary file: %v", err),
			Err:     err,
		}
	}
	return size, nil
}

func (m *Manager) addFile(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.files {
		if existing == name {
			return
		}
	}
	m.files = append(m.files, name)
}

// stamp sets the file's times to now so sorting by mtime follows post order
func (m *Manager) stamp(path string) {
	if !m.policy.StampModTime {
		return
	}
	now := m.now()
	if err := os.Chtimes(path, now, now); err != nil {
		m.logger.WarnWithFields("failed to update modification time", map[string]interface{}{
			"path":  path,
			"error": err.Error(),
		})
	}
}

// FileCount returns the number of files known in the directory
func (m *Manager) FileCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.files)
}
