package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	errs "chanscraper/pkg/errors"
	"chanscraper/pkg/logger"
	"chanscraper/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubResponse struct {
	body []byte
	err  error
}

type stubDownloader struct {
	responses map[string]stubResponse
	requested []string
}

func (s *stubDownloader) Download(ctx context.Context, url string, w io.Writer) (int64, error) {
	s.requested = append(s.requested, url)
	resp, ok := s.responses[url]
	if !ok {
		return 0, errs.HTTPStatus(url, http.StatusNotFound)
	}
	n, err := w.Write(resp.body)
	if err != nil {
		return int64(n), err
	}
	return int64(n), resp.err
}

func image(size int) []byte {
	return bytes.Repeat([]byte{0x89}, size)
}

func newTestManager(t *testing.T, dir string, client Downloader, policy Policy) *Manager {
	t.Helper()
	if policy.MinFileSize == 0 {
		policy.MinFileSize = 1000
	}
	manager, err := NewManager(dir, client, policy, logger.NewNopLogger())
	require.NoError(t, err)
	return manager
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestMaterializeDirect(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "1234 - Desk")
	client := &stubDownloader{responses: map[string]stubResponse{
		"https://i.example.org/g/1700000000001.png": {body: image(4096)},
	}}
	manager := newTestManager(t, dir, client, Policy{})

	outcome := manager.Materialize(context.Background(), manager.NewTask("https://i.example.org/g/1700000000001.png", 1))

	assert.Equal(t, models.Downloaded, outcome.Kind)
	assert.Equal(t, "1700000000001.png", outcome.Name)
	assert.Equal(t, filepath.Join(dir, "1700000000001.png"), outcome.Path)

	content, err := os.ReadFile(outcome.Path)
	require.NoError(t, err)
	assert.Len(t, content, 4096)
	assert.Equal(t, []string{"1700000000001.png"}, listDir(t, dir), "no temporary file is left behind")
}

func TestMaterializeAlreadyExists(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "1700000000001.png"), image(2000), 0644))

	client := &stubDownloader{}
	manager := newTestManager(t, dir, client, Policy{})

	// the listed extension differs; the match is on the name without extension
	outcome := manager.Materialize(context.Background(), manager.NewTask("https://i.example.org/g/1700000000001.jpg", 1))

	assert.Equal(t, models.AlreadyExists, outcome.Kind)
	assert.Equal(t, filepath.Join(dir, "1700000000001.png"), outcome.Path)
	assert.Empty(t, client.requested, "no request is made for an existing image")
}

func TestMaterializeOverride(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "1.jpg"), image(2000), 0644))

	client := &stubDownloader{responses: map[string]stubResponse{
		"https://i.example.org/g/1.jpg": {body: image(3000)},
	}}
	manager := newTestManager(t, dir, client, Policy{Override: true})

	outcome := manager.Materialize(context.Background(), manager.NewTask("https://i.example.org/g/1.jpg", 1))
	require.Equal(t, models.Downloaded, outcome.Kind)

	info, err := os.Stat(outcome.Path)
	require.NoError(t, err)
	assert.Equal(t, int64(3000), info.Size())
}

func TestMaterializeShortResponseKeepsPreviousFile(t *testing.T) {
	dir := t.TempDir()
	previous := image(2500)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "1.jpg"), previous, 0644))

	client := &stubDownloader{responses: map[string]stubResponse{
		"https://i.example.org/g/1.jpg": {body: image(500)},
	}}
	manager := newTestManager(t, dir, client, Policy{Override: true})

	outcome := manager.Materialize(context.Background(), manager.NewTask("https://i.example.org/g/1.jpg", 1))

	assert.Equal(t, models.FetchFailedAllCandidates, outcome.Kind)
	assert.Equal(t, errs.ErrorTypeCandidatesExhausted, errs.TypeOf(outcome.Err))

	content, err := os.ReadFile(filepath.Join(dir, "1.jpg"))
	require.NoError(t, err)
	assert.Equal(t, previous, content, "the valid file is untouched")
	assert.Equal(t, []string{"1.jpg"}, listDir(t, dir))
}

func TestMaterializeShortResponseWritesNothing(t *testing.T) {
	dir := t.TempDir()
	client := &stubDownloader{responses: map[string]stubResponse{
		"https://i.example.org/g/1.jpg": {body: image(1000)},
	}}
	manager := newTestManager(t, dir, client, Policy{})

	outcome := manager.Materialize(context.Background(), manager.NewTask("https://i.example.org/g/1.jpg", 1))

	assert.Equal(t, models.FetchFailedAllCandidates, outcome.Kind, "exactly the minimum size is rejected")
	assert.Empty(t, listDir(t, dir))
}

func TestMaterializePartialWrite(t *testing.T) {
	dir := t.TempDir()
	client := &stubDownloader{responses: map[string]stubResponse{
		"https://i.example.org/g/1.jpg": {body: image(5000), err: errs.Unreachable("https://i.example.org/g/1.jpg", io.ErrUnexpectedEOF)},
	}}
	manager := newTestManager(t, dir, client, Policy{})

	outcome := manager.Materialize(context.Background(), manager.NewTask("https://i.example.org/g/1.jpg", 1))

	assert.Equal(t, models.FetchFailedAllCandidates, outcome.Kind)
	assert.ErrorIs(t, outcome.Err, io.ErrUnexpectedEOF)
	assert.Empty(t, listDir(t, dir), "a truncated body never takes the final name")
}

func TestMaterializeFallbackCandidates(t *testing.T) {
	dir := t.TempDir()
	client := &stubDownloader{responses: map[string]stubResponse{
		"https://booru-a.example/sample/abc.jpg": {body: image(200)},
		"https://cdn-b.example/full/abc.png":     {body: image(8000)},
		"https://cdn-c.example/abc.gif":          {body: image(9000)},
	}}
	manager := newTestManager(t, dir, client, Policy{ReverseSearch: true})

	task := manager.NewTask("https://archive.example.net/g/thumb/1700/00/1700000000003s.jpg", 3)
	assert.Equal(t, "1700000000003.jpg", task.Filename)

	task.Candidates = []string{
		"https://gone.example/abc.jpg",
		"https://booru-a.example/sample/abc.jpg",
		"https://cdn-b.example/full/abc.png",
		"https://cdn-c.example/abc.gif",
	}
	outcome := manager.Materialize(context.Background(), task)

	assert.Equal(t, models.Downloaded, outcome.Kind)
	assert.Equal(t, "1700000000003.png", outcome.Name, "the extension comes from the accepted candidate")
	assert.Equal(t, task.Candidates[:3], client.requested, "iteration stops at the first accepted candidate")
	assert.Equal(t, []string{"1700000000003.png"}, listDir(t, dir))
}

func TestMaterializeExtensionFallback(t *testing.T) {
	dir := t.TempDir()
	client := &stubDownloader{responses: map[string]stubResponse{
		"https://booru.example/posts/42/download": {body: image(4000)},
	}}
	manager := newTestManager(t, dir, client, Policy{})

	task := manager.NewTask("https://i.example.org/g/77.webm", 1)
	task.Candidates = []string{"https://booru.example/posts/42/download"}
	outcome := manager.Materialize(context.Background(), task)

	require.Equal(t, models.Downloaded, outcome.Kind)
	assert.Equal(t, "77.webm", outcome.Name)
}

func TestNewTaskReverseSearch(t *testing.T) {
	direct := newTestManager(t, t.TempDir(), &stubDownloader{}, Policy{})
	reverse := newTestManager(t, t.TempDir(), &stubDownloader{}, Policy{ReverseSearch: true})

	link := "https://archive.example.net/g/thumb/1700/00/1700000000003s.jpg"
	assert.Equal(t, "1700000000003s.jpg", direct.NewTask(link, 1).Filename)
	assert.Equal(t, "1700000000003.jpg", reverse.NewTask(link, 1).Filename)
	assert.Equal(t, []string{link}, reverse.NewTask(link, 1).Candidates)
}

func TestCheckExistingAfterDownload(t *testing.T) {
	dir := t.TempDir()
	client := &stubDownloader{responses: map[string]stubResponse{
		"https://i.example.org/g/5.jpg": {body: image(2000)},
	}}
	manager := newTestManager(t, dir, client, Policy{})
	task := manager.NewTask("https://i.example.org/g/5.jpg", 1)

	_, ok := manager.CheckExisting(task)
	assert.False(t, ok)

	require.Equal(t, models.Downloaded, manager.Materialize(context.Background(), task).Kind)

	outcome, ok := manager.CheckExisting(task)
	assert.True(t, ok, "the listing is updated after each write")
	assert.Equal(t, "5.jpg", outcome.Name)
}

func TestScanSkipsTemporaryFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".chanscraper-123.tmp"), image(10), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "9.jpg"), image(10), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0755))

	manager := newTestManager(t, dir, &stubDownloader{}, Policy{})
	assert.Equal(t, 1, manager.FileCount())
}

func TestStampModTime(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "1.jpg")
	require.NoError(t, os.WriteFile(existing, image(2000), 0644))
	old := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, os.Chtimes(existing, old, old))

	client := &stubDownloader{responses: map[string]stubResponse{
		"https://i.example.org/g/2.jpg": {body: image(2000)},
	}}
	manager := newTestManager(t, dir, client, Policy{StampModTime: true})
	stampTime := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	manager.now = func() time.Time { return stampTime }

	outcome := manager.Materialize(context.Background(), manager.NewTask("https://i.example.org/g/1.jpg", 1))
	require.Equal(t, models.AlreadyExists, outcome.Kind)
	info, err := os.Stat(existing)
	require.NoError(t, err)
	assert.True(t, info.ModTime().Equal(stampTime), "existing files are stamped too")

	outcome = manager.Materialize(context.Background(), manager.NewTask("https://i.example.org/g/2.jpg", 2))
	require.Equal(t, models.Downloaded, outcome.Kind)
	info, err = os.Stat(outcome.Path)
	require.NoError(t, err)
	assert.True(t, info.ModTime().Equal(stampTime))
}

func TestMaterializeCancelled(t *testing.T) {
	client := &stubDownloader{}
	manager := newTestManager(t, t.TempDir(), client, Policy{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcome := manager.Materialize(ctx, manager.NewTask("https://i.example.org/g/1.jpg", 1))

	assert.Equal(t, models.FetchFailedAllCandidates, outcome.Kind)
	assert.True(t, errors.Is(outcome.Err, context.Canceled))
	assert.Empty(t, client.requested)
}
