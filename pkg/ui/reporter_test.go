package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"chanscraper/pkg/models"

	"github.com/stretchr/testify/assert"
)

func lines(buf *bytes.Buffer) []string {
	return strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
}

func TestReporterNumbered(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, Options{Numbered: true})

	task := models.ImageTask{Filename: "1.jpg", Sequence: 2}
	r.Progress(task, 5)
	r.Outcome(task, models.Outcome{Kind: models.Downloaded, Name: "1.jpg"}, 5)

	assert.Equal(t, []string{"[2/5] downloading 1.jpg", "[2/5] 1.jpg downloaded"}, lines(&buf))
}

func TestReporterNotNumbered(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, Options{})

	r.Outcome(models.ImageTask{Filename: "1.jpg", Sequence: 1}, models.Outcome{Kind: models.AggregatorMiss, Name: "1.jpg"}, 1)

	assert.Equal(t, "1.jpg not found on iqdb\n", buf.String())
}

func TestReporterQuiet(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, Options{Quiet: true, Numbered: true, Live: true})
	r.Start()

	task := models.ImageTask{Filename: "1.jpg", Sequence: 1}
	r.ThreadStarted("1 - title", 1)
	r.Progress(task, 1)
	r.Outcome(task, models.Outcome{Kind: models.Downloaded, Name: "1.jpg"}, 1)
	r.ThreadFinished(models.NewSummary("1 - title"))
	r.Stop()
	assert.Empty(t, buf.String())

	r.ThreadFailed("https://boards.example/g/thread/1", errors.New("not found"))
	assert.Contains(t, buf.String(), "not found", "thread failures are printed even when quiet")
}

func TestReporterHideExisting(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, Options{HideExisting: true})

	task := models.ImageTask{Filename: "1.jpg", Sequence: 1}
	r.Outcome(task, models.Outcome{Kind: models.AlreadyExists, Name: "1.jpg"}, 1)
	assert.Empty(t, buf.String())

	r.Outcome(task, models.Outcome{Kind: models.FetchFailedAllCandidates, Name: "1.jpg"}, 1)
	assert.Equal(t, "1.jpg could not be downloaded\n", buf.String())
}

func TestReporterColor(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, Options{Color: true})

	r.Outcome(models.ImageTask{Filename: "1.jpg", Sequence: 1}, models.Outcome{Kind: models.Downloaded, Name: "1.jpg"}, 1)
	assert.Equal(t, Green("1.jpg downloaded")+"\n", buf.String())
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, IsTerminal(&bytes.Buffer{}))
}
