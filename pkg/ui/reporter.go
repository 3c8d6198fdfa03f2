package ui

import (
	"fmt"
	"io"
	"os"
	"sync"

	"chanscraper/pkg/models"

	"github.com/gosuri/uilive"
)

// Options controls what the reporter prints
type Options struct {
	// Quiet suppresses per-image lines; failures of whole threads are still printed
	Quiet bool
	// Numbered prefixes image lines with "[n/total] "
	Numbered bool
	// Color enables ANSI colors
	Color bool
	// Live replaces the "downloading" line in place instead of printing it
	Live bool
	// HideExisting suppresses "already exists" lines
	HideExisting bool
}

// Reporter prints the status lines of a scrape, one per image outcome
type Reporter struct {
	out  io.Writer
	opts Options
	live *uilive.Writer
	mu   sync.Mutex
}

// New creates a reporter writing to out
func New(out io.Writer, opts Options) *Reporter {
	r := &Reporter{out: out, opts: opts}
	if opts.Live && !opts.Quiet {
		r.live = uilive.New()
		r.live.Out = out
	}
	return r
}

// NewConsole creates a reporter on stdout. Color and the live line are only
// used when stdout is a terminal.
func NewConsole(opts Options) *Reporter {
	tty := IsTerminal(os.Stdout)
	opts.Color = opts.Color && tty
	opts.Live = tty
	return New(os.Stdout, opts)
}

// Start begins refreshing the live line
func (r *Reporter) Start() {
	if r.live != nil {
		r.live.Start()
	}
}

// Stop flushes and stops the live line
func (r *Reporter) Stop() {
	if r.live != nil {
		r.live.Stop()
	}
}

// ThreadStarted prints the header of a thread
func (r *Reporter) ThreadStarted(directory string, images int) {
	if r.opts.Quiet {
		return
	}
	r.println(r.paint(Magenta, fmt.Sprintf("%s (%d images)", directory, images)))
}

// Progress shows that task is being fetched
func (r *Reporter) Progress(task models.ImageTask, total int) {
	if r.opts.Quiet {
		return
	}
	line := r.prefix(task.Sequence, total) + r.paint(Cyan, models.ProgressLine(task.Filename))

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.live != nil {
		fmt.Fprintln(r.live, line)
		return
	}
	fmt.Fprintln(r.out, line)
}

// Outcome prints the result line of task
func (r *Reporter) Outcome(task models.ImageTask, outcome models.Outcome, total int) {
	if r.opts.Quiet {
		return
	}
	if outcome.Kind == models.AlreadyExists && r.opts.HideExisting {
		return
	}

	var color func(string) string
	switch outcome.Kind {
	case models.Downloaded:
		color = Green
	case models.AlreadyExists:
		color = Dim
	case models.AggregatorMiss, models.AggregatorFoundNoLink:
		color = Yellow
	default:
		color = Red
	}
	r.println(r.prefix(task.Sequence, total) + r.paint(color, outcome.Report()))
}

// ThreadFinished prints the per-thread summary
func (r *Reporter) ThreadFinished(summary *models.Summary) {
	if r.opts.Quiet {
		return
	}
	r.println(r.paint(Dim, summary.String()))
}

// ThreadFailed reports a thread whose page could not be fetched
func (r *Reporter) ThreadFailed(url string, err error) {
	r.println(r.paint(Red, fmt.Sprintf("%s: %v", url, err)))
}

// ThreadDropped reports a thread removed from the registry
func (r *Reporter) ThreadDropped(url string) {
	r.println(r.paint(Yellow, url+" removed from registry"))
}

func (r *Reporter) prefix(sequence, total int) string {
	if !r.opts.Numbered {
		return ""
	}
	return fmt.Sprintf("[%d/%d] ", sequence, total)
}

func (r *Reporter) paint(color func(string) string, text string) string {
	if !r.opts.Color {
		return text
	}
	return color(text)
}

// println writes a permanent line, above the live line when there is one
func (r *Reporter) println(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.live != nil {
		fmt.Fprintln(r.live.Newline(), line)
		return
	}
	fmt.Fprintln(r.out, line)
}
