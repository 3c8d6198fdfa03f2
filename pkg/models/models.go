package models

import (
	"fmt"
	"strings"
)

// DownloadRequest is a fresh scrape of one thread
type DownloadRequest struct {
	URL string
	// Directory overrides the derived directory name
	Directory string
	// Name overrides the display name stored in the registry
	Name         string
	Iqdb         bool
	Override     bool
	Quiet        bool
	Numbered     bool
	StampModTime bool
}

// UpdateRequest re-synchronizes every thread of the registry
type UpdateRequest struct {
	Iqdb          bool
	Override      bool
	Quiet         bool
	Numbered      bool
	StampModTime  bool
	PrintExisting bool
}

// ThreadTarget is one unit of work, fixed for the duration of one scrape pass
type ThreadTarget struct {
	SourceURL        string
	ThreadID         string
	DirectoryName    string
	DisplayName      string
	UseReverseSearch bool
	OverrideExisting bool
	StampModTime     bool
}

// ImageTask is one image to resolve and persist
type ImageTask struct {
	// OriginLink is the classified link the task was created from
	OriginLink string
	// Filename is the basename of OriginLink, with the thumbnail marker removed in reverse-search mode
	Filename string
	// Candidates are tried in order; direct mode has exactly one
	Candidates []string
	// Sequence is 1-based
	Sequence int
}

// RegistryEntry is one line of the thread registry
type RegistryEntry struct {
	URL  string
	Name string
}

func (e RegistryEntry) String() string {
	return e.URL + ";" + e.Name
}

// OutcomeKind enumerates the ways materializing an image can end
type OutcomeKind int

const (
	AlreadyExists OutcomeKind = iota
	Downloaded
	AggregatorMiss
	AggregatorFoundNoLink
	FetchFailedAllCandidates
)

var outcomeNames = map[OutcomeKind]string{
	AlreadyExists:            "already_exists",
	Downloaded:               "downloaded",
	AggregatorMiss:           "aggregator_miss",
	AggregatorFoundNoLink:    "aggregator_found_no_link",
	FetchFailedAllCandidates: "fetch_failed_all_candidates",
}

// OutcomeKinds lists every kind in report order
var OutcomeKinds = []OutcomeKind{AlreadyExists, Downloaded, AggregatorMiss, AggregatorFoundNoLink, FetchFailedAllCandidates}

func (k OutcomeKind) String() string {
	if name, ok := outcomeNames[k]; ok {
		return name
	}
	return fmt.Sprintf("outcome(%d)", int(k))
}

// Outcome is the result of materializing one ImageTask
type Outcome struct {
	Kind OutcomeKind
	// Name is the filename shown to the user
	Name string
	// Path is set for AlreadyExists and Downloaded
	Path string
	// Err holds the last failure for the unsuccessful kinds, if any
	Err error
}

// Report returns the single status line for the outcome
func (o Outcome) Report() string {
	switch o.Kind {
	case AlreadyExists:
		return o.Name + " already exists"
	case Downloaded:
		return o.Name + " downloaded"
	case AggregatorMiss:
		return o.Name + " not found on iqdb"
	case AggregatorFoundNoLink:
		return o.Name + " found on iqdb but no downloadable link"
	case FetchFailedAllCandidates:
		return o.Name + " could not be downloaded"
	default:
		panic(fmt.Sprintf("unhandled outcome kind %d", int(o.Kind)))
	}
}

// ProgressLine is shown while the image is being fetched
func ProgressLine(name string) string {
	return "downloading " + name
}

// Summary counts the outcomes of one thread
type Summary struct {
	Thread string
	Counts map[OutcomeKind]int
}

// NewSummary creates an empty summary for thread
func NewSummary(thread string) *Summary {
	return &Summary{Thread: thread, Counts: make(map[OutcomeKind]int)}
}

// Add records one outcome
func (s *Summary) Add(o Outcome) {
	s.Counts[o.Kind]++
}

// Total returns the number of recorded outcomes
func (s *Summary) Total() int {
	total := 0
	for _, n := range s.Counts {
		total += n
	}
	return total
}

func (s *Summary) String() string {
	parts := make([]string, 0, len(OutcomeKinds))
	for _, kind := range OutcomeKinds {
		if n := s.Counts[kind]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, strings.ReplaceAll(kind.String(), "_", " ")))
		}
	}
	if len(parts) == 0 {
		return s.Thread + ": no images"
	}
	return s.Thread + ": " + strings.Join(parts, ", ")
}
