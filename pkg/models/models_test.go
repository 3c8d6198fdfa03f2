package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOutcomeReport(t *testing.T) {
	tests := []struct {
		kind     OutcomeKind
		expected string
	}{
		{AlreadyExists, "1.jpg already exists"},
		{Downloaded, "1.jpg downloaded"},
		{AggregatorMiss, "1.jpg not found on iqdb"},
		{AggregatorFoundNoLink, "1.jpg found on iqdb but no downloadable link"},
		{FetchFailedAllCandidates, "1.jpg could not be downloaded"},
	}

	seen := make(map[string]bool)
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			line := Outcome{Kind: tt.kind, Name: "1.jpg"}.Report()
			assert.Equal(t, tt.expected, line)
			assert.False(t, seen[line], "every kind maps to its own line")
			seen[line] = true
		})
	}

	assert.Len(t, tests, len(OutcomeKinds), "every kind has a report line")
	assert.Equal(t, "downloading 1.jpg", ProgressLine("1.jpg"))
}

func TestOutcomeUnknownKindPanics(t *testing.T) {
	assert.Panics(t, func() { _ = Outcome{Kind: OutcomeKind(99)}.Report() })
	assert.Equal(t, "outcome(99)", OutcomeKind(99).String())
}

func TestSummary(t *testing.T) {
	s := NewSummary("1234 - Desk")
	assert.Equal(t, "1234 - Desk: no images", s.String())

	s.Add(Outcome{Kind: Downloaded})
	s.Add(Outcome{Kind: Downloaded})
	s.Add(Outcome{Kind: AlreadyExists})
	s.Add(Outcome{Kind: FetchFailedAllCandidates})

	assert.Equal(t, 4, s.Total())
	assert.Equal(t, "1234 - Desk: 1 already exists, 2 downloaded, 1 fetch failed all candidates", s.String())
}

func TestRegistryEntryString(t *testing.T) {
	assert.Equal(t, "https://boards.example/g/thread/1;1", RegistryEntry{URL: "https://boards.example/g/thread/1", Name: "1"}.String())
}
