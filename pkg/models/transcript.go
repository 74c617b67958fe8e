// Package models contains domain models for devconsole.
package models

import "time"

// TranscriptEntry records one submitted terminal line and the output it produced.
// Output is already sanitized when the entry is built.
type TranscriptEntry struct {
	Command   string   `json:"command"`
	Output    []string `json:"output"`
	Timestamp int64    `json:"timestamp"`
}

// NewTranscriptEntry creates an entry stamped with the current time.
// A nil output is normalized to an empty slice so it encodes as [].
func NewTranscriptEntry(command string, output []string) TranscriptEntry {
	if output == nil {
		output = []string{}
	}
	return TranscriptEntry{
		Command:   command,
		Output:    output,
		Timestamp: time.Now().UnixMilli(),
	}
}

// CreatedAt returns the time the entry was recorded.
func (e TranscriptEntry) CreatedAt() time.Time {
	return time.UnixMilli(e.Timestamp)
}
